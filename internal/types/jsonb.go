package types

import (
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

var (
	_ sql.Scanner   = (*JSONMap)(nil)
	_ driver.Valuer = JSONMap(nil)
)

// JSONMap is an opaque JSON object stored in a JSONB column. Notification
// data uses it to carry the per-type rendering payload.
type JSONMap map[string]any

// scanJSONB scans a JSONB database value into a Go pointer.
// It handles nil values, []byte, and string representations from different database drivers.
func scanJSONB(dest interface{}, value interface{}) error {
	if value == nil {
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	case map[string]any:
		// pgx decodes jsonb directly when the destination is not a Scanner
		// it recognises; re-encode so both paths end up identical.
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("jsonb: %w", err)
		}
		data = b
	default:
		return fmt.Errorf("jsonb: unsupported scan type %T", value)
	}
	return json.Unmarshal(data, dest)
}

// Scan implements the sql.Scanner interface for reading JSONB from the database.
func (m *JSONMap) Scan(value interface{}) error {
	if value == nil {
		*m = nil
		return nil
	}
	return scanJSONB(m, value)
}

// Value implements the driver.Valuer interface for writing JSONB to the database.
func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	return json.Marshal(m)
}

// String returns the value at key when it is a string.
func (m JSONMap) String(key string) string {
	if m == nil {
		return ""
	}
	s, _ := m[key].(string)
	return s
}
