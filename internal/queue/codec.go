package queue

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"

	"usermail/internal/types"
)

// maxDecodedSize bounds the decompressed body. SQS caps bodies at 256 KiB and
// a UserEmailMessage is far smaller, so anything larger is rejected.
const maxDecodedSize = 4 << 20

var (
	encoder, _ = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))

	decoderPool = sync.Pool{
		New: func() any {
			d, err := zstd.NewReader(nil,
				zstd.WithDecoderConcurrency(1),
				zstd.WithDecoderMaxMemory(maxDecodedSize),
			)
			if err != nil {
				panic(fmt.Sprintf("failed to create zstd decoder: %v", err))
			}
			return d
		},
	}
)

// EncodeMessage serializes msg to JSON. Bodies longer than threshold bytes
// are zstd-compressed and base64 encoded, and the returned encoding is
// types.ContentEncodingZstd. A threshold of zero disables compression.
func EncodeMessage(msg types.UserEmailMessage, threshold int) (body string, encoding string, err error) {
	raw, err := json.Marshal(msg)
	if err != nil {
		return "", "", fmt.Errorf("queue: failed to marshal UserEmailMessage: %w", err)
	}
	if threshold <= 0 || len(raw) <= threshold {
		return string(raw), "", nil
	}
	compressed := encoder.EncodeAll(raw, make([]byte, 0, len(raw)/2))
	return base64.StdEncoding.EncodeToString(compressed), types.ContentEncodingZstd, nil
}

// DecodeMessage reverses EncodeMessage. encoding is the content_encoding
// message attribute, empty for plain JSON. Undecodable bodies are returned
// as ErrCodeValidationPayload so the worker drops them instead of retrying.
func DecodeMessage(body string, encoding string) (types.UserEmailMessage, error) {
	var msg types.UserEmailMessage

	raw := []byte(body)
	switch encoding {
	case "":
	case types.ContentEncodingZstd:
		compressed, err := base64.StdEncoding.DecodeString(body)
		if err != nil {
			return msg, payloadError("invalid base64 body", err)
		}
		raw, err = decompress(compressed)
		if err != nil {
			return msg, payloadError("invalid zstd body", err)
		}
	default:
		return msg, payloadError(fmt.Sprintf("unsupported content encoding %q", encoding), nil)
	}

	if err := json.Unmarshal(raw, &msg); err != nil {
		return msg, payloadError("invalid JSON body", err)
	}
	return msg, nil
}

func decompress(data []byte) ([]byte, error) {
	decoder := decoderPool.Get().(*zstd.Decoder)
	defer decoderPool.Put(decoder)
	return decoder.DecodeAll(data, nil)
}

func payloadError(msg string, err error) error {
	return types.NewAppError(types.ErrCodeValidationPayload, "queue: "+msg, err)
}
