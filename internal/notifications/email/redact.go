package email

import "strings"

// RedactEmail masks an address for logging: "john@gmail.com" becomes
// "j***@gmail.com". Strings without "@" are masked entirely.
func RedactEmail(address string) string {
	if address == "" {
		return ""
	}
	local, domain, ok := strings.Cut(address, "@")
	if !ok {
		return "***"
	}
	if local == "" {
		return "***@" + domain
	}
	return local[:1] + "***@" + domain
}
