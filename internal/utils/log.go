package utils

import "strings"

// TruncateForLog puts a response body on a single line and cuts it to limit
// runes. A cut body ends with "...".
func TruncateForLog(body string, limit int) string {
	if limit <= 0 {
		return ""
	}
	flat := strings.Join(strings.Fields(body), " ")
	runes := []rune(flat)
	if len(runes) <= limit {
		return flat
	}
	return string(runes[:limit]) + "..."
}
