// internal/app/system/limits/limits.go
package limits

// Request body size limits for the JSON API.
// These limits help prevent memory exhaustion from oversized requests.
const (
	// MaxJSONBodySize caps every decoded request body.
	MaxJSONBodySize = 1 << 20 // 1 MB
)
