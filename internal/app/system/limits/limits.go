// internal/app/system/limits/limits.go
package limits

import "time"

// Upload proxy limits.
const (
	// DefaultMaxUploadSize caps a single POST /upload body.
	DefaultMaxUploadSize = 100 << 20 // 100 MB

	// DefaultUploadsPerWindow is how many uploads one client IP may send
	// per UploadWindow.
	DefaultUploadsPerWindow = 30
	UploadWindow            = time.Minute
)
