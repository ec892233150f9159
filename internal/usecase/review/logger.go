package review

import "context"

// Logger is the structured logging port for the review pipeline.
// Implementations live in the adapter layer; a nil Logger disables
// logging entirely.
type Logger interface {
	// LogInfo logs progress with structured fields (unit IDs, sizes).
	LogInfo(ctx context.Context, message string, fields map[string]interface{})

	// LogWarning logs degraded-but-continuing conditions, such as a
	// unit whose evaluation failed.
	LogWarning(ctx context.Context, message string, fields map[string]interface{})
}
