package http

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"
)

// Logger records provider API call activity. API keys are redacted
// before they reach any sink.
type Logger interface {
	LogRequest(ctx context.Context, req RequestLog)
	LogResponse(ctx context.Context, resp ResponseLog)
	LogError(ctx context.Context, err ErrorLog)
	LogInfo(ctx context.Context, message string, fields map[string]interface{})
	LogWarning(ctx context.Context, message string, fields map[string]interface{})
}

// RequestLog describes an outgoing API request.
type RequestLog struct {
	Provider    string
	Model       string
	Timestamp   time.Time
	PromptChars int
	APIKey      string
}

// ResponseLog describes a completed API response.
type ResponseLog struct {
	Provider   string
	Model      string
	Timestamp  time.Time
	Duration   time.Duration
	TokensIn   int
	TokensOut  int
	StatusCode int
}

// ErrorLog describes a failed API call.
type ErrorLog struct {
	Provider   string
	Model      string
	Timestamp  time.Time
	Duration   time.Duration
	Err        error
	Type       ErrorType
	StatusCode int
	Retryable  bool
}

// LogLevel sets logging verbosity.
type LogLevel int

const (
	LogLevelDebug LogLevel = iota
	LogLevelInfo
	LogLevelError
)

// LogFormat selects human or machine output.
type LogFormat int

const (
	LogFormatHuman LogFormat = iota
	LogFormatJSON
)

// DefaultLogger writes structured call logs via the standard logger.
type DefaultLogger struct {
	level  LogLevel
	format LogFormat
}

// NewDefaultLogger creates a logger at the given level and format.
func NewDefaultLogger(level LogLevel, format LogFormat) *DefaultLogger {
	return &DefaultLogger{level: level, format: format}
}

func (l *DefaultLogger) LogRequest(ctx context.Context, req RequestLog) {
	if l.level > LogLevelDebug {
		return
	}

	key := RedactAPIKey(req.APIKey)
	if l.format == LogFormatJSON {
		log.Printf(`{"level":"debug","type":"request","provider":"%s","model":"%s","timestamp":"%s","prompt_chars":%d,"api_key":"%s"}`,
			req.Provider, req.Model, req.Timestamp.Format(time.RFC3339), req.PromptChars, key)
		return
	}
	log.Printf("[DEBUG] %s/%s: request sent (prompt=%d chars, key=%s)",
		req.Provider, req.Model, req.PromptChars, key)
}

func (l *DefaultLogger) LogResponse(ctx context.Context, resp ResponseLog) {
	if l.level > LogLevelInfo {
		return
	}

	if l.format == LogFormatJSON {
		log.Printf(`{"level":"info","type":"response","provider":"%s","model":"%s","timestamp":"%s","duration_ms":%d,"tokens_in":%d,"tokens_out":%d,"status_code":%d}`,
			resp.Provider, resp.Model, resp.Timestamp.Format(time.RFC3339),
			resp.Duration.Milliseconds(), resp.TokensIn, resp.TokensOut, resp.StatusCode)
		return
	}
	log.Printf("[INFO] %s/%s: response received (duration=%.1fs, tokens=%d/%d)",
		resp.Provider, resp.Model, resp.Duration.Seconds(), resp.TokensIn, resp.TokensOut)
}

func (l *DefaultLogger) LogError(ctx context.Context, entry ErrorLog) {
	retryable := "non-retryable"
	if entry.Retryable {
		retryable = "retryable"
	}

	if l.format == LogFormatJSON {
		log.Printf(`{"level":"error","type":"error","provider":"%s","model":"%s","timestamp":"%s","duration_ms":%d,"error":"%s","status_code":%d,"retryable":%t}`,
			entry.Provider, entry.Model, entry.Timestamp.Format(time.RFC3339),
			entry.Duration.Milliseconds(), entry.Err.Error(), entry.StatusCode, entry.Retryable)
		return
	}
	log.Printf("[ERROR] %s/%s: API call failed (status=%d, %s): %v",
		entry.Provider, entry.Model, entry.StatusCode, retryable, entry.Err)
}

// LogInfo logs a general informational message with structured fields.
func (l *DefaultLogger) LogInfo(ctx context.Context, message string, fields map[string]interface{}) {
	if l.level > LogLevelInfo {
		return
	}
	l.logMessage("info", "[INFO]", message, fields)
}

// LogWarning logs a warning message with structured fields.
func (l *DefaultLogger) LogWarning(ctx context.Context, message string, fields map[string]interface{}) {
	l.logMessage("warn", "[WARN]", message, fields)
}

func (l *DefaultLogger) logMessage(level, prefix, message string, fields map[string]interface{}) {
	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	if l.format == LogFormatJSON {
		parts := make([]string, 0, len(keys)+2)
		parts = append(parts, fmt.Sprintf(`"level":"%s"`, level), fmt.Sprintf(`"message":"%s"`, message))
		for _, key := range keys {
			parts = append(parts, fmt.Sprintf(`"%s":"%v"`, key, fields[key]))
		}
		log.Printf("{%s}", strings.Join(parts, ","))
		return
	}

	pairs := make([]string, 0, len(keys))
	for _, key := range keys {
		pairs = append(pairs, fmt.Sprintf("%s=%v", key, fields[key]))
	}
	if len(pairs) == 0 {
		log.Printf("%s %s", prefix, message)
		return
	}
	log.Printf("%s %s %s", prefix, message, strings.Join(pairs, " "))
}

// RedactAPIKey keeps only the last 4 characters of a key.
func RedactAPIKey(key string) string {
	if key == "" {
		return ""
	}
	if len(key) <= 4 {
		return "[REDACTED]"
	}
	return fmt.Sprintf("[REDACTED-%s]", key[len(key)-4:])
}
