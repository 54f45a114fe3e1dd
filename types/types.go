package types

import "time"

// CodeType identifies the kind of guest payload being executed.
type CodeType string

const (
	CodeTypeJavaScript  CodeType = "javascript"
	CodeTypeWebAssembly CodeType = "webassembly"
	CodeTypeUnknown     CodeType = "unknown"
)

// ExecutionMetadata describes one execution for API clients.
type ExecutionMetadata struct {
	// Execution time in milliseconds, measured from session start until the
	// guest entry point returns.
	ExecutionTime int64 `json:"execution_time"`
	// Kind of code executed.
	CodeType CodeType `json:"code_type"`
	// RFC 3339 timestamp of when the result was assembled.
	Timestamp string `json:"timestamp"`
	// Size of the downloaded payload in bytes.
	ResourceSize int `json:"resource_size"`
}

// ErrorInfo is the machine-readable error shape returned to API clients.
type ErrorInfo struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// ExecuteResponse is the uniform result envelope for one guest execution.
// It is produced exactly once per invocation and never mutated afterwards.
type ExecuteResponse struct {
	// "success" or "error".
	Status string `json:"status"`
	// Stringified primitive result of the guest, if execution succeeded.
	Output *string `json:"output"`
	// Captured stdout-equivalent stream contents.
	Stdout *string `json:"stdout"`
	// Captured stderr-equivalent stream contents.
	Stderr *string `json:"stderr"`
	// Error information, if execution failed.
	Error *ErrorInfo `json:"error"`
	// Metadata about the execution.
	Metadata ExecutionMetadata `json:"metadata"`
}

// Timestamp returns the current time in the envelope's RFC 3339 form.
func Timestamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}
