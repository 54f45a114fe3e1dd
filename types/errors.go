package types

import (
	"fmt"
	"net/http"
)

// AppError is the single error contract crossing the external interface.
// Exactly four variants exist; each carries a machine-readable code and
// knows the HTTP status class it maps to.
type AppError interface {
	error
	ErrorInfo() ErrorInfo
	HTTPStatus() int
}

var (
	_ AppError = ScriptError{}
	_ AppError = ModuleError{}
	_ AppError = FetchError{}
	_ AppError = InternalError{}
)

// ScriptError is a failure inside the JavaScript engine (parse or runtime
// exception thrown by the guest).
type ScriptError struct {
	Err error
}

func (e ScriptError) Error() string {
	return fmt.Sprintf("javascript execution error: %v", e.Err)
}

func (e ScriptError) Unwrap() error { return e.Err }

func (e ScriptError) ErrorInfo() ErrorInfo {
	return ErrorInfo{
		Code:    "JAVASCRIPT_EXECUTION_ERROR",
		Message: fmt.Sprintf("JavaScript Execution Error: %v", e.Err),
		Details: map[string]any{"errorType": "goja"},
	}
}

func (e ScriptError) HTTPStatus() int { return http.StatusInternalServerError }

// ModuleError is a failure inside the WebAssembly engine: compile, link,
// instantiate, or a trap raised while the guest was running.
type ModuleError struct {
	Err error
}

func (e ModuleError) Error() string {
	return fmt.Sprintf("webassembly execution error: %v", e.Err)
}

func (e ModuleError) Unwrap() error { return e.Err }

func (e ModuleError) ErrorInfo() ErrorInfo {
	return ErrorInfo{
		Code:    "WEBASSEMBLY_EXECUTION_ERROR",
		Message: fmt.Sprintf("WebAssembly Execution Error: %v", e.Err),
		Details: map[string]any{"errorType": "wazero"},
	}
}

func (e ModuleError) HTTPStatus() int { return http.StatusInternalServerError }

// FetchError is a failure downloading the guest payload. In-guest fetch
// capability failures are never mapped to this type; those are handed back
// to the guest as a FetchResult with an error descriptor.
type FetchError struct {
	URL    string
	Status int
	Err    error
}

func (e FetchError) Error() string {
	return fmt.Sprintf("failed to fetch resource %s: %v", e.URL, e.Err)
}

func (e FetchError) Unwrap() error { return e.Err }

func (e FetchError) ErrorInfo() ErrorInfo {
	details := map[string]any{}
	if e.URL != "" {
		details["url"] = e.URL
	}
	if e.Status != 0 {
		details["status"] = e.Status
	}
	if len(details) == 0 {
		details = nil
	}
	return ErrorInfo{
		Code:    "FETCH_ERROR",
		Message: fmt.Sprintf("Failed to fetch resource: %v", e.Err),
		Details: details,
	}
}

func (e FetchError) HTTPStatus() int { return http.StatusBadGateway }

// InternalError covers everything else: unsupported suffix, bad UTF-8
// payloads, missing memory export, broken host invariants.
type InternalError struct {
	Msg string
}

func (e InternalError) Error() string { return e.Msg }

func (e InternalError) ErrorInfo() ErrorInfo {
	return ErrorInfo{
		Code:    "INTERNAL_ERROR",
		Message: e.Msg,
	}
}

func (e InternalError) HTTPStatus() int { return http.StatusInternalServerError }

// ErrorResponse renders an AppError into the fixed envelope shape. Timing
// and size are zero: the failure happened before or outside measured guest
// execution.
func ErrorResponse(err AppError) ExecuteResponse {
	info := err.ErrorInfo()
	return ExecuteResponse{
		Status: "error",
		Error:  &info,
		Metadata: ExecutionMetadata{
			ExecutionTime: 0,
			CodeType:      CodeTypeUnknown,
			Timestamp:     Timestamp(),
			ResourceSize:  0,
		},
	}
}
