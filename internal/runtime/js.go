package runtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/dop251/goja"

	"github.com/coldbrew-labs/runlet/types"
)

// jsSandbox runs scripted payloads in a fresh goja runtime per invocation.
// The capability bridge is injected as global callables and the console
// facility routes through the session's output sink, so captured output is
// identical in shape to the compiled-module variant.
type jsSandbox struct {
	logger *slog.Logger
}

func (s *jsSandbox) Run(ctx context.Context, sess *Session, code []byte) (string, error) {
	if !utf8.Valid(code) {
		return "", types.InternalError{Msg: "failed to convert downloaded code to string: payload is not valid UTF-8"}
	}

	s.logger.Debug("evaluating scripted payload", "bytes", len(code))

	vm := goja.New()
	if err := s.bindGuestGlobals(ctx, vm, sess); err != nil {
		return "", types.InternalError{Msg: "failed to set up guest globals: " + err.Error()}
	}

	value, err := vm.RunString(string(code))
	if err != nil {
		return "", types.ScriptError{Err: err}
	}
	return stringifyResult(value), nil
}

// bindGuestGlobals installs the scripted-variant capability surface:
// log(level, message), clock(), fetch(options), and a console object whose
// log/error methods feed the capture sink.
func (s *jsSandbox) bindGuestGlobals(ctx context.Context, vm *goja.Runtime, sess *Session) error {
	bridge := sess.Bridge
	sink := sess.Sink

	console := vm.NewObject()
	if err := console.Set("log", func(call goja.FunctionCall) goja.Value {
		sink.WriteStdout(consoleFormat(call.Arguments))
		return goja.Undefined()
	}); err != nil {
		return err
	}
	if err := console.Set("error", func(call goja.FunctionCall) goja.Value {
		sink.WriteStderr(consoleFormat(call.Arguments))
		return goja.Undefined()
	}); err != nil {
		return err
	}
	if err := vm.Set("console", console); err != nil {
		return err
	}

	if err := vm.Set("log", func(level, message string) {
		bridge.Log(level, message)
	}); err != nil {
		return err
	}
	if err := vm.Set("clock", func() int64 {
		return int64(bridge.Clock())
	}); err != nil {
		return err
	}
	return vm.Set("fetch", func(call goja.FunctionCall) goja.Value {
		req := fetchRequestFromValue(vm, call.Argument(0))
		return fetchResultToValue(vm, bridge.Do(ctx, req))
	})
}

// consoleFormat joins console arguments the way the guest-facing contract
// promises: objects and arrays as JSON, everything else stringified.
func consoleFormat(args []goja.Value) string {
	parts := make([]string, 0, len(args))
	for _, arg := range args {
		parts = append(parts, formatConsoleValue(arg))
	}
	return strings.Join(parts, " ")
}

func formatConsoleValue(v goja.Value) string {
	if v == nil || goja.IsUndefined(v) {
		return "undefined"
	}
	if goja.IsNull(v) {
		return "null"
	}
	switch exported := v.Export().(type) {
	case map[string]any, []any:
		if data, err := json.Marshal(exported); err == nil {
			return string(data)
		}
	}
	return v.String()
}

func fetchRequestFromValue(vm *goja.Runtime, opts goja.Value) types.FetchRequest {
	req := types.FetchRequest{
		Method:  http.MethodGet,
		Headers: map[string]string{},
	}
	if opts == nil || goja.IsUndefined(opts) || goja.IsNull(opts) {
		return req
	}
	obj := opts.ToObject(vm)
	if v := obj.Get("url"); isSet(v) {
		req.URL = v.String()
	}
	if v := obj.Get("method"); isSet(v) {
		req.Method = v.String()
	}
	if v := obj.Get("headers"); isSet(v) {
		if m, ok := v.Export().(map[string]any); ok {
			for name, value := range m {
				req.Headers[name] = fmt.Sprint(value)
			}
		}
	}
	if v := obj.Get("body"); isSet(v) {
		body := v.String()
		req.Body = &body
	}
	return req
}

func fetchResultToValue(vm *goja.Runtime, result types.FetchResult) goja.Value {
	out := map[string]any{
		"status":  result.Status,
		"headers": result.Headers,
		"body":    result.Body,
		"error":   nil,
	}
	if result.Error != nil {
		out["error"] = map[string]any{
			"code":    result.Error.Code,
			"message": result.Error.Message,
		}
	}
	return vm.ToValue(out)
}

func isSet(v goja.Value) bool {
	return v != nil && !goja.IsUndefined(v) && !goja.IsNull(v)
}

// stringifyResult converts the top-level evaluation result to its canonical
// string form: strings pass through, numbers and booleans stringify,
// null/undefined literalize, and anything non-primitive is described rather
// than serialized in full.
func stringifyResult(value goja.Value) string {
	if value == nil || goja.IsUndefined(value) {
		return "undefined"
	}
	if goja.IsNull(value) {
		return "null"
	}
	switch v := value.Export().(type) {
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprintf("Execution resulted in a non-primitive type: %v", value.ExportType())
	}
}
