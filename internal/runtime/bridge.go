package runtime

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/net/http/httpguts"

	"github.com/coldbrew-labs/runlet/types"
)

// Bridge implements the fixed capability surface exposed to one guest:
// log, clock, and fetch. A fresh bridge is created per execution session;
// the HTTP client is owned by the bridge and reused across repeated fetch
// calls within the session.
type Bridge struct {
	sink   *OutputSink
	client *http.Client
	logger *slog.Logger
	now    func() time.Time

	mu    sync.Mutex
	fault error
}

// NewBridge wires a bridge to its session's sink and HTTP client.
func NewBridge(sink *OutputSink, client *http.Client, logger *slog.Logger) *Bridge {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bridge{
		sink:   sink,
		client: client,
		logger: logger,
		now:    time.Now,
	}
}

// Log records one guest log call: the message goes to the captured stdout
// stream, the level-tagged form to host diagnostics. Log never fails the
// guest.
func (b *Bridge) Log(level, message string) {
	b.logger.Debug(fmt.Sprintf("[%s]: %s", strings.ToUpper(level), message), "capability", "log")
	b.sink.WriteStdout(message)
}

// Clock returns the current Unix time in whole seconds.
func (b *Bridge) Clock() uint64 {
	return uint64(b.now().Unix())
}

// Do validates and issues a guest-declared HTTP request. It always returns
// a FetchResult the guest can observe: invalid requests and transport
// failures become status 0 with an error descriptor, never a host error.
func (b *Bridge) Do(ctx context.Context, req types.FetchRequest) types.FetchResult {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	var body io.Reader
	if req.Body != nil {
		body = strings.NewReader(*req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, req.URL, body)
	if err != nil {
		return fetchFailure("INVALID_REQUEST", fmt.Sprintf("invalid fetch request: %v", err))
	}
	for name, value := range req.Headers {
		if !httpguts.ValidHeaderFieldName(name) {
			return fetchFailure("INVALID_REQUEST", fmt.Sprintf("invalid header name %q", name))
		}
		if !httpguts.ValidHeaderFieldValue(value) {
			return fetchFailure("INVALID_REQUEST", fmt.Sprintf("invalid header value for %q", name))
		}
		httpReq.Header.Set(name, value)
	}

	resp, err := b.client.Do(httpReq)
	if err != nil {
		return fetchFailure("FETCH_FAILED", fmt.Sprintf("HTTP request execution failed: %v", err))
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fetchFailure("FETCH_FAILED", fmt.Sprintf("failed to read response body: %v", err))
	}

	headers := make(map[string]string, len(resp.Header))
	for name, values := range resp.Header {
		headers[name] = strings.Join(values, ", ")
	}

	return types.FetchResult{
		Status:  resp.StatusCode,
		Headers: headers,
		Body:    string(respBody),
	}
}

// Fetch is the wire-level form of Do: it decodes a JSON FetchRequest from
// raw guest bytes and returns the serialized JSON FetchResult. The returned
// bytes are always a well-formed result; decoding failures are reported to
// the guest inside the result.
func (b *Bridge) Fetch(ctx context.Context, raw []byte) []byte {
	var req types.FetchRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return mustMarshal(fetchFailure("INVALID_REQUEST", fmt.Sprintf("failed to decode fetch request: %v", err)))
	}
	return mustMarshal(b.Do(ctx, req))
}

// failf records a host-attributable fault and aborts the current guest call.
// The sandbox adapter reads the fault back after the engine reports the trap
// so the failure surfaces as an internal error rather than a guest one.
func (b *Bridge) failf(format string, args ...any) {
	err := fmt.Errorf(format, args...)
	b.mu.Lock()
	b.fault = err
	b.mu.Unlock()
	panic(err)
}

// Fault returns the host-attributable fault recorded during guest
// execution, if any.
func (b *Bridge) Fault() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.fault
}

func fetchFailure(code, message string) types.FetchResult {
	return types.FetchResult{
		Status:  0,
		Headers: map[string]string{},
		Error:   &types.FetchFailure{Code: code, Message: message},
	}
}

func mustMarshal(result types.FetchResult) []byte {
	data, err := json.Marshal(result)
	if err != nil {
		// FetchResult contains only strings and maps; this cannot fail.
		panic(fmt.Errorf("marshal fetch result: %w", err))
	}
	return data
}
