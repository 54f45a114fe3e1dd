package runtime

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/coldbrew-labs/runlet/internal/loader"
	"github.com/coldbrew-labs/runlet/types"
)

// sandbox is the per-engine adapter contract: instantiate the guest with
// the session's bridge and sink wired in, drive its entry point, and report
// the outcome. Two implementations exist, one per guest kind.
type sandbox interface {
	Run(ctx context.Context, sess *Session, code []byte) (output string, err error)
}

// Options configures an Executor.
type Options struct {
	// FetchTimeout bounds each outbound HTTP request a guest makes through
	// the fetch capability.
	FetchTimeout time.Duration
	// Logger receives host diagnostics. Defaults to slog.Default().
	Logger *slog.Logger
}

// Executor is the top-level driver for one guest execution: it classifies
// the payload kind, downloads the code, builds a fresh isolated session,
// delegates to the matching sandbox adapter, and assembles the result
// envelope.
//
// There is deliberately no timeout or cancellation on guest execution
// itself: a hung guest blocks its session until the process is restarted.
// Operators deploying this service should front it with request deadlines.
type Executor struct {
	loader       loader.Loader
	fetchTimeout time.Duration
	logger       *slog.Logger
	js           *jsSandbox
	wasm         *wasmSandbox
}

// NewExecutor builds an executor that downloads payloads through ld.
func NewExecutor(ld loader.Loader, opts Options) *Executor {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	fetchTimeout := opts.FetchTimeout
	if fetchTimeout <= 0 {
		fetchTimeout = 30 * time.Second
	}
	return &Executor{
		loader:       ld,
		fetchTimeout: fetchTimeout,
		logger:       logger,
		js:           &jsSandbox{logger: logger},
		wasm:         &wasmSandbox{logger: logger},
	}
}

// Classify determines the guest kind from the URL's file suffix. Exactly
// two suffixes are recognized; anything else is rejected here, before any
// download work is spent.
func Classify(url string) (types.CodeType, error) {
	switch {
	case strings.HasSuffix(url, ".js"):
		return types.CodeTypeJavaScript, nil
	case strings.HasSuffix(url, ".wasm"):
		return types.CodeTypeWebAssembly, nil
	default:
		return types.CodeTypeUnknown, types.InternalError{
			Msg: "Unsupported file extension. Only .js and .wasm are supported.",
		}
	}
}

// Execute downloads and runs the payload at url, returning the result
// envelope. Every failure mode comes back as one of the types.AppError
// variants; no internal error type crosses this boundary.
func (e *Executor) Execute(ctx context.Context, url string) (*types.ExecuteResponse, error) {
	codeType, err := Classify(url)
	if err != nil {
		return nil, err
	}

	code, err := e.loader.Load(ctx, url)
	if err != nil {
		return nil, err
	}
	e.logger.Info("executing guest payload", "code_type", codeType, "size", len(code), "url", url)

	sess := newSession(e.fetchTimeout, e.logger)
	defer sess.Close()

	var sb sandbox
	switch codeType {
	case types.CodeTypeJavaScript:
		sb = e.js
	case types.CodeTypeWebAssembly:
		sb = e.wasm
	}

	output, runErr := sb.Run(ctx, sess, code)
	elapsed := sess.Elapsed()
	if runErr != nil {
		e.logger.Warn("guest execution failed", "session", sess.ID, "error", runErr)
		return nil, runErr
	}

	stdout := sess.Sink.Stdout()
	stderr := sess.Sink.Stderr()
	return &types.ExecuteResponse{
		Status: "success",
		Output: &output,
		Stdout: &stdout,
		Stderr: &stderr,
		Metadata: types.ExecutionMetadata{
			ExecutionTime: elapsed,
			CodeType:      codeType,
			Timestamp:     types.Timestamp(),
			ResourceSize:  len(code),
		},
	}, nil
}
