package runtime

import (
	"context"
	"log/slog"

	"github.com/tetratelabs/wazero"

	"github.com/coldbrew-labs/runlet/types"
)

const (
	// guestMemoryExport is the linear memory export every compiled guest
	// must provide; the capability bridge cannot marshal without it.
	guestMemoryExport = "memory"
	// guestEntryPoint is the conventional parameterless entry point export.
	// Its absence is not an error: instantiation alone is a valid outcome.
	guestEntryPoint = "_start"
)

const (
	outputModuleExecuted     = "WASM module executed (_start)"
	outputModuleInstantiated = "WASM module instantiated (no _start called or found)"
)

// wasmSandbox runs compiled WebAssembly payloads on a wazero runtime. Each
// Run builds a fresh runtime and single-use guest instance; nothing is
// shared or reused across invocations.
type wasmSandbox struct {
	logger *slog.Logger
}

func (s *wasmSandbox) Run(ctx context.Context, sess *Session, code []byte) (string, error) {
	r := wazero.NewRuntime(ctx)
	defer r.Close(ctx)

	if err := RegisterHostFunctions(ctx, r, sess.Bridge); err != nil {
		return "", types.InternalError{Msg: "failed to register host functions: " + err.Error()}
	}

	compiled, err := r.CompileModule(ctx, code)
	if err != nil {
		return "", types.ModuleError{Err: err}
	}

	// WithStartFunctions() disables wazero's automatic _start invocation:
	// the memory export has to be verified before any guest code that could
	// call back into the bridge runs, and the entry point call is timed
	// separately by the orchestrator.
	mod, err := r.InstantiateModule(ctx, compiled, wazero.NewModuleConfig().
		WithName("guest").
		WithStartFunctions())
	if err != nil {
		return "", s.classifyFault(sess, err)
	}
	defer mod.Close(ctx)

	if mod.ExportedMemory(guestMemoryExport) == nil {
		return "", types.InternalError{Msg: "WASM module does not export 'memory'"}
	}

	start := mod.ExportedFunction(guestEntryPoint)
	if start == nil {
		s.logger.Debug("guest has no entry point, reporting instantiation only")
		return outputModuleInstantiated, nil
	}

	if _, err := start.Call(ctx); err != nil {
		return "", s.classifyFault(sess, err)
	}
	return outputModuleExecuted, nil
}

// classifyFault attributes a trap to its side of the boundary: a fault the
// bridge recorded is host-attributable and surfaces as InternalError,
// anything else is a guest engine failure.
func (s *wasmSandbox) classifyFault(sess *Session, err error) error {
	if fault := sess.Bridge.Fault(); fault != nil {
		return types.InternalError{Msg: fault.Error()}
	}
	return types.ModuleError{Err: err}
}
