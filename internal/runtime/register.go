package runtime

import (
	"context"
	"unicode/utf8"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
)

// hostModuleName is the import namespace guests link their capability
// imports under.
const hostModuleName = "env"

// RegisterHostFunctions registers the three capability imports with the
// wazero runtime under the "env" namespace:
//
//	log(level_ptr, level_len, msg_ptr, msg_len)
//	clock() -> u64
//	fetch(req_ptr, req_len, resp_ptr, resp_cap) -> i32
//
// Each function routes every guest-memory touch through the bounds-checked
// accessors in memory.go.
func RegisterHostFunctions(ctx context.Context, r wazero.Runtime, bridge *Bridge) error {
	_, err := r.NewHostModuleBuilder(hostModuleName).
		NewFunctionBuilder().
		WithFunc(func(_ context.Context, m api.Module, levelPtr, levelLen, msgPtr, msgLen uint32) {
			hostLog(bridge, guestMemory(bridge, m, "log"), levelPtr, levelLen, msgPtr, msgLen)
		}).
		WithParameterNames("level_ptr", "level_len", "msg_ptr", "msg_len").
		Export("log").
		NewFunctionBuilder().
		WithFunc(func(_ context.Context, _ api.Module) uint64 {
			return bridge.Clock()
		}).
		Export("clock").
		NewFunctionBuilder().
		WithFunc(func(ctx context.Context, m api.Module, reqPtr, reqLen, respPtr, respCap uint32) int32 {
			return hostFetch(ctx, bridge, guestMemory(bridge, m, "fetch"), reqPtr, reqLen, respPtr, respCap)
		}).
		WithParameterNames("req_ptr", "req_len", "resp_ptr", "resp_cap").
		Export("fetch").
		Instantiate(ctx)
	return err
}

// guestMemory resolves the calling module's linear memory. The sandbox
// adapter rejects modules without a memory export before running them, so a
// nil memory here is a broken host invariant, not a guest mistake.
func guestMemory(bridge *Bridge, m api.Module, capability string) api.Memory {
	mem := m.Memory()
	if mem == nil {
		bridge.failf("%s: guest module has no linear memory", capability)
	}
	return mem
}

// hostLog reads level and message from guest memory and forwards them to the
// bridge. A guest-attributable problem (out-of-bounds arguments, malformed
// UTF-8) drops this single call with a diagnostic; it never faults the
// execution.
func hostLog(bridge *Bridge, mem api.Memory, levelPtr, levelLen, msgPtr, msgLen uint32) {
	level, err := readMemory(mem, levelPtr, levelLen)
	if err != nil {
		bridge.logger.Warn("log capability: dropping call", "error", err)
		return
	}
	msg, err := readMemory(mem, msgPtr, msgLen)
	if err != nil {
		bridge.logger.Warn("log capability: dropping call", "error", err)
		return
	}
	if !utf8.Valid(level) || !utf8.Valid(msg) {
		bridge.logger.Warn("log capability: dropping call with invalid UTF-8")
		return
	}
	bridge.Log(string(level), string(msg))
}

// hostFetch services one guest fetch call. The serialized FetchResult is
// written into the guest-supplied buffer only when it fits entirely; an
// over-capacity result returns the negative of the required byte length and
// leaves the buffer untouched, so the guest can reallocate and retry.
func hostFetch(ctx context.Context, bridge *Bridge, mem api.Memory, reqPtr, reqLen, respPtr, respCap uint32) int32 {
	var result []byte
	raw, err := readMemory(mem, reqPtr, reqLen)
	if err != nil {
		result = mustMarshal(fetchFailure("INVALID_REQUEST", err.Error()))
	} else {
		result = bridge.Fetch(ctx, raw)
	}

	if uint64(len(result)) > uint64(respCap) {
		return -int32(len(result))
	}
	if err := writeMemory(mem, respPtr, result); err != nil {
		// Capacity was declared for a region that is not actually writable.
		bridge.failf("fetch: response buffer: %v", err)
	}
	return int32(len(result))
}
