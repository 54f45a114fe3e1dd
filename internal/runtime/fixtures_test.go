package runtime

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
)

// Minimal hand-assembled wasm binaries used as guest fixtures. Assembling
// them by hand keeps the tests free of any wasm toolchain dependency.

// moduleEmpty is a valid module with no sections at all: it instantiates
// but exports nothing, in particular no memory.
var moduleEmpty = []byte{
	0x00, 0x61, 0x73, 0x6d, // magic
	0x01, 0x00, 0x00, 0x00, // version 1
}

// moduleMemoryOnly exports one page of linear memory and nothing else:
// instantiation succeeds, no entry point exists.
var moduleMemoryOnly = []byte{
	0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00,
	// memory section: one memory, min 1 page, no max
	0x05, 0x03, 0x01, 0x00, 0x01,
	// export section: "memory" -> mem 0
	0x07, 0x0a, 0x01,
	0x06, 'm', 'e', 'm', 'o', 'r', 'y', 0x02, 0x00,
}

// moduleLogStart imports env.log, exports memory and a _start that calls
// log("INFO", "hello") with the strings placed in linear memory by data
// segments (level at offset 16, message at offset 32).
var moduleLogStart = []byte{
	0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00,
	// type section: (i32,i32,i32,i32)->() and ()->()
	0x01, 0x0b, 0x02,
	0x60, 0x04, 0x7f, 0x7f, 0x7f, 0x7f, 0x00,
	0x60, 0x00, 0x00,
	// import section: func env.log, type 0
	0x02, 0x0b, 0x01,
	0x03, 'e', 'n', 'v',
	0x03, 'l', 'o', 'g',
	0x00, 0x00,
	// function section: one function of type 1
	0x03, 0x02, 0x01, 0x01,
	// memory section: min 1 page
	0x05, 0x03, 0x01, 0x00, 0x01,
	// export section: "memory" -> mem 0, "_start" -> func 1
	0x07, 0x13, 0x02,
	0x06, 'm', 'e', 'm', 'o', 'r', 'y', 0x02, 0x00,
	0x06, '_', 's', 't', 'a', 'r', 't', 0x00, 0x01,
	// code section: _start body
	0x0a, 0x0e, 0x01,
	0x0c, // body size
	0x00, // no locals
	0x41, 0x10, // i32.const 16 (level_ptr)
	0x41, 0x04, // i32.const 4  (level_len)
	0x41, 0x20, // i32.const 32 (msg_ptr)
	0x41, 0x05, // i32.const 5  (msg_len)
	0x10, 0x00, // call env.log
	0x0b, // end
	// data section: "INFO" at 16, "hello" at 32
	0x0b, 0x14, 0x02,
	0x00, 0x41, 0x10, 0x0b, 0x04, 'I', 'N', 'F', 'O',
	0x00, 0x41, 0x20, 0x0b, 0x05, 'h', 'e', 'l', 'l', 'o',
}

// moduleTrapStart exports memory and a _start whose only instruction is
// unreachable, so running it traps.
var moduleTrapStart = []byte{
	0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00,
	// type section: ()->()
	0x01, 0x04, 0x01, 0x60, 0x00, 0x00,
	// function section: one function of type 0
	0x03, 0x02, 0x01, 0x00,
	// memory section: min 1 page
	0x05, 0x03, 0x01, 0x00, 0x01,
	// export section: "memory" -> mem 0, "_start" -> func 0
	0x07, 0x13, 0x02,
	0x06, 'm', 'e', 'm', 'o', 'r', 'y', 0x02, 0x00,
	0x06, '_', 's', 't', 'a', 'r', 't', 0x00, 0x00,
	// code section: _start body: unreachable
	0x0a, 0x05, 0x01, 0x03, 0x00, 0x00, 0x0b,
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestSession(t *testing.T) *Session {
	t.Helper()
	return newSession(5*time.Second, discardLogger())
}

// newGuestMemory instantiates moduleMemoryOnly and hands back its exported
// linear memory for accessor and bridge tests.
func newGuestMemory(t *testing.T) api.Memory {
	t.Helper()
	ctx := context.Background()
	r := wazero.NewRuntime(ctx)
	t.Cleanup(func() { _ = r.Close(ctx) })

	mod, err := r.Instantiate(ctx, moduleMemoryOnly)
	require.NoError(t, err)

	mem := mod.ExportedMemory("memory")
	require.NotNil(t, mem)
	return mem
}
