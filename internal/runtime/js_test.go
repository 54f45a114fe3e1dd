package runtime

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/coldbrew-labs/runlet/types"
)

func runJS(t *testing.T, code string) (string, *Session, error) {
	t.Helper()
	sess := newTestSession(t)
	t.Cleanup(sess.Close)
	output, err := (&jsSandbox{logger: discardLogger()}).Run(context.Background(), sess, []byte(code))
	return output, sess, err
}

func TestJSPrimitiveResults(t *testing.T) {
	tests := []struct {
		name string
		code string
		want string
	}{
		{"integer arithmetic", "1+1", "2"},
		{"float arithmetic", "0.5+1", "1.5"},
		{"string passthrough", "'hi' + '!'", "hi!"},
		{"boolean", "1 < 2", "true"},
		{"null", "null", "null"},
		{"undefined", "undefined", "undefined"},
		{"statement without value", "var x = 5", "undefined"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			output, sess, err := runJS(t, tt.code)
			require.NoError(t, err)
			require.Equal(t, tt.want, output)
			require.Empty(t, sess.Sink.Stdout())
			require.Empty(t, sess.Sink.Stderr())
		})
	}
}

func TestJSNonPrimitiveResultIsDescribed(t *testing.T) {
	output, _, err := runJS(t, "({a: 1})")
	require.NoError(t, err)
	require.Contains(t, output, "non-primitive")
}

func TestJSConsoleCapturedPerStream(t *testing.T) {
	output, sess, err := runJS(t, `console.log("to stdout"); console.error("to stderr"); "done"`)
	require.NoError(t, err)
	require.Equal(t, "done", output)
	require.Equal(t, "to stdout\n", sess.Sink.Stdout())
	require.Equal(t, "to stderr\n", sess.Sink.Stderr())
}

func TestJSConsoleFormatsObjects(t *testing.T) {
	_, sess, err := runJS(t, `console.log("state:", {x: 1}); 0`)
	require.NoError(t, err)
	require.Equal(t, `state: {"x":1}`+"\n", sess.Sink.Stdout())
}

func TestJSConsoleLineOrderMatchesCallOrder(t *testing.T) {
	_, sess, err := runJS(t, `for (var i = 0; i < 5; i++) { console.log("line " + i); } 0`)
	require.NoError(t, err)
	require.Equal(t, "line 0\nline 1\nline 2\nline 3\nline 4\n", sess.Sink.Stdout())
}

func TestJSLogCapability(t *testing.T) {
	_, sess, err := runJS(t, `log("INFO", "hello")`)
	require.NoError(t, err)
	require.Equal(t, "hello\n", sess.Sink.Stdout())
	require.Empty(t, sess.Sink.Stderr())
}

func TestJSClockCapability(t *testing.T) {
	output, _, err := runJS(t, `clock() > 1000000000`)
	require.NoError(t, err)
	require.Equal(t, "true", output)
}

func TestJSFetchCapability(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "guest", r.Header.Get("X-Caller"))
		body, _ := io.ReadAll(r.Body)
		require.Equal(t, "ping", string(body))
		io.WriteString(w, "pong")
	}))
	defer srv.Close()

	code := fmt.Sprintf(`
		var r = fetch({url: %q, method: "POST", headers: {"X-Caller": "guest"}, body: "ping"});
		r.status + ":" + r.body
	`, srv.URL)

	output, _, err := runJS(t, code)
	require.NoError(t, err)
	require.Equal(t, "200:pong", output)
}

// TestJSFetchFailureObservedByGuest: a failed fetch is handed to the guest
// as status 0 with an error descriptor; the execution itself stays
// successful.
func TestJSFetchFailureObservedByGuest(t *testing.T) {
	code := `
		var r = fetch({url: "http://127.0.0.1:1/unreachable"});
		r.status + ":" + r.error.code
	`
	output, _, err := runJS(t, code)
	require.NoError(t, err)
	require.Equal(t, "0:FETCH_FAILED", output)
}

func TestJSParseErrorIsScriptError(t *testing.T) {
	_, _, err := runJS(t, "function {")

	var scriptErr types.ScriptError
	require.ErrorAs(t, err, &scriptErr)
}

func TestJSThrownErrorIsScriptError(t *testing.T) {
	_, _, err := runJS(t, `throw new Error("boom")`)

	var scriptErr types.ScriptError
	require.ErrorAs(t, err, &scriptErr)
	require.Contains(t, scriptErr.Error(), "boom")
}

func TestJSInvalidUTF8PayloadIsInternalError(t *testing.T) {
	sess := newTestSession(t)
	defer sess.Close()

	_, err := (&jsSandbox{logger: discardLogger()}).Run(context.Background(), sess, []byte{0xff, 0xfe, 0xfd})

	var internal types.InternalError
	require.ErrorAs(t, err, &internal)
}
