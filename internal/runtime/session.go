package runtime

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// Session is the per-invocation execution state: a fresh capability bridge,
// a fresh output sink, and a start timestamp. No session outlives its
// request, and no two sessions ever share a sink or bridge; that isolation
// is what keeps state from leaking between unrelated guest executions.
type Session struct {
	ID     string
	Bridge *Bridge
	Sink   *OutputSink
	Start  time.Time

	client *http.Client
}

func newSession(fetchTimeout time.Duration, logger *slog.Logger) *Session {
	id := uuid.NewString()
	logger = logger.With("session", id)
	sink := NewOutputSink(logger)
	client := &http.Client{Timeout: fetchTimeout}
	return &Session{
		ID:     id,
		Bridge: NewBridge(sink, client, logger),
		Sink:   sink,
		Start:  time.Now(),
		client: client,
	}
}

// Close releases session resources. The HTTP client's idle connections are
// dropped so nothing accumulates across requests.
func (s *Session) Close() {
	s.client.CloseIdleConnections()
}

// Elapsed returns the wall-clock time since session start in milliseconds.
func (s *Session) Elapsed() int64 {
	return time.Since(s.Start).Milliseconds()
}
