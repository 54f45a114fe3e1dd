package runtime

import (
	"log/slog"
	"strings"
	"sync"
)

// OutputSink captures the guest's stdout- and stderr-equivalent streams.
// Appends are serialized through a mutex so concurrent capability calls
// never interleave partial lines; the lock is held only for the append,
// never across the diagnostic mirror. One sink exists per execution
// session and is discarded with it.
type OutputSink struct {
	mu     sync.Mutex
	stdout strings.Builder
	stderr strings.Builder
	logger *slog.Logger
}

// NewOutputSink returns an empty sink mirroring writes to logger.
func NewOutputSink(logger *slog.Logger) *OutputSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &OutputSink{logger: logger}
}

// WriteStdout appends text plus a trailing newline to the stdout stream.
func (s *OutputSink) WriteStdout(text string) {
	s.mu.Lock()
	s.stdout.WriteString(text)
	s.stdout.WriteByte('\n')
	s.mu.Unlock()
	s.logger.Info("guest output", "stream", "stdout", "text", text)
}

// WriteStderr appends text plus a trailing newline to the stderr stream.
func (s *OutputSink) WriteStderr(text string) {
	s.mu.Lock()
	s.stderr.WriteString(text)
	s.stderr.WriteByte('\n')
	s.mu.Unlock()
	s.logger.Info("guest output", "stream", "stderr", "text", text)
}

// Stdout returns the full stdout stream contents without clearing them.
func (s *OutputSink) Stdout() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stdout.String()
}

// Stderr returns the full stderr stream contents without clearing them.
func (s *OutputSink) Stderr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stderr.String()
}
