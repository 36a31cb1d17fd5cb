package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"sync"
)

// EnvTestLevel names the environment variable that turns up test logging.
const EnvTestLevel = "GOPLAYER_TEST_LOG"

// NewTestLogger creates a logger for tests. It only reports warnings unless
// GOPLAYER_TEST_LOG names a lower level.
func NewTestLogger() *slog.Logger {
	level, ok := ParseLevel(os.Getenv(EnvTestLevel))
	if !ok {
		level = slog.LevelWarn
	}
	return NewLogger(Config{Level: level, Output: os.Stdout})
}

// Recorder keeps the JSON records of a logger so tests can assert on them.
type Recorder struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

// NewRecorder returns a debug-level logger whose records land in the returned Recorder.
func NewRecorder() (*slog.Logger, *Recorder) {
	rec := &Recorder{}
	handler := slog.NewJSONHandler(rec, &slog.HandlerOptions{Level: slog.LevelDebug})
	return slog.New(handler), rec
}

// Write implements io.Writer for the JSON handler.
func (r *Recorder) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.buf.Write(p)
}

// Find returns the first record logged with msg.
func (r *Recorder) Find(msg string) (map[string]any, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	dec := json.NewDecoder(bytes.NewReader(r.buf.Bytes()))
	for dec.More() {
		var record map[string]any
		if err := dec.Decode(&record); err != nil {
			return nil, false
		}
		if record[slog.MessageKey] == msg {
			return record, true
		}
	}
	return nil, false
}
