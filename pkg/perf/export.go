package perf

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// ExportError reports a failed export. Exports are best-effort: the
// error goes back to the operational caller, never to the session layer.
type ExportError struct {
	Dest string
	Err  error
}

// Error implements the error interface.
func (e *ExportError) Error() string {
	return fmt.Sprintf("perf: export to %s failed: %v", e.Dest, e.Err)
}

// Unwrap returns the underlying error.
func (e *ExportError) Unwrap() error { return e.Err }

// ExportPayload is the stable structured format written by Export.
type ExportPayload struct {
	ExportedAt time.Time           `json:"exported_at"`
	Records    map[string][]Record `json:"records"`
	Summaries  map[string]Summary  `json:"summaries"`

	// Under500ms is the voice-perceived latency target fraction,
	// present only when the voice interaction label is populated.
	Under500ms *float64 `json:"under_500ms,omitempty"`
}

// Export writes the full record log plus summaries to w as JSON.
func (t *Tracker) Export(w io.Writer) error {
	payload := ExportPayload{
		ExportedAt: time.Now(),
		Records:    t.snapshot(),
		Summaries:  t.Summarize(),
	}
	if frac, ok := t.Under500ms(LabelVoiceInteraction); ok {
		payload.Under500ms = &frac
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(payload); err != nil {
		return &ExportError{Dest: "writer", Err: err}
	}
	return nil
}

// ExportFile writes the export payload to a timestamped file under dir.
// Returns the written path.
func (t *Tracker) ExportFile(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", &ExportError{Dest: dir, Err: err}
	}

	path := filepath.Join(dir, fmt.Sprintf("latency-%s.json", time.Now().Format("20060102-150405")))
	f, err := os.Create(path)
	if err != nil {
		return "", &ExportError{Dest: path, Err: err}
	}
	defer f.Close()

	if err := t.Export(f); err != nil {
		return "", &ExportError{Dest: path, Err: err}
	}
	return path, nil
}
