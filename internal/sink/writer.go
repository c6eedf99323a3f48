// Package sink persists one harvest run's records to disk.
package sink

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Writer serializes harvested records as a JSON array plus a line-delimited
// variant next to it, creating output directories as needed.
type Writer struct{}

// NewWriter creates a Writer.
func NewWriter() *Writer { return &Writer{} }

// Write persists items to path (forced to a .json extension) and to a
// sibling .jsonl file. The JSONL variant is best-effort: a failure there
// is logged but does not fail the run, since the primary artifact exists.
func (w *Writer) Write(path string, items any) error {
	jsonPath := forceExt(path, ".json")

	if dir := filepath.Dir(jsonPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return eris.Wrapf(err, "sink: create output dir %s", dir)
		}
	}

	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return eris.Wrap(err, "sink: marshal records")
	}
	// A nil slice marshals as null; the artifact contract is a JSON array.
	if string(data) == "null" {
		data = []byte("[]")
	}
	if err := os.WriteFile(jsonPath, append(data, '\n'), 0o644); err != nil {
		return eris.Wrapf(err, "sink: write %s", jsonPath)
	}

	if err := w.writeJSONL(forceExt(path, ".jsonl"), items); err != nil {
		zap.L().Warn("sink: jsonl variant failed", zap.Error(err))
	}

	return nil
}

func (w *Writer) writeJSONL(path string, items any) error {
	// Round-trip through JSON to iterate without reflection on the
	// caller's concrete slice type.
	data, err := json.Marshal(items)
	if err != nil {
		return eris.Wrap(err, "marshal")
	}
	var rows []json.RawMessage
	if err := json.Unmarshal(data, &rows); err != nil {
		return eris.Wrap(err, "not a record list")
	}

	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "create %s", path)
	}
	defer func() { _ = f.Close() }()

	for _, row := range rows {
		if _, err := f.Write(append(row, '\n')); err != nil {
			return eris.Wrapf(err, "write %s", path)
		}
	}
	return nil
}

func forceExt(path, ext string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + ext
}
