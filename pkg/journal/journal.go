package journal

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"cryptoverde-api/pkg/market"
)

const defaultDir = "raw_data"

var _ market.AuditSink = (*Writer)(nil)

// Writer persists raw upstream payloads to a directory as JSON files named
// from the fetch time.
type Writer struct {
	dir string
	mu  sync.Mutex
}

// NewWriter constructs a journal writer and creates its directory.
func NewWriter(dir string) (*Writer, error) {
	if dir == "" {
		dir = defaultDir
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("journal: create %s: %w", dir, err)
	}
	return &Writer{dir: dir}, nil
}

// Dir returns the directory payloads are written to.
func (w *Writer) Dir() string { return w.dir }

// RecordRaw writes payload to raw_<YYYYMMDD_HHMMSS>.json. A second payload in
// the same second gets a numeric suffix instead of overwriting the first.
func (w *Writer) RecordRaw(ctx context.Context, fetchedAt time.Time, payload any) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if fetchedAt.IsZero() {
		fetchedAt = time.Now()
	}
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return "", fmt.Errorf("journal: encode payload: %w", err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	stamp := fetchedAt.Format("20060102_150405")
	path := filepath.Join(w.dir, "raw_"+stamp+".json")
	for seq := 1; fileExists(path); seq++ {
		path = filepath.Join(w.dir, fmt.Sprintf("raw_%s_%02d.json", stamp, seq))
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("journal: write %s: %w", path, err)
	}
	return path, nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
