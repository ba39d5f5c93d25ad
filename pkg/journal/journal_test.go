package journal

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWriterCreatesDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "raw", "data")
	w, err := NewWriter(dir)
	require.NoError(t, err)
	assert.Equal(t, dir, w.Dir())
	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestRecordRawNamesFileFromFetchTime(t *testing.T) {
	w, err := NewWriter(t.TempDir())
	require.NoError(t, err)
	fetched := time.Date(2024, 7, 9, 13, 4, 5, 0, time.Local)
	payload := []map[string]any{{"id": "bitcoin", "current_price": 1.5}}

	path, err := w.RecordRaw(context.Background(), fetched, payload)
	require.NoError(t, err)
	assert.Equal(t, "raw_20240709_130405.json", filepath.Base(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var decoded []map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "bitcoin", decoded[0]["id"])
}

func TestRecordRawSameSecondDoesNotOverwrite(t *testing.T) {
	w, err := NewWriter(t.TempDir())
	require.NoError(t, err)
	fetched := time.Date(2024, 7, 9, 13, 4, 5, 0, time.Local)

	first, err := w.RecordRaw(context.Background(), fetched, map[string]int{"n": 1})
	require.NoError(t, err)
	second, err := w.RecordRaw(context.Background(), fetched, map[string]int{"n": 2})
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
	assert.Equal(t, "raw_20240709_130405_01.json", filepath.Base(second))
}

func TestRecordRawUnencodablePayload(t *testing.T) {
	w, err := NewWriter(t.TempDir())
	require.NoError(t, err)
	_, err = w.RecordRaw(context.Background(), time.Now(), map[string]any{"ch": make(chan int)})
	assert.Error(t, err)
}

func TestRecordRawCancelledContext(t *testing.T) {
	w, err := NewWriter(t.TempDir())
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = w.RecordRaw(ctx, time.Now(), "x")
	assert.ErrorIs(t, err, context.Canceled)
}
