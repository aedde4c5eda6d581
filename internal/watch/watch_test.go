// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package watch

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/signage-review/internal/export"
	"github.com/pdiddy/signage-review/internal/extraction"
	"github.com/pdiddy/signage-review/internal/workflow"
	"github.com/pdiddy/signage-review/pkg/types"
)

type event struct {
	kind string
	name string
}

type recorder struct {
	events chan event
}

func newRecorder() *recorder { return &recorder{events: make(chan event, 32)} }

func (r *recorder) DragEnter(path string) { r.events <- event{"enter", filepath.Base(path)} }
func (r *recorder) DragLeave(path string) { r.events <- event{"leave", filepath.Base(path)} }
func (r *recorder) Drop(_ context.Context, path string) error {
	r.events <- event{"drop", filepath.Base(path)}
	return nil
}

func (r *recorder) next(t *testing.T) event {
	t.Helper()
	select {
	case e := <-r.events:
		return e
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for watch event")
	}
	return event{}
}

func startWatcher(t *testing.T, dir string, settle time.Duration, h Handler) {
	t.Helper()
	w, err := New(types.WatchConfig{Dir: dir, Settle: settle}, h, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		assert.NoError(t, <-done)
	})
}

func TestWatcher_DropsSettledFile(t *testing.T) {
	dir := t.TempDir()
	rec := newRecorder()
	startWatcher(t, dir, 50*time.Millisecond, rec)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "manual.pdf"), []byte("%PDF-1.4"), 0o644))

	assert.Equal(t, event{"enter", "manual.pdf"}, rec.next(t))
	assert.Equal(t, event{"drop", "manual.pdf"}, rec.next(t))
}

func TestWatcher_RemovedBeforeSettleLeaves(t *testing.T) {
	dir := t.TempDir()
	rec := newRecorder()
	startWatcher(t, dir, 2*time.Second, rec)

	path := filepath.Join(dir, "manual.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4"), 0o644))
	assert.Equal(t, event{"enter", "manual.pdf"}, rec.next(t))

	require.NoError(t, os.Remove(path))
	assert.Equal(t, event{"leave", "manual.pdf"}, rec.next(t))

	select {
	case e := <-rec.events:
		t.Fatalf("unexpected event after leave: %+v", e)
	case <-time.After(2500 * time.Millisecond):
	}
}

func TestWatcher_IgnoresTempAndExports(t *testing.T) {
	dir := t.TempDir()
	rec := newRecorder()
	startWatcher(t, dir, 50*time.Millisecond, rec)

	for _, name := range []string{".hidden.pdf", "~lock.pdf", "upload.part", export.CSVFileName} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "real.pdf"), []byte("%PDF-1.4"), 0o644))

	assert.Equal(t, event{"enter", "real.pdf"}, rec.next(t))
	assert.Equal(t, event{"drop", "real.pdf"}, rec.next(t))
}

func TestNew_Errors(t *testing.T) {
	_, err := New(types.WatchConfig{}, newRecorder(), nil)
	assert.Error(t, err)

	_, err = New(types.WatchConfig{Dir: t.TempDir()}, nil, nil)
	assert.Error(t, err)

	_, err = New(types.WatchConfig{Dir: filepath.Join(t.TempDir(), "missing")}, newRecorder(), nil)
	assert.Error(t, err)
}

func TestIgnored(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"manual.pdf", false},
		{"notes.txt", false},
		{".manual.pdf", true},
		{"~$manual.pdf", true},
		{"manual.pdf.crdownload", true},
		{".download-123.tmp", true},
		{"sinalizacao.csv", true},
		{"sinalizacao.xlsx", true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ignored(filepath.Join("/drop", tt.name)), tt.name)
	}
}

// syncBuffer guards a bytes.Buffer written by the watcher goroutine.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func newPipeline(t *testing.T, handler http.HandlerFunc, outDir string) (*Pipeline, *syncBuffer) {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	c := workflow.New(workflow.Options{
		Extractor:   &extraction.Client{HTTP: ts.Client(), BaseURL: ts.URL},
		Spreadsheet: &export.SpreadsheetClient{HTTP: ts.Client(), BaseURL: ts.URL},
		Downloader:  export.DirDownloader{Dir: outDir},
		CountPages:  func([]byte) (int, error) { return 1, nil },
	})
	out := &syncBuffer{}
	return &Pipeline{Controller: c, Out: out}, out
}

func signageServer(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/api/processar-pdf":
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"dados":[{"tipologia":"A","codigo":"S1","descricao":"Saída","pavimento":"1","quantidade":3}],
			"metadata":{"total_chunks":2,"chunks_processados":1,"chunks_com_erro":[1],"total_itens":1}}`)
	case "/api/gerar-excel":
		w.Write([]byte("PK\x03\x04"))
	default:
		http.NotFound(w, r)
	}
}

func TestPipeline_Drop(t *testing.T) {
	dir := t.TempDir()
	p, out := newPipeline(t, signageServer, dir)
	p.Spreadsheet = true

	path := filepath.Join(dir, "manual.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4\n"), 0o644))

	require.NoError(t, p.Drop(context.Background(), path))

	csv, err := os.ReadFile(filepath.Join(dir, export.CSVFileName))
	require.NoError(t, err)
	assert.Equal(t, "Tipologia,Código,Descrição,Pavimento,Quantidade\n"+`"A","S1","Saída","1",3`, string(csv))

	xlsx, err := os.ReadFile(filepath.Join(dir, export.SpreadsheetFileName))
	require.NoError(t, err)
	assert.Equal(t, []byte("PK\x03\x04"), xlsx)

	assert.Contains(t, out.String(), "manual.pdf: 1 records, wrote sinalizacao.csv, sinalizacao.xlsx")
	assert.Contains(t, out.String(), "warning: chunks [1] failed")
	assert.False(t, p.Controller.Snapshot().DragActive)
}

func TestPipeline_RejectsNonPDF(t *testing.T) {
	dir := t.TempDir()
	p, out := newPipeline(t, signageServer, dir)

	path := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("plain text"), 0o644))

	assert.Error(t, p.Drop(context.Background(), path))
	assert.Contains(t, out.String(), "notes.txt: Por favor, selecione um arquivo PDF válido")
	_, err := os.Stat(filepath.Join(dir, export.CSVFileName))
	assert.True(t, os.IsNotExist(err))
}

func TestPipeline_ServerFailure(t *testing.T) {
	dir := t.TempDir()
	p, out := newPipeline(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		io.WriteString(w, `{"error":"arquivo corrompido"}`)
	}, dir)

	path := filepath.Join(dir, "manual.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4\n"), 0o644))

	assert.ErrorIs(t, p.Drop(context.Background(), path), extraction.ErrServerRejected)
	assert.Contains(t, out.String(), "manual.pdf: arquivo corrompido")
}

func TestPipeline_WithWatcher(t *testing.T) {
	dir := t.TempDir()
	p, out := newPipeline(t, signageServer, dir)
	startWatcher(t, dir, 50*time.Millisecond, p)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "manual.pdf"), []byte("%PDF-1.4\n"), 0o644))

	require.Eventually(t, func() bool {
		_, err := os.Stat(filepath.Join(dir, export.CSVFileName))
		return err == nil
	}, 5*time.Second, 10*time.Millisecond)
	require.Eventually(t, func() bool {
		return bytes.Contains([]byte(out.String()), []byte("manual.pdf: 1 records"))
	}, time.Second, 10*time.Millisecond)
}
