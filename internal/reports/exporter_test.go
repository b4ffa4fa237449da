package reports

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/askdb/askdb/internal/session"
	"github.com/askdb/askdb/internal/storage"
)

type fakeObjectStore struct {
	lastKey         string
	lastContentType string
	lastSize        int64
	putErr          error
}

func (f *fakeObjectStore) Put(_ context.Context, key string, body io.Reader, size int64, opts storage.PutOptions) (storage.ObjectInfo, error) {
	if f.putErr != nil {
		return storage.ObjectInfo{}, f.putErr
	}
	f.lastKey = key
	f.lastContentType = opts.ContentType
	f.lastSize = size
	_, _ = io.Copy(io.Discard, body)
	return storage.ObjectInfo{Key: key, Size: size}, nil
}

func (f *fakeObjectStore) Get(_ context.Context, key string) (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader(key)), nil
}

func (f *fakeObjectStore) Stat(_ context.Context, key string) (storage.ObjectInfo, error) {
	return storage.ObjectInfo{Key: key}, nil
}

func (f *fakeObjectStore) Delete(_ context.Context, _ string) error {
	return nil
}

type fakeSessionStore struct {
	sessions map[string]session.Session
	turns    map[string][]session.Turn
}

func (f *fakeSessionStore) EnsureSession(_ context.Context, id string) (session.Session, error) {
	return f.sessions[id], nil
}

func (f *fakeSessionStore) GetSession(_ context.Context, id string) (session.Session, error) {
	record, ok := f.sessions[id]
	if !ok {
		return session.Session{}, session.ErrNotFound
	}
	return record, nil
}

func (f *fakeSessionStore) AppendTurn(_ context.Context, id string, turn session.Turn) error {
	f.turns[id] = append(f.turns[id], turn)
	return nil
}

func (f *fakeSessionStore) RecentTurns(_ context.Context, id string, n int) ([]session.Turn, error) {
	turns := f.turns[id]
	if len(turns) > n {
		turns = turns[len(turns)-n:]
	}
	return turns, nil
}

func (f *fakeSessionStore) ListTurns(_ context.Context, id string) ([]session.Turn, error) {
	return f.turns[id], nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestExportWritesParquetReport(t *testing.T) {
	store := &fakeObjectStore{}
	sessions := &fakeSessionStore{
		sessions: map[string]session.Session{"sess-1": {ID: "sess-1"}},
		turns: map[string][]session.Turn{
			"sess-1": {{Question: "top products", Answer: "pen", Timestamp: time.Now().UTC()}},
		},
	}
	exporter := NewExporter(store, sessions, testLogger())
	exporter.now = func() time.Time {
		return time.Date(2024, time.March, 1, 12, 30, 45, 0, time.UTC)
	}

	export, err := exporter.Export(context.Background(), "sess-1")
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if export.Key != "sessions/sess-1/report-20240301T123045Z.parquet" {
		t.Fatalf("Key = %q", export.Key)
	}
	if export.TurnCount != 1 {
		t.Fatalf("TurnCount = %d", export.TurnCount)
	}
	if store.lastContentType != contentType {
		t.Fatalf("ContentType = %q", store.lastContentType)
	}
	if store.lastSize == 0 || export.Size != store.lastSize {
		t.Fatalf("Size = %d, stored %d", export.Size, store.lastSize)
	}
}

func TestExportUnknownSession(t *testing.T) {
	exporter := NewExporter(&fakeObjectStore{}, &fakeSessionStore{sessions: map[string]session.Session{}}, testLogger())

	if _, err := exporter.Export(context.Background(), "missing"); err != session.ErrNotFound {
		t.Fatalf("Export() error = %v, want ErrNotFound", err)
	}
}

func TestExportEmptySession(t *testing.T) {
	sessions := &fakeSessionStore{
		sessions: map[string]session.Session{"sess-1": {ID: "sess-1"}},
		turns:    map[string][]session.Turn{},
	}
	exporter := NewExporter(&fakeObjectStore{}, sessions, testLogger())

	if _, err := exporter.Export(context.Background(), "sess-1"); err == nil {
		t.Fatal("expected error for session without turns")
	}
}
