package reports

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/askdb/askdb/internal/session"
	"github.com/askdb/askdb/internal/storage"
)

const contentType = "application/vnd.apache.parquet"

// Export describes one stored report artifact.
type Export struct {
	SessionID  string    `json:"session_id"`
	Key        string    `json:"key"`
	Size       int64     `json:"size"`
	TurnCount  int64     `json:"turn_count"`
	ExportedAt time.Time `json:"exported_at"`
}

type Exporter struct {
	store    storage.ObjectStore
	sessions session.Store
	logger   *slog.Logger
	now      func() time.Time
}

func NewExporter(store storage.ObjectStore, sessions session.Store, logger *slog.Logger) *Exporter {
	return &Exporter{
		store:    store,
		sessions: sessions,
		logger:   logger.With(slog.String("component", "reports")),
		now:      time.Now,
	}
}

// Export writes the session's full turn history to the object store and
// returns the artifact's location. Sessions without turns are an error; an
// empty report has no value.
func (e *Exporter) Export(ctx context.Context, sessionID string) (Export, error) {
	if _, err := e.sessions.GetSession(ctx, sessionID); err != nil {
		return Export{}, err
	}
	turns, err := e.sessions.ListTurns(ctx, sessionID)
	if err != nil {
		return Export{}, err
	}
	if len(turns) == 0 {
		return Export{}, fmt.Errorf("session %q has no turns to export", sessionID)
	}

	encoded, err := EncodeTurnsToParquet(sessionID, turns)
	if err != nil {
		return Export{}, err
	}

	exportedAt := e.now().UTC()
	key, err := storage.BuildReportPath(sessionID, exportedAt)
	if err != nil {
		return Export{}, err
	}

	info, err := e.store.Put(ctx, key, bytes.NewReader(encoded.Data), int64(len(encoded.Data)), storage.PutOptions{ContentType: contentType})
	if err != nil {
		return Export{}, fmt.Errorf("store report for session %q: %w", sessionID, err)
	}

	e.logger.Info("session report exported",
		slog.String("session_id", sessionID),
		slog.String("key", info.Key),
		slog.Int64("turns", encoded.RecordCount))

	return Export{
		SessionID:  sessionID,
		Key:        key,
		Size:       int64(len(encoded.Data)),
		TurnCount:  encoded.RecordCount,
		ExportedAt: exportedAt,
	}, nil
}

// Open streams a previously exported report back to the caller.
func (e *Exporter) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	return e.store.Get(ctx, key)
}
