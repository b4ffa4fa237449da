// Package session persists chat sessions and their conversation turns in the
// Redis document store. Turns are append-only; the pipeline reads a bounded
// suffix of recent turns, never the full history.
package session

import (
	"context"
	"errors"
	"time"

	"github.com/askdb/askdb/internal/chart"
	"github.com/askdb/askdb/internal/target"
)

var ErrNotFound = errors.New("session not found")

type Session struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
}

// Turn is one question/answer exchange. Results holds only a small sample of
// the rows the query returned, never the full result set.
type Turn struct {
	Question        string       `json:"question"`
	SQL             string       `json:"sql"`
	TablesUsed      []string     `json:"tables_used"`
	ResultCount     int          `json:"result_count"`
	Results         []target.Row `json:"results,omitempty"`
	Answer          string       `json:"answer"`
	ChartData       *chart.Spec  `json:"chart_data,omitempty"`
	ExecutionTimeMs int64        `json:"execution_time_ms"`
	Timestamp       time.Time    `json:"timestamp"`
}

type Store interface {
	// EnsureSession creates the session record if it does not exist yet.
	// An empty id mints a fresh one. Idempotent.
	EnsureSession(ctx context.Context, id string) (Session, error)
	GetSession(ctx context.Context, id string) (Session, error)
	AppendTurn(ctx context.Context, id string, turn Turn) error
	// RecentTurns returns up to n most recent turns, oldest first.
	RecentTurns(ctx context.Context, id string, n int) ([]Turn, error)
	ListTurns(ctx context.Context, id string) ([]Turn, error)
}
