// Package pipeline sequences a question through table discovery, SQL
// generation, execution, chart inference, and answer synthesis. One request
// owns one target-database connection for its whole lifetime; every exit
// path releases it exactly once.
package pipeline

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/askdb/askdb/internal/answer"
	"github.com/askdb/askdb/internal/chart"
	"github.com/askdb/askdb/internal/connections"
	"github.com/askdb/askdb/internal/observability"
	"github.com/askdb/askdb/internal/relevance"
	"github.com/askdb/askdb/internal/session"
	"github.com/askdb/askdb/internal/sqlgen"
	"github.com/askdb/askdb/internal/sqltext"
	"github.com/askdb/askdb/internal/target"
)

type Request struct {
	Question     string
	SessionID    string
	ConnectionID string
	// Target carries inline credentials when no stored connection is
	// referenced.
	Target *target.Config
}

type Response struct {
	Answer          string       `json:"answer"`
	SQL             string       `json:"sql"`
	Results         []target.Row `json:"results"`
	TablesUsed      []string     `json:"tables_used"`
	SessionID       string       `json:"session_id"`
	ExecutionTimeMs int64        `json:"execution_time_ms"`
	ChartData       *chart.Spec  `json:"chart_data,omitempty"`
}

// Connector opens the scoped target-database connection for one request.
// Swappable so tests can inject a sqlmock-backed handle.
type Connector func(ctx context.Context, cfg target.Config) (*sql.DB, error)

// ConnectionSource resolves stored connection references.
type ConnectionSource interface {
	Get(ctx context.Context, id string) (connections.Record, error)
}

type Options struct {
	Sessions    session.Store
	Connections ConnectionSource
	Selector    *relevance.Selector
	Generator   *sqlgen.Generator
	Synthesizer *answer.Synthesizer
	Connector   Connector
	Logger      *slog.Logger

	HistoryWindow  int
	ResultSample   int
	MaxResultRows  int
	ConnectTimeout time.Duration
	QueryTimeout   time.Duration
}

type Service struct {
	sessions    session.Store
	connections ConnectionSource
	selector    *relevance.Selector
	generator   *sqlgen.Generator
	synthesizer *answer.Synthesizer
	connector   Connector
	logger      *slog.Logger

	historyWindow  int
	resultSample   int
	maxResultRows  int
	connectTimeout time.Duration
	queryTimeout   time.Duration
}

func NewService(opts Options) *Service {
	svc := &Service{
		sessions:       opts.Sessions,
		connections:    opts.Connections,
		selector:       opts.Selector,
		generator:      opts.Generator,
		synthesizer:    opts.Synthesizer,
		connector:      opts.Connector,
		logger:         opts.Logger.With(slog.String("component", "pipeline")),
		historyWindow:  opts.HistoryWindow,
		resultSample:   opts.ResultSample,
		maxResultRows:  opts.MaxResultRows,
		connectTimeout: opts.ConnectTimeout,
		queryTimeout:   opts.QueryTimeout,
	}
	if svc.connector == nil {
		svc.connector = target.Open
	}
	if svc.historyWindow <= 0 {
		svc.historyWindow = 6
	}
	if svc.resultSample <= 0 {
		svc.resultSample = 5
	}
	if svc.maxResultRows <= 0 {
		svc.maxResultRows = 10
	}
	return svc
}

// Ask runs the full question-answering state machine. Fatal failures return
// one of the typed errors from this package; degraded model paths never fail
// the request.
func (s *Service) Ask(ctx context.Context, req Request) (Response, error) {
	resp, err := s.ask(ctx, req)
	if err != nil {
		observability.ObservePipelineRequest(outcomeFor(err))
		return Response{}, err
	}
	observability.ObservePipelineRequest("success")
	return resp, nil
}

func (s *Service) ask(ctx context.Context, req Request) (Response, error) {
	question := strings.TrimSpace(req.Question)
	if question == "" {
		return Response{}, &MissingInputError{Field: "question"}
	}
	if req.ConnectionID == "" && req.Target == nil {
		return Response{}, &MissingInputError{Field: "connection"}
	}

	record, err := s.sessions.EnsureSession(ctx, req.SessionID)
	if err != nil {
		return Response{}, &DatabaseError{Stage: "resolve session", Err: err}
	}

	history, err := s.sessions.RecentTurns(ctx, record.ID, s.historyWindow)
	if err != nil {
		// Missing context degrades prompts, it does not block the answer.
		s.logger.Warn("loading session history failed",
			slog.String("session_id", record.ID),
			slog.String("error", err.Error()))
		history = nil
	}

	targetCfg, err := s.resolveTarget(ctx, req)
	if err != nil {
		return Response{}, err
	}

	db, err := s.connector(ctx, targetCfg)
	if err != nil {
		return Response{}, &DatabaseError{Stage: "connect", Err: err}
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			s.logger.Warn("closing target connection failed",
				slog.String("error", closeErr.Error()))
		}
	}()

	introspector := target.NewIntrospector(db, targetCfg.Schema())
	tableNames, err := introspector.ListTables(ctx)
	if err != nil {
		return Response{}, &DatabaseError{Stage: "discover tables", Err: err}
	}

	relevant := s.selector.Select(ctx, question, tableNames, history)
	if len(relevant) == 0 {
		return Response{}, &NoRelevantTablesError{Question: question}
	}

	described, err := introspector.DescribeTables(ctx, relevant)
	if err != nil {
		return Response{}, &DatabaseError{Stage: "describe tables", Err: err}
	}

	detection := chart.DetectRequest(question)

	sqlText, reused := s.reuseVisualizationSQL(question, detection, history)
	if !reused {
		sqlText = s.generator.Generate(ctx, question, described, history)
	}
	if err := sqltext.Validate(sqlText); err != nil {
		s.logger.Warn("generated sql rejected, substituting fallback",
			slog.String("sql", sqlText),
			slog.String("error", err.Error()))
		sqlText = sqlgen.FallbackSQL(described)
	}

	result, err := s.execute(ctx, db, sqlText)
	if err != nil {
		return Response{}, &DatabaseError{Stage: "execute", Err: err}
	}
	observability.ObserveTargetQuery(result.Duration)

	var spec *chart.Spec
	if detection.Requested && len(result.Rows) > 0 {
		spec = chart.Generate(detection.Type, result.Columns, result.Rows)
	}

	answerText := s.synthesizer.Synthesize(ctx, question, sqlText, result, relevant, history)

	turn := session.Turn{
		Question:        question,
		SQL:             sqlText,
		TablesUsed:      relevant,
		ResultCount:     len(result.Rows),
		Results:         sampleRows(result.Rows, s.resultSample),
		Answer:          answerText,
		ChartData:       spec,
		ExecutionTimeMs: result.Duration.Milliseconds(),
		Timestamp:       time.Now().UTC(),
	}
	if err := s.sessions.AppendTurn(ctx, record.ID, turn); err != nil {
		// The answer is already computed; losing one history entry is not
		// worth failing the request over.
		s.logger.Warn("persisting turn failed",
			slog.String("session_id", record.ID),
			slog.String("error", err.Error()))
	}

	return Response{
		Answer:          answerText,
		SQL:             sqlText,
		Results:         sampleRows(result.Rows, s.resultSample),
		TablesUsed:      relevant,
		SessionID:       record.ID,
		ExecutionTimeMs: result.Duration.Milliseconds(),
		ChartData:       spec,
	}, nil
}

func (s *Service) resolveTarget(ctx context.Context, req Request) (target.Config, error) {
	var cfg target.Config
	if req.ConnectionID != "" {
		if s.connections == nil {
			return target.Config{}, &MissingInputError{Field: "connection"}
		}
		record, err := s.connections.Get(ctx, req.ConnectionID)
		if err != nil {
			if errors.Is(err, connections.ErrNotFound) {
				return target.Config{}, &MissingInputError{Field: "connection"}
			}
			return target.Config{}, &DatabaseError{Stage: "resolve connection", Err: err}
		}
		cfg = record.Target
	} else {
		cfg = *req.Target
	}
	if cfg.ConnectTimeout == 0 {
		cfg.ConnectTimeout = s.connectTimeout
	}
	return cfg, nil
}

func (s *Service) execute(ctx context.Context, db *sql.DB, sqlText string) (target.Result, error) {
	if s.queryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.queryTimeout)
		defer cancel()
	}
	return target.Execute(ctx, db, sqlText, s.maxResultRows)
}

// reuseVisualizationSQL handles "now chart that" style turns: when the
// question asks for a chart but refers back to the previous result rather
// than stating a new query, the preceding turn's SQL is reused instead of
// paying for another generation, with ORDER BY 1 appended for stable label
// order.
func (s *Service) reuseVisualizationSQL(question string, detection chart.Detection, history []session.Turn) (string, bool) {
	if !detection.Requested || len(history) == 0 {
		return "", false
	}
	last := history[len(history)-1]
	if strings.TrimSpace(last.SQL) == "" {
		return "", false
	}
	if !refersToPrevious(question) {
		return "", false
	}
	sqlText := last.SQL
	if !strings.Contains(strings.ToUpper(sqlText), "ORDER BY") {
		trimmed := strings.TrimSuffix(strings.TrimSpace(sqlText), ";")
		// ORDER BY must precede an existing LIMIT clause.
		if idx := strings.LastIndex(strings.ToUpper(trimmed), " LIMIT "); idx >= 0 {
			trimmed = trimmed[:idx] + " ORDER BY 1" + trimmed[idx:]
		} else {
			trimmed += " ORDER BY 1"
		}
		sqlText = trimmed
	}
	return sqltext.Sanitize(sqlText), true
}

var previousReferences = []string{"that", "this", "it", "them", "those", "these", "the results", "the data", "previous", "above"}

func refersToPrevious(question string) bool {
	lowered := " " + strings.ToLower(question) + " "
	for _, ref := range previousReferences {
		if strings.Contains(lowered, " "+ref+" ") || strings.HasSuffix(strings.TrimSpace(lowered), " "+ref) {
			return true
		}
	}
	return false
}

func sampleRows(rows []target.Row, limit int) []target.Row {
	if len(rows) <= limit {
		return rows
	}
	return rows[:limit]
}

func outcomeFor(err error) string {
	var missing *MissingInputError
	var noTables *NoRelevantTablesError
	var database *DatabaseError
	var upstream *UpstreamLLMError
	switch {
	case errors.As(err, &missing):
		return CodeMissingInput
	case errors.As(err, &noTables):
		return CodeNoRelevantTables
	case errors.As(err, &database):
		return CodeDatabaseError
	case errors.As(err, &upstream):
		return CodeUpstreamLLM
	default:
		return "internal_error"
	}
}
