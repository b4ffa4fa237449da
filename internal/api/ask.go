package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/askdb/askdb/internal/pipeline"
	"github.com/askdb/askdb/internal/target"
)

type askRequest struct {
	Question     string         `json:"question"`
	SessionID    string         `json:"session_id"`
	ConnectionID string         `json:"connection_id"`
	Target       *target.Config `json:"target"`
}

func handleAsk(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Pipeline == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "ASK_NOT_CONFIGURED", "question pipeline is not configured", false, nil)
		return
	}

	var request askRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&request); err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "INVALID_JSON", "invalid ask request body", false, map[string]any{"details": err.Error()})
		return
	}

	resp, err := deps.Pipeline.Ask(r.Context(), pipeline.Request{
		Question:     request.Question,
		SessionID:    request.SessionID,
		ConnectionID: request.ConnectionID,
		Target:       request.Target,
	})
	if err != nil {
		writePipelineError(deps, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// writePipelineError maps the pipeline's typed errors onto HTTP statuses.
// Every fatal path keeps the same error envelope shape.
func writePipelineError(deps Dependencies, w http.ResponseWriter, r *http.Request, err error) {
	var missing *pipeline.MissingInputError
	var noTables *pipeline.NoRelevantTablesError
	var database *pipeline.DatabaseError
	var upstream *pipeline.UpstreamLLMError
	switch {
	case errors.As(err, &missing):
		writeError(r.Context(), w, http.StatusBadRequest, "MISSING_INPUT", missing.Error(), false, map[string]any{"field": missing.Field})
	case errors.As(err, &noTables):
		writeError(r.Context(), w, http.StatusBadRequest, "NO_RELEVANT_TABLES", noTables.Error(), false, nil)
	case errors.As(err, &database):
		writeError(r.Context(), w, http.StatusBadGateway, "DATABASE_ERROR", database.Error(), false, map[string]any{"stage": database.Stage})
	case errors.As(err, &upstream):
		writeError(r.Context(), w, http.StatusBadGateway, "UPSTREAM_LLM_ERROR", upstream.Error(), true, nil)
	default:
		if deps.Logger != nil {
			deps.Logger.Error("unclassified pipeline failure", "error", err)
		}
		writeError(r.Context(), w, http.StatusInternalServerError, "INTERNAL_ERROR", "question processing failed", true, nil)
	}
}
