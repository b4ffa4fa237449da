package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/askdb/askdb/internal/session"
	"github.com/askdb/askdb/internal/storage"
)

func handleGetSession(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Sessions == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "SESSIONS_NOT_CONFIGURED", "session store is not configured", false, nil)
		return
	}
	id := r.PathValue("id")

	record, err := deps.Sessions.GetSession(r.Context(), id)
	if errors.Is(err, session.ErrNotFound) {
		writeError(r.Context(), w, http.StatusNotFound, "SESSION_NOT_FOUND", "session does not exist", false, map[string]any{"session_id": id})
		return
	}
	if err != nil {
		writeError(r.Context(), w, http.StatusInternalServerError, "SESSION_STORE_ERROR", "failed to load session", true, map[string]any{"details": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func handleListTurns(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Sessions == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "SESSIONS_NOT_CONFIGURED", "session store is not configured", false, nil)
		return
	}
	id := r.PathValue("id")

	if _, err := deps.Sessions.GetSession(r.Context(), id); err != nil {
		if errors.Is(err, session.ErrNotFound) {
			writeError(r.Context(), w, http.StatusNotFound, "SESSION_NOT_FOUND", "session does not exist", false, map[string]any{"session_id": id})
			return
		}
		writeError(r.Context(), w, http.StatusInternalServerError, "SESSION_STORE_ERROR", "failed to load session", true, map[string]any{"details": err.Error()})
		return
	}

	turns, err := deps.Sessions.ListTurns(r.Context(), id)
	if err != nil {
		writeError(r.Context(), w, http.StatusInternalServerError, "SESSION_STORE_ERROR", "failed to load turns", true, map[string]any{"details": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"session_id": id, "turns": turns})
}

func handleExportReport(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Reports == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "REPORTS_NOT_CONFIGURED", "report store is not configured", false, nil)
		return
	}
	id := r.PathValue("id")

	export, err := deps.Reports.Export(r.Context(), id)
	if errors.Is(err, session.ErrNotFound) {
		writeError(r.Context(), w, http.StatusNotFound, "SESSION_NOT_FOUND", "session does not exist", false, map[string]any{"session_id": id})
		return
	}
	if err != nil {
		writeError(r.Context(), w, http.StatusInternalServerError, "REPORT_EXPORT_FAILED", err.Error(), true, nil)
		return
	}
	writeJSON(w, http.StatusCreated, export)
}

func handleDownloadReport(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Reports == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "REPORTS_NOT_CONFIGURED", "report store is not configured", false, nil)
		return
	}
	key := r.PathValue("key")

	reader, err := deps.Reports.Open(r.Context(), key)
	if errors.Is(err, storage.ErrObjectNotFound) {
		writeError(r.Context(), w, http.StatusNotFound, "REPORT_NOT_FOUND", "report does not exist", false, map[string]any{"key": key})
		return
	}
	if err != nil {
		writeError(r.Context(), w, http.StatusInternalServerError, "REPORT_READ_FAILED", err.Error(), true, nil)
		return
	}
	defer func() { _ = reader.Close() }()

	w.Header().Set("Content-Type", "application/vnd.apache.parquet")
	w.WriteHeader(http.StatusOK)
	_, _ = io.Copy(w, reader)
}
