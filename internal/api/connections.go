package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/askdb/askdb/internal/connections"
	"github.com/askdb/askdb/internal/target"
)

type connectionRequest struct {
	Name   string        `json:"name"`
	Target target.Config `json:"target"`
}

// connectionView never echoes credentials back to the caller.
type connectionView struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Driver   string `json:"driver"`
	Host     string `json:"host,omitempty"`
	Port     int    `json:"port,omitempty"`
	Database string `json:"database,omitempty"`
	Path     string `json:"path,omitempty"`
}

func viewOf(record connections.Record) connectionView {
	return connectionView{
		ID:       record.ID,
		Name:     record.Name,
		Driver:   record.Target.Driver,
		Host:     record.Target.Host,
		Port:     record.Target.Port,
		Database: record.Target.Database,
		Path:     record.Target.Path,
	}
}

func handleSaveConnection(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Connections == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "CONNECTIONS_NOT_CONFIGURED", "connection store is not configured", false, nil)
		return
	}

	var request connectionRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&request); err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "INVALID_JSON", "invalid connection request body", false, map[string]any{"details": err.Error()})
		return
	}

	record, err := deps.Connections.Save(r.Context(), connections.Record{Name: request.Name, Target: request.Target})
	if err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "INVALID_CONNECTION", err.Error(), false, nil)
		return
	}
	writeJSON(w, http.StatusCreated, viewOf(record))
}

func handleListConnections(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Connections == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "CONNECTIONS_NOT_CONFIGURED", "connection store is not configured", false, nil)
		return
	}

	records, err := deps.Connections.List(r.Context())
	if err != nil {
		writeError(r.Context(), w, http.StatusInternalServerError, "CONNECTION_STORE_ERROR", "failed to list connections", true, map[string]any{"details": err.Error()})
		return
	}
	views := make([]connectionView, 0, len(records))
	for _, record := range records {
		views = append(views, viewOf(record))
	}
	writeJSON(w, http.StatusOK, map[string]any{"connections": views})
}

func handleGetConnection(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Connections == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "CONNECTIONS_NOT_CONFIGURED", "connection store is not configured", false, nil)
		return
	}
	id := r.PathValue("id")

	record, err := deps.Connections.Get(r.Context(), id)
	if errors.Is(err, connections.ErrNotFound) {
		writeError(r.Context(), w, http.StatusNotFound, "CONNECTION_NOT_FOUND", "connection does not exist", false, map[string]any{"connection_id": id})
		return
	}
	if err != nil {
		writeError(r.Context(), w, http.StatusInternalServerError, "CONNECTION_STORE_ERROR", "failed to load connection", true, map[string]any{"details": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, viewOf(record))
}

func handleDeleteConnection(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Connections == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "CONNECTIONS_NOT_CONFIGURED", "connection store is not configured", false, nil)
		return
	}
	id := r.PathValue("id")

	err := deps.Connections.Delete(r.Context(), id)
	if errors.Is(err, connections.ErrNotFound) {
		writeError(r.Context(), w, http.StatusNotFound, "CONNECTION_NOT_FOUND", "connection does not exist", false, map[string]any{"connection_id": id})
		return
	}
	if err != nil {
		writeError(r.Context(), w, http.StatusInternalServerError, "CONNECTION_STORE_ERROR", "failed to delete connection", true, map[string]any{"details": err.Error()})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
