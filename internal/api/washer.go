package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/washtower/zeo-core/internal/coordinator"
	"github.com/washtower/zeo-core/internal/zeo"
)

// healthResponse is the payload for GET /api/v1/health.
type healthResponse struct {
	Status              string `json:"status"`
	Version             string `json:"version"`
	UptimeSeconds       int64  `json:"uptime_seconds"`
	InitialLoadDone     bool   `json:"initial_load_done"`
	LastUpdateSucceeded bool   `json:"last_update_succeeded"`
	GatewayOnline       *bool  `json:"gateway_online,omitempty"`
}

// washerResponse is the payload for GET /api/v1/washer.
type washerResponse struct {
	DUID                string `json:"duid"`
	Name                string `json:"name"`
	Model               string `json:"model"`
	FirmwareVersion     string `json:"firmware_version,omitempty"`
	Attributes          int    `json:"attributes"`
	InitialLoadDone     bool   `json:"initial_load_done"`
	LastUpdateSucceeded bool   `json:"last_update_succeeded"`
}

// attributeResponse describes one attribute and its cached value.
type attributeResponse struct {
	Key           string     `json:"key"`
	Tier          string     `json:"tier"`
	Writable      bool       `json:"writable"`
	WriteOnly     bool       `json:"write_only"`
	Value         any        `json:"value,omitempty"`
	Cached        bool       `json:"cached"`
	LastRefreshed *time.Time `json:"last_refreshed,omitempty"`
}

// commandRequest is the body for POST /api/v1/washer/commands/{key}.
type commandRequest struct {
	Value any `json:"value"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	resp := healthResponse{
		Status:              "ok",
		Version:             s.version,
		UptimeSeconds:       int64(time.Since(s.startedAt).Seconds()),
		InitialLoadDone:     s.coordinator.InitialLoadDone(),
		LastUpdateSucceeded: s.coordinator.LastUpdateSucceeded(),
	}
	if s.gateway != nil {
		online := s.gateway.Online()
		resp.GatewayOnline = &online
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetWasher(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, washerResponse{
		DUID:                s.device.DUID,
		Name:                s.device.Name,
		Model:               s.device.Model,
		FirmwareVersion:     s.device.FirmwareVersion,
		Attributes:          len(s.coordinator.Snapshot()),
		InitialLoadDone:     s.coordinator.InitialLoadDone(),
		LastUpdateSucceeded: s.coordinator.LastUpdateSucceeded(),
	})
}

func (s *Server) handleListAttributes(w http.ResponseWriter, _ *http.Request) {
	attrs := zeo.All()
	out := make([]attributeResponse, 0, len(attrs))
	for _, attr := range attrs {
		out = append(out, s.describeAttribute(attr))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetAttribute(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	attr, err := zeo.Lookup(key)
	if err != nil {
		writeNotFound(w, "unknown attribute: "+key)
		return
	}

	writeJSON(w, http.StatusOK, s.describeAttribute(attr))
}

func (s *Server) handleQueryAttribute(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	value, err := s.coordinator.QueryProtocol(r.Context(), key)
	if err != nil {
		switch {
		case errors.Is(err, zeo.ErrUnknownProtocol):
			writeNotFound(w, "unknown attribute: "+key)
		default:
			writeUpstreamError(w, "query failed: "+err.Error())
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"key":   key,
		"value": value,
	})
}

func (s *Server) handleSendCommand(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	var req commandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	if err := s.coordinator.SendCommand(r.Context(), key, req.Value); err != nil {
		switch {
		case errors.Is(err, zeo.ErrUnknownProtocol):
			writeNotFound(w, "unknown attribute: "+key)
		case errors.Is(err, zeo.ErrNotWritable):
			writeError(w, http.StatusConflict, ErrCodeConflict, "attribute is not writable: "+key)
		case errors.Is(err, zeo.ErrInvalidValue):
			writeBadRequest(w, "value cannot be coerced for attribute: "+key)
		case errors.Is(err, coordinator.ErrCommandFailed):
			writeUpstreamError(w, "command failed: "+err.Error())
		default:
			writeInternalError(w, "command failed")
		}
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]any{
		"key":    key,
		"status": "sent",
	})
}

func (s *Server) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	if s.historyRepo == nil {
		writeNotFound(w, "history is disabled")
		return
	}

	attribute := r.URL.Query().Get("attribute")
	if attribute != "" {
		if _, err := zeo.Lookup(attribute); err != nil {
			writeNotFound(w, "unknown attribute: "+attribute)
			return
		}
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeBadRequest(w, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	entries, err := s.historyRepo.GetHistory(r.Context(), s.device.DUID, attribute, limit)
	if err != nil {
		s.logger.Error("history query failed", "error", err)
		writeInternalError(w, "history query failed")
		return
	}

	writeJSON(w, http.StatusOK, entries)
}

// describeAttribute builds the API view of one catalog entry plus its
// cached value, if any.
func (s *Server) describeAttribute(attr zeo.Attribute) attributeResponse {
	resp := attributeResponse{
		Key:       string(attr.Protocol),
		Tier:      attr.Tier.String(),
		Writable:  attr.Writable,
		WriteOnly: attr.WriteOnly,
	}

	if value, ok := s.coordinator.GetCachedValue(attr.Protocol); ok {
		resp.Value = value
		resp.Cached = true
	}
	if ts, ok := s.coordinator.LastRefreshed(attr.Protocol); ok {
		utc := ts.UTC()
		resp.LastRefreshed = &utc
	}

	return resp
}
