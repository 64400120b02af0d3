package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/layrfelipe/hotmart-challenge/internal/domain"
)

const maxBodyBytes = 1 << 20

type handlers struct {
	deps Deps
}

type textRequest struct {
	Text   string `json:"text"`
	Source string `json:"source,omitempty"`
}

type queryRequest struct {
	Question       string `json:"question"`
	IncludeSources bool   `json:"include_sources,omitempty"`
}

type ingestResponse struct {
	Status string `json:"status"`
	Chunks int    `json:"chunks"`
}

type queryResponse struct {
	Answer  string                  `json:"answer"`
	Sources domain.RetrievedContext `json:"sources,omitempty"`
}

type errorResponse struct {
	Status  string       `json:"status"`
	Stage   domain.Stage `json:"stage,omitempty"`
	Message string       `json:"message"`
}

func (h *handlers) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handlers) stats(w http.ResponseWriter, r *http.Request) {
	n, err := h.deps.Store.Count(r.Context())
	if err != nil {
		h.writeError(w, &domain.RAGError{Stage: domain.StageRetrieval, Cause: err})
		return
	}
	stats := h.deps.Stats
	stats.Segments = n
	writeJSON(w, http.StatusOK, stats)
}

func (h *handlers) ingestText(w http.ResponseWriter, r *http.Request) {
	var req textRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.Source == "" {
		req.Source = "api"
	}

	result, err := h.deps.Ingest.Ingest(r.Context(), domain.RawDocument{Text: req.Text, Source: req.Source})
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ingestResponse{Status: "success", Chunks: result.ChunksWritten})
}

func (h *handlers) ingestBlog(w http.ResponseWriter, r *http.Request) {
	result, err := h.deps.Ingest.IngestFrom(r.Context(), h.deps.Blog)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ingestResponse{Status: "success", Chunks: result.ChunksWritten})
}

func (h *handlers) query(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if !h.decode(w, r, &req) {
		return
	}

	answer, err := h.deps.Answer.Answer(r.Context(), domain.QueryRequest{Question: req.Question})
	if err != nil {
		h.writeError(w, err)
		return
	}

	resp := queryResponse{Answer: answer.Text}
	if req.IncludeSources {
		resp.Sources = answer.Sources
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *handlers) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Status:  "error",
			Stage:   domain.StageValidation,
			Message: "invalid request body: " + err.Error(),
		})
		return false
	}
	return true
}

// writeError maps pipeline failures to HTTP statuses: caller mistakes are 422,
// timeouts 504, failing dependencies 502.
func (h *handlers) writeError(w http.ResponseWriter, err error) {
	stage, _ := domain.StageOf(err)

	status := http.StatusInternalServerError
	switch {
	case domain.IsClientError(err):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, context.DeadlineExceeded):
		status = http.StatusGatewayTimeout
	case stage != "":
		status = http.StatusBadGateway
	}

	if h.deps.Logger != nil && status >= 500 {
		h.deps.Logger.Error("request failed", slog.Int("status", status), slog.String("stage", string(stage)), slog.String("error", err.Error()))
	}

	writeJSON(w, status, errorResponse{Status: "error", Stage: stage, Message: errorMessage(err)})
}

// errorMessage prefers the innermost cause so clients do not see stage prefixes twice.
func errorMessage(err error) string {
	var ie *domain.IngestionError
	if errors.As(err, &ie) {
		return ie.Cause.Error()
	}
	var re *domain.RAGError
	if errors.As(err, &re) {
		return re.Cause.Error()
	}
	return err.Error()
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
