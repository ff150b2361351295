// Package api serves the message board over HTTP: list and append
// endpoints polled by clients, a metadata endpoint, and an optional
// websocket watch surface that pushes appended records as they land.
package api

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/parlorgames/parlor/internal/board"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/parlorgames/parlor/internal/board/api"

// Metadata describes the running board.
type Metadata struct {
	UpSince      string `json:"upSince"`
	MessageCount int    `json:"messageCount"`
}

type appendRequest struct {
	From string `json:"from"`
	Text string `json:"message"`
}

// Handler serves the board HTTP API.
type Handler struct {
	store   board.MessageStore
	hub     *watchHub
	upSince time.Time
	tracer  trace.Tracer
}

// NewHandler creates a board API handler over the given store.
func NewHandler(store board.MessageStore) *Handler {
	return &Handler{
		store:   store,
		hub:     newWatchHub(),
		upSince: time.Now().UTC(),
		tracer:  otel.Tracer(tracerName),
	}
}

// Routes returns the board API routed on a fresh mux.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", h.handleRoot)
	mux.HandleFunc("GET /meta", h.handleMeta)
	mux.HandleFunc("GET /messages", h.handleList)
	mux.HandleFunc("POST /messages", h.handleAppend)
	mux.HandleFunc("GET /messages/watch", h.handleWatch)
	return mux
}

func (h *Handler) handleRoot(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("parlor message board\n"))
}

func (h *Handler) handleMeta(w http.ResponseWriter, r *http.Request) {
	count, err := h.store.CountMessages(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "count messages")
		return
	}
	writeJSON(w, http.StatusOK, Metadata{
		UpSince:      h.upSince.Format(time.RFC3339),
		MessageCount: count,
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "board.list")
	defer span.End()

	records, err := h.store.ListMessages(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "list messages")
		return
	}
	span.SetAttributes(attribute.Int("board.record_count", len(records)))
	writeJSON(w, http.StatusOK, records)
}

func (h *Handler) handleAppend(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "board.append")
	defer span.End()

	var req appendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed message body")
		return
	}
	if req.From == "" {
		writeError(w, http.StatusBadRequest, "from is required")
		return
	}

	rec, err := h.store.AppendMessage(ctx, req.From, req.Text)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "append message")
		return
	}
	span.SetAttributes(attribute.String("board.record_id", rec.ID))

	h.hub.broadcast(rec)
	writeJSON(w, http.StatusCreated, rec)
}

func (h *Handler) handleWatch(w http.ResponseWriter, r *http.Request) {
	if err := h.hub.serve(w, r); err != nil {
		log.Printf("watch subscriber failed: %v", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
