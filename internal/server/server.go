// Package server implements the AskMe HTTP backend.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"askme/internal/askme"
)

const (
	welcomeMessage = "Welcome to the AskMe Bot API!"

	detailEmptyQuestion = "Question cannot be empty."
	detailInvalidBody   = "Request body must be a JSON object with a string \"question\" field."
	detailAnswerFailed  = "An error occurred while processing your request."

	maxBodyBytes = 1 << 20
)

// Answerer produces a reply for a single question
type Answerer interface {
	Answer(ctx context.Context, question string) (string, error)
}

// Options configures the router
type Options struct {
	AllowedOrigins []string
	Limiter        *RateLimiter
	// TrustProxy keys clients on forwarding headers instead of the peer address
	TrustProxy bool
}

// New builds the HTTP handler for the backend
func New(answerer Answerer, opts Options, logger *zap.SugaredLogger) http.Handler {
	h := &handler{answerer: answerer, logger: logger}

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	if opts.TrustProxy {
		r.Use(chimiddleware.RealIP)
	}
	r.Use(requestLogger(logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(CORS(opts.AllowedOrigins))

	r.Get("/", h.root)

	r.Group(func(r chi.Router) {
		if opts.Limiter != nil {
			r.Use(opts.Limiter.Middleware)
		}
		r.Post("/api/chat", h.chat)
	})

	return r
}

type handler struct {
	answerer Answerer
	logger   *zap.SugaredLogger
}

func (h *handler) root(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": welcomeMessage})
}

type chatBody struct {
	Question *string `json:"question"`
}

func (h *handler) chat(w http.ResponseWriter, r *http.Request) {
	var body chatBody
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&body); err != nil || body.Question == nil {
		writeDetail(w, http.StatusUnprocessableEntity, detailInvalidBody)
		return
	}

	question := *body.Question
	if strings.TrimSpace(question) == "" {
		writeDetail(w, http.StatusBadRequest, detailEmptyQuestion)
		return
	}

	answer, err := h.answerer.Answer(r.Context(), question)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			h.logger.Debugw("Client went away before the answer", "request_id", chimiddleware.GetReqID(r.Context()))
			return
		}
		h.logger.Errorw("Failed to answer question",
			"error", err,
			"request_id", chimiddleware.GetReqID(r.Context()),
		)
		writeDetail(w, http.StatusInternalServerError, detailAnswerFailed)
		return
	}

	writeJSON(w, http.StatusOK, askme.ChatResponse{Response: &answer})
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"detail": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
