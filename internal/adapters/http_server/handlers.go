package httpserver

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"bank_reviews/internal/app"
	"bank_reviews/internal/domain"
)

const (
	defaultLimit = 50
	maxLimit     = 200
)

type Handlers struct{ Q *app.QueryService }

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

type banksResponse struct {
	Banks []string `json:"banks"`
}

type sentimentResponse struct {
	Bank     string                      `json:"bank"`
	ByRating []domain.SentimentAggregate `json:"by_rating"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })
	s.mux.Get("/v1/banks", h.listBanks)
	s.mux.Get("/v1/banks/{bank}/reviews", h.listReviews)
	s.mux.Get("/v1/banks/{bank}/sentiment", h.sentiment)
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

func writeLookupError(w http.ResponseWriter, err error, what string) {
	if errors.Is(err, domain.ErrNotFound) {
		writeProblem(w, http.StatusNotFound, "Not Found", what+" not found")
		return
	}
	log.Error().Err(err).Str("lookup", what).Msg("query failed")
	writeProblem(w, http.StatusInternalServerError, "Internal Server Error", "")
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal object for ETag/body")
		return "", nil
	}
	sum := sha1.Sum(body)
	etag := `W/"` + hex.EncodeToString(sum[:]) + `"`
	return etag, body
}

// writeJSON answers 304 when the client already holds this version.
func writeJSON(w http.ResponseWriter, r *http.Request, v any) {
	etag, body := calcETagAndBody(v)
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.Header().Set("ETag", etag)
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Str("path", r.URL.Path).Msg("failed to write body")
	}
}

func (h *Handlers) listBanks(w http.ResponseWriter, r *http.Request) {
	banks, err := h.Q.ListBanks(r.Context())
	if err != nil {
		writeLookupError(w, err, "banks")
		return
	}
	if banks == nil {
		banks = []string{}
	}
	writeJSON(w, r, banksResponse{Banks: banks})
}

func (h *Handlers) listReviews(w http.ResponseWriter, r *http.Request) {
	bank := chi.URLParam(r, "bank")

	limit := defaultLimit
	if ls := r.URL.Query().Get("limit"); ls != "" {
		l, err := strconv.Atoi(ls)
		if err != nil || l <= 0 || l > maxLimit {
			writeProblem(w, http.StatusBadRequest, "Invalid limit", "limit must be an integer between 1 and 200")
			return
		}
		limit = l
	}

	out, err := h.Q.ListReviews(r.Context(), bank, domain.PageQuery{Limit: limit})
	if err != nil {
		writeLookupError(w, err, "bank")
		return
	}
	if out.Items == nil {
		out.Items = []domain.StoredReview{}
	}
	writeJSON(w, r, out)
}

func (h *Handlers) sentiment(w http.ResponseWriter, r *http.Request) {
	bank := chi.URLParam(r, "bank")
	aggs, err := h.Q.SentimentByRating(r.Context(), bank)
	if err != nil {
		writeLookupError(w, err, "bank")
		return
	}
	if aggs == nil {
		aggs = []domain.SentimentAggregate{}
	}
	writeJSON(w, r, sentimentResponse{Bank: bank, ByRating: aggs})
}
