package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/ppiankov/estlookup/internal/model"
)

type errorBody struct {
	Error string `json:"error"`
}

type healthBody struct {
	Status  string         `json:"status"`
	Sources []model.Source `json:"sources"`
}

func (s *Server) handleLookup(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	q := r.URL.Query()
	logger := zap.L().With(
		zap.String("request_id", RequestIDFrom(r.Context())),
		zap.String("source", q.Get("source")),
	)

	res, err := s.resolver.ResolveQuery(r.Context(), q)
	if err != nil {
		if eris.Is(err, model.ErrUnknownSource) {
			logger.Info("rejected lookup", zap.Error(err))
			writeJSON(w, http.StatusBadRequest, errorBody{Error: model.ErrUnknownSource.Error()})
			return
		}
		res = model.Failed(err)
	}

	outcome := outcomeOf(res)
	if s.metrics != nil {
		src, _ := model.ParseSource(q.Get("source"))
		s.metrics.ObserveLookup(string(src), outcome, time.Since(start))
	}
	logger.Info("lookup",
		zap.String("est", q.Get("est")),
		zap.String("outcome", outcome),
		zap.Duration("elapsed", time.Since(start)),
	)

	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthBody{Status: "ok", Sources: s.resolver.Sources()})
}

func outcomeOf(res model.Result) string {
	switch {
	case res.Found:
		return "found"
	case res.Error != "":
		return "error"
	default:
		return "not_found"
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("write response", zap.Error(err))
	}
}
