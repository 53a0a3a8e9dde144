package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/hyperjump/trendlens/internal/models"
	"github.com/hyperjump/trendlens/internal/storage"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 500
	maxBodyBytes        = 1 << 20
)

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req models.AnalyzeRequest
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := req.Validate(s.info.MaxKeywords); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if req.IsBatch() {
		s.logger.Debug("batch analyze request", zap.Strings("keywords", req.Keywords))
		s.respondJSON(w, http.StatusOK, s.analyzer.AnalyzeMany(r.Context(), req.Keywords))
		return
	}

	s.logger.Debug("analyze request", zap.String("keyword", req.Keyword))
	result, err := s.analyzer.Analyze(r.Context(), req.Keyword)
	if err != nil {
		if isValidationError(err) {
			s.respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.logger.Error("analysis failed", zap.String("keyword", req.Keyword), zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "analysis failed")
		return
	}
	s.respondJSON(w, http.StatusOK, result)
}

func isValidationError(err error) bool {
	return errors.Is(err, models.ErrEmptyKeyword) ||
		errors.Is(err, models.ErrInvalidKeyword) ||
		errors.Is(err, models.ErrKeywordTooLong) ||
		errors.Is(err, models.ErrTooManyKeywords)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.queryLog == nil {
		s.respondError(w, http.StatusNotImplemented, "query log not enabled")
		return
	}
	q := r.URL.Query()
	limit, err := intParam(q.Get("limit"), defaultHistoryLimit)
	if err != nil || limit < 0 {
		s.respondError(w, http.StatusBadRequest, "invalid limit")
		return
	}
	if limit == 0 || limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	offset, err := intParam(q.Get("offset"), 0)
	if err != nil || offset < 0 {
		s.respondError(w, http.StatusBadRequest, "invalid offset")
		return
	}

	resp, err := storage.History(r.Context(), s.queryLog, q.Get("keyword"), offset, limit)
	if err != nil {
		s.logger.Error("history failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func intParam(raw string, def int) (int, error) {
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := models.StatusResponse{
		DatabasePath: s.info.DatabasePath,
		TrendSource:  s.info.TrendSource,
		Version:      s.info.Version,
	}
	if s.queryLog != nil {
		n, err := s.queryLog.Count(r.Context())
		if err != nil {
			s.logger.Error("status: count queries failed", zap.Error(err))
			s.respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		resp.Queries = n
	}
	if s.info.DatabasePath != "" {
		diskBytes, err := storage.DatabaseUsageBytes(s.info.DatabasePath)
		if err == nil {
			resp.DiskUsageBytes = diskBytes
		}
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
