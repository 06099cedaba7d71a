package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/ricardonunez-io/loganalyser/internal/digest"
	"github.com/ricardonunez-io/loganalyser/internal/errs"
	"github.com/ricardonunez-io/loganalyser/internal/ingestor"
	"github.com/ricardonunez-io/loganalyser/internal/model"
	"github.com/rs/zerolog/log"
)

const (
	DefaultQuery       = "Find critical errors"
	DefaultEnvironment = "TST"

	// UTF-8 needs at most four bytes per character.
	maxBodyBytes = 4*ingestor.MaxLogChars + 64*1024

	maxDigestBytes = 1 << 20
)

type InvokeResponse struct {
	Analysis string `json:"analysis"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleAnalyzeRaw(w http.ResponseWriter, r *http.Request) {
	body, err := readLogs(w, r)
	if err != nil {
		writeError(w, err)
		return
	}

	req, err := queryRequest(r)
	if err != nil {
		writeError(w, err)
		return
	}
	req.RawLogs = string(body)
	s.analyzeText(w, r, req)
}

// handleDigest groups the posted logs into recurring patterns without a
// model call.
func (s *Server) handleDigest(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxDigestBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, errs.Validation("digest input exceeds the limit of %d bytes", maxDigestBytes))
			return
		}
		writeError(w, errs.Validation("failed to read request body: %v", err))
		return
	}
	if model.IsBlank(string(body)) {
		writeError(w, errs.Validation("no logs available"))
		return
	}

	summary, err := digest.Summarize(r.Context(), string(body), digest.Options{
		MinLevel: r.URL.Query().Get("logLevel"),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleAnalyzeEnv(w http.ResponseWriter, r *http.Request) {
	req, err := queryRequest(r)
	if err != nil {
		writeError(w, err)
		return
	}
	req.Environment = paramOr(r, "env", DefaultEnvironment)
	s.analyzeText(w, r, req)
}

func (s *Server) handleAgentAnalyze(w http.ResponseWriter, r *http.Request) {
	var in InvokeRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&in); err != nil {
		writeError(w, errs.Validation("invalid request body: %v", err))
		return
	}

	outcome, err := s.analyzer.Analyze(r.Context(), in.toRequest())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, InvokeResponse{Analysis: outcome.Result.Content})
}

func (s *Server) handleCard(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.card)
}

func (s *Server) analyzeText(w http.ResponseWriter, r *http.Request, req model.AnalysisRequest) {
	outcome, err := s.analyzer.Analyze(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, outcome.Result.Content)
}

func readLogs(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, errs.Validation("log text length exceeds the limit of %d characters", ingestor.MaxLogChars)
		}
		return nil, errs.Validation("failed to read request body: %v", err)
	}
	return body, nil
}

// queryRequest reads the filters shared by both /api/logs endpoints.
func queryRequest(r *http.Request) (model.AnalysisRequest, error) {
	req := model.AnalysisRequest{
		Query:           paramOr(r, "query", DefaultQuery),
		RepoLink:        r.URL.Query().Get("repoLink"),
		LogLevel:        r.URL.Query().Get("logLevel"),
		ApplicationName: r.URL.Query().Get("applicationName"),
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("days")); raw != "" {
		days, err := strconv.Atoi(raw)
		if err != nil {
			return req, errs.Validation("days must be an integer, got %q", raw)
		}
		req.Days = &days
	}
	return req, nil
}

func paramOr(r *http.Request, name, fallback string) string {
	if v := r.URL.Query().Get(name); v != "" {
		return v
	}
	return fallback
}

func statusFor(err error) int {
	kind, ok := errs.KindOf(err)
	if !ok {
		return http.StatusInternalServerError
	}
	switch kind {
	case errs.KindValidation:
		return http.StatusBadRequest
	case errs.KindExternalTool, errs.KindModelInvocation:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		log.Err(err).Int("status", status).Msg("Analysis request failed")
	}
	http.Error(w, err.Error(), status)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Err(err).Msg("Failed to encode response")
	}
}
