package api

import (
	"encoding/json"
	"net/http"

	"github.com/aryankumar/batchexec/internal/response"
	"github.com/aryankumar/batchexec/pkg/version"
)

// Envelope codes returned by the shell. Zero is success.
const (
	codeBadRequest  = 1000
	codeBusy        = 1001
	codeBatchFailed = 1002
	codePartial     = 1003
	codeUnavailable = 1004
)

type healthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Workers int    `json:"workers"`
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(healthResponse{
		Status:  "ok",
		Version: version.Version,
		Workers: s.shared.WorkerCount(),
	}); err != nil {
		s.logger.Error("encode healthz response", "error", err)
	}
}

// handleTest1 answers with plain text and no envelope.
func (s *Server) handleTest1(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("Test OKay!")); err != nil {
		s.logger.Error("write test1 response", "error", err)
	}
}

func (s *Server) handleTest2(w http.ResponseWriter, r *http.Request) {
	response.Write(w, http.StatusOK, response.Success("Test Okay"), s.logger)
}

func (s *Server) writeFailed(w http.ResponseWriter, status, code int, message string) {
	response.Write(w, status, response.Failed(code, message), s.logger)
}
