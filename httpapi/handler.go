package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/isdmx/coderunner/language"
	"github.com/isdmx/coderunner/sandbox"
)

// maxRequestBytes bounds the /run-code request body.
const maxRequestBytes = 1 << 20

// RunCodeRequest is the /run-code request body.
type RunCodeRequest struct {
	Language string `json:"language"`
	Code     string `json:"code"`
}

// ErrorResponse is returned for requests that never reach the sandbox.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

type handler struct {
	exec     sandbox.SandboxExecutor
	registry *language.Registry
	logger   *zap.Logger
}

func newHandler(exec sandbox.SandboxExecutor, registry *language.Registry, logger *zap.Logger) *handler {
	return &handler{
		exec:     exec,
		registry: registry,
		logger:   logger,
	}
}

// handleRunCode answers 200 for every sandbox outcome, including compile
// errors, timeouts and unknown languages, since those are results of the
// user's code. Only internal sandbox faults map to 500.
func (h *handler) handleRunCode(w http.ResponseWriter, r *http.Request) {
	var req RunCodeRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes)).Decode(&req); err != nil {
		h.logger.Warn("invalid run-code request body", zap.Error(err))
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, h.logger, http.StatusRequestEntityTooLarge, ErrorResponse{
				Error:   "request_too_large",
				Message: "request body exceeds the size limit",
			})
			return
		}
		writeJSON(w, h.logger, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "request body must be a JSON object with language and code",
		})
		return
	}

	outcome := h.exec.Execute(r.Context(), sandbox.Request{Language: req.Language, Code: req.Code})

	status := http.StatusOK
	if outcome.Status == sandbox.StatusInternalError {
		status = http.StatusInternalServerError
	}
	writeJSON(w, h.logger, status, outcome.Result())
}

// LanguageInfo is one entry of GET /languages when the executor cannot
// probe toolchains.
type LanguageInfo struct {
	Language string   `json:"language"`
	Aliases  []string `json:"aliases"`
	Compiled bool     `json:"compiled"`
}

func (h *handler) handleLanguages(w http.ResponseWriter, _ *http.Request) {
	if reporter, ok := h.exec.(sandbox.ToolchainReporter); ok {
		writeJSON(w, h.logger, http.StatusOK, reporter.Toolchains())
		return
	}

	var out []LanguageInfo
	if h.registry != nil {
		for _, p := range h.registry.Profiles() {
			out = append(out, LanguageInfo{
				Language: p.Name,
				Aliases:  p.Aliases,
				Compiled: p.RequiresCompilation(),
			})
		}
	}
	writeJSON(w, h.logger, http.StatusOK, out)
}

func (h *handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, h.logger, http.StatusOK, map[string]string{"status": "ok"})
}

// writeJSON serialises data as a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, logger *zap.Logger, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			logger.Error("failed to encode JSON response", zap.Error(err))
		}
	}
}
