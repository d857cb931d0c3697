package errors

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime"
	"time"

	"github.com/go-chi/chi/v5/middleware"
)

// ErrorHandler provides centralized error handling for HTTP handlers
type ErrorHandler struct {
	logger *slog.Logger
}

// NewErrorHandler creates a new error handler with the given logger
func NewErrorHandler(logger *slog.Logger) *ErrorHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ErrorHandler{logger: logger}
}

// HandleError processes an error and writes an appropriate HTTP response
func (h *ErrorHandler) HandleError(w http.ResponseWriter, r *http.Request, err error) {
	traceID := middleware.GetReqID(r.Context())

	problem := h.errorToProblem(err)
	problem.WithTraceID(traceID).WithInstance(r.URL.Path)
	problem.Timestamp = time.Now().UTC().Format(time.RFC3339)

	level := slog.LevelWarn
	if problem.Status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	h.logger.LogAttrs(r.Context(), level, "request failed",
		slog.String("trace_id", traceID),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.Int("status", problem.Status),
		slog.String("error", err.Error()),
	)

	if renderErr := problem.Render(w, r); renderErr != nil {
		h.logger.Error("failed to render error response",
			slog.String("trace_id", traceID),
			slog.String("error", renderErr.Error()),
		)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

// errorToProblem converts any error into RFC 7807 problem details
func (h *ErrorHandler) errorToProblem(err error) *ProblemDetails {
	if apiErr, ok := err.(*APIError); ok {
		return h.apiErrorToProblem(apiErr)
	}
	return NewProblemDetails(http.StatusInternalServerError, ProblemTypeInternal,
		"Internal Server Error", "An unexpected error occurred")
}

// apiErrorToProblem maps an APIError to problem details
func (h *ErrorHandler) apiErrorToProblem(apiErr *APIError) *ProblemDetails {
	problemType := ProblemTypeInternal
	switch apiErr.ErrorCode {
	case "VALIDATION_FAILED", "INVALID_REQUEST", "INVALID_JSON", "MISSING_PARAMETER", "INVALID_PARAMETER":
		problemType = ProblemTypeValidation
	case "NOT_FOUND":
		problemType = ProblemTypeNotFound
	case "DATASET_NOT_FOUND":
		problemType = ProblemTypeDatasetNotFound
	case "MISSING_REQUIRED_COLUMN", "UNPROCESSABLE_ENTITY":
		problemType = ProblemTypeDatasetInvalid
	case "DISCOUNT_OUT_OF_BOUNDS":
		problemType = ProblemTypeSimulationInvalid
	case "RATE_LIMIT_EXCEEDED":
		problemType = ProblemTypeRateLimit
	case "SERVICE_UNAVAILABLE":
		problemType = ProblemTypeServiceUnavailable
	}

	problem := NewProblemDetails(apiErr.StatusCode, problemType,
		http.StatusText(apiErr.StatusCode), apiErr.Message)
	problem.WithExtension("error_code", apiErr.ErrorCode)
	if apiErr.Details != nil {
		problem.WithExtension("details", apiErr.Details)
	}
	return problem
}

// HandlePanic recovers from panics and returns a 500 response
func (h *ErrorHandler) HandlePanic(w http.ResponseWriter, r *http.Request, rvr interface{}) {
	traceID := middleware.GetReqID(r.Context())

	h.logger.Error("panic recovered",
		slog.String("trace_id", traceID),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.Any("panic", rvr),
		slog.String("stack", getStackTrace()),
	)

	problem := NewProblemDetails(http.StatusInternalServerError, ProblemTypeInternal,
		"Internal Server Error", "An unexpected error occurred")
	problem.WithTraceID(traceID).WithInstance(r.URL.Path)
	problem.Timestamp = time.Now().UTC().Format(time.RFC3339)

	if err := problem.Render(w, r); err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

// NotFound returns a handler for unmatched routes
func (h *ErrorHandler) NotFound() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.HandleError(w, r, NotFoundError(fmt.Sprintf("route %s", r.URL.Path)))
	}
}

// MethodNotAllowed returns a handler for unsupported methods
func (h *ErrorHandler) MethodNotAllowed() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		problem := NewProblemDetails(http.StatusMethodNotAllowed, ProblemTypeMethodNotAllowed,
			"Method Not Allowed", fmt.Sprintf("Method %s is not allowed for %s", r.Method, r.URL.Path))
		problem.WithTraceID(middleware.GetReqID(r.Context())).WithInstance(r.URL.Path)
		if err := problem.Render(w, r); err != nil {
			http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		}
	}
}

// getStackTrace captures the current goroutine's stack
func getStackTrace() string {
	buf := make([]byte, 4096)
	n := runtime.Stack(buf, false)
	return string(buf[:n])
}
