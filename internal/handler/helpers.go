package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/faucetdb/fixturebake/internal/bake"
	"github.com/faucetdb/fixturebake/internal/config"
	"github.com/faucetdb/fixturebake/internal/connector"
	"github.com/faucetdb/fixturebake/internal/fixture"
)

// ErrorResponse is the standard error envelope.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail describes a failed request.
type ErrorDetail struct {
	Code    int                    `json:"code"`
	Message string                 `json:"message"`
	Context map[string]interface{} `json:"context,omitempty"`
}

// writeJSON serializes v as JSON and writes it to the response with the given
// HTTP status code. The Content-Type header is set to application/json.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a structured error response using the standard error
// envelope. The optional ctx map provides additional context fields.
func writeError(w http.ResponseWriter, code int, message string, ctx ...map[string]interface{}) {
	var ctxMap map[string]interface{}
	if len(ctx) > 0 {
		ctxMap = ctx[0]
	}
	writeJSON(w, code, ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
			Context: ctxMap,
		},
	})
}

// queryCount extracts an optional record count, clamped to [0, max].
// A missing or malformed parameter yields nil.
func queryCount(r *http.Request, key string, max int) *int {
	val := r.URL.Query().Get(key)
	if val == "" {
		return nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return nil
	}
	n = clampInt(n, 0, max)
	return &n
}

// queryString extracts a string query parameter.
func queryString(r *http.Request, key string) string {
	return r.URL.Query().Get(key)
}

// queryBool extracts a boolean query parameter. Returns false if the parameter
// is missing or not "true"/"1".
func queryBool(r *http.Request, key string) bool {
	val := r.URL.Query().Get(key)
	return val == "true" || val == "1"
}

// classifyError maps bake errors to HTTP status codes.
// Returns (httpStatus, cleanMessage).
func classifyError(err error, fallbackMsg string) (int, string) {
	msg := fallbackMsg + ": " + err.Error()
	lower := strings.ToLower(err.Error())

	switch {
	case errors.Is(err, config.ErrNotFound):
		return http.StatusNotFound, msg
	case errors.Is(err, connector.ErrIntrospectionUnsupported):
		return http.StatusNotImplemented, msg
	case errors.Is(err, fixture.ErrSchemaRequired), errors.Is(err, connector.ErrUnsafeCondition),
		errors.Is(err, bake.ErrInvalidPlugin):
		return http.StatusBadRequest, msg

	// Table not found → 404
	case strings.Contains(lower, "not found") ||
		strings.Contains(lower, "no such table") ||
		strings.Contains(lower, "does not exist") ||
		strings.Contains(lower, "invalid object name") ||
		strings.Contains(lower, "doesn't exist"):
		return http.StatusNotFound, msg

	// Bad sampling conditions → 400
	case strings.Contains(lower, "syntax error") ||
		strings.Contains(lower, "no such column") ||
		strings.Contains(lower, "unknown column"):
		return http.StatusBadRequest, msg

	default:
		return http.StatusInternalServerError, msg
	}
}

// clampInt constrains val to be within [min, max].
func clampInt(val, min, max int) int {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}
