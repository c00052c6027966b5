package web

// errors.go maps pipeline errors to HTTP responses. The technical error is
// logged with the request ID; the client gets the operator-facing message
// and code from catalog.MapError.

import (
	"errors"
	"net/http"

	"github.com/JonMunkholm/partscatalog/internal/catalog"
	"github.com/JonMunkholm/partscatalog/internal/logging"
)

var (
	errFileTooLarge = errors.New("file too large")
	errNoFile       = errors.New("no file provided")
)

// ErrorResponse is the JSON body of every error response.
type ErrorResponse struct {
	Error  string               `json:"error"`
	Action string               `json:"action,omitempty"`
	Code   string               `json:"code"`
	Stats  *catalog.ImportStats `json:"stats,omitempty"`
}

var codeStatus = map[string]int{
	"FILE001": http.StatusNotFound,
	"FILE002": http.StatusBadRequest,
	"FILE003": http.StatusRequestEntityTooLarge,
	"FILE004": http.StatusBadRequest,
	"FILE005": http.StatusBadRequest,
	"VAL001":  http.StatusUnprocessableEntity,
	"VAL002":  http.StatusNotFound,
	"VAL003":  http.StatusBadRequest,
	"IMP001":  http.StatusTooManyRequests,
	"IMP002":  http.StatusInternalServerError,
	"IMP003":  http.StatusRequestTimeout,
	"IMP004":  http.StatusGatewayTimeout,
	"BAK001":  http.StatusInternalServerError,
	"DB001":   http.StatusConflict,
	"DB002":   http.StatusConflict,
	"DB003":   http.StatusServiceUnavailable,
	"DB004":   http.StatusServiceUnavailable,
}

// statusFor returns the HTTP status for a catalog error code.
func statusFor(code string) int {
	if status, ok := codeStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// respondError logs err and writes its user-facing form. stats is included
// when an import stopped part-way.
func respondError(w http.ResponseWriter, r *http.Request, err error, stats *catalog.ImportStats) {
	msg := catalog.MapError(err)
	status := statusFor(msg.Code)

	logging.FromContext(r.Context()).Error("request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"error", err.Error(),
		"code", msg.Code,
	)

	writeJSON(w, status, ErrorResponse{
		Error:  msg.Message,
		Action: msg.Action,
		Code:   msg.Code,
		Stats:  stats,
	})
}
