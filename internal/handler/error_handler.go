package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/Raymond9734/film-rental-frontdesk/internal/models"
)

// statusByCode lists the AppError codes that reach the caller verbatim
var statusByCode = map[string]int{
	models.CodeInvalidInput: http.StatusBadRequest,
	models.CodeNotFound:     http.StatusNotFound,
	models.CodeConflict:     http.StatusConflict,
}

// writeFailure answers a failed service call. Validation, lookup and state
// conflicts carry their message to the caller; everything else is logged and
// masked as a 500.
func writeFailure(w http.ResponseWriter, r *http.Request, err error, logger *slog.Logger) {
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		if status, ok := statusByCode[appErr.Code]; ok {
			writeError(w, r, status, appErr.Code, appErr.Message)
			return
		}
	}

	logger.Error("internal server error",
		slog.String("error", err.Error()),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("request_id", RequestIDFromContext(r.Context())),
	)
	writeError(w, r, http.StatusInternalServerError, models.CodeInternal, "An unexpected error occurred")
}

// pathID parses the positive numeric {id} URL parameter
func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
