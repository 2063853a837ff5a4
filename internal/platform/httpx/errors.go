package httpx

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/dukkan-pos/dukkan/internal/shared"
)

// ErrBadRequest marks a malformed request body or parameter.
var ErrBadRequest = errors.New("bad request")

// retryable is implemented by errors from collaborators that may succeed on a later attempt.
type retryable interface {
	Retryable() bool
}

// RespondError maps domain errors to HTTP responses using RFC7807 and returns the status written.
func RespondError(w http.ResponseWriter, err error) int {
	p := ProblemFor(err)
	WriteProblem(w, p)
	return p.Status
}

// ProblemFor builds the problem document for err without writing it.
func ProblemFor(err error) ProblemDetail {
	var (
		verr  *shared.ValidationError
		stock *shared.InsufficientStockError
		retry retryable
	)
	switch {
	case errors.As(err, &verr):
		return ProblemDetail{Title: "Validation Failed", Status: http.StatusUnprocessableEntity, Detail: verr.Error(), Errors: verr.Fields}
	case errors.As(err, &stock):
		return ProblemDetail{Title: "Insufficient Stock", Status: http.StatusConflict, Detail: stock.Error()}
	case errors.Is(err, ErrBadRequest):
		return ProblemDetail{Title: "Bad Request", Status: http.StatusBadRequest, Detail: err.Error()}
	case errors.Is(err, shared.ErrNotFound):
		return ProblemDetail{Title: "Not Found", Status: http.StatusNotFound, Detail: err.Error()}
	case errors.Is(err, shared.ErrConflict):
		return ProblemDetail{Title: "Conflict", Status: http.StatusConflict, Detail: shared.UserSafeMessage(err), Retryable: true}
	case errors.Is(err, shared.ErrSetupRequired):
		return ProblemDetail{Title: "Setup Required", Status: http.StatusPreconditionRequired, Detail: shared.UserSafeMessage(err)}
	case errors.As(err, &retry) && retry.Retryable():
		return ProblemDetail{Title: "Upstream Failure", Status: http.StatusBadGateway, Detail: err.Error(), Retryable: true}
	default:
		return ProblemDetail{Title: "Internal Error", Status: http.StatusInternalServerError}
	}
}

// Fail writes the problem for err and logs server-side failures. Invariant
// violations are logged at error level with the request path.
func Fail(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	status := RespondError(w, err)
	if logger == nil || status < http.StatusInternalServerError {
		return
	}
	level := slog.LevelWarn
	if status == http.StatusInternalServerError {
		level = slog.LevelError
	}
	logger.Log(r.Context(), level, "request failed",
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.Int("status", status),
		slog.Any("error", err))
}
