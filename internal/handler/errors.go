package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/akorchak/fleet-dispatch/internal/domain"
)

// All responses share one envelope: {"status":"ok", ...} on success and
// {"status":"error","errors":<string|array|map>} on failure. respondOK and
// respondErr are the only places that write it.

// respondOK writes the success envelope with the given extra payload fields.
func respondOK(w http.ResponseWriter, statusCode int, payload map[string]any) {
	body := map[string]any{"status": "ok"}
	for k, v := range payload {
		body[k] = v
	}
	writeJSON(w, statusCode, body)
}

// respondErr maps a service error to an HTTP status and writes the error
// envelope. Unrecognized errors become an opaque 500; invariant violations
// are logged at Error level so they are never mistaken for ordinary guard
// rejections.
func respondErr(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		respondErrMessage(w, http.StatusBadRequest, unwrapMessage(err))
	case errors.Is(err, domain.ErrUnauthorized):
		respondErrMessage(w, http.StatusUnauthorized, unwrapMessage(err))
	case errors.Is(err, domain.ErrForbidden):
		respondErrMessage(w, http.StatusForbidden, unwrapMessage(err))
	case errors.Is(err, domain.ErrNotFound):
		respondErrMessage(w, http.StatusNotFound, unwrapMessage(err))
	case errors.Is(err, domain.ErrRateLimited):
		respondErrMessage(w, http.StatusConflict, "Too frequent requests")
	case errors.Is(err, domain.ErrConflict):
		if domain.IsInvariant(err) {
			slog.ErrorContext(r.Context(), "invariant violation", "error", err, "path", r.URL.Path)
		}
		respondErrMessage(w, http.StatusConflict, conflictMessage(err))
	default:
		slog.ErrorContext(r.Context(), "internal error", "error", err, "path", r.URL.Path)
		respondErrMessage(w, http.StatusInternalServerError, "internal server error")
	}
}

// respondErrMessage writes the error envelope with a single message string.
func respondErrMessage(w http.ResponseWriter, statusCode int, message string) {
	respondErrors(w, statusCode, message)
}

// respondErrors writes the error envelope. errs may be a string, a slice, or
// a map of grouped failures.
func respondErrors(w http.ResponseWriter, statusCode int, errs any) {
	writeJSON(w, statusCode, map[string]any{"status": "error", "errors": errs})
}

// conflictMessage extracts the bare guard message from a wrapped conflict.
func conflictMessage(err error) string {
	var conflict domain.ConflictError
	if errors.As(err, &conflict) {
		return conflict.Error()
	}
	var invariant domain.InvariantError
	if errors.As(err, &invariant) {
		return invariant.Error()
	}
	return unwrapMessage(err)
}

// unwrapMessage strips the service call-path prefix from a wrapped sentinel
// error, e.g. "service.FleetService.Create: validation error: name is
// required" becomes "name is required".
func unwrapMessage(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	for _, sentinel := range []error{
		domain.ErrValidation, domain.ErrUnauthorized, domain.ErrForbidden,
		domain.ErrNotFound, domain.ErrRateLimited,
	} {
		if prefix := sentinel.Error() + ": "; strings.Contains(msg, prefix) {
			return msg[strings.Index(msg, prefix)+len(prefix):]
		}
	}
	// No detail after the sentinel: drop the call-path prefix, keep the
	// sentinel text itself ("service.X.Y: not found" -> "not found").
	if i := strings.LastIndex(msg, ": "); i >= 0 {
		return msg[i+2:]
	}
	return msg
}
