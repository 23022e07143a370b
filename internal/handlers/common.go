// Package handlers adapts the note and category services to HTTP.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/RedDeadth/Typeimp-Repository/internal/identity"
	"github.com/RedDeadth/Typeimp-Repository/internal/service"
	"github.com/RedDeadth/Typeimp-Repository/pkg/api"
	appErrors "github.com/RedDeadth/Typeimp-Repository/pkg/errors"
)

const msgInvalidBody = "Invalid request body"

// ErrorWriter translates service errors into HTTP responses. Diagnostic
// details are only sent when ExposeDetails is set.
type ErrorWriter struct {
	Logger        *zap.Logger
	ExposeDetails bool
}

// Write sends the response for err.
func (e ErrorWriter) Write(w http.ResponseWriter, r *http.Request, err error) {
	var appErr *appErrors.AppError
	if !errors.As(err, &appErr) {
		appErr = &appErrors.AppError{Type: appErrors.ErrorTypeInternal, Message: "An internal error occurred", Err: err}
	}

	status := StatusFor(appErr.Type)
	if status >= http.StatusInternalServerError {
		e.Logger.Error("Request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("type", string(appErr.Type)),
			zap.Error(err))
	} else {
		e.Logger.Debug("Request rejected",
			zap.String("path", r.URL.Path),
			zap.String("type", string(appErr.Type)),
			zap.String("message", appErr.Message))
	}

	details := ""
	if e.ExposeDetails {
		details = appErr.Detail()
	}
	api.ErrorWithDetails(w, status, appErr.Message, details)
}

// StatusFor maps an error type to its HTTP status.
func StatusFor(t appErrors.ErrorType) int {
	switch t {
	case appErrors.ErrorTypeUnauthorized:
		return http.StatusUnauthorized
	case appErrors.ErrorTypeValidation:
		return http.StatusBadRequest
	case appErrors.ErrorTypeNotFound:
		return http.StatusNotFound
	case appErrors.ErrorTypeConflict:
		return http.StatusConflict
	case appErrors.ErrorTypeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func owner(r *http.Request) (string, error) {
	id, ok := identity.OwnerFromContext(r.Context())
	if !ok {
		return "", appErrors.NewUnauthorized(service.MsgUnauthorized)
	}
	return id, nil
}

func decode(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return appErrors.NewValidation(msgInvalidBody)
	}
	return nil
}

// Health reports that the process is serving.
func Health(w http.ResponseWriter, _ *http.Request) {
	api.Success(w, http.StatusOK, api.OK("status", "healthy"))
}
