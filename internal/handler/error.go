package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/dukerupert/britishfloors/internal/billing"
	"github.com/dukerupert/britishfloors/internal/domain"
	"github.com/dukerupert/britishfloors/internal/middleware"
	"github.com/dukerupert/britishfloors/internal/telemetry"
	"github.com/dukerupert/britishfloors/internal/views"
)

// ============================================================================
// ERROR RESPONSES
// ============================================================================
//
// Handlers return errors; echo routes them to HTTPErrorHandler, which picks
// the status from the domain error code. JSON clients get
//
//	{"error": {"code": "...", "message": "...", "fields": {...}}}
//
// and browsers get an HTML error page.

const internalMessage = "An internal error occurred. Please try again later."

type errorBody struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// HTTPErrorHandler returns an echo error handler that logs err once and
// renders it. Responses that were already written are left alone.
func HTTPErrorHandler(fallback zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		err = fromEcho(err)
		r := c.Request()

		code := domain.ErrorCode(err)
		status := ErrorCodeToHTTPStatus(code)
		logger := middleware.GetLogger(r.Context(), fallback)
		evt := logger.Info()
		if status >= 500 {
			evt = logger.Error()
		}
		evt.Err(err).
			Str("code", code).
			Str("op", domain.ErrorOp(err)).
			Int("status", status).
			Msg("request failed")

		if domain.IsCode(err, domain.EINTERNAL) {
			telemetry.CaptureErrorWithContext(r.Context(), err, domain.SessionIDFromContext(r.Context()), map[string]interface{}{
				"path": r.URL.Path,
			})
		}

		if r.Method == http.MethodHead {
			c.Response().WriteHeader(status)
			return
		}
		if fields := fieldErrors(err); fields != nil {
			writeError(c.Response(), r, status, errorBody{Code: domain.EINVALID, Message: validationMessage(err, fields), Fields: fields})
			return
		}
		ErrorResponse(c.Response(), r, err)
	}
}

// ErrorResponse writes err with the status for its code. Internal details are
// never shown to the client.
func ErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	code := domain.ErrorCode(err)
	writeError(w, r, ErrorCodeToHTTPStatus(code), errorBody{Code: code, Message: domain.ErrorMessage(err)})
}

// ValidationErrorResponse writes field-level errors as a 400. Errors without
// fields fall back to ErrorResponse.
func ValidationErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	fields := fieldErrors(err)
	if fields == nil {
		ErrorResponse(w, r, err)
		return
	}
	writeError(w, r, http.StatusBadRequest, errorBody{Code: domain.EINVALID, Message: validationMessage(err, fields), Fields: fields})
}

func NotFoundResponse(w http.ResponseWriter, r *http.Request) {
	ErrorResponse(w, r, domain.Errorf(domain.ENOTFOUND, "", "The requested resource was not found"))
}

func UnauthorizedResponse(w http.ResponseWriter, r *http.Request) {
	ErrorResponse(w, r, domain.ErrNotLoggedIn)
}

func ForbiddenResponse(w http.ResponseWriter, r *http.Request) {
	ErrorResponse(w, r, domain.Errorf(domain.EFORBIDDEN, "", "You don't have permission to access this resource"))
}

func InternalErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	ErrorResponse(w, r, domain.Internal(err, "", "An unexpected error occurred"))
}

func writeError(w http.ResponseWriter, r *http.Request, status int, body errorBody) {
	if body.Code == domain.EINTERNAL {
		body.Message = internalMessage
	}

	if acceptsJSON(r) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(map[string]errorBody{"error": body})
		return
	}

	if strings.Contains(r.Header.Get("Accept"), "text/html") {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(status)
		_ = views.ErrorPage(status, body.Message).Render(r.Context(), w)
		return
	}

	http.Error(w, body.Message, status)
}

// fieldErrors returns per-field messages for form validation failures and
// for checkout rejections reported by the commerce platform.
func fieldErrors(err error) map[string]string {
	if domain.IsValidationError(err) {
		return domain.GetValidationFields(err)
	}
	var ue *billing.UserError
	if errors.As(err, &ue) {
		return ue.Fields()
	}
	return nil
}

func validationMessage(err error, fields map[string]string) string {
	var ue *billing.UserError
	if errors.As(err, &ue) {
		return ue.ErrorMessage()
	}
	if len(fields) == 1 {
		for _, msg := range fields {
			return msg
		}
	}
	return "Please correct the highlighted fields"
}

// fromEcho converts echo's own errors (unknown route, bad bind, oversized
// body) into domain errors.
func fromEcho(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return domain.Errorf(domain.ETOOLARGE, "request.body", "Request body too large")
	}

	var he *echo.HTTPError
	if !errors.As(err, &he) {
		return err
	}
	var de *domain.Error
	if errors.As(err, &de) {
		return de
	}

	msg := http.StatusText(he.Code)
	if s, ok := he.Message.(string); ok && s != "" {
		msg = s
	}
	op := "http"

	switch he.Code {
	case http.StatusNotFound:
		return domain.Errorf(domain.ENOTFOUND, op, "The requested resource was not found")
	case http.StatusMethodNotAllowed:
		return domain.Errorf(domain.EINVALID, op, "Method not allowed")
	case http.StatusUnauthorized:
		return domain.Errorf(domain.EUNAUTHORIZED, op, "%s", msg)
	case http.StatusForbidden:
		return domain.Errorf(domain.EFORBIDDEN, op, "%s", msg)
	case http.StatusRequestEntityTooLarge:
		return domain.Errorf(domain.ETOOLARGE, op, "Request body too large")
	case http.StatusTooManyRequests:
		return domain.Errorf(domain.ERATELIMIT, op, "Too many requests")
	case http.StatusServiceUnavailable:
		return domain.Unavailable(he, op, msg)
	}
	if he.Code < 500 {
		return domain.WrapError(he, domain.EINVALID, op, fmt.Sprintf("Invalid request: %s", msg))
	}
	return domain.Internal(he, op, msg)
}

// ErrorCodeToHTTPStatus maps domain error codes to HTTP status codes.
func ErrorCodeToHTTPStatus(code string) int {
	switch code {
	case domain.EINVALID:
		return http.StatusBadRequest // 400
	case domain.EUNAUTHORIZED:
		return http.StatusUnauthorized // 401
	case domain.EPAYMENT:
		return http.StatusPaymentRequired // 402
	case domain.EFORBIDDEN:
		return http.StatusForbidden // 403
	case domain.ENOTFOUND:
		return http.StatusNotFound // 404
	case domain.ECONFLICT:
		return http.StatusConflict // 409
	case domain.EGONE:
		return http.StatusGone // 410
	case domain.ETOOLARGE:
		return http.StatusRequestEntityTooLarge // 413
	case domain.ERATELIMIT:
		return http.StatusTooManyRequests // 429
	case domain.EINTERNAL:
		return http.StatusInternalServerError // 500
	case domain.ENOTIMPL:
		return http.StatusNotImplemented // 501
	case domain.EUNAVAILABLE:
		return http.StatusServiceUnavailable // 503
	default:
		return http.StatusInternalServerError // 500
	}
}

// acceptsJSON checks if the client prefers JSON responses. API routes always
// answer in JSON.
func acceptsJSON(r *http.Request) bool {
	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		return true
	}
	if strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		return true
	}
	return strings.HasSuffix(r.URL.Path, ".json") || strings.HasPrefix(r.URL.Path, "/api/")
}

// AcceptsJSON reports whether the response to r should be JSON.
func AcceptsJSON(r *http.Request) bool {
	return acceptsJSON(r)
}
