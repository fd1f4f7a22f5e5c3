package echoapi

import (
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/edubridge/backoffice/core"
)

var (
	errUnauthorized         = echo.NewHTTPError(http.StatusUnauthorized, "user not authenticated")
	errAuthenticationFailed = echo.NewHTTPError(http.StatusUnauthorized, "Invalid email or password")
	errAccountDeactivated   = echo.NewHTTPError(http.StatusForbidden, "account deactivated")
	errRefreshExpired       = echo.NewHTTPError(http.StatusForbidden, "refresh has expired")
	errHttpForbidden        = echo.NewHTTPError(http.StatusForbidden, "permission denied")
	errHttpNotFound         = echo.NewHTTPError(http.StatusNotFound, "not found")
)

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
// signalShutdown is called in order to gracefully shutdown the Server whenever a core.shutdown error is caught.
func newAppHTTPErrorHandler(logger core.Logger, v *core.Validator, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var (
			code    int
			message string
			fields  map[string]string
		)

		var (
			httpErr     *echo.HTTPError
			vErr        *core.ValidationError
			vErrs       validator.ValidationErrors
			notFoundErr *core.NotFoundError
			forbidErr   *core.ForbiddenError
		)
		switch {
		case errors.As(err, &httpErr):
			if httpErr == middleware.ErrJWTMissing {
				code = http.StatusUnauthorized
				message = toString(httpErr.Message)
				break
			}
			if herr, ok := httpErr.Internal.(*echo.HTTPError); ok {
				httpErr = herr
			}
			code = httpErr.Code
			message = toString(httpErr.Message)
		case errors.As(err, &vErrs):
			fields = make(map[string]string, len(vErrs))
			for _, fe := range vErrs {
				fields[fe.Field()] = fe.Translate(v.Translator())
			}
			code = http.StatusBadRequest
			message = "Validation failed"
		case errors.As(err, &vErr):
			code = http.StatusBadRequest
			message = vErr.Error()
			if len(vErr.Fields) > 0 {
				fields = make(map[string]string, len(vErr.Fields))
				for _, fe := range vErr.Fields {
					fields[fe.Field] = fe.Error
				}
				message = vErr.Fields[0].Error
			}
		case errors.As(err, &notFoundErr):
			code = http.StatusNotFound
			message = capitalize(notFoundErr.Error())
		case errors.As(err, &forbidErr):
			code = http.StatusForbidden
			message = forbidErr.Error()
		default: // any other error is a server error
			code = http.StatusInternalServerError
			message = http.StatusText(http.StatusInternalServerError)

			args := []interface{}{errors.Wrap(err, message)}
			if actor, aErr := getContextActor(ctx); aErr == nil {
				args = append(args, actor)
			}
			logger.Error(message, args...)

			// shutting down...
			if core.IsShutdown(err) {
				signalShutdown()
			}
		}

		if ctx.Echo().Debug && code == http.StatusInternalServerError {
			message = err.Error()
		}

		// Send response
		if !ctx.Response().Committed {
			if ctx.Request().Method == http.MethodHead { // Issue #608
				err = ctx.NoContent(code)
			} else {
				res := ErrorResponse{Success: false, Message: message}
				if fields != nil {
					res.Errors = fields
				}
				err = ctx.JSON(code, res)
			}
			if err != nil {
				ctx.Echo().Logger.Error(err)
			}
		}
	}
}

func toString(msg interface{}) string {
	if s, ok := msg.(string); ok {
		return s
	}
	if e, ok := msg.(error); ok {
		return e.Error()
	}
	return http.StatusText(http.StatusInternalServerError)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
