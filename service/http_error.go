package service

import (
	"errors"
	"net/http"

	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/labstack/echo/v4"
)

// RegisterErrorHandler register custom error handler.
func RegisterErrorHandler(e *echo.Echo, logger log.Logger) {
	e.HTTPErrorHandler = NewHTTPErrorHandler(NewErrorCodeToStatusCodeMaps(), logger).Handler
}

// NewErrorCodeToStatusCodeMaps creates an error code to http status mapping.
func NewErrorCodeToStatusCodeMaps() map[string]int {
	return map[string]int{
		ErrBadParameter:        http.StatusBadRequest,
		ErrEntityNotFound:      http.StatusNotFound,
		ErrServiceNotFound:     http.StatusNotFound,
		ErrTooManyRequests:     http.StatusTooManyRequests,
		ErrInternalServerError: http.StatusInternalServerError,
		ErrSagaFailed:          http.StatusInternalServerError,
		ErrServiceUnavailable:  http.StatusServiceUnavailable,
		ErrTooBusy:             http.StatusServiceUnavailable,
	}
}

// echoStatusToErrorCode classifies errors raised by echo itself (unknown route, bad bind, validator).
func echoStatusToErrorCode(status int) string {
	switch status {
	case http.StatusBadRequest, http.StatusUnsupportedMediaType, http.StatusMethodNotAllowed:
		return ErrBadParameter
	case http.StatusNotFound:
		return ErrEntityNotFound
	case http.StatusTooManyRequests:
		return ErrTooManyRequests
	default:
		return ErrInternalServerError
	}
}

// HTTPErrorHandler is an error handler.
type HTTPErrorHandler struct {
	errorCodeToHTTPStatusCodeMap map[string]int
	logger                       log.Logger
}

// NewHTTPErrorHandler creates a new instance of the HTTPErrorHandler.
func NewHTTPErrorHandler(errorCodeToStatusCodeMaps map[string]int, logger log.Logger) *HTTPErrorHandler {
	return &HTTPErrorHandler{
		errorCodeToHTTPStatusCodeMap: errorCodeToStatusCodeMaps,
		logger:                       logger,
	}
}

func (h *HTTPErrorHandler) getStatusCode(errorCode string) int {
	status, ok := h.errorCodeToHTTPStatusCodeMap[errorCode]
	if ok {
		return status
	}

	return http.StatusInternalServerError
}

// Handler handles error returned by echo Handlers.
func (h *HTTPErrorHandler) Handler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	fabricErr := ToFabricError(err)
	if fabricErr == nil {
		fabricErr = NewFabricError(ErrInternalServerError, "an internal server error has occurred", err)
	}

	var statusCode int
	var he *echo.HTTPError
	if errors.As(err, &he) && ToFabricError(err) == nil {
		code := echoStatusToErrorCode(he.Code)
		if he.Internal != nil {
			if herr, ok := he.Internal.(*echo.HTTPError); ok {
				he = herr
			}
			var requestError *openapi3filter.RequestError
			if errors.As(he.Internal, &requestError) {
				code = ErrBadParameter
			}
		}

		m, _ := he.Message.(string)
		fabricErr = NewFabricError(code, m, err)
		statusCode = he.Code
	} else {
		statusCode = h.getStatusCode(fabricErr.Code)
	}

	logLevel := level.Error
	if statusCode < http.StatusInternalServerError {
		logLevel = level.Warn
	}
	logLevel(h.logger).Log(
		"msg", "HTTP request error",
		"method", c.Request().Method,
		"path", c.Request().URL.Path,
		"status", statusCode,
		"err", err,
	)

	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(statusCode)
		return
	}
	_ = c.JSON(statusCode, ErrResponse{Error: fabricErr})
}

// ErrResponse from server.
type ErrResponse struct {
	Error *FabricError `json:"error,omitempty"`
}
