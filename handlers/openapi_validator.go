package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers/gorillamux"
	"github.com/labstack/echo/v4"
)

// OpenAPIValidator returns a middleware that validates requests against the given OpenAPI 3 document.
// Requests for paths the document doesn't describe pass through untouched. A violation is returned as an
// echo.HTTPError wrapping the *openapi3filter.RequestError, which the error handler maps to bad_parameter.
func OpenAPIValidator(spec []byte) (echo.MiddlewareFunc, error) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(spec)
	if err != nil {
		return nil, fmt.Errorf("can't load openapi document: %w", err)
	}
	if err := doc.Validate(loader.Context); err != nil {
		return nil, fmt.Errorf("invalid openapi document: %w", err)
	}
	// match on path only, whatever host the server is reached by
	doc.Servers = nil

	router, err := gorillamux.NewRouter(doc)
	if err != nil {
		return nil, fmt.Errorf("can't build openapi router: %w", err)
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			route, pathParams, err := router.FindRoute(req)
			if err != nil {
				return next(c)
			}

			input := &openapi3filter.RequestValidationInput{
				Request:    req,
				PathParams: pathParams,
				Route:      route,
			}
			if err := openapi3filter.ValidateRequest(req.Context(), input); err != nil {
				he := echo.NewHTTPError(http.StatusBadRequest, validationMessage(err))
				he.Internal = err
				return he
			}
			return next(c)
		}
	}, nil
}

// validationMessage keeps the reason of a validation error and drops the schema dump.
func validationMessage(err error) string {
	var schemaErr *openapi3.SchemaError
	if errors.As(err, &schemaErr) {
		if pointer := schemaErr.JSONPointer(); len(pointer) > 0 {
			return fmt.Sprintf("%s: %s", strings.Join(pointer, "."), schemaErr.Reason)
		}
		return schemaErr.Reason
	}
	var reqErr *openapi3filter.RequestError
	if errors.As(err, &reqErr) {
		if reqErr.Err != nil {
			return reqErr.Err.Error()
		}
		if reqErr.Reason != "" {
			return reqErr.Reason
		}
	}
	return "invalid request"
}
