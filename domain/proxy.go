package domain

import (
	"io"
	"net/http"
)

// ProxyRequest is an inbound request addressed to /{ServiceName}/{Path}.
// Path is the remainder after the service name and always starts with "/".
type ProxyRequest struct {
	Method      string
	ServiceName string
	Path        string
	RawQuery    string
	Header      http.Header
	Body        io.Reader
}

// ProxyResponse is the upstream response relayed back to the caller.
type ProxyResponse struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// MethodCarriesBody reports whether a request body is forwarded for method.
func MethodCarriesBody(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodDelete, http.MethodOptions:
		return false
	default:
		return true
	}
}
