// Package api embeds the OpenAPI documents served and enforced by the HTTP handlers.
package api

import _ "embed"

// RegistrySpec is the OpenAPI 3 document of the registry HTTP API.
//
//go:embed registry.openapi.yaml
var RegistrySpec []byte
