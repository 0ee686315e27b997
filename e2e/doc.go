// Package e2e runs the registry and the gateway in process against miniredis and httptest downstream
// services, and drives them through their public HTTP APIs.
package e2e
