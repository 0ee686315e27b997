package adapters

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"fabric/domain"
	"fabric/helpers"
	"fabric/service"
)

// RegistryHTTP creates an interfaces.Registry that talks to the registry service over HTTP:
// POST /register, DELETE /deregister and GET /service/{serviceName}. Panics on empty baseURL or nil client.
//
// Called from cmd/gateway when REGISTRY_URL is set.
func RegistryHTTP(baseURL string, client *http.Client) *registryHTTP {
	return &registryHTTP{
		baseURL: strings.TrimRight(helpers.StrPanic(baseURL, "adapters.registry_http.go: baseURL is required"), "/"),
		client:  helpers.NilPanic(client, "adapters.registry_http.go: http client is required"),
	}
}

type registryHTTP struct {
	baseURL string
	client  *http.Client
}

type instanceInfo struct {
	InstanceID string `json:"instanceId"`
	Address    string `json:"address"`
}

type registrationRequest struct {
	ServiceName string `json:"serviceName"`
	Address     string `json:"address"`
}

type registerResponse struct {
	InstanceID string `json:"instanceId"`
}

type deregisterResponse struct {
	Removed bool `json:"removed"`
}

// Resolve performs GET baseURL/service/{serviceName}. 404 means the service has no instances.
func (r *registryHTTP) Resolve(ctx context.Context, serviceName string) ([]domain.ServiceInstance, error) {
	reqURL := r.baseURL + "/service/" + url.PathEscape(serviceName)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, service.NewInternalServerError("registry request error", err)
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return nil, service.NewInternalServerError("registry unavailable", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, service.NewEntityNotFoundError("Service not found", nil)
	}
	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, service.NewInternalServerError("registry error", fmt.Errorf("registry returned %d", resp.StatusCode))
	}

	var raw []instanceInfo
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, service.NewInternalServerError("registry response error", err)
	}
	if len(raw) == 0 {
		return nil, service.NewEntityNotFoundError("Service not found", nil)
	}
	out := make([]domain.ServiceInstance, 0, len(raw))
	for _, i := range raw {
		out = append(out, domain.ServiceInstance{ServiceName: serviceName, InstanceID: i.InstanceID, Address: i.Address})
	}
	return out, nil
}

// Register performs POST baseURL/register and returns the new instance id.
func (r *registryHTTP) Register(ctx context.Context, serviceName, address string) (string, error) {
	var out registerResponse
	if err := r.send(ctx, http.MethodPost, "/register", registrationRequest{ServiceName: serviceName, Address: address}, &out); err != nil {
		return "", err
	}
	return out.InstanceID, nil
}

// Deregister performs DELETE baseURL/deregister.
func (r *registryHTTP) Deregister(ctx context.Context, serviceName, address string) (bool, error) {
	var out deregisterResponse
	if err := r.send(ctx, http.MethodDelete, "/deregister", registrationRequest{ServiceName: serviceName, Address: address}, &out); err != nil {
		return false, err
	}
	return out.Removed, nil
}

func (r *registryHTTP) send(ctx context.Context, method, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return service.NewInternalServerError("registry request error", err)
	}
	req, err := http.NewRequestWithContext(ctx, method, r.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return service.NewInternalServerError("registry request error", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := r.client.Do(req)
	if err != nil {
		return service.NewInternalServerError("registry unavailable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusBadRequest {
		var errResp service.ErrResponse
		_ = json.NewDecoder(resp.Body).Decode(&errResp)
		msg := "registry rejected request"
		if errResp.Error != nil {
			msg = errResp.Error.Message
		}
		return service.NewBadParameterError(msg, nil)
	}
	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return service.NewInternalServerError("registry error", fmt.Errorf("registry %s %s returned %d", method, path, resp.StatusCode))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return service.NewInternalServerError("registry response error", err)
	}
	return nil
}
