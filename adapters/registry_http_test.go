package adapters

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"fabric/domain"
	"fabric/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryHTTP_Panics(t *testing.T) {
	t.Run("baseURL_empty", func(t *testing.T) {
		assert.PanicsWithValue(t, "adapters.registry_http.go: baseURL is required", func() {
			RegistryHTTP("", &http.Client{})
		})
	})
	t.Run("client_nil", func(t *testing.T) {
		assert.PanicsWithValue(t, "adapters.registry_http.go: http client is required", func() {
			RegistryHTTP("http://localhost:8500", nil)
		})
	})
}

func TestRegistryHTTP_Resolve(t *testing.T) {
	tests := []struct {
		name          string
		statusCode    int
		body          string
		wantInstances []domain.ServiceInstance
		wantErr       func(error) bool
	}{
		{
			name:       "success",
			statusCode: http.StatusOK,
			body:       `[{"instanceId":"i1","address":"10.0.0.1:3000"},{"instanceId":"i2","address":"10.0.0.2:3000"}]`,
			wantInstances: []domain.ServiceInstance{
				{ServiceName: "orders", InstanceID: "i1", Address: "10.0.0.1:3000"},
				{ServiceName: "orders", InstanceID: "i2", Address: "10.0.0.2:3000"},
			},
		},
		{
			name:       "404_is_entity_not_found",
			statusCode: http.StatusNotFound,
			body:       `{"error":{"code":"entity_not_found","message":"Service not found"}}`,
			wantErr:    service.IsEntityNotFoundError,
		},
		{
			name:       "empty_list_is_entity_not_found",
			statusCode: http.StatusOK,
			body:       `[]`,
			wantErr:    service.IsEntityNotFoundError,
		},
		{
			name:       "500_is_internal",
			statusCode: http.StatusInternalServerError,
			body:       `{}`,
			wantErr:    service.IsInternalServerError,
		},
		{
			name:       "invalid_json_is_internal",
			statusCode: http.StatusOK,
			body:       `not json`,
			wantErr:    service.IsInternalServerError,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodGet, r.Method)
				assert.Equal(t, "/service/orders", r.URL.Path)
				w.WriteHeader(tt.statusCode)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			got, err := RegistryHTTP(srv.URL+"/", srv.Client()).Resolve(context.Background(), "orders")
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.True(t, tt.wantErr(err), err.Error())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantInstances, got)
		})
	}
}

func TestRegistryHTTP_Resolve_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	_, err := RegistryHTTP(srv.URL, &http.Client{}).Resolve(context.Background(), "orders")
	assert.True(t, service.IsInternalServerError(err))
}

func TestRegistryHTTP_RegisterAndDeregister(t *testing.T) {
	var got []registrationRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req registrationRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		got = append(got, req)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/register":
			_, _ = w.Write([]byte(`{"instanceId":"10.0.0.1:3000-abc","message":"Service registered successfully"}`))
		case r.Method == http.MethodDelete && r.URL.Path == "/deregister":
			_, _ = w.Write([]byte(`{"message":"Service deregistered successfully","removed":true}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()
	reg := RegistryHTTP(srv.URL, srv.Client())

	id, err := reg.Register(context.Background(), "orders", "10.0.0.1:3000")
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.1:3000-abc", id)

	removed, err := reg.Deregister(context.Background(), "orders", "10.0.0.1:3000")
	require.NoError(t, err)
	assert.True(t, removed)

	want := registrationRequest{ServiceName: "orders", Address: "10.0.0.1:3000"}
	assert.Equal(t, []registrationRequest{want, want}, got)
}

func TestRegistryHTTP_RegisterRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"code":"bad_parameter","message":"address is required"}}`))
	}))
	defer srv.Close()

	_, err := RegistryHTTP(srv.URL, srv.Client()).Register(context.Background(), "orders", "")
	require.Error(t, err)
	assert.True(t, service.IsBadParameterError(err))
	assert.Equal(t, "address is required", service.ToFabricError(err).Message)
}
