package supplement

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtract(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantErr     string
		wantHas     bool
		wantFilters int
	}{
		{
			name:   "positive_verdict",
			status: http.StatusOK,
			body: `{
				"has_additional_filters": true,
				"additional_filters": [
					{"column": "Employee Count", "operator": "CONTAINS", "values": ["50"]}
				]
			}`,
			wantHas:     true,
			wantFilters: 1,
		},
		{
			name:    "negative_verdict",
			status:  http.StatusOK,
			body:    `{"has_additional_filters": false, "additional_filters": []}`,
			wantHas: false,
		},
		{
			name:    "server_error",
			status:  http.StatusInternalServerError,
			body:    `{"error": "internal"}`,
			wantErr: "status 500",
		},
		{
			name:    "unauthorized",
			status:  http.StatusUnauthorized,
			body:    `{"error": "bad token"}`,
			wantErr: "status 401",
		},
		{
			name:    "malformed_response",
			status:  http.StatusOK,
			body:    `{invalid json`,
			wantErr: "decode response",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodPost, r.Method)
				assert.Equal(t, "/extract", r.URL.Path)
				assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
				assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

				var req struct {
					Query string `json:"query"`
				}
				require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
				assert.Equal(t, "CTOs at companies with 50+ employees", req.Query)

				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			client := NewClient(srv.URL, WithAPIKey("test-key"))
			result, err := client.Extract(context.Background(), "CTOs at companies with 50+ employees")

			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantHas, result.HasAdditionalFilters)
			assert.Len(t, result.AdditionalFilters, tt.wantFilters)
		})
	}
}

func TestExtract_NoAPIKey_OmitsAuthHeader(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"has_additional_filters": false}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	_, err := client.Extract(context.Background(), "anything")

	require.NoError(t, err)
}

func TestExtract_ContextCanceled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := NewClient(srv.URL)
	_, err := client.Extract(ctx, "anything")

	require.Error(t, err)
}
