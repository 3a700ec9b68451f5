package common

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stacklok/toolhive-plugin-marketplace/internal/service"
)

func TestWriteErrorResponse(t *testing.T) {
	t.Parallel()

	rr := httptest.NewRecorder()
	WriteErrorResponse(rr, "plugin not found", http.StatusNotFound)

	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"error": "plugin not found"}`, rr.Body.String())
}

func TestErrorStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		want int
	}{
		{err: fmt.Errorf("%w: x", service.ErrNotFound), want: http.StatusNotFound},
		{err: fmt.Errorf("%w: x", service.ErrAlreadyExists), want: http.StatusConflict},
		{err: service.ErrMissingURL, want: http.StatusBadRequest},
		{err: service.ErrNameUnresolvable, want: http.StatusBadRequest},
		{err: fmt.Errorf("%w: bad", service.ErrInvalidName), want: http.StatusBadRequest},
		{err: service.ErrNotAClone, want: http.StatusBadRequest},
		{err: fmt.Errorf("%w: timeout", service.ErrCloneFailed), want: http.StatusInternalServerError},
		{err: service.ErrPullFailed, want: http.StatusInternalServerError},
		{err: service.ErrManifestUnreadable, want: http.StatusInternalServerError},
		{err: errors.New("boom"), want: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, ErrorStatus(tt.err))
		})
	}
}

func TestWriteServiceError(t *testing.T) {
	t.Parallel()

	err := fmt.Errorf("%w: sample", service.ErrAlreadyExists)
	rr := httptest.NewRecorder()
	WriteServiceError(rr, httptest.NewRequest(http.MethodPost, "/api/plugins", nil), err)

	assert.Equal(t, http.StatusConflict, rr.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, err.Error(), body["error"])
}

func TestPluginNameParam(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		path    string
		want    string
		wantErr bool
	}{
		{name: "plain", path: "/plugins/formatter", want: "formatter"},
		{name: "dotted", path: "/plugins/my.plugin-v2", want: "my.plugin-v2"},
		{name: "listed name ending in underscore", path: "/plugins/my_plugin_", want: "my_plugin_"},
		{name: "encoded slash", path: "/plugins/a%2Fb", wantErr: true},
		{name: "encoded traversal", path: "/plugins/..%2F..%2Fetc", wantErr: true},
		{name: "dot dot", path: "/plugins/..", wantErr: true},
		{name: "hidden", path: "/plugins/.git", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var got string
			var gotErr error
			r := chi.NewRouter()
			r.Get("/plugins/{name}", func(_ http.ResponseWriter, req *http.Request) {
				got, gotErr = PluginNameParam(req, "name")
			})
			r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, tt.path, nil))

			if tt.wantErr {
				assert.ErrorIs(t, gotErr, service.ErrInvalidName)
				return
			}
			require.NoError(t, gotErr)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWantsStructuredData(t *testing.T) {
	t.Parallel()

	tests := []struct {
		accept string
		want   bool
	}{
		{accept: "", want: true},
		{accept: "*/*", want: true},
		{accept: "application/json", want: true},
		{accept: "application/vnd.api+json", want: true},
		{accept: "text/html", want: false},
		{accept: "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8", want: false},
		{accept: "text/html, application/json", want: true},
		{accept: "text/plain", want: true},
		{accept: "garbage;;", want: true},
	}

	for _, tt := range tests {
		t.Run(tt.accept, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, WantsStructuredData(tt.accept))
		})
	}
}
