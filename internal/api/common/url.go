package common

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/stacklok/toolhive-plugin-marketplace/internal/service"
	"github.com/stacklok/toolhive-plugin-marketplace/internal/validators"
)

// PluginNameParam extracts and decodes a plugin name path parameter. The
// returned error wraps service.ErrInvalidName when the value is not a single
// safe path element.
func PluginNameParam(r *http.Request, paramName string) (string, error) {
	decoded, err := url.PathUnescape(chi.URLParam(r, paramName))
	if err != nil {
		return "", fmt.Errorf("%w: invalid URL encoding in %s", service.ErrInvalidName, paramName)
	}

	name, err := validators.ValidatePluginDirName(decoded)
	if err != nil {
		return "", fmt.Errorf("%w: %w", service.ErrInvalidName, err)
	}
	return name, nil
}
