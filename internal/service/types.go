package service

import (
	"encoding/json"
	"maps"

	"github.com/stacklok/toolhive-plugin-marketplace/internal/manifest"
	"github.com/stacklok/toolhive-plugin-marketplace/internal/plugin"
)

const (
	// DefaultVersion is reported for plugins whose manifest has no version
	DefaultVersion = "1.0.0"
	// DefaultAuthor is reported when neither the plugin nor the marketplace names an author
	DefaultAuthor = "Unknown"
	// DefaultDescription is stored for added plugins that describe themselves nowhere
	DefaultDescription = "No description"
)

// EnrichedEntry is a manifest entry together with data read from the plugin checkout
type EnrichedEntry struct {
	manifest.Entry

	Version  string
	Author   string
	Commands []plugin.CommandDescriptor
	Skills   []plugin.SkillDescriptor
	// GitURL is the resolved remote of the checkout; empty when unknown
	GitURL string
}

// MarshalJSON flattens the entry and the enriched fields into one object.
// Enriched fields take precedence over same-named fields of the entry.
func (e EnrichedEntry) MarshalJSON() ([]byte, error) {
	extra := make(map[string]json.RawMessage, len(e.Entry.Extra)+5)
	maps.Copy(extra, e.Entry.Extra)

	fields := map[string]any{
		"version":  e.Version,
		"author":   e.Author,
		"commands": nonNil(e.Commands),
		"skills":   nonNil(e.Skills),
	}
	if e.GitURL != "" {
		fields["gitUrl"] = e.GitURL
	} else {
		delete(extra, "gitUrl")
	}
	for key, value := range fields {
		encoded, err := json.Marshal(value)
		if err != nil {
			return nil, err
		}
		extra[key] = encoded
	}

	entry := e.Entry
	entry.Extra = extra
	return json.Marshal(entry)
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// AddPluginRequest describes a plugin to add from a git repository
type AddPluginRequest struct {
	GitURL      string `json:"gitUrl"`
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
}

// UpdateResult reports the outcome of pulling a plugin checkout
type UpdateResult struct {
	Name            string `json:"name"`
	Version         string `json:"version"`
	PreviousVersion string `json:"previousVersion"`
	// Updated is true when the pull changed the plugin's version
	Updated bool `json:"updated"`
	// Upgraded is true when the new version is greater than the previous one
	Upgraded bool `json:"upgraded"`
}
