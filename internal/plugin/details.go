package plugin

import (
	"encoding/json"
	"fmt"

	"github.com/tailscale/hujson"
	"github.com/tidwall/gjson"
)

// Details is a plugin's own manifest (.claude-plugin/plugin.json). The
// document belongs to the plugin's source tree, so it is kept as opaque JSON
// and served verbatim; accessors read the few fields the marketplace uses.
type Details struct {
	raw json.RawMessage
}

// ParseDetails validates plugin.json content, tolerating comments and trailing commas
func ParseDetails(data []byte) (*Details, error) {
	standard, err := hujson.Standardize(data)
	if err != nil {
		return nil, fmt.Errorf("invalid plugin manifest JSON: %w", err)
	}
	if !gjson.ParseBytes(standard).IsObject() {
		return nil, fmt.Errorf("plugin manifest must be a JSON object")
	}
	return &Details{raw: standard}, nil
}

// Raw returns the standardized JSON document
func (d *Details) Raw() json.RawMessage {
	return d.raw
}

// MarshalJSON returns the document unchanged
func (d *Details) MarshalJSON() ([]byte, error) {
	return d.raw, nil
}

// Name returns the name declared by the plugin
func (d *Details) Name() string {
	return d.stringField("name")
}

// Version returns the version declared by the plugin
func (d *Details) Version() string {
	return d.stringField("version")
}

// Description returns the description declared by the plugin
func (d *Details) Description() string {
	return d.stringField("description")
}

// AuthorName returns author.name, or author itself when it is a plain string
func (d *Details) AuthorName() string {
	if d == nil {
		return ""
	}
	author := gjson.GetBytes(d.raw, "author")
	switch {
	case author.Type == gjson.String:
		return author.String()
	case author.IsObject():
		if name := author.Get("name"); name.Type == gjson.String {
			return name.String()
		}
	}
	return ""
}

func (d *Details) stringField(path string) string {
	if d == nil {
		return ""
	}
	if value := gjson.GetBytes(d.raw, path); value.Type == gjson.String {
		return value.String()
	}
	return ""
}
