package manifest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"
	"slices"
)

const (
	// SourceTypeURL marks an entry whose source is a remote git URL
	SourceTypeURL = "url"

	// PluginsDirName is the directory, relative to the marketplace root, holding plugin checkouts
	PluginsDirName = "plugins"
)

// Manifest is the marketplace manifest stored at .claude-plugin/marketplace.json.
// Fields the server does not interpret are kept in Extra and written back on save.
type Manifest struct {
	Name    string  `json:"name,omitempty"`
	Owner   *Owner  `json:"owner,omitempty"`
	Plugins []Entry `json:"plugins"`

	Extra map[string]json.RawMessage `json:"-"`
}

// Owner describes who publishes the marketplace
type Owner struct {
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	URL   string `json:"url,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

// Entry is a single plugin listed in the manifest. Name is the unique key.
type Entry struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Source      Source `json:"source,omitzero"`

	Extra map[string]json.RawMessage `json:"-"`
}

// Source is either a relative local path (the plain string form) or a
// structured reference such as {"source": "url", "url": "..."}.
type Source struct {
	// Path is set for the plain string form, e.g. "./plugins/my-plugin"
	Path string

	// Type is the "source" discriminator of the structured form; empty for local paths
	Type string
	URL  string
	Repo string

	Extra map[string]json.RawMessage

	// Raw holds a source in neither recognized form; it is written back verbatim
	Raw json.RawMessage
}

// LocalSource returns the source written for plugins checked out under plugins/<name>
func LocalSource(name string) Source {
	return Source{Path: "./" + PluginsDirName + "/" + name}
}

// URLSource returns a structured source pointing at a remote git URL
func URLSource(url string) Source {
	return Source{Type: SourceTypeURL, URL: url}
}

// IsLocal reports whether the source is a plain relative path
func (s Source) IsLocal() bool {
	return s.Type == "" && s.Raw == nil
}

// IsZero reports whether the entry carried no source at all
func (s Source) IsZero() bool {
	return s.Path == "" && s.Type == "" && s.Raw == nil
}

type structuredSource struct {
	Source string `json:"source"`
	URL    string `json:"url,omitempty"`
	Repo   string `json:"repo,omitempty"`
}

var structuredSourceKeys = []string{"source", "url", "repo"}

// MarshalJSON writes the plain string form for local sources and an object otherwise
func (s Source) MarshalJSON() ([]byte, error) {
	if s.Raw != nil {
		return s.Raw, nil
	}
	if s.IsLocal() {
		return json.Marshal(s.Path)
	}
	return marshalWithExtra(structuredSource{Source: s.Type, URL: s.URL, Repo: s.Repo}, s.Extra)
}

// UnmarshalJSON accepts both the string and the object form. Anything else,
// including an object without a "source" discriminator, is kept in Raw.
func (s *Source) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	*s = Source{}
	if len(data) > 0 && data[0] == '"' {
		return json.Unmarshal(data, &s.Path)
	}

	var raw structuredSource
	extra, err := unmarshalWithExtra(data, &raw, structuredSourceKeys)
	if err != nil || raw.Source == "" {
		s.Raw = slices.Clone(json.RawMessage(data))
		return nil
	}
	*s = Source{Type: raw.Source, URL: raw.URL, Repo: raw.Repo, Extra: extra}
	return nil
}

type manifestAlias Manifest

var manifestKeys = []string{"name", "owner", "plugins"}

// MarshalJSON writes known fields first followed by preserved extra fields in key order
func (m Manifest) MarshalJSON() ([]byte, error) {
	alias := manifestAlias(m)
	if alias.Plugins == nil {
		alias.Plugins = []Entry{}
	}
	return marshalWithExtra(alias, m.Extra)
}

// UnmarshalJSON decodes the manifest keeping unknown fields in Extra
func (m *Manifest) UnmarshalJSON(data []byte) error {
	var alias manifestAlias
	extra, err := unmarshalWithExtra(data, &alias, manifestKeys)
	if err != nil {
		return err
	}
	alias.Extra = extra
	*m = Manifest(alias)
	return nil
}

type ownerAlias Owner

var ownerKeys = []string{"name", "email", "url"}

// MarshalJSON writes known fields first followed by preserved extra fields in key order
func (o Owner) MarshalJSON() ([]byte, error) {
	return marshalWithExtra(ownerAlias(o), o.Extra)
}

// UnmarshalJSON decodes the owner keeping unknown fields in Extra
func (o *Owner) UnmarshalJSON(data []byte) error {
	var alias ownerAlias
	extra, err := unmarshalWithExtra(data, &alias, ownerKeys)
	if err != nil {
		return err
	}
	alias.Extra = extra
	*o = Owner(alias)
	return nil
}

type entryAlias Entry

var entryKeys = []string{"name", "description", "source"}

// MarshalJSON writes known fields first followed by preserved extra fields in key order
func (e Entry) MarshalJSON() ([]byte, error) {
	return marshalWithExtra(entryAlias(e), e.Extra)
}

// UnmarshalJSON decodes the entry keeping unknown fields in Extra
func (e *Entry) UnmarshalJSON(data []byte) error {
	var alias entryAlias
	extra, err := unmarshalWithExtra(data, &alias, entryKeys)
	if err != nil {
		return err
	}
	alias.Extra = extra
	*e = Entry(alias)
	return nil
}

// OwnerName returns the owner's name or an empty string when the manifest has no owner
func (m *Manifest) OwnerName() string {
	if m == nil || m.Owner == nil {
		return ""
	}
	return m.Owner.Name
}

// Find returns the index of the entry with the given name, or -1
func (m *Manifest) Find(name string) int {
	return slices.IndexFunc(m.Plugins, func(e Entry) bool { return e.Name == name })
}

// Has reports whether an entry with the given name exists
func (m *Manifest) Has(name string) bool {
	return m.Find(name) >= 0
}

// Append adds an entry at the end of the plugin list. Names must stay unique.
func (m *Manifest) Append(entry Entry) error {
	if m.Has(entry.Name) {
		return fmt.Errorf("plugin '%s' is already listed in the manifest", entry.Name)
	}
	m.Plugins = append(m.Plugins, entry)
	return nil
}

// Remove drops every entry with the given name, keeping the relative order of
// the remaining entries. It reports whether anything was removed.
func (m *Manifest) Remove(name string) bool {
	before := len(m.Plugins)
	m.Plugins = slices.DeleteFunc(m.Plugins, func(e Entry) bool { return e.Name == name })
	return len(m.Plugins) != before
}

// Clone returns a copy whose plugin list can be modified without affecting m.
// Extra fields are shared and must be treated as read-only.
func (m *Manifest) Clone() *Manifest {
	out := *m
	if m.Owner != nil {
		owner := *m.Owner
		out.Owner = &owner
	}
	out.Plugins = slices.Clone(m.Plugins)
	return &out
}

// Validate checks invariants the JSON schema cannot express
func (m *Manifest) Validate() error {
	seen := make(map[string]bool, len(m.Plugins))
	for i, entry := range m.Plugins {
		if entry.Name == "" {
			return fmt.Errorf("plugins[%d]: name is required", i)
		}
		if seen[entry.Name] {
			return fmt.Errorf("plugins[%d]: duplicate plugin name '%s'", i, entry.Name)
		}
		seen[entry.Name] = true
	}
	return nil
}

// marshalWithExtra encodes v (which must encode to a JSON object) and appends
// the extra fields after the known ones, sorted by key.
func marshalWithExtra(v any, extra map[string]json.RawMessage) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil || len(extra) == 0 {
		return data, err
	}

	var buf bytes.Buffer
	buf.Write(data[:len(data)-1])
	needComma := len(data) > 2
	for _, key := range slices.Sorted(maps.Keys(extra)) {
		encodedKey, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		if needComma {
			buf.WriteByte(',')
		}
		buf.Write(encodedKey)
		buf.WriteByte(':')
		buf.Write(extra[key])
		needComma = true
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// unmarshalWithExtra decodes data into v and returns every top-level field not in known
func unmarshalWithExtra(data []byte, v any, known []string) (map[string]json.RawMessage, error) {
	if err := json.Unmarshal(data, v); err != nil {
		return nil, err
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, err
	}
	for _, key := range known {
		delete(fields, key)
	}
	if len(fields) == 0 {
		return nil, nil
	}
	return fields, nil
}
