// Package plugin reads plugin checkouts from the marketplace's plugins directory:
// the plugin's own manifest, its command definitions and its skills.
package plugin

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

const (
	// DetailsDir holds the plugin's own manifest inside a plugin checkout
	DetailsDir = ".claude-plugin"
	// DetailsFile is the plugin's own manifest file name
	DetailsFile = "plugin.json"
	// CommandsDir holds one definition file per command
	CommandsDir = "commands"
	// SkillsDir holds one subdirectory per skill
	SkillsDir = "skills"
	// SkillFile is the definition file inside a skill subdirectory
	SkillFile = "SKILL.md"

	commandExt = ".md"
)

// CommandDescriptor describes a command shipped by a plugin
type CommandDescriptor struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// SkillDescriptor describes a skill shipped by a plugin
type SkillDescriptor struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Reader reads plugin checkouts below a plugins directory
type Reader struct {
	pluginsDir string
}

// NewReader creates a Reader for the given plugins directory
func NewReader(pluginsDir string) *Reader {
	return &Reader{pluginsDir: pluginsDir}
}

// PluginsDir returns the directory holding all plugin checkouts
func (r *Reader) PluginsDir() string {
	return r.pluginsDir
}

// Dir returns the checkout directory of the named plugin
func (r *Reader) Dir(name string) string {
	return filepath.Join(r.pluginsDir, name)
}

// Exists reports whether the named plugin has a checkout directory
func (r *Reader) Exists(name string) (bool, error) {
	info, err := os.Stat(r.Dir(name))
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to stat plugin directory: %w", err)
	}
	return info.IsDir(), nil
}

// ReadDetails reads the plugin's own manifest. It returns nil, nil when the
// plugin has no manifest file.
func (r *Reader) ReadDetails(name string) (*Details, error) {
	path := filepath.Join(r.Dir(name), DetailsDir, DetailsFile)
	//nolint:gosec // Plugin names are validated before reaching the reader
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read plugin manifest for '%s': %w", name, err)
	}

	details, err := ParseDetails(data)
	if err != nil {
		return nil, fmt.Errorf("plugin '%s': %w", name, err)
	}
	return details, nil
}

// ReadCommands lists the plugin's commands, one per markdown file in the
// commands directory. A missing directory yields an empty list.
func (r *Reader) ReadCommands(name string) ([]CommandDescriptor, error) {
	dir := filepath.Join(r.Dir(name), CommandsDir)
	entries, err := readDir(dir)
	if err != nil {
		return nil, err
	}

	commands := []CommandDescriptor{}
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), commandExt) {
			continue
		}
		commands = append(commands, CommandDescriptor{
			Name:        strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name())),
			Description: readDescription(filepath.Join(dir, entry.Name())),
		})
	}
	return commands, nil
}

// ReadSkills lists the plugin's skills, one per subdirectory of the skills
// directory. A missing directory yields an empty list.
func (r *Reader) ReadSkills(name string) ([]SkillDescriptor, error) {
	dir := filepath.Join(r.Dir(name), SkillsDir)
	entries, err := readDir(dir)
	if err != nil {
		return nil, err
	}

	skills := []SkillDescriptor{}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		skills = append(skills, SkillDescriptor{
			Name:        entry.Name(),
			Description: readDescription(filepath.Join(dir, entry.Name(), SkillFile)),
		})
	}
	return skills, nil
}

func readDir(dir string) ([]os.DirEntry, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}
	return entries, nil
}

// readDescription never fails: unreadable files have no description
func readDescription(path string) string {
	//nolint:gosec // Paths are built from directory listings below the plugins directory
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			slog.Debug("Failed to read definition file", "path", path, "error", err)
		}
		return ""
	}
	return Description(string(data))
}
