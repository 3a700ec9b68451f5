// Package validators provides validation functions for marketplace entities.
package validators

import (
	"fmt"
	"regexp"
	"strings"
)

const maxPluginNameLength = 200

// Name pattern: must start and end with alphanumeric, can contain dots, underscores, and hyphens in the middle
var pluginNamePattern = regexp.MustCompile(`^[a-zA-Z0-9]([a-zA-Z0-9._-]*[a-zA-Z0-9])?$`)

// ValidatePluginName validates the name of a plugin being added and returns
// it trimmed. On top of ValidatePluginDirName it requires the name to start
// and end with an alphanumeric character.
//
// Examples of valid names:
//   - formatter
//   - code-review
//   - my_plugin.v2
//
// Examples of invalid names:
//   - ../etc (path traversal)
//   - team/plugin (multiple elements)
//   - .hidden (leading dot)
//   - plugin- (ends with dash)
func ValidatePluginName(name string) (string, error) {
	name, err := ValidatePluginDirName(strings.TrimSpace(name))
	if err != nil {
		return "", err
	}
	if !pluginNamePattern.MatchString(name) {
		return "", fmt.Errorf(
			"plugin name '%s' is invalid. Name must start and end with alphanumeric characters, "+
				"and may contain dots, underscores, and hyphens in the middle",
			name,
		)
	}

	return name, nil
}

// ValidatePluginDirName checks that a plugin name can be used as the
// directory under plugins/: a single path element that cannot escape that
// directory or collide with hidden entries such as .git or staging
// directories. Names already listed in a manifest only have to pass this check.
func ValidatePluginDirName(name string) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "", fmt.Errorf("plugin name cannot be empty")
	}
	if strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("plugin name '%s' must not contain path separators", name)
	}
	if strings.ContainsRune(name, 0) {
		return "", fmt.Errorf("plugin name must not contain NUL characters")
	}
	if strings.HasPrefix(name, ".") {
		return "", fmt.Errorf("plugin name '%s' is invalid: it must not start with a dot", name)
	}
	if len(name) > maxPluginNameLength {
		return "", fmt.Errorf("plugin name exceeds maximum length of %d characters", maxPluginNameLength)
	}

	return name, nil
}

// IsValidPluginName checks if a plugin name is valid.
func IsValidPluginName(name string) bool {
	_, err := ValidatePluginName(name)
	return err == nil
}

// IsValidPluginDirName checks if a plugin name is usable as a plugin directory.
func IsValidPluginDirName(name string) bool {
	_, err := ValidatePluginDirName(name)
	return err == nil
}
