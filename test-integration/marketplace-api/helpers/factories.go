package helpers

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/onsi/gomega"
)

// PluginFixture describes the content of a plugin repository
type PluginFixture struct {
	Name        string
	Version     string
	Description string
	Author      string
	// Commands maps command names to their description
	Commands map[string]string
	// Skills maps skill names to their description
	Skills map[string]string
}

// Files renders the fixture as repository-relative paths and contents
func (p PluginFixture) Files() map[string]string {
	pluginJSON := map[string]any{"name": p.Name}
	if p.Version != "" {
		pluginJSON["version"] = p.Version
	}
	if p.Description != "" {
		pluginJSON["description"] = p.Description
	}
	if p.Author != "" {
		pluginJSON["author"] = map[string]string{"name": p.Author}
	}
	data, err := json.MarshalIndent(pluginJSON, "", "  ")
	gomega.Expect(err).NotTo(gomega.HaveOccurred())

	files := map[string]string{
		".claude-plugin/plugin.json": string(data),
		"README.md":                  "# " + p.Name + "\n",
	}
	for name, description := range p.Commands {
		files["commands/"+name+".md"] = frontMatter(description) + "Run " + name + ".\n"
	}
	for name, description := range p.Skills {
		files["skills/"+name+"/SKILL.md"] = frontMatter(description) + "Use " + name + ".\n"
	}
	return files
}

func frontMatter(description string) string {
	return fmt.Sprintf("---\ndescription: %s\n---\n\n", description)
}

// CreateMarketplace creates a marketplace root with an empty manifest
func CreateMarketplace(dir, name string) {
	manifestDir := filepath.Join(dir, ".claude-plugin")
	gomega.Expect(os.MkdirAll(manifestDir, 0750)).To(gomega.Succeed())
	gomega.Expect(os.MkdirAll(filepath.Join(dir, "plugins"), 0750)).To(gomega.Succeed())

	content := fmt.Sprintf(`{
  "name": %q,
  "owner": {"name": "Integration Team"},
  "plugins": []
}
`, name)
	gomega.Expect(os.WriteFile(filepath.Join(manifestDir, "marketplace.json"), []byte(content), 0600)).To(gomega.Succeed())
}
