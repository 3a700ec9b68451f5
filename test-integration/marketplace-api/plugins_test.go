package integration

import (
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/stacklok/toolhive-plugin-marketplace/test-integration/marketplace-api/helpers"
)

var _ = Describe("Plugin lifecycle", Label("git", "plugins"), func() {
	var (
		tempDir        string
		marketplaceDir string
		gitHelper      *helpers.GitTestHelper
		serverHelper   *helpers.ServerTestHelper
		formatterRepo  *helpers.GitTestRepository
	)

	formatter := helpers.PluginFixture{
		Name:        "formatter",
		Version:     "1.0.0",
		Description: "Formats source files",
		Author:      "Jane Doe",
		Commands:    map[string]string{"fmt": "Format the current file"},
		Skills:      map[string]string{"style-guide": "Applies the team style guide"},
	}

	BeforeEach(func() {
		tempDir = createTempDir("marketplace-test-")
		marketplaceDir = filepath.Join(tempDir, "marketplace")
		helpers.CreateMarketplace(marketplaceDir, "integration-marketplace")

		gitHelper = helpers.NewGitTestHelper()
		formatterRepo = gitHelper.CreatePluginRepository("formatter", formatter)

		serverHelper = helpers.NewServerTestHelper(ctx, marketplaceDir)
		Expect(serverHelper.StartServer()).To(Succeed())
		serverHelper.WaitForServerReady(10 * time.Second)
	})

	AfterEach(func() {
		if serverHelper != nil {
			Expect(serverHelper.StopServer()).To(Succeed())
		}
		if gitHelper != nil {
			_ = gitHelper.CleanupRepositories()
		}
		cleanupTempDir(tempDir)
	})

	It("should start with an empty marketplace", func() {
		resp, err := serverHelper.GetPlugins()
		Expect(err).NotTo(HaveOccurred())
		Expect(resp.StatusCode).To(Equal(http.StatusOK))

		var plugins []map[string]any
		helpers.DecodeJSON(resp, &plugins)
		Expect(plugins).To(BeEmpty())
	})

	Context("Adding a plugin", func() {
		BeforeEach(func() {
			resp, err := serverHelper.AddPlugin(formatterRepo.CloneURL, "")
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusCreated))

			var added map[string]any
			helpers.DecodeJSON(resp, &added)
			Expect(added).To(HaveKeyWithValue("name", "formatter"))
			Expect(added).To(HaveKeyWithValue("description", "Formats source files"))
			Expect(added).To(HaveKeyWithValue("version", "1.0.0"))
			Expect(added).To(HaveKeyWithValue("source", "./plugins/formatter"))
		})

		It("should list the enriched plugin", func() {
			resp, err := serverHelper.GetPlugins()
			Expect(err).NotTo(HaveOccurred())

			var plugins []map[string]any
			helpers.DecodeJSON(resp, &plugins)
			Expect(plugins).To(HaveLen(1))

			plugin := plugins[0]
			Expect(plugin).To(HaveKeyWithValue("name", "formatter"))
			Expect(plugin).To(HaveKeyWithValue("version", "1.0.0"))
			Expect(plugin).To(HaveKeyWithValue("author", "Jane Doe"))
			Expect(plugin).To(HaveKeyWithValue("gitUrl", formatterRepo.CloneURL))
			Expect(plugin["commands"]).To(ConsistOf(
				map[string]any{"name": "fmt", "description": "Format the current file"},
			))
			Expect(plugin["skills"]).To(ConsistOf(
				map[string]any{"name": "style-guide", "description": "Applies the team style guide"},
			))
		})

		It("should return the plugin manifest", func() {
			resp, err := serverHelper.GetPlugin("formatter")
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var details map[string]any
			helpers.DecodeJSON(resp, &details)
			Expect(details).To(HaveKeyWithValue("name", "formatter"))
			Expect(details).To(HaveKeyWithValue("version", "1.0.0"))
		})

		It("should persist the entry in the manifest file", func() {
			data, err := os.ReadFile(filepath.Join(marketplaceDir, ".claude-plugin", "marketplace.json"))
			Expect(err).NotTo(HaveOccurred())
			Expect(string(data)).To(ContainSubstring(`"source": "./plugins/formatter"`))
			Expect(string(data)).To(ContainSubstring(`"name": "Integration Team"`))
		})

		It("should serve the remote source to Claude Code", func() {
			resp, err := serverHelper.Get("/.claude-plugin/marketplace.json")
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var view map[string]any
			helpers.DecodeJSON(resp, &view)
			plugins := view["plugins"].([]any)
			Expect(plugins).To(HaveLen(1))
			Expect(plugins[0]).To(HaveKeyWithValue("source", map[string]any{
				"source": "url",
				"url":    formatterRepo.CloneURL,
			}))
		})

		It("should serve plugin files but not git internals", func() {
			resp, err := serverHelper.Get("/plugins/formatter/README.md")
			Expect(err).NotTo(HaveOccurred())
			body, _ := io.ReadAll(resp.Body)
			_ = resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(string(body)).To(Equal("# formatter\n"))

			resp, err = serverHelper.Get("/plugins/formatter/.git/config")
			Expect(err).NotTo(HaveOccurred())
			_ = resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
		})

		It("should reject adding the same plugin twice", func() {
			resp, err := serverHelper.AddPlugin(formatterRepo.CloneURL, "")
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusConflict))
			_ = resp.Body.Close()

			resp, err = serverHelper.GetPlugins()
			Expect(err).NotTo(HaveOccurred())
			var plugins []map[string]any
			helpers.DecodeJSON(resp, &plugins)
			Expect(plugins).To(HaveLen(1))
		})

		It("should report an unchanged plugin as up to date", func() {
			resp, err := serverHelper.UpdatePlugin("formatter")
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var result map[string]any
			helpers.DecodeJSON(resp, &result)
			Expect(result).To(HaveKeyWithValue("version", "1.0.0"))
			Expect(result).To(HaveKeyWithValue("previousVersion", "1.0.0"))
			Expect(result).To(HaveKeyWithValue("updated", false))
		})

		It("should pull new commits on update", func() {
			upgraded := formatter
			upgraded.Version = "1.1.0"
			upgraded.Commands = map[string]string{"fmt-all": "Format every file"}
			gitHelper.CommitPlugin(formatterRepo, upgraded, "Release 1.1.0")

			resp, err := serverHelper.UpdatePlugin("formatter")
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var result map[string]any
			helpers.DecodeJSON(resp, &result)
			Expect(result).To(HaveKeyWithValue("version", "1.1.0"))
			Expect(result).To(HaveKeyWithValue("previousVersion", "1.0.0"))
			Expect(result).To(HaveKeyWithValue("updated", true))
			Expect(result).To(HaveKeyWithValue("upgraded", true))

			resp, err = serverHelper.GetPlugins()
			Expect(err).NotTo(HaveOccurred())
			var plugins []map[string]any
			helpers.DecodeJSON(resp, &plugins)
			Expect(plugins).To(HaveLen(1))
			Expect(plugins[0]).To(HaveKeyWithValue("version", "1.1.0"))
			Expect(plugins[0]["commands"]).To(HaveLen(2))
		})

		It("should remove the plugin and its checkout", func() {
			resp, err := serverHelper.RemovePlugin("formatter")
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var removed map[string]any
			helpers.DecodeJSON(resp, &removed)
			Expect(removed).To(HaveKeyWithValue("name", "formatter"))

			Expect(filepath.Join(marketplaceDir, "plugins", "formatter")).NotTo(BeADirectory())

			resp, err = serverHelper.GetPlugins()
			Expect(err).NotTo(HaveOccurred())
			var plugins []map[string]any
			helpers.DecodeJSON(resp, &plugins)
			Expect(plugins).To(BeEmpty())

			resp, err = serverHelper.RemovePlugin("formatter")
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
			_ = resp.Body.Close()
		})
	})

	Context("Adding under an explicit name", func() {
		It("should use the given name for the entry and the checkout", func() {
			resp, err := serverHelper.AddPlugin(formatterRepo.CloneURL, "pretty")
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusCreated))
			_ = resp.Body.Close()

			Expect(filepath.Join(marketplaceDir, "plugins", "pretty", ".claude-plugin", "plugin.json")).To(BeARegularFile())

			resp, err = serverHelper.GetPlugin("pretty")
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			_ = resp.Body.Close()
		})
	})

	Context("Failures", func() {
		It("should leave the marketplace untouched when the clone fails", func() {
			missing := filepath.Join(tempDir, "does-not-exist")
			resp, err := serverHelper.AddPlugin(missing, "")
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusInternalServerError))

			var errResp map[string]string
			helpers.DecodeJSON(resp, &errResp)
			Expect(errResp["error"]).NotTo(BeEmpty())

			entries, err := os.ReadDir(filepath.Join(marketplaceDir, "plugins"))
			Expect(err).NotTo(HaveOccurred())
			Expect(entries).To(BeEmpty())

			resp, err = serverHelper.GetPlugins()
			Expect(err).NotTo(HaveOccurred())
			var plugins []map[string]any
			helpers.DecodeJSON(resp, &plugins)
			Expect(plugins).To(BeEmpty())
		})

		It("should reject a request without git URL", func() {
			resp, err := serverHelper.AddPlugin("", "")
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
			_ = resp.Body.Close()
		})

		It("should report unknown plugins as not found", func() {
			resp, err := serverHelper.GetPlugin("unknown")
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
			_ = resp.Body.Close()

			resp, err = serverHelper.UpdatePlugin("unknown")
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
			_ = resp.Body.Close()
		})
	})
})

var _ = Describe("Root content negotiation", Label("api"), func() {
	var (
		tempDir      string
		serverHelper *helpers.ServerTestHelper
	)

	BeforeEach(func() {
		tempDir = createTempDir("marketplace-root-")
		helpers.CreateMarketplace(tempDir, "negotiation-marketplace")

		serverHelper = helpers.NewServerTestHelper(ctx, tempDir)
		Expect(serverHelper.StartServer()).To(Succeed())
		serverHelper.WaitForServerReady(10 * time.Second)
	})

	AfterEach(func() {
		Expect(serverHelper.StopServer()).To(Succeed())
		cleanupTempDir(tempDir)
	})

	It("should return the manifest to JSON clients", func() {
		resp, err := serverHelper.GetWithAccept("/", "application/json")
		Expect(err).NotTo(HaveOccurred())
		Expect(resp.StatusCode).To(Equal(http.StatusOK))
		Expect(resp.Header.Get("Content-Type")).To(ContainSubstring("application/json"))

		var view map[string]any
		helpers.DecodeJSON(resp, &view)
		Expect(view).To(HaveKeyWithValue("name", "negotiation-marketplace"))
	})

	It("should return the page to browsers", func() {
		resp, err := serverHelper.GetWithAccept("/", "text/html,application/xhtml+xml")
		Expect(err).NotTo(HaveOccurred())
		Expect(resp.StatusCode).To(Equal(http.StatusOK))
		Expect(resp.Header.Get("Content-Type")).To(ContainSubstring("text/html"))
		_ = resp.Body.Close()
	})

	It("should expose metrics", func() {
		resp, err := serverHelper.Get("/metrics")
		Expect(err).NotTo(HaveOccurred())
		Expect(resp.StatusCode).To(Equal(http.StatusOK))
		_ = resp.Body.Close()
	})
})
