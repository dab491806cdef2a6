package initcmder_test

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	initcmder "github.com/papercomputeco/gongwen/cmd/gongwen/init"
	"github.com/papercomputeco/gongwen/pkg/config"
	testutils "github.com/papercomputeco/gongwen/pkg/utils/test"
)

var _ = Describe("NewInitCmd", func() {
	It("creates a command with the correct use string", func() {
		cmd := initcmder.NewInitCmd()
		Expect(cmd.Use).To(Equal("init"))
	})

	It("rejects any arguments", func() {
		cmd := initcmder.NewInitCmd()
		Expect(cmd.Args(cmd, []string{})).To(Succeed())
		Expect(cmd.Args(cmd, []string{"extra"})).NotTo(Succeed())
	})

	It("has a --preset flag", func() {
		f := initcmder.NewInitCmd().Flags().Lookup("preset")
		Expect(f).NotTo(BeNil())
		Expect(f.DefValue).To(Equal(""))
	})
})

var _ = Describe("Init command execution", func() {
	var (
		tmpDir  string
		origDir string
	)

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "gongwen-init-test-*")
		Expect(err).NotTo(HaveOccurred())

		origDir, err = os.Getwd()
		Expect(err).NotTo(HaveOccurred())
		Expect(os.Chdir(tmpDir)).To(Succeed())
	})

	AfterEach(func() {
		Expect(os.Chdir(origDir)).To(Succeed())
		os.RemoveAll(tmpDir)
	})

	run := func(args ...string) (string, error) {
		return testutils.ExecuteCommand(initcmder.NewInitCmd(), args...)
	}

	It("creates a .gongwen directory with a default config", func() {
		out, err := run()
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("Initialized .gongwen directory"))

		cfg := loadConfig(tmpDir)
		Expect(cfg.Version).To(Equal(config.CurrentV))
		Expect(cfg.Server.BaseURL).To(Equal("http://localhost:8000"))
		Expect(cfg.Generate.DocType).To(Equal("通知"))
	})

	It("keeps existing contents when already initialized", func() {
		dir := filepath.Join(tmpDir, ".gongwen")
		Expect(os.MkdirAll(dir, 0o755)).To(Succeed())
		existing := "[server]\nbase_url = \"http://10.0.0.5:8000\"\n"
		Expect(os.WriteFile(filepath.Join(dir, "config.toml"), []byte(existing), 0o644)).To(Succeed())

		out, err := run()
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("Already initialized"))

		data, err := os.ReadFile(filepath.Join(dir, "config.toml"))
		Expect(err).NotTo(HaveOccurred())
		Expect(string(data)).To(Equal(existing))
	})

	Describe("--preset", func() {
		It("writes the mock preset", func() {
			_, err := run("--preset", "mock")
			Expect(err).NotTo(HaveOccurred())

			cfg := loadConfig(tmpDir)
			Expect(cfg.Server.BaseURL).To(Equal("http://localhost" + config.DefaultMockListen))
			Expect(cfg.Server.Timeout).To(Equal("5s"))
		})

		It("overwrites the config on re-init", func() {
			_, err := run("--preset", "mock")
			Expect(err).NotTo(HaveOccurred())

			_, err = run("--preset", "local")
			Expect(err).NotTo(HaveOccurred())
			Expect(loadConfig(tmpDir).Server.BaseURL).To(Equal("http://localhost:8000"))
		})

		It("rejects unknown preset names without creating the directory", func() {
			_, err := run("--preset", "cloud")
			Expect(err).To(MatchError(ContainSubstring("unknown preset")))

			_, err = os.Stat(filepath.Join(tmpDir, ".gongwen"))
			Expect(os.IsNotExist(err)).To(BeTrue())
		})
	})

	Describe("--preset with a remote URL", func() {
		It("fetches and writes the remote config", func() {
			remote := "version = 0\n\n[server]\nbase_url = \"https://gongwen.example.gov.cn\"\n\n[generate]\ndoc_type = \"请示\"\n"
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				fmt.Fprint(w, remote)
			}))
			defer server.Close()

			_, err := run("--preset", server.URL)
			Expect(err).NotTo(HaveOccurred())

			cfg := loadConfig(tmpDir)
			Expect(cfg.Server.BaseURL).To(Equal("https://gongwen.example.gov.cn"))
			Expect(cfg.Generate.DocType).To(Equal("请示"))
			Expect(cfg.Server.Timeout).To(Equal("30s"))
		})

		It("returns an error for a non-200 response", func() {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusNotFound)
			}))
			defer server.Close()

			_, err := run("--preset", server.URL)
			Expect(err).To(MatchError(ContainSubstring("HTTP 404")))
		})

		It("returns an error for invalid TOML", func() {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				fmt.Fprint(w, "this is not valid toml [[[")
			}))
			defer server.Close()

			_, err := run("--preset", server.URL)
			Expect(err).To(MatchError(ContainSubstring("parsing")))
		})

		It("returns an error for an unreachable URL", func() {
			_, err := run("--preset", "http://127.0.0.1:1")
			Expect(err).To(MatchError(ContainSubstring("fetching remote config")))
		})
	})
})

// loadConfig reads config.toml from the .gongwen directory under baseDir.
func loadConfig(baseDir string) *config.Config {
	data, err := os.ReadFile(filepath.Join(baseDir, ".gongwen", "config.toml"))
	ExpectWithOffset(1, err).NotTo(HaveOccurred())

	cfg := &config.Config{}
	ExpectWithOffset(1, toml.Unmarshal(data, cfg)).To(Succeed())
	return cfg
}
