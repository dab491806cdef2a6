package configcmder_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	configcmder "github.com/papercomputeco/gongwen/cmd/gongwen/config"
	"github.com/papercomputeco/gongwen/pkg/config"
	testutils "github.com/papercomputeco/gongwen/pkg/utils/test"
)

var _ = Describe("Config Command", func() {
	var tmpDir string

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "gongwen-config-cmd-test-*")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		os.RemoveAll(tmpDir)
	})

	run := func(args ...string) (string, error) {
		return testutils.ExecuteCommand(configcmder.NewConfigCmd(), append(args, "--config-dir", tmpDir)...)
	}

	It("has get, set, and list subcommands", func() {
		cmd := configcmder.NewConfigCmd()
		var names []string
		for _, sub := range cmd.Commands() {
			names = append(names, sub.Name())
		}
		Expect(names).To(ConsistOf("get", "set", "list"))
	})

	Describe("set", func() {
		It("writes the value to config.toml", func() {
			out, err := run("set", "generate.doc_type", "请示")
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(ContainSubstring("Set"))
			Expect(out).To(ContainSubstring(filepath.Join(tmpDir, "config.toml")))

			cfger, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())
			cfg, err := cfger.LoadConfig()
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.Generate.DocType).To(Equal("请示"))
		})

		It("rejects unknown keys", func() {
			_, err := run("set", "proxy.upstream", "x")
			Expect(err).To(MatchError(ContainSubstring(`unknown config key: "proxy.upstream"`)))
		})

		It("rejects invalid values", func() {
			_, err := run("set", "server.timeout", "soon")
			Expect(err).To(MatchError(ContainSubstring("invalid value for server.timeout")))
		})

		It("requires a key and a value", func() {
			_, err := run("set", "server.timeout")
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("get", func() {
		It("reads a stored value", func() {
			_, err := run("set", "server.base_url", "http://localhost:9000")
			Expect(err).NotTo(HaveOccurred())

			out, err := run("get", "server.base_url")
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(ContainSubstring("http://localhost:9000"))
		})

		It("shows unset keys", func() {
			out, err := run("get", "eventstream.brokers")
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(ContainSubstring("<not set>"))
		})

		It("rejects unknown keys", func() {
			_, err := run("get", "nope")
			Expect(err).To(MatchError(ContainSubstring("unknown config key")))
		})
	})

	Describe("list", func() {
		It("lists every key", func() {
			_, err := run("set", "ui.markdown", "false")
			Expect(err).NotTo(HaveOccurred())

			out, err := run("list")
			Expect(err).NotTo(HaveOccurred())
			for _, key := range config.ValidConfigKeys() {
				Expect(out).To(ContainSubstring(key))
			}
			Expect(out).To(MatchRegexp(`ui\.markdown\s+= "false"`))
		})
	})
})
