package modelscmder_test

import (
	"context"
	"net/http/httptest"
	"os"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	modelscmder "github.com/papercomputeco/gongwen/cmd/gongwen/models"
	"github.com/papercomputeco/gongwen/pkg/client"
	"github.com/papercomputeco/gongwen/pkg/credentials"
	"github.com/papercomputeco/gongwen/pkg/mockserver"
	"github.com/papercomputeco/gongwen/pkg/transport"
	testutils "github.com/papercomputeco/gongwen/pkg/utils/test"
)

var _ = Describe("NewModelsCmd", func() {
	It("has list, set, activate, and delete subcommands", func() {
		cmd := modelscmder.NewModelsCmd()
		var names []string
		for _, sub := range cmd.Commands() {
			names = append(names, sub.Name())
		}
		Expect(names).To(ContainElements("list", "set", "activate", "delete"))
	})
})

var _ = Describe("Models command execution", func() {
	var (
		tmpDir  string
		backend *httptest.Server
		cl      *client.Client
	)

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "gongwen-models-test-*")
		Expect(err).NotTo(HaveOccurred())
		Expect(os.Setenv(credentials.TokenEnvVar, "t0k")).To(Succeed())
		os.Unsetenv("DASHSCOPE_API_KEY")
		os.Unsetenv("ZHIPUAI_API_KEY")
		backend = testutils.NewMockBackend(mockserver.Config{Token: "t0k"})

		cl, err = client.New(client.Config{BaseURL: backend.URL, Tokens: transport.StaticToken("t0k")})
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		backend.Close()
		os.Unsetenv(credentials.TokenEnvVar)
		os.Unsetenv("DASHSCOPE_API_KEY")
		os.RemoveAll(tmpDir)
	})

	run := func(args ...string) (string, error) {
		args = append(args, "--config-dir", tmpDir, "--server", backend.URL)
		return testutils.ExecuteCommand(modelscmder.NewModelsCmd(), args...)
	}

	models := func() []client.ModelConfig {
		list, err := cl.ListModelConfigs(context.Background())
		Expect(err).NotTo(HaveOccurred())
		return list
	}

	It("lists configurations with masked keys", func() {
		out, err := run("list")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("deepseek-chat"))
		Expect(out).To(ContainSubstring("****0000"))
		Expect(out).NotTo(ContainSubstring("sk-mock-0000"))
	})

	It("creates and activates a configuration with an explicit key", func() {
		out, err := run("set", "--provider", "qwen", "--model", "qwen-max", "--key", "sk-qwen-1234", "--activate")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("qwen/qwen-max"))

		list := models()
		Expect(list).To(HaveLen(2))
		Expect(list[1].APIKey).To(Equal("sk-qwen-1234"))
		Expect(list[1].Active).To(BeTrue())
		Expect(list[0].Active).To(BeFalse())
	})

	It("takes the key from the provider's environment variable", func() {
		Expect(os.Setenv("DASHSCOPE_API_KEY", "sk-env-5678")).To(Succeed())

		_, err := run("set", "-p", "qwen", "-m", "qwen-plus")
		Expect(err).NotTo(HaveOccurred())
		Expect(models()[1].APIKey).To(Equal("sk-env-5678"))
	})

	It("takes the key from stored credentials", func() {
		mgr, err := credentials.NewManager(tmpDir)
		Expect(err).NotTo(HaveOccurred())
		Expect(mgr.SetKey("zhipu", "sk-stored-9999")).To(Succeed())

		_, err = run("set", "-p", "zhipu", "-m", "glm-4")
		Expect(err).NotTo(HaveOccurred())
		Expect(models()[1].APIKey).To(Equal("sk-stored-9999"))
	})

	It("refuses to create a configuration without a key", func() {
		_, err := run("set", "-p", "qwen", "-m", "qwen-max")
		Expect(err).To(MatchError(ContainSubstring("no API key for qwen")))
		Expect(models()).To(HaveLen(1))
	})

	It("requires a model", func() {
		_, err := run("set", "-p", "qwen", "--key", "k")
		Expect(err).To(MatchError("model is required"))
	})

	It("activates and deletes configurations", func() {
		_, err := run("set", "-p", "qwen", "-m", "qwen-max", "--key", "sk-1")
		Expect(err).NotTo(HaveOccurred())
		id := models()[1].ID

		_, err = run("activate", id)
		Expect(err).NotTo(HaveOccurred())
		Expect(models()[1].Active).To(BeTrue())

		_, err = run("delete", id)
		Expect(err).NotTo(HaveOccurred())
		Expect(models()).To(HaveLen(1))

		_, err = run("delete", id)
		Expect(err).To(HaveOccurred())
	})
})
