package authcmder_test

import (
	"context"
	"os"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	authcmder "github.com/papercomputeco/gongwen/cmd/gongwen/auth"
	"github.com/papercomputeco/gongwen/pkg/credentials"
	testutils "github.com/papercomputeco/gongwen/pkg/utils/test"
)

var _ = Describe("Auth Command", func() {
	var (
		tmpDir string
		mgr    *credentials.Manager
	)

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "gongwen-auth-test-*")
		Expect(err).NotTo(HaveOccurred())
		GinkgoT().Setenv(credentials.TokenEnvVar, "")

		mgr, err = credentials.NewManager(tmpDir)
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		os.RemoveAll(tmpDir)
	})

	run := func(stdin string, args ...string) (string, error) {
		cmd := authcmder.NewAuthCmd()
		cmd.SetIn(strings.NewReader(stdin))
		return testutils.ExecuteCommand(cmd, append(args, "--config-dir", tmpDir)...)
	}

	Describe("NewAuthCmd", func() {
		It("creates a command with expected properties", func() {
			cmd := authcmder.NewAuthCmd()
			Expect(cmd.Use).To(Equal("auth [token|provider]"))
			Expect(cmd.Short).NotTo(BeEmpty())
			Expect(cmd.Flags().Lookup("list")).NotTo(BeNil())
			Expect(cmd.Flags().Lookup("remove")).NotTo(BeNil())
			Expect(cmd.Flags().Lookup("logout")).NotTo(BeNil())
		})
	})

	Describe("token", func() {
		It("stores the backend token from stdin", func() {
			out, err := run("Bearer s3cret\n", "token")
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(ContainSubstring("Stored backend token"))

			token, err := mgr.Token(context.Background())
			Expect(err).NotTo(HaveOccurred())
			Expect(token).To(Equal("s3cret"))
		})

		It("rejects an empty token", func() {
			_, err := run("\n", "token")
			Expect(err).To(MatchError("token cannot be empty"))
		})

		It("removes the token on --logout", func() {
			Expect(mgr.SetToken("s3cret")).To(Succeed())

			_, err := run("", "--logout")
			Expect(err).NotTo(HaveOccurred())

			token, err := mgr.Token(context.Background())
			Expect(err).NotTo(HaveOccurred())
			Expect(token).To(BeEmpty())
		})
	})

	Describe("provider keys", func() {
		It("stores a key from stdin", func() {
			out, err := run("sk-deep-1\n", "DeepSeek")
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(ContainSubstring("deepseek"))
			Expect(out).To(ContainSubstring("DEEPSEEK_API_KEY"))

			key, err := mgr.GetKey("deepseek")
			Expect(err).NotTo(HaveOccurred())
			Expect(key).To(Equal("sk-deep-1"))
		})

		It("rejects unsupported providers", func() {
			_, err := run("k\n", "anthropic")
			Expect(err).To(MatchError(ContainSubstring(`unsupported provider: "anthropic"`)))
		})

		It("fails without input", func() {
			_, err := run("", "qwen")
			Expect(err).To(MatchError("no input received on stdin"))
		})

		It("requires an argument", func() {
			_, err := run("")
			Expect(err).To(MatchError(ContainSubstring("argument required")))
		})

		It("removes a stored key", func() {
			Expect(mgr.SetKey("qwen", "sk-q")).To(Succeed())

			out, err := run("", "--remove", "qwen")
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(ContainSubstring("Removed"))

			key, err := mgr.GetKey("qwen")
			Expect(err).NotTo(HaveOccurred())
			Expect(key).To(BeEmpty())
		})
	})

	Describe("--list", func() {
		It("reports a missing token and no keys", func() {
			out, err := run("", "--list")
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(ContainSubstring("gongwen auth token"))
			Expect(out).To(ContainSubstring("No stored provider keys"))
		})

		It("lists the token and stored providers without their secrets", func() {
			Expect(mgr.SetToken("s3cret")).To(Succeed())
			Expect(mgr.SetKey("zhipu", "sk-z")).To(Succeed())

			out, err := run("", "--list")
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(ContainSubstring("GONGWEN_TOKEN"))
			Expect(out).To(ContainSubstring("ZHIPUAI_API_KEY"))
			Expect(out).NotTo(ContainSubstring("s3cret"))
			Expect(out).NotTo(ContainSubstring("sk-z"))
		})
	})
})
