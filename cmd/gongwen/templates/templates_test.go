package templatescmder_test

import (
	"net/http/httptest"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	templatescmder "github.com/papercomputeco/gongwen/cmd/gongwen/templates"
	"github.com/papercomputeco/gongwen/pkg/config"
	"github.com/papercomputeco/gongwen/pkg/credentials"
	"github.com/papercomputeco/gongwen/pkg/mockserver"
	testutils "github.com/papercomputeco/gongwen/pkg/utils/test"
)

var _ = Describe("NewTemplatesCmd", func() {
	It("has list, upload, select, and delete subcommands", func() {
		cmd := templatescmder.NewTemplatesCmd()
		Expect(cmd.Use).To(Equal("templates"))

		var names []string
		for _, sub := range cmd.Commands() {
			names = append(names, sub.Name())
		}
		Expect(names).To(ContainElements("list", "upload", "select", "delete"))
	})
})

var _ = Describe("Templates command execution", func() {
	var (
		tmpDir  string
		backend *httptest.Server
	)

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "gongwen-templates-test-*")
		Expect(err).NotTo(HaveOccurred())
		Expect(os.Setenv(credentials.TokenEnvVar, "t0k")).To(Succeed())
		backend = testutils.NewMockBackend(mockserver.Config{Token: "t0k"})
	})

	AfterEach(func() {
		backend.Close()
		os.Unsetenv(credentials.TokenEnvVar)
		os.RemoveAll(tmpDir)
	})

	run := func(args ...string) (string, error) {
		args = append(args, "--config-dir", tmpDir, "--server", backend.URL)
		return testutils.ExecuteCommand(templatescmder.NewTemplatesCmd(), args...)
	}

	configured := func() string {
		cfger, err := config.NewConfiger(tmpDir)
		Expect(err).NotTo(HaveOccurred())
		value, err := cfger.GetConfigValue("generate.template_id")
		Expect(err).NotTo(HaveOccurred())
		return value
	}

	It("lists templates with paging information", func() {
		out, err := run("list")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("通用通知模板"))
		Expect(out).To(ContainSubstring("请示模板"))
		Expect(out).To(ContainSubstring("page 1 of 1, 2 total"))
	})

	It("pages through templates", func() {
		out, err := run("list", "--page", "2", "--page-size", "1")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("请示模板"))
		Expect(out).NotTo(ContainSubstring("通用通知模板"))
		Expect(out).To(ContainSubstring("page 2 of 2"))
	})

	It("uploads a template named after its file", func() {
		path := filepath.Join(tmpDir, "会议通知.docx")
		Expect(os.WriteFile(path, []byte("PK fake docx"), 0o600)).To(Succeed())

		out, err := run("upload", path, "-t", "通知")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("Uploaded 会议通知"))

		out, err = run("list")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("会议通知.docx"))
	})

	It("fails to upload a missing file", func() {
		_, err := run("upload", filepath.Join(tmpDir, "missing.docx"))
		Expect(err).To(MatchError(ContainSubstring("opening template")))
	})

	It("selects and clears the default template", func() {
		out, err := run("select", "2")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("Generating from 请示模板"))
		Expect(configured()).To(Equal("2"))

		_, err = run("select", "--clear")
		Expect(err).NotTo(HaveOccurred())
		Expect(configured()).To(BeEmpty())
	})

	It("refuses to select an unknown template", func() {
		_, err := run("select", "99")
		Expect(err).To(MatchError(ContainSubstring("not found")))
		Expect(configured()).To(BeEmpty())
	})

	It("clears the default when deleting the selected template", func() {
		_, err := run("select", "1")
		Expect(err).NotTo(HaveOccurred())

		out, err := run("delete", "1")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("Deleted template"))
		Expect(configured()).To(BeEmpty())
	})
})
