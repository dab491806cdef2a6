package mockcmder

import (
	"bytes"
	"context"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/gongwen/pkg/config"
)

var _ = Describe("NewMockCmd", func() {
	It("defaults to the mock listen address", func() {
		cmd := NewMockCmd()
		f := cmd.Flags().Lookup("listen")
		Expect(f).NotTo(BeNil())
		Expect(f.DefValue).To(Equal(config.DefaultMockListen))
		Expect(f.Shorthand).To(Equal("l"))
	})

	It("has the script flags", func() {
		cmd := NewMockCmd()
		for _, name := range []string{"token", "chunk", "delay", "split", "malformed", "error", "log-file"} {
			Expect(cmd.Flags().Lookup(name)).NotTo(BeNil(), name)
		}
	})
})

var _ = Describe("mockCommander", func() {
	Describe("serverConfig", func() {
		It("maps flags onto the script", func() {
			c := &mockCommander{
				listen:    ":0",
				token:     "dev",
				chunks:    []string{"一", "二"},
				delay:     10 * time.Millisecond,
				split:     7,
				malformed: true,
				errDetail: "失败",
			}

			cfg, err := c.serverConfig(io.Discard)
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.ListenAddr).To(Equal(":0"))
			Expect(cfg.Token).To(Equal("dev"))
			Expect(cfg.Script.Chunks).To(Equal([]string{"一", "二"}))
			Expect(cfg.Script.Delay).To(Equal(10 * time.Millisecond))
			Expect(cfg.Script.SplitBytes).To(Equal(7))
			Expect(cfg.Script.Malformed).To(BeTrue())
			Expect(cfg.Script.ErrorDetail).To(Equal("失败"))
			Expect(cfg.Logger).NotTo(BeNil())
		})

		It("rejects a negative split", func() {
			_, err := (&mockCommander{split: -1}).serverConfig(io.Discard)
			Expect(err).To(MatchError(ContainSubstring("invalid --split")))
		})
	})

	Describe("withLogFile", func() {
		It("leaves the logger alone without a log file", func() {
			c := &mockCommander{}
			cfg, err := c.serverConfig(io.Discard)
			Expect(err).NotTo(HaveOccurred())
			before := cfg.Logger

			closeLog, err := c.withLogFile(&cfg)
			Expect(err).NotTo(HaveOccurred())
			closeLog()
			Expect(cfg.Logger).To(BeIdenticalTo(before))
		})

		It("writes JSON records to the log file", func() {
			path := filepath.Join(GinkgoT().TempDir(), "mock.log")
			c := &mockCommander{logFile: path}
			console := &bytes.Buffer{}
			cfg, err := c.serverConfig(console)
			Expect(err).NotTo(HaveOccurred())

			closeLog, err := c.withLogFile(&cfg)
			Expect(err).NotTo(HaveOccurred())
			cfg.Logger.Info("stream started", "conv_id", "42")
			closeLog()

			data, err := os.ReadFile(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(data)).To(ContainSubstring(`"msg":"stream started"`))
			Expect(string(data)).To(ContainSubstring(`"source"`))
			Expect(console.String()).To(ContainSubstring("stream started"))
		})

		It("fails when the log file cannot be opened", func() {
			c := &mockCommander{logFile: filepath.Join(GinkgoT().TempDir(), "missing", "mock.log")}
			cfg, err := c.serverConfig(io.Discard)
			Expect(err).NotTo(HaveOccurred())

			_, err = c.withLogFile(&cfg)
			Expect(err).To(MatchError(ContainSubstring("opening log file")))
		})
	})

	Describe("serve", func() {
		It("serves until the context is cancelled", func() {
			listener, err := net.Listen("tcp", "127.0.0.1:0")
			Expect(err).NotTo(HaveOccurred())
			addr := "http://" + listener.Addr().String()

			ctx, cancel := context.WithCancel(context.Background())
			out := &bytes.Buffer{}
			done := make(chan error, 1)
			go func() {
				done <- (&mockCommander{token: "dev"}).serve(ctx, listener, out, io.Discard)
			}()

			Eventually(func() (int, error) {
				resp, err := http.Get(addr + "/ping")
				if err != nil {
					return 0, err
				}
				resp.Body.Close()
				return resp.StatusCode, nil
			}).Should(Equal(http.StatusOK))

			req, err := http.NewRequest(http.MethodGet, addr+"/api/templates", nil)
			Expect(err).NotTo(HaveOccurred())
			resp, err := http.DefaultClient.Do(req)
			Expect(err).NotTo(HaveOccurred())
			resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusUnauthorized))

			cancel()
			Eventually(done).Should(Receive(BeNil()))
			Expect(strings.Contains(out.String(), addr)).To(BeTrue())
		})
	})
})
