package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/papercomputeco/devchat/pkg/completion"
	"github.com/papercomputeco/devchat/pkg/config"
)

var _ = Describe("Config", func() {
	var dir string

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
		GinkgoT().Setenv(config.EnvAPIKey, "")
		GinkgoT().Setenv(config.EnvLegacyAPIKey, "")
		GinkgoT().Setenv(config.EnvModel, "")
	})

	write := func(body string) string {
		path := filepath.Join(dir, "config.toml")
		Expect(os.WriteFile(path, []byte(body), 0o600)).To(Succeed())
		return path
	}

	Describe("Load", func() {
		It("returns defaults when the file does not exist", func() {
			cfg, err := config.Load(filepath.Join(dir, "missing.toml"))
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg).To(Equal(config.Default()))
			Expect(cfg.ImageDelay()).To(Equal(1500 * time.Millisecond))
		})

		It("reads values from the file", func() {
			path := write(`
debug = true

[openrouter]
api_key = "file-key"
model = "openai/gpt-4o-mini"

[chat]
image_delay = "0s"
greeting = "Hi."

[server]
listen = ":9090"
db_path = "/tmp/devchat.db"
`)
			cfg, err := config.Load(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.Debug).To(BeTrue())
			Expect(cfg.OpenRouter.APIKey).To(Equal("file-key"))
			Expect(cfg.OpenRouter.Model).To(Equal("openai/gpt-4o-mini"))
			Expect(cfg.OpenRouter.APIURL).To(Equal(completion.DefaultAPIURL))
			Expect(cfg.ImageDelay()).To(BeZero())
			Expect(cfg.Chat.Greeting).To(Equal("Hi."))
			Expect(cfg.Server.Listen).To(Equal(":9090"))
			Expect(cfg.Server.DBPath).To(Equal("/tmp/devchat.db"))
		})

		It("lets the environment override the file", func() {
			path := write("[openrouter]\napi_key = \"file-key\"\n")
			GinkgoT().Setenv(config.EnvAPIKey, "env-key")
			GinkgoT().Setenv(config.EnvModel, "env/model")

			cfg, err := config.Load(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.OpenRouter.APIKey).To(Equal("env-key"))
			Expect(cfg.OpenRouter.Model).To(Equal("env/model"))
		})

		It("accepts the legacy key variable", func() {
			GinkgoT().Setenv(config.EnvLegacyAPIKey, "legacy-key")

			cfg, err := config.Load("")
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.OpenRouter.APIKey).To(Equal("legacy-key"))
		})

		It("rejects malformed TOML", func() {
			_, err := config.Load(write("[openrouter\n"))
			Expect(err).To(HaveOccurred())
		})

		It("rejects a malformed image delay", func() {
			_, err := config.Load(write("[chat]\nimage_delay = \"soon\"\n"))
			Expect(err).To(MatchError(ContainSubstring("chat.image_delay")))
		})

		It("rejects a negative image delay", func() {
			_, err := config.Load(write("[chat]\nimage_delay = \"-1s\"\n"))
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("CheckCredential", func() {
		It("reports a missing key as a configuration error", func() {
			err := config.Default().CheckCredential()

			var cfgErr *completion.ConfigurationError
			Expect(errors.As(err, &cfgErr)).To(BeTrue())
		})

		It("accepts a configured key", func() {
			cfg := config.Default()
			cfg.OpenRouter.APIKey = "k"
			Expect(cfg.CheckCredential()).To(Succeed())
		})
	})

	Describe("Completion", func() {
		It("maps the openrouter section", func() {
			cfg := config.Default()
			cfg.OpenRouter.APIKey = "k"
			cfg.OpenRouter.TimeoutSeconds = 5

			cc := cfg.Completion()
			Expect(cc.APIKey).To(Equal("k"))
			Expect(cc.Model).To(Equal(completion.DefaultModel))
			Expect(cc.Timeout).To(Equal(5 * time.Second))
		})
	})

	Describe("Watch", func() {
		It("delivers reloaded configuration when the file changes", func() {
			path := write("[openrouter]\napi_key = \"old\"\n")

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			reloaded := make(chan config.Config, 4)
			done := make(chan error, 1)
			go func() {
				done <- config.Watch(ctx, path, zap.NewNop(), func(cfg config.Config) {
					reloaded <- cfg
				})
			}()

			Eventually(func(g Gomega) {
				g.Expect(os.WriteFile(path, []byte("[openrouter]\napi_key = \"new\"\n"), 0o600)).To(Succeed())
				var cfg config.Config
				g.Eventually(reloaded, 500*time.Millisecond).Should(Receive(&cfg))
				g.Expect(cfg.OpenRouter.APIKey).To(Equal("new"))
			}).WithTimeout(5 * time.Second).Should(Succeed())

			cancel()
			Eventually(done).Should(Receive(BeNil()))
		})
	})
})
