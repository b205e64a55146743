package config_test

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/angeloszaimis/multidomain/config"
)

const validConfig = `
server:
  address: ":8080"
  environment: "dev"
  write_timeout: "30s"

admin:
  enabled: true
  address: "127.0.0.1:9090"

health_check:
  interval: "10s"
  path: "/healthz"

circuit_breaker:
  threshold: 3
  timeout: "1m"

routes:
  - domain: "*.example.com"
    backend: "http://localhost:8081"
  - domain: "shop.example.com"
    backend: "http://localhost:8082"
  - domain: "example.org"
    backend: "https://localhost:8443"

logging:
  level: "info"
`

func validStruct() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Address:      ":8080",
			Environment:  config.EnvDev,
			ReadTimeout:  "15s",
			WriteTimeout: "15s",
			IdleTimeout:  "60s",
		},
		Admin:          config.AdminConfig{Enabled: true, Address: "127.0.0.1:9090"},
		HealthCheck:    config.HealthCheckConfig{Interval: "2s", Path: "/health", Timeout: "5s"},
		CircuitBreaker: config.CircuitBreakerConfig{Threshold: 5, Timeout: "30s"},
		Logging:        config.LoggingConfig{Level: config.LogLevelInfo},
		Routes: []config.RouteConfig{
			{Domain: "example.com", Backend: "http://localhost:8081"},
		},
	}
}

var _ = Describe("Config", func() {
	var (
		tempDir string
		oldDir  string
	)

	writeConfig := func(content string) {
		err := os.WriteFile(filepath.Join(tempDir, "config.yaml"), []byte(content), 0644)
		Expect(err).NotTo(HaveOccurred())
	}

	BeforeEach(func() {
		var err error
		oldDir, err = os.Getwd()
		Expect(err).NotTo(HaveOccurred())

		tempDir, err = os.MkdirTemp("", "config-test-*")
		Expect(err).NotTo(HaveOccurred())

		Expect(os.Chdir(tempDir)).To(Succeed())
	})

	AfterEach(func() {
		Expect(os.Chdir(oldDir)).To(Succeed())
		os.RemoveAll(tempDir)
		os.Unsetenv("SERVER_ADDRESS")
		os.Unsetenv("LOGGING_LEVEL")
	})

	Describe("Load", func() {
		Context("with valid config file", func() {
			BeforeEach(func() {
				writeConfig(validConfig)
			})

			It("should load configuration successfully", func() {
				cfg, err := config.Load()
				Expect(err).NotTo(HaveOccurred())
				Expect(cfg).NotTo(BeNil())
			})

			It("should keep routes in file order", func() {
				cfg, err := config.Load()
				Expect(err).NotTo(HaveOccurred())
				Expect(cfg.DomainPatterns()).To(Equal([]string{"*.example.com", "shop.example.com", "example.org"}))
				Expect(cfg.Routes[1].Backend).To(Equal("http://localhost:8082"))
			})

			It("should parse durations", func() {
				cfg, err := config.Load()
				Expect(err).NotTo(HaveOccurred())
				Expect(cfg.HealthCheckInterval()).To(Equal(10 * time.Second))
				Expect(cfg.CircuitBreakerTimeout()).To(Equal(time.Minute))
			})

			It("should fill defaults for omitted fields", func() {
				cfg, err := config.Load()
				Expect(err).NotTo(HaveOccurred())
				Expect(cfg.HealthCheck.Path).To(Equal("/healthz"))
				Expect(cfg.HealthCheckTimeout()).To(Equal(5 * time.Second))
				Expect(cfg.Reload.Watch).To(BeFalse())
			})

			It("should parse server timeouts over their defaults", func() {
				cfg, err := config.Load()
				Expect(err).NotTo(HaveOccurred())

				read, write, idle := cfg.ServerTimeouts()
				Expect(read).To(Equal(15 * time.Second))
				Expect(write).To(Equal(30 * time.Second))
				Expect(idle).To(Equal(time.Minute))
			})

			It("should let environment variables override the file", func() {
				os.Setenv("SERVER_ADDRESS", ":8181")
				os.Setenv("LOGGING_LEVEL", "debug")

				cfg, err := config.Load()
				Expect(err).NotTo(HaveOccurred())
				Expect(cfg.Server.Address).To(Equal(":8181"))
				Expect(cfg.Logging.Level).To(Equal("debug"))
			})
		})

		Context("with an invalid config file", func() {
			It("should reject a route without backend", func() {
				writeConfig(`
routes:
  - domain: "example.com"
`)
				_, err := config.Load()
				Expect(err).To(HaveOccurred())
			})

			It("should reject malformed YAML", func() {
				writeConfig("routes: [\n")
				_, err := config.Load()
				Expect(err).To(HaveOccurred())
			})
		})

		Context("without a config file", func() {
			It("should fail because no routes are configured", func() {
				_, err := config.Load()
				Expect(err).To(HaveOccurred())
				Expect(err.Error()).To(MatchRegexp("(?i)routes"))
			})
		})
	})

	Describe("Watch", func() {
		It("should fail without a config file", func() {
			Expect(config.Watch(func() {})).NotTo(Succeed())
		})

		It("should report writes to the config file", func() {
			writeConfig(validConfig)

			var changes atomic.Int32
			Expect(config.Watch(func() { changes.Add(1) })).To(Succeed())

			writeConfig(validConfig + "\nreload:\n  watch: true\n")

			Eventually(changes.Load, 2*time.Second).Should(BeNumerically(">=", 1))
		})
	})
})

var _ = Describe("Validate", func() {
	It("should accept a complete configuration", func() {
		Expect(validStruct().Validate()).To(Succeed())
	})

	DescribeTable("should reject",
		func(mutate func(*config.Config)) {
			cfg := validStruct()
			mutate(cfg)
			Expect(cfg.Validate()).NotTo(Succeed())
		},
		Entry("unknown environment", func(c *config.Config) { c.Server.Environment = "qa" }),
		Entry("server address without port", func(c *config.Config) { c.Server.Address = "localhost" }),
		Entry("bad server read timeout", func(c *config.Config) { c.Server.ReadTimeout = "fast" }),
		Entry("non-positive server idle timeout", func(c *config.Config) { c.Server.IdleTimeout = "0s" }),
		Entry("admin address equal to server address", func(c *config.Config) { c.Admin.Address = c.Server.Address }),
		Entry("invalid admin address", func(c *config.Config) { c.Admin.Address = "nowhere" }),
		Entry("unknown log level", func(c *config.Config) { c.Logging.Level = "verbose" }),
		Entry("negative log backups", func(c *config.Config) { c.Logging.MaxBackups = -1 }),
		Entry("bad health interval", func(c *config.Config) { c.HealthCheck.Interval = "soon" }),
		Entry("non-positive health interval", func(c *config.Config) { c.HealthCheck.Interval = "0s" }),
		Entry("relative health path", func(c *config.Config) { c.HealthCheck.Path = "health" }),
		Entry("zero breaker threshold", func(c *config.Config) { c.CircuitBreaker.Threshold = 0 }),
		Entry("no routes", func(c *config.Config) { c.Routes = nil }),
		Entry("route without domain", func(c *config.Config) { c.Routes[0].Domain = "" }),
		Entry("route with ftp backend", func(c *config.Config) { c.Routes[0].Backend = "ftp://localhost" }),
		Entry("route with relative backend", func(c *config.Config) { c.Routes[0].Backend = "http:///path" }),
	)

	It("should ignore the admin address when admin is disabled", func() {
		cfg := validStruct()
		cfg.Admin = config.AdminConfig{Enabled: false}
		Expect(cfg.Validate()).To(Succeed())
	})

	It("should accept wildcard domains", func() {
		cfg := validStruct()
		cfg.Routes = append(cfg.Routes, config.RouteConfig{Domain: "*.*", Backend: "http://localhost:9000"})
		Expect(cfg.Validate()).To(Succeed())
	})
})
