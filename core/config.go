package core

import (
	"log"
	"net"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Env                       string
	Build                     string
	AppName                   string
	Debug                     bool
	TestMode                  bool
	SecretKey                 string
	FrontendBaseURL           string
	SendgridApiKey            string
	RollbarToken              string
	PasswordResetTimeoutDelta time.Duration

	defaultFromEmail string

	Server struct {
		Host                      string
		Address                   string
		DebugHost                 string
		ShutdownTimeout           time.Duration
		JWTExpirationDelta        time.Duration
		JWTRefreshExpirationDelta time.Duration
	}

	Database struct {
		Engine        string
		Host          string
		Port          string
		Name          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		DisableTLS    bool
	}

	Storage struct {
		Root          string // uploads root on the local disk
		MaxUploadSize string // echo body limit, eg. "20M"
	}
}

// NewConfig reads the configuration from the environment.
// A `config/.env.<env>` file is loaded first when it exists.
func NewConfig() *Config {
	conf := viper.New()

	// defaults
	conf.SetTypeByDefaultValue(true)
	conf.SetDefault("debug", true)
	conf.SetDefault("build", "dev")
	conf.SetDefault("appName", "Edubridge")
	conf.SetDefault("secretKey", "k1x$o8=q!vb0(rt^6p-dn3@w2+hz_9e&m4#ls7uycj%fg5ia")
	conf.SetDefault("frontendBaseURL", "http://localhost:5173")
	conf.SetDefault("defaultFromEmail", "Edubridge <noreply@localhost>")
	conf.SetDefault("passwordResetTimeoutDelta", 3*24*time.Hour)
	conf.SetDefault("server.address", ":8000")
	conf.SetDefault("server.debugHost", ":4000")
	conf.SetDefault("server.shutdownTimeout", 5*time.Second)
	conf.SetDefault("server.jwtExpirationDelta", 7*24*time.Hour)
	conf.SetDefault("server.jwtRefreshExpirationDelta", 4*time.Hour)
	conf.SetDefault("database.engine", "postgres")
	conf.SetDefault("database.host", "localhost")
	conf.SetDefault("database.port", "5432")
	conf.SetDefault("database.name", "edubridge")
	conf.SetDefault("database.user", "edubridge")
	conf.SetDefault("database.password", "")
	conf.SetDefault("database.adminUser", "postgres")
	conf.SetDefault("database.adminPassword", "")
	conf.SetDefault("database.disableTLS", true)
	conf.SetDefault("storage.root", "uploads")
	conf.SetDefault("storage.maxUploadSize", "20M")

	env := strings.ToUpper(os.Getenv("ENV")) // DEV (local; default), TEST, QA, PROD
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		conf.SetDefault("testMode", true)
	}
	conf.SetEnvPrefix(env)
	conf.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// load .env if it exists (ignore if it does not)
	if wd, err := os.Getwd(); err == nil {
		dotEnvPath := filepath.Join(wd, "config", ".env."+strings.ToLower(env))
		if _, err := os.Stat(dotEnvPath); err == nil {
			if err := godotenv.Load(dotEnvPath); err != nil {
				log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
			}
		} else if !os.IsNotExist(err) {
			log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
		}
	}
	conf.AutomaticEnv()

	c := &Config{
		Env:                       env,
		Build:                     conf.GetString("build"),
		AppName:                   conf.GetString("appName"),
		Debug:                     conf.GetBool("debug"),
		TestMode:                  conf.GetBool("testMode"),
		SecretKey:                 conf.GetString("secretKey"),
		FrontendBaseURL:           conf.GetString("frontendBaseURL"),
		SendgridApiKey:            conf.GetString("sendgridApiKey"),
		RollbarToken:              conf.GetString("rollbarToken"),
		PasswordResetTimeoutDelta: conf.GetDuration("passwordResetTimeoutDelta"),
		defaultFromEmail:          conf.GetString("defaultFromEmail"),
	}

	c.Server.Address = conf.GetString("server.address")
	c.Server.DebugHost = conf.GetString("server.debugHost")
	c.Server.ShutdownTimeout = conf.GetDuration("server.shutdownTimeout")
	c.Server.JWTExpirationDelta = conf.GetDuration("server.jwtExpirationDelta")
	c.Server.JWTRefreshExpirationDelta = conf.GetDuration("server.jwtRefreshExpirationDelta")
	if host, err := os.Hostname(); err == nil {
		c.Server.Host = host
	}

	c.Database.Engine = conf.GetString("database.engine")
	c.Database.Host = conf.GetString("database.host")
	c.Database.Port = conf.GetString("database.port")
	c.Database.Name = conf.GetString("database.name")
	c.Database.User = conf.GetString("database.user")
	c.Database.Password = conf.GetString("database.password")
	c.Database.AdminUser = conf.GetString("database.adminUser")
	c.Database.AdminPassword = conf.GetString("database.adminPassword")
	c.Database.DisableTLS = conf.GetBool("database.disableTLS")

	c.Storage.Root = conf.GetString("storage.root")
	c.Storage.MaxUploadSize = conf.GetString("storage.maxUploadSize")
	return c
}

// NewTestConfig returns a Config suitable for tests: no .env, no network services.
func NewTestConfig() *Config {
	c := &Config{
		Env:                       "TEST",
		Build:                     "test",
		AppName:                   "Edubridge",
		TestMode:                  true,
		SecretKey:                 "secret",
		FrontendBaseURL:           "http://localhost:5173",
		PasswordResetTimeoutDelta: 3 * 24 * time.Hour,
		defaultFromEmail:          "Edubridge <noreply@localhost>",
	}
	c.Server.JWTExpirationDelta = 10 * time.Minute
	c.Server.JWTRefreshExpirationDelta = 4 * time.Hour
	c.Storage.Root = "uploads"
	c.Storage.MaxUploadSize = "1M"
	return c
}

func (c *Config) DefaultFromEmail() mail.Address {
	addr, err := mail.ParseAddress(c.defaultFromEmail)
	if err != nil {
		return mail.Address{Name: c.AppName, Address: "noreply@localhost"}
	}
	return *addr
}

// DatabaseAddress returns the database host:port.
func (c *Config) DatabaseAddress() string {
	return net.JoinHostPort(c.Database.Host, c.Database.Port)
}
