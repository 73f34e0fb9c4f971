package core

import (
	"fmt"
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

type (
	dbConfig struct {
		Engine        string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		Host          string
		Port          string
		Name          string
		DisableTLS    bool
	}

	serverConfig struct {
		Host                      string
		DebugHost                 string
		ShutdownTimeout           time.Duration
		JWTExpirationDelta        time.Duration
		JWTRefreshExpirationDelta time.Duration
	}

	twilioConfig struct {
		AccountSID             string
		AuthToken              string
		WhatsAppFrom           string
		ValidateSignature      bool
		DefaultPropertyID      int64
		DefaultSocialNetworkID int64
	}

	wordPressConfig struct {
		BaseURL      string
		User         string
		AppPassword  string
		TaxonomyFile string
	}

	azureConfig struct {
		ConnectionString string
		Container        string
	}

	natsConfig struct {
		URL string
	}

	matchingConfig struct {
		RecomputeSchedule string
		WPSyncSchedule    string
		CacheSize         int
	}

	Config struct {
		AppName                   string
		Env                       string
		Build                     string
		Debug                     bool
		TestMode                  bool
		WorkDir                   string
		SecretKey                 string
		EncryptionKey             string
		InternalSyncKey           string
		FrontendBaseURL           string
		PasswordResetTimeoutDelta time.Duration
		RollbarToken              string
		SendgridApiKey            string
		ReplyToEmail              string
		LocalMediaDir             string

		defaultFromEmail string

		Database  dbConfig
		Server    serverConfig
		Twilio    twilioConfig
		WordPress wordPressConfig
		Azure     azureConfig
		NATS      natsConfig
		Matching  matchingConfig
	}
)

func (dbc dbConfig) Address() string {
	if dbc.Port == "" {
		return dbc.Host
	}
	return net.JoinHostPort(dbc.Host, dbc.Port)
}

func (conf *Config) DefaultFromEmail() mail.Address {
	addr, err := mail.ParseAddress(conf.defaultFromEmail)
	if err != nil {
		return mail.Address{Name: conf.AppName, Address: "noreply@localhost"}
	}
	return *addr
}

// NewConfig loads the configuration of the current ENV (DEV|TEST|QA|PROD).
func NewConfig() *Config {
	v := viper.New()
	v.SetTypeByDefaultValue(true)

	env := strings.ToUpper(os.Getenv("ENV"))
	if env == "" {
		env = "DEV"
	}
	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	workDir := Getwd()
	setDefaults(v, env, workDir)

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(workDir, "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	v.AutomaticEnv()

	return &Config{
		AppName:                   v.GetString("app_name"),
		Env:                       env,
		Build:                     v.GetString("build"),
		Debug:                     v.GetBool("debug"),
		TestMode:                  v.GetBool("test_mode"),
		WorkDir:                   workDir,
		SecretKey:                 v.GetString("secret_key"),
		EncryptionKey:             v.GetString("encryption_key"),
		InternalSyncKey:           v.GetString("internal_sync_key"),
		FrontendBaseURL:           v.GetString("frontend_base_url"),
		PasswordResetTimeoutDelta: v.GetDuration("password_reset_timeout_delta"),
		RollbarToken:              v.GetString("rollbar_token"),
		SendgridApiKey:            v.GetString("sendgrid_api_key"),
		ReplyToEmail:              v.GetString("reply_to_email"),
		LocalMediaDir:             v.GetString("local_media_dir"),
		defaultFromEmail:          v.GetString("default_from_email"),
		Database: dbConfig{
			Engine:        v.GetString("database.engine"),
			User:          v.GetString("database.user"),
			Password:      v.GetString("database.password"),
			AdminUser:     v.GetString("database.admin_user"),
			AdminPassword: v.GetString("database.admin_password"),
			Host:          v.GetString("database.host"),
			Port:          v.GetString("database.port"),
			Name:          v.GetString("database.name"),
			DisableTLS:    v.GetBool("database.disable_tls"),
		},
		Server: serverConfig{
			Host:                      v.GetString("server.host"),
			DebugHost:                 v.GetString("server.debug_host"),
			ShutdownTimeout:           v.GetDuration("server.shutdown_timeout"),
			JWTExpirationDelta:        v.GetDuration("server.jwt_expiration_delta"),
			JWTRefreshExpirationDelta: v.GetDuration("server.jwt_refresh_expiration_delta"),
		},
		Twilio: twilioConfig{
			AccountSID:             v.GetString("twilio.account_sid"),
			AuthToken:              v.GetString("twilio.auth_token"),
			WhatsAppFrom:           v.GetString("twilio.whatsapp_from"),
			ValidateSignature:      v.GetBool("twilio.validate_signature"),
			DefaultPropertyID:      v.GetInt64("twilio.default_property_id"),
			DefaultSocialNetworkID: v.GetInt64("twilio.default_social_network_id"),
		},
		WordPress: wordPressConfig{
			BaseURL:      v.GetString("wordpress.base_url"),
			User:         v.GetString("wordpress.user"),
			AppPassword:  v.GetString("wordpress.app_password"),
			TaxonomyFile: v.GetString("wordpress.taxonomy_file"),
		},
		Azure: azureConfig{
			ConnectionString: v.GetString("azure.connection_string"),
			Container:        v.GetString("azure.container"),
		},
		NATS: natsConfig{URL: v.GetString("nats.url")},
		Matching: matchingConfig{
			RecomputeSchedule: v.GetString("matching.recompute_schedule"),
			WPSyncSchedule:    v.GetString("matching.wp_sync_schedule"),
			CacheSize:         v.GetInt("matching.cache_size"),
		},
	}
}

func setDefaults(v *viper.Viper, env, workDir string) {
	v.SetDefault("app_name", "Janis")
	v.SetDefault("build", "develop")
	v.SetDefault("debug", env == "DEV" || env == "TEST")
	v.SetDefault("test_mode", env == "TEST")
	v.SetDefault("secret_key", "j4n1s-5(ecret)_k3y+ch4nge-me@pr0d#7x!c9")
	v.SetDefault("encryption_key", "janis-dev-encryption-key-32bytes")
	v.SetDefault("internal_sync_key", "")
	v.SetDefault("frontend_base_url", "http://localhost:3000")
	v.SetDefault("password_reset_timeout_delta", 3*24*time.Hour)
	v.SetDefault("default_from_email", "Janis <noreply@localhost>")

	v.SetDefault("database.engine", "postgres")
	v.SetDefault("database.user", "janis")
	v.SetDefault("database.password", "janis")
	v.SetDefault("database.admin_user", "postgres")
	v.SetDefault("database.admin_password", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.name", fmt.Sprintf("janis_%s", strings.ToLower(env)))
	v.SetDefault("database.disable_tls", env == "DEV" || env == "TEST")

	v.SetDefault("server.host", "0.0.0.0:8000")
	v.SetDefault("server.debug_host", "0.0.0.0:4000")
	v.SetDefault("server.shutdown_timeout", 5*time.Second)
	v.SetDefault("server.jwt_expiration_delta", 7*24*time.Hour)
	v.SetDefault("server.jwt_refresh_expiration_delta", 4*time.Hour)

	v.SetDefault("twilio.validate_signature", true)
	v.SetDefault("wordpress.taxonomy_file", "")
	v.SetDefault("azure.container", "media")
	v.SetDefault("matching.recompute_schedule", "@every 1h")
	v.SetDefault("matching.wp_sync_schedule", "")
	v.SetDefault("matching.cache_size", 1024)
	v.SetDefault("local_media_dir", filepath.Join(workDir, "media"))
}
