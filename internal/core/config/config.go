package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvDevelopment is the only environment in which the identity bypass is honoured.
const EnvDevelopment = "development"

// AppConfig holds the configuration for the application.
// Tags used:
// - mapstructure: used by viper to unmarshal
// - default: default value to set if missing
// - required: if "true", error if missing
type AppConfig struct {
	// Environment specifies the runtime environment (e.g., development, production).
	Environment string `mapstructure:"APP_ENV" default:"development"`
	// LogLevel defines the logging verbosity (e.g., debug, info, error).
	LogLevel string `mapstructure:"LOG_LEVEL" default:"info"`
	// ServerPort is the port where the server will listen.
	ServerPort int `mapstructure:"SERVER_PORT" default:"8080"`
	// PublicBaseURL is the externally visible origin, used to build absolute links.
	PublicBaseURL string `mapstructure:"PUBLIC_BASE_URL" default:"http://localhost:8080"`

	Database DatabaseConfig `mapstructure:",squash"`
	Redis    RedisConfig    `mapstructure:",squash"`
	Auth     AuthConfig     `mapstructure:",squash"`
	Checkout CheckoutConfig `mapstructure:",squash"`
	Uploads  UploadConfig   `mapstructure:",squash"`
	SMS      SMSConfig      `mapstructure:",squash"`
}

// DatabaseConfig holds database connection details.
type DatabaseConfig struct {
	Host     string `mapstructure:"DB_HOST" default:"localhost"`
	Port     int    `mapstructure:"DB_PORT" default:"5432"`
	User     string `mapstructure:"DB_USER" default:"postgres"`
	Password string `mapstructure:"DB_PASSWORD" default:"postgres"`
	Name     string `mapstructure:"DB_NAME" default:"pixelpanic"`
	SSLMode  string `mapstructure:"DB_SSLMODE" default:"disable"`
}

// DSN renders the lib/pq connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

// RedisConfig holds the redis connection URL used for sessions and OTP challenges.
type RedisConfig struct {
	// URL is in the format redis://[:password@]host[:port][/database].
	URL string `mapstructure:"REDIS_URL" required:"true"`
}

// AuthConfig controls sessions, OTP challenges, invites and route gating.
type AuthConfig struct {
	SessionCookieName string `mapstructure:"SESSION_COOKIE_NAME" default:"pp_session"`
	SessionTTLHours   int    `mapstructure:"SESSION_TTL_HOURS" default:"720"`
	OTPTTLSeconds     int    `mapstructure:"OTP_TTL_SECONDS" default:"600"`
	OTPMaxAttempts    int    `mapstructure:"OTP_MAX_ATTEMPTS" default:"5"`
	InviteTTLHours    int    `mapstructure:"INVITE_TTL_HOURS" default:"72"`
	// AdminRoutePrefixes is a comma separated list of path prefixes guarded by the admin gate.
	AdminRoutePrefixes string `mapstructure:"ADMIN_ROUTE_PREFIXES" default:"/admin"`
	AdminSignInPath    string `mapstructure:"ADMIN_SIGNIN_PATH" default:"/admin/sign-in"`
	// DevRole synthesizes a fixed identity (technician, admin or customer). Development only.
	DevRole string `mapstructure:"DEV_AUTH_ROLE"`
}

// SessionTTL returns the lifetime of a login session.
func (a AuthConfig) SessionTTL() time.Duration {
	return time.Duration(a.SessionTTLHours) * time.Hour
}

// OTPTTL returns the lifetime of an OTP challenge.
func (a AuthConfig) OTPTTL() time.Duration {
	return time.Duration(a.OTPTTLSeconds) * time.Second
}

// InviteTTL returns how long a technician invite stays acceptable.
func (a AuthConfig) InviteTTL() time.Duration {
	return time.Duration(a.InviteTTLHours) * time.Hour
}

// AdminPrefixes splits AdminRoutePrefixes into a clean list.
func (a AuthConfig) AdminPrefixes() []string {
	var prefixes []string
	for _, p := range strings.Split(a.AdminRoutePrefixes, ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			prefixes = append(prefixes, p)
		}
	}
	return prefixes
}

// CheckoutConfig holds order numbering settings.
type CheckoutConfig struct {
	// OrderNumberScheme is "simple" (PP-YYYY-NNNN) or "random" (PP-YYYYMMDD-NNN-XXXX).
	OrderNumberScheme string `mapstructure:"ORDER_NUMBER_SCHEME" default:"simple"`
}

// UploadConfig holds where technician photos are written.
type UploadConfig struct {
	Dir string `mapstructure:"UPLOAD_DIR" default:"./uploads"`
}

// SMSConfig configures the SMS delivery gateway. An empty URL logs messages instead.
type SMSConfig struct {
	GatewayURL string `mapstructure:"SMS_GATEWAY_URL"`
	APIKey     string `mapstructure:"SMS_GATEWAY_API_KEY"`
}

// IsDevelopment reports whether the process runs in development mode.
func (c *AppConfig) IsDevelopment() bool {
	return c.Environment == EnvDevelopment
}

// DevBypassRole returns the configured bypass role, or "" outside development.
func (c *AppConfig) DevBypassRole() string {
	if !c.IsDevelopment() {
		return ""
	}
	return strings.TrimSpace(strings.ToLower(c.Auth.DevRole))
}

// Load loads configuration from .env files and environment variables.
func Load(path string) (*AppConfig, error) {
	v := viper.New()

	v.AutomaticEnv()

	v.AddConfigPath(path)
	v.SetConfigName(".env")
	v.SetConfigType("env")

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config AppConfig

	if err := processTags(v, &config); err != nil {
		return nil, err
	}

	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}

	if err := validateRequired(&config); err != nil {
		return nil, err
	}

	switch config.Checkout.OrderNumberScheme {
	case "simple", "random":
	default:
		return nil, fmt.Errorf("invalid ORDER_NUMBER_SCHEME: %q", config.Checkout.OrderNumberScheme)
	}

	return &config, nil
}

// processTags binds every mapstructure key and registers its default in Viper.
func processTags(v *viper.Viper, config interface{}) error {
	val := reflect.ValueOf(config)
	if val.Kind() == reflect.Ptr {
		val = val.Elem()
	}

	t := val.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)

		if field.Type.Kind() == reflect.Struct {
			if err := processTags(v, val.Field(i).Addr().Interface()); err != nil {
				return err
			}
			continue
		}

		key := field.Tag.Get("mapstructure")
		if key == "" {
			continue
		}

		if err := v.BindEnv(key); err != nil {
			return fmt.Errorf("failed to bind %s: %w", key, err)
		}

		if defaultValue := field.Tag.Get("default"); defaultValue != "" {
			v.SetDefault(key, defaultValue)
		}
	}
	return nil
}

// validateRequired checks if fields marked as required have non-zero values.
func validateRequired(config interface{}) error {
	val := reflect.ValueOf(config)
	if val.Kind() == reflect.Ptr {
		val = val.Elem()
	}

	t := val.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)

		if field.Type.Kind() == reflect.Struct {
			if err := validateRequired(val.Field(i).Addr().Interface()); err != nil {
				return err
			}
			continue
		}

		if field.Tag.Get("required") == "true" && val.Field(i).IsZero() {
			return fmt.Errorf("missing required configuration: %s", field.Tag.Get("mapstructure"))
		}
	}
	return nil
}
