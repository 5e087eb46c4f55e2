package config

import (
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
)

// Env is the deployment environment of the service.
type Env string

const (
	Development Env = "development"
	Production  Env = "production"
	Test        Env = "test"
)

const (
	defaultHTTPPort       = 1997
	defaultRequestTimeout = 30 * time.Second
	defaultMaxBodySize    = 1 << 20
	defaultSMTPPort       = 1025
)

// Settings is the validated service configuration.
type Settings struct {
	Env      Env    `validate:"oneof=development production test"`
	HTTPPort int    `validate:"min=1,max=65535"`
	LogLevel string `validate:"oneof=trace debug info notice warn error fatal"`
	LogDir   string `validate:"required"`

	DBName   string `validate:"required"`
	MongoURI string `validate:"required,startswith=mongodb"`

	JWTAccessSecret  string `validate:"required"`
	JWTRefreshSecret string `validate:"required"`

	SenderEmail  string `validate:"required,email"`
	Domain       string `validate:"required,url"`
	SMTPHost     string `validate:"required,hostname|ip"`
	SMTPPort     int    `validate:"min=1,max=65535"`
	SMTPUsername string
	SMTPPassword string

	// TrustProxy makes rate limiting key on X-Forwarded-For.
	TrustProxy bool

	RequestTimeout time.Duration `validate:"gte=0"`
	MaxBodySize    int64         `validate:"gt=0"`
}

func (s *Settings) IsProduction() bool {
	return s.Env == Production
}

// Load reads the settings from conf and validates them. Every invalid or missing
// variable is reported in the returned error.
func Load(conf Config) (*Settings, error) {
	var (
		s   Settings
		err error
	)

	s.Env = Env(strings.ToLower(conf.GetOrDefault("APP_ENV", conf.GetOrDefault("NODE_ENV", string(Development)))))
	s.LogLevel = strings.ToLower(conf.GetOrDefault("LOG_LEVEL", "info"))
	s.LogDir = conf.GetOrDefault("LOG_DIR", "logs")
	s.DBName = conf.GetOrDefault("DB_NAME", "billify")
	s.MongoURI = conf.GetOrDefault("MONGO_URI", "mongodb://localhost:27017")
	s.JWTAccessSecret = conf.Get("JWT_ACCESS_SECRET_KEY")
	s.JWTRefreshSecret = conf.Get("JWT_REFRESH_SECRET_KEY")
	s.SenderEmail = conf.GetOrDefault("SENDER_EMAIL", "support@billify.site")
	s.Domain = strings.TrimSuffix(conf.GetOrDefault("DOMAIN", "http://localhost:8080"), "/")
	s.SMTPHost = conf.GetOrDefault("SMTP_HOST", "localhost")
	s.SMTPUsername = conf.Get("SMTP_USERNAME")
	s.SMTPPassword = conf.Get("SMTP_PASSWORD")
	s.TrustProxy, _ = strconv.ParseBool(conf.GetOrDefault("TRUST_PROXY", "false"))

	if s.HTTPPort, err = intSetting(conf, "HTTP_PORT", conf.GetOrDefault("PORT", strconv.Itoa(defaultHTTPPort))); err != nil {
		return nil, err
	}

	if s.SMTPPort, err = intSetting(conf, "SMTP_PORT", strconv.Itoa(defaultSMTPPort)); err != nil {
		return nil, err
	}

	timeout, err := intSetting(conf, "REQUEST_TIMEOUT", strconv.Itoa(int(defaultRequestTimeout/time.Second)))
	if err != nil {
		return nil, err
	}

	s.RequestTimeout = time.Duration(timeout) * time.Second

	maxBody, err := intSetting(conf, "MAX_BODY_SIZE", strconv.Itoa(defaultMaxBodySize))
	if err != nil {
		return nil, err
	}

	s.MaxBodySize = int64(maxBody)

	if err = validator.New().Struct(&s); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fe.Field()+" ("+fe.Tag()+")")
			}

			return nil, errors.Wrapf(err, "invalid environment variables: %s", strings.Join(fields, ", "))
		}

		return nil, errors.Wrap(err, "invalid environment variables")
	}

	return &s, nil
}

func intSetting(conf Config, key, defaultValue string) (int, error) {
	raw := conf.GetOrDefault(key, defaultValue)

	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid value %q for %s", raw, key)
	}

	return v, nil
}
