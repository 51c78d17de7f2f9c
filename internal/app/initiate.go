package app

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nats-io/nats.go"
	"github.com/nsqio/go-nsq"
	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"
	"github.com/shandysiswandi/mfacore/internal/pkg/clock"
	"github.com/shandysiswandi/mfacore/internal/pkg/config"
	"github.com/shandysiswandi/mfacore/internal/pkg/goroutine"
	"github.com/shandysiswandi/mfacore/internal/pkg/hash"
	"github.com/shandysiswandi/mfacore/internal/pkg/instrument"
	"github.com/shandysiswandi/mfacore/internal/pkg/mail"
	"github.com/shandysiswandi/mfacore/internal/pkg/messaging"
	"github.com/shandysiswandi/mfacore/internal/pkg/mfacrypto"
	"github.com/shandysiswandi/mfacore/internal/pkg/sms"
	"github.com/shandysiswandi/mfacore/internal/pkg/throttle"
	"github.com/shandysiswandi/mfacore/internal/pkg/uid"
	"github.com/shandysiswandi/mfacore/internal/pkg/validator"
	"google.golang.org/api/option"
)

const (
	defaultConfigPath = "./config/config.yaml"
	envPrefix         = "MFACORE"

	// hkdf info of the challenge code digest key
	codeHashKeyInfo = "hmac/challenge_code"
)

func defaults() map[string]any {
	return map[string]any{
		"app.tz":                             "UTC",
		"app.max_goroutine":                  64,
		"app.snowflake_node":                 1,
		"instrument.service_name":            "mfacore",
		"instrument.log_level":               "info",
		"instrument.trace_sample_ratio":      0.1,
		"instrument.metric_interval_seconds": 30,
		"database.pool.max_conns":            10,
		"messaging.driver":                   messaging.DriverNone,
		"mfa.methods":                        "authenticator",
		"mfa.totp.issuer":                    "MFACore",
		"mfa.totp.period_seconds":            30,
		"mfa.totp.skew":                      1,
		"mfa.code.length":                    6,
		"mfa.code.expiration_minutes":        10,
		"mfa.throttle.max_attempts":          5,
		"mfa.throttle.window_seconds":        900,
		"mfa.delivery.retry.max_retries":     0,
		"mfa.delivery.retry.base_millis":     200,
		"sms.smslocal.timeout_seconds":       15,
	}
}

func (a *App) initConfig() error {
	path := a.opts.ConfigPath
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	if path == "" {
		path = defaultConfigPath
	}

	cfg, err := config.NewViper(path, config.WithDefaults(defaults()), config.WithEnvPrefix(envPrefix))
	if err != nil {
		return err
	}
	a.config = cfg

	loc, err := time.LoadLocation(cfg.GetString("app.tz"))
	if err != nil {
		return fmt.Errorf("app.tz: %w", err)
	}
	a.clock = clock.NewInLocation(loc)

	return nil
}

func (a *App) initInstrument() error {
	ins, err := instrument.New(a.ctx, &instrument.Config{
		Enabled:          a.config.GetBool("instrument.enabled"),
		ServiceName:      a.config.GetString("instrument.service_name"),
		ServiceVersion:   a.config.GetString("instrument.service_version"),
		Environment:      a.config.GetString("instrument.env"),
		OTLPEndpoint:     a.config.GetString("instrument.otlp_endpoint"),
		OTLPSecure:       a.config.GetBool("instrument.otlp_secure"),
		TraceSampleRatio: a.config.GetFloat64("instrument.trace_sample_ratio"),
		MetricsInterval:  a.config.GetSecond("instrument.metric_interval_seconds"),
		MaskFields:       a.config.GetArray("instrument.log_mask_fields"),
		LogLevel:         a.config.GetString("instrument.log_level"),
		LogOutput:        a.opts.LogOutput,
	})
	if err != nil {
		return err
	}
	a.ins = ins

	return nil
}

func (a *App) initLibraries() error {
	a.uuid = uid.NewUUID()
	a.goroutine = goroutine.NewManager(a.config.GetInt("app.max_goroutine"))

	v, err := validator.NewV10Validator()
	if err != nil {
		return err
	}
	a.validator = v

	snow, err := uid.NewSnowflake(int64(a.config.GetInt("app.snowflake_node")))
	if err != nil {
		return err
	}
	a.uid = snow

	master, err := base64.StdEncoding.DecodeString(strings.TrimSpace(a.config.GetString("mfa.secret")))
	if err != nil {
		return fmt.Errorf("mfa.secret: %w", err)
	}

	keys, err := mfacrypto.NewHKDFKeyProvider(master)
	if err != nil {
		return fmt.Errorf("mfa.secret: %w", err)
	}
	a.encryptor = mfacrypto.NewAESGCM(keys, nil)

	digestKey, err := mfacrypto.DeriveKey(master, codeHashKeyInfo, 32)
	if err != nil {
		return fmt.Errorf("mfa.secret: %w", err)
	}
	a.codeHash = hash.NewHMACSHA256(digestKey)

	return nil
}

func (a *App) initDatabase() error {
	cfg, err := pgxpool.ParseConfig(a.config.GetString("database.url"))
	if err != nil {
		return fmt.Errorf("parse database.url: %w", err)
	}

	cfg.MaxConns = a.config.GetInt32("database.pool.max_conns")
	cfg.MinConns = a.config.GetInt32("database.pool.min_conns")
	cfg.MaxConnLifetime = a.config.GetSecond("database.pool.max_conn_lifetime_seconds")
	cfg.MaxConnIdleTime = a.config.GetSecond("database.pool.max_conn_idle_seconds")
	if v := a.config.GetSecond("database.pool.health_check_period_seconds"); v > 0 {
		cfg.HealthCheckPeriod = v
	}

	pool, err := pgxpool.NewWithConfig(a.ctx, cfg)
	if err != nil {
		return err
	}
	a.dbConn = pool

	pingCtx, cancel := context.WithTimeout(a.ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}

	return nil
}

func (a *App) initCache() error {
	opt, err := redis.ParseURL(a.config.GetString("redis.url"))
	if err != nil {
		return fmt.Errorf("parse redis.url: %w", err)
	}

	rdb := redis.NewClient(opt)
	a.cacheConn = rdb

	pingCtx, cancel := context.WithTimeout(a.ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}

	limiter, err := throttle.NewRedis(rdb,
		a.config.GetInt("mfa.throttle.max_attempts"),
		a.config.GetSecond("mfa.throttle.window_seconds"),
	)
	if err != nil {
		return err
	}
	a.throttle = limiter

	return nil
}

// initMail leaves the mailer nil when mail.driver is empty; the usecase then
// refuses to start if email is offered.
func (a *App) initMail() error {
	var (
		client mail.Mail
		err    error
	)

	switch driver := strings.TrimSpace(a.config.GetString("mail.driver")); driver {
	case "":
		return nil
	case "smtp":
		client, err = mail.NewSMTP(mail.SMTPConfig{
			Host:     a.config.GetString("mail.smtp.host"),
			Port:     a.config.GetInt("mail.smtp.port"),
			Username: a.config.GetString("mail.smtp.username"),
			Password: a.config.GetString("mail.smtp.password"),
			From:     a.config.GetString("mail.from"),
		})
	case "postmark":
		client, err = mail.NewPostmark(mail.PostmarkConfig{
			ServerToken:  a.config.GetString("mail.postmark.server_token"),
			AccountToken: a.config.GetString("mail.postmark.account_token"),
			From:         a.config.GetString("mail.from"),
			BaseURL:      a.config.GetString("mail.postmark.base_url"),
		})
	default:
		return fmt.Errorf("unknown mail.driver %q", driver)
	}
	if err != nil {
		return err
	}

	a.mail = client
	return nil
}

func (a *App) initSMS() error {
	if strings.TrimSpace(a.config.GetString("sms.smslocal.api_key")) == "" {
		return nil
	}

	client, err := sms.NewSMSLocal(sms.SMSLocalConfig{
		APIKey:  a.config.GetString("sms.smslocal.api_key"),
		BaseURL: a.config.GetString("sms.smslocal.base_url"),
		Sender:  a.config.GetString("sms.smslocal.sender"),
		Timeout: a.config.GetSecond("sms.smslocal.timeout_seconds"),
	})
	if err != nil {
		return err
	}

	a.sms = client
	return nil
}

func (a *App) initMessaging() error {
	driver := a.config.GetString("messaging.driver")
	client, err := messaging.NewFromDriver(a.ctx, driver, messaging.FactoryOptions{
		NSQ: messaging.NSQConfig{
			ProducerAddr: a.config.GetString("messaging.nsq.producer_addr"),
			Config: func() *nsq.Config {
				cfg := nsq.NewConfig()
				if v := a.config.GetSecond("messaging.nsq.dial_timeout_seconds"); v > 0 {
					cfg.DialTimeout = v
				}
				if v := a.config.GetSecond("messaging.nsq.write_timeout_seconds"); v > 0 {
					cfg.WriteTimeout = v
				}
				return cfg
			}(),
		},
		NATS: messaging.NATSConfig{
			URL: a.config.GetString("messaging.nats.url"),
			Options: []nats.Option{
				nats.Name(a.config.GetString("instrument.service_name")),
				nats.MaxReconnects(a.config.GetInt("messaging.nats.max_reconnects")),
				nats.Timeout(max(a.config.GetSecond("messaging.nats.timeout_seconds"), time.Second)),
				nats.RetryOnFailedConnect(a.config.GetBool("messaging.nats.retry_on_failed_connect")),
			},
		},
		Kafka: messaging.KafkaConfig{
			Brokers: a.config.GetArray("messaging.kafka.brokers"),
			Dialer: &kafka.Dialer{
				ClientID:  a.config.GetString("instrument.service_name"),
				Timeout:   max(a.config.GetSecond("messaging.kafka.dial_timeout_seconds"), time.Second),
				DualStack: true,
			},
		},
		PubSub: messaging.PubSubConfig{
			ProjectID:     a.config.GetString("messaging.pubsub.project_id"),
			ClientOptions: a.pubSubOptions(),
		},
	})
	if err != nil {
		return fmt.Errorf("messaging driver %q: %w", driver, err)
	}

	a.messaging = client
	return nil
}

func (a *App) pubSubOptions() []option.ClientOption {
	opts := []option.ClientOption{}
	if v := strings.TrimSpace(a.config.GetString("messaging.pubsub.endpoint")); v != "" {
		opts = append(opts, option.WithEndpoint(v))
	}
	if a.config.GetBool("messaging.pubsub.without_auth") {
		opts = append(opts, option.WithoutAuthentication())
	}
	if v := a.config.GetBinary("messaging.pubsub.credentials_json"); len(v) > 0 {
		opts = append(opts, option.WithCredentialsJSON(v))
	}
	return opts
}

func (a *App) initClosers() {
	a.closers = []struct {
		name string
		fn   func(context.Context) error
	}{
		{
			name: "Messaging",
			fn: func(context.Context) error {
				if a.messaging == nil {
					return nil
				}
				return a.messaging.Close()
			},
		},
		{
			name: "Mail",
			fn: func(context.Context) error {
				if a.mail == nil {
					return nil
				}
				return a.mail.Close()
			},
		},
		{
			name: "Redis",
			fn: func(context.Context) error {
				if a.cacheConn == nil {
					return nil
				}
				return a.cacheConn.Close()
			},
		},
		{
			name: "Database",
			fn: func(context.Context) error {
				if a.dbConn != nil {
					a.dbConn.Close()
				}
				return nil
			},
		},
		{
			name: "Instrument",
			fn: func(ctx context.Context) error {
				if a.ins == nil {
					return nil
				}
				return a.ins.Shutdown(ctx)
			},
		},
		{
			name: "Config",
			fn: func(context.Context) error {
				if a.config == nil {
					return nil
				}
				return a.config.Close()
			},
		},
	}
}
