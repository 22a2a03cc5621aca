// Package logging provides structured logging configuration.
package logging

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds logging configuration options.
type Config struct {
	Level  string // debug|info|warn|error
	Format string // json|console
}

// New creates a new configured zap logger.
func New(cfg Config) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	if cfg.Level != "" {
		if err := level.Set(strings.ToLower(cfg.Level)); err != nil {
			return nil, err
		}
	}

	format := strings.ToLower(cfg.Format)
	if format == "" {
		format = "json"
	}

	var zcfg zap.Config
	if format == "console" {
		zcfg = zap.NewDevelopmentConfig()
	} else {
		zcfg = zap.NewProductionConfig()
	}

	zcfg.Level = zap.NewAtomicLevelAt(level)
	zcfg.EncoderConfig.TimeKey = "ts"
	zcfg.EncoderConfig.LevelKey = "level"
	zcfg.EncoderConfig.MessageKey = "msg"
	zcfg.EncoderConfig.CallerKey = "caller"
	zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := zcfg.Build(zap.AddCaller(), zap.AddCallerSkip(0))
	if err != nil {
		return nil, err
	}

	logger = logger.With(zap.String("service", "ricochet"))

	return logger, nil
}

// Sync flushes any buffered log entries.
func Sync(logger *zap.Logger) {
	_ = logger.Sync()
}

// FromEnv creates a Config from environment variables.
func FromEnv() Config {
	return Config{
		Level:  getenv("RICOCHET_LOG_LEVEL", "info"),
		Format: getenv("RICOCHET_LOG_FORMAT", "json"),
	}
}

func getenv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

// Token returns a zap field for a correlation token.
func Token(token string) zap.Field { return zap.String("token", token) }

// SourceIP returns a zap field for the source of a callback.
func SourceIP(ip string) zap.Field { return zap.String("source_ip", ip) }

// Path returns a zap field for an HTTP path.
func Path(path string) zap.Field { return zap.String("path", path) }

// QName returns a zap field for a DNS query name.
func QName(qname string) zap.Field { return zap.String("qname", qname) }

// QType returns a zap field for a DNS query type.
func QType(qtype string) zap.Field { return zap.String("qtype", qtype) }

// Severity returns a zap field for a finding's severity tier.
func Severity(sev string) zap.Field { return zap.String("severity", sev) }

// Interval returns a zap field for a poller's backoff interval, in seconds.
func Interval(seconds float64) zap.Field { return zap.Float64("interval_s", seconds) }

// Net returns a zap field for a transport type (udp/tcp).
func Net(net string) zap.Field { return zap.String("net", net) }

// Port returns a zap field for a listening port.
func Port(port int) zap.Field { return zap.Int("port", port) }
