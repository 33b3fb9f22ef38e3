package config

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/cast"
)

const EnvPrefix = "PLAYGROUND_"

type Config struct {
	Release  bool   `validate:"-"`
	Listen   string `validate:"required"`
	LogLevel string `validate:"required,oneof=trace debug info warn error"`
	LogFile  string `validate:"-"`

	StaticDir   string `validate:"required"`
	CascadeFile string `validate:"required"`
	ModelDir    string `validate:"required"`

	RedisAddress        string `validate:"omitempty,host_port"`
	RedisMaxConnections int    `validate:"gte=1"`
	MaxWorkers          int    `validate:"gte=1"`
	MaxWorkerQueueSize  int    `validate:"gte=1"`

	SentryDSN string `validate:"omitempty,url"`
}

func Defaults() Config {
	return Config{
		Listen:              ":8081",
		LogLevel:            "debug",
		StaticDir:           "static",
		CascadeFile:         "models/haarcascade_frontalface_default.xml",
		ModelDir:            "models/emotion/",
		RedisMaxConnections: 50,
		MaxWorkers:          5,
		MaxWorkerQueueSize:  100,
	}
}

// UploadDir is where uploads and annotated results are stored. It lives
// below the static root so the results can be served directly.
func (c Config) UploadDir() string {
	return filepath.Join(c.StaticDir, "uploads")
}

func (c Config) AsyncEnabled() bool {
	return c.RedisAddress != ""
}

// ApplyEnv overrides c with PLAYGROUND_* environment variables, e.g.
// PLAYGROUND_REDIS_ADDRESS or PLAYGROUND_MAX_WORKERS.
func (c *Config) ApplyEnv() error {
	strs := map[string]*string{
		"LISTEN":        &c.Listen,
		"LOG_LEVEL":     &c.LogLevel,
		"LOG_FILE":      &c.LogFile,
		"STATIC_DIR":    &c.StaticDir,
		"CASCADE_FILE":  &c.CascadeFile,
		"MODEL_DIR":     &c.ModelDir,
		"REDIS_ADDRESS": &c.RedisAddress,
		"SENTRY_DSN":    &c.SentryDSN,
	}
	for key, dst := range strs {
		if v, ok := os.LookupEnv(EnvPrefix + key); ok {
			*dst = v
		}
	}

	ints := map[string]*int{
		"REDIS_MAX_CONNECTIONS": &c.RedisMaxConnections,
		"MAX_WORKERS":           &c.MaxWorkers,
		"MAX_WORKER_QUEUE_SIZE": &c.MaxWorkerQueueSize,
	}
	for key, dst := range ints {
		if v, ok := os.LookupEnv(EnvPrefix + key); ok {
			n, err := cast.ToIntE(v)
			if err != nil {
				return fmt.Errorf("%s%s: %w", EnvPrefix, key, err)
			}
			*dst = n
		}
	}

	if v, ok := os.LookupEnv(EnvPrefix + "RELEASE"); ok {
		b, err := cast.ToBoolE(v)
		if err != nil {
			return fmt.Errorf("%sRELEASE: %w", EnvPrefix, err)
		}
		c.Release = b
	}
	return nil
}

func (c Config) Validate() error {
	v := validator.New()
	if err := v.RegisterValidation("host_port", isHostPort); err != nil {
		return err
	}
	if err := v.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// isHostPort accepts anything net.Dial takes for tcp: "host:port",
// "[::1]:6379" or ":6379". The port has to be numeric.
func isHostPort(fl validator.FieldLevel) bool {
	host, port, err := net.SplitHostPort(fl.Field().String())
	if err != nil {
		return false
	}
	if strings.ContainsAny(host, " \t") {
		return false
	}
	n, err := strconv.Atoi(port)
	return err == nil && n > 0 && n <= 65535
}
