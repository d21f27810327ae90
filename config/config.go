// Package config loads the process-wide engine settings: default byte
// order, strict bit handling, specification files to preload, and the
// transport receive timeout. Settings come from an optional
// wirespec.{toml,yaml,json} file with WIRESPEC_* environment overrides
// on top; nothing in here is a hidden global, callers thread the
// loaded Engine where they need it.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/danmuck/wirespec/bytecodec"
	"github.com/danmuck/wirespec/frame"
	"github.com/danmuck/wirespec/internal/logging"
	"github.com/danmuck/wirespec/spec"
	"github.com/danmuck/wirespec/transport"
)

var ErrConfig = errors.New("config: engine configuration cannot be used")

// Engine is the loaded configuration.
type Engine struct {
	ByteOrder      string        `mapstructure:"byte_order"`
	StrictBits     bool          `mapstructure:"strict_bits"`
	SpecFiles      []string      `mapstructure:"spec_files"`
	ReceiveTimeout time.Duration `mapstructure:"receive_timeout"`
}

// Default returns the compiled-in settings.
func Default() Engine {
	return Engine{
		ByteOrder:      "big",
		ReceiveTimeout: 1 * time.Second,
	}
}

// Load reads the engine configuration. With a path it must exist and
// parse; with an empty path the working directory is searched for
// wirespec.{toml,yaml,json} and defaults apply when nothing is found.
// WIRESPEC_* environment variables override file values either way.
func Load(path string) (Engine, error) {
	v := viper.New()
	defaults := Default()
	v.SetDefault("byte_order", defaults.ByteOrder)
	v.SetDefault("strict_bits", defaults.StrictBits)
	v.SetDefault("spec_files", defaults.SpecFiles)
	v.SetDefault("receive_timeout", defaults.ReceiveTimeout)
	v.SetEnvPrefix("WIRESPEC")
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Engine{}, fmt.Errorf("%w: %s: %v", ErrConfig, path, err)
		}
	} else {
		v.SetConfigName("wirespec")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Engine{}, fmt.Errorf("%w: %v", ErrConfig, err)
			}
		}
	}

	var e Engine
	if err := v.Unmarshal(&e); err != nil {
		return Engine{}, fmt.Errorf("%w: %v", ErrConfig, err)
	}
	if err := e.Validate(); err != nil {
		return Engine{}, err
	}
	logging.Debugf("config: loaded file=%s order=%s specs=%d", v.ConfigFileUsed(), e.ByteOrder, len(e.SpecFiles))
	return e, nil
}

// Validate rejects settings the engine cannot run with.
func (e Engine) Validate() error {
	if _, err := bytecodec.ParseOrder(strings.TrimSpace(e.ByteOrder)); err != nil {
		return fmt.Errorf("%w: byte_order %q", ErrConfig, e.ByteOrder)
	}
	if e.ReceiveTimeout < 0 {
		return fmt.Errorf("%w: receive_timeout %s", ErrConfig, e.ReceiveTimeout)
	}
	return nil
}

// Order returns the configured byte order. Validate first.
func (e Engine) Order() bytecodec.Order {
	order, err := bytecodec.ParseOrder(strings.TrimSpace(e.ByteOrder))
	if err != nil {
		return bytecodec.BigEndian
	}
	return order
}

// FrameOptions translates the settings into frame construction options.
func (e Engine) FrameOptions() []frame.Option {
	opts := []frame.Option{frame.WithByteOrder(e.Order())}
	if e.StrictBits {
		opts = append(opts, frame.WithStrictBits())
	}
	return opts
}

// EndpointOptions translates the settings into transport dial options.
func (e Engine) EndpointOptions() []transport.Option {
	return []transport.Option{transport.WithReceiveTimeout(e.ReceiveTimeout)}
}

// Registry loads every configured specification file into one registry.
func (e Engine) Registry() (*spec.Registry, error) {
	r := spec.New()
	for _, path := range e.SpecFiles {
		if err := r.Load(path); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrConfig, err)
		}
	}
	return r, nil
}
