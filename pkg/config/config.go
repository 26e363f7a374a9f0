/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package config loads the dashboard configuration from a JSON file or from
// environment variables, selected by CONFIG_SOURCE.
package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/rs/zerolog"

	"github.com/carverauto/signalradar/pkg/logger"
	"github.com/carverauto/signalradar/pkg/models"
)

var (
	errInvalidConfigSource = errors.New("invalid CONFIG_SOURCE value")
	errInvalidConfigPtr    = errors.New("config must be a non-nil pointer")
)

const (
	configSourceFile = "file"
	configSourceEnv  = "env"

	// DefaultEnvPrefix prefixes every variable read when CONFIG_SOURCE=env.
	DefaultEnvPrefix = "SIGNALRADAR_"
)

// Config holds the configuration loading dependencies.
type Config struct {
	defaultLoader ConfigLoader
	logger        logger.Logger
}

// NewConfig initializes a new Config instance with a default file loader and logger.
// If logger is nil, creates a basic logger for config loading.
func NewConfig(log logger.Logger) *Config {
	if log == nil {
		log = createBasicLogger()
	}

	return &Config{
		defaultLoader: &FileConfigLoader{},
		logger:        log,
	}
}

// basicLogger is the stderr logger used before the configured logger exists.
type basicLogger struct {
	logger zerolog.Logger
}

func createBasicLogger() logger.Logger {
	zlog := zerolog.New(os.Stderr).
		Level(zerolog.WarnLevel).
		With().
		Timestamp().
		Logger()

	return &basicLogger{logger: zlog}
}

func (b *basicLogger) Debug() *zerolog.Event { return b.logger.Debug() }
func (b *basicLogger) Info() *zerolog.Event  { return b.logger.Info() }
func (b *basicLogger) Warn() *zerolog.Event  { return b.logger.Warn() }
func (b *basicLogger) Error() *zerolog.Event { return b.logger.Error() }

func (b *basicLogger) WithComponent(component string) zerolog.Logger {
	return b.logger.With().Str("component", component).Logger()
}

func (b *basicLogger) SetDebug(debug bool) {
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}

	b.logger = b.logger.Level(level)
}

// ValidateConfig validates a configuration if it implements Validator.
func ValidateConfig(cfg interface{}) error {
	v, ok := cfg.(Validator)
	if !ok {
		return nil
	}

	return v.Validate()
}

// LoadAndValidate loads a configuration, resolves relative certificate paths
// against the directory of path, and validates it.
func (c *Config) LoadAndValidate(ctx context.Context, path string, cfg interface{}) error {
	if err := c.loadWithSource(ctx, path, cfg); err != nil {
		return err
	}

	if err := c.normalizeTLSConfig(cfg, filepath.Dir(path)); err != nil {
		return fmt.Errorf("failed to normalize TLS paths: %w", err)
	}

	return ValidateConfig(cfg)
}

func (c *Config) loadWithSource(ctx context.Context, path string, cfg interface{}) error {
	source := strings.ToLower(os.Getenv("CONFIG_SOURCE"))

	var loader ConfigLoader

	switch source {
	case configSourceEnv:
		prefix := os.Getenv("CONFIG_ENV_PREFIX")
		if prefix == "" {
			prefix = DefaultEnvPrefix
		}

		loader = NewEnvConfigLoader(c.logger, prefix)
	case configSourceFile, "":
		loader = c.defaultLoader
	default:
		return fmt.Errorf("%w: %s (expected '%s' or '%s')",
			errInvalidConfigSource, source, configSourceFile, configSourceEnv)
	}

	return loader.Load(ctx, path, cfg)
}

// normalizeTLSConfig walks cfg and resolves the paths of every NATSTLSConfig it holds.
func (c *Config) normalizeTLSConfig(cfg interface{}, baseDir string) error {
	v := reflect.ValueOf(cfg)

	if v.Kind() != reflect.Ptr || v.IsNil() {
		return errInvalidConfigPtr
	}

	v = v.Elem()

	if v.Kind() != reflect.Struct {
		return nil
	}

	c.normalizeStructFields(v, baseDir)

	return nil
}

//nolint:gochecknoglobals // reflect type lookup
var tlsConfigType = reflect.TypeOf((*models.NATSTLSConfig)(nil))

func (c *Config) normalizeStructFields(v reflect.Value, baseDir string) {
	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)

		if !field.CanInterface() || field.Kind() != reflect.Ptr || field.IsNil() {
			continue
		}

		if field.Type() == tlsConfigType {
			c.normalizeTLSPaths(field.Interface().(*models.NATSTLSConfig), baseDir)
			continue
		}

		if field.Elem().Kind() == reflect.Struct {
			c.normalizeStructFields(field.Elem(), baseDir)
		}
	}
}

// normalizeTLSPaths makes relative certificate paths relative to certDir.
func (c *Config) normalizeTLSPaths(tls *models.NATSTLSConfig, certDir string) {
	for _, p := range []*string{&tls.CertFile, &tls.KeyFile, &tls.CAFile} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(certDir, *p)
		}
	}

	c.logger.Debug().
		Str("cert_file", tls.CertFile).
		Str("key_file", tls.KeyFile).
		Str("ca_file", tls.CAFile).
		Msg("Normalized TLS paths")
}
