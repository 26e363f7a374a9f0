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

package lifecycle

import (
	"context"
	"fmt"

	"github.com/carverauto/signalradar/pkg/logger"
	"github.com/rs/zerolog"
)

// LoggerImpl implements the logger.Logger interface without using global state
type LoggerImpl struct {
	logger zerolog.Logger
}

// NewLoggerImpl creates a new logger implementation
func NewLoggerImpl(ctx context.Context, config *logger.Config) (*LoggerImpl, error) {
	zlog, err := logger.New(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return &LoggerImpl{logger: zlog}, nil
}

func (l *LoggerImpl) Debug() *zerolog.Event {
	return l.logger.Debug()
}

func (l *LoggerImpl) Info() *zerolog.Event {
	return l.logger.Info()
}

func (l *LoggerImpl) Warn() *zerolog.Event {
	return l.logger.Warn()
}

func (l *LoggerImpl) Error() *zerolog.Event {
	return l.logger.Error()
}

func (l *LoggerImpl) WithComponent(component string) zerolog.Logger {
	return l.logger.With().Str("component", component).Logger()
}

func (l *LoggerImpl) SetDebug(debug bool) {
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}

	l.logger = l.logger.Level(level)
}

// CreateLogger creates a new logger instance with the provided configuration.
// This returns a logger that can be injected into services.
func CreateLogger(ctx context.Context, config *logger.Config) (logger.Logger, error) {
	return NewLoggerImpl(ctx, config)
}

// CreateComponentLogger creates a logger for a specific component.
func CreateComponentLogger(ctx context.Context, component string, config *logger.Config) (logger.Logger, error) {
	loggerImpl, err := NewLoggerImpl(ctx, config)
	if err != nil {
		return nil, err
	}

	return &LoggerImpl{
		logger: loggerImpl.logger.With().Str("component", component).Logger(),
	}, nil
}

// Derive returns a logger for component sharing the parent's output and level.
func Derive(parent logger.Logger, component string) logger.Logger {
	return &LoggerImpl{logger: parent.WithComponent(component)}
}

// ShutdownLogger shuts down the logger, flushing any pending logs.
func ShutdownLogger() error {
	return logger.Shutdown()
}
