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

package logger

import (
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultServiceName  = "signalradar"
	defaultBatchTimeout = 5 * time.Second
)

// DefaultConfig returns the logging configuration described by LOG_LEVEL,
// DEBUG, LOG_OUTPUT and LOG_TIME_FORMAT.
func DefaultConfig() *Config {
	return &Config{
		Level:      envString("LOG_LEVEL", "info"),
		Debug:      envBool("DEBUG"),
		Output:     envString("LOG_OUTPUT", "stdout"),
		TimeFormat: os.Getenv("LOG_TIME_FORMAT"),
		OTel:       DefaultOTelConfig(),
	}
}

// DefaultOTelConfig reads the standard OTEL_* variables of the log exporter.
func DefaultOTelConfig() OTelConfig {
	timeout := defaultBatchTimeout
	if d, err := time.ParseDuration(os.Getenv("OTEL_EXPORTER_OTLP_LOGS_TIMEOUT")); err == nil && d > 0 {
		timeout = d
	}

	return OTelConfig{
		Enabled:      envBool("OTEL_LOGS_ENABLED"),
		Endpoint:     os.Getenv("OTEL_EXPORTER_OTLP_LOGS_ENDPOINT"),
		Headers:      parseHeaders(os.Getenv("OTEL_EXPORTER_OTLP_LOGS_HEADERS")),
		ServiceName:  envString("OTEL_SERVICE_NAME", defaultServiceName),
		BatchTimeout: Duration(timeout),
		Insecure:     envBool("OTEL_EXPORTER_OTLP_LOGS_INSECURE"),
	}
}

// parseHeaders reads "key=value" pairs separated by commas.
func parseHeaders(raw string) map[string]string {
	headers := make(map[string]string)

	for _, pair := range strings.Split(raw, ",") {
		k, v, ok := strings.Cut(pair, "=")
		if !ok || strings.TrimSpace(k) == "" {
			continue
		}

		headers[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}

	return headers
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}

func envBool(key string) bool {
	b, _ := strconv.ParseBool(os.Getenv(key))

	return b
}
