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

package config

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/carverauto/signalradar/pkg/logger"
)

var (
	// ErrDstMustBeNonNilPointer indicates that the destination must be a non-nil pointer.
	ErrDstMustBeNonNilPointer = errors.New("dst must be a non-nil pointer")
	// ErrDstMustBePointerToStruct indicates that the destination must be a pointer to a struct.
	ErrDstMustBePointerToStruct = errors.New("dst must be a pointer to a struct")
	// ErrUnsupportedEnvKind is returned for fields the env loader cannot fill.
	ErrUnsupportedEnvKind = errors.New("unsupported field kind for env config")
)

// EnvConfigLoader loads configuration from environment variables named after
// the json tags of the destination, joined with underscores. For example
// SIGNALRADAR_NATS_URL maps to DashboardConfig.NATS.URL.
//
// Supported fields are strings, bools, integers, durations (any type named
// Duration, given as "500ms"), JSON-encoded maps, nested structs and
// pointers to structs.
type EnvConfigLoader struct {
	logger logger.Logger
	prefix string
}

// NewEnvConfigLoader creates a loader reading variables that start with prefix.
func NewEnvConfigLoader(log logger.Logger, prefix string) *EnvConfigLoader {
	if log == nil {
		log = createBasicLogger()
	}

	return &EnvConfigLoader{
		logger: log,
		prefix: prefix,
	}
}

// Load implements ConfigLoader. A complete JSON document in <prefix>CONFIG_JSON
// takes precedence over individual variables.
func (e *EnvConfigLoader) Load(_ context.Context, _ string, dst interface{}) error {
	if jsonConfig := os.Getenv(e.prefix + "CONFIG_JSON"); jsonConfig != "" {
		if err := json.Unmarshal([]byte(jsonConfig), dst); err != nil {
			return fmt.Errorf("failed to unmarshal %sCONFIG_JSON: %w", e.prefix, err)
		}

		e.logger.Debug().Msg("Loaded configuration from CONFIG_JSON environment variable")

		return nil
	}

	v := reflect.ValueOf(dst)
	if v.Kind() != reflect.Ptr || v.IsNil() {
		return ErrDstMustBeNonNilPointer
	}

	v = v.Elem()
	if v.Kind() != reflect.Struct {
		return ErrDstMustBePointerToStruct
	}

	e.loadStruct(v, e.prefix)
	e.logger.Debug().Str("prefix", e.prefix).Msg("Loaded configuration from environment variables")

	return nil
}

// loadStruct fills the tagged fields of v. A field whose variable does not
// parse is logged and left as it was.
func (e *EnvConfigLoader) loadStruct(v reflect.Value, prefix string) {
	t := v.Type()

	for i := 0; i < t.NumField(); i++ {
		field := v.Field(i)
		if !field.CanSet() {
			continue
		}

		name, _, _ := strings.Cut(t.Field(i).Tag.Get("json"), ",")
		if name == "" || name == "-" {
			continue
		}

		envName := prefix + strings.ToUpper(name)

		if err := e.setField(field, envName); err != nil {
			e.logger.Debug().Err(err).Str("env", envName).Msg("Ignoring environment variable")
		}
	}
}

func (e *EnvConfigLoader) setField(field reflect.Value, envName string) error {
	switch {
	case field.Kind() == reflect.Struct:
		e.loadStruct(field, envName+"_")

		return nil
	case field.Kind() == reflect.Ptr && field.Type().Elem().Kind() == reflect.Struct:
		// Optional sections stay nil unless a variable targets them.
		if field.IsNil() {
			if !hasEnvWithPrefix(envName + "_") {
				return nil
			}

			field.Set(reflect.New(field.Type().Elem()))
		}

		e.loadStruct(field.Elem(), envName+"_")

		return nil
	}

	raw, ok := os.LookupEnv(envName)
	if !ok || raw == "" {
		return nil
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(raw)
	case reflect.Bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return fmt.Errorf("invalid boolean: %w", err)
		}

		field.SetBool(b)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := parseInt(field.Type(), raw)
		if err != nil {
			return err
		}

		field.SetInt(n)
	case reflect.Map:
		if err := json.Unmarshal([]byte(raw), field.Addr().Interface()); err != nil {
			return fmt.Errorf("invalid JSON map: %w", err)
		}
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedEnvKind, field.Kind())
	}

	return nil
}

// parseInt reads durations ("500ms") for types named Duration and base-10
// integers otherwise.
func parseInt(t reflect.Type, raw string) (int64, error) {
	if t.Name() == "Duration" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return 0, fmt.Errorf("invalid duration: %w", err)
		}

		return int64(d), nil
	}

	n, err := strconv.ParseInt(raw, 10, t.Bits())
	if err != nil {
		return 0, fmt.Errorf("invalid integer: %w", err)
	}

	return n, nil
}

// hasEnvWithPrefix reports whether any environment variable starts with prefix.
func hasEnvWithPrefix(prefix string) bool {
	for _, kv := range os.Environ() {
		if strings.HasPrefix(kv, prefix) {
			return true
		}
	}

	return false
}
