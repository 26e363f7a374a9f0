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
	"path/filepath"
	"testing"

	"github.com/carverauto/signalradar/pkg/logger"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateComponentLogger(t *testing.T) {
	log, err := CreateComponentLogger(context.Background(), "store", &logger.Config{
		Level:  "warn",
		Output: filepath.Join(t.TempDir(), "out.log"),
	})
	require.NoError(t, err)

	child := log.WithComponent("history")
	assert.Equal(t, zerolog.WarnLevel, child.GetLevel())

	log.SetDebug(true)
	assert.Equal(t, zerolog.DebugLevel, log.WithComponent("x").GetLevel())
}

func TestDeriveKeepsParentLevel(t *testing.T) {
	parent, err := CreateLogger(context.Background(), &logger.Config{Level: "error", Output: "discard"})
	require.NoError(t, err)

	child := Derive(parent, "ingest")
	assert.Equal(t, zerolog.ErrorLevel, child.WithComponent("ws").GetLevel())
}
