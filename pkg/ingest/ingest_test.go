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

package ingest

import (
	"context"
	"sync"

	"github.com/carverauto/signalradar/pkg/models"
)

// recordingSink collects everything a source delivers.
type recordingSink struct {
	mu       sync.Mutex
	payloads []string
	states   []models.ConnectionState
}

func (r *recordingSink) Deliver(_ context.Context, _ uint64, payload []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.payloads = append(r.payloads, string(payload))

	return nil
}

func (r *recordingSink) ConnectionChanged(_ context.Context, _ uint64, state models.ConnectionState) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.states = append(r.states, state)

	return nil
}

func (r *recordingSink) Payloads() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]string(nil), r.payloads...)
}

func (r *recordingSink) States() []models.ConnectionState {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]models.ConnectionState(nil), r.states...)
}
