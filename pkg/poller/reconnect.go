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

package poller

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/carverauto/signalradar/pkg/logger"
	"github.com/carverauto/signalradar/pkg/models"
)

// Reconnector asks the controller to reopen a camera stream.
type Reconnector struct {
	base   string
	client *http.Client
	logger logger.Logger
}

// NewReconnector creates a reconnector for the endpoint at base.
func NewReconnector(base string, client *http.Client, log logger.Logger) *Reconnector {
	if client == nil {
		client = &http.Client{Timeout: defaultRequestTimeout}
	}

	return &Reconnector{base: base, client: client, logger: log}
}

// Reconnect issues GET <base>?dir=<dir>. The response is drained and ignored;
// only transport errors are returned.
func (r *Reconnector) Reconnect(ctx context.Context, dir models.Direction) error {
	if r.base == "" {
		return ErrNoEndpoint
	}

	u, err := url.Parse(r.base)
	if err != nil {
		return fmt.Errorf("parse reconnect url: %w", err)
	}

	q := u.Query()
	q.Set("dir", string(dir))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), http.NoBody)
	if err != nil {
		return fmt.Errorf("create reconnect request: %w", err)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		r.logger.Warn().Err(err).Str("dir", string(dir)).Msg("Camera reconnect request failed")

		return fmt.Errorf("request reconnect: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	_, _ = io.Copy(io.Discard, resp.Body)

	r.logger.Info().Str("dir", string(dir)).Int("status", resp.StatusCode).Msg("Camera reconnect requested")

	return nil
}
