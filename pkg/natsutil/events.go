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

// Package natsutil publishes dashboard events to NATS JetStream.
package natsutil

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/carverauto/signalradar/pkg/logger"
	"github.com/carverauto/signalradar/pkg/models"
)

const (
	eventSource       = "signalradar/dashboard"
	violationType     = "com.carverauto.signalradar.violation"
	alertType         = "com.carverauto.signalradar.alert"
	violationSubtopic = "violation"
	alertSubtopic     = "alert"
)

// EventPublisher provides methods for publishing CloudEvents to NATS JetStream.
type EventPublisher struct {
	js     jetstream.JetStream
	stream string
	prefix string
	now    func() time.Time
}

// NewEventPublisher creates a new EventPublisher for the specified stream.
func NewEventPublisher(js jetstream.JetStream, streamName, subjectPrefix string) *EventPublisher {
	return &EventPublisher{
		js:     js,
		stream: streamName,
		prefix: strings.TrimSuffix(subjectPrefix, "."),
		now:    time.Now,
	}
}

// Subject returns the subject events of the given kind are published on.
func (p *EventPublisher) Subject(kind string) string {
	return p.prefix + "." + kind
}

// PublishViolation publishes a red-light violation.
func (p *EventPublisher) PublishViolation(ctx context.Context, v models.Violation) error {
	return p.publish(ctx, violationSubtopic, violationType, v)
}

// PublishAlert publishes an operator alert.
func (p *EventPublisher) PublishAlert(ctx context.Context, a models.Alert) error {
	return p.publish(ctx, alertSubtopic, alertType, a)
}

func (p *EventPublisher) publish(ctx context.Context, kind, eventType string, data interface{}) error {
	ts := p.now()

	event := models.CloudEvent{
		SpecVersion:     "1.0",
		ID:              uuid.New().String(),
		Source:          eventSource,
		Type:            eventType,
		DataContentType: "application/json",
		Subject:         p.Subject(kind),
		Time:            &ts,
		Data:            data,
	}

	eventBytes, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal %s event: %w", kind, err)
	}

	if _, err := p.js.Publish(ctx, event.Subject, eventBytes); err != nil {
		return fmt.Errorf("failed to publish %s event: %w", kind, err)
	}

	return nil
}

// ConnectWithEventPublisher creates a NATS connection with JetStream, makes
// sure the stream captures the configured subjects and returns an EventPublisher.
func ConnectWithEventPublisher(
	ctx context.Context, cfg *models.NATSConfig, log logger.Logger, opts ...nats.Option,
) (*EventPublisher, *nats.Conn, error) {
	nc, err := ConnectWithSecurity(cfg, log, opts...)
	if err != nil {
		return nil, nil, err
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	subject := strings.TrimSuffix(cfg.SubjectPrefix, ".") + ".>"

	if err := ensureStream(ctx, js, cfg.StreamName, subject); err != nil {
		nc.Close()
		return nil, nil, err
	}

	log.Info().Str("stream", cfg.StreamName).Str("subjects", subject).Msg("Event publisher ready")

	return NewEventPublisher(js, cfg.StreamName, cfg.SubjectPrefix), nc, nil
}

// ConnectWithSecurity creates a NATS connection, using mTLS when cfg carries TLS material.
func ConnectWithSecurity(cfg *models.NATSConfig, log logger.Logger, extraOpts ...nats.Option) (*nats.Conn, error) {
	opts := []nats.Option{nats.Name("signalradar")}

	if cfg.TLS != nil {
		tlsConf, err := TLSConfig(cfg.TLS)
		if err != nil {
			return nil, fmt.Errorf("failed to build NATS TLS config: %w", err)
		}

		opts = append(opts, nats.Secure(tlsConf))
	}

	opts = append(opts,
		nats.ErrorHandler(func(_ *nats.Conn, _ *nats.Subscription, err error) {
			log.Warn().Err(err).Msg("NATS error")
		}),
		nats.ConnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("Connected to NATS")
		}),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Warn().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
	)

	opts = append(opts, extraOpts...)

	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	return nc, nil
}

// ensureStream creates the stream, or widens an existing one so that it
// captures subject.
func ensureStream(ctx context.Context, js jetstream.JetStream, name, subject string) error {
	stream, err := js.Stream(ctx, name)
	if err != nil {
		if !isStreamMissingErr(err) {
			return fmt.Errorf("failed to look up stream %s: %w", name, err)
		}

		_, err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
			Name:     name,
			Subjects: []string{subject},
		})
		if err != nil {
			return fmt.Errorf("failed to create stream %s: %w", name, err)
		}

		return nil
	}

	info := stream.CachedInfo()
	if info == nil {
		return nil
	}

	subjects := ensureSubjectList(append([]string(nil), info.Config.Subjects...), subject)
	if len(subjects) == len(info.Config.Subjects) {
		return nil
	}

	streamCfg := info.Config
	streamCfg.Subjects = subjects

	if _, err := js.UpdateStream(ctx, streamCfg); err != nil {
		return fmt.Errorf("failed to update stream %s: %w", name, err)
	}

	return nil
}

// ensureSubjectList appends subject unless a pattern in subjects already matches it.
func ensureSubjectList(subjects []string, subject string) []string {
	for _, pattern := range subjects {
		if matchesSubject(pattern, subject) {
			return subjects
		}
	}

	return append(subjects, subject)
}

// matchesSubject reports whether pattern (which may use * and > wildcards)
// covers subject. A ">" token in subject is only covered by ">".
func matchesSubject(pattern, subject string) bool {
	if pattern == subject {
		return true
	}

	pTokens := strings.Split(pattern, ".")
	sTokens := strings.Split(subject, ".")

	for i, p := range pTokens {
		if p == ">" {
			return len(sTokens) > i
		}

		if i >= len(sTokens) {
			return false
		}

		if sTokens[i] == ">" || (p != "*" && p != sTokens[i]) {
			return false
		}
	}

	return len(pTokens) == len(sTokens)
}

func isStreamMissingErr(err error) bool {
	return errors.Is(err, jetstream.ErrStreamNotFound) ||
		errors.Is(err, jetstream.ErrNoStreamResponse) ||
		errors.Is(err, nats.ErrStreamNotFound) ||
		errors.Is(err, nats.ErrNoStreamResponse) ||
		errors.Is(err, nats.ErrNoResponders)
}
