/*
 * Licensed to the Apache Software Foundation (ASF) under one or more
 * contributor license agreements. See the NOTICE file distributed with
 * this work for additional information regarding copyright ownership.
 * The ASF licenses this file to You under the Apache License, Version 2.0
 * (the "License"); you may not use this file except in compliance with
 * the License. You may obtain a copy of the License at
 *
 *    http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package stats

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/go-errors/errors"
	"github.com/noctarius/mongo-sql-replicator/internal/supporting/logging"
	"github.com/noctarius/mongo-sql-replicator/spi/config"
	"github.com/noctarius/mongo-sql-replicator/spi/version"
	"github.com/segmentio/stats/v4"
	"github.com/segmentio/stats/v4/procstats"
	"github.com/segmentio/stats/v4/prometheus"
)

const shutdownTimeout = 5 * time.Second

// Service exposes the collected metrics in the prometheus text
// format under /metrics.
type Service struct {
	logger              *logging.Logger
	statsEnabled        bool
	runtimeStatsEnabled bool
	engine              *stats.Engine
	server              *http.Server
	collector           io.Closer
}

func NewStatsService(
	c *config.Config,
) (*Service, error) {

	logger, err := logging.NewLogger("Stats")
	if err != nil {
		return nil, err
	}

	handler := &prometheus.Handler{
		TrimPrefix: version.BinName,
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", handler)

	return &Service{
		logger:              logger,
		statsEnabled:        config.GetOrDefault(c, config.PropertyStatsEnabled, true),
		runtimeStatsEnabled: config.GetOrDefault(c, config.PropertyRuntimeStatsEnabled, true),
		engine:              stats.NewEngine(version.BinName, handler),
		server: &http.Server{
			Addr:              config.GetOrDefault(c, config.PropertyStatsAddress, ":8081"),
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}, nil
}

func (s *Service) Start() error {
	if !s.statsEnabled {
		return nil
	}

	if s.runtimeStatsEnabled {
		s.collector = procstats.StartCollector(procstats.NewGoMetricsWith(s.engine))
	}

	go func() {
		s.logger.Infof("Serving metrics on %s/metrics", s.server.Addr)
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Errorf("Metrics endpoint failed: %s", err)
		}
	}()
	return nil
}

func (s *Service) Stop() error {
	if !s.statsEnabled {
		return nil
	}

	if s.collector != nil {
		if err := s.collector.Close(); err != nil {
			s.logger.Warnf("Failed to stop runtime collector: %s", err)
		}
	}
	s.engine.Flush()

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return s.server.Shutdown(ctx)
}

func (s *Service) NewReporter(
	prefix string,
) *Reporter {

	return newReporter(s.engine.WithPrefix(prefix), s.statsEnabled)
}

// Reporter records metrics of a single component. A disabled
// reporter silently drops everything.
type Reporter struct {
	statsEnabled bool
	engine       *stats.Engine
}

func newReporter(
	engine *stats.Engine, statsEnabled bool,
) *Reporter {

	return &Reporter{
		statsEnabled: statsEnabled,
		engine:       engine,
	}
}

// NewNoopReporter returns a reporter which records nothing.
func NewNoopReporter() *Reporter {
	return &Reporter{}
}

func (r *Reporter) Incr(
	name string, tags ...stats.Tag,
) {

	if r.statsEnabled {
		r.engine.Incr(name, tags...)
	}
}

func (r *Reporter) Add(
	name string, value any, tags ...stats.Tag,
) {

	if r.statsEnabled {
		r.engine.Add(name, value, tags...)
	}
}

func (r *Reporter) Observe(
	name string, value any, tags ...stats.Tag,
) {

	if r.statsEnabled {
		r.engine.Observe(name, value, tags...)
	}
}

// Tag is a shortcut for stats.T.
func Tag(
	name, value string,
) stats.Tag {

	return stats.T(name, value)
}
