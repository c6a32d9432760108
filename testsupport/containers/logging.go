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

package containers

import (
	"strings"

	"github.com/noctarius/mongo-sql-replicator/internal/supporting/logging"
	"github.com/testcontainers/testcontainers-go"
)

// logConsumer forwards container output to a named logger.
type logConsumer struct {
	logger *logging.Logger
}

func newLogConsumer(
	name string,
) (testcontainers.ContainerCustomizer, error) {

	logger, err := logging.NewLogger(name)
	if err != nil {
		return nil, err
	}
	return testcontainers.WithLogConsumers(&logConsumer{logger: logger}), nil
}

func (l *logConsumer) Accept(
	log testcontainers.Log,
) {

	content := strings.TrimSpace(string(log.Content))
	if log.LogType == testcontainers.StderrLog {
		l.logger.Warnln(content)
	} else {
		l.logger.Debugln(content)
	}
}
