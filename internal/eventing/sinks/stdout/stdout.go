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

package stdout

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/noctarius/mongo-sql-replicator/spi/config"
	"github.com/noctarius/mongo-sql-replicator/spi/encoding"
	"github.com/noctarius/mongo-sql-replicator/spi/sink"
)

func init() {
	sink.RegisterSink(config.Stdout, newStdoutSink)
}

// stdoutSink writes one line per notification, the topic followed by
// the JSON envelope.
type stdoutSink struct {
	mutex   sync.Mutex
	writer  io.Writer
	encoder *encoding.JsonEncoder
}

func newStdoutSink(
	c *config.Config,
) (sink.Sink, error) {

	return &stdoutSink{
		writer:  os.Stdout,
		encoder: encoding.NewJsonEncoderWithConfig(c),
	}, nil
}

func (s *stdoutSink) Start() error {
	return nil
}

func (s *stdoutSink) Stop() error {
	return nil
}

func (s *stdoutSink) Emit(
	_ time.Time, topicName string, _, envelope sink.Struct,
) error {

	data, err := s.encoder.Marshal(envelope)
	if err != nil {
		return err
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()
	_, err = fmt.Fprintf(s.writer, "===> /%s: %s\n", topicName, data)
	return err
}
