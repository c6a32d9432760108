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

package http

import (
	"bytes"
	"crypto/tls"
	"encoding/base64"
	"io"
	"net/http"
	"time"

	"github.com/go-errors/errors"
	"github.com/noctarius/mongo-sql-replicator/spi/config"
	"github.com/noctarius/mongo-sql-replicator/spi/encoding"
	"github.com/noctarius/mongo-sql-replicator/spi/sink"
)

const topicHeader = "X-Topic"

func init() {
	sink.RegisterSink(config.Http, newHttpSink)
}

// httpSink posts every envelope to a single endpoint. The topic is
// passed as a header.
type httpSink struct {
	client  *http.Client
	encoder *encoding.JsonEncoder
	address string
	headers http.Header
}

func newHttpSink(
	c *config.Config,
) (sink.Sink, error) {

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if config.GetOrDefault(c, config.PropertyHttpTlsEnabled, false) {
		transport.TLSClientConfig = &tls.Config{
			InsecureSkipVerify: config.GetOrDefault(c, config.PropertyHttpTlsSkipVerify, false),
			ClientAuth:         config.GetOrDefault(c, config.PropertyHttpTlsClientAuth, tls.NoClientCert),
		}
	}

	headers := make(http.Header)
	headers.Set("Content-Type", "application/json")

	authenticationType := config.GetOrDefault(c, config.PropertyHttpAuthenticationType, config.NoneAuthentication)
	switch authenticationType {
	case config.BasicAuthentication:
		headers.Set("Authorization", "Basic "+basicAuth(
			config.GetOrDefault(c, config.PropertyHttpBasicAuthenticationUsername, ""),
			config.GetOrDefault(c, config.PropertyHttpBasicAuthenticationPassword, ""),
		))
	case config.HeaderAuthentication:
		headers.Set(
			config.GetOrDefault(c, config.PropertyHttpHeaderAuthenticationHeaderName, ""),
			config.GetOrDefault(c, config.PropertyHttpHeaderAuthenticationHeaderValue, ""),
		)
	case config.NoneAuthentication:
	default:
		return nil, errors.Errorf("http authentication type '%s' doesn't exist", authenticationType)
	}

	return &httpSink{
		client:  &http.Client{Transport: transport, Timeout: 30 * time.Second},
		encoder: encoding.NewJsonEncoderWithConfig(c),
		address: config.GetOrDefault(c, config.PropertyHttpUrl, "http://localhost:80"),
		headers: headers,
	}, nil
}

func basicAuth(
	username, password string,
) string {

	return base64.StdEncoding.EncodeToString([]byte(username + ":" + password))
}

func (h *httpSink) Start() error {
	return nil
}

func (h *httpSink) Stop() error {
	h.client.CloseIdleConnections()
	return nil
}

func (h *httpSink) Emit(
	_ time.Time, topicName string, _, envelope sink.Struct,
) error {

	payload, err := h.encoder.Marshal(envelope)
	if err != nil {
		return err
	}

	request, err := http.NewRequest(http.MethodPost, h.address, bytes.NewReader(payload))
	if err != nil {
		return errors.Wrap(err, 0)
	}
	request.Header = h.headers.Clone()
	request.Header.Set(topicHeader, topicName)

	response, err := h.client.Do(request)
	if err != nil {
		return errors.Wrap(err, 0)
	}
	defer response.Body.Close()
	_, _ = io.Copy(io.Discard, response.Body)

	if response.StatusCode >= http.StatusMultipleChoices {
		return errors.Errorf("http sink received status %s", response.Status)
	}
	return nil
}
