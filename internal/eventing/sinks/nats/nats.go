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

package nats

import (
	"context"
	"time"

	"github.com/go-errors/errors"
	"github.com/nats-io/nats.go"
	"github.com/noctarius/mongo-sql-replicator/spi/config"
	"github.com/noctarius/mongo-sql-replicator/spi/encoding"
	"github.com/noctarius/mongo-sql-replicator/spi/sink"
	"github.com/noctarius/mongo-sql-replicator/spi/version"
)

func init() {
	sink.RegisterSink(config.NATS, newNatsSink)
}

// natsSink publishes to JetStream, the subject being the topic name
// and the message key travelling in the "key" header.
type natsSink struct {
	address   string
	options   []nats.Option
	client    *nats.Conn
	jetStream nats.JetStreamContext
	encoder   *encoding.JsonEncoder
}

func newNatsSink(
	c *config.Config,
) (sink.Sink, error) {

	address := config.GetOrDefault(c, config.PropertyNatsAddress, "nats://localhost:4222")
	authorization := config.GetOrDefault(c, config.PropertyNatsAuthorization, config.UserInfo)

	var authOption nats.Option
	switch authorization {
	case config.UserInfo:
		username := config.GetOrDefault(c, config.PropertyNatsUserinfoUsername, "")
		password := config.GetOrDefault(c, config.PropertyNatsUserinfoPassword, "")
		authOption = nats.UserInfo(username, password)
	case config.Credentials:
		certificate := config.GetOrDefault(c, config.PropertyNatsCredentialsCertificate, "")
		seeds := config.GetOrDefault(c, config.PropertyNatsCredentialsSeeds, []string{})
		authOption = nats.UserCredentials(certificate, seeds...)
	case config.Jwt:
		jwt := config.GetOrDefault(c, config.PropertyNatsJwt, "")
		seed := config.GetOrDefault(c, config.PropertyNatsJwtSeed, "")
		authOption = nats.UserJWTAndSeed(jwt, seed)
	default:
		return nil, errors.Errorf("NATS authorization type '%s' doesn't exist", authorization)
	}

	return &natsSink{
		address: address,
		options: []nats.Option{
			authOption,
			nats.Name(version.BinName),
			nats.RetryOnFailedConnect(true),
			nats.ReconnectWait(time.Second * 10),
			nats.ReconnectBufSize(1024 * 1024),
			nats.MaxReconnects(-1),
		},
		encoder: encoding.NewJsonEncoderWithConfig(c),
	}, nil
}

func (n *natsSink) Start() error {
	client, err := nats.Connect(n.address, n.options...)
	if err != nil {
		return errors.Wrap(err, 0)
	}

	jetStream, err := client.JetStream()
	if err != nil {
		client.Close()
		return errors.Wrap(err, 0)
	}

	n.client = client
	n.jetStream = jetStream
	return nil
}

func (n *natsSink) Stop() error {
	if n.client != nil {
		n.client.Close()
	}
	return nil
}

func (n *natsSink) Emit(
	_ time.Time, topicName string, key, envelope sink.Struct,
) error {

	keyData, err := n.encoder.Marshal(key)
	if err != nil {
		return err
	}
	envelopeData, err := n.encoder.Marshal(envelope)
	if err != nil {
		return err
	}

	header := nats.Header{}
	header.Add("key", string(keyData))

	_, err = n.jetStream.PublishMsg(
		&nats.Msg{
			Subject: topicName,
			Header:  header,
			Data:    envelopeData,
		},
		nats.Context(context.Background()),
	)
	return err
}
