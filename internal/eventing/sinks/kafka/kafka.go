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

package kafka

import (
	"crypto/tls"
	"time"

	"github.com/IBM/sarama"
	"github.com/go-errors/errors"
	"github.com/noctarius/mongo-sql-replicator/spi/config"
	"github.com/noctarius/mongo-sql-replicator/spi/encoding"
	"github.com/noctarius/mongo-sql-replicator/spi/sink"
	"github.com/noctarius/mongo-sql-replicator/spi/version"
)

func init() {
	sink.RegisterSink(config.Kafka, newKafkaSink)
}

type kafkaSink struct {
	brokers  []string
	config   *sarama.Config
	producer sarama.SyncProducer
	encoder  *encoding.JsonEncoder
}

func newKafkaSink(
	c *config.Config,
) (sink.Sink, error) {

	return &kafkaSink{
		brokers: config.GetOrDefault(c, config.PropertyKafkaBrokers, []string{"localhost:9092"}),
		config:  producerConfig(c),
		encoder: encoding.NewJsonEncoderWithConfig(c),
	}, nil
}

func producerConfig(
	c *config.Config,
) *sarama.Config {

	producerConfig := sarama.NewConfig()
	producerConfig.ClientID = version.BinName
	producerConfig.Producer.Idempotent = config.GetOrDefault(c, config.PropertyKafkaIdempotent, false)
	producerConfig.Producer.Return.Successes = true
	producerConfig.Producer.RequiredAcks = sarama.WaitForLocal
	producerConfig.Producer.Retry.Max = 10
	if producerConfig.Producer.Idempotent {
		producerConfig.Producer.RequiredAcks = sarama.WaitForAll
		producerConfig.Net.MaxOpenRequests = 1
	}

	if config.GetOrDefault(c, config.PropertyKafkaSaslEnabled, false) {
		producerConfig.Net.SASL.Enable = true
		producerConfig.Net.SASL.User = config.GetOrDefault(c, config.PropertyKafkaSaslUser, "")
		producerConfig.Net.SASL.Password = config.GetOrDefault(c, config.PropertyKafkaSaslPassword, "")
		producerConfig.Net.SASL.Mechanism = config.GetOrDefault[sarama.SASLMechanism](
			c, config.PropertyKafkaSaslMechanism, sarama.SASLTypePlaintext,
		)
	}

	if config.GetOrDefault(c, config.PropertyKafkaTlsEnabled, false) {
		producerConfig.Net.TLS.Enable = true
		producerConfig.Net.TLS.Config = &tls.Config{
			InsecureSkipVerify: config.GetOrDefault(c, config.PropertyKafkaTlsSkipVerify, false),
			ClientAuth:         config.GetOrDefault(c, config.PropertyKafkaTlsClientAuth, tls.NoClientCert),
		}
	}
	return producerConfig
}

func (k *kafkaSink) Start() error {
	producer, err := sarama.NewSyncProducer(k.brokers, k.config)
	if err != nil {
		return errors.Wrap(err, 0)
	}
	k.producer = producer
	return nil
}

func (k *kafkaSink) Stop() error {
	if k.producer == nil {
		return nil
	}
	return k.producer.Close()
}

func (k *kafkaSink) Emit(
	timestamp time.Time, topicName string, key, envelope sink.Struct,
) error {

	keyData, err := k.encoder.Marshal(key)
	if err != nil {
		return err
	}
	envelopeData, err := k.encoder.Marshal(envelope)
	if err != nil {
		return err
	}

	_, _, err = k.producer.SendMessage(&sarama.ProducerMessage{
		Topic:     topicName,
		Key:       sarama.ByteEncoder(keyData),
		Value:     sarama.ByteEncoder(envelopeData),
		Timestamp: timestamp,
	})
	return err
}
