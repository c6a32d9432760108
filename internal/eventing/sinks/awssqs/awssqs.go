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

package awssqs

import (
	"crypto/sha256"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/sqs"
	"github.com/go-errors/errors"
	"github.com/noctarius/mongo-sql-replicator/internal/eventing/sinks/awssession"
	"github.com/noctarius/mongo-sql-replicator/spi/config"
	"github.com/noctarius/mongo-sql-replicator/spi/encoding"
	"github.com/noctarius/mongo-sql-replicator/spi/sink"
)

func init() {
	sink.RegisterSink(config.AwsSQS, newAwsSqsSink)
}

// awsSqsSink sends notifications to a FIFO queue. Messages of the same
// topic share a message group to keep their order.
type awsSqsSink struct {
	queueUrl *string
	awsSqs   *sqs.SQS
	encoder  *encoding.JsonEncoder
}

func newAwsSqsSink(
	c *config.Config,
) (sink.Sink, error) {

	queueUrl := config.GetOrDefault[*string](c, config.PropertySqsQueueUrl, nil)
	if queueUrl == nil {
		return nil, errors.Errorf("AWS SQS sink needs the queue url to be configured")
	}

	awsSession, err := awssession.NewSession(awssession.Connection{
		Region:          config.GetOrDefault[*string](c, config.PropertySqsAwsRegion, nil),
		Endpoint:        config.GetOrDefault(c, config.PropertySqsAwsEndpoint, ""),
		AccessKeyId:     config.GetOrDefault[*string](c, config.PropertySqsAwsAccessKeyId, nil),
		SecretAccessKey: config.GetOrDefault[*string](c, config.PropertySqsAwsSecretAccessKey, nil),
		SessionToken:    config.GetOrDefault[*string](c, config.PropertySqsAwsSessionToken, nil),
	})
	if err != nil {
		return nil, err
	}

	return &awsSqsSink{
		queueUrl: queueUrl,
		awsSqs:   sqs.New(awsSession),
		encoder:  encoding.NewJsonEncoderWithConfig(c),
	}, nil
}

func (a *awsSqsSink) Start() error {
	return nil
}

func (a *awsSqsSink) Stop() error {
	return nil
}

func (a *awsSqsSink) Emit(
	_ time.Time, topicName string, _, envelope sink.Struct,
) error {

	envelopeData, err := a.encoder.Marshal(envelope)
	if err != nil {
		return err
	}

	_, err = a.awsSqs.SendMessage(&sqs.SendMessageInput{
		DelaySeconds:           aws.Int64(0),
		MessageBody:            aws.String(string(envelopeData)),
		MessageGroupId:         aws.String(topicName),
		MessageDeduplicationId: aws.String(deduplicationId(envelope, envelopeData)),
		QueueUrl:               a.queueUrl,
	})
	return err
}

func deduplicationId(
	envelope sink.Struct, envelopeData []byte,
) string {

	content := string(envelopeData)
	if token, ok := envelope["token"].(string); ok && token != "" {
		content = fmt.Sprintf("%s-%s", token, envelopeData)
	}

	hash := sha256.New()
	hash.Write([]byte(content))
	return fmt.Sprintf("%X", hash.Sum(nil))
}
