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

package awskinesis

import (
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/kinesis"
	"github.com/go-errors/errors"
	"github.com/noctarius/mongo-sql-replicator/internal/eventing/sinks/awssession"
	"github.com/noctarius/mongo-sql-replicator/spi/config"
	"github.com/noctarius/mongo-sql-replicator/spi/encoding"
	"github.com/noctarius/mongo-sql-replicator/spi/sink"
)

func init() {
	sink.RegisterSink(config.AwsKinesis, newAwsKinesisSink)
}

type awsKinesisSink struct {
	streamName   *string
	streamCreate bool
	shardCount   *int64
	streamMode   *string
	awsKinesis   *kinesis.Kinesis
	encoder      *encoding.JsonEncoder
}

func newAwsKinesisSink(
	c *config.Config,
) (sink.Sink, error) {

	streamName := config.GetOrDefault[*string](c, config.PropertyKinesisStreamName, nil)
	if streamName == nil {
		return nil, errors.Errorf("AWS Kinesis sink needs the stream name to be configured")
	}

	awsSession, err := awssession.NewSession(awssession.Connection{
		Region:          config.GetOrDefault[*string](c, config.PropertyKinesisRegion, nil),
		Endpoint:        config.GetOrDefault(c, config.PropertyKinesisAwsEndpoint, ""),
		AccessKeyId:     config.GetOrDefault[*string](c, config.PropertyKinesisAwsAccessKeyId, nil),
		SecretAccessKey: config.GetOrDefault[*string](c, config.PropertyKinesisAwsSecretAccessKey, nil),
		SessionToken:    config.GetOrDefault[*string](c, config.PropertyKinesisAwsSessionToken, nil),
	})
	if err != nil {
		return nil, err
	}

	return &awsKinesisSink{
		streamName:   streamName,
		streamCreate: config.GetOrDefault(c, config.PropertyKinesisStreamCreate, true),
		shardCount:   config.GetOrDefault[*int64](c, config.PropertyKinesisStreamShardCount, nil),
		streamMode:   config.GetOrDefault[*string](c, config.PropertyKinesisStreamMode, nil),
		awsKinesis:   kinesis.New(awsSession),
		encoder:      encoding.NewJsonEncoderWithConfig(c),
	}, nil
}

// Start makes sure the stream exists, creating it when allowed.
func (a *awsKinesisSink) Start() error {
	_, err := a.awsKinesis.DescribeStream(&kinesis.DescribeStreamInput{
		StreamName: a.streamName,
	})
	if err == nil {
		return nil
	}

	if _, ok := err.(*kinesis.ResourceNotFoundException); !ok || !a.streamCreate {
		return err
	}

	var streamModeDetails *kinesis.StreamModeDetails
	if a.streamMode != nil {
		streamModeDetails = &kinesis.StreamModeDetails{
			StreamMode: a.streamMode,
		}
	}

	if _, err := a.awsKinesis.CreateStream(&kinesis.CreateStreamInput{
		ShardCount:        a.shardCount,
		StreamModeDetails: streamModeDetails,
		StreamName:        a.streamName,
	}); err != nil {
		return err
	}

	return a.awsKinesis.WaitUntilStreamExists(&kinesis.DescribeStreamInput{
		StreamName: a.streamName,
	})
}

func (a *awsKinesisSink) Stop() error {
	return nil
}

func (a *awsKinesisSink) Emit(
	_ time.Time, topicName string, _, envelope sink.Struct,
) error {

	envelopeData, err := a.encoder.Marshal(envelope)
	if err != nil {
		return err
	}

	_, err = a.awsKinesis.PutRecord(&kinesis.PutRecordInput{
		StreamName:   a.streamName,
		PartitionKey: aws.String(topicName),
		Data:         envelopeData,
	})
	return err
}
