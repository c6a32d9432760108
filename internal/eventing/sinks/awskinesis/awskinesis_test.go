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
	"context"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/kinesis"
	"github.com/noctarius/mongo-sql-replicator/spi/config"
	"github.com/noctarius/mongo-sql-replicator/spi/sink"
	"github.com/noctarius/mongo-sql-replicator/testsupport/containers"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_AWS_Kinesis_Config_Loading(t *testing.T) {
	c := &config.Config{
		Sink: config.SinkConfig{
			Type: config.AwsKinesis,
			AwsKinesis: config.AwsKinesisConfig{
				Stream: config.AwsKinesisStreamConfig{
					Name:       lo.ToPtr("stream_name"),
					Create:     lo.ToPtr(false),
					ShardCount: lo.ToPtr(int64(100)),
					Mode:       lo.ToPtr("ON_DEMAND"),
				},
				Aws: config.AwsConnectionConfig{
					Region:          lo.ToPtr("aws_region"),
					Endpoint:        "aws_endpoint",
					AccessKeyId:     "aws_access_key_id",
					SecretAccessKey: "aws_secret_access_key",
					SessionToken:    "aws_session_token",
				},
			},
		},
	}

	s, err := newAwsKinesisSink(c)
	require.NoError(t, err)

	awsSink := s.(*awsKinesisSink)
	assert.Equal(t, "stream_name", *awsSink.streamName)
	assert.False(t, awsSink.streamCreate)
	assert.Equal(t, int64(100), *awsSink.shardCount)
	assert.Equal(t, "ON_DEMAND", *awsSink.streamMode)

	credentials, err := awsSink.awsKinesis.Config.Credentials.Get()
	require.NoError(t, err)
	assert.Equal(t, "aws_region", *awsSink.awsKinesis.Config.Region)
	assert.Equal(t, "aws_access_key_id", credentials.AccessKeyID)
	assert.Equal(t, "aws_secret_access_key", credentials.SecretAccessKey)
	assert.Equal(t, "aws_session_token", credentials.SessionToken)
}

func Test_AWS_Kinesis_Missing_Stream_Name(t *testing.T) {
	_, err := newAwsKinesisSink(&config.Config{})
	assert.ErrorContains(t, err, "stream name")
}

func Test_AWS_Kinesis_Stream_Create_Default(t *testing.T) {
	s, err := newAwsKinesisSink(&config.Config{
		Sink: config.SinkConfig{
			AwsKinesis: config.AwsKinesisConfig{
				Stream: config.AwsKinesisStreamConfig{Name: lo.ToPtr("events")},
			},
		},
	})
	require.NoError(t, err)
	assert.True(t, s.(*awsKinesisSink).streamCreate)
}

func Test_AWS_Kinesis_Creates_Stream_And_Emits(t *testing.T) {
	if testing.Short() {
		t.Skip("requires docker")
	}

	container, endpoint, err := containers.SetupLocalStackWithKinesis()
	require.NoError(t, err)
	defer container.Terminate(context.Background())

	s, err := newAwsKinesisSink(&config.Config{
		Sink: config.SinkConfig{
			AwsKinesis: config.AwsKinesisConfig{
				Stream: config.AwsKinesisStreamConfig{
					Name:       lo.ToPtr("notifications"),
					ShardCount: lo.ToPtr(int64(1)),
				},
				Aws: config.AwsConnectionConfig{
					Region:          lo.ToPtr("us-east-1"),
					Endpoint:        endpoint,
					AccessKeyId:     "test",
					SecretAccessKey: "test",
					SessionToken:    "test",
				},
			},
		},
	})
	require.NoError(t, err)
	require.NoError(t, s.Start())

	err = s.Emit(time.Now(), "replicator.shop.orders", nil, sink.Struct{"op": "delete"})
	require.NoError(t, err)

	awsSink := s.(*awsKinesisSink)
	description, err := awsSink.awsKinesis.DescribeStream(&kinesis.DescribeStreamInput{
		StreamName: aws.String("notifications"),
	})
	require.NoError(t, err)

	iterator, err := awsSink.awsKinesis.GetShardIterator(&kinesis.GetShardIteratorInput{
		StreamName:        aws.String("notifications"),
		ShardId:           description.StreamDescription.Shards[0].ShardId,
		ShardIteratorType: aws.String(kinesis.ShardIteratorTypeTrimHorizon),
	})
	require.NoError(t, err)

	records, err := awsSink.awsKinesis.GetRecords(&kinesis.GetRecordsInput{
		ShardIterator: iterator.ShardIterator,
	})
	require.NoError(t, err)
	require.Len(t, records.Records, 1)
	assert.Equal(t, "replicator.shop.orders", *records.Records[0].PartitionKey)
	assert.JSONEq(t, `{"op":"delete"}`, string(records.Records[0].Data))
}
