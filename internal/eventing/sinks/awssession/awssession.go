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

package awssession

import (
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
)

// Connection describes how to reach an AWS service. Static credentials
// are only used when all three parts are given, otherwise the default
// credential chain applies.
type Connection struct {
	Region          *string
	Endpoint        string
	AccessKeyId     *string
	SecretAccessKey *string
	SessionToken    *string
}

func NewSession(
	connection Connection,
) (*session.Session, error) {

	awsConfig := aws.NewConfig().WithEndpoint(connection.Endpoint)
	if connection.AccessKeyId != nil && connection.SecretAccessKey != nil && connection.SessionToken != nil {
		awsConfig = awsConfig.WithCredentials(
			credentials.NewStaticCredentials(
				*connection.AccessKeyId, *connection.SecretAccessKey, *connection.SessionToken,
			),
		)
	}

	if connection.Region != nil {
		awsConfig = awsConfig.WithRegion(*connection.Region)
	}
	return session.NewSession(awsConfig)
}
