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
	"context"
	"fmt"
	"io"
	"time"

	"github.com/go-errors/errors"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const mongodbImage = "mongo:7.0"

// SetupMongodbContainer starts a single node replica set, required for
// change streams, and returns a direct connection uri.
func SetupMongodbContainer() (testcontainers.Container, string, error) {
	logs, err := newLogConsumer("testcontainers-mongodb")
	if err != nil {
		return nil, "", err
	}

	request := testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        mongodbImage,
			ExposedPorts: []string{"27017/tcp"},
			Cmd:          []string{"--replSet", "rs0", "--bind_ip_all"},
			WaitingFor:   wait.ForLog("Waiting for connections"),
		},
		Started: true,
	}
	if err := logs.Customize(&request); err != nil {
		return nil, "", err
	}

	container, err := testcontainers.GenericContainer(context.Background(), request)
	if err != nil {
		return nil, "", err
	}

	if err := initiateReplicaSet(container); err != nil {
		_ = container.Terminate(context.Background())
		return nil, "", err
	}

	host, err := container.Host(context.Background())
	if err != nil {
		_ = container.Terminate(context.Background())
		return nil, "", err
	}

	port, err := container.MappedPort(context.Background(), "27017/tcp")
	if err != nil {
		_ = container.Terminate(context.Background())
		return nil, "", err
	}

	return container, fmt.Sprintf("mongodb://%s:%d/?directConnection=true", host, port.Int()), nil
}

func initiateReplicaSet(
	container testcontainers.Container,
) error {

	command := []string{
		"mongosh", "--quiet", "--eval",
		"rs.initiate({_id: 'rs0', members: [{_id: 0, host: 'localhost:27017'}]})",
	}
	exitCode, output, err := container.Exec(context.Background(), command)
	if err != nil {
		return err
	}
	if exitCode != 0 {
		message, _ := io.ReadAll(output)
		return errors.Errorf("replica set initiation failed: %s", message)
	}

	// Wait for the node to be elected primary
	for i := 0; i < 30; i++ {
		exitCode, _, err := container.Exec(
			context.Background(),
			[]string{"mongosh", "--quiet", "--eval", "quit(db.hello().isWritablePrimary ? 0 : 1)"},
		)
		if err == nil && exitCode == 0 {
			return nil
		}
		time.Sleep(500 * time.Millisecond)
	}
	return errors.Errorf("replica set member didn't become primary")
}
