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

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	postgresqlImage    = "postgres:16-alpine"
	postgresqlDatabase = "replica"
	postgresqlUser     = "postgres"
	postgresqlPass     = "postgres"
)

// SetupPostgresqlContainer starts a PostgreSQL server and returns a
// connection string for the replica database.
func SetupPostgresqlContainer() (testcontainers.Container, string, error) {
	logs, err := newLogConsumer("testcontainers-postgresql")
	if err != nil {
		return nil, "", err
	}

	containerRequest := testcontainers.ContainerRequest{
		Image:        postgresqlImage,
		ExposedPorts: []string{"5432/tcp"},
		Cmd:          []string{"-c", "fsync=off"},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2),
		Env: map[string]string{
			"POSTGRES_DB":       postgresqlDatabase,
			"POSTGRES_PASSWORD": postgresqlPass,
			"POSTGRES_USER":     postgresqlUser,
		},
	}

	request := testcontainers.GenericContainerRequest{
		ContainerRequest: containerRequest,
		Started:          true,
	}
	if err := logs.Customize(&request); err != nil {
		return nil, "", err
	}

	container, err := testcontainers.GenericContainer(context.Background(), request)
	if err != nil {
		return nil, "", err
	}

	host, err := container.Host(context.Background())
	if err != nil {
		_ = container.Terminate(context.Background())
		return nil, "", err
	}

	port, err := container.MappedPort(context.Background(), "5432/tcp")
	if err != nil {
		_ = container.Terminate(context.Background())
		return nil, "", err
	}

	connection := fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		postgresqlUser, postgresqlPass, host, port.Int(), postgresqlDatabase,
	)
	return container, connection, nil
}
