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

package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/noctarius/mongo-sql-replicator/internal"
	"github.com/noctarius/mongo-sql-replicator/internal/supporting"
	"github.com/noctarius/mongo-sql-replicator/internal/supporting/logging"
	"github.com/noctarius/mongo-sql-replicator/internal/waiting"
	"github.com/noctarius/mongo-sql-replicator/spi/config"
	"github.com/noctarius/mongo-sql-replicator/spi/plugins"
	"github.com/noctarius/mongo-sql-replicator/spi/version"
	"github.com/urfave/cli"
)

const shutdownTimeout = 30 * time.Second

var (
	configurationFile string
	verbose           bool
	withCaller        bool
	logToStdErr       bool
	versionOnly       bool
)

func main() {
	app := &cli.App{
		Name:  version.BinName,
		Usage: "Replicates MongoDB collections into PostgreSQL tables",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config,c",
				Value:       "",
				Usage:       "Load configuration from `FILE`",
				Destination: &configurationFile,
			},
			&cli.BoolFlag{
				Name:        "verbose",
				Usage:       "Show verbose output",
				Destination: &verbose,
			},
			&cli.BoolFlag{
				Name:        "caller",
				Usage:       "Collect caller information for log messages",
				Destination: &withCaller,
			},
			&cli.BoolFlag{
				Name:        "log-to-stderr",
				Usage:       "Redirects logging output to stderr, necessary when using stdout as the sink",
				Destination: &logToStdErr,
			},
			&cli.BoolFlag{
				Name:        "version",
				Usage:       "Prints the version and exits",
				Destination: &versionOnly,
			},
		},
		Action: start,
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func start(*cli.Context) error {
	fmt.Fprintf(os.Stderr, "%s version %s (git revision %s; branch %s)\n",
		version.BinName, version.Version, version.CommitHash, version.Branch,
	)

	if versionOnly {
		return nil
	}

	logging.WithCaller = withCaller
	logging.WithVerbose = verbose

	c := &config.Config{}

	// No configuration file set? Try env variable!
	if configurationFile == "" {
		if cf, present := os.LookupEnv("MONGO_SQL_REPLICATOR_CONFIG"); present {
			fmt.Fprintf(os.Stderr, "Using configuration file from environment variable\n")
			configurationFile = cf
		}
	}

	if configurationFile != "" {
		fmt.Fprintf(os.Stderr, "Loading configuration file: %s\n", configurationFile)
		f, err := os.Open(configurationFile)
		if err != nil {
			return supporting.AdaptErrorWithMessage(
				err, "Configuration file couldn't be opened", supporting.ExitCodeConfigOpen,
			)
		}
		defer f.Close()

		b, err := io.ReadAll(f)
		if err != nil {
			return supporting.AdaptErrorWithMessage(
				err, "Configuration file couldn't be read", supporting.ExitCodeConfigRead,
			)
		}

		if err := config.Decode(b, config.FormatOf(configurationFile), c); err != nil {
			return supporting.AdaptErrorWithMessage(
				err, "Configuration file couldn't be decoded", supporting.ExitCodeConfigDecode,
			)
		}
	}

	if err := logging.InitializeLogging(c, logToStdErr); err != nil {
		return supporting.AdaptError(err, supporting.ExitCodeLogging)
	}

	if config.GetOrDefault(c, config.PropertyPostgresqlConnection, "") == "" {
		return cli.NewExitError("PostgreSQL connection string required", supporting.ExitCodeConfigInvalid)
	}
	if len(c.Synchronizer.Mappings) == 0 && len(c.FileIngest.Mappings) == 0 {
		return cli.NewExitError("Neither synchronizer nor file ingestion mappings configured",
			supporting.ExitCodeConfigInvalid,
		)
	}

	if err := plugins.LoadPlugins(c); err != nil {
		return supporting.AdaptErrorWithMessage(err, "Plugins couldn't be loaded", supporting.ExitCodeStartup)
	}

	replicator, err := internal.NewReplicator(c)
	if err != nil {
		return supporting.AdaptErrorWithMessage(err, "Replicator couldn't be created", supporting.ExitCodeStartup)
	}

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)

	if err := replicator.Start(); err != nil {
		_ = replicator.Stop()
		return supporting.AdaptErrorWithMessage(err, "Replication couldn't be started", supporting.ExitCodeStartup)
	}

	<-signals
	fmt.Fprintf(os.Stderr, "Shutting down replication\n")

	stopped := waiting.NewWaiterWithTimeout(shutdownTimeout)
	go func() {
		if err := replicator.Stop(); err != nil {
			fmt.Fprintf(os.Stderr, "Hard error when stopping replication: %v\n", err)
			os.Exit(1)
		}
		stopped.Signal()
	}()

	if err := stopped.Await(); err != nil {
		return supporting.AdaptError(err, supporting.ExitCodeShutdownTimeout)
	}
	return nil
}
