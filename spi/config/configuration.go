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

package config

import (
	"crypto/tls"
	"time"

	"github.com/IBM/sarama"
)

type StateStorageType string

const (
	NoneStorage  StateStorageType = "none"
	FileStorage  StateStorageType = "file"
	RedisStorage StateStorageType = "redis"
)

type SinkType string

const (
	NoneSink   SinkType = "none"
	Stdout     SinkType = "stdout"
	NATS       SinkType = "nats"
	Kafka      SinkType = "kafka"
	Redis      SinkType = "redis"
	AwsSQS     SinkType = "awssqs"
	AwsKinesis SinkType = "awskinesis"
	Http       SinkType = "http"
)

type HttpAuthenticationType string

const (
	NoneAuthentication   HttpAuthenticationType = "none"
	BasicAuthentication  HttpAuthenticationType = "basic"
	HeaderAuthentication HttpAuthenticationType = "header"
)

type NatsAuthorizationType string

const (
	UserInfo    NatsAuthorizationType = "userinfo"
	Credentials NatsAuthorizationType = "credentials"
	Jwt         NatsAuthorizationType = "jwt"
)

type Config struct {
	MongoDB      MongoDBConfig      `toml:"mongodb" yaml:"mongodb"`
	PostgreSQL   PostgreSQLConfig   `toml:"postgresql" yaml:"postgresql"`
	Synchronizer SynchronizerConfig `toml:"synchronizer" yaml:"synchronizer"`
	FileIngest   FileIngestConfig   `toml:"fileingest" yaml:"fileingest"`
	Executor     ExecutorConfig     `toml:"executor" yaml:"executor"`
	StateStorage StateStorageConfig `toml:"statestorage" yaml:"statestorage"`
	Sink         SinkConfig         `toml:"sink" yaml:"sink"`
	Stats        StatsConfig        `toml:"stats" yaml:"stats"`
	Logging      LoggerConfig       `toml:"logging" yaml:"logging"`
	Internal     InternalConfig     `toml:"internal" yaml:"internal"`
	Plugins      []string           `toml:"plugins" yaml:"plugins"`
}

type MongoDBConfig struct {
	Uri      string             `toml:"uri" yaml:"uri"`
	Database string             `toml:"database" yaml:"database"`
	Connect  MongoConnectConfig `toml:"connect" yaml:"connect"`
}

type MongoConnectConfig struct {
	Timeout    time.Duration `toml:"timeout" yaml:"timeout"`
	MaxRetries uint64        `toml:"maxretries" yaml:"maxretries"`
}

type PostgreSQLConfig struct {
	Connection string                  `toml:"connection" yaml:"connection"`
	Password   string                  `toml:"password" yaml:"password"`
	Connect    PostgreSQLConnectConfig `toml:"connect" yaml:"connect"`
}

type PostgreSQLConnectConfig struct {
	MaxRetries uint64 `toml:"maxretries" yaml:"maxretries"`
}

// SyncOptions are the per mapping options of the synchronizer.
type SyncOptions struct {
	SyncOnStart    bool   `toml:"synconstart" yaml:"synconstart" mapstructure:"synconstart"`
	SyncInRealTime bool   `toml:"syncinrealtime" yaml:"syncinrealtime" mapstructure:"syncinrealtime"`
	Filter         string `toml:"filter" yaml:"filter" mapstructure:"filter"`
}

type SyncDefaultsConfig struct {
	SyncOnStart    *bool  `toml:"synconstart" yaml:"synconstart"`
	SyncInRealTime *bool  `toml:"syncinrealtime" yaml:"syncinrealtime"`
	Filter         string `toml:"filter" yaml:"filter"`
}

type SynchronizerConfig struct {
	Defaults SyncDefaultsConfig `toml:"defaults" yaml:"defaults"`
	Mappings []map[string]any   `toml:"mappings" yaml:"mappings"`
}

// FileOptions are the per mapping options of the file ingester.
type FileOptions struct {
	CleanUpBeforeSync bool     `toml:"cleanupbeforesync" yaml:"cleanupbeforesync" mapstructure:"cleanupbeforesync"`
	Separator         string   `toml:"separator" yaml:"separator" mapstructure:"separator"`
	Headers           []string `toml:"headers" yaml:"headers" mapstructure:"headers"`
	SkipLines         int      `toml:"skiplines" yaml:"skiplines" mapstructure:"skiplines"`
}

type FileDefaultsConfig struct {
	CleanUpBeforeSync *bool    `toml:"cleanupbeforesync" yaml:"cleanupbeforesync"`
	Separator         string   `toml:"separator" yaml:"separator"`
	Headers           []string `toml:"headers" yaml:"headers"`
	SkipLines         int      `toml:"skiplines" yaml:"skiplines"`
}

type FileIngestConfig struct {
	Path     string             `toml:"path" yaml:"path"`
	Defaults FileDefaultsConfig `toml:"defaults" yaml:"defaults"`
	Mappings []map[string]any   `toml:"mappings" yaml:"mappings"`
}

type ExecutorConfig struct {
	Batch *bool `toml:"batch" yaml:"batch"`
}

type StateStorageConfig struct {
	Type         StateStorageType        `toml:"type" yaml:"type"`
	FileStorage  FileStorageConfig       `toml:"file" yaml:"file"`
	RedisStorage RedisStateStorageConfig `toml:"redis" yaml:"redis"`
}

type FileStorageConfig struct {
	Path string `toml:"path" yaml:"path"`
}

type RedisStateStorageConfig struct {
	Address  string `toml:"address" yaml:"address"`
	Password string `toml:"password" yaml:"password"`
	Database int    `toml:"database" yaml:"database"`
	Prefix   string `toml:"prefix" yaml:"prefix"`
}

type SinkConfig struct {
	Type        SinkType         `toml:"type" yaml:"type"`
	TopicPrefix string           `toml:"topicprefix" yaml:"topicprefix"`
	Nats        NatsConfig       `toml:"nats" yaml:"nats"`
	Kafka       KafkaConfig      `toml:"kafka" yaml:"kafka"`
	Redis       RedisConfig      `toml:"redis" yaml:"redis"`
	AwsSqs      AwsSqsConfig     `toml:"sqs" yaml:"sqs"`
	AwsKinesis  AwsKinesisConfig `toml:"kinesis" yaml:"kinesis"`
	Http        HttpConfig       `toml:"http" yaml:"http"`
	Retries     SinkRetryConfig  `toml:"retries" yaml:"retries"`
}

type SinkRetryConfig struct {
	MaxAttempts uint64 `toml:"maxattempts" yaml:"maxattempts"`
}

type NatsUserInfoConfig struct {
	Username string `toml:"username" yaml:"username"`
	Password string `toml:"password" yaml:"password"`
}

type NatsCredentialsConfig struct {
	Certificate string   `toml:"certificate" yaml:"certificate"`
	Seeds       []string `toml:"seeds" yaml:"seeds"`
}

type NatsJWTConfig struct {
	JWT  string `toml:"jwt" yaml:"jwt"`
	Seed string `toml:"seed" yaml:"seed"`
}

type NatsConfig struct {
	Address       string                `toml:"address" yaml:"address"`
	Authorization NatsAuthorizationType `toml:"authorization" yaml:"authorization"`
	UserInfo      NatsUserInfoConfig    `toml:"userinfo" yaml:"userinfo"`
	Credentials   NatsCredentialsConfig `toml:"credentials" yaml:"credentials"`
	JWT           NatsJWTConfig         `toml:"jwt" yaml:"jwt"`
}

type KafkaSaslConfig struct {
	Enabled   bool                 `toml:"enabled" yaml:"enabled"`
	User      string               `toml:"user" yaml:"user"`
	Password  string               `toml:"password" yaml:"password"`
	Mechanism sarama.SASLMechanism `toml:"mechanism" yaml:"mechanism"`
}

type KafkaConfig struct {
	Brokers    []string        `toml:"brokers" yaml:"brokers"`
	Idempotent bool            `toml:"idempotent" yaml:"idempotent"`
	Sasl       KafkaSaslConfig `toml:"sasl" yaml:"sasl"`
	TLS        TLSConfig       `toml:"tls" yaml:"tls"`
}

type RedisConfig struct {
	Network  string             `toml:"network" yaml:"network"`
	Address  string             `toml:"address" yaml:"address"`
	Password string             `toml:"password" yaml:"password"`
	Database int                `toml:"database" yaml:"database"`
	Retries  RedisRetryConfig   `toml:"retries" yaml:"retries"`
	Timeouts RedisTimeoutConfig `toml:"timeouts" yaml:"timeouts"`
	PoolSize int                `toml:"poolsize" yaml:"poolsize"`
	TLS      TLSConfig          `toml:"tls" yaml:"tls"`
}

type RedisRetryConfig struct {
	MaxAttempts int                     `toml:"maxattempts" yaml:"maxattempts"`
	Backoff     RedisRetryBackoffConfig `toml:"backoff" yaml:"backoff"`
}

type RedisRetryBackoffConfig struct {
	Min int `toml:"min" yaml:"min"`
	Max int `toml:"max" yaml:"max"`
}

type RedisTimeoutConfig struct {
	Dial  int `toml:"dial" yaml:"dial"`
	Read  int `toml:"read" yaml:"read"`
	Write int `toml:"write" yaml:"write"`
	Pool  int `toml:"pool" yaml:"pool"`
	Idle  int `toml:"idle" yaml:"idle"`
}

type AwsConnectionConfig struct {
	Region          *string `toml:"region" yaml:"region"`
	Endpoint        string  `toml:"endpoint" yaml:"endpoint"`
	AccessKeyId     string  `toml:"accesskeyid" yaml:"accesskeyid"`
	SecretAccessKey string  `toml:"secretaccesskey" yaml:"secretaccesskey"`
	SessionToken    string  `toml:"sessiontoken" yaml:"sessiontoken"`
}

type AwsSqsQueueConfig struct {
	Url *string `toml:"url" yaml:"url"`
}

type AwsSqsConfig struct {
	Queue AwsSqsQueueConfig   `toml:"queue" yaml:"queue"`
	Aws   AwsConnectionConfig `toml:"aws" yaml:"aws"`
}

type AwsKinesisStreamConfig struct {
	Name       *string `toml:"name" yaml:"name"`
	Create     *bool   `toml:"create" yaml:"create"`
	ShardCount *int64  `toml:"shardcount" yaml:"shardcount"`
	Mode       *string `toml:"mode" yaml:"mode"`
}

type AwsKinesisConfig struct {
	Stream AwsKinesisStreamConfig `toml:"stream" yaml:"stream"`
	Aws    AwsConnectionConfig    `toml:"aws" yaml:"aws"`
}

type HttpBasicAuthenticationConfig struct {
	Username string `toml:"username" yaml:"username"`
	Password string `toml:"password" yaml:"password"`
}

type HttpHeaderAuthenticationConfig struct {
	Name  string `toml:"name" yaml:"name"`
	Value string `toml:"value" yaml:"value"`
}

type HttpAuthenticationConfig struct {
	Type   HttpAuthenticationType         `toml:"type" yaml:"type"`
	Basic  HttpBasicAuthenticationConfig  `toml:"basic" yaml:"basic"`
	Header HttpHeaderAuthenticationConfig `toml:"header" yaml:"header"`
}

type HttpConfig struct {
	Url            string                   `toml:"url" yaml:"url"`
	Authentication HttpAuthenticationConfig `toml:"authentication" yaml:"authentication"`
	TLS            TLSConfig                `toml:"tls" yaml:"tls"`
}

type TLSConfig struct {
	Enabled    bool               `toml:"enabled" yaml:"enabled"`
	SkipVerify bool               `toml:"skipverify" yaml:"skipverify"`
	ClientAuth tls.ClientAuthType `toml:"clientauth" yaml:"clientauth"`
}

type StatsConfig struct {
	Enabled *bool              `toml:"enabled" yaml:"enabled"`
	Address string             `toml:"address" yaml:"address"`
	Runtime RuntimeStatsConfig `toml:"runtime" yaml:"runtime"`
}

type RuntimeStatsConfig struct {
	Enabled *bool `toml:"enabled" yaml:"enabled"`
}

type InternalConfig struct {
	Encoding EncodingConfig `toml:"encoding" yaml:"encoding"`
}

type EncodingConfig struct {
	CustomReflection *bool `toml:"customreflection" yaml:"customreflection"`
}

type LoggerConfig struct {
	Level   string                     `toml:"level" yaml:"level"`
	Outputs LoggerOutputConfig         `toml:"outputs" yaml:"outputs"`
	Loggers map[string]SubLoggerConfig `toml:"loggers" yaml:"loggers"`
}

type LoggerOutputConfig struct {
	Console LoggerConsoleConfig `toml:"console" yaml:"console"`
	File    LoggerFileConfig    `toml:"file" yaml:"file"`
}

type SubLoggerConfig struct {
	Level   *string            `toml:"level" yaml:"level"`
	Outputs LoggerOutputConfig `toml:"outputs" yaml:"outputs"`
}

type LoggerConsoleConfig struct {
	Enabled *bool `toml:"enabled" yaml:"enabled"`
}

type LoggerFileConfig struct {
	Enabled     *bool   `toml:"enabled" yaml:"enabled"`
	Path        string  `toml:"path" yaml:"path"`
	Rotate      *bool   `toml:"rotate" yaml:"rotate"`
	MaxSize     *string `toml:"maxsize" yaml:"maxsize"`
	MaxDuration *int    `toml:"maxduration" yaml:"maxduration"`
	Compress    bool    `toml:"compress" yaml:"compress"`
}

// SyncDefaults returns the synchronizer options applied to mappings
// which don't define their own. Both sync phases are enabled unless
// configured otherwise.
func (c *Config) SyncDefaults() SyncOptions {
	return SyncOptions{
		SyncOnStart:    GetOrDefault(c, PropertySynchronizerSyncOnStart, true),
		SyncInRealTime: GetOrDefault(c, PropertySynchronizerSyncInRealTime, true),
		Filter:         GetOrDefault(c, PropertySynchronizerFilter, ""),
	}
}

// FileDefaults returns the file ingestion options applied to mappings
// which don't define their own.
func (c *Config) FileDefaults() FileOptions {
	return FileOptions{
		CleanUpBeforeSync: GetOrDefault(c, PropertyFileIngestCleanUpBeforeSync, false),
		Separator:         GetOrDefault(c, PropertyFileIngestSeparator, ","),
		Headers:           GetOrDefault(c, PropertyFileIngestHeaders, []string(nil)),
		SkipLines:         GetOrDefault(c, PropertyFileIngestSkipLines, 0),
	}
}
