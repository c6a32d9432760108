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
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/go-errors/errors"
	"gopkg.in/yaml.v3"
)

type Format int

const (
	Yaml Format = iota
	Toml
)

func (f Format) String() string {
	if f == Toml {
		return "toml"
	}
	return "yaml"
}

// FormatOf derives the format from the file extension. Everything but
// .toml is read as YAML.
func FormatOf(path string) Format {
	if strings.ToLower(filepath.Ext(path)) == ".toml" {
		return Toml
	}
	return Yaml
}

var envReference = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)}`)

// Decode fills config from content. References of the form ${NAME}
// are replaced by the value of the environment variable NAME before
// decoding; references to unset variables stay untouched.
func Decode(
	content []byte, format Format, config *Config,
) error {

	content = expandEnv(content)

	var err error
	switch format {
	case Toml:
		_, err = toml.Decode(string(content), config)
	default:
		err = yaml.Unmarshal(content, config)
	}
	if err != nil {
		return errors.Errorf("failed to decode %s configuration: %s", format, err)
	}
	return nil
}

func expandEnv(
	content []byte,
) []byte {

	return envReference.ReplaceAllFunc(content, func(reference []byte) []byte {
		name := envReference.FindSubmatch(reference)[1]
		if value, ok := os.LookupEnv(string(name)); ok {
			return []byte(value)
		}
		return reference
	})
}
