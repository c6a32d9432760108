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
	"reflect"
	"strconv"
	"strings"
	"time"
)

var durationType = reflect.TypeOf(time.Duration(0))

// GetOrDefault reads the property addressed by its canonical dotted
// name (as defined by the toml tags). An environment variable with the
// upper-cased name, "_" escaped as "__" and "." replaced by "_", takes
// precedence over the configuration. Unset or zero values yield the
// given default.
func GetOrDefault[V any](config *Config, canonicalProperty string, defaultValue V) V {
	if env, found := findEnvProperty(canonicalProperty, defaultValue); found {
		return env
	}

	element := reflect.ValueOf(*config)
	for _, property := range strings.Split(canonicalProperty, ".") {
		if e, ok := findProperty(element, property); ok {
			element = e
		} else {
			return defaultValue
		}
	}

	targetType := reflect.TypeOf((*V)(nil)).Elem()
	if element.Kind() == reflect.Ptr {
		if element.IsNil() {
			return defaultValue
		}
		if element.Type().AssignableTo(targetType) {
			return element.Interface().(V)
		}
		// An explicitly set pointer wins, even when pointing to a zero value
		element = element.Elem()
	} else if element.IsZero() {
		return defaultValue
	}

	if value, ok := convert(element, targetType); ok {
		return value.Interface().(V)
	}
	return defaultValue
}

func findEnvProperty[V any](canonicalProperty string, defaultValue V) (V, bool) {
	envVarName := strings.ToUpper(canonicalProperty)
	envVarName = strings.ReplaceAll(envVarName, "_", "__")
	envVarName = strings.ReplaceAll(envVarName, ".", "_")

	val, ok := os.LookupEnv(envVarName)
	if !ok || val == "" {
		return defaultValue, false
	}

	targetType := reflect.TypeOf((*V)(nil)).Elem()
	parsed, ok := parseValue(val, targetType)
	if !ok {
		return defaultValue, false
	}
	return parsed.Interface().(V), true
}

func findProperty(element reflect.Value, property string) (reflect.Value, bool) {
	if element.Kind() == reflect.Ptr {
		if element.IsNil() {
			return reflect.Value{}, false
		}
		element = element.Elem()
	}
	if element.Kind() != reflect.Struct {
		return reflect.Value{}, false
	}

	t := element.Type()
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.PkgPath != "" && !f.Anonymous {
			continue
		}

		if f.Tag.Get("toml") == property {
			return element.Field(i), true
		}
	}
	return reflect.Value{}, false
}

func convert(value reflect.Value, targetType reflect.Type) (reflect.Value, bool) {
	if value.Type().ConvertibleTo(targetType) {
		return value.Convert(targetType), true
	}
	if targetType.Kind() == reflect.Ptr && value.Type().ConvertibleTo(targetType.Elem()) {
		pointer := reflect.New(targetType.Elem())
		pointer.Elem().Set(value.Convert(targetType.Elem()))
		return pointer, true
	}
	return reflect.Value{}, false
}

func parseValue(val string, targetType reflect.Type) (reflect.Value, bool) {
	if targetType.Kind() == reflect.Ptr {
		value, ok := parseValue(val, targetType.Elem())
		if !ok {
			return reflect.Value{}, false
		}
		pointer := reflect.New(targetType.Elem())
		pointer.Elem().Set(value)
		return pointer, true
	}

	if targetType == durationType {
		if duration, err := time.ParseDuration(val); err == nil {
			return reflect.ValueOf(duration), true
		}
	}

	switch targetType.Kind() {
	case reflect.String:
		return reflect.ValueOf(val).Convert(targetType), true
	case reflect.Bool:
		if b, err := strconv.ParseBool(val); err == nil {
			return reflect.ValueOf(b).Convert(targetType), true
		}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if i, err := strconv.ParseInt(val, 10, 64); err == nil {
			return reflect.ValueOf(i).Convert(targetType), true
		}
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if u, err := strconv.ParseUint(val, 10, 64); err == nil {
			return reflect.ValueOf(u).Convert(targetType), true
		}
	case reflect.Float32, reflect.Float64:
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return reflect.ValueOf(f).Convert(targetType), true
		}
	case reflect.Slice:
		if targetType.Elem().Kind() == reflect.String {
			parts := strings.Split(val, ",")
			slice := reflect.MakeSlice(targetType, 0, len(parts))
			for _, part := range parts {
				slice = reflect.Append(slice, reflect.ValueOf(strings.TrimSpace(part)).Convert(targetType.Elem()))
			}
			return slice, true
		}
	}
	return reflect.Value{}, false
}
