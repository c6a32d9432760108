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

package mapping

import (
	"reflect"
	"strings"

	"github.com/go-errors/errors"
	"github.com/mitchellh/mapstructure"
)

const (
	pairSeparator = "->"
	optionsKey    = "options"
)

// SplitPair splits a combined mapping node into its source and
// destination halves. Strings of the form "src->dest" are split at the
// first arrow, a string without arrow is used for both sides. Arrays
// and objects are split element by element, any other value is used
// unchanged on both sides.
func SplitPair(value any) (any, any) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case string:
		return splitString(v)
	case []any:
		return splitSlice(reflect.ValueOf(v))
	case map[string]any:
		source := make(map[string]any, len(v))
		destination := make(map[string]any, len(v))
		for key, element := range v {
			source[key], destination[key] = SplitPair(element)
		}
		return source, destination
	}

	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		return splitSlice(rv)
	case reflect.Map:
		if rv.Type().Key().Kind() == reflect.String {
			source := make(map[string]any, rv.Len())
			destination := make(map[string]any, rv.Len())
			iterator := rv.MapRange()
			for iterator.Next() {
				key := iterator.Key().String()
				source[key], destination[key] = SplitPair(iterator.Value().Interface())
			}
			return source, destination
		}
	}
	return value, value
}

func splitString(value string) (any, any) {
	source, destination, found := strings.Cut(value, pairSeparator)
	if !found {
		value = strings.TrimSpace(value)
		return value, value
	}
	return strings.TrimSpace(source), strings.TrimSpace(destination)
}

func splitSlice(value reflect.Value) (any, any) {
	source := make([]any, value.Len())
	destination := make([]any, value.Len())
	for i := 0; i < value.Len(); i++ {
		source[i], destination[i] = SplitPair(value.Index(i).Interface())
	}
	return source, destination
}

// Compile turns the configured mapping nodes into mapping pairs. Each
// node's own "options" are decoded on top of a copy of the defaults.
func Compile[O any](tables []map[string]any, defaults O) ([]*MappingPair[O], error) {
	pairs := make([]*MappingPair[O], 0, len(tables))
	for i, table := range tables {
		pair, err := compilePair(table, defaults)
		if err != nil {
			return nil, errors.Errorf("mapping #%d: %s", i, err.Error())
		}
		pairs = append(pairs, pair)
	}
	return pairs, nil
}

func compilePair[O any](table map[string]any, defaults O) (*MappingPair[O], error) {
	node := make(map[string]any, len(table))
	var rawOptions any
	for key, value := range table {
		if strings.EqualFold(key, optionsKey) {
			rawOptions = value
			continue
		}
		node[key] = value
	}

	rawSource, rawDestination := SplitPair(node)

	source := &TableDescriptor{}
	if err := decode(rawSource, source); err != nil {
		return nil, err
	}
	destination := &TableDescriptor{}
	if err := decode(rawDestination, destination); err != nil {
		return nil, err
	}

	if err := validate(source, destination, source.Table); err != nil {
		return nil, err
	}
	if err := source.parsePaths(); err != nil {
		return nil, err
	}

	options := defaults
	if rawOptions != nil {
		if err := decode(rawOptions, &options); err != nil {
			return nil, errors.Errorf("invalid options: %s", err.Error())
		}
	}

	return &MappingPair[O]{
		Source:      source,
		Destination: destination,
		Options:     options,
	}, nil
}

func decode(input any, result any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           result,
		WeaklyTypedInput: true,
		// options are decoded on top of a shallow copy of the defaults
		ZeroFields: true,
	})
	if err != nil {
		return errors.Wrap(err, 0)
	}
	if err := decoder.Decode(input); err != nil {
		return errors.Wrap(err, 0)
	}
	return nil
}

func validate(source, destination *TableDescriptor, name string) error {
	if source.Table == "" || destination.Table == "" {
		return errors.Errorf("table '%s' requires a source and a destination table", name)
	}
	if len(source.Keys) == 0 {
		return errors.Errorf("table '%s' requires at least one key", name)
	}
	if len(source.Keys) != len(destination.Keys) {
		return errors.Errorf("table '%s' has %d source but %d destination keys",
			name, len(source.Keys), len(destination.Keys))
	}
	if len(source.Columns) != len(destination.Columns) {
		return errors.Errorf("table '%s' has %d source but %d destination columns",
			name, len(source.Columns), len(destination.Columns))
	}
	if len(source.EmbeddedColumns) != len(destination.EmbeddedColumns) {
		return errors.Errorf("table '%s' has %d source but %d destination embedded tables",
			name, len(source.EmbeddedColumns), len(destination.EmbeddedColumns))
	}
	for i := range source.EmbeddedColumns {
		embeddedSource := source.EmbeddedColumns[i]
		if err := validate(embeddedSource, destination.EmbeddedColumns[i], name+"."+embeddedSource.Table); err != nil {
			return err
		}
	}
	return nil
}
