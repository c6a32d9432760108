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

package encoding

import (
	"github.com/goccy/go-json"
	"github.com/noctarius/mongo-sql-replicator/spi/config"
)

// JsonEncoder serializes sink envelopes and checkpoint files.
type JsonEncoder struct {
	marshal func(value any) ([]byte, error)
}

func NewJsonEncoderWithConfig(
	c *config.Config,
) *JsonEncoder {

	return NewJsonEncoder(config.GetOrDefault(c, config.PropertyEncodingCustomReflection, true))
}

func NewJsonEncoder(
	customReflection bool,
) *JsonEncoder {

	if customReflection {
		return &JsonEncoder{marshal: json.MarshalNoEscape}
	}
	return &JsonEncoder{marshal: json.Marshal}
}

func (j *JsonEncoder) Marshal(
	value any,
) ([]byte, error) {

	return j.marshal(value)
}

type JsonDecoder struct {
	unmarshal func(data []byte, v any) error
}

func NewJsonDecoderWithConfig(
	c *config.Config,
) *JsonDecoder {

	return NewJsonDecoder(config.GetOrDefault(c, config.PropertyEncodingCustomReflection, true))
}

func NewJsonDecoder(
	customReflection bool,
) *JsonDecoder {

	if customReflection {
		return &JsonDecoder{
			unmarshal: func(data []byte, v any) error {
				return json.UnmarshalNoEscape(data, v)
			},
		}
	}
	return &JsonDecoder{unmarshal: json.Unmarshal}
}

func (j *JsonDecoder) Unmarshal(
	data []byte, v any,
) error {

	return j.unmarshal(data, v)
}
