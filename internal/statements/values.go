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

package statements

import (
	"math"
	"regexp"

	"github.com/noctarius/mongo-sql-replicator/spi/pathexpr"
	"github.com/relvacode/iso8601"
	"github.com/samber/lo"
)

var isoDatePattern = regexp.MustCompile(`\d{4}-\d{2}-\d{2}T\d{2}[:\d{2}]*[.\d{3}]*Z`)

func resolveValues(ctx *pathexpr.Context, paths []pathexpr.Expression) []any {
	return lo.Map(paths, func(path pathexpr.Expression, _ int) any {
		return CoerceValue(pathexpr.Resolve(ctx, path))
	})
}

// CoerceValue converts a resolved document value into its bind value.
// NaN becomes nil, booleans become "1"/"0" and ISO-8601 timestamps
// become time.Time. Everything else is bound unchanged.
func CoerceValue(value any) any {
	switch v := value.(type) {
	case float64:
		if math.IsNaN(v) {
			return nil
		}
	case float32:
		if math.IsNaN(float64(v)) {
			return nil
		}
	case bool:
		if v {
			return "1"
		}
		return "0"
	case string:
		if isoDatePattern.MatchString(v) {
			if timestamp, err := iso8601.ParseString(v); err == nil {
				return timestamp
			}
		}
	}
	return value
}
