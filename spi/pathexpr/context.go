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

package pathexpr

// Context is a value together with the context it was reached from.
// The parent link is only used for lookups, never for ownership.
type Context struct {
	value  any
	parent *Context
}

func NewContext(value any, parent *Context) *Context {
	return &Context{
		value:  value,
		parent: parent,
	}
}

func (c *Context) Value() any {
	return c.value
}

// IsRoot returns true if the context has no parent.
func (c *Context) IsRoot() bool {
	return c.parent == nil
}

// Resolve evaluates the expression against the context. The second
// return value is false if the path is undefined, which is different
// from a defined nil value.
//
// When the context value is an array, the expression is evaluated for
// each element separately and the results are returned as an array.
// The element contexts share the parent of c.
func (c *Context) Resolve(expression Expression) (any, bool) {
	return c.resolve(expression)
}

func (c *Context) resolve(expression Expression) (any, bool) {
	if items, ok := c.value.([]any); ok {
		values := make([]any, len(items))
		for i, item := range items {
			values[i], _ = NewContext(item, c.parent).resolve(expression)
		}
		return values, true
	}
	return expression.evaluate(c)
}

// Resolve evaluates the expression against the context and collapses
// undefined results to nil.
func Resolve(ctx *Context, expression Expression) any {
	value, _ := ctx.resolve(expression)
	return value
}
