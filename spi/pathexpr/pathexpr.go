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

// Package pathexpr implements the small path language used by mapping
// descriptors to address values inside a document.
//
//	.          the current value
//	'text'     a string literal
//	../x       x resolved against the parent context
//	a.b.c      navigation into nested objects
//	a?b        first alternative that is defined
package pathexpr

import (
	"regexp"
	"strings"

	"github.com/go-errors/errors"
)

const (
	parentPrefix         = "../"
	fallbackSeparator    = "?"
	navigationSeparator  = "."
	identityPath         = "."
	literalQuoteRune     = '\''
	literalQuoteAsString = "'"
)

var literalPattern = regexp.MustCompile(`^'(.*)'$`)

// Expression is a parsed, immutable path expression.
type Expression interface {
	// String returns the source text the expression was parsed from.
	String() string
	evaluate(ctx *Context) (any, bool)
}

type identity struct{}

func (identity) String() string {
	return identityPath
}

func (identity) evaluate(ctx *Context) (any, bool) {
	return ctx.value, true
}

type literal struct {
	text string
}

func (l literal) String() string {
	return literalQuoteAsString + l.text + literalQuoteAsString
}

func (l literal) evaluate(_ *Context) (any, bool) {
	return l.text, true
}

type field struct {
	name string
	next Expression
}

func (f field) String() string {
	if f.next == nil {
		return f.name
	}
	return f.name + navigationSeparator + f.next.String()
}

func (f field) evaluate(ctx *Context) (any, bool) {
	value, defined := lookup(ctx.value, f.name)
	if f.next == nil {
		return value, defined
	}
	if !defined {
		return nil, false
	}
	return NewContext(value, ctx).resolve(f.next)
}

type parent struct {
	next Expression
}

func (p parent) String() string {
	return parentPrefix + p.next.String()
}

// A missing parent resolves to a defined nil, stopping a fallback.
func (p parent) evaluate(ctx *Context) (any, bool) {
	if ctx.parent == nil {
		return nil, true
	}
	return ctx.parent.resolve(p.next)
}

type fallback struct {
	alternatives []Expression
}

func (f fallback) String() string {
	parts := make([]string, 0, len(f.alternatives))
	for _, alternative := range f.alternatives {
		parts = append(parts, alternative.String())
	}
	return strings.Join(parts, fallbackSeparator)
}

func (f fallback) evaluate(ctx *Context) (any, bool) {
	for _, alternative := range f.alternatives {
		if value, defined := alternative.evaluate(ctx); defined {
			return value, true
		}
	}
	return nil, false
}

// Parse parses the given path into an Expression. The only syntax
// error is an unbalanced literal quote.
func Parse(path string) (Expression, error) {
	if !strings.Contains(path, fallbackSeparator) {
		return parseAlternative(path)
	}

	alternatives := make([]Expression, 0)
	for _, part := range strings.Split(path, fallbackSeparator) {
		alternative, err := parseAlternative(part)
		if err != nil {
			return nil, err
		}
		alternatives = append(alternatives, alternative)
	}
	return fallback{alternatives: alternatives}, nil
}

// MustParse is like Parse but panics on error.
func MustParse(path string) Expression {
	expression, err := Parse(path)
	if err != nil {
		panic(err)
	}
	return expression
}

func parseAlternative(path string) (Expression, error) {
	if path == "" || path == identityPath {
		return identity{}, nil
	}

	if matches := literalPattern.FindStringSubmatch(path); matches != nil {
		return literal{text: matches[1]}, nil
	}

	if strings.HasPrefix(path, parentPrefix) {
		next, err := parseAlternative(strings.TrimPrefix(path, parentPrefix))
		if err != nil {
			return nil, err
		}
		return parent{next: next}, nil
	}

	if path[0] == literalQuoteRune || path[len(path)-1] == literalQuoteRune {
		return nil, errors.Errorf("unbalanced literal quote in path '%s'", path)
	}

	name, rest, nested := strings.Cut(path, navigationSeparator)
	if !nested {
		return field{name: name}, nil
	}

	next, err := parseAlternative(rest)
	if err != nil {
		return nil, err
	}
	return field{name: name, next: next}, nil
}

func lookup(value any, name string) (any, bool) {
	object, ok := value.(map[string]any)
	if !ok {
		return nil, false
	}
	child, present := object[name]
	return child, present
}
