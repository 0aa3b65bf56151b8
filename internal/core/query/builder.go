// Package query turns a raw key/value request into a store-agnostic
// Specification: filter conditions, composite sort keys, a field projection
// and pagination. The builder is a fluent pipeline — stages may be applied in
// any order, errors stick, and Spec() is the single terminal step.
package query

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/wandertrails/tours-api/internal/core/domain"
)

// Op is a filter comparison operator.
type Op string

const (
	OpEq  Op = "eq"
	OpGT  Op = "gt"
	OpGTE Op = "gte"
	OpLT  Op = "lt"
	OpLTE Op = "lte"
)

// Condition is a single field/operator/value filter triple. Value is kept as
// the raw string; the store layer coerces it to a typed literal.
type Condition struct {
	Field string
	Op    Op
	Value string
}

// SortKey is one component of a composite sort.
type SortKey struct {
	Field string
	Desc  bool
}

// Spec is the parsed, request-scoped query specification. Built once per
// request and discarded after execution.
type Spec struct {
	Conditions []Condition
	Sorts      []SortKey
	Fields     []string
	Page       int
	Limit      int
}

// Skip returns the pagination offset.
func (s *Spec) Skip() int {
	return (s.Page - 1) * s.Limit
}

// reserved keys never become filter conditions.
var reserved = map[string]struct{}{
	"page":   {},
	"sort":   {},
	"limit":  {},
	"fields": {},
}

// Builder accumulates pipeline stages over the raw request values.
type Builder struct {
	raw  url.Values
	spec Spec
	err  error
}

// NewBuilder starts a pipeline over the given request values.
func NewBuilder(raw url.Values) *Builder {
	return &Builder{raw: raw, spec: Spec{Page: 1}}
}

// Filter turns every non-reserved key into a condition. A bracket suffix
// selects the comparison operator ("price[gte]=100"); a bare key is an
// equality match. An unknown operator is a malformed-query error, never
// silently dropped.
func (b *Builder) Filter() *Builder {
	if b.err != nil {
		return b
	}

	// Deterministic condition order regardless of map iteration.
	keys := make([]string, 0, len(b.raw))
	for k := range b.raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		if _, ok := reserved[key]; ok {
			continue
		}
		field, op, err := splitOperator(key)
		if err != nil {
			b.err = err
			return b
		}
		for _, v := range b.raw[key] {
			b.spec.Conditions = append(b.spec.Conditions, Condition{Field: field, Op: op, Value: v})
		}
	}
	return b
}

// Sort parses the comma-separated sort list; a leading '-' marks descending.
// When unspecified the spec sorts by creation time descending so pagination
// stays deterministic.
func (b *Builder) Sort() *Builder {
	if b.err != nil {
		return b
	}

	raw := b.raw.Get("sort")
	if raw == "" {
		b.spec.Sorts = []SortKey{{Field: "createdAt", Desc: true}}
		return b
	}

	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		key := SortKey{Field: part}
		if strings.HasPrefix(part, "-") {
			key = SortKey{Field: part[1:], Desc: true}
		}
		if key.Field == "" {
			b.err = fmt.Errorf("%w: empty sort field", domain.ErrMalformedQuery)
			return b
		}
		b.spec.Sorts = append(b.spec.Sorts, key)
	}
	return b
}

// Project parses the comma-separated field allow-list. The identifier is
// always retained by the store layer; an empty list means all fields.
func (b *Builder) Project() *Builder {
	if b.err != nil {
		return b
	}

	raw := b.raw.Get("fields")
	if raw == "" {
		return b
	}
	for _, f := range strings.Split(raw, ",") {
		f = strings.TrimSpace(f)
		if f != "" {
			b.spec.Fields = append(b.spec.Fields, f)
		}
	}
	return b
}

// Paginate parses page (1-based) and limit, falling back to defaultLimit.
// A page past the end of the collection yields an empty result downstream,
// not an error.
func (b *Builder) Paginate(defaultLimit int) *Builder {
	if b.err != nil {
		return b
	}

	page, err := positiveInt(b.raw.Get("page"), 1)
	if err != nil {
		b.err = fmt.Errorf("%w: invalid page %q", domain.ErrMalformedQuery, b.raw.Get("page"))
		return b
	}
	limit, err := positiveInt(b.raw.Get("limit"), defaultLimit)
	if err != nil {
		b.err = fmt.Errorf("%w: invalid limit %q", domain.ErrMalformedQuery, b.raw.Get("limit"))
		return b
	}

	b.spec.Page = page
	b.spec.Limit = limit
	return b
}

// Spec is the terminal step: it returns the built specification or the first
// error encountered by any stage.
func (b *Builder) Spec() (*Spec, error) {
	if b.err != nil {
		return nil, b.err
	}
	return &b.spec, nil
}

// splitOperator separates "price[gte]" into field and operator.
func splitOperator(key string) (string, Op, error) {
	open := strings.IndexByte(key, '[')
	if open < 0 {
		return key, OpEq, nil
	}
	if !strings.HasSuffix(key, "]") || open == 0 {
		return "", "", fmt.Errorf("%w: bad filter key %q", domain.ErrMalformedQuery, key)
	}

	field := key[:open]
	switch op := Op(key[open+1 : len(key)-1]); op {
	case OpGT, OpGTE, OpLT, OpLTE:
		return field, op, nil
	default:
		return "", "", fmt.Errorf("%w: unknown operator %q for field %q", domain.ErrMalformedQuery, string(op), field)
	}
}

func positiveInt(raw string, fallback int) (int, error) {
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("not a positive integer: %q", raw)
	}
	return n, nil
}
