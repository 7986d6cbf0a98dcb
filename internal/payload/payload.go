// Package payload decodes inbound MQTT payloads. Raw bytes are parsed as JSON,
// checked against a JSON Schema and only then turned into a typed record, so
// nothing downstream ever sees an unchecked shape.
package payload

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

var (
	ErrMalformed = errors.New("payload is not valid JSON")
	ErrRejected  = errors.New("payload does not match schema")
)

// Status tags the outcome of a decode.
type Status int

const (
	// Decoded carries a typed value ready for the state store.
	Decoded Status = iota
	// Rejected payloads parsed as JSON but have the wrong shape.
	Rejected
	// Malformed payloads are not JSON at all.
	Malformed
)

func (s Status) String() string {
	switch s {
	case Decoded:
		return "decoded"
	case Rejected:
		return "rejected"
	case Malformed:
		return "malformed"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Result is the tagged outcome of Decode. Value is only set when Status is
// Decoded; Err is only set otherwise.
type Result[T any] struct {
	Status Status
	Value  T
	Err    error
}

// Decoder validates payloads against one schema and builds T from the
// validated document.
type Decoder[T any] struct {
	schema *jsonschema.Schema
	build  func(doc any) T
}

// NewDecoder compiles schema (a JSON Schema document, draft 2020-12).
func NewDecoder[T any](name, schema string, build func(doc any) T) (*Decoder[T], error) {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020

	url := name + ".json"
	if err := compiler.AddResource(url, strings.NewReader(schema)); err != nil {
		return nil, fmt.Errorf("add %s schema: %w", name, err)
	}
	s, err := compiler.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("compile %s schema: %w", name, err)
	}
	return &Decoder[T]{schema: s, build: build}, nil
}

// Decode never panics and never returns a partially built value.
func (d *Decoder[T]) Decode(raw []byte) Result[T] {
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return Result[T]{Status: Malformed, Err: fmt.Errorf("%w: %v", ErrMalformed, err)}
	}
	if err := d.schema.Validate(doc); err != nil {
		var ve *jsonschema.ValidationError
		if errors.As(err, &ve) {
			return Result[T]{Status: Rejected, Err: fmt.Errorf("%w: %s", ErrRejected, describe(ve))}
		}
		return Result[T]{Status: Rejected, Err: fmt.Errorf("%w: %v", ErrRejected, err)}
	}
	return Result[T]{Status: Decoded, Value: d.build(doc)}
}

// describe flattens the first leaf cause into "location: message".
func describe(ve *jsonschema.ValidationError) string {
	for len(ve.Causes) > 0 {
		ve = ve.Causes[0]
	}
	loc := ve.InstanceLocation
	if loc == "" {
		loc = "/"
	}
	return loc + ": " + ve.Message
}

// Field reads an optional field. Absent and null both report ok=false.
func Field(doc map[string]any, key string) (any, bool) {
	v, ok := doc[key]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}
