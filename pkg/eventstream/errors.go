package eventstream

import (
	"errors"
	"fmt"
)

var (
	// ErrNilEvent is returned by publishers handed a nil event.
	ErrNilEvent = errors.New("nil generation event")

	// ErrUnsupportedSchema is returned for events of a schema version this
	// build cannot publish.
	ErrUnsupportedSchema = errors.New("unsupported generation event schema")
)

// Validate checks that e can be published.
func Validate(e *GenerationEvent) error {
	if e == nil {
		return ErrNilEvent
	}
	if e.SchemaVersion != SchemaVersionV1 {
		return fmt.Errorf("%w: version %d", ErrUnsupportedSchema, e.SchemaVersion)
	}
	return nil
}
