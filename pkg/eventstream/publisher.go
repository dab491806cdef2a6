package eventstream

import "context"

// Publisher ships generation events. The runner calls PublishGeneration once
// per finished generation and treats errors as warnings.
type Publisher interface {
	PublishGeneration(ctx context.Context, event *GenerationEvent) error
	Close() error
}
