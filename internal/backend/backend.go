package backend

import "context"

// Generator is the single abstraction point for an external generative
// service: one prompt in, one textual response out. The engine is agnostic
// to transport, authentication and model identity; it only enforces
// response-schema validation and timeouts further up the stack.
type Generator interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
	Model() string
}
