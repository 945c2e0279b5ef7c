// Package materials retrieves course-material context for chat prompts.
//
// Retrieval is an external collaborator that is not wired up yet; the noop
// retriever keeps the prompt pipeline shape stable until it is.
package materials

import "context"

// Retriever looks up course-material text relevant to a user's message.
// An empty result is valid and means no materials section is rendered.
type Retriever interface {
	Retrieve(ctx context.Context, userID, query string) (string, error)
}

// Noop always returns no materials.
type Noop struct{}

// Retrieve implements Retriever.
func (Noop) Retrieve(ctx context.Context, userID, query string) (string, error) {
	return "", nil
}
