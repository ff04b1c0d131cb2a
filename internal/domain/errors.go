package domain

import "errors"

var (
	// ErrNoBackend signals that no LLM backend passed its availability probe.
	ErrNoBackend = errors.New("no usable LLM backend found")
	// ErrEmptyCollection signals a query against an empty or absent knowledge base.
	ErrEmptyCollection = errors.New("knowledge base is empty")
	// ErrNoUserMessage signals a chat request without a user-role message.
	ErrNoUserMessage = errors.New("no user message found")
	// ErrStoreUnavailable signals that the vector store did not answer its liveness probe.
	ErrStoreUnavailable = errors.New("vector store is not available")
)
