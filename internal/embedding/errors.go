package embedding

import "errors"

// ErrModelUnavailable means the embedding backend could not be initialized or invoked.
// It is transient: callers may retry after a delay.
var ErrModelUnavailable = errors.New("embedding model unavailable")

// ErrUnknownBackend is returned for an unsupported embedding.backend value.
var ErrUnknownBackend = errors.New("unknown embedding backend")
