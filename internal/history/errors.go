package history

import "errors"

// ErrRendererNotFound is returned when no catalogue row has the given UUID.
var ErrRendererNotFound = errors.New("history: renderer not found")
