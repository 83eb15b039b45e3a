package chat

import "errors"

var (
	// ErrSearcherRequired is returned when no searcher is provided.
	ErrSearcherRequired = errors.New("searcher required")

	// ErrCompleterRequired is returned when no completer is provided.
	ErrCompleterRequired = errors.New("completer required")
)
