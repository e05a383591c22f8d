package core

import (
	"errors"
	"fmt"
)

var (
	ErrNodeNotFound     = errors.New("node not found")
	ErrModelNotFound    = errors.New("model not found")
	ErrUnsupportedModel = errors.New("unsupported model")
)

// UnsupportedModelError is returned when a model identifier does not carry
// one of the known provider prefixes.
type UnsupportedModelError struct {
	Model string
}

func (e *UnsupportedModelError) Error() string {
	return fmt.Sprintf("Unsupported model: %s", e.Model)
}

func (e *UnsupportedModelError) Unwrap() error {
	return ErrUnsupportedModel
}
