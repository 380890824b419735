package util

import (
	"strings"

	"github.com/google/uuid"
)

// NewRunID returns a random identifier for one pipeline invocation.
func NewRunID() string {
	return strings.ToLower(uuid.New().String())
}
