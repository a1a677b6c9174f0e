package core

import (
	"fmt"

	"github.com/google/uuid"
)

// NewSessionID returns a fresh identifier for a debate session.
func NewSessionID() string {
	return uuid.New().String()
}

// AgentElementID returns the generated identifier for the n-th agent.
func AgentElementID(n int) string {
	return fmt.Sprintf("agent-%d", n)
}

// ShortID trims an identifier for display.
func ShortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
