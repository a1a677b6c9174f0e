package session

import "strings"

const thinkingMarker = "is thinking..."

// thinkingAgentLocked resolves the agent named by a "<name> is thinking..."
// status. The full text before the marker is tried first so multi-word names
// like "Agent A" resolve; otherwise the first whitespace-delimited token is used.
func (s *Session) thinkingAgentLocked(content string) (string, bool) {
	idx := strings.Index(content, thinkingMarker)
	if idx < 0 {
		return "", false
	}
	if name := strings.TrimSpace(content[:idx]); name != "" {
		if _, ok := s.agents[name]; ok {
			return name, true
		}
	}
	fields := strings.Fields(content)
	if len(fields) == 0 {
		return "", false
	}
	if _, ok := s.agents[fields[0]]; ok {
		return fields[0], true
	}
	return "", false
}
