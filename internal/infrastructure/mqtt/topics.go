package mqtt

import "strings"

// DefaultTopicPrefix is used when no prefix is configured.
const DefaultTopicPrefix = "agentshell"

// Topics builds topic names under a prefix.
type Topics struct {
	prefix string
}

// NewTopics returns builders rooted at prefix. Surrounding slashes are
// trimmed and an empty prefix falls back to DefaultTopicPrefix.
func NewTopics(prefix string) Topics {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		prefix = DefaultTopicPrefix
	}
	return Topics{prefix: prefix}
}

// BackendStatus is the retained status of the backend sidecar.
//
// Example: agentshell/backend/status
func (t Topics) BackendStatus() string {
	return t.prefix + "/backend/status"
}

// BackendEvents carries one non-retained message per lifecycle event.
//
// Example: agentshell/backend/events
func (t Topics) BackendEvents() string {
	return t.prefix + "/backend/events"
}
