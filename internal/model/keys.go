package model

import (
	"path"
	"strings"
)

// Root keys encode "<type>:<path-or-name>". Both the type and the display
// name are derived from the key alone.
const keyDelimiter = ":"

const (
	RootTypePlaybook = "playbook"
	RootTypeRole     = "role"
)

// RootType returns "playbook" or "role", or "" when the key is missing or
// carries an unknown type.
func RootType(rootKey string) string {
	typ, _, ok := strings.Cut(rootKey, keyDelimiter)
	if !ok {
		return ""
	}
	switch typ {
	case RootTypePlaybook, RootTypeRole:
		return typ
	}
	return ""
}

// RootName returns the display name for a root key: the file base name for
// playbooks, the trailing segment as-is for roles.
func RootName(rootKey string) string {
	typ, rest, ok := strings.Cut(rootKey, keyDelimiter)
	if !ok {
		return ""
	}
	switch typ {
	case RootTypePlaybook:
		return path.Base(rest)
	case RootTypeRole:
		return rest
	}
	return ""
}
