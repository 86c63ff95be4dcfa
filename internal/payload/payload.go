// Package payload describes the replication packages that move through
// distribution queues.
//
// A Package is a descriptor, not the content itself: building and importing
// package binaries belongs to the packaging subsystem. Queues and transports
// only need the identifier, the requested action, the affected repository
// paths, and the serialization type.
package payload

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Action identifies what a package asks the receiving instance to do.
type Action string

const (
	ActionAdd    Action = "add"
	ActionDelete Action = "delete"
	ActionPull   Action = "pull"
	ActionTest   Action = "test"
)

var allActions = []Action{ActionAdd, ActionDelete, ActionPull, ActionTest}

// AllActions returns the ordered list of known actions.
func AllActions() []Action {
	cp := make([]Action, len(allActions))
	copy(cp, allActions)
	return cp
}

// ParseAction converts a string into a known Action.
func ParseAction(value string) (Action, bool) {
	normalized := Action(strings.ToLower(strings.TrimSpace(value)))
	for _, action := range allActions {
		if action == normalized {
			return action, true
		}
	}
	return "", false
}

// DefaultType is the package serialization used when a producer does not
// specify one.
const DefaultType = "filevault"

// Package is the immutable descriptor for one unit of replication work.
// The ID doubles as the queue item id wherever the package is enqueued.
type Package struct {
	ID      string    `json:"id"`
	Type    string    `json:"type"`
	Action  Action    `json:"action"`
	Paths   []string  `json:"paths"`
	Created time.Time `json:"created"`
}

// New builds a package descriptor with a fresh uuid.
func New(pkgType string, action Action, paths []string) Package {
	if strings.TrimSpace(pkgType) == "" {
		pkgType = DefaultType
	}
	cp := make([]string, len(paths))
	copy(cp, paths)
	return Package{
		ID:      uuid.NewString(),
		Type:    pkgType,
		Action:  action,
		Paths:   cp,
		Created: time.Now().UTC(),
	}
}

// Validate reports whether the descriptor is complete enough to enqueue.
func (p Package) Validate() error {
	if strings.TrimSpace(p.ID) == "" {
		return errors.New("package id is required")
	}
	if _, ok := ParseAction(string(p.Action)); !ok {
		return fmt.Errorf("unknown package action %q", p.Action)
	}
	if p.Action != ActionTest && len(p.Paths) == 0 {
		return errors.New("package paths are required")
	}
	for _, path := range p.Paths {
		trimmed := strings.TrimSpace(path)
		if trimmed == "" {
			return errors.New("package paths must not be blank")
		}
		if !strings.HasPrefix(trimmed, "/") {
			return fmt.Errorf("package path %q must be absolute", path)
		}
	}
	return nil
}

// Marshal encodes the descriptor for storage or transport.
func (p Package) Marshal() ([]byte, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal package: %w", err)
	}
	return data, nil
}

// Unmarshal decodes a descriptor produced by Marshal.
func Unmarshal(data []byte) (Package, error) {
	var pkg Package
	if err := json.Unmarshal(data, &pkg); err != nil {
		return Package{}, fmt.Errorf("unmarshal package: %w", err)
	}
	return pkg, nil
}
