package rbac

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
)

// PermissionNode holds the actions granted on one module and its sub-modules.
type PermissionNode struct {
	Actions  []string       `json:"permissions,omitempty"`
	Children PermissionTree `json:"children,omitempty"`
}

// PermissionTree maps module keys to their granted actions.
type PermissionTree map[string]*PermissionNode

// Resolve walks a dot-separated module path ("tasks", "settings.roles").
func (t PermissionTree) Resolve(path string) (*PermissionNode, bool) {
	if path == "" {
		return nil, false
	}

	level := t
	var node *PermissionNode
	for _, key := range strings.Split(path, ".") {
		next, ok := level[key]
		if !ok || next == nil {
			return nil, false
		}
		node = next
		level = next.Children
	}
	return node, true
}

// Allows is an exact, case-sensitive membership test.
func (n *PermissionNode) Allows(action string) bool {
	if n == nil {
		return false
	}
	return slices.Contains(n.Actions, action)
}

// UnmarshalJSON accepts either a bare action list (`["create","assign"]`) or
// an object with "permissions" and nested "children".
func (n *PermissionNode) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}

	if trimmed[0] == '[' {
		var actions []string
		if err := json.Unmarshal(trimmed, &actions); err != nil {
			return fmt.Errorf("decode action list: %w", err)
		}
		n.Actions = actions
		return nil
	}

	var raw struct {
		Permissions []string       `json:"permissions"`
		Children    PermissionTree `json:"children"`
	}
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return fmt.Errorf("decode permission node: %w", err)
	}
	n.Actions = raw.Permissions
	n.Children = raw.Children
	return nil
}

// MarshalJSON writes leaves back as bare lists.
func (n PermissionNode) MarshalJSON() ([]byte, error) {
	if len(n.Children) == 0 {
		actions := n.Actions
		if actions == nil {
			actions = []string{}
		}
		return json.Marshal(actions)
	}

	type node PermissionNode
	return json.Marshal(node(n))
}

// ParsePermissionTree decodes a stored permissions document. Empty input
// yields an empty tree.
func ParsePermissionTree(data []byte) (PermissionTree, error) {
	tree := PermissionTree{}
	if len(bytes.TrimSpace(data)) == 0 {
		return tree, nil
	}
	if err := json.Unmarshal(data, &tree); err != nil {
		return nil, err
	}
	if tree == nil {
		tree = PermissionTree{}
	}
	return tree, nil
}

// Evaluator answers "can this role do action X on module Y".
type Evaluator struct{}

func NewEvaluator() *Evaluator {
	return &Evaluator{}
}

// Can returns true unconditionally for full-access roles. Otherwise the module
// path must resolve and list the action; anything else is denied.
func (e *Evaluator) Can(role Role, module, action string) bool {
	if role.HasFullAccess() {
		return true
	}
	node, ok := role.Permissions.Resolve(module)
	if !ok {
		return false
	}
	return node.Allows(action)
}

// CanAny is Can over a set of alternative actions.
func (e *Evaluator) CanAny(role Role, module string, actions ...string) bool {
	for _, action := range actions {
		if e.Can(role, module, action) {
			return true
		}
	}
	return false
}
