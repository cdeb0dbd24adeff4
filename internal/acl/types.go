package acl

import (
	"fmt"
	"strings"
)

// Right represents an access control right.
// Rights are bit flags that can be combined using bitwise OR.
type Right int

const (
	// Read allows reading entry attributes
	Read Right = 1 << iota

	// Write allows modifying entry attributes
	Write

	// Add allows creating new entries
	Add

	// Delete allows removing entries
	Delete

	// Search allows searching for entries
	Search

	// Compare allows comparing attribute values
	Compare

	// SelfWrite allows a client to add or remove its own DN as a value
	SelfWrite

	// Proxy allows acting as another identity
	Proxy

	// Import allows moving an entry into a subtree
	Import

	// Export allows moving an entry out of a subtree
	Export

	// WriteAdd and WriteDelete narrow Write to adding or removing a
	// value. They are set by modify checks and cannot be named in an ACI.
	WriteAdd
	WriteDelete

	// ExtOp and Control are checked for extended operations and request
	// controls. They cannot be named in an ACI.
	ExtOp
	Control

	// All combines every nameable right except proxy.
	All = Read | Write | Add | Delete | Search | Compare | SelfWrite | Import | Export

	// None is the empty right set.
	None Right = 0
)

var rightNames = []struct {
	right Right
	name  string
}{
	{Read, "read"},
	{Write, "write"},
	{Add, "add"},
	{Delete, "delete"},
	{Search, "search"},
	{Compare, "compare"},
	{SelfWrite, "selfwrite"},
	{Proxy, "proxy"},
	{Import, "import"},
	{Export, "export"},
	{WriteAdd, "write_add"},
	{WriteDelete, "write_delete"},
	{ExtOp, "ext_op"},
	{Control, "control"},
}

// String returns a human-readable representation of the right set.
func (r Right) String() string {
	if r == None {
		return "none"
	}
	if r == All {
		return "all"
	}
	var names []string
	for _, rn := range rightNames {
		if r&rn.right != 0 {
			names = append(names, rn.name)
		}
	}
	return strings.Join(names, ",")
}

// Has checks if the right includes the specified right.
func (r Right) Has(other Right) bool {
	return r&other != 0
}

// parseRight maps a right keyword from an ACI permission.
func parseRight(s string) (Right, bool) {
	switch strings.ToLower(s) {
	case "read":
		return Read, true
	case "write":
		return Write, true
	case "add":
		return Add, true
	case "delete":
		return Delete, true
	case "search":
		return Search, true
	case "compare":
		return Compare, true
	case "selfwrite":
		return SelfWrite, true
	case "proxy":
		return Proxy, true
	case "import":
		return Import, true
	case "export":
		return Export, true
	case "all":
		return All, true
	}
	return None, false
}

// AccessType says whether a permission grants or denies.
type AccessType int

const (
	// Allow grants the rights of a permission.
	Allow AccessType = iota
	// Deny refuses the rights of a permission.
	Deny
)

// String returns the ACI keyword for the access type.
func (t AccessType) String() string {
	if t == Deny {
		return "deny"
	}
	return "allow"
}

// Scope represents the targetscope of an ACI.
type Scope int

const (
	// ScopeBase applies only to the target entry itself
	ScopeBase Scope = iota

	// ScopeOneLevel applies to immediate children of the target
	ScopeOneLevel

	// ScopeSubtree applies to the target and all descendants
	ScopeSubtree

	// ScopeSubordinate applies to all descendants but not the target
	ScopeSubordinate
)

// String returns a human-readable representation of the scope.
func (s Scope) String() string {
	switch s {
	case ScopeBase:
		return "base"
	case ScopeOneLevel:
		return "onelevel"
	case ScopeSubtree:
		return "subtree"
	case ScopeSubordinate:
		return "subordinate"
	default:
		return "unknown"
	}
}

func parseScope(s string) (Scope, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "base":
		return ScopeBase, nil
	case "onelevel":
		return ScopeOneLevel, nil
	case "subtree":
		return ScopeSubtree, nil
	case "subordinate":
		return ScopeSubordinate, nil
	}
	return 0, fmt.Errorf("unknown scope %q", s)
}

// Operator is the comparison of a target or bind rule: = and != for every
// keyword, the ordering operators for timeofday only.
type Operator int

const (
	OpEqual Operator = iota
	OpNotEqual
	OpLess
	OpLessOrEqual
	OpGreater
	OpGreaterOrEqual
)

// String returns the operator as written in an ACI.
func (o Operator) String() string {
	switch o {
	case OpEqual:
		return "="
	case OpNotEqual:
		return "!="
	case OpLess:
		return "<"
	case OpLessOrEqual:
		return "<="
	case OpGreater:
		return ">"
	case OpGreaterOrEqual:
		return ">="
	default:
		return "?"
	}
}

// Result is the three-valued outcome of a bind rule evaluation.
type Result int

const (
	// ResultFalse means the rule did not match.
	ResultFalse Result = iota
	// ResultTrue means the rule matched.
	ResultTrue
	// ResultFail means the rule could not be evaluated.
	ResultFail
)

// String returns the result name.
func (r Result) String() string {
	switch r {
	case ResultTrue:
		return "true"
	case ResultFalse:
		return "false"
	default:
		return "fail"
	}
}

// withType applies the bind rule operator to a leaf result. A definite
// result is flipped for !=; an undefined non-match becomes ResultFail.
func (r Result) withType(op Operator, undefined bool) Result {
	if r == ResultFail {
		return ResultFail
	}
	if r == ResultTrue || !undefined {
		if op == OpNotEqual {
			if r == ResultTrue {
				return ResultFalse
			}
			return ResultTrue
		}
		return r
	}
	return ResultFail
}

func boolResult(b bool) Result {
	if b {
		return ResultTrue
	}
	return ResultFalse
}
