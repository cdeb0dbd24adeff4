package acl

import (
	"errors"
	"fmt"
	"strings"
)

// Syntax error categories. Every *SyntaxError unwraps to one of these.
var (
	ErrInvalidACI      = errors.New("acl: invalid ACI")
	ErrInvalidTarget   = errors.New("acl: invalid target")
	ErrInvalidBindRule = errors.New("acl: invalid bind rule")
	ErrInvalidRight    = errors.New("acl: invalid right")
)

// Runtime errors.
var (
	ErrNoFilePath    = errors.New("acl: file path is required")
	ErrInvalidConfig = errors.New("acl: invalid configuration")
	ErrFileNotFound  = errors.New("acl: file not found")
	ErrInvalidYAML   = errors.New("acl: invalid YAML format")
)

// MessageID identifies the reason an ACI was rejected. IDs are stable and
// intended for logs and client diagnostics.
type MessageID string

const (
	MsgSyntax              MessageID = "ACI_SYNTAX_GENERAL_PARSE_FAILED"
	MsgVersion             MessageID = "ACI_SYNTAX_INVALID_VERSION"
	MsgName                MessageID = "ACI_SYNTAX_INVALID_NAME"
	MsgAccessType          MessageID = "ACI_SYNTAX_INVALID_ACCESS_TYPE"
	MsgRights              MessageID = "ACI_SYNTAX_INVALID_RIGHTS"
	MsgNoPermissions       MessageID = "ACI_SYNTAX_NO_PERMISSIONS"
	MsgTargetSyntax        MessageID = "ACI_SYNTAX_INVALID_TARGET_SYNTAX"
	MsgTargetKeyword       MessageID = "ACI_SYNTAX_INVALID_TARGET_KEYWORD"
	MsgTargetDuplicate     MessageID = "ACI_SYNTAX_TARGET_DUPLICATE_KEYWORDS"
	MsgTargetOperator      MessageID = "ACI_SYNTAX_INVALID_TARGET_NOT_OPERATOR"
	MsgTargetDN            MessageID = "ACI_SYNTAX_INVALID_TARGETDN"
	MsgTargetNotDescendant MessageID = "ACI_SYNTAX_TARGET_DN_NOT_DESCENDENT_OF"
	MsgTargetAttr          MessageID = "ACI_SYNTAX_INVALID_TARGETATTRKEYWORD_EXPRESSION"
	MsgTargetFilter        MessageID = "ACI_SYNTAX_INVALID_TARGETFILTERKEYWORD_EXPRESSION"
	MsgTargetScope         MessageID = "ACI_SYNTAX_INVALID_TARGETSCOPE_EXPRESSION"
	MsgTargAttrFilters     MessageID = "ACI_SYNTAX_INVALID_TARGATTRFILTERS_EXPRESSION"
	MsgTargAttrFiltersMax  MessageID = "ACI_SYNTAX_INVALID_TARGATTRFILTERS_MAX_FILTER_LISTS"
	MsgTargAttrFiltersOp   MessageID = "ACI_SYNTAX_INVALID_TARGATTRFILTERS_OPS_MATCH"
	MsgTargAttrFiltersAttr MessageID = "ACI_SYNTAX_INVALID_TARGATTRFILTERS_ATTR_FILTER"
	MsgBindRuleSyntax      MessageID = "ACI_SYNTAX_INVALID_BIND_RULE_SYNTAX"
	MsgBindRuleKeyword     MessageID = "ACI_SYNTAX_INVALID_BIND_RULE_KEYWORD"
	MsgBindRuleOperator    MessageID = "ACI_SYNTAX_INVALID_BIND_RULE_OPERATOR"
	MsgBindRuleParens      MessageID = "ACI_SYNTAX_BIND_RULE_MISSING_CLOSE_PAREN"
	MsgUserDN              MessageID = "ACI_SYNTAX_INVALID_USERDN_URL"
	MsgGroupDN             MessageID = "ACI_SYNTAX_INVALID_GROUPDN_URL"
	MsgRoleDN              MessageID = "ACI_SYNTAX_INVALID_ROLEDN_URL"
	MsgIP                  MessageID = "ACI_SYNTAX_INVALID_IPADDRESS"
	MsgDNS                 MessageID = "ACI_SYNTAX_INVALID_DNS_EXPRESSION"
	MsgDayOfWeek           MessageID = "ACI_SYNTAX_INVALID_DAYOFWEEK"
	MsgTimeOfDay           MessageID = "ACI_SYNTAX_INVALID_TIMEOFDAY"
	MsgUserAttr            MessageID = "ACI_SYNTAX_INVALID_USERATTR_EXPRESSION"
	MsgUserAttrInheritance MessageID = "ACI_SYNTAX_INVALID_USERATTR_INHERITANCE_PATTERN"
	MsgAuthMethod          MessageID = "ACI_SYNTAX_INVALID_AUTHMETHOD_EXPRESSION"
)

// SyntaxError describes why an ACI value could not be decoded.
type SyntaxError struct {
	ID      MessageID
	Message string
	// Value is the fragment of ACI text that failed.
	Value string
	// Err is the underlying cause, if any.
	Err error

	kind error
}

func newSyntaxError(kind error, id MessageID, value, format string, args ...interface{}) *SyntaxError {
	return &SyntaxError{
		ID:      id,
		Message: fmt.Sprintf(format, args...),
		Value:   value,
		kind:    kind,
	}
}

func (e *SyntaxError) wrap(err error) *SyntaxError {
	e.Err = err
	return e
}

// Error implements the error interface.
func (e *SyntaxError) Error() string {
	var b strings.Builder
	b.WriteString(e.kind.Error())
	b.WriteString(": ")
	b.WriteString(e.Message)
	if e.Value != "" {
		fmt.Fprintf(&b, ": %q", e.Value)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap returns the error category and the cause.
func (e *SyntaxError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.kind}
	}
	return []error{e.kind, e.Err}
}

// Fields returns key/value pairs for structured logging.
func (e *SyntaxError) Fields() []interface{} {
	return []interface{}{"message_id", string(e.ID), "value", e.Value, "error", e.Message}
}

// ResultCode is an LDAP result code attached to access errors.
type ResultCode int

const (
	// ResultInsufficientAccessRights is returned when an operation is denied.
	ResultInsufficientAccessRights ResultCode = 50
	// ResultInvalidAttributeSyntax is returned when an aci value does not decode.
	ResultInvalidAttributeSyntax ResultCode = 21
)

// AccessError carries the result code an operation should fail with when a
// check rejects it for a reason other than a plain denial.
type AccessError struct {
	Code    ResultCode
	Message string
	Err     error
}

// Error implements the error interface.
func (e *AccessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("acl: %s (result code %d): %v", e.Message, e.Code, e.Err)
	}
	return fmt.Sprintf("acl: %s (result code %d)", e.Message, e.Code)
}

// Unwrap returns the underlying error.
func (e *AccessError) Unwrap() error {
	return e.Err
}

// ConfigurationError reports ACIs that failed to decode while loading a
// configured source such as the global ACI list or a bootstrap file.
type ConfigurationError struct {
	Source   string
	Failures []error
}

// Error implements the error interface.
func (e *ConfigurationError) Error() string {
	if len(e.Failures) == 1 {
		return fmt.Sprintf("acl: %s: %v", e.Source, e.Failures[0])
	}
	return fmt.Sprintf("acl: %s: %d ACIs failed to decode", e.Source, len(e.Failures))
}

// Unwrap returns the individual decode failures.
func (e *ConfigurationError) Unwrap() []error {
	return e.Failures
}

// Is reports whether target is ErrInvalidConfig.
func (e *ConfigurationError) Is(target error) bool {
	return target == ErrInvalidConfig
}
