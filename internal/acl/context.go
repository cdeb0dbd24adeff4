package acl

import (
	"context"
	"crypto/x509"
	"net/netip"
	"strings"
	"sync"
	"time"

	"github.com/KilimcininKorOglu/oba-aci/internal/dn"
	"github.com/KilimcininKorOglu/oba-aci/internal/filter"
	"github.com/KilimcininKorOglu/oba-aci/internal/schema"
)

// Privilege is a bitmask of server privileges held by a client.
type Privilege int

const (
	// PrivBypassACL skips access control entirely.
	PrivBypassACL Privilege = 1 << iota
	// PrivModifyACL is required to add or change aci values.
	PrivModifyACL
	// PrivProxiedAuth is required to use proxied authorization.
	PrivProxiedAuth
)

// Client is the identity and connection state an operation is evaluated
// for. When proxied authorization is in use DN and Entry are the proxied
// identity and Original is the authenticated one.
type Client struct {
	DN                dn.DN
	Entry             *filter.Entry
	AuthMethod        AuthMethod
	SASLMechanism     string
	Secure            bool
	ClientCertificate *x509.Certificate
	RemoteAddr        netip.Addr
	Hostname          string
	Privileges        Privilege
	Original          *Client
}

// IsAnonymous reports whether the client has not bound.
func (c *Client) IsAnonymous() bool {
	return c == nil || c.DN.IsRoot()
}

// HasPrivilege reports whether the client holds p.
func (c *Client) HasPrivilege(p Privilege) bool {
	return c != nil && c.Privileges&p != 0
}

// IsProxied reports whether the client acts under proxied authorization.
func (c *Client) IsProxied() bool {
	return c != nil && c.Original != nil
}

// ProxiedAs returns a copy of c acting as the identity d. The connection
// state is kept and c becomes the original identity.
func (c *Client) ProxiedAs(d dn.DN, entry *filter.Entry) *Client {
	p := *c
	p.DN = d
	p.Entry = entry
	p.Original = c
	return &p
}

// Operation is the kind of LDAP operation being checked.
type Operation int

const (
	OperationAdd Operation = iota
	OperationDelete
	OperationModify
	OperationModifyDN
	OperationCompare
	OperationSearch
	OperationExtended
)

var operationNames = [...]string{"add", "delete", "modify", "modifydn", "compare", "search", "extended"}

// String returns the operation name.
func (o Operation) String() string {
	if int(o) < len(operationNames) {
		return operationNames[o]
	}
	return "unknown"
}

// EvalReason records why an access check ended the way it did.
type EvalReason int

const (
	ReasonNone EvalReason = iota
	ReasonSkipACI
	ReasonNoAllowACIs
	ReasonNoMatchedAllowACIs
	ReasonEvaluatedAllowACI
	ReasonEvaluatedDenyACI
)

// String returns the reason as shown in aclRightsInfo.
func (r EvalReason) String() string {
	switch r {
	case ReasonSkipACI:
		return "skip acl evaluation"
	case ReasonNoAllowACIs:
		return "no acis matched the resource"
	case ReasonNoMatchedAllowACIs:
		return "no acis matched the subject"
	case ReasonEvaluatedAllowACI:
		return "evaluated allow"
	case ReasonEvaluatedDenyACI:
		return "evaluated deny"
	default:
		return "none"
	}
}

// Scratch is the mutable bookkeeping of one access check.
type Scratch struct {
	AllowList []*ACI
	DenyList  []*ACI

	// EntryTestRule is raised when an ACI without targetattr matched the
	// first attribute of an entry level check.
	EntryTestRule  bool
	FirstAttribute bool

	// TargAttrFiltersMatch is set when a targattrfilters list matched the
	// current value, which then bypasses the targetattr check.
	TargAttrFiltersMatch bool
	// TargAttrFilterACIs collects the targattrfilters ACIs skipped while
	// computing effective rights.
	TargAttrFilterACIs []*ACI

	DecidingACI *ACI
	Reason      EvalReason
	DenyEval    bool
	Summary     string

	// SeenEntry is set once the proxy right has been checked for the
	// resource of a multi-check operation.
	SeenEntry bool

	// AllUserAttrsMatched and AllOpAttrsMatched tell the caller of MaySend
	// that every user or operational attribute is readable.
	AllUserAttrsMatched bool
	AllOpAttrsMatched   bool

	foundUserAttrRule bool
	foundOpAttrRule   bool
}

// EvalContext carries the inputs of one access check and its Scratch.
type EvalContext struct {
	Operation Operation
	Client    *Client
	Resource  *filter.Entry
	AttrType  *schema.AttributeType
	AttrValue []byte
	Rights    Right

	// EffectiveRights switches targattrfilters handling to the
	// introspection mode used by AddEffectiveRights.
	EffectiveRights bool

	Scratch Scratch

	h *Handler
}

func (ctx *EvalContext) resourceDN() dn.DN {
	if ctx.Resource == nil {
		return dn.Root()
	}
	return ctx.Resource.DN
}

func (ctx *EvalContext) isAnonymous() bool {
	return ctx.Client.IsAnonymous()
}

func (ctx *EvalContext) clientDN() dn.DN {
	if ctx.Client == nil {
		return dn.Root()
	}
	return ctx.Client.DN
}

// clientEntry returns the client's entry, fetching it when the caller did
// not supply one.
func (ctx *EvalContext) clientEntry() *filter.Entry {
	if ctx.isAnonymous() {
		return nil
	}
	if ctx.Client.Entry != nil {
		return ctx.Client.Entry
	}
	if ctx.h == nil || ctx.h.entries == nil {
		return nil
	}
	e, err := ctx.h.entries.GetEntry(ctx.Client.DN)
	if err != nil {
		ctx.h.logger.Debug("client entry lookup failed", "dn", ctx.Client.DN.String(), "error", err)
		return nil
	}
	return e
}

func (ctx *EvalContext) isMember(group dn.DN) (bool, error) {
	if ctx.isAnonymous() || ctx.h == nil || ctx.h.groups == nil {
		return false, nil
	}
	return ctx.h.groups.IsMember(ctx.Client.DN, group)
}

// clientMatchesURL checks the client DN against the URL scope and the
// client entry against its filter.
func (ctx *EvalContext) clientMatchesURL(u *ldapURL) bool {
	if ctx.isAnonymous() || !inScope(u.scope, u.base, ctx.Client.DN) {
		return false
	}
	if u.filter == nil {
		return true
	}
	e := ctx.clientEntry()
	return e != nil && ctx.filters().Evaluate(u.filter, e)
}

// ancestor returns the resource entry for level 0 and the entry level
// RDNs above it otherwise, or nil.
func (ctx *EvalContext) ancestor(level int) *filter.Entry {
	if level == 0 {
		return ctx.Resource
	}
	d := ctx.resourceDN()
	for i := 0; i < level; i++ {
		if d.IsRoot() {
			return nil
		}
		d = d.Parent()
	}
	if ctx.h == nil || ctx.h.entries == nil {
		return nil
	}
	e, err := ctx.h.entries.GetEntry(d)
	if err != nil {
		return nil
	}
	return e
}

// hostname returns the client host name, resolving the remote address when
// the connection did not record one.
func (ctx *EvalContext) hostname() (string, bool) {
	if ctx.Client == nil {
		return "", false
	}
	if ctx.Client.Hostname != "" {
		return strings.TrimSuffix(ctx.Client.Hostname, "."), true
	}
	if !ctx.Client.RemoteAddr.IsValid() || ctx.h == nil || ctx.h.resolver == nil {
		return "", false
	}
	c, cancel := context.WithTimeout(context.Background(), ctx.h.resolveTimeout)
	defer cancel()
	names, err := ctx.h.resolver.LookupAddr(c, ctx.Client.RemoteAddr.String())
	if err != nil || len(names) == 0 {
		return "", false
	}
	return strings.TrimSuffix(names[0], "."), true
}

func (ctx *EvalContext) now() time.Time {
	if ctx.h == nil || ctx.h.clock == nil {
		return time.Now()
	}
	return ctx.h.clock()
}

var defaultSchema = sync.OnceValue(schema.Default)

func (ctx *EvalContext) filters() *filter.Evaluator {
	if ctx.h == nil {
		return filter.NewEvaluator(defaultSchema())
	}
	return ctx.h.filters
}

func (ctx *EvalContext) attributeType(name string) *schema.AttributeType {
	if ctx.h == nil {
		return defaultSchema().GetAttributeType(name)
	}
	return ctx.h.schema.GetAttributeType(name)
}
