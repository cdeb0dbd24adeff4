package acl

import (
	"fmt"
	"strings"

	"github.com/KilimcininKorOglu/oba-aci/internal/dn"
	"github.com/KilimcininKorOglu/oba-aci/internal/filter"
)

// Attribute names used to return effective rights.
const (
	AttrACLRights     = "aclRights"
	AttrACLRightsInfo = "aclRightsInfo"
)

// EffectiveRightsRequest asks for the rights an identity holds on returned
// entries, as the get effective rights control does.
type EffectiveRightsRequest struct {
	// AuthzDN is the identity the rights are computed for. Nil means the
	// requesting client.
	AuthzDN *dn.DN
	// Attributes lists the attributes to report attribute level rights
	// for. Empty means every attribute of the entry.
	Attributes []string
	// Info adds an aclRightsInfo summary for every right.
	Info bool
}

type namedRight struct {
	name   string
	rights Right
}

var entryLevelRights = []namedRight{
	{"add", Add},
	{"delete", Delete},
	{"read", Read},
	{"write", Write},
	{"proxy", Proxy},
}

var attributeLevelRights = []namedRight{
	{"search", Search},
	{"read", Read},
	{"compare", Compare},
	{"write", WriteAdd},
	{"selfwrite_add", WriteAdd | SelfWrite},
	{"selfwrite_delete", WriteDelete | SelfWrite},
	{"proxy", Proxy},
}

// AddEffectiveRights computes the rights of the requested identity on entry
// and stores them in out as aclRights;entryLevel and
// aclRights;attributeLevel;<attr> values such as "read:1,write:0". A right
// that depends on values restricted by targattrfilters is shown as "?".
func (h *Handler) AddEffectiveRights(client *Client, out, entry *filter.Entry, req EffectiveRightsRequest) {
	subject := h.rightsSubject(client, req.AuthzDN)
	skip := skipAccessCheck(subject)

	attrs := req.Attributes
	if len(attrs) == 0 {
		for _, name := range entry.AttributeNames() {
			if !strings.EqualFold(attributeName(name), AttrACLRights) && !strings.EqualFold(attributeName(name), AttrACLRightsInfo) {
				attrs = append(attrs, name)
			}
		}
	}

	values := make([]string, 0, len(entryLevelRights))
	for _, r := range entryLevelRights {
		v, summary := h.effectiveRight(subject, entry, "", r.rights, skip)
		values = append(values, r.name+":"+v)
		if req.Info {
			out.SetStringAttribute(AttrACLRightsInfo+";logs;entryLevel;"+r.name, summary)
		}
	}
	out.SetStringAttribute(AttrACLRights+";entryLevel", strings.Join(values, ","))

	for _, attr := range attrs {
		values = values[:0]
		for _, r := range attributeLevelRights {
			v, summary := h.effectiveRight(subject, entry, attr, r.rights, skip)
			values = append(values, r.name+":"+v)
			if req.Info {
				out.SetStringAttribute(AttrACLRightsInfo+";logs;attributeLevel;"+r.name+";"+attr, summary)
			}
		}
		out.SetStringAttribute(AttrACLRights+";attributeLevel;"+attr, strings.Join(values, ","))
	}
}

// rightsSubject returns the client the rights are computed for. For another
// authorization DN the connection state of client is kept.
func (h *Handler) rightsSubject(client *Client, authz *dn.DN) *Client {
	if client == nil {
		client = &Client{}
	}
	if authz == nil || authz.Equal(client.DN) {
		return client
	}
	s := *client
	s.DN = *authz
	s.Entry = nil
	s.Original = nil
	s.Privileges = 0
	if h.entries != nil && !authz.IsRoot() {
		if e, err := h.entries.GetEntry(*authz); err == nil {
			s.Entry = e
		}
	}
	return &s
}

func (h *Handler) effectiveRight(subject *Client, entry *filter.Entry, attr string, rights Right, skip bool) (string, string) {
	ctx := h.newContext(OperationSearch, subject, entry, rights)
	ctx.EffectiveRights = true
	if skip {
		ctx.Scratch.Reason = ReasonSkipACI
		return "1", h.summary(ctx, true)
	}
	if attr != "" {
		ctx.AttrType = h.schema.GetAttributeType(attributeName(attr))
		if rights.Has(SelfWrite) && !subject.IsAnonymous() {
			ctx.AttrValue = []byte(subject.DN.String())
		}
	}
	if h.accessAllowed(ctx) {
		return "1", ctx.Scratch.Summary
	}
	if len(ctx.Scratch.TargAttrFilterACIs) > 0 && !rights.Has(SelfWrite) {
		return "?", ctx.Scratch.Summary
	}
	return "0", ctx.Scratch.Summary
}

// summary renders the outcome of a check in the aclRightsInfo format.
func (h *Handler) summary(ctx *EvalContext, allowed bool) string {
	access := "not allowed"
	if allowed {
		access = "allowed"
	}
	attr := "NULL"
	if ctx.AttrType != nil {
		attr = ctx.AttrType.NormalizedName()
	}
	subject := "anonymous"
	if !ctx.isAnonymous() {
		subject = ctx.clientDN().String()
	}
	proxied := "(not proxied)"
	if ctx.Client.IsProxied() {
		proxied = fmt.Sprintf("(proxied from %s)", ctx.Client.Original.DN.String())
	}
	deciding := ""
	if ctx.Scratch.DecidingACI != nil {
		deciding = fmt.Sprintf(", deciding_aci: %s", ctx.Scratch.DecidingACI.Name)
	}
	return fmt.Sprintf("acl_summary(main): access %s(%s) on entry/attr(%s, %s) to (%s) %s ( reason: %s %s)",
		access, ctx.Rights.String(), ctx.resourceDN().String(), attr, subject, proxied, ctx.Scratch.Reason.String(), deciding)
}
