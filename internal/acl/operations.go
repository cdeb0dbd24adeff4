package acl

import (
	"fmt"
	"strings"

	"github.com/KilimcininKorOglu/oba-aci/internal/dn"
	"github.com/KilimcininKorOglu/oba-aci/internal/filter"
	"github.com/KilimcininKorOglu/oba-aci/internal/schema"
)

// ModificationType is the kind of change a Modification makes.
type ModificationType int

const (
	ModAdd ModificationType = iota
	ModDelete
	ModReplace
	ModIncrement
)

// Modification is one change of a modify request.
type Modification struct {
	Type      ModificationType
	Attribute string
	Values    [][]byte
}

// SearchOperation carries the per search state used when returning
// entries. MaySend sets the AllUserAttrsMatched and AllOpAttrsMatched flags
// for the entry it was called with; FilterEntry then skips the attribute
// checks they cover.
type SearchOperation struct {
	Filter     *filter.Filter
	Attributes []string

	// EffectiveRights requests aclRights values on returned entries.
	EffectiveRights *EffectiveRightsRequest

	AllUserAttrsMatched bool
	AllOpAttrsMatched   bool
}

func skipAccessCheck(c *Client) bool {
	return c.HasPrivilege(PrivBypassACL)
}

func attributeName(attr string) string {
	if i := strings.IndexByte(attr, ';'); i >= 0 {
		return attr[:i]
	}
	return attr
}

// IsAllowedAdd checks the add right on entry. An entry carrying aci values
// also requires the modify-acl privilege, and every value must decode.
func (h *Handler) IsAllowedAdd(client *Client, entry *filter.Entry) (bool, error) {
	ctx := h.newContext(OperationAdd, client, entry, Add)
	if !skipAccessCheck(client) && !h.decide(ctx, func() bool { return h.accessAllowed(ctx) }) {
		return false, nil
	}
	return h.verifySyntax(ctx.Client, entry)
}

func (h *Handler) verifySyntax(client *Client, entry *filter.Entry) (bool, error) {
	values := entry.GetStrings(AttrACI)
	if len(values) == 0 {
		return true, nil
	}
	if !client.HasPrivilege(PrivModifyACL) {
		h.logger.Info("aci add refused: client lacks the modify-acl privilege", "dn", entry.DN.String(), "client", client.DN.String())
		return false, nil
	}
	for _, v := range values {
		if _, err := Decode(v, entry.DN); err != nil {
			return false, &AccessError{
				Code:    ResultInvalidAttributeSyntax,
				Message: fmt.Sprintf("aci value of entry %q does not decode", entry.DN.String()),
				Err:     err,
			}
		}
	}
	return true, nil
}

// IsAllowedDelete checks the delete right on entry.
func (h *Handler) IsAllowedDelete(client *Client, entry *filter.Entry) bool {
	if skipAccessCheck(client) {
		return true
	}
	ctx := h.newContext(OperationDelete, client, entry, Delete)
	return h.decide(ctx, func() bool { return h.accessAllowed(ctx) })
}

// IsAllowedModify checks every modification against entry, the entry as it
// is before the change. modified is the entry after the change and is only
// read for increments.
func (h *Handler) IsAllowedModify(client *Client, entry *filter.Entry, mods []Modification, modified *filter.Entry) (bool, error) {
	ctx := h.newContext(OperationModify, client, entry, Write)
	skip := skipAccessCheck(client)

	var err error
	ok := h.decide(ctx, func() bool {
		var allowed bool
		allowed, err = h.checkMods(ctx, mods, modified, skip)
		return allowed
	})
	return ok, err
}

func (h *Handler) checkMods(ctx *EvalContext, mods []Modification, modified *filter.Entry, skip bool) (bool, error) {
	check := func(at *schema.AttributeType, value []byte, rights Right) bool {
		ctx.AttrType, ctx.AttrValue, ctx.Rights = at, value, rights
		return skip || h.accessAllowed(ctx)
	}

	for _, m := range mods {
		at := h.schema.GetAttributeType(attributeName(m.Attribute))
		isACI := at.HasName(AttrACI)
		if isACI && !ctx.Client.HasPrivilege(PrivModifyACL) {
			h.logger.Info("aci modify refused: client lacks the modify-acl privilege",
				"dn", ctx.resourceDN().String(), "client", ctx.clientDN().String())
			return false, nil
		}

		// Deleting all values, replacing and incrementing remove the
		// current values first.
		if (m.Type == ModDelete && len(m.Values) == 0) || m.Type == ModReplace || m.Type == ModIncrement {
			for _, v := range ctx.Resource.GetAttribute(m.Attribute) {
				if !check(at, v, WriteDelete) {
					return false, nil
				}
			}
		}
		if len(m.Values) == 0 {
			continue
		}

		for _, v := range m.Values {
			switch m.Type {
			case ModAdd, ModReplace:
				if !check(at, v, WriteAdd) {
					return false, nil
				}
			case ModDelete:
				if !check(at, v, WriteDelete) {
					return false, nil
				}
			case ModIncrement:
				if modified == nil {
					continue
				}
				for _, nv := range modified.GetAttribute(m.Attribute) {
					if !check(at, nv, WriteAdd) {
						return false, nil
					}
				}
			}
		}

		if isACI || at.HasName(AttrGlobalACI) {
			holder := ctx.resourceDN()
			if !isACI {
				holder = dn.Root()
			}
			for _, v := range m.Values {
				if _, err := Decode(string(v), holder); err != nil {
					return false, &AccessError{
						Code:    ResultInvalidAttributeSyntax,
						Message: fmt.Sprintf("%s value for entry %q does not decode", m.Attribute, ctx.resourceDN().String()),
						Err:     err,
					}
				}
			}
		}
	}
	return true, nil
}

// IsAllowedCompare checks the compare right on attr of entry.
func (h *Handler) IsAllowedCompare(client *Client, entry *filter.Entry, attr string, value []byte) bool {
	if skipAccessCheck(client) {
		return true
	}
	ctx := h.newContext(OperationCompare, client, entry, Compare)
	ctx.AttrType = h.schema.GetAttributeType(attributeName(attr))
	ctx.AttrValue = value
	return h.decide(ctx, func() bool { return h.accessAllowed(ctx) })
}

// IsAllowedModifyDN checks a rename of entry. With a new superior the client
// needs import on the superior and export on entry. Unless the RDN is
// unchanged, it needs write-add on each new RDN value and, when the old RDN
// is deleted, write-delete on each old value.
func (h *Handler) IsAllowedModifyDN(client *Client, entry *filter.Entry, newRDN dn.RDN, deleteOldRDN bool, newSuperior *dn.DN) bool {
	if skipAccessCheck(client) {
		return true
	}
	ctx := h.newContext(OperationModifyDN, client, entry, Write)
	return h.decide(ctx, func() bool {
		if entry.DN.IsRoot() {
			return false
		}
		oldRDN := entry.DN.RDN(0)

		if newSuperior != nil && !h.checkSuperior(ctx, *newSuperior) {
			return false
		}
		if !oldRDN.Equal(newRDN) && !h.checkRDNs(ctx, oldRDN, newRDN, deleteOldRDN) {
			return false
		}
		if newSuperior != nil {
			// The proxy right was already checked with the RDNs.
			ectx := h.newContext(OperationModifyDN, client, entry, Export)
			ectx.Scratch.SeenEntry = !oldRDN.Equal(newRDN)
			return h.accessAllowed(ectx)
		}
		return true
	})
}

func (h *Handler) checkSuperior(ctx *EvalContext, superior dn.DN) bool {
	e := h.superiorEntry(superior)
	if e == nil {
		return false
	}
	sctx := h.newContext(OperationModifyDN, ctx.Client, e, Import)
	return h.accessAllowed(sctx)
}

func (h *Handler) checkRDNs(ctx *EvalContext, oldRDN, newRDN dn.RDN, deleteOld bool) bool {
	ctx.AttrType, ctx.AttrValue, ctx.Rights = nil, nil, Write
	if !h.accessAllowed(ctx) {
		return false
	}
	if !h.checkRDN(ctx, WriteAdd, newRDN) {
		return false
	}
	return !deleteOld || h.checkRDN(ctx, WriteDelete, oldRDN)
}

func (h *Handler) checkRDN(ctx *EvalContext, rights Right, rdn dn.RDN) bool {
	for _, ava := range rdn {
		ctx.AttrType = h.schema.GetAttributeType(ava.Type)
		ctx.AttrValue = []byte(ava.Value)
		ctx.Rights = rights
		if !h.accessAllowed(ctx) {
			return false
		}
	}
	return true
}

// IsAllowedSearch always returns true. Search results are checked entry
// by entry with MaySend and FilterEntry.
func (h *Handler) IsAllowedSearch(client *Client) bool {
	return true
}

// IsAllowedFilter checks that the client may read every attribute used in f
// on entry. It is used for assertion controls and search filters.
func (h *Handler) IsAllowedFilter(client *Client, entry *filter.Entry, f *filter.Filter) bool {
	if skipAccessCheck(client) || f == nil {
		return true
	}
	ctx := h.newContext(OperationSearch, client, entry, Read)
	return h.decide(ctx, func() bool { return h.testFilter(ctx, f) })
}

// IsAllowedExtended checks that the client may use an extended operation.
// The check runs against an empty entry at the client DN.
func (h *Handler) IsAllowedExtended(client *Client, oid string) bool {
	if skipAccessCheck(client) {
		return true
	}
	ctx := h.newContext(OperationExtended, client, nil, Read|ExtOp)
	ctx.Resource = filter.NewEntry(ctx.clientDN())
	ok := h.decide(ctx, func() bool { return h.accessAllowed(ctx) })
	if !ok {
		h.logger.Debug("extended operation refused", "oid", oid, "client", ctx.clientDN().String())
	}
	return ok
}

// IsAllowedControl checks that the client may attach the control oid to an
// operation on d.
func (h *Handler) IsAllowedControl(client *Client, op Operation, d dn.DN, oid string) bool {
	if skipAccessCheck(client) {
		return true
	}
	ctx := h.newContext(op, client, filter.NewEntry(d), Read|Control)
	ok := h.decide(ctx, func() bool { return h.accessAllowed(ctx) })
	if !ok {
		h.logger.Debug("control refused", "oid", oid, "dn", d.String(), "client", ctx.clientDN().String())
	}
	return ok
}

// MaySend decides whether a search result entry is returned. The client
// needs search on the filter attributes and read on the entry. On success
// search records whether every user and operational attribute of the entry
// was granted by an ACI without a restricting targetattr.
func (h *Handler) MaySend(client *Client, search *SearchOperation, entry *filter.Entry) bool {
	if search != nil {
		search.AllUserAttrsMatched = false
		search.AllOpAttrsMatched = false
	}
	if skipAccessCheck(client) {
		return true
	}
	ctx := h.newContext(OperationSearch, client, entry, Search)
	return h.decide(ctx, func() bool {
		if search != nil && search.Filter != nil && !h.testFilter(ctx, search.Filter) {
			return false
		}
		ctx.AttrType, ctx.AttrValue, ctx.Rights = nil, nil, Read
		ctx.Scratch.foundUserAttrRule, ctx.Scratch.foundOpAttrRule = false, false
		if !h.accessAllowedEntry(ctx) {
			return false
		}
		if search != nil {
			search.AllUserAttrsMatched = !ctx.Scratch.foundUserAttrRule
			search.AllOpAttrsMatched = !ctx.Scratch.foundOpAttrRule
		}
		return true
	})
}

// MaySendReference decides whether a search continuation reference held by
// the entry d is returned. The client needs read on its ref attribute.
func (h *Handler) MaySendReference(client *Client, d dn.DN, urls []string) bool {
	if skipAccessCheck(client) {
		return true
	}
	e := filter.NewEntry(d)
	e.SetStringAttribute("objectClass", "referral")
	e.SetStringAttribute("ref", urls...)
	ctx := h.newContext(OperationSearch, client, e, Read)
	ctx.AttrType = h.schema.GetAttributeType("ref")
	return h.decide(ctx, func() bool { return h.accessAllowed(ctx) })
}

// FilterEntry returns a copy of entry without the attributes the client may
// not read. When search asks for effective rights they are added to the
// copy.
func (h *Handler) FilterEntry(client *Client, search *SearchOperation, entry *filter.Entry) *filter.Entry {
	filtered := entry.Clone()
	bypass := skipAccessCheck(client)
	if !bypass {
		ctx := h.newContext(OperationSearch, client, entry, Read)
		ctx.Scratch.SeenEntry = true
		h.filterEntry(ctx, filtered, search)
	}
	if search != nil && search.EffectiveRights != nil {
		h.AddEffectiveRights(client, filtered, entry, *search.EffectiveRights)
	}
	return filtered
}

// MayProxy reports whether proxyUser may act as the owner of proxied.
func (h *Handler) MayProxy(proxyUser *Client, proxied *filter.Entry) bool {
	if skipAccessCheck(proxyUser) {
		return true
	}
	ctx := h.newContext(OperationSearch, proxyUser, proxied, Proxy)
	return h.decide(ctx, func() bool { return h.accessAllowedEntry(ctx) })
}
