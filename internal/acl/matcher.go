package acl

import (
	"github.com/KilimcininKorOglu/oba-aci/internal/filter"
	"github.com/KilimcininKorOglu/oba-aci/internal/schema"
)

// isApplicable reports whether the targets of a allow the ACI to govern the
// resource, attribute and rights of ctx. Checks run cheapest first and stop
// at the first mismatch.
func isApplicable(a *ACI, ctx *EvalContext) bool {
	if !a.hasRights(ctx.Rights) {
		return false
	}
	t := a.Targets
	if !targetApplies(a, ctx) {
		return false
	}
	if t.TargetFilter != nil {
		ok := ctx.filters().Evaluate(t.TargetFilter.Filter, ctx.Resource)
		if t.TargetFilter.Op == OpNotEqual {
			ok = !ok
		}
		if !ok {
			return false
		}
	}
	if t.TargAttrFilters != nil && !targAttrFiltersApply(a, ctx) {
		return false
	}
	if !ctx.Scratch.TargAttrFiltersMatch && !targetAttrApplies(a, ctx) {
		return false
	}
	if ctx.Scratch.FirstAttribute && t.TargetAttr == nil && t.TargAttrFilters == nil {
		ctx.Scratch.EntryTestRule = true
	}
	return true
}

// targetApplies checks the target clause and the target scope. Without a
// literal target the scope is anchored at the ACI holder.
func targetApplies(a *ACI, ctx *EvalContext) bool {
	res := ctx.resourceDN()
	t := a.Targets
	base := a.HolderDN

	if t.Target != nil {
		if t.Target.Pattern != nil {
			ok := t.Target.Pattern.Matches(res)
			if t.Target.Op == OpNotEqual {
				ok = !ok
			}
			if !ok {
				return false
			}
		} else if t.Target.Op == OpNotEqual {
			if res.IsDescendantOf(t.Target.DN) {
				return false
			}
		} else {
			base = t.Target.DN
		}
	}
	return inScope(t.Scope, base, res)
}

// targAttrFiltersApply handles value dependent write access. For add and
// delete every value of a listed attribute in the resource must match; for
// modify the current value must match the list of the matching kind.
func targAttrFiltersApply(a *ACI, ctx *EvalContext) bool {
	taf := a.Targets.TargAttrFilters
	switch {
	case ctx.Rights.Has(Add):
		return taf.Add == nil || allValuesMatch(taf.Add, ctx)
	case ctx.Rights.Has(Delete):
		return taf.Del == nil || allValuesMatch(taf.Del, ctx)
	case ctx.Rights.Has(WriteAdd), ctx.Rights.Has(WriteDelete):
	default:
		return true
	}

	list := taf.Add
	if ctx.Rights.Has(WriteDelete) {
		list = taf.Del
	}
	if list == nil || ctx.AttrType == nil {
		return true
	}
	f := list.lookup(ctx.AttrType)
	if f == nil {
		return true
	}
	if ctx.EffectiveRights {
		ctx.Scratch.TargAttrFilterACIs = append(ctx.Scratch.TargAttrFilterACIs, a)
		return false
	}
	if ctx.AttrValue == nil || !ctx.filters().Evaluate(f, singleValueEntry(ctx, ctx.AttrType, ctx.AttrValue)) {
		return false
	}
	ctx.Scratch.TargAttrFiltersMatch = true
	return true
}

func allValuesMatch(list *AttrFilterList, ctx *EvalContext) bool {
	if ctx.Resource == nil {
		return true
	}
	for _, af := range list.Filters {
		at := ctx.attributeType(af.Attr)
		for _, v := range ctx.Resource.GetAttribute(af.Attr) {
			if !ctx.filters().Evaluate(af.Filter, singleValueEntry(ctx, at, v)) {
				return false
			}
		}
	}
	return true
}

// singleValueEntry builds an entry holding only at=value so that a filter
// can be matched against one value.
func singleValueEntry(ctx *EvalContext, at *schema.AttributeType, value []byte) *filter.Entry {
	e := filter.NewEntry(ctx.resourceDN())
	e.SetAttribute(at.NormalizedName(), value)
	return e
}

// targetAttrApplies checks the targetattr clause against the current
// attribute.
func targetAttrApplies(a *ACI, ctx *EvalContext) bool {
	ta := a.Targets.TargetAttr
	at := ctx.AttrType

	switch {
	case ta != nil && at != nil:
		op := at.IsOperational()
		ok := ta.inSet(at)
		if !(ok && ta.AllUser && !op) {
			ctx.Scratch.foundUserAttrRule = true
		}
		if !(ok && ta.AllOp && op) {
			ctx.Scratch.foundOpAttrRule = true
		}
		if ta.Op == OpNotEqual {
			ok = !ok
		}
		return ok
	case ta == nil && at == nil:
		return true
	}

	if a.hasRights(Add|Delete|Proxy) && ctx.Rights.Has(Add|Delete|Proxy) {
		return true
	}
	if ta != nil && at == nil && a.hasRights(Write) {
		return true
	}
	return !ctx.Scratch.FirstAttribute && ta == nil
}
