package acl

import (
	"strings"

	"github.com/KilimcininKorOglu/oba-aci/internal/filter"
	"github.com/KilimcininKorOglu/oba-aci/internal/schema"
)

// TargAttrFilters makes write access value-dependent: values added must
// match the add list and values removed must match the del list.
type TargAttrFilters struct {
	Add *AttrFilterList
	Del *AttrFilterList
}

// AttrFilterList maps attribute types to the filter their values must match.
type AttrFilterList struct {
	Filters []AttrFilter
}

// AttrFilter pairs an attribute with a filter on that attribute.
type AttrFilter struct {
	Attr   string
	Filter *filter.Filter
}

func (l *AttrFilterList) lookup(at *schema.AttributeType) *filter.Filter {
	for _, af := range l.Filters {
		if at.HasName(af.Attr) {
			return af.Filter
		}
	}
	return nil
}

// decodeTargAttrFilters parses
// "add=attr:(filter) && attr:(filter), del=attr:(filter)".
func decodeTargAttrFilters(value string) (*TargAttrFilters, error) {
	lists := splitTopLevel(value, ",")
	if len(lists) > 2 {
		return nil, newSyntaxError(ErrInvalidTarget, MsgTargAttrFiltersMax, value,
			"targattrfilters allows at most one add and one del list")
	}
	t := &TargAttrFilters{}
	for _, text := range lists {
		text = strings.TrimSpace(text)
		eq := strings.IndexByte(text, '=')
		if eq < 0 {
			return nil, newSyntaxError(ErrInvalidTarget, MsgTargAttrFiltersOp, text, "missing add= or del=")
		}
		op := strings.ToLower(strings.TrimSpace(text[:eq]))
		list, err := decodeAttrFilterList(text[eq+1:])
		if err != nil {
			return nil, err
		}
		switch op {
		case "add":
			if t.Add != nil {
				return nil, newSyntaxError(ErrInvalidTarget, MsgTargAttrFiltersMax, value, "add list given twice")
			}
			t.Add = list
		case "del":
			if t.Del != nil {
				return nil, newSyntaxError(ErrInvalidTarget, MsgTargAttrFiltersMax, value, "del list given twice")
			}
			t.Del = list
		default:
			return nil, newSyntaxError(ErrInvalidTarget, MsgTargAttrFiltersOp, text, "operation must be add or del, not %q", op)
		}
	}
	return t, nil
}

func decodeAttrFilterList(text string) (*AttrFilterList, error) {
	list := &AttrFilterList{}
	for _, pair := range splitTopLevel(text, "&&") {
		pair = strings.TrimSpace(pair)
		colon := strings.IndexByte(pair, ':')
		if colon < 0 || strings.IndexByte(pair[:colon], '(') >= 0 {
			return nil, newSyntaxError(ErrInvalidTarget, MsgTargAttrFiltersAttr, pair, "expected attr:(filter)")
		}
		attr := strings.TrimSpace(pair[:colon])
		name, ok := splitAttributeOptions(attr)
		if !ok {
			return nil, newSyntaxError(ErrInvalidTarget, MsgTargAttrFiltersAttr, pair, "invalid attribute name %q", attr)
		}
		f, err := filter.Parse(strings.TrimSpace(pair[colon+1:]))
		if err != nil {
			return nil, newSyntaxError(ErrInvalidTarget, MsgTargAttrFilters, pair, "invalid filter").wrap(err)
		}
		for _, fa := range f.Attributes() {
			if base, _, _ := strings.Cut(fa, ";"); !strings.EqualFold(base, name) {
				return nil, newSyntaxError(ErrInvalidTarget, MsgTargAttrFiltersAttr, pair,
					"filter attribute %q does not match %q", fa, name)
			}
		}
		list.Filters = append(list.Filters, AttrFilter{Attr: strings.ToLower(name), Filter: f})
	}
	return list, nil
}
