package filter

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/KilimcininKorOglu/oba-aci/internal/dn"
)

// matchKind selects how assertion values are compared.
type matchKind int

const (
	matchCaseIgnore matchKind = iota
	matchCaseExact
	matchDN
	matchInteger
)

// Matching rule names and OIDs that change the comparison.
var matchingRules = map[string]matchKind{
	"caseignorematch":            matchCaseIgnore,
	"2.5.13.2":                   matchCaseIgnore,
	"caseignoreia5match":         matchCaseIgnore,
	"1.3.6.1.4.1.1466.109.114.2": matchCaseIgnore,
	"caseexactmatch":             matchCaseExact,
	"2.5.13.5":                   matchCaseExact,
	"caseexactia5match":          matchCaseExact,
	"1.3.6.1.4.1.1466.109.114.1": matchCaseExact,
	"octetstringmatch":           matchCaseExact,
	"2.5.13.17":                  matchCaseExact,
	"distinguishednamematch":     matchDN,
	"2.5.13.1":                   matchDN,
	"integermatch":               matchInteger,
	"2.5.13.14":                  matchInteger,
}

func kindForRule(rule string) (matchKind, bool) {
	k, ok := matchingRules[strings.ToLower(rule)]
	return k, ok
}

func (k matchKind) equal(a, b []byte) bool {
	switch k {
	case matchCaseExact:
		return bytes.Equal(a, b)
	case matchDN:
		da, errA := dn.Parse(string(a))
		db, errB := dn.Parse(string(b))
		if errA != nil || errB != nil {
			return bytes.EqualFold(bytes.TrimSpace(a), bytes.TrimSpace(b))
		}
		return da.Equal(db)
	case matchInteger:
		ia, errA := strconv.ParseInt(strings.TrimSpace(string(a)), 10, 64)
		ib, errB := strconv.ParseInt(strings.TrimSpace(string(b)), 10, 64)
		if errA != nil || errB != nil {
			return false
		}
		return ia == ib
	default:
		return bytes.EqualFold(a, b)
	}
}

// compare orders a against b; ok is false when the values are not comparable.
func (k matchKind) compare(a, b []byte) (int, bool) {
	switch k {
	case matchInteger:
		ia, errA := strconv.ParseInt(strings.TrimSpace(string(a)), 10, 64)
		ib, errB := strconv.ParseInt(strings.TrimSpace(string(b)), 10, 64)
		if errA != nil || errB != nil {
			return 0, false
		}
		switch {
		case ia < ib:
			return -1, true
		case ia > ib:
			return 1, true
		}
		return 0, true
	case matchCaseExact:
		return bytes.Compare(a, b), true
	default:
		return bytes.Compare(bytes.ToLower(a), bytes.ToLower(b)), true
	}
}

// matchSubstring checks value against initial*any*...*final.
func (k matchKind) matchSubstring(value, initial []byte, any [][]byte, final []byte) bool {
	if k != matchCaseExact {
		value = bytes.ToLower(value)
		initial = bytes.ToLower(initial)
		final = bytes.ToLower(final)
	}
	if !bytes.HasPrefix(value, initial) {
		return false
	}
	pos := len(initial)
	for _, sub := range any {
		if len(sub) == 0 {
			continue
		}
		if k != matchCaseExact {
			sub = bytes.ToLower(sub)
		}
		idx := bytes.Index(value[pos:], sub)
		if idx < 0 {
			return false
		}
		pos += idx + len(sub)
	}
	return bytes.HasSuffix(value[pos:], final)
}

// matchApprox compares lower-cased values with runs of whitespace collapsed.
func matchApprox(a, b []byte) bool {
	return normalizeForApprox(a) == normalizeForApprox(b)
}

func normalizeForApprox(value []byte) string {
	return strings.Join(strings.Fields(strings.ToLower(string(value))), " ")
}

func normalizeAttributeName(name string) string {
	return strings.ToLower(name)
}
