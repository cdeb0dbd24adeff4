package acl

import (
	"context"
	"net"
	"strings"

	"github.com/KilimcininKorOglu/oba-aci/internal/dn"
	"github.com/KilimcininKorOglu/oba-aci/internal/filter"
	"github.com/KilimcininKorOglu/oba-aci/internal/schema"
)

// SchemaRegistry resolves attribute names to types. It must return a
// usable type for unknown names.
type SchemaRegistry interface {
	GetAttributeType(name string) *schema.AttributeType
}

// GroupMembership answers static and dynamic group membership questions
// for groupdn, roledn and userattr GROUPDN rules.
type GroupMembership interface {
	IsMember(client dn.DN, group dn.DN) (bool, error)
}

// EntryProvider fetches entries by DN. It returns nil and no error when the
// entry does not exist.
type EntryProvider interface {
	GetEntry(d dn.DN) (*filter.Entry, error)
}

// EntryLocker takes read locks on entries. TryReadLock must not block for
// long; ok is false when the lock could not be taken.
type EntryLocker interface {
	TryReadLock(d dn.DN) (unlock func(), ok bool)
}

// Resolver performs the DNS lookups used by dns bind rules.
// *net.Resolver satisfies it.
type Resolver interface {
	LookupAddr(ctx context.Context, addr string) ([]string, error)
	LookupHost(ctx context.Context, host string) ([]string, error)
}

var _ Resolver = (*net.Resolver)(nil)

// ChangeListener receives committed directory changes that may add, remove
// or move ACIs.
type ChangeListener interface {
	EntryAdded(entry *filter.Entry)
	EntryDeleted(entry *filter.Entry)
	EntryModified(oldEntry, newEntry *filter.Entry)
	EntryRenamed(oldEntry, newEntry *filter.Entry)
	BackendInitialized(baseDN dn.DN, entries []*filter.Entry)
	BackendFinalized(baseDN dn.DN)
	ConfigChanged(globalACIs []string)
}

// MapEntries is an in-memory EntryProvider keyed by normalized DN.
type MapEntries map[string]*filter.Entry

// Put stores entries by their DN.
func (m MapEntries) Put(entries ...*filter.Entry) {
	for _, e := range entries {
		m[e.DN.Normalized()] = e
	}
}

// GetEntry implements EntryProvider.
func (m MapEntries) GetEntry(d dn.DN) (*filter.Entry, error) {
	return m[d.Normalized()], nil
}

// StaticGroups resolves membership from the member and uniqueMember values
// of group entries held by an EntryProvider.
type StaticGroups struct {
	Entries EntryProvider
}

// IsMember implements GroupMembership.
func (g StaticGroups) IsMember(client dn.DN, group dn.DN) (bool, error) {
	e, err := g.Entries.GetEntry(group)
	if err != nil || e == nil {
		return false, err
	}
	for _, attr := range []string{"member", "uniqueMember"} {
		for _, v := range e.GetStrings(attr) {
			v = trimUID(v)
			m, err := dn.Parse(v)
			if err != nil {
				continue
			}
			if m.Equal(client) {
				return true, nil
			}
		}
	}
	return false, nil
}

// trimUID strips the optional "#'0101'B" bit string that may follow the DN
// in a uniqueMember value.
func trimUID(v string) string {
	if !strings.HasSuffix(v, "'B") {
		return v
	}
	i := strings.LastIndex(v, "#'")
	if i <= 0 || i+2 > len(v)-2 || strings.Trim(v[i+2:len(v)-2], "01") != "" {
		return v
	}
	return v[:i]
}
