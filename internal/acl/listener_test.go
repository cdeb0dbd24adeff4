package acl

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KilimcininKorOglu/oba-aci/internal/dn"
	"github.com/KilimcininKorOglu/oba-aci/internal/filter"
	"github.com/KilimcininKorOglu/oba-aci/internal/logging"
)

func TestCacheListener(t *testing.T) {
	var buf bytes.Buffer
	cache := NewRuleCache()
	l := NewCacheListener(cache, logging.NewWithWriter(logging.Config{Level: "info", Format: "json"}, &buf))

	l.BackendInitialized(dn.MustParse(baseDN), []*filter.Entry{
		entry(baseDN, "objectClass", "domain", "aci", namedACI("base")),
		entry(peopleDN, "objectClass", "organizationalUnit", "aci", namedACI("people")),
	})
	assert.Equal(t, 2, cache.Len())
	assert.Contains(t, buf.String(), `"message":"backend ACIs loaded"`)

	alice := entry(aliceDN, "objectClass", "person", "aci", namedACI("alice"))
	l.EntryAdded(alice)
	l.EntryAdded(entry(bobDN, "objectClass", "person"))
	assert.Equal(t, 3, cache.Len())

	// Unchanged aci values leave the cache alone.
	before := cache.ACIs(alice.DN)
	l.EntryModified(alice, alice.Clone())
	assert.Same(t, before[0], cache.ACIs(alice.DN)[0])

	modified := alice.Clone()
	modified.SetStringAttribute("aci", namedACI("alice 1"), namedACI("alice 2"))
	l.EntryModified(alice, modified)
	assert.Equal(t, []string{"alice 1", "alice 2"}, aciNames(cache.ACIs(alice.DN)))
	assert.Equal(t, 4, cache.Len())

	renamed := modified.Clone()
	renamed.DN = dn.MustParse("uid=alicia,ou=people,dc=example,dc=com")
	l.EntryRenamed(modified, renamed)
	assert.Nil(t, cache.ACIs(alice.DN))
	assert.Len(t, cache.ACIs(renamed.DN), 2)

	l.EntryDeleted(entry(peopleDN))
	assert.Equal(t, 1, cache.Len())

	l.ConfigChanged([]string{namedACI("global")})
	assert.Equal(t, []string{"global"}, aciNames(cache.Global()))
	assert.Equal(t, 2, cache.Len())

	l.BackendFinalized(dn.MustParse(baseDN))
	assert.Equal(t, 1, cache.Len())
	assert.Contains(t, buf.String(), `"message":"backend ACIs removed"`)
}

func TestCacheListenerRemovesACIsWithAttribute(t *testing.T) {
	cache := NewRuleCache()
	l := NewCacheListener(cache, nil)

	alice := entry(aliceDN, "objectClass", "person", "aci", namedACI("alice"))
	l.EntryAdded(alice)
	require.Equal(t, 1, cache.Len())

	l.EntryModified(alice, entry(aliceDN, "objectClass", "person"))
	assert.Zero(t, cache.Len())
}
