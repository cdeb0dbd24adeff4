package acl

import (
	"fmt"
	"testing"

	"github.com/KilimcininKorOglu/oba-aci/internal/dn"
	"github.com/KilimcininKorOglu/oba-aci/internal/filter"
)

func benchmarkHandler(b *testing.B, acis ...string) (*Handler, MapEntries) {
	b.Helper()
	dir := directory()
	cache := NewRuleCache()
	if _, errs := cache.AddACIs(dn.MustParse(baseDN), acis); len(errs) > 0 {
		b.Fatalf("decode: %v", errs)
	}
	return NewHandler(HandlerConfig{Cache: cache, Entries: dir}), dir
}

func benchmarkEntry(b *testing.B, dir MapEntries, d string) *filter.Entry {
	b.Helper()
	e, err := dir.GetEntry(dn.MustParse(d))
	if err != nil || e == nil {
		b.Fatalf("entry %s: %v", d, err)
	}
	return e
}

// BenchmarkDecode benchmarks decoding a typical ACI.
func BenchmarkDecode(b *testing.B) {
	value := `(target="ldap:///ou=people,dc=example,dc=com")(targetattr="cn || mail || telephoneNumber")` +
		`(targetfilter="(objectClass=person)")(version 3.0; acl "people"; allow (read,search,compare) ` +
		`userdn="ldap:///all" and ip="10.0.0.0/8";)`
	holder := dn.MustParse(baseDN)

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, err := Decode(value, holder); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkMaySend benchmarks the entry-level read decision of a search.
func BenchmarkMaySend(b *testing.B) {
	h, dir := benchmarkHandler(b, aciAnyoneRead, aciNoPasswords, aciSelfWrite, aciAdmins)
	alice := benchmarkEntry(b, dir, aliceDN)
	client := bound(bobDN)
	search := &SearchOperation{Filter: filter.MustParse("(&(objectClass=person)(cn=Alice))")}

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if !h.MaySend(client, search, alice) {
			b.Fatal("denied")
		}
	}
}

// BenchmarkFilterEntry benchmarks attribute filtering of a returned entry.
func BenchmarkFilterEntry(b *testing.B) {
	h, dir := benchmarkHandler(b, aciAnyoneRead, aciNoPasswords)
	alice := benchmarkEntry(b, dir, aliceDN)
	client := bound(bobDN)

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_ = h.FilterEntry(client, nil, alice)
	}
}

// BenchmarkCandidateACIs benchmarks the ancestor walk of the rule cache.
func BenchmarkCandidateACIs(b *testing.B) {
	cache := NewRuleCache()
	for i := 0; i < 1000; i++ {
		holder := dn.MustParse(fmt.Sprintf("ou=unit%d,dc=example,dc=com", i))
		if _, errs := cache.AddACIs(holder, []string{aciSelfWrite}); len(errs) > 0 {
			b.Fatal(errs)
		}
	}
	if _, errs := cache.AddACIs(dn.MustParse(baseDN), []string{aciAnyoneRead}); len(errs) > 0 {
		b.Fatal(errs)
	}
	target := dn.MustParse("uid=user,ou=people,ou=unit500,dc=example,dc=com")

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if len(cache.CandidateACIs(target)) != 2 {
			b.Fatal("unexpected candidates")
		}
	}
}
