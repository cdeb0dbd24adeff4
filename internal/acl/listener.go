package acl

import (
	"slices"

	"github.com/KilimcininKorOglu/oba-aci/internal/dn"
	"github.com/KilimcininKorOglu/oba-aci/internal/filter"
	"github.com/KilimcininKorOglu/oba-aci/internal/logging"
)

// CacheListener keeps a RuleCache in step with committed directory changes.
type CacheListener struct {
	cache  *RuleCache
	logger logging.Logger
}

var _ ChangeListener = (*CacheListener)(nil)

// NewCacheListener creates a listener that updates cache.
func NewCacheListener(cache *RuleCache, logger logging.Logger) *CacheListener {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &CacheListener{cache: cache, logger: logger}
}

// EntryAdded adds the ACIs of a new entry.
func (l *CacheListener) EntryAdded(entry *filter.Entry) {
	if !entry.HasAttribute(AttrACI) {
		return
	}
	n, errs := l.cache.AddEntries([]*filter.Entry{entry})
	l.logChange("entry added", entry.DN, n, errs)
}

// EntryDeleted removes the ACIs held by a deleted entry. Subtree deletes
// report only the base entry, so everything below it goes too.
func (l *CacheListener) EntryDeleted(entry *filter.Entry) {
	n := l.cache.RemoveSubtree(entry.DN)
	if n > 0 {
		l.logger.Debug("ACIs removed", "dn", entry.DN.String(), "count", n)
	}
}

// EntryModified replaces the ACIs of an entry whose aci values changed.
func (l *CacheListener) EntryModified(oldEntry, newEntry *filter.Entry) {
	oldACIs := oldEntry.GetStrings(AttrACI)
	newACIs := newEntry.GetStrings(AttrACI)
	if slices.Equal(oldACIs, newACIs) {
		return
	}
	n, errs := l.cache.ReplaceDN(newEntry.DN, newACIs)
	l.logChange("entry modified", newEntry.DN, n, errs)
}

// EntryRenamed moves the ACIs held at and below the old DN.
func (l *CacheListener) EntryRenamed(oldEntry, newEntry *filter.Entry) {
	n, errs := l.cache.RenameSubtree(oldEntry.DN, newEntry.DN)
	l.logChange("entry renamed", newEntry.DN, n, errs)
}

// BackendInitialized adds the ACIs of every entry of a new backend.
func (l *CacheListener) BackendInitialized(baseDN dn.DN, entries []*filter.Entry) {
	n, errs := l.cache.AddEntries(entries)
	l.logger.Info("backend ACIs loaded", "base_dn", baseDN.String(), "count", n, "failures", len(errs))
}

// BackendFinalized drops the ACIs of a backend that went away.
func (l *CacheListener) BackendFinalized(baseDN dn.DN) {
	n := l.cache.RemoveSubtree(baseDN)
	l.logger.Info("backend ACIs removed", "base_dn", baseDN.String(), "count", n)
}

// ConfigChanged replaces the global ACIs.
func (l *CacheListener) ConfigChanged(globalACIs []string) {
	n, errs := l.cache.SetGlobal(globalACIs)
	l.logChange("global ACIs changed", dn.Root(), n, errs)
}

func (l *CacheListener) logChange(msg string, d dn.DN, n int, errs []error) {
	l.logger.Debug(msg, "dn", d.String(), "count", n, "failures", len(errs))
}
