package acl

import (
	"errors"
	"sync"
	"sync/atomic"

	"github.com/armon/go-radix"

	"github.com/KilimcininKorOglu/oba-aci/internal/dn"
	"github.com/KilimcininKorOglu/oba-aci/internal/filter"
	"github.com/KilimcininKorOglu/oba-aci/internal/logging"
)

// AttrACI and AttrGlobalACI are the attributes ACIs are read from.
const (
	AttrACI       = "aci"
	AttrGlobalACI = "ds-cfg-global-aci"
)

// cacheState is one immutable version of the cache. The tree maps DN keys
// to []*ACI and is never modified after publication.
type cacheState struct {
	tree   *radix.Tree
	global []*ACI
	count  int
}

// RuleCache holds every decoded ACI keyed by the DN of its holder entry,
// plus the global ACIs. Readers never block: each write clones the current
// state, changes the clone and publishes it.
type RuleCache struct {
	mu    sync.Mutex
	state atomic.Pointer[cacheState]

	logger     logging.Logger
	metrics    *Metrics
	decodeOpts []DecodeOption
}

// CacheOption configures a RuleCache.
type CacheOption func(*RuleCache)

// WithCacheLogger sets the logger used for decode failures.
func WithCacheLogger(l logging.Logger) CacheOption {
	return func(c *RuleCache) {
		c.logger = l
	}
}

// WithCacheMetrics sets the metrics updated by the cache.
func WithCacheMetrics(m *Metrics) CacheOption {
	return func(c *RuleCache) {
		c.metrics = m
	}
}

// WithDecodeOptions sets the options passed to Decode.
func WithDecodeOptions(opts ...DecodeOption) CacheOption {
	return func(c *RuleCache) {
		c.decodeOpts = opts
	}
}

// NewRuleCache creates an empty cache.
func NewRuleCache(opts ...CacheOption) *RuleCache {
	c := &RuleCache{logger: logging.NewNop()}
	for _, opt := range opts {
		opt(c)
	}
	c.state.Store(&cacheState{tree: radix.New()})
	return c
}

// CandidateACIs returns the global ACIs followed by the ACIs held by d and
// its ancestors, nearest holder first.
func (c *RuleCache) CandidateACIs(d dn.DN) []*ACI {
	s := c.state.Load()
	var path [][]*ACI
	s.tree.WalkPath(d.Key(), func(_ string, v interface{}) bool {
		path = append(path, v.([]*ACI))
		return false
	})
	out := make([]*ACI, 0, len(s.global)+len(path))
	out = append(out, s.global...)
	for i := len(path) - 1; i >= 0; i-- {
		out = append(out, path[i]...)
	}
	return out
}

// ACIs returns the ACIs held by the entry d.
func (c *RuleCache) ACIs(d dn.DN) []*ACI {
	v, ok := c.state.Load().tree.Get(d.Key())
	if !ok {
		return nil
	}
	return v.([]*ACI)
}

// Global returns the global ACIs.
func (c *RuleCache) Global() []*ACI {
	return c.state.Load().global
}

// Len returns the number of cached ACIs, global ACIs included.
func (c *RuleCache) Len() int {
	return c.state.Load().count
}

// AddEntries decodes the aci values of entries and adds them. Values that
// fail to decode are logged and skipped; their errors are returned.
func (c *RuleCache) AddEntries(entries []*filter.Entry) (int, []error) {
	added := 0
	var failures []error
	c.update(func(s *cacheState) {
		for _, e := range entries {
			acis, errs := c.decodeAll(e.DN, e.GetStrings(AttrACI))
			failures = append(failures, errs...)
			if len(acis) == 0 {
				continue
			}
			s.put(e.DN, concatACIs(s.get(e.DN), acis))
			added += len(acis)
		}
	})
	return added, failures
}

// AddACIs decodes values held by holder and adds them.
func (c *RuleCache) AddACIs(holder dn.DN, values []string) (int, []error) {
	acis, errs := c.decodeAll(holder, values)
	if len(acis) > 0 {
		c.update(func(s *cacheState) {
			s.put(holder, concatACIs(s.get(holder), acis))
		})
	}
	return len(acis), errs
}

// ReplaceDN replaces the ACIs held by holder with values. An empty list
// removes the holder.
func (c *RuleCache) ReplaceDN(holder dn.DN, values []string) (int, []error) {
	acis, errs := c.decodeAll(holder, values)
	c.update(func(s *cacheState) {
		s.put(holder, acis)
	})
	return len(acis), errs
}

// RemoveDN removes the ACIs held by holder and reports whether any were.
func (c *RuleCache) RemoveDN(holder dn.DN) bool {
	removed := false
	c.update(func(s *cacheState) {
		removed = len(s.get(holder)) > 0
		s.put(holder, nil)
	})
	return removed
}

// RemoveSubtree removes the ACIs held by base and every entry below it.
func (c *RuleCache) RemoveSubtree(base dn.DN) int {
	removed := 0
	c.update(func(s *cacheState) {
		removed = s.removeSubtree(base)
	})
	return removed
}

// RenameSubtree moves the ACIs held under oldBase to newBase. Each ACI is
// decoded again against its new holder because target DNs are checked
// against the holder.
func (c *RuleCache) RenameSubtree(oldBase, newBase dn.DN) (int, []error) {
	moved := 0
	var failures []error
	c.update(func(s *cacheState) {
		type holder struct {
			key  string
			acis []*ACI
		}
		var old []holder
		s.tree.WalkPrefix(oldBase.Key(), func(k string, v interface{}) bool {
			old = append(old, holder{k, v.([]*ACI)})
			return false
		})
		for _, h := range old {
			s.tree.Delete(h.key)
			s.count -= len(h.acis)
		}
		for _, h := range old {
			newDN := h.acis[0].HolderDN.Rename(oldBase, newBase)
			values := make([]string, len(h.acis))
			for i, a := range h.acis {
				values[i] = a.String()
			}
			acis, errs := c.decodeAll(newDN, values)
			failures = append(failures, errs...)
			s.put(newDN, concatACIs(s.get(newDN), acis))
			moved += len(acis)
		}
	})
	return moved, failures
}

// ReplaceSubtrees removes the ACIs held at and below each of bases and adds
// those of entries in one update, so readers never see the gap.
func (c *RuleCache) ReplaceSubtrees(bases []dn.DN, entries []*filter.Entry) (int, []error) {
	added := 0
	var failures []error
	c.update(func(s *cacheState) {
		for _, base := range bases {
			s.removeSubtree(base)
		}
		for _, e := range entries {
			acis, errs := c.decodeAll(e.DN, e.GetStrings(AttrACI))
			failures = append(failures, errs...)
			if len(acis) == 0 {
				continue
			}
			s.put(e.DN, concatACIs(s.get(e.DN), acis))
			added += len(acis)
		}
	})
	return added, failures
}

// SetGlobal replaces the global ACIs.
func (c *RuleCache) SetGlobal(values []string) (int, []error) {
	acis, errs := c.decodeAll(dn.Root(), values)
	c.update(func(s *cacheState) {
		s.count += len(acis) - len(s.global)
		s.global = acis
	})
	return len(acis), errs
}

// Clear removes every ACI except the global ones.
func (c *RuleCache) Clear() {
	c.update(func(s *cacheState) {
		s.tree = radix.New()
		s.count = len(s.global)
	})
}

// update runs fn on a copy of the current state and publishes the copy.
func (c *RuleCache) update(fn func(s *cacheState)) {
	c.mu.Lock()
	defer c.mu.Unlock()

	cur := c.state.Load()
	next := &cacheState{
		tree:   radix.NewFromMap(cur.tree.ToMap()),
		global: cur.global,
		count:  cur.count,
	}
	fn(next)
	c.state.Store(next)
	c.metrics.SetCachedACIs(next.count)
}

func (c *RuleCache) decodeAll(holder dn.DN, values []string) ([]*ACI, []error) {
	var acis []*ACI
	var errs []error
	for _, v := range values {
		a, err := Decode(v, holder, c.decodeOpts...)
		if err != nil {
			c.logDecodeFailure(holder, err)
			errs = append(errs, err)
			continue
		}
		acis = append(acis, a)
	}
	return acis, errs
}

func (c *RuleCache) logDecodeFailure(holder dn.DN, err error) {
	kv := []interface{}{"dn", holder.String()}
	var se *SyntaxError
	if errors.As(err, &se) {
		kv = append(kv, se.Fields()...)
		c.metrics.RecordDecodeFailure(se.ID)
	} else {
		kv = append(kv, "error", err)
	}
	c.logger.Warn("ACI failed to decode and is ignored", kv...)
}

func (s *cacheState) get(d dn.DN) []*ACI {
	v, ok := s.tree.Get(d.Key())
	if !ok {
		return nil
	}
	return v.([]*ACI)
}

// put stores acis for d, deleting the key when acis is empty, and keeps
// count in step.
func (s *cacheState) put(d dn.DN, acis []*ACI) {
	key := d.Key()
	if old, ok := s.tree.Get(key); ok {
		s.count -= len(old.([]*ACI))
	}
	if len(acis) == 0 {
		s.tree.Delete(key)
		return
	}
	s.tree.Insert(key, acis)
	s.count += len(acis)
}

func (s *cacheState) removeSubtree(base dn.DN) int {
	removed := 0
	var keys []string
	s.tree.WalkPrefix(base.Key(), func(k string, v interface{}) bool {
		keys = append(keys, k)
		removed += len(v.([]*ACI))
		return false
	})
	for _, k := range keys {
		s.tree.Delete(k)
	}
	s.count -= removed
	return removed
}

// concatACIs returns a new slice so that published slices are never
// appended to.
func concatACIs(a, b []*ACI) []*ACI {
	out := make([]*ACI, 0, len(a)+len(b))
	out = append(out, a...)
	return append(out, b...)
}
