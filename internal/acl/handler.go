package acl

import (
	"time"

	"github.com/KilimcininKorOglu/oba-aci/internal/dn"
	"github.com/KilimcininKorOglu/oba-aci/internal/filter"
	"github.com/KilimcininKorOglu/oba-aci/internal/logging"
	"github.com/KilimcininKorOglu/oba-aci/internal/schema"
)

// Default values used when a HandlerConfig field is zero.
const (
	DefaultResolveTimeout      = 2 * time.Second
	DefaultModifyDNLockRetries = 3
)

// HandlerConfig holds the collaborators of a Handler. Only Cache is
// required; the other fields fall back to working defaults.
type HandlerConfig struct {
	Cache *RuleCache

	// Schema defaults to schema.Default().
	Schema SchemaRegistry
	// Groups defaults to StaticGroups over Entries when Entries is set.
	Groups   GroupMembership
	Entries  EntryProvider
	Locker   EntryLocker
	Resolver Resolver

	ResolveTimeout      time.Duration
	ModifyDNLockRetries int

	// Clock returns the time used by dayofweek and timeofday rules.
	Clock func() time.Time

	Logger  logging.Logger
	Metrics *Metrics
}

// Handler makes access control decisions from the ACIs of a RuleCache.
// It is safe for concurrent use; every check works on its own EvalContext.
type Handler struct {
	cache   *RuleCache
	schema  SchemaRegistry
	filters *filter.Evaluator

	groups         GroupMembership
	entries        EntryProvider
	locker         EntryLocker
	resolver       Resolver
	resolveTimeout time.Duration
	lockRetries    int
	clock          func() time.Time

	logger  logging.Logger
	metrics *Metrics
}

// NewHandler creates a Handler from cfg.
func NewHandler(cfg HandlerConfig) *Handler {
	h := &Handler{
		cache:          cfg.Cache,
		schema:         cfg.Schema,
		groups:         cfg.Groups,
		entries:        cfg.Entries,
		locker:         cfg.Locker,
		resolver:       cfg.Resolver,
		resolveTimeout: cfg.ResolveTimeout,
		lockRetries:    cfg.ModifyDNLockRetries,
		clock:          cfg.Clock,
		logger:         cfg.Logger,
		metrics:        cfg.Metrics,
	}
	if h.cache == nil {
		h.cache = NewRuleCache()
	}
	if h.schema == nil {
		h.schema = defaultSchema()
	}
	if h.groups == nil && h.entries != nil {
		h.groups = StaticGroups{Entries: h.entries}
	}
	if h.resolveTimeout <= 0 {
		h.resolveTimeout = DefaultResolveTimeout
	}
	if h.lockRetries <= 0 {
		h.lockRetries = DefaultModifyDNLockRetries
	}
	if h.clock == nil {
		h.clock = time.Now
	}
	if h.logger == nil {
		h.logger = logging.NewNop()
	}

	s, _ := h.schema.(*schema.Schema)
	h.filters = filter.NewEvaluator(s)
	return h
}

// Cache returns the rule cache the handler reads.
func (h *Handler) Cache() *RuleCache {
	return h.cache
}

func (h *Handler) newContext(op Operation, client *Client, resource *filter.Entry, rights Right) *EvalContext {
	if client == nil {
		client = &Client{}
	}
	return &EvalContext{
		Operation: op,
		Client:    client,
		Resource:  resource,
		Rights:    rights,
		h:         h,
	}
}

// decide runs check, records the outcome and logs it.
func (h *Handler) decide(ctx *EvalContext, check func() bool) bool {
	start := time.Now()
	ok := check()
	h.metrics.ObserveDecision(ctx.Operation, ok, time.Since(start))

	kv := []interface{}{
		"operation", ctx.Operation.String(),
		"dn", ctx.resourceDN().String(),
		"client", ctx.clientDN().String(),
		"allowed", ok,
		"reason", ctx.Scratch.Reason.String(),
	}
	if ctx.Scratch.DecidingACI != nil {
		kv = append(kv, "aci", ctx.Scratch.DecidingACI.Name)
	}
	h.logger.Debug("access control decision", kv...)
	return ok
}

// accessAllowed is the core check for the rights, resource and attribute
// of ctx.
func (h *Handler) accessAllowed(ctx *EvalContext) bool {
	if ctx.Rights.Has(WriteAdd | WriteDelete) {
		ctx.Rights |= Write
	}
	if ctx.AttrValue != nil && ctx.Rights.Has(Write) && ctx.AttrType != nil && ctx.AttrType.HasDNSyntax() {
		v, err := dn.Parse(string(ctx.AttrValue))
		if err != nil {
			h.logger.Warn("attribute value is not a valid DN", "attribute", ctx.AttrType.NormalizedName(), "value", string(ctx.AttrValue))
		} else if !ctx.isAnonymous() && v.Equal(ctx.Client.DN) {
			ctx.Rights |= SelfWrite
		}
	}

	// Under proxied authorization the authenticated identity must hold
	// the proxy right on the resource before the proxied identity is
	// checked. This is done once per resource.
	if ctx.Client.IsProxied() && !ctx.Rights.Has(Proxy) && !ctx.Scratch.SeenEntry {
		rights, client := ctx.Rights, ctx.Client
		ctx.Rights, ctx.Client = Proxy, client.Original
		ok := h.accessAllowed(ctx)
		ctx.Rights, ctx.Client = rights, client
		if !ok {
			return false
		}
		ctx.Scratch.SeenEntry = true
	}

	h.createApplicableList(h.cache.CandidateACIs(ctx.resourceDN()), ctx)
	ok := h.testApplicableLists(ctx)
	if ctx.EffectiveRights {
		ctx.Scratch.Summary = h.summary(ctx, ok)
	}
	return ok
}

// accessAllowedEntry checks an entry as a whole by checking its attributes
// in turn, objectClass first. When the attribute that granted access was
// matched by an ACI without targetattr, the entry is checked again with no
// attribute. Only an explicit deny on that second check refuses the entry.
func (h *Handler) accessAllowedEntry(ctx *EvalContext) bool {
	ctx.Scratch.FirstAttribute = true
	ctx.Scratch.EntryTestRule = false
	defer func() { ctx.Scratch.FirstAttribute = false }()

	for _, at := range h.allAttributes(ctx.Resource) {
		ctx.AttrType = at
		if h.accessAllowed(ctx) {
			if ctx.Scratch.EntryTestRule {
				ctx.AttrType = nil
				if !h.accessAllowed(ctx) && ctx.Scratch.Reason == ReasonEvaluatedDenyACI {
					return false
				}
			}
			return true
		}
		ctx.Scratch.FirstAttribute = false
	}
	return false
}

// createApplicableList splits the candidates whose targets apply into the
// allow and deny lists. An ACI with both kinds of pairs lands on both.
func (h *Handler) createApplicableList(candidates []*ACI, ctx *EvalContext) {
	var allows, denies []*ACI
	ctx.Scratch.TargAttrFilterACIs = nil
	for _, a := range candidates {
		if isApplicable(a, ctx) {
			if a.hasAccessType(Deny) {
				denies = append(denies, a)
			}
			if a.hasAccessType(Allow) {
				allows = append(allows, a)
			}
		}
		ctx.Scratch.TargAttrFiltersMatch = false
	}
	ctx.Scratch.AllowList, ctx.Scratch.DenyList = allows, denies
}

// testApplicableLists evaluates the deny list, then the allow list. A deny
// that evaluates true or fails refuses access; the first allow that
// evaluates true grants it; anything else is refused.
func (h *Handler) testApplicableLists(ctx *EvalContext) bool {
	s := &ctx.Scratch
	s.Reason, s.DecidingACI = ReasonNone, nil

	if len(s.AllowList) == 0 && (!ctx.EffectiveRights || ctx.Rights.Has(SelfWrite) || len(s.TargAttrFilterACIs) > 0) {
		s.Reason = ReasonNoAllowACIs
		return false
	}

	s.DenyEval = true
	for _, a := range s.DenyList {
		if res := a.evaluate(ctx); res != ResultFalse {
			s.DenyEval = false
			s.Reason, s.DecidingACI = ReasonEvaluatedDenyACI, a
			return false
		}
	}
	s.DenyEval = false

	for _, a := range s.AllowList {
		if a.evaluate(ctx) == ResultTrue {
			s.Reason, s.DecidingACI = ReasonEvaluatedAllowACI, a
			return true
		}
	}
	s.Reason = ReasonNoMatchedAllowACIs
	return false
}

// allAttributes returns the types of the attributes of e: objectClass, then
// user attributes, then operational attributes.
func (h *Handler) allAttributes(e *filter.Entry) []*schema.AttributeType {
	if e == nil {
		return nil
	}
	var oc, user, op []*schema.AttributeType
	for _, name := range e.AttributeNames() {
		at := h.schema.GetAttributeType(name)
		switch {
		case at.HasName("objectClass"):
			oc = append(oc, at)
		case at.IsOperational():
			op = append(op, at)
		default:
			user = append(user, at)
		}
	}
	out := append(oc, user...)
	return append(out, op...)
}

// filterEntry removes from filtered the attributes ctx may not read.
func (h *Handler) filterEntry(ctx *EvalContext, filtered *filter.Entry, search *SearchOperation) {
	for _, name := range filtered.AttributeNames() {
		at := h.schema.GetAttributeType(name)
		if search != nil {
			if search.AllUserAttrsMatched && !at.IsOperational() {
				continue
			}
			if search.AllOpAttrsMatched && at.IsOperational() {
				continue
			}
		}
		ctx.AttrType = at
		ctx.AttrValue = nil
		if !h.accessAllowed(ctx) {
			filtered.RemoveAttribute(name)
		}
	}
}

// testFilter checks the rights of ctx on every attribute a filter asserts
// on.
func (h *Handler) testFilter(ctx *EvalContext, f *filter.Filter) bool {
	switch f.Type {
	case filter.FilterAnd, filter.FilterOr:
		for _, c := range f.Children {
			if !h.testFilter(ctx, c) {
				return false
			}
		}
		return true
	case filter.FilterNot:
		return h.testFilter(ctx, f.Child)
	}
	ctx.AttrType = nil
	if f.Attribute != "" {
		ctx.AttrType = h.schema.GetAttributeType(f.Attribute)
	}
	return h.accessAllowed(ctx)
}

// superiorEntry fetches the new superior of a modify DN under a read lock,
// retrying a bounded number of times. It returns nil when the lock cannot
// be taken or the entry does not exist.
func (h *Handler) superiorEntry(d dn.DN) *filter.Entry {
	if h.entries == nil {
		return nil
	}
	if h.locker != nil {
		var unlock func()
		locked := false
		for i := 0; i < h.lockRetries && !locked; i++ {
			unlock, locked = h.locker.TryReadLock(d)
		}
		if !locked {
			h.logger.Debug("could not lock new superior entry", "dn", d.String(), "retries", h.lockRetries)
			return nil
		}
		defer unlock()
	}
	e, err := h.entries.GetEntry(d)
	if err != nil {
		h.logger.Debug("new superior entry lookup failed", "dn", d.String(), "error", err)
		return nil
	}
	return e
}
