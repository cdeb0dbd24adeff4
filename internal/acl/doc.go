// Package acl implements ACI based access control for an LDAP directory.
//
// # Overview
//
// Access control instructions are stored in the aci attribute of directory
// entries and in the ds-cfg-global-aci configuration attribute. An ACI held
// by an entry governs that entry and its subtree:
//
//	(targetattr="cn || mail")(version 3.0; acl "self read";
//	    allow (read,search,compare) userdn="ldap:///self";)
//
// An ACI has optional target clauses (target, targetattr, targetfilter,
// targattrfilters, targetscope) and one or more permission and bind rule
// pairs. Decode parses ACI text and rejects malformed values with a
// *SyntaxError carrying a stable MessageID.
//
// # Rights
//
// Rights are bit flags that can be combined:
//
//	acl.Read | acl.Search
//
// WriteAdd, WriteDelete, ExtOp and Control are used by the handler when
// checking modifications, extended operations and controls. They cannot be
// named in an ACI.
//
// # Bind rules
//
// Bind rules decide who a permission applies to. Supported keywords are
// userdn, groupdn, roledn, userattr, ip, dns, dayofweek, timeofday and
// authmethod, combined with and, or, not and parentheses. Evaluation is
// three valued; a rule that cannot be evaluated never grants access.
//
// # Decisions
//
// A Handler answers one question per operation:
//
//	h := acl.NewHandler(acl.HandlerConfig{Cache: cache, Entries: dir})
//	ok := h.IsAllowedDelete(client, entry)
//
// The ACIs held by the resource and its ancestors, plus the global ACIs,
// are filtered by their targets. Any applicable deny that matches refuses
// access; otherwise an applicable allow must match. Without one, access is
// refused.
//
// # Rule cache
//
// RuleCache indexes decoded ACIs by holder DN. Readers never block; writers
// publish a new version. CacheListener keeps it in step with directory
// changes and Manager builds the whole engine from configuration,
// including a bootstrap file reloaded on change.
package acl
