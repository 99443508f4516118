package rules

import "sync/atomic"

// Diagnostics counts the silent-path events of the rewrite engine. Invalid
// products are dropped by design (broad rules produce chemically invalid
// rewrites on some sites); these counters make the drop rate observable
// without changing that outward behavior.
type Diagnostics struct {
	applications    atomic.Int64
	invalidProducts atomic.Int64
	embeddingCaps   atomic.Int64
	duplicateMerges atomic.Int64
}

// DiagnosticsSnapshot is a point-in-time copy of the counters.
type DiagnosticsSnapshot struct {
	RuleApplications       int64 `json:"rule_applications"`
	InvalidProductsDropped int64 `json:"invalid_products_dropped"`
	EmbeddingCapHits       int64 `json:"embedding_cap_hits"`
	DuplicatesMerged       int64 `json:"duplicates_merged"`
}

// Snapshot returns the current counter values.
func (d *Diagnostics) Snapshot() DiagnosticsSnapshot {
	return DiagnosticsSnapshot{
		RuleApplications:       d.applications.Load(),
		InvalidProductsDropped: d.invalidProducts.Load(),
		EmbeddingCapHits:       d.embeddingCaps.Load(),
		DuplicatesMerged:       d.duplicateMerges.Load(),
	}
}
