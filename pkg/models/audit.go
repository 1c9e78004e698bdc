package models

// AuditCategory is the closed set of page classifications produced by the
// audit funnel. Exactly one applies per audited page.
type AuditCategory string

const (
	AuditDeletion        AuditCategory = "Deletion"
	AuditTitleMeta       AuditCategory = "T&M"
	AuditLowProductCount AuditCategory = "Low Product Count"
	AuditContent         AuditCategory = "Content"
	AuditOptimized       AuditCategory = "Optimized"
)

// AuditOutcome pairs the winning category with its value payload: the keyword
// for Deletion, a short stopping note for LowProductCount, the page URL
// otherwise.
type AuditOutcome struct {
	Category AuditCategory `json:"category"`
	Value    string        `json:"value"`
}
