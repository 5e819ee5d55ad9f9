// Package registry adapts the federation's legacy membership registry. The
// registry owns search ranking and its own data model; this service only
// copies candidate snapshots into new claims and never caches results.
package registry

import (
	"context"
)

// Candidate is one legacy membership record matching a search.
type Candidate struct {
	MemberCode     string `json:"member_code"`
	DisplayName    string `json:"display_name"`
	TaxID          string `json:"tax_id"`
	MemberTypeCode string `json:"member_type_code"`
}

// Searcher queries the legacy registry.
type Searcher interface {
	Search(ctx context.Context, term string) ([]Candidate, error)
}
