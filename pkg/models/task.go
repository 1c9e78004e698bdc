package models

import "strconv"

// RankNotFound is the sentinel written to the ledger when the target never
// appears within the scanned result pages.
const RankNotFound = "Not Found"

// SearchTask describes one keyword/target pair pulled from a ledger row.
// It is immutable for the duration of a single rank search.
type SearchTask struct {
	ID      string `json:"id"`
	Keyword string `json:"keyword"`
	Target  string `json:"target"` // URL or domain fragment matched against result URLs
	Row     int    `json:"row"`    // 1-based ledger row backing this task
}

// OrganicResult is a single non-advertisement entry on a results page.
// Produced transiently while scanning; never persisted.
type OrganicResult struct {
	Rank int    `json:"rank"`
	URL  string `json:"url"`
}

// RankOutcome is the terminal output of a rank search.
type RankOutcome struct {
	Rank  int    `json:"rank"`
	URL   string `json:"url"`
	Found bool   `json:"found"`
}

// FoundAt builds a successful outcome.
func FoundAt(rank int, url string) RankOutcome {
	return RankOutcome{Rank: rank, URL: url, Found: true}
}

// NoRank builds the not-found outcome.
func NoRank() RankOutcome {
	return RankOutcome{}
}

// String renders the rank the way the ledger stores it.
func (o RankOutcome) String() string {
	if !o.Found {
		return RankNotFound
	}
	return strconv.Itoa(o.Rank)
}
