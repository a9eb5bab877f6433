package domain

// Discrepancy is a field-level mismatch between metadata claimed by a
// verifier and the metadata stored at registration. Discrepancies are
// reported, never corrected: the first registration stays authoritative.
type Discrepancy struct {
	Field   string `json:"field"`
	Claimed string `json:"claimed"`
	Stored  string `json:"stored"`
}

// VerificationResult is ephemeral and never persisted.
type VerificationResult struct {
	Matched       bool
	Asset         *ContentAsset
	Discrepancies []Discrepancy
}
