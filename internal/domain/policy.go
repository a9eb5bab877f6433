package domain

import "context"

type PolicyInput struct {
	Publisher   string `json:"publisher"`
	Creator     string `json:"creator"`
	Description string `json:"description"`
	ContentSize int    `json:"content_size"`
}

type PolicyDenial struct {
	Code    string `json:"code"`
	Message string `json:"message,omitempty"`
}

type PolicyDecision struct {
	Allow bool           `json:"allow"`
	Deny  []PolicyDenial `json:"deny,omitempty"`
}

// PolicyEngine gates registrations before anything reaches the ledger.
type PolicyEngine interface {
	Evaluate(ctx context.Context, input PolicyInput) (PolicyDecision, error)
}
