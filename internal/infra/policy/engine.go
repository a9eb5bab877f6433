// Package policy evaluates an optional Rego bundle against registration
// requests before they reach the ledger.
package policy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"notary/internal/domain"

	"github.com/open-policy-agent/opa/rego"
)

const defaultQuery = "data.notary.policy.result"

// Engine wraps a prepared Rego query. The policy module must live in the
// notary.policy package and produce a result document of the form
// {"allow": bool, "deny": [{"code", "message"}]}.
type Engine struct {
	query rego.PreparedEvalQuery
}

func NewEngineFromPath(ctx context.Context, path string) (*Engine, error) {
	if path == "" {
		return nil, errors.New("policy path is required")
	}
	r := rego.New(
		rego.Query(defaultQuery),
		rego.StrictBuiltinErrors(true),
		rego.Load([]string{path}, nil),
	)
	prepared, err := r.PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("prepare policy: %w", err)
	}
	return &Engine{query: prepared}, nil
}

func (e *Engine) Evaluate(ctx context.Context, input domain.PolicyInput) (domain.PolicyDecision, error) {
	if e == nil {
		return domain.PolicyDecision{}, errors.New("policy engine is nil")
	}
	results, err := e.query.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		return domain.PolicyDecision{}, err
	}
	if len(results) == 0 || len(results[0].Expressions) == 0 {
		return domain.PolicyDecision{}, errors.New("empty policy result")
	}
	decision, err := decodeDecision(results[0].Expressions[0].Value)
	if err != nil {
		return domain.PolicyDecision{}, err
	}
	normalizeDecision(&decision)
	return decision, nil
}

func decodeDecision(value any) (domain.PolicyDecision, error) {
	payload, err := json.Marshal(value)
	if err != nil {
		return domain.PolicyDecision{}, err
	}
	var decision domain.PolicyDecision
	if err := json.Unmarshal(payload, &decision); err != nil {
		return domain.PolicyDecision{}, err
	}
	return decision, nil
}

func normalizeDecision(decision *domain.PolicyDecision) {
	if decision == nil {
		return
	}
	sort.Slice(decision.Deny, func(i, j int) bool {
		if decision.Deny[i].Code == decision.Deny[j].Code {
			return decision.Deny[i].Message < decision.Deny[j].Message
		}
		return decision.Deny[i].Code < decision.Deny[j].Code
	})
}

var _ domain.PolicyEngine = (*Engine)(nil)
