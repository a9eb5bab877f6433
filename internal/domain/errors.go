package domain

import "errors"

var (
	ErrValidation          = errors.New("validation failed")
	ErrNotFound            = errors.New("not found")
	ErrLedgerTimeout       = errors.New("ledger confirmation timed out")
	ErrLedgerRejected      = errors.New("ledger rejected submission")
	ErrLookupInconsistency = errors.New("store and ledger disagree")
	ErrPolicyDenied        = errors.New("registration denied by policy")
)
