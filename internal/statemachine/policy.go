package statemachine

import (
	domainerrors "syncgate/pkg/domainerrors"
)

// Policy controls how a domain treats transitions that are not explicitly
// defined in its transition table.
type Policy string

const (
	// PolicyStrict: only defined edges are allowed.
	PolicyStrict Policy = "strict"
	// PolicyPermissive: undefined edges are allowed but flagged with a warning.
	PolicyPermissive Policy = "permissive"
	// PolicyWorkflow: like strict, used for domains where condition and
	// permission guards carry the real rules.
	PolicyWorkflow Policy = "workflow"
)

// ParsePolicy creates a Policy from a string, validating it.
// Unknown values are rejected instead of silently behaving like strict.
func ParsePolicy(s string) (Policy, error) {
	if s == "" {
		return "", domainerrors.New(domainerrors.CodeInvalidInput, "policy cannot be empty")
	}
	p := Policy(s)
	if !p.IsValid() {
		return "", domainerrors.New(domainerrors.CodeInvalidInput, "invalid policy: must be 'strict', 'permissive' or 'workflow'")
	}
	return p, nil
}

// IsValid checks if the policy is one of the supported enum values.
func (p Policy) IsValid() bool {
	switch p {
	case PolicyStrict, PolicyPermissive, PolicyWorkflow:
		return true
	}
	return false
}

// String returns the string representation.
func (p Policy) String() string {
	return string(p)
}
