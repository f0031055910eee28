package intrinsics

import (
	"encoding/json"
)

// Json is a shorthand for map[string]any.
// Used for inline JSON objects such as JSON Schema models and request templates.
type Json = map[string]any

// List creates a typed slice from the given items.
func List[T any](items ...T) []T {
	return items
}

// Any creates a []any slice from the given items.
func Any(items ...any) []any {
	return items
}

// PolicyVersion is the IAM policy language version.
const PolicyVersion = "2012-10-17"

// PolicyDocument represents an IAM policy document.
type PolicyDocument struct {
	Version   string `json:"Version,omitempty"`
	Statement []any  `json:"Statement"`
}

// NewPolicyDocument creates a PolicyDocument with the default version.
func NewPolicyDocument(statements ...any) PolicyDocument {
	return PolicyDocument{Version: PolicyVersion, Statement: statements}
}

// PolicyStatement represents an IAM policy statement.
type PolicyStatement struct {
	Sid       string `json:"Sid,omitempty"`
	Effect    string `json:"Effect"`
	Principal any    `json:"Principal,omitempty"`
	Action    any    `json:"Action,omitempty"`
	Resource  any    `json:"Resource,omitempty"`
	Condition Json   `json:"Condition,omitempty"`
}

// Allow returns an Allow statement granting actions on resources.
func Allow(actions []any, resources []any) PolicyStatement {
	return PolicyStatement{
		Effect:   "Allow",
		Action:   actions,
		Resource: resources,
	}
}

// AssumeRolePolicy returns the trust policy letting a service assume a role.
func AssumeRolePolicy(service string) PolicyDocument {
	return NewPolicyDocument(PolicyStatement{
		Effect:    "Allow",
		Principal: ServicePrincipal{service},
		Action:    "sts:AssumeRole",
	})
}

// ServicePrincipal represents a service principal (e.g., states.amazonaws.com).
// Serializes to {"Service": ...} format.
type ServicePrincipal []any

// MarshalJSON serializes to {"Service": ...} format.
func (p ServicePrincipal) MarshalJSON() ([]byte, error) {
	if len(p) == 1 {
		return json.Marshal(map[string]any{"Service": p[0]})
	}
	return json.Marshal(map[string]any{"Service": []any(p)})
}
