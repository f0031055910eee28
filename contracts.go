// Package simplemail provides the shared types for the simple mail API infrastructure.
//
// The infrastructure is declared as plain Go values and synthesized into
// CloudFormation templates, one per stack:
//
//	var role = iam.Role{
//	    RoleName:                 "StepFunctionsRole",
//	    AssumeRolePolicyDocument: trust,
//	}
//	stk.Add("ExecutionRole", role)
//
// The simplemail CLI composes the workflow and gateway stacks and writes the
// resulting templates plus a deployment manifest.
package simplemail

import (
	"encoding/json"
)

// Resource represents a CloudFormation resource.
// All resource types (iam.Role, apigateway.Method, etc.) implement this interface.
type Resource interface {
	// ResourceType returns the CloudFormation type (e.g., "AWS::IAM::Role")
	ResourceType() string
}

// AttrRef represents a GetAtt reference to a resource attribute.
//
// When serialized to CloudFormation JSON, AttrRef becomes:
//
//	{"Fn::GetAtt": ["SendMail", "Arn"]}
type AttrRef struct {
	// Resource is the logical name of the referenced resource
	Resource string
	// Attribute is the attribute name (e.g., "Arn", "RootResourceId")
	Attribute string
}

// MarshalJSON serializes AttrRef to CloudFormation GetAtt syntax.
func (a AttrRef) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string][]string{
		"Fn::GetAtt": {a.Resource, a.Attribute},
	})
}

// IsZero returns true if the AttrRef has not been populated.
func (a AttrRef) IsZero() bool {
	return a.Resource == "" && a.Attribute == ""
}

// Template represents a CloudFormation template.
type Template struct {
	AWSTemplateFormatVersion string                 `json:"AWSTemplateFormatVersion" yaml:"AWSTemplateFormatVersion"`
	Description              string                 `json:"Description,omitempty" yaml:"Description,omitempty"`
	Parameters               map[string]Parameter   `json:"Parameters,omitempty" yaml:"Parameters,omitempty"`
	Resources                map[string]ResourceDef `json:"Resources" yaml:"Resources"`
	Outputs                  map[string]Output      `json:"Outputs,omitempty" yaml:"Outputs,omitempty"`
}

// ResourceDef is a single resource in the CloudFormation template.
type ResourceDef struct {
	Type       string         `json:"Type" yaml:"Type"`
	Properties map[string]any `json:"Properties,omitempty" yaml:"Properties,omitempty"`
	DependsOn  []string       `json:"DependsOn,omitempty" yaml:"DependsOn,omitempty"`
}

// Parameter is a CloudFormation template parameter.
type Parameter struct {
	Type          string   `json:"Type" yaml:"Type"`
	Description   string   `json:"Description,omitempty" yaml:"Description,omitempty"`
	Default       any      `json:"Default,omitempty" yaml:"Default,omitempty"`
	AllowedValues []string `json:"AllowedValues,omitempty" yaml:"AllowedValues,omitempty"`
}

// Output is a CloudFormation template output.
type Output struct {
	Description string  `json:"Description,omitempty" yaml:"Description,omitempty"`
	Value       any     `json:"Value" yaml:"Value"`
	Export      *Export `json:"Export,omitempty" yaml:"Export,omitempty"`
}

// Export names an output so other stacks can import it with Fn::ImportValue.
type Export struct {
	Name string `json:"Name" yaml:"Name"`
}

// StackManifest describes one synthesized stack in manifest.json.
type StackManifest struct {
	Name         string   `json:"name"`
	TemplateFile string   `json:"templateFile"`
	Account      string   `json:"account"`
	Region       string   `json:"region"`
	Dependencies []string `json:"dependencies,omitempty"`
}

// Manifest lists synthesized stacks in deployment order.
type Manifest struct {
	Version string          `json:"version"`
	Stacks  []StackManifest `json:"stacks"`
}

// SynthResult is the JSON output from `simplemail synth`.
type SynthResult struct {
	Success bool     `json:"success"`
	Stacks  []string `json:"stacks,omitempty"`
	Output  string   `json:"output,omitempty"`
	Errors  []string `json:"errors,omitempty"`
}

// ValidateResult is the JSON output from `simplemail validate`.
type ValidateResult struct {
	Success   bool     `json:"success"`
	Resources int      `json:"resources"`
	Errors    []string `json:"errors,omitempty"`
	Warnings  []string `json:"warnings,omitempty"`
}

// ListResult is the JSON output from `simplemail list`.
type ListResult struct {
	Resources []ListResource `json:"resources"`
}

// ListResource is a single resource in the list output.
type ListResource struct {
	Stack string `json:"stack"`
	Name  string `json:"name"`
	Type  string `json:"type"`
}

// DiffEntry describes one added, removed or modified resource.
type DiffEntry struct {
	Stack    string   `json:"stack"`
	Resource string   `json:"resource"`
	Type     string   `json:"type"`
	Changes  []string `json:"changes,omitempty"`
}

// TemplateDiff groups resource differences by kind.
type TemplateDiff struct {
	Added    []DiffEntry `json:"added,omitempty"`
	Removed  []DiffEntry `json:"removed,omitempty"`
	Modified []DiffEntry `json:"modified,omitempty"`
}

// DiffSummary counts differences.
type DiffSummary struct {
	Added    int `json:"added"`
	Removed  int `json:"removed"`
	Modified int `json:"modified"`
	Total    int `json:"total"`
}
