// Package iam contains the AWS::IAM resource types used by the mail API stacks.
package iam

// Role is AWS::IAM::Role.
type Role struct {
	RoleName                 any           `json:"RoleName,omitempty"`
	Description              string        `json:"Description,omitempty"`
	AssumeRolePolicyDocument any           `json:"AssumeRolePolicyDocument,omitempty"`
	ManagedPolicyArns        []any         `json:"ManagedPolicyArns,omitempty"`
	Policies                 []Role_Policy `json:"Policies,omitempty"`
	Path                     string        `json:"Path,omitempty"`
}

// ResourceType returns the CloudFormation type.
func (Role) ResourceType() string {
	return "AWS::IAM::Role"
}

// Role_Policy is an inline policy embedded in a Role.
type Role_Policy struct {
	PolicyName     string `json:"PolicyName,omitempty"`
	PolicyDocument any    `json:"PolicyDocument,omitempty"`
}
