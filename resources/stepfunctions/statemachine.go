// Package stepfunctions contains the AWS::StepFunctions resource types.
package stepfunctions

// StateMachine is AWS::StepFunctions::StateMachine.
//
// Definition holds the Amazon States Language document as structured data;
// CloudFormation accepts it inline in place of DefinitionString.
type StateMachine struct {
	StateMachineName        any            `json:"StateMachineName,omitempty"`
	StateMachineType        string         `json:"StateMachineType,omitempty"`
	RoleArn                 any            `json:"RoleArn,omitempty"`
	Definition              map[string]any `json:"Definition,omitempty"`
	DefinitionString        any            `json:"DefinitionString,omitempty"`
	DefinitionSubstitutions map[string]any `json:"DefinitionSubstitutions,omitempty"`
}

// ResourceType returns the CloudFormation type.
func (StateMachine) ResourceType() string {
	return "AWS::StepFunctions::StateMachine"
}
