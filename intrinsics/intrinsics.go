// Package intrinsics provides the CloudFormation intrinsic functions used by the
// mail API stacks.
//
// The core types are re-exported from cloudformation-schema-go:
//
//	Ref{LogicalName: "Api"}                         → {"Ref": "Api"}
//	GetAtt{LogicalName: "SendMail", Attribute: "Arn"} → {"Fn::GetAtt": ["SendMail", "Arn"]}
//	ImportValue{ExportName: "stateMachineArn"}      → {"Fn::ImportValue": "stateMachineArn"}
package intrinsics

import (
	"github.com/lex00/cloudformation-schema-go/intrinsics"
)

type (
	// Ref represents a CloudFormation Ref intrinsic function.
	Ref = intrinsics.Ref

	// GetAtt represents a CloudFormation Fn::GetAtt intrinsic function.
	GetAtt = intrinsics.GetAtt

	// Sub represents a CloudFormation Fn::Sub intrinsic function.
	Sub = intrinsics.Sub

	// Join represents a CloudFormation Fn::Join intrinsic function.
	Join = intrinsics.Join

	// ImportValue represents a CloudFormation Fn::ImportValue intrinsic function.
	ImportValue = intrinsics.ImportValue
)

// Concat joins values with an empty delimiter. Plain strings collapse into a
// single string; any intrinsic in values produces an Fn::Join.
func Concat(values ...any) any {
	var s string
	for _, v := range values {
		str, ok := v.(string)
		if !ok {
			return Join{Delimiter: "", Values: values}
		}
		s += str
	}
	return s
}
