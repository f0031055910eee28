package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	simplemail "github.com/lex00/simple-mail-api-go"
)

func template(resources map[string]simplemail.ResourceDef) *simplemail.Template {
	return &simplemail.Template{Resources: resources}
}

func postMethod() simplemail.ResourceDef {
	return simplemail.ResourceDef{
		Type: "AWS::ApiGateway::Method",
		Properties: map[string]any{
			"RestApiId":          map[string]any{"Ref": "Api"},
			"ResourceId":         map[string]any{"Ref": "MailResource"},
			"HttpMethod":         "POST",
			"AuthorizationType":  "NONE",
			"RequestValidatorId": map[string]any{"Ref": "MailRequestValidator"},
			"Integration": map[string]any{
				"Type":                  "AWS",
				"IntegrationHttpMethod": "POST",
				"PassthroughBehavior":   "WHEN_NO_TEMPLATES",
				"Uri":                   map[string]any{"Fn::Sub": "arn:${AWS::Partition}:apigateway:${AWS::Region}:states:action/StartExecution"},
				"IntegrationResponses":  []any{map[string]any{"StatusCode": "200"}},
			},
		},
	}
}

func TestValidateTemplate_Valid(t *testing.T) {
	result := ValidateTemplate(template(map[string]simplemail.ResourceDef{
		"MailPostMethod": postMethod(),
		"ExecutionRole": {
			Type: "AWS::IAM::Role",
			Properties: map[string]any{
				"RoleName":                 "StepFunctionsRole",
				"AssumeRolePolicyDocument": map[string]any{"Version": "2012-10-17"},
				"Policies":                 []any{},
			},
		},
		"SendMail": {
			Type: "AWS::StepFunctions::StateMachine",
			Properties: map[string]any{
				"StateMachineName": "sendMail",
				"RoleArn":          map[string]any{"Fn::GetAtt": []any{"ExecutionRole", "Arn"}},
				"Definition":       map[string]any{"StartAt": "ParseInput"},
			},
		},
	}), Options{Strict: true})

	assert.True(t, result.Valid)
	assert.Empty(t, result.Errors)
	assert.Empty(t, result.Warnings)
}

func TestValidateTemplate_Errors(t *testing.T) {
	tests := []struct {
		name     string
		resource simplemail.ResourceDef
		want     string
	}{
		{
			name:     "missing required",
			resource: simplemail.ResourceDef{Type: "AWS::ApiGateway::Resource", Properties: map[string]any{"PathPart": "mail"}},
			want:     "MailResource.ParentId: missing required property: ParentId",
		},
		{
			name: "wrong type",
			resource: simplemail.ResourceDef{Type: "AWS::ApiGateway::RequestValidator", Properties: map[string]any{
				"RestApiId":           map[string]any{"Ref": "Api"},
				"ValidateRequestBody": "yes",
			}},
			want: "MailResource.ValidateRequestBody: expected type Boolean",
		},
		{
			name: "allowed values",
			resource: simplemail.ResourceDef{Type: "AWS::StepFunctions::StateMachine", Properties: map[string]any{
				"RoleArn":          "arn:aws:iam::123456789012:role/StepFunctionsRole",
				"StateMachineType": "BATCH",
			}},
			want: `value "BATCH" not in allowed values`,
		},
		{
			name:     "bad type format",
			resource: simplemail.ResourceDef{Type: "ApiGateway::Method"},
			want:     "invalid resource type format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ValidateTemplate(template(map[string]simplemail.ResourceDef{"MailResource": tt.resource}), Options{})
			assert.False(t, result.Valid)
			require.NotEmpty(t, result.Errors)
			assert.Contains(t, result.Errors[0].Error(), tt.want)
		})
	}
}

func TestValidateTemplate_NestedIntegration(t *testing.T) {
	method := postMethod()
	integration := method.Properties["Integration"].(map[string]any)
	integration["PassthroughBehavior"] = "ALWAYS"
	delete(integration, "Type")

	result := ValidateTemplate(template(map[string]simplemail.ResourceDef{"MailPostMethod": method}), Options{})
	require.Len(t, result.Errors, 2)
	assert.Equal(t, "Integration.Type", result.Errors[0].Property)
	assert.Equal(t, "Integration.PassthroughBehavior", result.Errors[1].Property)
}

func TestValidateTemplate_Warnings(t *testing.T) {
	result := ValidateTemplate(template(map[string]simplemail.ResourceDef{
		"Queue": {Type: "AWS::SQS::Queue"},
		"Api":   {Type: "AWS::ApiGateway::RestApi", Properties: map[string]any{"Name": "mailBackend", "BinaryMediaTypes": []any{}}},
	}), Options{Strict: true})

	assert.True(t, result.Valid)
	require.Len(t, result.Warnings, 2)
	assert.Equal(t, "Api.BinaryMediaTypes: unknown property: BinaryMediaTypes", result.Warnings[0].Error())
	assert.Contains(t, result.Warnings[1].Message, "unknown resource type: AWS::SQS::Queue")
}

func TestIsValidResourceType(t *testing.T) {
	assert.True(t, isValidResourceType("AWS::ApiGateway::Deployment"))
	assert.True(t, isValidResourceType("Custom::SenderLookup"))
	assert.False(t, isValidResourceType("AWS::ApiGateway"))
	assert.False(t, isValidResourceType("Google::Storage::Bucket"))
}
