// Package apigateway contains the AWS::ApiGateway resource types for a REST API
// with request validation and AWS service integrations.
package apigateway

// RestApi is AWS::ApiGateway::RestApi.
type RestApi struct {
	Name        any    `json:"Name,omitempty"`
	Description string `json:"Description,omitempty"`
}

// ResourceType returns the CloudFormation type.
func (RestApi) ResourceType() string {
	return "AWS::ApiGateway::RestApi"
}

// Resource is AWS::ApiGateway::Resource, one path segment of a REST API.
type Resource struct {
	RestApiId any    `json:"RestApiId,omitempty"`
	ParentId  any    `json:"ParentId,omitempty"`
	PathPart  string `json:"PathPart,omitempty"`
}

// ResourceType returns the CloudFormation type.
func (Resource) ResourceType() string {
	return "AWS::ApiGateway::Resource"
}

// Model is AWS::ApiGateway::Model, a JSON Schema (draft 4) for a payload.
type Model struct {
	RestApiId   any            `json:"RestApiId,omitempty"`
	Name        string         `json:"Name,omitempty"`
	ContentType string         `json:"ContentType,omitempty"`
	Description string         `json:"Description,omitempty"`
	Schema      map[string]any `json:"Schema,omitempty"`
}

// ResourceType returns the CloudFormation type.
func (Model) ResourceType() string {
	return "AWS::ApiGateway::Model"
}

// RequestValidator is AWS::ApiGateway::RequestValidator.
type RequestValidator struct {
	RestApiId                 any    `json:"RestApiId,omitempty"`
	Name                      string `json:"Name,omitempty"`
	ValidateRequestBody       bool   `json:"ValidateRequestBody,omitempty"`
	ValidateRequestParameters bool   `json:"ValidateRequestParameters,omitempty"`
}

// ResourceType returns the CloudFormation type.
func (RequestValidator) ResourceType() string {
	return "AWS::ApiGateway::RequestValidator"
}

// Deployment is AWS::ApiGateway::Deployment. Setting StageName creates the stage.
type Deployment struct {
	RestApiId   any    `json:"RestApiId,omitempty"`
	StageName   string `json:"StageName,omitempty"`
	Description string `json:"Description,omitempty"`
}

// ResourceType returns the CloudFormation type.
func (Deployment) ResourceType() string {
	return "AWS::ApiGateway::Deployment"
}
