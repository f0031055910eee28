package apigateway

// Passthrough behaviors for Method_Integration.PassthroughBehavior.
const (
	PassthroughWhenNoMatch     = "WHEN_NO_MATCH"
	PassthroughWhenNoTemplates = "WHEN_NO_TEMPLATES"
	PassthroughNever           = "NEVER"
)

// Method is AWS::ApiGateway::Method.
type Method struct {
	RestApiId          any                     `json:"RestApiId,omitempty"`
	ResourceId         any                     `json:"ResourceId,omitempty"`
	HttpMethod         string                  `json:"HttpMethod,omitempty"`
	AuthorizationType  string                  `json:"AuthorizationType,omitempty"`
	RequestValidatorId any                     `json:"RequestValidatorId,omitempty"`
	RequestModels      map[string]any          `json:"RequestModels,omitempty"`
	RequestParameters  map[string]bool         `json:"RequestParameters,omitempty"`
	Integration        *Method_Integration     `json:"Integration,omitempty"`
	MethodResponses    []Method_MethodResponse `json:"MethodResponses,omitempty"`
}

// ResourceType returns the CloudFormation type.
func (Method) ResourceType() string {
	return "AWS::ApiGateway::Method"
}

// Method_Integration describes the backend a method forwards to.
type Method_Integration struct {
	Type_                 string                       `json:"Type,omitempty"`
	IntegrationHttpMethod string                       `json:"IntegrationHttpMethod,omitempty"`
	Uri                   any                          `json:"Uri,omitempty"`
	Credentials           any                          `json:"Credentials,omitempty"`
	PassthroughBehavior   string                       `json:"PassthroughBehavior,omitempty"`
	RequestParameters     map[string]any               `json:"RequestParameters,omitempty"`
	RequestTemplates      map[string]any               `json:"RequestTemplates,omitempty"`
	IntegrationResponses  []Method_IntegrationResponse `json:"IntegrationResponses,omitempty"`
}

// Method_IntegrationResponse maps a backend response to a method response.
type Method_IntegrationResponse struct {
	StatusCode        string         `json:"StatusCode,omitempty"`
	SelectionPattern  string         `json:"SelectionPattern,omitempty"`
	ResponseTemplates map[string]any `json:"ResponseTemplates,omitempty"`
}

// Method_MethodResponse declares a response the method can return.
type Method_MethodResponse struct {
	StatusCode     string         `json:"StatusCode,omitempty"`
	ResponseModels map[string]any `json:"ResponseModels,omitempty"`
}
