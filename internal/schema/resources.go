package schema

var (
	str     = PropertySchema{Type: "String"}
	integer = PropertySchema{Type: "Integer"}
	boolean = PropertySchema{Type: "Boolean"}
	list    = PropertySchema{Type: "List"}
	mapping = PropertySchema{Type: "Map"}
	jsonDoc = PropertySchema{Type: "Json"}
)

var integrationSchema = PropertySchema{
	Type:     "Map",
	Required: []string{"Type"},
	Properties: map[string]PropertySchema{
		"Type":                  {Type: "String", AllowedValues: []string{"AWS", "AWS_PROXY", "HTTP", "HTTP_PROXY", "MOCK"}},
		"IntegrationHttpMethod": {Type: "String", AllowedValues: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS", "ANY"}},
		"PassthroughBehavior":   {Type: "String", AllowedValues: []string{"WHEN_NO_MATCH", "WHEN_NO_TEMPLATES", "NEVER"}},
		"ContentHandling":       {Type: "String", AllowedValues: []string{"CONVERT_TO_BINARY", "CONVERT_TO_TEXT"}},
		"Uri":                   str,
		"Credentials":           str,
		"RequestParameters":     mapping,
		"RequestTemplates":      mapping,
		"IntegrationResponses":  list,
		"TimeoutInMillis":       integer,
	},
}

// resourceSchemas covers the resource types declared by the workflow and
// gateway stacks.
var resourceSchemas = map[string]ResourceSchema{
	"AWS::IAM::Role": {
		Type:     "AWS::IAM::Role",
		Required: []string{"AssumeRolePolicyDocument"},
		Properties: map[string]PropertySchema{
			"AssumeRolePolicyDocument": jsonDoc,
			"Description":              str,
			"ManagedPolicyArns":        list,
			"MaxSessionDuration":       integer,
			"Path":                     str,
			"PermissionsBoundary":      str,
			"Policies":                 list,
			"RoleName":                 str,
			"Tags":                     list,
		},
	},
	"AWS::StepFunctions::StateMachine": {
		Type:     "AWS::StepFunctions::StateMachine",
		Required: []string{"RoleArn"},
		Properties: map[string]PropertySchema{
			"Definition":              jsonDoc,
			"DefinitionString":        str,
			"DefinitionS3Location":    mapping,
			"DefinitionSubstitutions": mapping,
			"LoggingConfiguration":    mapping,
			"RoleArn":                 str,
			"StateMachineName":        str,
			"StateMachineType":        {Type: "String", AllowedValues: []string{"STANDARD", "EXPRESS"}},
			"Tags":                    list,
			"TracingConfiguration":    mapping,
		},
	},
	"AWS::ApiGateway::RestApi": {
		Type: "AWS::ApiGateway::RestApi",
		Properties: map[string]PropertySchema{
			"Name":                  str,
			"Description":           str,
			"EndpointConfiguration": mapping,
			"Policy":                jsonDoc,
			"Tags":                  list,
		},
	},
	"AWS::ApiGateway::Resource": {
		Type:     "AWS::ApiGateway::Resource",
		Required: []string{"ParentId", "PathPart", "RestApiId"},
		Properties: map[string]PropertySchema{
			"ParentId":  str,
			"PathPart":  str,
			"RestApiId": str,
		},
	},
	"AWS::ApiGateway::Model": {
		Type:     "AWS::ApiGateway::Model",
		Required: []string{"RestApiId"},
		Properties: map[string]PropertySchema{
			"ContentType": str,
			"Description": str,
			"Name":        str,
			"RestApiId":   str,
			"Schema":      jsonDoc,
		},
	},
	"AWS::ApiGateway::RequestValidator": {
		Type:     "AWS::ApiGateway::RequestValidator",
		Required: []string{"RestApiId"},
		Properties: map[string]PropertySchema{
			"Name":                      str,
			"RestApiId":                 str,
			"ValidateRequestBody":       boolean,
			"ValidateRequestParameters": boolean,
		},
	},
	"AWS::ApiGateway::Method": {
		Type:     "AWS::ApiGateway::Method",
		Required: []string{"HttpMethod", "ResourceId", "RestApiId"},
		Properties: map[string]PropertySchema{
			"ApiKeyRequired":     boolean,
			"AuthorizationType":  {Type: "String", AllowedValues: []string{"NONE", "AWS_IAM", "CUSTOM", "COGNITO_USER_POOLS"}},
			"AuthorizerId":       str,
			"HttpMethod":         {Type: "String", AllowedValues: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS", "ANY"}},
			"Integration":        integrationSchema,
			"MethodResponses":    list,
			"OperationName":      str,
			"RequestModels":      mapping,
			"RequestParameters":  mapping,
			"RequestValidatorId": str,
			"ResourceId":         str,
			"RestApiId":          str,
		},
	},
	"AWS::ApiGateway::Deployment": {
		Type:     "AWS::ApiGateway::Deployment",
		Required: []string{"RestApiId"},
		Properties: map[string]PropertySchema{
			"Description":      str,
			"RestApiId":        str,
			"StageDescription": mapping,
			"StageName":        str,
		},
	},
}
