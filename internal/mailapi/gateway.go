package mailapi

import (
	simplemail "github.com/lex00/simple-mail-api-go"
	. "github.com/lex00/simple-mail-api-go/intrinsics"
	"github.com/lex00/simple-mail-api-go/internal/requestmodel"
	"github.com/lex00/simple-mail-api-go/internal/stack"
	"github.com/lex00/simple-mail-api-go/resources/apigateway"
	"github.com/lex00/simple-mail-api-go/resources/iam"
)

// Logical IDs in the gateway stack.
const (
	GatewayRoleID        = "ApiGatewayRole"
	RestApiID            = "Api"
	PublicResourceID     = "PublicResource"
	MailResourceID       = "MailResource"
	RequestModelID       = "MailRequestModel"
	ResponseModelID      = "MailResponseModel"
	RequestValidatorID   = "MailRequestValidator"
	MailMethodID         = "MailPostMethod"
	DeploymentID         = "ApiDeployment"
	RestApiName          = "mailBackend"
	RequestValidatorName = "mailRequestValidator"
	StageName            = "prod"
)

// GatewayStackProps configures NewGatewayStack.
type GatewayStackProps struct {
	Env             stack.Environment
	// StateMachineArn is the workflow identifier, usually an Fn::ImportValue.
	StateMachineArn any
}

// GatewayStack is the declared gateway stack.
type GatewayStack struct {
	*stack.Stack

	// Endpoint is the invoke URL of the prod stage.
	Endpoint Sub
}

// NewGatewayStack declares the REST API that validates mail requests and
// starts the state machine.
func NewGatewayStack(app *stack.App, id string, props GatewayStackProps) (*GatewayStack, error) {
	st, err := app.NewStack(id, "REST API accepting mail inquiries on POST /public/mail", props.Env)
	if err != nil {
		return nil, err
	}
	gs := &GatewayStack{Stack: st}

	// ----------------------------------------------------------------------------
	// Role assumed by API Gateway to start executions
	// ----------------------------------------------------------------------------

	gatewayRole := iam.Role{
		RoleName:                 "apiGatewayRole",
		AssumeRolePolicyDocument: AssumeRolePolicy("apigateway.amazonaws.com"),
		Policies: []iam.Role_Policy{{
			PolicyName: "startExecution",
			PolicyDocument: NewPolicyDocument(
				Allow(Any("states:StartExecution"), Any(props.StateMachineArn)),
			),
		}},
	}
	if _, err := st.Add(GatewayRoleID, gatewayRole); err != nil {
		return nil, err
	}

	// ----------------------------------------------------------------------------
	// REST API and the /public/mail path
	// ----------------------------------------------------------------------------

	api, err := st.Add(RestApiID, apigateway.RestApi{Name: RestApiName})
	if err != nil {
		return nil, err
	}

	public, err := st.Add(PublicResourceID, apigateway.Resource{
		RestApiId: api,
		ParentId:  st.Attr(RestApiID, "RootResourceId"),
		PathPart:  "public",
	})
	if err != nil {
		return nil, err
	}

	mail, err := st.Add(MailResourceID, apigateway.Resource{
		RestApiId: api,
		ParentId:  public,
		PathPart:  "mail",
	})
	if err != nil {
		return nil, err
	}

	// ----------------------------------------------------------------------------
	// Models and validation
	// ----------------------------------------------------------------------------

	requestModel, err := st.Add(RequestModelID, apigateway.Model{
		RestApiId:   api,
		Name:        requestmodel.RequestModelName,
		ContentType: requestmodel.ContentType,
		Schema:      requestmodel.RequestSchema(),
	})
	if err != nil {
		return nil, err
	}

	responseModel, err := st.Add(ResponseModelID, apigateway.Model{
		RestApiId:   api,
		Name:        requestmodel.ResponseModelName,
		ContentType: requestmodel.ContentType,
		Schema:      requestmodel.ResponseSchema(),
	})
	if err != nil {
		return nil, err
	}

	validator, err := st.Add(RequestValidatorID, apigateway.RequestValidator{
		RestApiId:           api,
		Name:                RequestValidatorName,
		ValidateRequestBody: true,
	})
	if err != nil {
		return nil, err
	}

	// ----------------------------------------------------------------------------
	// POST method with the StartExecution integration
	// ----------------------------------------------------------------------------

	integration := &apigateway.Method_Integration{
		Type_:                 "AWS",
		IntegrationHttpMethod: "POST",
		Uri:                   Sub{String: "arn:${AWS::Partition}:apigateway:${AWS::Region}:states:action/StartExecution"},
		Credentials:           st.Attr(GatewayRoleID, "Arn"),
		PassthroughBehavior:   apigateway.PassthroughWhenNoTemplates,
		RequestTemplates: map[string]any{
			requestmodel.ContentType: requestmodel.RequestTemplate(props.StateMachineArn),
		},
		IntegrationResponses: []apigateway.Method_IntegrationResponse{{
			StatusCode: "200",
			ResponseTemplates: map[string]any{
				requestmodel.ContentType: requestmodel.SuccessBody(),
			},
		}},
	}

	_, err = st.Add(MailMethodID, apigateway.Method{
		RestApiId:          api,
		ResourceId:         mail,
		HttpMethod:         "POST",
		AuthorizationType:  "NONE",
		RequestValidatorId: validator,
		RequestModels:      map[string]any{requestmodel.ContentType: requestModel},
		Integration:        integration,
		MethodResponses: []apigateway.Method_MethodResponse{{
			StatusCode:     "200",
			ResponseModels: map[string]any{requestmodel.ContentType: responseModel},
		}},
	})
	if err != nil {
		return nil, err
	}

	// ----------------------------------------------------------------------------
	// Deployment
	// ----------------------------------------------------------------------------

	_, err = st.Add(DeploymentID, apigateway.Deployment{
		RestApiId: api,
		StageName: StageName,
	}, MailMethodID)
	if err != nil {
		return nil, err
	}

	gs.Endpoint = Sub{String: "https://${" + RestApiID + "}.execute-api.${AWS::Region}.${AWS::URLSuffix}/" + StageName + "/"}
	if err := st.AddOutput("ApiEndpoint", simplemail.Output{
		Description: "Invoke URL of the mail API",
		Value:       gs.Endpoint,
	}); err != nil {
		return nil, err
	}

	return gs, nil
}
