package mailapi

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	simplemail "github.com/lex00/simple-mail-api-go"
	"github.com/lex00/simple-mail-api-go/internal/definition"
	"github.com/lex00/simple-mail-api-go/internal/sender"
	"github.com/lex00/simple-mail-api-go/internal/stack"
)

var (
	testEnv        = stack.Environment{Account: "123456789012", Region: "eu-west-1"}
	definitionPath = filepath.Join("..", "..", "assets", "stepFunctions", "sendMail.json")
	referenceArn   = map[string]any{"Fn::ImportValue": "StepFunctionsStack:ExportsOutputFnGetAttSendMailArn"}
)

type fakeResolver struct {
	values map[string]string
	asked  []string
}

func (f *fakeResolver) Resolve(_ context.Context, ref string) (string, error) {
	f.asked = append(f.asked, ref)
	v, ok := f.values[ref]
	if !ok {
		return "", sender.ErrUnresolved
	}
	return v, nil
}

func staticOptions(address string) Options {
	return Options{
		Env:            testEnv,
		SenderMode:     sender.ModeStatic,
		StaticSender:   address,
		DefinitionPath: definitionPath,
	}
}

func synth(t *testing.T, opts Options) *stack.Assembly {
	t.Helper()
	app, err := Build(context.Background(), opts)
	require.NoError(t, err)
	asm, err := app.Synth("json")
	require.NoError(t, err)
	return asm
}

// dig walks maps by string key and slices by int index.
func dig(t *testing.T, v any, path ...any) any {
	t.Helper()
	for _, p := range path {
		switch key := p.(type) {
		case string:
			m, ok := v.(map[string]any)
			require.True(t, ok, "expected object at %v, got %T", key, v)
			v = m[key]
		case int:
			s, ok := v.([]any)
			require.True(t, ok, "expected array at %d, got %T", key, v)
			require.Greater(t, len(s), key)
			v = s[key]
		}
	}
	return v
}

func props(t *testing.T, tmpl *simplemail.Template, name string) map[string]any {
	t.Helper()
	res, ok := tmpl.Resources[name]
	require.True(t, ok, "missing resource %s", name)
	return res.Properties
}

func TestBuild_SenderInjection(t *testing.T) {
	for _, address := range []string{"noreply@example.com", "owner+site@mail.example.org"} {
		t.Run(address, func(t *testing.T) {
			asm := synth(t, staticOptions(address))
			def := props(t, asm.Templates[WorkflowStackName], StateMachineID)["Definition"]

			assert.Equal(t, address, dig(t, def, "States", "SendInquiry", "Parameters", "Source"))
			assert.Equal(t, []any{address}, dig(t, def, "States", "SendInquiry", "Parameters", "Destination", "ToAddresses"))
			assert.Equal(t, address, dig(t, def, "States", "SendCopy", "Parameters", "Source"))
		})
	}
}

func TestBuild_DefinitionOtherwiseUnchanged(t *testing.T) {
	asm := synth(t, staticOptions("noreply@example.com"))
	def := props(t, asm.Templates[WorkflowStackName], StateMachineID)["Definition"]

	want, err := definition.Load(definitionPath)
	require.NoError(t, err)
	require.NoError(t, definition.InjectSender(want, "noreply@example.com"))
	assert.Equal(t, map[string]any(want), def)
}

func TestBuild_ExecutionRole(t *testing.T) {
	asm := synth(t, staticOptions("noreply@example.com"))
	tmpl := asm.Templates[WorkflowStackName]
	role := props(t, tmpl, ExecutionRoleID)

	assert.Equal(t, "StepFunctionsRole", role["RoleName"])
	assert.Equal(t, "states.amazonaws.com",
		dig(t, role, "AssumeRolePolicyDocument", "Statement", 0, "Principal", "Service"))

	statement := dig(t, role, "Policies", 0, "PolicyDocument", "Statement", 0)
	assert.Equal(t, "SendMail", dig(t, role, "Policies", 0, "PolicyName"))
	assert.Equal(t, "Allow", dig(t, statement, "Effect"))
	assert.Equal(t, []any{"ses:SendEmail"}, dig(t, statement, "Action"))
	assert.Equal(t, []any{"arn:aws:ses:eu-west-1:123456789012:identity/noreply@example.com"}, dig(t, statement, "Resource"))

	sm := props(t, tmpl, StateMachineID)
	assert.Equal(t, StateMachineName, sm["StateMachineName"])
	assert.Equal(t, map[string]any{"Fn::GetAtt": []any{ExecutionRoleID, "Arn"}}, sm["RoleArn"])
}

func TestBuild_ReferenceWiring(t *testing.T) {
	asm := synth(t, staticOptions("noreply@example.com"))

	assert.Equal(t, []string{WorkflowStackName, GatewayStackName}, asm.StackNames())
	assert.Equal(t, []string{WorkflowStackName}, asm.Manifest.Stacks[1].Dependencies)

	out, ok := asm.Templates[WorkflowStackName].Outputs["ExportsOutputFnGetAttSendMailArn"]
	require.True(t, ok)
	assert.Equal(t, "StepFunctionsStack:ExportsOutputFnGetAttSendMailArn", out.Export.Name)
	assert.NotContains(t, asm.Templates[WorkflowStackName].Outputs, "StateMachineArn")

	role := props(t, asm.Templates[GatewayStackName], GatewayRoleID)
	assert.Equal(t, []any{referenceArn}, dig(t, role, "Policies", 0, "PolicyDocument", "Statement", 0, "Resource"))
	assert.Equal(t, []any{"states:StartExecution"}, dig(t, role, "Policies", 0, "PolicyDocument", "Statement", 0, "Action"))
}

func TestBuild_ExportWiring(t *testing.T) {
	opts := staticOptions("noreply@example.com")
	opts.Wiring = WiringExport
	asm := synth(t, opts)

	out, ok := asm.Templates[WorkflowStackName].Outputs["StateMachineArn"]
	require.True(t, ok)
	require.NotNil(t, out.Export)
	assert.Equal(t, StateMachineExport, out.Export.Name)
	assert.Equal(t, map[string]any{"Fn::GetAtt": []any{StateMachineID, "Arn"}}, out.Value)

	imported := map[string]any{"Fn::ImportValue": "stateMachineArn"}
	role := props(t, asm.Templates[GatewayStackName], GatewayRoleID)
	assert.Equal(t, []any{imported}, dig(t, role, "Policies", 0, "PolicyDocument", "Statement", 0, "Resource"))
	assert.Equal(t, []string{WorkflowStackName}, asm.Manifest.Stacks[1].Dependencies)
	assert.Equal(t, map[string]string{StateMachineExport: WorkflowStackName}, asm.Exports())
}

func TestBuild_Gateway(t *testing.T) {
	asm := synth(t, staticOptions("noreply@example.com"))
	tmpl := asm.Templates[GatewayStackName]

	assert.Equal(t, RestApiName, props(t, tmpl, RestApiID)["Name"])
	assert.Equal(t, "apiGatewayRole", props(t, tmpl, GatewayRoleID)["RoleName"])

	public := props(t, tmpl, PublicResourceID)
	assert.Equal(t, "public", public["PathPart"])
	assert.Equal(t, map[string]any{"Fn::GetAtt": []any{RestApiID, "RootResourceId"}}, public["ParentId"])
	mail := props(t, tmpl, MailResourceID)
	assert.Equal(t, "mail", mail["PathPart"])
	assert.Equal(t, map[string]any{"Ref": PublicResourceID}, mail["ParentId"])

	reqModel := props(t, tmpl, RequestModelID)
	assert.Equal(t, "MailRequest", reqModel["Name"])
	assert.Equal(t, "application/json", reqModel["ContentType"])
	assert.Equal(t, []any{"inquirerAddress", "inquirerName", "inquiryMessage"}, dig(t, reqModel, "Schema", "required"))

	respModel := props(t, tmpl, ResponseModelID)
	assert.Equal(t, "MailResponse", respModel["Name"])
	assert.Equal(t, []any{"result"}, dig(t, respModel, "Schema", "required"))

	validator := props(t, tmpl, RequestValidatorID)
	assert.Equal(t, RequestValidatorName, validator["Name"])
	assert.Equal(t, true, validator["ValidateRequestBody"])
	assert.NotContains(t, validator, "ValidateRequestParameters")

	method := props(t, tmpl, MailMethodID)
	assert.Equal(t, "POST", method["HttpMethod"])
	assert.Equal(t, map[string]any{"Ref": MailResourceID}, method["ResourceId"])
	assert.Equal(t, map[string]any{"Ref": RequestValidatorID}, method["RequestValidatorId"])
	assert.Equal(t, map[string]any{"application/json": map[string]any{"Ref": RequestModelID}}, method["RequestModels"])
	assert.Equal(t, map[string]any{"application/json": map[string]any{"Ref": ResponseModelID}},
		dig(t, method, "MethodResponses", 0, "ResponseModels"))

	integration := dig(t, method, "Integration")
	assert.Equal(t, "AWS", dig(t, integration, "Type"))
	assert.Equal(t, "POST", dig(t, integration, "IntegrationHttpMethod"))
	assert.Equal(t, "WHEN_NO_TEMPLATES", dig(t, integration, "PassthroughBehavior"))
	assert.Equal(t, map[string]any{"Fn::GetAtt": []any{GatewayRoleID, "Arn"}}, dig(t, integration, "Credentials"))
	assert.Equal(t,
		map[string]any{"Fn::Sub": "arn:${AWS::Partition}:apigateway:${AWS::Region}:states:action/StartExecution"},
		dig(t, integration, "Uri"))
	assert.Equal(t, map[string]any{"Fn::Join": []any{"", []any{
		`{"input":"$util.escapeJavaScript($input.json('$'))","stateMachineArn":"`,
		referenceArn,
		`"}`,
	}}}, dig(t, integration, "RequestTemplates", "application/json"))
	assert.Equal(t, "200", dig(t, integration, "IntegrationResponses", 0, "StatusCode"))
	assert.Equal(t, `{"result":"OK"}`, dig(t, integration, "IntegrationResponses", 0, "ResponseTemplates", "application/json"))

	deployment := tmpl.Resources[DeploymentID]
	assert.Equal(t, []string{MailMethodID}, deployment.DependsOn)
	assert.Equal(t, StageName, deployment.Properties["StageName"])

	endpoint := tmpl.Outputs["ApiEndpoint"]
	assert.Equal(t,
		map[string]any{"Fn::Sub": "https://${Api}.execute-api.${AWS::Region}.${AWS::URLSuffix}/prod/"},
		endpoint.Value)
}

func TestBuild_ParameterMode(t *testing.T) {
	asm := synth(t, Options{
		Env:            testEnv,
		SenderMode:     sender.ModeParameter,
		DefinitionPath: definitionPath,
	})
	tmpl := asm.Templates[WorkflowStackName]

	param, ok := tmpl.Parameters[SenderParamID]
	require.True(t, ok)
	assert.Equal(t, "AWS::SSM::Parameter::Value<String>", param.Type)
	assert.Equal(t, sender.DefaultRef, param.Default)

	ref := map[string]any{"Ref": SenderParamID}
	def := props(t, tmpl, StateMachineID)["Definition"]
	assert.Equal(t, ref, dig(t, def, "States", "SendInquiry", "Parameters", "Source"))
	assert.Equal(t, []any{ref}, dig(t, def, "States", "SendInquiry", "Parameters", "Destination", "ToAddresses"))
	assert.Equal(t, ref, dig(t, def, "States", "SendCopy", "Parameters", "Source"))

	resource := dig(t, props(t, tmpl, ExecutionRoleID), "Policies", 0, "PolicyDocument", "Statement", 0, "Resource", 0)
	assert.Equal(t, map[string]any{"Fn::Join": []any{"", []any{
		"arn:aws:ses:", "eu-west-1", ":", "123456789012", ":identity/", ref,
	}}}, resource)
}

func TestBuild_LookupMode(t *testing.T) {
	resolver := &fakeResolver{values: map[string]string{"/custom/sender": "ops@example.com"}}
	asm := synth(t, Options{
		Env:            testEnv,
		SenderRef:      "/custom/sender",
		SenderMode:     sender.ModeLookup,
		Resolver:       resolver,
		DefinitionPath: definitionPath,
	})

	assert.Equal(t, []string{"/custom/sender"}, resolver.asked)
	def := props(t, asm.Templates[WorkflowStackName], StateMachineID)["Definition"]
	assert.Equal(t, "ops@example.com", dig(t, def, "States", "SendCopy", "Parameters", "Source"))
	assert.Empty(t, asm.Templates[WorkflowStackName].Parameters)
}

func TestBuild_Failures(t *testing.T) {
	dir := t.TempDir()
	broken := filepath.Join(dir, "broken.json")
	require.NoError(t, os.WriteFile(broken, []byte(`{"States": {"SendInquiry": {"Parameters": {}}}}`), 0644))

	tests := []struct {
		name   string
		opts   Options
		target error
	}{
		{
			name:   "missing account",
			opts:   Options{Env: stack.Environment{Region: "eu-west-1"}, SenderMode: sender.ModeStatic, StaticSender: "a@b.co", DefinitionPath: definitionPath},
			target: stack.ErrMissingEnvironment,
		},
		{
			name:   "missing region",
			opts:   Options{Env: stack.Environment{Account: "123456789012"}, SenderMode: sender.ModeStatic, StaticSender: "a@b.co", DefinitionPath: definitionPath},
			target: stack.ErrMissingEnvironment,
		},
		{
			name:   "parameter absent",
			opts:   Options{Env: testEnv, SenderMode: sender.ModeLookup, Resolver: &fakeResolver{}, DefinitionPath: definitionPath},
			target: sender.ErrUnresolved,
		},
		{
			name:   "no resolver",
			opts:   Options{Env: testEnv, SenderMode: sender.ModeLookup, DefinitionPath: definitionPath},
			target: sender.ErrUnresolved,
		},
		{
			name:   "empty static address",
			opts:   Options{Env: testEnv, SenderMode: sender.ModeStatic, DefinitionPath: definitionPath},
			target: sender.ErrUnresolved,
		},
		{
			name:   "definition missing keys",
			opts:   Options{Env: testEnv, SenderMode: sender.ModeStatic, StaticSender: "a@b.co", DefinitionPath: broken},
			target: definition.ErrMissingKey,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Build(context.Background(), tt.opts)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.target), "got %v", err)
		})
	}
}

func TestBuild_MissingDefinitionFile(t *testing.T) {
	opts := staticOptions("a@b.co")
	opts.DefinitionPath = filepath.Join(t.TempDir(), "nope.json")

	_, err := Build(context.Background(), opts)
	assert.Error(t, err)
}

func TestBuild_UnknownWiring(t *testing.T) {
	opts := staticOptions("a@b.co")
	opts.Wiring = "carrier-pigeon"

	_, err := Build(context.Background(), opts)
	assert.Error(t, err)
}

func TestParseWiring(t *testing.T) {
	w, err := ParseWiring("")
	require.NoError(t, err)
	assert.Equal(t, WiringReference, w)

	w, err = ParseWiring("Export")
	require.NoError(t, err)
	assert.Equal(t, WiringExport, w)

	_, err = ParseWiring("both")
	assert.Error(t, err)
}

func TestBuild_WriteAssembly(t *testing.T) {
	asm := synth(t, staticOptions("noreply@example.com"))
	dir := t.TempDir()

	written, err := asm.Write(dir, "yaml")
	require.NoError(t, err)
	assert.Len(t, written, 3)
	assert.FileExists(t, filepath.Join(dir, "StepFunctionsStack.template.yaml"))
	assert.FileExists(t, filepath.Join(dir, "ApiGatewayStack.template.yaml"))
	assert.FileExists(t, filepath.Join(dir, stack.ManifestFile))
}
