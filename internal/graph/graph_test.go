package graph

import (
	"strings"
	"testing"

	simplemail "github.com/lex00/simple-mail-api-go"
	"github.com/lex00/simple-mail-api-go/internal/stack"
)

func testAssembly() *stack.Assembly {
	return &stack.Assembly{
		Manifest: simplemail.Manifest{Stacks: []simplemail.StackManifest{
			{Name: "StepFunctionsStack"},
			{Name: "ApiGatewayStack", Dependencies: []string{"StepFunctionsStack"}},
		}},
		Templates: map[string]*simplemail.Template{
			"StepFunctionsStack": {
				Parameters: map[string]simplemail.Parameter{
					"SenderIdentity": {Type: "AWS::SSM::Parameter::Value<String>"},
				},
				Resources: map[string]simplemail.ResourceDef{
					"ExecutionRole": {
						Type:       "AWS::IAM::Role",
						Properties: map[string]any{"RoleName": map[string]any{"Ref": "SenderIdentity"}},
					},
					"SendMail": {
						Type: "AWS::StepFunctions::StateMachine",
						Properties: map[string]any{
							"RoleArn": map[string]any{"Fn::GetAtt": []any{"ExecutionRole", "Arn"}},
						},
					},
				},
				Outputs: map[string]simplemail.Output{
					"StateMachineArn": {
						Value:  map[string]any{"Fn::GetAtt": []any{"SendMail", "Arn"}},
						Export: &simplemail.Export{Name: "stateMachineArn"},
					},
				},
			},
			"ApiGatewayStack": {
				Resources: map[string]simplemail.ResourceDef{
					"Api": {Type: "AWS::ApiGateway::RestApi"},
					"ApiGatewayRole": {
						Type: "AWS::IAM::Role",
						Properties: map[string]any{
							"Resource": []any{map[string]any{"Fn::ImportValue": "stateMachineArn"}},
						},
					},
					"ApiDeployment": {
						Type:       "AWS::ApiGateway::Deployment",
						Properties: map[string]any{"RestApiId": map[string]any{"Ref": "Api"}},
						DependsOn:  []string{"ApiGatewayRole"},
					},
				},
			},
		},
	}
}

func TestGenerator_Generate_Clusters(t *testing.T) {
	gen := &Generator{}
	var sb strings.Builder
	err := gen.Generate(testAssembly(), &sb)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	output := sb.String()

	// Should be a digraph
	if !strings.Contains(output, "digraph") {
		t.Error("expected digraph declaration")
	}

	// One cluster per stack
	for _, name := range []string{"cluster_StepFunctionsStack", "cluster_ApiGatewayStack"} {
		if !strings.Contains(output, name) {
			t.Errorf("expected %s subgraph", name)
		}
	}

	// Nodes are scoped by stack
	for _, id := range []string{"StepFunctionsStack_SendMail", "ApiGatewayStack_ApiDeployment"} {
		if !strings.Contains(output, id) {
			t.Errorf("expected node %s", id)
		}
	}

	if !strings.Contains(output, "AWS::StepFunctions::StateMachine") {
		t.Error("expected resource type in node label")
	}
}

func TestGenerator_Generate_GetAttEdges(t *testing.T) {
	gen := &Generator{}
	output, err := gen.GenerateString(testAssembly())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// GetAtt edges should be blue
	if !strings.Contains(output, "blue") {
		t.Error("expected blue color for GetAtt edge")
	}
}

func TestGenerator_Generate_ImportEdges(t *testing.T) {
	gen := &Generator{}
	output, err := gen.GenerateString(testAssembly())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Cross-stack edges are red, dashed and labelled with the export
	if !strings.Contains(output, "red") || !strings.Contains(output, "dashed") {
		t.Error("expected dashed red import edge")
	}
	if !strings.Contains(output, "stateMachineArn") {
		t.Error("expected export name on import edge")
	}
}

func TestGenerator_Generate_WithParameters(t *testing.T) {
	without, err := (&Generator{}).GenerateString(testAssembly())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(without, "SenderIdentity") {
		t.Error("parameters should be omitted by default")
	}

	with, err := (&Generator{IncludeParameters: true}).GenerateString(testAssembly())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Should include parameter node
	if !strings.Contains(with, "StepFunctionsStack_SenderIdentity") {
		t.Error("expected SenderIdentity parameter node")
	}

	// Parameter nodes should be ellipse/dashed
	if !strings.Contains(with, "ellipse") {
		t.Error("expected ellipse shape for parameter")
	}
}

func TestGenerator_Generate_MermaidFormat(t *testing.T) {
	gen := &Generator{Format: FormatMermaid}
	var sb strings.Builder
	err := gen.Generate(testAssembly(), &sb)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	output := sb.String()

	// Should be mermaid format (flowchart or graph)
	if !strings.Contains(output, "graph") && !strings.Contains(output, "flowchart") {
		t.Errorf("expected mermaid graph/flowchart, got:\n%s", output)
	}

	// Should NOT be DOT format
	if strings.Contains(output, "digraph") {
		t.Error("expected mermaid format, not DOT")
	}
}

func TestResolveExport(t *testing.T) {
	producer, resource, ok := resolveExport(testAssembly(), "stateMachineArn")
	if !ok || producer != "StepFunctionsStack" || resource != "SendMail" {
		t.Errorf("got %q %q %v", producer, resource, ok)
	}

	if _, _, ok := resolveExport(testAssembly(), "unknown"); ok {
		t.Error("expected unknown export to be unresolved")
	}
}
