package mailapi

import (
	"context"
	"fmt"
	"strings"

	. "github.com/lex00/simple-mail-api-go/intrinsics"
	"github.com/lex00/simple-mail-api-go/internal/sender"
	"github.com/lex00/simple-mail-api-go/internal/stack"
)

// Stack names.
const (
	WorkflowStackName = "StepFunctionsStack"
	GatewayStackName  = "ApiGatewayStack"
)

// Wiring selects how the gateway stack learns the state machine ARN.
type Wiring string

const (
	// WiringReference exports the ARN under a generated name and imports it.
	WiringReference Wiring = "reference"
	// WiringExport exports the ARN as stateMachineArn and imports it by that name.
	WiringExport Wiring = "export"
)

// ParseWiring validates a wiring name. Empty selects WiringReference.
func ParseWiring(s string) (Wiring, error) {
	switch w := Wiring(strings.ToLower(strings.TrimSpace(s))); w {
	case "":
		return WiringReference, nil
	case WiringReference, WiringExport:
		return w, nil
	default:
		return "", fmt.Errorf("unknown wiring %q (want reference or export)", s)
	}
}

// Options configures Build.
type Options struct {
	Env            stack.Environment
	SenderRef      string
	SenderMode     sender.Mode
	Resolver       sender.Resolver
	StaticSender   string
	DefinitionPath string
	Wiring         Wiring
}

// MailApp is the composed application.
type MailApp struct {
	*stack.App

	Workflow        *WorkflowStack
	Gateway         *GatewayStack
	// StateMachineArn is the value the gateway stack imports.
	StateMachineArn ImportValue
}

// Build declares both stacks and links them by the state machine ARN.
func Build(ctx context.Context, opts Options) (*MailApp, error) {
	wiring := opts.Wiring
	if wiring == "" {
		wiring = WiringReference
	}
	if wiring != WiringReference && wiring != WiringExport {
		return nil, fmt.Errorf("unknown wiring %q", wiring)
	}

	app := stack.NewApp()
	ma := &MailApp{App: app}

	workflow, err := NewWorkflowStack(ctx, app, WorkflowStackName, WorkflowStackProps{
		Env:            opts.Env,
		SenderRef:      opts.SenderRef,
		SenderMode:     opts.SenderMode,
		Resolver:       opts.Resolver,
		StaticSender:   opts.StaticSender,
		DefinitionPath: opts.DefinitionPath,
		ExportArn:      wiring == WiringExport,
	})
	if err != nil {
		return nil, err
	}
	ma.Workflow = workflow

	switch wiring {
	case WiringExport:
		ma.StateMachineArn = ImportValue{ExportName: StateMachineExport}
	default:
		ma.StateMachineArn, err = app.Export(workflow.Stack, workflow.StateMachineArn)
		if err != nil {
			return nil, err
		}
	}

	gateway, err := NewGatewayStack(app, GatewayStackName, GatewayStackProps{
		Env:             opts.Env,
		StateMachineArn: ma.StateMachineArn,
	})
	if err != nil {
		return nil, err
	}
	gateway.AddDependency(workflow.Stack)
	ma.Gateway = gateway

	return ma, nil
}
