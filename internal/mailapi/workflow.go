// Package mailapi declares the two stacks of the mail backend: the workflow
// stack that sends mail through Step Functions and SES, and the gateway stack
// that exposes it as POST /public/mail.
package mailapi

import (
	"context"
	"errors"
	"fmt"

	simplemail "github.com/lex00/simple-mail-api-go"
	. "github.com/lex00/simple-mail-api-go/intrinsics"
	"github.com/lex00/simple-mail-api-go/internal/definition"
	"github.com/lex00/simple-mail-api-go/internal/logger"
	"github.com/lex00/simple-mail-api-go/internal/sender"
	"github.com/lex00/simple-mail-api-go/internal/stack"
	"github.com/lex00/simple-mail-api-go/resources/iam"
	"github.com/lex00/simple-mail-api-go/resources/stepfunctions"
)

// Logical IDs in the workflow stack.
const (
	ExecutionRoleID  = "ExecutionRole"
	StateMachineID   = "SendMail"
	SenderParamID    = "SenderIdentity"
	StateMachineName = "sendMail"
)

// StateMachineExport is the export name used by WiringExport.
const StateMachineExport = "stateMachineArn"

// WorkflowStackProps configures NewWorkflowStack.
type WorkflowStackProps struct {
	Env            stack.Environment
	SenderRef      string
	SenderMode     sender.Mode
	Resolver       sender.Resolver
	StaticSender   string
	DefinitionPath string
	// ExportArn adds a StateMachineArn output exported as stateMachineArn.
	ExportArn      bool
}

// WorkflowStack is the declared workflow stack.
type WorkflowStack struct {
	*stack.Stack

	// Sender is the injected sender: an address, or a Ref to the sender parameter.
	Sender          any
	// Definition is the workflow document after sender injection.
	Definition      definition.Document
	// StateMachineArn is Fn::GetAtt SendMail.Arn.
	StateMachineArn simplemail.AttrRef
}

// NewWorkflowStack declares the state machine, its execution role and the
// sender injection.
func NewWorkflowStack(ctx context.Context, app *stack.App, id string, props WorkflowStackProps) (*WorkflowStack, error) {
	st, err := app.NewStack(id, "Step Functions workflow sending inquiry mail through SES", props.Env)
	if err != nil {
		return nil, err
	}
	ws := &WorkflowStack{Stack: st}

	ws.Sender, err = resolveSender(ctx, st, props)
	if err != nil {
		return nil, fmt.Errorf("stack %s: %w", id, err)
	}

	doc, err := definition.Load(props.DefinitionPath)
	if err != nil {
		return nil, fmt.Errorf("stack %s: %w", id, err)
	}
	if err := definition.InjectSender(doc, ws.Sender); err != nil {
		return nil, fmt.Errorf("stack %s: %s: %w", id, props.DefinitionPath, err)
	}
	ws.Definition = doc

	// ----------------------------------------------------------------------------
	// Execution role
	// ----------------------------------------------------------------------------

	executionRole := iam.Role{
		RoleName:                 "StepFunctionsRole",
		AssumeRolePolicyDocument: AssumeRolePolicy("states.amazonaws.com"),
		Policies: []iam.Role_Policy{{
			PolicyName: "SendMail",
			PolicyDocument: NewPolicyDocument(
				Allow(Any("ses:SendEmail"), Any(sender.IdentityARN(props.Env, ws.Sender))),
			),
		}},
	}
	if _, err := st.Add(ExecutionRoleID, executionRole); err != nil {
		return nil, err
	}

	// ----------------------------------------------------------------------------
	// State machine
	// ----------------------------------------------------------------------------

	stateMachine := stepfunctions.StateMachine{
		StateMachineName: StateMachineName,
		RoleArn:          st.Attr(ExecutionRoleID, "Arn"),
		Definition:       doc,
	}
	if _, err := st.Add(StateMachineID, stateMachine); err != nil {
		return nil, err
	}
	ws.StateMachineArn = st.Attr(StateMachineID, "Arn")

	if props.ExportArn {
		err := st.AddOutput("StateMachineArn", simplemail.Output{
			Description: "ARN of the mail-sending state machine",
			Value:       ws.StateMachineArn,
			Export:      &simplemail.Export{Name: StateMachineExport},
		})
		if err != nil {
			return nil, err
		}
	}

	logger.Logger.Debugw("declared workflow stack",
		"stack", id,
		"mode", props.SenderMode,
		"states", definition.StateNames(doc),
	)
	return ws, nil
}

func resolveSender(ctx context.Context, st *stack.Stack, props WorkflowStackProps) (any, error) {
	ref := props.SenderRef
	if ref == "" {
		ref = sender.DefaultRef
	}

	switch props.SenderMode {
	case sender.ModeParameter:
		return st.AddParameter(SenderParamID, simplemail.Parameter{
			Type:        "AWS::SSM::Parameter::Value<String>",
			Description: "SES identity the workflow sends mail from",
			Default:     ref,
		})

	case sender.ModeStatic:
		return sender.StaticResolver{Address: props.StaticSender}.Resolve(ctx, ref)

	case sender.ModeLookup, "":
		if props.Resolver == nil {
			return nil, fmt.Errorf("%w: no resolver configured for %s", sender.ErrUnresolved, ref)
		}
		addr, err := props.Resolver.Resolve(ctx, ref)
		if err != nil {
			return nil, err
		}
		if addr == "" {
			return nil, fmt.Errorf("%w: %s resolved to an empty value", sender.ErrUnresolved, ref)
		}
		return addr, nil

	default:
		return nil, errors.New("unknown sender mode " + string(props.SenderMode))
	}
}
