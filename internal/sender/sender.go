// Package sender resolves the SES sender identity the workflow sends mail from.
package sender

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	ssmtypes "github.com/aws/aws-sdk-go-v2/service/ssm/types"

	"github.com/lex00/simple-mail-api-go/intrinsics"
	"github.com/lex00/simple-mail-api-go/internal/logger"
	"github.com/lex00/simple-mail-api-go/internal/stack"
)

// DefaultRef is the parameter holding the sender address.
const DefaultRef = "/ses/senderIdentity"

// ErrUnresolved is returned when the sender identity cannot be resolved.
var ErrUnresolved = errors.New("sender identity could not be resolved")

// Mode selects how the sender identity is obtained.
type Mode string

const (
	// ModeLookup resolves the parameter through SSM at synth time.
	ModeLookup Mode = "lookup"
	// ModeStatic takes the address from configuration.
	ModeStatic Mode = "static"
	// ModeParameter leaves resolution to CloudFormation at deploy time.
	ModeParameter Mode = "parameter"
)

// ParseMode validates a mode name.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeLookup, ModeStatic, ModeParameter:
		return m, nil
	case "":
		return ModeLookup, nil
	default:
		return "", fmt.Errorf("unknown sender mode %q (want lookup, static or parameter)", s)
	}
}

// Resolver turns a parameter reference into the sender address.
type Resolver interface {
	Resolve(ctx context.Context, ref string) (string, error)
}

// StaticResolver always returns Address.
type StaticResolver struct {
	Address string
}

// Resolve returns the configured address.
func (r StaticResolver) Resolve(_ context.Context, ref string) (string, error) {
	if strings.TrimSpace(r.Address) == "" {
		return "", fmt.Errorf("%w: no static address configured for %s", ErrUnresolved, ref)
	}
	return r.Address, nil
}

// ParameterAPI is the subset of the SSM client used for lookups.
type ParameterAPI interface {
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

// SSMResolver reads the sender from SSM Parameter Store.
type SSMResolver struct {
	Client ParameterAPI
}

// NewSSMResolver creates a resolver using the default AWS configuration chain.
func NewSSMResolver(ctx context.Context, region string) (*SSMResolver, error) {
	var opts []func(*config.LoadOptions) error
	if region != "" {
		opts = append(opts, config.WithRegion(region))
	}
	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading AWS configuration: %w", err)
	}
	return &SSMResolver{Client: ssm.NewFromConfig(cfg)}, nil
}

// Resolve fetches the parameter value.
func (r *SSMResolver) Resolve(ctx context.Context, ref string) (string, error) {
	logger.Logger.Debugw("resolving sender identity", "parameter", ref)

	out, err := r.Client.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(ref),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		var notFound *ssmtypes.ParameterNotFound
		if errors.As(err, &notFound) {
			return "", fmt.Errorf("%w: parameter %s not found", ErrUnresolved, ref)
		}
		return "", fmt.Errorf("reading parameter %s: %w", ref, err)
	}
	if out.Parameter == nil || aws.ToString(out.Parameter.Value) == "" {
		return "", fmt.Errorf("%w: parameter %s is empty", ErrUnresolved, ref)
	}
	return aws.ToString(out.Parameter.Value), nil
}

// IdentityARN returns the SES identity ARN for sender in env. The result is a
// plain string when sender is one, otherwise an Fn::Join.
func IdentityARN(env stack.Environment, sender any) any {
	return intrinsics.Concat("arn:aws:ses:", env.Region, ":", env.Account, ":identity/", sender)
}
