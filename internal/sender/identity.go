package sender

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	sestypes "github.com/aws/aws-sdk-go-v2/service/sesv2/types"
)

// IdentityAPI is the subset of the SES v2 client used to inspect identities.
type IdentityAPI interface {
	GetEmailIdentity(ctx context.Context, params *sesv2.GetEmailIdentityInput, optFns ...func(*sesv2.Options)) (*sesv2.GetEmailIdentityOutput, error)
}

// IdentityStatus reports whether SES may send from an identity.
type IdentityStatus struct {
	Identity           string `json:"identity"`
	Exists             bool   `json:"exists"`
	Type               string `json:"type,omitempty"`
	VerifiedForSending bool   `json:"verifiedForSending"`
}

// IdentityChecker looks up sender identities in SES.
type IdentityChecker struct {
	Client IdentityAPI
}

// NewIdentityChecker creates a checker using the default AWS configuration chain.
func NewIdentityChecker(ctx context.Context, region string) (*IdentityChecker, error) {
	var opts []func(*config.LoadOptions) error
	if region != "" {
		opts = append(opts, config.WithRegion(region))
	}
	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading AWS configuration: %w", err)
	}
	return &IdentityChecker{Client: sesv2.NewFromConfig(cfg)}, nil
}

// Check returns the identity status. An unknown identity is not an error.
func (c *IdentityChecker) Check(ctx context.Context, identity string) (IdentityStatus, error) {
	status := IdentityStatus{Identity: identity}

	out, err := c.Client.GetEmailIdentity(ctx, &sesv2.GetEmailIdentityInput{
		EmailIdentity: aws.String(identity),
	})
	if err != nil {
		var notFound *sestypes.NotFoundException
		if errors.As(err, &notFound) {
			return status, nil
		}
		return status, fmt.Errorf("getting SES identity %s: %w", identity, err)
	}

	status.Exists = true
	status.Type = string(out.IdentityType)
	status.VerifiedForSending = out.VerifiedForSendingStatus
	return status, nil
}
