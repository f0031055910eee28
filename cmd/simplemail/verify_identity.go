package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/lex00/simple-mail-api-go/internal/config"
	"github.com/lex00/simple-mail-api-go/internal/sender"
)

// identityChecker is the SES lookup used by verify-identity.
type identityChecker interface {
	Check(ctx context.Context, identity string) (sender.IdentityStatus, error)
}

// newIdentityChecker creates the SES client. Tests replace it.
var newIdentityChecker = func(ctx context.Context, region string) (identityChecker, error) {
	return sender.NewIdentityChecker(ctx, region)
}

func newVerifyIdentityCmd() *cobra.Command {
	var outputFormat string

	cmd := &cobra.Command{
		Use:   "verify-identity [identity]",
		Short: "Check that SES can send from the sender identity",
		Long: `Verify-identity resolves the sender identity the same way synth does (or
takes it as an argument) and asks SES whether it exists and is verified
for sending. A missing or unverified identity is an error.

Examples:
    simplemail verify-identity
    simplemail verify-identity inquiries@example.com --format json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			identity := ""
			if len(args) == 1 {
				identity = args[0]
			}
			identity, err := senderIdentity(ctx, cfg, identity)
			if err != nil {
				return err
			}

			checker, err := newIdentityChecker(ctx, cfg.Region)
			if err != nil {
				return err
			}
			status, err := checker.Check(ctx, identity)
			if err != nil {
				return err
			}
			return outputIdentityStatus(cmd.OutOrStdout(), status, outputFormat)
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "format", "f", "text", "Output format: text or json")

	return cmd
}

// senderIdentity returns explicit when set, the static address in static
// mode, and the SSM parameter value otherwise.
func senderIdentity(ctx context.Context, c *config.Config, explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}

	mode, err := sender.ParseMode(c.Sender.Mode)
	if err != nil {
		return "", err
	}

	ref := c.Sender.Ref
	if ref == "" {
		ref = sender.DefaultRef
	}

	if mode == sender.ModeStatic {
		return sender.StaticResolver{Address: c.Sender.Address}.Resolve(ctx, ref)
	}

	resolver, err := newResolver(ctx, c.Region)
	if err != nil {
		return "", err
	}
	return resolver.Resolve(ctx, ref)
}

func outputIdentityStatus(w io.Writer, status sender.IdentityStatus, format string) error {
	switch format {
	case "json":
		data, err := json.MarshalIndent(status, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(w, string(data))

	case "text":
		switch {
		case !status.Exists:
			fmt.Fprintf(w, "%s: not an SES identity in this account and region\n", status.Identity)
		case !status.VerifiedForSending:
			fmt.Fprintf(w, "%s: %s identity, not verified for sending\n", status.Identity, status.Type)
		default:
			fmt.Fprintf(w, "%s: %s identity, verified for sending\n", status.Identity, status.Type)
		}

	default:
		return fmt.Errorf("unknown format: %s", format)
	}

	if !status.Exists || !status.VerifiedForSending {
		return fmt.Errorf("%w: %s cannot send mail", sender.ErrUnresolved, status.Identity)
	}
	return nil
}
