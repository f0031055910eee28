package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/lex00/simple-mail-api-go/internal/config"
	"github.com/lex00/simple-mail-api-go/internal/mailapi"
	"github.com/lex00/simple-mail-api-go/internal/requestmodel"
)

func newCheckRequestCmd() *cobra.Command {
	var stateMachineArn string

	cmd := &cobra.Command{
		Use:   "check-request <file|->",
		Short: "Check a request body against the mail API contract",
		Long: `Check-request validates a POST /public/mail body against the MailRequest
model and prints the StartExecution request the integration would send,
followed by the fixed integration response. Use - to read from stdin.

Examples:
    simplemail check-request inquiry.json
    echo '{"inquirerAddress":"a@example.com",...}' | simplemail check-request -`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := readRequest(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}
			arn := stateMachineArn
			if arn == "" {
				arn = placeholderArn(cfg)
			}
			return runCheckRequest(cmd.OutOrStdout(), body, arn)
		},
	}

	cmd.Flags().StringVar(&stateMachineArn, "state-machine-arn", "", "State machine ARN to render (default derived from account and region)")

	return cmd
}

func readRequest(stdin io.Reader, name string) ([]byte, error) {
	if name == "-" {
		return io.ReadAll(stdin)
	}
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("reading request: %w", err)
	}
	return data, nil
}

// placeholderArn is the ARN the sendMail state machine gets in the configured
// environment.
func placeholderArn(c *config.Config) string {
	region, account := c.Region, c.Account
	if region == "" {
		region = "REGION"
	}
	if account == "" {
		account = "ACCOUNT"
	}
	return fmt.Sprintf("arn:aws:states:%s:%s:stateMachine:%s", region, account, mailapi.StateMachineName)
}

func runCheckRequest(w io.Writer, body []byte, arn string) error {
	v, err := requestmodel.NewValidator()
	if err != nil {
		return err
	}
	if err := v.Validate(body); err != nil {
		return err
	}

	rendered, err := requestmodel.RenderStartExecution(body, arn)
	if err != nil {
		return err
	}
	var pretty bytes.Buffer
	if err := json.Indent(&pretty, rendered, "", "  "); err != nil {
		return err
	}

	fmt.Fprintln(w, "Request valid")
	fmt.Fprintln(w, "\nStartExecution request:")
	fmt.Fprintln(w, pretty.String())
	fmt.Fprintln(w, "\nIntegration response (200):")
	fmt.Fprintln(w, requestmodel.SuccessBody())
	return nil
}
