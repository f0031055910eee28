// Command simplemail synthesizes the CloudFormation templates of the simple
// mail API: a Step Functions workflow that sends inquiry mail through SES and
// an API Gateway REST API that starts it.
//
// Usage:
//
//	simplemail synth                  Write templates and manifest to cdk.out
//	simplemail validate --cfn-lint    Check references and lint templates
//	simplemail graph | dot -Tpng      Render the resource graph
//	simplemail version                Show version
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lex00/simple-mail-api-go/internal/config"
	"github.com/lex00/simple-mail-api-go/internal/logger"
)

// Command annotations read by the root PersistentPreRunE.
const (
	// annotationNoConfig skips configuration loading.
	annotationNoConfig = "simplemail/no-config"
	// annotationLocalFlags binds the command's own flags (-o, -f) to config
	// keys in addition to the persistent ones.
	annotationLocalFlags = "simplemail/local-flags"
)

var (
	cfgFile string
	cfg     *config.Config
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "simplemail",
		Short: "Synthesize the simple mail API stacks",
		Long: `simplemail synthesizes the CloudFormation templates of the simple mail API.

Two stacks are produced:

    StepFunctionsStack  state machine sendMail sending inquiry mail through SES
    ApiGatewayStack     REST API mailBackend exposing POST /public/mail

The sender identity is read from the SSM parameter /ses/senderIdentity at
synth time unless --sender-mode selects static or parameter.

    simplemail synth --account 123456789012 --region eu-west-1`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Annotations[annotationNoConfig] != "" {
				return nil
			}
			return setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			logger.Sync()
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "Config file (default: ./simplemail.yaml, then ~/.config/simplemail/simplemail.yaml)")
	pf.String("account", "", "AWS account ID (env: CDK_DEFAULT_ACCOUNT)")
	pf.String("region", "", "AWS region (env: CDK_DEFAULT_REGION)")
	pf.String("sender-ref", "", "SSM parameter holding the sender identity (default /ses/senderIdentity)")
	pf.String("sender-mode", "", "Sender resolution: lookup, static or parameter (default lookup)")
	pf.String("sender", "", "Sender address for --sender-mode static")
	pf.String("definition", "", "Workflow definition file (default ./assets/stepFunctions/sendMail.json)")
	pf.String("wiring", "", "Cross-stack wiring: reference or export (default reference)")
	pf.Bool("debug", false, "Enable debug logging")
	pf.String("log-format", "", "Log format: human or json (default human)")
	pf.String("log-file", "", "Also write logs to this file")

	rootCmd.AddCommand(
		newSynthCmd(),
		newListCmd(),
		newValidateCmd(),
		newGraphCmd(),
		newDiffCmd(),
		newWatchCmd(),
		newCheckRequestCmd(),
		newVerifyIdentityCmd(),
		newVersionCmd(),
	)

	return rootCmd
}

// setup loads the configuration and initializes logging for cmd.
func setup(cmd *cobra.Command) error {
	flags := cmd.InheritedFlags()
	if cmd.Annotations[annotationLocalFlags] != "" {
		flags = cmd.Flags()
	}

	c, err := config.Load(cfgFile, flags)
	if err != nil {
		return err
	}

	if err := logger.Init(logger.Config{
		Debug:     c.Debug,
		LogFormat: c.LogFormat,
		LogFile:   c.LogFile,
	}); err != nil {
		return err
	}

	logger.Logger.Debugw("configuration loaded",
		"file", c.File,
		"account", c.Account,
		"region", c.Region,
		"senderMode", c.Sender.Mode,
		"wiring", c.Wiring,
	)
	cfg = c
	return nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "version",
		Short:       "Show version information",
		Annotations: map[string]string{annotationNoConfig: "true"},
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "simplemail %s\n", getVersion())
		},
	}
}
