package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	simplemail "github.com/lex00/simple-mail-api-go"
	"github.com/lex00/simple-mail-api-go/internal/stack"
	"github.com/lex00/simple-mail-api-go/internal/validation"
)

var errValidationFailed = errors.New("validation failed")

// newValidateCmd creates the "validate" subcommand for checking the synthesized stacks.
func newValidateCmd() *cobra.Command {
	var (
		outputFormat string
		cfnLint      bool
		strict       bool
	)

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate references and exports",
		Long: `Validate builds both stacks and checks the synthesized templates.

Checks performed:
  - Reference validity: Ref, Fn::GetAtt, Fn::Sub and DependsOn name defined resources
  - Cross-stack wiring: every Fn::ImportValue names an export of a stack it depends on
  - Schema: required properties, property types and allowed values
  - cfn-lint (with --cfn-lint): CloudFormation rules for every template

Examples:
    simplemail validate
    simplemail validate --cfn-lint --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			asm, err := synthesize(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			result, err := validation.ValidateAssembly(asm, validation.Options{
				Schema:  true,
				Strict:  strict,
				CfnLint: cfnLint,
			})
			if err != nil {
				return err
			}
			return outputValidateResult(cmd.OutOrStdout(), validateResult(asm, result), outputFormat)
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "format", "f", "text", "Output format: text or json")
	cmd.Flags().BoolVar(&cfnLint, "cfn-lint", false, "Also run cfn-lint on every template")
	cmd.Flags().BoolVar(&strict, "strict", false, "Warn about properties missing from the schema")

	return cmd
}

// validateResult flattens structural and cfn-lint findings.
func validateResult(asm *stack.Assembly, result *validation.Result) simplemail.ValidateResult {
	out := simplemail.ValidateResult{
		Success:  result.Passed(),
		Errors:   result.Errors,
		Warnings: result.Warnings,
	}
	for _, name := range asm.StackNames() {
		out.Resources += len(asm.Templates[name].Resources)

		lr, ok := result.CfnLint[name]
		if !ok {
			continue
		}
		for _, msg := range lr.Errors {
			out.Errors = append(out.Errors, name+": "+msg)
		}
		for _, msg := range lr.Warnings {
			out.Warnings = append(out.Warnings, name+": "+msg)
		}
		for _, msg := range lr.Informational {
			out.Warnings = append(out.Warnings, name+": "+msg)
		}
	}
	return out
}

func outputValidateResult(w io.Writer, result simplemail.ValidateResult, format string) error {
	switch format {
	case "json":
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(w, string(data))

	case "text":
		if result.Success {
			fmt.Fprintf(w, "Validation passed: %d resources OK\n", result.Resources)
		} else {
			fmt.Fprintf(w, "Validation failed: %d errors\n", len(result.Errors))
		}
		for _, errMsg := range result.Errors {
			fmt.Fprintf(w, "  ERROR: %s\n", errMsg)
		}
		for _, warnMsg := range result.Warnings {
			fmt.Fprintf(w, "  WARNING: %s\n", warnMsg)
		}

	default:
		return fmt.Errorf("unknown format: %s", format)
	}

	if !result.Success {
		return errValidationFailed
	}
	return nil
}
