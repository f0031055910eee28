package main

import (
	"bytes"
	"strings"
	"testing"

	simplemail "github.com/lex00/simple-mail-api-go"
	"github.com/lex00/simple-mail-api-go/internal/differ"
)

func TestNewDiffCmd(t *testing.T) {
	cmd := newDiffCmd()

	if cmd.Use != "diff <dir>" {
		t.Errorf("Use = %q, want 'diff <dir>'", cmd.Use)
	}

	if cmd.Short == "" {
		t.Error("Short description should not be empty")
	}

	for _, name := range []string{"format", "ignore-order", "exit-code"} {
		if cmd.Flags().Lookup(name) == nil {
			t.Errorf("missing --%s flag", name)
		}
	}
}

func TestOutputDiffResult_Text(t *testing.T) {
	result := &differ.Result{
		Diff: simplemail.TemplateDiff{
			Modified: []simplemail.DiffEntry{{
				Stack:    "ApiGatewayStack",
				Resource: "MailPostMethod",
				Type:     "AWS::ApiGateway::Method",
				Changes:  []string{"Integration.PassthroughBehavior changed"},
			}},
		},
		Summary: simplemail.DiffSummary{Modified: 1, Total: 1},
	}

	var buf bytes.Buffer
	if err := outputDiffResult(&buf, result, "text"); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, "~ ApiGatewayStack/MailPostMethod (AWS::ApiGateway::Method)") {
		t.Errorf("missing modified entry in %q", out)
	}
	if !strings.Contains(out, "0 added, 0 removed, 1 modified") {
		t.Errorf("missing summary in %q", out)
	}

	if err := outputDiffResult(&buf, result, "xml"); err == nil {
		t.Error("expected error for unknown format")
	}
}
