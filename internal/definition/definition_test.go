package definition

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lex00/simple-mail-api-go/intrinsics"
)

const minimal = `{
  "StartAt": "SendInquiry",
  "States": {
    "SendInquiry": {
      "Type": "Task",
      "Parameters": {
        "Source": "",
        "Destination": {"ToAddresses": []},
        "Message": {"Subject": {"Data": "hi"}}
      },
      "Next": "SendCopy"
    },
    "SendCopy": {
      "Type": "Task",
      "Parameters": {"Source": "", "Destination": {"ToAddresses.$": "$.to"}},
      "End": true
    }
  }
}`

func parse(t *testing.T, src string) Document {
	t.Helper()
	doc, err := Parse([]byte(src))
	require.NoError(t, err)
	return doc
}

func params(doc Document, state string) map[string]any {
	return doc["States"].(map[string]any)[state].(map[string]any)["Parameters"].(map[string]any)
}

func TestInjectSender(t *testing.T) {
	doc := parse(t, minimal)

	require.NoError(t, InjectSender(doc, "noreply@example.com"))

	inquiry := params(doc, SendInquiryState)
	assert.Equal(t, "noreply@example.com", inquiry["Source"])
	assert.Equal(t, []any{"noreply@example.com"}, inquiry["Destination"].(map[string]any)["ToAddresses"])
	assert.Equal(t, map[string]any{"Subject": map[string]any{"Data": "hi"}}, inquiry["Message"])

	sendCopy := params(doc, SendCopyState)
	assert.Equal(t, "noreply@example.com", sendCopy["Source"])
	assert.Equal(t, map[string]any{"ToAddresses.$": "$.to"}, sendCopy["Destination"])
}

func TestInjectSender_OnlyThreeFieldsChange(t *testing.T) {
	doc := parse(t, minimal)
	before := doc.Clone()

	require.NoError(t, InjectSender(doc, "a@b.co"))

	params(before, SendInquiryState)["Source"] = "a@b.co"
	params(before, SendInquiryState)["Destination"].(map[string]any)["ToAddresses"] = []any{"a@b.co"}
	params(before, SendCopyState)["Source"] = "a@b.co"
	assert.Equal(t, before, doc)
}

func TestInjectSender_Intrinsic(t *testing.T) {
	doc := parse(t, minimal)
	ref := intrinsics.Ref{LogicalName: "SenderIdentity"}

	require.NoError(t, InjectSender(doc, ref))

	assert.Equal(t, ref, params(doc, SendInquiryState)["Source"])
	assert.Equal(t, []any{ref}, params(doc, SendInquiryState)["Destination"].(map[string]any)["ToAddresses"])
	assert.Equal(t, ref, params(doc, SendCopyState)["Source"])
}

func TestInjectSender_MissingKeys(t *testing.T) {
	tests := []struct {
		name string
		src  string
		path string
	}{
		{
			name: "no states",
			src:  `{"StartAt": "X"}`,
			path: "States",
		},
		{
			name: "no send inquiry",
			src:  `{"States": {"SendCopy": {"Parameters": {}}}}`,
			path: "States.SendInquiry",
		},
		{
			name: "no parameters",
			src:  `{"States": {"SendInquiry": {"Type": "Task"}, "SendCopy": {"Parameters": {}}}}`,
			path: "States.SendInquiry.Parameters",
		},
		{
			name: "no destination",
			src:  `{"States": {"SendInquiry": {"Parameters": {}}, "SendCopy": {"Parameters": {}}}}`,
			path: "Destination",
		},
		{
			name: "no send copy",
			src:  `{"States": {"SendInquiry": {"Parameters": {"Destination": {}}}}}`,
			path: "States.SendCopy",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := parse(t, tt.src)
			before := doc.Clone()

			err := InjectSender(doc, "a@b.co")
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMissingKey))
			assert.Contains(t, err.Error(), tt.path)
			assert.Equal(t, before, doc, "document must be untouched on failure")
		})
	}
}

func TestParse_Invalid(t *testing.T) {
	_, err := Parse([]byte(`{not json`))
	assert.Error(t, err)

	_, err = Parse([]byte(`null`))
	assert.Error(t, err)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sendMail.json")
	require.NoError(t, os.WriteFile(path, []byte(minimal), 0644))

	doc, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"SendCopy", "SendInquiry"}, StateNames(doc))

	_, err = Load(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}

func TestLoad_ShippedDefinition(t *testing.T) {
	doc, err := Load(filepath.Join("..", "..", "assets", "stepFunctions", "sendMail.json"))
	require.NoError(t, err)

	assert.Equal(t, []string{"ParseInput", "SendCopy", "SendInquiry"}, StateNames(doc))
	require.NoError(t, InjectSender(doc, "owner@example.com"))
}

func TestClone_Independent(t *testing.T) {
	doc := parse(t, minimal)
	cp := doc.Clone()
	params(cp, SendCopyState)["Source"] = "changed"
	assert.Equal(t, "", params(doc, SendCopyState)["Source"])
}
