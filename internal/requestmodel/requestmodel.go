package requestmodel

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf16"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/lex00/simple-mail-api-go/intrinsics"
)

// ErrInvalidRequest is returned for bodies the gateway would reject.
var ErrInvalidRequest = errors.New("invalid request body")

// InputExpression is the mapping-template expression that forwards the
// request body to StartExecution as an escaped JSON string.
const InputExpression = "$util.escapeJavaScript($input.json('$'))"

const schemaURL = "mem://models/MailRequest.json"

// Validator checks request bodies against the MailRequest model.
type Validator struct {
	schema *jsonschema.Schema
}

// NewValidator compiles the MailRequest model.
func NewValidator() (*Validator, error) {
	data, err := json.Marshal(RequestSchema())
	if err != nil {
		return nil, err
	}

	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft4
	c.AssertFormat = true
	if err := c.AddResource(schemaURL, bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("loading %s model: %w", RequestModelName, err)
	}
	schema, err := c.Compile(schemaURL)
	if err != nil {
		return nil, fmt.Errorf("compiling %s model: %w", RequestModelName, err)
	}
	return &Validator{schema: schema}, nil
}

// Validate returns an error wrapping ErrInvalidRequest when body is not JSON
// or does not satisfy the model.
func (v *Validator) Validate(body []byte) error {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	if err := v.schema.Validate(doc); err != nil {
		var verr *jsonschema.ValidationError
		if errors.As(err, &verr) {
			return fmt.Errorf("%w: %s", ErrInvalidRequest, describe(verr))
		}
		return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	return nil
}

// describe flattens the leaf causes of a validation error into one line.
func describe(verr *jsonschema.ValidationError) string {
	var msgs []string
	var walk func(e *jsonschema.ValidationError)
	walk = func(e *jsonschema.ValidationError) {
		if len(e.Causes) == 0 {
			loc := e.InstanceLocation
			if loc == "" {
				loc = "/"
			}
			msgs = append(msgs, loc+": "+e.Message)
			return
		}
		for _, c := range e.Causes {
			walk(c)
		}
	}
	walk(verr)
	return strings.Join(msgs, "; ")
}

// RequestTemplate returns the integration request template for the state
// machine ARN. A plain ARN yields a string, an intrinsic yields an Fn::Join.
func RequestTemplate(stateMachineArn any) any {
	return intrinsics.Concat(
		`{"input":"`+InputExpression+`","stateMachineArn":"`,
		stateMachineArn,
		`"}`,
	)
}

// SuccessBody is the fixed integration response body.
func SuccessBody() string {
	return `{"result":"OK"}`
}

// RenderStartExecution renders the StartExecution request API Gateway would
// send for body. The result must itself be valid JSON; bodies containing a
// single quote are not, because escapeJavaScript emits \'.
func RenderStartExecution(body []byte, stateMachineArn string) ([]byte, error) {
	var compact bytes.Buffer
	if err := json.Compact(&compact, body); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	rendered := `{"input":"` + EscapeJavaScript(compact.String()) +
		`","stateMachineArn":"` + stateMachineArn + `"}`
	if !json.Valid([]byte(rendered)) {
		return nil, fmt.Errorf("rendered StartExecution request is not valid JSON: %s", rendered)
	}
	return []byte(rendered), nil
}

// EscapeJavaScript escapes s the way API Gateway's $util.escapeJavaScript does.
func EscapeJavaScript(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\'':
			b.WriteString(`\'`)
		case '/':
			b.WriteString(`\/`)
		case '\b':
			b.WriteString(`\b`)
		case '\f':
			b.WriteString(`\f`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			switch {
			case r < 0x20:
				fmt.Fprintf(&b, `\u%04X`, r)
			case r > 0x7e && r <= 0xffff:
				fmt.Fprintf(&b, `\u%04X`, r)
			case r > 0xffff:
				hi, lo := utf16.EncodeRune(r)
				fmt.Fprintf(&b, `\u%04X\u%04X`, hi, lo)
			default:
				b.WriteRune(r)
			}
		}
	}
	return b.String()
}
