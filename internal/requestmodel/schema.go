// Package requestmodel describes the request and response contract of the
// mail endpoint and emulates, locally, what API Gateway does with a request:
// model validation, the StartExecution request template and the fixed
// integration response.
package requestmodel

import (
	"github.com/lex00/simple-mail-api-go/intrinsics"
)

// Model names and content type as declared on the REST API.
const (
	ContentType       = "application/json"
	RequestModelName  = "MailRequest"
	ResponseModelName = "MailResponse"
)

// SchemaDraft is the JSON Schema dialect API Gateway models use.
const SchemaDraft = "http://json-schema.org/draft-04/schema#"

// Request field limits.
const (
	MinMessageLength = 8
	MaxMessageLength = 4096
	AddressPattern   = `^\S+@\S+\.\S+$`
)

// RequestSchema returns the MailRequest model schema.
func RequestSchema() intrinsics.Json {
	return intrinsics.Json{
		"$schema": SchemaDraft,
		"title":   RequestModelName,
		"type":    "object",
		"properties": intrinsics.Json{
			"inquirerAddress": intrinsics.Json{
				"type":    "string",
				"pattern": AddressPattern,
				"format":  "email",
			},
			"inquirerName": intrinsics.Json{
				"type": "string",
			},
			"inquirySubject": intrinsics.Json{
				"type": "string",
			},
			"inquiryMessage": intrinsics.Json{
				"type":      "string",
				"minLength": MinMessageLength,
				"maxLength": MaxMessageLength,
			},
		},
		"required": []any{"inquirerAddress", "inquirerName", "inquiryMessage"},
	}
}

// ResponseSchema returns the MailResponse model schema. It requires "result"
// while declaring only "inquiryMessage"; the deployed API has always carried
// this model and clients may depend on its shape.
func ResponseSchema() intrinsics.Json {
	return intrinsics.Json{
		"$schema": SchemaDraft,
		"title":   ResponseModelName,
		"type":    "object",
		"properties": intrinsics.Json{
			"inquiryMessage": intrinsics.Json{
				"type": "string",
			},
		},
		"required": []any{"result"},
	}
}
