// Package schema provides offline CloudFormation schema validation for the
// resource types the mail API declares.
package schema

import (
	"fmt"
	"sort"
	"strings"

	simplemail "github.com/lex00/simple-mail-api-go"
)

// Options configures schema validation.
type Options struct {
	// Strict reports properties the schema does not know as warnings.
	Strict bool
}

// Error is a schema violation on a resource property.
type Error struct {
	Resource string `json:"resource"`
	Property string `json:"property,omitempty"`
	Message  string `json:"message"`
}

func (e Error) Error() string {
	if e.Property == "" {
		return e.Resource + ": " + e.Message
	}
	return e.Resource + "." + e.Property + ": " + e.Message
}

// Result contains schema validation results.
type Result struct {
	Valid    bool
	Errors   []Error
	Warnings []Error
}

// ValidateTemplate validates every resource of a template against the known
// schemas. Resources are visited in name order.
func ValidateTemplate(template *simplemail.Template, opts Options) *Result {
	result := &Result{Valid: true}

	names := make([]string, 0, len(template.Resources))
	for name := range template.Resources {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		errors, warnings := validateResource(name, template.Resources[name], opts)
		result.Errors = append(result.Errors, errors...)
		result.Warnings = append(result.Warnings, warnings...)
	}

	if len(result.Errors) > 0 {
		result.Valid = false
	}
	return result
}

func validateResource(name string, resource simplemail.ResourceDef, opts Options) ([]Error, []Error) {
	var errors, warnings []Error

	if !isValidResourceType(resource.Type) {
		errors = append(errors, Error{
			Resource: name,
			Property: "Type",
			Message:  fmt.Sprintf("invalid resource type format: %s", resource.Type),
		})
		return errors, warnings
	}

	schema, ok := resourceSchemas[resource.Type]
	if !ok {
		warnings = append(warnings, Error{
			Resource: name,
			Property: "Type",
			Message:  fmt.Sprintf("unknown resource type: %s (schema not available for validation)", resource.Type),
		})
		return errors, warnings
	}

	errs, warns := validateObject(name, "", resource.Properties, schema.Required, schema.Properties, opts)
	return append(errors, errs...), append(warnings, warns...)
}

// validateObject checks required and known properties of one object.
// prefix is the dotted path of the object inside the resource.
func validateObject(resource, prefix string, props map[string]any, required []string, known map[string]PropertySchema, opts Options) ([]Error, []Error) {
	var errors, warnings []Error

	for _, req := range required {
		if _, exists := props[req]; !exists {
			errors = append(errors, Error{
				Resource: resource,
				Property: prefix + req,
				Message:  fmt.Sprintf("missing required property: %s", req),
			})
		}
	}

	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, propName := range keys {
		propSchema, ok := known[propName]
		if !ok {
			if opts.Strict {
				warnings = append(warnings, Error{
					Resource: resource,
					Property: prefix + propName,
					Message:  fmt.Sprintf("unknown property: %s", propName),
				})
			}
			continue
		}

		errs, warns := validateProperty(resource, prefix+propName, props[propName], propSchema, opts)
		errors = append(errors, errs...)
		warnings = append(warnings, warns...)
	}

	return errors, warnings
}

// isValidResourceType checks if a resource type has valid format.
func isValidResourceType(resourceType string) bool {
	if strings.HasPrefix(resourceType, "Custom::") {
		return true
	}
	parts := strings.Split(resourceType, "::")
	if len(parts) != 3 {
		return false
	}
	return parts[0] == "AWS"
}

func validateProperty(resource, path string, value any, schema PropertySchema, opts Options) ([]Error, []Error) {
	if isIntrinsic(value) {
		return nil, nil
	}

	if !isValidType(value, schema.Type) {
		return []Error{{
			Resource: resource,
			Property: path,
			Message:  fmt.Sprintf("expected type %s", schema.Type),
		}}, nil
	}

	if len(schema.AllowedValues) > 0 {
		if strVal, ok := value.(string); ok && !contains(schema.AllowedValues, strVal) {
			return []Error{{
				Resource: resource,
				Property: path,
				Message:  fmt.Sprintf("value %q not in allowed values: %v", strVal, schema.AllowedValues),
			}}, nil
		}
	}

	if schema.Properties != nil {
		if obj, ok := value.(map[string]any); ok {
			return validateObject(resource, path+".", obj, schema.Required, schema.Properties, opts)
		}
	}
	return nil, nil
}

// isIntrinsic reports whether value is a Ref or Fn:: call, which is resolved
// at deploy time.
func isIntrinsic(value any) bool {
	m, ok := value.(map[string]any)
	if !ok || len(m) != 1 {
		return false
	}
	for key := range m {
		if key == "Ref" || strings.HasPrefix(key, "Fn::") {
			return true
		}
	}
	return false
}

func isValidType(value any, expectedType string) bool {
	switch expectedType {
	case "String":
		_, ok := value.(string)
		return ok
	case "Integer":
		switch value.(type) {
		case int, int32, int64, float64:
			return true
		}
		return false
	case "Boolean":
		_, ok := value.(bool)
		return ok
	case "List":
		_, ok := value.([]any)
		return ok
	case "Map":
		_, ok := value.(map[string]any)
		return ok
	default:
		// Json and unknown types accept anything.
		return true
	}
}

func contains(values []string, v string) bool {
	for _, allowed := range values {
		if v == allowed {
			return true
		}
	}
	return false
}

// ResourceSchema defines the schema for a resource type.
type ResourceSchema struct {
	Type       string
	Required   []string
	Properties map[string]PropertySchema
}

// PropertySchema defines the schema for a property. Map properties may
// describe their own fields.
type PropertySchema struct {
	Type          string
	AllowedValues []string
	Required      []string
	Properties    map[string]PropertySchema
}
