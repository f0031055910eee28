// Package serialize converts resource values into CloudFormation property maps
// and inspects the references they carry.
package serialize

import (
	"encoding/json"
	"reflect"
	"regexp"
	"sort"
	"strings"
)

// Resource serializes a resource struct to CloudFormation properties.
// It handles:
// - json tag names (Type_ tagged "Type" serializes as Type)
// - omitting nil/zero values
// - nested structs, slices and maps
// - intrinsic values (anything implementing json.Marshaler)
func Resource(v any) (map[string]any, error) {
	val := reflect.ValueOf(v)
	if val.Kind() == reflect.Ptr {
		val = val.Elem()
	}

	if val.Kind() != reflect.Struct {
		return nil, nil
	}

	result := make(map[string]any)
	typ := val.Type()

	for i := 0; i < val.NumField(); i++ {
		field := typ.Field(i)
		fieldVal := val.Field(i)

		if !field.IsExported() {
			continue
		}

		name := fieldName(field)
		if name == "-" {
			continue
		}

		if isZeroValue(fieldVal) {
			continue
		}

		serialized, err := serializeValue(fieldVal)
		if err != nil {
			return nil, err
		}

		if serialized != nil {
			result[name] = serialized
		}
	}

	return result, nil
}

func fieldName(field reflect.StructField) string {
	tag := field.Tag.Get("json")
	if tag == "" {
		return field.Name
	}

	name, _, _ := strings.Cut(tag, ",")
	if name == "" {
		return field.Name
	}
	return name
}

func isZeroValue(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Ptr, reflect.Interface:
		return v.IsNil()
	case reflect.Slice, reflect.Map:
		return v.IsNil() || v.Len() == 0
	case reflect.String:
		return v.String() == ""
	case reflect.Bool:
		return !v.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int() == 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return v.Uint() == 0
	case reflect.Float32, reflect.Float64:
		return v.Float() == 0
	case reflect.Struct:
		if v.CanInterface() {
			if zeroer, ok := v.Interface().(interface{ IsZero() bool }); ok {
				return zeroer.IsZero()
			}
		}
		return false
	default:
		return false
	}
}

func serializeValue(v reflect.Value) (any, error) {
	if !v.IsValid() {
		return nil, nil
	}

	if v.Kind() == reflect.Ptr || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return nil, nil
		}
		return serializeValue(v.Elem())
	}

	if v.CanInterface() {
		if marshaler, ok := v.Interface().(json.Marshaler); ok {
			data, err := marshaler.MarshalJSON()
			if err != nil {
				return nil, err
			}
			var result any
			if err := json.Unmarshal(data, &result); err != nil {
				return nil, err
			}
			return result, nil
		}
	}

	switch v.Kind() {
	case reflect.Struct:
		return Resource(v.Interface())

	case reflect.Slice:
		// Empty slices inside documents (e.g. ToAddresses: []) are meaningful.
		result := make([]any, v.Len())
		for i := 0; i < v.Len(); i++ {
			elem, err := serializeValue(v.Index(i))
			if err != nil {
				return nil, err
			}
			result[i] = elem
		}
		return result, nil

	case reflect.Map:
		result := make(map[string]any, v.Len())
		iter := v.MapRange()
		for iter.Next() {
			val, err := serializeValue(iter.Value())
			if err != nil {
				return nil, err
			}
			result[iter.Key().String()] = val
		}
		return result, nil

	case reflect.String:
		return v.String(), nil

	case reflect.Bool:
		return v.Bool(), nil

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int(), nil

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return v.Uint(), nil

	case reflect.Float32, reflect.Float64:
		return v.Float(), nil

	default:
		data, err := json.Marshal(v.Interface())
		if err != nil {
			return nil, err
		}
		var result any
		if err := json.Unmarshal(data, &result); err != nil {
			return nil, err
		}
		return result, nil
	}
}

// Clone returns a deep copy of a JSON-shaped value (maps, slices, scalars).
func Clone(v any) any {
	switch val := v.(type) {
	case map[string]any:
		result := make(map[string]any, len(val))
		for k, elem := range val {
			result[k] = Clone(elem)
		}
		return result
	case []any:
		result := make([]any, len(val))
		for i, elem := range val {
			result[i] = Clone(elem)
		}
		return result
	default:
		return v
	}
}

var subVarPattern = regexp.MustCompile(`\$\{([^}!]+)\}`)

// References returns the sorted logical names referenced by Ref, Fn::GetAtt and
// Fn::Sub inside a serialized value. Pseudo parameters (AWS::*) are skipped.
func References(v any) []string {
	seen := make(map[string]bool)
	collectRefs(v, seen)

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Imports returns the sorted export names consumed through Fn::ImportValue.
func Imports(v any) []string {
	seen := make(map[string]bool)
	collectImports(v, seen)

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func collectRefs(v any, seen map[string]bool) {
	switch val := v.(type) {
	case map[string]any:
		if ref, ok := val["Ref"].(string); ok && len(val) == 1 {
			addRef(ref, seen)
			return
		}
		if getAtt, ok := val["Fn::GetAtt"].([]any); ok && len(getAtt) > 0 {
			if name, ok := getAtt[0].(string); ok {
				addRef(name, seen)
			}
			return
		}
		if sub, ok := val["Fn::Sub"]; ok {
			collectSub(sub, seen)
			return
		}
		for _, elem := range val {
			collectRefs(elem, seen)
		}
	case []any:
		for _, elem := range val {
			collectRefs(elem, seen)
		}
	}
}

func collectSub(sub any, seen map[string]bool) {
	var (
		text string
		vars map[string]any
	)
	switch s := sub.(type) {
	case string:
		text = s
	case []any:
		if len(s) > 0 {
			text, _ = s[0].(string)
		}
		if len(s) > 1 {
			vars, _ = s[1].(map[string]any)
			collectRefs(s[1], seen)
		}
	}

	for _, m := range subVarPattern.FindAllStringSubmatch(text, -1) {
		name, _, _ := strings.Cut(m[1], ".")
		if _, local := vars[name]; local {
			continue
		}
		addRef(name, seen)
	}
}

func addRef(name string, seen map[string]bool) {
	if name == "" || strings.HasPrefix(name, "AWS::") {
		return
	}
	seen[name] = true
}

func collectImports(v any, seen map[string]bool) {
	switch val := v.(type) {
	case map[string]any:
		if name, ok := val["Fn::ImportValue"].(string); ok {
			seen[name] = true
			return
		}
		for _, elem := range val {
			collectImports(elem, seen)
		}
	case []any:
		for _, elem := range val {
			collectImports(elem, seen)
		}
	}
}

// AttributeReferences returns the sorted logical names referenced through
// Fn::GetAtt only.
func AttributeReferences(v any) []string {
	seen := make(map[string]bool)
	collectGetAtts(v, seen)

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func collectGetAtts(v any, seen map[string]bool) {
	switch val := v.(type) {
	case map[string]any:
		if getAtt, ok := val["Fn::GetAtt"].([]any); ok && len(getAtt) > 0 {
			if name, ok := getAtt[0].(string); ok {
				addRef(name, seen)
			}
			return
		}
		for _, elem := range val {
			collectGetAtts(elem, seen)
		}
	case []any:
		for _, elem := range val {
			collectGetAtts(elem, seen)
		}
	}
}
