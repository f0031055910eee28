// Package template builds CloudFormation templates from declared resources.
package template

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"

	simplemail "github.com/lex00/simple-mail-api-go"
	"github.com/lex00/simple-mail-api-go/internal/serialize"
)

// FormatVersion is the only CloudFormation template format version.
const FormatVersion = "2010-09-09"

type resourceEntry struct {
	value     simplemail.Resource
	dependsOn []string
	props     map[string]any
}

// Builder constructs a CloudFormation template from declared resources,
// parameters and outputs.
type Builder struct {
	description string
	resources   map[string]*resourceEntry
	parameters  map[string]simplemail.Parameter
	outputs     map[string]simplemail.Output
}

// NewBuilder creates an empty template builder.
func NewBuilder(description string) *Builder {
	return &Builder{
		description: description,
		resources:   make(map[string]*resourceEntry),
		parameters:  make(map[string]simplemail.Parameter),
		outputs:     make(map[string]simplemail.Output),
	}
}

// AddResource declares a resource under a logical name. dependsOn lists
// resources that must be created first even though no property references them.
func (b *Builder) AddResource(name string, res simplemail.Resource, dependsOn ...string) error {
	if name == "" {
		return errors.New("resource name must not be empty")
	}
	if err := b.checkFree(name); err != nil {
		return err
	}
	b.resources[name] = &resourceEntry{value: res, dependsOn: dependsOn}
	return nil
}

// AddParameter declares a template parameter.
func (b *Builder) AddParameter(name string, param simplemail.Parameter) error {
	if err := b.checkFree(name); err != nil {
		return err
	}
	b.parameters[name] = param
	return nil
}

// AddOutput declares a template output.
func (b *Builder) AddOutput(name string, output simplemail.Output) error {
	if _, exists := b.outputs[name]; exists {
		return fmt.Errorf("duplicate output %q", name)
	}
	b.outputs[name] = output
	return nil
}

// HasResource reports whether a logical name is declared as a resource.
func (b *Builder) HasResource(name string) bool {
	_, ok := b.resources[name]
	return ok
}

func (b *Builder) checkFree(name string) error {
	if _, exists := b.resources[name]; exists {
		return fmt.Errorf("duplicate logical name %q", name)
	}
	if _, exists := b.parameters[name]; exists {
		return fmt.Errorf("duplicate logical name %q", name)
	}
	return nil
}

// Build constructs the CloudFormation template.
func (b *Builder) Build() (*simplemail.Template, error) {
	if err := b.serializeAll(); err != nil {
		return nil, err
	}

	if _, err := b.topologicalSort(); err != nil {
		return nil, err
	}

	template := &simplemail.Template{
		AWSTemplateFormatVersion: FormatVersion,
		Description:              b.description,
		Resources:                make(map[string]simplemail.ResourceDef, len(b.resources)),
	}

	if len(b.parameters) > 0 {
		template.Parameters = make(map[string]simplemail.Parameter, len(b.parameters))
		for name, param := range b.parameters {
			template.Parameters[name] = param
		}
	}

	for name, entry := range b.resources {
		var dependsOn []string
		if len(entry.dependsOn) > 0 {
			dependsOn = append(dependsOn, entry.dependsOn...)
			sort.Strings(dependsOn)
		}
		template.Resources[name] = simplemail.ResourceDef{
			Type:       entry.value.ResourceType(),
			Properties: entry.props,
			DependsOn:  dependsOn,
		}
	}

	if len(b.outputs) > 0 {
		template.Outputs = make(map[string]simplemail.Output, len(b.outputs))
		for name, output := range b.outputs {
			value, err := normalize(output.Value)
			if err != nil {
				return nil, fmt.Errorf("serializing output %s: %w", name, err)
			}
			if err := b.checkRefs("output "+name, value); err != nil {
				return nil, err
			}
			output.Value = value
			template.Outputs[name] = output
		}
	}

	return template, nil
}

// Order returns resource names in dependency order.
func (b *Builder) Order() ([]string, error) {
	if err := b.serializeAll(); err != nil {
		return nil, err
	}
	return b.topologicalSort()
}

// Dependencies returns, per resource, the resources it references or depends on.
func (b *Builder) Dependencies() (map[string][]string, error) {
	if err := b.serializeAll(); err != nil {
		return nil, err
	}
	deps := make(map[string][]string, len(b.resources))
	for name := range b.resources {
		deps[name] = b.resourceDeps(name)
	}
	return deps, nil
}

// serializeAll converts every resource value to its property map and checks
// that all references resolve to declared resources or parameters.
func (b *Builder) serializeAll() error {
	for name, entry := range b.resources {
		if entry.props != nil {
			continue
		}
		props, err := serialize.Resource(entry.value)
		if err != nil {
			return fmt.Errorf("serializing %s: %w", name, err)
		}
		if err := b.checkRefs(name, props); err != nil {
			return err
		}
		for _, dep := range entry.dependsOn {
			if _, ok := b.resources[dep]; !ok {
				return fmt.Errorf("%s: DependsOn references undefined resource %q", name, dep)
			}
		}
		entry.props = props
	}
	return nil
}

func (b *Builder) checkRefs(owner string, value any) error {
	for _, ref := range serialize.References(value) {
		_, isResource := b.resources[ref]
		_, isParam := b.parameters[ref]
		if !isResource && !isParam {
			return fmt.Errorf("%s: reference to undefined resource or parameter %q", owner, ref)
		}
	}
	return nil
}

// resourceDeps lists the resources a resource needs, excluding parameters.
func (b *Builder) resourceDeps(name string) []string {
	entry := b.resources[name]
	seen := make(map[string]bool)
	var deps []string
	for _, ref := range serialize.References(entry.props) {
		if _, ok := b.resources[ref]; ok && !seen[ref] {
			seen[ref] = true
			deps = append(deps, ref)
		}
	}
	for _, dep := range entry.dependsOn {
		if !seen[dep] {
			seen[dep] = true
			deps = append(deps, dep)
		}
	}
	sort.Strings(deps)
	return deps
}

// topologicalSort returns resources in dependency order.
func (b *Builder) topologicalSort() ([]string, error) {
	graph := make(map[string][]string)
	inDegree := make(map[string]int)

	for name := range b.resources {
		graph[name] = nil
		inDegree[name] = 0
	}

	for name := range b.resources {
		for _, dep := range b.resourceDeps(name) {
			graph[dep] = append(graph[dep], name)
			inDegree[name]++
		}
	}

	// Kahn's algorithm
	var queue []string
	for name, degree := range inDegree {
		if degree == 0 {
			queue = append(queue, name)
		}
	}
	sort.Strings(queue)

	var result []string
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		result = append(result, node)

		for _, neighbor := range graph[node] {
			inDegree[neighbor]--
			if inDegree[neighbor] == 0 {
				queue = append(queue, neighbor)
				sort.Strings(queue)
			}
		}
	}

	if len(result) != len(b.resources) {
		return nil, b.detectCycle()
	}

	return result, nil
}

// detectCycle finds and reports a cycle in the dependency graph.
func (b *Builder) detectCycle() error {
	visited := make(map[string]bool)
	path := make(map[string]bool)

	var cycle []string
	var findCycle func(node string) bool
	findCycle = func(node string) bool {
		visited[node] = true
		path[node] = true

		for _, dep := range b.resourceDeps(node) {
			if !visited[dep] {
				if findCycle(dep) {
					cycle = append([]string{node}, cycle...)
					return true
				}
			} else if path[dep] {
				cycle = append([]string{dep, node}, cycle...)
				return true
			}
		}

		path[node] = false
		return false
	}

	names := make([]string, 0, len(b.resources))
	for name := range b.resources {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if !visited[name] && findCycle(name) {
			break
		}
	}

	if len(cycle) > 0 {
		msg := "circular dependency detected:\n"
		for i, name := range cycle {
			msg += fmt.Sprintf("  %s (%s)", name, b.resources[name].value.ResourceType())
			if i < len(cycle)-1 {
				msg += "\n    → "
			}
		}
		return errors.New(msg)
	}

	return errors.New("circular dependency detected")
}

// normalize converts intrinsic values to plain JSON maps so the YAML encoder
// sees the same shape as the JSON one.
func normalize(v any) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var result any
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// ToJSON serializes the template to JSON.
func ToJSON(t *simplemail.Template) ([]byte, error) {
	return json.MarshalIndent(t, "", "  ")
}

// ToYAML serializes the template to YAML.
func ToYAML(t *simplemail.Template) ([]byte, error) {
	normalized, err := normalize(t)
	if err != nil {
		return nil, err
	}
	return yaml.Marshal(normalized)
}

// Marshal serializes the template in the named format ("json" or "yaml").
func Marshal(t *simplemail.Template, format string) ([]byte, error) {
	switch format {
	case "json":
		return ToJSON(t)
	case "yaml":
		return ToYAML(t)
	default:
		return nil, fmt.Errorf("unknown format: %s", format)
	}
}

// Load parses a template from JSON or YAML bytes.
func Load(data []byte) (*simplemail.Template, error) {
	var template simplemail.Template

	if err := json.Unmarshal(data, &template); err != nil {
		if err := yaml.Unmarshal(data, &template); err != nil {
			return nil, fmt.Errorf("failed to parse as JSON or YAML: %w", err)
		}
	}

	return &template, nil
}
