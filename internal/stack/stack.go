// Package stack groups resources into deployable CloudFormation stacks and
// composes stacks into an app that synthesizes a cloud assembly.
package stack

import (
	"errors"
	"fmt"
	"sort"

	simplemail "github.com/lex00/simple-mail-api-go"
	"github.com/lex00/simple-mail-api-go/intrinsics"
	"github.com/lex00/simple-mail-api-go/internal/template"
)

// ErrMissingEnvironment is returned when a stack has no account or region.
var ErrMissingEnvironment = errors.New("missing deployment environment")

// Environment is the account and region a stack deploys into.
type Environment struct {
	Account string
	Region  string
}

// Validate fails when account or region is empty.
func (e Environment) Validate() error {
	switch {
	case e.Account == "" && e.Region == "":
		return fmt.Errorf("%w: account and region are not set", ErrMissingEnvironment)
	case e.Account == "":
		return fmt.Errorf("%w: account is not set", ErrMissingEnvironment)
	case e.Region == "":
		return fmt.Errorf("%w: region is not set", ErrMissingEnvironment)
	}
	return nil
}

// Stack is a named set of resources, parameters and outputs deployed as one
// CloudFormation stack.
type Stack struct {
	name         string
	env          Environment
	builder      *template.Builder
	resources    []string
	dependencies []string
}

// Name returns the stack name.
func (s *Stack) Name() string { return s.name }

// Env returns the stack's deployment environment.
func (s *Stack) Env() Environment { return s.env }

// Add declares a resource and returns a Ref to it.
func (s *Stack) Add(name string, res simplemail.Resource, dependsOn ...string) (intrinsics.Ref, error) {
	if err := s.builder.AddResource(name, res, dependsOn...); err != nil {
		return intrinsics.Ref{}, fmt.Errorf("stack %s: %w", s.name, err)
	}
	s.resources = append(s.resources, name)
	return intrinsics.Ref{LogicalName: name}, nil
}

// AddParameter declares a template parameter and returns a Ref to it.
func (s *Stack) AddParameter(name string, param simplemail.Parameter) (intrinsics.Ref, error) {
	if err := s.builder.AddParameter(name, param); err != nil {
		return intrinsics.Ref{}, fmt.Errorf("stack %s: %w", s.name, err)
	}
	return intrinsics.Ref{LogicalName: name}, nil
}

// AddOutput declares a template output.
func (s *Stack) AddOutput(name string, output simplemail.Output) error {
	if err := s.builder.AddOutput(name, output); err != nil {
		return fmt.Errorf("stack %s: %w", s.name, err)
	}
	return nil
}

// Attr returns a GetAtt reference to an attribute of a resource in this stack.
func (s *Stack) Attr(resource, attribute string) simplemail.AttrRef {
	return simplemail.AttrRef{Resource: resource, Attribute: attribute}
}

// AddDependency orders this stack after another one.
func (s *Stack) AddDependency(other *Stack) {
	for _, dep := range s.dependencies {
		if dep == other.name {
			return
		}
	}
	s.dependencies = append(s.dependencies, other.name)
	sort.Strings(s.dependencies)
}

// Dependencies returns the names of stacks this stack deploys after.
func (s *Stack) Dependencies() []string {
	return append([]string(nil), s.dependencies...)
}

// Resources returns logical names in declaration order.
func (s *Stack) Resources() []string {
	return append([]string(nil), s.resources...)
}

// ResourceDependencies returns, per resource, the resources it needs first.
func (s *Stack) ResourceDependencies() (map[string][]string, error) {
	return s.builder.Dependencies()
}

// Template builds the stack's CloudFormation template.
func (s *Stack) Template() (*simplemail.Template, error) {
	tmpl, err := s.builder.Build()
	if err != nil {
		return nil, fmt.Errorf("stack %s: %w", s.name, err)
	}
	return tmpl, nil
}
