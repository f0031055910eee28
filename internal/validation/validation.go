// Package validation checks a synthesized assembly.
//
// Three layers of checks are run:
//   - structural: references resolve inside each template, every
//     Fn::ImportValue names an export of another stack the importer depends on
//   - schema: required properties, property types and allowed values
//   - cfn-lint-go: Validate CloudFormation templates (library dependency)
package validation

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/lex00/cfn-lint-go/pkg/lint"

	simplemail "github.com/lex00/simple-mail-api-go"
	"github.com/lex00/simple-mail-api-go/internal/logger"
	"github.com/lex00/simple-mail-api-go/internal/schema"
	"github.com/lex00/simple-mail-api-go/internal/serialize"
	"github.com/lex00/simple-mail-api-go/internal/stack"
	"github.com/lex00/simple-mail-api-go/internal/template"
)

// CfnLintResult contains the result of running cfn-lint.
type CfnLintResult struct {
	Passed        bool     `json:"passed"`
	Errors        []string `json:"errors"`
	Warnings      []string `json:"warnings"`
	Informational []string `json:"informational"`
}

// TotalIssues returns the total number of issues found.
func (r CfnLintResult) TotalIssues() int {
	return len(r.Errors) + len(r.Warnings) + len(r.Informational)
}

// Result contains all validation results for an assembly.
type Result struct {
	Errors   []string                  `json:"errors,omitempty"`
	Warnings []string                  `json:"warnings,omitempty"`
	CfnLint  map[string]*CfnLintResult `json:"cfn_lint,omitempty"`
}

// Passed reports whether no check produced an error.
func (r *Result) Passed() bool {
	if len(r.Errors) > 0 {
		return false
	}
	for _, lr := range r.CfnLint {
		if !lr.Passed {
			return false
		}
	}
	return true
}

// Options configures ValidateAssembly.
type Options struct {
	// Schema checks every resource against its offline schema.
	Schema bool
	// Strict also warns about properties the schema does not know.
	Strict bool
	// CfnLint runs cfn-lint-go on every template.
	CfnLint bool
	// Dir receives the templates linted by cfn-lint. A temporary directory is
	// used when empty.
	Dir string
}

// ValidateAssembly runs the structural checks and, optionally, cfn-lint.
func ValidateAssembly(asm *stack.Assembly, opts Options) (*Result, error) {
	result := &Result{}
	result.Errors, result.Warnings = CheckAssembly(asm)

	if opts.Schema {
		for _, name := range asm.StackNames() {
			sr := schema.ValidateTemplate(asm.Templates[name], schema.Options{Strict: opts.Strict})
			for _, e := range sr.Errors {
				result.Errors = append(result.Errors, name+"/"+e.Error())
			}
			for _, w := range sr.Warnings {
				result.Warnings = append(result.Warnings, name+"/"+w.Error())
			}
		}
	}

	if !opts.CfnLint {
		return result, nil
	}

	dir := opts.Dir
	if dir == "" {
		tmp, err := os.MkdirTemp("", "simplemail-lint-")
		if err != nil {
			return nil, fmt.Errorf("creating lint directory: %w", err)
		}
		defer os.RemoveAll(tmp)
		dir = tmp
	}

	result.CfnLint = make(map[string]*CfnLintResult)
	for _, name := range asm.StackNames() {
		data, err := template.ToJSON(asm.Templates[name])
		if err != nil {
			return nil, fmt.Errorf("stack %s: %w", name, err)
		}
		path := filepath.Join(dir, stack.TemplateFileName(name, "json"))
		if err := os.WriteFile(path, data, 0644); err != nil {
			return nil, fmt.Errorf("writing %s: %w", path, err)
		}

		lr, err := RunCfnLint(path)
		if err != nil {
			return nil, err
		}
		logger.Logger.Debugw("cfn-lint finished", "stack", name, "issues", lr.TotalIssues())
		result.CfnLint[name] = lr
	}

	return result, nil
}

// CheckAssembly returns structural errors and warnings across all stacks.
func CheckAssembly(asm *stack.Assembly) (errs, warnings []string) {
	exports := make(map[string]string)
	for _, name := range asm.StackNames() {
		tmpl := asm.Templates[name]
		for _, outName := range sortedKeys(tmpl.Outputs) {
			out := tmpl.Outputs[outName]
			if out.Export == nil {
				continue
			}
			if prev, dup := exports[out.Export.Name]; dup {
				errs = append(errs, fmt.Sprintf("%s: export %q is also exported by %s", name, out.Export.Name, prev))
				continue
			}
			exports[out.Export.Name] = name
		}
	}

	deps := make(map[string][]string)
	for _, entry := range asm.Manifest.Stacks {
		deps[entry.Name] = entry.Dependencies
	}

	imported := make(map[string]bool)
	for _, name := range asm.StackNames() {
		tmpl := asm.Templates[name]
		errs = append(errs, checkTemplate(name, tmpl)...)

		for _, ref := range templateImports(tmpl) {
			imported[ref.export] = true
			producer, ok := exports[ref.export]
			switch {
			case !ok:
				errs = append(errs, fmt.Sprintf("%s/%s: imports %q, which no stack exports", name, ref.owner, ref.export))
			case producer == name:
				errs = append(errs, fmt.Sprintf("%s/%s: imports %q from its own stack", name, ref.owner, ref.export))
			case !dependsOn(deps, name, producer):
				errs = append(errs, fmt.Sprintf("%s/%s: imports %q but does not depend on %s", name, ref.owner, ref.export, producer))
			}
		}
	}

	for _, export := range sortedKeys(exports) {
		if !imported[export] {
			warnings = append(warnings, fmt.Sprintf("%s: export %q is not imported by any stack", exports[export], export))
		}
	}

	return errs, warnings
}

// checkTemplate verifies that Ref, Fn::GetAtt, Fn::Sub and DependsOn targets
// exist in the template.
func checkTemplate(stackName string, tmpl *simplemail.Template) []string {
	var errs []string
	known := func(name string) bool {
		_, isRes := tmpl.Resources[name]
		_, isParam := tmpl.Parameters[name]
		return isRes || isParam
	}

	for _, name := range sortedKeys(tmpl.Resources) {
		res := tmpl.Resources[name]
		for _, ref := range serialize.References(res.Properties) {
			if !known(ref) {
				errs = append(errs, fmt.Sprintf("%s/%s: reference to undefined %q", stackName, name, ref))
			}
		}
		for _, dep := range res.DependsOn {
			if _, ok := tmpl.Resources[dep]; !ok {
				errs = append(errs, fmt.Sprintf("%s/%s: DependsOn undefined resource %q", stackName, name, dep))
			}
		}
	}
	for _, name := range sortedKeys(tmpl.Outputs) {
		for _, ref := range serialize.References(tmpl.Outputs[name].Value) {
			if !known(ref) {
				errs = append(errs, fmt.Sprintf("%s/Outputs/%s: reference to undefined %q", stackName, name, ref))
			}
		}
	}
	return errs
}

type importRef struct {
	owner  string
	export string
}

func templateImports(tmpl *simplemail.Template) []importRef {
	var refs []importRef
	for _, name := range sortedKeys(tmpl.Resources) {
		for _, export := range serialize.Imports(tmpl.Resources[name].Properties) {
			refs = append(refs, importRef{owner: name, export: export})
		}
	}
	for _, name := range sortedKeys(tmpl.Outputs) {
		for _, export := range serialize.Imports(tmpl.Outputs[name].Value) {
			refs = append(refs, importRef{owner: "Outputs/" + name, export: export})
		}
	}
	return refs
}

// dependsOn reports whether stack from depends on stack to, directly or
// transitively.
func dependsOn(deps map[string][]string, from, to string) bool {
	seen := make(map[string]bool)
	var walk func(s string) bool
	walk = func(s string) bool {
		if seen[s] {
			return false
		}
		seen[s] = true
		for _, d := range deps[s] {
			if d == to || walk(d) {
				return true
			}
		}
		return false
	}
	return walk(from)
}

// RunCfnLint runs cfn-lint-go on the given template file.
// This uses cfn-lint-go as a library dependency for guaranteed version control.
func RunCfnLint(templatePath string) (*CfnLintResult, error) {
	if _, err := os.Stat(templatePath); err != nil {
		return &CfnLintResult{
			Passed: false,
			Errors: []string{fmt.Sprintf("Template file not found: %s", templatePath)},
		}, nil
	}

	linter := lint.New(lint.Options{})
	matches, err := linter.LintFile(templatePath)
	if err != nil {
		return &CfnLintResult{
			Passed: false,
			Errors: []string{fmt.Sprintf("Linter error: %v", err)},
		}, nil
	}

	result := &CfnLintResult{
		Errors:        []string{},
		Warnings:      []string{},
		Informational: []string{},
	}

	if len(matches) == 0 {
		result.Passed = true
		return result, nil
	}

	for _, match := range matches {
		formatted := formatMatch(match)

		switch match.Level {
		case "Error":
			result.Errors = append(result.Errors, formatted)
		case "Warning":
			result.Warnings = append(result.Warnings, formatted)
		default:
			result.Informational = append(result.Informational, formatted)
		}
	}

	// Passed if no errors (warnings are acceptable)
	result.Passed = len(result.Errors) == 0

	return result, nil
}

// formatMatch formats a cfn-lint-go match for display.
func formatMatch(match lint.Match) string {
	pathStr := ""
	if len(match.Location.Path) > 0 {
		parts := make([]string, len(match.Location.Path))
		for i, p := range match.Location.Path {
			parts[i] = fmt.Sprintf("%v", p)
		}
		pathStr = strings.Join(parts, "/")
	}

	if pathStr != "" {
		return fmt.Sprintf("%s: %s (at %s)", match.Rule.ID, match.Message, pathStr)
	}
	return fmt.Sprintf("%s: %s", match.Rule.ID, match.Message)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
