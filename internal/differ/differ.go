// Package differ provides semantic comparison of CloudFormation templates and
// of a synthesized assembly against templates already on disk.
package differ

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strings"

	simplemail "github.com/lex00/simple-mail-api-go"
	"github.com/lex00/simple-mail-api-go/internal/stack"
	"github.com/lex00/simple-mail-api-go/internal/template"
)

// Options configures the differ.
type Options struct {
	// IgnoreOrder ignores array element order in comparisons
	IgnoreOrder bool
}

// Result contains the difference between two templates.
type Result struct {
	Diff    simplemail.TemplateDiff
	Summary simplemail.DiffSummary
}

// Compare compares two CloudFormation templates of one stack and returns
// differences. Resources in next but not in prev are added.
func Compare(stackName string, prev, next *simplemail.Template, opts Options) (*Result, error) {
	result := &Result{}
	result.merge(stackName, prev, next, opts)
	result.finish()
	return result, nil
}

func (r *Result) merge(stackName string, prev, next *simplemail.Template, opts Options) {
	var res1, res2 map[string]simplemail.ResourceDef
	if prev != nil {
		res1 = prev.Resources
	}
	if next != nil {
		res2 = next.Resources
	}

	for name, def := range res2 {
		if _, exists := res1[name]; !exists {
			r.Diff.Added = append(r.Diff.Added, simplemail.DiffEntry{
				Stack:    stackName,
				Resource: name,
				Type:     def.Type,
			})
		}
	}

	for name, def := range res1 {
		if _, exists := res2[name]; !exists {
			r.Diff.Removed = append(r.Diff.Removed, simplemail.DiffEntry{
				Stack:    stackName,
				Resource: name,
				Type:     def.Type,
			})
		}
	}

	for name, def1 := range res1 {
		if def2, exists := res2[name]; exists {
			changes := compareResources(def1, def2, opts)
			if len(changes) > 0 {
				r.Diff.Modified = append(r.Diff.Modified, simplemail.DiffEntry{
					Stack:    stackName,
					Resource: name,
					Type:     def1.Type,
					Changes:  changes,
				})
			}
		}
	}
}

func (r *Result) finish() {
	sortEntries(r.Diff.Added)
	sortEntries(r.Diff.Removed)
	sortEntries(r.Diff.Modified)

	r.Summary = simplemail.DiffSummary{
		Added:    len(r.Diff.Added),
		Removed:  len(r.Diff.Removed),
		Modified: len(r.Diff.Modified),
	}
	r.Summary.Total = r.Summary.Added + r.Summary.Removed + r.Summary.Modified
}

// CompareFiles compares two template files.
func CompareFiles(file1, file2 string, opts Options) (*Result, error) {
	t1, err := LoadTemplate(file1)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", file1, err)
	}

	t2, err := LoadTemplate(file2)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", file2, err)
	}

	return Compare(filepath.Base(file2), t1, t2, opts)
}

// CompareAssembly compares a freshly synthesized assembly with the templates
// a previous synth wrote to dir. Stacks with no template on disk count as
// entirely added; stacks listed in the manifest on disk but no longer
// synthesized count as entirely removed.
func CompareAssembly(asm *stack.Assembly, dir string, opts Options) (*Result, error) {
	result := &Result{}
	seen := make(map[string]bool)

	for _, name := range asm.StackNames() {
		seen[name] = true

		next, err := normalize(asm.Templates[name])
		if err != nil {
			return nil, fmt.Errorf("stack %s: %w", name, err)
		}

		prev, err := loadStackTemplate(dir, name)
		if err != nil {
			return nil, err
		}
		result.merge(name, prev, next, opts)
	}

	manifest, err := loadManifest(dir)
	if err != nil {
		return nil, err
	}
	for _, entry := range manifest.Stacks {
		if seen[entry.Name] {
			continue
		}
		prev, err := LoadTemplate(filepath.Join(dir, entry.TemplateFile))
		if err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", entry.TemplateFile, err)
		}
		result.merge(entry.Name, prev, nil, opts)
	}

	result.finish()
	return result, nil
}

// loadStackTemplate returns the stack's template from dir, or nil when it was
// never written.
func loadStackTemplate(dir, stackName string) (*simplemail.Template, error) {
	for _, format := range []string{"json", "yaml"} {
		path := filepath.Join(dir, stack.TemplateFileName(stackName, format))
		if _, err := os.Stat(path); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return nil, err
		}
		t, err := LoadTemplate(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", path, err)
		}
		return t, nil
	}
	return nil, nil
}

func loadManifest(dir string) (simplemail.Manifest, error) {
	var manifest simplemail.Manifest
	data, err := os.ReadFile(filepath.Join(dir, stack.ManifestFile))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return manifest, nil
		}
		return manifest, err
	}
	if err := json.Unmarshal(data, &manifest); err != nil {
		return manifest, fmt.Errorf("parsing %s: %w", stack.ManifestFile, err)
	}
	return manifest, nil
}

// LoadTemplate loads a CloudFormation template from a file.
func LoadTemplate(path string) (*simplemail.Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	t, err := template.Load(data)
	if err != nil {
		return nil, err
	}
	return normalize(t)
}

// normalize round-trips a template through JSON so in-memory and on-disk
// templates use the same value types.
func normalize(t *simplemail.Template) (*simplemail.Template, error) {
	data, err := json.Marshal(t)
	if err != nil {
		return nil, err
	}
	var out simplemail.Template
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// compareResources compares two resource definitions and returns changes.
func compareResources(def1, def2 simplemail.ResourceDef, opts Options) []string {
	var changes []string

	if def1.Type != def2.Type {
		changes = append(changes, fmt.Sprintf("Type changed: %s → %s", def1.Type, def2.Type))
	}

	propChanges := compareProperties("", def1.Properties, def2.Properties, opts)
	changes = append(changes, propChanges...)

	if !equalStringSlices(def1.DependsOn, def2.DependsOn) {
		changes = append(changes, "DependsOn changed")
	}

	return changes
}

// compareProperties recursively compares property maps and reports changes
// by dotted property path.
func compareProperties(prefix string, props1, props2 map[string]any, opts Options) []string {
	var changes []string

	for key, val2 := range props2 {
		path := key
		if prefix != "" {
			path = prefix + "." + key
		}

		val1, exists := props1[key]
		if !exists {
			changes = append(changes, fmt.Sprintf("%s added", path))
			continue
		}

		m1, ok1 := val1.(map[string]any)
		m2, ok2 := val2.(map[string]any)
		if ok1 && ok2 && !isIntrinsic(m1) && !isIntrinsic(m2) {
			changes = append(changes, compareProperties(path, m1, m2, opts)...)
			continue
		}

		if !deepEqual(val1, val2, opts) {
			changes = append(changes, fmt.Sprintf("%s modified", path))
		}
	}

	for key := range props1 {
		path := key
		if prefix != "" {
			path = prefix + "." + key
		}

		if _, exists := props2[key]; !exists {
			changes = append(changes, fmt.Sprintf("%s removed", path))
		}
	}

	sort.Strings(changes)
	return changes
}

// isIntrinsic reports whether m is a single intrinsic function call.
func isIntrinsic(m map[string]any) bool {
	if len(m) != 1 {
		return false
	}
	for k := range m {
		return k == "Ref" || strings.HasPrefix(k, "Fn::")
	}
	return false
}

// deepEqual compares two values deeply, optionally ignoring order.
func deepEqual(a, b any, opts Options) bool {
	if opts.IgnoreOrder {
		a = normalizeValue(a)
		b = normalizeValue(b)
	}
	return reflect.DeepEqual(a, b)
}

// normalizeValue sorts arrays by their JSON encoding.
func normalizeValue(v any) any {
	switch val := v.(type) {
	case []any:
		result := make([]any, len(val))
		for i, elem := range val {
			result[i] = normalizeValue(elem)
		}
		sort.SliceStable(result, func(i, j int) bool {
			return encode(result[i]) < encode(result[j])
		})
		return result
	case map[string]any:
		result := make(map[string]any)
		for k, v := range val {
			result[k] = normalizeValue(v)
		}
		return result
	default:
		return v
	}
}

func encode(v any) string {
	data, _ := json.Marshal(v)
	return string(data)
}

// equalStringSlices compares two string slices for equality.
func equalStringSlices(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// sortEntries sorts diff entries by stack and resource name.
func sortEntries(entries []simplemail.DiffEntry) {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Stack != entries[j].Stack {
			return entries[i].Stack < entries[j].Stack
		}
		return entries[i].Resource < entries[j].Resource
	})
}
