package stack

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	simplemail "github.com/lex00/simple-mail-api-go"
	"github.com/lex00/simple-mail-api-go/intrinsics"
	"github.com/lex00/simple-mail-api-go/internal/logger"
	"github.com/lex00/simple-mail-api-go/internal/template"
)

// ManifestFile is the name of the deployment manifest inside the output directory.
const ManifestFile = "manifest.json"

// App owns a set of stacks and synthesizes them together.
type App struct {
	stacks []*Stack
	byName map[string]*Stack
}

// NewApp creates an empty app.
func NewApp() *App {
	return &App{byName: make(map[string]*Stack)}
}

// NewStack creates a stack in the app. The environment must name an account
// and a region.
func (a *App) NewStack(name, description string, env Environment) (*Stack, error) {
	if name == "" {
		return nil, fmt.Errorf("stack name must not be empty")
	}
	if _, exists := a.byName[name]; exists {
		return nil, fmt.Errorf("duplicate stack %q", name)
	}
	if err := env.Validate(); err != nil {
		return nil, fmt.Errorf("stack %s: %w", name, err)
	}

	s := &Stack{
		name:    name,
		env:     env,
		builder: template.NewBuilder(description),
	}
	a.stacks = append(a.stacks, s)
	a.byName[name] = s
	return s, nil
}

// Stack returns a stack by name.
func (a *App) Stack(name string) (*Stack, bool) {
	s, ok := a.byName[name]
	return s, ok
}

// Stacks returns stacks in deployment order: every stack after the stacks it
// depends on, ties broken by creation order.
func (a *App) Stacks() ([]*Stack, error) {
	placed := make(map[string]bool, len(a.stacks))
	var ordered []*Stack

	for len(ordered) < len(a.stacks) {
		progress := false
		for _, s := range a.stacks {
			if placed[s.name] {
				continue
			}
			ready := true
			for _, dep := range s.dependencies {
				if _, known := a.byName[dep]; !known {
					return nil, fmt.Errorf("stack %s depends on unknown stack %q", s.name, dep)
				}
				if !placed[dep] {
					ready = false
					break
				}
			}
			if ready {
				placed[s.name] = true
				ordered = append(ordered, s)
				progress = true
			}
		}
		if !progress {
			return nil, fmt.Errorf("circular dependency between stacks")
		}
	}
	return ordered, nil
}

// ExportName returns the export name used for a cross-stack reference to a
// resource attribute of the producer stack.
func ExportName(producer *Stack, ref simplemail.AttrRef) string {
	return fmt.Sprintf("%s:ExportsOutputFnGetAtt%s%s", producer.name, ref.Resource, ref.Attribute)
}

// Export adds an exported output for an attribute of a producer resource and
// returns the Fn::ImportValue other stacks use to read it.
func (a *App) Export(producer *Stack, ref simplemail.AttrRef) (intrinsics.ImportValue, error) {
	if !producer.builder.HasResource(ref.Resource) {
		return intrinsics.ImportValue{}, fmt.Errorf("stack %s has no resource %q", producer.name, ref.Resource)
	}

	name := ExportName(producer, ref)
	err := producer.AddOutput("ExportsOutputFnGetAtt"+ref.Resource+ref.Attribute, simplemail.Output{
		Value:  ref,
		Export: &simplemail.Export{Name: name},
	})
	if err != nil {
		return intrinsics.ImportValue{}, err
	}
	return intrinsics.ImportValue{ExportName: name}, nil
}

// Reference passes an attribute of a producer resource to a consumer stack.
// The producer exports the value, the consumer imports it and is ordered after
// the producer.
func (a *App) Reference(producer, consumer *Stack, ref simplemail.AttrRef) (intrinsics.ImportValue, error) {
	if producer == consumer {
		return intrinsics.ImportValue{}, fmt.Errorf("stack %s: cross-stack reference to itself", producer.name)
	}
	imp, err := a.Export(producer, ref)
	if err != nil {
		return intrinsics.ImportValue{}, err
	}
	consumer.AddDependency(producer)
	return imp, nil
}

// Assembly is the result of synthesizing an app.
type Assembly struct {
	Templates map[string]*simplemail.Template
	Manifest  simplemail.Manifest
}

// Synth builds every stack's template in deployment order.
func (a *App) Synth(format string) (*Assembly, error) {
	ordered, err := a.Stacks()
	if err != nil {
		return nil, err
	}

	asm := &Assembly{
		Templates: make(map[string]*simplemail.Template, len(ordered)),
		Manifest:  simplemail.Manifest{Version: "1"},
	}

	for _, s := range ordered {
		tmpl, err := s.Template()
		if err != nil {
			return nil, err
		}
		asm.Templates[s.name] = tmpl
		asm.Manifest.Stacks = append(asm.Manifest.Stacks, simplemail.StackManifest{
			Name:         s.name,
			TemplateFile: TemplateFileName(s.name, format),
			Account:      s.env.Account,
			Region:       s.env.Region,
			Dependencies: s.Dependencies(),
		})
		logger.Logger.Debugw("synthesized stack",
			"stack", s.name,
			"resources", len(tmpl.Resources),
			"dependencies", s.dependencies,
		)
	}

	return asm, nil
}

// TemplateFileName returns the file name of a stack template.
func TemplateFileName(stackName, format string) string {
	ext := "json"
	if format == "yaml" {
		ext = "yaml"
	}
	return stackName + ".template." + ext
}

// Write stores every template and the manifest in dir.
func (asm *Assembly) Write(dir, format string) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	var written []string
	for _, entry := range asm.Manifest.Stacks {
		data, err := template.Marshal(asm.Templates[entry.Name], format)
		if err != nil {
			return nil, fmt.Errorf("stack %s: %w", entry.Name, err)
		}
		path := filepath.Join(dir, entry.TemplateFile)
		if err := os.WriteFile(path, data, 0644); err != nil {
			return nil, fmt.Errorf("writing %s: %w", path, err)
		}
		written = append(written, path)
	}

	data, err := json.MarshalIndent(asm.Manifest, "", "  ")
	if err != nil {
		return nil, err
	}
	path := filepath.Join(dir, ManifestFile)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return nil, fmt.Errorf("writing %s: %w", path, err)
	}
	written = append(written, path)

	return written, nil
}

// StackNames returns the synthesized stack names in deployment order.
func (asm *Assembly) StackNames() []string {
	names := make([]string, len(asm.Manifest.Stacks))
	for i, s := range asm.Manifest.Stacks {
		names[i] = s.Name
	}
	return names
}

// Exports returns export name → producing stack for every exported output.
func (asm *Assembly) Exports() map[string]string {
	exports := make(map[string]string)
	for name, tmpl := range asm.Templates {
		for _, out := range tmpl.Outputs {
			if out.Export != nil {
				exports[out.Export.Name] = name
			}
		}
	}
	return exports
}
