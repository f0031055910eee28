// Package definition loads Amazon States Language documents and injects the
// sender identity into the mail-sending states.
package definition

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/lex00/simple-mail-api-go/internal/serialize"
)

// ErrMissingKey is returned when the document lacks a state or parameter the
// sender injection writes to.
var ErrMissingKey = errors.New("workflow definition is missing a required key")

// State names the sender is injected into.
const (
	SendInquiryState = "SendInquiry"
	SendCopyState    = "SendCopy"
)

// Document is a States Language document as structured data.
type Document map[string]any

// Load reads and parses a definition file.
func Load(path string) (Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading workflow definition: %w", err)
	}
	doc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// Parse decodes a definition from JSON.
func Parse(data []byte) (Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing workflow definition: %w", err)
	}
	if doc == nil {
		return nil, fmt.Errorf("parsing workflow definition: document is null")
	}
	return doc, nil
}

// Clone returns a deep copy of the document.
func (d Document) Clone() Document {
	return serialize.Clone(map[string]any(d)).(map[string]any)
}

// InjectSender writes the sender into exactly three fields:
//
//	States.SendInquiry.Parameters.Source
//	States.SendInquiry.Parameters.Destination.ToAddresses  (as [sender])
//	States.SendCopy.Parameters.Source
//
// sender is a plain address or an intrinsic resolved at deploy time. All
// paths are checked before anything is written, so a failed injection leaves
// the document untouched.
func InjectSender(doc Document, sender any) error {
	inquiry, err := lookup(doc, "States", SendInquiryState, "Parameters")
	if err != nil {
		return err
	}
	destination, err := lookup(inquiry, "Destination")
	if err != nil {
		return fmt.Errorf("States.%s.Parameters: %w", SendInquiryState, err)
	}
	copyParams, err := lookup(doc, "States", SendCopyState, "Parameters")
	if err != nil {
		return err
	}

	inquiry["Source"] = sender
	destination["ToAddresses"] = []any{sender}
	copyParams["Source"] = sender
	return nil
}

// lookup walks nested objects and returns the object at path.
func lookup(root map[string]any, path ...string) (map[string]any, error) {
	current := root
	for i, key := range path {
		next, ok := current[key].(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingKey, strings.Join(path[:i+1], "."))
		}
		current = next
	}
	return current, nil
}

// StateNames returns the names of the top-level states, sorted.
func StateNames(doc Document) []string {
	states, _ := doc["States"].(map[string]any)
	names := make([]string, 0, len(states))
	for name := range states {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
