package sorting

import (
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ballistics/pointdeck/record"
)

// FieldPointKey sorts by the compound (key, idx) identity.
const FieldPointKey = record.FieldPointKey

// Directive is one sort criterion. Decoded from JSON or YAML it accepts
// {prop, order: "descending"}, {prop, descending: true} or the string form
// of ParseDirectives ("-range").
type Directive struct {
	Field      string `json:"prop" yaml:"prop"`
	Descending bool   `json:"descending,omitempty" yaml:"descending,omitempty"`
}

// NewDirective builds a directive from a field and a textual order such as
// "ascending", "descending", "asc" or "desc". Unknown orders sort ascending.
func NewDirective(field, order string) Directive {
	switch strings.ToLower(strings.TrimSpace(order)) {
	case "descending", "desc", "-":
		return Directive{Field: field, Descending: true}
	default:
		return Directive{Field: field}
	}
}

// ParseDirectives parses a comma separated list such as "range,-diam".
// A leading '-' marks a descending field, a leading '+' is ignored.
// "field:desc" is accepted as well. Empty entries are skipped.
func ParseDirectives(text string) []Directive {
	var directives []Directive
	for _, part := range strings.Split(text, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if field, order, ok := strings.Cut(part, ":"); ok {
			if field = strings.TrimSpace(field); field != "" {
				directives = append(directives, NewDirective(field, order))
			}
			continue
		}
		switch part[0] {
		case '-':
			if field := strings.TrimSpace(part[1:]); field != "" {
				directives = append(directives, Directive{Field: field, Descending: true})
			}
		case '+':
			if field := strings.TrimSpace(part[1:]); field != "" {
				directives = append(directives, Directive{Field: field})
			}
		default:
			directives = append(directives, Directive{Field: part})
		}
	}
	return directives
}

// String renders the directive in ParseDirectives form.
func (d Directive) String() string {
	if d.Descending {
		return "-" + d.Field
	}
	return d.Field
}

type directiveDoc struct {
	Prop       string `json:"prop" yaml:"prop"`
	Order      string `json:"order" yaml:"order"`
	Descending bool   `json:"descending" yaml:"descending"`
}

func (doc directiveDoc) directive() Directive {
	d := NewDirective(doc.Prop, doc.Order)
	d.Descending = d.Descending || doc.Descending
	return d
}

func parseOne(text string) (Directive, error) {
	directives := ParseDirectives(text)
	if len(directives) != 1 {
		return Directive{}, fmt.Errorf("sort directive %q: expected exactly one field", text)
	}
	return directives[0], nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Directive) UnmarshalJSON(data []byte) error {
	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		parsed, err := parseOne(text)
		if err != nil {
			return err
		}
		*d = parsed
		return nil
	}
	var doc directiveDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("sort directive: %w", err)
	}
	*d = doc.directive()
	return nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Directive) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		parsed, err := parseOne(node.Value)
		if err != nil {
			return err
		}
		*d = parsed
		return nil
	}
	var doc directiveDoc
	if err := node.Decode(&doc); err != nil {
		return fmt.Errorf("sort directive: %w", err)
	}
	*d = doc.directive()
	return nil
}
