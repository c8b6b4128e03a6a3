// Package templates loads checklist templates from YAML files and serves
// them from a registry that can be reloaded while the service runs.
package templates

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/okian/millcert/internal/domain/checklist"
)

// ErrDuplicateTemplate is returned when two files declare the same template id.
var ErrDuplicateTemplate = errors.New("duplicate template id")

// On-disk shapes. They mirror the domain types but keep YAML concerns,
// notably the untyped target value, out of the checklist package.
type fileTemplate struct {
	ID       string        `yaml:"id"`
	Name     string        `yaml:"name"`
	Version  string        `yaml:"version"`
	Sections []fileSection `yaml:"sections"`
}

type fileSection struct {
	ID               string     `yaml:"id"`
	Name             string     `yaml:"name"`
	MinimumThreshold *float64   `yaml:"minimum_threshold"`
	Items            []fileItem `yaml:"items"`
}

type fileItem struct {
	ID           string     `yaml:"id"`
	Question     string     `yaml:"question"`
	ResponseType string     `yaml:"response_type"`
	Criticality  string     `yaml:"criticality"`
	Weight       *float64   `yaml:"weight"`
	TargetValue  yaml.Node  `yaml:"target_value"`
	TargetRange  *fileRange `yaml:"target_range"`
	Unit         string     `yaml:"unit"`
	Tags         []string   `yaml:"tags"`
}

type fileRange struct {
	Min float64 `yaml:"min"`
	Max float64 `yaml:"max"`
}

// Parse decodes and validates one YAML template.
func Parse(data []byte) (checklist.Template, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var ft fileTemplate
	if err := dec.Decode(&ft); err != nil {
		return checklist.Template{}, fmt.Errorf("%w: %w", checklist.ErrInvalidTemplate, err)
	}

	tmpl, err := ft.toTemplate()
	if err != nil {
		return checklist.Template{}, err
	}
	if err := tmpl.Validate(); err != nil {
		return checklist.Template{}, err
	}
	return tmpl, nil
}

// ParseFile reads and parses a template file.
func ParseFile(path string) (checklist.Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return checklist.Template{}, fmt.Errorf("failed to read template: %w", err)
	}
	tmpl, err := Parse(data)
	if err != nil {
		return checklist.Template{}, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return tmpl, nil
}

// LoadDir parses every *.yaml and *.yml file in dir, in name order.
func LoadDir(dir string) ([]checklist.Template, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read template dir: %w", err)
	}

	var (
		out  []checklist.Template
		seen = make(map[string]string)
		errs []error
	)
	for _, e := range entries {
		if e.IsDir() || !isTemplateFile(e.Name()) {
			continue
		}
		tmpl, err := ParseFile(filepath.Join(dir, e.Name()))
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if prev, dup := seen[tmpl.ID]; dup {
			errs = append(errs, fmt.Errorf("%w %q in %s and %s", ErrDuplicateTemplate, tmpl.ID, prev, e.Name()))
			continue
		}
		seen[tmpl.ID] = e.Name()
		out = append(out, tmpl)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return out, nil
}

func isTemplateFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return (ext == ".yaml" || ext == ".yml") && !strings.HasPrefix(name, ".")
}

func (ft fileTemplate) toTemplate() (checklist.Template, error) {
	tmpl := checklist.Template{
		ID:       strings.TrimSpace(ft.ID),
		Name:     ft.Name,
		Version:  ft.Version,
		Sections: make([]checklist.Section, 0, len(ft.Sections)),
	}
	for _, fs := range ft.Sections {
		sec := checklist.Section{
			ID:               fs.ID,
			Name:             fs.Name,
			MinimumThreshold: fs.MinimumThreshold,
			Items:            make([]checklist.Item, 0, len(fs.Items)),
		}
		for _, fi := range fs.Items {
			item, err := fi.toItem()
			if err != nil {
				return checklist.Template{}, err
			}
			sec.Items = append(sec.Items, item)
		}
		tmpl.Sections = append(tmpl.Sections, sec)
	}
	return tmpl, nil
}

func (fi fileItem) toItem() (checklist.Item, error) {
	item := checklist.Item{
		ID:           fi.ID,
		Question:     fi.Question,
		ResponseType: checklist.ResponseType(strings.ToUpper(strings.TrimSpace(fi.ResponseType))),
		Criticality:  checklist.Criticality(strings.ToUpper(strings.TrimSpace(fi.Criticality))),
		Weight:       fi.Weight,
		Unit:         fi.Unit,
		Tags:         fi.Tags,
	}
	if fi.TargetRange != nil {
		item.TargetRange = &checklist.Range{Min: fi.TargetRange.Min, Max: fi.TargetRange.Max}
	}

	v, err := nodeValue(&fi.TargetValue)
	if err != nil {
		return checklist.Item{}, fmt.Errorf("%w: item %q: %w", checklist.ErrInvalidTemplate, fi.ID, err)
	}
	if !v.IsZero() {
		item.TargetValue = &v
	}
	return item, nil
}

// nodeValue converts a YAML scalar or sequence into a checklist value.
func nodeValue(n *yaml.Node) (checklist.Value, error) {
	switch n.Kind {
	case 0:
		return checklist.Value{}, nil
	case yaml.ScalarNode:
		return scalarValue(n)
	case yaml.SequenceNode:
		sel := make([]string, 0, len(n.Content))
		for _, c := range n.Content {
			if c.Kind != yaml.ScalarNode {
				return checklist.Value{}, fmt.Errorf("line %d: choices must be scalars", c.Line)
			}
			sel = append(sel, c.Value)
		}
		return checklist.Choice(sel...), nil
	default:
		return checklist.Value{}, fmt.Errorf("line %d: %w", n.Line, checklist.ErrUnsupportedValue)
	}
}

func scalarValue(n *yaml.Node) (checklist.Value, error) {
	switch n.ShortTag() {
	case "!!null":
		return checklist.Value{}, nil
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return checklist.Value{}, err
		}
		return checklist.Bool(b), nil
	case "!!int", "!!float":
		x, err := strconv.ParseFloat(n.Value, 64)
		if err != nil {
			var f float64
			if derr := n.Decode(&f); derr != nil {
				return checklist.Value{}, derr
			}
			x = f
		}
		return checklist.Number(x), nil
	default:
		return checklist.Text(n.Value), nil
	}
}
