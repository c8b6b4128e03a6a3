// Package checklist contains the audit template and response models shared by
// the scoring engine and the adapters around it.
//
// Templates are read-only once loaded. Nothing in this package mutates a
// Template or a Response after construction.
package checklist

import (
	"errors"
	"fmt"
	"strings"
)

// ResponseType selects how an item's answer is evaluated.
type ResponseType string

// Supported response types.
const (
	ResponseYesNo          ResponseType = "YES_NO"
	ResponseNumeric        ResponseType = "NUMERIC"
	ResponseText           ResponseType = "TEXT"
	ResponseDropdown       ResponseType = "DROPDOWN"
	ResponseMultipleChoice ResponseType = "MULTIPLE_CHOICE"
)

// Valid reports whether t is a known response type.
func (t ResponseType) Valid() bool {
	switch t {
	case ResponseYesNo, ResponseNumeric, ResponseText, ResponseDropdown, ResponseMultipleChoice:
		return true
	}
	return false
}

// Criticality is the tier driving default weight and red-flag priority.
type Criticality string

// Criticality tiers.
const (
	CriticalityCritical Criticality = "CRITICAL"
	CriticalityMajor    Criticality = "MAJOR"
	CriticalityMinor    Criticality = "MINOR"
)

// Valid reports whether c is a known tier.
func (c Criticality) Valid() bool {
	switch c {
	case CriticalityCritical, CriticalityMajor, CriticalityMinor:
		return true
	}
	return false
}

// Range is an inclusive acceptable interval for numeric items.
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Midpoint returns the centre of the range.
func (r Range) Midpoint() float64 { return r.Min + (r.Max-r.Min)/2 }

// Contains reports whether x lies within [Min, Max].
func (r Range) Contains(x float64) bool { return x >= r.Min && x <= r.Max }

// Item is one audited question.
type Item struct {
	ID           string       `json:"id"`
	Question     string       `json:"question"`
	ResponseType ResponseType `json:"response_type"`
	Criticality  Criticality  `json:"criticality"`
	// Weight overrides the tier default when set. Zero is a valid weight.
	Weight      *float64 `json:"weight,omitempty"`
	TargetValue *Value   `json:"target_value,omitempty"`
	TargetRange *Range   `json:"target_range,omitempty"`
	Unit        string   `json:"unit,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

// Section is a named, ordered group of items.
type Section struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Items []Item `json:"items"`
	// MinimumThreshold is the pass percentage; nil means the section always passes.
	MinimumThreshold *float64 `json:"minimum_threshold,omitempty"`
}

// Template is an ordered list of sections making up one certification checklist.
type Template struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Version  string    `json:"version,omitempty"`
	Sections []Section `json:"sections"`
}

// ItemCount returns the number of items across all sections.
func (t Template) ItemCount() int {
	n := 0
	for _, s := range t.Sections {
		n += len(s.Items)
	}
	return n
}

// Item looks up an item by id.
func (t Template) Item(id string) (Item, bool) {
	for _, s := range t.Sections {
		for _, it := range s.Items {
			if it.ID == id {
				return it, true
			}
		}
	}
	return Item{}, false
}

// Response is an auditor's answer to one item.
type Response struct {
	ItemID   string   `json:"item_id"`
	Value    Value    `json:"value"`
	Evidence []string `json:"evidence,omitempty"`
	Notes    string   `json:"notes,omitempty"`
}

// IndexResponses keys responses by item id. If an item was answered more than
// once the later response wins.
func IndexResponses(responses []Response) map[string]Response {
	idx := make(map[string]Response, len(responses))
	for _, r := range responses {
		idx[r.ItemID] = r
	}
	return idx
}

// ErrInvalidTemplate wraps every template validation failure.
var ErrInvalidTemplate = errors.New("invalid template")

// Validate checks the structural rules a template must satisfy before it can
// be used for an audit. All problems are reported together.
func (t Template) Validate() error {
	var errs []error
	if strings.TrimSpace(t.ID) == "" {
		errs = append(errs, errors.New("template id is required"))
	}
	sections := make(map[string]struct{}, len(t.Sections))
	items := make(map[string]struct{})
	for si, s := range t.Sections {
		if strings.TrimSpace(s.ID) == "" {
			errs = append(errs, fmt.Errorf("section %d: id is required", si))
		} else if _, dup := sections[s.ID]; dup {
			errs = append(errs, fmt.Errorf("section %q: duplicate id", s.ID))
		}
		sections[s.ID] = struct{}{}
		for _, it := range s.Items {
			if _, dup := items[it.ID]; dup {
				errs = append(errs, fmt.Errorf("item %q: duplicate id", it.ID))
			}
			items[it.ID] = struct{}{}
			if err := it.validate(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w %q: %w", ErrInvalidTemplate, t.ID, errors.Join(errs...))
	}
	return nil
}

func (it Item) validate() error {
	switch {
	case strings.TrimSpace(it.ID) == "":
		return fmt.Errorf("item with question %q: id is required", it.Question)
	case !it.ResponseType.Valid():
		return fmt.Errorf("item %q: unknown response type %q", it.ID, it.ResponseType)
	case !it.Criticality.Valid():
		return fmt.Errorf("item %q: unknown criticality %q", it.ID, it.Criticality)
	case it.Weight != nil && *it.Weight < 0:
		return fmt.Errorf("item %q: weight must not be negative", it.ID)
	}
	switch it.ResponseType {
	case ResponseNumeric:
		if it.TargetRange == nil {
			return fmt.Errorf("item %q: numeric item needs a target range", it.ID)
		}
		if it.TargetRange.Min > it.TargetRange.Max {
			return fmt.Errorf("item %q: range min %g exceeds max %g", it.ID, it.TargetRange.Min, it.TargetRange.Max)
		}
	case ResponseDropdown, ResponseMultipleChoice:
		if it.TargetValue == nil || it.TargetValue.IsZero() {
			return fmt.Errorf("item %q: choice item needs a target value", it.ID)
		}
	}
	return nil
}
