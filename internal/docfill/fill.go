package docfill

import (
	"context"

	"github.com/starford/docfill/internal/analysis"
	"github.com/starford/docfill/internal/placeholder"
	"github.com/starford/docfill/internal/resolve"
)

// Preparation is everything a reviewer needs before rendering: the template
// text, its fields, the flattened analysis and the proposed value per field.
type Preparation struct {
	Template   string              `json:"template,omitempty"`
	Text       string              `json:"text"`
	Fields     []string            `json:"fields"`
	Table      *analysis.FlatTable `json:"table"`
	Mapping    []resolve.Entry     `json:"mapping"`
	Defaults   map[string]string   `json:"defaults"`
	Unresolved []string            `json:"unresolved"`

	// AnalysisError is set when the analysis payload was unreadable and
	// the fields were resolved against nothing.
	AnalysisError string `json:"analysis_error,omitempty"`
	mapping       *resolve.Mapping
}

// Filled is a rendered template. Unfilled lists the fields that were
// rendered as empty text.
type Filled struct {
	Template      string            `json:"template,omitempty"`
	Text          string            `json:"text"`
	Values        map[string]string `json:"values"`
	Unfilled      []string          `json:"unfilled"`
	AnalysisError string            `json:"analysis_error,omitempty"`
}

// Fields scans a stored template.
func (s *Service) Fields(_ context.Context, name string) ([]string, error) {
	data, err := s.store.Read(name)
	if err != nil {
		return nil, err
	}
	return nonNilSlice(placeholder.Scan(string(data))), nil
}

// Prepare resolves the fields of a stored template against an analysis.
// An absent analysis resolves nothing.
func (s *Service) Prepare(_ context.Context, name string, v analysis.Value) (*Preparation, error) {
	data, err := s.store.Read(name)
	if err != nil {
		return nil, err
	}
	p := PrepareText(string(data), v)
	p.Template = name
	return p, nil
}

// Fill renders a stored template with resolved values; overrides replace
// resolved values field by field.
func (s *Service) Fill(_ context.Context, name string, v analysis.Value, overrides map[string]string) (*Filled, error) {
	data, err := s.store.Read(name)
	if err != nil {
		return nil, err
	}
	f := FillText(string(data), v, overrides)
	f.Template = name
	return f, nil
}

// PrepareText is Prepare for template text that is not in the store.
func PrepareText(text string, v analysis.Value) *Preparation {
	fields := placeholder.Scan(text)
	table := analysis.Flatten(v)
	m := resolve.Resolve(fields, table)
	return &Preparation{
		Text:       text,
		Fields:     nonNilSlice(fields),
		Table:      table,
		Mapping:    nonNilSlice(m.Entries()),
		Defaults:   m.Defaults(),
		Unresolved: nonNilSlice(m.Unresolved()),
		mapping:    m,
	}
}

// FillText is Fill for template text that is not in the store.
func FillText(text string, v analysis.Value, overrides map[string]string) *Filled {
	return PrepareText(text, v).Render(overrides)
}

// Render applies the proposed values, with overrides laid on top.
func (p *Preparation) Render(overrides map[string]string) *Filled {
	values := p.mapping.Apply(overrides)
	unfilled := []string{}
	for _, f := range p.Fields {
		if values[f] == "" {
			unfilled = append(unfilled, f)
		}
	}
	return &Filled{
		Template:      p.Template,
		Text:          placeholder.Render(p.Text, values),
		Values:        values,
		Unfilled:      unfilled,
		AnalysisError: p.AnalysisError,
	}
}
