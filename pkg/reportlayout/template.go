// Package reportlayout declares sheet layouts in YAML and turns them into
// sheetexport layouts over generic records.
package reportlayout

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// Record is one row read from a data source, keyed by field name.
type Record map[string]interface{}

// Source types.
const (
	SourceSQL       = "sql"
	SourceSearch    = "search"
	SourceDatastore = "datastore"
)

var (
	// ErrUnknownReport is returned when a report name is not declared.
	ErrUnknownReport = errors.New("unknown report")
	// ErrInvalidTemplate wraps every problem found while validating a template.
	ErrInvalidTemplate = errors.New("invalid report template")
)

// Template is the root of a report file.
type Template struct {
	Reports []Report `yaml:"reports"`
}

// Report declares one exportable sheet and where its records come from.
type Report struct {
	Name    string         `yaml:"name"`
	Title   string         `yaml:"title"`
	Source  SourceConfig   `yaml:"source"`
	Columns []ColumnConfig `yaml:"columns"`
	Groups  []GroupConfig  `yaml:"groups"`
}

// SourceConfig selects the backend of a report.
type SourceConfig struct {
	Type     string `yaml:"type"`
	Query    string `yaml:"query"`     // sql statement or search query JSON
	Index    string `yaml:"index"`     // search index
	Kind     string `yaml:"kind"`      // datastore kind
	PageSize int    `yaml:"page_size"` // search scroll size
	// Count asks the datastore source for a count query before reading.
	Count bool `yaml:"count"`
}

// ColumnConfig declares one column.
type ColumnConfig struct {
	Field     string `yaml:"field"`
	Header    string `yaml:"header"`
	Kind      Kind   `yaml:"kind"`
	Width     int    `yaml:"width"`
	LinkField string `yaml:"link_field"`
	Formatter string `yaml:"formatter"`
}

// GroupConfig declares a column group. With ExpandField set, the group gets
// one column per key of that map-valued field, rendered as ExpandKind.
type GroupConfig struct {
	Label       string         `yaml:"label"`
	Columns     []ColumnConfig `yaml:"columns"`
	ExpandField string         `yaml:"expand_field"`
	ExpandKind  Kind           `yaml:"expand_kind"`
	Width       int            `yaml:"width"`
}

// SheetName returns the title of the report, or its name when untitled.
func (r Report) SheetName() string {
	if r.Title != "" {
		return r.Title
	}
	return r.Name
}

// ExpandFields returns the map-valued fields expanded by the groups.
func (r Report) ExpandFields() []string {
	var fields []string
	for _, g := range r.Groups {
		if g.ExpandField != "" {
			fields = append(fields, g.ExpandField)
		}
	}
	return fields
}

// Parse reads and validates a template.
func Parse(data []byte) (*Template, error) {
	var tmpl Template
	if err := yaml.Unmarshal(data, &tmpl); err != nil {
		return nil, fmt.Errorf("parse report template: %w", err)
	}
	if err := tmpl.validate(); err != nil {
		return nil, err
	}
	return &tmpl, nil
}

// Load reads the template file at path.
func Load(path string) (*Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read report template: %w", err)
	}
	return Parse(data)
}

// Report returns the named report.
func (t *Template) Report(name string) (Report, error) {
	for _, r := range t.Reports {
		if r.Name == name {
			return r, nil
		}
	}
	return Report{}, fmt.Errorf("%w: %q", ErrUnknownReport, name)
}

// Names returns the report names in declaration order.
func (t *Template) Names() []string {
	names := make([]string, 0, len(t.Reports))
	for _, r := range t.Reports {
		names = append(names, r.Name)
	}
	return names
}

func (t *Template) validate() error {
	var errs []error
	seen := make(map[string]bool)
	for i, r := range t.Reports {
		if r.Name == "" {
			errs = append(errs, fmt.Errorf("report %d: name is required", i))
		} else if seen[r.Name] {
			errs = append(errs, fmt.Errorf("report %q: declared twice", r.Name))
		}
		seen[r.Name] = true

		switch r.Source.Type {
		case SourceSQL, SourceSearch, SourceDatastore:
		default:
			errs = append(errs, fmt.Errorf("report %q: unknown source type %q", r.Name, r.Source.Type))
		}

		for _, c := range r.Columns {
			errs = append(errs, validateColumn(r.Name, c)...)
		}
		for j, g := range r.Groups {
			if g.ExpandField != "" && len(g.Columns) > 0 {
				errs = append(errs, fmt.Errorf("report %q group %d: expand_field and columns are exclusive", r.Name, j))
			}
			if g.ExpandKind != "" && !g.ExpandKind.valid() {
				errs = append(errs, fmt.Errorf("report %q group %d: unknown kind %q", r.Name, j, g.ExpandKind))
			}
			for _, c := range g.Columns {
				errs = append(errs, validateColumn(r.Name, c)...)
			}
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidTemplate, errors.Join(errs...))
	}
	return nil
}

func validateColumn(report string, c ColumnConfig) []error {
	var errs []error
	if c.Field == "" {
		errs = append(errs, fmt.Errorf("report %q: column %q has no field", report, c.Header))
	}
	if c.Kind != "" && !c.Kind.valid() {
		errs = append(errs, fmt.Errorf("report %q column %q: unknown kind %q", report, c.Field, c.Kind))
	}
	if c.Kind == KindLink && c.LinkField == "" {
		errs = append(errs, fmt.Errorf("report %q column %q: link columns need link_field", report, c.Field))
	}
	return errs
}
