package reportlayout

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/locvowork/sheetexport/pkg/sheetexport"
)

// FormatterFunc rewrites a raw field value before it is converted.
type FormatterFunc func(interface{}) interface{}

var builtinFormatters = map[string]FormatterFunc{
	"upper": mapString(strings.ToUpper),
	"lower": mapString(strings.ToLower),
	"trim":  mapString(strings.TrimSpace),
}

func mapString(fn func(string) string) FormatterFunc {
	return func(v interface{}) interface{} {
		if s, ok := v.(string); ok {
			return fn(s)
		}
		return v
	}
}

type layoutOptions struct {
	formatters map[string]FormatterFunc
	keys       map[string][]string
}

// Option configures Report.Layout.
type Option func(*layoutOptions)

// WithFormatter registers a named formatter, replacing a builtin of the
// same name.
func WithFormatter(name string, fn FormatterFunc) Option {
	return func(o *layoutOptions) {
		o.formatters[name] = fn
	}
}

// WithExpandedKeys supplies the keys of a map-valued field expanded by a
// group. Without keys the group has no columns and is not rendered.
func WithExpandedKeys(field string, keys []string) Option {
	return func(o *layoutOptions) {
		o.keys[field] = append([]string(nil), keys...)
	}
}

// Layout builds the sheet layout of the report.
func (r Report) Layout(opts ...Option) (sheetexport.Layout[Record], error) {
	o := layoutOptions{
		formatters: make(map[string]FormatterFunc, len(builtinFormatters)),
		keys:       make(map[string][]string),
	}
	for name, fn := range builtinFormatters {
		o.formatters[name] = fn
	}
	for _, opt := range opts {
		opt(&o)
	}

	b := sheetexport.NewLayout[Record](r.SheetName())
	for _, c := range r.Columns {
		col, err := o.column(c)
		if err != nil {
			return sheetexport.Layout[Record]{}, fmt.Errorf("report %q: %w", r.Name, err)
		}
		b.AddColumn(col)
	}

	for _, g := range r.Groups {
		var cols []sheetexport.Column[Record]
		if g.ExpandField != "" {
			cols = o.expanded(g)
		}
		for _, c := range g.Columns {
			col, err := o.column(c)
			if err != nil {
				return sheetexport.Layout[Record]{}, fmt.Errorf("report %q group %q: %w", r.Name, g.Label, err)
			}
			cols = append(cols, col)
		}
		b.AddGroup(sheetexport.NewGroup(g.Label, cols...))
	}
	return b.Build()
}

func (o *layoutOptions) column(c ColumnConfig) (sheetexport.Column[Record], error) {
	var format FormatterFunc
	if c.Formatter != "" {
		fn, ok := o.formatters[c.Formatter]
		if !ok {
			return sheetexport.Column[Record]{}, fmt.Errorf("column %q: unknown formatter %q", c.Field, c.Formatter)
		}
		format = fn
	}

	header := c.Header
	if header == "" {
		header = humanize(c.Field)
	}
	kind := c.Kind
	if kind == "" {
		kind = KindText
	}

	field, linkField := c.Field, c.LinkField
	render := func(w *sheetexport.CellWriter, rec Record) error {
		raw := rec[field]
		if format != nil && raw != nil {
			raw = format(raw)
		}
		if kind == KindLink {
			return w.Write(linkValue(raw, rec[linkField]))
		}
		v, err := toValue(kind, raw)
		if err != nil {
			return fmt.Errorf("field %q: %w", field, err)
		}
		return w.Write(v)
	}
	return sheetexport.NewColumn[Record](header, c.Width, render), nil
}

func linkValue(label, target interface{}) sheetexport.Value {
	if label == nil {
		return nil
	}
	href, _ := asString(target)
	if p, ok := label.(*string); ok {
		if href == "" {
			return sheetexport.OptText(p)
		}
		return sheetexport.OptLink(p, href)
	}
	text, ok := asString(label)
	if !ok {
		text = fmt.Sprint(label)
	}
	if href == "" {
		return sheetexport.Text(text)
	}
	return sheetexport.Hyperlink{Label: text, Target: href}
}

func (o *layoutOptions) expanded(g GroupConfig) []sheetexport.Column[Record] {
	kind := g.ExpandKind
	if kind == "" {
		kind = KindText
	}
	field := g.ExpandField

	var cols []sheetexport.Column[Record]
	for _, key := range o.keys[field] {
		key := key
		render := func(w *sheetexport.CellWriter, rec Record) error {
			v, err := toValue(kind, mapValue(rec[field], key))
			if err != nil {
				return fmt.Errorf("field %q key %q: %w", field, key, err)
			}
			return w.Write(v)
		}
		cols = append(cols, sheetexport.NewColumn[Record](key, g.Width, render))
	}
	return cols
}

func mapValue(m interface{}, key string) interface{} {
	switch m := m.(type) {
	case map[string]interface{}:
		return m[key]
	case Record:
		return m[key]
	case map[string]string:
		if v, ok := m[key]; ok {
			return v
		}
	}
	return nil
}

// maxKeySamples bounds how many records DiscoverKeys looks at.
const maxKeySamples = 50

// DiscoverKeys returns the sorted keys of a map-valued field found in the
// first records.
func DiscoverKeys(records []Record, field string) []string {
	if len(records) > maxKeySamples {
		records = records[:maxKeySamples]
	}
	set := make(map[string]struct{})
	for _, rec := range records {
		switch m := rec[field].(type) {
		case map[string]interface{}:
			for k := range m {
				set[k] = struct{}{}
			}
		case Record:
			for k := range m {
				set[k] = struct{}{}
			}
		case map[string]string:
			for k := range m {
				set[k] = struct{}{}
			}
		}
	}
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// humanize turns a field name such as "created_at" into "Created At".
func humanize(field string) string {
	words := strings.FieldsFunc(field, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for i, w := range words {
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}
