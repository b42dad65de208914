package sheetexport

import (
	"fmt"
	"sync"
)

// Color is an RGB hex color such as "FF6600".
type Color string

// BorderStyle is the line style of one border side.
type BorderStyle int

const (
	BorderNone BorderStyle = iota
	BorderThin
	BorderMedium
)

// BorderLine describes one side of a border.
type BorderLine struct {
	Style BorderStyle
	Color Color
}

// Border describes the four sides of a cell or region border.
type Border struct {
	Top, Left, Right, Bottom BorderLine
}

// IsZero reports whether no side is drawn.
func (b Border) IsZero() bool {
	return b == Border{}
}

// FontSpec describes a font. The zero value is the backend default font.
type FontSpec struct {
	Family    string
	Bold      bool
	Underline bool
	Color     Color
}

// StyleSpec is the visual definition of a style. It is comparable so that
// backends can deduplicate identical styles.
type StyleSpec struct {
	Font         FontSpec
	Fill         Color
	NumberFormat string
	WrapText     bool
	Centered     bool
	Border       Border
}

// StyleKind is the semantic kind of a data cell.
type StyleKind int

const (
	StyleIdentifier StyleKind = iota
	StyleHyperlink
	StyleDate
	StyleInteger
	StyleDecimal
	StyleBoolean
	StyleLongText
)

var styleKindNames = [...]string{
	StyleIdentifier: "identifier",
	StyleHyperlink:  "hyperlink",
	StyleDate:       "date",
	StyleInteger:    "integer",
	StyleDecimal:    "decimal",
	StyleBoolean:    "boolean",
	StyleLongText:   "longText",
}

func (k StyleKind) String() string {
	if k >= 0 && int(k) < len(styleKindNames) {
		return styleKindNames[k]
	}
	return fmt.Sprintf("StyleKind(%d)", int(k))
}

const (
	mainHeaderColor Color = "99CC00"
	identifierColor Color = "C0C0C0"
	hyperlinkColor  Color = "0000FF"
	monospaceFamily       = "Consolas"
)

// DefaultPalette holds the colors cycled through by column groups.
var DefaultPalette = []Color{"FFCC00", "FF9900", "FF6600"}

// kindSpecs are the fixed data styles. StyleBoolean has no entry: boolean
// cells keep the default style.
var kindSpecs = map[StyleKind]StyleSpec{
	StyleIdentifier: {Font: FontSpec{Family: monospaceFamily, Color: identifierColor}},
	StyleDate:       {NumberFormat: "yyyy-mm-dd hh:mm:ss"},
	StyleInteger:    {NumberFormat: "#,##0"},
	StyleDecimal:    {NumberFormat: "#,##0.00"},
	StyleLongText:   {WrapText: true},
	StyleHyperlink:  {Font: FontSpec{Underline: true, Color: hyperlinkColor}},
}

// StyleRegistry creates and memoizes the styles of one document.
//
// Kind styles and the main header style are created by NewStyleRegistry.
// Group styles are created on the first request for a palette residue and
// reused afterwards. A registry may be shared by writers of several sheets.
type StyleRegistry struct {
	factory    StyleFactory
	palette    []Color
	kinds      map[StyleKind]StyleID
	mainHeader StyleID

	mu                sync.RWMutex
	groupHeaders      map[int]StyleID
	groupColumnHeader map[int]StyleID
}

// RegistryOption configures a StyleRegistry.
type RegistryOption func(*StyleRegistry)

// WithPalette replaces the group color palette. An empty palette is ignored.
func WithPalette(colors ...Color) RegistryOption {
	return func(r *StyleRegistry) {
		if len(colors) > 0 {
			r.palette = append([]Color(nil), colors...)
		}
	}
}

// NewStyleRegistry creates the fixed styles of a document.
func NewStyleRegistry(factory StyleFactory, opts ...RegistryOption) (*StyleRegistry, error) {
	r := &StyleRegistry{
		factory:           factory,
		palette:           DefaultPalette,
		kinds:             make(map[StyleKind]StyleID, len(kindSpecs)),
		groupHeaders:      make(map[int]StyleID),
		groupColumnHeader: make(map[int]StyleID),
	}
	for _, opt := range opts {
		opt(r)
	}

	id, err := factory.NewStyle(headerSpec(mainHeaderColor))
	if err != nil {
		return nil, fmt.Errorf("create main header style: %w", err)
	}
	r.mainHeader = id

	for kind := StyleIdentifier; kind <= StyleLongText; kind++ {
		spec, ok := kindSpecs[kind]
		if !ok {
			r.kinds[kind] = DefaultStyle
			continue
		}
		id, err := factory.NewStyle(spec)
		if err != nil {
			return nil, fmt.Errorf("create %s style: %w", kind, err)
		}
		r.kinds[kind] = id
	}
	return r, nil
}

// Style returns the cached style of a data kind.
func (r *StyleRegistry) Style(kind StyleKind) StyleID {
	return r.kinds[kind]
}

// MainHeaderStyle returns the style of main section column headers.
func (r *StyleRegistry) MainHeaderStyle() StyleID {
	return r.mainHeader
}

// PaletteSize returns the number of group colors.
func (r *StyleRegistry) PaletteSize() int {
	return len(r.palette)
}

func (r *StyleRegistry) residue(groupIndex int) int {
	return groupIndex % len(r.palette)
}

// GroupColor returns the palette color of a group.
func (r *StyleRegistry) GroupColor(groupIndex int) Color {
	return r.palette[r.residue(groupIndex)]
}

// GroupHeaderStyle returns the style of the merged group label cell.
func (r *StyleRegistry) GroupHeaderStyle(groupIndex int) (StyleID, error) {
	return r.lazy(r.groupHeaders, groupIndex, groupHeaderSpec)
}

// GroupColumnHeaderStyle returns the style of the column headers of a group.
func (r *StyleRegistry) GroupColumnHeaderStyle(groupIndex int) (StyleID, error) {
	return r.lazy(r.groupColumnHeader, groupIndex, headerSpec)
}

func (r *StyleRegistry) lazy(cache map[int]StyleID, groupIndex int, spec func(Color) StyleSpec) (StyleID, error) {
	idx := r.residue(groupIndex)

	r.mu.RLock()
	id, ok := cache[idx]
	r.mu.RUnlock()
	if ok {
		return id, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if id, ok := cache[idx]; ok {
		return id, nil
	}
	id, err := r.factory.NewStyle(spec(r.palette[idx]))
	if err != nil {
		return DefaultStyle, fmt.Errorf("create group style %d: %w", idx, err)
	}
	cache[idx] = id
	return id, nil
}

func headerSpec(fill Color) StyleSpec {
	return StyleSpec{
		Font:     FontSpec{Bold: true},
		Fill:     fill,
		Centered: true,
	}
}

func groupHeaderSpec(color Color) StyleSpec {
	return StyleSpec{
		Font:     FontSpec{Family: monospaceFamily, Bold: true, Color: color},
		Centered: true,
		Border:   groupBorder(color),
	}
}

func groupBorder(color Color) Border {
	return Border{
		Top:    BorderLine{Style: BorderMedium, Color: color},
		Left:   BorderLine{Style: BorderMedium, Color: color},
		Right:  BorderLine{Style: BorderMedium, Color: color},
		Bottom: BorderLine{Style: BorderThin, Color: color},
	}
}
