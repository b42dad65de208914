package sheetexport

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLayoutBuilder_ReportsAllErrors(t *testing.T) {
	_, err := NewLayout[stat]("").
		Column(func(c *ColumnBuilder[stat]) { c.Label("no renderer") }).
		Group(func(g *GroupBuilder[stat]) {
			g.Column(func(c *ColumnBuilder[stat]) {
				c.Label("also missing")
			})
		}).
		Build()

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingName)
	assert.ErrorIs(t, err, ErrMissingRenderer)
	assert.ErrorIs(t, err, ErrMissingGroupLabel)
	assert.Contains(t, err.Error(), "also missing")
}

func TestLayoutBuilder_NilValueFunc(t *testing.T) {
	_, err := NewLayout[stat]("Sheet").
		Column(func(c *ColumnBuilder[stat]) { c.Label("x").Value(nil) }).
		Build()
	assert.ErrorIs(t, err, ErrMissingRenderer)
}

func TestLayout_IsolatedFromBuilder(t *testing.T) {
	b := NewLayout[stat]("Sheet").
		Column(func(c *ColumnBuilder[stat]) {
			c.Label("ID").Value(func(s stat) Value { return Text(s.ID) })
		})
	layout, err := b.Build()
	require.NoError(t, err)

	b.Column(func(c *ColumnBuilder[stat]) {
		c.Label("Later").Value(func(s stat) Value { return Text(s.ID) })
	})
	assert.Equal(t, 1, layout.Width())

	cols := layout.MainSection()
	cols[0] = Column[stat]{}
	assert.Equal(t, "ID", layout.MainSection()[0].Label())
}

func TestColumn_EffectiveWidth(t *testing.T) {
	render := func(*CellWriter, stat) error { return nil }
	tests := []struct {
		name     string
		label    string
		minWidth int
		want     int
	}{
		{"label wider", "Description", 4, 13},
		{"min wider", "ID", 36, 38},
		{"wide runes", "名前", 0, 6},
		{"capped", "x", 400, MaxColumnWidth},
		{"long label capped", strings.Repeat("a", 300), 0, MaxColumnWidth},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewColumn[stat](tt.label, tt.minWidth, render)
			assert.Equal(t, tt.want, c.EffectiveWidth())
		})
	}
}

func TestColumnGroup(t *testing.T) {
	g := NewGroup[stat]("Empty")
	assert.True(t, g.IsEmpty())
	assert.Equal(t, 0, g.Len())

	c := NewColumn[stat]("a", 0, func(*CellWriter, stat) error { return nil })
	g = NewGroup("Full", c, c)
	assert.False(t, g.IsEmpty())
	assert.Equal(t, 2, g.Len())
	assert.Equal(t, "Full", g.Label())
	assert.Len(t, g.Columns(), 2)
}
