package csvsink

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/locvowork/sheetexport/pkg/sheetexport"
)

type order struct {
	ID     string
	Placed time.Time
	Total  float64
	Paid   bool
	Note   *string
}

func TestSheet_RendersLayout(t *testing.T) {
	layout, err := sheetexport.NewLayout[order]("Orders").
		Column(func(c *sheetexport.ColumnBuilder[order]) {
			c.Label("ID").Value(func(o order) sheetexport.Value { return sheetexport.Identifier(o.ID) })
		}).
		Column(func(c *sheetexport.ColumnBuilder[order]) {
			c.Label("Placed").Value(func(o order) sheetexport.Value { return sheetexport.Timestamp(o.Placed) })
		}).
		Group(func(g *sheetexport.GroupBuilder[order]) {
			g.Label("Payment").
				Column(func(c *sheetexport.ColumnBuilder[order]) {
					c.Label("Total").Value(func(o order) sheetexport.Value { return sheetexport.Float(o.Total) })
				}).
				Column(func(c *sheetexport.ColumnBuilder[order]) {
					c.Label("Paid").Value(func(o order) sheetexport.Value { return sheetexport.Boolean(o.Paid) })
				}).
				Column(func(c *sheetexport.ColumnBuilder[order]) {
					c.Label("Note").Value(func(o order) sheetexport.Value {
						return sheetexport.OptLink(o.Note, "https://example.com")
					})
				})
		}).
		Build()
	require.NoError(t, err)

	reg, err := sheetexport.NewStyleRegistry(Document{})
	require.NoError(t, err)

	var buf bytes.Buffer
	sheet := NewSheet(&buf)
	w, err := sheetexport.NewSheetWriter(sheet, reg, layout)
	require.NoError(t, err)

	note := "rush, gift"
	placed := time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)
	require.NoError(t, w.Export(context.Background(), sheetexport.FromSlice([]order{
		{ID: "o-1", Placed: placed, Total: 12.5, Paid: true, Note: &note},
		{ID: "o-2", Placed: placed, Total: 3},
	})))
	require.NoError(t, sheet.Flush())

	want := ",,Payment\n" +
		"ID,Placed,Total,Paid,Note\n" +
		"o-1,2024-05-06 07:08:09,12.5,true,\"rush, gift\"\n" +
		"o-2,2024-05-06 07:08:09,3,false\n"
	assert.Equal(t, want, buf.String())
}

func TestSheet_RowsMustAscend(t *testing.T) {
	sheet := NewSheet(&bytes.Buffer{})
	require.NoError(t, sheet.CreateRow(0))
	assert.Error(t, sheet.CreateRow(0))
	assert.Error(t, sheet.SetCell(3, 0, sheetexport.CellValue{}))
}

func TestSheet_GapsAreEmptyLines(t *testing.T) {
	var buf bytes.Buffer
	sheet := NewSheet(&buf)
	require.NoError(t, sheet.CreateRow(0))
	require.NoError(t, sheet.SetCell(0, 0, sheetexport.CellValue{String: "a"}))
	require.NoError(t, sheet.CreateRow(2))
	require.NoError(t, sheet.SetCell(2, 1, sheetexport.CellValue{String: "b"}))
	require.NoError(t, sheet.Flush())

	assert.Equal(t, "a\n\n,b\n", buf.String())
}
