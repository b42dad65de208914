package datastoresource

import (
	"context"
	"os"
	"testing"
	"time"

	"cloud.google.com/go/datastore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToRecord(t *testing.T) {
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rec := toRecord(datastore.PropertyList{
		{Name: "title", Value: "Write report"},
		{Name: "priority", Value: int64(2)},
		{Name: "created_at", Value: created},
		{Name: "list", Value: datastore.NameKey("TaskList", "inbox", nil)},
		{Name: "labels", Value: &datastore.Entity{Properties: []datastore.Property{
			{Name: "team", Value: "core"},
		}}},
		{Name: "tags", Value: []interface{}{"a", datastore.IDKey("Tag", 7, nil)}},
	})

	assert.Equal(t, "Write report", rec["title"])
	assert.Equal(t, int64(2), rec["priority"])
	assert.Equal(t, created, rec["created_at"])
	assert.Equal(t, "inbox", rec["list"])
	assert.Equal(t, map[string]interface{}{"team": "core"}, rec["labels"])
	assert.Equal(t, []interface{}{"a", int64(7)}, rec["tags"])
}

// Runs against the Datastore emulator when DATASTORE_EMULATOR_HOST is set.
func TestSource_Emulator(t *testing.T) {
	if os.Getenv("DATASTORE_EMULATOR_HOST") == "" {
		t.Skip("DATASTORE_EMULATOR_HOST not set")
	}
	ctx := context.Background()
	client, err := NewClient(ctx, "sheetexport-test")
	require.NoError(t, err)
	defer client.Close()

	kind := "Task" + time.Now().Format("150405.000000")
	for _, name := range []string{"a", "b"} {
		_, err := client.Put(ctx, datastore.NameKey(kind, name, nil), &datastore.PropertyList{
			{Name: "title", Value: "task " + name},
		})
		require.NoError(t, err)
	}

	src, err := New(ctx, client, KindQuery(kind).Order("__key__"), WithCount())
	require.NoError(t, err)
	require.NotNil(t, src.EstimatedSize())
	assert.Equal(t, int64(2), *src.EstimatedSize())

	rec, ok, err := src.Next(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "a", rec[KeyField])
	assert.Equal(t, "task a", rec["title"])
}
