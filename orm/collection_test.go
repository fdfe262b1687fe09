package orm

import (
	"encoding/json/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type widget struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func (w *widget) GetID() string { return w.ID }

func TestOrderedCollectionPreservesInsertionOrder(t *testing.T) {
	coll := NewEmptyOrderedCollection[*widget, string]()
	coll.Add(&widget{ID: "c", Name: "third"})
	coll.Add(&widget{ID: "a", Name: "first"})
	coll.Add(&widget{ID: "b", Name: "second"})

	assert.Equal(t, 3, coll.Len())
	assert.Equal(t, []string{"c", "a", "b"}, coll.IDs())

	items := coll.Items()
	require.Len(t, items, 3)
	assert.Equal(t, "third", items[0].Name)
	assert.Equal(t, "second", items[2].Name)
}

func TestCollectionAddReplacesWithoutDuplicatingOrder(t *testing.T) {
	coll := NewEmptyOrderedCollection[*widget, string]()
	coll.Add(&widget{ID: "a", Name: "old"})
	coll.Add(&widget{ID: "a", Name: "new"})

	assert.Equal(t, 1, coll.Len())
	assert.Equal(t, []string{"a"}, coll.IDs())
	item, ok := coll.Find("a")
	require.True(t, ok)
	assert.Equal(t, "new", item.Name)
}

func TestCollectionFindAndHas(t *testing.T) {
	coll := NewOrderedCollection[*widget, string]([]*widget{{ID: "a"}, {ID: "b"}})

	assert.True(t, coll.Has("a"))
	assert.False(t, coll.Has("z"))
	_, ok := coll.Find("z")
	assert.False(t, ok)
}

func TestCollectionMarshalsAsOrderedArray(t *testing.T) {
	coll := NewEmptyOrderedCollection[*widget, string]()
	coll.Add(&widget{ID: "b", Name: "two"})
	coll.Add(&widget{ID: "a", Name: "one"})

	data, err := json.Marshal(coll)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"b","name":"two"},{"id":"a","name":"one"}]`, string(data))
}
