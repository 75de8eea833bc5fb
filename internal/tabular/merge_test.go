package tabular

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMerge(t *testing.T) {
	t.Run("header is the first-seen union of input headers", func(t *testing.T) {
		a := Document{
			Columns: []string{"SKU", "Region"},
			Rows:    []Row{{"SKU": "A1", "Region": "us-east-1"}},
		}
		b := Document{
			Columns: []string{"SKU", "Region", "PricePerUnit"},
			Rows:    []Row{{"SKU": "B1", "Region": "eu-west-1", "PricePerUnit": "0.05"}},
		}

		merged := Merge([]Document{a, b})
		require.Equal(t, []string{"SKU", "Region", "PricePerUnit"}, merged.Columns)
		require.Len(t, merged.Rows, 2)
		assert.Equal(t, "", merged.Rows[0].Get("PricePerUnit"))
		assert.Equal(t, "0.05", merged.Rows[1].Get("PricePerUnit"))
	})

	t.Run("row count is the sum and order groups by document", func(t *testing.T) {
		docs := []Document{
			{Columns: []string{"SKU"}, Rows: []Row{{"SKU": "a1"}, {"SKU": "a2"}}},
			{Columns: []string{"SKU"}},
			{Columns: []string{"SKU"}, Rows: []Row{{"SKU": "c1"}, {"SKU": "c2"}, {"SKU": "c3"}}},
		}

		merged := Merge(docs)
		require.Len(t, merged.Rows, 5)
		want := []string{"a1", "a2", "c1", "c2", "c3"}
		for i, sku := range want {
			assert.Equal(t, sku, merged.Rows[i]["SKU"])
		}
	})

	t.Run("empty input yields empty header and no rows", func(t *testing.T) {
		merged := Merge(nil)
		assert.Empty(t, merged.Columns)
		assert.Empty(t, merged.Rows)
	})

	t.Run("zero-row document still contributes its columns", func(t *testing.T) {
		docs := []Document{
			{Columns: []string{"SKU"}, Rows: []Row{{"SKU": "a1"}}},
			{Columns: []string{"SKU", "Unit"}},
		}

		merged := Merge(docs)
		assert.Equal(t, []string{"SKU", "Unit"}, merged.Columns)
		assert.Len(t, merged.Rows, 1)
	})
}

func TestMergerIncremental(t *testing.T) {
	docs := []Document{
		{Columns: []string{"SKU", "Unit"}, Rows: []Row{{"SKU": "a", "Unit": "Hrs"}}},
		{Columns: []string{"SKU", "PricePerUnit"}, Rows: []Row{{"SKU": "b", "PricePerUnit": "1"}}},
	}

	m := NewMerger()
	for _, doc := range docs {
		m.Add(doc)
	}

	assert.Equal(t, 2, m.RowCount())
	assert.Equal(t, Merge(docs), m.Document())
}
