package tabular

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProject(t *testing.T) {
	allow := AllowList{"SKU", "Region", "PricePerUnit"}

	t.Run("drops columns outside the allow-list", func(t *testing.T) {
		doc := Document{
			Source:  "AmazonEC2/us-east-1",
			Columns: []string{"SKU", "Region", "PricePerUnit", "Extra"},
			Rows: []Row{
				{"SKU": "A1", "Region": "us-east-1", "PricePerUnit": "0.02", "Extra": "x"},
			},
		}

		out := Project(doc, allow)
		require.Equal(t, []string{"SKU", "Region", "PricePerUnit"}, out.Columns)
		require.Len(t, out.Rows, 1)
		assert.Equal(t, Row{"SKU": "A1", "Region": "us-east-1", "PricePerUnit": "0.02"}, out.Rows[0])
		assert.Equal(t, "AmazonEC2/us-east-1", out.Source)
	})

	t.Run("fills missing allow-listed columns with empty cells", func(t *testing.T) {
		doc := Document{
			Columns: []string{"SKU"},
			Rows:    []Row{{"SKU": "B2"}},
		}

		out := Project(doc, allow)
		assert.Equal(t, []string{"SKU", "Region", "PricePerUnit"}, out.Columns)
		assert.Equal(t, Row{"SKU": "B2", "Region": "", "PricePerUnit": ""}, out.Rows[0])
	})

	t.Run("preserves row count and order", func(t *testing.T) {
		doc := Document{
			Columns: []string{"SKU"},
			Rows:    []Row{{"SKU": "1"}, {"SKU": "2"}, {"SKU": "3"}},
		}

		out := Project(doc, allow)
		require.Equal(t, doc.RowCount(), out.RowCount())
		for i, row := range out.Rows {
			assert.Equal(t, doc.Rows[i]["SKU"], row["SKU"])
		}
	})

	t.Run("is idempotent", func(t *testing.T) {
		doc := Document{
			Columns: []string{"SKU", "Extra"},
			Rows:    []Row{{"SKU": "A1", "Extra": "x"}, {"SKU": "A2"}},
		}

		once := Project(doc, allow)
		twice := Project(once, allow)
		assert.Equal(t, once, twice)
	})

	t.Run("empty allow-list yields empty rows, same row count", func(t *testing.T) {
		doc := Document{
			Columns: []string{"SKU"},
			Rows:    []Row{{"SKU": "A1"}, {"SKU": "A2"}},
		}

		out := Project(doc, AllowList{})
		assert.Empty(t, out.Columns)
		require.Len(t, out.Rows, 2)
		assert.Empty(t, out.Rows[0])
	})

	t.Run("empty document projects cleanly", func(t *testing.T) {
		out := Project(Document{}, allow)
		assert.Equal(t, []string{"SKU", "Region", "PricePerUnit"}, out.Columns)
		assert.Empty(t, out.Rows)
	})
}

func TestAllowListContains(t *testing.T) {
	allow := AllowList{"SKU", "PricePerUnit"}
	assert.True(t, allow.Contains("SKU"))
	assert.False(t, allow.Contains("Region"))
	assert.False(t, AllowList{}.Contains("SKU"))
}
