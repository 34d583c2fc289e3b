package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ammerola/stockmirror/internal/core/domain"
)

func TestListParams_Normalize(t *testing.T) {
	tests := []struct {
		name   string
		params domain.ListParams
		want   domain.ListParams
	}{
		{
			name:   "zero_value",
			params: domain.ListParams{},
			want: domain.ListParams{
				Page: 1, PageSize: domain.DefaultPageSize,
				SortField: domain.SortByName, SortDirection: domain.SortAsc,
			},
		},
		{
			name: "clamps_page_size",
			params: domain.ListParams{
				Page: 3, PageSize: 10_000, SortField: "stock", SortDirection: domain.SortDesc,
			},
			want: domain.ListParams{
				Page: 3, PageSize: domain.MaxPageSize,
				SortField: domain.SortByStock, SortDirection: domain.SortDesc,
			},
		},
		{
			name: "drops_undefined_filters",
			params: domain.ListParams{
				Page: 1, PageSize: 5, Search: "  bolt ",
				Category: "undefined", Location: " ",
				SortField: "low_stock_threshold", SortDirection: "sideways",
			},
			want: domain.ListParams{
				Page: 1, PageSize: 5, Search: "bolt",
				SortField: domain.SortByLowStockThreshold, SortDirection: domain.SortAsc,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.params.Normalize())
		})
	}
}

func TestListParams_Offset(t *testing.T) {
	p := domain.ListParams{Page: 3, PageSize: 20}
	assert.Equal(t, 40, p.Offset())
}

func TestListParams_KeyDistinguishesRequests(t *testing.T) {
	a := domain.ListParams{Page: 1, PageSize: 20}.Normalize()
	b := domain.ListParams{Page: 1, PageSize: 20, Search: "x"}.Normalize()

	assert.Equal(t, a.Key(), domain.ListParams{}.Normalize().Key())
	assert.NotEqual(t, a.Key(), b.Key())
}

func TestParseSortField_UnknownFallsBackToName(t *testing.T) {
	assert.Equal(t, domain.SortByName, domain.ParseSortField("DROP TABLE"))
	assert.Equal(t, domain.SortByDateAdded, domain.ParseSortField("DateAdded"))
}

func TestPage_Clone(t *testing.T) {
	page := domain.Page{Items: []domain.InventoryItem{{Tags: []string{"a"}}}}

	clone := page.Clone()
	clone.Items[0].Tags[0] = "b"

	assert.Equal(t, "a", page.Items[0].Tags[0])
}
