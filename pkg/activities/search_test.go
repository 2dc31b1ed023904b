package activities

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rhuss/outings/pkg/api"
	"github.com/rhuss/outings/pkg/storage/memory"
)

func sample() []api.Activity {
	return []api.Activity{
		{Name: "Free Comedy Night", Location: "East Village", Description: "Stand-up", Price: "Free", Source: "theskint", Category: "Comedy"},
		{Name: "Jazz at the Vanguard", Location: "West Village", Description: "Live jazz trio", Price: "$35 cover", Source: "timeout", Category: "Music"},
		{Name: "Brooklyn Flea", Location: "Williamsburg, Brooklyn", Description: "Outdoor market", Price: "", Source: "eventbrite", Category: "Outdoor"},
		{Name: "Gallery Opening", Location: "Chelsea", Description: "Contemporary art", Price: "$10", Source: "eventbrite", Category: "Arts"},
	}
}

func ptr[T any](v T) *T { return &v }

func TestMatch(t *testing.T) {
	tests := []struct {
		name string
		q    Query
		want []string
	}{
		{"query on name", Query{Query: "jazz"}, []string{"Jazz at the Vanguard"}},
		{"query on description", Query{Query: "MARKET"}, []string{"Brooklyn Flea"}},
		{"query on category", Query{Query: "arts"}, []string{"Gallery Opening"}},
		{"empty query keeps all", Query{}, []string{"Free Comedy Night", "Jazz at the Vanguard", "Brooklyn Flea", "Gallery Opening"}},
		{"category filter", Query{Filters: Filters{Category: "mus"}}, []string{"Jazz at the Vanguard"}},
		{"max price keeps free and empty", Query{Filters: Filters{MaxPrice: ptr(15.0)}}, []string{"Free Comedy Night", "Brooklyn Flea", "Gallery Opening"}},
		{"source filter", Query{Filters: Filters{Source: "event"}}, []string{"Brooklyn Flea", "Gallery Opening"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Match(sample(), tt.q)
			names := make([]string, 0, len(got))
			for _, a := range got {
				names = append(names, a.Name)
			}
			assert.Equal(t, tt.want, names)
		})
	}
}

func TestWithinPrice(t *testing.T) {
	assert.True(t, withinPrice("", 0))
	assert.True(t, withinPrice("FREE", 0))
	assert.True(t, withinPrice("$20-$40", 20))
	assert.False(t, withinPrice("$21", 20))
	assert.False(t, withinPrice("donation", 20))
}

func TestFilterByLocation(t *testing.T) {
	got := FilterByLocation(sample(), "Brooklyn", "")
	require.Len(t, got, 1)
	assert.Equal(t, "Brooklyn Flea", got[0].Name)

	// Nothing matches: results are left untouched.
	got = FilterByLocation(sample(), "Queens", "")
	assert.Len(t, got, 4)

	// City-wide events always match.
	withCity := append(sample(), api.Activity{Name: "NYC Marathon", Location: "citywide"})
	got = FilterByLocation(withCity, "chelsea", "")
	require.Len(t, got, 2)
	assert.Equal(t, "Gallery Opening", got[0].Name)
	assert.Equal(t, "NYC Marathon", got[1].Name)
}

func TestSearch_EmptyCacheNotice(t *testing.T) {
	cache := memory.NewActivityCache()

	got, err := Search(context.Background(), cache, Query{Query: "jazz"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "No activities cached yet", got[0].Name)
	assert.Equal(t, "Notice", got[0].Category)
}

func TestSearch_NoMatchNotice(t *testing.T) {
	cache := memory.NewActivityCache()
	require.NoError(t, cache.Replace(context.Background(), sample(), time.Now()))

	got, err := Search(context.Background(), cache, Query{Query: "opera"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "No activities found matching 'opera'", got[0].Name)
	assert.Contains(t, got[0].Description, "There are 4 activities")
}

func TestSearch_Matches(t *testing.T) {
	cache := memory.NewActivityCache()
	require.NoError(t, cache.Replace(context.Background(), sample(), time.Now()))

	got, err := Search(context.Background(), cache, Query{Query: "village", LocationA: "East Village"})
	require.NoError(t, err)
	// "village" matches nothing in name/description/category.
	require.Len(t, got, 1)
	assert.Equal(t, "Notice", got[0].Category)

	got, err = Search(context.Background(), cache, Query{Query: "comedy", LocationA: "East Village"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Free Comedy Night", got[0].Name)
}
