package domain

import (
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseIDList(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    []int64
		wantErr bool
	}{
		{name: "empty", raw: "", want: nil},
		{name: "whitespace", raw: "   ", want: nil},
		{name: "single", raw: "7", want: []int64{7}},
		{name: "several", raw: "3,1,2", want: []int64{3, 1, 2}},
		{name: "spaces around tokens", raw: " 3 , 4 ", want: []int64{3, 4}},
		{name: "blank tokens skipped", raw: "1,,2,", want: []int64{1, 2}},
		{name: "duplicates dropped", raw: "5,5,6,5", want: []int64{5, 6}},
		{name: "non-integer", raw: "1,abc", wantErr: true},
		{name: "zero", raw: "0", wantErr: true},
		{name: "negative", raw: "-4", wantErr: true},
		{name: "float", raw: "1.5", wantErr: true},
		{name: "overflow", raw: "99999999999999999999", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseIDList(tt.raw)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseIDList_Limit(t *testing.T) {
	ids := make([]string, 0, MaxIDList+1)
	for i := 1; i <= MaxIDList; i++ {
		ids = append(ids, strconv.Itoa(i))
	}

	got, err := ParseIDList(strings.Join(ids, ","))
	require.NoError(t, err)
	assert.Len(t, got, MaxIDList)

	// Repeats do not count against the limit.
	got, err = ParseIDList(strings.Join(ids, ",") + ",1,2")
	require.NoError(t, err)
	assert.Len(t, got, MaxIDList)

	ids = append(ids, strconv.Itoa(MaxIDList+1))
	_, err = ParseIDList(strings.Join(ids, ","))
	assert.Error(t, err)
}

func TestUniqueIDs(t *testing.T) {
	assert.Nil(t, UniqueIDs(nil))
	assert.Equal(t, []int64{}, UniqueIDs([]int64{}))
	assert.Equal(t, []int64{2, 1}, UniqueIDs([]int64{2, 1, 2, 1}))
}

func TestRecipe_AssociationIDs(t *testing.T) {
	r := Recipe{
		Tags:        []Tag{{ID: 4}, {ID: 2}},
		Ingredients: []Ingredient{{ID: 9}},
	}

	assert.Equal(t, []int64{4, 2}, r.TagIDs())
	assert.Equal(t, []int64{9}, r.IngredientIDs())
	assert.Empty(t, (&Recipe{}).TagIDs())
}

func TestTimestamps(t *testing.T) {
	var ts Timestamps
	ts.InitTimestamps()
	require.False(t, ts.CreatedAt.IsZero())
	assert.Equal(t, ts.CreatedAt, ts.UpdatedAt)

	before := ts.UpdatedAt
	ts.Touch()
	assert.False(t, ts.UpdatedAt.Before(before))
}
