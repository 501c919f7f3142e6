package pagination

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type row struct{ ID string }

func TestTrim(t *testing.T) {
	rows := []*row{{ID: "3"}, {ID: "2"}, {ID: "1"}}

	page, info, err := Trim(rows, 2, func(r *row) string { return r.ID })
	require.NoError(t, err)
	require.Len(t, page, 2)
	require.True(t, info.HasMore)

	cursor, err := DecodeCursor(info.NextCursor)
	require.NoError(t, err)
	require.Equal(t, "2", cursor.ID)

	page, info, err = Trim(rows, 5, func(r *row) string { return r.ID })
	require.NoError(t, err)
	require.Len(t, page, 3)
	require.False(t, info.HasMore)
	require.Empty(t, info.NextCursor)
}

func TestNormalize(t *testing.T) {
	require.Equal(t, DefaultLimit, Pagination{}.Normalize().Limit)
	require.Equal(t, MaxLimit, Pagination{Limit: 1000}.Normalize().Limit)
	require.Equal(t, 7, Pagination{Limit: 7}.Normalize().Limit)
}
