package repository

import (
	"context"
	"testing"

	"bountyhub/pkg/db/option"
	"bountyhub/pkg/db/pagination"
	"bountyhub/services/testutil"

	"github.com/stretchr/testify/require"
)

type widget struct {
	ID    string `gorm:"primaryKey"`
	Owner string
	Score int
}

func seed(t *testing.T) Repository[widget] {
	t.Helper()
	db := testutil.NewTestDB(t, &widget{})
	repo := ProvideStore[widget](db)

	require.NoError(t, repo.BatchCreate(context.Background(), []*widget{
		{ID: "1", Owner: "a", Score: 10},
		{ID: "2", Owner: "a", Score: 30},
		{ID: "3", Owner: "b", Score: 20},
	}))
	return repo
}

func TestFindOne_NotFoundIsNil(t *testing.T) {
	repo := seed(t)

	got, err := repo.FindOne(context.Background(), &widget{ID: "missing"})
	require.NoError(t, err)
	require.Nil(t, got)

	got, err = repo.FindOne(context.Background(), &widget{ID: "2"})
	require.NoError(t, err)
	require.Equal(t, 30, got.Score)
}

func TestFind_Options(t *testing.T) {
	repo := seed(t)
	ctx := context.Background()

	rows, err := repo.Find(ctx, &widget{Owner: "a"}, option.WithSortBy(option.QuerySortBy{
		SortBy:  "score",
		OrderBy: "desc",
		Allow:   map[string]bool{"score": true},
	}))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, "2", rows[0].ID)

	rows, err = repo.Find(ctx, nil, option.ApplyOperator(option.Condition{Field: "score", Operator: option.GT, Value: 15}))
	require.NoError(t, err)
	require.Len(t, rows, 2)

	rows, err = repo.Find(ctx, nil, option.WithIn("id", []string{"1", "3"}))
	require.NoError(t, err)
	require.Len(t, rows, 2)

	rows, err = repo.Find(ctx, nil, option.WithIn("id", []string{}))
	require.NoError(t, err)
	require.Empty(t, rows)
}

func TestFind_Pagination(t *testing.T) {
	repo := seed(t)
	ctx := context.Background()

	rows, err := repo.Find(ctx, nil, option.ApplyPagination(pagination.Pagination{Limit: 2}))
	require.NoError(t, err)
	require.Len(t, rows, 3)

	page, info, err := pagination.Trim(rows, 2, func(w *widget) string { return w.ID })
	require.NoError(t, err)
	require.Equal(t, []string{"3", "2"}, []string{page[0].ID, page[1].ID})
	require.True(t, info.HasMore)

	rows, err = repo.Find(ctx, nil, option.ApplyPagination(pagination.Pagination{Limit: 2, Cursor: info.NextCursor}))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, "1", rows[0].ID)
}

func TestUpdateAndCount(t *testing.T) {
	repo := seed(t)
	ctx := context.Background()

	require.NoError(t, repo.Update(ctx, "3", map[string]any{"owner": "a"}))

	n, err := repo.Count(ctx, &widget{Owner: "a"})
	require.NoError(t, err)
	require.Equal(t, int64(3), n)
}
