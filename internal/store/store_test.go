package store_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-league-sync/internal/model"
	"go-league-sync/internal/store"
)

func openTemp(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(context.Background(), store.TypeSQLite, filepath.Join(t.TempDir(), "league.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestOpen_MigrationsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "league.db")
	s1, err := store.Open(context.Background(), store.TypeSQLite, path)
	require.NoError(t, err)
	require.NoError(t, s1.Close())

	s2, err := store.Open(context.Background(), store.TypeSQLite, path)
	require.NoError(t, err)
	require.NoError(t, s2.Close())
}

func TestOpen_UnsupportedType(t *testing.T) {
	_, err := store.Open(context.Background(), "mongo", "x")
	assert.Error(t, err)
}

func TestEnsureLeague_CreatedOnce(t *testing.T) {
	ctx := context.Background()
	s := openTemp(t)
	now := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)

	created, err := s.EnsureLeague(ctx, model.LeagueMeta{League: "wpl", Name: "Wessex Pool League", ShortName: "WPL"}, now)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = s.EnsureLeague(ctx, model.LeagueMeta{League: "wpl", Name: "Renamed", ShortName: "R"}, now.Add(time.Hour))
	require.NoError(t, err)
	assert.False(t, created)

	meta, err := s.League(ctx, "wpl")
	require.NoError(t, err)
	require.NotNil(t, meta)
	assert.Equal(t, "Wessex Pool League", meta.Name)
	assert.Empty(t, meta.Seasons)

	missing, err := s.League(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestUpsertSeason_Overwrites(t *testing.T) {
	ctx := context.Background()
	s := openTemp(t)
	now := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)

	doc := model.SeasonDocument{League: "wpl", Season: "2025-26", UpdatedAt: now,
		Bundle: model.Bundle{Results: []model.Result{{MatchID: "1", Home: "Rovers", Away: "Foxes", HomeScore: 6, AwayScore: 4}}}}
	require.NoError(t, s.UpsertSeason(ctx, doc))

	doc.Bundle.Results = append(doc.Bundle.Results, model.Result{MatchID: "2", Home: "Foxes", Away: "Rovers", HomeScore: 3, AwayScore: 7})
	doc.UpdatedAt = now.Add(time.Hour)
	require.NoError(t, s.UpsertSeason(ctx, doc))

	got, err := s.LoadSeason(ctx, "wpl", "2025-26")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Len(t, got.Bundle.Results, 2)
	assert.True(t, got.UpdatedAt.Equal(now.Add(time.Hour)))

	none, err := s.LoadSeason(ctx, "wpl", "1999-00")
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestUpsertLegacy(t *testing.T) {
	ctx := context.Background()
	s := openTemp(t)
	doc := model.SeasonDocument{League: "wpl", Season: "2025-26", UpdatedAt: time.Now()}
	require.NoError(t, s.UpsertLegacy(ctx, "legacy/wpl", doc))
	require.NoError(t, s.UpsertLegacy(ctx, "legacy/wpl", doc))

	got, err := s.LoadLegacy(ctx, "legacy/wpl")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "wpl", got.League)
}
