package pipeline_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-league-sync/internal/backup"
	"go-league-sync/internal/identity"
	"go-league-sync/internal/model"
	"go-league-sync/internal/persist"
	"go-league-sync/internal/pipeline"
)

const sentinel = "01-01-2026"

func newSyncer(t *testing.T) *pipeline.Syncer {
	t.Helper()
	return pipeline.NewSyncer(pipeline.Deps{
		Fetcher: newFetcher(t),
		Normalizer: identity.NewNormalizer(identity.StaticLoader(&identity.Corrections{
			Aliases: map[string]string{"Bob Smyth": "Bob Smith"},
		})),
		Writer: persist.NewWriter(nil, "", nil),
	})
}

func readBackups(t *testing.T, dir string) map[string]string {
	t.Helper()
	out := map[string]string{}
	for _, name := range backup.Files() {
		b, err := os.ReadFile(filepath.Join(dir, name))
		require.NoError(t, err)
		out[name] = string(b)
	}
	return out
}

func TestSync_EndToEndAndIdempotent(t *testing.T) {
	s := newSite()
	srv := serve(t, s)
	dir := filepath.Join(t.TempDir(), "wpl")
	lg := testLeague(t, srv.URL, "wpl", dir)

	// 上一轮留下的赛程：用于给本轮赛果补日期
	require.NoError(t, backup.Write(dir, model.Bundle{Fixtures: []model.Fixture{
		{Date: "10-01-2026", Home: "Rovers", Away: "Kings Head", Division: "SD1"},
		{Date: "17-01-2026", Home: "Foxes", Away: "Rovers", Division: "SD1"},
	}}))

	rep := newSyncer(t).Sync(context.Background(), lg, pipeline.Options{UnknownDate: sentinel})
	require.True(t, rep.Success, rep.Error)
	assert.Equal(t, 3, rep.Results)
	assert.Equal(t, 2, rep.Fixtures)
	assert.Equal(t, 3, rep.Frames)
	assert.Equal(t, 3, rep.NewFrames)
	assert.Zero(t, rep.SkippedFrames)
	assert.Equal(t, 1, rep.CrossLeagueFiltered)
	assert.Equal(t, 1, rep.UnresolvedDates)
	assert.Equal(t, 8, rep.Requests)

	got, err := backup.Load(dir)
	require.NoError(t, err)
	ids := map[string]bool{}
	dates := map[string]string{}
	for _, r := range got.Results {
		assert.False(t, ids[r.MatchID], "duplicate match id %s", r.MatchID)
		ids[r.MatchID] = true
		dates[r.MatchID] = r.Date
		assert.NotEqual(t, "Strangers", r.Away)
	}
	assert.Equal(t, map[string]string{"101": "10-01-2026", "102": sentinel, "103": "17-01-2026"}, dates)
	assert.Equal(t, 3, got.PlayerStats["Bob Smith"].Total.Played)
	assert.Equal(t, []string{"Bob Smith", "James Collier", "Shaun Jones"}, got.Rosters["SD1:Rovers"])
	first := readBackups(t, dir)

	// 第二次运行：源站未变，详情全部跳过，备份逐字节一致
	rep2 := newSyncer(t).Sync(context.Background(), lg, pipeline.Options{UnknownDate: sentinel})
	require.True(t, rep2.Success, rep2.Error)
	assert.Equal(t, 3, rep2.SkippedFrames)
	assert.Zero(t, rep2.NewFrames)
	assert.Equal(t, 3, s.hit("match"), "persisted match detail must not be re-fetched")
	assert.Equal(t, first, readBackups(t, dir))
}

func TestSync_FullResyncRefetches(t *testing.T) {
	s := newSite()
	srv := serve(t, s)
	lg := testLeague(t, srv.URL, "wpl", t.TempDir())

	require.True(t, newSyncer(t).Sync(context.Background(), lg, pipeline.Options{}).Success)
	rep := newSyncer(t).Sync(context.Background(), lg, pipeline.Options{Full: true})
	require.True(t, rep.Success, rep.Error)
	assert.Equal(t, 3, rep.NewFrames)
	assert.Equal(t, 6, s.hit("match"))
}

func TestSync_PartialScrapeKeepsPriorData(t *testing.T) {
	s := newSite()
	s.down = true
	srv := serve(t, s)
	dir := t.TempDir()
	lg := testLeague(t, srv.URL, "wpl", dir)

	prior := &model.Bundle{
		Results:     []model.Result{{Date: "10-01-2026", Home: "Rovers", Away: "Kings Head", HomeScore: 7, AwayScore: 3, Division: "SD1", FrameCount: 10, MatchID: "101"}},
		Rosters:     model.Rosters{"SD1:Rovers": {"Bob Smith"}},
		PlayerStats: model.PlayerStats{"Bob Smith": {Teams: []model.TeamStat{{Team: "Rovers", Division: "SD1", Played: 4, Won: 3, WinPct: 75}}, Total: model.Totals{Played: 4, Won: 3, WinPct: 75}}},
	}
	rep := newSyncer(t).Sync(context.Background(), lg, pipeline.Options{Existing: prior})
	require.True(t, rep.Success, rep.Error)
	assert.ElementsMatch(t, []string{"results", "rosters", "players"}, rep.Preserved)

	got, err := backup.Load(dir)
	require.NoError(t, err)
	assert.Equal(t, prior.PlayerStats, got.PlayerStats)
	assert.Equal(t, prior.Rosters, got.Rosters)
	assert.Equal(t, prior.Results, got.Results)
}

type failingFetcher struct{ calls int }

func (f *failingFetcher) Get(context.Context, string, string) (string, error) {
	f.calls++
	return "", assert.AnError
}

func (f *failingFetcher) Requests() int { return f.calls }

func TestSync_StageErrorProducesFailedReport(t *testing.T) {
	lg := testLeague(t, "https://scores.invalid", "wpl", t.TempDir())
	s := pipeline.NewSyncer(pipeline.Deps{Fetcher: &failingFetcher{}})
	rep := s.Sync(context.Background(), lg, pipeline.Options{})
	assert.False(t, rep.Success)
	assert.Contains(t, rep.Error, "standings SD1")
	assert.Equal(t, 1, rep.Requests)
}

type countingBatch struct{ ticks int }

func (b *countingBatch) Tick(context.Context) (time.Duration, error) {
	b.ticks++
	return 0, nil
}

func TestSync_BatchTicksPerDetailFetch(t *testing.T) {
	srv := serve(t, newSite())
	lg := testLeague(t, srv.URL, "wpl", t.TempDir())
	b := &countingBatch{}
	s := pipeline.NewSyncer(pipeline.Deps{
		Fetcher:  newFetcher(t),
		NewBatch: func() pipeline.Ticker { return b },
		Writer:   persist.NewWriter(nil, "", nil),
	})
	rep := s.Sync(context.Background(), lg, pipeline.Options{DryRun: true})
	require.True(t, rep.Success, rep.Error)
	assert.Equal(t, 3, b.ticks)
}
