package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-league-sync/internal/config"
)

const baseYAML = `
LEAGUES:
  - key: wpl
    site: wpl2025
    base_url: https://scores.example.org/index.php
    store_league: wpl
    store_season: 2025-26
    name: Wessex Pool League
    output_dir: ./data/wpl
    divisions:
      - code: SD1
        group: Sunday Division 1
    team_remap:
      "Rovers A": "Rovers"
THROTTLE:
  base_delay: 2s
  batch_size: 10
  batch_pause_min: 10s
  batch_pause_max: 60s
  league_pause: 2m
FETCH:
  max_retries: 4
  rate_limit_backoff: [10s, 20s, 40s, 60s]
`

const minimalYAML = baseYAML + "LEGACY_LEAGUE: wpl\n"

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	f := filepath.Join(t.TempDir(), "leagues.yaml")
	require.NoError(t, os.WriteFile(f, []byte(body), 0o644))
	return f
}

func TestConfig_DefaultsAndValidate(t *testing.T) {
	c, err := config.Load(writeConfig(t, minimalYAML))
	require.NoError(t, err)

	assert.Equal(t, "sqlite", c.Database.Type)
	assert.NotEmpty(t, c.Database.DSN)
	assert.Equal(t, config.DefaultUnknownDate, c.UnknownDate)
	assert.Equal(t, 30*time.Second, c.Fetch.Timeout)
	assert.Equal(t, 2*time.Minute, c.Throttle.LeaguePause)
	assert.Equal(t, []time.Duration{10 * time.Second, 20 * time.Second, 40 * time.Second, time.Minute}, c.Fetch.RateLimitBackoff)
	assert.NotEmpty(t, c.LogFormat)
	assert.NotEmpty(t, c.LogLocale)
	assert.NotEmpty(t, c.LogColor)

	lg := c.Leagues[0]
	assert.Equal(t, "wpl", lg.ShortName)
	assert.Equal(t, config.DefaultMatchIDPattern, lg.MatchIDPattern)
}

func TestConfig_EnvOverrides(t *testing.T) {
	t.Setenv("LSYNC_DB_DSN", "/tmp/other.db")
	t.Setenv("LSYNC_UNKNOWN_DATE", "01-09-2025")
	t.Setenv("LSYNC_USER_AGENT", "sync-bot/2")
	c, err := config.Load(writeConfig(t, minimalYAML))
	require.NoError(t, err)
	assert.Equal(t, "/tmp/other.db", c.Database.DSN)
	assert.Equal(t, "01-09-2025", c.UnknownDate)
	assert.Equal(t, "sync-bot/2", c.Fetch.UserAgent)
}

func TestConfig_RejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"no leagues":       "LEAGUES: []\n",
		"missing base_url": "LEAGUES:\n  - key: a\n    site: s\n    store_league: a\n    store_season: x\n    name: A\n    output_dir: ./a\n    divisions: [{code: D1, group: G}]\n",
		"unknown legacy":   baseYAML + "LEGACY_LEAGUE: nope\n",
		"bad db type":      minimalYAML + "\nDATABASE: {type: mongo}\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := config.Load(writeConfig(t, body))
			assert.Error(t, err)
		})
	}
}

const noThrottleYAML = `
LEAGUES:
  - key: wpl
    site: wpl2025
    base_url: https://scores.example.org/index.php
    store_league: wpl
    store_season: 2025-26
    name: Wessex Pool League
    output_dir: ./data/wpl
    divisions:
      - code: SD1
        group: Sunday Division 1
`

func TestConfig_ThrottleDefaults(t *testing.T) {
	c, err := config.Load(writeConfig(t, noThrottleYAML))
	require.NoError(t, err)
	assert.Equal(t, config.Throttle{
		BaseDelay:     2 * time.Second,
		BatchSize:     10,
		BatchPauseMin: 10 * time.Second,
		BatchPauseMax: 60 * time.Second,
		LeaguePause:   120 * time.Second,
	}, c.Throttle)

	// 只配置了较长的批量暂停时，联赛间暂停随之拉长
	c, err = config.Load(writeConfig(t, noThrottleYAML+"THROTTLE: {batch_pause_max: 90s}\n"))
	require.NoError(t, err)
	assert.Equal(t, 180*time.Second, c.Throttle.LeaguePause)
	assert.Greater(t, c.Throttle.LeaguePause, c.Throttle.BatchPauseMax)
}

func TestConfig_RejectsShortLeaguePause(t *testing.T) {
	_, err := config.Load(writeConfig(t, noThrottleYAML+"THROTTLE: {batch_pause_max: 60s, league_pause: 30s}\n"))
	assert.ErrorContains(t, err, "league_pause")
}

func TestConfig_MissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.ErrorContains(t, err, "open config")
}

func TestConfig_FrameLayout(t *testing.T) {
	body := noThrottleYAML + `    frame_layout:
      home: 0
      away: 1
      home_won: 2
      away_won: 3
      min_cells: 4
      marks: ["x"]
`
	c, err := config.Load(writeConfig(t, body))
	require.NoError(t, err)
	require.NotNil(t, c.Leagues[0].FrameLayout)
	assert.Equal(t, 4, c.Leagues[0].FrameLayout.MinCells)
	assert.Equal(t, []string{"x"}, c.Leagues[0].FrameLayout.Marks)

	marksOnly := noThrottleYAML + "    frame_layout: {marks: [\"x\"]}\n"
	_, err = config.Load(writeConfig(t, marksOnly))
	require.NoError(t, err)

	bad := noThrottleYAML + "    frame_layout: {home: 1, away: 1, home_won: 2, away_won: 3, min_cells: 4}\n"
	_, err = config.Load(writeConfig(t, bad))
	assert.ErrorContains(t, err, "frame_layout")

	outside := noThrottleYAML + "    frame_layout: {home: 0, away: 1, home_won: 2, away_won: 5, min_cells: 4}\n"
	_, err = config.Load(writeConfig(t, outside))
	assert.Error(t, err)
}

func TestConfig_Select(t *testing.T) {
	c, err := config.Load(writeConfig(t, minimalYAML))
	require.NoError(t, err)

	all, err := c.Select("all")
	require.NoError(t, err)
	assert.Len(t, all, 1)

	one, err := c.Select("WPL")
	require.NoError(t, err)
	assert.Equal(t, "wpl", one[0].Key)

	_, err = c.Select("missing")
	assert.Error(t, err)
}

func TestLeague_URLs(t *testing.T) {
	c, err := config.Load(writeConfig(t, minimalYAML))
	require.NoError(t, err)
	lg := c.Leagues[0]
	div := lg.Divisions[0]

	assert.Equal(t, "https://scores.example.org/index.php?site=wpl2025&page=table&group=Sunday+Division+1", lg.StandingsURL(div))
	// 映射后的队名在寻址时还原为站点原名
	assert.Equal(t, "https://scores.example.org/index.php?site=wpl2025&page=team&group=Sunday+Division+1&team=Rovers+A", lg.TeamURL(div, "Rovers"))
	assert.Equal(t, "https://scores.example.org/index.php?site=wpl2025&page=match&id=123", lg.MatchURL("123"))
	assert.Equal(t, "https://scores.example.org/index.php?site=wpl2025&page=fixtures&group=Sunday+Division+1", lg.FixturesURL(div))

	m := lg.MatchIDRegexp().FindStringSubmatch("result.php?id=987&x=1")
	require.Len(t, m, 2)
	assert.Equal(t, "987", m[1])
}
