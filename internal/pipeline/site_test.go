package pipeline_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"go-league-sync/internal/config"
	"go-league-sync/internal/fetch"
)

type row struct {
	id         string
	home, away string
	hs, as     int
}

type frameRow struct {
	home, away string
	homeWon    bool
	bd, ff     bool
}

// site 模拟一个联赛计分站点：积分榜/球队赛果/比赛详情/赛程四类页面。
type site struct {
	mu       sync.Mutex
	teams    []string
	results  map[string][]row
	frames   map[string][]frameRow
	fixtures string
	hits     map[string]int
	down     bool
}

func newSite() *site {
	return &site{
		teams: []string{"Rovers A", "Kings Head", "Foxes"},
		results: map[string][]row{
			"Rovers A": {
				{"101", "Rovers A", "Kings Head", 7, 3},
				{"103", "Foxes", "Rovers A", 4, 6},
				{"104", "Rovers A", "Strangers", 6, 4},
				{"105", "Rovers A", "Foxes", 0, 0},
			},
			"Kings Head": {
				{"101", "Rovers A", "Kings Head", 7, 3},
				{"102", "Kings Head", "Foxes", 5, 5},
			},
			"Foxes": {
				{"103", "Foxes", "Rovers A", 4, 6},
				{"102", "Kings Head", "Foxes", 5, 5},
			},
		},
		frames: map[string][]frameRow{
			"101": {
				{"Bob Smyth", "Ann Lee", true, true, false},
				{"James Collier &amp; Shaun Jones", "Pat O&#39;Neill &amp; Ann Lee", true, false, false},
				{"Bob Smith", "Pat O'Neill", false, false, true},
			},
			"102": {
				{"Pat O'Neill", "Zed Ray", false, false, false},
			},
			"103": {
				{"Zed Ray", "Bob  Smith", false, true, false},
				{"Zed Ray", "Shaun Jones", true, false, false},
			},
		},
		fixtures: `<table>
<tr><td>07/03/26</td><td>19:30</td><td>Rovers A</td><td>v</td><td>Kings Head</td></tr>
<tr><td>14-03-2026</td><td>Foxes</td><td>vs</td><td>Rovers A</td></tr>
</table>`,
		hits: map[string]int{},
	}
}

func (s *site) hit(page string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[page]
}

func (s *site) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page := q.Get("page")
	s.mu.Lock()
	s.hits[page]++
	down := s.down
	s.mu.Unlock()

	var b strings.Builder
	b.WriteString("<html><body>")
	switch {
	case down:
		b.WriteString("<p>Site under maintenance</p>")
	case page == "table":
		b.WriteString("<table><tr><th>Pos</th><th>Team</th><th>Pts</th></tr>")
		for i, t := range s.teams {
			fmt.Fprintf(&b, `<tr><td>%d</td><td><a href="index.php?page=team&amp;team=%s">%s</a></td><td>%d</td></tr>`, i+1, t, t, 30-i)
		}
		b.WriteString("</table>")
	case page == "team":
		b.WriteString("<table>")
		for _, m := range s.results[q.Get("team")] {
			fmt.Fprintf(&b, `<tr><td>%s</td><td>%d</td><td>%d</td><td>%s</td><td><a href="index.php?page=match&amp;id=%s">View</a></td></tr>`,
				m.home, m.hs, m.as, m.away, m.id)
		}
		b.WriteString("</table>")
	case page == "match":
		b.WriteString("<table><tr><th>#</th><th>Home</th><th>Away</th><th>H</th><th>A</th><th>BD</th><th>FF</th></tr>")
		for i, f := range s.frames[q.Get("id")] {
			fmt.Fprintf(&b, "<tr><td>%d</td><td>%s</td><td>%s</td><td>%s</td><td>%s</td><td>%s</td><td>%s</td></tr>",
				i+1, f.home, f.away, mark(f.homeWon), mark(!f.homeWon), mark(f.bd), mark(f.ff))
		}
		b.WriteString("</table>")
	case page == "fixtures":
		b.WriteString(s.fixtures)
	default:
		http.NotFound(w, r)
		return
	}
	b.WriteString("</body></html>")
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(b.String()))
}

func mark(v bool) string {
	if v {
		return "&#10003;"
	}
	return ""
}

func noSleep(context.Context, time.Duration) error { return nil }

func newFetcher(t *testing.T) *fetch.Client {
	t.Helper()
	cl, err := fetch.New(fetch.Options{Timeout: 5 * time.Second, BaseDelay: time.Second, Sleep: noSleep})
	require.NoError(t, err)
	return cl
}

// testLeague 通过 Validate 补齐页面模板等默认值。
func testLeague(t *testing.T, baseURL, key, outDir string) config.League {
	t.Helper()
	c := config.Config{Leagues: []config.League{{
		Key:         key,
		Site:        key + "2025",
		BaseURL:     baseURL + "/index.php",
		StoreLeague: key,
		StoreSeason: "2025-26",
		Name:        strings.ToUpper(key),
		OutputDir:   outDir,
		Divisions:   []config.Division{{Code: "SD1", Group: "Sunday Division 1"}},
		TeamRemap:   map[string]string{"Rovers A": "Rovers"},
	}}}
	require.NoError(t, c.Validate())
	return c.Leagues[0]
}

func serve(t *testing.T, s *site) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(s)
	t.Cleanup(srv.Close)
	return srv
}
