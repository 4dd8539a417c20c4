package pipeline

import (
	"sort"

	"go-league-sync/internal/extract"
	"go-league-sync/internal/model"
)

// collector 在一次同步内收集赛果：比赛 ID 为唯一键，首次出现者为准。
// 同一场比赛可以从主客两队的页面各发现一次。
type collector struct {
	results map[string]model.Result
	order   []string // 发现顺序
}

func newCollector() *collector {
	return &collector{results: make(map[string]model.Result)}
}

// Add 返回是否为新比赛。
func (c *collector) Add(r model.Result) bool {
	if r.MatchID == "" {
		return false
	}
	if _, ok := c.results[r.MatchID]; ok {
		return false
	}
	c.results[r.MatchID] = r
	c.order = append(c.order, r.MatchID)
	return true
}

func (c *collector) Get(id string) (model.Result, bool) {
	r, ok := c.results[id]
	return r, ok
}

func (c *collector) Set(r model.Result) {
	if _, ok := c.results[r.MatchID]; ok {
		c.results[r.MatchID] = r
	}
}

// IDs 按发现顺序返回比赛 ID。
func (c *collector) IDs() []string {
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}

// Snapshot 返回排好序的副本：日期 → 级别 → 比赛 ID。
func (c *collector) Snapshot() []model.Result {
	out := make([]model.Result, 0, len(c.results))
	for _, id := range c.order {
		out = append(out, c.results[id])
	}
	sortResults(out)
	return out
}

func sortResults(rs []model.Result) {
	sort.SliceStable(rs, func(i, j int) bool {
		if c := compareDates(rs[i].Date, rs[j].Date); c != 0 {
			return c < 0
		}
		if rs[i].Division != rs[j].Division {
			return rs[i].Division < rs[j].Division
		}
		return lessID(rs[i].MatchID, rs[j].MatchID)
	})
}

func sortFixtures(fs []model.Fixture) {
	sort.SliceStable(fs, func(i, j int) bool {
		if c := compareDates(fs[i].Date, fs[j].Date); c != 0 {
			return c < 0
		}
		if fs[i].Division != fs[j].Division {
			return fs[i].Division < fs[j].Division
		}
		if fs[i].Home != fs[j].Home {
			return fs[i].Home < fs[j].Home
		}
		return fs[i].Away < fs[j].Away
	})
}

func sortFrames(ms []model.MatchFrames) {
	sort.SliceStable(ms, func(i, j int) bool { return lessID(ms[i].MatchID, ms[j].MatchID) })
}

// compareDates 比较 DD-MM-YYYY；无法解析的排在最后并按字符串比较。
func compareDates(a, b string) int {
	ta, oka := extract.ParseDate(a)
	tb, okb := extract.ParseDate(b)
	switch {
	case oka && okb:
		return ta.Compare(tb)
	case oka:
		return -1
	case okb:
		return 1
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// lessID 对纯数字 ID 按数值序，其余按字符串序。
func lessID(a, b string) bool {
	if isDigits(a) && isDigits(b) && len(a) != len(b) {
		return len(a) < len(b)
	}
	return a < b
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
