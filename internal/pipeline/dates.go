package pipeline

import (
	"sort"

	"go-league-sync/internal/extract"
	"go-league-sync/internal/model"
)

// dateIndex 用既有数据为赛果补日期：球队赛果页没有日期列。
// 优先按比赛 ID 命中既有赛果；否则按 "主队:客队" 在既有赛程/赛果中找候选日期，
// 同一对阵多次出现时按比赛 ID 从小到大依次分配最早的日期。
type dateIndex struct {
	byID  map[string]string
	pairs map[string][]string
}

func pairKey(home, away string) string { return home + ":" + away }

func newDateIndex(prior *model.Bundle, sentinel string) *dateIndex {
	x := &dateIndex{byID: map[string]string{}, pairs: map[string][]string{}}
	if prior == nil {
		return x
	}
	usable := func(d string) bool {
		_, ok := extract.ParseDate(d)
		return ok && d != sentinel
	}
	seen := map[string]bool{}
	add := func(home, away, date string) {
		k := pairKey(home, away)
		if seen[k+"|"+date] {
			return
		}
		seen[k+"|"+date] = true
		x.pairs[k] = append(x.pairs[k], date)
	}
	for _, r := range prior.Results {
		if usable(r.Date) {
			x.byID[r.MatchID] = r.Date
			add(r.Home, r.Away, r.Date)
		}
	}
	for _, f := range prior.Fixtures {
		if usable(f.Date) {
			add(f.Home, f.Away, f.Date)
		}
	}
	for k := range x.pairs {
		ds := x.pairs[k]
		sort.SliceStable(ds, func(i, j int) bool { return compareDates(ds[i], ds[j]) < 0 })
	}
	return x
}

// claim 从候选中移除一个已被占用的日期。
func (x *dateIndex) claim(k, date string) {
	ds := x.pairs[k]
	for i, d := range ds {
		if d == date {
			x.pairs[k] = append(ds[:i:i], ds[i+1:]...)
			return
		}
	}
}

// resolve 为赛果填日期，返回无法关联的比赛（已填入 sentinel）。
func (x *dateIndex) resolve(rs []model.Result, sentinel string) []model.Result {
	var pending []int
	for i := range rs {
		if d, ok := x.byID[rs[i].MatchID]; ok {
			rs[i].Date = d
			x.claim(pairKey(rs[i].Home, rs[i].Away), d)
			continue
		}
		pending = append(pending, i)
	}
	sort.SliceStable(pending, func(a, b int) bool { return lessID(rs[pending[a]].MatchID, rs[pending[b]].MatchID) })

	var unresolved []model.Result
	for _, i := range pending {
		k := pairKey(rs[i].Home, rs[i].Away)
		if ds := x.pairs[k]; len(ds) > 0 {
			rs[i].Date = ds[0]
			x.pairs[k] = ds[1:]
			continue
		}
		rs[i].Date = sentinel
		unresolved = append(unresolved, rs[i])
	}
	return unresolved
}
