// 包 stats 把小局记录折叠为球员统计与球队名单。纯函数，结果与输入顺序无关。
package stats

import (
	"math"
	"sort"

	"go-league-sync/internal/identity"
	"go-league-sync/internal/model"
)

type teamKey struct {
	division string
	team     string
}

// Aggregate 遍历全部比赛的小局：双打字段先拆分，再按球队上下文规范化，
// 每名参赛者在对应球队下累加出场/胜场/炸清/弃权；名单按 "division:team" 收集。
func Aggregate(frames []model.MatchFrames, n *identity.Normalizer) (model.PlayerStats, model.Rosters) {
	if n == nil {
		n = identity.NewNormalizer(nil)
	}
	acc := map[string]map[teamKey]*model.TeamStat{}
	roster := map[teamKey]map[string]bool{}

	credit := func(player string, k teamKey, won bool, f model.Frame) {
		teams, ok := acc[player]
		if !ok {
			teams = map[teamKey]*model.TeamStat{}
			acc[player] = teams
		}
		ts, ok := teams[k]
		if !ok {
			ts = &model.TeamStat{Team: k.team, Division: k.division}
			teams[k] = ts
		}
		ts.Played++
		if won {
			ts.Won++
			if f.BreakAndDish {
				ts.BreakDishFor++
			}
		} else if f.BreakAndDish {
			ts.BreakDishAg++
		}
		if f.Forfeit {
			ts.Forfeits++
		}
		if roster[k] == nil {
			roster[k] = map[string]bool{}
		}
		roster[k][player] = true
	}

	for _, mf := range frames {
		home := teamKey{division: mf.Division, team: mf.Home}
		away := teamKey{division: mf.Division, team: mf.Away}
		for _, f := range mf.Frames {
			for _, raw := range identity.SplitPlayers(f.HomePlayer) {
				if p := n.Normalize(raw, mf.Home); p != "" {
					credit(p, home, f.Winner == model.WinnerHome, f)
				}
			}
			for _, raw := range identity.SplitPlayers(f.AwayPlayer) {
				if p := n.Normalize(raw, mf.Away); p != "" {
					credit(p, away, f.Winner == model.WinnerAway, f)
				}
			}
		}
	}

	out := make(model.PlayerStats, len(acc))
	for player, teams := range acc {
		ps := model.PlayerStat{Teams: make([]model.TeamStat, 0, len(teams))}
		for _, ts := range teams {
			ts.WinPct = WinPct(ts.Won, ts.Played)
			ps.Teams = append(ps.Teams, *ts)
			ps.Total.Played += ts.Played
			ps.Total.Won += ts.Won
		}
		sort.Slice(ps.Teams, func(i, j int) bool {
			if ps.Teams[i].Division != ps.Teams[j].Division {
				return ps.Teams[i].Division < ps.Teams[j].Division
			}
			return ps.Teams[i].Team < ps.Teams[j].Team
		})
		ps.Total.WinPct = WinPct(ps.Total.Won, ps.Total.Played)
		out[player] = ps
	}

	rosters := make(model.Rosters, len(roster))
	for k, set := range roster {
		names := make([]string, 0, len(set))
		for p := range set {
			names = append(names, p)
		}
		sort.Strings(names)
		rosters[k.division+":"+k.team] = names
	}
	return out, rosters
}

// WinPct = round(won/played × 10000)/100，保留两位小数；played 为 0 时返回 0。
func WinPct(won, played int) float64 {
	if played <= 0 {
		return 0
	}
	return math.Round(float64(won)/float64(played)*10000) / 100
}
