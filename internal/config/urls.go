package config

import (
	"net/url"
	"regexp"
	"sort"
	"strings"
)

// StandingsURL 返回级别积分榜页地址。
func (l League) StandingsURL(d Division) string {
	return l.build(l.Pages.Standings, map[string]string{"group": d.Group})
}

// TeamURL 返回球队赛果列表页地址。
func (l League) TeamURL(d Division, team string) string {
	return l.build(l.Pages.Team, map[string]string{"group": d.Group, "team": l.sourceTeamName(team)})
}

// MatchURL 返回比赛详情（小局）页地址。
func (l League) MatchURL(matchID string) string {
	return l.build(l.Pages.Match, map[string]string{"id": matchID})
}

// FixturesURL 返回级别赛程页地址。
func (l League) FixturesURL(d Division) string {
	return l.build(l.Pages.Fixtures, map[string]string{"group": d.Group})
}

// MatchIDRegexp 编译比赛 ID 模式；Validate 已确认可编译。
func (l League) MatchIDRegexp() *regexp.Regexp {
	p := l.MatchIDPattern
	if p == "" {
		p = DefaultMatchIDPattern
	}
	return regexp.MustCompile(p)
}

// sourceTeamName 将映射后的展示名还原为站点上的原始队名，站点按原名寻址。
func (l League) sourceTeamName(team string) string {
	srcs := make([]string, 0, len(l.TeamRemap))
	for src, dst := range l.TeamRemap {
		if dst == team && src != team {
			srcs = append(srcs, src)
		}
	}
	if len(srcs) == 0 {
		return team
	}
	sort.Strings(srcs)
	return srcs[0]
}

func (l League) build(tmpl string, vars map[string]string) string {
	pairs := []string{"{site}", url.QueryEscape(l.Site)}
	for k, v := range vars {
		pairs = append(pairs, "{"+k+"}", url.QueryEscape(v))
	}
	q := strings.NewReplacer(pairs...).Replace(tmpl)
	base := strings.TrimSpace(l.BaseURL)
	switch {
	case strings.HasPrefix(q, "http://") || strings.HasPrefix(q, "https://"):
		return q
	case strings.HasPrefix(q, "?"):
		if strings.Contains(base, "?") {
			return base + "&" + q[1:]
		}
		return base + q
	default:
		bu, err := url.Parse(base)
		if err != nil {
			return base + q
		}
		ru, err := url.Parse(q)
		if err != nil {
			return base + q
		}
		return bu.ResolveReference(ru).String()
	}
}
