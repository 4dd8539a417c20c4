package incremental

import "go-league-sync/internal/model"

// TeamFilter 按本联赛已知队名集合过滤比赛。单线程使用，无锁。
type TeamFilter struct {
	known    map[string]bool
	seen     map[string]bool
	filtered int
}

// NewTeamFilter 以积分榜收集到的全部队名（已映射）创建过滤器。
func NewTeamFilter(known []string) *TeamFilter {
	f := &TeamFilter{known: make(map[string]bool, len(known)), seen: map[string]bool{}}
	for _, t := range known {
		f.known[t] = true
	}
	return f
}

// Accept 仅当主客队都属于已知集合时返回 true。
// 无论是否接受，比赛 ID 都会标记为已见，之后不再重复评估。
func (f *TeamFilter) Accept(r model.Result) bool {
	if r.MatchID != "" {
		f.seen[r.MatchID] = true
	}
	if f.known[r.Home] && f.known[r.Away] {
		return true
	}
	f.filtered++
	return false
}

// Seen 报告比赛 ID 是否已被评估过。
func (f *TeamFilter) Seen(matchID string) bool { return f.seen[matchID] }

// Filtered 返回被判定为跨联赛而丢弃的比赛数。
func (f *TeamFilter) Filtered() int { return f.filtered }
