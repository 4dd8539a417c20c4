package pipeline

import (
	"go-league-sync/internal/model"
)

// MergeStrategy 决定本次抓取结果与既有数据如何合并。
// 返回合并后的快照与沿用了既有数据的字段名。
type MergeStrategy interface {
	Name() string
	Merge(fresh model.Bundle, prior *model.Bundle) (model.Bundle, []string)
}

// 受保护的字段：抓取失败时最容易整体变空，且变空一定不是真实状态。
// 赛程在赛季末可以合法地为空，不在此列；小局已在详情阶段并集合并。
const (
	fieldResults = "results"
	fieldRosters = "rosters"
	fieldPlayers = "players"
)

// PreferNewUnlessEmpty：新数据为空而既有数据非空时沿用既有数据，否则用新数据。
type PreferNewUnlessEmpty struct{}

func (PreferNewUnlessEmpty) Name() string { return "prefer-new-unless-empty" }

func (PreferNewUnlessEmpty) Merge(fresh model.Bundle, prior *model.Bundle) (model.Bundle, []string) {
	if prior == nil {
		return fresh, nil
	}
	var kept []string
	if len(fresh.Results) == 0 && len(prior.Results) > 0 {
		fresh.Results = prior.Results
		kept = append(kept, fieldResults)
	}
	if len(fresh.Rosters) == 0 && len(prior.Rosters) > 0 {
		fresh.Rosters = prior.Rosters
		kept = append(kept, fieldRosters)
	}
	if len(fresh.PlayerStats) == 0 && len(prior.PlayerStats) > 0 {
		fresh.PlayerStats = prior.PlayerStats
		kept = append(kept, fieldPlayers)
	}
	return fresh, kept
}

// ForceFresh：始终使用新数据，即使为空。
type ForceFresh struct{}

func (ForceFresh) Name() string { return "force-fresh" }

func (ForceFresh) Merge(fresh model.Bundle, _ *model.Bundle) (model.Bundle, []string) {
	return fresh, nil
}

// ForcePreserve：既有数据非空时一律沿用（只刷新赛程与小局），用于冻结已结束的赛季。
type ForcePreserve struct{}

func (ForcePreserve) Name() string { return "force-preserve" }

func (ForcePreserve) Merge(fresh model.Bundle, prior *model.Bundle) (model.Bundle, []string) {
	if prior == nil {
		return fresh, nil
	}
	var kept []string
	if len(prior.Results) > 0 {
		fresh.Results = prior.Results
		kept = append(kept, fieldResults)
	}
	if len(prior.Rosters) > 0 {
		fresh.Rosters = prior.Rosters
		kept = append(kept, fieldRosters)
	}
	if len(prior.PlayerStats) > 0 {
		fresh.PlayerStats = prior.PlayerStats
		kept = append(kept, fieldPlayers)
	}
	return fresh, kept
}

// StrategyByName 按名称选择合并策略，未知名称返回 false。
func StrategyByName(name string) (MergeStrategy, bool) {
	switch name {
	case "", "prefer-new-unless-empty":
		return PreferNewUnlessEmpty{}, true
	case "force-fresh":
		return ForceFresh{}, true
	case "force-preserve":
		return ForcePreserve{}, true
	}
	return nil, false
}
