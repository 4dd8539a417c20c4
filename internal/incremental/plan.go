// 包 incremental 提供增量同步所需的两个纯逻辑组件：
// - Plan：按比赛 ID 决定哪些详情页需要抓取
// - TeamFilter：拒绝参赛队不属于本联赛的比赛（共用托管平台时会串入别的联赛）
package incremental

// PlanResult 为一次增量计划的结果。
type PlanResult struct {
	ToFetch []string // 需要抓取详情的比赛 ID，保持发现顺序且去重
	Skipped int      // 因已有持久化详情而跳过的数量
}

// Plan 计算需要抓取详情的比赛。
// 仅凭 ID 是否已持久化判断可否跳过，不做内容比对；详情在首次抓取后变化不会被发现，
// 除非 full=true 强制全量重抓。
func Plan(discovered []string, persisted map[string]bool, full bool) PlanResult {
	var res PlanResult
	seen := make(map[string]bool, len(discovered))
	for _, id := range discovered {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		if !full && persisted[id] {
			res.Skipped++
			continue
		}
		res.ToFetch = append(res.ToFetch, id)
	}
	return res
}
