// 包 pipeline 负责主流程编排：
// - Syncer 按固定阶段同步单个联赛：积分榜 → 球队赛果 → 日期关联 → 小局详情 → 赛程 → 聚合 → 合并既有数据 → 落地
// - Runner 按配置顺序依次同步多个联赛，联赛之间长暂停，单个联赛失败不影响其余联赛
// 全程单线程顺序执行，不发并发请求。
package pipeline

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"

	"go-league-sync/internal/backup"
	"go-league-sync/internal/config"
	"go-league-sync/internal/extract"
	"go-league-sync/internal/identity"
	"go-league-sync/internal/incremental"
	"go-league-sync/internal/logx"
	"go-league-sync/internal/model"
	"go-league-sync/internal/persist"
	"go-league-sync/internal/stats"
)

// Fetcher 为页面抓取面，*fetch.Client 实现了它。
type Fetcher interface {
	Get(ctx context.Context, url, referer string) (string, error)
	Requests() int
}

// Ticker 为详情请求的批量节流，*fetch.Batch 实现了它。
type Ticker interface {
	Tick(ctx context.Context) (time.Duration, error)
}

// Writer 为落地面，*persist.Writer 实现了它。
type Writer interface {
	Persist(ctx context.Context, lg config.League, snap model.Bundle, dryRun bool) (persist.Outcome, error)
}

// Deps 为 Syncer 的全部协作者。
type Deps struct {
	Fetcher    Fetcher
	NewBatch   func() Ticker // 每个联赛一个新的批次计数
	Normalizer *identity.Normalizer
	Writer     Writer
	Merge      MergeStrategy
	Now        func() time.Time
}

// Options 为单次同步的调用参数。
type Options struct {
	DryRun      bool          // 跳过存储写入（备份照写）
	Full        bool          // 忽略增量跳过，重抓全部详情
	Existing    *model.Bundle // 调用方已准备好的既有数据；nil 时读取 OutputDir 下的备份
	UnknownDate string        // 无法关联日期时的占位值
}

// Syncer 同步单个联赛。
type Syncer struct {
	d Deps
}

// NewSyncer 创建 Syncer，缺省的协作者用安全的默认值补齐。
func NewSyncer(d Deps) *Syncer {
	if d.NewBatch == nil {
		d.NewBatch = func() Ticker { return noBatch{} }
	}
	if d.Normalizer == nil {
		d.Normalizer = identity.NewNormalizer(nil)
	}
	if d.Merge == nil {
		d.Merge = PreferNewUnlessEmpty{}
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	return &Syncer{d: d}
}

type noBatch struct{}

func (noBatch) Tick(context.Context) (time.Duration, error) { return 0, nil }

// Sync 执行一次联赛同步。任何阶段出错都会中止本联赛并体现在报告里，不向上返回错误。
func (s *Syncer) Sync(ctx context.Context, lg config.League, opts Options) model.LeagueReport {
	start := s.d.Now()
	rep := model.LeagueReport{League: lg.Key}
	before := s.d.Fetcher.Requests()

	err := s.run(ctx, lg, opts, &rep)

	rep.Requests = s.d.Fetcher.Requests() - before
	rep.Duration = s.d.Now().Sub(start)
	if err != nil {
		rep.Success = false
		rep.Error = err.Error()
		logx.Errorf("[%s] 同步失败：%v", lg.Key, err)
		return rep
	}
	rep.Success = true
	logx.Infof("[%s] 同步完成：赛果=%d 赛程=%d 详情=%d（新增 %d，跳过 %d）请求=%d 耗时=%s",
		lg.Key, rep.Results, rep.Fixtures, rep.Frames, rep.NewFrames, rep.SkippedFrames, rep.Requests, rep.Duration.Round(time.Millisecond))
	return rep
}

// league 为一次同步内的可变状态。
type league struct {
	cfg       config.League
	divisions map[string]config.Division
	teams     map[string][]string // 级别代码 → 队名
	known     []string
}

func (s *Syncer) run(ctx context.Context, lg config.League, opts Options, rep *model.LeagueReport) error {
	prior := opts.Existing
	if prior == nil {
		b, err := backup.Load(lg.OutputDir)
		if err != nil {
			logx.Warnf("[%s] 读取既有备份失败，按无既有数据处理：%v", lg.Key, err)
			b = &model.Bundle{}
		}
		prior = b
	}
	if prior.Empty() {
		logx.Infof("[%s] 无既有数据，本次为首次同步", lg.Key)
	}
	sentinel := opts.UnknownDate
	if sentinel == "" {
		sentinel = config.DefaultUnknownDate
	}
	st := &league{cfg: lg, divisions: map[string]config.Division{}, teams: map[string][]string{}}
	for _, d := range lg.Divisions {
		st.divisions[d.Code] = d
	}
	idRe := lg.MatchIDRegexp()
	layout := frameLayout(lg.FrameLayout)
	ectx := func(d config.Division) extract.Context {
		return extract.Context{Division: d.Code, Remap: lg.TeamRemap, MatchID: idRe, Layout: layout}
	}

	// 1) 积分榜
	knownSet := map[string]bool{}
	for _, d := range lg.Divisions {
		html, err := s.d.Fetcher.Get(ctx, lg.StandingsURL(d), "")
		if err != nil {
			return errors.Wrapf(err, "standings %s", d.Code)
		}
		teams := extract.Standings(html, ectx(d))
		if len(teams) == 0 {
			logx.Warnf("[%s] 级别 %s 积分榜未解析到球队", lg.Key, d.Code)
		}
		st.teams[d.Code] = teams
		for _, t := range teams {
			if !knownSet[t] {
				knownSet[t] = true
				st.known = append(st.known, t)
			}
		}
	}
	logx.Infof("[%s] 积分榜完成：%d 支球队", lg.Key, len(st.known))

	// 2) 球队赛果：按比赛 ID 去重，并过滤跨联赛比赛
	filter := incremental.NewTeamFilter(st.known)
	col := newCollector()
	for _, d := range lg.Divisions {
		for _, team := range st.teams[d.Code] {
			html, err := s.d.Fetcher.Get(ctx, lg.TeamURL(d, team), lg.StandingsURL(d))
			if err != nil {
				return errors.Wrapf(err, "team results %s/%s", d.Code, team)
			}
			for _, r := range extract.TeamMatches(html, ectx(d)) {
				if filter.Seen(r.MatchID) {
					continue
				}
				if !filter.Accept(r) {
					logx.Debugf("[%s] 跨联赛比赛已过滤：%s %s v %s", lg.Key, r.MatchID, r.Home, r.Away)
					continue
				}
				col.Add(r)
			}
		}
	}
	rep.CrossLeagueFiltered = filter.Filtered()
	logx.Infof("[%s] 球队赛果完成：%d 场（跨联赛过滤 %d）", lg.Key, len(col.IDs()), rep.CrossLeagueFiltered)

	// 3) 日期关联
	results := col.Snapshot()
	unresolved := newDateIndex(prior, sentinel).resolve(results, sentinel)
	for _, r := range unresolved {
		logx.Warnf("[%s] 比赛 %s（%s v %s）无法关联日期，使用占位 %s", lg.Key, r.MatchID, r.Home, r.Away, sentinel)
	}
	rep.UnresolvedDates = len(unresolved)
	for _, r := range results {
		col.Set(r)
	}

	// 4) 小局详情：只抓既有数据中没有的比赛
	frames, err := s.frameDetail(ctx, st, col, prior, opts.Full, ectx, rep)
	if err != nil {
		return err
	}

	// 5) 赛程
	var fixtures []model.Fixture
	for _, d := range lg.Divisions {
		html, err := s.d.Fetcher.Get(ctx, lg.FixturesURL(d), lg.StandingsURL(d))
		if err != nil {
			return errors.Wrapf(err, "fixtures %s", d.Code)
		}
		fixtures = append(fixtures, extract.Fixtures(html, ectx(d))...)
	}
	sortFixtures(fixtures)

	// 6) 聚合（既有 + 新抓取的全部小局）
	players, rosters := stats.Aggregate(frames, s.d.Normalizer)

	// 7) 合并既有数据
	results = col.Snapshot()
	counts := map[string]int{}
	for _, mf := range frames {
		counts[mf.MatchID] = len(mf.Frames)
	}
	for i := range results {
		if n, ok := counts[results[i].MatchID]; ok && n > 0 {
			results[i].FrameCount = n
		}
	}
	snap, kept := s.d.Merge.Merge(model.Bundle{
		Results:     results,
		Fixtures:    fixtures,
		Rosters:     rosters,
		PlayerStats: players,
		Frames:      frames,
	}, prior)
	if len(kept) > 0 {
		logx.Warnf("[%s] 新数据为空，沿用既有数据：%v（策略 %s）", lg.Key, kept, s.d.Merge.Name())
	}
	rep.Preserved = kept
	rep.Results = len(snap.Results)
	rep.Fixtures = len(snap.Fixtures)
	rep.Frames = len(snap.Frames)

	// 8) 落地
	if s.d.Writer == nil {
		return nil
	}
	out, err := s.d.Writer.Persist(ctx, lg, snap, opts.DryRun)
	rep.StoreError = out.StoreError
	return err
}

// frameDetail 抓取新比赛的小局并与既有小局做并集；返回按比赛 ID 排序的完整列表。
func (s *Syncer) frameDetail(ctx context.Context, st *league, col *collector, prior *model.Bundle,
	full bool, ectx func(config.Division) extract.Context, rep *model.LeagueReport) ([]model.MatchFrames, error) {
	lg := st.cfg
	merged := map[string]model.MatchFrames{}
	persisted := map[string]bool{}
	for _, mf := range prior.Frames {
		if mf.MatchID == "" {
			continue
		}
		merged[mf.MatchID] = mf
		if len(mf.Frames) > 0 {
			persisted[mf.MatchID] = true
		}
	}

	plan := incremental.Plan(col.IDs(), persisted, full)
	rep.SkippedFrames = plan.Skipped
	logx.Infof("[%s] 小局详情：待抓取 %d，跳过 %d", lg.Key, len(plan.ToFetch), plan.Skipped)

	batch := s.d.NewBatch()
	for _, id := range plan.ToFetch {
		r, _ := col.Get(id)
		d := st.divisions[r.Division]
		html, err := s.d.Fetcher.Get(ctx, lg.MatchURL(id), lg.TeamURL(d, r.Home))
		if err != nil {
			return nil, errors.Wrapf(err, "match detail %s", id)
		}
		if pause, err := batch.Tick(ctx); err != nil {
			return nil, errors.Wrap(err, "batch pause")
		} else if pause > 0 {
			logx.Infof("[%s] 批量暂停 %s", lg.Key, pause.Round(time.Second))
		}
		fs := extract.Frames(html, ectx(d))
		if len(fs) == 0 {
			logx.Warnf("[%s] 比赛 %s 未解析到小局，跳过", lg.Key, id)
			continue
		}
		merged[id] = model.MatchFrames{MatchID: id, Frames: fs}
		rep.NewFrames++
	}

	out := make([]model.MatchFrames, 0, len(merged))
	for id, mf := range merged {
		if len(mf.Frames) == 0 {
			continue
		}
		// 上下文以本次赛果为准（日期可能在后续运行中才关联上）
		if r, ok := col.Get(id); ok {
			mf.Date, mf.Division, mf.Home, mf.Away = r.Date, r.Division, r.Home, r.Away
		}
		out = append(out, mf)
	}
	sortFrames(out)
	return out, nil
}

// frameLayout 把配置的列偏移转成解析器布局；未配置时返回零值（解析器取默认布局）。
func frameLayout(f *config.FrameLayout) extract.FrameLayout {
	if f == nil {
		return extract.FrameLayout{}
	}
	return extract.FrameLayout{
		Home: f.Home, Away: f.Away, HomeWon: f.HomeWon, AwayWon: f.AwayWon,
		BreakDish: f.BreakDish, Forfeit: f.Forfeit, MinCells: f.MinCells, Marks: f.Marks,
	}
}
