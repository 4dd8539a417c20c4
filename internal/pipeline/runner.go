package pipeline

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc/panics"

	"go-league-sync/internal/config"
	"go-league-sync/internal/fetch"
	"go-league-sync/internal/logx"
	"go-league-sync/internal/model"
)

// LeagueSyncer 为单联赛同步面，*Syncer 实现了它。
type LeagueSyncer interface {
	Sync(ctx context.Context, lg config.League, opts Options) model.LeagueReport
}

// RunOptions 为一次多联赛运行的参数。
type RunOptions struct {
	DryRun      bool
	Full        bool
	UnknownDate string
	Existing    map[string]*model.Bundle // 联赛 key → 调用方预先准备的既有数据
}

// Runner 按固定顺序逐个同步联赛。
type Runner struct {
	syncer LeagueSyncer
	pause  time.Duration
	sleep  fetch.SleepFunc
	now    func() time.Time
}

// NewRunner 创建 Runner；pause 为联赛之间的固定暂停，sleep 为 nil 时使用真实等待。
func NewRunner(s LeagueSyncer, pause time.Duration, sleep fetch.SleepFunc, now func() time.Time) *Runner {
	if sleep == nil {
		sleep = fetch.Sleep
	}
	if now == nil {
		now = time.Now
	}
	return &Runner{syncer: s, pause: pause, sleep: sleep, now: now}
}

// Run 依次同步所有联赛；第二个联赛起每个联赛之前先暂停。
// 每个联赛有独立的失败边界：意外 panic 也只会让该联赛报告失败。
func (r *Runner) Run(ctx context.Context, leagues []config.League, opts RunOptions) model.RunReport {
	start := r.now()
	rep := model.RunReport{RunID: uuid.NewString(), StartedAt: start, AllSucceeded: true}
	logx.Infof("开始同步：run=%s 联赛数=%d dry-run=%v full=%v", rep.RunID, len(leagues), opts.DryRun, opts.Full)

	for i, lg := range leagues {
		var lr model.LeagueReport
		if i > 0 && r.pause > 0 {
			logx.Infof("联赛间暂停 %s", r.pause)
			if err := r.sleep(ctx, r.pause); err != nil {
				lr = model.LeagueReport{League: lg.Key, Error: fmt.Sprintf("inter-league pause: %v", err)}
				rep.Leagues = append(rep.Leagues, lr)
				rep.AllSucceeded = false
				continue
			}
		}
		lr = r.syncOne(ctx, lg, Options{
			DryRun:      opts.DryRun,
			Full:        opts.Full,
			Existing:    opts.Existing[lg.Key],
			UnknownDate: opts.UnknownDate,
		})
		rep.Leagues = append(rep.Leagues, lr)
		rep.AllSucceeded = rep.AllSucceeded && lr.Success
	}
	rep.Duration = r.now().Sub(start)
	logx.Infow("同步结束", "run", rep.RunID, "allSucceeded", rep.AllSucceeded, "duration", rep.Duration.String())
	return rep
}

func (r *Runner) syncOne(ctx context.Context, lg config.League, opts Options) model.LeagueReport {
	var (
		pc  panics.Catcher
		out model.LeagueReport
	)
	pc.Try(func() { out = r.syncer.Sync(ctx, lg, opts) })
	if rec := pc.Recovered(); rec != nil {
		logx.Errorf("[%s] 同步发生意外错误：%v", lg.Key, rec.Value)
		return model.LeagueReport{League: lg.Key, Success: false, Error: fmt.Sprintf("panic: %v", rec.Value)}
	}
	if out.League == "" {
		out.League = lg.Key
	}
	return out
}

// Summary 渲染给运维看的对齐表格。
func Summary(rep model.RunReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "run %s  all succeeded: %v  duration: %s\n", rep.RunID, rep.AllSucceeded, rep.Duration.Round(time.Second))
	w := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "LEAGUE\tSTATUS\tRESULTS\tFIXTURES\tFRAMES\tNEW\tSKIPPED\tFILTERED\tUNDATED\tREQUESTS\tDURATION\tERROR")
	for _, l := range rep.Leagues {
		status := "ok"
		if !l.Success {
			status = "FAILED"
		}
		msg := l.Error
		if msg == "" && l.StoreError != "" {
			msg = "store: " + l.StoreError
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%d\t%d\t%d\t%d\t%d\t%s\t%s\n",
			l.League, status, l.Results, l.Fixtures, l.Frames, l.NewFrames, l.SkippedFrames,
			l.CrossLeagueFiltered, l.UnresolvedDates, l.Requests, l.Duration.Round(time.Second), msg)
	}
	w.Flush()
	return b.String()
}
