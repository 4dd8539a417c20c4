// 包 persist 负责把一次同步的快照落地：写本地备份，并独立地 upsert 到持久存储。
// 两步互不依赖：备份失败时仍尝试写存储，但备份失败会让本次同步失败；
// 存储失败只记录日志并写入 Outcome，不影响本次同步的成功与否。
package persist

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"

	"go-league-sync/internal/backup"
	"go-league-sync/internal/config"
	"go-league-sync/internal/logx"
	"go-league-sync/internal/model"
)

// Store 为持久存储的写入面，*store.Store 实现了它。
type Store interface {
	EnsureLeague(ctx context.Context, meta model.LeagueMeta, now time.Time) (bool, error)
	UpsertSeason(ctx context.Context, doc model.SeasonDocument) error
	UpsertLegacy(ctx context.Context, path string, doc model.SeasonDocument) error
}

// Outcome 描述一次落地的结果。
type Outcome struct {
	BackupDir     string
	StoreSkipped  bool
	StoreError    string
	LeagueCreated bool
}

// Writer 持有存储句柄与旧路径兼容配置。store 为 nil 时只写备份。
type Writer struct {
	store        Store
	legacyLeague string
	now          func() time.Time
}

// NewWriter 创建写入器；legacyLeague 为需要额外写旧路径的联赛 key（可为空）。
func NewWriter(s Store, legacyLeague string, now func() time.Time) *Writer {
	if now == nil {
		now = time.Now
	}
	return &Writer{store: s, legacyLeague: legacyLeague, now: now}
}

// LegacyPath 返回旧消费方读取的文档路径。
func LegacyPath(storeLeague string) string { return "legacy/" + storeLeague }

// Persist 写备份；非 dry-run 且配置了存储时，无论备份成败都写入存储。
// 返回的 error 只反映备份是否成功。
func (w *Writer) Persist(ctx context.Context, lg config.League, snap model.Bundle, dryRun bool) (Outcome, error) {
	out := Outcome{BackupDir: lg.OutputDir}
	backupErr := backup.Write(lg.OutputDir, snap)
	if backupErr != nil {
		backupErr = errors.Wrapf(backupErr, "write backups for %s", lg.Key)
		logx.Errorf("[%s] %v", lg.Key, backupErr)
	} else {
		logx.Infof("[%s] 备份已写入 %s", lg.Key, lg.OutputDir)
	}

	if dryRun || w.store == nil {
		out.StoreSkipped = true
		logx.Infof("[%s] 跳过存储写入（dry-run=%v）", lg.Key, dryRun)
		return out, backupErr
	}
	created, err := w.writeStore(ctx, lg, snap)
	out.LeagueCreated = created
	if err != nil {
		out.StoreError = err.Error()
		logx.Errorf("[%s] 写入存储失败：%v", lg.Key, err)
	}
	return out, backupErr
}

func (w *Writer) writeStore(ctx context.Context, lg config.League, snap model.Bundle) (bool, error) {
	now := w.now()
	created, err := w.store.EnsureLeague(ctx, model.LeagueMeta{
		League:    lg.StoreLeague,
		Name:      lg.Name,
		ShortName: lg.ShortName,
		Seasons:   []string{},
	}, now)
	if err != nil {
		return false, err
	}
	if created {
		logx.Infof("[%s] 新建联赛元数据 %s", lg.Key, lg.StoreLeague)
	}
	doc := model.SeasonDocument{League: lg.StoreLeague, Season: lg.StoreSeason, Bundle: snap, UpdatedAt: now}
	if err := w.store.UpsertSeason(ctx, doc); err != nil {
		return created, err
	}
	if w.legacyLeague != "" && lg.Key == w.legacyLeague {
		if err := w.store.UpsertLegacy(ctx, LegacyPath(lg.StoreLeague), doc); err != nil {
			return created, errors.Wrap(err, "legacy path")
		}
	}
	return created, nil
}
