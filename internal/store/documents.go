package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/bytedance/sonic"
	"github.com/cockroachdb/errors"

	"go-league-sync/internal/model"
)

type leagueRow struct {
	League    string `db:"league"`
	Name      string `db:"name"`
	ShortName string `db:"short_name"`
	Seasons   string `db:"seasons"`
}

// EnsureLeague 仅在联赛元数据不存在时写入（赛季列表为空）；已存在时不做任何修改。
// 返回值表示本次是否新建。
func (s *Store) EnsureLeague(ctx context.Context, meta model.LeagueMeta, now time.Time) (bool, error) {
	res, err := s.exec(ctx, `INSERT INTO leagues(league, name, short_name, seasons, created_at)
        VALUES(?,?,?,'[]',?)
        ON CONFLICT(league) DO NOTHING`,
		meta.League, meta.Name, meta.ShortName, now.UTC().Format(time.RFC3339))
	if err != nil {
		return false, errors.Wrapf(err, "ensure league %s", meta.League)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, errors.Wrapf(err, "ensure league %s: rows affected", meta.League)
	}
	return n > 0, nil
}

// League 读取联赛元数据；不存在时返回 nil, nil。
func (s *Store) League(ctx context.Context, league string) (*model.LeagueMeta, error) {
	var row leagueRow
	err := s.get(ctx, &row, `SELECT league, name, short_name, seasons FROM leagues WHERE league = ?`, league)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "query league %s", league)
	}
	meta := &model.LeagueMeta{League: row.League, Name: row.Name, ShortName: row.ShortName}
	if err := sonic.ConfigStd.UnmarshalFromString(row.Seasons, &meta.Seasons); err != nil {
		return nil, errors.Wrapf(err, "decode seasons of %s", league)
	}
	return meta, nil
}

// UpsertSeason 插入或覆盖联赛/赛季文档。
func (s *Store) UpsertSeason(ctx context.Context, doc model.SeasonDocument) error {
	body, err := sonic.ConfigStd.MarshalToString(doc)
	if err != nil {
		return errors.Wrapf(err, "encode season %s/%s", doc.League, doc.Season)
	}
	_, err = s.exec(ctx, `INSERT INTO league_seasons(league, season, document, updated_at)
        VALUES(?,?,?,?)
        ON CONFLICT(league, season) DO UPDATE SET document=excluded.document, updated_at=excluded.updated_at`,
		doc.League, doc.Season, body, doc.UpdatedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return errors.Wrapf(err, "upsert season %s/%s", doc.League, doc.Season)
	}
	return nil
}

// UpsertLegacy 按旧路径写同一份文档，供尚未迁移的旧消费方读取。
func (s *Store) UpsertLegacy(ctx context.Context, path string, doc model.SeasonDocument) error {
	body, err := sonic.ConfigStd.MarshalToString(doc)
	if err != nil {
		return errors.Wrapf(err, "encode legacy %s", path)
	}
	_, err = s.exec(ctx, `INSERT INTO legacy_documents(path, document, updated_at)
        VALUES(?,?,?)
        ON CONFLICT(path) DO UPDATE SET document=excluded.document, updated_at=excluded.updated_at`,
		path, body, doc.UpdatedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return errors.Wrapf(err, "upsert legacy %s", path)
	}
	return nil
}

// LoadSeason 读取赛季文档；不存在时返回 nil, nil。
func (s *Store) LoadSeason(ctx context.Context, league, season string) (*model.SeasonDocument, error) {
	var body string
	err := s.get(ctx, &body, `SELECT document FROM league_seasons WHERE league = ? AND season = ?`, league, season)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "query season %s/%s", league, season)
	}
	var doc model.SeasonDocument
	if err := sonic.ConfigStd.UnmarshalFromString(body, &doc); err != nil {
		return nil, errors.Wrapf(err, "decode season %s/%s", league, season)
	}
	return &doc, nil
}

// LoadLegacy 读取旧路径文档；不存在时返回 nil, nil。
func (s *Store) LoadLegacy(ctx context.Context, path string) (*model.SeasonDocument, error) {
	var body string
	err := s.get(ctx, &body, `SELECT document FROM legacy_documents WHERE path = ?`, path)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "query legacy %s", path)
	}
	var doc model.SeasonDocument
	if err := sonic.ConfigStd.UnmarshalFromString(body, &doc); err != nil {
		return nil, errors.Wrapf(err, "decode legacy %s", path)
	}
	return &doc, nil
}
