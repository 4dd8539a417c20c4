// 包 config 负责加载与校验联赛注册表（leagues.yaml），
// 对外提供结构体 Config 及默认值/合法性校验，并允许环境变量覆盖少数运行参数。
package config

import (
	"io"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// DefaultMatchIDPattern 匹配详情页链接中的比赛 ID。
const DefaultMatchIDPattern = `[?&](?:id|match|matchid|fixture)=(\d+)`

// 节流默认值。
const (
	DefaultBaseDelay     = 2 * time.Second
	DefaultBatchSize     = 10
	DefaultBatchPauseMin = 10 * time.Second
	DefaultBatchPauseMax = 60 * time.Second
	DefaultLeaguePause   = 120 * time.Second
)

// DefaultUnknownDate 为无法关联日期时的占位值。
const DefaultUnknownDate = "01-01-2026"

// Config 为一次进程运行的全部配置；运行期间只读。
type Config struct {
	Leagues      []League `yaml:"LEAGUES" validate:"required,min=1,dive"`
	Throttle     Throttle `yaml:"THROTTLE"`
	Fetch        Fetch    `yaml:"FETCH" envPrefix:"LSYNC_"`
	Database     Database `yaml:"DATABASE" envPrefix:"LSYNC_DB_"`
	Corrections  string   `yaml:"CORRECTIONS" env:"LSYNC_CORRECTIONS"`
	UnknownDate  string   `yaml:"UNKNOWN_DATE" env:"LSYNC_UNKNOWN_DATE"`
	LegacyLeague string   `yaml:"LEGACY_LEAGUE"`
	LogLevel     string   `yaml:"LOG_LEVEL" env:"LSYNC_LOG_LEVEL"`
	LogFormat    string   `yaml:"LOG_FORMAT" env:"LSYNC_LOG_FORMAT"` // text|json|pretty
	LogLocale    string   `yaml:"LOG_LOCALE" env:"LSYNC_LOG_LOCALE"` // zh-CN|en
	LogColor     string   `yaml:"LOG_COLOR" env:"LSYNC_LOG_COLOR"`   // auto|always|never
}

// League 描述一个联赛：来源站点、存储键、展示名、输出目录、级别与队名映射。
type League struct {
	Key            string            `yaml:"key" validate:"required"`
	Site           string            `yaml:"site" validate:"required"`
	BaseURL        string            `yaml:"base_url" validate:"required,url"`
	StoreLeague    string            `yaml:"store_league" validate:"required"`
	StoreSeason    string            `yaml:"store_season" validate:"required"`
	Name           string            `yaml:"name" validate:"required"`
	ShortName      string            `yaml:"short_name"`
	OutputDir      string            `yaml:"output_dir" validate:"required"`
	Divisions      []Division        `yaml:"divisions" validate:"required,min=1,dive"`
	TeamRemap      map[string]string `yaml:"team_remap"`
	Pages          Pages             `yaml:"pages"`
	MatchIDPattern string            `yaml:"match_id_pattern"`
	FrameLayout    *FrameLayout      `yaml:"frame_layout"`
}

// FrameLayout 覆盖比赛详情页小局行的列偏移（从 0 开始）与标记文字；不配置时用解析器默认值。
type FrameLayout struct {
	Home      int      `yaml:"home"`
	Away      int      `yaml:"away"`
	HomeWon   int      `yaml:"home_won"`
	AwayWon   int      `yaml:"away_won"`
	BreakDish int      `yaml:"break_dish"`
	Forfeit   int      `yaml:"forfeit"`
	MinCells  int      `yaml:"min_cells"`
	Marks     []string `yaml:"marks"`
}

// validate 检查列偏移；min_cells 为 0 表示只覆盖标记文字，列偏移沿用默认。
func (f *FrameLayout) validate() error {
	cols := []int{f.Home, f.Away, f.HomeWon, f.AwayWon}
	if f.MinCells == 0 {
		for _, c := range append(cols, f.BreakDish, f.Forfeit) {
			if c != 0 {
				return errors.New("min_cells is required when column offsets are set")
			}
		}
		return nil
	}
	for _, c := range cols {
		if c < 0 {
			return errors.New("column offsets must be >= 0")
		}
		if c >= f.MinCells {
			return errors.Newf("column %d is outside min_cells %d", c, f.MinCells)
		}
	}
	if f.Home == f.Away || f.HomeWon == f.AwayWon {
		return errors.New("home and away columns must differ")
	}
	return nil
}

// Division 为级别代码（如 SD1）与来源站点内部的分组标签。
type Division struct {
	Code  string `yaml:"code" validate:"required"`
	Group string `yaml:"group" validate:"required"`
}

// Pages 为各页面的查询模板，占位符 {site} {group} {team} {id} 会做 query 转义。
type Pages struct {
	Standings string `yaml:"standings"`
	Team      string `yaml:"team"`
	Match     string `yaml:"match"`
	Fixtures  string `yaml:"fixtures"`
}

type Throttle struct {
	BaseDelay     time.Duration `yaml:"base_delay"`
	BatchSize     int           `yaml:"batch_size"`
	BatchPauseMin time.Duration `yaml:"batch_pause_min"`
	BatchPauseMax time.Duration `yaml:"batch_pause_max"`
	LeaguePause   time.Duration `yaml:"league_pause"`
}

type Fetch struct {
	Timeout            time.Duration   `yaml:"timeout"`
	MaxRetries         int             `yaml:"max_retries"`
	RateLimitBackoff   []time.Duration `yaml:"rate_limit_backoff"`
	ServerErrorBackoff []time.Duration `yaml:"server_error_backoff"`
	TimeoutBackoff     time.Duration   `yaml:"timeout_backoff"`
	UserAgent          string          `yaml:"user_agent" env:"USER_AGENT"`
	Proxy              Proxy           `yaml:"proxy"`
}

type Proxy struct {
	HTTP  string `yaml:"http"`
	HTTPS string `yaml:"https"`
}

type Database struct {
	Type string `yaml:"type" env:"TYPE"` // sqlite (default) | postgres
	DSN  string `yaml:"dsn" env:"DSN"`   // ./league.db
}

// Load 从文件读取 YAML 并反序列化为 Config，应用环境变量覆盖，再做校验与默认值填充。
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open config %s", path)
	}
	defer f.Close()
	b, err := io.ReadAll(f)
	if err != nil {
		return nil, errors.Wrapf(err, "read config %s", path)
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, errors.Wrapf(err, "unmarshal config %s", path)
	}
	if err := env.Parse(&c); err != nil {
		return nil, errors.Wrap(err, "env overrides")
	}
	if err := c.Validate(); err != nil {
		return nil, errors.Wrap(err, "validate config")
	}
	return &c, nil
}

// Validate 负责默认值设置与合法性检查，避免在业务层分散判空逻辑。
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return errors.Wrap(err, "league registry")
	}
	seen := map[string]bool{}
	for i := range c.Leagues {
		lg := &c.Leagues[i]
		if seen[lg.Key] {
			return errors.Newf("duplicate league key %q", lg.Key)
		}
		seen[lg.Key] = true
		lg.applyDefaults()
		if _, err := regexp.Compile(lg.MatchIDPattern); err != nil {
			return errors.Wrapf(err, "league %s: match_id_pattern", lg.Key)
		}
		if lg.FrameLayout != nil {
			if err := lg.FrameLayout.validate(); err != nil {
				return errors.Wrapf(err, "league %s: frame_layout", lg.Key)
			}
		}
		codes := map[string]bool{}
		for _, d := range lg.Divisions {
			if codes[d.Code] {
				return errors.Newf("league %s: duplicate division %q", lg.Key, d.Code)
			}
			codes[d.Code] = true
		}
	}
	if err := c.Throttle.applyDefaults(); err != nil {
		return err
	}
	if c.Fetch.Timeout <= 0 {
		c.Fetch.Timeout = 30 * time.Second
	}
	if c.Fetch.MaxRetries < 0 {
		return errors.New("FETCH.max_retries must be >= 0")
	}
	if c.Database.Type == "" {
		c.Database.Type = "sqlite"
	}
	switch c.Database.Type {
	case "sqlite":
		if c.Database.DSN == "" {
			c.Database.DSN = "./league.db"
		}
	case "postgres":
		if c.Database.DSN == "" {
			return errors.New("DATABASE.dsn is required for postgres")
		}
	default:
		return errors.Newf("unsupported database type: %s", c.Database.Type)
	}
	if c.UnknownDate == "" {
		c.UnknownDate = DefaultUnknownDate
	}
	if c.LegacyLeague != "" && !seen[c.LegacyLeague] {
		return errors.Newf("LEGACY_LEAGUE %q is not a configured league", c.LegacyLeague)
	}
	if c.LogFormat == "" {
		c.LogFormat = "pretty"
	}
	if c.LogLocale == "" {
		c.LogLocale = "zh-CN"
	}
	if c.LogColor == "" {
		c.LogColor = "auto"
	}
	return nil
}

// 节流默认值：未配置的项按零值处理并补齐，避免漏写 THROTTLE 时无间隔地连续请求。
func (t *Throttle) applyDefaults() error {
	if t.BaseDelay < 0 || t.BatchPauseMin < 0 || t.BatchPauseMax < 0 || t.LeaguePause < 0 {
		return errors.New("THROTTLE durations must be >= 0")
	}
	if t.BatchSize < 0 {
		return errors.New("THROTTLE.batch_size must be >= 0")
	}
	if t.BaseDelay == 0 {
		t.BaseDelay = DefaultBaseDelay
	}
	if t.BatchSize == 0 {
		t.BatchSize = DefaultBatchSize
	}
	if t.BatchPauseMin == 0 {
		t.BatchPauseMin = DefaultBatchPauseMin
	}
	if t.BatchPauseMax == 0 {
		t.BatchPauseMax = max(DefaultBatchPauseMax, t.BatchPauseMin)
	}
	if t.BatchPauseMax < t.BatchPauseMin {
		t.BatchPauseMax = t.BatchPauseMin
	}
	if t.LeaguePause == 0 {
		t.LeaguePause = max(DefaultLeaguePause, 2*t.BatchPauseMax)
	}
	// 联赛间暂停必须长于联赛内的批量暂停
	if t.LeaguePause <= t.BatchPauseMax {
		return errors.Newf("THROTTLE.league_pause (%s) must be longer than batch_pause_max (%s)", t.LeaguePause, t.BatchPauseMax)
	}
	return nil
}

func (l *League) applyDefaults() {
	if l.ShortName == "" {
		l.ShortName = l.Key
	}
	if l.MatchIDPattern == "" {
		l.MatchIDPattern = DefaultMatchIDPattern
	}
	if l.Pages.Standings == "" {
		l.Pages.Standings = "?site={site}&page=table&group={group}"
	}
	if l.Pages.Team == "" {
		l.Pages.Team = "?site={site}&page=team&group={group}&team={team}"
	}
	if l.Pages.Match == "" {
		l.Pages.Match = "?site={site}&page=match&id={id}"
	}
	if l.Pages.Fixtures == "" {
		l.Pages.Fixtures = "?site={site}&page=fixtures&group={group}"
	}
}

// Select 按 key 选择联赛；"all" 或空串返回全部（保持配置顺序）。
func (c *Config) Select(key string) ([]League, error) {
	key = strings.TrimSpace(key)
	if key == "" || strings.EqualFold(key, "all") {
		return c.Leagues, nil
	}
	for _, lg := range c.Leagues {
		if strings.EqualFold(lg.Key, key) {
			return []League{lg}, nil
		}
	}
	return nil, errors.Newf("unknown league %q", key)
}
