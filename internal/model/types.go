// 包 model 定义同步流水线的数据模型（赛果/赛程/小局/球员统计/名单/同步报告）。
package model

import "time"

// Result 为一场已完赛的比赛。MatchID 在一次同步内唯一；0-0 视为未开赛，不会出现在这里。
type Result struct {
	Date       string `json:"date"`
	Home       string `json:"home"`
	Away       string `json:"away"`
	HomeScore  int    `json:"homeScore"`
	AwayScore  int    `json:"awayScore"`
	Division   string `json:"division"`
	FrameCount int    `json:"frames"`
	MatchID    string `json:"matchId"`
}

// Fixture 为尚未进行的赛程，没有比分，也不保证有比赛 ID。
type Fixture struct {
	Date     string `json:"date"`
	Home     string `json:"home"`
	Away     string `json:"away"`
	Division string `json:"division"`
}

// Winner 标记小局胜方。
type Winner string

const (
	WinnerHome Winner = "home"
	WinnerAway Winner = "away"
)

// Frame 为比赛中的最小计分单位（一局）。
type Frame struct {
	Number       int    `json:"frameNum"`
	Set          int    `json:"setNum"`
	HomePlayer   string `json:"homePlayer"`
	AwayPlayer   string `json:"awayPlayer"`
	Winner       Winner `json:"winner"`
	BreakAndDish bool   `json:"breakDish"`
	Forfeit      bool   `json:"forfeit"`
}

// SetOf 返回局号所属的盘：1-5 为第 1 盘，6-10 为第 2 盘，依此类推。
func SetOf(frameNum int) int {
	if frameNum <= 0 {
		return 1
	}
	return (frameNum-1)/5 + 1
}

// MatchFrames 为一场比赛的全部小局，附带聚合所需的赛事上下文。
type MatchFrames struct {
	MatchID  string  `json:"matchId"`
	Date     string  `json:"date"`
	Division string  `json:"division"`
	Home     string  `json:"home"`
	Away     string  `json:"away"`
	Frames   []Frame `json:"frames"`
}

// TeamStat 为球员在某支球队（某个级别）下的统计。
type TeamStat struct {
	Team         string  `json:"team"`
	Division     string  `json:"division"`
	Played       int     `json:"p"`
	Won          int     `json:"w"`
	WinPct       float64 `json:"pct"`
	LagWins      int     `json:"lag"`
	BreakDishFor int     `json:"bdF"`
	BreakDishAg  int     `json:"bdA"`
	Forfeits     int     `json:"forf"`
}

// Totals 为球员跨队汇总。
type Totals struct {
	Played int     `json:"p"`
	Won    int     `json:"w"`
	WinPct float64 `json:"pct"`
}

// PlayerStat 完全由 MatchFrames 推导，不做人工编辑。
type PlayerStat struct {
	Teams []TeamStat `json:"teams"`
	Total Totals     `json:"total"`
}

// PlayerStats 以规范化球员名为键。
type PlayerStats map[string]PlayerStat

// Rosters 以 "division:team" 为键，值为排好序的规范化球员名。
type Rosters map[string][]string

// Bundle 为一次同步可读取的"既有数据"，也是备份文件的内存形态。
type Bundle struct {
	Results     []Result      `json:"results"`
	Fixtures    []Fixture     `json:"fixtures"`
	Rosters     Rosters       `json:"rosters"`
	PlayerStats PlayerStats   `json:"players"`
	Frames      []MatchFrames `json:"frames"`
}

// Empty 判断既有数据是否完全为空。
func (b *Bundle) Empty() bool {
	return b == nil || (len(b.Results) == 0 && len(b.Fixtures) == 0 && len(b.Rosters) == 0 &&
		len(b.PlayerStats) == 0 && len(b.Frames) == 0)
}

// SeasonDocument 为写入持久存储的单赛季文档。
type SeasonDocument struct {
	League    string    `json:"league"`
	Season    string    `json:"season"`
	Bundle    Bundle    `json:"data"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// LeagueMeta 为联赛元数据文档，仅在首次创建时写入。
type LeagueMeta struct {
	League    string   `json:"league"`
	Name      string   `json:"name"`
	ShortName string   `json:"shortName"`
	Seasons   []string `json:"seasons"`
}

// LeagueReport 为单个联赛一次同步尝试的结果。
type LeagueReport struct {
	League              string        `json:"league"`
	Success             bool          `json:"success"`
	Error               string        `json:"error,omitempty"`
	Results             int           `json:"results"`
	Fixtures            int           `json:"fixtures"`
	Frames              int           `json:"frames"`
	NewFrames           int           `json:"newFrames"`
	Requests            int           `json:"requests"`
	SkippedFrames       int           `json:"skippedFrames"`
	CrossLeagueFiltered int           `json:"crossLeagueFiltered"`
	UnresolvedDates     int           `json:"unresolvedDates"`
	Preserved           []string      `json:"preserved,omitempty"`
	StoreError          string        `json:"storeError,omitempty"`
	Duration            time.Duration `json:"duration"`
}

// RunReport 汇总一次多联赛运行。
type RunReport struct {
	RunID        string         `json:"runId"`
	StartedAt    time.Time      `json:"startedAt"`
	Duration     time.Duration  `json:"duration"`
	Leagues      []LeagueReport `json:"leagues"`
	AllSucceeded bool           `json:"allSucceeded"`
}
