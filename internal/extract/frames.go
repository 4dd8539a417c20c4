package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"go-league-sync/internal/model"
)

// DefaultMarks 为默认认作"已标记"的单元格文字（不区分大小写）。
// 叉号不在其中：有的站点用叉号标记负方。
var DefaultMarks = []string{"✓", "✔", "☑", "1", "y", "yes", "w", "won", "win", "*"}

// 图标的 alt/title/src 含以下片段之一才视为标记。
var iconHints = []string{"tick", "check", "win", "yes", "✓", "✔"}

// Frames 从比赛详情页按列偏移抽取小局。
// 单元格数不足 MinCells 的行（汇总行等）忽略；表头行忽略；
// 两侧球员必须非空且不是纯数字；没有唯一胜方的行不计为小局。
// 球员字段保留原始文本（可能是 "A & B" 双打），由聚合阶段拆分与规范化。
func Frames(html string, c Context) []model.Frame {
	doc := parse(html)
	if doc == nil {
		return nil
	}
	l := c.layout()
	marks := markSet(l.Marks)
	flagged := func(cell *goquery.Selection) bool { return isFlagged(cell, marks) }
	var out []model.Frame
	doc.Find("tr").Each(func(_ int, row *goquery.Selection) {
		cs := cells(row)
		if cs.Length() < l.MinCells || row.ChildrenFiltered("th").Length() > 0 {
			return
		}
		home := clean(cs.Eq(l.Home).Text())
		away := clean(cs.Eq(l.Away).Text())
		if isHeaderLabel(home) || isHeaderLabel(away) {
			return
		}
		if home == "" || away == "" || isNumeric(home) || isNumeric(away) {
			return
		}
		hw, aw := flagged(cs.Eq(l.HomeWon)), flagged(cs.Eq(l.AwayWon))
		var w model.Winner
		switch {
		case hw && !aw:
			w = model.WinnerHome
		case aw && !hw:
			w = model.WinnerAway
		default:
			return
		}
		n := len(out) + 1
		out = append(out, model.Frame{
			Number:       n,
			Set:          model.SetOf(n),
			HomePlayer:   home,
			AwayPlayer:   away,
			Winner:       w,
			BreakAndDish: flagged(cs.Eq(l.BreakDish)),
			Forfeit:      flagged(cs.Eq(l.Forfeit)),
		})
	})
	return out
}

func markSet(ms []string) map[string]bool {
	if len(ms) == 0 {
		ms = DefaultMarks
	}
	set := make(map[string]bool, len(ms))
	for _, m := range ms {
		set[strings.ToLower(clean(m))] = true
	}
	return set
}

// isFlagged 判断标记单元格：标记文字、提示为勾选的图标，或已勾选的复选框。
func isFlagged(cell *goquery.Selection, marks map[string]bool) bool {
	if cell.Length() == 0 {
		return false
	}
	if marks[strings.ToLower(clean(cell.Text()))] {
		return true
	}
	if cell.Find("input[checked]").Length() > 0 {
		return true
	}
	hit := false
	cell.Find("img").EachWithBreak(func(_ int, img *goquery.Selection) bool {
		var attrs []string
		for _, a := range []string{"alt", "title", "src"} {
			if v, ok := img.Attr(a); ok {
				attrs = append(attrs, strings.ToLower(v))
			}
		}
		joined := strings.Join(attrs, " ")
		for _, h := range iconHints {
			if strings.Contains(joined, h) {
				hit = true
				return false
			}
		}
		return true
	})
	return hit
}
