package extract

import (
	"regexp"

	"github.com/PuerkitoBio/goquery"

	"go-league-sync/internal/model"
)

// 导航类单元格（"View"、"»"、"5 - 3" 之类的链接文字）不作为队名。
var navRe = regexp.MustCompile(`(?i)^(view|details?|report|score ?card|match ?card|more|info|vs?\.?|@|»|>>|-|–)$|^\d+\s*[-–:]\s*\d+$`)

func isNav(s string) bool { return navRe.MatchString(s) }

// TeamMatches 从球队赛果列表抽取已完赛比赛。
// 只处理含详情链接（可提取比赛 ID）的行；行内前两个纯数字单元格视为比分，
// 不足两个或 0-0 时跳过。日期留空，由编排器后续关联；FrameCount 暂取比分之和。
func TeamMatches(html string, c Context) []model.Result {
	doc := parse(html)
	if doc == nil {
		return nil
	}
	var out []model.Result
	doc.Find("tr").Each(func(_ int, row *goquery.Selection) {
		id := c.matchID(row)
		if id == "" {
			return
		}
		ts := texts(row)
		var score []int
		for i, t := range ts {
			if isNumeric(t) {
				score = append(score, i)
				if len(score) == 2 {
					break
				}
			}
		}
		if len(score) < 2 {
			return
		}
		hs, as := atoi(ts[score[0]]), atoi(ts[score[1]])
		if hs == 0 && as == 0 {
			return
		}

		// 第一遍：比分列之前的单元格；回退：整行前两个合格单元格
		names := teamCells(ts[:score[0]], nil)
		if len(names) < 2 {
			names = teamCells(ts, map[int]bool{score[0]: true, score[1]: true})
		}
		if len(names) < 2 {
			return
		}
		out = append(out, model.Result{
			Home:       c.team(names[0]),
			Away:       c.team(names[1]),
			HomeScore:  hs,
			AwayScore:  as,
			Division:   c.Division,
			FrameCount: hs + as,
			MatchID:    id,
		})
	})
	return out
}

func teamCells(ts []string, skip map[int]bool) []string {
	var out []string
	for i, t := range ts {
		if skip[i] || t == "" || isNumeric(t) || isNav(t) || isHeaderLabel(t) {
			continue
		}
		if _, ok := NormalizeDate(t); ok {
			continue
		}
		out = append(out, t)
		if len(out) == 2 {
			break
		}
	}
	return out
}
