package extract

import (
	"regexp"

	"github.com/PuerkitoBio/goquery"

	"go-league-sync/internal/model"
)

var (
	timeRe  = regexp.MustCompile(`(?i)^\d{1,2}[:.]\d{2}(\s*[ap]\.?m\.?)?$`)
	venueRe = regexp.MustCompile(`(?i)^(vs?\.?|@|at|-|–|tbc|tba|home|away)$|^(venue|table|tbl)\b`)
)

func skipFixtureCell(s string) bool {
	return s == "" || isNumeric(s) || timeRe.MatchString(s) || venueRe.MatchString(s) || isHeaderLabel(s)
}

// Fixtures 从赛程页抽取未开赛比赛：每行先找日期单元格，
// 再向后跳过时间、纯数字与场地/球台标签，取接下来两个单元格作为主客队。
func Fixtures(html string, c Context) []model.Fixture {
	doc := parse(html)
	if doc == nil {
		return nil
	}
	var out []model.Fixture
	doc.Find("tr").Each(func(_ int, row *goquery.Selection) {
		ts := texts(row)
		at, date := -1, ""
		for i, t := range ts {
			if d, ok := NormalizeDate(t); ok {
				at, date = i, d
				break
			}
		}
		if at < 0 {
			return
		}
		var teams []string
		for _, t := range ts[at+1:] {
			if skipFixtureCell(t) {
				continue
			}
			teams = append(teams, t)
			if len(teams) == 2 {
				break
			}
		}
		if len(teams) < 2 {
			return
		}
		out = append(out, model.Fixture{
			Date:     date,
			Home:     c.team(teams[0]),
			Away:     c.team(teams[1]),
			Division: c.Division,
		})
	})
	return out
}
