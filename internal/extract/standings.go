package extract

import (
	"github.com/PuerkitoBio/goquery"
)

// Standings 从积分榜页抽取队名（去重、已映射，保持页面顺序）。
// 主方案：指向球队页的链接文本；回退：每行第一个非数字单元格。
func Standings(html string, c Context) []string {
	doc := parse(html)
	if doc == nil {
		return nil
	}
	var out []string
	seen := map[string]bool{}
	add := func(raw string) {
		name := c.team(raw)
		if name == "" || isNumeric(name) || isHeaderLabel(name) || seen[name] {
			return
		}
		seen[name] = true
		out = append(out, name)
	}

	doc.Find("table a[href*='team']").Each(func(_ int, a *goquery.Selection) {
		add(a.Text())
	})
	if len(out) > 0 {
		return out
	}

	doc.Find("tr").Each(func(_ int, row *goquery.Selection) {
		if row.ChildrenFiltered("td").Length() == 0 {
			return
		}
		for _, t := range texts(row) {
			if t == "" || isNumeric(t) {
				continue
			}
			add(t)
			return
		}
	})
	return out
}
