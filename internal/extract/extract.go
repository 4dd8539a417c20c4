// 包 extract 提供各类页面的结构化解析：
//   - 积分榜 → 队名；球队赛果列表 → Result；比赛详情 → Frame；赛程 → Fixture
//   - 全部为纯函数：输入一份 HTML 与上下文，不做网络与持久化
//   - 来源页面没有稳定的 class/id，依赖单元格计数、正则与链接 href 等结构启发式，
//     每个解析器都有主方案与回退方案；未命中时返回空切片而不是错误
package extract

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Context 为解析单页所需的上下文。
type Context struct {
	Division string            // 写入记录的级别代码
	Remap    map[string]string // 站点原名 → 展示名
	MatchID  *regexp.Regexp    // 从详情链接 href 中提取比赛 ID，取第 1 个分组
	Layout   FrameLayout       // 详情页小局行的列偏移；MinCells 为 0 时列偏移取 DefaultFrameLayout
}

// FrameLayout 为详情行的固定列偏移（从 0 开始）、最少单元格数与标记文字。
type FrameLayout struct {
	Home      int
	Away      int
	HomeWon   int
	AwayWon   int
	BreakDish int
	Forfeit   int
	MinCells  int
	Marks     []string // 为空时使用 DefaultMarks
}

// DefaultFrameLayout：局号 | 主队球员 | 客队球员 | 主胜 | 客胜 | 炸清 | 弃权。
func DefaultFrameLayout() FrameLayout {
	return FrameLayout{Home: 1, Away: 2, HomeWon: 3, AwayWon: 4, BreakDish: 5, Forfeit: 6, MinCells: 7}
}

func (c Context) layout() FrameLayout {
	if c.Layout.MinCells == 0 {
		l := DefaultFrameLayout()
		l.Marks = c.Layout.Marks
		return l
	}
	return c.Layout
}

// team 折叠空白并应用队名映射。
func (c Context) team(raw string) string {
	name := clean(raw)
	if v, ok := c.Remap[name]; ok {
		return v
	}
	return name
}

// matchID 在行内寻找带比赛 ID 的详情链接。
func (c Context) matchID(row *goquery.Selection) string {
	if c.MatchID == nil {
		return ""
	}
	id := ""
	row.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, _ := a.Attr("href")
		m := c.MatchID.FindStringSubmatch(href)
		switch {
		case len(m) > 1 && m[1] != "":
			id = m[1]
		case len(m) == 1:
			id = m[0]
		default:
			return true
		}
		return false
	})
	return id
}

func parse(html string) *goquery.Document {
	if strings.TrimSpace(html) == "" {
		return nil
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}
	return doc
}

// cells 返回行内直接子单元格（td/th），避免嵌套表格串行。
func cells(row *goquery.Selection) *goquery.Selection {
	return row.ChildrenFiltered("td,th")
}

func texts(row *goquery.Selection) []string {
	cs := cells(row)
	out := make([]string, 0, cs.Length())
	cs.Each(func(_ int, s *goquery.Selection) {
		out = append(out, clean(s.Text()))
	})
	return out
}

// clean 折叠空白（含 NBSP）。
func clean(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

var numericRe = regexp.MustCompile(`^\d+$`)

func isNumeric(s string) bool { return numericRe.MatchString(s) }

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

// 表头文字：出现即视为表头行/表头单元格。
var headerLabels = map[string]bool{
	"team": true, "teams": true, "home": true, "away": true, "player": true, "players": true,
	"home player": true, "away player": true, "pos": true, "position": true, "#": true,
	"frame": true, "no": true, "no.": true, "date": true, "venue": true, "result": true,
	"home team": true, "away team": true, "score": true,
}

func isHeaderLabel(s string) bool { return headerLabels[strings.ToLower(s)] }
