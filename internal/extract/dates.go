package extract

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DateLayout 为统一输出的日期格式 DD-MM-YYYY。
const DateLayout = "02-01-2006"

var (
	numDateRe  = regexp.MustCompile(`\b(\d{1,2})[/.\-](\d{1,2})[/.\-](\d{4}|\d{2})\b`)
	textDateRe = regexp.MustCompile(`(?i)\b(\d{1,2})(?:st|nd|rd|th)?\s+(jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*\.?,?\s+(\d{4})\b`)
)

var months = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March, "apr": time.April,
	"may": time.May, "jun": time.June, "jul": time.July, "aug": time.August,
	"sep": time.September, "oct": time.October, "nov": time.November, "dec": time.December,
}

// NormalizeDate 识别 dd/mm/yy、dd-mm-yyyy、dd.mm.yyyy 与 "12 Jan 2026" 等写法，
// 统一为 DD-MM-YYYY。不是合法日历日期时返回 false。
func NormalizeDate(s string) (string, bool) {
	var d, y int
	var m time.Month
	if g := numDateRe.FindStringSubmatch(s); g != nil {
		d, _ = strconv.Atoi(g[1])
		mi, _ := strconv.Atoi(g[2])
		m = time.Month(mi)
		y, _ = strconv.Atoi(g[3])
		if len(g[3]) == 2 {
			y += 2000
		}
	} else if g := textDateRe.FindStringSubmatch(s); g != nil {
		d, _ = strconv.Atoi(g[1])
		m = months[strings.ToLower(g[2])]
		y, _ = strconv.Atoi(g[3])
	} else {
		return "", false
	}
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	if t.Day() != d || t.Month() != m || t.Year() != y {
		return "", false
	}
	return fmt.Sprintf("%02d-%02d-%04d", d, int(m), y), true
}

// ParseDate 解析 DD-MM-YYYY；失败返回零值与 false，调用方据此把未知日期排在最后。
func ParseDate(s string) (time.Time, bool) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
