package identity

import (
	"sort"
	"strings"
	"sync"

	"go-league-sync/internal/logx"
)

// Loader 提供修正表；Normalizer 首次使用时调用一次并缓存。
type Loader func() (*Corrections, error)

// Normalizer 把抓取到的原始球员名规范化为稳定身份。确定且幂等。
type Normalizer struct {
	mu     sync.Mutex
	loader Loader
	loaded bool
	table  *Corrections
	fold   map[string]string // 小写别名 → 规范名
}

// NewNormalizer 创建规范化器；loader 为 nil 时使用空修正表。
func NewNormalizer(loader Loader) *Normalizer {
	if loader == nil {
		loader = StaticLoader(&Corrections{})
	}
	return &Normalizer{loader: loader}
}

// 顺序固定：实体解码 → 空白折叠 → 别名 → 球队消歧。
var entityReplacer = strings.NewReplacer(
	"&#39;", "'",
	"&#039;", "'",
	"&apos;", "'",
	"&rsquo;", "'",
	"&lsquo;", "'",
	"&quot;", `"`,
	"&#34;", `"`,
	"&#034;", `"`,
	"&amp;", "&",
	"&#38;", "&",
	"&lt;", "<",
	"&gt;", ">",
	"&nbsp;", " ",
	"&#160;", " ",
	"\u00a0", " ",
)

// Normalize 返回规范名。team 为空表示不做球队消歧。
func (n *Normalizer) Normalize(raw, team string) string {
	name := collapse(entityReplacer.Replace(raw))
	if name == "" {
		return ""
	}
	tbl, fold := n.corrections()
	if v, ok := tbl.Aliases[name]; ok {
		name = v
	} else if v, ok := fold[strings.ToLower(name)]; ok {
		name = v
	}
	if team = collapse(team); team != "" {
		if v, ok := tbl.disambiguate(name, team); ok {
			name = v
		}
	}
	return name
}

// Reset 清空缓存，下次 Normalize 时重新调用 loader。
func (n *Normalizer) Reset() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.loaded = false
	n.table = nil
	n.fold = nil
}

func (n *Normalizer) corrections() (*Corrections, map[string]string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.loaded {
		return n.table, n.fold
	}
	tbl, err := n.loader()
	if err != nil || tbl == nil {
		// 加载失败时缓存空表，直到 Reset，避免每个名字都重复报错
		if err != nil {
			logx.Warnf("加载球员修正表失败，使用空表：%v", err)
		}
		tbl = &Corrections{}
	}
	n.table = tbl
	n.fold = foldIndex(tbl.Aliases)
	n.loaded = true
	return n.table, n.fold
}

// foldIndex 建立不区分大小写的别名索引；冲突时按键排序取第一个，保证确定性。
func foldIndex(aliases map[string]string) map[string]string {
	keys := make([]string, 0, len(aliases))
	for k := range aliases {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make(map[string]string, len(keys))
	for _, k := range keys {
		lk := strings.ToLower(collapse(k))
		if _, ok := out[lk]; !ok {
			out[lk] = aliases[k]
		}
	}
	return out
}

// SplitPlayers 拆分双打字段（"A & B"），丢弃空值与 "Unknown" 占位。返回原始名，未规范化。
func SplitPlayers(field string) []string {
	field = entityReplacer.Replace(field)
	parts := strings.Split(field, "&")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = collapse(p)
		if p == "" || strings.EqualFold(p, "unknown") {
			continue
		}
		out = append(out, p)
	}
	return out
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
