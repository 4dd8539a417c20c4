// 包 identity 负责球员身份规范化：
// - 解码抓取文本中的少量 HTML 实体、折叠空白
// - 按别名表把变体拼写映射为规范名
// - 按 "规范名|球队" 的消歧表区分同名不同人
package identity

import (
	"io"
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"
)

// Corrections 为球员修正表（players.yaml）。
type Corrections struct {
	// Aliases：变体拼写 → 规范名
	Aliases map[string]string `yaml:"aliases"`
	// Disambiguations：键为 "规范名|球队"，值为消歧后的展示名
	Disambiguations map[string]string `yaml:"disambiguations"`
}

// LoadCorrections 从 YAML 文件加载修正表；路径为空时返回空表。
func LoadCorrections(path string) (*Corrections, error) {
	if strings.TrimSpace(path) == "" {
		return &Corrections{}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open corrections %s", path)
	}
	defer f.Close()
	b, err := io.ReadAll(f)
	if err != nil {
		return nil, errors.Wrapf(err, "read corrections %s", path)
	}
	var c Corrections
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, errors.Wrapf(err, "unmarshal corrections %s", path)
	}
	return &c, nil
}

// FileLoader 返回按路径加载的 Loader。
func FileLoader(path string) Loader {
	return func() (*Corrections, error) { return LoadCorrections(path) }
}

// StaticLoader 返回固定修正表的 Loader，主要用于测试与预加载场景。
func StaticLoader(c *Corrections) Loader {
	return func() (*Corrections, error) { return c, nil }
}

func (c *Corrections) disambiguate(name, team string) (string, bool) {
	if c == nil || len(c.Disambiguations) == 0 {
		return "", false
	}
	v, ok := c.Disambiguations[name+"|"+team]
	return v, ok
}
