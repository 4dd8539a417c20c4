// 包 backup 负责本地备份：每个联赛一个目录，五个 JSON 文件，每次运行整体覆盖。
// 备份同时是下一次增量运行的"既有数据"来源。
package backup

import (
	"io"
	"os"
	"path/filepath"

	"github.com/bytedance/sonic"
	"github.com/cockroachdb/errors"

	"go-league-sync/internal/model"
)

// 备份文件名固定，消费方按名读取。
const (
	ResultsFile  = "results.json"
	FixturesFile = "fixtures.json"
	RostersFile  = "rosters.json"
	PlayersFile  = "players.json"
	FramesFile   = "frames.json"
)

// Files 返回全部备份文件名（写入顺序）。
func Files() []string {
	return []string{ResultsFile, FixturesFile, RostersFile, PlayersFile, FramesFile}
}

// Write 将快照写入 dir（不存在时创建）。
// ConfigStd 对 map 键排序，同样的快照总是得到逐字节相同的文件。
func Write(dir string, b model.Bundle) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrapf(err, "mkdir %s", dir)
	}
	b = withEmpty(b)
	parts := []struct {
		name string
		v    any
	}{
		{ResultsFile, b.Results},
		{FixturesFile, b.Fixtures},
		{RostersFile, b.Rosters},
		{PlayersFile, b.PlayerStats},
		{FramesFile, b.Frames},
	}
	for _, p := range parts {
		if err := writeJSON(filepath.Join(dir, p.name), p.v); err != nil {
			return err
		}
	}
	return nil
}

// Load 读取 dir 中的备份；缺失的文件按空处理，损坏的文件返回错误。
func Load(dir string) (*model.Bundle, error) {
	var b model.Bundle
	parts := []struct {
		name string
		v    any
	}{
		{ResultsFile, &b.Results},
		{FixturesFile, &b.Fixtures},
		{RostersFile, &b.Rosters},
		{PlayersFile, &b.PlayerStats},
		{FramesFile, &b.Frames},
	}
	for _, p := range parts {
		if err := readJSON(filepath.Join(dir, p.name), p.v); err != nil {
			return nil, err
		}
	}
	return &b, nil
}

// LoadFile 读取单文件形式的既有数据包（Bundle 的 JSON），用于调用方预先准备好的数据。
func LoadFile(path string) (*model.Bundle, error) {
	var b model.Bundle
	if err := readJSON(path, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

func writeJSON(path string, v any) error {
	f, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return errors.Wrapf(err, "create temp for %s", path)
	}
	tmp := f.Name()
	enc := sonic.ConfigStd.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		f.Close()
		os.Remove(tmp)
		return errors.Wrapf(err, "encode json to %s", path)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return errors.Wrapf(err, "close %s", tmp)
	}
	// 先写临时文件再改名，中途失败不会留下半个文件
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return errors.Wrapf(err, "rename %s", path)
	}
	return nil
}

func readJSON(path string, v any) error {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return errors.Wrapf(err, "open %s", path)
	}
	defer f.Close()
	raw, err := io.ReadAll(f)
	if err != nil {
		return errors.Wrapf(err, "read %s", path)
	}
	if len(raw) == 0 {
		return nil
	}
	if err := sonic.ConfigStd.Unmarshal(raw, v); err != nil {
		return errors.Wrapf(err, "decode %s", path)
	}
	return nil
}

// withEmpty 把 nil 换成空集合，文件里写 [] / {} 而不是 null。
func withEmpty(b model.Bundle) model.Bundle {
	if b.Results == nil {
		b.Results = []model.Result{}
	}
	if b.Fixtures == nil {
		b.Fixtures = []model.Fixture{}
	}
	if b.Rosters == nil {
		b.Rosters = model.Rosters{}
	}
	if b.PlayerStats == nil {
		b.PlayerStats = model.PlayerStats{}
	}
	frames := make([]model.MatchFrames, len(b.Frames))
	copy(frames, b.Frames)
	for i := range frames {
		if frames[i].Frames == nil {
			frames[i].Frames = []model.Frame{}
		}
	}
	b.Frames = frames
	return b
}
