// 包 logx 是对 zap 的薄封装：
// - 支持级别/格式/语言/颜色配置
// - pretty 输出带本地化等级标签（[调试]/[信息]/[警告]/[错误] 或 [DEBUG]/[INFO]/...）
// - 通过 Debugf/Infof/Warnf/Errorf 暴露，业务代码不直接依赖 zap
package logx

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var current atomic.Pointer[zap.SugaredLogger]

func init() {
	current.Store(zap.NewNop().Sugar())
}

// Init 根据 level/format/locale/colorMode 初始化全局日志器，输出到当前的 os.Stdout。
func Init(level, format, locale, colorMode string) {
	InitWriter(os.Stdout, level, format, locale, colorMode)
}

// InitWriter 与 Init 相同，但写入指定的 io.Writer。
func InitWriter(w io.Writer, level, format, locale, colorMode string) {
	if w == nil {
		w = os.Stdout
	}
	lv := parseLevel(level)
	var enc zapcore.Encoder
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json":
		enc = zapcore.NewJSONEncoder(jsonEncoderConfig())
	case "pretty", "":
		enc = zapcore.NewConsoleEncoder(prettyEncoderConfig(locale, shouldColor(w, colorMode)))
	default:
		enc = zapcore.NewConsoleEncoder(prettyEncoderConfig("en", false))
	}
	core := zapcore.NewCore(enc, zapcore.Lock(zapcore.AddSync(w)), lv)
	current.Store(zap.New(core).Sugar())
}

// parseLevel 将字符串级别解析为 zap 的 LevelEnabler。
func parseLevel(s string) zapcore.LevelEnabler {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	case "none", "silent", "off":
		return zap.LevelEnablerFunc(func(zapcore.Level) bool { return false })
	default:
		return zapcore.InfoLevel
	}
}

func jsonEncoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:        "time",
		LevelKey:       "level",
		NameKey:        "logger",
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.CapitalLevelEncoder,
		EncodeTime:     zapcore.RFC3339NanoTimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
	}
}

func prettyEncoderConfig(locale string, color bool) zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:          "time",
		LevelKey:         "level",
		MessageKey:       "msg",
		LineEnding:       zapcore.DefaultLineEnding,
		ConsoleSeparator: " ",
		EncodeTime:       zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05"),
		EncodeDuration:   zapcore.StringDurationEncoder,
		EncodeLevel: func(l zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
			lbl := levelLabel(locale, l)
			if color {
				lbl = colorize(lbl, l)
			}
			enc.AppendString(lbl)
		},
	}
}

// 便捷函数：格式化并按级别输出
func Debugf(format string, v ...any) { current.Load().Debug(fmt.Sprintf(format, v...)) }
func Infof(format string, v ...any)  { current.Load().Info(fmt.Sprintf(format, v...)) }
func Warnf(format string, v ...any)  { current.Load().Warn(fmt.Sprintf(format, v...)) }
func Errorf(format string, v ...any) { current.Load().Error(fmt.Sprintf(format, v...)) }

// Infow 输出带键值对的信息日志，用于报告类结构化字段。
func Infow(msg string, kv ...any) { current.Load().Infow(msg, kv...) }

// Sync 刷新底层缓冲；写入 pipe/终端时忽略错误。
func Sync() { _ = current.Load().Sync() }

// levelLabel 根据语言返回等级标签。
func levelLabel(locale string, l zapcore.Level) string {
	if strings.HasPrefix(strings.ToLower(locale), "zh") {
		switch l {
		case zapcore.DebugLevel:
			return "[调试]"
		case zapcore.InfoLevel:
			return "[信息]"
		case zapcore.WarnLevel:
			return "[警告]"
		case zapcore.ErrorLevel:
			return "[错误]"
		default:
			return fmt.Sprintf("[L%d]", l)
		}
	}
	switch l {
	case zapcore.DebugLevel:
		return "[DEBUG]"
	case zapcore.InfoLevel:
		return "[INFO]"
	case zapcore.WarnLevel:
		return "[WARN]"
	case zapcore.ErrorLevel:
		return "[ERROR]"
	default:
		return fmt.Sprintf("[L%d]", l)
	}
}

// shouldColor 判断是否启用颜色：遵循 LOG_COLOR 与 NO_COLOR。
func shouldColor(w io.Writer, mode string) bool {
	if v := os.Getenv("NO_COLOR"); v != "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "always":
		return true
	case "auto", "":
		// 仅在字符设备上启用彩色输出
		if f, ok := w.(*os.File); ok {
			if fi, err := f.Stat(); err == nil {
				return (fi.Mode() & os.ModeCharDevice) != 0
			}
		}
		return false
	default:
		return false
	}
}

// colorize 按等级包裹 ANSI 颜色码。
func colorize(s string, l zapcore.Level) string {
	code := "0"
	switch l {
	case zapcore.DebugLevel:
		code = "90"
	case zapcore.InfoLevel:
		code = "36"
	case zapcore.WarnLevel:
		code = "33"
	case zapcore.ErrorLevel:
		code = "31"
	}
	return "\x1b[" + code + "m" + s + "\x1b[0m"
}
