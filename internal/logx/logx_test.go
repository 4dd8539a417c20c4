package logx_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-league-sync/internal/logx"
)

func TestLogx_PrettyZH_Info(t *testing.T) {
	var buf bytes.Buffer
	logx.InitWriter(&buf, "debug", "pretty", "zh-CN", "never")
	logx.Infof("hello %s", "world")
	assert.Contains(t, buf.String(), "[信息]")
	assert.Contains(t, buf.String(), "hello world")
}

func TestLogx_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logx.InitWriter(&buf, "warn", "pretty", "zh-CN", "never")
	logx.Infof("should not print")
	logx.Warnf("warn on")
	out := buf.String()
	assert.NotContains(t, out, "should not print")
	assert.Contains(t, out, "[警告]")
}

func TestLogx_EnglishLabels(t *testing.T) {
	var buf bytes.Buffer
	logx.InitWriter(&buf, "info", "pretty", "en", "never")
	logx.Infof("ok")
	assert.Contains(t, buf.String(), "[INFO]")
}

func TestLogx_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logx.InitWriter(&buf, "info", "json", "en", "never")
	logx.Errorf("boom %d", 1)
	line := strings.TrimSpace(buf.String())
	require.True(t, strings.HasPrefix(line, "{"), "expect json line, got %q", line)
	assert.Contains(t, line, `"level":"ERROR"`)
	assert.Contains(t, line, `"msg":"boom 1"`)
}

func TestLogx_Silent(t *testing.T) {
	var buf bytes.Buffer
	logx.InitWriter(&buf, "none", "pretty", "en", "never")
	logx.Errorf("nothing")
	assert.Empty(t, buf.String())
}
