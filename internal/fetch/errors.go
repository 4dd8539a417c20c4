package fetch

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// 抓取错误分类；使用 errors.Is 判断。
var (
	ErrHTTPStatus = errors.New("http status")
	ErrTimeout    = errors.New("request timeout")
	ErrNetwork    = errors.New("network failure")
)

// StatusError 描述一次以非 2xx 结束的请求（包括重试预算耗尽的 429/5xx）。
type StatusError struct {
	URL        string
	StatusCode int
	Attempts   int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: http status %d after %d attempt(s)", e.URL, e.StatusCode, e.Attempts)
}

// Unwrap 使 errors.Is(err, ErrHTTPStatus) 成立。
func (e *StatusError) Unwrap() error { return ErrHTTPStatus }
