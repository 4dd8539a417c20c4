// 包 fetch 封装对计分网站的限速 HTTP 客户端：
// - 请求间随机间隔（[base, 2×base)），避免固定节奏
// - 429 / 5xx 按各自的退避表重试，并乘以 [0.8, 1.2] 的抖动
// - 超时/网络错误线性退避重试
// - 其余非 2xx 立即失败
package fetch

import (
	"context"
	"io"
	"math/rand/v2"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/cockroachdb/errors"
	"golang.org/x/net/html/charset"

	"go-league-sync/internal/logx"
)

const (
	defaultUA      = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/143.0.0.0 Safari/537.36"
	maxBodyBytes   = 8 << 20
	defaultTimeout = 30 * time.Second
)

var (
	defaultRateLimitBackoff   = []time.Duration{10 * time.Second, 20 * time.Second, 40 * time.Second, 60 * time.Second}
	defaultServerErrorBackoff = []time.Duration{5 * time.Second, 10 * time.Second, 20 * time.Second, 30 * time.Second}
)

// SleepFunc 在 ctx 有效期间等待 d；测试中可替换为记录型实现。
type SleepFunc func(ctx context.Context, d time.Duration) error

// Client 为顺序使用的限速客户端。请求计数器按一次运行计算，无需加锁（单线程调用）。
type Client struct {
	http               *http.Client
	timeout            time.Duration
	maxRetries         int
	baseDelay          time.Duration
	rateLimitBackoff   []time.Duration
	serverErrorBackoff []time.Duration
	timeoutBackoff     time.Duration
	userAgent          string
	sleep              SleepFunc
	rand               func() float64
	requests           int
}

// Options 为客户端构造参数。
type Options struct {
	ProxyHTTP          string
	ProxyHTTPS         string
	Timeout            time.Duration
	MaxRetries         int
	BaseDelay          time.Duration
	RateLimitBackoff   []time.Duration
	ServerErrorBackoff []time.Duration
	TimeoutBackoff     time.Duration
	UserAgent          string
	Sleep              SleepFunc
	Rand               func() float64
	Transport          http.RoundTripper
}

// New 创建客户端，支持 http/https 代理与单次请求超时。
func New(opts Options) (*Client, error) {
	transport := opts.Transport
	if transport == nil {
		transport = &http.Transport{
			Proxy: func(req *http.Request) (*url.URL, error) {
				if req.URL.Scheme == "https" && opts.ProxyHTTPS != "" {
					return url.Parse(opts.ProxyHTTPS)
				}
				if req.URL.Scheme == "http" && opts.ProxyHTTP != "" {
					return url.Parse(opts.ProxyHTTP)
				}
				return http.ProxyFromEnvironment(req)
			},
			DialContext:         (&net.Dialer{Timeout: 10 * time.Second}).DialContext,
			TLSHandshakeTimeout: 10 * time.Second,
		}
	}
	for _, p := range []string{opts.ProxyHTTP, opts.ProxyHTTPS} {
		if p == "" {
			continue
		}
		if _, err := url.Parse(p); err != nil {
			return nil, errors.Wrapf(err, "parse proxy %q", p)
		}
	}
	c := &Client{
		http:               &http.Client{Transport: transport},
		timeout:            opts.Timeout,
		maxRetries:         opts.MaxRetries,
		baseDelay:          opts.BaseDelay,
		rateLimitBackoff:   opts.RateLimitBackoff,
		serverErrorBackoff: opts.ServerErrorBackoff,
		timeoutBackoff:     opts.TimeoutBackoff,
		userAgent:          opts.UserAgent,
		sleep:              opts.Sleep,
		rand:               opts.Rand,
	}
	if c.timeout <= 0 {
		c.timeout = defaultTimeout
	}
	if c.maxRetries < 0 {
		c.maxRetries = 0
	}
	if len(c.rateLimitBackoff) == 0 {
		c.rateLimitBackoff = defaultRateLimitBackoff
	}
	if len(c.serverErrorBackoff) == 0 {
		c.serverErrorBackoff = defaultServerErrorBackoff
	}
	if c.timeoutBackoff <= 0 {
		c.timeoutBackoff = 5 * time.Second
	}
	if c.sleep == nil {
		c.sleep = Sleep
	}
	if c.rand == nil {
		c.rand = rand.Float64
	}
	if c.userAgent == "" {
		c.userAgent = defaultUA
	}
	return c, nil
}

// Requests 返回本次运行已发出的逻辑请求数（重试不重复计数）。
func (c *Client) Requests() int { return c.requests }

// Get 请求页面并返回解码后的正文。referer 可为空。
func (c *Client) Get(ctx context.Context, rawURL, referer string) (string, error) {
	if c.requests > 0 && c.baseDelay > 0 {
		d := c.baseDelay + time.Duration(c.rand()*float64(c.baseDelay))
		if err := c.sleep(ctx, d); err != nil {
			return "", err
		}
	}
	c.requests++

	for attempt := 0; ; attempt++ {
		body, status, err := c.do(ctx, rawURL, referer)
		var wait time.Duration
		switch {
		case err != nil && ctx.Err() != nil:
			return "", ctx.Err()
		case err != nil && isTimeout(err):
			if attempt >= c.maxRetries {
				return "", errors.Mark(errors.Wrapf(err, "GET %s: timed out after %d attempts", rawURL, attempt+1), ErrTimeout)
			}
			wait = c.timeoutBackoff * time.Duration(attempt+1)
			logx.Warnf("请求超时，%s 后重试：%s（第 %d 次）", wait, rawURL, attempt+1)
		case err != nil:
			if attempt >= c.maxRetries {
				return "", errors.Mark(errors.Wrapf(err, "GET %s: failed after %d attempts", rawURL, attempt+1), ErrNetwork)
			}
			wait = c.timeoutBackoff * time.Duration(attempt+1)
			logx.Warnf("网络错误，%s 后重试：%s 错误=%v", wait, rawURL, err)
		case status == http.StatusTooManyRequests:
			if attempt >= c.maxRetries {
				return "", &StatusError{URL: rawURL, StatusCode: status, Attempts: attempt + 1}
			}
			wait = c.jitter(backoffAt(c.rateLimitBackoff, attempt))
			logx.Warnf("被限流(429)，%s 后重试：%s", wait.Round(time.Millisecond), rawURL)
		case status >= 500:
			if attempt >= c.maxRetries {
				return "", &StatusError{URL: rawURL, StatusCode: status, Attempts: attempt + 1}
			}
			wait = c.jitter(backoffAt(c.serverErrorBackoff, attempt))
			logx.Warnf("服务端错误(%d)，%s 后重试：%s", status, wait.Round(time.Millisecond), rawURL)
		case status < 200 || status >= 300:
			return "", &StatusError{URL: rawURL, StatusCode: status, Attempts: attempt + 1}
		default:
			return body, nil
		}
		if err := c.sleep(ctx, wait); err != nil {
			return "", err
		}
	}
}

// do 发出单次请求；非 2xx 时仅返回状态码，正文丢弃。
func (c *Client) do(ctx context.Context, rawURL, referer string) (string, int, error) {
	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", 0, errors.Wrap(err, "new request")
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-GB,en;q=0.8")
	if referer != "" {
		req.Header.Set("Referer", referer)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return "", 0, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return "", resp.StatusCode, nil
	}
	limited := io.LimitReader(resp.Body, maxBodyBytes)
	var r io.Reader = limited
	// 部分站点仍以 windows-1252 等编码输出
	if dec, err := charset.NewReader(limited, resp.Header.Get("Content-Type")); err == nil {
		r = dec
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return "", resp.StatusCode, err
	}
	return string(b), resp.StatusCode, nil
}

func (c *Client) jitter(d time.Duration) time.Duration {
	return time.Duration(float64(d) * (0.8 + 0.4*c.rand()))
}

// backoffAt 取退避表第 attempt 项，超出时使用最后一项作为上限。
func backoffAt(schedule []time.Duration, attempt int) time.Duration {
	if attempt < len(schedule) {
		return schedule[attempt]
	}
	return schedule[len(schedule)-1]
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// Sleep 在 ctx 有效期间等待 d。
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
