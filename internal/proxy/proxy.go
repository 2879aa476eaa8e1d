// Package proxy relays inbound requests to upstream HTTP services, overlaying
// configured query parameters and headers.
package proxy

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"
)

const (
	defaultTimeout = 30 * time.Second

	// supportedEncodings are the codings decodedBody can undo.
	supportedEncodings = "gzip, deflate, br"
)

// ErrUpstream reports a transport failure talking to the upstream.
var ErrUpstream = errors.New("upstream request failed")

// hopHeaders apply to a single connection and are never forwarded.
var hopHeaders = []string{
	"Connection",
	"Keep-Alive",
	"Proxy-Authenticate",
	"Proxy-Authorization",
	"Te",
	"Trailer",
	"Transfer-Encoding",
	"Upgrade",
}

// Resolver derives the full upstream URL from the inbound request.
type Resolver func(c *fiber.Ctx) (string, error)

// Options configures what a Forwarder injects and strips.
type Options struct {
	// Query values overwrite inbound query parameters with the same name.
	Query map[string]string
	// Headers overwrite inbound request headers with the same name.
	Headers map[string]string
	// StripHeaders are removed from the inbound request before forwarding.
	StripHeaders []string
	Timeout      time.Duration
}

// Forwarder relays one request to one upstream response. It holds no state
// between requests and never retries.
type Forwarder struct {
	base    string
	resolve Resolver
	opts    Options
	client  *fasthttp.Client
	logger  *slog.Logger
}

// New forwards to a fixed base URL; the route's wildcard tail is appended to
// the base path.
func New(base string, opts Options, client *fasthttp.Client, logger *slog.Logger) *Forwarder {
	return newForwarder(strings.TrimRight(base, "/"), nil, opts, client, logger)
}

// NewResolved forwards to the URL returned by resolve, used verbatim.
func NewResolved(resolve Resolver, opts Options, client *fasthttp.Client, logger *slog.Logger) *Forwarder {
	return newForwarder("", resolve, opts, client, logger)
}

func newForwarder(base string, resolve Resolver, opts Options, client *fasthttp.Client, logger *slog.Logger) *Forwarder {
	if client == nil {
		client = &fasthttp.Client{Name: "airtime-queen-proxy"}
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	return &Forwarder{base: base, resolve: resolve, opts: opts, client: client, logger: logger}
}

// Handler forwards every request with the configured overlays.
func (f *Forwarder) Handler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return f.Forward(c, nil)
	}
}

// Forward relays c upstream. extra headers are applied after the configured ones.
func (f *Forwarder) Forward(c *fiber.Ctx, extra map[string]string) error {
	target, err := f.target(c)
	if err != nil {
		return err
	}

	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	f.buildRequest(c, req, target, extra)

	if err := f.client.DoTimeout(req, resp, f.opts.Timeout); err != nil {
		f.logger.Error("proxy request failed",
			slog.String("method", c.Method()),
			slog.String("upstream", redact(target)),
			slog.Any("error", err))
		return fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	return f.writeResponse(c, resp)
}

func (f *Forwarder) target(c *fiber.Ctx) (string, error) {
	var raw string
	if f.resolve != nil {
		resolved, err := f.resolve(c)
		if err != nil {
			return "", err
		}
		raw = resolved
	} else {
		raw = f.base
		if tail := strings.Trim(c.Params("*"), "/"); tail != "" {
			raw += "/" + tail
		}
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parse upstream url: %w", err)
	}
	query, err := url.ParseQuery(string(c.Request().URI().QueryString()))
	if err != nil {
		query = url.Values{}
	}
	for key, value := range f.opts.Query {
		query.Set(key, value)
	}
	u.RawQuery = query.Encode()
	return u.String(), nil
}

func (f *Forwarder) buildRequest(c *fiber.Ctx, req *fasthttp.Request, target string, extra map[string]string) {
	req.SetRequestURI(target)
	req.Header.SetMethod(c.Method())

	c.Request().Header.VisitAll(func(key, value []byte) {
		req.Header.Add(string(key), string(value))
	})
	req.Header.Del(fasthttp.HeaderHost)
	req.Header.Del(fasthttp.HeaderContentLength)
	if len(req.Header.Peek(fasthttp.HeaderAcceptEncoding)) > 0 {
		req.Header.Set(fasthttp.HeaderAcceptEncoding, supportedEncodings)
	}
	for _, h := range hopHeaders {
		req.Header.Del(h)
	}
	for _, h := range f.opts.StripHeaders {
		req.Header.Del(h)
	}
	for key, value := range f.opts.Headers {
		req.Header.Set(key, value)
	}
	for key, value := range extra {
		req.Header.Set(key, value)
	}

	switch c.Method() {
	case fiber.MethodPost, fiber.MethodPut, fiber.MethodPatch, fiber.MethodDelete:
		req.SetBody(c.Body())
	}
}

func (f *Forwarder) writeResponse(c *fiber.Ctx, resp *fasthttp.Response) error {
	body, err := decodedBody(resp)
	if err != nil {
		f.logger.Error("proxy response decode failed", slog.Any("error", err))
		return fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	c.Status(resp.StatusCode())
	resp.Header.VisitAll(func(key, value []byte) {
		switch strings.ToLower(string(key)) {
		case "host", "content-encoding", "content-length":
			return
		}
		for _, h := range hopHeaders {
			if strings.EqualFold(h, string(key)) {
				return
			}
		}
		c.Response().Header.Add(string(key), string(value))
	})
	c.Response().SetBody(body)
	return nil
}

// decodedBody returns the upstream body with any content coding removed, since
// Content-Encoding is not relayed.
func decodedBody(resp *fasthttp.Response) ([]byte, error) {
	switch strings.ToLower(strings.TrimSpace(string(resp.Header.ContentEncoding()))) {
	case "gzip":
		return resp.BodyGunzip()
	case "br":
		return resp.BodyUnbrotli()
	case "deflate":
		return resp.BodyInflate()
	default:
		return resp.Body(), nil
	}
}

// redact drops path and query from URLs in logs since both may carry API keys.
func redact(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "invalid-url"
	}
	return u.Scheme + "://" + u.Host
}
