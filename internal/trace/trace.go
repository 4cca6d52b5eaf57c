package trace

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/selimozcann/LinkGuard/internal/htmlscan"
	"github.com/selimozcann/LinkGuard/internal/logging"
	"github.com/selimozcann/LinkGuard/internal/metrics"
	"github.com/selimozcann/LinkGuard/internal/model"
	"github.com/selimozcann/LinkGuard/internal/util"
)

const (
	DefaultMaxDepth   = 7
	DefaultHopTimeout = 10 * time.Second
)

// Resolver follows a link to its final destination through HTTP and
// client-side redirects.
type Resolver struct {
	Client     *http.Client
	MaxDepth   int
	HopTimeout time.Duration
	Logger     *slog.Logger
}

// New creates a Resolver with the default depth and hop timeout.
func New(c *http.Client, logger *slog.Logger) *Resolver {
	return &Resolver{Client: c, MaxDepth: DefaultMaxDepth, HopTimeout: DefaultHopTimeout, Logger: logging.OrDefault(logger)}
}

// Resolve follows raw and records every hop. At most MaxDepth hops are
// followed after the origin; when the budget runs out the last URL reached
// is reported. Network failures end resolution with the chain gathered so
// far.
func (t *Resolver) Resolve(ctx context.Context, raw string) model.Resolved {
	c := util.Parse(raw)
	if !c.Valid {
		return model.Resolved{FinalURL: raw}
	}
	maxDepth := t.MaxDepth
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	logger := logging.OrDefault(t.Logger)

	current := c.URL()
	chain := []model.Hop{{URL: current, Domain: c.Host, Type: model.HopOrigin}}
	seen := map[string]struct{}{current: {}}

	for len(chain)-1 < maxDepth {
		hops, resp, err := t.fetch(ctx, current, maxDepth-(len(chain)-1))
		chain = append(chain, hops...)
		if err != nil {
			logger.Debug("redirect hop failed", "url", current, "err", err)
			break
		}
		for _, h := range hops {
			seen[h.URL] = struct{}{}
		}
		u := resp.Request.URL
		if resp.StatusCode >= 300 && resp.StatusCode < 400 {
			// depth budget reached inside the HTTP redirect run
			_ = resp.Body.Close()
			break
		}
		if !htmlscan.ShouldFetchBody(resp.Header.Get("Content-Type")) {
			_ = resp.Body.Close()
			break
		}
		next, via, _, ok := htmlscan.ReadAndDetect(resp.Body, htmlscan.MaxBody, u)
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		_ = resp.Body.Close()
		if !ok {
			break
		}
		target := next.String()
		if target == u.String() {
			break
		}
		if _, loop := seen[target]; loop {
			logger.Debug("client-side redirect loop", "url", target)
			break
		}
		if len(chain)-1 >= maxDepth {
			break
		}
		logger.Debug("client-side redirect", "from", u.String(), "to", target, "via", via)
		chain = append(chain, model.Hop{URL: target, Domain: next.Hostname(), Type: model.HopClientSide})
		seen[target] = struct{}{}
		current = target
	}

	res := Summarize(chain)
	metrics.RedirectHops.Observe(float64(res.TotalRedirects))
	return res
}

// fetch GETs target, letting the client follow HTTP redirects while
// recording each one, up to budget hops.
func (t *Resolver) fetch(ctx context.Context, target string, budget int) ([]model.Hop, *http.Response, error) {
	timeout := t.HopTimeout
	if timeout <= 0 {
		timeout = DefaultHopTimeout
	}
	hopCtx, cancel := context.WithTimeout(ctx, timeout)

	var hops []model.Hop
	cl := *t.Client
	cl.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		if len(hops) >= budget {
			return http.ErrUseLastResponse
		}
		status := 0
		if req.Response != nil {
			status = req.Response.StatusCode
		}
		hops = append(hops, model.Hop{URL: req.URL.String(), Domain: req.URL.Hostname(), Type: model.HopHTTP, StatusCode: status})
		return nil
	}

	req, err := http.NewRequestWithContext(hopCtx, http.MethodGet, target, nil)
	if err != nil {
		cancel()
		return nil, nil, err
	}
	resp, err := cl.Do(req)
	if err != nil {
		cancel()
		return hops, nil, err
	}
	resp.Body = &cancelBody{ReadCloser: resp.Body, cancel: cancel}
	return hops, resp, nil
}

type cancelBody struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (b *cancelBody) Close() error {
	err := b.ReadCloser.Close()
	b.cancel()
	return err
}

// Summarize derives the aggregate fields of a chain.
func Summarize(chain []model.Hop) model.Resolved {
	res := model.Resolved{Chain: chain}
	if len(chain) == 0 {
		return res
	}
	res.FinalURL = chain[len(chain)-1].URL
	res.TotalRedirects = len(chain) - 1
	hosts := make(map[string]struct{})
	for _, h := range chain {
		if h.Domain != "" {
			hosts[h.Domain] = struct{}{}
		} else if u, err := url.Parse(h.URL); err == nil {
			hosts[u.Hostname()] = struct{}{}
		}
	}
	if n := len(hosts) - 1; n > 0 {
		res.CrossDomainHopCount = n
	}
	res.IsSuspiciousRedirect = res.CrossDomainHopCount >= 2 || len(chain) > 4
	return res
}
