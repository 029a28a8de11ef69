package widget

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/net/html"

	"sizechart-backend/pkg/ids"
)

// DefaultFetchTimeout bounds a single mount's fetch.
const DefaultFetchTimeout = 10 * time.Second

var errInvalidConfig = errors.New("invalid mount configuration")

// Runtime claims mount points in a parsed document and renders each one.
type Runtime struct {
	fetcher  ChartFetcher
	renderer *Renderer
	timeout  time.Duration
	newID    func() string
}

func NewRuntime(fetcher ChartFetcher, renderer *Renderer, timeout time.Duration) *Runtime {
	if renderer == nil {
		renderer = NewRenderer()
	}
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}
	return &Runtime{fetcher: fetcher, renderer: renderer, timeout: timeout, newID: ids.New}
}

// Report summarises one Init pass.
type Report struct {
	Mounts   []*Mount
	Rendered int
	Errored  int
	Skipped  int
}

type mountResult struct {
	mount *Mount
	html  template.HTML
	err   error
}

// Init claims every unmarked data-chart element in doc, shows a loading
// placeholder and fetches all mounts concurrently. Each mount ends rendered
// or errored on its own; elements already carrying the marker are skipped,
// so calling Init again only picks up new mount points.
func (rt *Runtime) Init(ctx context.Context, doc *html.Node) Report {
	var report Report

	var pending []*Mount
	for _, node := range findMountPoints(doc) {
		cfg, err := ParseMountConfig(attrMap(node))
		if errors.Is(err, ErrMissingChart) {
			log.Warn().Msg("Skipping widget mount point without data-chart")
			report.Skipped++
			continue
		}

		m := newMount(node)
		m.ID = rt.newID()
		m.Config = cfg
		setAttr(node, AttrMarker, m.ID)
		_ = m.transition(StatePending)
		report.Mounts = append(report.Mounts, m)

		if err != nil {
			rt.finish(m, "", fmt.Errorf("%w: %v", errInvalidConfig, err))
			continue
		}
		replaceChildren(node, rt.renderer.Loading(cfg))
		pending = append(pending, m)
	}

	results := make(chan mountResult, len(pending))
	var wg sync.WaitGroup
	for _, m := range pending {
		wg.Add(1)
		go func(m *Mount) {
			defer wg.Done()
			out, err := rt.renderMount(ctx, m.Config)
			results <- mountResult{mount: m, html: out, err: err}
		}(m)
	}
	go func() {
		wg.Wait()
		close(results)
	}()

	for res := range results {
		rt.finish(res.mount, res.html, res.err)
	}

	for _, m := range report.Mounts {
		switch m.State {
		case StateRendered:
			report.Rendered++
		case StateErrored:
			report.Errored++
		}
	}
	return report
}

// RenderFragment renders one mount outside a document.
func (rt *Runtime) RenderFragment(ctx context.Context, cfg MountConfig) (template.HTML, MountState) {
	out, err := rt.renderMount(ctx, cfg)
	if err != nil {
		return rt.renderer.Error(cfg, errorMessage(err)), StateErrored
	}
	return out, StateRendered
}

// renderMount fetches and renders under the per-mount timeout. A panic in
// the fetcher or renderer becomes an error for that mount only.
func (rt *Runtime) renderMount(ctx context.Context, cfg MountConfig) (out template.HTML, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("widget mount panic: %v", r)
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, rt.timeout)
	defer cancel()

	chart, err := rt.fetcher.FetchChart(ctx, cfg)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(err, ctxErr) {
			err = fmt.Errorf("%w: %v", ctxErr, err)
		}
		return "", err
	}
	return rt.renderer.Render(chart, cfg)
}

func (rt *Runtime) finish(m *Mount, out template.HTML, err error) {
	if err != nil {
		m.Err = err
		if tErr := m.transition(StateErrored); tErr != nil {
			log.Error().Err(tErr).Msg("Widget state error")
			return
		}
		log.Warn().Err(err).Str("mount", m.ID).Str("chart", m.Config.Chart).Msg("Widget mount failed")
		replaceChildren(m.node, rt.renderer.Error(m.Config, errorMessage(err)))
		return
	}
	if tErr := m.transition(StateRendered); tErr != nil {
		log.Error().Err(tErr).Msg("Widget state error")
		return
	}
	replaceChildren(m.node, out)
}

// errorMessage is the inline text shown in an errored mount.
func errorMessage(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "Size chart request timed out"
	}
	var fe *FetchError
	if errors.As(err, &fe) {
		switch {
		case fe.Status == http.StatusNotFound:
			return "Size chart not found"
		case fe.Status == http.StatusTooManyRequests:
			return "Too many requests, please try again later"
		case fe.Status == http.StatusUnauthorized || fe.Status == http.StatusForbidden:
			return "This size chart is not available"
		}
	}
	if errors.Is(err, errInvalidConfig) {
		return "Invalid size chart configuration"
	}
	return "Unable to load size chart"
}

// =====================================================
// DOCUMENT HELPERS
// =====================================================

// findMountPoints returns unmarked data-chart elements in document order,
// without descending into mount points already found.
func findMountPoints(n *html.Node) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if _, ok := getAttr(n, AttrChart); ok {
				if _, marked := getAttr(n, AttrMarker); !marked {
					out = append(out, n)
				}
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return out
}

func attrMap(n *html.Node) map[string]string {
	m := make(map[string]string, len(n.Attr))
	for _, a := range n.Attr {
		m[a.Key] = a.Val
	}
	return m
}

func getAttr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func setAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

// replaceChildren swaps n's content for the parsed fragment.
func replaceChildren(n *html.Node, fragment template.HTML) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		n.RemoveChild(c)
		c = next
	}
	nodes, err := html.ParseFragment(strings.NewReader(string(fragment)), n)
	if err != nil {
		log.Error().Err(err).Msg("Failed to parse widget fragment")
		return
	}
	for _, child := range nodes {
		n.AppendChild(child)
	}
}
