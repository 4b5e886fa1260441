// Package browser adapts a headless Chromium instance, driven over the
// DevTools protocol via rod, to the interfaces the scraper and exporters
// consume. It owns surface lifecycle: one attach per page instance, released
// on every exit path.
package browser

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/rs/zerolog/log"

	"github.com/threadprint/threadprint/internal/raster"
)

// ErrNoBrowser indicates no usable browser executable was found on this
// host; callers may fall back to browserless export paths.
var ErrNoBrowser = errors.New("no browser executable found")

// Browser wraps one launched browser process.
type Browser struct {
	browser *rod.Browser
}

// Launch locates a browser binary, starts it headless, and connects.
func Launch() (*Browser, error) {
	path, found := launcher.LookPath()
	if !found {
		return nil, ErrNoBrowser
	}
	u, err := launcher.New().Bin(path).Launch()
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}
	b := rod.New().ControlURL(u)
	if err := b.Connect(); err != nil {
		return nil, fmt.Errorf("connect browser: %w", err)
	}
	return &Browser{browser: b}, nil
}

func (b *Browser) Close() error {
	return b.browser.Close()
}

// Page is one attached page instance. It implements scrape.Page and
// raster.Surface.
type Page struct {
	page *rod.Page
	url  string
}

// Open navigates a fresh page to url and waits for load, bounded by timeout.
// A load timeout is not an error: the scraper proceeds with whatever the page
// has rendered.
func (b *Browser) Open(ctx context.Context, url string, timeout time.Duration) (*Page, error) {
	p, err := b.browser.Page(proto.TargetCreateTarget{URL: url})
	if err != nil {
		return nil, fmt.Errorf("create page: %w", err)
	}
	p = p.Context(ctx)

	if timeout > 0 {
		if err := p.Timeout(timeout).WaitLoad(); err != nil {
			log.Warn().Err(err).Str("url", url).Msg("page load wait ended early; proceeding")
		}
	}
	return &Page{page: p, url: url}, nil
}

// OpenContent creates a blank page and installs the given markup as its
// document, for rasterizing or printing generated output.
func (b *Browser) OpenContent(ctx context.Context, html string) (*Page, error) {
	p, err := b.browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		return nil, fmt.Errorf("create page: %w", err)
	}
	p = p.Context(ctx)
	if err := p.SetDocumentContent(html); err != nil {
		_ = p.Close()
		return nil, fmt.Errorf("set content: %w", err)
	}
	if err := p.Timeout(10 * time.Second).WaitLoad(); err != nil {
		log.Warn().Err(err).Msg("content load wait ended early; proceeding")
	}
	return &Page{page: p, url: "about:blank"}, nil
}

// Close detaches and releases the page. Safe to defer on every path.
func (p *Page) Close() error {
	return p.page.Close()
}

// URL returns the page's current address, preferring the live target info
// over the address it was opened with.
func (p *Page) URL() string {
	if info, err := p.page.Info(); err == nil && info.URL != "" {
		return info.URL
	}
	return p.url
}

// HTML snapshots the current DOM.
func (p *Page) HTML(ctx context.Context) (string, error) {
	return p.page.Context(ctx).HTML()
}

// ClickByText dispatches clicks on up to max elements matching selector
// whose text contains any keyword, skipping disabled controls. Individual
// click failures are skipped, not fatal.
func (p *Page) ClickByText(ctx context.Context, selector string, keywords []string, max int) (int, error) {
	els, err := p.page.Context(ctx).Elements(selector)
	if err != nil {
		return 0, fmt.Errorf("query %q: %w", selector, err)
	}
	clicks := 0
	for _, el := range els {
		if clicks >= max {
			break
		}
		text, err := el.Text()
		if err != nil {
			continue
		}
		text = strings.TrimSpace(text)
		if text == "" || !containsAny(text, keywords) {
			continue
		}
		if disabled, _ := el.Attribute("aria-disabled"); disabled != nil && *disabled == "true" {
			continue
		}
		if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
			continue
		}
		clicks++
	}
	return clicks, nil
}

// ScrollBy scrolls the nearest scrollable ancestor of the main content, or
// the window, by px pixels.
func (p *Page) ScrollBy(ctx context.Context, px int) error {
	_, err := p.page.Context(ctx).Eval(scrollScript, px)
	return err
}

// scrollScript walks up from the main content region to the nearest
// scrollable container, falling back to the window.
const scrollScript = `(px) => {
	let el = document.querySelector('main') || document.body;
	while (el && el !== document.body && el !== document.documentElement) {
		const style = window.getComputedStyle(el);
		const oy = style ? style.overflowY : '';
		if ((oy === 'auto' || oy === 'scroll') && el.scrollHeight > el.clientHeight + 1) {
			el.scrollTop += px;
			return;
		}
		el = el.parentElement;
	}
	window.scrollBy(0, px);
}`

// ContentSize implements raster.Surface using layout metrics.
func (p *Page) ContentSize(ctx context.Context) (int, int, error) {
	metrics, err := proto.PageGetLayoutMetrics{}.Call(p.page.Context(ctx))
	if err != nil {
		return 0, 0, fmt.Errorf("layout metrics: %w", err)
	}
	size := metrics.CSSContentSize
	if size == nil {
		size = metrics.ContentSize
	}
	if size == nil {
		return 0, 0, errors.New("layout metrics: no content size")
	}
	return int(size.Width), int(size.Height), nil
}

// Capture implements raster.Surface via a clipped screenshot command.
func (p *Page) Capture(ctx context.Context, clip raster.Clip) (image.Image, error) {
	res, err := proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
		Clip: &proto.PageViewport{
			X:      float64(clip.X),
			Y:      float64(clip.Y),
			Width:  float64(clip.Width),
			Height: float64(clip.Height),
			Scale:  clip.Scale,
		},
		FromSurface:           true,
		CaptureBeyondViewport: true,
	}.Call(p.page.Context(ctx))
	if err != nil {
		return nil, fmt.Errorf("capture screenshot: %w", err)
	}
	img, err := png.Decode(bytes.NewReader(res.Data))
	if err != nil {
		return nil, fmt.Errorf("decode screenshot: %w", err)
	}
	return img, nil
}

// PrintPDF renders the page through the protocol's fixed-format print
// command and returns the PDF bytes.
func (p *Page) PrintPDF(ctx context.Context) ([]byte, error) {
	reader, err := p.page.Context(ctx).PDF(&proto.PagePrintToPDF{
		PrintBackground: true,
	})
	if err != nil {
		return nil, fmt.Errorf("print to pdf: %w", err)
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("read pdf stream: %w", err)
	}
	return data, nil
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}
