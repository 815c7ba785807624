// Package printer turns receipt HTML into PDF bytes through a headless
// Chrome print surface, applying the print-fit pass around the print call.
package printer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"sync"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/redis/go-redis/v9"

	"billtrack/internal/chrome"
	"billtrack/internal/printfit"
	"billtrack/internal/utils"
)

// Service bundles configuration and dependencies for receipt printing.
// One instance is shared so all requests use the same Chrome pool and
// the same fit controller (a single active-target slot).
type Service struct {
	Config *utils.Config
	Redis  *redis.Client

	fit *printfit.Controller

	poolMu  sync.Mutex
	pool    *chrome.Pool
	poolErr error
}

// NewService creates a printing service with a lazily-initialized pool.
func NewService(cfg utils.Config, rdb *redis.Client) *Service {
	return &Service{
		Config: &cfg,
		Redis:  rdb,
		fit:    printfit.NewController(printfit.TabSurface{}, nil, printfit.OptionsFromConfig(cfg.Print.Fit)),
	}
}

// Pool returns the shared Chrome pool, creating it on first use. A nil
// pool with nil error means pooling is disabled.
func (s *Service) Pool() (*chrome.Pool, error) {
	s.poolMu.Lock()
	defer s.poolMu.Unlock()

	if s.Config.Print.ChromePoolSize <= 0 {
		return nil, nil
	}
	if s.pool != nil {
		return s.pool, nil
	}
	pool, err := chrome.NewPool(*s.Config)
	if err != nil {
		s.poolErr = err
		return nil, err
	}
	s.pool = pool
	return s.pool, nil
}

func (s *Service) paper(name string) utils.PaperSize {
	if p, ok := s.Config.Print.PaperSizes[name]; ok {
		return p
	}
	return s.Config.Print.PaperSizes[s.Config.Print.DefaultPaper]
}

func cacheKey(html, paperName string) string {
	h := sha256.New()
	h.Write([]byte(html))
	h.Write([]byte{0})
	h.Write([]byte(paperName))
	return "receiptcache:" + hex.EncodeToString(h.Sum(nil))
}

// PrintReceipt renders the HTML document on the given paper and returns
// the PDF bytes, serving from the Redis cache when enabled.
func (s *Service) PrintReceipt(ctx context.Context, html, paperName string) ([]byte, error) {
	key := cacheKey(html, paperName)

	if s.Redis != nil && s.Config.Cache.ReceiptCacheEnabled {
		if cached := s.getCached(ctx, key); cached != nil {
			return cached, nil
		}
	}

	pdf, err := s.render(html, s.paper(paperName))
	if err != nil {
		return nil, err
	}

	if s.Redis != nil && s.Config.Cache.ReceiptCacheEnabled {
		s.setCached(ctx, key, pdf)
	}
	return pdf, nil
}

func (s *Service) getCached(ctx context.Context, key string) []byte {
	rctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()

	cached, err := s.Redis.Get(rctx, key).Bytes()
	if err == redis.Nil {
		return nil
	}
	if err != nil {
		utils.Warn("Redis read failed", "error", err)
		return nil
	}
	utils.Info("Receipt cache hit", "key", key)
	return cached
}

func (s *Service) setCached(ctx context.Context, key string, data []byte) {
	rctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()

	ttl := s.Config.Cache.ReceiptCacheTTL
	if ttl <= 0 {
		ttl = time.Minute
	}
	if err := s.Redis.Set(rctx, key, data, ttl).Err(); err != nil {
		utils.Warn("Redis write failed", "error", err)
	}
}

// render picks the pooled path when available and retries once after a
// pool restart when the Chrome session was interrupted mid-print.
func (s *Service) render(html string, paper utils.PaperSize) ([]byte, error) {
	pool, err := s.Pool()
	if err != nil {
		return nil, err
	}
	if pool == nil {
		return s.renderOneShot(html, paper)
	}

	timeout := time.Duration(s.Config.Print.TimeoutSecs) * time.Second

	runOnce := func() ([]byte, error) {
		acquireCtx, acquireCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer acquireCancel()

		tab, err := pool.Acquire(acquireCtx)
		if err != nil {
			return nil, err
		}

		ctx, cancel := context.WithTimeout(tab.Ctx, timeout)
		pdf, renderErr := s.renderInTab(ctx, html, paper)
		cancel()

		pool.Release(tab, renderErr)
		return pdf, renderErr
	}

	pdf, renderErr := runOnce()
	if renderErr != nil && chrome.IsSessionInterrupted(renderErr) {
		utils.Warn("Chrome session interrupted; restarting pool and retrying once", "error", renderErr)
		_ = pool.Restart()
		return runOnce()
	}
	return pdf, renderErr
}

// renderOneShot starts a dedicated Chrome instance for a single print.
func (s *Service) renderOneShot(html string, paper utils.PaperSize) ([]byte, error) {
	tmpDir, err := os.MkdirTemp("", "billtrack-chrome-*")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(tmpDir)

	oneShot := *s.Config
	oneShot.Print.UserDataDir = tmpDir

	allocatorOptions := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.UserDataDir(tmpDir),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-gpu-compositing", true),
		chromedp.Flag("disable-features", "Vulkan,UseSkiaRenderer"),
		chromedp.Flag("use-gl", "swiftshader"),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if s.Config.Print.ChromePath != "" {
		allocatorOptions = append(allocatorOptions, chromedp.ExecPath(s.Config.Print.ChromePath))
	}
	if s.Config.Print.ChromeNoSandbox {
		allocatorOptions = append(allocatorOptions, chromedp.Flag("no-sandbox", true))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), allocatorOptions...)
	defer allocCancel()
	chromeCtx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	timeout := time.Duration(s.Config.Print.TimeoutSecs) * time.Second
	chromeCtx, cancel = context.WithTimeout(chromeCtx, timeout)
	defer cancel()

	return s.renderInTab(chromeCtx, html, paper)
}

// renderInTab loads the document into the tab, waits for it to settle,
// brackets the print call with the fit controller, and prints. The fit
// reset and the caller's tab release are deferred, so teardown happens
// exactly once even when printing fails.
func (s *Service) renderInTab(ctx context.Context, html string, paper utils.PaperSize) ([]byte, error) {
	load := []chromedp.Action{
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			frame, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(frame.Frame.ID, html).Do(ctx)
		}),
		chromedp.WaitReady("body", chromedp.ByQuery),
		// settle delay; load readiness is the real signal, this is the safety net
		chromedp.Sleep(200 * time.Millisecond),
	}
	if err := chromedp.Run(ctx, load...); err != nil {
		return nil, err
	}

	if s.Config.Print.Fit.Enabled {
		if err := s.fit.Apply(ctx); err != nil {
			// A failed fit never blocks the print; it proceeds unscaled.
			utils.Warn("Print fit failed, printing unscaled", "error", err)
		}
		defer func() {
			if err := s.fit.Reset(ctx); err != nil {
				utils.Warn("Print fit reset failed", "error", err)
			}
		}()
	}

	margin := s.Config.Print.MarginInches
	var pdf []byte
	err := chromedp.Run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		pdf, _, err = page.PrintToPDF().
			WithPrintBackground(true).
			WithPreferCSSPageSize(paper.PreferCSSPageSize).
			WithPaperWidth(paper.Width).
			WithPaperHeight(paper.Height).
			WithMarginTop(margin).
			WithMarginBottom(margin).
			WithMarginLeft(margin).
			WithMarginRight(margin).
			Do(ctx)
		return err
	}))
	if err != nil {
		return nil, err
	}
	return pdf, nil
}

// Close releases the Chrome pool if one was created.
func (s *Service) Close() {
	s.poolMu.Lock()
	defer s.poolMu.Unlock()
	if s.pool != nil {
		s.pool.Close()
		s.pool = nil
	}
}
