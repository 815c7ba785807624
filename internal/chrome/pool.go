// Package chrome manages a pool of headless Chrome tabs used as the
// print surface for receipt rendering.
package chrome

import (
	"context"
	"errors"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/chromedp"

	"billtrack/internal/utils"
)

// ErrPoolDisabled is returned by NewPool when the configured pool size
// is zero or negative.
var ErrPoolDisabled = errors.New("chrome pool disabled")

// ErrPoolClosed is returned when acquiring from or restarting a closed pool.
var ErrPoolClosed = errors.New("chrome pool closed")

// Tab is one acquired rendering surface. Ctx descends from the shared
// browser context; cancelling it closes the tab.
type Tab struct {
	Ctx    context.Context
	cancel context.CancelFunc
}

// Pool hands out Chrome tabs up to a fixed capacity. Tokens travel
// through the sem channel; the browser itself is started lazily by
// chromedp on first use of a tab context.
type Pool struct {
	cfg utils.Config

	sem chan struct{}

	mu            sync.Mutex
	browserCtx    context.Context
	browserCancel context.CancelFunc
	allocCancel   context.CancelFunc
	profileDir    string
	closed        bool
	restarts      int
	lastRestart   time.Time
}

// Stats is a point-in-time snapshot of pool health.
type Stats struct {
	Enabled      bool
	Capacity     int
	Idle         int
	InUse        int
	PoolSizeConf int
	ProfileDir   string
	Restarts     int
	LastRestart  string
}

func createProfileDir(cfg utils.Config) (string, error) {
	return os.MkdirTemp(cfg.Print.UserDataDir, "billtrack-chrome-*")
}

func allocatorOptions(cfg utils.Config, profileDir string) []chromedp.ExecAllocatorOption {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.UserDataDir(profileDir),
		// Force software rendering and avoid Vulkan/ANGLE issues in minimal container environments.
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-gpu-compositing", true),
		chromedp.Flag("disable-features", "Vulkan,UseSkiaRenderer"),
		chromedp.Flag("use-gl", "swiftshader"),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if cfg.Print.ChromePath != "" {
		opts = append(opts, chromedp.ExecPath(cfg.Print.ChromePath))
	}
	if cfg.Print.ChromeNoSandbox {
		opts = append(opts, chromedp.Flag("no-sandbox", true))
	}
	return opts
}

// NewPool creates a pool with cfg.Print.ChromePoolSize tabs.
func NewPool(cfg utils.Config) (*Pool, error) {
	size := cfg.Print.ChromePoolSize
	if size <= 0 {
		return nil, ErrPoolDisabled
	}

	profileDir, err := createProfileDir(cfg)
	if err != nil {
		return nil, err
	}

	p := &Pool{
		cfg:        cfg,
		sem:        make(chan struct{}, size),
		profileDir: profileDir,
	}
	for i := 0; i < size; i++ {
		p.sem <- struct{}{}
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), allocatorOptions(cfg, profileDir)...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)
	p.browserCtx = browserCtx
	p.browserCancel = browserCancel
	p.allocCancel = allocCancel

	return p, nil
}

// Acquire blocks until a tab token is available or ctx is done.
func (p *Pool) Acquire(ctx context.Context) (*Tab, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, ErrPoolClosed
	}
	browserCtx := p.browserCtx
	p.mu.Unlock()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-p.sem:
	}

	if browserCtx == nil {
		browserCtx = context.Background()
	}
	tabCtx, cancel := chromedp.NewContext(browserCtx)
	return &Tab{Ctx: tabCtx, cancel: cancel}, nil
}

// Release closes the tab and returns its token. The render error is
// accepted so callers can release unconditionally; an interrupted
// session is handled by Restart, not here.
func (p *Pool) Release(tab *Tab, renderErr error) {
	if tab != nil && tab.cancel != nil {
		tab.cancel()
	}
	select {
	case p.sem <- struct{}{}:
	default:
	}
}

// Restart tears down the browser and starts over with a fresh profile
// dir. In-flight tabs are cancelled.
func (p *Pool) Restart() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrPoolClosed
	}

	if p.browserCancel != nil {
		p.browserCancel()
	}
	if p.allocCancel != nil {
		p.allocCancel()
	}
	oldProfile := p.profileDir

	profileDir, err := createProfileDir(p.cfg)
	if err != nil {
		return err
	}
	p.profileDir = profileDir

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), allocatorOptions(p.cfg, profileDir)...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)
	p.browserCtx = browserCtx
	p.browserCancel = browserCancel
	p.allocCancel = allocCancel

	// refill tokens; tabs handed out before the restart were cancelled
	// with the old browser context. Release pushes tokens without the
	// mutex, so the send must not block.
	for len(p.sem) < cap(p.sem) {
		select {
		case p.sem <- struct{}{}:
		default:
		}
	}

	p.restarts++
	p.lastRestart = time.Now()

	if oldProfile != "" {
		_ = os.RemoveAll(oldProfile)
	}
	return nil
}

// Close shuts the pool down. Idempotent.
func (p *Pool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return
	}
	p.closed = true

	if p.browserCancel != nil {
		p.browserCancel()
	}
	if p.allocCancel != nil {
		p.allocCancel()
	}
	if p.profileDir != "" {
		_ = os.RemoveAll(p.profileDir)
	}
}

// Stats reports capacity and usage. timeoutSecs is echoed by the HTTP
// stats handler next to the snapshot.
func (p *Pool) Stats(timeoutSecs int) Stats {
	p.mu.Lock()
	defer p.mu.Unlock()

	s := Stats{
		Enabled:      !p.closed,
		PoolSizeConf: p.cfg.Print.ChromePoolSize,
		ProfileDir:   p.profileDir,
		Restarts:     p.restarts,
	}
	if p.closed {
		return s
	}
	s.Capacity = cap(p.sem)
	s.Idle = len(p.sem)
	s.InUse = s.Capacity - s.Idle
	if !p.lastRestart.IsZero() {
		s.LastRestart = p.lastRestart.Format(time.RFC3339)
	}
	return s
}

// IsSessionInterrupted reports whether err looks like a lost or torn
// down Chrome session rather than a render problem.
func IsSessionInterrupted(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "target closed") ||
		strings.Contains(msg, "session closed") ||
		strings.Contains(msg, "browser closed") ||
		strings.Contains(msg, "websocket: close")
}
