// Package printfit scales a marked element of the document being printed
// so it fits one physical page, and restores it afterwards.
package printfit

import (
	"context"
	"math"
	"sync"

	"billtrack/internal/utils"
)

// SelectionPolicy picks how the fit target is located in the document.
type SelectionPolicy int

const (
	// SelectDocument scans the whole document and takes the first
	// visible element carrying the data-print-fit marker.
	SelectDocument SelectionPolicy = iota
	// SelectPrintRegion takes the marked element inside a
	// data-print-only region, forcing that region visible first if it
	// is hidden for on-screen viewing.
	SelectPrintRegion
)

// MinScalePolicy decides what happens when content already fits.
type MinScalePolicy int

const (
	// AllowShrink keeps the computed scale even below 1.
	AllowShrink MinScalePolicy = iota
	// ClampToOne never shrinks content that already fits.
	ClampToOne
)

// Box is a measured content box in device pixels.
type Box struct {
	Width  float64
	Height float64
}

// Page is the physical target page in millimeters.
type Page struct {
	WidthMM  float64
	HeightMM float64
	MarginMM float64
}

// A4 with an 8mm margin on each side.
var DefaultPage = Page{WidthMM: 210, HeightMM: 297, MarginMM: 8}

// Options configure a fit pass.
type Options struct {
	Selection SelectionPolicy
	MinScale  MinScalePolicy
	MaxScale  float64
	Page      Page
}

// OptionsFromConfig maps the yaml fit section onto Options. The default
// is the whole-document scan with shrinking allowed; the region policies
// are opt-in.
func OptionsFromConfig(cfg utils.FitConfig) Options {
	opts := Options{
		Selection: SelectDocument,
		MinScale:  AllowShrink,
		MaxScale:  cfg.MaxScale,
		Page: Page{
			WidthMM:  cfg.PageWidthMM,
			HeightMM: cfg.PageHeightMM,
			MarginMM: cfg.PageMarginMM,
		},
	}
	if cfg.Selection == "print_region" {
		opts.Selection = SelectPrintRegion
	}
	if cfg.MinScale == "clamp" {
		opts.MinScale = ClampToOne
	}
	if opts.MaxScale <= 0 {
		opts.MaxScale = 1.35
	}
	if opts.Page.WidthMM <= 0 || opts.Page.HeightMM <= 0 {
		opts.Page = DefaultPage
	}
	return opts
}

// Scale computes the uniform factor that fits content into the page's
// available box. Non-finite or non-positive results fall back to 1,
// growth is capped at MaxScale, and ClampToOne refuses to shrink content
// that already fits.
func Scale(content Box, page Page, pxPerMM float64, opts Options) float64 {
	availW := (page.WidthMM - 2*page.MarginMM) * pxPerMM
	availH := (page.HeightMM - 2*page.MarginMM) * pxPerMM

	scale := math.Min(availW/content.Width, availH/content.Height)
	if math.IsNaN(scale) || math.IsInf(scale, 0) || scale <= 0 {
		return 1
	}

	maxScale := opts.MaxScale
	if maxScale <= 0 {
		maxScale = 1.35
	}
	if scale > 1 {
		scale = math.Min(scale, maxScale)
	}
	if scale < 1 && opts.MinScale == ClampToOne {
		scale = 1
	}
	return scale
}

// Surface evaluates JavaScript in the document being printed and returns
// the JSON result. The production surface is a Chrome tab.
type Surface interface {
	Evaluate(ctx context.Context, expression string, result any) error
}

// UnitConverter turns physical millimeters into device pixels for the
// surface at hand. Tests substitute a deterministic converter.
type UnitConverter interface {
	PixelsPerMillimeter(ctx context.Context) (float64, error)
}

// FixedConverter reports a constant ratio. For tests and known DPI.
type FixedConverter float64

func (f FixedConverter) PixelsPerMillimeter(context.Context) (float64, error) {
	return float64(f), nil
}

type measurement struct {
	Found             bool    `json:"found"`
	Width             float64 `json:"width"`
	Height            float64 `json:"height"`
	PrevTransform     string  `json:"prevTransform"`
	PrevOrigin        string  `json:"prevTransformOrigin"`
	RegionToggled     bool    `json:"regionToggled"`
	PrevRegionDisplay string  `json:"prevRegionDisplay"`
}

// Controller owns the single active fit target and its prior style
// snapshot. Apply and Reset bracket one print cycle; cycles are
// serialized, a second Apply waits for the previous Reset.
type Controller struct {
	surface Surface
	units   UnitConverter
	opts    Options

	// held from a successful Apply until the matching Reset
	cycle sync.Mutex

	mu       sync.Mutex
	active   bool
	snapshot measurement
}

// NewController builds a controller for the given surface. A nil
// converter defaults to probing the surface with a 100mm element.
func NewController(surface Surface, units UnitConverter, opts Options) *Controller {
	if units == nil {
		units = &probeConverter{surface: surface}
	}
	return &Controller{surface: surface, units: units, opts: opts}
}

// Apply locates the fit target, measures its natural size and applies a
// scale transform so it fits one page. Missing targets and zero-size
// boxes are silent no-ops: printing proceeds unscaled.
func (c *Controller) Apply(ctx context.Context) error {
	c.cycle.Lock()

	var m measurement
	if err := c.surface.Evaluate(ctx, measureScript(c.opts.Selection), &m); err != nil {
		c.cycle.Unlock()
		return err
	}
	if !m.Found {
		// Nothing to scale; the measure script already undid any
		// visibility toggle.
		c.cycle.Unlock()
		return nil
	}

	pxPerMM, err := c.units.PixelsPerMillimeter(ctx)
	if err != nil || pxPerMM <= 0 {
		// Degrade to an unscaled print rather than blocking it.
		pxPerMM = 96.0 / 25.4
	}

	scale := Scale(Box{Width: m.Width, Height: m.Height}, c.opts.Page, pxPerMM, c.opts)

	var applied bool
	if err := c.surface.Evaluate(ctx, applyScript(scale), &applied); err != nil {
		c.rollback(ctx, m)
		c.cycle.Unlock()
		return err
	}

	c.mu.Lock()
	c.active = true
	c.snapshot = m
	c.mu.Unlock()
	return nil
}

// Reset restores the recorded transform, transform-origin and region
// visibility, then clears the active slot. Safe to call repeatedly and
// without a preceding Apply.
func (c *Controller) Reset(ctx context.Context) error {
	c.mu.Lock()
	if !c.active {
		c.mu.Unlock()
		return nil
	}
	m := c.snapshot
	c.active = false
	c.snapshot = measurement{}
	c.mu.Unlock()

	defer c.cycle.Unlock()

	var restored bool
	return c.surface.Evaluate(ctx, resetScript(m), &restored)
}

// rollback undoes the measure script's mutations when the apply step
// itself failed, leaving no active cycle behind.
func (c *Controller) rollback(ctx context.Context, m measurement) {
	var restored bool
	_ = c.surface.Evaluate(ctx, resetScript(m), &restored)
}
