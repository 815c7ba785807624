package printfit

import (
	"context"
	"fmt"
	"strconv"

	"github.com/chromedp/chromedp"
)

// The scripts below are the controller's only access to the printed
// document. The measure script tags its pick with data-print-fit-active
// so the apply and reset scripts operate on the same element.

const selectDocumentJS = `
  const candidates = Array.from(document.querySelectorAll('[data-print-fit]'));
  target = candidates.find((el) => {
    if (el.offsetParent !== null) return true;
    const r = el.getBoundingClientRect();
    return r.width > 0 && r.height > 0;
  }) || null;`

const selectPrintRegionJS = `
  const region = document.querySelector('[data-print-only]');
  if (region) {
    if (window.getComputedStyle(region).display === 'none') {
      out.prevRegionDisplay = region.style.display;
      region.style.display = 'block';
      out.regionToggled = true;
    }
    target = region.querySelector('[data-print-fit]');
  }`

func measureScript(selection SelectionPolicy) string {
	sel := selectDocumentJS
	if selection == SelectPrintRegion {
		sel = selectPrintRegionJS
	}
	return `(() => {
  const out = { found: false, width: 0, height: 0, prevTransform: '', prevTransformOrigin: '', regionToggled: false, prevRegionDisplay: '' };
  const undoRegion = () => {
    if (out.regionToggled) {
      const region = document.querySelector('[data-print-only]');
      if (region) region.style.display = out.prevRegionDisplay;
      out.regionToggled = false;
    }
  };
  let target = null;` + sel + `
  if (!target) { undoRegion(); return out; }

  out.prevTransform = target.style.transform;
  out.prevTransformOrigin = target.style.transformOrigin;
  target.style.transform = 'none';
  target.style.transformOrigin = 'top center';

  const rect = target.getBoundingClientRect();
  out.width = rect.width;
  out.height = rect.height;
  if (!out.width || !out.height) {
    target.style.transform = out.prevTransform;
    target.style.transformOrigin = out.prevTransformOrigin;
    undoRegion();
    return out;
  }

  target.setAttribute('data-print-fit-active', '');
  out.found = true;
  return out;
})()`
}

func applyScript(scale float64) string {
	return fmt.Sprintf(`(() => {
  const target = document.querySelector('[data-print-fit-active]');
  if (!target) return false;
  target.style.transformOrigin = 'top center';
  target.style.transform = 'scale(%s)';
  return true;
})()`, strconv.FormatFloat(scale, 'f', -1, 64))
}

func resetScript(m measurement) string {
	return fmt.Sprintf(`(() => {
  const target = document.querySelector('[data-print-fit-active]');
  if (target) {
    target.style.transform = %s;
    target.style.transformOrigin = %s;
    target.removeAttribute('data-print-fit-active');
  }
  if (%t) {
    const region = document.querySelector('[data-print-only]');
    if (region) region.style.display = %s;
  }
  return true;
})()`, strconv.Quote(m.PrevTransform), strconv.Quote(m.PrevOrigin), m.RegionToggled, strconv.Quote(m.PrevRegionDisplay))
}

const probeScript = `(() => {
  const probe = document.createElement('div');
  probe.style.position = 'absolute';
  probe.style.visibility = 'hidden';
  probe.style.width = '100mm';
  document.body.appendChild(probe);
  const px = probe.getBoundingClientRect().width / 100;
  document.body.removeChild(probe);
  return px;
})()`

// probeConverter measures the surface's real mm-to-px ratio with a
// temporary invisible 100mm element.
type probeConverter struct {
	surface Surface
}

func (p *probeConverter) PixelsPerMillimeter(ctx context.Context) (float64, error) {
	var px float64
	if err := p.surface.Evaluate(ctx, probeScript, &px); err != nil {
		return 0, err
	}
	return px, nil
}

// TabSurface adapts a chromedp tab context into a Surface. The context
// passed to Evaluate must descend from the tab's context.
type TabSurface struct{}

func (TabSurface) Evaluate(ctx context.Context, expression string, result any) error {
	return chromedp.Run(ctx, chromedp.Evaluate(expression, result))
}
