package render

import (
	"fmt"
	"image/color"

	uv "github.com/charmbracelet/ultraviolet"
)

// Draw converts the framebuffer to terminal cells. It implements uv.Drawable.
// Each terminal row shows two framebuffer rows: ▀ (upper half block) with
// fg=top color and bg=bottom color.
func (fb *Framebuffer) Draw(scr uv.Screen, area uv.Rectangle) {
	for row := area.Min.Y; row < area.Max.Y; row++ {
		topY := (row - area.Min.Y) * 2
		botY := topY + 1
		if topY >= fb.Height {
			break
		}

		for col := area.Min.X; col < area.Max.X; col++ {
			x := col - area.Min.X
			if x >= fb.Width {
				break
			}
			scr.SetCell(col, row, &uv.Cell{
				Content: "▀",
				Width:   1,
				Style: uv.Style{
					Fg: rgbaToColor(fb.GetPixel(x, topY)),
					Bg: rgbaToColor(fb.GetPixel(x, botY)),
				},
			})
		}
	}
}

// rgbaToColor converts color.RGBA to Go's color.Color interface.
func rgbaToColor(c Color) color.Color {
	if c.A == 0 {
		return nil // Transparent = no color
	}
	return c
}

// TerminalPresenter shows frames on an ultraviolet terminal, with an
// optional overlay (such as a status line) drawn over the picture.
type TerminalPresenter struct {
	term    *uv.Terminal
	overlay uv.Drawable
}

// NewTerminalPresenter creates a presenter for a started terminal.
func NewTerminalPresenter(term *uv.Terminal) *TerminalPresenter {
	return &TerminalPresenter{term: term}
}

// SetOverlay sets the drawable layered on top of the next frames.
func (p *TerminalPresenter) SetOverlay(d uv.Drawable) {
	p.overlay = d
}

// FramebufferSize returns the pixel size that fills a terminal of the given
// cell size.
func FramebufferSize(cols, rows int) (width, height int) {
	return cols, rows * 2
}

// Present implements Presenter.
func (p *TerminalPresenter) Present(fb *Framebuffer) error {
	// A DrawableFunc carries no Bounds, so the terminal keeps its own height
	// instead of the framebuffer's doubled pixel rows.
	p.term.Draw(uv.DrawableFunc(func(scr uv.Screen, area uv.Rectangle) {
		fb.Draw(scr, area)
		if p.overlay != nil {
			p.overlay.Draw(scr, area)
		}
	}))
	if err := p.term.Display(); err != nil {
		return fmt.Errorf("display: %w", err)
	}
	return nil
}
