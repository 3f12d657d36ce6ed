// Package render rasterizes layout state into an RGBA pixel buffer. It is a
// plain software renderer: background fill plus basicfont text rows with a
// one-pixel drop shadow for legibility over video.
package render

import (
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"timer-overlay/internal/layout"
)

const (
	rowHeight = 16
	padX      = 6
	padY      = 4
)

var (
	shadowColor   = color.RGBA{0, 0, 0, 0xff}
	emphasisColor = color.RGBA{0xff, 0xd7, 0x00, 0xff}
)

// Frame is one rasterized overlay image. Pix is RGBA, row-major, Stride bytes
// per row. The buffer is owned by the Renderer and overwritten by the next
// Render call; upload it before rendering again.
type Frame struct {
	Pix    []byte
	Stride int
	Width  int
	Height int
}

// Renderer rasterizes frames, reusing its backing image across calls of the
// same size. Not safe for concurrent use; each overlay instance owns one.
type Renderer struct {
	img *image.RGBA
}

// New returns an empty renderer.
func New() *Renderer {
	return &Renderer{}
}

// Render rasterizes st into a width x height frame.
func (r *Renderer) Render(st *layout.State, width, height int) *Frame {
	if r.img == nil || r.img.Rect.Dx() != width || r.img.Rect.Dy() != height {
		r.img = image.NewRGBA(image.Rect(0, 0, width, height))
	}

	draw.Draw(r.img, r.img.Rect, image.NewUniform(st.Background), image.Point{}, draw.Src)

	face := basicfont.Face7x13
	y := padY + face.Ascent
	for _, row := range st.Rows {
		if y > height {
			break
		}
		col := st.Text
		if row.Emphasis {
			col = emphasisColor
		}
		drawText(r.img, face, row.Left, padX, y, col)
		if row.Right != "" {
			w := font.MeasureString(face, row.Right).Ceil()
			drawText(r.img, face, row.Right, width-padX-w, y, col)
		}
		y += rowHeight
	}

	return &Frame{Pix: r.img.Pix, Stride: r.img.Stride, Width: width, Height: height}
}

func drawText(dst *image.RGBA, face font.Face, s string, x, y int, col color.RGBA) {
	shadow := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(shadowColor),
		Face: face,
		Dot:  fixed.Point26_6{X: fixed.I(x + 1), Y: fixed.I(y + 1)},
	}
	shadow.DrawString(s)

	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(col),
		Face: face,
		Dot:  fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y)},
	}
	d.DrawString(s)
}
