package render

import (
	"image"
	"image/color"
	"image/draw"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

var (
	backgroundColor = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	textColor       = color.RGBA{R: 42, G: 63, B: 95, A: 255}
	noticeBoxColor  = color.RGBA{R: 229, G: 236, B: 246, A: 255}
)

func blank(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(backgroundColor), image.Point{}, draw.Src)
	return img
}

// emptyChart is the stand-in for a chart with nothing to plot: title on top,
// EmptyHint in a box at the centre.
func emptyChart(title string, w, h int) image.Image {
	img := blank(w, h)
	face := basicfont.Face7x13
	if strings.TrimSpace(title) != "" {
		drawCentered(img, face, title, 30)
	}
	dr := &font.Drawer{Face: face}
	tw := dr.MeasureString(EmptyHint).Ceil()
	asc := face.Metrics().Ascent.Ceil()
	pad := 10
	x := (w - tw) / 2
	y := h / 2
	box := image.Rect(x-pad, y-asc-pad, x+tw+pad, y+pad)
	draw.Draw(img, box, image.NewUniform(noticeBoxColor), image.Point{}, draw.Over)
	drawText(img, face, EmptyHint, x, y)
	return img
}

func drawCentered(img *image.RGBA, face font.Face, text string, y int) {
	dr := &font.Drawer{Face: face}
	tw := dr.MeasureString(text).Ceil()
	x := (img.Bounds().Dx() - tw) / 2
	if x < 4 {
		x = 4
	}
	drawText(img, face, text, x, y)
}

func drawText(img *image.RGBA, face font.Face, text string, x, y int) {
	dr := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(textColor),
		Face: face,
		Dot:  fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y)},
	}
	dr.DrawString(text)
}
