package mapplot

import (
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// WritePNG renders img as a heat map. The format follows the extension of
// path (png, svg, pdf).
func WritePNG(path string, img *Image) error {
	p := plot.New()
	p.Title.Text = img.Title
	p.X.Label.Text = img.XLabel
	p.Y.Label.Text = img.YLabel

	hm := plotter.NewHeatMap(img, palette.Heat(64, 1))
	hm.Min, hm.Max = img.Range()
	hm.NaN = color.Transparent
	p.Add(hm)

	width := 6 * vg.Inch
	height := width * vg.Length(img.NY) / vg.Length(img.NX)
	if height < 3*vg.Inch {
		height = 3 * vg.Inch
	}
	return p.Save(width, height+vg.Inch/2, path)
}
