package mapplot

import (
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

const echartsAssetsPrefix = "https://go-echarts.github.io/go-echarts-assets/assets/"

var viridis = []string{"#440154", "#482777", "#3e4989", "#31688e", "#26828e", "#1f9e89", "#35b779", "#6ece58", "#b5de2b", "#fde725"}

// RenderHTML writes img as a self-contained echarts heat map page. NaN
// pixels are left out.
func RenderHTML(w io.Writer, img *Image, subtitle string) error {
	xs := make([]string, img.NX)
	for c := range xs {
		xs[c] = strconv.FormatFloat(img.X(c), 'g', 5, 64)
	}
	ys := make([]string, img.NY)
	for r := range ys {
		ys[r] = strconv.FormatFloat(img.Y(r), 'g', 5, 64)
	}

	data := make([]opts.HeatMapData, 0, len(img.Data))
	for r := 0; r < img.NY; r++ {
		for c := 0; c < img.NX; c++ {
			z := img.Z(c, r)
			if math.IsNaN(z) {
				continue
			}
			data = append(data, opts.HeatMapData{Value: [3]interface{}{c, r, z}})
		}
	}
	lo, hi := img.Range()

	hm := charts.NewHeatMap()
	hm.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: img.Title, Theme: "dark", Width: "900px", Height: "900px", AssetsHost: echartsAssetsPrefix}),
		charts.WithTitleOpts(opts.Title{Title: img.Title, Subtitle: subtitle}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Type: "category", Data: xs, Name: img.XLabel, NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Type: "category", Data: ys, Name: img.YLabel, NameLocation: "middle", NameGap: 40}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Show:       opts.Bool(true),
			Calculable: opts.Bool(true),
			Min:        float32(lo),
			Max:        float32(hi),
			InRange:    &opts.VisualMapInRange{Color: viridis},
		}),
	)
	hm.SetXAxis(xs).AddSeries(img.Title, data)

	if err := hm.Render(w); err != nil {
		return fmt.Errorf("failed to render %s: %w", img.Title, err)
	}
	return nil
}
