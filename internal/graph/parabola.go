// Package graph draws the graphs shown next to lesson steps.
package graph

import (
	"bytes"
	"errors"
	"fmt"
	"image/color"
	"math"
	"strconv"

	"github.com/fogleman/gg"

	"github.com/abhisek/mathtutor/internal/tutor"
)

// ErrNotQuadratic is returned for a zero leading coefficient.
var ErrNotQuadratic = errors.New("a must not be zero")

// Options controls the canvas and the visible window [-XRange, XRange] x
// [-YRange, YRange].
type Options struct {
	Width   int
	Height  int
	Padding float64
	XRange  float64
	YRange  float64
}

// DefaultOptions matches the lesson page graph.
func DefaultOptions() Options {
	return Options{Width: 600, Height: 400, Padding: 40, XRange: 10, YRange: 10}
}

var (
	background = color.White
	axisColor  = color.RGBA{0x33, 0x33, 0x33, 0x4d}
	gridColor  = color.RGBA{0x33, 0x33, 0x33, 0x1a}
	textColor  = color.RGBA{0x33, 0x33, 0x33, 0xff}
	rootColor  = color.RGBA{0x25, 0x63, 0xeb, 0xff}
)

// curveColor follows the number of real roots: green for two, orange for
// one, red for none.
func curveColor(discriminant float64) color.Color {
	switch {
	case discriminant > 0:
		return color.RGBA{0x10, 0xb9, 0x81, 0xff}
	case discriminant == 0:
		return color.RGBA{0xf5, 0x9e, 0x0b, 0xff}
	default:
		return color.RGBA{0xef, 0x44, 0x44, 0xff}
	}
}

type plane struct {
	opts   Options
	xScale float64
	yScale float64
}

func (p plane) x(v float64) float64 { return p.opts.Padding + (v+p.opts.XRange)*p.xScale }
func (p plane) y(v float64) float64 { return p.opts.Padding + (p.opts.YRange-v)*p.yScale }

// RenderParabola draws y = ax² + bx + c with its axes, root markers and
// label and returns the PNG bytes.
func RenderParabola(data tutor.GraphData, opts Options) ([]byte, error) {
	if data.Type != tutor.GraphParabola {
		return nil, tutor.ErrNoGraph
	}
	params := data.Parameters
	if params.A == 0 {
		return nil, ErrNotQuadratic
	}
	opts = withDefaults(opts)
	params = tutor.Normalize(params)

	p := plane{
		opts:   opts,
		xScale: (float64(opts.Width) - 2*opts.Padding) / (2 * opts.XRange),
		yScale: (float64(opts.Height) - 2*opts.Padding) / (2 * opts.YRange),
	}
	dc := gg.NewContext(opts.Width, opts.Height)
	dc.SetColor(background)
	dc.Clear()

	drawGrid(dc, p)
	drawAxes(dc, p)
	drawCurve(dc, p, params)

	dc.SetColor(rootColor)
	for _, r := range params.Roots {
		if math.Abs(r) > opts.XRange {
			continue
		}
		dc.DrawCircle(p.x(r), p.y(0), 5)
		dc.Fill()
		dc.DrawStringAnchored("x = "+format(r), p.x(r), p.y(0)-14, 0.5, 0.5)
	}

	dc.SetColor(textColor)
	dc.DrawStringAnchored(params.Label, float64(opts.Width)/2, opts.Padding/2, 0.5, 0.5)

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func withDefaults(o Options) Options {
	d := DefaultOptions()
	if o.Width <= 0 {
		o.Width = d.Width
	}
	if o.Height <= 0 {
		o.Height = d.Height
	}
	if o.Padding <= 0 {
		o.Padding = d.Padding
	}
	if o.XRange <= 0 {
		o.XRange = d.XRange
	}
	if o.YRange <= 0 {
		o.YRange = d.YRange
	}
	return o
}

func drawGrid(dc *gg.Context, p plane) {
	dc.SetColor(gridColor)
	dc.SetLineWidth(0.5)
	for i := -int(p.opts.XRange); i <= int(p.opts.XRange); i++ {
		dc.DrawLine(p.x(float64(i)), p.y(-p.opts.YRange), p.x(float64(i)), p.y(p.opts.YRange))
	}
	for i := -int(p.opts.YRange); i <= int(p.opts.YRange); i++ {
		dc.DrawLine(p.x(-p.opts.XRange), p.y(float64(i)), p.x(p.opts.XRange), p.y(float64(i)))
	}
	dc.Stroke()
}

func drawAxes(dc *gg.Context, p plane) {
	dc.SetColor(axisColor)
	dc.SetLineWidth(2)
	dc.DrawLine(p.x(-p.opts.XRange), p.y(0), p.x(p.opts.XRange), p.y(0))
	dc.DrawLine(p.x(0), p.y(-p.opts.YRange), p.x(0), p.y(p.opts.YRange))
	dc.Stroke()

	dc.SetLineWidth(1)
	for i := -int(p.opts.XRange); i <= int(p.opts.XRange); i++ {
		if i == 0 {
			continue
		}
		dc.DrawLine(p.x(float64(i)), p.y(0)-5, p.x(float64(i)), p.y(0)+5)
	}
	for i := -int(p.opts.YRange); i <= int(p.opts.YRange); i++ {
		if i == 0 {
			continue
		}
		dc.DrawLine(p.x(0)-5, p.y(float64(i)), p.x(0)+5, p.y(float64(i)))
	}
	dc.Stroke()

	dc.SetColor(textColor)
	for i := -int(p.opts.XRange); i <= int(p.opts.XRange); i += 2 {
		if i != 0 {
			dc.DrawStringAnchored(strconv.Itoa(i), p.x(float64(i)), p.y(0)+16, 0.5, 0.5)
		}
	}
	for i := -int(p.opts.YRange); i <= int(p.opts.YRange); i += 2 {
		if i != 0 {
			dc.DrawStringAnchored(strconv.Itoa(i), p.x(0)-12, p.y(float64(i)), 1, 0.5)
		}
	}
	dc.DrawString("x", p.x(p.opts.XRange)-10, p.y(0)-10)
	dc.DrawString("y", p.x(0)+10, p.y(p.opts.YRange)+5)
}

// drawCurve samples the curve every 0.1 and breaks the path wherever it
// leaves the visible window.
func drawCurve(dc *gg.Context, p plane, params tutor.GraphParams) {
	dc.SetColor(curveColor(params.Discriminant))
	dc.SetLineWidth(3)

	const step = 0.1
	n := int(math.Round(2 * p.opts.XRange / step))
	drawing := false
	for i := 0; i <= n; i++ {
		x := -p.opts.XRange + float64(i)*step
		y := params.A*x*x + params.B*x + params.C
		if math.Abs(y) > p.opts.YRange {
			drawing = false
			dc.NewSubPath()
			continue
		}
		if !drawing {
			dc.MoveTo(p.x(x), p.y(y))
			drawing = true
			continue
		}
		dc.LineTo(p.x(x), p.y(y))
	}
	dc.Stroke()
}

func format(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
