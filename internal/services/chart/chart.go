// Package chart renders price charts as PNG images
package chart

import (
	"bytes"
	"fmt"

	"github.com/shopspring/decimal"
	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/bobmcallan/vnstock-chat/internal/common"
	"github.com/bobmcallan/vnstock-chat/internal/models"
)

// Chart dimensions in pixels
const (
	Width  = 900
	Height = 400
)

// RenderPriceChart draws the closing prices of bars as a PNG line chart.
// Bars must be ordered oldest first.
func RenderPriceChart(symbol string, bars []models.PriceBar) ([]byte, error) {
	if len(bars) < 2 {
		return nil, fmt.Errorf("need at least 2 price bars, got %d", len(bars))
	}

	xValues := make([]float64, 0, len(bars))
	closes := make([]float64, 0, len(bars))
	for _, b := range bars {
		xValues = append(xValues, gochart.TimeToFloat64(b.Date))
		closes = append(closes, b.Close.InexactFloat64())
	}

	closeSeries := gochart.ContinuousSeries{
		Name: symbol,
		Style: gochart.Style{
			StrokeColor: drawing.ColorFromHex("16a34a"),
			StrokeWidth: 2,
		},
		XValues: xValues,
		YValues: closes,
	}

	graph := gochart.Chart{
		Title:  fmt.Sprintf("%s - giá đóng cửa (VND)", symbol),
		Width:  Width,
		Height: Height,
		Background: gochart.Style{
			Padding: gochart.Box{Top: 40, Left: 10, Right: 20, Bottom: 10},
		},
		XAxis: gochart.XAxis{
			TickPosition: gochart.TickPositionBetweenTicks,
			ValueFormatter: func(v interface{}) string {
				if t, ok := v.(float64); ok {
					return gochart.TimeFromFloat64(t).In(common.VietnamLocation).Format("02/01")
				}
				return ""
			},
		},
		YAxis: gochart.YAxis{
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return common.FormatVND(decimal.NewFromFloat(f).Round(0))
				}
				return ""
			},
		},
		Series: []gochart.Series{closeSeries},
	}
	graph.Elements = []gochart.Renderable{gochart.LegendLeft(&graph)}

	var buf bytes.Buffer
	if err := graph.Render(gochart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("chart render failed: %w", err)
	}
	return buf.Bytes(), nil
}
