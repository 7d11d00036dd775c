package chart

import (
	"bytes"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/vnstock-chat/internal/models"
)

func bars(n int) []models.PriceBar {
	start := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	out := make([]models.PriceBar, n)
	for i := range out {
		out[i] = models.PriceBar{
			Date:  start.AddDate(0, 0, i),
			Close: decimal.NewFromInt(int64(90000 + i*500)),
		}
	}
	return out
}

func TestRenderPriceChart(t *testing.T) {
	png, err := RenderPriceChart("VCB", bars(10))
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(png, []byte("\x89PNG")), "output should be a PNG")
}

func TestRenderPriceChart_TooFewBars(t *testing.T) {
	_, err := RenderPriceChart("VCB", bars(1))
	assert.Error(t, err)

	_, err = RenderPriceChart("VCB", nil)
	assert.Error(t, err)
}
