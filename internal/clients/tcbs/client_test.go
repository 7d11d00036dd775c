package tcbs

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/vnstock-chat/internal/common"
	"github.com/bobmcallan/vnstock-chat/internal/models"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(WithBaseURL(srv.URL), WithRateLimit(100))
}

func TestGetPriceHistory(t *testing.T) {
	var gotQuery string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/stock-insight/v2/stock/bars-long-term", r.URL.Path)
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ticker":"VCB","data":[
			{"open":95000,"high":96000,"low":94500,"close":95500,"volume":1200000,"tradingDate":"2024-05-10T00:00:00.000Z"},
			{"open":94000,"high":94800,"low":93500,"close":94360,"volume":900000,"tradingDate":"2024-05-09T00:00:00.000Z"},
			{"open":0,"high":0,"low":0,"close":0,"volume":0,"tradingDate":"2024-05-08T00:00:00.000Z"}
		]}`))
	})

	from := time.Date(2024, 5, 1, 0, 0, 0, 0, common.VietnamLocation)
	to := time.Date(2024, 5, 10, 0, 0, 0, 0, common.VietnamLocation)
	bars, err := client.GetPriceHistory(context.Background(), "VCB", from, to)
	require.NoError(t, err)

	assert.Contains(t, gotQuery, "ticker=VCB")
	assert.Contains(t, gotQuery, "resolution=D")
	require.Len(t, bars, 2, "zero-close bar should be dropped")
	assert.Equal(t, 9, bars[0].Date.Day(), "bars should be oldest first")
	assert.Equal(t, "95500", bars[1].Close.String())
	assert.Equal(t, int64(1200000), bars[1].Volume)
}

func TestGetPriceHistory_Empty(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ticker":"VCB","data":[]}`))
	})

	_, err := client.GetPriceHistory(context.Background(), "VCB", time.Now().AddDate(0, 0, -7), time.Now())
	if !errors.Is(err, models.ErrNoData) {
		t.Errorf("expected ErrNoData, got %v", err)
	}
}

func TestGetPriceHistory_NotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	})

	_, err := client.GetPriceHistory(context.Background(), "ZZZ", time.Now().AddDate(0, 0, -7), time.Now())
	if !IsNotFound(err) {
		t.Errorf("expected not-found error, got %v", err)
	}
}

func TestGetCompanyProfile(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/tcanalysis/v1/ticker/FPT/overview", r.URL.Path)
		w.Write([]byte(`{"ticker":"FPT","exchange":"HOSE","shortName":"FPT Corp","industry":"Công nghệ","noEmployees":48000,"outstandingShare":1463.5,"website":"https://fpt.com.vn"}`))
	})

	profile, err := client.GetCompanyProfile(context.Background(), "FPT")
	require.NoError(t, err)
	assert.Equal(t, "FPT Corp", profile.Name)
	assert.Equal(t, "HOSE", profile.Exchange)
	assert.Equal(t, int64(1_463_500_000), profile.OutstandingShares)
}

func TestGetRatios_PicksLatestAndScalesPercentages(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "0", r.URL.Query().Get("yearly"))
		w.Write([]byte(`[
			{"ticker":"VCB","quarter":4,"year":2023,"priceToEarning":14.1,"priceToBook":2.6,"roe":0.21,"roa":0.018,"earningPerShare":6100},
			{"ticker":"VCB","quarter":1,"year":2024,"priceToEarning":15.2,"priceToBook":2.8,"roe":0.225,"roa":null,"earningPerShare":6300}
		]`))
	})

	ratios, err := client.GetRatios(context.Background(), "VCB")
	require.NoError(t, err)
	assert.Equal(t, "Q1/2024", ratios.Period)
	require.NotNil(t, ratios.PE)
	assert.Equal(t, "15.2", ratios.PE.String())
	require.NotNil(t, ratios.ROE)
	assert.Equal(t, "22.5", ratios.ROE.String())
	assert.Nil(t, ratios.ROA)
}

func TestGetFinancialReport(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/tcanalysis/v1/finance/HPG/incomestatement", r.URL.Path)
		assert.Equal(t, "1", r.URL.Query().Get("yearly"))
		w.Write([]byte(`[
			{"ticker":"HPG","year":2022,"quarter":5,"revenue":142770,"postTaxProfit":8444},
			{"ticker":"HPG","year":2023,"quarter":5,"revenue":118953,"postTaxProfit":6800}
		]`))
	})

	report, err := client.GetFinancialReport(context.Background(), "HPG", models.ReportIncome, models.PeriodYear)
	require.NoError(t, err)
	require.Len(t, report.Rows, 2)
	assert.Equal(t, 2023, report.Rows[0].Year)
	assert.Equal(t, 0, report.Rows[0].Quarter)
	assert.Equal(t, 118953.0, report.Rows[0].Values["revenue"])
	_, hasTicker := report.Rows[0].Values["ticker"]
	assert.False(t, hasTicker, "string fields should not be kept as values")
}

func TestGetFinancialReport_UnknownKind(t *testing.T) {
	client := NewClient()
	if _, err := client.GetFinancialReport(context.Background(), "HPG", "dividends", models.PeriodYear); err == nil {
		t.Error("expected error for unknown report kind")
	}
}
