package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dynamic-pricing/internal/domain"
	"dynamic-pricing/internal/reporting"
	"dynamic-pricing/internal/storage"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubSource struct {
	res *reporting.Results
	err error
}

func (s stubSource) Load(context.Context) (*reporting.Results, error) {
	return s.res, s.err
}

func fixtureResults() *reporting.Results {
	return &reporting.Results{
		Run: domain.PricingRun{
			RunID:            "run-1",
			DatasetHash:      "abc",
			CampaignDiscount: 0.15,
			FallbackCount:    1,
		},
		Optimal: []*domain.OptimalPrice{
			{RunID: "run-1", ProductID: "P100", Price: 30},
			{RunID: "run-1", ProductID: "P300", Price: 8, Fallback: true, Reason: domain.FallbackSolverFailed},
		},
		Personalized: []*domain.PersonalizedPrice{
			{RunID: "run-1", ProductID: "P100", CustomerID: "C1", Price: 27, Rule: domain.RuleHighSensitivity},
			{RunID: "run-1", ProductID: "P100", CustomerID: "C2", Price: 28.5, Rule: domain.RuleLoyalty},
			{RunID: "run-1", ProductID: "P300", CustomerID: "C1", Price: 7.2, Rule: domain.RuleHighSensitivity},
		},
	}
}

func serve(t *testing.T, src reporting.Source, path string) *httptest.ResponseRecorder {
	t.Helper()
	router := NewRouter(NewHandler(src, nil))
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	router.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	rec := serve(t, stubSource{err: errors.New("unused")}, "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestMetrics(t *testing.T) {
	rec := serve(t, stubSource{res: fixtureResults()}, "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "dynamic_pricing_")
}

func TestOverview(t *testing.T) {
	rec := serve(t, stubSource{res: fixtureResults()}, "/api/overview")
	require.Equal(t, http.StatusOK, rec.Code)

	var got reporting.Overview
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "run-1", got.RunID)
	assert.Equal(t, 2, got.TotalProducts)
	assert.Equal(t, 3, got.PersonalizedRules)
	assert.Equal(t, 1, got.Fallbacks)
	assert.Equal(t, 0.15, got.CampaignDiscount)
}

func TestOptimalPrices(t *testing.T) {
	tests := []struct {
		name string
		path string
		want []OptimalPriceJSON
	}{
		{
			name: "all",
			path: "/api/optimal-prices",
			want: []OptimalPriceJSON{
				{ProductID: "P100", OptimalPrice: 30},
				{ProductID: "P300", OptimalPrice: 8, Fallback: true, Reason: domain.FallbackSolverFailed},
			},
		},
		{
			name: "filtered",
			path: "/api/optimal-prices?product_id=P100",
			want: []OptimalPriceJSON{{ProductID: "P100", OptimalPrice: 30}},
		},
		{
			name: "no match",
			path: "/api/optimal-prices?product_id=missing",
			want: []OptimalPriceJSON{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(t, stubSource{res: fixtureResults()}, tt.path)
			require.Equal(t, http.StatusOK, rec.Code)

			var got []OptimalPriceJSON
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPersonalizedPrices(t *testing.T) {
	rec := serve(t, stubSource{res: fixtureResults()}, "/api/personalized-prices?product_id=P100&customer_id=C2")
	require.Equal(t, http.StatusOK, rec.Code)

	var got []PersonalizedPriceJSON
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, 28.5, got[0].PersonalizedPrice)
	assert.Equal(t, domain.RuleLoyalty, got[0].Rule)
}

func TestDownloads(t *testing.T) {
	res := fixtureResults()

	rec := serve(t, stubSource{res: res}, "/download/optimal_prices.csv")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), reporting.OptimalPricesFile)
	assert.Equal(t, reporting.RenderOptimalPricesCSV(res.Optimal), rec.Body.String())

	rec = serve(t, stubSource{res: res}, "/download/personalized_prices.csv")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, reporting.RenderPersonalizedPricesCSV(res.Personalized), rec.Body.String())
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
	}{
		{"missing output dir", os.ErrNotExist, http.StatusNotFound},
		{"no runs in store", storage.ErrNotFound, http.StatusNotFound},
		{"broken source", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(t, stubSource{err: tt.err}, "/api/overview")
			assert.Equal(t, tt.code, rec.Code)
		})
	}
}

func TestDirSourceEndToEnd(t *testing.T) {
	dir := t.TempDir()
	res := fixtureResults()
	require.NoError(t, os.WriteFile(dir+"/"+reporting.OptimalPricesFile, []byte(reporting.RenderOptimalPricesCSV(res.Optimal)), 0o644))
	require.NoError(t, os.WriteFile(dir+"/"+reporting.PersonalizedPricesFile, []byte(reporting.RenderPersonalizedPricesCSV(res.Personalized)), 0o644))

	rec := serve(t, reporting.NewDirSource(dir), "/download/optimal_prices.csv")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, reporting.RenderOptimalPricesCSV(res.Optimal), rec.Body.String())
}
