package core

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestSummary_RoundsAverage(t *testing.T) {
	store := &stubStore{summary: Summary{
		TotalSales:       3,
		TotalRevenue:     decimal.RequireFromString("100"),
		AveragePrice:     decimal.RequireFromString("33.335"),
		TransactionCount: 3,
	}}
	svc := NewService(store, Options{})

	got, err := svc.Summary(context.Background(), DateRange{})
	if err != nil {
		t.Fatalf("Summary error = %v", err)
	}
	if got.AveragePrice.String() != "33.34" {
		t.Errorf("AveragePrice = %s, want 33.34", got.AveragePrice)
	}
}

func TestSummary_ZeroShape(t *testing.T) {
	svc := NewService(&stubStore{}, Options{})
	got, err := svc.Summary(context.Background(), DateRange{})
	if err != nil {
		t.Fatalf("Summary error = %v", err)
	}
	if got.TotalSales != 0 || got.TransactionCount != 0 || !got.TotalRevenue.IsZero() || !got.AveragePrice.IsZero() {
		t.Errorf("Summary = %+v, want zero shape", got)
	}
}

func TestTrend_InvalidPeriod(t *testing.T) {
	svc := NewService(&stubStore{}, Options{})
	_, err := svc.Trend(context.Background(), Period("yearly"), DateRange{})
	var verrs ValidationErrors
	if !errors.As(err, &verrs) {
		t.Fatalf("error = %v, want ValidationErrors", err)
	}
	if verrs[0].Field != "period" {
		t.Errorf("field = %q, want period", verrs[0].Field)
	}
}

func TestQueries_NeverReturnNil(t *testing.T) {
	svc := NewService(&stubStore{}, Options{})
	ctx := context.Background()

	trend, err := svc.Trend(ctx, PeriodDaily, DateRange{})
	if err != nil || trend == nil {
		t.Errorf("Trend = %v, %v", trend, err)
	}
	products, err := svc.ByProduct(ctx, DateRange{})
	if err != nil || products == nil {
		t.Errorf("ByProduct = %v, %v", products, err)
	}
	regions, err := svc.ByRegion(ctx, DateRange{})
	if err != nil || regions == nil {
		t.Errorf("ByRegion = %v, %v", regions, err)
	}
	cats, err := svc.Categories(ctx)
	if err != nil || cats == nil {
		t.Errorf("Categories = %v, %v", cats, err)
	}
	regs, err := svc.Regions(ctx)
	if err != nil || regs == nil {
		t.Errorf("Regions = %v, %v", regs, err)
	}
	page, err := svc.List(ctx, ListFilter{})
	if err != nil || page.Records == nil {
		t.Errorf("List = %+v, %v", page, err)
	}
}

func TestByProduct_RoundsAverage(t *testing.T) {
	store := &stubStore{products: []ProductBreakdown{
		{Product: "A", AveragePrice: decimal.RequireFromString("10.005")},
		{Product: "B", AveragePrice: decimal.RequireFromString("-2.345")},
	}}
	svc := NewService(store, Options{})
	got, err := svc.ByProduct(context.Background(), DateRange{})
	if err != nil {
		t.Fatalf("ByProduct error = %v", err)
	}
	if got[0].AveragePrice.String() != "10.01" {
		t.Errorf("A average = %s, want 10.01", got[0].AveragePrice)
	}
	if got[1].AveragePrice.String() != "-2.35" {
		t.Errorf("B average = %s, want -2.35", got[1].AveragePrice)
	}
}

func TestList_DefaultsAndPagination(t *testing.T) {
	store := &stubStore{listed: make([]SalesRecord, 25), listTotal: 45}
	svc := NewService(store, Options{})

	page, err := svc.List(context.Background(), ListFilter{})
	if err != nil {
		t.Fatalf("List error = %v", err)
	}
	if store.lastFilter.Page != DefaultPage || store.lastFilter.Limit != DefaultLimit {
		t.Errorf("store filter = %+v, want defaults", store.lastFilter)
	}
	if len(page.Records) != DefaultLimit {
		t.Errorf("returned %d records, want at most %d", len(page.Records), DefaultLimit)
	}
	want := Pagination{Page: 1, Limit: 20, Total: 45, Pages: 3}
	if page.Pagination != want {
		t.Errorf("pagination = %+v, want %+v", page.Pagination, want)
	}
}

func TestNewPagination(t *testing.T) {
	tests := []struct {
		total int64
		limit int
		want  int
	}{
		{0, 20, 0},
		{1, 20, 1},
		{20, 20, 1},
		{21, 20, 2},
		{100, 100, 1},
		{101, 100, 2},
	}

	for _, tt := range tests {
		got := NewPagination(1, tt.limit, tt.total)
		if got.Pages != tt.want {
			t.Errorf("NewPagination(total=%d, limit=%d).Pages = %d, want %d", tt.total, tt.limit, got.Pages, tt.want)
		}
	}
}

func TestLikePattern(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Laptop", "%laptop%"},
		{"", "%%"},
		{"50%", `%50\%%`},
		{"a_b", `%a\_b%`},
		{`c:\x`, `%c:\\x%`},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := LikePattern(tt.input); got != tt.want {
				t.Errorf("LikePattern(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestQueries_WrapStoreErrors(t *testing.T) {
	storeErr := errors.New("connection reset by peer")
	svc := NewService(&stubStore{queryErr: storeErr}, Options{})

	_, err := svc.Summary(context.Background(), DateRange{})
	if !errors.Is(err, storeErr) {
		t.Errorf("Summary error = %v, want wrapped store error", err)
	}
	if code := MapError(err).Code; code != "DB005" {
		t.Errorf("MapError code = %s, want DB005", code)
	}
}
