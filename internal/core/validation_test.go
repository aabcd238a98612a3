package core

import (
	"errors"
	"net/url"
	"testing"
	"time"
)

func TestParseDateRange(t *testing.T) {
	jan1 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	jan31 := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		query     string
		wantStart *time.Time
		wantEnd   *time.Time
		wantField string
	}{
		{name: "open range", query: ""},
		{name: "start only", query: "startDate=2024-01-01", wantStart: &jan1},
		{name: "both bounds", query: "startDate=2024-01-01&endDate=2024-01-31", wantStart: &jan1, wantEnd: &jan31},
		{name: "RFC 3339 truncated", query: "endDate=2024-01-31T18:45:00Z", wantEnd: &jan31},
		{name: "same day", query: "startDate=2024-01-31&endDate=2024-01-31", wantStart: &jan31, wantEnd: &jan31},
		{name: "bad start", query: "startDate=01/02/2024", wantField: "startDate"},
		{name: "bad end", query: "endDate=tomorrow", wantField: "endDate"},
		{name: "reversed", query: "startDate=2024-01-31&endDate=2024-01-01", wantField: "endDate"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, _ := url.ParseQuery(tt.query)
			r, err := ParseDateRange(q)

			if tt.wantField != "" {
				var verrs ValidationErrors
				if !errors.As(err, &verrs) {
					t.Fatalf("error = %v, want ValidationErrors", err)
				}
				if verrs[0].Field != tt.wantField {
					t.Errorf("field = %q, want %q", verrs[0].Field, tt.wantField)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			assertTimePtr(t, "start", r.Start, tt.wantStart)
			assertTimePtr(t, "end", r.End, tt.wantEnd)
		})
	}
}

func TestParseTrendParams(t *testing.T) {
	tests := []struct {
		query      string
		wantPeriod Period
		wantErr    bool
	}{
		{"period=daily", PeriodDaily, false},
		{"period=weekly", PeriodWeekly, false},
		{"period=monthly&startDate=2024-01-01", PeriodMonthly, false},
		{"", "", true},
		{"period=yearly", "", true},
		{"period=Daily", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			q, _ := url.ParseQuery(tt.query)
			p, _, err := ParseTrendParams(q)
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && p != tt.wantPeriod {
				t.Errorf("period = %q, want %q", p, tt.wantPeriod)
			}
		})
	}
}

func TestParseTrendParams_CollectsAllErrors(t *testing.T) {
	q, _ := url.ParseQuery("period=hourly&startDate=x&endDate=y")
	_, _, err := ParseTrendParams(q)

	var verrs ValidationErrors
	if !errors.As(err, &verrs) {
		t.Fatalf("error = %v, want ValidationErrors", err)
	}
	if len(verrs) != 3 {
		t.Errorf("got %d errors, want 3: %v", len(verrs), verrs)
	}
	if code := MapError(err).Code; code != "VAL007" {
		t.Errorf("MapError code = %s, want VAL007", code)
	}
}

func TestParseListFilter(t *testing.T) {
	tests := []struct {
		name      string
		query     string
		want      ListFilter
		wantField string
	}{
		{
			name:  "defaults",
			query: "",
			want:  ListFilter{Page: 1, Limit: 20},
		},
		{
			name:  "all fields",
			query: "product=lap&category=%20Elec%20&region=North&page=3&limit=100",
			want:  ListFilter{Product: "lap", Category: "Elec", Region: "North", Page: 3, Limit: 100},
		},
		{name: "page zero", query: "page=0", wantField: "page"},
		{name: "page text", query: "page=two", wantField: "page"},
		{name: "limit zero", query: "limit=0", wantField: "limit"},
		{name: "limit over max", query: "limit=101", wantField: "limit"},
		{name: "negative limit", query: "limit=-5", wantField: "limit"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, _ := url.ParseQuery(tt.query)
			got, err := ParseListFilter(q)

			if tt.wantField != "" {
				var verrs ValidationErrors
				if !errors.As(err, &verrs) {
					t.Fatalf("error = %v, want ValidationErrors", err)
				}
				if verrs[0].Field != tt.wantField {
					t.Errorf("field = %q, want %q", verrs[0].Field, tt.wantField)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Product != tt.want.Product || got.Category != tt.want.Category || got.Region != tt.want.Region ||
				got.Page != tt.want.Page || got.Limit != tt.want.Limit {
				t.Errorf("ParseListFilter = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestListFilter_Offset(t *testing.T) {
	f := ListFilter{Page: 3, Limit: 20}
	if got := f.Offset(); got != 40 {
		t.Errorf("Offset = %d, want 40", got)
	}
}

func TestParseHistoryLimit(t *testing.T) {
	q, _ := url.ParseQuery("")
	if n, err := ParseHistoryLimit(q); err != nil || n != DefaultLimit {
		t.Errorf("ParseHistoryLimit() = %d, %v", n, err)
	}
	q, _ = url.ParseQuery("limit=5")
	if n, err := ParseHistoryLimit(q); err != nil || n != 5 {
		t.Errorf("ParseHistoryLimit(5) = %d, %v", n, err)
	}
	q, _ = url.ParseQuery("limit=500")
	if _, err := ParseHistoryLimit(q); err == nil {
		t.Error("ParseHistoryLimit(500) accepted")
	}
}

func assertTimePtr(t *testing.T, name string, got, want *time.Time) {
	t.Helper()
	switch {
	case got == nil && want == nil:
	case got == nil || want == nil:
		t.Errorf("%s = %v, want %v", name, got, want)
	case !got.Equal(*want):
		t.Errorf("%s = %v, want %v", name, *got, *want)
	}
}
