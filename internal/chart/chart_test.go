package chart

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"quantify/internal/indicator"
	"quantify/internal/metrics"
	"quantify/internal/model"
)

func testSeries(t *testing.T, withVolume bool) *model.PriceSeries {
	t.Helper()
	n := 6
	open, close, high, low, vol := make([]float64, n), make([]float64, n), make([]float64, n), make([]float64, n), make([]float64, n)
	dates := make([]time.Time, n)
	start := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		open[i] = 10 + float64(i)
		close[i] = 10.5 + float64(i)
		high[i] = 11 + float64(i)
		low[i] = 9.5 + float64(i)
		vol[i] = 1000 * float64(i+1)
		dates[i] = start.AddDate(0, 0, i)
	}
	opts := []model.SeriesOption{model.WithDates(dates), model.WithSymbol("ACME")}
	if withVolume {
		opts = append(opts, model.WithVolume(vol))
	}
	ps, err := model.NewPriceSeries(open, close, high, low, opts...)
	if err != nil {
		t.Fatalf("build series: %v", err)
	}
	return ps
}

type recordingDisplayer struct {
	calls int
	last  *Figure
}

func (r *recordingDisplayer) Display(f *Figure) error {
	r.calls++
	r.last = f
	return nil
}

func TestRender_CandlesOnly(t *testing.T) {
	ps := testSeries(t, false)
	fig, err := Render(ps, Options{Volume: true})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if len(fig.Data) != 1 || fig.Data[0].Type != StyleCandlestick {
		t.Fatalf("expected a single candlestick trace, got %+v", fig.Data)
	}
	if fig.Layout.YAxis2 != nil {
		t.Error("expected no volume row for a series without volume")
	}
	if fig.Layout.Title != "ACME" {
		t.Errorf("title=%q", fig.Layout.Title)
	}
}

func TestRender_OverlaysInRegistrationOrder(t *testing.T) {
	ps := testSeries(t, true)
	f := indicator.NewFacet(ps)
	if _, err := f.ExponentialMovingAverage(indicator.Params{Window: 3}); err != nil {
		t.Fatal(err)
	}
	if _, err := f.SimpleMovingAverage(indicator.Params{Window: 2}); err != nil {
		t.Fatal(err)
	}

	fig, err := Render(ps, Options{})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	lines := fig.Traces(StyleScatter)
	if len(lines) != 2 || lines[0].Name != "EMA-3" || lines[1].Name != "SMA-2" {
		t.Fatalf("unexpected overlays: %+v", lines)
	}
	if len(fig.Traces(StyleBar)) != 0 {
		t.Error("volume drawn without Options.Volume")
	}
}

func TestRender_UnprocessedIndicatorFails(t *testing.T) {
	ps := testSeries(t, false)
	sma, _ := indicator.NewSimpleMovingAverage(indicator.Params{Window: 2})
	indicator.AddTo(ps, sma)

	if _, err := Render(ps, Options{}); !errors.Is(err, indicator.ErrNotReady) {
		t.Fatalf("expected ErrNotReady, got %v", err)
	}
}

func TestRender_VolumeSubplotDefaults(t *testing.T) {
	ps := testSeries(t, true)
	fig, err := Render(ps, Options{Volume: true})
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	bars := fig.Traces(StyleBar)
	if len(bars) != 1 || bars[0].YAxis != "y2" {
		t.Fatalf("expected one volume bar trace on y2, got %+v", bars)
	}
	if fig.Layout.YAxis2 == nil {
		t.Fatal("expected yaxis2")
	}

	// avail = 0.97; volume row = 0.97*0.2/0.9
	volTop := 0.97 * 0.2 / 0.9
	assertDomain(t, "volume", fig.Layout.YAxis2.Domain, [2]float64{0, volTop})
	assertDomain(t, "price", fig.Layout.YAxis.Domain, [2]float64{volTop + 0.03, 1})

	if fig.Subplot["vertical_spacing"] != DefaultVerticalSpacing {
		t.Errorf("subplot=%v", fig.Subplot)
	}
}

func TestRender_SubplotOverridesMerge(t *testing.T) {
	ps := testSeries(t, true)
	fig, err := Render(ps, Options{
		Volume:  true,
		Subplot: map[string]any{"row_width": []any{1, 3}, "shared_xaxes": true},
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if fig.Subplot["vertical_spacing"] != DefaultVerticalSpacing {
		t.Error("default vertical_spacing lost in merge")
	}
	if fig.Subplot["shared_xaxes"] != true {
		t.Error("extra override lost in merge")
	}
	volTop := 0.97 * 1 / 4
	assertDomain(t, "volume", fig.Layout.YAxis2.Domain, [2]float64{0, volTop})
	assertDomain(t, "price", fig.Layout.YAxis.Domain, [2]float64{volTop + 0.03, 1})
}

func TestRender_BadSubplot(t *testing.T) {
	ps := testSeries(t, true)
	bad := []map[string]any{
		{"vertical_spacing": "wide"},
		{"vertical_spacing": 1.5},
		{"row_width": []float64{0.2}},
		{"row_width": []float64{0.2, -1}},
		{"row_width": "0.2,0.7"},
	}
	for _, sub := range bad {
		if _, err := Render(ps, Options{Volume: true, Subplot: sub}); err == nil {
			t.Errorf("expected error for subplot %v", sub)
		}
	}
}

func TestRender_ShowCallsDisplayerOnce(t *testing.T) {
	ps := testSeries(t, false)
	d := &recordingDisplayer{}
	m := metrics.NewMetrics()

	fig, err := Render(ps, Options{Show: true, Displayer: d, Metrics: m})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if d.calls != 1 || d.last != fig {
		t.Errorf("displayer calls=%d, same figure=%v", d.calls, d.last == fig)
	}
	if got := testutil.ToFloat64(m.ChartsRendered); got != 1 {
		t.Errorf("charts_rendered=%v, want 1", got)
	}

	d2 := &recordingDisplayer{}
	if _, err := Render(ps, Options{Displayer: d2}); err != nil {
		t.Fatal(err)
	}
	if d2.calls != 0 {
		t.Error("displayer called without Show")
	}
}

func TestFigureJSON_NaNIsNull(t *testing.T) {
	ps := testSeries(t, false)
	f := indicator.NewFacet(ps)
	if _, err := f.SimpleMovingAverage(indicator.Params{Window: 3}); err != nil {
		t.Fatal(err)
	}
	fig, err := Render(ps, Options{})
	if err != nil {
		t.Fatal(err)
	}
	raw, err := fig.JSON()
	if err != nil {
		t.Fatalf("json: %v", err)
	}

	var decoded struct {
		Data []struct {
			Type string     `json:"type"`
			Y    []*float64 `json:"y"`
		} `json:"data"`
	}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("figure JSON does not parse: %v", err)
	}
	y := decoded.Data[1].Y
	if len(y) != 6 || y[0] != nil || y[1] != nil || y[2] == nil {
		t.Fatalf("unexpected y: %v", y)
	}
	if math.Abs(*y[2]-11.5) > 1e-9 {
		t.Errorf("y[2]=%v, want 11.5", *y[2])
	}
}

func TestValues_MarshalJSON(t *testing.T) {
	raw, err := json.Marshal(Values{1, math.NaN(), 2.5, math.Inf(1)})
	if err != nil {
		t.Fatal(err)
	}
	if string(raw) != "[1,null,2.5,null]" {
		t.Errorf("got %s", raw)
	}
}

func TestHTMLFile_Display(t *testing.T) {
	dir := t.TempDir()
	ps := testSeries(t, true)
	if _, err := Render(ps, Options{Show: true, Volume: true, Displayer: HTMLFile{Dir: dir}}); err != nil {
		t.Fatalf("render: %v", err)
	}
	body, err := os.ReadFile(filepath.Join(dir, "ACME.html"))
	if err != nil {
		t.Fatalf("read html: %v", err)
	}
	if !strings.Contains(string(body), "Plotly.newPlot") || !strings.Contains(string(body), `"candlestick"`) {
		t.Errorf("unexpected page:\n%s", body)
	}
}

func TestWriteHTML_IndexAxisWithoutDates(t *testing.T) {
	ps, err := model.NewPriceSeries([]float64{1, 2}, []float64{1, 2}, []float64{1, 2}, []float64{1, 2})
	if err != nil {
		t.Fatal(err)
	}
	fig, err := Render(ps, Options{Title: "untitled"})
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := fig.WriteHTML(&buf); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), `"x":[0,1]`) {
		t.Errorf("expected index x axis in page:\n%s", buf.String())
	}
}

func assertDomain(t *testing.T, label string, got, want [2]float64) {
	t.Helper()
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-9 {
			t.Errorf("%s domain=%v, want %v", label, got, want)
			return
		}
	}
}
