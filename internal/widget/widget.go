package widget

import (
	"bytes"
	"html/template"
	"io"

	"github.com/Alias1177/TokenTrend/internal/query"
	"github.com/Alias1177/TokenTrend/internal/trend"
	"github.com/Alias1177/TokenTrend/models"
)

// View is the render state picked for a query snapshot.
type View int

const (
	ViewLoading View = iota
	ViewError
	ViewLoaded
)

func (v View) String() string {
	switch v {
	case ViewError:
		return "error"
	case ViewLoaded:
		return "loaded"
	default:
		return "loading"
	}
}

const (
	positiveStroke = "#4ade80"
	negativeStroke = "#f87171"
)

// Model is everything the templates need, derived from one query snapshot.
type Model struct {
	View      View
	Pair      trend.Pair
	Metrics   models.PriceMetrics
	Path      string
	AriaLabel string
}

// Build selects the view for s: error first, then loading (no metrics
// yet, including fewer than two candles), then loaded.
func Build(pair string, s query.State) Model {
	m := Model{Pair: trend.ParsePair(pair)}

	if s.IsError() {
		m.View = ViewError
		m.AriaLabel = trend.UnavailableLabel(pair)
		return m
	}

	metrics, ok := trend.Calculate(s.Data)
	if s.IsLoading() || !ok {
		m.View = ViewLoading
		m.AriaLabel = trend.LoadingLabel(pair)
		return m
	}

	m.View = ViewLoaded
	m.Metrics = metrics
	m.Path = trend.SparklinePath(metrics.ClosePrices)
	m.AriaLabel = trend.AriaLabel(pair, metrics)
	return m
}

func (m Model) Price() string { return trend.FormatPrice(m.Metrics.CurrentPrice) }

// Change is marked safe so the leading "+" is not entity-escaped; it only
// ever holds digits, sign, dot, percent or a spelled-out non-finite value.
func (m Model) Change() template.HTML { return template.HTML(trend.FormatChange(m.Metrics)) }

func (m Model) ColorClass() string {
	if m.Metrics.IsPositive {
		return "positive"
	}
	return "negative"
}

func (m Model) TextClass() string {
	if m.Metrics.IsPositive {
		return "text-green-400"
	}
	return "text-red-400"
}

func (m Model) Stroke() string {
	if m.Metrics.IsPositive {
		return positiveStroke
	}
	return negativeStroke
}

// Render writes the widget fragment for the given snapshot.
func Render(w io.Writer, pair string, s query.State) error {
	return RenderModel(w, Build(pair, s))
}

func RenderModel(w io.Writer, m Model) error {
	name := "loading"
	switch m.View {
	case ViewError:
		name = "error"
	case ViewLoaded:
		name = "loaded"
	}
	return templates.ExecuteTemplate(w, name, m)
}

// RenderString is Render into a string.
func RenderString(pair string, s query.State) (string, error) {
	var buf bytes.Buffer
	if err := Render(&buf, pair, s); err != nil {
		return "", err
	}
	return buf.String(), nil
}

var templates = template.Must(template.New("widget").Parse(`
{{define "error"}}<div class="error bg-gray-900 text-white p-1 rounded-lg w-full max-w-[200px] h-[72px] flex items-center justify-center" role="alert" aria-label="{{.AriaLabel}}">
  <span class="text-red-500 text-xl font-bold" aria-hidden="true">×</span>
</div>{{end}}

{{define "loading"}}<div class="bg-gray-900 text-white p-1 rounded-lg w-full max-w-[200px]" aria-label="{{.AriaLabel}}">
  <div class="flex justify-between items-center mb-1">
    <div class="h-4 w-16 skeleton-el rounded"></div>
    <div class="h-3 w-6 skeleton-el rounded"></div>
  </div>
  <div class="flex items-baseline">
    <div class="h-5 w-20 skeleton-el rounded mb-1"></div>
    <div class="h-4 w-12 skeleton-el rounded ml-1"></div>
  </div>
  <div class="mt-1 flex items-center">
    <div class="h-3 w-8 skeleton-el rounded mr-1"></div>
    <div class="h-3 w-40 skeleton-el rounded"></div>
  </div>
</div>{{end}}

{{define "loaded"}}<div class="{{.ColorClass}} bg-gray-900 text-white p-1 rounded-lg w-full max-w-[200px] flex flex-col" aria-label="{{.AriaLabel}}" tabindex="0" role="region">
  <div class="flex justify-between items-center mb-1">
    <h2 class="text-sm font-bold">{{.Pair.Label}}</h2>
    <span class="text-xs">24h</span>
  </div>
  <div class="flex items-baseline">
    <div class="text-sm font-bold">${{.Price}}</div>
    <div class="text-xs ml-1 {{.TextClass}}">{{.Change}}</div>
  </div>
  <div class="mt-1 flex items-center">
    <span class="text-xs mr-1">Trend:</span>
    <svg class="sparkline" width="40" height="12" viewBox="0 0 40 12" role="img" aria-hidden="true">
      <path d="{{.Path}}" stroke="{{.Stroke}}" stroke-width="1.5" fill="none"></path>
    </svg>
  </div>
</div>{{end}}
`))
