package chart

import (
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

const plotlyCDN = "https://cdn.plot.ly/plotly-2.35.2.min.js"

var pageTmpl = template.Must(template.New("chart").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<script src="{{.Script}}"></script>
</head>
<body>
<div id="chart" style="width:100%;height:95vh;"></div>
<script>
var fig = {{.Figure}};
Plotly.newPlot("chart", fig.data, fig.layout, {responsive: true});
</script>
</body>
</html>
`))

// WriteHTML writes a standalone page that loads plotly and draws the figure.
func (f *Figure) WriteHTML(w io.Writer) error {
	raw, err := f.JSON()
	if err != nil {
		return fmt.Errorf("chart: encode figure: %w", err)
	}
	return pageTmpl.Execute(w, struct {
		Title  string
		Script string
		Figure template.JS
	}{
		Title:  f.Layout.Title,
		Script: plotlyCDN,
		Figure: template.JS(raw),
	})
}

// HTMLFile writes each displayed figure to Dir/<symbol>.html.
type HTMLFile struct {
	Dir string
}

// Path is where a figure for symbol is written.
func (h HTMLFile) Path(symbol string) string {
	name := strings.TrimSpace(symbol)
	if name == "" {
		name = "chart"
	}
	name = strings.NewReplacer("/", "_", "\\", "_", " ", "_").Replace(name)
	return filepath.Join(h.Dir, name+".html")
}

func (h HTMLFile) Display(f *Figure) error {
	if err := os.MkdirAll(h.Dir, 0o755); err != nil {
		return fmt.Errorf("create chart dir: %w", err)
	}
	path := h.Path(f.symbol)
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := f.WriteHTML(out); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	slog.Info("[chart] figure written", "path", path)
	return nil
}
