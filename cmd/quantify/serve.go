package main

import (
	"log/slog"
	"net/http"
	"sync"

	"quantify/internal/chart"
)

// chartHandler serves the most recently rendered figure as HTML, or as
// plotly JSON with ?format=json.
type chartHandler struct {
	mu  sync.RWMutex
	fig *chart.Figure
}

// Display implements chart.Displayer so Render can publish straight into
// the handler.
func (h *chartHandler) Display(f *chart.Figure) error {
	h.mu.Lock()
	h.fig = f
	h.mu.Unlock()
	return nil
}

func (h *chartHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	fig := h.fig
	h.mu.RUnlock()

	if fig == nil {
		http.Error(w, "no chart rendered yet", http.StatusServiceUnavailable)
		return
	}

	if r.URL.Query().Get("format") == "json" {
		raw, err := fig.JSON()
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(raw)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := fig.WriteHTML(w); err != nil {
		slog.Error("[serve] write chart", "error", err)
	}
}

// multiDisplay fans a figure out to several displayers.
type multiDisplay []chart.Displayer

func (m multiDisplay) Display(f *chart.Figure) error {
	for _, d := range m {
		if err := d.Display(f); err != nil {
			return err
		}
	}
	return nil
}
