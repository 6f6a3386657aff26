package api

import (
	"bytes"
	"net/http"
	"sort"
	"strings"
	"time"

	"clinicpos/m/domain"
	"clinicpos/m/internal/export"
	"clinicpos/m/internal/money"
	"clinicpos/m/internal/store"
)

// Reports

// saleFilter reads start_date and end_date (YYYY-MM-DD, both inclusive).
func saleFilter(r *http.Request) (store.SaleFilter, string) {
	var f store.SaleFilter
	if start := strings.TrimSpace(r.URL.Query().Get("start_date")); start != "" {
		t, err := time.Parse("2006-01-02", start)
		if err != nil {
			return f, "start_date must be in YYYY-MM-DD format"
		}
		f.From = t
	}
	if end := strings.TrimSpace(r.URL.Query().Get("end_date")); end != "" {
		t, err := time.Parse("2006-01-02", end)
		if err != nil {
			return f, "end_date must be in YYYY-MM-DD format"
		}
		f.To = t.AddDate(0, 0, 1)
	}
	return f, ""
}

func (h *Handler) listSales(w http.ResponseWriter, r *http.Request) ([]domain.Sale, bool) {
	if !h.requireRole(w, r, domain.RoleOwner) {
		return nil, false
	}
	f, msg := saleFilter(r)
	if msg != "" {
		respondError(w, http.StatusBadRequest, msg)
		return nil, false
	}
	sales, err := h.store.ListSales(r.Context(), f)
	if err != nil {
		respondDomainError(w, err)
		return nil, false
	}
	return sales, true
}

func (h *Handler) salesReport(w http.ResponseWriter, r *http.Request) {
	sales, ok := h.listSales(w, r)
	if !ok {
		return
	}
	if sales == nil {
		sales = []domain.Sale{}
	}
	respondJSON(w, http.StatusOK, sales)
}

type periodSummary struct {
	Period      string       `json:"period"`
	Sales       int          `json:"sales"`
	TotalAmount money.Amount `json:"total_amount"`
	Discount    money.Amount `json:"discount"`
	FinalAmount money.Amount `json:"final_amount"`
}

// summarizeBy groups sales by their UTC creation time formatted with
// layout, newest period first.
func summarizeBy(sales []domain.Sale, layout string) []periodSummary {
	byPeriod := make(map[string]*periodSummary)
	for _, s := range sales {
		key := s.CreatedAt.UTC().Format(layout)
		p, ok := byPeriod[key]
		if !ok {
			p = &periodSummary{Period: key}
			byPeriod[key] = p
		}
		p.Sales++
		p.TotalAmount += s.TotalAmount
		p.Discount += s.Discount
		p.FinalAmount += s.FinalAmount
	}
	out := make([]periodSummary, 0, len(byPeriod))
	for _, p := range byPeriod {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Period > out[j].Period })
	return out
}

func (h *Handler) dailySales(w http.ResponseWriter, r *http.Request) {
	sales, ok := h.listSales(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, summarizeBy(sales, "2006-01-02"))
}

func (h *Handler) monthlySales(w http.ResponseWriter, r *http.Request) {
	sales, ok := h.listSales(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, summarizeBy(sales, "2006-01"))
}

func (h *Handler) exportSales(w http.ResponseWriter, r *http.Request) {
	sales, ok := h.listSales(w, r)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := export.WriteSales(&buf, sales); err != nil {
		respondDomainError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="sales.xlsx"`)
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}
