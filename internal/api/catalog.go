package api

import (
	"math"
	"net/http"
	"strings"

	"clinicpos/m/domain"
	"clinicpos/m/internal/money"
	"clinicpos/m/internal/pricing"
)

// Catalog handlers

type medicineDetail struct {
	domain.Medicine
	StripPrice  money.Amount      `json:"strip_price"`
	TabletPrice money.Amount      `json:"tablet_price"`
	GST         pricing.Breakdown `json:"gst"`
	LowStock    bool              `json:"low_stock"`
}

func detail(m domain.Medicine) medicineDetail {
	return medicineDetail{
		Medicine:    m,
		StripPrice:  pricing.UnitPrice(m, domain.SaleTypeStrip),
		TabletPrice: pricing.UnitPrice(m, domain.SaleTypeTablet),
		GST:         pricing.MedicineGST(m),
		LowStock:    m.LowOnStock(),
	}
}

func (h *Handler) searchMedicines(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("query"))
	medicines, err := h.store.SearchMedicines(r.Context(), query, queryLimit(r, 25))
	if err != nil {
		respondDomainError(w, err)
		return
	}
	out := make([]medicineDetail, len(medicines))
	for i, m := range medicines {
		out[i] = detail(m)
	}
	respondJSON(w, http.StatusOK, out)
}

func (h *Handler) getMedicine(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	m, err := h.store.Medicine(r.Context(), id)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, detail(m))
}

func (h *Handler) lowStock(w http.ResponseWriter, r *http.Request) {
	medicines, err := h.store.LowStock(r.Context())
	if err != nil {
		respondDomainError(w, err)
		return
	}
	if medicines == nil {
		medicines = []domain.Medicine{}
	}
	respondJSON(w, http.StatusOK, medicines)
}

func (h *Handler) createMedicine(w http.ResponseWriter, r *http.Request) {
	if !h.requireRole(w, r, domain.RoleOwner) {
		return
	}
	var m domain.Medicine
	if err := decodeJSON(r, &m); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	m.ID = 0
	m.Name = strings.TrimSpace(m.Name)
	if m.Name == "" {
		respondError(w, http.StatusBadRequest, "name is required")
		return
	}
	if m.TabletsPerStrip < 1 {
		m.TabletsPerStrip = 1
	}
	if msg := validateMedicine(m); msg != "" {
		respondError(w, http.StatusBadRequest, msg)
		return
	}
	if err := h.store.CreateMedicine(r.Context(), &m); err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, detail(m))
}

// validateMedicine expects TabletsPerStrip to be normalised already.
func validateMedicine(m domain.Medicine) string {
	if m.Quantity < 0 || m.SellingPrice < 0 || m.MinStockLevel < 0 {
		return "quantity, selling_price and min_stock_level must not be negative"
	}
	if m.TotalSellingPrice != nil && *m.TotalSellingPrice < 0 {
		return "total_selling_price must not be negative"
	}
	if m.SellingPriceGST.IsNegative() {
		return "selling_price_gst must not be negative"
	}
	if m.SellingPrice > money.Max || (m.TotalSellingPrice != nil && *m.TotalSellingPrice > money.Max) {
		return "price exceeds the supported maximum"
	}
	if m.Quantity > math.MaxInt64/m.TabletsPerStrip {
		return "quantity is too large"
	}
	return ""
}

// Customer handlers

func (h *Handler) searchCustomers(w http.ResponseWriter, r *http.Request) {
	customers, err := h.store.SearchCustomers(r.Context(), r.URL.Query().Get("query"), queryLimit(r, 25))
	if err != nil {
		respondDomainError(w, err)
		return
	}
	if customers == nil {
		customers = []domain.Customer{}
	}
	respondJSON(w, http.StatusOK, customers)
}

func (h *Handler) createCustomer(w http.ResponseWriter, r *http.Request) {
	var c domain.Customer
	if err := decodeJSON(r, &c); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	c.ID = 0
	c.Name = strings.TrimSpace(c.Name)
	c.PatientID = strings.TrimSpace(c.PatientID)
	if c.Name == "" || c.PatientID == "" {
		respondError(w, http.StatusBadRequest, "name and patient_id are required")
		return
	}
	if err := h.store.CreateCustomer(r.Context(), &c); err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, c)
}

// Settings handlers

func (h *Handler) listServices(w http.ResponseWriter, r *http.Request) {
	services, err := h.store.ConsultationServices(r.Context())
	if err != nil {
		respondDomainError(w, err)
		return
	}
	if services == nil {
		services = []domain.ConsultationService{}
	}
	respondJSON(w, http.StatusOK, services)
}

func (h *Handler) createService(w http.ResponseWriter, r *http.Request) {
	if !h.requireRole(w, r, domain.RoleOwner) {
		return
	}
	var svc domain.ConsultationService
	if err := decodeJSON(r, &svc); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	svc.ID = 0
	svc.Name = strings.TrimSpace(svc.Name)
	if svc.Name == "" || svc.Amount < 0 {
		respondError(w, http.StatusBadRequest, "name is required and amount must not be negative")
		return
	}
	if svc.Amount > money.Max {
		respondError(w, http.StatusBadRequest, "amount exceeds the supported maximum")
		return
	}
	if err := h.store.CreateConsultationService(r.Context(), &svc); err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, svc)
}
