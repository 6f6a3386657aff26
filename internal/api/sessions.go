package api

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"clinicpos/m/domain"
	"clinicpos/m/internal/checkout"
	"clinicpos/m/internal/money"
)

// Sale session handlers. Every mutation answers with the session view so
// the client can redraw the cart, selections and totals at once.

func (h *Handler) withSession(w http.ResponseWriter, r *http.Request, status int, fn func(*checkout.Session) error) {
	id := chi.URLParam(r, "sessionID")
	var view checkout.View
	err := h.sessions.With(id, func(s *checkout.Session) error {
		if err := fn(s); err != nil {
			return err
		}
		view = s.View()
		return nil
	})
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, status, view)
}

func (h *Handler) createSession(w http.ResponseWriter, r *http.Request) {
	view, err := h.sessions.Create(r.Context())
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, view)
}

func (h *Handler) getSession(w http.ResponseWriter, r *http.Request) {
	h.withSession(w, r, http.StatusOK, func(*checkout.Session) error { return nil })
}

func (h *Handler) cancelSession(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Cancel(chi.URLParam(r, "sessionID")); err != nil {
		respondDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) setCustomer(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CustomerID int64 `json:"customer_id"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	customer, err := h.store.Customer(r.Context(), req.CustomerID)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	h.withSession(w, r, http.StatusOK, func(s *checkout.Session) error {
		s.SetCustomer(customer)
		return nil
	})
}

func (h *Handler) clearCustomer(w http.ResponseWriter, r *http.Request) {
	h.withSession(w, r, http.StatusOK, func(s *checkout.Session) error {
		s.ClearCustomer()
		return nil
	})
}

func (h *Handler) setDiscount(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Discount money.Amount `json:"discount"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.withSession(w, r, http.StatusOK, func(s *checkout.Session) error {
		s.SetDiscount(req.Discount)
		return nil
	})
}

func (h *Handler) setPaymentMethod(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PaymentMethod string `json:"payment_method"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	pm, err := domain.ParsePaymentMethod(req.PaymentMethod)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	h.withSession(w, r, http.StatusOK, func(s *checkout.Session) error {
		return s.SetPaymentMethod(pm)
	})
}

type lineRequest struct {
	MedicineID int64  `json:"medicine_id"`
	Quantity   int64  `json:"quantity"`
	SaleType   string `json:"sale_type"`
}

func (h *Handler) addLine(w http.ResponseWriter, r *http.Request) {
	var req lineRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	saleType, err := domain.ParseSaleType(req.SaleType)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	h.withSession(w, r, http.StatusOK, func(s *checkout.Session) error {
		_, err := s.AddLine(r.Context(), req.MedicineID, req.Quantity, saleType)
		return err
	})
}

// lineKey reads the medicine id and sale type of a line from the path.
func lineKey(w http.ResponseWriter, r *http.Request) (int64, domain.SaleType, bool) {
	medicineID, err := pathID(r, "medicineID")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return 0, "", false
	}
	saleType, err := domain.ParseSaleType(chi.URLParam(r, "saleType"))
	if err != nil {
		respondDomainError(w, err)
		return 0, "", false
	}
	return medicineID, saleType, true
}

func (h *Handler) updateLineQuantity(w http.ResponseWriter, r *http.Request) {
	medicineID, saleType, ok := lineKey(w, r)
	if !ok {
		return
	}
	var req struct {
		Quantity int64 `json:"quantity"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.withSession(w, r, http.StatusOK, func(s *checkout.Session) error {
		return s.UpdateLineQuantity(r.Context(), medicineID, saleType, req.Quantity)
	})
}

func (h *Handler) updateLinePrice(w http.ResponseWriter, r *http.Request) {
	medicineID, saleType, ok := lineKey(w, r)
	if !ok {
		return
	}
	var req struct {
		UnitPrice money.Amount `json:"unit_price"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.withSession(w, r, http.StatusOK, func(s *checkout.Session) error {
		return s.UpdateLinePrice(medicineID, saleType, req.UnitPrice)
	})
}

// removeLine drops one line when ?sale_type= is given, otherwise every
// line of the medicine.
func (h *Handler) removeLine(w http.ResponseWriter, r *http.Request) {
	medicineID, err := pathID(r, "medicineID")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	var saleTypes []domain.SaleType
	if raw := r.URL.Query().Get("sale_type"); raw != "" {
		st, err := domain.ParseSaleType(raw)
		if err != nil {
			respondDomainError(w, err)
			return
		}
		saleTypes = append(saleTypes, st)
	}
	h.withSession(w, r, http.StatusOK, func(s *checkout.Session) error {
		return s.RemoveLine(medicineID, saleTypes...)
	})
}

func (h *Handler) availability(w http.ResponseWriter, r *http.Request) {
	medicineID, err := pathID(r, "medicineID")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	err = h.sessions.With(chi.URLParam(r, "sessionID"), func(s *checkout.Session) error {
		avail, err := s.Available(r.Context(), medicineID)
		if err != nil {
			return err
		}
		respondJSON(w, http.StatusOK, avail)
		return nil
	})
	if err != nil {
		respondDomainError(w, err)
	}
}

func (h *Handler) toggleService(w http.ResponseWriter, r *http.Request) {
	serviceID, err := pathID(r, "serviceID")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	svc, err := h.store.ConsultationService(r.Context(), serviceID)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	h.withSession(w, r, http.StatusOK, func(s *checkout.Session) error {
		s.ToggleService(svc)
		return nil
	})
}

func (h *Handler) updateServiceQuantity(w http.ResponseWriter, r *http.Request) {
	serviceID, err := pathID(r, "serviceID")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req struct {
		Quantity int64 `json:"quantity"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.withSession(w, r, http.StatusOK, func(s *checkout.Session) error {
		return s.UpdateServiceQuantity(serviceID, req.Quantity)
	})
}

func (h *Handler) updateServicePrice(w http.ResponseWriter, r *http.Request) {
	serviceID, err := pathID(r, "serviceID")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req struct {
		Price money.Amount `json:"price"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.withSession(w, r, http.StatusOK, func(s *checkout.Session) error {
		return s.UpdateServicePrice(serviceID, req.Price)
	})
}

// commit finalizes the session and notifies downstream consumers. A
// failed notification does not undo the sale.
func (h *Handler) commit(w http.ResponseWriter, r *http.Request) {
	sale, err := h.sessions.Commit(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		respondDomainError(w, err)
		return
	}
	if err := h.events.PublishSaleCommitted(r.Context(), *sale); err != nil {
		log.Printf("[api] publish sale %s: %v", sale.ID, err)
	}
	respondJSON(w, http.StatusCreated, sale)
}
