package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/mkrylova/slotserve/services/scheduling-service/internal/booking"
	"github.com/mkrylova/slotserve/services/scheduling-service/internal/model"
	"github.com/mkrylova/slotserve/services/scheduling-service/internal/scheduler"
)

// CustomerStore resolves the caller's customer record. External ids come
// from the channel the request arrived on (messenger id, phone, app login).
type CustomerStore interface {
	GetOrCreate(ctx context.Context, externalID, name, phone string) (*model.Customer, error)
	ByID(ctx context.Context, id string) (*model.Customer, error)
}

type SchedulingHandler struct {
	sched     *scheduler.Scheduler
	customers CustomerStore
	logger    *slog.Logger
}

func NewSchedulingHandler(sched *scheduler.Scheduler, customers CustomerStore, logger *slog.Logger) *SchedulingHandler {
	return &SchedulingHandler{sched: sched, customers: customers, logger: logger}
}

type bookRequest struct {
	CustomerExternalID string `json:"customer_external_id"`
	ServiceID          string `json:"service_id"`
	StaffID            string `json:"staff_id"`
	Date               string `json:"date"`
	Time               string `json:"time"`
	ContactName        string `json:"contact_name"`
	ContactPhone       string `json:"contact_phone"`
}

type bookResponse struct {
	AppointmentID string `json:"appointment_id"`
	StaffID       string `json:"staff_id"`
}

type appointmentItem struct {
	AppointmentID string `json:"appointment_id"`
	CustomerID    string `json:"customer_id"`
	ServiceID     string `json:"service_id"`
	StaffID       string `json:"staff_id"`
	Date          string `json:"date"`
	Time          string `json:"time"`
	Status        string `json:"status"`
	ContactName   string `json:"contact_name"`
	ContactPhone  string `json:"contact_phone"`
}

// Slots handles GET /api/v1/slots?staff_id=&service_id=&date=.
func (h *SchedulingHandler) Slots(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	staffID := strings.TrimSpace(r.URL.Query().Get("staff_id"))
	serviceID := strings.TrimSpace(r.URL.Query().Get("service_id"))
	date := strings.TrimSpace(r.URL.Query().Get("date"))
	if staffID == "" || serviceID == "" || date == "" {
		http.Error(w, "staff_id, service_id and date are required", http.StatusBadRequest)
		return
	}

	slots, err := h.sched.Slots(r.Context(), staffID, serviceID, date)
	if err != nil {
		writeError(w, err)
		return
	}
	if slots == nil {
		slots = []string{}
	}
	writeJSON(w, http.StatusOK, slots)
}

// Book handles POST /api/v1/book.
func (h *SchedulingHandler) Book(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req bookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.CustomerExternalID = strings.TrimSpace(req.CustomerExternalID)
	req.ServiceID = strings.TrimSpace(req.ServiceID)
	req.StaffID = strings.TrimSpace(req.StaffID)
	req.ContactName = strings.TrimSpace(req.ContactName)
	req.ContactPhone = strings.TrimSpace(req.ContactPhone)
	if req.CustomerExternalID == "" || req.ServiceID == "" || req.ContactName == "" {
		http.Error(w, "customer_external_id, service_id and contact_name are required", http.StatusBadRequest)
		return
	}

	customer, err := h.customers.GetOrCreate(r.Context(), req.CustomerExternalID, req.ContactName, req.ContactPhone)
	if err != nil {
		h.logger.Error("customer resolve failed", "err", err)
		writeError(w, err)
		return
	}

	appt, err := h.sched.Book(r.Context(), booking.Request{
		CustomerID:   customer.ID,
		ServiceID:    req.ServiceID,
		StaffID:      req.StaffID,
		Date:         req.Date,
		StartClock:   req.Time,
		ContactName:  req.ContactName,
		ContactPhone: req.ContactPhone,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	// The staff id comes from the stored row, not the request: with no
	// preference expressed the booking picked one.
	writeJSON(w, http.StatusCreated, bookResponse{AppointmentID: appt.ID, StaffID: appt.StaffID})
}

type transitionRequest struct {
	AppointmentID string `json:"appointment_id"`
}

// Cancel handles POST /api/v1/appointments/cancel.
func (h *SchedulingHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.sched.Cancel)
}

// Complete handles POST /api/v1/appointments/complete.
func (h *SchedulingHandler) Complete(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.sched.Complete)
}

func (h *SchedulingHandler) transition(w http.ResponseWriter, r *http.Request, op func(context.Context, string) error) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req transitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.AppointmentID = strings.TrimSpace(req.AppointmentID)
	if req.AppointmentID == "" {
		http.Error(w, "appointment_id required", http.StatusBadRequest)
		return
	}
	if err := op(r.Context(), req.AppointmentID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// List handles GET /api/v1/appointments?staff_id=&date=&status=.
func (h *SchedulingHandler) List(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	staffID := strings.TrimSpace(r.URL.Query().Get("staff_id"))
	date := strings.TrimSpace(r.URL.Query().Get("date"))
	status := strings.TrimSpace(r.URL.Query().Get("status"))
	if staffID == "" || date == "" {
		http.Error(w, "staff_id and date are required", http.StatusBadRequest)
		return
	}

	appts, err := h.sched.Appointments(r.Context(), staffID, date, status)
	if err != nil {
		writeError(w, err)
		return
	}
	items := make([]appointmentItem, 0, len(appts))
	for _, a := range appts {
		items = append(items, appointmentItem{
			AppointmentID: a.ID,
			CustomerID:    a.CustomerID,
			ServiceID:     a.ServiceID,
			StaffID:       a.StaffID,
			Date:          a.Date,
			Time:          a.StartClock,
			Status:        a.Status,
			ContactName:   a.ContactName,
			ContactPhone:  a.ContactPhone,
		})
	}
	writeJSON(w, http.StatusOK, items)
}

type createCustomerRequest struct {
	ExternalID string `json:"external_id"`
	Name       string `json:"name"`
	Phone      string `json:"phone"`
}

type customerResponse struct {
	ID         string `json:"id"`
	ExternalID string `json:"external_id"`
	Name       string `json:"name"`
	Phone      string `json:"phone"`
}

// CreateCustomer handles POST /api/v1/customers. Repeated calls with the
// same external id return the existing record.
func (h *SchedulingHandler) CreateCustomer(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req createCustomerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.ExternalID = strings.TrimSpace(req.ExternalID)
	req.Name = strings.TrimSpace(req.Name)
	if req.ExternalID == "" || req.Name == "" {
		http.Error(w, "external_id and name are required", http.StatusBadRequest)
		return
	}
	customer, err := h.customers.GetOrCreate(r.Context(), req.ExternalID, req.Name, strings.TrimSpace(req.Phone))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, customerResponse{
		ID:         customer.ID,
		ExternalID: customer.ExternalID,
		Name:       customer.Name,
		Phone:      customer.Phone,
	})
}
