package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/mkrylova/slotserve/services/scheduling-service/internal/model"
	"github.com/mkrylova/slotserve/services/scheduling-service/internal/timeutil"
)

type StaffStore interface {
	Create(ctx context.Context, name, bio, contact string) (string, error)
	ListActive(ctx context.Context) ([]model.StaffMember, error)
	Delete(ctx context.Context, id string) error
}

type ServiceStore interface {
	Create(ctx context.Context, name, description, price string, durationMinutes int) (string, error)
	List(ctx context.Context) ([]model.ServiceOffering, error)
	Update(ctx context.Context, id string, name, description, price string, durationMinutes int) error
	Delete(ctx context.Context, id string) error
}

type ScheduleStore interface {
	ReplaceWeeklyRule(ctx context.Context, rule model.WeeklyScheduleRule) error
	UpsertException(ctx context.Context, exc model.DateException) error
	ListExceptions(ctx context.Context, staffID string) ([]model.DateException, error)
}

type ReviewStore interface {
	AverageForStaff(ctx context.Context, staffID string) (float64, int, error)
	AverageForService(ctx context.Context, serviceID string) (float64, int, error)
}

// AdminHandler is the management surface: catalog and schedule maintenance.
// Operator authentication sits in front of it at the gateway.
type AdminHandler struct {
	staff    StaffStore
	services ServiceStore
	schedule ScheduleStore
	reviews  ReviewStore
	logger   *slog.Logger
}

func NewAdminHandler(staff StaffStore, services ServiceStore, schedule ScheduleStore, reviews ReviewStore, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{staff: staff, services: services, schedule: schedule, reviews: reviews, logger: logger}
}

type staffRequest struct {
	Name    string `json:"name"`
	Bio     string `json:"bio"`
	Contact string `json:"contact"`
}

type staffItem struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Bio     string `json:"bio,omitempty"`
	Contact string `json:"contact,omitempty"`
}

// Staff handles /api/v1/admin/staff: GET lists active staff, POST creates,
// DELETE ?id= removes the record (schedule rules and exceptions go with it;
// appointments keep their denormalized staff reference).
func (h *AdminHandler) Staff(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		staff, err := h.staff.ListActive(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		items := make([]staffItem, 0, len(staff))
		for _, s := range staff {
			items = append(items, staffItem{ID: s.ID, Name: s.Name, Bio: s.Bio, Contact: s.Contact})
		}
		writeJSON(w, http.StatusOK, items)
	case http.MethodPost:
		var req staffRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json body", http.StatusBadRequest)
			return
		}
		req.Name = strings.TrimSpace(req.Name)
		if req.Name == "" {
			http.Error(w, "name required", http.StatusBadRequest)
			return
		}
		id, err := h.staff.Create(r.Context(), req.Name, strings.TrimSpace(req.Bio), strings.TrimSpace(req.Contact))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]string{"id": id})
	case http.MethodDelete:
		id := strings.TrimSpace(r.URL.Query().Get("id"))
		if id == "" {
			http.Error(w, "id required", http.StatusBadRequest)
			return
		}
		if err := h.staff.Delete(r.Context(), id); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

type serviceRequest struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Description     string `json:"description"`
	Price           string `json:"price"`
	DurationMinutes int    `json:"duration_minutes"`
}

type serviceItem struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Description     string `json:"description,omitempty"`
	Price           string `json:"price,omitempty"`
	DurationMinutes int    `json:"duration_minutes"`
}

// Services handles /api/v1/admin/services: GET lists, POST creates, PUT
// partially updates (empty fields keep their value), DELETE ?id= removes.
func (h *AdminHandler) Services(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		services, err := h.services.List(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		items := make([]serviceItem, 0, len(services))
		for _, s := range services {
			items = append(items, serviceItem{
				ID:              s.ID,
				Name:            s.Name,
				Description:     s.Description,
				Price:           s.Price,
				DurationMinutes: s.DurationMinutes,
			})
		}
		writeJSON(w, http.StatusOK, items)
	case http.MethodPost:
		var req serviceRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json body", http.StatusBadRequest)
			return
		}
		req.Name = strings.TrimSpace(req.Name)
		if req.Name == "" || req.DurationMinutes <= 0 {
			http.Error(w, "name and positive duration_minutes required", http.StatusBadRequest)
			return
		}
		id, err := h.services.Create(r.Context(), req.Name, strings.TrimSpace(req.Description), strings.TrimSpace(req.Price), req.DurationMinutes)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]string{"id": id})
	case http.MethodPut:
		var req serviceRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json body", http.StatusBadRequest)
			return
		}
		req.ID = strings.TrimSpace(req.ID)
		if req.ID == "" {
			http.Error(w, "id required", http.StatusBadRequest)
			return
		}
		if err := h.services.Update(r.Context(), req.ID, strings.TrimSpace(req.Name), strings.TrimSpace(req.Description), strings.TrimSpace(req.Price), req.DurationMinutes); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	case http.MethodDelete:
		id := strings.TrimSpace(r.URL.Query().Get("id"))
		if id == "" {
			http.Error(w, "id required", http.StatusBadRequest)
			return
		}
		if err := h.services.Delete(r.Context(), id); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

type weeklyRuleRequest struct {
	StaffID             string `json:"staff_id"`
	Weekday             int    `json:"weekday"`
	Start               string `json:"start"`
	End                 string `json:"end"`
	SlotIntervalMinutes int    `json:"slot_interval_minutes"`
}

// WeeklyRule handles PUT /api/v1/admin/schedule: replaces the rule for
// (staff, weekday).
func (h *AdminHandler) WeeklyRule(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req weeklyRuleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.StaffID = strings.TrimSpace(req.StaffID)
	if req.StaffID == "" || req.Weekday < 0 || req.Weekday > 6 {
		http.Error(w, "staff_id and weekday 0-6 required", http.StatusBadRequest)
		return
	}
	start, err := timeutil.ToMinutes(req.Start)
	if err != nil {
		writeError(w, err)
		return
	}
	end, err := timeutil.ToMinutes(req.End)
	if err != nil {
		writeError(w, err)
		return
	}
	if end <= start {
		http.Error(w, "end must be after start", http.StatusBadRequest)
		return
	}
	if err := h.schedule.ReplaceWeeklyRule(r.Context(), model.WeeklyScheduleRule{
		StaffID:             req.StaffID,
		Weekday:             req.Weekday,
		StartClock:          req.Start,
		EndClock:            req.End,
		SlotIntervalMinutes: req.SlotIntervalMinutes,
	}); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type exceptionRequest struct {
	StaffID   string `json:"staff_id"`
	Date      string `json:"date"`
	Available bool   `json:"available"`
	Start     string `json:"start"`
	End       string `json:"end"`
	Note      string `json:"note"`
}

type exceptionItem struct {
	Date      string `json:"date"`
	Available bool   `json:"available"`
	Start     string `json:"start,omitempty"`
	End       string `json:"end,omitempty"`
	Note      string `json:"note,omitempty"`
}

// Exceptions handles /api/v1/admin/exceptions: PUT upserts the override for
// (staff, date), GET ?staff_id= lists them newest first.
func (h *AdminHandler) Exceptions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPut:
		var req exceptionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json body", http.StatusBadRequest)
			return
		}
		req.StaffID = strings.TrimSpace(req.StaffID)
		if req.StaffID == "" {
			http.Error(w, "staff_id required", http.StatusBadRequest)
			return
		}
		if _, err := timeutil.ParseDate(req.Date); err != nil {
			writeError(w, err)
			return
		}
		// A window is all-or-nothing: one clock without the other is a
		// client bug, not a half-open day.
		if (req.Start == "") != (req.End == "") {
			http.Error(w, "start and end must be set together", http.StatusBadRequest)
			return
		}
		if req.Start != "" {
			start, err := timeutil.ToMinutes(req.Start)
			if err != nil {
				writeError(w, err)
				return
			}
			end, err := timeutil.ToMinutes(req.End)
			if err != nil {
				writeError(w, err)
				return
			}
			if end <= start {
				http.Error(w, "end must be after start", http.StatusBadRequest)
				return
			}
		}
		if err := h.schedule.UpsertException(r.Context(), model.DateException{
			StaffID:    req.StaffID,
			Date:       req.Date,
			Available:  req.Available,
			StartClock: req.Start,
			EndClock:   req.End,
			Note:       strings.TrimSpace(req.Note),
		}); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	case http.MethodGet:
		staffID := strings.TrimSpace(r.URL.Query().Get("staff_id"))
		if staffID == "" {
			http.Error(w, "staff_id required", http.StatusBadRequest)
			return
		}
		excs, err := h.schedule.ListExceptions(r.Context(), staffID)
		if err != nil {
			writeError(w, err)
			return
		}
		items := make([]exceptionItem, 0, len(excs))
		for _, e := range excs {
			items = append(items, exceptionItem{
				Date:      e.Date,
				Available: e.Available,
				Start:     e.StartClock,
				End:       e.EndClock,
				Note:      e.Note,
			})
		}
		writeJSON(w, http.StatusOK, items)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

type ratingResponse struct {
	Average float64 `json:"average"`
	Count   int     `json:"count"`
}

// Ratings handles GET /api/v1/ratings?staff_id= or ?service_id=.
func (h *AdminHandler) Ratings(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	staffID := strings.TrimSpace(r.URL.Query().Get("staff_id"))
	serviceID := strings.TrimSpace(r.URL.Query().Get("service_id"))

	var (
		avg   float64
		count int
		err   error
	)
	switch {
	case staffID != "":
		avg, count, err = h.reviews.AverageForStaff(r.Context(), staffID)
	case serviceID != "":
		avg, count, err = h.reviews.AverageForService(r.Context(), serviceID)
	default:
		http.Error(w, "staff_id or service_id required", http.StatusBadRequest)
		return
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ratingResponse{Average: avg, Count: count})
}
