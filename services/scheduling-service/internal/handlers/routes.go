package handlers

import "net/http"

// Register mounts the public and admin routes on mux.
func Register(mux *http.ServeMux, sched *SchedulingHandler, admin *AdminHandler) {
	mux.HandleFunc("/api/v1/slots", sched.Slots)
	mux.HandleFunc("/api/v1/book", sched.Book)
	mux.HandleFunc("/api/v1/appointments", sched.List)
	mux.HandleFunc("/api/v1/appointments/cancel", sched.Cancel)
	mux.HandleFunc("/api/v1/appointments/complete", sched.Complete)
	mux.HandleFunc("/api/v1/customers", sched.CreateCustomer)
	mux.HandleFunc("/api/v1/ratings", admin.Ratings)
	mux.HandleFunc("/api/v1/admin/staff", admin.Staff)
	mux.HandleFunc("/api/v1/admin/services", admin.Services)
	mux.HandleFunc("/api/v1/admin/schedule", admin.WeeklyRule)
	mux.HandleFunc("/api/v1/admin/exceptions", admin.Exceptions)
}
