package http

import (
	"net/http"

	"go.uber.org/zap"
)

type dashboardResponse struct {
	TotalStudents   int64 `json:"total_students"`
	TotalRooms      int64 `json:"total_rooms"`
	PaymentsPaid    int64 `json:"payments_paid"`
	PaymentsPending int64 `json:"payments_pending"`
	OpenComplaints  int64 `json:"open_complaints"`
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	d, err := s.store.Dashboard(r.Context())
	if err != nil {
		s.logger.Error("dashboard query failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	writeJSON(w, http.StatusOK, dashboardResponse{
		TotalStudents:   d.Students,
		TotalRooms:      d.Rooms,
		PaymentsPaid:    d.PaymentsPaid,
		PaymentsPending: d.PaymentsPending,
		OpenComplaints:  d.ComplaintsOpen,
	})
}

func (s *Server) handleListStudents(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 100, 500)
	offset := queryInt(r, "offset", 0, 0)
	students, err := s.store.ListStudents(r.Context(), r.URL.Query().Get("search"), limit, offset)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	out := make([]studentResponse, 0, len(students))
	for _, student := range students {
		out = append(out, mapStudent(student))
	}
	writeJSON(w, http.StatusOK, out)
}
