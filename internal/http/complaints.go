package http

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"hostel/api/internal/model"
	"hostel/api/internal/repository"
)

const maxComplaints = 500

type complaintResponse struct {
	ID          int64      `json:"complaint_id"`
	StudentID   int64      `json:"student_id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	ResolvedAt  *time.Time `json:"resolved_at"`
	FirstName   *string    `json:"first_name,omitempty"`
	LastName    *string    `json:"last_name,omitempty"`
	Email       *string    `json:"email,omitempty"`
}

type createComplaintRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type complaintStatusRequest struct {
	Status string `json:"status"`
}

func mapComplaint(c model.Complaint) complaintResponse {
	return complaintResponse{
		ID:          c.ID,
		StudentID:   c.StudentID,
		Title:       c.Title,
		Description: c.Description,
		Status:      c.Status,
		CreatedAt:   c.CreatedAt,
		ResolvedAt:  c.ResolvedAt,
		FirstName:   c.FirstName,
		LastName:    c.LastName,
		Email:       c.Email,
	}
}

func (s *Server) handleCreateComplaint(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
	var req createComplaintRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		writeError(w, http.StatusBadRequest, "missing_fields")
		return
	}
	complaint, err := s.store.CreateComplaint(r.Context(), claims.UserID, req.Title, strings.TrimSpace(req.Description))
	if err != nil {
		if repository.IsForeignKeyViolation(err) {
			writeError(w, http.StatusNotFound, "student_not_found")
			return
		}
		s.logger.Error("create complaint failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	writeJSON(w, http.StatusCreated, mapComplaint(complaint))
}

// handleListComplaints returns every complaint to admins and only the
// caller's own to students.
func (s *Server) handleListComplaints(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
	var studentID int64
	if claims.Role != model.RoleAdmin {
		studentID = claims.UserID
	}
	complaints, err := s.store.ListComplaints(r.Context(), studentID, queryInt(r, "limit", maxComplaints, maxComplaints))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	out := make([]complaintResponse, 0, len(complaints))
	for _, c := range complaints {
		out = append(out, mapComplaint(c))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleUpdateComplaint(w http.ResponseWriter, r *http.Request) {
	var req complaintStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	status, ok := model.NormalizeComplaintStatus(req.Status)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_status")
		return
	}
	s.setComplaintStatus(w, r, status)
}

func (s *Server) handleResolveComplaint(w http.ResponseWriter, r *http.Request) {
	s.setComplaintStatus(w, r, model.ComplaintResolved)
}

func (s *Server) setComplaintStatus(w http.ResponseWriter, r *http.Request, status string) {
	complaintID, ok := pathID(r, "complaint_id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_complaint_id")
		return
	}
	if err := s.store.UpdateComplaintStatus(r.Context(), complaintID, status); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "complaint_not_found")
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "message": "Complaint updated", "status": status})
}
