package http

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"hostel/api/internal/export"
	"hostel/api/internal/model"
	"hostel/api/internal/repository"
)

const (
	maxPayments     = 2000
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

type paymentResponse struct {
	ID            int64     `json:"payment_id"`
	StudentID     int64     `json:"student_id"`
	Amount        float64   `json:"amount"`
	Month         string    `json:"month"`
	Status        string    `json:"status"`
	PaymentMethod string    `json:"payment_method"`
	PaymentDate   time.Time `json:"payment_date"`
	FirstName     *string   `json:"first_name,omitempty"`
	LastName      *string   `json:"last_name,omitempty"`
	Email         *string   `json:"email,omitempty"`
}

type createPaymentRequest struct {
	StudentID     int64   `json:"student_id"`
	Amount        float64 `json:"amount"`
	Month         string  `json:"month"`
	Status        *string `json:"status"`
	PaymentMethod *string `json:"payment_method"`
}

type payRequest struct {
	Month         *string  `json:"month"`
	Amount        *float64 `json:"amount"`
	PaymentMethod *string  `json:"payment_method"`
}

type paymentStatusRequest struct {
	Status string `json:"status"`
}

func mapPayment(p model.Payment) paymentResponse {
	return paymentResponse{
		ID:            p.ID,
		StudentID:     p.StudentID,
		Amount:        p.Amount,
		Month:         p.Month,
		Status:        p.Status,
		PaymentMethod: p.PaymentMethod,
		PaymentDate:   p.PaymentDate,
		FirstName:     p.FirstName,
		LastName:      p.LastName,
		Email:         p.Email,
	}
}

func mapPayments(payments []model.Payment) []paymentResponse {
	out := make([]paymentResponse, 0, len(payments))
	for _, p := range payments {
		out = append(out, mapPayment(p))
	}
	return out
}

func (s *Server) handleCreatePayment(w http.ResponseWriter, r *http.Request) {
	var req createPaymentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	if req.StudentID <= 0 || strings.TrimSpace(req.Month) == "" {
		writeError(w, http.StatusBadRequest, "missing_fields")
		return
	}
	if req.Amount <= 0 {
		writeError(w, http.StatusBadRequest, "invalid_amount")
		return
	}
	month, ok := normalizeMonth(req.Month)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_month")
		return
	}
	status := model.PaymentPaid
	if req.Status != nil {
		if status, ok = model.NormalizePaymentStatus(*req.Status); !ok {
			writeError(w, http.StatusBadRequest, "invalid_status")
			return
		}
	}
	method := "Cash"
	if m := trimmed(req.PaymentMethod); m != nil {
		method = *m
	}

	s.recordPayment(w, r, model.Payment{StudentID: req.StudentID, Amount: req.Amount, Month: month, Status: status, PaymentMethod: method})
}

// handlePay records a student's own rent payment for a month. Without an
// amount the room price applies, falling back to the default rent.
func (s *Server) handlePay(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
	var req payRequest
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	month := time.Now().Format("2006-01")
	if m := trimmed(req.Month); m != nil {
		var ok bool
		if month, ok = normalizeMonth(*m); !ok {
			writeError(w, http.StatusBadRequest, "invalid_month")
			return
		}
	}
	method := "Online"
	if m := trimmed(req.PaymentMethod); m != nil {
		method = *m
	}

	paid, err := s.store.PaidPaymentExists(r.Context(), claims.UserID, month)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	if paid {
		writeError(w, http.StatusConflict, "already_paid")
		return
	}

	amount := s.cfg.DefaultRent
	if req.Amount != nil {
		if *req.Amount <= 0 {
			writeError(w, http.StatusBadRequest, "invalid_amount")
			return
		}
		amount = *req.Amount
	} else {
		price, err := s.store.StudentRent(r.Context(), claims.UserID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				writeError(w, http.StatusNotFound, "student_not_found")
				return
			}
			writeError(w, http.StatusInternalServerError, "server_error")
			return
		}
		if price != nil && *price > 0 {
			amount = *price
		}
	}

	s.recordPayment(w, r, model.Payment{StudentID: claims.UserID, Amount: amount, Month: month, Status: model.PaymentPaid, PaymentMethod: method})
}

func (s *Server) recordPayment(w http.ResponseWriter, r *http.Request, payment model.Payment) {
	id, err := s.store.CreatePayment(r.Context(), payment)
	if err != nil {
		if repository.IsForeignKeyViolation(err) {
			writeError(w, http.StatusNotFound, "student_not_found")
			return
		}
		if repository.IsUniqueViolation(err) {
			writeError(w, http.StatusConflict, "already_paid")
			return
		}
		s.logger.Error("record payment failed", zap.Int64("student_id", payment.StudentID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"success":    true,
		"message":    "Payment recorded",
		"payment_id": id,
		"amount":     payment.Amount,
		"month":      payment.Month,
	})
}

func (s *Server) handleListPayments(w http.ResponseWriter, r *http.Request) {
	payments, err := s.store.ListPayments(r.Context(), queryInt(r, "limit", maxPayments, maxPayments))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	writeJSON(w, http.StatusOK, mapPayments(payments))
}

func (s *Server) handleStudentPayments(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
	studentID, ok := pathID(r, "student_id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_student_id")
		return
	}
	if claims.Role != model.RoleAdmin && claims.UserID != studentID {
		writeError(w, http.StatusForbidden, "forbidden")
		return
	}
	payments, err := s.store.ListStudentPayments(r.Context(), studentID, maxPayments)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	writeJSON(w, http.StatusOK, mapPayments(payments))
}

func (s *Server) handleUpdatePayment(w http.ResponseWriter, r *http.Request) {
	paymentID, ok := pathID(r, "payment_id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_payment_id")
		return
	}
	var req paymentStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	status, ok := model.NormalizePaymentStatus(req.Status)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_status")
		return
	}
	if err := s.store.UpdatePaymentStatus(r.Context(), paymentID, status); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "payment_not_found")
			return
		}
		if repository.IsUniqueViolation(err) {
			writeError(w, http.StatusConflict, "already_paid")
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "message": "Payment updated", "status": status})
}

func (s *Server) handleDeletePayment(w http.ResponseWriter, r *http.Request) {
	paymentID, ok := pathID(r, "payment_id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_payment_id")
		return
	}
	if err := s.store.DeletePayment(r.Context(), paymentID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "payment_not_found")
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "message": "Payment deleted"})
}

func (s *Server) handleExportPayments(w http.ResponseWriter, r *http.Request) {
	payments, err := s.store.ListPayments(r.Context(), maxPayments)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	var buf bytes.Buffer
	if err := export.WritePayments(&buf, payments); err != nil {
		s.logger.Error("payments export failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	filename := fmt.Sprintf("payments-%s.xlsx", time.Now().UTC().Format("20060102"))
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func normalizeMonth(month string) (string, bool) {
	parsed, err := time.Parse("2006-01", strings.TrimSpace(month))
	if err != nil {
		return "", false
	}
	return parsed.Format("2006-01"), true
}
