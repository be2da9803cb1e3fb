package http

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"hostel/api/internal/model"
	"hostel/api/internal/operations"
	"hostel/api/internal/repository"
)

type roomResponse struct {
	ID         int64    `json:"room_id"`
	RoomNumber string   `json:"room_number"`
	Capacity   int      `json:"capacity"`
	Occupied   int      `json:"occupied"`
	Status     string   `json:"status"`
	Price      *float64 `json:"price"`
	Occupants  int      `json:"occupants"`
}

type createRoomRequest struct {
	RoomNumber string   `json:"room_number"`
	Capacity   *int     `json:"capacity"`
	Status     *string  `json:"status"`
	Price      *float64 `json:"price"`
}

type updateRoomRequest struct {
	RoomNumber *string  `json:"room_number"`
	Capacity   *int     `json:"capacity"`
	Status     *string  `json:"status"`
	Price      *float64 `json:"price"`
}

type roomStatusRequest struct {
	Status string `json:"status"`
}

type occupancyRequest struct {
	StudentID *int64 `json:"student_id"`
}

type occupancyResponse struct {
	Success  bool   `json:"success"`
	Message  string `json:"message"`
	RoomID   int64  `json:"room_id"`
	Occupied int    `json:"occupied"`
	Status   string `json:"status"`
}

func mapRoom(room model.Room) roomResponse {
	return roomResponse{
		ID:         room.ID,
		RoomNumber: room.RoomNumber,
		Capacity:   room.Capacity,
		Occupied:   room.Occupied,
		Status:     room.Status,
		Price:      room.Price,
		Occupants:  room.Occupants,
	}
}

func (s *Server) handleListRooms(w http.ResponseWriter, r *http.Request) {
	rooms, err := s.store.ListRooms(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	out := make([]roomResponse, 0, len(rooms))
	for _, room := range rooms {
		out = append(out, mapRoom(room))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateRoom(w http.ResponseWriter, r *http.Request) {
	var req createRoomRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	req.RoomNumber = strings.TrimSpace(req.RoomNumber)
	if req.RoomNumber == "" {
		writeError(w, http.StatusBadRequest, "missing_fields")
		return
	}
	capacity := 2
	if req.Capacity != nil {
		capacity = *req.Capacity
	}
	if capacity < 1 {
		writeError(w, http.StatusBadRequest, "invalid_capacity")
		return
	}
	status := model.RoomAvailable
	if req.Status != nil {
		normalized, ok := model.NormalizeRoomStatus(*req.Status)
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid_status")
			return
		}
		status = normalized
	}
	if req.Price != nil && *req.Price < 0 {
		writeError(w, http.StatusBadRequest, "invalid_price")
		return
	}

	id, err := s.store.CreateRoom(r.Context(), req.RoomNumber, capacity, status, req.Price)
	if err != nil {
		if repository.IsUniqueViolation(err) {
			writeError(w, http.StatusConflict, "room_number_taken")
			return
		}
		s.logger.Error("create room failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"message": "Room created",
		"room_id": id,
	})
}

func (s *Server) handleUpdateRoom(w http.ResponseWriter, r *http.Request) {
	roomID, ok := pathID(r, "room_id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_room_id")
		return
	}
	var req updateRoomRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	update := repository.RoomUpdate{RoomNumber: trimmed(req.RoomNumber), Capacity: req.Capacity, Price: req.Price}
	if update.Capacity != nil && *update.Capacity < 1 {
		writeError(w, http.StatusBadRequest, "invalid_capacity")
		return
	}
	if update.Price != nil && *update.Price < 0 {
		writeError(w, http.StatusBadRequest, "invalid_price")
		return
	}
	if req.Status != nil {
		status, ok := model.NormalizeRoomStatus(*req.Status)
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid_status")
			return
		}
		update.Status = &status
	}
	if update.Empty() {
		writeError(w, http.StatusBadRequest, "missing_fields")
		return
	}

	if err := s.store.UpdateRoom(r.Context(), roomID, update); err != nil {
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			writeError(w, http.StatusNotFound, "room_not_found")
		case errors.Is(err, repository.ErrCapacityBelowOccupancy):
			writeError(w, http.StatusConflict, "capacity_below_occupancy")
		case repository.IsUniqueViolation(err):
			writeError(w, http.StatusConflict, "room_number_taken")
		default:
			s.logger.Error("update room failed", zap.Int64("room_id", roomID), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "server_error")
		}
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "message": "Room updated", "room_id": roomID})
}

func (s *Server) handleSetRoomStatus(w http.ResponseWriter, r *http.Request) {
	roomID, ok := pathID(r, "room_id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_room_id")
		return
	}
	var req roomStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	status, ok := model.NormalizeRoomStatus(req.Status)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_status")
		return
	}
	if err := s.store.SetRoomStatus(r.Context(), roomID, status); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "room_not_found")
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "message": "Room status updated", "room_id": roomID, "status": status})
}

func (s *Server) handleDeleteRoom(w http.ResponseWriter, r *http.Request) {
	roomID, ok := pathID(r, "room_id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_room_id")
		return
	}
	if err := s.store.DeleteRoom(r.Context(), roomID); err != nil {
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			writeError(w, http.StatusNotFound, "room_not_found")
		case errors.Is(err, repository.ErrRoomOccupied):
			writeError(w, http.StatusConflict, "room_occupied")
		default:
			writeError(w, http.StatusInternalServerError, "server_error")
		}
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "message": "Room deleted"})
}

func (s *Server) handleGetStudentRoom(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
	room, err := s.store.GetStudentRoom(r.Context(), claims.UserID)
	if err != nil {
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			writeError(w, http.StatusNotFound, "student_not_found")
		case errors.Is(err, repository.ErrNoRoomAssigned):
			writeError(w, http.StatusNotFound, "no_room_assigned")
		default:
			writeError(w, http.StatusInternalServerError, "server_error")
		}
		return
	}
	writeJSON(w, http.StatusOK, mapRoom(room))
}

type roomOperation func(ctx context.Context, roomID, studentID int64) (operations.Occupancy, error)

func (s *Server) handleBookRoom(w http.ResponseWriter, r *http.Request) {
	s.runRoomOperation(w, r, "book", "Room booked", func(ctx context.Context, roomID, studentID int64) (operations.Occupancy, error) {
		return operations.BookRoom(ctx, s.tx, roomID, studentID)
	})
}

func (s *Server) handleReleaseRoom(w http.ResponseWriter, r *http.Request) {
	s.runRoomOperation(w, r, "release", "Room released", func(ctx context.Context, roomID, studentID int64) (operations.Occupancy, error) {
		return operations.ReleaseRoom(ctx, s.tx, roomID, studentID)
	})
}

// runRoomOperation resolves the acting student (the caller for students,
// body student_id for admins) and runs op under the booking deadline.
func (s *Server) runRoomOperation(w http.ResponseWriter, r *http.Request, name, message string, op roomOperation) {
	claims := claimsFromContext(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "missing_token")
		return
	}
	roomID, ok := pathID(r, "room_id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_room_id")
		return
	}

	var req occupancyRequest
	if r.Body != nil {
		if err := decodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
			writeError(w, http.StatusBadRequest, "invalid_request")
			return
		}
	}
	var studentID int64
	switch claims.Role {
	case model.RoleStudent:
		studentID = claims.UserID
	case model.RoleAdmin:
		if req.StudentID == nil {
			writeError(w, http.StatusBadRequest, "missing_student_id")
			return
		}
		studentID = *req.StudentID
	default:
		writeError(w, http.StatusForbidden, "forbidden")
		return
	}

	ctx := r.Context()
	if s.cfg.BookingTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.BookingTimeout)
		defer cancel()
	}
	result, err := op(ctx, roomID, studentID)
	if err != nil {
		kind := operations.KindOf(err)
		s.metrics.ObserveRoomOperation(name, kind.String())
		status, code := operationStatus(err)
		fields := []zap.Field{zap.String("operation", name), zap.Int64("room_id", roomID), zap.Int64("student_id", studentID), zap.Error(err)}
		switch kind {
		case operations.KindTransient:
			s.logger.Warn("room operation unavailable", fields...)
		case operations.KindInternal:
			s.logger.Error("room operation failed", fields...)
		}
		writeError(w, status, code)
		return
	}

	s.metrics.ObserveRoomOperation(name, "success")
	writeJSON(w, http.StatusOK, occupancyResponse{
		Success:  true,
		Message:  message,
		RoomID:   result.RoomID,
		Occupied: result.Occupied,
		Status:   result.Status,
	})
}

func operationStatus(err error) (int, string) {
	var opErr *operations.Error
	if !errors.As(err, &opErr) {
		return http.StatusInternalServerError, operations.ErrServerError
	}
	switch opErr.Kind {
	case operations.KindNotFound:
		return http.StatusNotFound, opErr.Code
	case operations.KindConflict:
		return http.StatusConflict, opErr.Code
	case operations.KindInvalidState:
		return http.StatusBadRequest, opErr.Code
	case operations.KindTransient:
		return http.StatusServiceUnavailable, opErr.Code
	default:
		return http.StatusInternalServerError, operations.ErrServerError
	}
}
