package http

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"hostel/api/internal/auth"
	"hostel/api/internal/crypto"
	"hostel/api/internal/model"
	"hostel/api/internal/repository"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type studentRegisterRequest struct {
	FirstName string  `json:"first_name"`
	LastName  string  `json:"last_name"`
	Gender    *string `json:"gender"`
	Phone     *string `json:"phone"`
	Email     string  `json:"email"`
	Password  string  `json:"password"`
}

type studentUpdateRequest struct {
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Gender    *string `json:"gender"`
	Phone     *string `json:"phone"`
	Password  *string `json:"password"`
}

type adminRegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string      `json:"token"`
	Role  string      `json:"role"`
	User  interface{} `json:"user"`
}

type studentResponse struct {
	ID            int64   `json:"student_id"`
	FirstName     string  `json:"first_name"`
	LastName      string  `json:"last_name"`
	Gender        *string `json:"gender"`
	Phone         *string `json:"phone"`
	Email         string  `json:"email"`
	RoomID        *int64  `json:"room_id"`
	DateOfJoining string  `json:"date_of_joining"`
}

type adminResponse struct {
	ID        int64     `json:"admin_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

func mapStudent(student model.Student) studentResponse {
	return studentResponse{
		ID:            student.ID,
		FirstName:     student.FirstName,
		LastName:      student.LastName,
		Gender:        student.Gender,
		Phone:         student.Phone,
		Email:         student.Email,
		RoomID:        student.RoomID,
		DateOfJoining: student.DateOfJoining.Format("2006-01-02"),
	}
}

func mapAdmin(admin model.Admin) adminResponse {
	return adminResponse{ID: admin.ID, Name: admin.Name, Email: admin.Email, CreatedAt: admin.CreatedAt}
}

func (s *Server) handleStudentRegister(w http.ResponseWriter, r *http.Request) {
	var req studentRegisterRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	req.Email = normalizeEmail(req.Email)
	req.FirstName = strings.TrimSpace(req.FirstName)
	req.LastName = strings.TrimSpace(req.LastName)
	if req.FirstName == "" || req.LastName == "" || req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "missing_fields")
		return
	}

	hash, err := crypto.HashPassword(req.Password)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	id, err := s.store.CreateStudent(r.Context(), model.Student{
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Gender:       trimmed(req.Gender),
		Phone:        trimmed(req.Phone),
		Email:        req.Email,
		PasswordHash: hash,
	})
	if err != nil {
		if repository.IsUniqueViolation(err) {
			writeError(w, http.StatusConflict, "email_taken")
			return
		}
		s.logger.Error("create student failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"success":    true,
		"message":    "Student registered successfully",
		"student_id": id,
	})
}

func (s *Server) handleStudentLogin(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeLogin(w, r, model.RoleStudent)
	if !ok {
		return
	}
	student, err := s.store.GetStudentByEmail(r.Context(), req.Email)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	if err != nil || crypto.CheckPassword(student.PasswordHash, req.Password) != nil {
		s.loginFailed(r.Context(), w, model.RoleStudent, req.Email)
		return
	}
	s.loginSucceeded(w, r, auth.Claims{UserID: student.ID, Role: model.RoleStudent, Email: student.Email}, mapStudent(student))
}

// handleAdminRegister is closed unless ALLOW_ADMIN_SIGNUP is set; the
// first admin comes from cmd/initdb.
func (s *Server) handleAdminRegister(w http.ResponseWriter, r *http.Request) {
	if !s.cfg.AllowAdminSignup {
		writeError(w, http.StatusForbidden, "admin_signup_disabled")
		return
	}
	var req adminRegisterRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	req.Email = normalizeEmail(req.Email)
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" || req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "missing_fields")
		return
	}

	hash, err := crypto.HashPassword(req.Password)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	id, err := s.store.CreateAdmin(r.Context(), req.Name, req.Email, hash)
	if err != nil {
		if repository.IsUniqueViolation(err) {
			writeError(w, http.StatusConflict, "email_taken")
			return
		}
		s.logger.Error("create admin failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"success":  true,
		"message":  "Admin registered successfully",
		"admin_id": id,
	})
}

func (s *Server) handleAdminLogin(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeLogin(w, r, model.RoleAdmin)
	if !ok {
		return
	}
	admin, err := s.store.GetAdminByEmail(r.Context(), req.Email)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	if err != nil || crypto.CheckPassword(admin.PasswordHash, req.Password) != nil {
		s.loginFailed(r.Context(), w, model.RoleAdmin, req.Email)
		return
	}
	s.loginSucceeded(w, r, auth.Claims{UserID: admin.ID, Role: model.RoleAdmin, Email: admin.Email}, mapAdmin(admin))
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "missing_token")
		return
	}
	expiresAt := time.Now().Add(s.cfg.AccessTokenTTL)
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}
	if err := s.sessions.Revoke(r.Context(), claims.ID, expiresAt); err != nil {
		s.logger.Warn("token revocation failed", zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, "logout_unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleGetStudentMe(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
	student, err := s.store.GetStudentByID(r.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "student_not_found")
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	writeJSON(w, http.StatusOK, mapStudent(student))
}

func (s *Server) handleUpdateStudentMe(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
	var req studentUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	update := repository.StudentUpdate{
		FirstName: trimmed(req.FirstName),
		LastName:  trimmed(req.LastName),
		Gender:    trimmed(req.Gender),
		Phone:     trimmed(req.Phone),
	}
	if req.Password != nil && *req.Password != "" {
		hash, err := crypto.HashPassword(*req.Password)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "server_error")
			return
		}
		update.PasswordHash = &hash
	}

	student, err := s.store.UpdateStudentProfile(r.Context(), claims.UserID, update)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "student_not_found")
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	writeJSON(w, http.StatusOK, mapStudent(student))
}

func (s *Server) handleGetAdminMe(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
	admin, err := s.store.GetAdminByID(r.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "admin_not_found")
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	writeJSON(w, http.StatusOK, mapAdmin(admin))
}

func (s *Server) decodeLogin(w http.ResponseWriter, r *http.Request, role string) (loginRequest, bool) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return req, false
	}
	req.Email = normalizeEmail(req.Email)
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "missing_credentials")
		return req, false
	}
	locked, err := s.sessions.LoginLocked(r.Context(), role, req.Email)
	if err != nil {
		s.logger.Warn("login throttle check failed", zap.Error(err))
	}
	if locked {
		writeError(w, http.StatusTooManyRequests, "too_many_attempts")
		return req, false
	}
	return req, true
}

func (s *Server) loginFailed(ctx context.Context, w http.ResponseWriter, role, email string) {
	if err := s.sessions.RecordLoginFailure(ctx, role, email); err != nil {
		s.logger.Warn("record login failure", zap.Error(err))
	}
	writeError(w, http.StatusUnauthorized, "invalid_credentials")
}

func (s *Server) loginSucceeded(w http.ResponseWriter, r *http.Request, claims auth.Claims, user interface{}) {
	token, err := auth.NewAccessToken(s.cfg.JWTSecret, s.cfg.JWTIssuer, s.cfg.AccessTokenTTL, claims)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "token_error")
		return
	}
	if err := s.sessions.ClearLoginFailures(r.Context(), claims.Role, claims.Email); err != nil {
		s.logger.Warn("clear login failures", zap.Error(err))
	}
	writeJSON(w, http.StatusOK, loginResponse{Token: token, Role: claims.Role, User: user})
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
