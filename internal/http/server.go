package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"hostel/api/internal/auth"
	"hostel/api/internal/config"
	"hostel/api/internal/db"
	"hostel/api/internal/metrics"
	"hostel/api/internal/model"
	"hostel/api/internal/repository"
	"hostel/api/internal/session"
)

type Server struct {
	cfg      config.Config
	store    *repository.Store
	tx       *db.Store
	sessions *session.Store
	metrics  *metrics.Metrics
	logger   *zap.Logger
}

func NewServer(cfg config.Config, store *repository.Store, tx *db.Store, sessions *session.Store, m *metrics.Metrics, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{cfg: cfg, store: store, tx: tx, sessions: sessions, metrics: m, logger: logger}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(middleware.RealIP)
	r.Use(s.accessLog)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/ping", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"message": "pong"})
		})

		for _, prefix := range []string{"/students", "/student"} {
			r.Post(prefix+"/register", s.handleStudentRegister)
			r.Post(prefix+"/login", s.handleStudentLogin)
		}
		r.With(s.authMiddleware, s.requireStudent).Get("/students/me", s.handleGetStudentMe)
		r.With(s.authMiddleware, s.requireStudent).Put("/students/me", s.handleUpdateStudentMe)
		r.With(s.authMiddleware, s.requireStudent).Get("/students/me/room", s.handleGetStudentRoom)

		r.Route("/admin", func(r chi.Router) {
			r.Post("/register", s.handleAdminRegister)
			r.Post("/login", s.handleAdminLogin)
			r.Group(func(r chi.Router) {
				r.Use(s.authMiddleware, s.requireAdmin)
				r.Get("/me", s.handleGetAdminMe)
				r.Get("/dashboard", s.handleDashboard)
				r.Get("/students", s.handleListStudents)
				r.Get("/rooms", s.handleListRooms)
				r.Put("/rooms/{room_id}", s.handleSetRoomStatus)
				r.Get("/payments", s.handleListPayments)
				r.Get("/payments/export", s.handleExportPayments)
				r.Get("/complaints", s.handleListComplaints)
				r.Put("/complaints/{complaint_id}", s.handleUpdateComplaint)
			})
		})

		r.With(s.authMiddleware).Post("/auth/logout", s.handleLogout)

		r.Route("/rooms", func(r chi.Router) {
			r.Use(s.authMiddleware)
			r.Get("/", s.handleListRooms)
			r.With(s.requireAdmin).Post("/", s.handleCreateRoom)
			r.With(s.requireAdmin).Put("/{room_id}", s.handleUpdateRoom)
			r.With(s.requireAdmin).Delete("/{room_id}", s.handleDeleteRoom)
			r.Post("/{room_id}/book", s.handleBookRoom)
			r.Post("/{room_id}/release", s.handleReleaseRoom)
		})

		r.Route("/payments", func(r chi.Router) {
			r.Use(s.authMiddleware)
			r.With(s.requireAdmin).Get("/", s.handleListPayments)
			r.With(s.requireAdmin).Post("/", s.handleCreatePayment)
			r.With(s.requireStudent).Post("/pay", s.handlePay)
			r.Get("/student/{student_id}", s.handleStudentPayments)
			r.With(s.requireAdmin).Put("/{payment_id}", s.handleUpdatePayment)
			r.With(s.requireAdmin).Delete("/{payment_id}", s.handleDeletePayment)
		})

		r.Route("/complaints", func(r chi.Router) {
			r.Use(s.authMiddleware)
			r.Get("/", s.handleListComplaints)
			r.With(s.requireStudent).Post("/", s.handleCreateComplaint)
			r.With(s.requireAdmin).Put("/{complaint_id}/resolve", s.handleResolveComplaint)
		})
	})

	return cors.New(cors.Options{
		AllowedOrigins: s.cfg.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID", "Content-Disposition"},
	}).Handler(r)
}

// Middleware

type claimsKey struct{}

func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get("X-Request-ID"))
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		ctx := context.WithValue(r.Context(), middleware.RequestIDKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		elapsed := time.Since(start)
		s.metrics.ObserveRequest(r.Method, route, status, elapsed)
		s.logger.Info("http request",
			zap.String("method", r.Method),
			zap.String("route", route),
			zap.Int("status", status),
			zap.Duration("duration", elapsed),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r.Header.Get("Authorization"))
		if token == "" {
			writeError(w, http.StatusUnauthorized, "missing_token")
			return
		}
		claims, err := auth.ParseToken(s.cfg.JWTSecret, s.cfg.JWTIssuer, token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid_token")
			return
		}
		revoked, err := s.sessions.IsRevoked(r.Context(), claims.ID)
		if err != nil {
			s.logger.Warn("revocation check failed", zap.Error(err))
		}
		if revoked {
			writeError(w, http.StatusUnauthorized, "token_revoked")
			return
		}
		ctx := context.WithValue(r.Context(), claimsKey{}, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims := claimsFromContext(r.Context())
		if claims == nil || claims.Role != model.RoleAdmin {
			writeError(w, http.StatusForbidden, "admin_only")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) requireStudent(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims := claimsFromContext(r.Context())
		if claims == nil || claims.Role != model.RoleStudent {
			writeError(w, http.StatusForbidden, "student_only")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func claimsFromContext(ctx context.Context) *auth.Claims {
	value := ctx.Value(claimsKey{})
	claims, _ := value.(*auth.Claims)
	return claims
}

// Utilities

var errorMessages = map[string]string{
	"missing_token":            "Authorization token is required",
	"invalid_token":            "Invalid or expired token",
	"token_revoked":            "Token has been revoked",
	"admin_only":               "Admin access required",
	"student_only":             "Student access required",
	"forbidden":                "Access denied",
	"invalid_request":          "Invalid request body",
	"missing_fields":           "Required fields are missing",
	"invalid_credentials":      "Invalid email or password",
	"too_many_attempts":        "Too many failed login attempts, try again later",
	"email_taken":              "Email is already registered",
	"admin_signup_disabled":    "Admin registration is disabled",
	"room_not_found":           "Room not found",
	"student_not_found":        "Student not found",
	"room_full":                "Room is full",
	"student_already_housed":   "Student already has a room",
	"student_not_in_room":      "Student is not assigned to this room",
	"missing_student_id":       "student_id is required",
	"booking_unavailable":      "Booking is temporarily unavailable, retry",
	"room_number_taken":        "Room number already exists",
	"capacity_below_occupancy": "Capacity cannot be lower than current occupancy",
	"room_occupied":            "Cannot delete a room with occupants",
	"invalid_status":           "Invalid status",
	"no_room_assigned":         "No room assigned",
	"payment_not_found":        "Payment not found",
	"already_paid":             "Payment for this month is already recorded",
	"invalid_month":            "Month must be formatted as YYYY-MM",
	"invalid_amount":           "Amount must be positive",
	"complaint_not_found":      "Complaint not found",
	"server_error":             "Internal server error",
}

func bearerToken(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func decodeJSON(r *http.Request, out interface{}) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(out)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code string) {
	message, ok := errorMessages[code]
	if !ok {
		message = strings.ReplaceAll(code, "_", " ")
	}
	writeJSON(w, status, map[string]string{"error": code, "message": message})
}

// pathID parses a numeric path parameter. Non-positive ids parse; they
// simply never match a row.
func pathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

func queryInt(r *http.Request, key string, fallback, max int) int {
	value, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil || value < 0 {
		return fallback
	}
	if max > 0 && value > max {
		return max
	}
	return value
}

func trimmed(value *string) *string {
	if value == nil {
		return nil
	}
	out := strings.TrimSpace(*value)
	if out == "" {
		return nil
	}
	return &out
}
