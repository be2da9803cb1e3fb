package model

import (
	"strings"
	"time"
)

const (
	RoleStudent = "student"
	RoleAdmin   = "admin"
)

const (
	RoomAvailable   = "Available"
	RoomFull        = "Full"
	RoomMaintenance = "Maintenance"
)

const (
	PaymentPaid      = "Paid"
	PaymentPending   = "Pending"
	PaymentCancelled = "Cancelled"
)

const (
	ComplaintPending    = "Pending"
	ComplaintInProgress = "In Progress"
	ComplaintResolved   = "Resolved"
)

type Admin struct {
	ID           int64
	Name         string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

type Student struct {
	ID            int64
	FirstName     string
	LastName      string
	Gender        *string
	Phone         *string
	Email         string
	PasswordHash  string
	RoomID        *int64
	DateOfJoining time.Time
}

type Room struct {
	ID         int64
	RoomNumber string
	Capacity   int
	Occupied   int
	Status     string
	Price      *float64
	Occupants  int
}

type Payment struct {
	ID            int64
	StudentID     int64
	Amount        float64
	Month         string
	Status        string
	PaymentMethod string
	PaymentDate   time.Time
	FirstName     *string
	LastName      *string
	Email         *string
}

type Complaint struct {
	ID          int64
	StudentID   int64
	Title       string
	Description string
	Status      string
	CreatedAt   time.Time
	ResolvedAt  *time.Time
	FirstName   *string
	LastName    *string
	Email       *string
}

type Dashboard struct {
	Students        int64
	Rooms           int64
	PaymentsPaid    int64
	PaymentsPending int64
	ComplaintsOpen  int64
}

// NormalizeRoomStatus maps any casing of a known room status to its
// canonical form.
func NormalizeRoomStatus(status string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "available":
		return RoomAvailable, true
	case "full":
		return RoomFull, true
	case "maintenance":
		return RoomMaintenance, true
	default:
		return "", false
	}
}

func NormalizePaymentStatus(status string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "paid":
		return PaymentPaid, true
	case "pending":
		return PaymentPending, true
	case "cancelled", "canceled":
		return PaymentCancelled, true
	default:
		return "", false
	}
}

func NormalizeComplaintStatus(status string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "pending", "open":
		return ComplaintPending, true
	case "in progress", "in_progress":
		return ComplaintInProgress, true
	case "resolved":
		return ComplaintResolved, true
	default:
		return "", false
	}
}
