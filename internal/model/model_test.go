package model

import "testing"

func TestNormalizeRoomStatus(t *testing.T) {
	cases := map[string]string{
		"available":   RoomAvailable,
		"Available":   RoomAvailable,
		"FULL":        RoomFull,
		" full ":      RoomFull,
		"maintenance": RoomMaintenance,
		"Maintenance": RoomMaintenance,
	}
	for input, expect := range cases {
		got, ok := NormalizeRoomStatus(input)
		if !ok || got != expect {
			t.Fatalf("expected %q for %q, got %q (ok=%v)", expect, input, got, ok)
		}
	}
	if _, ok := NormalizeRoomStatus("closed"); ok {
		t.Fatalf("expected unknown status to be rejected")
	}
}

func TestNormalizePaymentStatus(t *testing.T) {
	for _, input := range []string{"Paid", "Pending", "Cancelled", "canceled"} {
		if _, ok := NormalizePaymentStatus(input); !ok {
			t.Fatalf("expected %s to be valid", input)
		}
	}
	if _, ok := NormalizePaymentStatus("refunded"); ok {
		t.Fatalf("expected refunded to be rejected")
	}
}

func TestNormalizeComplaintStatus(t *testing.T) {
	cases := map[string]string{
		"open":        ComplaintPending,
		"pending":     ComplaintPending,
		"in_progress": ComplaintInProgress,
		"In Progress": ComplaintInProgress,
		"Resolved":    ComplaintResolved,
	}
	for input, expect := range cases {
		got, ok := NormalizeComplaintStatus(input)
		if !ok || got != expect {
			t.Fatalf("expected %q for %q, got %q", expect, input, got)
		}
	}
	if _, ok := NormalizeComplaintStatus(""); ok {
		t.Fatalf("expected empty status to be rejected")
	}
}
