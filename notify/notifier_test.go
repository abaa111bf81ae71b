package notify

import (
	"strings"
	"testing"
	"time"

	"device-lending-api/models"
)

func TestBuildListMessageCompleted(t *testing.T) {
	deadline := time.Date(2025, 6, 9, 0, 0, 0, 0, time.UTC)
	user := &models.User{Username: "an.nguyen", FullName: "Nguyễn Văn An", Email: "an@example.edu.vn"}
	list := &models.BorrowList{Status: models.ListCompleted, ReturnDeadline: &deadline}
	devices := []models.Device{
		{Name: "Laptop Dell", Serial: "SN-001"},
		{Name: "Máy chiếu", Serial: "SN-002"},
	}

	msg := BuildListMessage(EventCompleted, user, list, devices)
	if msg.To != user.Email {
		t.Errorf("To = %q, want %q", msg.To, user.Email)
	}
	if msg.Subject != "Xác nhận mượn thiết bị" {
		t.Errorf("unexpected subject %q", msg.Subject)
	}
	for _, want := range []string{"Nguyễn Văn An", "SN-001", "SN-002", "09-06-2025"} {
		if !strings.Contains(msg.HTML, want) {
			t.Errorf("HTML missing %q", want)
		}
	}
}

func TestBuildListMessageReadyHasNoDeadline(t *testing.T) {
	deadline := time.Now()
	user := &models.User{Username: "binh", Email: "binh@example.edu.vn"}
	list := &models.BorrowList{Status: models.ListReady, ReturnDeadline: &deadline}

	msg := BuildListMessage(EventReady, user, list, nil)
	if strings.Contains(msg.HTML, "Hạn trả") {
		t.Error("ready email must not mention a return deadline")
	}
	// No full name on file, so the username addresses the reader.
	if !strings.Contains(msg.HTML, "binh") {
		t.Error("HTML missing username fallback")
	}
}

func TestBuildDeviceMessage(t *testing.T) {
	user := &models.User{Username: "chi", Email: "chi@example.edu.vn"}
	device := &models.Device{Name: "Bàn phím", Serial: "KB-9"}

	borrow := BuildDeviceMessage(EventBorrowed, user, device)
	if !strings.Contains(borrow.Subject, "mượn") || !strings.Contains(borrow.Subject, "Bàn phím") {
		t.Errorf("unexpected borrow subject %q", borrow.Subject)
	}

	ret := BuildDeviceMessage(EventReturnedOne, user, device)
	if !strings.Contains(ret.Subject, "trả") {
		t.Errorf("unexpected return subject %q", ret.Subject)
	}
	if !strings.Contains(ret.HTML, "KB-9") {
		t.Error("HTML missing serial")
	}
}
