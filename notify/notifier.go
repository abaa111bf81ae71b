// Package notify delivers lending emails. Delivery failure is always reported
// as a plain error for the caller to log; nothing here may abort a state
// transition that already committed.
package notify

import (
	"context"
	"fmt"
	"strings"

	"device-lending-api/models"
)

type Event string

const (
	EventSubmitted   Event = "request_submitted"
	EventReady       Event = "request_ready"
	EventCompleted   Event = "request_completed"
	EventReturned    Event = "request_returned"
	EventBorrowed    Event = "device_borrowed"
	EventReturnedOne Event = "device_returned"
)

type Message struct {
	Event   Event
	To      string
	Subject string
	HTML    string
}

type Notifier interface {
	Send(ctx context.Context, msg Message) error
}

// BuildListMessage renders the email for one list-level event, addressed to
// the student who owns the list.
func BuildListMessage(event Event, user *models.User, list *models.BorrowList, devices []models.Device) Message {
	var subject, intro string
	switch event {
	case EventSubmitted:
		subject = "Yêu cầu mượn thiết bị mới"
		intro = "đã gửi yêu cầu mượn các thiết bị sau"
	case EventReady:
		subject = "Thiết bị của bạn đã sẵn sàng"
		intro = "có thể đến nhận các thiết bị sau"
	case EventCompleted:
		subject = "Xác nhận mượn thiết bị"
		intro = "đã mượn các thiết bị sau"
	case EventReturned:
		subject = "Xác nhận trả thiết bị"
		intro = "đã trả các thiết bị sau"
	}

	var items strings.Builder
	for _, d := range devices {
		fmt.Fprintf(&items, "<li>%s (%s)</li>", d.Name, d.Serial)
	}

	var deadline string
	if event == EventCompleted && list != nil && list.ReturnDeadline != nil {
		deadline = fmt.Sprintf("<p>Hạn trả: <strong>%s</strong></p>",
			list.ReturnDeadline.Format("02-01-2006"))
	}

	html := fmt.Sprintf(`
	<h3>Xin chào %s,</h3>
	<p>Hệ thống ghi nhận bạn %s:</p>
	<ul>%s</ul>
	%s
	<p>Cảm ơn bạn đã sử dụng hệ thống.</p>`,
		displayName(user), intro, items.String(), deadline)

	return Message{Event: event, To: user.Email, Subject: subject, HTML: html}
}

// BuildDeviceMessage renders the email for a single ad-hoc borrow or return.
func BuildDeviceMessage(event Event, user *models.User, device *models.Device) Message {
	action := "mượn"
	if event == EventReturnedOne {
		action = "trả"
	}
	subject := fmt.Sprintf("Thông báo %s thiết bị: %s", action, device.Name)
	html := fmt.Sprintf(`
	<h3>Xin chào %s,</h3>
	<p>Hệ thống ghi nhận bạn đã <strong>%s</strong> thiết bị sau:</p>
	<ul>
		<li><strong>Tên thiết bị:</strong> %s</li>
		<li><strong>Serial:</strong> %s</li>
	</ul>
	<p>Cảm ơn bạn đã sử dụng hệ thống.</p>`,
		displayName(user), action, device.Name, device.Serial)
	return Message{Event: event, To: user.Email, Subject: subject, HTML: html}
}

func displayName(u *models.User) string {
	if u == nil {
		return ""
	}
	if u.FullName != "" {
		return u.FullName
	}
	return u.Username
}
