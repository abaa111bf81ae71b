package models

import "time"

const (
	BorrowListTable = "borrow_lists"
	ListItemTable   = "list_items"
)

// BorrowList statuses. Pending is the student's mutable cart; Submitted and
// Ready are the admin queue; Completed and Cancelled are terminal.
const (
	ListPending   = "Pending"
	ListSubmitted = "Submitted"
	ListReady     = "Ready"
	ListCompleted = "Completed"
	ListCancelled = "Cancelled"
)

type BorrowList struct {
	ID     string `gorm:"type:uuid;primaryKey" json:"id"`
	UserID string `gorm:"type:uuid;index;not null" json:"userId"`
	Status string `gorm:"size:20;not null;default:'Pending'" json:"status"`

	// Pickup date the student promised at submission.
	ExpectedDate *time.Time `json:"expectedDate,omitempty"`
	// Set when the admin completes the request (devices handed out).
	BorrowedAt *time.Time `json:"borrowedAt,omitempty"`
	// BorrowedAt + grace period; set together with BorrowedAt.
	ReturnDeadline *time.Time `json:"returnDeadline,omitempty"`
	ReturnedAt     *time.Time `json:"returnedAt,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	User  *User      `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Items []ListItem `gorm:"foreignKey:BorrowListID" json:"items,omitempty"`
}

func (BorrowList) TableName() string { return BorrowListTable }

// IsOverdue is derived, never stored: a completed, not-yet-returned list whose
// deadline has passed.
func (l *BorrowList) IsOverdue(now time.Time) bool {
	return l.Status == ListCompleted &&
		l.ReturnedAt == nil &&
		l.ReturnDeadline != nil &&
		now.After(*l.ReturnDeadline)
}

// CanTransition reports whether the fulfillment machine allows moving a list
// from its current status to target. Pending -> Submitted -> Ready ->
// Completed, with Cancelled reachable from Submitted and Ready.
func (l *BorrowList) CanTransition(target string) bool {
	switch target {
	case ListSubmitted:
		return l.Status == ListPending
	case ListReady:
		return l.Status == ListSubmitted
	case ListCompleted:
		return l.Status == ListReady
	case ListCancelled:
		return l.Status == ListSubmitted || l.Status == ListReady
	}
	return false
}

// ListItem is one device entry inside a list. The auto-increment ID doubles
// as insertion order, which batch operations iterate in.
type ListItem struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	BorrowListID string `gorm:"type:uuid;index;not null;uniqueIndex:idx_list_device" json:"borrowListId"`
	DeviceID     string `gorm:"type:uuid;not null;uniqueIndex:idx_list_device" json:"deviceId"`

	CreatedAt time.Time `json:"createdAt"`

	Device *Device `gorm:"foreignKey:DeviceID" json:"device,omitempty"`
}

func (ListItem) TableName() string { return ListItemTable }
