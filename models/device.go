package models

import (
	"strings"
	"time"
)

const DeviceTable = "devices"

// Device statuses. A device cycles Available <-> Reserved <-> Borrowed through
// the cart/fulfillment flow; Maintenance is entered and left only by a direct
// admin edit.
const (
	DeviceAvailable   = "Available"
	DeviceReserved    = "Reserved"
	DeviceBorrowed    = "Borrowed"
	DeviceMaintenance = "Maintenance"
)

const (
	DefaultCategory = "Other"
	DefaultLocation = "Kho chính"
	DefaultUnit     = "Cái"
)

type Device struct {
	ID          string `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string `gorm:"size:100;not null" json:"name"`
	Serial      string `gorm:"size:50;uniqueIndex;not null" json:"serial"`
	Description string `gorm:"type:text" json:"description,omitempty"`
	Category    string `gorm:"size:50;not null;default:'Other'" json:"category"`
	Unit        string `gorm:"size:20;not null;default:'Cái'" json:"unit"`
	Status      string `gorm:"size:20;not null;default:'Available'" json:"status"`
	Location    string `gorm:"size:100" json:"location"`
	ImageURL    string `gorm:"size:200" json:"imageUrl,omitempty"`

	CreatedByID *string `gorm:"type:uuid" json:"createdById,omitempty"`
	// Set exactly while Status == DeviceBorrowed.
	BorrowerID *string `gorm:"type:uuid;index" json:"borrowerId,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (Device) TableName() string { return DeviceTable }

func ValidDeviceStatus(s string) bool {
	switch s {
	case DeviceAvailable, DeviceReserved, DeviceBorrowed, DeviceMaintenance:
		return true
	}
	return false
}

// NormalizeSerial is applied to every serial before storage or comparison so
// the uniqueness check is case-insensitive.
func NormalizeSerial(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
