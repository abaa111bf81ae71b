package db

import (
	"context"
	"testing"

	"device-lending-api/importer"
	"device-lending-api/models"
)

func TestImportDevices(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()
	admin := seedUser(t, repo.DB, "imp-admin", true)
	seedDevice(t, repo.DB, "IMP-EXIST")

	rows := []importer.Row{
		{Name: "Laptop Dell", Serial: "imp-001", Category: "Laptop"},
		{Name: "Máy chiếu", Serial: "IMP-002"},
		{Name: "", Serial: "IMP-003"},               // missing name
		{Name: "Chuột", Serial: ""},                 // missing serial
		{Name: "Laptop Dell", Serial: " imp-001 "},  // duplicate within the file
		{Name: "Bàn phím", Serial: "imp-exist"},     // duplicate in the store
	}

	res, err := repo.ImportDevices(ctx, admin.ID, rows)
	if err != nil {
		t.Fatalf("ImportDevices: %v", err)
	}
	if res.Created != 2 {
		t.Errorf("created = %d, want 2", res.Created)
	}
	if res.SkippedMissing != 2 {
		t.Errorf("skippedMissing = %d, want 2", res.SkippedMissing)
	}
	if res.SkippedDuplicate != 2 {
		t.Errorf("skippedDuplicate = %d, want 2", res.SkippedDuplicate)
	}
	if len(res.DuplicateSerials) != 2 {
		t.Errorf("duplicateSerials = %v, want the two collisions", res.DuplicateSerials)
	}

	d, err := repo.FindDeviceBySerial(ctx, "IMP-001")
	if err != nil {
		t.Fatalf("FindDeviceBySerial: %v", err)
	}
	if d.Status != models.DeviceAvailable {
		t.Errorf("imported status = %s, want Available", d.Status)
	}
	if d.Category != "Laptop" {
		t.Errorf("category = %q, want Laptop", d.Category)
	}
	if d.CreatedByID == nil || *d.CreatedByID != admin.ID {
		t.Errorf("createdBy = %v, want the importing admin", d.CreatedByID)
	}

	d2, err := repo.FindDeviceBySerial(ctx, "IMP-002")
	if err != nil {
		t.Fatalf("FindDeviceBySerial IMP-002: %v", err)
	}
	if d2.Category != models.DefaultCategory || d2.Location != models.DefaultLocation {
		t.Errorf("defaults not applied: %+v", d2)
	}
}

func TestImportDevicesEmptyFile(t *testing.T) {
	repo := testRepo(t)
	admin := seedUser(t, repo.DB, "imp-admin2", true)

	res, err := repo.ImportDevices(context.Background(), admin.ID, nil)
	if err != nil {
		t.Fatalf("ImportDevices: %v", err)
	}
	if res.Created != 0 || res.SkippedMissing != 0 || res.SkippedDuplicate != 0 {
		t.Fatalf("empty import result = %+v, want all zeros", res)
	}
}
