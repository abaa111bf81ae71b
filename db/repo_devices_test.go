package db

import (
	"context"
	"errors"
	"testing"
	"time"

	"device-lending-api/models"
)

func TestCreateDeviceBatch(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()
	seedDevice(t, repo.DB, "BAT-02")

	added, existing, err := repo.CreateDeviceBatch(ctx,
		models.Device{Name: "Laptop Dell"},
		[]string{"bat-01", " BAT-02 ", "BAT-03", "bat-03", "", "  "},
	)
	if err != nil {
		t.Fatalf("CreateDeviceBatch: %v", err)
	}
	if len(added) != 2 {
		t.Fatalf("added = %d, want 2 (BAT-01, BAT-03)", len(added))
	}
	if len(existing) != 1 || existing[0] != "BAT-02" {
		t.Fatalf("existing = %v, want [BAT-02]", existing)
	}
	for _, d := range added {
		if d.Status != models.DeviceAvailable {
			t.Errorf("%s status = %s, want Available", d.Serial, d.Status)
		}
		if d.Category != models.DefaultCategory || d.Unit != models.DefaultUnit {
			t.Errorf("%s defaults not applied: %+v", d.Serial, d)
		}
	}
}

func TestUpdateDeviceStatusRules(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()
	dev := seedDevice(t, repo.DB, "UPD-01")

	base := UpdateDeviceInput{Name: dev.Name, Serial: dev.Serial}

	in := base
	in.Status = models.DeviceMaintenance
	got, err := repo.UpdateDevice(ctx, dev.ID, in)
	if err != nil {
		t.Fatalf("set Maintenance: %v", err)
	}
	if got.Status != models.DeviceMaintenance {
		t.Errorf("status = %s, want Maintenance", got.Status)
	}

	in.Status = models.DeviceAvailable
	if _, err := repo.UpdateDevice(ctx, dev.ID, in); err != nil {
		t.Fatalf("back to Available: %v", err)
	}

	in.Status = models.DeviceBorrowed
	if _, err := repo.UpdateDevice(ctx, dev.ID, in); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("manual Borrowed err = %v, want ErrInvalidState", err)
	}

	in.Status = "Lost"
	if _, err := repo.UpdateDevice(ctx, dev.ID, in); !errors.Is(err, ErrValidation) {
		t.Fatalf("unknown status err = %v, want ErrValidation", err)
	}
}

func TestUpdateDeviceDuplicateSerial(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()
	seedDevice(t, repo.DB, "DUP-01")
	dev := seedDevice(t, repo.DB, "DUP-02")

	_, err := repo.UpdateDevice(ctx, dev.ID, UpdateDeviceInput{Name: dev.Name, Serial: "dup-01"})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("serial collision err = %v, want ErrConflict", err)
	}
}

func TestDeleteDeviceRules(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()
	student := seedUser(t, repo.DB, "del-student", false)
	admin := seedUser(t, repo.DB, "del-admin", true)

	reserved := seedDevice(t, repo.DB, "DEL-01")
	if _, err := repo.AddToCart(ctx, student.ID, reserved.ID); err != nil {
		t.Fatalf("AddToCart: %v", err)
	}
	if err := repo.DeleteDevice(ctx, reserved.ID); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("delete reserved err = %v, want ErrInvalidState", err)
	}

	// A device with ledger history deletes cleanly, taking the ledger along.
	loaned := seedDevice(t, repo.DB, "DEL-02")
	if _, err := repo.BorrowDevice(ctx, loaned.ID, student.ID, ""); err != nil {
		t.Fatalf("BorrowDevice: %v", err)
	}
	if _, err := repo.ReturnDevice(ctx, loaned.ID, admin.ID, ""); err != nil {
		t.Fatalf("ReturnDevice: %v", err)
	}
	if err := repo.DeleteDevice(ctx, loaned.ID); err != nil {
		t.Fatalf("DeleteDevice: %v", err)
	}
	if _, err := repo.FindDeviceByID(ctx, loaned.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("deleted device lookup err = %v, want ErrNotFound", err)
	}
	var n int64
	repo.DB.Model(&models.Transaction{}).Where("device_id = ?", loaned.ID).Count(&n)
	if n != 0 {
		t.Errorf("ledger rows after delete = %d, want 0", n)
	}
}

func TestDeleteDeviceAfterCartHistory(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()
	student := seedUser(t, repo.DB, "hist-student", false)
	admin := seedUser(t, repo.DB, "hist-admin", true)
	expected := time.Now().Add(24 * time.Hour)

	// Cancelled request: the device is Available again but its list_items row
	// survives as history.
	cancelled := seedDevice(t, repo.DB, "HIST-01")
	if _, err := repo.AddToCart(ctx, student.ID, cancelled.ID); err != nil {
		t.Fatalf("AddToCart: %v", err)
	}
	list, err := repo.SubmitList(ctx, student.ID, expected)
	if err != nil {
		t.Fatalf("SubmitList: %v", err)
	}
	if _, err := repo.CancelRequest(ctx, list.ID); err != nil {
		t.Fatalf("CancelRequest: %v", err)
	}
	if err := repo.DeleteDevice(ctx, cancelled.ID); err != nil {
		t.Fatalf("DeleteDevice after cancel: %v", err)
	}

	// Full completed-and-returned loan.
	returned := seedDevice(t, repo.DB, "HIST-02")
	if _, err := repo.AddToCart(ctx, student.ID, returned.ID); err != nil {
		t.Fatalf("AddToCart: %v", err)
	}
	list, err = repo.SubmitList(ctx, student.ID, expected)
	if err != nil {
		t.Fatalf("SubmitList: %v", err)
	}
	if _, err := repo.MarkReady(ctx, list.ID); err != nil {
		t.Fatalf("MarkReady: %v", err)
	}
	if _, err := repo.MarkCompleted(ctx, list.ID, 30*24*time.Hour); err != nil {
		t.Fatalf("MarkCompleted: %v", err)
	}
	if _, err := repo.MarkReturned(ctx, admin.ID, list.ID); err != nil {
		t.Fatalf("MarkReturned: %v", err)
	}
	if err := repo.DeleteDevice(ctx, returned.ID); err != nil {
		t.Fatalf("DeleteDevice after return: %v", err)
	}

	var items int64
	repo.DB.Model(&models.ListItem{}).
		Where("device_id IN ?", []string{cancelled.ID, returned.ID}).
		Count(&items)
	if items != 0 {
		t.Errorf("historical list items left behind = %d, want 0", items)
	}
}

func TestAdHocBorrowReturn(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()
	borrower := seedUser(t, repo.DB, "adhoc-user", false)
	admin := seedUser(t, repo.DB, "adhoc-admin", true)
	dev := seedDevice(t, repo.DB, "ADH-01")

	txn, err := repo.BorrowDevice(ctx, dev.ID, borrower.ID, "mượn gấp")
	if err != nil {
		t.Fatalf("BorrowDevice: %v", err)
	}
	if txn.Type != models.TxBorrow || txn.UserID != borrower.ID || txn.BorrowListID != nil {
		t.Errorf("borrow ledger = %+v, want ad-hoc borrow for the borrower", txn)
	}
	got, _ := repo.FindDeviceByID(ctx, dev.ID)
	if got.Status != models.DeviceBorrowed || got.BorrowerID == nil || *got.BorrowerID != borrower.ID {
		t.Fatalf("device = %s/%v, want Borrowed by borrower", got.Status, got.BorrowerID)
	}

	if _, err := repo.BorrowDevice(ctx, dev.ID, borrower.ID, ""); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("double borrow err = %v, want ErrInvalidState", err)
	}

	ret, err := repo.ReturnDevice(ctx, dev.ID, admin.ID, "")
	if err != nil {
		t.Fatalf("ReturnDevice: %v", err)
	}
	if ret.Type != models.TxReturn || ret.UserID != admin.ID {
		t.Errorf("return ledger = %+v, want return recorded under the admin", ret)
	}
	got, _ = repo.FindDeviceByID(ctx, dev.ID)
	if got.Status != models.DeviceAvailable || got.BorrowerID != nil {
		t.Fatalf("device = %s/%v, want Available with no borrower", got.Status, got.BorrowerID)
	}

	if _, err := repo.ReturnDevice(ctx, dev.ID, admin.ID, ""); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("double return err = %v, want ErrInvalidState", err)
	}
}

func TestListDevicesSearch(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()
	seedDevice(t, repo.DB, "SRCH-01")
	seedDevice(t, repo.DB, "SRCH-02")
	other := seedDevice(t, repo.DB, "OTHER-01")

	// Single term matches name or serial, case-insensitively.
	res, err := repo.ListDevices(ctx, DeviceQuery{Query: "srch"})
	if err != nil {
		t.Fatalf("ListDevices: %v", err)
	}
	if res.Total != 2 {
		t.Fatalf("single-term total = %d, want 2", res.Total)
	}

	// A comma list is an exact serial lookup.
	res, err = repo.ListDevices(ctx, DeviceQuery{Query: "srch-01, other-01"})
	if err != nil {
		t.Fatalf("ListDevices serial list: %v", err)
	}
	if res.Total != 2 {
		t.Fatalf("serial-list total = %d, want 2", res.Total)
	}

	res, err = repo.ListDevices(ctx, DeviceQuery{Status: models.DeviceAvailable, Category: other.Category})
	if err != nil {
		t.Fatalf("ListDevices filters: %v", err)
	}
	if res.Total != 3 {
		t.Fatalf("filtered total = %d, want 3", res.Total)
	}
}

func TestCountDevices(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()
	student := seedUser(t, repo.DB, "cnt-student", false)

	free := seedDevice(t, repo.DB, "CNT-01")
	inCart := seedDevice(t, repo.DB, "CNT-02")
	out := seedDevice(t, repo.DB, "CNT-03")
	_ = free

	if _, err := repo.AddToCart(ctx, student.ID, inCart.ID); err != nil {
		t.Fatalf("AddToCart: %v", err)
	}
	if _, err := repo.BorrowDevice(ctx, out.ID, student.ID, ""); err != nil {
		t.Fatalf("BorrowDevice: %v", err)
	}

	stats, err := repo.CountDevices(ctx)
	if err != nil {
		t.Fatalf("CountDevices: %v", err)
	}
	if stats.Total != 3 || stats.Available != 1 || stats.Reserved != 1 || stats.Borrowed != 1 {
		t.Fatalf("stats = %+v, want 3/1/1/1", stats)
	}
}
