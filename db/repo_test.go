package db

import (
	"context"
	"errors"
	"testing"

	"device-lending-api/models"

	"github.com/google/uuid"
)

func TestUserLookupsAndDelete(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()
	u := seedUser(t, repo.DB, "lookup-user", false)

	byName, err := repo.FindUserByUsername(ctx, "lookup-user")
	if err != nil || byName.ID != u.ID {
		t.Fatalf("FindUserByUsername = %v, %v", byName, err)
	}
	byEmail, err := repo.FindUserByEmail(ctx, u.Email)
	if err != nil || byEmail.ID != u.ID {
		t.Fatalf("FindUserByEmail = %v, %v", byEmail, err)
	}
	if _, err := repo.FindUserByUsername(ctx, "nobody"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("unknown username err = %v, want ErrNotFound", err)
	}

	if err := repo.DeleteUserByID(ctx, u.ID); err != nil {
		t.Fatalf("DeleteUserByID: %v", err)
	}
	if err := repo.DeleteUserByID(ctx, u.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second delete err = %v, want ErrNotFound", err)
	}
}

func TestDeleteUserWithHistoryRefused(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	// A recorded loan pins the user.
	borrower := seedUser(t, repo.DB, "hist-borrower", false)
	admin := seedUser(t, repo.DB, "hist-deleter", true)
	dev := seedDevice(t, repo.DB, "UDEL-01")
	if _, err := repo.BorrowDevice(ctx, dev.ID, borrower.ID, ""); err != nil {
		t.Fatalf("BorrowDevice: %v", err)
	}
	if _, err := repo.ReturnDevice(ctx, dev.ID, admin.ID, ""); err != nil {
		t.Fatalf("ReturnDevice: %v", err)
	}
	if err := repo.DeleteUserByID(ctx, borrower.ID); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("delete borrower err = %v, want ErrInvalidState", err)
	}

	// So does a cart, even one never submitted.
	carter := seedUser(t, repo.DB, "hist-carter", false)
	dev2 := seedDevice(t, repo.DB, "UDEL-02")
	if _, err := repo.AddToCart(ctx, carter.ID, dev2.ID); err != nil {
		t.Fatalf("AddToCart: %v", err)
	}
	if err := repo.DeleteUserByID(ctx, carter.ID); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("delete cart owner err = %v, want ErrInvalidState", err)
	}

	// The return was recorded under the admin, who is now pinned too.
	if err := repo.DeleteUserByID(ctx, admin.ID); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("delete acting admin err = %v, want ErrInvalidState", err)
	}
}

func TestCreateUserDuplicateUsername(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()
	seedUser(t, repo.DB, "taken", false)

	dup := &models.User{
		ID:       uuid.NewString(),
		Username: "taken",
		Email:    "taken2@example.edu.vn",
	}
	_ = dup.SetPassword("x")
	if err := repo.CreateUser(ctx, dup); !errors.Is(err, ErrConflict) {
		t.Fatalf("duplicate username err = %v, want ErrConflict", err)
	}
}

func TestListUsersSearch(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()
	target := seedUser(t, repo.DB, "an.nguyen", false)
	sid := "HS2025001"
	target.StudentID = &sid
	if err := repo.UpdateUser(ctx, target); err != nil {
		t.Fatalf("UpdateUser: %v", err)
	}
	seedUser(t, repo.DB, "binh.tran", false)

	res, err := repo.ListUsers(ctx, "AN.NG", 1, 20)
	if err != nil {
		t.Fatalf("ListUsers: %v", err)
	}
	if res.Total != 1 || res.Users[0].ID != target.ID {
		t.Fatalf("username search total = %d, want 1", res.Total)
	}

	res, err = repo.ListUsers(ctx, "hs2025", 1, 20)
	if err != nil {
		t.Fatalf("ListUsers by student id: %v", err)
	}
	if res.Total != 1 || res.Users[0].ID != target.ID {
		t.Fatalf("student-id search total = %d, want 1", res.Total)
	}

	res, err = repo.ListUsers(ctx, "", 0, -5)
	if err != nil {
		t.Fatalf("ListUsers clamped: %v", err)
	}
	if res.Total != 2 {
		t.Fatalf("unfiltered total = %d, want 2", res.Total)
	}
}
