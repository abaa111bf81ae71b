package models

import (
	"testing"
	"time"
)

func TestIsOverdue(t *testing.T) {
	now := time.Date(2025, 5, 10, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	cases := []struct {
		name string
		list BorrowList
		want bool
	}{
		{"completed past deadline", BorrowList{Status: ListCompleted, ReturnDeadline: &past}, true},
		{"completed before deadline", BorrowList{Status: ListCompleted, ReturnDeadline: &future}, false},
		{"completed exactly at deadline", BorrowList{Status: ListCompleted, ReturnDeadline: &now}, false},
		{"completed without deadline", BorrowList{Status: ListCompleted}, false},
		{"returned clears overdue", BorrowList{Status: ListCompleted, ReturnDeadline: &past, ReturnedAt: &now}, false},
		{"submitted never overdue", BorrowList{Status: ListSubmitted, ReturnDeadline: &past}, false},
		{"cancelled never overdue", BorrowList{Status: ListCancelled, ReturnDeadline: &past}, false},
	}
	for _, tc := range cases {
		if got := tc.list.IsOverdue(now); got != tc.want {
			t.Errorf("%s: IsOverdue = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestIsOverdueFalseRightAfterCompletion(t *testing.T) {
	now := time.Date(2025, 5, 10, 12, 0, 0, 0, time.UTC)
	deadline := now.Add(30 * 24 * time.Hour)
	l := BorrowList{Status: ListCompleted, BorrowedAt: &now, ReturnDeadline: &deadline}
	if l.IsOverdue(now) {
		t.Fatal("a just-completed list must not be overdue")
	}
	if !l.IsOverdue(deadline.Add(time.Second)) {
		t.Fatal("the same list must be overdue once the deadline passes")
	}
}

func TestCanTransition(t *testing.T) {
	statuses := []string{ListPending, ListSubmitted, ListReady, ListCompleted, ListCancelled}
	allowed := map[[2]string]bool{
		{ListPending, ListSubmitted}:   true,
		{ListSubmitted, ListReady}:     true,
		{ListReady, ListCompleted}:     true,
		{ListSubmitted, ListCancelled}: true,
		{ListReady, ListCancelled}:     true,
	}
	for _, from := range statuses {
		for _, to := range statuses {
			l := BorrowList{Status: from}
			want := allowed[[2]string{from, to}]
			if got := l.CanTransition(to); got != want {
				t.Errorf("CanTransition(%s -> %s) = %v, want %v", from, to, got, want)
			}
		}
	}
}
