package notify

import (
	"testing"

	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/pagination"
)

func TestFeedListNewestFirstWithCursor(t *testing.T) {
	f := NewFeed(10)
	first := f.Push(LevelInfo, "one")
	f.Push(LevelInfo, "two")
	third := f.Push(LevelSuccess, "three")

	page, next, err := f.List(pagination.Params{Limit: 2})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(page) != 2 || page[0].ID != third.ID || next == "" {
		t.Fatalf("unexpected first page %+v next=%q", page, next)
	}

	page, next, err = f.List(pagination.Params{Limit: 2, Cursor: next})
	if err != nil {
		t.Fatalf("list page 2: %v", err)
	}
	if len(page) != 1 || page[0].ID != first.ID || next != "" {
		t.Fatalf("unexpected second page %+v next=%q", page, next)
	}
}

func TestFeedEvictsOldest(t *testing.T) {
	f := NewFeed(2)
	f.Push(LevelInfo, "a")
	f.Push(LevelInfo, "b")
	f.Push(LevelInfo, "c")

	page, _, _ := f.List(pagination.Params{})
	if len(page) != 2 || page[1].Message != "b" {
		t.Fatalf("expected oldest evicted, got %+v", page)
	}
}

func TestFeedDismiss(t *testing.T) {
	f := NewFeed(5)
	n := f.Push(LevelWarning, "x")
	if !f.Dismiss(n.ID) {
		t.Fatalf("expected dismiss to succeed")
	}
	if f.Dismiss(n.ID) {
		t.Fatalf("expected second dismiss to report absent")
	}
}

func TestPushErrorUsesCodeMetadata(t *testing.T) {
	f := NewFeed(5)
	n := f.PushError(pkgerrors.New(pkgerrors.CodeSyncTimeout, "delivery confirmation is taking longer than expected"))
	if n.Level != LevelWarning || n.Code != "SYNC_TIMEOUT" {
		t.Fatalf("expected advisory warning, got %+v", n)
	}
	n = f.PushError(pkgerrors.New(pkgerrors.CodeInsufficientStock, "only 3 available"))
	if n.Level != LevelError || n.Message != "only 3 available" {
		t.Fatalf("expected blocking error, got %+v", n)
	}
}

func TestListRejectsBadCursor(t *testing.T) {
	f := NewFeed(5)
	if _, _, err := f.List(pagination.Params{Cursor: "!!"}); !pkgerrors.Is(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
