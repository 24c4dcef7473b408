// Package notify keeps the transient, dismissible messages shown to the user.
package notify

import (
	"sync"
	"time"

	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/pagination"
	"github.com/google/uuid"
)

type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

const defaultCapacity = 50

// Notification is one message in the feed.
type Notification struct {
	ID        uuid.UUID `json:"id"`
	Level     Level     `json:"level"`
	Code      string    `json:"code,omitempty"`
	Message   string    `json:"message"`
	Action    string    `json:"action,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Feed is a bounded list of notifications; the oldest are evicted first.
type Feed struct {
	mu       sync.Mutex
	items    []Notification
	capacity int
	now      func() time.Time
}

func NewFeed(capacity int) *Feed {
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	return &Feed{capacity: capacity, now: time.Now}
}

// Push appends a notification.
func (f *Feed) Push(level Level, message string) Notification {
	return f.add(Notification{Level: level, Message: message})
}

// PushAction appends a notification asking the UI to perform action.
func (f *Feed) PushAction(level Level, message, action string) Notification {
	return f.add(Notification{Level: level, Message: message, Action: action})
}

// PushError appends the user-facing rendering of err. Non-blocking codes are shown as warnings.
func (f *Feed) PushError(err error) Notification {
	code := pkgerrors.CodeOf(err)
	meta := pkgerrors.MetadataFor(code)
	msg := meta.PublicMessage
	if typed := pkgerrors.As(err); typed != nil && typed.Message() != "" {
		msg = typed.Message()
	}
	level := LevelError
	if !meta.Blocking {
		level = LevelWarning
	}
	return f.add(Notification{Level: level, Code: string(code), Message: msg})
}

// List returns notifications newest first.
func (f *Feed) List(params pagination.Params) ([]Notification, string, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	f.mu.Lock()
	ordered := make([]Notification, 0, len(f.items))
	for i := len(f.items) - 1; i >= 0; i-- {
		ordered = append(ordered, f.items[i])
	}
	f.mu.Unlock()

	if cursor != nil {
		start := len(ordered)
		for i, n := range ordered {
			if n.ID == cursor.ID {
				start = i + 1
				break
			}
		}
		ordered = ordered[start:]
	}
	page, next := pagination.Page(ordered, params.Limit, func(n Notification) pagination.Cursor {
		return pagination.Cursor{CreatedAt: n.CreatedAt, ID: n.ID}
	})
	return page, next, nil
}

// Dismiss removes a notification. It reports whether it was present.
func (f *Feed) Dismiss(id uuid.UUID) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, n := range f.items {
		if n.ID == id {
			f.items = append(f.items[:i], f.items[i+1:]...)
			return true
		}
	}
	return false
}

func (f *Feed) add(n Notification) Notification {
	n.ID = uuid.New()
	n.CreatedAt = f.now().UTC()
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items = append(f.items, n)
	if over := len(f.items) - f.capacity; over > 0 {
		f.items = append([]Notification(nil), f.items[over:]...)
	}
	return n
}
