package wizard

import (
	"time"

	"github.com/google/uuid"
)

// Alert is a transient, dismissible notice.
type Alert struct {
	ID        string    `json:"id"`
	Code      string    `json:"code"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type alertList struct {
	items []Alert
}

func (l *alertList) add(code, message string, now time.Time, ttl time.Duration) Alert {
	a := Alert{
		ID:        uuid.NewString(),
		Code:      code,
		Message:   message,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
	l.items = append(l.items, a)
	return a
}

// active prunes expired alerts and returns the rest.
func (l *alertList) active(now time.Time) []Alert {
	kept := l.items[:0]
	for _, a := range l.items {
		if now.Before(a.ExpiresAt) {
			kept = append(kept, a)
		}
	}
	l.items = kept
	return append([]Alert(nil), kept...)
}

func (l *alertList) dismiss(id string) bool {
	for i, a := range l.items {
		if a.ID == id {
			l.items = append(l.items[:i], l.items[i+1:]...)
			return true
		}
	}
	return false
}
