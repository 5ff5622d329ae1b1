package websocket

import (
	"time"

	"github.com/coder/websocket"

	"github.com/conneroisu/contactbook/internal/notify"
)

// EventType names a message pushed to the browser.
type EventType string

const (
	EventToast           EventType = "toast"
	EventContactsChanged EventType = "contacts_changed"
)

// Event is the JSON message sent to every connected browser.
type Event struct {
	Type      EventType     `json:"type"`
	Toast     *notify.Toast `json:"toast,omitempty"`
	Count     *int          `json:"count,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
}

// ToastEvent wraps a toast for broadcasting.
func ToastEvent(t notify.Toast) Event {
	return Event{Type: EventToast, Toast: &t, Timestamp: time.Now()}
}

// ContactsChangedEvent tells browsers the list now holds count contacts.
func ContactsChangedEvent(count int) Event {
	return Event{Type: EventContactsChanged, Count: &count, Timestamp: time.Now()}
}

// Client is one connected browser.
type Client struct {
	conn *websocket.Conn
	send chan []byte
	addr string
}
