package services

import (
	"context"
	"log"
	"sync"
	"time"
)

// Notifier delivers one message to one recipient (SMS or email depending on
// the recipient). Delivery is best-effort: a returned error is logged and
// forgotten, never surfaced to the request that triggered it.
type Notifier interface {
	Send(recipient, message string) error
}

// Notification is one queued outbound message
type Notification struct {
	Recipient string
	Message   string
}

// NotificationDispatcher hands notifications to a background worker so the
// request/response cycle never waits on delivery. The queue is bounded; when
// it is full the notification is dropped and logged rather than blocking a
// request.
type NotificationDispatcher struct {
	notifier Notifier
	queue    chan Notification
	wg       sync.WaitGroup
	once     sync.Once
}

const dispatcherQueueSize = 256

// sendTimeout bounds each delivery attempt so a stuck provider cannot
// stall the worker
const sendTimeout = 10 * time.Second

var dispatcherInstance *NotificationDispatcher

// InitNotificationDispatcher starts the background delivery worker
func InitNotificationDispatcher(notifier Notifier) *NotificationDispatcher {
	d := &NotificationDispatcher{
		notifier: notifier,
		queue:    make(chan Notification, dispatcherQueueSize),
	}
	d.wg.Add(1)
	go d.run()
	dispatcherInstance = d
	return d
}

// GetNotificationDispatcher returns the initialized dispatcher instance
func GetNotificationDispatcher() *NotificationDispatcher {
	return dispatcherInstance
}

// SetNotificationDispatcher sets the dispatcher instance (primarily for testing)
func SetNotificationDispatcher(d *NotificationDispatcher) {
	dispatcherInstance = d
}

// Enqueue schedules a notification without blocking the caller. Messages to
// empty recipients are dropped silently; a full queue drops the message with
// a log line.
func (d *NotificationDispatcher) Enqueue(recipient, message string) {
	if d == nil || recipient == "" {
		return
	}
	select {
	case d.queue <- Notification{Recipient: recipient, Message: message}:
	default:
		log.Printf("notification queue full, dropping message to %s", recipient)
	}
}

// run drains the queue until Shutdown closes it
func (d *NotificationDispatcher) run() {
	defer d.wg.Done()
	for n := range d.queue {
		d.deliver(n)
	}
}

func (d *NotificationDispatcher) deliver(n Notification) {
	done := make(chan error, 1)
	go func() {
		done <- d.notifier.Send(n.Recipient, n.Message)
	}()

	select {
	case err := <-done:
		if err != nil {
			log.Printf("notification to %s failed: %v", n.Recipient, err)
		}
	case <-time.After(sendTimeout):
		log.Printf("notification to %s timed out after %s", n.Recipient, sendTimeout)
	}
}

// Shutdown stops accepting new notifications and waits for the worker to
// drain, up to the context deadline
func (d *NotificationDispatcher) Shutdown(ctx context.Context) {
	if d == nil {
		return
	}
	d.once.Do(func() { close(d.queue) })

	drained := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(drained)
	}()

	select {
	case <-drained:
	case <-ctx.Done():
		log.Printf("notification dispatcher shutdown timed out: %v", ctx.Err())
	}
}

// LogNotifier is the default delivery channel: it writes the message to the
// process log. Real SMS/email providers are external collaborators plugged
// in behind the Notifier interface.
type LogNotifier struct{}

// Send logs the outbound message
func (LogNotifier) Send(recipient, message string) error {
	log.Printf("notify %s: %s", recipient, message)
	return nil
}
