package domain

// Event is the normalized invocation trigger. Exactly one variant is active
// per invocation; the event adapter produces the variant before the workflow
// sees it.
type Event interface {
	isEvent()
}

// StorageNotification reports a new object in the inbound bucket. Bucket and
// ObjectKey are carried percent-encoded as delivered by the platform and must
// be decoded before use.
type StorageNotification struct {
	Bucket    string
	ObjectKey string
}

func (StorageNotification) isEvent() {}

// TimerTrigger is a scheduled reminder tick. It carries no payload.
type TimerTrigger struct{}

func (TimerTrigger) isEvent() {}
