package notify

import (
	"fmt"

	"github.com/rebryk/neurox/internal/poller"
)

// Observer turns poller output into notifications and forwards the render
// signal to an optional callback. It implements [poller.Observer].
type Observer struct {
	notifier Notifier
	onRender func()
}

// NewObserver creates an [Observer]. onRender may be nil.
func NewObserver(notifier Notifier, onRender func()) *Observer {
	return &Observer{notifier: notifier, onRender: onRender}
}

// JobsUpdated posts one notification per update.
func (o *Observer) JobsUpdated(updates []poller.Update) {
	for _, update := range updates {
		switch u := update.(type) {
		case poller.NewJobUpdate:
			o.notifier.Notify("New job is created", u.ID,
				fmt.Sprintf("Status: %s%s", u.Status, reasonSuffix(u.Reason)))
		case poller.StatusUpdate:
			o.notifier.Notify("Job status has changed", u.ID,
				fmt.Sprintf("New status: %s%s", u.Status, reasonSuffix(u.Reason)))
		}
	}
}

// PollFailed surfaces authentication and validation failures distinctly.
func (o *Observer) PollFailed(kind poller.FailureKind, err error) {
	switch kind {
	case poller.FailureAuth:
		o.notifier.Notify("Failed to get updates", "", "You may be using the wrong token")
	case poller.FailureValidation:
		o.notifier.Notify("Failed to get updates", "", err.Error())
	}
}

// RenderNeeded forwards the render signal.
func (o *Observer) RenderNeeded() {
	if o.onRender != nil {
		o.onRender()
	}
}

func reasonSuffix(reason string) string {
	if reason == "" {
		return ""
	}
	return " (" + reason + ")"
}
