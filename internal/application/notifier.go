package application

import (
	"time"

	"github.com/google/uuid"

	"github.com/ericfisherdev/vaultpanel/internal/domain/model"
)

const (
	// DefaultToastDuration is how long a toast stays fully visible.
	DefaultToastDuration = 3 * time.Second

	// ToastExitDuration is the length of the exit transition before a toast
	// is removed.
	ToastExitDuration = 400 * time.Millisecond

	toastEnterDelay = 10 * time.Millisecond
)

// ToastState is the render-ready state of the visible toast.
type ToastState struct {
	model.Toast
	Phase model.ToastPhase
	// Remaining is how long until the toast starts its exit transition.
	Remaining time.Duration
}

// Notifier is the notification surface: a queue of one toast. Showing a new
// toast removes the current one immediately. It is owned by the dispatch loop.
type Notifier struct {
	duration time.Duration
	nowFunc  func() time.Time
	current  *model.Toast
}

// NewNotifier creates a Notifier whose toasts stay visible for duration.
// A non-positive duration selects DefaultToastDuration.
func NewNotifier(duration time.Duration) *Notifier {
	if duration <= 0 {
		duration = DefaultToastDuration
	}
	return &Notifier{duration: duration, nowFunc: time.Now}
}

// Show replaces any visible toast with a new one.
func (n *Notifier) Show(message string, kind model.ToastKind) {
	n.current = &model.Toast{
		ID:      uuid.NewString(),
		Message: message,
		Kind:    kind,
		ShownAt: n.nowFunc(),
	}
}

// Success shows a success toast.
func (n *Notifier) Success(message string) { n.Show(message, model.ToastSuccess) }

// Error shows an error toast.
func (n *Notifier) Error(message string) { n.Show(message, model.ToastError) }

// Current returns the toast to render, if any. A toast past its exit
// transition is dropped from the render tree.
func (n *Notifier) Current() (ToastState, bool) {
	if n.current == nil {
		return ToastState{}, false
	}

	now := n.nowFunc()
	phase := ToastPhaseAt(n.current.ShownAt, now, n.duration)
	if phase == model.ToastRemoved {
		n.current = nil
		return ToastState{}, false
	}

	remaining := n.current.ShownAt.Add(n.duration).Sub(now)
	if remaining < 0 {
		remaining = 0
	}
	return ToastState{Toast: *n.current, Phase: phase, Remaining: remaining}, true
}

// ToastPhaseAt returns the phase of a toast shown at shownAt, observed at now.
func ToastPhaseAt(shownAt, now time.Time, duration time.Duration) model.ToastPhase {
	elapsed := now.Sub(shownAt)
	switch {
	case elapsed < toastEnterDelay:
		return model.ToastEntering
	case elapsed < duration:
		return model.ToastVisible
	case elapsed < duration+ToastExitDuration:
		return model.ToastExiting
	default:
		return model.ToastRemoved
	}
}

// ViewActivated implements ViewListener. Toasts survive view changes.
func (n *Notifier) ViewActivated(model.View, SessionSnapshot) {}

// ResetState implements ViewListener.
func (n *Notifier) ResetState() {
	n.current = nil
}
