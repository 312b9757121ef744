package model

import "time"

// ToastPhase is the render phase of a toast relative to when it was shown.
type ToastPhase string

const (
	ToastEntering ToastPhase = "entering"
	ToastVisible  ToastPhase = "visible"
	ToastExiting  ToastPhase = "exiting"
	ToastRemoved  ToastPhase = "removed"
)

// Toast is a transient, auto-dismissing notification.
type Toast struct {
	ID      string
	Message string
	Kind    ToastKind
	ShownAt time.Time
}
