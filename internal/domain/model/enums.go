package model

// View identifies which top-level view is visible. Exactly one is active at a time.
type View string

const (
	ViewAuth View = "auth"
	ViewApp  View = "app"
)

// AuthForm identifies which form the Auth view is showing.
type AuthForm string

const (
	AuthFormSignIn AuthForm = "signin"
	AuthFormSignUp AuthForm = "signup"
)

// ToastKind selects the icon and colour of a toast.
type ToastKind string

const (
	ToastSuccess ToastKind = "success"
	ToastError   ToastKind = "error"
)

// AuthEventType is the kind of auth-state transition reported by the backend.
type AuthEventType string

const (
	AuthEventSignedIn       AuthEventType = "SIGNED_IN"
	AuthEventSignedOut      AuthEventType = "SIGNED_OUT"
	AuthEventTokenRefreshed AuthEventType = "TOKEN_REFRESHED"
	AuthEventUserUpdated    AuthEventType = "USER_UPDATED"
)
