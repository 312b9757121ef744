// Package viewmodel defines presentation-ready structs for templ components.
// View models decouple template rendering from application state types.
package viewmodel

// PageViewModel holds everything one full page render needs.
type PageViewModel struct {
	Title     string
	CSRFToken string
	// View is "auth" or "app".
	View  string
	Auth  AuthViewModel
	Vault VaultViewModel
	Toast *ToastViewModel
	// ReloadAfterMS asks the page to re-fetch itself once a pending
	// transition has had time to land; zero disables it.
	ReloadAfterMS int
}

// ButtonViewModel holds a control's label and disabled flag.
type ButtonViewModel struct {
	Label    string
	Disabled bool
	Busy     bool
}

// AuthFormViewModel holds one of the two auth forms.
type AuthFormViewModel struct {
	Action          string
	Email           string
	PasswordVisible bool
	Submit          ButtonViewModel
	// MinPasswordLength is rendered as the input's minlength; zero omits it.
	MinPasswordLength int
}

// AuthViewModel holds the Auth view.
type AuthViewModel struct {
	ShowSignUp bool
	SignIn     AuthFormViewModel
	SignUp     AuthFormViewModel
}

// EntryViewModel holds one row of the entry list.
type EntryViewModel struct {
	ID          string
	ServiceName string
	Display     string
	Revealed    bool
	Deleting    bool
	RevealURL   string
	CopyURL     string
	DeleteURL   string
}

// VaultViewModel holds the App view.
type VaultViewModel struct {
	Email              string
	Loaded             bool
	Entries            []EntryViewModel
	ServiceInput       string
	SecretInput        string
	SecretInputVisible bool
	Save               ButtonViewModel
	DeleteAll          ButtonViewModel
	DeleteAccount      ButtonViewModel
	SignOut            ButtonViewModel
}

// ToastViewModel holds the visible toast.
type ToastViewModel struct {
	ID      string
	Message string
	// Kind is "success" or "error".
	Kind string
	// Phase is "entering", "visible" or "exiting".
	Phase       string
	RemainingMS int64
	ExitMS      int64
}

// DialogViewModel holds a confirmation step.
type DialogViewModel struct {
	Title string
	// PromptHTML is sanitised HTML rendered from the markdown prompt.
	PromptHTML   string
	ConfirmLabel string
	// ConfirmURL receives the confirming form; Method is GET for an
	// intermediate step and POST for the final one.
	ConfirmURL  string
	Method      string
	Hidden      map[string]string
	CancelURL   string
	Destructive bool
	CSRFToken   string
}

// NoticeViewModel holds a message the user must acknowledge.
type NoticeViewModel struct {
	Message     string
	ContinueURL string
}
