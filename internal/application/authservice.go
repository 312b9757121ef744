package application

import (
	"context"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/ericfisherdev/vaultpanel/internal/domain/model"
	"github.com/ericfisherdev/vaultpanel/internal/domain/port/driven"
)

const (
	// MinSignUpPasswordLength is the shortest password accepted for a new
	// account.
	MinSignUpPasswordLength = 6

	// signUpSwitchDelay is how long the sign-up success message stays on the
	// sign-up form before the sign-in form is shown.
	signUpSwitchDelay = 1500 * time.Millisecond
)

// AuthFormState is the render-ready state of one auth form.
type AuthFormState struct {
	Email           string
	PasswordVisible bool
	Submit          ControlState
}

// AuthState is the render-ready state of the Auth view.
type AuthState struct {
	Form    model.AuthForm
	SignIn  AuthFormState
	SignUp  AuthFormState
	SignOut ControlState
}

type authForm struct {
	email           string
	passwordVisible bool
	submit          Control
}

func (f authForm) state() AuthFormState {
	return AuthFormState{
		Email:           f.email,
		PasswordVisible: f.passwordVisible,
		Submit:          f.submit.State(),
	}
}

// AuthService implements the Auth view: sign-in, sign-up and sign-out against
// the auth backend. View transitions are driven by the SessionController's
// auth-state events, never by the return of these calls.
type AuthService struct {
	auth     driven.AuthBackend
	dispatch *Dispatcher
	notifier *Notifier
	logger   *slog.Logger

	// afterFunc schedules delayed UI transitions; replaced in tests.
	afterFunc func(d time.Duration, f func())

	form    model.AuthForm
	signIn  authForm
	signUp  authForm
	signOut Control
}

// NewAuthService creates an AuthService showing the sign-in form.
func NewAuthService(auth driven.AuthBackend, dispatch *Dispatcher, notifier *Notifier, logger *slog.Logger) *AuthService {
	s := &AuthService{
		auth:     auth,
		dispatch: dispatch,
		notifier: notifier,
		logger:   logger,
		afterFunc: func(d time.Duration, f func()) {
			time.AfterFunc(d, f)
		},
	}
	s.ResetState()
	return s
}

// SignIn validates the input locally and requests a password sign-in.
func (s *AuthService) SignIn(ctx context.Context, email, password string) error {
	ctx = context.WithoutCancel(ctx)
	email = strings.TrimSpace(email)

	var err error
	if doErr := s.dispatch.Do(ctx, func() {
		s.signIn.email = email
		if email == "" || blank(password) {
			err = ErrEmptyCredentials
			s.notifier.Error("Enter your email and password.")
			return
		}
		err = s.signIn.submit.begin()
	}); doErr != nil {
		return doErr
	}
	if err != nil {
		return err
	}

	err = s.auth.SignInWithPassword(ctx, email, password)

	_ = s.dispatch.Do(ctx, func() {
		s.signIn.submit.end()
		if err != nil {
			s.notifier.Error(backendMessage(err, "Sign in failed."))
			return
		}
		s.signIn.email = ""
		s.signIn.passwordVisible = false
		s.notifier.Success("Signed in!")
	})
	if err != nil {
		s.logger.Info("sign in rejected", "email", email, "error", err)
	}
	return err
}

// SignUp validates the input locally and requests a new account. On success
// the sign-in form is shown after a short delay.
func (s *AuthService) SignUp(ctx context.Context, email, password string) error {
	ctx = context.WithoutCancel(ctx)
	email = strings.TrimSpace(email)

	var err error
	if doErr := s.dispatch.Do(ctx, func() {
		s.signUp.email = email
		switch {
		case email == "" || blank(password):
			err = ErrEmptyCredentials
			s.notifier.Error("Enter your email and password.")
			return
		case utf8.RuneCountInString(password) < MinSignUpPasswordLength:
			err = ErrPasswordTooShort
			s.notifier.Error("Password must be at least 6 characters.")
			return
		}
		err = s.signUp.submit.begin()
	}); doErr != nil {
		return doErr
	}
	if err != nil {
		return err
	}

	err = s.auth.SignUp(ctx, email, password)

	_ = s.dispatch.Do(ctx, func() {
		if err != nil {
			s.signUp.submit.end()
			s.notifier.Error(backendMessage(err, "Sign up failed."))
			return
		}
		s.signUp.email = ""
		s.signUp.passwordVisible = false
		s.notifier.Success("Account created! You can sign in now.")
	})
	if err != nil {
		s.logger.Info("sign up rejected", "email", email, "error", err)
		return err
	}

	s.afterFunc(signUpSwitchDelay, func() {
		_ = s.dispatch.Do(context.Background(), func() {
			s.form = model.AuthFormSignIn
			s.signUp.submit.end()
		})
	})
	return nil
}

// SignOut ends the backend session. The Auth view follows from the SIGNED_OUT
// notification.
func (s *AuthService) SignOut(ctx context.Context) error {
	ctx = context.WithoutCancel(ctx)

	var err error
	if doErr := s.dispatch.Do(ctx, func() { err = s.signOut.begin() }); doErr != nil {
		return doErr
	}
	if err != nil {
		return err
	}

	err = s.auth.SignOut(ctx)

	_ = s.dispatch.Do(ctx, func() {
		s.signOut.end()
		if err != nil {
			s.notifier.Error(backendMessage(err, "Sign out failed."))
			return
		}
		s.notifier.Success("Signed out!")
	})
	return err
}

// ShowForm switches between the sign-in and sign-up forms.
func (s *AuthService) ShowForm(ctx context.Context, form model.AuthForm) error {
	return s.dispatch.Do(ctx, func() {
		if form == model.AuthFormSignUp {
			s.form = model.AuthFormSignUp
			return
		}
		s.form = model.AuthFormSignIn
	})
}

// TogglePasswordVisibility flips the masked/plain rendering of a form's
// password field.
func (s *AuthService) TogglePasswordVisibility(ctx context.Context, form model.AuthForm) error {
	return s.dispatch.Do(ctx, func() {
		if form == model.AuthFormSignUp {
			s.signUp.passwordVisible = !s.signUp.passwordVisible
			return
		}
		s.signIn.passwordVisible = !s.signIn.passwordVisible
	})
}

// state must be called on the dispatch loop.
func (s *AuthService) state() AuthState {
	return AuthState{
		Form:    s.form,
		SignIn:  s.signIn.state(),
		SignUp:  s.signUp.state(),
		SignOut: s.signOut.State(),
	}
}

// ViewActivated implements ViewListener. Auth forms keep their state across
// view changes; a fresh Auth view always starts on the sign-in form.
func (s *AuthService) ViewActivated(view model.View, _ SessionSnapshot) {
	if view == model.ViewAuth {
		s.form = model.AuthFormSignIn
	}
}

// ResetState implements ViewListener.
func (s *AuthService) ResetState() {
	s.form = model.AuthFormSignIn
	s.signIn = authForm{submit: newControl("Sign in", "Signing in...")}
	s.signUp = authForm{submit: newControl("Sign up", "Signing up...")}
	s.signOut = newControl("Sign out", "Signing out...")
}

// blank reports whether a password holds only whitespace. Passwords are sent
// as typed; surrounding spaces are part of the secret.
func blank(password string) bool {
	return strings.TrimSpace(password) == ""
}
