package application_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/vaultpanel/internal/application"
	"github.com/ericfisherdev/vaultpanel/internal/domain/model"
	"github.com/ericfisherdev/vaultpanel/internal/domain/port/driven"
)

func TestAuthService_EmptyFieldsNeverReachBackend(t *testing.T) {
	cases := []struct {
		name     string
		email    string
		password string
	}{
		{"both empty", "", ""},
		{"blank email", "   ", "hunter22"},
		{"empty password", "alice@example.com", ""},
		{"whitespace email only", "\t\n", "x"},
		{"whitespace password", "alice@example.com", "      "},
		{"tab and newline password", "alice@example.com", "\t\n\t\n\t\n"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := newHarness(t)
			require.NoError(t, h.sessions.Initialize(h.ctx))

			err := h.authSvc.SignIn(h.ctx, tc.email, tc.password)
			assert.ErrorIs(t, err, application.ErrEmptyCredentials)
			msg, kind := h.toast(t)
			assert.Equal(t, model.ToastError, kind)
			assert.NotEmpty(t, msg)

			err = h.authSvc.SignUp(h.ctx, tc.email, tc.password)
			assert.ErrorIs(t, err, application.ErrEmptyCredentials)

			signIn, signUp, _ := h.auth.calls()
			assert.Zero(t, signIn)
			assert.Zero(t, signUp)

			st := h.state(t)
			assert.False(t, st.Auth.SignIn.Submit.Disabled, "control is never disabled on local failure")
			assert.False(t, st.Auth.SignUp.Submit.Disabled)
		})
	}
}

func TestAuthService_SignUpRejectsShortPassword(t *testing.T) {
	for _, pw := range []string{"a", "abcde", "12345", "ééé", "日本語五"} {
		h := newHarness(t)
		require.NoError(t, h.sessions.Initialize(h.ctx))

		err := h.authSvc.SignUp(h.ctx, "alice@example.com", pw)
		assert.ErrorIs(t, err, application.ErrPasswordTooShort)

		_, signUp, _ := h.auth.calls()
		assert.Zero(t, signUp)
		msg, kind := h.toast(t)
		assert.Equal(t, model.ToastError, kind)
		assert.Contains(t, msg, "6")
	}
}

func TestAuthService_PasswordIsSentAsTyped(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.sessions.Initialize(h.ctx))

	require.NoError(t, h.authSvc.SignUp(h.ctx, "alice@example.com", " pass phrase "))
	assert.Equal(t, " pass phrase ", h.auth.sentPassword())

	require.NoError(t, h.authSvc.SignIn(h.ctx, "alice@example.com", "  hunter22"))
	assert.Equal(t, "  hunter22", h.auth.sentPassword())
}

func TestAuthService_SignUpCountsCharactersNotBytes(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.sessions.Initialize(h.ctx))

	// Six characters, twelve bytes.
	require.NoError(t, h.authSvc.SignUp(h.ctx, "alice@example.com", "éééééé"))
	_, signUp, _ := h.auth.calls()
	assert.Equal(t, 1, signUp)
}

func TestAuthService_SignInBackendErrorRestoresControl(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.sessions.Initialize(h.ctx))
	h.auth.signInErr = &driven.BackendError{Status: 400, Message: "Invalid login credentials"}

	err := h.authSvc.SignIn(h.ctx, " alice@example.com ", "wrong")
	require.Error(t, err)

	st := h.state(t)
	assert.False(t, st.Auth.SignIn.Submit.Disabled)
	assert.Equal(t, "Sign in", st.Auth.SignIn.Submit.Label)
	assert.Equal(t, "alice@example.com", st.Auth.SignIn.Email, "input is kept on failure")

	msg, kind := h.toast(t)
	assert.Equal(t, model.ToastError, kind)
	assert.Equal(t, "Invalid login credentials", msg)
}

func TestAuthService_SignInTransportErrorUsesGenericMessage(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.sessions.Initialize(h.ctx))
	h.auth.signInErr = errBackendDown

	require.Error(t, h.authSvc.SignIn(h.ctx, "alice@example.com", "pw"))

	msg, _ := h.toast(t)
	assert.Equal(t, "Sign in failed.", msg)
}

func TestAuthService_SignInSuccessClearsFields(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.sessions.Initialize(h.ctx))
	require.NoError(t, h.authSvc.TogglePasswordVisibility(h.ctx, model.AuthFormSignIn))

	require.NoError(t, h.authSvc.SignIn(h.ctx, "alice@example.com", "hunter22"))

	st := h.state(t)
	assert.Empty(t, st.Auth.SignIn.Email)
	assert.False(t, st.Auth.SignIn.PasswordVisible)
	msg, kind := h.toast(t)
	assert.Equal(t, model.ToastSuccess, kind)
	assert.Equal(t, "Signed in!", msg)
}

func TestAuthService_SignUpSuccessSwitchesToSignInAfterDelay(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.sessions.Initialize(h.ctx))
	require.NoError(t, h.authSvc.ShowForm(h.ctx, model.AuthFormSignUp))

	require.NoError(t, h.authSvc.SignUp(h.ctx, "alice@example.com", "hunter22"))

	st := h.state(t)
	assert.Equal(t, model.AuthFormSignUp, st.Auth.Form, "form switches only after the delay")
	assert.Empty(t, st.Auth.SignUp.Email)
	assert.True(t, st.Auth.SignUp.Submit.Disabled)

	assert.Eventually(t, func() bool {
		st := h.state(t)
		return st.Auth.Form == model.AuthFormSignIn && !st.Auth.SignUp.Submit.Disabled
	}, 3*time.Second, 20*time.Millisecond)
}

func TestAuthService_SignUpBackendErrorRestoresControl(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.sessions.Initialize(h.ctx))
	h.auth.signUpErr = &driven.BackendError{Status: 422, Message: "User already registered"}

	require.Error(t, h.authSvc.SignUp(h.ctx, "alice@example.com", "hunter22"))

	st := h.state(t)
	assert.False(t, st.Auth.SignUp.Submit.Disabled)
	assert.Equal(t, "Sign up", st.Auth.SignUp.Submit.Label)
	msg, _ := h.toast(t)
	assert.Equal(t, "User already registered", msg)
}

func TestAuthService_TogglePasswordVisibility(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.sessions.Initialize(h.ctx))

	require.NoError(t, h.authSvc.TogglePasswordVisibility(h.ctx, model.AuthFormSignUp))
	st := h.state(t)
	assert.True(t, st.Auth.SignUp.PasswordVisible)
	assert.False(t, st.Auth.SignIn.PasswordVisible)

	require.NoError(t, h.authSvc.TogglePasswordVisibility(h.ctx, model.AuthFormSignUp))
	assert.False(t, h.state(t).Auth.SignUp.PasswordVisible)
}

func TestAuthService_SignOutReturnsToAuthViaEvent(t *testing.T) {
	h := newHarness(t)
	h.signedIn(t, alice)

	require.NoError(t, h.authSvc.SignOut(h.ctx))

	assert.Eventually(t, func() bool {
		return h.state(t).View == model.ViewAuth
	}, time.Second, 5*time.Millisecond)
	msg, kind := h.toast(t)
	assert.Equal(t, model.ToastSuccess, kind)
	assert.Equal(t, "Signed out!", msg)
}
