package web

import (
	"net/url"

	vm "github.com/ericfisherdev/vaultpanel/internal/adapter/driving/web/viewmodel"
	"github.com/ericfisherdev/vaultpanel/internal/application"
	"github.com/ericfisherdev/vaultpanel/internal/domain/model"
)

const (
	pageTitle = "vaultpanel"

	// loadingReloadMS re-polls a page rendered before the entry list landed.
	loadingReloadMS = 300

	// signUpReloadMS re-polls the sign-up form while it waits to switch to
	// sign-in.
	signUpReloadMS = 1600
)

// toPageViewModel converts a consistent application snapshot into the page
// view model.
func toPageViewModel(st application.PageState, csrf string) vm.PageViewModel {
	page := vm.PageViewModel{
		Title:     pageTitle,
		CSRFToken: csrf,
		View:      string(st.View),
		Auth:      toAuthViewModel(st.Auth),
		Toast:     toToastViewModel(st.Toast),
	}

	if st.View == model.ViewApp {
		page.Vault = toVaultViewModel(st.Vault, st.Auth.SignOut)
		if !st.Vault.Loaded {
			page.ReloadAfterMS = loadingReloadMS
		}
		return page
	}

	if st.Auth.Form == model.AuthFormSignUp && st.Auth.SignUp.Submit.Busy {
		page.ReloadAfterMS = signUpReloadMS
	}
	return page
}

func toButton(c application.ControlState) vm.ButtonViewModel {
	return vm.ButtonViewModel{Label: c.Label, Disabled: c.Disabled, Busy: c.Busy}
}

func toAuthViewModel(a application.AuthState) vm.AuthViewModel {
	return vm.AuthViewModel{
		ShowSignUp: a.Form == model.AuthFormSignUp,
		SignIn: vm.AuthFormViewModel{
			Action:          "/auth/signin",
			Email:           a.SignIn.Email,
			PasswordVisible: a.SignIn.PasswordVisible,
			Submit:          toButton(a.SignIn.Submit),
		},
		SignUp: vm.AuthFormViewModel{
			Action:            "/auth/signup",
			Email:             a.SignUp.Email,
			PasswordVisible:   a.SignUp.PasswordVisible,
			Submit:            toButton(a.SignUp.Submit),
			MinPasswordLength: application.MinSignUpPasswordLength,
		},
	}
}

func toVaultViewModel(v application.VaultState, signOut application.ControlState) vm.VaultViewModel {
	entries := make([]vm.EntryViewModel, 0, len(v.Rows))
	for _, row := range v.Rows {
		entries = append(entries, toEntryViewModel(row))
	}

	return vm.VaultViewModel{
		Email:              v.Email,
		Loaded:             v.Loaded,
		Entries:            entries,
		ServiceInput:       v.ServiceInput,
		SecretInput:        v.SecretInput,
		SecretInputVisible: v.SecretInputVisible,
		Save:               toButton(v.Save),
		DeleteAll:          toButton(v.DeleteAll),
		DeleteAccount:      toButton(v.DeleteAccount),
		SignOut:            toButton(signOut),
	}
}

func toEntryViewModel(row application.EntryRow) vm.EntryViewModel {
	base := entryPath(row.ID)
	return vm.EntryViewModel{
		ID:          row.ID,
		ServiceName: row.ServiceName,
		Display:     row.Display,
		Revealed:    row.Revealed,
		Deleting:    row.Deleting,
		RevealURL:   base + "/reveal",
		CopyURL:     base + "/copy",
		DeleteURL:   base + "/delete",
	}
}

func entryPath(id string) string {
	return "/app/entries/" + url.PathEscape(id)
}

func toToastViewModel(t *application.ToastState) *vm.ToastViewModel {
	if t == nil {
		return nil
	}
	return &vm.ToastViewModel{
		ID:          t.ID,
		Message:     SanitizeMessage(t.Message),
		Kind:        string(t.Kind),
		Phase:       string(t.Phase),
		RemainingMS: t.Remaining.Milliseconds(),
		ExitMS:      application.ToastExitDuration.Milliseconds(),
	}
}
