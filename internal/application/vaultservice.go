package application

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/ericfisherdev/vaultpanel/internal/domain/model"
	"github.com/ericfisherdev/vaultpanel/internal/domain/port/driven"
)

// MaskedSecret is rendered in place of a hidden secret.
const MaskedSecret = "••••••••"

// Acknowledgement records the two sequential confirmations required before
// a bulk destructive operation.
type Acknowledgement struct {
	Warning bool
	Final   bool
}

// Confirmed reports whether both confirmations were given.
func (a Acknowledgement) Confirmed() bool {
	return a.Warning && a.Final
}

// EntryRow is the render-ready state of one listed entry.
type EntryRow struct {
	ID          string
	ServiceName string
	// Display is the masked placeholder, or the secret when Revealed.
	Display  string
	Revealed bool
	Deleting bool
}

// VaultState is the render-ready state of the App view.
type VaultState struct {
	Email string
	// Loaded is false until the first successful load for this session.
	Loaded bool
	Rows   []EntryRow

	ServiceInput       string
	SecretInput        string
	SecretInputVisible bool
	Save               ControlState
	DeleteAll          ControlState
	DeleteAccount      ControlState
}

type vaultRow struct {
	entry    model.Entry
	revealed bool
	deleting bool
}

// VaultService implements the credential store view. It keeps the rendered
// list consistent with the backend: every successful mutation is followed by
// a fresh owner-scoped load, and responses that outlive their session are
// discarded.
type VaultService struct {
	sessions  *SessionController
	store     driven.EntryStore
	auth      driven.AuthBackend
	deleter   driven.AccountDeleter
	clipboard driven.Clipboard
	dispatch  *Dispatcher
	notifier  *Notifier
	logger    *slog.Logger

	// loadSeq numbers loads as they start; appliedLoad is the newest one
	// whose list was rendered. Both only grow.
	loadSeq     uint64
	appliedLoad uint64

	// owner is the user the rendered rows belong to.
	owner              string
	loaded             bool
	rows               []vaultRow
	serviceInput       string
	secretInput        string
	secretInputVisible bool
	save               Control
	deleteAll          Control
	deleteAccount      Control
}

// NewVaultService creates a VaultService with all required dependencies.
func NewVaultService(
	sessions *SessionController,
	store driven.EntryStore,
	auth driven.AuthBackend,
	deleter driven.AccountDeleter,
	clipboard driven.Clipboard,
	dispatch *Dispatcher,
	notifier *Notifier,
	logger *slog.Logger,
) *VaultService {
	s := &VaultService{
		sessions:  sessions,
		store:     store,
		auth:      auth,
		deleter:   deleter,
		clipboard: clipboard,
		dispatch:  dispatch,
		notifier:  notifier,
		logger:    logger,
	}
	s.ResetState()
	return s
}

// LoadEntries fetches the current user's entries, newest first, and replaces
// the rendered list. On failure the previous list is kept.
func (s *VaultService) LoadEntries(ctx context.Context) error {
	ctx = context.WithoutCancel(ctx)

	var (
		snap SessionSnapshot
		seq  uint64
	)
	if err := s.dispatch.Do(ctx, func() {
		snap = s.sessions.snapshot()
		if snap.Active {
			seq = s.beginLoad()
		}
	}); err != nil {
		return err
	}
	if !snap.Active {
		return ErrNoSession
	}
	return s.load(ctx, snap, seq)
}

// beginLoad must be called on the dispatch loop.
func (s *VaultService) beginLoad() uint64 {
	s.loadSeq++
	return s.loadSeq
}

// load fetches the list for snap and renders it unless the session changed
// or a load that started later has already been rendered.
func (s *VaultService) load(ctx context.Context, snap SessionSnapshot, seq uint64) error {
	entries, err := s.store.ListByOwner(ctx, snap.Session)

	var result error
	_ = s.dispatch.Do(ctx, func() {
		if !s.sessions.isCurrent(snap) {
			s.logger.Debug("dropping stale entry list", "epoch", snap.Epoch)
			result = ErrStaleResponse
			return
		}
		if seq <= s.appliedLoad {
			s.logger.Debug("dropping superseded entry list", "load", seq, "applied", s.appliedLoad)
			return
		}
		if err != nil {
			s.logger.Error("failed to load entries", "error", err)
			s.notifier.Error("Could not load your passwords.")
			result = err
			return
		}

		rows := make([]vaultRow, 0, len(entries))
		for _, e := range entries {
			if e.OwnerUserID != snap.Session.UserID {
				s.logger.Warn("dropping entry owned by another user", "entry_id", e.ID)
				continue
			}
			rows = append(rows, vaultRow{entry: e})
		}
		s.rows = rows
		s.owner = snap.Session.UserID
		s.loaded = true
		s.appliedLoad = seq
	})
	return result
}

// AddEntry validates the input locally and inserts a new entry for the
// current user, then reloads the list.
func (s *VaultService) AddEntry(ctx context.Context, serviceInput, secretInput string) error {
	ctx = context.WithoutCancel(ctx)
	serviceName := strings.TrimSpace(serviceInput)
	secret := strings.TrimSpace(secretInput)

	var (
		snap SessionSnapshot
		err  error
	)
	if doErr := s.dispatch.Do(ctx, func() {
		s.serviceInput = serviceInput
		s.secretInput = secretInput
		if serviceName == "" || secret == "" {
			err = ErrEmptyEntry
			s.notifier.Error("Enter both a service name and a password.")
			return
		}
		snap = s.sessions.snapshot()
		if !snap.Active {
			err = ErrNoSession
			s.notifier.Error("You are not signed in.")
			return
		}
		err = s.save.begin()
	}); doErr != nil {
		return doErr
	}
	if err != nil {
		return err
	}

	err = s.store.Insert(ctx, snap.Session, model.NewEntry{
		OwnerUserID: snap.Session.UserID,
		ServiceName: serviceName,
		Secret:      secret,
	})

	var (
		stale bool
		seq   uint64
	)
	_ = s.dispatch.Do(ctx, func() {
		s.save.end()
		if !s.sessions.isCurrent(snap) {
			stale = true
			return
		}
		if err != nil {
			s.notifier.Error("Could not save the password: " + errorDetail(err))
			return
		}
		s.serviceInput = ""
		s.secretInput = ""
		s.secretInputVisible = false
		s.notifier.Success("Password saved!")
		seq = s.beginLoad()
	})
	if stale {
		s.logger.Debug("dropping stale insert response", "epoch", snap.Epoch)
		return ErrStaleResponse
	}
	if err != nil {
		s.logger.Error("failed to insert entry", "error", err)
		return err
	}

	return s.load(ctx, snap, seq)
}

// ToggleSecretInputVisibility flips the masked/plain rendering of the add
// form's password field.
func (s *VaultService) ToggleSecretInputVisibility(ctx context.Context) error {
	return s.dispatch.Do(ctx, func() {
		s.secretInputVisible = !s.secretInputVisible
	})
}

// ToggleReveal flips one row between the masked placeholder and its secret.
// It never contacts the backend.
func (s *VaultService) ToggleReveal(ctx context.Context, entryID string) error {
	var err error
	if doErr := s.dispatch.Do(ctx, func() {
		row := s.row(entryID)
		if row == nil {
			err = ErrEntryNotFound
			return
		}
		row.revealed = !row.revealed
	}); doErr != nil {
		return doErr
	}
	return err
}

// Copy writes an entry's secret to the clipboard. A clipboard failure is
// reported like any other failure.
func (s *VaultService) Copy(ctx context.Context, entryID string) error {
	var (
		secret string
		err    error
	)
	if doErr := s.dispatch.Do(ctx, func() {
		row := s.row(entryID)
		if row == nil {
			err = ErrEntryNotFound
			return
		}
		secret = row.entry.Secret
	}); doErr != nil {
		return doErr
	}
	if err != nil {
		return err
	}

	err = s.clipboard.WriteText(secret)

	_ = s.dispatch.Do(ctx, func() {
		if err != nil {
			s.notifier.Error("Could not copy the password.")
			return
		}
		s.notifier.Success("Password copied!")
	})
	if err != nil {
		s.logger.Error("clipboard write failed", "error", err)
	}
	return err
}

// DeletePrompt returns the confirmation prompt for deleting one entry. It
// names the entry's service.
func (s *VaultService) DeletePrompt(ctx context.Context, entryID string) (string, error) {
	var (
		prompt string
		err    error
	)
	if doErr := s.dispatch.Do(ctx, func() {
		row := s.row(entryID)
		if row == nil {
			err = ErrEntryNotFound
			return
		}
		prompt = deleteEntryPrompt(row.entry.ServiceName)
	}); doErr != nil {
		return "", doErr
	}
	return prompt, err
}

// DeleteEntry deletes one entry after the user confirmed it, then reloads
// the list.
func (s *VaultService) DeleteEntry(ctx context.Context, entryID string, confirmed bool) error {
	if !confirmed {
		return ErrNotConfirmed
	}
	ctx = context.WithoutCancel(ctx)

	var (
		snap SessionSnapshot
		err  error
	)
	if doErr := s.dispatch.Do(ctx, func() {
		snap = s.sessions.snapshot()
		if !snap.Active {
			err = ErrNoSession
			return
		}
		row := s.row(entryID)
		if row == nil {
			err = ErrEntryNotFound
			return
		}
		if row.deleting {
			err = ErrControlBusy
			return
		}
		row.deleting = true
	}); doErr != nil {
		return doErr
	}
	if err != nil {
		return err
	}

	err = s.store.DeleteByID(ctx, snap.Session, entryID)

	var (
		stale bool
		seq   uint64
	)
	_ = s.dispatch.Do(ctx, func() {
		if row := s.row(entryID); row != nil {
			row.deleting = false
		}
		if !s.sessions.isCurrent(snap) {
			stale = true
			return
		}
		if err != nil {
			s.notifier.Error("Could not delete the password.")
			return
		}
		s.notifier.Success("Password deleted.")
		seq = s.beginLoad()
	})
	if stale {
		return ErrStaleResponse
	}
	if err != nil {
		s.logger.Error("failed to delete entry", "entry_id", entryID, "error", err)
		return err
	}

	return s.load(ctx, snap, seq)
}

// DeleteAll deletes every entry owned by the current user after both
// confirmations, then reloads the list. The control is restored whatever the
// outcome.
func (s *VaultService) DeleteAll(ctx context.Context, ack Acknowledgement) error {
	if !ack.Confirmed() {
		return ErrNotConfirmed
	}
	ctx = context.WithoutCancel(ctx)

	var (
		snap SessionSnapshot
		err  error
	)
	if doErr := s.dispatch.Do(ctx, func() {
		snap = s.sessions.snapshot()
		if !snap.Active {
			err = ErrNoSession
			s.notifier.Error("You are not signed in.")
			return
		}
		err = s.deleteAll.begin()
	}); doErr != nil {
		return doErr
	}
	if err != nil {
		return err
	}

	err = s.store.DeleteByOwner(ctx, snap.Session)

	var (
		stale bool
		seq   uint64
	)
	_ = s.dispatch.Do(ctx, func() {
		defer s.deleteAll.end()
		if !s.sessions.isCurrent(snap) {
			stale = true
			return
		}
		if err != nil {
			s.notifier.Error("Could not delete your passwords: " + errorDetail(err))
			return
		}
		s.notifier.Success("All passwords deleted!")
		seq = s.beginLoad()
	})
	if stale {
		return ErrStaleResponse
	}
	if err != nil {
		s.logger.Error("failed to delete all entries", "error", err)
		return err
	}

	return s.load(ctx, snap, seq)
}

// DeleteAccount irreversibly deletes the user's account after both
// confirmations. It authenticates with the backend's current session token;
// without one no request is sent. On success the user is signed out and all
// in-memory state is discarded.
func (s *VaultService) DeleteAccount(ctx context.Context, ack Acknowledgement) error {
	if !ack.Confirmed() {
		return ErrNotConfirmed
	}
	ctx = context.WithoutCancel(ctx)

	var err error
	if doErr := s.dispatch.Do(ctx, func() { err = s.deleteAccount.begin() }); doErr != nil {
		return doErr
	}
	if err != nil {
		return err
	}

	err = s.requestAccountDeletion(ctx)
	if err != nil {
		_ = s.dispatch.Do(ctx, func() {
			s.deleteAccount.end()
			if errors.Is(err, ErrNoSession) {
				s.notifier.Error("Error: your session is no longer valid.")
				return
			}
			s.notifier.Error("Error: " + backendMessage(err, "account deletion failed."))
		})
		s.logger.Error("account deletion failed", "error", err)
		return err
	}

	s.logger.Info("account deleted")
	if signOutErr := s.auth.SignOut(ctx); signOutErr != nil {
		s.logger.Warn("sign out after account deletion failed", "error", signOutErr)
	}
	return s.sessions.Reset(ctx)
}

func (s *VaultService) requestAccountDeletion(ctx context.Context) error {
	sess, err := s.auth.GetSession(ctx)
	if err != nil {
		return errors.Join(ErrNoSession, err)
	}
	if sess == nil || !sess.HasToken() {
		return ErrNoSession
	}
	return s.deleter.DeleteAccount(ctx, sess.AccessToken)
}

// row must be called on the dispatch loop.
func (s *VaultService) row(entryID string) *vaultRow {
	for i := range s.rows {
		if s.rows[i].entry.ID == entryID {
			return &s.rows[i]
		}
	}
	return nil
}

// state must be called on the dispatch loop.
func (s *VaultService) state(email string) VaultState {
	rows := make([]EntryRow, 0, len(s.rows))
	for _, r := range s.rows {
		display := MaskedSecret
		if r.revealed {
			display = r.entry.Secret
		}
		rows = append(rows, EntryRow{
			ID:          r.entry.ID,
			ServiceName: r.entry.ServiceName,
			Display:     display,
			Revealed:    r.revealed,
			Deleting:    r.deleting,
		})
	}

	return VaultState{
		Email:              email,
		Loaded:             s.loaded,
		Rows:               rows,
		ServiceInput:       s.serviceInput,
		SecretInput:        s.secretInput,
		SecretInputVisible: s.secretInputVisible,
		Save:               s.save.State(),
		DeleteAll:          s.deleteAll.State(),
		DeleteAccount:      s.deleteAccount.State(),
	}
}

// ViewActivated implements ViewListener. Activating App re-fetches the list
// for the activating session; activating Auth stops rendering entries.
func (s *VaultService) ViewActivated(view model.View, snap SessionSnapshot) {
	if view != model.ViewApp || s.owner != snap.Session.UserID {
		s.rows = nil
		s.owner = ""
		s.loaded = false
	}
	if view != model.ViewApp {
		return
	}
	seq := s.beginLoad()
	go func() {
		if err := s.load(context.Background(), snap, seq); err != nil && !errors.Is(err, ErrStaleResponse) {
			s.logger.Warn("entry load after sign in failed", "error", err)
		}
	}()
}

// ResetState implements ViewListener.
func (s *VaultService) ResetState() {
	s.owner = ""
	s.loaded = false
	s.rows = nil
	s.serviceInput = ""
	s.secretInput = ""
	s.secretInputVisible = false
	s.save = newControl("Save password", "Saving...")
	s.deleteAll = newControl("Delete all", "Deleting...")
	s.deleteAccount = newControl("Delete account", "Deleting account...")
}
