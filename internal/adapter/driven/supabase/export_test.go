package supabase

import "time"

// SetRefreshCheck shortens the background refresh period in tests.
func (a *Auth) SetRefreshCheck(d time.Duration) {
	a.refreshCheck = d
}
