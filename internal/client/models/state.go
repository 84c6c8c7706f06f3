package models

// State is a snapshot of the session store.
//
// CurrentProfile is non-nil only when CurrentUser is non-nil.
type State struct {
	CurrentUser    *User
	CurrentProfile *Profile
	IsLoading      bool
}

// SignedIn reports whether a user is present.
func (s State) SignedIn() bool {
	return s.CurrentUser != nil
}
