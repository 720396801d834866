package domain

// Session is a snapshot of the authenticated state shared by every consumer.
// User and Token are either both set or both absent.
type Session struct {
	User     *User  `json:"user"`
	Token    string `json:"token"`
	Hydrated bool   `json:"-"`
}

// IsAuthenticated is derived, never stored.
func (s Session) IsAuthenticated() bool {
	return s.User != nil && s.Token != ""
}

// Role returns the role of the current user or an empty role when logged out.
func (s Session) Role() Role {
	if s.User == nil {
		return ""
	}
	return s.User.Role
}

// PersistedSession is the single named record written to device storage.
type PersistedSession struct {
	User    *User  `json:"user"`
	Token   string `json:"token"`
	Version int    `json:"version"`
}

// PersistedSessionVersion is bumped when the record layout changes.
const PersistedSessionVersion = 1

// Complete reports whether the record carries both halves of a session.
func (p *PersistedSession) Complete() bool {
	return p != nil && p.User != nil && p.Token != ""
}
