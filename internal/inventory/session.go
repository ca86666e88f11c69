package inventory

// Session identifies the caller of a service operation.
type Session interface {
	AccountID() int64
	IsAdmin() bool
	IsAuthenticated() bool
}

func requireSession(s Session) error {
	if s == nil || !s.IsAuthenticated() || s.AccountID() <= 0 {
		return ErrUnauthenticated
	}
	return nil
}

func requireAdmin(s Session) error {
	if err := requireSession(s); err != nil {
		return err
	}
	if !s.IsAdmin() {
		return ErrForbidden
	}
	return nil
}
