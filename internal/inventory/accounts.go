package inventory

import (
	"context"
	"errors"
	"strings"

	"github.com/erazemk/zaloga/internal/auth"
	"github.com/erazemk/zaloga/internal/db"
	"github.com/erazemk/zaloga/internal/model"
	"github.com/erazemk/zaloga/internal/store"
)

// SystemLogin is the login of the account disposals are recorded under.
const SystemLogin = "system"

// NewAccount describes an account to create.
type NewAccount struct {
	Name     string `json:"name" validate:"max=100"`
	Surname  string `json:"surname" validate:"max=100"`
	Login    string `json:"login" validate:"required,max=64"`
	Password string `json:"password" validate:"required"`
	Admin    bool   `json:"admin"`
}

// AccountPatch is a sparse account edit. Nil fields are kept.
type AccountPatch struct {
	Name    *string `json:"name,omitempty"`
	Surname *string `json:"surname,omitempty"`
	Admin   *bool   `json:"admin,omitempty"`
}

// AdminSeed is the first administrator created by Initialize.
type AdminSeed struct {
	Login    string
	Password string
}

// Initialize prepares the account directory. On an empty database it
// creates the system account and the first administrator in one
// transaction and reports created = true. On later runs it only loads the
// recorded system account.
func (s *Service) Initialize(ctx context.Context, seed AdminSeed) (created bool, err error) {
	recorded, err := store.GetSystemAccountID(ctx, s.db)
	if err != nil {
		return false, s.classify("initialize", err)
	}

	if recorded == 0 {
		if strings.EqualFold(seed.Login, SystemLogin) {
			return false, invalid("login", "is reserved for the system account")
		}
		if err := model.ValidatePassword(seed.Password); err != nil {
			return false, invalid("password", err.Error())
		}
		hash, err := auth.HashPassword(seed.Password)
		if err != nil {
			return false, &StoreError{Op: "initialize", Err: err}
		}

		err = s.inTx(ctx, "initialize", db.Serializable, func(tx *db.Tx) error {
			systemID, err := store.CreateAccount(ctx, tx, model.Account{
				Name:         "System",
				Login:        SystemLogin,
				PasswordHash: auth.UnusablePasswordHash,
			})
			if err != nil {
				return err
			}
			if err := store.SetSystemAccountID(ctx, tx, systemID); err != nil {
				return err
			}
			if _, err := store.CreateAccount(ctx, tx, model.Account{
				Name:         "Admin",
				Login:        seed.Login,
				PasswordHash: hash,
				Admin:        true,
			}); err != nil {
				return err
			}
			recorded = systemID
			return nil
		})
		if err != nil {
			return false, err
		}
		created = true
		s.log.Info("account directory initialized", "system_account", recorded, "admin", seed.Login)
	}

	if s.systemAccountID == 0 {
		s.systemAccountID = recorded
		return created, nil
	}

	// A configured override must name an existing account.
	a, err := store.GetAccount(ctx, s.db, s.systemAccountID)
	if err != nil {
		return created, s.classify("initialize", err)
	}
	if a == nil {
		return created, notFound("system account", s.systemAccountID)
	}
	return created, nil
}

// Authenticate returns the account matching login and password. The system
// account never authenticates.
func (s *Service) Authenticate(ctx context.Context, login, password string) (*model.Account, error) {
	a, err := store.GetAccountByLogin(ctx, s.db, login)
	if err != nil {
		return nil, s.classify("authenticate", err)
	}
	if a == nil || a.ID == s.systemAccountID || !auth.CheckPassword(a.PasswordHash, password) {
		return nil, ErrUnauthenticated
	}
	return a, nil
}

// CreateAccount adds an account. Logins are unique.
func (s *Service) CreateAccount(ctx context.Context, sess Session, in NewAccount) (*model.Account, error) {
	if err := requireAdmin(sess); err != nil {
		return nil, err
	}
	in.Login = strings.TrimSpace(in.Login)
	if err := s.check(in); err != nil {
		return nil, err
	}
	if err := model.ValidatePassword(in.Password); err != nil {
		return nil, invalid("password", err.Error())
	}
	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, &StoreError{Op: "create account", Err: err}
	}

	account := model.Account{
		Name:         in.Name,
		Surname:      in.Surname,
		Login:        in.Login,
		PasswordHash: hash,
		Admin:        in.Admin,
	}
	err = s.inTx(ctx, "create account", db.Serializable, func(tx *db.Tx) error {
		existing, err := store.GetAccountByLogin(ctx, tx, in.Login)
		if err != nil {
			return err
		}
		if existing != nil {
			return conflict("login %q is taken", in.Login)
		}

		id, err := store.CreateAccount(ctx, tx, account)
		account.ID = id
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("account created", "account", sess.AccountID(), "created", account.ID, "login", account.Login)
	return s.GetAccount(ctx, account.ID)
}

// UpdateAccount edits an account's names and admin flag. The system account
// cannot be edited.
func (s *Service) UpdateAccount(ctx context.Context, sess Session, id int64, patch AccountPatch) (*model.Account, error) {
	if err := requireAdmin(sess); err != nil {
		return nil, err
	}
	if id == s.systemAccountID {
		return nil, invalid("id", "the system account cannot be modified")
	}
	if id == sess.AccountID() && patch.Admin != nil && !*patch.Admin {
		return nil, invalid("admin", "cannot revoke your own administrator role")
	}

	var updated model.Account
	err := s.inTx(ctx, "update account", db.ReadCommitted, func(tx *db.Tx) error {
		current, err := store.GetAccount(ctx, tx, id)
		if err != nil {
			return err
		}
		if current == nil {
			return notFound("account", id)
		}

		updated = *current
		if patch.Name != nil {
			updated.Name = *patch.Name
		}
		if patch.Surname != nil {
			updated.Surname = *patch.Surname
		}
		if patch.Admin != nil {
			updated.Admin = *patch.Admin
		}
		return store.UpdateAccount(ctx, tx, updated)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("account updated", "account", sess.AccountID(), "updated", id)
	return &updated, nil
}

// SetPassword changes an account's password. Administrators may change any
// password; others only their own and only with the current password.
func (s *Service) SetPassword(ctx context.Context, sess Session, id int64, current, next string) error {
	if err := requireSession(sess); err != nil {
		return err
	}
	self := id == sess.AccountID()
	if !self && !sess.IsAdmin() {
		return ErrForbidden
	}
	if id == s.systemAccountID {
		return invalid("id", "the system account has no password")
	}
	if err := model.ValidatePassword(next); err != nil {
		return invalid("new_password", err.Error())
	}

	a, err := store.GetAccount(ctx, s.db, id)
	if err != nil {
		return s.classify("set password", err)
	}
	if a == nil {
		return notFound("account", id)
	}
	if self && !auth.CheckPassword(a.PasswordHash, current) {
		return invalid("current_password", "is incorrect")
	}

	hash, err := auth.HashPassword(next)
	if err != nil {
		return &StoreError{Op: "set password", Err: err}
	}
	err = s.inTx(ctx, "set password", db.ReadCommitted, func(tx *db.Tx) error {
		err := store.UpdateAccountPassword(ctx, tx, id, hash)
		if errors.Is(err, store.ErrNoRows) {
			return notFound("account", id)
		}
		return err
	})
	if err != nil {
		return err
	}

	s.log.Info("password changed", "account", sess.AccountID(), "target", id)
	return nil
}

// DeleteAccount removes an account. Moves it performed are reassigned to
// replacement, which is required when there are any.
func (s *Service) DeleteAccount(ctx context.Context, sess Session, id int64, replacement *int64) error {
	if err := requireAdmin(sess); err != nil {
		return err
	}
	switch {
	case id == s.systemAccountID:
		return invalid("id", "the system account cannot be deleted")
	case id == sess.AccountID():
		return invalid("id", "cannot delete your own account")
	case replacement != nil && *replacement == id:
		return invalid("replacement", "must differ from the account being deleted")
	}

	var moved int64
	err := s.inTx(ctx, "delete account", db.Serializable, func(tx *db.Tx) error {
		current, err := store.GetAccount(ctx, tx, id)
		if err != nil {
			return err
		}
		if current == nil {
			return notFound("account", id)
		}

		count, err := store.CountMovesByAccount(ctx, tx, id)
		if err != nil {
			return err
		}
		if count > 0 {
			if replacement == nil {
				return invalid("replacement", "account has recorded moves; a replacement account is required")
			}
			heir, err := store.GetAccount(ctx, tx, *replacement)
			if err != nil {
				return err
			}
			if heir == nil {
				return notFound("account", *replacement)
			}
			if moved, err = store.ReassignMoves(ctx, tx, id, *replacement); err != nil {
				return err
			}
		}

		return store.DeleteAccount(ctx, tx, id)
	})
	if err != nil {
		return err
	}

	s.log.Info("account deleted", "account", sess.AccountID(), "deleted", id, "moves_reassigned", moved)
	return nil
}

// GetAccount returns an account by ID.
func (s *Service) GetAccount(ctx context.Context, id int64) (*model.Account, error) {
	a, err := store.GetAccount(ctx, s.db, id)
	if err != nil {
		return nil, s.classify("get account", err)
	}
	if a == nil {
		return nil, notFound("account", id)
	}
	return a, nil
}

// ListAccounts returns every account, the system account included.
func (s *Service) ListAccounts(ctx context.Context) ([]model.Account, error) {
	accounts, err := store.ListAccounts(ctx, s.db)
	if err != nil {
		return nil, s.classify("list accounts", err)
	}
	return accounts, nil
}
