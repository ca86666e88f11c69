// Package inventory implements the stock ledger operations (supply and
// offtake) and the directory of items, categories and accounts on top of
// the store package. Every mutation runs in exactly one transaction.
package inventory

import (
	"context"
	"errors"
	"log/slog"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/erazemk/zaloga/internal/db"
	"github.com/erazemk/zaloga/internal/metrics"
	"github.com/erazemk/zaloga/internal/model"
	"github.com/erazemk/zaloga/internal/store"
)

// DefaultTxRetries is how many times a transaction is attempted when it
// keeps losing serialization races.
const DefaultTxRetries = 3

// Options configures a Service.
type Options struct {
	// SystemAccountID overrides the system account recorded in the
	// database. Zero means use the recorded one.
	SystemAccountID int64
	TxRetries       int
	Metrics         *metrics.Metrics
	Logger          *slog.Logger
	Now             func() time.Time
}

// Service is the entry point for every inventory operation.
type Service struct {
	db              *db.DB
	systemAccountID int64
	retries         int
	metrics         *metrics.Metrics
	log             *slog.Logger
	now             func() time.Time
	validate        *validator.Validate
}

// New creates a Service. Initialize must run before ledger operations so the
// system account is known.
func New(database *db.DB, opts Options) *Service {
	if opts.TxRetries <= 0 {
		opts.TxRetries = DefaultTxRetries
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Service{
		db:              database,
		systemAccountID: opts.SystemAccountID,
		retries:         opts.TxRetries,
		metrics:         opts.Metrics,
		log:             opts.Logger,
		now:             opts.Now,
		validate:        newValidator(),
	}
}

// SystemAccountID returns the account that disposals are recorded under.
func (s *Service) SystemAccountID() int64 {
	return s.systemAccountID
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	// Dates validate as their text form so "required" rejects the zero date.
	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		d, ok := field.Interface().(model.Date)
		if !ok || d.IsZero() {
			return ""
		}
		return d.String()
	}, model.Date{})
	return v
}

// check validates input against its struct tags and reports the first
// offending field.
func (s *Service) check(input any) error {
	err := s.validate.Struct(input)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		// Drop the struct name: "OfftakeInput.debits[0].amount" -> "debits[0].amount".
		_, field, _ := strings.Cut(fe.Namespace(), ".")
		return invalid(field, describeTag(fe))
	}
	return invalid("", err.Error())
}

func describeTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "gt":
		return "must be greater than " + fe.Param()
	case "gte":
		return "must be at least " + fe.Param()
	case "min":
		return "must have at least " + fe.Param() + " entries"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	}
	return "failed " + fe.Tag() + " check"
}

// inTx runs fn in a transaction and retries it when the store reports a
// serialization conflict. Errors of a known kind pass through unchanged;
// anything else is reported as a store failure of op.
func (s *Service) inTx(ctx context.Context, op string, level db.Isolation, fn func(*db.Tx) error) error {
	var err error
	for attempt := 1; attempt <= s.retries; attempt++ {
		err = s.db.WithTx(ctx, level, fn)
		if err == nil || !db.IsSerializationFailure(err) {
			break
		}
		s.metrics.ObserveConflict()
		s.log.Warn("transaction conflict, retrying", "op", op, "attempt", attempt, "error", err)
	}
	if err == nil {
		return nil
	}
	if db.IsSerializationFailure(err) {
		return conflict("%s: gave up after %d attempts", op, s.retries)
	}
	return s.classify(op, err)
}

// classify maps an error from the store onto one of the error kinds.
func (s *Service) classify(op string, err error) error {
	switch {
	case isKind(err):
		return err
	case db.IsUniqueViolation(err):
		return conflict("%s: already exists", op)
	case db.IsSerializationFailure(err):
		return conflict("%s: concurrent update", op)
	}
	s.log.Error("store failure", "op", op, "error", err)
	return &StoreError{Op: op, Err: err}
}

func isKind(err error) bool {
	for _, kind := range []error{
		ErrValidation, ErrNotFound, ErrInsufficientStock, ErrConflict,
		ErrUnauthenticated, ErrForbidden, ErrStore,
	} {
		if errors.Is(err, kind) {
			return true
		}
	}
	return false
}

// liveItem loads an item that has not been tombstoned.
func liveItem(ctx context.Context, q db.Querier, id int64) (*model.Item, error) {
	item, err := store.GetItem(ctx, q, id)
	if err != nil {
		return nil, err
	}
	if item == nil || item.DeletedAt != nil {
		return nil, notFound("item", id)
	}
	return item, nil
}
