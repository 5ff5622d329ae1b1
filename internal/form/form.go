// Package form implements the contact form: it validates a submission,
// rejects names that are already in the contact book, and hands new
// contacts to its owner through a callback.
package form

import (
	"context"

	"github.com/conneroisu/contactbook/internal/contact"
	"github.com/conneroisu/contactbook/internal/errors"
	"github.com/conneroisu/contactbook/internal/logging"
	"github.com/conneroisu/contactbook/internal/notify"
)

// AddFunc receives a newly created contact.
type AddFunc func(contact.Contact)

// Outcome is the result category of a submission.
type Outcome int

const (
	// OutcomeInvalid means at least one field failed validation.
	OutcomeInvalid Outcome = iota
	// OutcomeDuplicate means the name is already in the contact book.
	OutcomeDuplicate
	// OutcomeAdded means a contact was created and passed to the owner.
	OutcomeAdded
)

// String returns the string representation of the outcome
func (o Outcome) String() string {
	switch o {
	case OutcomeInvalid:
		return "invalid"
	case OutcomeDuplicate:
		return "duplicate"
	case OutcomeAdded:
		return "added"
	default:
		return "unknown"
	}
}

// Result describes what a submission did.
type Result struct {
	Outcome Outcome
	// Contact is set only for OutcomeAdded.
	Contact contact.Contact
	// Errors is set only for OutcomeInvalid.
	Errors contact.FieldErrors
	// Values is what the form shows next: the submitted values, or empty
	// after a successful add.
	Values contact.Input
}

// State returns the view state that follows this result.
func (r Result) State() State {
	return State{Values: r.Values, Errors: r.Errors}
}

// DuplicateMessage is the warning shown when name is already present.
func DuplicateMessage(name string) string {
	return name + " is already in contacts."
}

// AddedMessage is the confirmation shown after name was added.
func AddedMessage(name string) string {
	return "Contact " + name + " is added!"
}

// Form is the contact form component.
type Form struct {
	onAdd    AddFunc
	notifier notify.Notifier
	ids      contact.IDGenerator
	logger   logging.Logger
	action   string
}

// Option configures a Form.
type Option func(*Form)

// WithIDGenerator replaces the UUID generator.
func WithIDGenerator(gen contact.IDGenerator) Option {
	return func(f *Form) {
		f.ids = gen
	}
}

// WithLogger sets the logger.
func WithLogger(logger logging.Logger) Option {
	return func(f *Form) {
		f.logger = logger.WithComponent("form")
	}
}

// WithAction sets the URL the rendered form posts to.
func WithAction(action string) Option {
	return func(f *Form) {
		f.action = action
	}
}

// New creates a Form that reports new contacts to onAdd and messages to
// notifier.
func New(onAdd AddFunc, notifier notify.Notifier, opts ...Option) *Form {
	f := &Form{
		onAdd:    onAdd,
		notifier: notifier,
		ids:      contact.UUIDGenerator{},
		logger:   logging.NewNopLogger(),
		action:   "/contacts",
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Submit validates in, checks its name against existing and, if both pass,
// creates the contact and passes it to the owner. The only error is a
// failure to find an unused id.
func (f *Form) Submit(ctx context.Context, in contact.Input, existing contact.Snapshot) (Result, error) {
	if errs := contact.Validate(in); len(errs) > 0 {
		f.logger.Debug(ctx, "Submission rejected", "outcome", OutcomeInvalid.String(), "fields", len(errs))
		return Result{Outcome: OutcomeInvalid, Errors: errs, Values: in}, nil
	}

	normalized := in.Normalize()

	if _, found := existing.FindByName(normalized.Name); found {
		f.notifier.Warn(DuplicateMessage(normalized.Name))
		f.logger.Info(ctx, "Duplicate contact name", "name", normalized.Name)
		return Result{Outcome: OutcomeDuplicate, Values: in}, nil
	}

	id, ok := contact.FreshID(f.ids, existing)
	if !ok {
		err := errors.NewInternalError(errors.ErrCodeInternalError, "could not generate an unused contact id", nil)
		f.logger.Error(ctx, err, "Submission failed")
		return Result{}, err
	}

	created := contact.Contact{
		ID:     id,
		Name:   normalized.Name,
		Number: normalized.Number,
	}
	f.onAdd(created)
	f.notifier.Success(AddedMessage(created.Name))
	f.logger.Info(ctx, "Contact added", "id", created.ID, "name", created.Name)

	return Result{Outcome: OutcomeAdded, Contact: created}, nil
}
