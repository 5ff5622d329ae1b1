package contact

import (
	"regexp"
	"strings"

	"github.com/conneroisu/contactbook/internal/errors"
)

// Field names as they appear in the form.
const (
	FieldName   = "name"
	FieldNumber = "number"
)

// Messages shown next to a field that failed validation.
const (
	MessageNameRequired   = "Name is a required field"
	MessageNameInvalid    = "Name may contain only letters, apostrophe, dash and spaces. For example Adrian, Jacob Mercer, Charles de Batz de Castelmore d'Artagnan"
	MessageNumberRequired = "Number is a required field"
	MessageNumberInvalid  = "Phone number must be digits and can contain spaces, dashes, parentheses and can start with +"
)

var (
	// A capital Latin first letter, then Latin or Cyrillic letters with optional
	// apostrophe, dash or space separators.
	namePattern = regexp.MustCompile(`^[A-Z][a-zA-Zа-яА-Я]+(([' -][a-zA-Zа-яА-Я ])?[a-zA-Zа-яА-Я]*)*$`)

	// Loose phone shape: groups of digits with optional - . space and
	// parentheses between them. Searched, not anchored.
	numberPattern = regexp.MustCompile(`\+?\d{1,4}?[-.\s]?\(?\d{1,3}?\)?[-.\s]?\d{1,4}[-.\s]?\d{1,4}[-.\s]?\d{1,9}`)

	// Every character of a number must be a digit, a space or one of ().-,
	// with + only in front.
	numberCharset = regexp.MustCompile(`^\+?[\d ().-]+$`)
)

// FieldError is a validation failure attached to one form field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// FieldErrors is an ordered list of field errors, name before number.
type FieldErrors []FieldError

// Get returns the message for field, or "" if the field is valid.
func (fe FieldErrors) Get(field string) string {
	for _, e := range fe {
		if e.Field == field {
			return e.Message
		}
	}
	return ""
}

// Has reports whether field has an error.
func (fe FieldErrors) Has(field string) bool {
	return fe.Get(field) != ""
}

// Err converts the field errors into a validation AppError, or nil.
func (fe FieldErrors) Err() error {
	if len(fe) == 0 {
		return nil
	}
	parts := make([]string, 0, len(fe))
	for _, e := range fe {
		parts = append(parts, e.Field+": "+e.Message)
	}
	err := errors.NewValidationError(errors.ErrCodeValidationFailed, strings.Join(parts, "; "))
	for _, e := range fe {
		err.WithContext(e.Field, e.Message)
	}
	return err
}

// ValidName reports whether name matches the person-name pattern.
func ValidName(name string) bool {
	return namePattern.MatchString(NormalizeName(name))
}

// ValidNumber reports whether number matches the phone-number pattern.
func ValidNumber(number string) bool {
	return numberCharset.MatchString(number) && numberPattern.MatchString(number)
}

// Validate checks both fields and returns at most one error per field.
// An empty field reports the required message rather than the pattern one.
func Validate(in Input) FieldErrors {
	in = in.Normalize()

	var errs FieldErrors

	switch {
	case in.Name == "":
		errs = append(errs, FieldError{Field: FieldName, Message: MessageNameRequired})
	case !namePattern.MatchString(in.Name):
		errs = append(errs, FieldError{Field: FieldName, Message: MessageNameInvalid})
	}

	switch {
	case in.Number == "":
		errs = append(errs, FieldError{Field: FieldNumber, Message: MessageNumberRequired})
	case !ValidNumber(in.Number):
		errs = append(errs, FieldError{Field: FieldNumber, Message: MessageNumberInvalid})
	}

	return errs
}
