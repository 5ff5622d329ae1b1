package form

import (
	"context"
	"testing"

	"github.com/conneroisu/contactbook/internal/contact"
	apperrors "github.com/conneroisu/contactbook/internal/errors"
	"github.com/conneroisu/contactbook/internal/notify"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type addRecorder struct {
	added []contact.Contact
}

func (r *addRecorder) add(c contact.Contact) {
	r.added = append(r.added, c)
}

func setupForm(t *testing.T, opts ...Option) (*Form, *addRecorder, *notify.Recorder) {
	t.Helper()
	adds := &addRecorder{}
	rec := &notify.Recorder{}
	return New(adds.add, rec, opts...), adds, rec
}

func existingAnna() contact.Snapshot {
	return contact.NewSnapshot([]contact.Contact{
		{ID: "anna-1", Name: "Anna", Number: "+1 555 0100"},
	})
}

func TestSubmitDuplicateName(t *testing.T) {
	f, adds, rec := setupForm(t)

	in := contact.Input{Name: "Anna", Number: "+1 555 0200"}
	result, err := f.Submit(context.Background(), in, existingAnna())
	require.NoError(t, err)

	assert.Equal(t, OutcomeDuplicate, result.Outcome)
	assert.Empty(t, adds.added, "add callback must not run for a duplicate name")
	assert.Equal(t, in, result.Values, "form keeps its values")
	assert.Equal(t, []notify.Message{
		{Level: notify.LevelWarning, Text: "Anna is already in contacts."},
	}, rec.Messages())
}

func TestSubmitNewContact(t *testing.T) {
	f, adds, rec := setupForm(t)

	result, err := f.Submit(context.Background(),
		contact.Input{Name: "Boris", Number: "+1 555 0200"}, existingAnna())
	require.NoError(t, err)

	assert.Equal(t, OutcomeAdded, result.Outcome)
	require.Len(t, adds.added, 1)

	got := adds.added[0]
	assert.NotEmpty(t, got.ID)
	assert.NotEqual(t, "anna-1", got.ID)
	if diff := cmp.Diff(contact.Contact{ID: got.ID, Name: "Boris", Number: "+1 555 0200"}, got); diff != "" {
		t.Errorf("added contact mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, got, result.Contact)
	assert.True(t, result.Values.IsEmpty(), "form is reset after a successful add")
	assert.Equal(t, []notify.Message{
		{Level: notify.LevelSuccess, Text: "Contact Boris is added!"},
	}, rec.Messages())
}

func TestSubmitInvalidInput(t *testing.T) {
	tests := []struct {
		name        string
		input       contact.Input
		errorFields []string
	}{
		{"lowercase name", contact.Input{Name: "john", Number: "+1 555 0200"}, []string{contact.FieldName}},
		{"digit in name", contact.Input{Name: "John3", Number: "+1 555 0200"}, []string{contact.FieldName}},
		{"letters in number", contact.Input{Name: "John", Number: "abc-1234"}, []string{contact.FieldNumber}},
		{"newline in number", contact.Input{Name: "Boris", Number: "555\n1234"}, []string{contact.FieldNumber}},
		{"missing name", contact.Input{Number: "+1 555 0200"}, []string{contact.FieldName}},
		{"missing both", contact.Input{}, []string{contact.FieldName, contact.FieldNumber}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, adds, rec := setupForm(t)

			result, err := f.Submit(context.Background(), tt.input, existingAnna())
			require.NoError(t, err)

			assert.Equal(t, OutcomeInvalid, result.Outcome)
			assert.Empty(t, adds.added)
			assert.Empty(t, rec.Messages(), "validation errors are shown inline, not as toasts")
			assert.Equal(t, tt.input, result.Values)
			require.Len(t, result.Errors, len(tt.errorFields))
			for i, field := range tt.errorFields {
				assert.Equal(t, field, result.Errors[i].Field)
			}
		})
	}
}

func TestSubmitDuplicateNeedsExactName(t *testing.T) {
	for _, name := range []string{"ANNA", "Anna Maria"} {
		t.Run(name, func(t *testing.T) {
			f, adds, _ := setupForm(t)

			result, err := f.Submit(context.Background(),
				contact.Input{Name: name, Number: "5551234"}, existingAnna())
			require.NoError(t, err)

			assert.Equal(t, OutcomeAdded, result.Outcome)
			assert.Len(t, adds.added, 1)
		})
	}
}

func TestSubmitSkipsUsedIDs(t *testing.T) {
	ids := []string{"anna-1", "fresh"}
	gen := contact.IDGeneratorFunc(func() string {
		id := ids[0]
		ids = ids[1:]
		return id
	})
	f, adds, _ := setupForm(t, WithIDGenerator(gen))

	_, err := f.Submit(context.Background(),
		contact.Input{Name: "Boris", Number: "5551234"}, existingAnna())
	require.NoError(t, err)

	require.Len(t, adds.added, 1)
	assert.Equal(t, "fresh", adds.added[0].ID)
}

func TestSubmitFailsWithoutFreshID(t *testing.T) {
	gen := contact.IDGeneratorFunc(func() string { return "anna-1" })
	f, adds, rec := setupForm(t, WithIDGenerator(gen))

	_, err := f.Submit(context.Background(),
		contact.Input{Name: "Boris", Number: "5551234"}, existingAnna())

	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeInternal))
	assert.Empty(t, adds.added)
	assert.Empty(t, rec.Messages())
}

func TestOutcomeString(t *testing.T) {
	assert.Equal(t, "invalid", OutcomeInvalid.String())
	assert.Equal(t, "duplicate", OutcomeDuplicate.String())
	assert.Equal(t, "added", OutcomeAdded.String())
	assert.Equal(t, "unknown", Outcome(42).String())
}
