package form

import (
	"context"
	"io"
	"strings"

	"github.com/a-h/templ"

	"github.com/conneroisu/contactbook/internal/contact"
)

// State is what the form shows: current field values and inline errors.
type State struct {
	Values contact.Input
	Errors contact.FieldErrors
}

type field struct {
	name        string
	label       string
	inputType   string
	placeholder string
}

var fields = []field{
	{name: contact.FieldName, label: "Name", inputType: "text", placeholder: "Name"},
	{name: contact.FieldNumber, label: "Number", inputType: "tel", placeholder: "Phone number"},
}

// View renders the form for state.
func (f *Form) View(state State) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder

		b.WriteString(`<form class="contact-form" method="post" action="`)
		b.WriteString(templ.EscapeString(f.action))
		b.WriteString(`" autocomplete="off" novalidate>`)

		for _, fd := range fields {
			value := state.Values.Name
			if fd.name == contact.FieldNumber {
				value = state.Values.Number
			}
			writeField(&b, fd, value, state.Errors.Get(fd.name))
		}

		b.WriteString(`<button type="submit" class="btn-add">Add contact</button></form>`)

		_, err := io.WriteString(w, b.String())
		return err
	})
}

func writeField(b *strings.Builder, fd field, value, message string) {
	errorID := fd.name + "-error"

	b.WriteString(`<label for="`)
	b.WriteString(fd.name)
	b.WriteString(`">`)
	b.WriteString(fd.label)
	b.WriteString(`<input id="`)
	b.WriteString(fd.name)
	b.WriteString(`" type="`)
	b.WriteString(fd.inputType)
	b.WriteString(`" name="`)
	b.WriteString(fd.name)
	b.WriteString(`" placeholder="`)
	b.WriteString(fd.placeholder)
	b.WriteString(`" value="`)
	b.WriteString(templ.EscapeString(value))
	b.WriteString(`"`)
	if message != "" {
		b.WriteString(` aria-invalid="true" aria-describedby="`)
		b.WriteString(errorID)
		b.WriteString(`"`)
	}
	b.WriteString(`>`)
	if message != "" {
		b.WriteString(`<p class="field-error" id="`)
		b.WriteString(errorID)
		b.WriteString(`">`)
		b.WriteString(templ.EscapeString(message))
		b.WriteString(`</p>`)
	}
	b.WriteString(`</label>`)
}
