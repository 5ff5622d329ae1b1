package server

import (
	"context"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/a-h/templ"

	"github.com/conneroisu/contactbook/internal/contact"
	"github.com/conneroisu/contactbook/internal/form"
	"github.com/conneroisu/contactbook/internal/notify"
)

const pageTitle = "Contact book"

// page lays out toasts, the form and the list. Styles and behaviour come
// from /static so the page needs no inline script.
func (s *ContactServer) page(state form.State, contacts []contact.Contact, toasts []notify.Toast, now time.Time) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, `<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`+
			`<meta name="viewport" content="width=device-width, initial-scale=1">`+
			`<title>`+pageTitle+`</title>`+
			`<link rel="stylesheet" href="/static/contactbook.css">`+
			`<script src="/static/contactbook.js" defer></script>`+
			`</head><body><main class="app"><h1>`+pageTitle+`</h1>`); err != nil {
			return err
		}

		if err := toastList(toasts, now).Render(ctx, w); err != nil {
			return err
		}

		if _, err := io.WriteString(w, `<section id="contact-form" class="panel"><h2>Add contact</h2>`); err != nil {
			return err
		}
		if err := s.form.View(state).Render(ctx, w); err != nil {
			return err
		}

		if _, err := io.WriteString(w, `</section><section id="contacts" class="panel"><h2>Contacts</h2>`); err != nil {
			return err
		}
		if err := s.list.View(contacts).Render(ctx, w); err != nil {
			return err
		}

		_, err := io.WriteString(w, `</section></main></body></html>`)
		return err
	})
}

// toastList renders the active toasts. data-remaining-ms lets the script
// close each one when its own auto-close time runs out.
func toastList(toasts []notify.Toast, now time.Time) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder
		b.WriteString(`<div id="toasts" class="toasts" aria-live="polite">`)
		for _, t := range toasts {
			b.WriteString(`<div class="toast toast-`)
			b.WriteString(templ.EscapeString(string(t.Level)))
			b.WriteString(`" role="status" data-toast-id="`)
			b.WriteString(templ.EscapeString(t.ID))
			b.WriteString(`" data-remaining-ms="`)
			b.WriteString(strconv.FormatInt(t.Remaining(now).Milliseconds(), 10))
			b.WriteString(`"><span class="toast-message">`)
			b.WriteString(templ.EscapeString(t.Message))
			b.WriteString(`</span><button type="button" class="toast-close" aria-label="Dismiss">&times;</button></div>`)
		}
		b.WriteString(`</div>`)
		_, err := io.WriteString(w, b.String())
		return err
	})
}
