// Package list renders the contact table. It holds no state: contacts come
// from the owner on every render and deletions are handed back to the owner
// through a callback.
package list

import (
	"context"
	"io"
	"net/url"
	"strings"

	"github.com/a-h/templ"

	"github.com/conneroisu/contactbook/internal/contact"
)

// DeleteFunc receives the id of the contact whose delete control was used.
type DeleteFunc func(id string)

// List is the contact list component.
type List struct {
	onDelete   DeleteFunc
	actionBase string
}

// Option configures a List.
type Option func(*List)

// WithActionBase sets the URL prefix of the per-row delete forms. A row
// posts to <base>/<id>/delete.
func WithActionBase(base string) Option {
	return func(l *List) {
		l.actionBase = strings.TrimSuffix(base, "/")
	}
}

// New creates a List that reports deletions to onDelete.
func New(onDelete DeleteFunc, opts ...Option) *List {
	l := &List{
		onDelete:   onDelete,
		actionBase: "/contacts",
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Delete forwards id to the owner unchanged.
func (l *List) Delete(id string) {
	l.onDelete(id)
}

// DeleteAction returns the URL the delete control of id posts to.
func (l *List) DeleteAction(id string) string {
	return l.actionBase + "/" + url.PathEscape(id) + "/delete"
}

// View renders contacts in the given order.
func (l *List) View(contacts []contact.Contact) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder

		b.WriteString(`<table class="contact-list"><thead><tr><th>Name</th><th>Number</th><th></th></tr></thead><tbody>`)
		for _, c := range contacts {
			b.WriteString(`<tr data-id="`)
			b.WriteString(templ.EscapeString(c.ID))
			b.WriteString(`"><td>`)
			b.WriteString(templ.EscapeString(c.Name))
			b.WriteString(`</td><td>`)
			b.WriteString(templ.EscapeString(c.Number))
			b.WriteString(`</td><td><form method="post" action="`)
			b.WriteString(templ.EscapeString(l.DeleteAction(c.ID)))
			b.WriteString(`"><button type="submit" class="btn-delete" aria-label="Delete `)
			b.WriteString(templ.EscapeString(c.Name))
			b.WriteString(`">Delete</button></form></td></tr>`)
		}
		b.WriteString(`</tbody></table>`)

		_, err := io.WriteString(w, b.String())
		return err
	})
}
