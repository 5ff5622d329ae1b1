package server

import (
	"net/http"
	"time"

	"github.com/a-h/templ"
	jsoniter "github.com/json-iterator/go"

	"github.com/conneroisu/contactbook/internal/contact"
	"github.com/conneroisu/contactbook/internal/form"
	"github.com/conneroisu/contactbook/internal/notify"
	"github.com/conneroisu/contactbook/internal/version"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// maxFormBytes bounds the POST body; a contact is two short fields.
const maxFormBytes = 16 << 10

func (s *ContactServer) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.renderPage(w, r, http.StatusOK, form.State{})
}

// renderPage renders the whole page with the form in state.
func (s *ContactServer) renderPage(w http.ResponseWriter, r *http.Request, status int, state form.State) {
	page := s.page(state, s.store.Snapshot().All(), s.toasts.Active(), s.toasts.Now())
	templ.Handler(page, templ.WithStatus(status)).ServeHTTP(w, r)
}

func (s *ContactServer) handleSubmit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	in := contact.Input{
		Name:   r.PostFormValue(contact.FieldName),
		Number: r.PostFormValue(contact.FieldNumber),
	}

	s.submitMu.Lock()
	result, err := s.form.Submit(r.Context(), in, s.store.Snapshot())
	s.submitMu.Unlock()
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	switch result.Outcome {
	case form.OutcomeInvalid:
		s.renderPage(w, r, http.StatusUnprocessableEntity, result.State())
	case form.OutcomeDuplicate:
		s.renderPage(w, r, http.StatusConflict, result.State())
	default:
		http.Redirect(w, r, "/", http.StatusSeeOther)
	}
}

func (s *ContactServer) handleDelete(w http.ResponseWriter, r *http.Request) {
	s.list.Delete(r.PathValue("id"))
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *ContactServer) handleAPIContacts(w http.ResponseWriter, r *http.Request) {
	contacts := s.store.Snapshot().All()
	if contacts == nil {
		contacts = []contact.Contact{}
	}
	s.writeJSON(w, r, http.StatusOK, contacts)
}

func (s *ContactServer) handleAPIToasts(w http.ResponseWriter, r *http.Request) {
	toasts := s.toasts.Active()
	if toasts == nil {
		toasts = []notify.Toast{}
	}
	s.writeJSON(w, r, http.StatusOK, toasts)
}

// handleHealth returns the server health status for health checks
func (s *ContactServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	info := version.Get()
	health := map[string]interface{}{
		"status":     "healthy",
		"timestamp":  time.Now().UTC(),
		"version":    info.Short(),
		"release":    info.IsRelease(),
		"build_info": info,
		"checks": map[string]interface{}{
			"contacts":  map[string]interface{}{"status": "healthy", "count": s.store.Len()},
			"websocket": map[string]interface{}{"status": "healthy", "clients": s.hub.Count()},
		},
	}
	s.writeJSON(w, r, http.StatusOK, health)
}

func (s *ContactServer) writeJSON(w http.ResponseWriter, r *http.Request, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn(r.Context(), err, "Failed to encode JSON response", "path", r.URL.Path)
	}
}
