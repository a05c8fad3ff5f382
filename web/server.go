// Package web is the server-rendered presentation layer. Every request runs
// on its own db.Session through the transaction envelope.
package web

import (
	"embed"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"

	"contact-list/db"
	"contact-list/mediator"
	"contact-list/metrics"
	"contact-list/services"
	"contact-list/store"
	"contact-list/unitofwork"
	"contact-list/validation"
)

//go:embed templates/*.html
var templateFS embed.FS

// Server serves the contact pages.
type Server struct {
	envelope   *unitofwork.Envelope
	newSession func() *db.Session
	log        *slog.Logger
	metrics    *metrics.Metrics
	limiter    *RateLimiter
	mux        *http.ServeMux
	pages      *template.Template
}

// Option configures optional Server collaborators.
type Option func(*Server)

// WithMetrics records per-route request counts and serves them on /metrics.
func WithMetrics(m *metrics.Metrics, exposition http.Handler) Option {
	return func(s *Server) {
		s.metrics = m
		if exposition != nil {
			s.mux.Handle("GET /metrics", exposition)
		}
	}
}

// WithRateLimiter limits form submissions per client address.
func WithRateLimiter(l *RateLimiter) Option {
	return func(s *Server) { s.limiter = l }
}

// New creates a Server. newSession must return a fresh session per call.
func New(envelope *unitofwork.Envelope, newSession func() *db.Session, log *slog.Logger, opts ...Option) *Server {
	s := &Server{
		envelope:   envelope,
		newSession: newSession,
		log:        log,
		mux:        http.NewServeMux(),
		pages:      template.Must(template.ParseFS(templateFS, "templates/*.html")),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.handle("GET /{$}", s.handleHome)
	s.handle("GET /home/error", s.handleErrorPage)
	s.handle("GET /health", s.handleHealth)

	s.handle("GET /contact", s.handleIndex)
	s.handle("GET /contact/add", s.handleAddForm)
	s.handle("POST /contact/add", s.limited(s.handleAdd))
	s.handle("GET /contact/edit", s.handleEditForm)
	s.handle("POST /contact/edit", s.limited(s.handleEdit))
	s.handle("POST /contact/delete", s.limited(s.handleDelete))
}

func (s *Server) handle(pattern string, h http.HandlerFunc) {
	s.mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		h(sw, r)
		s.metrics.ObserveHTTP(pattern, strconv.Itoa(sw.status))
	})
}

type page struct {
	Title    string
	Flash    string
	Errors   []string
	Form     contactForm
	Contacts []services.ContactView
}

type contactForm struct {
	ID          string
	Name        string
	Email       string
	PhoneNumber string
}

func (s *Server) render(w http.ResponseWriter, status int, name string, data page) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := s.pages.ExecuteTemplate(w, name, data); err != nil {
		s.log.Error("render template", "template", name, "error", err)
	}
}

// fail renders the generic error page. Validation failures never reach here.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	if errors.Is(err, store.ErrNotFound) {
		status = http.StatusNotFound
	}
	s.log.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	s.render(w, status, "error.html", page{Title: "Error"})
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/contact", http.StatusFound)
}

func (s *Server) handleErrorPage(w http.ResponseWriter, r *http.Request) {
	s.render(w, http.StatusOK, "error.html", page{Title: "Error"})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	contacts, err := unitofwork.Send[services.ContactIndex, []services.ContactView](
		r.Context(), s.envelope, s.newSession(), services.ContactIndex{})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.render(w, http.StatusOK, "index.html", page{
		Title:    "Contacts",
		Flash:    takeFlash(w, r),
		Contacts: contacts,
	})
}

func (s *Server) handleAddForm(w http.ResponseWriter, r *http.Request) {
	s.render(w, http.StatusOK, "add.html", page{Title: "Add Contact"})
}

func (s *Server) handleAdd(w http.ResponseWriter, r *http.Request) {
	form := readForm(r)
	cmd := services.AddContact{Email: form.Email, Name: form.Name, PhoneNumber: form.PhoneNumber}
	_, err := unitofwork.Send[services.AddContact, services.AddContactResponse](
		r.Context(), s.envelope, s.newSession(), cmd)
	if s.invalid(w, err, "add.html", "Add Contact", form) {
		return
	}
	if err != nil {
		s.fail(w, r, err)
		return
	}
	setFlash(w, cmd.Name+" has been added.")
	http.Redirect(w, r, "/contact", http.StatusSeeOther)
}

func (s *Server) handleEditForm(w http.ResponseWriter, r *http.Request) {
	cmd, err := unitofwork.Send[services.EditContactQuery, services.EditContactCommand](
		r.Context(), s.envelope, s.newSession(), services.EditContactQuery{ID: r.URL.Query().Get("id")})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.render(w, http.StatusOK, "edit.html", page{
		Title: "Edit Contact",
		Form:  contactForm{ID: cmd.ID, Name: cmd.Name, Email: cmd.Email, PhoneNumber: cmd.PhoneNumber},
	})
}

func (s *Server) handleEdit(w http.ResponseWriter, r *http.Request) {
	form := readForm(r)
	cmd := services.EditContactCommand{ID: form.ID, Email: form.Email, Name: form.Name, PhoneNumber: form.PhoneNumber}
	_, err := unitofwork.Send[services.EditContactCommand, mediator.Unit](
		r.Context(), s.envelope, s.newSession(), cmd)
	if s.invalid(w, err, "edit.html", "Edit Contact", form) {
		return
	}
	if err != nil {
		s.fail(w, r, err)
		return
	}
	setFlash(w, cmd.Name+" has been updated.")
	http.Redirect(w, r, "/contact", http.StatusSeeOther)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	form := readForm(r)
	cmd := services.DeleteContact{ID: form.ID, Name: form.Name}
	if _, err := unitofwork.Send[services.DeleteContact, mediator.Unit](
		r.Context(), s.envelope, s.newSession(), cmd); err != nil {
		s.fail(w, r, err)
		return
	}
	setFlash(w, cmd.Name+" has been deleted.")
	http.Redirect(w, r, "/contact", http.StatusSeeOther)
}

// invalid re-renders the form with field errors when err is a validation
// failure and reports whether it did.
func (s *Server) invalid(w http.ResponseWriter, err error, name, title string, form contactForm) bool {
	var errs validation.Errors
	if !errors.As(err, &errs) {
		return false
	}
	s.render(w, http.StatusUnprocessableEntity, name, page{Title: title, Errors: errs, Form: form})
	return true
}

func readForm(r *http.Request) contactForm {
	return contactForm{
		ID:          r.PostFormValue("id"),
		Name:        r.PostFormValue("name"),
		Email:       r.PostFormValue("email"),
		PhoneNumber: r.PostFormValue("phone_number"),
	}
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
