// Package httptransport serves the login, employee and admin pages.
package httptransport

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"TimeTracker/internal/domain"
	"TimeTracker/internal/session"
	"TimeTracker/internal/timing"
	"TimeTracker/internal/usecase"
)

// HandlerConfig wires the page handlers.
type HandlerConfig struct {
	Tracker      *usecase.Tracker
	Logger       *slog.Logger
	Location     *time.Location
	CookieSecure bool
	// Metrics defaults to the Prometheus default registry handler.
	Metrics http.Handler
}

// Handler renders every page on top of the tracker use case.
type Handler struct {
	tracker      *usecase.Tracker
	logger       *slog.Logger
	pages        *pages
	cookieSecure bool
	metrics      http.Handler
}

// NewHandler parses the page templates.
func NewHandler(cfg HandlerConfig) (*Handler, error) {
	loc := cfg.Location
	if loc == nil {
		loc = time.Local
	}
	p, err := loadPages(loc)
	if err != nil {
		return nil, err
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	metrics := cfg.Metrics
	if metrics == nil {
		metrics = promhttp.Handler()
	}
	return &Handler{
		tracker:      cfg.Tracker,
		logger:       logger,
		pages:        p,
		cookieSecure: cfg.CookieSecure,
		metrics:      metrics,
	}, nil
}

// Routes builds the chi router.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(h.logger))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", h.metrics)

	r.Get("/login", h.loginPage)
	r.Post("/login", h.login)
	r.Post("/logout", h.logout)

	r.Group(func(r chi.Router) {
		r.Use(h.requireSession)

		r.Get("/", h.employeePage)
		r.Post("/items", h.addRow)
		r.Post("/items/{row}", h.updateRow)
		r.Post("/items/{row}/delete", h.deleteRow)
		r.Post("/items/{row}/{action}", h.recordAction)

		r.Route("/admin", func(r chi.Router) {
			r.Use(h.requireAdmin)

			r.Get("/", h.adminPage)
			r.Post("/restart", h.restartItem)
			r.Post("/clear", h.clearAll)
			r.Get("/export", h.export)
		})
	})

	return r
}

func (h *Handler) loginPage(w http.ResponseWriter, r *http.Request) {
	if s := h.currentSession(r); s != nil {
		http.Redirect(w, r, home(s), http.StatusSeeOther)
		return
	}
	h.render(w, http.StatusOK, h.pages.login, loginView{Usernames: h.tracker.Usernames()})
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderError(w, http.StatusBadRequest, "Malformed form.")
		return
	}
	username := strings.TrimSpace(r.PostForm.Get("username"))
	s, err := h.tracker.Login(username, r.PostForm.Get("password"))
	if err != nil {
		h.render(w, http.StatusOK, h.pages.login, loginView{
			Usernames: h.tracker.Usernames(),
			Username:  username,
			Error:     "Invalid username or password",
		})
		return
	}
	h.setSessionCookie(w, s.Token)
	http.Redirect(w, r, home(s), http.StatusSeeOther)
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(sessionCookie); err == nil {
		h.tracker.Logout(c.Value)
	}
	h.clearSessionCookie(w)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (h *Handler) employeePage(w http.ResponseWriter, r *http.Request) {
	s := sessionFrom(r)
	if s.Admin {
		http.Redirect(w, r, "/admin", http.StatusSeeOther)
		return
	}

	view, err := h.tracker.EmployeeView(r.Context(), s)
	if err != nil {
		h.fail(w, r, err, "/")
		return
	}
	h.render(w, http.StatusOK, h.pages.employee, newEmployeeView(s, view, flashFrom(r)))
}

func (h *Handler) addRow(w http.ResponseWriter, r *http.Request) {
	h.tracker.AddRow(sessionFrom(r))
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handler) updateRow(w http.ResponseWriter, r *http.Request) {
	i, ok := rowParam(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		h.renderError(w, http.StatusBadRequest, "Malformed form.")
		return
	}

	fields, err := parseFields(r.PostForm)
	if err == nil {
		err = h.tracker.UpdateRow(sessionFrom(r), i, fields)
	}
	if err != nil {
		h.fail(w, r, err, "/")
		return
	}
	redirectFlash(w, r, "/", flash{Info: "Row saved."})
}

func (h *Handler) deleteRow(w http.ResponseWriter, r *http.Request) {
	i, ok := rowParam(w, r)
	if !ok {
		return
	}
	if err := h.tracker.DeleteRow(sessionFrom(r), i); err != nil {
		h.fail(w, r, err, "/")
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handler) recordAction(w http.ResponseWriter, r *http.Request) {
	i, ok := rowParam(w, r)
	if !ok {
		return
	}
	action, err := domain.ParseAction(chi.URLParam(r, "action"))
	if err != nil {
		http.NotFound(w, r)
		return
	}

	if err := r.ParseForm(); err != nil {
		h.renderError(w, http.StatusBadRequest, "Malformed form.")
		return
	}

	s := sessionFrom(r)
	if r.PostForm.Has("stage") {
		fields, err := parseFields(r.PostForm)
		if err == nil {
			err = h.tracker.UpdateRow(s, i, fields)
		}
		if err != nil {
			h.fail(w, r, err, "/")
			return
		}
	}

	d, err := h.tracker.RecordAction(r.Context(), s, i, action)
	if err != nil {
		h.fail(w, r, err, "/")
		return
	}
	redirectFlash(w, r, "/", flash{
		Info: fmt.Sprintf("%s recorded. %s time: %s", action, d.Stage.Label(), timing.FormatDuration(d.Total)),
	})
}

func (h *Handler) adminPage(w http.ResponseWriter, r *http.Request) {
	s := sessionFrom(r)
	view, err := h.tracker.AdminView(r.Context(), s)
	if err != nil {
		h.fail(w, r, err, "/admin")
		return
	}
	h.render(w, http.StatusOK, h.pages.admin, adminPageView{
		Username:  s.Username,
		Flash:     flashFrom(r),
		Events:    view.Events,
		Summaries: view.Summaries,
		Items:     view.Items,
	})
}

func (h *Handler) restartItem(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderError(w, http.StatusBadRequest, "Malformed form.")
		return
	}
	item := r.PostForm.Get("item_id")
	err := h.tracker.RestartItem(r.Context(), sessionFrom(r), item, confirmed(r.PostForm))
	if err != nil {
		h.fail(w, r, err, "/admin")
		return
	}
	redirectFlash(w, r, "/admin", flash{Info: fmt.Sprintf("All records for %s deleted.", strings.TrimSpace(item))})
}

func (h *Handler) clearAll(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderError(w, http.StatusBadRequest, "Malformed form.")
		return
	}
	if err := h.tracker.ClearAll(r.Context(), sessionFrom(r), confirmed(r.PostForm)); err != nil {
		h.fail(w, r, err, "/admin")
		return
	}
	redirectFlash(w, r, "/admin", flash{Info: "All data deleted."})
}

func (h *Handler) export(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := h.tracker.ExportSummary(r.Context(), sessionFrom(r), &buf); err != nil {
		h.fail(w, r, err, "/admin")
		return
	}

	exporter := h.tracker.Exporter()
	w.Header().Set("Content-Type", exporter.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", exporter.FileName()))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	_, _ = buf.WriteTo(w)
}

// fail maps a use case error onto a response. User mistakes come back as a
// flash on the page they were made on.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error, back string) {
	switch {
	case usecase.IsUserError(err):
		redirectFlash(w, r, back, flash{Error: userMessage(err)})
	case errors.Is(err, domain.ErrForbidden):
		h.renderError(w, http.StatusForbidden, "Admin access only.")
	case errors.Is(err, domain.ErrStoreUnavailable), errors.Is(err, domain.ErrLegacySchema), errors.Is(err, domain.ErrSchemaMismatch):
		h.logger.Error("store unavailable", "path", r.URL.Path, "error", err)
		h.renderError(w, http.StatusServiceUnavailable, userMessage(err))
	default:
		h.logger.Error("request failed", "path", r.URL.Path, "error", err)
		h.renderError(w, http.StatusInternalServerError, "Something went wrong.")
	}
}

func home(s *session.Session) string {
	if s.Admin {
		return "/admin"
	}
	return "/"
}

func rowParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	i, err := strconv.Atoi(chi.URLParam(r, "row"))
	if err != nil || i < 0 {
		http.NotFound(w, r)
		return 0, false
	}
	return i, true
}

func parseFields(form url.Values) (session.Fields, error) {
	status, err := domain.ParseStatus(form.Get("status"))
	if err != nil {
		return session.Fields{}, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	stage, err := domain.ParseStage(form.Get("stage"))
	if err != nil {
		return session.Fields{}, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	return session.Fields{
		ItemID: form.Get("item_id"),
		URL:    form.Get("url"),
		Status: status,
		Stage:  stage,
	}, nil
}

func confirmed(form url.Values) bool {
	switch form.Get("confirm") {
	case "on", "true", "1", "yes":
		return true
	}
	return false
}

// userMessage drops the sentinel prefix so only the detail is shown.
func userMessage(err error) string {
	msg := err.Error()
	for _, sentinel := range []error{
		domain.ErrValidation,
		domain.ErrTransition,
	} {
		prefix := sentinel.Error() + ": "
		if strings.HasPrefix(msg, prefix) {
			return strings.TrimPrefix(msg, prefix)
		}
	}
	return msg
}

type flash struct {
	Info  string
	Error string
}

func flashFrom(r *http.Request) flash {
	q := r.URL.Query()
	return flash{Info: q.Get("info"), Error: q.Get("error")}
}

func redirectFlash(w http.ResponseWriter, r *http.Request, target string, f flash) {
	q := url.Values{}
	if f.Info != "" {
		q.Set("info", f.Info)
	}
	if f.Error != "" {
		q.Set("error", f.Error)
	}
	if len(q) > 0 {
		target += "?" + q.Encode()
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}
