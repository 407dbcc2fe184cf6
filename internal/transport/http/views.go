package httptransport

import (
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"TimeTracker/internal/domain"
	"TimeTracker/internal/infrastructure/storage/schema"
	"TimeTracker/internal/session"
	"TimeTracker/internal/timing"
	"TimeTracker/internal/usecase"
)

//go:embed templates/*.html
var templateFS embed.FS

type pages struct {
	login    *template.Template
	employee *template.Template
	admin    *template.Template
	failure  *template.Template
}

func loadPages(loc *time.Location) (*pages, error) {
	funcs := template.FuncMap{
		"hms":      timing.FormatDuration,
		"stages":   func() []domain.Stage { return domain.Stages },
		"statuses": func() []domain.Status { return domain.Statuses },
		"clock": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.In(loc).Format(schema.TimeLayout)
		},
		"stageTime": func(s domain.ItemSummary, st domain.Stage) string {
			return timing.FormatDuration(s.Stage(st).Total)
		},
		"minutes": func(s domain.ItemSummary) string {
			return fmt.Sprintf("%.2f", timing.Minutes(s.Seconds()))
		},
	}

	parse := func(name string) (*template.Template, error) {
		t, err := template.New("layout.html").Funcs(funcs).ParseFS(templateFS, "templates/layout.html", "templates/"+name)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		return t, nil
	}

	var p pages
	var err error
	if p.login, err = parse("login.html"); err != nil {
		return nil, err
	}
	if p.employee, err = parse("employee.html"); err != nil {
		return nil, err
	}
	if p.admin, err = parse("admin.html"); err != nil {
		return nil, err
	}
	if p.failure, err = parse("error.html"); err != nil {
		return nil, err
	}
	return &p, nil
}

type loginView struct {
	Usernames []string
	Username  string
	Error     string
}

type employeeRowView struct {
	Index     int
	Row       domain.ItemRow
	StageTime string
	ItemTime  string
	CanStart  bool
	CanPause  bool
	CanResume bool
	CanStop   bool
}

type employeePageView struct {
	Username string
	Today    string
	Flash    flash
	Rows     []employeeRowView
	Events   []domain.Event
}

func newEmployeeView(s *session.Session, v usecase.EmployeeView, f flash) employeePageView {
	out := employeePageView{Username: s.Username, Today: v.Today, Flash: f, Events: v.Events}
	for _, rv := range v.Rows {
		allowed := func(a domain.Action) bool {
			_, err := session.Transition(rv.Row.Flags, a)
			return err == nil
		}
		out.Rows = append(out.Rows, employeeRowView{
			Index:     rv.Index,
			Row:       rv.Row,
			StageTime: timing.FormatDuration(rv.Stage.Total),
			ItemTime:  timing.FormatDuration(rv.Item),
			CanStart:  allowed(domain.ActionStart),
			CanPause:  allowed(domain.ActionPause),
			CanResume: allowed(domain.ActionResume),
			CanStop:   allowed(domain.ActionStop),
		})
	}
	return out
}

type adminPageView struct {
	Username  string
	Flash     flash
	Events    []domain.Event
	Summaries []domain.ItemSummary
	Items     []string
}

type errorView struct {
	Status  int
	Title   string
	Message string
}

func (h *Handler) render(w http.ResponseWriter, status int, t *template.Template, data interface{}) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := t.ExecuteTemplate(w, "layout.html", data); err != nil {
		h.logger.Error("render page", "error", err)
	}
}

func (h *Handler) renderError(w http.ResponseWriter, status int, message string) {
	h.render(w, status, h.pages.failure, errorView{
		Status:  status,
		Title:   http.StatusText(status),
		Message: message,
	})
}
