package template

import "strings"

// Status is the severity of a diagnostic.
type Status string

const (
	StatusOK      Status = "ok"
	StatusWarning Status = "warning"
	StatusError   Status = "error"
)

func (s Status) rank() int {
	switch s {
	case StatusError:
		return 2
	case StatusWarning:
		return 1
	default:
		return 0
	}
}

// Worse returns the more severe of a and b.
func Worse(a, b Status) Status {
	if b.rank() > a.rank() {
		return b
	}
	return a
}

// Diagnostic is one structural finding about a template.
type Diagnostic struct {
	Layout  string `json:"layout"`
	Role    string `json:"role"`
	Status  Status `json:"status"`
	Message string `json:"message"`
}

// Report is the ordered diagnostics of a template and their worst status.
type Report struct {
	Summary     Status       `json:"summary"`
	Diagnostics []Diagnostic `json:"diagnostics"`
}

// Header renders the report as name=status pairs joined by "|".
func (r Report) Header() string {
	pairs := make([]string, len(r.Diagnostics))
	for i, d := range r.Diagnostics {
		pairs[i] = d.Layout + "=" + string(d.Status)
	}
	return strings.Join(pairs, "|")
}

// Validate inspects the canonical layout of every role.
func Validate(t *Template) Report {
	report := Report{Summary: StatusOK, Diagnostics: make([]Diagnostic, 0, len(Roles))}
	for _, role := range Roles {
		d := validateRole(t, role)
		report.Diagnostics = append(report.Diagnostics, d)
		report.Summary = Worse(report.Summary, d.Status)
	}
	return report
}

func validateRole(t *Template, role Role) Diagnostic {
	d := Diagnostic{Layout: role.CanonicalName(), Role: role.String()}

	layout, ok := t.LayoutNamed(role.CanonicalName())
	if !ok {
		d.Status = StatusError
		d.Message = "Layout not found"
		return d
	}

	var missing []string
	for _, k := range role.required() {
		if !layout.Kinds.Has(k) {
			missing = append(missing, strings.ToLower(k.String()))
		}
	}
	switch len(missing) {
	case 0:
		d.Status = StatusOK
		d.Message = "Layout present with required placeholders"
	case 1:
		d.Status = StatusWarning
		d.Message = "Missing " + missing[0] + " placeholder"
	default:
		d.Status = StatusWarning
		d.Message = "Missing " + strings.Join(missing, " and ") + " placeholders"
	}
	return d
}
