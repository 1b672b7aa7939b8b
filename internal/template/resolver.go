package template

// Role is the semantic slot a slide fills.
type Role int

const (
	RoleTitle Role = iota
	RoleContent
)

// Roles lists every role in validation order.
var Roles = []Role{RoleTitle, RoleContent}

func (r Role) String() string {
	switch r {
	case RoleTitle:
		return "title"
	case RoleContent:
		return "content"
	default:
		return "unknown"
	}
}

// CanonicalName is the layout name expected for the role.
func (r Role) CanonicalName() string {
	switch r {
	case RoleTitle:
		return "Title Slide"
	case RoleContent:
		return "Title and Content"
	default:
		return ""
	}
}

// required is the minimum placeholder set a layout needs to serve the role.
func (r Role) required() []PlaceholderKind {
	if r == RoleContent {
		return []PlaceholderKind{KindTitle, KindBody}
	}
	return []PlaceholderKind{KindTitle}
}

func (r Role) satisfiedBy(kinds KindSet) bool {
	for _, k := range r.required() {
		if !kinds.Has(k) {
			return false
		}
	}
	return true
}

// Step names the rule of the resolution policy that produced a match.
type Step string

const (
	StepExactName  Step = "exact_name"
	StepCapability Step = "capability"
	StepFirst      Step = "first_layout"
)

// Resolution is the layout chosen for a role and the rule that chose it.
type Resolution struct {
	Role   Role
	Layout LayoutDescriptor
	Step   Step
}

type rule struct {
	step  Step
	match func(layouts []LayoutDescriptor, role Role) (LayoutDescriptor, bool)
}

// policy is evaluated in order; the first matching rule wins.
var policy = []rule{
	{step: StepExactName, match: matchExactName},
	{step: StepCapability, match: matchCapability},
	{step: StepFirst, match: matchFirst},
}

func matchExactName(layouts []LayoutDescriptor, role Role) (LayoutDescriptor, bool) {
	for _, l := range layouts {
		if l.Name == role.CanonicalName() {
			return l, true
		}
	}
	return LayoutDescriptor{}, false
}

func matchCapability(layouts []LayoutDescriptor, role Role) (LayoutDescriptor, bool) {
	for _, l := range layouts {
		if role.satisfiedBy(l.Kinds) {
			return l, true
		}
	}
	return LayoutDescriptor{}, false
}

func matchFirst(layouts []LayoutDescriptor, _ Role) (LayoutDescriptor, bool) {
	if len(layouts) == 0 {
		return LayoutDescriptor{}, false
	}
	return layouts[0], true
}

// Resolve picks the layout for role. It always returns a layout for a
// template that has at least one, which Store guarantees.
func Resolve(t *Template, role Role) Resolution {
	for _, r := range policy {
		if l, ok := r.match(t.Layouts, role); ok {
			return Resolution{Role: role, Layout: l, Step: r.step}
		}
	}
	return Resolution{Role: role, Step: StepFirst}
}
