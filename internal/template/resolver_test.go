package template

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func kinds(ks ...PlaceholderKind) KindSet {
	var s KindSet
	for _, k := range ks {
		s = s.with(k)
	}
	return s
}

func fakeTemplate(layouts ...LayoutDescriptor) *Template {
	for i := range layouts {
		layouts[i].Index = i
	}
	return &Template{Layouts: layouts}
}

func TestResolvePolicy(t *testing.T) {
	cases := []struct {
		name     string
		tmpl     *Template
		role     Role
		wantName string
		wantStep Step
	}{
		{
			name: "exact name wins over earlier capable layout",
			tmpl: fakeTemplate(
				LayoutDescriptor{Name: "Agenda", Kinds: kinds(KindTitle, KindBody)},
				LayoutDescriptor{Name: "Title and Content", Kinds: kinds(KindOther)},
			),
			role:     RoleContent,
			wantName: "Title and Content",
			wantStep: StepExactName,
		},
		{
			name: "name match is case sensitive",
			tmpl: fakeTemplate(
				LayoutDescriptor{Name: "title slide", Kinds: kinds(KindOther)},
				LayoutDescriptor{Name: "Cover", Kinds: kinds(KindTitle)},
			),
			role:     RoleTitle,
			wantName: "Cover",
			wantStep: StepCapability,
		},
		{
			name: "content needs title and body",
			tmpl: fakeTemplate(
				LayoutDescriptor{Name: "Heading", Kinds: kinds(KindTitle)},
				LayoutDescriptor{Name: "Two Part", Kinds: kinds(KindTitle, KindBody, KindOther)},
			),
			role:     RoleContent,
			wantName: "Two Part",
			wantStep: StepCapability,
		},
		{
			name: "index zero when nothing fits",
			tmpl: fakeTemplate(
				LayoutDescriptor{Name: "Picture", Kinds: kinds(KindOther)},
				LayoutDescriptor{Name: "Blank"},
			),
			role:     RoleContent,
			wantName: "Picture",
			wantStep: StepFirst,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Resolve(tc.tmpl, tc.role)
			assert.Equal(t, tc.wantName, got.Layout.Name)
			assert.Equal(t, tc.wantStep, got.Step)
			assert.Equal(t, tc.role, got.Role)
		})
	}
}

func TestResolveIsDeterministic(t *testing.T) {
	tmpl := fakeTemplate(
		LayoutDescriptor{Name: "A", Kinds: kinds(KindTitle, KindBody)},
		LayoutDescriptor{Name: "B", Kinds: kinds(KindTitle, KindBody)},
	)
	first := Resolve(tmpl, RoleContent)
	for i := 0; i < 10; i++ {
		again := Resolve(tmpl, RoleContent)
		require.Equal(t, first.Layout.Index, again.Layout.Index)
		require.Equal(t, first.Step, again.Step)
	}
}

func TestResolveAgainstDefaultDeck(t *testing.T) {
	tmpl, err := newTestStore(t, StoreConfig{}).Load(t.Context(), nil)
	require.NoError(t, err)
	defer tmpl.Close()

	title := Resolve(tmpl, RoleTitle)
	content := Resolve(tmpl, RoleContent)
	assert.Equal(t, "Title Slide", title.Layout.Name)
	assert.Equal(t, "Title and Content", content.Layout.Name)
	assert.Same(t, tmpl.Deck.Layouts()[1], content.Layout.Layout())
}
