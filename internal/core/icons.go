package core

import "strings"

// IconKind is a closed set of icons a wallet or category can carry.
// The kind is resolved once at creation time and stored on the entity,
// so nothing downstream has to string-match display names at runtime.
type IconKind string

const (
	IconCash     IconKind = "cash"
	IconBank     IconKind = "bank"
	IconCard     IconKind = "card"
	IconSavings  IconKind = "savings"
	IconFood     IconKind = "food"
	IconHome     IconKind = "home"
	IconTransit  IconKind = "transit"
	IconHealth   IconKind = "health"
	IconLeisure  IconKind = "leisure"
	IconSalary   IconKind = "salary"
	IconGeneric  IconKind = "generic"
)

func (k IconKind) Valid() bool {
	switch k {
	case IconCash, IconBank, IconCard, IconSavings, IconFood, IconHome,
		IconTransit, IconHealth, IconLeisure, IconSalary, IconGeneric:
		return true
	}
	return false
}

// iconHints maps lowercase name fragments to icon kinds. Checked in order
// of declaration so more specific fragments win.
var iconHints = []struct {
	fragment string
	kind     IconKind
}{
	{"salar", IconSalary},
	{"stipendio", IconSalary},
	{"saving", IconSavings},
	{"risparmi", IconSavings},
	{"bank", IconBank},
	{"banca", IconBank},
	{"card", IconCard},
	{"carta", IconCard},
	{"cash", IconCash},
	{"contanti", IconCash},
	{"food", IconFood},
	{"spesa", IconFood},
	{"grocer", IconFood},
	{"home", IconHome},
	{"casa", IconHome},
	{"rent", IconHome},
	{"transport", IconTransit},
	{"trasport", IconTransit},
	{"fuel", IconTransit},
	{"health", IconHealth},
	{"salute", IconHealth},
	{"fun", IconLeisure},
	{"divertimento", IconLeisure},
}

// ResolveIconKind picks an icon for a display name. Called exactly once,
// when the entity is created; the result is stored with it.
func ResolveIconKind(name string) IconKind {
	lower := strings.ToLower(strings.TrimSpace(name))
	for _, h := range iconHints {
		if strings.Contains(lower, h.fragment) {
			return h.kind
		}
	}
	return IconGeneric
}
