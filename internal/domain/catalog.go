package domain

import (
	"context"
	"strings"
	"unicode"
)

// Subject is a top-level catalog node, e.g. "Financial Accounting and Reporting".
type Subject struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Slug  string `json:"slug"`
	Units []Unit `json:"units"`
}

// Unit belongs to a subject and groups materials and question sets.
type Unit struct {
	ID          int64  `json:"id"`
	SubjectID   int64  `json:"subject"`
	Title       string `json:"title"`
	Code        string `json:"code"`
	Description string `json:"description"`
	Order       int    `json:"order"`
}

// UnitSummary is the slice of a unit embedded in material responses.
type UnitSummary struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
	Code  string `json:"code"`
}

// UnitFilter narrows the unit listing.
type UnitFilter struct {
	SubjectID int64
	Search    string
}

// CatalogRepository reads subjects and units.
type CatalogRepository interface {
	ListSubjects(ctx context.Context) ([]Subject, error)
	ListUnits(ctx context.Context, filter UnitFilter) ([]Unit, error)
	GetUnitByID(ctx context.Context, id int64) (*Unit, error)
	CreateSubject(ctx context.Context, subject *Subject) error
	CreateUnit(ctx context.Context, unit *Unit) error
}

// Slugify lower-cases s, keeps letters and digits, and joins the remaining
// words with single hyphens.
func Slugify(s string) string {
	var b strings.Builder
	pendingDash := false
	for _, r := range strings.ToLower(s) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(r)
		case r == '\'':
			// apostrophes join words: "Auditor's" -> "auditors"
		default:
			pendingDash = true
		}
	}
	return b.String()
}
