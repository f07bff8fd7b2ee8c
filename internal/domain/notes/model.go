package notes

import (
	"time"

	"care-team-access/internal/domain/grants"
)

// Category separa notas clínicas de notas de acompañamiento; cada una
// tiene su propio scope delegable.
type Category string

const (
	CategoryMedical Category = "medical"
	CategorySupport Category = "support"
)

// RequiredScope mapea la categoría al scope que exige el guard.
func (c Category) RequiredScope() (grants.Scope, bool) {
	switch c {
	case CategoryMedical:
		return grants.ScopeMedicalNotes, true
	case CategorySupport:
		return grants.ScopeSupportNotes, true
	default:
		return "", false
	}
}

type NoteStatus string

const (
	NoteStatusActive NoteStatus = "active"
	NoteStatusVoided NoteStatus = "voided"
)

// Note es el recurso protegido concreto del expediente: toda lectura y
// escritura pasa por el guard central con el scope de su categoría.
type Note struct {
	ID      string
	ChildID string

	Category Category

	AuthorID   string
	AuthorRole string

	Title string
	Body  string

	OccurredAt time.Time
	RecordedAt time.Time

	Status NoteStatus
}
