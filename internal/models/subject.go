package models

import "time"

// Known curriculum schemes. Semesters run 1 through 8 in both.
const (
	Scheme2019 = "2019"
	Scheme2023 = "2023"

	MinSemester = 1
	MaxSemester = 8
)

// ValidScheme reports whether scheme is a known curriculum scheme.
func ValidScheme(scheme string) bool {
	return scheme == Scheme2019 || scheme == Scheme2023
}

// ValidSemester reports whether semester is within the curriculum range.
func ValidSemester(semester int) bool {
	return semester >= MinSemester && semester <= MaxSemester
}

// Subject is one entry of the curriculum catalog, keyed within its
// scheme and semester by a short catalog code (the subjectId used by
// materials and requests).
type Subject struct {
	ID        string    `db:"id" json:"id"`
	Scheme    string    `db:"scheme" json:"scheme"`
	Semester  int       `db:"semester" json:"semester"`
	Code      string    `db:"code" json:"code"`
	Name      string    `db:"name" json:"name"`
	SortOrder int       `db:"sort_order" json:"sort_order"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// SubjectAvailability reports which material types have published content
// for a subject, backing the pre-navigation probe.
type SubjectAvailability struct {
	Subject
	MaterialCounts map[MaterialType]int `json:"material_counts"`
}
