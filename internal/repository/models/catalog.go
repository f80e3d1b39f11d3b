package models

// Subject is a row of the subjects table.
type Subject struct {
	ID   int64  `db:"id"`
	Name string `db:"name"`
	Slug string `db:"slug"`
}

// Unit is a row of the units table.
type Unit struct {
	ID          int64  `db:"id"`
	SubjectID   int64  `db:"subject_id"`
	Title       string `db:"title"`
	Code        string `db:"code"`
	Description string `db:"description"`
	Order       int    `db:"ord"`
}
