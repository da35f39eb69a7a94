package models

import "time"

// Student represents one roster record.
type Student struct {
	ID        int64     `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Roll      string    `db:"roll" json:"roll"`
	Course    string    `db:"course" json:"course"`
	Marks     int       `db:"marks" json:"marks"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// StudentFilter encapsulates the search parameters accepted by the store.
// A non-empty Search matches roll, name or course as a substring.
type StudentFilter struct {
	Search string
	Limit  int
	Offset int
}

// PageResult carries one page of roster rows with pagination metadata.
type PageResult struct {
	Rows       []Student
	PageIndex  int
	TotalPages int
	TotalRows  int
}

// CourseCount is one bucket of the students-per-course aggregate.
type CourseCount struct {
	Course string `db:"course" json:"course"`
	Count  int    `db:"count" json:"count"`
}

// SuggestedCourses is the fixed suggestion list offered by the entry form.
// Course remains free text; the list is advisory only.
var SuggestedCourses = []string{
	"B.Tech CSE", "B.Tech ECE", "B.Sc", "MCA", "M.Tech", "BBA", "Other",
}
