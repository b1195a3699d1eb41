package model

// Category is a course category lookup row.
type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Skill is a skill-tag lookup row.
type Skill struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}
