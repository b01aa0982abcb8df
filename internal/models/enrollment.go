package models

// Enrollment represents one student enrollment submitted by an operator.
//
// SubmissionDate is a human-readable timestamp rendered in IST at creation
// time. It is display-only and never parsed, so it stays a plain string.
type Enrollment struct {
	ID             int64  `db:"id" json:"id"`
	Name           string `db:"name" json:"name"`
	Phone          string `db:"phone" json:"phone"`
	Email          string `db:"email" json:"email"`
	SchoolName     string `db:"school_name" json:"school_name"`
	Class          string `db:"class" json:"class"`
	AdminName      string `db:"admin_name" json:"admin_name"`
	SubmissionDate string `db:"submission_date" json:"submission_date"`
}

// UpdatedEnrollment echoes the submitted fields merged with the record ID.
// It is constructed from the request, not re-read from the store.
type UpdatedEnrollment struct {
	ID int64 `json:"id"`
	EnrollmentFields
}

// EnrollmentFields carries the five operator-editable attributes shared by
// create and update payloads.
type EnrollmentFields struct {
	Name       string `db:"name" json:"name"`
	Phone      string `db:"phone" json:"phone"`
	Email      string `db:"email" json:"email"`
	SchoolName string `db:"school_name" json:"school_name"`
	Class      string `db:"class" json:"class"`
}
