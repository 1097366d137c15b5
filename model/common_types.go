package model

import (
	"sort"
	"strings"
)

// Audit holds the bookkeeping columns shared by every business table.
// DateSuppression is set when a row is soft deleted.
type Audit struct {
	CreatedAt       string  `db:"created_at" json:"createdAt"`
	UpdatedAt       string  `db:"updated_at" json:"updatedAt"`
	DateSuppression *string `db:"date_suppression" json:"dateSuppression,omitempty"`
}

// IsDeleted reports whether the row has been soft deleted.
func (a Audit) IsDeleted() bool {
	return a.DateSuppression != nil && *a.DateSuppression != ""
}

// Paging is the page window requested by a list endpoint.
type Paging struct {
	Page    int
	PerPage int
}

// Offset returns the SQL OFFSET for the page.
func (p Paging) Offset() int {
	if p.Page < 1 {
		return 0
	}
	return (p.Page - 1) * p.PerPage
}

// Page is the envelope returned by every list endpoint.
type Page[T any] struct {
	Data    []T `json:"data"`
	Total   int `json:"total"`
	Page    int `json:"page"`
	PerPage int `json:"parPage"`
}

// NewPage builds the envelope, never returning a nil data slice.
func NewPage[T any](data []T, total int, p Paging) Page[T] {
	if data == nil {
		data = []T{}
	}
	return Page[T]{Data: data, Total: total, Page: p.Page, PerPage: p.PerPage}
}

// ValidationErrors maps a field name to a user-facing message.
type ValidationErrors map[string]string

func (v ValidationErrors) Add(field, message string) {
	if _, exists := v[field]; !exists {
		v[field] = message
	}
}

func (v ValidationErrors) HasErrors() bool {
	return len(v) > 0
}

func (v ValidationErrors) Error() string {
	fields := make([]string, 0, len(v))
	for f := range v {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f+": "+v[f])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// CountByKey is one row of a GROUP BY count.
type CountByKey struct {
	Key   string `db:"cle" json:"cle"`
	Count int    `db:"nombre" json:"nombre"`
}
