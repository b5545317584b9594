package model

import (
	"encoding/json"
	"time"
)

// Allowed values of the Source field.
const (
	SourceDirect   = "direct"
	SourcePartner  = "partner"
	SourceInternal = "internal"
)

// Sources lists every allowed value of the Source field.
var Sources = []string{SourceDirect, SourcePartner, SourceInternal}

// Professional is the stored representation of a professional contact record.
// Email and Phone are the only nullable columns; both carry a unique index so
// that either one can serve as an upsert identity.
type Professional struct {
	Id          string    `json:"id"           db:"id"`
	FullName    string    `json:"full_name"    db:"full_name"`
	Email       *string   `json:"email"        db:"email"`
	Phone       *string   `json:"phone"        db:"phone"`
	CompanyName string    `json:"company_name" db:"company_name"`
	JobTitle    string    `json:"job_title"    db:"job_title"`
	Source      string    `json:"source"       db:"source"`
	CreatedAt   time.Time `json:"created_at"   db:"created_at"`
}

// ProfessionalPayload is the partial structure submitted by clients. A nil
// field means "not present in the request"; only present fields overwrite
// stored values during an upsert.
type ProfessionalPayload struct {
	FullName    *string `json:"full_name,omitempty"    validate:"required,min=1"`
	Email       *string `json:"email,omitempty"        validate:"omitempty,email_or_blank"`
	Phone       *string `json:"phone,omitempty"        validate:"omitempty,phone_or_blank"`
	CompanyName *string `json:"company_name,omitempty"`
	JobTitle    *string `json:"job_title,omitempty"`
	Source      *string `json:"source,omitempty"       validate:"required,oneof=direct partner internal"`
}

// HasEmail reports whether the payload carries a usable email identity. An
// empty string counts as absent.
func (p *ProfessionalPayload) HasEmail() bool {
	return p.Email != nil && *p.Email != ""
}

// HasPhone reports whether the payload carries a usable phone identity. An
// empty string counts as absent.
func (p *ProfessionalPayload) HasPhone() bool {
	return p.Phone != nil && *p.Phone != ""
}

// BulkItem is one per-item outcome of a bulk upsert. Data echoes the item
// exactly as it was submitted.
type BulkItem struct {
	Data   json.RawMessage `json:"data"`
	Status int             `json:"status"`
}

// BulkResponse is the multi-status envelope of the bulk endpoint. Results and
// Errors preserve the input order of their items.
type BulkResponse struct {
	Results    []BulkItem `json:"results"`
	Errors     []BulkItem `json:"errors"`
	NumCreated int        `json:"num_created"`
	NumUpdated int        `json:"num_updated"`
}
