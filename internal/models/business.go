// Package models defines core data structures for businesses, queries, and ranked results.
package models

import (
	"slices"
	"time"
)

// EntityCategory is the organizational tier of a business.
type EntityCategory string

const (
	EntityCompany      EntityCategory = "Company"
	EntityOrganization EntityCategory = "Organization"
	EntityBusiness     EntityCategory = "Business"
	EntityConsultant   EntityCategory = "Consultant"
)

// Business is a catalog record. The ranking engine treats it as read-only.
type Business struct {
	ID             string         `json:"id" yaml:"id"`
	Name           string         `json:"name" yaml:"name"`
	Industry       string         `json:"industry" yaml:"industry"`
	Description    string         `json:"description" yaml:"description"`
	Specialties    []string       `json:"specialties" yaml:"specialties"`
	Tags           []string       `json:"tags" yaml:"tags"`
	Location       string         `json:"location" yaml:"location"`
	EntityCategory EntityCategory `json:"entity_category,omitempty" yaml:"entity_category"`

	Rating   float64 `json:"rating,omitempty" yaml:"rating"`
	Reviews  int     `json:"reviews,omitempty" yaml:"reviews"`
	Phone    string  `json:"phone,omitempty" yaml:"phone"`
	Email    string  `json:"email,omitempty" yaml:"email"`
	Website  string  `json:"website,omitempty" yaml:"website"`
	Verified bool    `json:"verified" yaml:"verified"`
	// Visible defaults to true on import; hidden businesses never reach the ranking engine.
	Visible bool `json:"visible" yaml:"visible"`

	// Source is the catalog file a record was imported from, empty for API-created records.
	Source    string    `json:"source,omitempty" yaml:"-"`
	CreatedAt time.Time `json:"created_at" yaml:"-"`
	UpdatedAt time.Time `json:"updated_at" yaml:"-"`
}

// Clone returns a copy of b that shares no slices with it.
func (b Business) Clone() Business {
	b.Specialties = slices.Clone(b.Specialties)
	b.Tags = slices.Clone(b.Tags)
	return b
}

// BusinessInput is the input for creating or updating a business, over the API or from a catalog file.
type BusinessInput struct {
	ID             string         `json:"id,omitempty" yaml:"id"`
	Name           string         `json:"name" yaml:"name"`
	Industry       string         `json:"industry" yaml:"industry"`
	Description    string         `json:"description" yaml:"description"`
	Specialties    []string       `json:"specialties,omitempty" yaml:"specialties"`
	Tags           []string       `json:"tags,omitempty" yaml:"tags"`
	Location       string         `json:"location" yaml:"location"`
	EntityCategory EntityCategory `json:"entity_category,omitempty" yaml:"entity_category"`
	Rating         float64        `json:"rating,omitempty" yaml:"rating"`
	Reviews        int            `json:"reviews,omitempty" yaml:"reviews"`
	Phone          string         `json:"phone,omitempty" yaml:"phone"`
	Email          string         `json:"email,omitempty" yaml:"email"`
	Website        string         `json:"website,omitempty" yaml:"website"`
	Verified       bool           `json:"verified,omitempty" yaml:"verified"`
	Visible        *bool          `json:"visible,omitempty" yaml:"visible"`
}

// ToBusiness converts the input to a record. Visible defaults to true when unset.
func (in *BusinessInput) ToBusiness() *Business {
	visible := true
	if in.Visible != nil {
		visible = *in.Visible
	}
	return &Business{
		ID:             in.ID,
		Name:           in.Name,
		Industry:       in.Industry,
		Description:    in.Description,
		Specialties:    slices.Clone(in.Specialties),
		Tags:           slices.Clone(in.Tags),
		Location:       in.Location,
		EntityCategory: in.EntityCategory,
		Rating:         in.Rating,
		Reviews:        in.Reviews,
		Phone:          in.Phone,
		Email:          in.Email,
		Website:        in.Website,
		Verified:       in.Verified,
		Visible:        visible,
	}
}
