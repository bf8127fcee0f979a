package entity

import (
	"time"

	"github.com/homologa/vehicle-homologation/internal/domain/workflow"
)

// Submission is a vehicle homologation request tracked through its lifecycle
type Submission struct {
	ID              string         `json:"id"`
	Status          workflow.State `json:"status"`
	OwnerFullName   string         `json:"owner_full_name"`
	OwnerNationalID string         `json:"owner_national_id"`
	OwnerPhone      string         `json:"owner_phone"`
	OwnerEmail      string         `json:"owner_email"`
	VehicleType     VehicleType    `json:"vehicle_type"`
	Version         int64          `json:"version"`
	CreatedBy       string         `json:"created_by"`
	UpdatedBy       string         `json:"updated_by"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       *time.Time     `json:"deleted_at,omitempty"`
}

// IsEditable reports whether owner and vehicle fields may still be changed
func (s *Submission) IsEditable() bool {
	return s.Status == workflow.StateDraft || s.Status == workflow.StateIncomplete
}

// IsDeleted reports whether the submission has been soft-deleted
func (s *Submission) IsDeleted() bool {
	return s.DeletedAt != nil
}

// SubmissionFields holds the editable fields of a submission.
// A nil pointer leaves the stored value unchanged.
type SubmissionFields struct {
	OwnerFullName   *string      `json:"owner_full_name,omitempty"`
	OwnerNationalID *string      `json:"owner_national_id,omitempty"`
	OwnerPhone      *string      `json:"owner_phone,omitempty"`
	OwnerEmail      *string      `json:"owner_email,omitempty"`
	VehicleType     *VehicleType `json:"vehicle_type,omitempty"`
}

// IsEmpty reports whether the patch changes nothing
func (f SubmissionFields) IsEmpty() bool {
	return f.OwnerFullName == nil &&
		f.OwnerNationalID == nil &&
		f.OwnerPhone == nil &&
		f.OwnerEmail == nil &&
		f.VehicleType == nil
}

// Apply writes the non-nil fields onto the submission and returns the old and
// new values of every field that actually changed, keyed by column name.
func (f SubmissionFields) Apply(s *Submission) (oldValues, newValues map[string]interface{}) {
	oldValues = make(map[string]interface{})
	newValues = make(map[string]interface{})

	set := func(key string, dst *string, v *string) {
		if v == nil || *dst == *v {
			return
		}
		oldValues[key] = *dst
		newValues[key] = *v
		*dst = *v
	}

	set("owner_full_name", &s.OwnerFullName, f.OwnerFullName)
	set("owner_national_id", &s.OwnerNationalID, f.OwnerNationalID)
	set("owner_phone", &s.OwnerPhone, f.OwnerPhone)
	set("owner_email", &s.OwnerEmail, f.OwnerEmail)

	if f.VehicleType != nil && s.VehicleType != *f.VehicleType {
		oldValues["vehicle_type"] = string(s.VehicleType)
		newValues["vehicle_type"] = string(*f.VehicleType)
		s.VehicleType = *f.VehicleType
	}

	return oldValues, newValues
}

// SubmissionFilter narrows a submission listing
type SubmissionFilter struct {
	Status      workflow.State
	VehicleType VehicleType
	OwnerEmail  string
	Limit       int
	Offset      int
}
