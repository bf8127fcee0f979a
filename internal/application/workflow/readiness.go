package workflow

import (
	"context"
	"strings"

	"github.com/homologa/vehicle-homologation/internal/domain/entity"
	domainwf "github.com/homologa/vehicle-homologation/internal/domain/workflow"
)

// requiredField pairs the name reported to callers with its accessor
type requiredField struct {
	name  string
	value func(*entity.Submission) string
}

var requiredFields = []requiredField{
	{"ownerFullName", func(s *entity.Submission) string { return s.OwnerFullName }},
	{"ownerNationalId", func(s *entity.Submission) string { return s.OwnerNationalID }},
	{"ownerPhone", func(s *entity.Submission) string { return s.OwnerPhone }},
	{"ownerEmail", func(s *entity.Submission) string { return s.OwnerEmail }},
	{"vehicleType", func(s *entity.Submission) string { return string(s.VehicleType) }},
}

// missingFields returns the names of required fields that are absent or blank
func missingFields(sub *entity.Submission) []string {
	var missing []string
	for _, f := range requiredFields {
		if strings.TrimSpace(f.value(sub)) == "" {
			missing = append(missing, f.name)
		}
	}
	return missing
}

// checkReadiness evaluates field completeness and attachment presence together,
// so a single rejection reports every unmet condition.
func (e *engineImpl) checkReadiness(ctx context.Context, sub *entity.Submission) error {
	missing := missingFields(sub)

	count, err := e.attachments.CountBySubmission(ctx, sub.ID)
	if err != nil {
		return domainwf.NewUnexpected("count attachments", err)
	}

	noAttachments := count == 0
	if len(missing) > 0 || noAttachments {
		return domainwf.NewMissingPrerequisites(missing, noAttachments)
	}
	return nil
}
