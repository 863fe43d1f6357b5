package scheduler

import (
	"fmt"

	"github.com/me/schedsim/pkg/model"
)

// Validate checks the policy, descriptors, and config before a run.
// It returns an *model.APIError listing every problem found, or nil.
func Validate(policy model.Policy, descriptors []model.Descriptor, cfg Config) error {
	var details []model.FieldError
	if !policy.Valid() {
		details = append(details, model.FieldError{Field: "policy", Message: fmt.Sprintf("unknown policy %q", policy)})
	}
	details = append(details, inputProblems(descriptors, cfg)...)
	if len(details) > 0 {
		return model.NewValidationError("invalid simulation input", details...)
	}
	return nil
}

// ValidateInput checks descriptors and config independently of any policy.
func ValidateInput(descriptors []model.Descriptor, cfg Config) error {
	if details := inputProblems(descriptors, cfg); len(details) > 0 {
		return model.NewValidationError("invalid simulation input", details...)
	}
	return nil
}

func inputProblems(descriptors []model.Descriptor, cfg Config) []model.FieldError {
	var details []model.FieldError
	if cfg.Quantum <= 0 {
		details = append(details, model.FieldError{Field: "quantum", Message: "must be > 0"})
	}
	if cfg.Aging < 0 {
		details = append(details, model.FieldError{Field: "aging", Message: "must be >= 0"})
	}

	seen := make(map[string]int, len(descriptors))
	for i, d := range descriptors {
		path := fmt.Sprintf("processes[%d]", i)
		if d.ID == "" {
			details = append(details, model.FieldError{Field: "id", Path: path, Message: "required"})
		} else if j, dup := seen[d.ID]; dup {
			details = append(details, model.FieldError{Field: "id", Path: path, Message: fmt.Sprintf("duplicate of processes[%d]", j)})
		} else {
			seen[d.ID] = i
		}
		if d.Arrival < 0 {
			details = append(details, model.FieldError{Field: "arrival", Path: path, Message: "must be >= 0"})
		}
		if d.Burst <= 0 {
			details = append(details, model.FieldError{Field: "burst", Path: path, Message: "must be > 0"})
		}
	}

	return details
}
