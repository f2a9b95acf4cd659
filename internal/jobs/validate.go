package jobs

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"ridepool/internal/model"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// ValidateRequest checks field constraints and identifier uniqueness.
func ValidateRequest(req model.OptimizeRequest) error {
	if err := validate.Struct(req); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	seen := map[string]bool{}
	for _, r := range req.Riders {
		if seen[r.ID] {
			return fmt.Errorf("%w: duplicate rider id %q", ErrInvalidRequest, r.ID)
		}
		seen[r.ID] = true
	}
	seen = map[string]bool{}
	for _, v := range req.Vehicles {
		if seen[v.ID] {
			return fmt.Errorf("%w: duplicate vehicle id %q", ErrInvalidRequest, v.ID)
		}
		seen[v.ID] = true
	}
	return nil
}
