package manifest

import (
	"errors"
	"fmt"

	"github.com/arnavshah/manifest-api-go/pkg/models"
)

var ErrInvalidTrip = errors.New("invalid trip")

// ValidateInput checks a trip payload before it is stored and returns it with
// its date normalized
func ValidateInput(in models.TripInput) (models.TripInput, error) {
	date, err := NormalizeDate(in.TripDate)
	if err != nil {
		return in, err
	}
	in.TripDate = date

	if in.FromOrigin == in.ToDestination {
		return in, fmt.Errorf("%w: fromOrigin and toDestination must differ", ErrInvalidTrip)
	}
	if in.NumberOfPassengers != nil && *in.NumberOfPassengers < 0 {
		return in, fmt.Errorf("%w: numberOfPassengers cannot be negative", ErrInvalidTrip)
	}
	return in, nil
}
