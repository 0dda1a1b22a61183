package manifest

import (
	"testing"

	"github.com/arnavshah/manifest-api-go/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateInput(t *testing.T) {
	negative := -2
	seven := 7

	tests := []struct {
		name    string
		input   models.TripInput
		wantErr error
	}{
		{"valid", models.TripInput{PassengerID: "p1", FromOrigin: "BASE", ToDestination: "NSC", TripDate: "2024-06-10T08:00:00Z", NumberOfPassengers: &seven}, nil},
		{"same site", models.TripInput{PassengerID: "p1", FromOrigin: "NSC", ToDestination: "NSC", TripDate: "2024-06-10"}, ErrInvalidTrip},
		{"negative passengers", models.TripInput{PassengerID: "p1", FromOrigin: "BASE", ToDestination: "NSC", TripDate: "2024-06-10", NumberOfPassengers: &negative}, ErrInvalidTrip},
		{"bad date", models.TripInput{PassengerID: "p1", FromOrigin: "BASE", ToDestination: "NSC", TripDate: "June 10"}, ErrInvalidDate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := ValidateInput(tt.input)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "2024-06-10", out.TripDate)
		})
	}
}
