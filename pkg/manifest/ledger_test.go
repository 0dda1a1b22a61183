package manifest

import (
	"testing"

	"github.com/arnavshah/manifest-api-go/pkg/models"
	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tr := trip("t1", "BASE", "NSC", "2024-06-10", 0)

	assert.Equal(t, models.Incoming, Classify(tr, "NSC"))
	assert.Equal(t, models.Outgoing, Classify(tr, "BASE"))
	assert.Equal(t, models.None, Classify(tr, "RIG2"))
	assert.Equal(t, models.None, Classify(tr, ""))

	loop := trip("t2", "NSC", "NSC", "2024-06-10", 0)
	assert.Equal(t, models.Incoming, Classify(loop, "NSC"))
}

func TestBucketsFor(t *testing.T) {
	tr := trip("t1", "BASE", "NSC", "2024-06-10", 0)
	assert.Equal(t, []models.BucketKey{
		models.NewBucketKey("NSC", models.Incoming),
		models.NewBucketKey("BASE", models.Outgoing),
	}, BucketsFor(tr))

	assert.Len(t, BucketsFor(trip("t2", "NSC", "NSC", "2024-06-10", 0)), 1)
}

func TestSelect(t *testing.T) {
	trips := []models.Trip{
		trip("in1", "BASE", "NSC", "2024-06-10", 0),
		trip("out1", "NSC", "BASE", "2024-06-10", 0),
		trip("in2", "BASE", "NSC", "2024-06-11", 0),
		trip("other", "BASE", "RIG2", "2024-06-10", 0),
	}

	tests := []struct {
		name     string
		filter   LedgerFilter
		expected []string
	}{
		{"no filter", LedgerFilter{}, []string{"in1", "out1", "in2", "other"}},
		{"by date", LedgerFilter{Date: "2024-06-10"}, []string{"in1", "out1", "other"}},
		{"by site", LedgerFilter{Site: "NSC"}, []string{"in1", "out1", "in2"}},
		{"incoming on date", LedgerFilter{Date: "2024-06-10", Site: "NSC", Direction: models.Incoming}, []string{"in1"}},
		{"outgoing", LedgerFilter{Site: "NSC", Direction: models.Outgoing}, []string{"out1"}},
		{"timestamp date", LedgerFilter{Date: "2024-06-11T00:00:00Z"}, []string{"in2"}},
		{"nothing", LedgerFilter{Site: "NOPE"}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ids(Select(trips, tt.filter)))
		})
	}
}

func TestBucketKeyRoundTrip(t *testing.T) {
	k, err := models.ParseBucketKey("NORTH-SEA-1-outgoing")
	assert.NoError(t, err)
	assert.Equal(t, models.NewBucketKey("NORTH-SEA-1", models.Outgoing), k)
	assert.Equal(t, "NORTH-SEA-1-outgoing", k.String())

	for _, bad := range []string{"", "NSC", "NSC-", "-incoming", "NSC-sideways"} {
		_, err := models.ParseBucketKey(bad)
		assert.Error(t, err, bad)
	}
}

func TestNormalizeDate(t *testing.T) {
	tests := []struct {
		in   string
		want string
		err  bool
	}{
		{"2024-06-10", "2024-06-10", false},
		{"2024-06-10T23:30:00.000Z", "2024-06-10", false},
		{"2024-6-1", "", true},
		{"tomorrow", "", true},
		{"2024-13-01", "", true},
	}
	for _, tt := range tests {
		got, err := NormalizeDate(tt.in)
		if tt.err {
			assert.ErrorIs(t, err, ErrInvalidDate, tt.in)
			continue
		}
		assert.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}
}
