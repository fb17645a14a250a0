package list_reservations

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-DrivingSchoolService/internal/domain"
)

func TestToFilter(t *testing.T) {
	filter, err := ToFilter(url.Values{"date": {"2026-03-10"}, "status": {"held"}, "includeCancelled": {"true"}})
	require.NoError(t, err)
	require.NotNil(t, filter.Date)
	assert.Equal(t, "2026-03-10", filter.Date.Format(domain.DateFormat))
	require.NotNil(t, filter.Status)
	assert.Equal(t, domain.ReservationHeld, *filter.Status)
	assert.True(t, filter.IncludeCancelled)

	_, err = ToFilter(url.Values{})
	assert.ErrorIs(t, err, errMissingDate)

	_, err = ToFilter(url.Values{"date": {"2026-03-10"}, "status": {"lost"}})
	assert.ErrorIs(t, err, errBadStatus)

	_, err = ToFilter(url.Values{"date": {"2026-03-10"}, "includeCancelled": {"maybe"}})
	assert.Error(t, err)
}
