package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentdeal/internal/app/uow"
	domainbooking "rentdeal/internal/domain/booking"
	domainoffer "rentdeal/internal/domain/offer"
	"rentdeal/internal/domain/shared/daterange"
	"rentdeal/internal/domain/shared/money"
)

func newOffer(t *testing.T) *domainoffer.Offer {
	t.Helper()
	stay, err := daterange.New(
		time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC),
	)
	require.NoError(t, err)
	o, err := domainoffer.NewOffer(domainoffer.CreateParams{
		ID:            "offer-1",
		PropertyID:    "prop-1",
		ProposerID:    "guest-1",
		RecipientID:   "host-1",
		ProposedPrice: money.Must(50_000, "USD"),
		Stay:          stay,
		CreatedAt:     time.Now(),
	})
	require.NoError(t, err)
	return o
}

func TestOfferSaveBumpsVersion(t *testing.T) {
	repo := NewOfferRepository()
	ctx := context.Background()
	o := newOffer(t)

	require.NoError(t, repo.Save(ctx, o))
	assert.Equal(t, int64(1), o.Version)

	require.NoError(t, o.Accept("host-1", time.Now()))
	require.NoError(t, repo.Save(ctx, o))
	assert.Equal(t, int64(2), o.Version)
}

func TestOfferSaveRejectsStaleVersion(t *testing.T) {
	repo := NewOfferRepository()
	ctx := context.Background()
	require.NoError(t, repo.Save(ctx, newOffer(t)))

	first, err := repo.ByID(ctx, "offer-1")
	require.NoError(t, err)
	second, err := repo.ByID(ctx, "offer-1")
	require.NoError(t, err)

	require.NoError(t, first.Accept("host-1", time.Now()))
	require.NoError(t, repo.Save(ctx, first))

	require.NoError(t, second.Accept("host-1", time.Now()))
	err = repo.Save(ctx, second)
	assert.ErrorIs(t, err, uow.ErrConflict)

	// the winner's write is intact
	stored, err := repo.ByID(ctx, "offer-1")
	require.NoError(t, err)
	assert.Equal(t, domainoffer.StatusAccepted, stored.Status)
	assert.Equal(t, int64(2), stored.Version)
}

func TestByIDReturnsIsolatedCopy(t *testing.T) {
	repo := NewOfferRepository()
	ctx := context.Background()
	require.NoError(t, repo.Save(ctx, newOffer(t)))

	read, err := repo.ByID(ctx, "offer-1")
	require.NoError(t, err)
	read.Status = domainoffer.StatusRejected

	stored, err := repo.ByID(ctx, "offer-1")
	require.NoError(t, err)
	assert.Equal(t, domainoffer.StatusPending, stored.Status)
	assert.Empty(t, stored.PendingEvents())
}

func newBookingFor(t *testing.T, id domainbooking.BookingID, offerID string) *domainbooking.Booking {
	t.Helper()
	stay, err := daterange.New(
		time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC),
	)
	require.NoError(t, err)
	b, err := domainbooking.NewBooking(domainbooking.CreateParams{
		ID:         id,
		PropertyID: "prop-1",
		GuestID:    "guest-1",
		HostID:     "host-1",
		OfferID:    offerID,
		Stay:       stay,
		Guests:     2,
		Total:      money.Must(60_000, "USD"),
		CreatedAt:  time.Now(),
	})
	require.NoError(t, err)
	return b
}

func TestBookingSaveEnforcesOneBookingPerOffer(t *testing.T) {
	repo := NewBookingRepository()
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, newBookingFor(t, "bk-1", "offer-1")))

	err := repo.Save(ctx, newBookingFor(t, "bk-2", "offer-1"))
	assert.ErrorIs(t, err, domainbooking.ErrOfferConsumed)

	// a different offer, or no offer at all, is unaffected
	require.NoError(t, repo.Save(ctx, newBookingFor(t, "bk-3", "offer-2")))
	require.NoError(t, repo.Save(ctx, newBookingFor(t, "bk-4", "")))
	require.NoError(t, repo.Save(ctx, newBookingFor(t, "bk-5", "")))
}

func TestListByRecipientFilters(t *testing.T) {
	repo := NewOfferRepository()
	ctx := context.Background()

	o1 := newOffer(t)
	require.NoError(t, repo.Save(ctx, o1))

	o2 := newOffer(t)
	o2.ID = "offer-2"
	o2.PropertyID = "prop-2"
	require.NoError(t, o2.Accept("host-1", time.Now()))
	require.NoError(t, repo.Save(ctx, o2))

	all, err := repo.ListByRecipient(ctx, "host-1", domainoffer.ListFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	pending, err := repo.ListByRecipient(ctx, "host-1", domainoffer.ListFilter{Status: domainoffer.StatusPending})
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, domainoffer.OfferID("offer-1"), pending[0].ID)

	byProp, err := repo.ListByRecipient(ctx, "host-1", domainoffer.ListFilter{PropertyID: "prop-2"})
	require.NoError(t, err)
	require.Len(t, byProp, 1)
	assert.Equal(t, domainoffer.OfferID("offer-2"), byProp[0].ID)

	none, err := repo.ListByRecipient(ctx, "someone-else", domainoffer.ListFilter{})
	require.NoError(t, err)
	assert.Empty(t, none)
}
