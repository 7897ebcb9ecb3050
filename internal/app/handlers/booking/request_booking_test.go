package booking

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentdeal/internal/app/uow"
	domainbooking "rentdeal/internal/domain/booking"
	domainoffer "rentdeal/internal/domain/offer"
	"rentdeal/internal/domain/shared/daterange"
	"rentdeal/internal/domain/shared/fault"
	"rentdeal/internal/domain/shared/money"
	"rentdeal/internal/infra/storage/memory"
)

type fixture struct {
	offers   *memory.OfferRepository
	bookings *memory.BookingRepository
	factory  uow.UoWFactory
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	offers := memory.NewOfferRepository()
	bookings := memory.NewBookingRepository()
	return fixture{
		offers:   offers,
		bookings: bookings,
		factory:  memory.Factory{OffersRepo: offers, BookingsRepo: bookings},
	}
}

func seedAcceptedOffer(t *testing.T, repo *memory.OfferRepository) *domainoffer.Offer {
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
	require.NoError(t, o.Counter("host-1", money.Must(60_000, "USD"), "", time.Now()))
	require.NoError(t, o.Accept("guest-1", time.Now()))
	require.NoError(t, repo.Save(context.Background(), o))
	return o
}

func TestRequestBookingFromAcceptedOffer(t *testing.T) {
	fx := newFixture(t)
	seedAcceptedOffer(t, fx.offers)
	h := &RequestBookingHandler{UoWFactory: fx.factory}

	res, err := h.Handle(context.Background(), RequestBookingCommand{
		CommandID: "bk-1",
		GuestID:   "guest-1",
		OfferID:   "offer-1",
		Guests:    2,
	})
	require.NoError(t, err)

	// property, host, stay and price all come from the accepted offer
	assert.Equal(t, "prop-1", res.Booking.PropertyID)
	assert.Equal(t, "host-1", res.Booking.HostID)
	assert.Equal(t, int64(60_000), res.Booking.TotalPrice)
	assert.Equal(t, "pending", res.Booking.Status)
	assert.Equal(t, "pending", res.Booking.PaymentStatus)

	stored, err := fx.bookings.ByOfferID(context.Background(), "offer-1")
	require.NoError(t, err)
	assert.Equal(t, domainbooking.BookingID("bk-1"), stored.ID)
}

func TestRequestBookingConsumesOfferOnce(t *testing.T) {
	fx := newFixture(t)
	seedAcceptedOffer(t, fx.offers)
	h := &RequestBookingHandler{UoWFactory: fx.factory}

	cmd := RequestBookingCommand{CommandID: "bk-1", GuestID: "guest-1", OfferID: "offer-1", Guests: 2}
	_, err := h.Handle(context.Background(), cmd)
	require.NoError(t, err)

	cmd.CommandID = "bk-2"
	_, err = h.Handle(context.Background(), cmd)
	require.Error(t, err)
	assert.ErrorIs(t, err, domainbooking.ErrOfferConsumed)
}

// bookingCheckGate holds every ByOfferID caller until all expected callers
// have completed their consumption check, forcing the interleaving where two
// requests both observe the offer as unconsumed.
type bookingCheckGate struct {
	*memory.BookingRepository
	checks *sync.WaitGroup
}

func (g *bookingCheckGate) ByOfferID(ctx context.Context, offerID string) (*domainbooking.Booking, error) {
	b, err := g.BookingRepository.ByOfferID(ctx, offerID)
	g.checks.Done()
	g.checks.Wait()
	return b, err
}

func TestRequestBookingConcurrentOnSameOffer(t *testing.T) {
	offers := memory.NewOfferRepository()
	bookings := memory.NewBookingRepository()
	var checks sync.WaitGroup
	checks.Add(2)
	factory := memory.Factory{
		OffersRepo:   offers,
		BookingsRepo: &bookingCheckGate{BookingRepository: bookings, checks: &checks},
	}
	seedAcceptedOffer(t, offers)
	h := &RequestBookingHandler{UoWFactory: factory}

	errs := make(chan error, 2)
	for _, id := range []string{"bk-a", "bk-b"} {
		go func(id string) {
			_, err := h.Handle(context.Background(), RequestBookingCommand{
				CommandID: id, GuestID: "guest-1", OfferID: "offer-1", Guests: 2,
			})
			errs <- err
		}(id)
	}

	var won, consumed int
	for i := 0; i < 2; i++ {
		switch err := <-errs; {
		case err == nil:
			won++
		case errors.Is(err, domainbooking.ErrOfferConsumed):
			consumed++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, won, "exactly one request may consume the offer")
	assert.Equal(t, 1, consumed)

	persisted := 0
	for _, id := range []string{"bk-a", "bk-b"} {
		if _, err := bookings.ByID(context.Background(), domainbooking.BookingID(id)); err == nil {
			persisted++
		}
	}
	assert.Equal(t, 1, persisted)
}

func TestRequestBookingGuards(t *testing.T) {
	tests := []struct {
		name    string
		prepare func(t *testing.T, fx fixture)
		cmd     RequestBookingCommand
		kind    fault.Kind
	}{
		{
			name: "offer not accepted",
			prepare: func(t *testing.T, fx fixture) {
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
				require.NoError(t, fx.offers.Save(context.Background(), o))
			},
			cmd:  RequestBookingCommand{CommandID: "bk-1", GuestID: "guest-1", OfferID: "offer-1", Guests: 2},
			kind: fault.KindInvalidTransition,
		},
		{
			name:    "only proposer may book",
			prepare: func(t *testing.T, fx fixture) { seedAcceptedOffer(t, fx.offers) },
			cmd:     RequestBookingCommand{CommandID: "bk-1", GuestID: "someone-else", OfferID: "offer-1", Guests: 2},
			kind:    fault.KindForbidden,
		},
		{
			name: "unknown offer",
			cmd:  RequestBookingCommand{CommandID: "bk-1", GuestID: "guest-1", OfferID: "ghost", Guests: 2},
			kind: fault.KindNotFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fx := newFixture(t)
			if tt.prepare != nil {
				tt.prepare(t, fx)
			}
			h := &RequestBookingHandler{UoWFactory: fx.factory}
			_, err := h.Handle(context.Background(), tt.cmd)
			require.Error(t, err)
			assert.Equal(t, tt.kind, fault.KindOf(err))
		})
	}
}

func TestRequestBookingDirect(t *testing.T) {
	fx := newFixture(t)
	h := &RequestBookingHandler{UoWFactory: fx.factory}

	res, err := h.Handle(context.Background(), RequestBookingCommand{
		CommandID:  "bk-1",
		PropertyID: "prop-9",
		GuestID:    "guest-1",
		HostID:     "host-1",
		CheckIn:    time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC),
		CheckOut:   time.Date(2026, 10, 4, 0, 0, 0, 0, time.UTC),
		Guests:     3,
		TotalPrice: 90_000,
		Currency:   "USD",
	})
	require.NoError(t, err)
	assert.Equal(t, "prop-9", res.Booking.PropertyID)
	assert.Equal(t, int64(90_000), res.Booking.TotalPrice)
	assert.Empty(t, res.Booking.OfferID)

	_, err = h.Handle(context.Background(), RequestBookingCommand{
		CommandID:  "bk-2",
		PropertyID: "prop-9",
		GuestID:    "guest-1",
		HostID:     "host-1",
		CheckIn:    time.Date(2026, 10, 4, 0, 0, 0, 0, time.UTC),
		CheckOut:   time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC),
		Guests:     3,
		TotalPrice: 90_000,
		Currency:   "USD",
	})
	require.Error(t, err)
	assert.True(t, fault.IsKind(err, fault.KindValidation))
}

func TestCancelBooking(t *testing.T) {
	fx := newFixture(t)
	h := &RequestBookingHandler{UoWFactory: fx.factory}
	_, err := h.Handle(context.Background(), RequestBookingCommand{
		CommandID:  "bk-1",
		PropertyID: "prop-9",
		GuestID:    "guest-1",
		HostID:     "host-1",
		CheckIn:    time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC),
		CheckOut:   time.Date(2026, 10, 4, 0, 0, 0, 0, time.UTC),
		Guests:     3,
		TotalPrice: 90_000,
		Currency:   "USD",
	})
	require.NoError(t, err)

	cancel := &CancelBookingHandler{UoWFactory: fx.factory}

	_, err = cancel.Handle(context.Background(), CancelBookingCommand{
		BookingID: "bk-1", ActorID: "stranger", Reason: "nope",
	})
	assert.True(t, fault.IsKind(err, fault.KindForbidden))

	_, err = cancel.Handle(context.Background(), CancelBookingCommand{
		BookingID: "bk-1", ActorID: "guest-1", Reason: "",
	})
	assert.True(t, fault.IsKind(err, fault.KindValidation))

	res, err := cancel.Handle(context.Background(), CancelBookingCommand{
		BookingID: "bk-1", ActorID: "host-1", Reason: "double booked",
	})
	require.NoError(t, err)
	assert.Equal(t, "cancelled", res.Booking.Status)

	_, err = cancel.Handle(context.Background(), CancelBookingCommand{
		BookingID: "bk-1", ActorID: "guest-1", Reason: "again",
	})
	assert.True(t, fault.IsKind(err, fault.KindInvalidTransition))
}
