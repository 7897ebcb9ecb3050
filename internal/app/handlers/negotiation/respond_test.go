package negotiation

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentdeal/internal/app/uow"
	domainoffer "rentdeal/internal/domain/offer"
	"rentdeal/internal/domain/shared/daterange"
	"rentdeal/internal/domain/shared/fault"
	"rentdeal/internal/domain/shared/money"
	"rentdeal/internal/infra/storage/memory"
)

func newFixture(t *testing.T) (*memory.OfferRepository, uow.UoWFactory) {
	t.Helper()
	offers := memory.NewOfferRepository()
	factory := memory.Factory{
		OffersRepo:   offers,
		BookingsRepo: memory.NewBookingRepository(),
	}
	return offers, factory
}

func seedOffer(t *testing.T, repo *memory.OfferRepository) *domainoffer.Offer {
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
	require.NoError(t, repo.Save(context.Background(), o))
	return o
}

func TestRespondAccept(t *testing.T) {
	offers, factory := newFixture(t)
	seedOffer(t, offers)
	h := &RespondToOfferHandler{UoWFactory: factory}

	res, err := h.Handle(context.Background(), RespondToOfferCommand{
		OfferID: "offer-1",
		ActorID: "host-1",
		Action:  ActionAccept,
	})
	require.NoError(t, err)
	assert.Equal(t, "accepted", res.Offer.Status)

	stored, err := offers.ByID(context.Background(), "offer-1")
	require.NoError(t, err)
	assert.Equal(t, domainoffer.StatusAccepted, stored.Status)
}

func TestRespondCounterThenGuestAccepts(t *testing.T) {
	offers, factory := newFixture(t)
	seedOffer(t, offers)
	h := &RespondToOfferHandler{UoWFactory: factory}

	res, err := h.Handle(context.Background(), RespondToOfferCommand{
		OfferID:        "offer-1",
		ActorID:        "host-1",
		Action:         ActionCounter,
		CounterPrice:   60_000,
		CounterMessage: "can do it for 60k",
	})
	require.NoError(t, err)
	assert.Equal(t, "countered", res.Offer.Status)
	require.NotNil(t, res.Offer.CounterPrice)
	assert.Equal(t, int64(60_000), *res.Offer.CounterPrice)

	res, err = h.Handle(context.Background(), RespondToOfferCommand{
		OfferID: "offer-1",
		ActorID: "guest-1",
		Action:  ActionAccept,
	})
	require.NoError(t, err)
	assert.Equal(t, "accepted", res.Offer.Status)
	assert.Nil(t, res.Offer.CounterPrice, "counter_price only travels while the offer is countered")
	require.NotNil(t, res.Offer.AgreedPrice)
	assert.Equal(t, int64(60_000), *res.Offer.AgreedPrice)

	stored, err := offers.ByID(context.Background(), "offer-1")
	require.NoError(t, err)
	assert.True(t, stored.CounterPrice.IsZero())
	assert.Equal(t, money.Must(60_000, "USD"), stored.AgreedPrice())
}

func TestRespondErrorTaxonomy(t *testing.T) {
	tests := []struct {
		name string
		cmd  RespondToOfferCommand
		kind fault.Kind
	}{
		{
			name: "missing offer id",
			cmd:  RespondToOfferCommand{ActorID: "host-1", Action: ActionAccept},
			kind: fault.KindValidation,
		},
		{
			name: "missing actor",
			cmd:  RespondToOfferCommand{OfferID: "offer-1", Action: ActionAccept},
			kind: fault.KindForbidden,
		},
		{
			name: "unknown offer",
			cmd:  RespondToOfferCommand{OfferID: "ghost", ActorID: "host-1", Action: ActionAccept},
			kind: fault.KindNotFound,
		},
		{
			name: "unknown action",
			cmd:  RespondToOfferCommand{OfferID: "offer-1", ActorID: "host-1", Action: "approve"},
			kind: fault.KindValidation,
		},
		{
			name: "outsider",
			cmd:  RespondToOfferCommand{OfferID: "offer-1", ActorID: "stranger", Action: ActionAccept},
			kind: fault.KindForbidden,
		},
		{
			name: "reject without reason",
			cmd:  RespondToOfferCommand{OfferID: "offer-1", ActorID: "host-1", Action: ActionReject},
			kind: fault.KindValidation,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			offers, factory := newFixture(t)
			seedOffer(t, offers)
			h := &RespondToOfferHandler{UoWFactory: factory}

			_, err := h.Handle(context.Background(), tt.cmd)
			require.Error(t, err)
			assert.Equal(t, tt.kind, fault.KindOf(err))

			stored, err := offers.ByID(context.Background(), "offer-1")
			require.NoError(t, err)
			assert.Equal(t, domainoffer.StatusPending, stored.Status)
		})
	}
}

func TestRespondRejectOnTerminalOffer(t *testing.T) {
	offers, factory := newFixture(t)
	seedOffer(t, offers)
	h := &RespondToOfferHandler{UoWFactory: factory}

	_, err := h.Handle(context.Background(), RespondToOfferCommand{
		OfferID: "offer-1", ActorID: "host-1", Action: ActionAccept,
	})
	require.NoError(t, err)

	_, err = h.Handle(context.Background(), RespondToOfferCommand{
		OfferID: "offer-1", ActorID: "host-1", Action: ActionReject, Reason: "changed my mind",
	})
	require.Error(t, err)
	assert.True(t, fault.IsKind(err, fault.KindInvalidTransition))
}

// Two racing accepts on the same offer: exactly one wins, the other re-reads
// the terminal state and fails with an invalid transition.
func TestRespondConcurrentAccepts(t *testing.T) {
	offers, factory := newFixture(t)
	seedOffer(t, offers)
	h := &RespondToOfferHandler{UoWFactory: factory}

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = h.Handle(context.Background(), RespondToOfferCommand{
				OfferID: "offer-1",
				ActorID: "host-1",
				Action:  ActionAccept,
			})
		}(i)
	}
	wg.Wait()

	var okCount, invalidCount int
	for _, err := range errs {
		switch {
		case err == nil:
			okCount++
		case fault.IsKind(err, fault.KindInvalidTransition):
			invalidCount++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, okCount)
	assert.Equal(t, 1, invalidCount)

	stored, err := offers.ByID(context.Background(), "offer-1")
	require.NoError(t, err)
	assert.Equal(t, domainoffer.StatusAccepted, stored.Status)
}
