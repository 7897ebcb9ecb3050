package memory

import (
	"context"
	"sync"

	"rentdeal/internal/app/uow"
	domainbooking "rentdeal/internal/domain/booking"
	domainoffer "rentdeal/internal/domain/offer"
)

// OfferRepository is an in-memory implementation for dev and tests. Saves are
// guarded by the same version precondition the Mongo repository enforces, so
// racing writers observe the same conflicts they would in production.
type OfferRepository struct {
	mu    sync.RWMutex
	items map[domainoffer.OfferID]*domainoffer.Offer
}

func NewOfferRepository() *OfferRepository {
	return &OfferRepository{items: make(map[domainoffer.OfferID]*domainoffer.Offer)}
}

func (r *OfferRepository) ByID(ctx context.Context, id domainoffer.OfferID) (*domainoffer.Offer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, ok := r.items[id]
	if !ok {
		return nil, domainoffer.ErrOfferNotFound
	}
	return copyOffer(o), nil
}

func (r *OfferRepository) Save(ctx context.Context, o *domainoffer.Offer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.items[o.ID]; ok && existing.Version != o.Version {
		return uow.ErrConflict
	}
	stored := copyOffer(o)
	stored.Version = o.Version + 1
	r.items[o.ID] = stored
	o.Version = stored.Version
	return nil
}

func (r *OfferRepository) ListByRecipient(ctx context.Context, recipientID string, filter domainoffer.ListFilter) ([]*domainoffer.Offer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*domainoffer.Offer, 0)
	for _, o := range r.items {
		if o.RecipientID != recipientID {
			continue
		}
		if filter.Status != "" && o.Status != filter.Status {
			continue
		}
		if filter.PropertyID != "" && o.PropertyID != filter.PropertyID {
			continue
		}
		out = append(out, copyOffer(o))
	}
	return out, nil
}

func copyOffer(o *domainoffer.Offer) *domainoffer.Offer {
	clone := *o
	clone.ClearEvents()
	return &clone
}

// BookingRepository mirrors OfferRepository for bookings.
type BookingRepository struct {
	mu    sync.RWMutex
	items map[domainbooking.BookingID]*domainbooking.Booking
}

func NewBookingRepository() *BookingRepository {
	return &BookingRepository{items: make(map[domainbooking.BookingID]*domainbooking.Booking)}
}

func (r *BookingRepository) ByID(ctx context.Context, id domainbooking.BookingID) (*domainbooking.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.items[id]
	if !ok {
		return nil, domainbooking.ErrBookingNotFound
	}
	return copyBooking(b), nil
}

func (r *BookingRepository) ByOfferID(ctx context.Context, offerID string) (*domainbooking.Booking, error) {
	if offerID == "" {
		return nil, domainbooking.ErrBookingNotFound
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, b := range r.items {
		if b.OfferID == offerID {
			return copyBooking(b), nil
		}
	}
	return nil, domainbooking.ErrBookingNotFound
}

func (r *BookingRepository) Save(ctx context.Context, b *domainbooking.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.items[b.ID]; ok && existing.Version != b.Version {
		return uow.ErrConflict
	}
	// one booking per consumed offer, enforced under the write lock as the
	// unique offer_id index does in Mongo
	if b.OfferID != "" {
		for id, other := range r.items {
			if id != b.ID && other.OfferID == b.OfferID {
				return domainbooking.ErrOfferConsumed
			}
		}
	}
	stored := copyBooking(b)
	stored.Version = b.Version + 1
	r.items[b.ID] = stored
	b.Version = stored.Version
	return nil
}

func (r *BookingRepository) ListByGuest(ctx context.Context, guestID string) ([]*domainbooking.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*domainbooking.Booking, 0)
	for _, b := range r.items {
		if b.GuestID == guestID {
			out = append(out, copyBooking(b))
		}
	}
	return out, nil
}

func copyBooking(b *domainbooking.Booking) *domainbooking.Booking {
	clone := *b
	clone.ClearEvents()
	return &clone
}

var _ domainoffer.Repository = (*OfferRepository)(nil)
var _ domainbooking.Repository = (*BookingRepository)(nil)
