package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"rentdeal/internal/app/uow"
	domainbooking "rentdeal/internal/domain/booking"
	domainrange "rentdeal/internal/domain/shared/daterange"
	"rentdeal/internal/domain/shared/money"
)

type BookingRepository struct {
	col *mongo.Collection
}

func NewBookingRepository(db *mongo.Database) *BookingRepository {
	return &BookingRepository{col: db.Collection("agg_booking")}
}

// EnsureIndexes creates the unique partial index that makes one-booking-per-
// offer hold at the store, not just in handler checks.
func (r *BookingRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "offer_id", Value: 1}},
		Options: options.Index().
			SetUnique(true).
			SetPartialFilterExpression(bson.M{"offer_id": bson.M{"$type": "string"}}),
	})
	return err
}

func (r *BookingRepository) ByID(ctx context.Context, id domainbooking.BookingID) (*domainbooking.Booking, error) {
	var doc bookingDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainbooking.ErrBookingNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *BookingRepository) ByOfferID(ctx context.Context, offerID string) (*domainbooking.Booking, error) {
	if offerID == "" {
		return nil, domainbooking.ErrBookingNotFound
	}
	var doc bookingDocument
	if err := r.col.FindOne(ctx, bson.M{"offer_id": offerID}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainbooking.ErrBookingNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *BookingRepository) Save(ctx context.Context, b *domainbooking.Booking) error {
	doc := newBookingDocument(b)
	filter := bson.M{"_id": doc.ID, "version": b.Version}
	doc.Version = b.Version + 1
	update := bson.M{"$set": doc}
	opts := options.Update().SetUpsert(b.Version == 0)
	res, err := r.col.UpdateOne(ctx, filter, update, opts)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			if doc.OfferID != "" {
				return domainbooking.ErrOfferConsumed
			}
			return uow.ErrConflict
		}
		return err
	}
	if res.MatchedCount == 0 && res.UpsertedCount == 0 {
		return uow.ErrConflict
	}
	b.Version = doc.Version
	return nil
}

func (r *BookingRepository) ListByGuest(ctx context.Context, guestID string) ([]*domainbooking.Booking, error) {
	cursor, err := r.col.Find(ctx, bson.M{"guest_id": guestID}, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var out []*domainbooking.Booking
	for cursor.Next(ctx) {
		var doc bookingDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, doc.toAggregate())
	}
	return out, cursor.Err()
}

type bookingDocument struct {
	ID              string `bson:"_id"`
	PropertyID      string `bson:"property_id"`
	GuestID         string `bson:"guest_id"`
	HostID          string `bson:"host_id"`
	OfferID         string `bson:"offer_id,omitempty"`
	CheckIn         int64  `bson:"check_in"`
	CheckOut        int64  `bson:"check_out"`
	Guests          int    `bson:"guests"`
	TotalAmount     int64  `bson:"total_amount"`
	Currency        string `bson:"currency"`
	Status          string `bson:"status"`
	PaymentStatus   string `bson:"payment_status"`
	PaymentRef      string `bson:"payment_ref"`
	SpecialRequests string `bson:"special_requests"`
	CancelReason    string `bson:"cancel_reason"`
	CreatedAt       int64  `bson:"created_at"`
	UpdatedAt       int64  `bson:"updated_at"`
	Version         int64  `bson:"version"`
}

func newBookingDocument(b *domainbooking.Booking) bookingDocument {
	return bookingDocument{
		ID:              string(b.ID),
		PropertyID:      b.PropertyID,
		GuestID:         b.GuestID,
		HostID:          b.HostID,
		OfferID:         b.OfferID,
		CheckIn:         b.Stay.CheckIn.UnixMilli(),
		CheckOut:        b.Stay.CheckOut.UnixMilli(),
		Guests:          b.Guests,
		TotalAmount:     b.Total.Amount,
		Currency:        b.Total.Currency,
		Status:          string(b.Status),
		PaymentStatus:   string(b.PaymentStatus),
		PaymentRef:      b.PaymentRef,
		SpecialRequests: b.SpecialRequests,
		CancelReason:    b.CancelReason,
		CreatedAt:       b.CreatedAt.UnixMilli(),
		UpdatedAt:       b.UpdatedAt.UnixMilli(),
		Version:         b.Version,
	}
}

func (d bookingDocument) toAggregate() *domainbooking.Booking {
	return &domainbooking.Booking{
		ID:              domainbooking.BookingID(d.ID),
		PropertyID:      d.PropertyID,
		GuestID:         d.GuestID,
		HostID:          d.HostID,
		OfferID:         d.OfferID,
		Stay:            domainrange.DateRange{CheckIn: timestampToTime(d.CheckIn), CheckOut: timestampToTime(d.CheckOut)},
		Guests:          d.Guests,
		Total:           money.Money{Amount: d.TotalAmount, Currency: d.Currency},
		Status:          domainbooking.Status(d.Status),
		PaymentStatus:   domainbooking.PaymentStatus(d.PaymentStatus),
		PaymentRef:      d.PaymentRef,
		SpecialRequests: d.SpecialRequests,
		CancelReason:    d.CancelReason,
		CreatedAt:       timestampToTime(d.CreatedAt),
		UpdatedAt:       timestampToTime(d.UpdatedAt),
		Version:         d.Version,
	}
}

var _ domainbooking.Repository = (*BookingRepository)(nil)
