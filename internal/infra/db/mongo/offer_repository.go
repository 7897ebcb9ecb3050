package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"rentdeal/internal/app/uow"
	domainoffer "rentdeal/internal/domain/offer"
	domainrange "rentdeal/internal/domain/shared/daterange"
	"rentdeal/internal/domain/shared/money"
)

type OfferRepository struct {
	col *mongo.Collection
}

func NewOfferRepository(db *mongo.Database) *OfferRepository {
	return &OfferRepository{col: db.Collection("agg_offer")}
}

func (r *OfferRepository) ByID(ctx context.Context, id domainoffer.OfferID) (*domainoffer.Offer, error) {
	var doc offerDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainoffer.ErrOfferNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

// Save performs a conditional update keyed on the loaded version so the store
// rejects stale writes from concurrent negotiators.
func (r *OfferRepository) Save(ctx context.Context, o *domainoffer.Offer) error {
	doc := newOfferDocument(o)
	filter := bson.M{"_id": doc.ID, "version": o.Version}
	doc.Version = o.Version + 1
	update := bson.M{"$set": doc}
	opts := options.Update().SetUpsert(o.Version == 0)
	res, err := r.col.UpdateOne(ctx, filter, update, opts)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return uow.ErrConflict
		}
		return err
	}
	if res.MatchedCount == 0 && res.UpsertedCount == 0 {
		return uow.ErrConflict
	}
	o.Version = doc.Version
	return nil
}

func (r *OfferRepository) ListByRecipient(ctx context.Context, recipientID string, filter domainoffer.ListFilter) ([]*domainoffer.Offer, error) {
	query := bson.M{"recipient_id": recipientID}
	if filter.Status != "" {
		query["status"] = string(filter.Status)
	}
	if filter.PropertyID != "" {
		query["property_id"] = filter.PropertyID
	}
	cursor, err := r.col.Find(ctx, query, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var out []*domainoffer.Offer
	for cursor.Next(ctx) {
		var doc offerDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, doc.toAggregate())
	}
	return out, cursor.Err()
}

type offerDocument struct {
	ID             string `bson:"_id"`
	PropertyID     string `bson:"property_id"`
	ProposerID     string `bson:"proposer_id"`
	RecipientID    string `bson:"recipient_id"`
	ProposedAmount int64  `bson:"proposed_amount"`
	CounterAmount  int64  `bson:"counter_amount"`
	SettledAmount  int64  `bson:"settled_amount"`
	Currency       string `bson:"currency"`
	Message        string `bson:"message"`
	CounterMessage string `bson:"counter_message"`
	RejectReason   string `bson:"reject_reason"`
	CheckIn        int64  `bson:"check_in"`
	CheckOut       int64  `bson:"check_out"`
	Status         string `bson:"status"`
	CreatedAt      int64  `bson:"created_at"`
	UpdatedAt      int64  `bson:"updated_at"`
	Version        int64  `bson:"version"`
}

func newOfferDocument(o *domainoffer.Offer) offerDocument {
	return offerDocument{
		ID:             string(o.ID),
		PropertyID:     o.PropertyID,
		ProposerID:     o.ProposerID,
		RecipientID:    o.RecipientID,
		ProposedAmount: o.ProposedPrice.Amount,
		CounterAmount:  o.CounterPrice.Amount,
		SettledAmount:  o.SettledPrice.Amount,
		Currency:       o.ProposedPrice.Currency,
		Message:        o.Message,
		CounterMessage: o.CounterMessage,
		RejectReason:   o.RejectReason,
		CheckIn:        o.Stay.CheckIn.UnixMilli(),
		CheckOut:       o.Stay.CheckOut.UnixMilli(),
		Status:         string(o.Status),
		CreatedAt:      o.CreatedAt.UnixMilli(),
		UpdatedAt:      o.UpdatedAt.UnixMilli(),
		Version:        o.Version,
	}
}

func (d offerDocument) toAggregate() *domainoffer.Offer {
	o := &domainoffer.Offer{
		ID:             domainoffer.OfferID(d.ID),
		PropertyID:     d.PropertyID,
		ProposerID:     d.ProposerID,
		RecipientID:    d.RecipientID,
		ProposedPrice:  money.Money{Amount: d.ProposedAmount, Currency: d.Currency},
		Message:        d.Message,
		CounterMessage: d.CounterMessage,
		RejectReason:   d.RejectReason,
		Stay:           domainrange.DateRange{CheckIn: timestampToTime(d.CheckIn), CheckOut: timestampToTime(d.CheckOut)},
		Status:         domainoffer.OfferStatus(d.Status),
		CreatedAt:      timestampToTime(d.CreatedAt),
		UpdatedAt:      timestampToTime(d.UpdatedAt),
		Version:        d.Version,
	}
	if d.CounterAmount != 0 {
		o.CounterPrice = money.Money{Amount: d.CounterAmount, Currency: d.Currency}
	}
	if d.SettledAmount != 0 {
		o.SettledPrice = money.Money{Amount: d.SettledAmount, Currency: d.Currency}
	}
	return o
}

func timestampToTime(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

var _ domainoffer.Repository = (*OfferRepository)(nil)
