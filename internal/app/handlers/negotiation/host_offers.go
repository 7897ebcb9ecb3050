package negotiation

import (
	"context"
	"sort"
	"strings"

	"rentdeal/internal/app/dto"
	"rentdeal/internal/app/handlers/support"
	"rentdeal/internal/app/queries"
	"rentdeal/internal/app/uow"
	domainoffer "rentdeal/internal/domain/offer"
	"rentdeal/internal/domain/shared/fault"
)

const (
	listHostOffersKey = "host.offers.list"
	getOfferKey       = "offer.get"
)

// ListHostOffersQuery backs the host negotiation inbox. CountOnly callers get
// an empty item list with only the total populated.
type ListHostOffersQuery struct {
	HostID     string
	Status     string
	PropertyID string
	CountOnly  bool
}

func (q ListHostOffersQuery) Key() string { return listHostOffersKey }

type ListHostOffersHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *ListHostOffersHandler) Handle(ctx context.Context, q ListHostOffersQuery) (dto.HostOfferCollection, error) {
	hostID := strings.TrimSpace(q.HostID)
	if hostID == "" {
		return dto.HostOfferCollection{}, fault.New(fault.KindForbidden, "negotiation: host identity required")
	}
	filter := domainoffer.ListFilter{PropertyID: strings.TrimSpace(q.PropertyID)}
	if status := strings.TrimSpace(q.Status); status != "" {
		filter.Status = domainoffer.OfferStatus(strings.ToUpper(status))
	}

	unit, execCtx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.HostOfferCollection{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	offers, err := unit.Offers().ListByRecipient(execCtx, hostID, filter)
	if err != nil {
		return dto.HostOfferCollection{}, err
	}
	sort.Slice(offers, func(i, j int) bool {
		return offers[i].CreatedAt.After(offers[j].CreatedAt)
	})

	out := dto.HostOfferCollection{Total: len(offers), Items: []dto.OfferView{}}
	if q.CountOnly {
		return out, nil
	}
	for _, o := range offers {
		out.Items = append(out.Items, dto.NewOfferView(o))
	}
	return out, nil
}

type GetOfferQuery struct {
	OfferID string
}

func (q GetOfferQuery) Key() string { return getOfferKey }

type GetOfferHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *GetOfferHandler) Handle(ctx context.Context, q GetOfferQuery) (dto.OfferView, error) {
	unit, execCtx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.OfferView{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	o, err := unit.Offers().ByID(execCtx, domainoffer.OfferID(q.OfferID))
	if err != nil {
		return dto.OfferView{}, err
	}
	return dto.NewOfferView(o), nil
}

var _ queries.Handler[ListHostOffersQuery, dto.HostOfferCollection] = (*ListHostOffersHandler)(nil)
var _ queries.Handler[GetOfferQuery, dto.OfferView] = (*GetOfferHandler)(nil)
