package service

import (
	"context"
	"log/slog"

	"receivingapi/internal/apperr"
	"receivingapi/internal/catalog"
	"receivingapi/internal/model"
)

// Recommendation is an advisory putaway proposal. It mutates nothing; the
// location is only committed when the caller patches the item with it.
type Recommendation struct {
	LocationID string `json:"location_id"`
	Code       string `json:"code"`
	Zone       string `json:"zone"`
	// Rule names which heuristic step produced the proposal.
	Rule string `json:"rule"`
}

const (
	RuleExistingStock = "existing_stock"
	RuleZoneAffinity  = "zone_affinity"
	RuleNearestEmpty  = "nearest_empty"
)

// Recommender proposes a putaway location for an item.
type Recommender interface {
	Recommend(ctx context.Context, itemID string, actor model.Actor) (*Recommendation, error)
}

type recommender struct {
	catalog catalog.Gateway
	log     *slog.Logger
}

// NewRecommender constructs a location recommender over the catalog gateway.
func NewRecommender(gw catalog.Gateway, log *slog.Logger) Recommender {
	return &recommender{catalog: gw, log: log}
}

// Recommend applies the heuristic in priority order:
//  1. a location already holding stock of the item with remaining capacity;
//  2. an empty slot in a zone holding related items (supplier or category);
//  3. any empty slot with capacity, nearest to the receiving dock;
//  4. NoCapacityError — silent overcapacity placement is disallowed.
func (r *recommender) Recommend(ctx context.Context, itemID string, actor model.Actor) (*Recommendation, error) {
	if itemID == "" {
		return nil, apperr.Validation("item_id is required")
	}
	if _, err := r.catalog.ResolveItem(ctx, itemID); err != nil {
		return nil, asNotFound(err, "catalog item", itemID)
	}

	stocked, err := r.catalog.StockLocations(ctx, itemID)
	if err != nil {
		return nil, err
	}
	for _, loc := range stocked {
		if loc.Remaining() > 0 {
			return &Recommendation{LocationID: loc.ID, Code: loc.Code, Zone: loc.Zone, Rule: RuleExistingStock}, nil
		}
	}

	empties, err := r.catalog.EmptyLocations(ctx)
	if err != nil {
		return nil, err
	}
	if len(empties) > 0 {
		zones, err := r.catalog.AffinityZones(ctx, itemID)
		if err != nil {
			return nil, err
		}
		for _, zone := range zones {
			for _, loc := range empties {
				if loc.Zone == zone {
					return &Recommendation{LocationID: loc.ID, Code: loc.Code, Zone: loc.Zone, Rule: RuleZoneAffinity}, nil
				}
			}
		}
		// EmptyLocations is already ordered by dock distance.
		loc := empties[0]
		return &Recommendation{LocationID: loc.ID, Code: loc.Code, Zone: loc.Zone, Rule: RuleNearestEmpty}, nil
	}

	r.log.WarnContext(ctx, "no putaway capacity available", "item_id", itemID, "actor_id", actor.ID)
	return nil, apperr.NoCapacity("no location with remaining capacity for item %s", itemID)
}
