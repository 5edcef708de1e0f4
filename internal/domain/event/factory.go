package event

import "time"

// NewFromCreateRequest builds a catalog entry for a creating owner. The
// store assigns the id; createdAt is fixed here and never changes again.
func NewFromCreateRequest(req CreateEventRequest, ownerID string) Event {
	return Event{
		Name:        req.Name,
		Description: req.Description,
		StartAt:     req.StartAt,
		Category:    ParseCategory(req.Category),
		IsPrivate:   req.IsPrivate,
		OwnerID:     ownerID,
		CreatedAt:   time.Now().UTC(),
		FavoritedBy: []string{},
	}
}
