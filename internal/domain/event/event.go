package event

import (
	"errors"
	"time"
)

// Collection is the remote collection the catalog lives in.
const Collection = "events"

// Wire-level field names on the stored document.
const (
	FieldName        = "name"
	FieldDescription = "description"
	FieldDateTime    = "datetime"
	FieldCategory    = "category"
	FieldIsPrivate   = "isPrivate"
	FieldOwnerID     = "ownerId"
	FieldCreatedAt   = "createdAt"
	FieldFavoritedBy = "favoritedBy"
)

type Category string

const (
	CategorySports Category = "Sports"
	CategoryMusic  Category = "Music"
	CategorySocial Category = "Social"
	CategoryOther  Category = "Other"
)

func (c Category) Valid() bool {
	switch c {
	case CategorySports, CategoryMusic, CategorySocial, CategoryOther:
		return true
	}
	return false
}

// ParseCategory maps arbitrary input onto the closed enumeration,
// defaulting to Other for blank or unknown values.
func ParseCategory(s string) Category {
	c := Category(s)
	if !c.Valid() {
		return CategoryOther
	}
	return c
}

type Event struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	StartAt     time.Time `json:"datetime"`
	Category    Category  `json:"category"`
	IsPrivate   bool      `json:"isPrivate"`
	OwnerID     string    `json:"ownerId"`
	CreatedAt   time.Time `json:"createdAt"`
	FavoritedBy []string  `json:"favoritedBy"`
}

func (e Event) IsFavoritedBy(userID string) bool {
	for _, id := range e.FavoritedBy {
		if id == userID {
			return true
		}
	}

	return false
}

var ErrNotFound = errors.New("event not found")

type CreateEventRequest struct {
	Name        string    `json:"name" binding:"required,min=1,max=120"`
	Description string    `json:"description" binding:"omitempty,max=1000"`
	StartAt     time.Time `json:"datetime" binding:"required"`
	Category    string    `json:"category" binding:"omitempty,oneof=Sports Music Social Other"`
	IsPrivate   bool      `json:"isPrivate"`
}

// a full editable-field payload; ownerId and createdAt are never editable.
type UpdateEventRequest struct {
	Name        string    `json:"name" binding:"required,min=1,max=120"`
	Description string    `json:"description" binding:"omitempty,max=1000"`
	StartAt     time.Time `json:"datetime" binding:"required"`
	Category    string    `json:"category" binding:"omitempty,oneof=Sports Music Social Other"`
	IsPrivate   bool      `json:"isPrivate"`
}
