package address

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/nearbuy-backend/pkg/db/models"
	"github.com/angelmondragon/nearbuy-backend/pkg/types"
)

// AddInput creates an address either from explicit coordinates or from a
// Places id, in which case line and coordinates are resolved.
type AddInput struct {
	OwnerID     uuid.UUID
	Line        string
	Building    *string
	Flat        *string
	Lat         *float64
	Lng         *float64
	Label       string
	PlaceID     string
	MakeDefault bool
}

type AddressDTO struct {
	ID        uuid.UUID            `json:"id"`
	Line      string               `json:"line"`
	Building  *string              `json:"building,omitempty"`
	Flat      *string              `json:"flat,omitempty"`
	Location  types.GeographyPoint `json:"location"`
	Label     string               `json:"label"`
	IsDefault bool                 `json:"is_default"`
	CreatedAt time.Time            `json:"created_at"`
}

func FromModel(m models.Address) AddressDTO {
	return AddressDTO{
		ID:        m.ID,
		Line:      m.Line,
		Building:  m.Building,
		Flat:      m.Flat,
		Location:  m.Location(),
		Label:     m.Label,
		IsDefault: m.IsDefault,
		CreatedAt: m.CreatedAt,
	}
}
