package address

import (
	"context"
	"strings"

	"github.com/angelmondragon/nearbuy-backend/pkg/errors"
	"github.com/angelmondragon/nearbuy-backend/pkg/maps"
	"github.com/angelmondragon/nearbuy-backend/pkg/types"
)

// suggestRadiusKm biases autocomplete toward the customer's surroundings.
const suggestRadiusKm = 10.0

type placesClient interface {
	Autocomplete(ctx context.Context, req maps.AutocompleteRequest) ([]maps.AutocompleteSuggestion, error)
	ResolvePlace(ctx context.Context, placeID string) (*maps.PlaceDetails, error)
}

type SuggestRequest struct {
	Query    string
	Country  string
	Language string
	Near     *types.GeographyPoint
}

type Suggestion struct {
	PlaceID     string `json:"place_id"`
	Description string `json:"description"`
}

// PlaceAddress is a resolved place in address book terms.
type PlaceAddress struct {
	PlaceID  string               `json:"place_id"`
	Line     string               `json:"line"`
	Building *string              `json:"building,omitempty"`
	Flat     *string              `json:"flat,omitempty"`
	Location types.GeographyPoint `json:"location"`
}

func (s *service) Suggest(ctx context.Context, req SuggestRequest) ([]Suggestion, error) {
	if s.places == nil {
		return nil, errors.New(errors.CodeRemoteUnavailable, "maps client unavailable")
	}
	if strings.TrimSpace(req.Query) == "" {
		return nil, errors.New(errors.CodeValidation, "query is required")
	}

	payload := maps.AutocompleteRequest{
		Input: strings.TrimSpace(req.Query),
	}
	if country := strings.TrimSpace(req.Country); country != "" {
		payload.IncludedRegionCodes = []string{strings.ToUpper(country)}
	}
	if lang := strings.TrimSpace(req.Language); lang != "" {
		payload.LanguageCode = lang
	}
	if req.Near != nil {
		if err := req.Near.Validate(); err != nil {
			return nil, errors.Wrap(errors.CodeValidation, err, "invalid location")
		}
		payload.LocationBias = maps.NewLocationBias(*req.Near, suggestRadiusKm)
	}

	resp, err := s.places.Autocomplete(ctx, payload)
	if err != nil {
		return nil, err
	}

	suggestions := make([]Suggestion, 0, len(resp))
	for _, item := range resp {
		suggestions = append(suggestions, Suggestion{
			PlaceID:     item.PlaceID,
			Description: item.Description,
		})
	}
	return suggestions, nil
}

func (s *service) Resolve(ctx context.Context, placeID string) (*PlaceAddress, error) {
	if s.places == nil {
		return nil, errors.New(errors.CodeRemoteUnavailable, "maps client unavailable")
	}
	if strings.TrimSpace(placeID) == "" {
		return nil, errors.New(errors.CodeValidation, "place_id is required")
	}

	details, err := s.places.ResolvePlace(ctx, placeID)
	if err != nil {
		return nil, err
	}
	return mapPlaceDetails(details)
}

func mapPlaceDetails(details *maps.PlaceDetails) (*PlaceAddress, error) {
	if details == nil {
		return nil, errors.New(errors.CodeRemoteUnavailable, "place details missing")
	}
	if details.Location.Latitude == 0 && details.Location.Longitude == 0 {
		return nil, errors.New(errors.CodeRemoteUnavailable, "place location missing")
	}

	find := func(kind string) (string, bool) {
		for _, comp := range details.AddressComponents {
			for _, typ := range comp.Types {
				if typ == kind && comp.LongName != "" {
					return comp.LongName, true
				}
			}
		}
		return "", false
	}

	line := strings.TrimSpace(details.FormattedAddress)
	if line == "" {
		parts := []string{}
		for _, kind := range []string{"street_number", "route", "sublocality", "locality"} {
			if v, ok := find(kind); ok {
				parts = append(parts, v)
			}
		}
		line = strings.Join(parts, ", ")
	}
	if line == "" {
		return nil, errors.New(errors.CodeRemoteUnavailable, "address line missing")
	}

	out := &PlaceAddress{
		PlaceID:  details.PlaceID,
		Line:     line,
		Location: types.GeographyPoint{Lat: details.Location.Latitude, Lng: details.Location.Longitude},
	}
	if premise, ok := find("premise"); ok {
		out.Building = ptr(premise)
	}
	if sub, ok := find("subpremise"); ok {
		out.Flat = ptr(sub)
	}
	return out, nil
}

func ptr(value string) *string {
	if value == "" {
		return nil
	}
	v := value
	return &v
}
