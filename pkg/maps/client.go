package maps

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	pkgerrors "github.com/angelmondragon/nearbuy-backend/pkg/errors"
	"github.com/angelmondragon/nearbuy-backend/pkg/types"
)

const (
	defaultBaseURL = "https://places.googleapis.com/v1"
	defaultTimeout = 10 * time.Second

	// Delivery addresses only need the line, the pin and the premise parts.
	autocompleteFieldMask = "suggestions.placePrediction.placeId,suggestions.placePrediction.text"
	placeResolveFieldMask = "id,formattedAddress,location,addressComponents"

	errorBodyLimit int64 = 1024
)

var errAPIKeyRequired = errors.New("google maps api key is required")

// StatusError carries a non-2xx answer from the Places API.
type StatusError struct {
	Operation string
	Status    int
	Body      string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("places %s: status %d", e.Operation, e.Status)
	}
	return fmt.Sprintf("places %s: status %d: %s", e.Operation, e.Status, e.Body)
}

func (e *StatusError) RemoteStatus() int { return e.Status }

func (e *StatusError) RemoteTable() string { return "places:" + e.Operation }

// Client wraps the Google Maps Places APIs used to fill delivery addresses.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBaseURL overrides the configured Places base URL.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		trimmed := strings.TrimSpace(baseURL)
		if trimmed != "" {
			c.baseURL = trimmed
		}
	}
}

// NewClient builds the Google Maps client given an API key.
func NewClient(apiKey string, opts ...Option) (*Client, error) {
	trimmedKey := strings.TrimSpace(apiKey)
	if trimmedKey == "" {
		return nil, errAPIKeyRequired
	}

	client := &Client{
		apiKey:     trimmedKey,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client, nil
}

// AutocompleteRequest describes the payload sent to the Places autocomplete API.
type AutocompleteRequest struct {
	Input               string        `json:"input"`
	IncludedRegionCodes []string      `json:"includedRegionCodes,omitempty"`
	LanguageCode        string        `json:"languageCode,omitempty"`
	LocationBias        *LocationBias `json:"locationBias,omitempty"`
}

// LocationBias prefers predictions inside a circle around the customer.
type LocationBias struct {
	Circle Circle `json:"circle"`
}

type Circle struct {
	Center       LatLngJSON `json:"center"`
	RadiusMeters float64    `json:"radius"`
}

type LatLngJSON struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// NewLocationBias builds a circular bias of radiusKm around point.
func NewLocationBias(point types.GeographyPoint, radiusKm float64) *LocationBias {
	return &LocationBias{Circle: Circle{
		Center:       LatLngJSON{Latitude: point.Lat, Longitude: point.Lng},
		RadiusMeters: radiusKm * 1000,
	}}
}

// AutocompleteSuggestion holds the mapped data returned by the autocomplete API.
type AutocompleteSuggestion struct {
	PlaceID     string
	Description string
}

// PlaceDetails represents the normalized data returned by the place-details API.
type PlaceDetails struct {
	PlaceID           string
	FormattedAddress  string
	Location          LatLng
	AddressComponents []AddressComponent
}

// LatLng is the latitude/longitude pair returned by Google.
type LatLng struct {
	Latitude  float64
	Longitude float64
}

// AddressComponent mirrors Google's address component payload.
type AddressComponent struct {
	LongName  string
	ShortName string
	Types     []string
}

// Autocomplete returns place predictions for a partially typed address.
func (c *Client) Autocomplete(ctx context.Context, req AutocompleteRequest) ([]AutocompleteSuggestion, error) {
	if c == nil {
		return nil, errNotConfigured()
	}
	req.Input = strings.TrimSpace(req.Input)
	if req.Input == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "autocomplete input is required")
	}

	var out struct {
		Suggestions []struct {
			Prediction *struct {
				PlaceID string `json:"placeId"`
				Text    struct {
					Text string `json:"text"`
				} `json:"text"`
			} `json:"placePrediction"`
		} `json:"suggestions"`
	}
	if err := c.do(ctx, "autocomplete", http.MethodPost, "places:autocomplete", autocompleteFieldMask, req, &out); err != nil {
		return nil, err
	}

	suggestions := make([]AutocompleteSuggestion, 0, len(out.Suggestions))
	for _, s := range out.Suggestions {
		// query predictions carry no place id and cannot become an address
		if s.Prediction == nil || s.Prediction.PlaceID == "" {
			continue
		}
		suggestions = append(suggestions, AutocompleteSuggestion{
			PlaceID:     s.Prediction.PlaceID,
			Description: s.Prediction.Text.Text,
		})
	}
	return suggestions, nil
}

// ResolvePlace fetches the formatted address, pin and components of a place.
// An unknown or malformed place id is reported as NOT_FOUND.
func (c *Client) ResolvePlace(ctx context.Context, placeID string) (*PlaceDetails, error) {
	if c == nil {
		return nil, errNotConfigured()
	}
	placeID = strings.TrimSpace(placeID)
	if placeID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "place ID is required")
	}

	var out struct {
		ID               string `json:"id"`
		FormattedAddress string `json:"formattedAddress"`
		Location         struct {
			Latitude  float64 `json:"latitude"`
			Longitude float64 `json:"longitude"`
		} `json:"location"`
		AddressComponents []struct {
			LongText  string   `json:"longText"`
			ShortText string   `json:"shortText"`
			Types     []string `json:"types"`
		} `json:"addressComponents"`
	}
	err := c.do(ctx, "resolve", http.MethodGet, "places/"+url.PathEscape(placeID), placeResolveFieldMask, nil, &out)
	if err != nil {
		var statusErr *StatusError
		if errors.As(err, &statusErr) && (statusErr.Status == http.StatusNotFound || statusErr.Status == http.StatusBadRequest) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, statusErr, "place not found")
		}
		return nil, err
	}

	details := &PlaceDetails{
		PlaceID:           out.ID,
		FormattedAddress:  out.FormattedAddress,
		Location:          LatLng{Latitude: out.Location.Latitude, Longitude: out.Location.Longitude},
		AddressComponents: make([]AddressComponent, 0, len(out.AddressComponents)),
	}
	if details.PlaceID == "" {
		details.PlaceID = placeID
	}
	for _, comp := range out.AddressComponents {
		details.AddressComponents = append(details.AddressComponents, AddressComponent{
			LongName:  comp.LongText,
			ShortName: comp.ShortText,
			Types:     comp.Types,
		})
	}
	return details, nil
}

func (c *Client) do(ctx context.Context, op, method, path, fieldMask string, payload, dest any) error {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode places "+op+" request")
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.buildURL(path), body)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build places "+op+" request")
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-Goog-Api-Key", c.apiKey)
	req.Header.Set("X-Goog-FieldMask", fieldMask)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeRemoteUnavailable, err, "places "+op+" request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyLimit))
		statusErr := &StatusError{Operation: op, Status: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
		return pkgerrors.Wrap(pkgerrors.CodeRemoteUnavailable, statusErr, "places "+op+" failed")
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeRemoteUnavailable, err, "decode places "+op+" response")
	}
	return nil
}

func (c *Client) buildURL(path string) string {
	return strings.TrimRight(c.baseURL, "/") + "/" + strings.TrimLeft(path, "/")
}

func errNotConfigured() error {
	return pkgerrors.New(pkgerrors.CodeRemoteUnavailable, "google maps client not configured")
}
