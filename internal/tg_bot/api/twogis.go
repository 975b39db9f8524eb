// Package api provides clients for the external services used by the bot:
// the 2GIS catalog and routing APIs, generation backends and the Telegram transport.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/DenisKhanov/DescGenBOT/internal/tg_bot/models"
	"github.com/sirupsen/logrus"
)

const (
	TwoGisCatalogEndpoint = "https://catalog.api.2gis.com/3.0/items"
	TwoGisRoutingEndpoint = "https://routing.api.2gis.com/get_dist_matrix"

	twoGisSearchFields  = "items.point,items.name,items.purpose_name,items.id"
	twoGisRouteStatusOK = "OK"
)

// ErrAddressNotFound is returned by Geocode when 2GIS has no match for the address.
var ErrAddressNotFound = errors.New("address not found")

// TwoGisAPI is a client of the 2GIS catalog (geocoding, places search) and routing
// (distance matrix) APIs.
type TwoGisAPI struct {
	apiKey          string       // 2GIS API key
	catalogEndpoint string       // Base URL of the catalog API
	routingEndpoint string       // URL of the distance matrix API
	client          *http.Client // HTTP client
}

// twoGisPoint is a coordinate pair in 2GIS responses and requests.
type twoGisPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// twoGisItem is a catalog item.
type twoGisItem struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	PurposeName string       `json:"purpose_name"`
	Point       *twoGisPoint `json:"point"`
}

// twoGisCatalogResponse is the envelope of catalog responses.
type twoGisCatalogResponse struct {
	Meta struct {
		Code int `json:"code"`
	} `json:"meta"`
	Result struct {
		Items []twoGisItem `json:"items"`
	} `json:"result"`
}

// DistMatrixRequest is the body of a distance matrix request: the first point is the
// origin, the rest are targets.
type DistMatrixRequest struct {
	Points  []twoGisPoint `json:"points"`
	Sources []int         `json:"sources"`
	Targets []int         `json:"targets"`
}

// DistMatrixRoute is one origin-target pair of a distance matrix response.
type DistMatrixRoute struct {
	Distance int    `json:"distance"`
	Duration int    `json:"duration"`
	Status   string `json:"status"`
	SourceID int    `json:"source_id"`
	TargetID *int   `json:"target_id"`
}

// DistMatrixResponse is the distance matrix response.
type DistMatrixResponse struct {
	Routes []DistMatrixRoute `json:"routes"`
}

// NewTwoGisAPI creates a 2GIS client. Empty endpoints fall back to the public 2GIS URLs.
func NewTwoGisAPI(apiKey, catalogEndpoint, routingEndpoint string, timeout time.Duration) *TwoGisAPI {
	if catalogEndpoint == "" {
		catalogEndpoint = TwoGisCatalogEndpoint
	}
	if routingEndpoint == "" {
		routingEndpoint = TwoGisRoutingEndpoint
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &TwoGisAPI{
		apiKey:          apiKey,
		catalogEndpoint: catalogEndpoint,
		routingEndpoint: routingEndpoint,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// Geocode converts an address into coordinates.
// Returns ErrAddressNotFound when 2GIS returns no items.
func (t *TwoGisAPI) Geocode(ctx context.Context, address string) (models.Point, error) {
	params := url.Values{}
	params.Set("q", address)
	params.Set("key", t.apiKey)
	params.Set("fields", "items.point")

	response, err := t.getCatalog(ctx, t.catalogEndpoint+"/geocode", params)
	if err != nil {
		return models.Point{}, fmt.Errorf("geocode %q: %w", address, err)
	}
	if len(response.Result.Items) == 0 || response.Result.Items[0].Point == nil {
		return models.Point{}, ErrAddressNotFound
	}

	point := response.Result.Items[0].Point
	logrus.Debugf("Address %q geocoded to %f,%f", address, point.Lat, point.Lon)
	return models.Point{Lat: point.Lat, Lon: point.Lon}, nil
}

// SearchPlaces finds places matching query within radius meters of origin.
func (t *TwoGisAPI) SearchPlaces(ctx context.Context, origin models.Point, query string, radius int) ([]models.Place, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("point", fmt.Sprintf("%s,%s", formatCoord(origin.Lon), formatCoord(origin.Lat)))
	params.Set("radius", strconv.Itoa(radius))
	params.Set("key", t.apiKey)
	params.Set("fields", twoGisSearchFields)

	response, err := t.getCatalog(ctx, t.catalogEndpoint, params)
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", query, err)
	}

	places := make([]models.Place, 0, len(response.Result.Items))
	for _, item := range response.Result.Items {
		place := models.Place{ID: item.ID, Name: item.Name}
		if item.Point != nil {
			place.Point = &models.Point{Lat: item.Point.Lat, Lon: item.Point.Lon}
		}
		places = append(places, place)
	}
	return places, nil
}

// BatchDistance requests distances from origin to every place with coordinates in one call.
// Routes with a non-OK status are left out of the result.
func (t *TwoGisAPI) BatchDistance(ctx context.Context, origin models.Point, places []models.Place) (map[string]int, error) {
	reqBody := DistMatrixRequest{
		Points:  []twoGisPoint{{Lat: origin.Lat, Lon: origin.Lon}},
		Sources: []int{0},
	}
	placeIDs := make(map[int]string, len(places)) // Point index -> place ID
	for _, place := range places {
		if place.Point == nil {
			continue
		}
		reqBody.Points = append(reqBody.Points, twoGisPoint{Lat: place.Point.Lat, Lon: place.Point.Lon})
		index := len(reqBody.Points) - 1
		reqBody.Targets = append(reqBody.Targets, index)
		placeIDs[index] = place.ID
	}
	if len(reqBody.Targets) == 0 {
		return map[string]int{}, nil
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	params := url.Values{}
	params.Set("key", t.apiKey)
	params.Set("version", "2.0")
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.routingEndpoint+"?"+params.Encode(), bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	data, err := t.do(req)
	if err != nil {
		return nil, err
	}

	var response DistMatrixResponse
	if err = json.Unmarshal(data, &response); err != nil {
		logrus.WithError(err).Error("Failed to unmarshal distance matrix response")
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	distances := make(map[string]int, len(response.Routes))
	for i, route := range response.Routes {
		if route.Status != twoGisRouteStatusOK {
			continue
		}
		// Без target_id маршруты идут в порядке targets
		index := i + 1
		if route.TargetID != nil {
			index = *route.TargetID
		}
		if id, ok := placeIDs[index]; ok {
			distances[id] = route.Distance
		}
	}
	return distances, nil
}

// getCatalog performs a catalog GET request. A meta code of 404 means no items.
func (t *TwoGisAPI) getCatalog(ctx context.Context, endpoint string, params url.Values) (*twoGisCatalogResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	data, err := t.do(req)
	if err != nil {
		return nil, err
	}

	var response twoGisCatalogResponse
	if err = json.Unmarshal(data, &response); err != nil {
		logrus.WithError(err).Error("Failed to unmarshal 2GIS catalog response")
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	switch response.Meta.Code {
	case http.StatusOK:
		return &response, nil
	case http.StatusNotFound:
		return &twoGisCatalogResponse{}, nil
	default:
		return nil, fmt.Errorf("unexpected meta code: %d", response.Meta.Code)
	}
}

// do executes a request and returns the body of a 200 response.
func (t *TwoGisAPI) do(req *http.Request) ([]byte, error) {
	res, err := t.client.Do(req)
	if err != nil {
		logrus.WithError(err).Errorf("Failed to execute 2GIS request to %s", req.URL.Path)
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		if err = res.Body.Close(); err != nil {
			logrus.WithError(err).Errorf("Failed to close response body: %v", err)
		}
	}()

	data, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if res.StatusCode != http.StatusOK {
		err = fmt.Errorf("unexpected status code: %d, body: %s", res.StatusCode, string(data))
		logrus.WithError(err).Errorf("2GIS request failed with status: %s", res.Status)
		return nil, err
	}
	return data, nil
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
