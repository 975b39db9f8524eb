package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/DenisKhanov/DescGenBOT/internal/tg_bot/models"
	"github.com/sirupsen/logrus"
)

// DefaultSearchRadius is the nominal search radius in meters.
const DefaultSearchRadius = 1000

// Geocoder resolves an address to coordinates.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (models.Point, error)
}

// PlaceSearcher finds places matching a query around an origin.
type PlaceSearcher interface {
	SearchPlaces(ctx context.Context, origin models.Point, query string, radius int) ([]models.Place, error)
}

// DistanceMatrix resolves distances from an origin to many places in one request.
// Places missing from the result are unresolved.
type DistanceMatrix interface {
	BatchDistance(ctx context.Context, origin models.Point, places []models.Place) (map[string]int, error)
}

// InfrastructureAggregator builds a categorized summary of places near an address.
type InfrastructureAggregator struct {
	geocoder   Geocoder
	searcher   PlaceSearcher
	distances  DistanceMatrix
	categories []models.Category
	timeout    time.Duration // Upper bound for a whole Summarize call, 0 means none
}

// NewInfrastructureAggregator creates an aggregator over the given providers.
// A nil categories slice means models.DefaultCategories.
func NewInfrastructureAggregator(geocoder Geocoder, searcher PlaceSearcher, distances DistanceMatrix, categories []models.Category, timeout time.Duration) *InfrastructureAggregator {
	if categories == nil {
		categories = models.DefaultCategories
	}
	return &InfrastructureAggregator{
		geocoder:   geocoder,
		searcher:   searcher,
		distances:  distances,
		categories: categories,
		timeout:    timeout,
	}
}

// Summarize geocodes the address and collects nearby places for every category.
//
// Places are searched within twice the radius and then filtered to the nominal radius
// by resolved distance. Every provider failure degrades to missing data: a geocode
// failure yields an empty summary, a category failure yields no entries for that
// category. Summarize never returns an error.
func (a *InfrastructureAggregator) Summarize(ctx context.Context, address string, radius int) models.InfrastructureSummary {
	if radius <= 0 {
		radius = DefaultSearchRadius
	}
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	origin, err := a.geocoder.Geocode(ctx, address)
	if err != nil {
		logrus.WithError(fmt.Errorf("%w: %w", ErrGeocodeFailed, err)).
			WithField("address", address).
			Warn("Address not geocoded, infrastructure skipped")
		return models.InfrastructureSummary{}
	}

	// Категории запрашиваются параллельно, порядок сохраняется по индексу
	results := make([][]models.NearbyPlace, len(a.categories))
	var wg sync.WaitGroup
	for i, category := range a.categories {
		wg.Add(1)
		go func(i int, category models.Category) {
			defer wg.Done()
			places, err := a.collectCategory(ctx, origin, category, radius)
			if err != nil {
				logrus.WithError(err).WithField("category", category.Label).Warn("Category skipped")
				return
			}
			results[i] = places
		}(i, category)
	}
	wg.Wait()

	summary := models.InfrastructureSummary{}
	for i, places := range results {
		if len(places) == 0 {
			continue
		}
		summary = append(summary, models.CategoryPlaces{Category: a.categories[i].Label, Places: places})
	}
	logrus.WithField("address", address).Infof("Infrastructure collected: %d categories", len(summary))
	return summary
}

// collectCategory returns the places of one category within radius, nearest first.
func (a *InfrastructureAggregator) collectCategory(ctx context.Context, origin models.Point, category models.Category, radius int) ([]models.NearbyPlace, error) {
	found, err := a.searcher.SearchPlaces(ctx, origin, category.Query, radius*2)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSearchFailed, err)
	}

	candidates := make([]models.Place, 0, len(found))
	for _, place := range found {
		if place.Point != nil && place.ID != "" {
			candidates = append(candidates, place)
		}
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	distances, err := a.distances.BatchDistance(ctx, origin, candidates)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDistanceFailed, err)
	}

	nearby := make([]models.NearbyPlace, 0, len(candidates))
	for _, place := range candidates {
		distance, ok := distances[place.ID]
		if !ok || distance > radius {
			continue
		}
		nearby = append(nearby, models.NearbyPlace{Name: place.Name, DistanceMeters: distance})
	}

	sort.SliceStable(nearby, func(i, j int) bool {
		return nearby[i].DistanceMeters < nearby[j].DistanceMeters
	})
	return nearby, nil
}

