package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/DenisKhanov/DescGenBOT/internal/tg_bot/models"
)

type fakeGeocoder struct {
	point models.Point
	err   error
}

func (f *fakeGeocoder) Geocode(_ context.Context, _ string) (models.Point, error) {
	return f.point, f.err
}

type fakeSearcher struct {
	places map[string][]models.Place // by query
	errs   map[string]error
	radius []int
	mu     sync.Mutex
}

func (f *fakeSearcher) SearchPlaces(_ context.Context, _ models.Point, query string, radius int) ([]models.Place, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.radius = append(f.radius, radius)
	if err := f.errs[query]; err != nil {
		return nil, err
	}
	return f.places[query], nil
}

type fakeDistances struct {
	distances map[string]int
	err       error
	calls     int
	requested [][]string
	mu        sync.Mutex
}

func (f *fakeDistances) BatchDistance(_ context.Context, _ models.Point, places []models.Place) (map[string]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	ids := make([]string, len(places))
	for i, p := range places {
		ids[i] = p.ID
	}
	f.requested = append(f.requested, ids)
	if f.err != nil {
		return nil, f.err
	}
	out := make(map[string]int)
	for _, p := range places {
		if d, ok := f.distances[p.ID]; ok {
			out[p.ID] = d
		}
	}
	return out, nil
}

func place(id, name string) models.Place {
	return models.Place{ID: id, Name: name, Point: &models.Point{Lat: 55.76, Lon: 37.61}}
}

var testCategories = []models.Category{
	{Label: "Супермаркеты", Query: "супермаркет"},
	{Label: "Станции метро", Query: "метро"},
	{Label: "Школы", Query: "школа"},
}

func TestSummarize_MetroScenario(t *testing.T) {
	searcher := &fakeSearcher{places: map[string][]models.Place{
		"метро": {place("m2", "Пушкинская"), place("m3", "Белорусская"), place("m1", "Тверская")},
	}}
	distances := &fakeDistances{distances: map[string]int{"m1": 150, "m2": 400, "m3": 1200}}
	aggregator := NewInfrastructureAggregator(&fakeGeocoder{point: models.Point{Lat: 55.76, Lon: 37.61}}, searcher, distances, testCategories, 0)

	summary := aggregator.Summarize(context.Background(), "Tverskaya 6, Moscow", 1000)

	if len(summary) != 1 {
		t.Fatalf("expected only the metro category, got %+v", summary)
	}
	metro := summary.Places("Станции метро")
	want := []models.NearbyPlace{{Name: "Тверская", DistanceMeters: 150}, {Name: "Пушкинская", DistanceMeters: 400}}
	if len(metro) != len(want) {
		t.Fatalf("expected %d places, got %+v", len(want), metro)
	}
	for i := range want {
		if metro[i] != want[i] {
			t.Errorf("place %d: expected %+v, got %+v", i, want[i], metro[i])
		}
	}

	for _, r := range searcher.radius {
		if r != 2000 {
			t.Errorf("expected search radius 2000, got %d", r)
		}
	}
	// Один пакетный запрос расстояний на непустую категорию
	if distances.calls != 1 {
		t.Errorf("expected one distance batch, got %d", distances.calls)
	}
}

func TestSummarize_GeocodeFailure(t *testing.T) {
	searcher := &fakeSearcher{}
	aggregator := NewInfrastructureAggregator(&fakeGeocoder{err: errors.New("not found")}, searcher, &fakeDistances{}, testCategories, 0)

	summary := aggregator.Summarize(context.Background(), "nowhere", 0)
	if !summary.IsEmpty() {
		t.Fatalf("expected empty summary, got %+v", summary)
	}
	if len(searcher.radius) != 0 {
		t.Errorf("expected no searches after geocode failure")
	}
}

func TestSummarize_CategoryFailuresAreIsolated(t *testing.T) {
	searcher := &fakeSearcher{
		places: map[string][]models.Place{
			"супермаркет": {place("s1", "Пятёрочка")},
			"метро":       {place("m1", "Тверская")},
			"школа":       {place("sc1", "Школа №1")},
		},
		errs: map[string]error{"школа": errors.New("timeout")},
	}
	distances := &fakeDistances{distances: map[string]int{"s1": 300, "m1": 150, "sc1": 200}}
	aggregator := NewInfrastructureAggregator(&fakeGeocoder{}, searcher, distances, testCategories, 0)

	summary := aggregator.Summarize(context.Background(), "addr", 1000)
	if len(summary) != 2 {
		t.Fatalf("expected two categories, got %+v", summary)
	}
	// Порядок категорий совпадает с порядком конфигурации
	if summary[0].Category != "Супермаркеты" || summary[1].Category != "Станции метро" {
		t.Errorf("unexpected category order: %q, %q", summary[0].Category, summary[1].Category)
	}
}

func TestSummarize_DistanceFailureDropsCategory(t *testing.T) {
	searcher := &fakeSearcher{places: map[string][]models.Place{"метро": {place("m1", "Тверская")}}}
	aggregator := NewInfrastructureAggregator(&fakeGeocoder{}, searcher, &fakeDistances{err: errors.New("routing down")}, testCategories, 0)

	if summary := aggregator.Summarize(context.Background(), "addr", 1000); !summary.IsEmpty() {
		t.Fatalf("expected empty summary, got %+v", summary)
	}
}

func TestSummarize_UnresolvedPlacesExcluded(t *testing.T) {
	searcher := &fakeSearcher{places: map[string][]models.Place{
		"метро": {
			place("m1", "Тверская"),
			place("m2", "Без маршрута"),
			{ID: "m3", Name: "Без координат"},
		},
	}}
	distances := &fakeDistances{distances: map[string]int{"m1": 500, "m3": 10}}
	aggregator := NewInfrastructureAggregator(&fakeGeocoder{}, searcher, distances, testCategories, 0)

	metro := aggregator.Summarize(context.Background(), "addr", 1000).Places("Станции метро")
	if len(metro) != 1 || metro[0].Name != "Тверская" {
		t.Fatalf("expected only the resolved place, got %+v", metro)
	}
	if len(distances.requested) != 1 || len(distances.requested[0]) != 2 {
		t.Errorf("places without coordinates must not be sent to the distance matrix: %v", distances.requested)
	}
}

func TestSummarize_BoundaryDistanceIncluded(t *testing.T) {
	searcher := &fakeSearcher{places: map[string][]models.Place{"метро": {place("m1", "Ровно километр")}}}
	distances := &fakeDistances{distances: map[string]int{"m1": 1000}}
	aggregator := NewInfrastructureAggregator(&fakeGeocoder{}, searcher, distances, testCategories, 0)

	if metro := aggregator.Summarize(context.Background(), "addr", 1000).Places("Станции метро"); len(metro) != 1 {
		t.Fatalf("expected place at exactly the radius to be kept, got %+v", metro)
	}
}
