package repository

import (
	"sync"
	"testing"

	"github.com/DenisKhanov/DescGenBOT/internal/tg_bot/models"
)

func TestSessionStore_UnknownUser(t *testing.T) {
	store := NewSessionStore()

	if step := store.GetStep(42); step != models.StepAwaitAddress {
		t.Fatalf("expected step 0 for unknown user, got %d", step)
	}

	session := store.GetSession(42)
	if session.UserID != 42 {
		t.Fatalf("expected user id 42, got %d", session.UserID)
	}
	if session.Address != "" || session.Photo != nil || session.FlatDescription != "" ||
		session.HouseOptions != "" || session.DealDetails != "" || !session.Infrastructure.IsEmpty() {
		t.Fatalf("expected empty session, got %+v", session)
	}
	if store.Count() != 1 {
		t.Fatalf("expected GetSession to create a session, count = %d", store.Count())
	}
}

func TestSessionStore_SparseUpdate(t *testing.T) {
	store := NewSessionStore()

	store.Update(1, models.SessionPatch{Address: models.PatchString("Тверская 6")})
	store.Update(1, models.SessionPatch{FlatDescription: models.PatchString("3 этаж")})

	session := store.GetSession(1)
	if session.Address != "Тверская 6" {
		t.Errorf("address overwritten by sparse update: %q", session.Address)
	}
	if session.FlatDescription != "3 этаж" {
		t.Errorf("unexpected flat description %q", session.FlatDescription)
	}

	// Пустая строка является легитимным значением
	store.Update(1, models.SessionPatch{Address: models.PatchString("")})
	if got := store.GetSession(1).Address; got != "" {
		t.Errorf("expected explicit empty address, got %q", got)
	}
}

func TestSessionStore_AdvanceStepWraps(t *testing.T) {
	store := NewSessionStore()

	want := []models.Step{
		models.StepAwaitPhoto,
		models.StepAwaitFlatDescription,
		models.StepAwaitHouseOptions,
		models.StepAwaitDealDetails,
		models.StepAwaitAddress,
	}
	for i, w := range want {
		if got := store.AdvanceStep(7); got != w {
			t.Fatalf("advance %d: expected step %d, got %d", i+1, w, got)
		}
	}
}

func TestSessionStore_ClearCycleKeepsStep(t *testing.T) {
	store := NewSessionStore()
	summary := models.InfrastructureSummary{{Category: "Парки", Places: []models.NearbyPlace{{Name: "Сквер", DistanceMeters: 100}}}}

	store.Update(3, models.SessionPatch{
		Address:        models.PatchString("addr"),
		Photo:          &models.Photo{FileID: "f1", Data: []byte{1}},
		DealDetails:    models.PatchString("deal"),
		Infrastructure: &summary,
	})
	store.AdvanceStep(3)
	store.ClearCycle(3)

	session := store.GetSession(3)
	if session.Step != models.StepAwaitPhoto {
		t.Errorf("expected step to be kept, got %d", session.Step)
	}
	if session.HasListing() || session.Photo != nil || !session.Infrastructure.IsEmpty() {
		t.Errorf("expected cleared session, got %+v", session)
	}

	store.Reset(3)
	if store.GetStep(3) != models.StepAwaitAddress {
		t.Errorf("expected reset to step 0")
	}
}

func TestSessionStore_ClearCycleIf(t *testing.T) {
	store := NewSessionStore()

	if store.ClearCycleIf(9, 0) {
		t.Fatalf("unknown user must not be cleared")
	}

	store.Update(9, models.SessionPatch{Address: models.PatchString("old"), DealDetails: models.PatchString("deal")})
	old := store.GetSession(9).Cycle

	// Новый цикл: адрес сохранен, шаг еще не продвинулся
	store.ClearCycle(9)
	store.Update(9, models.SessionPatch{Address: models.PatchString("new")})
	if store.ClearCycleIf(9, old) {
		t.Fatalf("stale cycle %d cleared the new one", old)
	}
	if got := store.GetSession(9).Address; got != "new" {
		t.Fatalf("expected new address to survive, got %q", got)
	}

	current := store.GetSession(9).Cycle
	store.AdvanceStep(9)
	if store.ClearCycleIf(9, current) {
		t.Fatalf("session in the middle of a cycle must not be cleared")
	}

	store.Reset(9)
	current = store.GetSession(9).Cycle
	if current <= old {
		t.Fatalf("expected reset to bump the cycle, got %d after %d", current, old)
	}
	store.Update(9, models.SessionPatch{Address: models.PatchString("x")})
	if !store.ClearCycleIf(9, current) {
		t.Fatalf("expected current cycle to be cleared")
	}
	if got := store.GetSession(9).Address; got != "" {
		t.Fatalf("expected cleared address, got %q", got)
	}
}

func TestSessionStore_GetSessionReturnsCopy(t *testing.T) {
	store := NewSessionStore()
	summary := models.InfrastructureSummary{{Category: "Парки", Places: []models.NearbyPlace{{Name: "Сквер", DistanceMeters: 100}}}}
	store.Update(5, models.SessionPatch{Photo: &models.Photo{FileID: "f1"}, Infrastructure: &summary})

	session := store.GetSession(5)
	session.Photo.FileID = "changed"
	session.Infrastructure[0].Places[0].Name = "changed"

	again := store.GetSession(5)
	if again.Photo.FileID != "f1" {
		t.Errorf("photo mutated through copy: %q", again.Photo.FileID)
	}
	if again.Infrastructure[0].Places[0].Name != "Сквер" {
		t.Errorf("summary mutated through copy: %q", again.Infrastructure[0].Places[0].Name)
	}
}

func TestSessionStore_ConcurrentUsers(t *testing.T) {
	store := NewSessionStore()
	var wg sync.WaitGroup

	for uid := int64(1); uid <= 50; uid++ {
		wg.Add(1)
		go func(uid int64) {
			defer wg.Done()
			for i := 0; i < models.StepCount; i++ {
				store.AdvanceStep(uid)
			}
		}(uid)
	}
	wg.Wait()

	for uid := int64(1); uid <= 50; uid++ {
		if step := store.GetStep(uid); step != models.StepAwaitAddress {
			t.Fatalf("user %d: expected full cycle back to step 0, got %d", uid, step)
		}
	}
}
