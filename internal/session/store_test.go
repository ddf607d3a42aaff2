package session

import (
	"testing"
	"time"

	"github.com/Vector-IT-Drew/Dash/internal/model"
)

func TestStore_CreateGetDelete(t *testing.T) {
	store := NewStore(time.Minute)
	defer store.Close()

	snapshot := []model.ListingRecord{{UnitID: 1}}
	sess := store.Create(snapshot)

	if sess.ID == "" {
		t.Fatal("session must get an id")
	}
	if sess.Preferences == nil || sess.Preferences.Len() != 0 {
		t.Error("new session must have an empty preference store")
	}
	if len(sess.Snapshot) != 1 {
		t.Error("snapshot must be bound to the session")
	}

	got := store.Get(sess.ID)
	if got == nil || got.ID != sess.ID {
		t.Fatal("Get must return the created session")
	}

	store.Delete(sess.ID)
	if store.Get(sess.ID) != nil {
		t.Error("deleted session must be gone")
	}
}

func TestStore_UniqueIDs(t *testing.T) {
	store := NewStore(time.Minute)
	defer store.Close()

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		sess := store.Create(nil)
		if seen[sess.ID] {
			t.Fatalf("duplicate session id %s", sess.ID)
		}
		seen[sess.ID] = true
	}
}

func TestStore_SaveIsLastWriteWins(t *testing.T) {
	store := NewStore(time.Minute)
	defer store.Close()

	sess := store.Create(nil)
	sess.Preferences.Set(model.KeyBeds, model.Number(2))
	store.Save(sess)

	other := store.Get(sess.ID)
	other.Preferences.Set(model.KeyBeds, model.Number(3))
	store.Save(other)

	final := store.Get(sess.ID)
	v, _ := final.Preferences.Get(model.KeyBeds)
	if v.Num != 3 {
		t.Errorf("beds = %g, want last write 3", v.Num)
	}
}

func TestStore_Expiry(t *testing.T) {
	store := NewStore(20 * time.Millisecond)
	defer store.Close()

	sess := store.Create(nil)
	time.Sleep(40 * time.Millisecond)

	if store.Get(sess.ID) != nil {
		t.Error("expired session must not be returned")
	}
}
