package nakama

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"regenwormen/internal/domain"

	"github.com/heroiclabs/nakama-common/api"
	"github.com/heroiclabs/nakama-common/runtime"
)

// fakeStorageIO records writes and serves canned reads.
type fakeStorageIO struct {
	writes  []*runtime.StorageWrite
	objects []*api.StorageObject
	readErr error
}

func (f *fakeStorageIO) StorageWrite(_ context.Context, writes []*runtime.StorageWrite) ([]*api.StorageObjectAck, error) {
	f.writes = append(f.writes, writes...)
	return nil, nil
}

func (f *fakeStorageIO) StorageRead(context.Context, []*runtime.StorageRead) ([]*api.StorageObject, error) {
	return f.objects, f.readErr
}

func TestSaveSnapshotWritesSystemRecord(t *testing.T) {
	nk := &fakeStorageIO{}
	store := NewStorageMatchStore(nk)

	if err := store.SaveSnapshot(context.Background(), "m1", []byte(`{"round":1}`)); err != nil {
		t.Fatal(err)
	}
	if len(nk.writes) != 1 {
		t.Fatalf("writes = %d, want 1", len(nk.writes))
	}
	w := nk.writes[0]
	if w.Collection != snapshotCollection || w.Key != "m1" || w.UserID != "" {
		t.Errorf("write = %+v, want a system-owned snapshot record", w)
	}
	if w.Value != `{"round":1}` {
		t.Errorf("value = %s, want the snapshot payload", w.Value)
	}
}

func TestLoadSnapshotReadsAndReportsMissing(t *testing.T) {
	nk := &fakeStorageIO{objects: []*api.StorageObject{{Value: `{"round":2}`}}}
	store := NewStorageMatchStore(nk)

	data, err := store.LoadSnapshot(context.Background(), "m1")
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `{"round":2}` {
		t.Errorf("snapshot = %s, want the stored value", data)
	}

	nk.objects = nil
	if _, err := store.LoadSnapshot(context.Background(), "m1"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("missing snapshot: err = %v, want ErrNotFound", err)
	}
}

func TestSaveResultsWritesOneRecordPerPlayer(t *testing.T) {
	nk := &fakeStorageIO{}
	store := NewStorageMatchStore(nk)

	lb := []domain.LeaderboardEntry{
		{PlayerID: "a", Name: "Alice", Points: 5, Rank: 1},
		{PlayerID: "b", Name: "Bob", Points: 2, Rank: 2},
	}
	if err := store.SaveResults(context.Background(), "m1", lb); err != nil {
		t.Fatal(err)
	}
	if len(nk.writes) != len(lb) {
		t.Fatalf("writes = %d, want %d", len(nk.writes), len(lb))
	}
	for i, w := range nk.writes {
		if w.Collection != resultsCollection || w.Key != "m1" || w.UserID != lb[i].PlayerID {
			t.Errorf("write %d = %+v, want an owner record for %s", i, w, lb[i].PlayerID)
		}
		var entry domain.LeaderboardEntry
		if err := json.Unmarshal([]byte(w.Value), &entry); err != nil {
			t.Fatalf("write %d value is not JSON: %v", i, err)
		}
		if entry.Rank != lb[i].Rank || entry.Points != lb[i].Points {
			t.Errorf("write %d entry = %+v, want %+v", i, entry, lb[i])
		}
	}
}
