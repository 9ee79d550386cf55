package status

import (
	"testing"
	"time"

	"github.com/sweeney/ahu-sim/internal/sim"
)

func reading(i int) Reading {
	return Reading{
		Time:  time.Unix(int64(i), 0),
		State: sim.State{SupplyTemp: float64(i)},
	}
}

func TestRingEmpty(t *testing.T) {
	r := newRing(10)
	if got := r.items(); got != nil {
		t.Errorf("expected nil from empty ring, got %d items", len(got))
	}
	if r.len() != 0 {
		t.Errorf("expected len 0, got %d", r.len())
	}
}

func TestRingPushAndItems(t *testing.T) {
	r := newRing(10)
	for i := 0; i < 5; i++ {
		r.push(reading(i))
	}

	got := r.items()
	if len(got) != 5 {
		t.Fatalf("expected 5 items, got %d", len(got))
	}
	// Newest first
	for i := 0; i < 5; i++ {
		want := float64(4 - i)
		if got[i].State.SupplyTemp != want {
			t.Errorf("item %d: expected supply %v, got %v", i, want, got[i].State.SupplyTemp)
		}
	}
}

func TestRingFillToCapacity(t *testing.T) {
	capacity := 10
	r := newRing(capacity)
	for i := 0; i < capacity; i++ {
		r.push(reading(i))
	}

	got := r.items()
	if len(got) != capacity {
		t.Fatalf("expected %d items, got %d", capacity, len(got))
	}
	if got[0].State.SupplyTemp != float64(capacity-1) {
		t.Errorf("newest: expected supply %d, got %v", capacity-1, got[0].State.SupplyTemp)
	}
	if got[capacity-1].State.SupplyTemp != 0 {
		t.Errorf("oldest: expected supply 0, got %v", got[capacity-1].State.SupplyTemp)
	}
}

func TestRingOverwritesOldest(t *testing.T) {
	capacity := 5
	r := newRing(capacity)

	// Push capacity+3 readings (0..7); ring keeps the most recent 5 (3..7)
	for i := 0; i < capacity+3; i++ {
		r.push(reading(i))
	}

	got := r.items()
	if len(got) != capacity {
		t.Fatalf("expected %d items, got %d", capacity, len(got))
	}
	for i := 0; i < capacity; i++ {
		want := float64(7 - i)
		if got[i].State.SupplyTemp != want {
			t.Errorf("item %d: expected supply %v, got %v", i, want, got[i].State.SupplyTemp)
		}
	}
	if r.len() != capacity {
		t.Errorf("expected len %d, got %d", capacity, r.len())
	}
}

func TestRingItemsIsCopy(t *testing.T) {
	r := newRing(5)
	r.push(reading(1))

	got := r.items()
	r.push(reading(2))
	r.push(reading(3))

	if len(got) != 1 {
		t.Fatalf("expected captured slice to keep 1 item, got %d", len(got))
	}
	if got[0].State.SupplyTemp != 1 {
		t.Errorf("captured item: expected supply 1, got %v", got[0].State.SupplyTemp)
	}
}
