package notification

import (
	"testing"

	"github.com/appetiteclub/ordernotify/pkg/enums/orderstatus"
)

func TestStatusRegistry(t *testing.T) {
	r := NewStatusRegistry()

	if _, ok := r.Get("o1"); ok {
		t.Error("empty registry should not know o1")
	}

	r.Replace(map[string]orderstatus.Status{
		"o1": orderstatus.Statuses.Pending,
		"o2": orderstatus.Statuses.Ready,
	})
	if got, ok := r.Get("o1"); !ok || got != orderstatus.Statuses.Pending {
		t.Errorf("Get(o1) = %v, %v, want pending", got, ok)
	}
	if r.Len() != 2 {
		t.Errorf("Len() = %d, want 2", r.Len())
	}

	snapshot := map[string]orderstatus.Status{"o2": orderstatus.Statuses.Completed}
	r.Replace(snapshot)
	snapshot["o3"] = orderstatus.Statuses.Pending

	if _, ok := r.Get("o1"); ok {
		t.Error("Replace() should forget orders missing from the snapshot")
	}
	if _, ok := r.Get("o3"); ok {
		t.Error("Replace() should copy the snapshot")
	}
	if got, _ := r.Get("o2"); got != orderstatus.Statuses.Completed {
		t.Errorf("Get(o2) = %v, want completed", got)
	}

	copied := r.Snapshot()
	copied["o4"] = orderstatus.Statuses.Pending
	if r.Len() != 1 {
		t.Error("Snapshot() should return a copy")
	}
}
