package services

import (
	"testing"

	"github.com/google/uuid"
)

func fptr(f float64) *float64 { return &f }

func TestOrderHelpers(t *testing.T) {
	if got := OrderAfter(0, false); got != 1 {
		t.Fatalf("OrderAfter(empty) = %v", got)
	}
	if got := OrderAfter(3.5, true); got != 4 {
		t.Fatalf("OrderAfter(3.5) = %v", got)
	}
	if got := OrderBetween(fptr(1), fptr(2)); got != 1.5 {
		t.Fatalf("OrderBetween(1,2) = %v", got)
	}
	if got := OrderBetween(nil, fptr(1)); got != 0 {
		t.Fatalf("OrderBetween(nil,1) = %v", got)
	}
	if got := OrderBetween(fptr(4), nil); got != 5 {
		t.Fatalf("OrderBetween(4,nil) = %v", got)
	}
	if !needsRenormalize(fptr(1), 1+1e-12, fptr(1+2e-12)) {
		t.Fatalf("collapsed gap not detected")
	}
	if needsRenormalize(fptr(1), 1.5, fptr(2)) {
		t.Fatalf("healthy gap flagged")
	}
	if got := Renormalize(3); len(got) != 3 || got[0] != 1 || got[2] != 3 {
		t.Fatalf("Renormalize(3) = %v", got)
	}
}

func TestPlanReorder(t *testing.T) {
	a, b, c, moved := uuid.New(), uuid.New(), uuid.New(), uuid.New()
	siblings := []orderedItem{{a, 1}, {b, 2}, {c, 3}}

	plan, err := planReorder(siblings, moved, &a, &b)
	if err != nil {
		t.Fatalf("planReorder: %v", err)
	}
	if len(plan) != 1 || plan[moved] != 1.5 {
		t.Fatalf("between a and b: %v", plan)
	}

	plan, err = planReorder(siblings, moved, nil, &a)
	if err != nil || plan[moved] != 0 {
		t.Fatalf("before first: %v %v", plan, err)
	}

	plan, err = planReorder(siblings, moved, nil, nil)
	if err != nil || plan[moved] != 4 {
		t.Fatalf("append: %v %v", plan, err)
	}

	if _, err := planReorder(siblings, moved, &a, &c); err == nil {
		t.Fatalf("non-adjacent anchors accepted")
	}
	if _, err := planReorder(siblings, moved, &moved, nil); err == nil {
		t.Fatalf("unknown anchor accepted")
	}

	tight := []orderedItem{{a, 1}, {b, 1 + 1e-12}}
	plan, err = planReorder(tight, moved, &a, &b)
	if err != nil {
		t.Fatalf("planReorder (tight): %v", err)
	}
	if len(plan) != 3 || plan[a] != 1 || plan[moved] != 2 || plan[b] != 3 {
		t.Fatalf("expected renumbering, got %v", plan)
	}
}
