package services

import (
	"math"

	"github.com/google/uuid"

	"github.com/yungbote/gtd-backend/internal/platform/apperr"
)

// Items in a list carry float positions so a move only rewrites the moved row.
// When two neighbours get too close to split, the whole list is renumbered.

const orderEpsilon = 1e-9

// OrderAfter is the position for an item appended after last.
func OrderAfter(last float64, hasLast bool) float64 {
	if !hasLast {
		return 1
	}
	return math.Floor(last) + 1
}

// OrderBetween places an item between prev and next; either side may be absent.
func OrderBetween(prev *float64, next *float64) float64 {
	switch {
	case prev == nil && next == nil:
		return 1
	case prev == nil:
		return *next - 1
	case next == nil:
		return *prev + 1
	default:
		return (*prev + *next) / 2
	}
}

// needsRenormalize reports whether pos no longer sits strictly between its neighbours.
func needsRenormalize(prev *float64, pos float64, next *float64) bool {
	if prev != nil && pos-*prev < orderEpsilon {
		return true
	}
	if next != nil && *next-pos < orderEpsilon {
		return true
	}
	return false
}

// Renormalize returns positions 1..n.
func Renormalize(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = float64(i + 1)
	}
	return out
}

type orderedItem struct {
	ID    uuid.UUID
	Order float64
}

// planReorder decides the new positions when movedID is placed right after
// afterID and/or right before beforeID. siblings is the current list in order,
// without the moved item. With neither anchor the item goes to the end. The
// result holds only rows whose position changes.
func planReorder(siblings []orderedItem, movedID uuid.UUID, afterID, beforeID *uuid.UUID) (map[uuid.UUID]float64, error) {
	indexOf := func(id uuid.UUID) int {
		for i, s := range siblings {
			if s.ID == id {
				return i
			}
		}
		return -1
	}

	idx := len(siblings)
	switch {
	case afterID != nil:
		i := indexOf(*afterID)
		if i < 0 {
			return nil, apperr.Validation("after_id", "Not in this list")
		}
		idx = i + 1
		if beforeID != nil && (idx >= len(siblings) || siblings[idx].ID != *beforeID) {
			return nil, apperr.Validation("before_id", "Must directly follow after_id")
		}
	case beforeID != nil:
		i := indexOf(*beforeID)
		if i < 0 {
			return nil, apperr.Validation("before_id", "Not in this list")
		}
		idx = i
	}

	var prev, next *float64
	if idx > 0 {
		prev = &siblings[idx-1].Order
	}
	if idx < len(siblings) {
		next = &siblings[idx].Order
	}
	pos := OrderBetween(prev, next)
	if !needsRenormalize(prev, pos, next) {
		return map[uuid.UUID]float64{movedID: pos}, nil
	}

	ids := make([]uuid.UUID, 0, len(siblings)+1)
	for i, s := range siblings {
		if i == idx {
			ids = append(ids, movedID)
		}
		ids = append(ids, s.ID)
	}
	if idx == len(siblings) {
		ids = append(ids, movedID)
	}
	orders := Renormalize(len(ids))
	out := make(map[uuid.UUID]float64, len(ids))
	for i, id := range ids {
		out[id] = orders[i]
	}
	return out, nil
}
