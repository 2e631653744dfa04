package users

import (
	"github.com/google/uuid"

	"github.com/medhealth/fieldforce-backend/pkg/db/models"
)

// Hierarchy indexes reporting lines in both directions. It is built from a
// single user fetch and answers reachability questions in memory.
type Hierarchy struct {
	managers map[uuid.UUID][]uuid.UUID
	reports  map[uuid.UUID][]uuid.UUID
}

// NewHierarchy builds the index from the lm_id, dm_id and area_id edges of rows.
func NewHierarchy(rows []models.User) *Hierarchy {
	h := &Hierarchy{
		managers: make(map[uuid.UUID][]uuid.UUID, len(rows)),
		reports:  make(map[uuid.UUID][]uuid.UUID),
	}
	for _, row := range rows {
		h.setManagers(row.ID, row.ManagerIDs())
	}
	return h
}

func (h *Hierarchy) setManagers(userID uuid.UUID, managerIDs []uuid.UUID) {
	for _, old := range h.managers[userID] {
		h.reports[old] = removeID(h.reports[old], userID)
	}
	h.managers[userID] = managerIDs
	for _, managerID := range managerIDs {
		h.reports[managerID] = append(h.reports[managerID], userID)
	}
}

// WithManagers returns a copy of h where userID reports to managerIDs.
func (h *Hierarchy) WithManagers(userID uuid.UUID, managerIDs []uuid.UUID) *Hierarchy {
	clone := &Hierarchy{
		managers: make(map[uuid.UUID][]uuid.UUID, len(h.managers)+1),
		reports:  make(map[uuid.UUID][]uuid.UUID, len(h.reports)),
	}
	for id, refs := range h.managers {
		clone.managers[id] = append([]uuid.UUID(nil), refs...)
	}
	for id, refs := range h.reports {
		clone.reports[id] = append([]uuid.UUID(nil), refs...)
	}
	clone.setManagers(userID, managerIDs)
	return clone
}

// Subordinates lists every user reachable downward from managerID, in
// breadth-first order. managerID itself is never included.
func (h *Hierarchy) Subordinates(managerID uuid.UUID) []uuid.UUID {
	seen := map[uuid.UUID]struct{}{managerID: {}}
	queue := append([]uuid.UUID(nil), h.reports[managerID]...)
	out := make([]uuid.UUID, 0, len(queue))
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if _, ok := seen[current]; ok {
			continue
		}
		seen[current] = struct{}{}
		out = append(out, current)
		queue = append(queue, h.reports[current]...)
	}
	return out
}

// Reaches reports whether following manager edges upward from userID arrives
// at targetID.
func (h *Hierarchy) Reaches(userID, targetID uuid.UUID) bool {
	seen := map[uuid.UUID]struct{}{}
	queue := []uuid.UUID{userID}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if current == targetID {
			return true
		}
		if _, ok := seen[current]; ok {
			continue
		}
		seen[current] = struct{}{}
		queue = append(queue, h.managers[current]...)
	}
	return false
}

// IsAbove reports whether managerID sits anywhere above userID.
func (h *Hierarchy) IsAbove(managerID, userID uuid.UUID) bool {
	if managerID == userID {
		return false
	}
	return h.Reaches(userID, managerID)
}

func removeID(ids []uuid.UUID, target uuid.UUID) []uuid.UUID {
	out := ids[:0:0]
	for _, id := range ids {
		if id != target {
			out = append(out, id)
		}
	}
	return out
}
