package core

import (
	"fmt"

	"manifestcore/pkg/domain"
)

// GroupingError reports a parent/child cascade that cannot be applied. The
// triggering transition must not commit when it occurs.
type GroupingError struct {
	ChildID string
	Message string
}

func (e *GroupingError) Error() string {
	return fmt.Sprintf("grouping child %s: %s", e.ChildID, e.Message)
}

// resolveGroupingOnSeal attaches every manifest listed in the parent's
// appendix to the freshly sealed parent. Two phases inside the parent's own
// transaction: first every child is checked to be groupable, then all of
// them move to GROUPED together. Any failure aborts the whole transaction so
// a parent is never sealed against a half-attached appendix.
func resolveGroupingOnSeal(tx domain.Transaction, parent domain.Manifest) error {
	for _, childID := range parent.GroupedIDs {
		child, ok := tx.FindManifest(childID)
		if !ok {
			return &GroupingError{ChildID: childID, Message: "not found"}
		}
		if child.Status == domain.StatusNoTraceability {
			return &GroupingError{ChildID: childID, Message: "traceability break excludes it from grouping"}
		}
		if child.Status != domain.StatusAwaitingGroup {
			return &GroupingError{ChildID: childID, Message: fmt.Sprintf("status %s is not awaiting group", child.Status)}
		}
		if child.ParentID != nil {
			return &GroupingError{ChildID: childID, Message: "already attached to another parent"}
		}
	}
	parentID := parent.ID
	for _, childID := range parent.GroupedIDs {
		if _, err := tx.UpdateManifest(childID, func(c *domain.Manifest) error {
			c.Status = domain.StatusGrouped
			c.ParentID = &parentID
			return nil
		}); err != nil {
			return err
		}
	}
	return nil
}

// cascadeGroupedChildren moves every GROUPED child of a terminally processed
// parent to PROCESSED within the same transaction. A traceability break on
// the parent is just as final for its children as a regular treatment.
func cascadeGroupedChildren(tx domain.Transaction, parent domain.Manifest) error {
	for _, childID := range parent.GroupedIDs {
		child, ok := tx.FindManifest(childID)
		if !ok {
			return &GroupingError{ChildID: childID, Message: "not found"}
		}
		if child.Status != domain.StatusGrouped {
			continue
		}
		if child.ParentID == nil || *child.ParentID != parent.ID {
			return &GroupingError{ChildID: childID, Message: "grouped under a different parent"}
		}
		if _, err := tx.UpdateManifest(childID, func(c *domain.Manifest) error {
			c.Status = domain.StatusProcessed
			return nil
		}); err != nil {
			return err
		}
	}
	return nil
}
