package core

import (
	"context"
	"fmt"

	"manifestcore/pkg/domain"
)

// GroupingIntegrityRule blocks commits that break parent/child links: a
// GROUPED manifest without a parent, a parent that does not list the child
// in its appendix, or a traceability-broken manifest attached to a parent.
func GroupingIntegrityRule() domain.Rule {
	return groupingIntegrityRule{}
}

type groupingIntegrityRule struct{}

func (groupingIntegrityRule) Name() string { return "grouping_integrity" }

func (groupingIntegrityRule) Evaluate(_ context.Context, view domain.RuleView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	block := func(id, msg string) {
		res.Violations = append(res.Violations, domain.Violation{
			Rule:     "grouping_integrity",
			Severity: domain.SeverityBlock,
			Message:  msg,
			Entity:   domain.EntityManifest,
			EntityID: id,
		})
	}
	for _, change := range changes {
		if change.Entity != domain.EntityManifest {
			continue
		}
		m, ok := manifestChange(change.After)
		if !ok {
			continue
		}
		if m.Status == domain.StatusNoTraceability && m.ParentID != nil {
			block(m.ID, fmt.Sprintf("manifest %s has a traceability break but is attached to parent %s", m.ID, *m.ParentID))
		}
		if m.Status == domain.StatusGrouped {
			if m.ParentID == nil {
				block(m.ID, fmt.Sprintf("manifest %s is GROUPED without a parent", m.ID))
				continue
			}
			parent, found := view.FindManifest(*m.ParentID)
			if !found {
				block(m.ID, fmt.Sprintf("manifest %s is grouped under missing parent %s", m.ID, *m.ParentID))
				continue
			}
			listed := false
			for _, childID := range parent.GroupedIDs {
				if childID == m.ID {
					listed = true
					break
				}
			}
			if !listed {
				block(m.ID, fmt.Sprintf("parent %s does not list grouped manifest %s", parent.ID, m.ID))
			}
		}
	}
	return res, nil
}
