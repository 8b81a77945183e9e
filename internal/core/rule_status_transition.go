package core

import (
	"context"
	"fmt"

	"manifestcore/pkg/domain"
)

// StatusTransitionRule blocks any committed status change that is not an
// edge of the lifecycle graph, whatever code path produced it. Creations
// must land in DRAFT.
func StatusTransitionRule() domain.Rule {
	return statusTransitionRule{}
}

type statusTransitionRule struct{}

var statusEdges = map[domain.Status]map[domain.Status]struct{}{
	domain.StatusDraft:  edgeSet(domain.StatusSealed),
	domain.StatusSealed: edgeSet(domain.StatusSent),
	domain.StatusSent:   edgeSet(domain.StatusReceived, domain.StatusTempStored),
	domain.StatusReceived: edgeSet(
		domain.StatusAccepted,
		domain.StatusPartiallyRefused,
		domain.StatusRefused,
	),
	domain.StatusAccepted: edgeSet(
		domain.StatusProcessed,
		domain.StatusAwaitingGroup,
		domain.StatusNoTraceability,
	),
	domain.StatusPartiallyRefused: edgeSet(
		domain.StatusProcessed,
		domain.StatusAwaitingGroup,
		domain.StatusNoTraceability,
	),
	domain.StatusTempStored:    edgeSet(domain.StatusResealed),
	domain.StatusResealed:      edgeSet(domain.StatusResent),
	domain.StatusResent:        edgeSet(domain.StatusReceived),
	domain.StatusAwaitingGroup: edgeSet(domain.StatusGrouped),
	domain.StatusGrouped:       edgeSet(domain.StatusProcessed),
}

func edgeSet(statuses ...domain.Status) map[domain.Status]struct{} {
	set := make(map[domain.Status]struct{}, len(statuses))
	for _, s := range statuses {
		set[s] = struct{}{}
	}
	return set
}

func (statusTransitionRule) Name() string { return "status_transition" }

func (statusTransitionRule) Evaluate(_ context.Context, _ domain.RuleView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for _, change := range changes {
		if change.Entity != domain.EntityManifest {
			continue
		}
		after, ok := manifestChange(change.After)
		if !ok {
			continue
		}
		switch change.Action {
		case domain.ActionCreate:
			if after.Status != domain.StatusDraft {
				res.Violations = append(res.Violations, domain.Violation{
					Rule:     "status_transition",
					Severity: domain.SeverityBlock,
					Message:  fmt.Sprintf("manifest %s created in status %s instead of %s", after.ID, after.Status, domain.StatusDraft),
					Entity:   domain.EntityManifest,
					EntityID: after.ID,
				})
			}
		case domain.ActionUpdate:
			before, ok := manifestChange(change.Before)
			if !ok || before.Status == after.Status {
				continue
			}
			if _, legal := statusEdges[before.Status][after.Status]; !legal {
				res.Violations = append(res.Violations, domain.Violation{
					Rule:     "status_transition",
					Severity: domain.SeverityBlock,
					Message:  fmt.Sprintf("manifest %s moved %s -> %s which is not a lifecycle edge", after.ID, before.Status, after.Status),
					Entity:   domain.EntityManifest,
					EntityID: after.ID,
				})
			}
		}
	}
	return res, nil
}
