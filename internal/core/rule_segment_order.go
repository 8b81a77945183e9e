package core

import (
	"context"
	"fmt"

	"manifestcore/pkg/domain"
)

// SegmentOrderRule blocks commits where carrier segments are signed out of
// order or their positions are not contiguous from 1.
func SegmentOrderRule() domain.Rule {
	return segmentOrderRule{}
}

type segmentOrderRule struct{}

func (segmentOrderRule) Name() string { return "segment_order" }

func (segmentOrderRule) Evaluate(_ context.Context, _ domain.RuleView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for _, change := range changes {
		if change.Entity != domain.EntityManifest {
			continue
		}
		m, ok := manifestChange(change.After)
		if !ok {
			continue
		}
		gapSeen := false
		for i, seg := range m.Segments {
			if seg.Position != i+1 {
				res.Violations = append(res.Violations, domain.Violation{
					Rule:     "segment_order",
					Severity: domain.SeverityBlock,
					Message:  fmt.Sprintf("manifest %s segment at index %d has position %d", m.ID, i, seg.Position),
					Entity:   domain.EntityManifest,
					EntityID: m.ID,
				})
				break
			}
			if !seg.Signed() {
				gapSeen = true
				continue
			}
			if gapSeen {
				res.Violations = append(res.Violations, domain.Violation{
					Rule:     "segment_order",
					Severity: domain.SeverityBlock,
					Message:  fmt.Sprintf("manifest %s segment %d signed before an earlier segment", m.ID, seg.Position),
					Entity:   domain.EntityManifest,
					EntityID: m.ID,
				})
				break
			}
		}
	}
	return res, nil
}
