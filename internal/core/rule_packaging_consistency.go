package core

import (
	"context"
	"fmt"

	"manifestcore/pkg/domain"
)

// PackagingConsistencyRule blocks commits that leave a container
// sub-workflow in an impossible shape: a refused packaging with weight, an
// operation without a prior acceptation, or an operated refused packaging.
func PackagingConsistencyRule() domain.Rule {
	return packagingConsistencyRule{}
}

type packagingConsistencyRule struct{}

func (packagingConsistencyRule) Name() string { return "packaging_consistency" }

func (packagingConsistencyRule) Evaluate(_ context.Context, _ domain.RuleView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for _, change := range changes {
		if change.Entity != domain.EntityManifest {
			continue
		}
		m, ok := manifestChange(change.After)
		if !ok || m.Shape != domain.ShapePackaged {
			continue
		}
		for _, p := range m.Packagings {
			for _, msg := range packagingProblems(p) {
				res.Violations = append(res.Violations, domain.Violation{
					Rule:     "packaging_consistency",
					Severity: domain.SeverityBlock,
					Message:  fmt.Sprintf("manifest %s packaging %s: %s", m.ID, p.ID, msg),
					Entity:   domain.EntityManifest,
					EntityID: m.ID,
				})
			}
		}
	}
	return res, nil
}

func packagingProblems(p domain.Packaging) []string {
	var problems []string
	if p.Acceptation != nil && p.Acceptation.Signature != nil {
		switch p.Acceptation.Status {
		case domain.AcceptationRefused:
			if p.Acceptation.Weight != 0 {
				problems = append(problems, "refused with a non-zero weight")
			}
			if p.Acceptation.RefusalReason == "" {
				problems = append(problems, "refused without a reason")
			}
		case domain.AcceptationAccepted, domain.AcceptationPartiallyRefused:
			if p.Acceptation.Weight <= 0 {
				problems = append(problems, "accepted without a positive weight")
			}
		default:
			problems = append(problems, fmt.Sprintf("unknown acceptation status %s", p.Acceptation.Status))
		}
	}
	if p.OperationSigned() {
		if !p.AcceptationSigned() {
			problems = append(problems, "operated without a signed acceptation")
		}
		if p.Refused() {
			problems = append(problems, "operated despite refusal")
		}
		if !IsProcessingOperationCode(p.Operation.Code) {
			problems = append(problems, fmt.Sprintf("unknown operation code %s", p.Operation.Code))
		}
	}
	return problems
}
