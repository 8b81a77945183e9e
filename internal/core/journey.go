package core

import (
	"context"
	"fmt"
	"time"

	"manifestcore/pkg/domain"
)

// StepState qualifies one stop of a manifest's journey for display.
type StepState string

// Journey step states.
const (
	StepComplete   StepState = "complete"
	StepActive     StepState = "active"
	StepIncomplete StepState = "incomplete"
)

// JourneyStep is one stop on the manifest's path, in lifecycle order.
type JourneyStep struct {
	Name     string     `json:"name"`
	State    StepState  `json:"state"`
	Author   string     `json:"author,omitempty"`
	SignedAt *time.Time `json:"signed_at,omitempty"`
}

// PackagingProgress summarizes one container's sub-workflow for display.
type PackagingProgress struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	AcceptationSigned bool   `json:"acceptation_signed"`
	Refused           bool   `json:"refused"`
	OperationSigned   bool   `json:"operation_signed"`
}

// Journey is the read-only progress view of a manifest: every expected stop
// with its completion state, plus per-container progress for packaged
// manifests.
type Journey struct {
	ManifestID string              `json:"manifest_id"`
	ReadableID string              `json:"readable_id"`
	Status     domain.Status       `json:"status"`
	Steps      []JourneyStep       `json:"steps"`
	Packagings []PackagingProgress `json:"packagings,omitempty"`
}

// Journey builds the progress view for a manifest. The first incomplete stop
// is marked active unless the lifecycle already ended.
func (s *Service) Journey(ctx context.Context, id string) (Journey, error) {
	var out Journey
	err := s.observe(ctx, "journey", func(ctx context.Context) error {
		return s.store.View(ctx, func(v domain.TransactionView) error {
			m, ok := v.FindManifest(id)
			if !ok || m.DeletedAt != nil {
				return ErrNotFound{Entity: domain.EntityManifest, ID: id}
			}
			out = buildJourney(m)
			return nil
		})
	})
	return out, err
}

func buildJourney(m domain.Manifest) Journey {
	j := Journey{ManifestID: m.ID, ReadableID: m.ReadableID, Status: m.Status}

	add := func(name string, sig *domain.Signature) {
		step := JourneyStep{Name: name, State: StepIncomplete}
		if sig != nil {
			step.State = StepComplete
			step.Author = sig.Author
			at := sig.SignedAt
			step.SignedAt = &at
		}
		j.Steps = append(j.Steps, step)
	}

	add("emission", m.EmissionSignature)
	for _, seg := range m.Segments {
		add(fmt.Sprintf("transport segment %d", seg.Position), seg.Signature)
	}
	if m.Shape == domain.ShapeTempStorage && m.TempStorage != nil {
		add("storage reception", recordSignature(m, domain.SignatureReception, ""))
		add("reseal", m.TempStorage.ResealedSignature)
		add("resumed transport", m.TempStorage.TransportSignature)
	}
	add("reception", m.ReceptionSignature)

	switch m.Shape {
	case domain.ShapePackaged:
		agg := AggregatePackagings(m.Packagings)
		add("acceptation", aggregateStepSignature(agg.AcceptationSigned == agg.Total, m))
		add("operation", aggregateStepSignature(agg.Operated+agg.Refused == agg.Total && agg.Total > 0, m))
		for _, p := range m.Packagings {
			j.Packagings = append(j.Packagings, PackagingProgress{
				ID:                p.ID,
				Name:              p.Name,
				AcceptationSigned: p.AcceptationSigned(),
				Refused:           p.Refused(),
				OperationSigned:   p.OperationSigned(),
			})
		}
	default:
		var accSig, opSig *domain.Signature
		if m.Acceptation != nil {
			accSig = m.Acceptation.Signature
		}
		if m.Operation != nil {
			opSig = m.Operation.Signature
		}
		add("acceptation", accSig)
		add("operation", opSig)
	}

	if !m.Status.IsTerminal() {
		for i := range j.Steps {
			if j.Steps[i].State == StepIncomplete {
				j.Steps[i].State = StepActive
				break
			}
		}
	}
	return j
}

// recordSignature reconstructs a signature from the append-only record log
// for stops that store their data outside a dedicated signature field.
func recordSignature(m domain.Manifest, t domain.SignatureType, target string) *domain.Signature {
	for _, r := range m.Records {
		if r.Type == t && r.Target == target {
			return &domain.Signature{Author: r.Author, SignedAt: r.SignedAt}
		}
	}
	return nil
}

// aggregateStepSignature marks an aggregate step complete without a single
// author: packaged acceptation and operation finish per container.
func aggregateStepSignature(done bool, m domain.Manifest) *domain.Signature {
	if !done {
		return nil
	}
	return &domain.Signature{SignedAt: m.UpdatedAt}
}
