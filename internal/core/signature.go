package core

import (
	"fmt"
	"time"

	"manifestcore/pkg/domain"
)

// ValidateEvent checks that the required fields for the event kind are
// present and well-formed and that the (type, target) pair has not already
// been recorded on the manifest. It returns a normalized event; it never
// mutates the manifest and performs no role or state checks, which belong to
// the status engine.
func ValidateEvent(ev SignatureEvent, m domain.Manifest) (ValidatedEvent, error) {
	var verr ValidationError

	out := ValidatedEvent{
		Kind:            ev.Kind,
		Actor:           ev.Actor,
		SignedAt:        ev.SignedAt,
		SegmentPosition: ev.SegmentPosition,
		SecurityCode:    ev.SecurityCode,
		PackagingID:     ev.PackagingID,
	}
	if out.SignedAt.IsZero() {
		out.SignedAt = time.Now().UTC()
	}

	switch ev.Kind {
	case KindSeal:
		validateSealFields(m, &verr)
	case KindEmission:
		if ev.Actor.Name == "" {
			verr.Fields = append(verr.Fields, FieldError{Name: "author", Message: "required"})
		}
	case KindTransport:
		if ev.Actor.Name == "" {
			verr.Fields = append(verr.Fields, FieldError{Name: "author", Message: "required"})
		}
		// The resumed leg after temporary storage carries no segment.
		if m.Status != domain.StatusResealed && ev.SegmentPosition < 1 {
			verr.Fields = append(verr.Fields, FieldError{Name: "segmentPosition", Message: "required"})
		}
	case KindReception:
		if ev.Actor.Name == "" {
			verr.Fields = append(verr.Fields, FieldError{Name: "author", Message: "required"})
		}
		if ev.ReceivedAt == nil {
			verr.Fields = append(verr.Fields, FieldError{Name: "receivedAt", Message: "required"})
		} else {
			out.ReceivedAt = *ev.ReceivedAt
		}
		if ev.ReceivedWeight == nil {
			verr.Fields = append(verr.Fields, FieldError{Name: "receivedWeight", Message: "required"})
		} else if *ev.ReceivedWeight <= 0 {
			verr.Fields = append(verr.Fields, FieldError{Name: "receivedWeight", Message: "must be strictly positive"})
		} else {
			out.ReceivedWeight = *ev.ReceivedWeight
		}
	case KindAcceptation:
		validateAcceptationFields(ev, m, &out, &verr)
	case KindOperation:
		validateOperationFields(ev, m, &out, &verr)
	default:
		return ValidatedEvent{}, NewValidationError("kind", "unknown event kind")
	}

	if st, ok := ev.Kind.signatureType(); ok {
		if m.HasRecord(st, eventTarget(ev.Kind, ev.SegmentPosition, ev.PackagingID, m.Status)) {
			verr.Fields = append(verr.Fields, FieldError{Name: "signature", Message: "already signed"})
		}
	}

	if len(verr.Fields) > 0 {
		return ValidatedEvent{}, &verr
	}
	return out, nil
}

// eventTarget computes the at-most-once target for an event: packaging id
// for container sign-offs, segment position for transport legs, a marker for
// the resumed leg after temporary storage. The status is the manifest's
// status before the transition.
func eventTarget(kind EventKind, segmentPosition int, packagingID string, status domain.Status) string {
	switch kind {
	case KindTransport:
		if status == domain.StatusResealed {
			return "resumed"
		}
		return fmt.Sprintf("segment-%d", segmentPosition)
	case KindReception:
		if status == domain.StatusResent {
			return "resumed"
		}
		return ""
	default:
		return packagingID
	}
}

// validateSealFields runs the full-field validation that gates
// DRAFT→SEALED, including shape consistency for the closed manifest
// variants.
func validateSealFields(m domain.Manifest, verr *ValidationError) {
	if m.Emitter.OrgID == "" {
		verr.Fields = append(verr.Fields, FieldError{Name: "emitter", Message: "required"})
	}
	if m.Destination.OrgID == "" {
		verr.Fields = append(verr.Fields, FieldError{Name: "destination", Message: "required"})
	}
	if m.WasteCode == "" {
		verr.Fields = append(verr.Fields, FieldError{Name: "wasteCode", Message: "required"})
	}
	if len(m.Segments) == 0 {
		verr.Fields = append(verr.Fields, FieldError{Name: "segments", Message: "at least one carrier segment required"})
	}
	for i, seg := range m.Segments {
		if seg.Position != i+1 {
			verr.Fields = append(verr.Fields, FieldError{Name: "segments", Message: "positions must be contiguous from 1"})
			break
		}
		if seg.Company.OrgID == "" {
			verr.Fields = append(verr.Fields, FieldError{Name: "segments", Message: "carrier company required on every segment"})
			break
		}
	}

	switch m.Shape {
	case domain.ShapeSimple:
		if m.TempStorage != nil {
			verr.Fields = append(verr.Fields, FieldError{Name: "tempStorage", Message: "not allowed on a simple manifest"})
		}
		if len(m.Packagings) > 0 {
			verr.Fields = append(verr.Fields, FieldError{Name: "packagings", Message: "not allowed on a simple manifest"})
		}
	case domain.ShapeTempStorage:
		if m.TempStorage == nil {
			verr.Fields = append(verr.Fields, FieldError{Name: "tempStorage", Message: "required"})
		} else {
			if m.TempStorage.Destination.OrgID == "" {
				verr.Fields = append(verr.Fields, FieldError{Name: "tempStorage.destination", Message: "second destination required for the resumed leg"})
			}
			if m.TempStorage.Carrier.OrgID == "" {
				verr.Fields = append(verr.Fields, FieldError{Name: "tempStorage.carrier", Message: "onward carrier required"})
			}
		}
		if len(m.Packagings) > 0 {
			verr.Fields = append(verr.Fields, FieldError{Name: "packagings", Message: "not allowed on a temp-storage manifest"})
		}
	case domain.ShapePackaged:
		if len(m.Packagings) == 0 {
			verr.Fields = append(verr.Fields, FieldError{Name: "packagings", Message: "at least one packaging required"})
		}
		for _, p := range m.Packagings {
			if p.Name == "" || p.Weight <= 0 {
				verr.Fields = append(verr.Fields, FieldError{Name: "packagings", Message: "every packaging needs a name and a strictly positive weight"})
				break
			}
		}
		if m.TempStorage != nil {
			verr.Fields = append(verr.Fields, FieldError{Name: "tempStorage", Message: "not allowed on a packaged manifest"})
		}
	default:
		verr.Fields = append(verr.Fields, FieldError{Name: "shape", Message: "unknown manifest shape"})
	}
}

func validateAcceptationFields(ev SignatureEvent, m domain.Manifest, out *ValidatedEvent, verr *ValidationError) {
	if ev.Actor.Name == "" {
		verr.Fields = append(verr.Fields, FieldError{Name: "author", Message: "required"})
	}
	switch ev.AcceptationStatus {
	case domain.AcceptationAccepted, domain.AcceptationRefused, domain.AcceptationPartiallyRefused:
		out.AcceptationStatus = ev.AcceptationStatus
	default:
		verr.Fields = append(verr.Fields, FieldError{Name: "acceptationStatus", Message: "must be ACCEPTED, REFUSED or PARTIALLY_REFUSED"})
		return
	}

	if ev.Weight == nil {
		verr.Fields = append(verr.Fields, FieldError{Name: "weight", Message: "required"})
		return
	}
	out.Weight = *ev.Weight

	switch ev.AcceptationStatus {
	case domain.AcceptationRefused:
		if out.Weight != 0 {
			verr.Fields = append(verr.Fields, FieldError{Name: "weight", Message: "must be zero when refused"})
		}
		if ev.RefusalReason == "" {
			verr.Fields = append(verr.Fields, FieldError{Name: "refusalReason", Message: "required when refused"})
		}
	case domain.AcceptationPartiallyRefused:
		if out.Weight <= 0 {
			verr.Fields = append(verr.Fields, FieldError{Name: "weight", Message: "must be strictly positive when partially refused"})
		}
		if ev.RefusalReason == "" {
			verr.Fields = append(verr.Fields, FieldError{Name: "refusalReason", Message: "required when partially refused"})
		}
	default:
		if out.Weight <= 0 {
			verr.Fields = append(verr.Fields, FieldError{Name: "weight", Message: "must be strictly positive when accepted"})
		}
	}
	out.RefusalReason = ev.RefusalReason

	if ev.PackagingID != "" {
		if findPackaging(m, ev.PackagingID) == nil {
			verr.Fields = append(verr.Fields, FieldError{Name: "packagingId", Message: "no such packaging on this manifest"})
		}
	} else if m.Shape == domain.ShapePackaged {
		// Signing every container at once must not overwrite one that was
		// already signed individually.
		for _, p := range m.Packagings {
			if p.AcceptationSigned() {
				verr.Fields = append(verr.Fields, FieldError{Name: "signature", Message: "already signed"})
				break
			}
		}
	}
}

func validateOperationFields(ev SignatureEvent, m domain.Manifest, out *ValidatedEvent, verr *ValidationError) {
	if ev.Actor.Name == "" {
		verr.Fields = append(verr.Fields, FieldError{Name: "author", Message: "required"})
	}
	if !IsProcessingOperationCode(ev.OperationCode) {
		verr.Fields = append(verr.Fields, FieldError{Name: "operationCode", Message: "not in the processing operation code list"})
	}
	if ev.OperationDescription == "" {
		verr.Fields = append(verr.Fields, FieldError{Name: "operationDescription", Message: "required"})
	}
	out.OperationCode = ev.OperationCode
	out.OperationDescription = ev.OperationDescription
	out.NoTraceability = ev.NoTraceability
	out.NextDestination = ev.NextDestination

	if ev.PackagingID != "" {
		p := findPackaging(m, ev.PackagingID)
		if p == nil {
			verr.Fields = append(verr.Fields, FieldError{Name: "packagingId", Message: "no such packaging on this manifest"})
		} else if !p.AcceptationSigned() {
			verr.Fields = append(verr.Fields, FieldError{Name: "packagingId", Message: "acceptation must be signed before operation"})
		} else if p.Refused() {
			verr.Fields = append(verr.Fields, FieldError{Name: "packagingId", Message: "a refused packaging cannot be operated"})
		}
	} else if m.Shape == domain.ShapePackaged {
		for _, p := range m.Packagings {
			if p.Refused() {
				continue
			}
			if !p.AcceptationSigned() {
				verr.Fields = append(verr.Fields, FieldError{Name: "packagings", Message: "acceptation must be signed on every container before operation"})
				break
			}
			if p.OperationSigned() {
				verr.Fields = append(verr.Fields, FieldError{Name: "signature", Message: "already signed"})
				break
			}
		}
	}
}

func findPackaging(m domain.Manifest, id string) *domain.Packaging {
	for i := range m.Packagings {
		if m.Packagings[i].ID == id {
			return &m.Packagings[i]
		}
	}
	return nil
}
