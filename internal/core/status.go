package core

import "manifestcore/pkg/domain"

// NextStatus computes the legal next status for a manifest given the
// caller's role and a validated event, or rejects the transition. It is a
// pure function: the authoritative service and any "can I sign this" display
// check both call it. Role mismatches surface as *AuthorizationError, missing
// edges as *StateError; the two are never conflated.
func NextStatus(m domain.Manifest, role domain.Role, ev ValidatedEvent) (domain.Status, error) {
	switch ev.Kind {
	case KindSeal:
		return nextSealStatus(m, role)
	case KindEmission:
		return nextEmissionStatus(m, role, ev)
	case KindTransport:
		return nextTransportStatus(m, role, ev)
	case KindReception:
		return nextReceptionStatus(m, role)
	case KindAcceptation:
		return nextAcceptationStatus(m, role, ev)
	case KindOperation:
		return nextOperationStatus(m, role, ev)
	}
	return "", &StateError{Status: m.Status, Event: string(ev.Kind)}
}

func nextSealStatus(m domain.Manifest, role domain.Role) (domain.Status, error) {
	switch m.Status {
	case domain.StatusDraft:
		if role != domain.RoleEmitter {
			return "", &AuthorizationError{Required: domain.RoleEmitter, Event: "seal"}
		}
		return domain.StatusSealed, nil
	case domain.StatusTempStored:
		// The storage operator reseals for the resumed leg.
		if role != domain.RoleDestination && role != domain.RoleTempStorage {
			return "", &AuthorizationError{Required: domain.RoleTempStorage, Event: "reseal"}
		}
		return domain.StatusResealed, nil
	}
	return "", &StateError{Status: m.Status, Event: "seal"}
}

func nextEmissionStatus(m domain.Manifest, role domain.Role, ev ValidatedEvent) (domain.Status, error) {
	if m.Status != domain.StatusSealed {
		return "", &StateError{Status: m.Status, Event: "emission"}
	}
	switch role {
	case domain.RoleEmitter:
	case domain.RoleCarrier:
		// Device hand-off: a carrier may sign the emission on the
		// emitter's device when the supplied security code matches.
		if ev.SecurityCode == 0 || ev.SecurityCode != m.Emitter.SecurityCode {
			return "", &AuthorizationError{OrgID: ev.Actor.OrgID, Required: domain.RoleEmitter, Event: "emission"}
		}
	default:
		return "", &AuthorizationError{OrgID: ev.Actor.OrgID, Required: domain.RoleEmitter, Event: "emission"}
	}
	// The manifest leaves SEALED when the first carrier signs transport.
	return domain.StatusSealed, nil
}

func nextTransportStatus(m domain.Manifest, role domain.Role, ev ValidatedEvent) (domain.Status, error) {
	if role != domain.RoleCarrier {
		return "", &AuthorizationError{OrgID: ev.Actor.OrgID, Required: domain.RoleCarrier, Event: "transport"}
	}
	switch m.Status {
	case domain.StatusSealed, domain.StatusSent:
		if m.EmissionSignature == nil {
			return "", &StateError{Status: m.Status, Event: "transport"}
		}
		next, ok := m.FirstUnsignedSegment()
		if !ok || next.Position != ev.SegmentPosition {
			return "", &StateError{Status: m.Status, Event: "transport"}
		}
		return domain.StatusSent, nil
	case domain.StatusResealed:
		if m.TempStorage == nil || m.TempStorage.TransportSignature != nil {
			return "", &StateError{Status: m.Status, Event: "transport"}
		}
		return domain.StatusResent, nil
	}
	return "", &StateError{Status: m.Status, Event: "transport"}
}

func nextReceptionStatus(m domain.Manifest, role domain.Role) (domain.Status, error) {
	if role != domain.RoleDestination {
		return "", &AuthorizationError{Required: domain.RoleDestination, Event: "reception"}
	}
	switch m.Status {
	case domain.StatusSent:
		if _, unsigned := m.FirstUnsignedSegment(); unsigned {
			return "", &StateError{Status: m.Status, Event: "reception"}
		}
		if m.Shape == domain.ShapeTempStorage {
			return domain.StatusTempStored, nil
		}
		return domain.StatusReceived, nil
	case domain.StatusResent:
		return domain.StatusReceived, nil
	}
	return "", &StateError{Status: m.Status, Event: "reception"}
}

func nextAcceptationStatus(m domain.Manifest, role domain.Role, ev ValidatedEvent) (domain.Status, error) {
	if role != domain.RoleDestination {
		return "", &AuthorizationError{Required: domain.RoleDestination, Event: "acceptation"}
	}
	if m.Status != domain.StatusReceived {
		return "", &StateError{Status: m.Status, Event: "acceptation"}
	}
	if m.Shape == domain.ShapePackaged {
		agg := AggregatePackagings(applyToPackagings(m, ev))
		return agg.AcceptationStatus(m.Status), nil
	}
	switch ev.AcceptationStatus {
	case domain.AcceptationRefused:
		return domain.StatusRefused, nil
	case domain.AcceptationPartiallyRefused:
		return domain.StatusPartiallyRefused, nil
	}
	return domain.StatusAccepted, nil
}

func nextOperationStatus(m domain.Manifest, role domain.Role, ev ValidatedEvent) (domain.Status, error) {
	if role != domain.RoleDestination {
		return "", &AuthorizationError{Required: domain.RoleDestination, Event: "operation"}
	}
	if m.Status != domain.StatusAccepted && m.Status != domain.StatusPartiallyRefused {
		return "", &StateError{Status: m.Status, Event: "operation"}
	}
	if m.Shape == domain.ShapePackaged {
		agg := AggregatePackagings(applyToPackagings(m, ev))
		return agg.OperationStatus(m.Status), nil
	}
	// Traceability break always wins over grouping.
	if ev.NoTraceability {
		return domain.StatusNoTraceability, nil
	}
	if IsGroupingOperationCode(ev.OperationCode) {
		return domain.StatusAwaitingGroup, nil
	}
	return domain.StatusProcessed, nil
}

// applyToPackagings simulates the event against a copy of the manifest's
// packagings so the aggregate can be computed without mutating the input.
// An empty PackagingID targets every packaging, mirroring the
// sign-all-containers convenience path.
func applyToPackagings(m domain.Manifest, ev ValidatedEvent) []domain.Packaging {
	out := make([]domain.Packaging, len(m.Packagings))
	copy(out, m.Packagings)
	for i := range out {
		if ev.PackagingID != "" && out[i].ID != ev.PackagingID {
			continue
		}
		switch ev.Kind {
		case KindAcceptation:
			acc := domain.Acceptation{
				Status:        ev.AcceptationStatus,
				Weight:        ev.Weight,
				RefusalReason: ev.RefusalReason,
				WasteCode:     m.WasteCode,
				Signature:     ev.Signature(),
			}
			out[i].Acceptation = &acc
		case KindOperation:
			if out[i].Refused() {
				continue
			}
			op := domain.Operation{
				Code:           ev.OperationCode,
				Description:    ev.OperationDescription,
				NoTraceability: ev.NoTraceability,
				Signature:      ev.Signature(),
			}
			out[i].Operation = &op
		}
	}
	return out
}
