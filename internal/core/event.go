package core

import (
	"time"

	"manifestcore/pkg/domain"
)

// EventKind identifies the transition a request is asking for. Sealing is a
// validated transition rather than a signature, so it gets its own kind
// alongside the five signature types.
type EventKind string

// Event kinds accepted by the status engine.
const (
	KindSeal        EventKind = "SEAL"
	KindEmission    EventKind = "EMISSION"
	KindTransport   EventKind = "TRANSPORT"
	KindReception   EventKind = "RECEPTION"
	KindAcceptation EventKind = "ACCEPTATION"
	KindOperation   EventKind = "OPERATION"
)

func (k EventKind) signatureType() (domain.SignatureType, bool) {
	switch k {
	case KindEmission:
		return domain.SignatureEmission, true
	case KindTransport:
		return domain.SignatureTransport, true
	case KindReception:
		return domain.SignatureReception, true
	case KindAcceptation:
		return domain.SignatureAcceptation, true
	case KindOperation:
		return domain.SignatureOperation, true
	}
	return "", false
}

// Actor identifies the signing party: the company it acts for and the
// natural person whose name goes on the signature.
type Actor struct {
	OrgID string
	Name  string
}

// SignatureEvent is the raw request a party submits. Field requirements are
// keyed by Kind; ValidateEvent normalizes it into a ValidatedEvent.
type SignatureEvent struct {
	Kind     EventKind
	Actor    Actor
	SignedAt time.Time

	// Transport / emission
	SegmentPosition int
	SecurityCode    int

	// Reception
	ReceivedWeight *float64
	ReceivedAt     *time.Time

	// Acceptation
	PackagingID       string
	AcceptationStatus domain.AcceptationStatus
	Weight            *float64
	RefusalReason     string

	// Operation
	OperationCode        string
	OperationDescription string
	NoTraceability       bool
	NextDestination      *domain.CompanyRef
}

// ValidatedEvent is a normalized, field-checked event ready for the status
// engine. Persistence of the resulting mutation stays with the caller.
type ValidatedEvent struct {
	Kind     EventKind
	Actor    Actor
	SignedAt time.Time

	SegmentPosition int
	SecurityCode    int

	ReceivedWeight float64
	ReceivedAt     time.Time

	PackagingID       string
	AcceptationStatus domain.AcceptationStatus
	Weight            float64
	RefusalReason     string

	OperationCode        string
	OperationDescription string
	NoTraceability       bool
	NextDestination      *domain.CompanyRef
}

// Signature materializes the sign-off carried by the event.
func (ev ValidatedEvent) Signature() *domain.Signature {
	return &domain.Signature{Author: ev.Actor.Name, SignedAt: ev.SignedAt}
}
