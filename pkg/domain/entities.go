// Package domain defines the core persistent entities, value types, and
// rule evaluation primitives used by manifestcore.
package domain

import "time"

// EntityType identifies the type of record stored in the core domain.
type EntityType string

// Supported entity type identifiers used in Change records and persistence buckets.
const (
	// EntityManifest identifies a waste-transfer manifest record.
	EntityManifest EntityType = "manifest"
)

// Status represents the canonical manifest lifecycle states.
type Status string

// Canonical manifest statuses. Status only ever moves along the edges the
// status engine defines; commit-time rules block anything else.
const (
	// StatusDraft is the initial state of a freshly created manifest.
	StatusDraft Status = "DRAFT"
	// StatusSealed marks a manifest whose declaration passed full-field validation.
	StatusSealed Status = "SEALED"
	// StatusSent marks a manifest taken over by a carrier.
	StatusSent     Status = "SENT"
	StatusReceived Status = "RECEIVED"
	StatusAccepted Status = "ACCEPTED"
	StatusRefused  Status = "REFUSED"
	// StatusPartiallyRefused marks a mixed acceptation outcome.
	StatusPartiallyRefused Status = "PARTIALLY_REFUSED"
	// StatusTempStored marks arrival at a temporary storage or reconditioning site.
	StatusTempStored Status = "TEMP_STORED"
	StatusResealed   Status = "RESEALED"
	StatusResent     Status = "RESENT"
	StatusProcessed  Status = "PROCESSED"
	// StatusAwaitingGroup marks a manifest whose treatment defers to a later grouping.
	StatusAwaitingGroup Status = "AWAITING_GROUP"
	StatusGrouped       Status = "GROUPED"
	// StatusNoTraceability marks the regulator-sanctioned traceability-break exit.
	StatusNoTraceability Status = "NO_TRACEABILITY"
)

// IsTerminal reports whether the status ends the manifest lifecycle.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusProcessed, StatusNoTraceability, StatusRefused:
		return true
	}
	return false
}

// Role identifies the position a company occupies on a manifest.
type Role string

// Roles a signing company may hold on a manifest.
const (
	RoleEmitter     Role = "emitter"
	RoleCarrier     Role = "carrier"
	RoleDestination Role = "destination"
	RoleTrader      Role = "trader"
	RoleBroker      Role = "broker"
	// RoleTempStorage is the operator of an intermediate storage site.
	RoleTempStorage Role = "temp_storage"
)

// SignatureType enumerates the signature events a party can attach.
type SignatureType string

// Signature event types, in lifecycle order.
const (
	SignatureEmission    SignatureType = "EMISSION"
	SignatureTransport   SignatureType = "TRANSPORT"
	SignatureReception   SignatureType = "RECEPTION"
	SignatureAcceptation SignatureType = "ACCEPTATION"
	SignatureOperation   SignatureType = "OPERATION"
)

// ManifestShape is the closed variant describing which sub-records a
// manifest carries. The status engine dispatches on it instead of sniffing
// nullable fields.
type ManifestShape string

// Supported manifest shapes.
const (
	// ShapeSimple is a single waste stream with manifest-level acceptation.
	ShapeSimple ManifestShape = "simple"
	// ShapeTempStorage routes through an intermediate storage site before
	// the final destination.
	ShapeTempStorage ManifestShape = "temp_storage"
	// ShapePackaged splits the waste across individually tracked containers.
	ShapePackaged ManifestShape = "packaged"
)

// AcceptationStatus enumerates destination acceptance outcomes.
type AcceptationStatus string

// Acceptation outcomes recorded at reception of the waste.
const (
	AcceptationAccepted         AcceptationStatus = "ACCEPTED"
	AcceptationRefused          AcceptationStatus = "REFUSED"
	AcceptationPartiallyRefused AcceptationStatus = "PARTIALLY_REFUSED"
)

// Base contains common fields for all domain records.
type Base struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CompanyRef points at a company in the external directory. SecurityCode is
// only populated on the emitter and checked when a carrier signs the
// emission on the emitter's device.
type CompanyRef struct {
	OrgID        string `json:"org_id"`
	Name         string `json:"name"`
	SecurityCode int    `json:"security_code,omitempty"`
}

// Signature records a single authenticated sign-off.
type Signature struct {
	Author   string    `json:"author"`
	SignedAt time.Time `json:"signed_at"`
}

// CarrierSegment is one leg of transport performed by one carrier company.
// Segment n+1 cannot be signed before segment n.
type CarrierSegment struct {
	Position  int        `json:"position"`
	Company   CompanyRef `json:"company"`
	Signature *Signature `json:"signature,omitempty"`
}

// Signed reports whether the segment carries a transport signature.
func (s CarrierSegment) Signed() bool { return s.Signature != nil }

// Acceptation captures the destination's acceptance decision for a waste
// stream or a single packaging. A refused acceptation has weight zero; an
// accepted or partially refused one has a strictly positive weight.
type Acceptation struct {
	Status        AcceptationStatus `json:"status"`
	Weight        float64           `json:"weight"`
	RefusalReason string            `json:"refusal_reason,omitempty"`
	WasteCode     string            `json:"waste_code,omitempty"`
	Signature     *Signature        `json:"signature,omitempty"`
}

// Operation captures the destination's treatment sign-off. NoTraceability
// flags the regulator-sanctioned traceability break.
type Operation struct {
	Code            string      `json:"code"`
	Description     string      `json:"description"`
	NoTraceability  bool        `json:"no_traceability"`
	NextDestination *CompanyRef `json:"next_destination,omitempty"`
	Signature       *Signature  `json:"signature,omitempty"`
}

// Packaging is an individually trackable container within a packaged
// manifest. Each runs its own acceptation/operation sub-machine.
type Packaging struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Numero      string       `json:"numero"`
	Weight      float64      `json:"weight"`
	Acceptation *Acceptation `json:"acceptation,omitempty"`
	Operation   *Operation   `json:"operation,omitempty"`
}

// Refused reports whether the packaging's acceptation was signed as refused.
func (p Packaging) Refused() bool {
	return p.Acceptation != nil && p.Acceptation.Signature != nil && p.Acceptation.Status == AcceptationRefused
}

// AcceptationSigned reports whether the packaging acceptation is signed.
func (p Packaging) AcceptationSigned() bool {
	return p.Acceptation != nil && p.Acceptation.Signature != nil
}

// OperationSigned reports whether the packaging operation is signed.
func (p Packaging) OperationSigned() bool {
	return p.Operation != nil && p.Operation.Signature != nil
}

// TempStorageDetail describes the resumed leg after intermediate storage:
// the onward carrier and the final destination that mirror the
// SEALED→SENT→RECEIVED sequence.
type TempStorageDetail struct {
	Destination        CompanyRef  `json:"destination"`
	Carrier            CompanyRef  `json:"carrier"`
	ReceivedWeight     float64     `json:"received_weight"`
	ReceivedAt         *time.Time  `json:"received_at,omitempty"`
	ResealedSignature  *Signature  `json:"resealed_signature,omitempty"`
	TransportSignature *Signature  `json:"transport_signature,omitempty"`
}

// SignatureRecord is an append-only, immutable log entry for a recorded
// signature event. A given (type, target) pair appears at most once. The
// target distinguishes repeatable types: the packaging id for per-container
// sign-offs, the segment position for transport legs, empty otherwise.
type SignatureRecord struct {
	ID       string        `json:"id"`
	Type     SignatureType `json:"type"`
	Target   string        `json:"target,omitempty"`
	Author   string        `json:"author"`
	SignedAt time.Time     `json:"signed_at"`
}

// Manifest is the tracked waste-transfer document.
type Manifest struct {
	Base
	ReadableID string        `json:"readable_id"`
	Status     Status        `json:"status"`
	Shape      ManifestShape `json:"shape"`

	WasteCode        string      `json:"waste_code"`
	Emitter          CompanyRef  `json:"emitter"`
	Destination      CompanyRef  `json:"destination"`
	Trader           *CompanyRef `json:"trader,omitempty"`
	Broker           *CompanyRef `json:"broker,omitempty"`
	Segments         []CarrierSegment `json:"segments"`
	EmissionSignature *Signature `json:"emission_signature,omitempty"`

	ReceivedWeight     float64    `json:"received_weight"`
	ReceivedAt         *time.Time `json:"received_at,omitempty"`
	ReceptionSignature *Signature `json:"reception_signature,omitempty"`

	// Manifest-level acceptation/operation for the simple and temp-storage
	// shapes. Packaged manifests carry these per container.
	Acceptation *Acceptation `json:"acceptation,omitempty"`
	Operation   *Operation   `json:"operation,omitempty"`

	TempStorage *TempStorageDetail `json:"temp_storage,omitempty"`
	Packagings  []Packaging        `json:"packagings,omitempty"`

	// ParentID links a grouped child to the manifest that absorbed it.
	// GroupedIDs is the appendix list a parent declares before sealing.
	ParentID   *string  `json:"parent_id,omitempty"`
	GroupedIDs []string `json:"grouped_ids,omitempty"`

	Records []SignatureRecord `json:"records"`

	// DeletedAt is a soft-delete flag set by an external collaborator;
	// manifests are never removed.
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
}

// HasRecord reports whether a (type, target) signature pair is already
// recorded. This is the append-only, at-most-once invariant that rejects
// concurrent double submissions.
func (m Manifest) HasRecord(t SignatureType, target string) bool {
	for _, r := range m.Records {
		if r.Type == t && r.Target == target {
			return true
		}
	}
	return false
}

// RoleOf resolves the role the given company occupies on the manifest, or
// false if it holds none.
func (m Manifest) RoleOf(orgID string) (Role, bool) {
	switch orgID {
	case "":
		return "", false
	case m.Emitter.OrgID:
		return RoleEmitter, true
	case m.Destination.OrgID:
		return RoleDestination, true
	}
	for _, seg := range m.Segments {
		if seg.Company.OrgID == orgID {
			return RoleCarrier, true
		}
	}
	if m.TempStorage != nil {
		if m.TempStorage.Carrier.OrgID == orgID {
			return RoleCarrier, true
		}
		if m.TempStorage.Destination.OrgID == orgID {
			return RoleDestination, true
		}
	}
	if m.Trader != nil && m.Trader.OrgID == orgID {
		return RoleTrader, true
	}
	if m.Broker != nil && m.Broker.OrgID == orgID {
		return RoleBroker, true
	}
	return "", false
}

// FirstUnsignedSegment returns the lowest-position segment without a
// transport signature, or false when every segment is signed.
func (m Manifest) FirstUnsignedSegment() (CarrierSegment, bool) {
	for _, seg := range m.Segments {
		if !seg.Signed() {
			return seg, true
		}
	}
	return CarrierSegment{}, false
}

// Change describes a mutation applied to an entity during a transaction.
type Change struct {
	Entity EntityType
	Action Action
	Before any
	After  any
}

// Action indicates the type of modification performed.
type Action string

// Change actions enumerate supported mutations captured in the audit trail.
const (
	// ActionCreate indicates an entity was created.
	ActionCreate Action = "create"
	// ActionUpdate indicates an entity was updated.
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Severity captures rule outcomes.
type Severity string

// Rule evaluation severities determine commit behavior and logging.
const (
	// SeverityBlock blocks transaction commit.
	SeverityBlock Severity = "block"
	// SeverityWarn logs a warning but allows commit.
	SeverityWarn Severity = "warn"
	SeverityLog  Severity = "log"
)

// Violation reports a failed rule evaluation.
type Violation struct {
	Rule     string
	Severity Severity
	Message  string
	Entity   EntityType
	EntityID string
}

// Result aggregates violations from the rules engine.
type Result struct {
	Violations []Violation
}

// Merge appends violations from another result.
func (r *Result) Merge(other Result) {
	if len(other.Violations) == 0 {
		return
	}
	r.Violations = append(r.Violations, other.Violations...)
}

// HasBlocking returns true if the result contains blocking violations.
func (r Result) HasBlocking() bool {
	for _, v := range r.Violations {
		if v.Severity == SeverityBlock {
			return true
		}
	}
	return false
}

// RuleViolationError is returned when blocking violations are present.
type RuleViolationError struct {
	Result Result
}

func (e RuleViolationError) Error() string {
	return "transaction blocked by rules"
}
