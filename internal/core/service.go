package core

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"manifestcore/internal/archive"
	"manifestcore/pkg/domain"
)

// Clock supplies the current time for domain timestamps.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to the Clock interface. A nil function falls
// back to the wall clock.
type ClockFunc func() time.Time

// Now returns the function's time in UTC, or the current UTC time when the
// function is nil.
func (f ClockFunc) Now() time.Time {
	if f == nil {
		return time.Now().UTC()
	}
	return f().UTC()
}

type serviceOptions struct {
	clock     Clock
	logger    Logger
	metrics   MetricsRecorder
	tracer    Tracer
	notifier  Notifier
	archive   archive.Store
	directory Directory
	newID     func() string
}

func defaultServiceOptions() serviceOptions {
	return serviceOptions{
		clock:   ClockFunc(nil),
		logger:  noopLogger{},
		metrics: noopMetrics{},
		tracer:  noopTracer{},
		newID:   uuid.NewString,
	}
}

// ServiceOption customizes service construction.
type ServiceOption func(*serviceOptions)

// WithClock overrides the time source used for signature timestamps and
// readable id years.
func WithClock(c Clock) ServiceOption {
	return func(o *serviceOptions) {
		if c != nil {
			o.clock = c
		}
	}
}

// WithLogger overrides the default no-op logger.
func WithLogger(l Logger) ServiceOption {
	return func(o *serviceOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithMetricsRecorder wires an operation metrics sink.
func WithMetricsRecorder(m MetricsRecorder) ServiceOption {
	return func(o *serviceOptions) {
		if m != nil {
			o.metrics = m
		}
	}
}

// WithTracer wires a span tracer around service operations.
func WithTracer(t Tracer) ServiceOption {
	return func(o *serviceOptions) {
		if t != nil {
			o.tracer = t
		}
	}
}

// WithNotifier wires the terminal-transition notification dispatcher.
func WithNotifier(n Notifier) ServiceOption {
	return func(o *serviceOptions) { o.notifier = n }
}

// WithArchive wires the document archive that retains terminal manifest
// snapshots.
func WithArchive(a archive.Store) ServiceOption {
	return func(o *serviceOptions) { o.archive = a }
}

// WithDirectory wires the external company directory used to vet parties at
// creation time.
func WithDirectory(d Directory) ServiceOption {
	return func(o *serviceOptions) { o.directory = d }
}

// WithIDGenerator overrides record id generation, mainly for deterministic
// tests.
func WithIDGenerator(fn func() string) ServiceOption {
	return func(o *serviceOptions) {
		if fn != nil {
			o.newID = fn
		}
	}
}

type noopMetrics struct{}

func (noopMetrics) Observe(context.Context, string, bool, time.Duration) {}

type noopTracer struct{}

func (noopTracer) Start(ctx context.Context, _ string) (context.Context, TraceSpan) {
	return ctx, noopSpan{}
}

type noopSpan struct{}

func (noopSpan) End(error) {}

// Service exposes the transactional manifest lifecycle operations. All
// status transitions run inside a store transaction so the commit-time rules
// see the full mutation before anything becomes visible.
type Service struct {
	store domain.PersistentStore
	opts  serviceOptions
}

// NewService constructs a service backed by the supplied store.
func NewService(store domain.PersistentStore, opts ...ServiceOption) *Service {
	o := defaultServiceOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Service{store: store, opts: o}
}

// Store returns the underlying storage implementation.
func (s *Service) Store() domain.PersistentStore {
	return s.store
}

func (s *Service) observe(ctx context.Context, operation string, fn func(context.Context) error) error {
	start := time.Now()
	ctx, span := s.opts.tracer.Start(ctx, operation)
	err := fn(ctx)
	s.opts.metrics.Observe(ctx, operation, err == nil, time.Since(start))
	span.End(err)
	if err != nil {
		s.opts.logger.Debugf("%s failed: %v", operation, err)
	}
	return err
}

// CreateManifest persists a new DRAFT manifest and allocates its readable
// id from the per-year counter. Packagings without an id get one.
func (s *Service) CreateManifest(ctx context.Context, input domain.Manifest) (domain.Manifest, domain.Result, error) {
	var created domain.Manifest
	var res domain.Result
	err := s.observe(ctx, "create_manifest", func(ctx context.Context) error {
		if err := s.vetParties(ctx, input); err != nil {
			return err
		}
		now := s.opts.clock.Now()
		var err error
		res, err = s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
			m := input
			if m.ID == "" {
				m.ID = s.opts.newID()
			}
			if m.Shape == "" {
				m.Shape = domain.ShapeSimple
			}
			m.Status = domain.StatusDraft
			m.CreatedAt = now
			m.UpdatedAt = now
			m.EmissionSignature = nil
			m.ReceptionSignature = nil
			m.Records = nil
			m.ParentID = nil
			for i := range m.Packagings {
				if m.Packagings[i].ID == "" {
					m.Packagings[i].ID = s.opts.newID()
				}
			}
			seq, err := tx.AllocateReadableSequence(now.Year())
			if err != nil {
				return err
			}
			if m.ReadableID, err = domain.EncodeReadableID(now.Year(), seq); err != nil {
				return err
			}
			created, err = tx.CreateManifest(m)
			return err
		})
		return err
	})
	return created, res, err
}

// vetParties checks the declared companies against the external directory
// when one is configured. An unknown or inactive company blocks creation.
func (s *Service) vetParties(ctx context.Context, m domain.Manifest) error {
	if s.opts.directory == nil {
		return nil
	}
	check := func(field string, ref domain.CompanyRef) error {
		if ref.OrgID == "" {
			return nil
		}
		info, err := s.opts.directory.Lookup(ctx, ref.OrgID)
		if err != nil {
			return fmt.Errorf("directory lookup for %s: %w", field, err)
		}
		if !info.Active {
			return NewValidationError(field, "company is not active in the directory")
		}
		return nil
	}
	if err := check("emitter", m.Emitter); err != nil {
		return err
	}
	return check("destination", m.Destination)
}

// SealManifest runs full-field validation and moves a DRAFT manifest to
// SEALED, attaching any declared grouping appendix in the same transaction.
// On a TEMP_STORED manifest it reseals for the resumed leg instead.
func (s *Service) SealManifest(ctx context.Context, id string, actor Actor) (domain.Manifest, domain.Result, error) {
	return s.apply(ctx, "seal_manifest", id, SignatureEvent{Kind: KindSeal, Actor: actor})
}

// Sign applies a signature event to the manifest. The event kind selects the
// transition; validation, role resolution, and the status engine all run
// inside the manifest's transaction.
func (s *Service) Sign(ctx context.Context, id string, ev SignatureEvent) (domain.Manifest, domain.Result, error) {
	return s.apply(ctx, "sign_"+string(ev.Kind), id, ev)
}

// SignEmission records the emitter's sign-off on a SEALED manifest.
func (s *Service) SignEmission(ctx context.Context, id string, ev SignatureEvent) (domain.Manifest, domain.Result, error) {
	ev.Kind = KindEmission
	return s.apply(ctx, "sign_emission", id, ev)
}

// SignTransport records a carrier segment pickup, or the resumed-leg pickup
// after temporary storage.
func (s *Service) SignTransport(ctx context.Context, id string, ev SignatureEvent) (domain.Manifest, domain.Result, error) {
	ev.Kind = KindTransport
	return s.apply(ctx, "sign_transport", id, ev)
}

// SignReception records arrival at the destination or at the intermediate
// storage site.
func (s *Service) SignReception(ctx context.Context, id string, ev SignatureEvent) (domain.Manifest, domain.Result, error) {
	ev.Kind = KindReception
	return s.apply(ctx, "sign_reception", id, ev)
}

// SignAcceptation records the destination's acceptance decision, for the
// whole waste stream or a single packaging.
func (s *Service) SignAcceptation(ctx context.Context, id string, ev SignatureEvent) (domain.Manifest, domain.Result, error) {
	ev.Kind = KindAcceptation
	return s.apply(ctx, "sign_acceptation", id, ev)
}

// SignOperation records the treatment sign-off. A terminal outcome cascades
// to grouped children and fires the post-commit collaborators.
func (s *Service) SignOperation(ctx context.Context, id string, ev SignatureEvent) (domain.Manifest, domain.Result, error) {
	ev.Kind = KindOperation
	return s.apply(ctx, "sign_operation", id, ev)
}

func (s *Service) apply(ctx context.Context, operation, id string, ev SignatureEvent) (domain.Manifest, domain.Result, error) {
	var updated domain.Manifest
	var res domain.Result
	err := s.observe(ctx, operation, func(ctx context.Context) error {
		if ev.SignedAt.IsZero() {
			ev.SignedAt = s.opts.clock.Now()
		}
		var err error
		res, err = s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
			m, ok := tx.FindManifest(id)
			if !ok || m.DeletedAt != nil {
				return ErrNotFound{Entity: domain.EntityManifest, ID: id}
			}
			ved, err := ValidateEvent(ev, m)
			if err != nil {
				return err
			}
			role, ok := m.RoleOf(ev.Actor.OrgID)
			if !ok {
				return &AuthorizationError{OrgID: ev.Actor.OrgID, Event: string(ev.Kind)}
			}
			next, err := NextStatus(m, role, ved)
			if err != nil {
				return err
			}
			updated, err = tx.UpdateManifest(id, func(mm *domain.Manifest) error {
				s.applyEvent(mm, ved, next)
				mm.UpdatedAt = s.opts.clock.Now()
				return nil
			})
			if err != nil {
				return err
			}
			if ev.Kind == KindSeal && next == domain.StatusSealed && len(updated.GroupedIDs) > 0 {
				return resolveGroupingOnSeal(tx, updated)
			}
			if ev.Kind == KindOperation && updated.Status.IsTerminal() && len(updated.GroupedIDs) > 0 {
				return cascadeGroupedChildren(tx, updated)
			}
			return nil
		})
		return err
	})
	if err == nil && updated.Status.IsTerminal() {
		s.afterTerminal(ctx, updated)
	}
	return updated, res, err
}

// applyEvent writes the event's side effects into the manifest and appends
// the signature record. The manifest still carries its pre-transition status
// when this runs.
func (s *Service) applyEvent(m *domain.Manifest, ev ValidatedEvent, next domain.Status) {
	switch ev.Kind {
	case KindSeal:
		if next == domain.StatusResealed && m.TempStorage != nil {
			m.TempStorage.ResealedSignature = ev.Signature()
		}
	case KindEmission:
		m.EmissionSignature = ev.Signature()
	case KindTransport:
		if m.Status == domain.StatusResealed {
			m.TempStorage.TransportSignature = ev.Signature()
		} else {
			for i := range m.Segments {
				if m.Segments[i].Position == ev.SegmentPosition {
					m.Segments[i].Signature = ev.Signature()
				}
			}
		}
	case KindReception:
		at := ev.ReceivedAt
		if next == domain.StatusTempStored {
			m.TempStorage.ReceivedWeight = ev.ReceivedWeight
			m.TempStorage.ReceivedAt = &at
		} else {
			m.ReceivedWeight = ev.ReceivedWeight
			m.ReceivedAt = &at
			m.ReceptionSignature = ev.Signature()
		}
	case KindAcceptation:
		if m.Shape == domain.ShapePackaged {
			m.Packagings = applyToPackagings(*m, ev)
		} else {
			m.Acceptation = &domain.Acceptation{
				Status:        ev.AcceptationStatus,
				Weight:        ev.Weight,
				RefusalReason: ev.RefusalReason,
				WasteCode:     m.WasteCode,
				Signature:     ev.Signature(),
			}
		}
	case KindOperation:
		if m.Shape == domain.ShapePackaged {
			m.Packagings = applyToPackagings(*m, ev)
		} else {
			m.Operation = &domain.Operation{
				Code:            ev.OperationCode,
				Description:     ev.OperationDescription,
				NoTraceability:  ev.NoTraceability,
				NextDestination: ev.NextDestination,
				Signature:       ev.Signature(),
			}
		}
	}
	if st, ok := ev.Kind.signatureType(); ok {
		m.Records = append(m.Records, domain.SignatureRecord{
			ID:       s.opts.newID(),
			Type:     st,
			Target:   eventTarget(ev.Kind, ev.SegmentPosition, ev.PackagingID, m.Status),
			Author:   ev.Actor.Name,
			SignedAt: ev.SignedAt,
		})
	}
	m.Status = next
}

// afterTerminal fires the post-commit collaborators. Failures are logged and
// swallowed so a notification or archival hiccup never unwinds a committed
// transition.
func (s *Service) afterTerminal(ctx context.Context, m domain.Manifest) {
	if s.opts.notifier != nil {
		n := Notification{
			ManifestID: m.ID,
			ReadableID: m.ReadableID,
			Status:     m.Status,
			OccurredAt: m.UpdatedAt,
		}
		if err := s.opts.notifier.Notify(ctx, n); err != nil {
			s.opts.logger.Warnf("notify %s: %v", m.ReadableID, err)
		}
	}
	if s.opts.archive != nil {
		data, err := json.Marshal(m)
		if err != nil {
			s.opts.logger.Errorf("archive marshal %s: %v", m.ReadableID, err)
			return
		}
		key := fmt.Sprintf("manifests/%s/%s.json", m.ReadableID[3:5], m.ReadableID)
		opts := archive.PutOptions{
			ContentType: "application/json",
			Metadata:    map[string]string{"status": string(m.Status)},
		}
		if _, err := s.opts.archive.Put(ctx, key, bytes.NewReader(data), opts); err != nil {
			s.opts.logger.Warnf("archive %s: %v", m.ReadableID, err)
		}
	}
}

// CanSign reports whether the event would be accepted right now, without
// applying it. Display layers use it to light up signature buttons.
func (s *Service) CanSign(ctx context.Context, id string, ev SignatureEvent) error {
	return s.observe(ctx, "can_sign", func(ctx context.Context) error {
		if ev.SignedAt.IsZero() {
			ev.SignedAt = s.opts.clock.Now()
		}
		return s.store.View(ctx, func(v domain.TransactionView) error {
			m, ok := v.FindManifest(id)
			if !ok || m.DeletedAt != nil {
				return ErrNotFound{Entity: domain.EntityManifest, ID: id}
			}
			ved, err := ValidateEvent(ev, m)
			if err != nil {
				return err
			}
			role, ok := m.RoleOf(ev.Actor.OrgID)
			if !ok {
				return &AuthorizationError{OrgID: ev.Actor.OrgID, Event: string(ev.Kind)}
			}
			_, err = NextStatus(m, role, ved)
			return err
		})
	})
}

// UpdateManifest mutates a DRAFT manifest's declaration. Sealed manifests
// are immutable except through signature events.
func (s *Service) UpdateManifest(ctx context.Context, id string, mutator func(*domain.Manifest) error) (domain.Manifest, domain.Result, error) {
	var updated domain.Manifest
	var res domain.Result
	err := s.observe(ctx, "update_manifest", func(ctx context.Context) error {
		var err error
		res, err = s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
			m, ok := tx.FindManifest(id)
			if !ok || m.DeletedAt != nil {
				return ErrNotFound{Entity: domain.EntityManifest, ID: id}
			}
			if m.Status != domain.StatusDraft {
				return &StateError{Status: m.Status, Event: "update"}
			}
			updated, err = tx.UpdateManifest(id, func(mm *domain.Manifest) error {
				if err := mutator(mm); err != nil {
					return err
				}
				mm.Status = domain.StatusDraft
				for i := range mm.Packagings {
					if mm.Packagings[i].ID == "" {
						mm.Packagings[i].ID = s.opts.newID()
					}
				}
				mm.UpdatedAt = s.opts.clock.Now()
				return nil
			})
			return err
		})
		return err
	})
	return updated, res, err
}

// DeleteManifest soft-deletes a manifest that has not yet left the
// emitter's hands. Nothing is ever physically removed.
func (s *Service) DeleteManifest(ctx context.Context, id string) (domain.Result, error) {
	var res domain.Result
	err := s.observe(ctx, "delete_manifest", func(ctx context.Context) error {
		var err error
		res, err = s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
			m, ok := tx.FindManifest(id)
			if !ok || m.DeletedAt != nil {
				return ErrNotFound{Entity: domain.EntityManifest, ID: id}
			}
			if m.Status != domain.StatusDraft && m.Status != domain.StatusSealed {
				return &StateError{Status: m.Status, Event: "delete"}
			}
			_, err := tx.UpdateManifest(id, func(mm *domain.Manifest) error {
				now := s.opts.clock.Now()
				mm.DeletedAt = &now
				mm.UpdatedAt = now
				return nil
			})
			return err
		})
		return err
	})
	return res, err
}

// DuplicateManifest creates a fresh DRAFT copying the declaration of an
// existing manifest: parties, waste, segments, packagings. Signatures,
// records, grouping links, and reception data do not carry over.
func (s *Service) DuplicateManifest(ctx context.Context, id string) (domain.Manifest, domain.Result, error) {
	var created domain.Manifest
	var res domain.Result
	err := s.observe(ctx, "duplicate_manifest", func(ctx context.Context) error {
		now := s.opts.clock.Now()
		var err error
		res, err = s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
			src, ok := tx.FindManifest(id)
			if !ok {
				return ErrNotFound{Entity: domain.EntityManifest, ID: id}
			}
			dup := domain.Manifest{
				Base:        domain.Base{ID: s.opts.newID(), CreatedAt: now, UpdatedAt: now},
				Status:      domain.StatusDraft,
				Shape:       src.Shape,
				WasteCode:   src.WasteCode,
				Emitter:     src.Emitter,
				Destination: src.Destination,
				Trader:      src.Trader,
				Broker:      src.Broker,
			}
			for _, seg := range src.Segments {
				dup.Segments = append(dup.Segments, domain.CarrierSegment{
					Position: seg.Position,
					Company:  seg.Company,
				})
			}
			if src.TempStorage != nil {
				dup.TempStorage = &domain.TempStorageDetail{
					Destination: src.TempStorage.Destination,
					Carrier:     src.TempStorage.Carrier,
				}
			}
			for _, p := range src.Packagings {
				dup.Packagings = append(dup.Packagings, domain.Packaging{
					ID:     s.opts.newID(),
					Name:   p.Name,
					Numero: p.Numero,
					Weight: p.Weight,
				})
			}
			seq, err := tx.AllocateReadableSequence(now.Year())
			if err != nil {
				return err
			}
			if dup.ReadableID, err = domain.EncodeReadableID(now.Year(), seq); err != nil {
				return err
			}
			created, err = tx.CreateManifest(dup)
			return err
		})
		return err
	})
	return created, res, err
}

// GetManifest fetches a manifest by id, excluding soft-deleted records.
func (s *Service) GetManifest(ctx context.Context, id string) (domain.Manifest, error) {
	var out domain.Manifest
	err := s.observe(ctx, "get_manifest", func(context.Context) error {
		m, ok := s.store.GetManifest(id)
		if !ok || m.DeletedAt != nil {
			return ErrNotFound{Entity: domain.EntityManifest, ID: id}
		}
		out = m
		return nil
	})
	return out, err
}

// ListManifests returns all live manifests.
func (s *Service) ListManifests(ctx context.Context) ([]domain.Manifest, error) {
	var out []domain.Manifest
	err := s.observe(ctx, "list_manifests", func(context.Context) error {
		for _, m := range s.store.ListManifests() {
			if m.DeletedAt != nil {
				continue
			}
			out = append(out, m)
		}
		return nil
	})
	return out, err
}
