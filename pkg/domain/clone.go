package domain

import "time"

// Clone returns a deep copy of the manifest. Stores hand out clones so a
// caller can never mutate committed state through a shared pointer.
func (m Manifest) Clone() Manifest {
	cp := m
	if m.Segments != nil {
		cp.Segments = make([]CarrierSegment, len(m.Segments))
		for i, seg := range m.Segments {
			seg.Signature = cloneSignature(seg.Signature)
			cp.Segments[i] = seg
		}
	}
	if m.Packagings != nil {
		cp.Packagings = make([]Packaging, len(m.Packagings))
		for i, p := range m.Packagings {
			p.Acceptation = cloneAcceptation(p.Acceptation)
			p.Operation = cloneOperation(p.Operation)
			cp.Packagings[i] = p
		}
	}
	if m.Records != nil {
		cp.Records = append([]SignatureRecord(nil), m.Records...)
	}
	if m.GroupedIDs != nil {
		cp.GroupedIDs = append([]string(nil), m.GroupedIDs...)
	}
	cp.Trader = cloneCompanyRef(m.Trader)
	cp.Broker = cloneCompanyRef(m.Broker)
	cp.EmissionSignature = cloneSignature(m.EmissionSignature)
	cp.ReceptionSignature = cloneSignature(m.ReceptionSignature)
	cp.ReceivedAt = cloneTime(m.ReceivedAt)
	cp.Acceptation = cloneAcceptation(m.Acceptation)
	cp.Operation = cloneOperation(m.Operation)
	cp.DeletedAt = cloneTime(m.DeletedAt)
	if m.ParentID != nil {
		id := *m.ParentID
		cp.ParentID = &id
	}
	if m.TempStorage != nil {
		ts := *m.TempStorage
		ts.ReceivedAt = cloneTime(m.TempStorage.ReceivedAt)
		ts.ResealedSignature = cloneSignature(m.TempStorage.ResealedSignature)
		ts.TransportSignature = cloneSignature(m.TempStorage.TransportSignature)
		cp.TempStorage = &ts
	}
	return cp
}

func cloneSignature(s *Signature) *Signature {
	if s == nil {
		return nil
	}
	cp := *s
	return &cp
}

func cloneAcceptation(a *Acceptation) *Acceptation {
	if a == nil {
		return nil
	}
	cp := *a
	cp.Signature = cloneSignature(a.Signature)
	return &cp
}

func cloneOperation(o *Operation) *Operation {
	if o == nil {
		return nil
	}
	cp := *o
	cp.Signature = cloneSignature(o.Signature)
	cp.NextDestination = cloneCompanyRef(o.NextDestination)
	return &cp
}

func cloneCompanyRef(c *CompanyRef) *CompanyRef {
	if c == nil {
		return nil
	}
	cp := *c
	return &cp
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	cp := *t
	return &cp
}
