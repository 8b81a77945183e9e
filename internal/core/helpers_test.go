package core

import (
	"fmt"
	"time"

	"manifestcore/pkg/domain"
)

const (
	orgEmitter = "org-emitter"
	orgCarrier = "org-carrier"
	orgSecond  = "org-carrier-2"
	orgStorage = "org-storage"
	orgOnward  = "org-onward"
	orgDest    = "org-dest"
)

var testClock = time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)

func testSig(author string) *domain.Signature {
	return &domain.Signature{Author: author, SignedAt: testClock}
}

func simpleManifest() domain.Manifest {
	return domain.Manifest{
		Base:      domain.Base{ID: "m-simple"},
		Status:    domain.StatusDraft,
		Shape:     domain.ShapeSimple,
		WasteCode: "17 05 03*",
		Emitter:   domain.CompanyRef{OrgID: orgEmitter, Name: "Chantier Nord", SecurityCode: 4321},
		Destination: domain.CompanyRef{
			OrgID: orgDest, Name: "Traitement Sud",
		},
		Segments: []domain.CarrierSegment{
			{Position: 1, Company: domain.CompanyRef{OrgID: orgCarrier, Name: "Transports Est"}},
		},
	}
}

func tempStorageManifest() domain.Manifest {
	m := simpleManifest()
	m.ID = "m-temp"
	m.Shape = domain.ShapeTempStorage
	m.Destination = domain.CompanyRef{OrgID: orgStorage, Name: "Entreposage Centre"}
	m.TempStorage = &domain.TempStorageDetail{
		Destination: domain.CompanyRef{OrgID: orgDest, Name: "Traitement Sud"},
		Carrier:     domain.CompanyRef{OrgID: orgOnward, Name: "Transports Ouest"},
	}
	return m
}

func packagedManifest(containers int) domain.Manifest {
	m := simpleManifest()
	m.ID = "m-packaged"
	m.Shape = domain.ShapePackaged
	for i := 0; i < containers; i++ {
		m.Packagings = append(m.Packagings, domain.Packaging{
			ID:     fmt.Sprintf("p-%d", i+1),
			Name:   fmt.Sprintf("benne %d", i+1),
			Weight: 1.5,
		})
	}
	return m
}

func floatPtr(v float64) *float64 { return &v }

func acceptationEvent(orgID string, status domain.AcceptationStatus, weight float64, reason string) SignatureEvent {
	return SignatureEvent{
		Kind:              KindAcceptation,
		Actor:             Actor{OrgID: orgID, Name: "Receptionnaire"},
		AcceptationStatus: status,
		Weight:            floatPtr(weight),
		RefusalReason:     reason,
	}
}

func operationEvent(orgID, code string) SignatureEvent {
	return SignatureEvent{
		Kind:                 KindOperation,
		Actor:                Actor{OrgID: orgID, Name: "Exploitant"},
		OperationCode:        code,
		OperationDescription: "traitement",
	}
}
