package core

import (
	"testing"

	"manifestcore/pkg/domain"
)

func acceptedPackaging(id string) domain.Packaging {
	return domain.Packaging{
		ID: id, Name: id, Weight: 1.5,
		Acceptation: &domain.Acceptation{Status: domain.AcceptationAccepted, Weight: 1.4, Signature: testSig("dest")},
	}
}

func refusedPackaging(id string) domain.Packaging {
	return domain.Packaging{
		ID: id, Name: id, Weight: 1.5,
		Acceptation: &domain.Acceptation{Status: domain.AcceptationRefused, RefusalReason: "non conforme", Signature: testSig("dest")},
	}
}

func operatedPackaging(id, code string, noTraceability bool) domain.Packaging {
	p := acceptedPackaging(id)
	p.Operation = &domain.Operation{Code: code, NoTraceability: noTraceability, Signature: testSig("dest")}
	return p
}

func TestAggregateOutcome(t *testing.T) {
	cases := []struct {
		name string
		ps   []domain.Packaging
		want AggregateOutcome
	}{
		{"empty", nil, AggregatePending},
		{"pending", []domain.Packaging{acceptedPackaging("p-1"), {ID: "p-2"}}, AggregatePending},
		{"all-refused", []domain.Packaging{refusedPackaging("p-1"), refusedPackaging("p-2")}, AggregateAllRefused},
		{"all-accepted", []domain.Packaging{acceptedPackaging("p-1"), acceptedPackaging("p-2")}, AggregateAllAccepted},
		{"mixed", []domain.Packaging{acceptedPackaging("p-1"), refusedPackaging("p-2")}, AggregateMixed},
		{"all-operated", []domain.Packaging{operatedPackaging("p-1", "R 1", false), refusedPackaging("p-2")}, AggregateAllOperated},
		{"single", []domain.Packaging{acceptedPackaging("p-1")}, AggregateAllAccepted},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := AggregatePackagings(tc.ps).Outcome(); got != tc.want {
				t.Fatalf("Outcome = %s, want %s", got, tc.want)
			}
		})
	}
}

func TestAggregateAcceptationStatus(t *testing.T) {
	current := domain.StatusReceived
	cases := []struct {
		name string
		ps   []domain.Packaging
		want domain.Status
	}{
		{"pending-keeps-current", []domain.Packaging{acceptedPackaging("p-1"), {ID: "p-2"}}, current},
		{"all-refused", []domain.Packaging{refusedPackaging("p-1"), refusedPackaging("p-2")}, domain.StatusRefused},
		{"mixed", []domain.Packaging{acceptedPackaging("p-1"), refusedPackaging("p-2")}, domain.StatusPartiallyRefused},
		{"all-accepted", []domain.Packaging{acceptedPackaging("p-1"), acceptedPackaging("p-2")}, domain.StatusAccepted},
		{"single-refused", []domain.Packaging{refusedPackaging("p-1")}, domain.StatusRefused},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := AggregatePackagings(tc.ps).AcceptationStatus(current); got != tc.want {
				t.Fatalf("AcceptationStatus = %s, want %s", got, tc.want)
			}
		})
	}
}

func TestAggregateOperationStatus(t *testing.T) {
	current := domain.StatusAccepted
	cases := []struct {
		name string
		ps   []domain.Packaging
		want domain.Status
	}{
		{"waiting-keeps-current", []domain.Packaging{acceptedPackaging("p-1")}, current},
		{"all-final", []domain.Packaging{operatedPackaging("p-1", "R 1", false), operatedPackaging("p-2", "D 1", false)}, domain.StatusProcessed},
		{"one-grouping-code", []domain.Packaging{operatedPackaging("p-1", "R 1", false), operatedPackaging("p-2", "R 12", false)}, domain.StatusAwaitingGroup},
		{"all-traceability-break", []domain.Packaging{operatedPackaging("p-1", "R 12", true), operatedPackaging("p-2", "D 13", true)}, domain.StatusNoTraceability},
		{"break-plus-final", []domain.Packaging{operatedPackaging("p-1", "R 1", false), operatedPackaging("p-2", "R 12", true)}, domain.StatusProcessed},
		{"refused-skipped", []domain.Packaging{operatedPackaging("p-1", "R 1", false), refusedPackaging("p-2")}, domain.StatusProcessed},
		{"all-refused-keeps-current", []domain.Packaging{refusedPackaging("p-1")}, current},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := AggregatePackagings(tc.ps).OperationStatus(current); got != tc.want {
				t.Fatalf("OperationStatus = %s, want %s", got, tc.want)
			}
		})
	}
}
