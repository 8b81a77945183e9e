package core

import (
	"context"
	"testing"

	"manifestcore/pkg/domain"
)

type fakeView struct {
	manifests map[string]domain.Manifest
}

func (v fakeView) ListManifests() []domain.Manifest {
	out := make([]domain.Manifest, 0, len(v.manifests))
	for _, m := range v.manifests {
		out = append(out, m)
	}
	return out
}

func (v fakeView) FindManifest(id string) (domain.Manifest, bool) {
	m, ok := v.manifests[id]
	return m, ok
}

func updateChange(before, after domain.Manifest) domain.Change {
	return domain.Change{Entity: domain.EntityManifest, Action: domain.ActionUpdate, Before: before, After: after}
}

func createChange(after domain.Manifest) domain.Change {
	return domain.Change{Entity: domain.EntityManifest, Action: domain.ActionCreate, After: after}
}

func evaluateRule(t *testing.T, rule domain.Rule, view domain.RuleView, changes ...domain.Change) domain.Result {
	t.Helper()
	res, err := rule.Evaluate(context.Background(), view, changes)
	if err != nil {
		t.Fatalf("%s evaluate: %v", rule.Name(), err)
	}
	return res
}

func TestStatusTransitionRule(t *testing.T) {
	rule := StatusTransitionRule()

	draft := simpleManifest()
	sealed := draft
	sealed.Status = domain.StatusSealed

	if res := evaluateRule(t, rule, fakeView{}, updateChange(draft, sealed)); res.HasBlocking() {
		t.Fatalf("DRAFT -> SEALED should pass: %+v", res.Violations)
	}

	processed := draft
	processed.Status = domain.StatusProcessed
	if res := evaluateRule(t, rule, fakeView{}, updateChange(draft, processed)); !res.HasBlocking() {
		t.Fatal("DRAFT -> PROCESSED should block")
	}

	if res := evaluateRule(t, rule, fakeView{}, updateChange(sealed, sealed)); res.HasBlocking() {
		t.Fatal("same-status update should pass")
	}

	if res := evaluateRule(t, rule, fakeView{}, createChange(sealed)); !res.HasBlocking() {
		t.Fatal("creating outside DRAFT should block")
	}
	if res := evaluateRule(t, rule, fakeView{}, createChange(draft)); res.HasBlocking() {
		t.Fatalf("creating in DRAFT should pass: %+v", res.Violations)
	}
}

func TestStatusTransitionRuleCoversResumedLeg(t *testing.T) {
	rule := StatusTransitionRule()
	m := tempStorageManifest()

	edges := []struct {
		from, to domain.Status
	}{
		{domain.StatusSent, domain.StatusTempStored},
		{domain.StatusTempStored, domain.StatusResealed},
		{domain.StatusResealed, domain.StatusResent},
		{domain.StatusResent, domain.StatusReceived},
	}
	for _, e := range edges {
		before := m
		before.Status = e.from
		after := m
		after.Status = e.to
		if res := evaluateRule(t, rule, fakeView{}, updateChange(before, after)); res.HasBlocking() {
			t.Fatalf("%s -> %s should pass: %+v", e.from, e.to, res.Violations)
		}
	}

	before := m
	before.Status = domain.StatusTempStored
	after := m
	after.Status = domain.StatusReceived
	if res := evaluateRule(t, rule, fakeView{}, updateChange(before, after)); !res.HasBlocking() {
		t.Fatal("TEMP_STORED -> RECEIVED skips the reseal and should block")
	}
}

func TestSegmentOrderRule(t *testing.T) {
	rule := SegmentOrderRule()

	m := simpleManifest()
	m.Segments = []domain.CarrierSegment{
		{Position: 1, Company: domain.CompanyRef{OrgID: orgCarrier}},
		{Position: 2, Company: domain.CompanyRef{OrgID: orgSecond}},
	}
	if res := evaluateRule(t, rule, fakeView{}, updateChange(m, m)); res.HasBlocking() {
		t.Fatalf("contiguous unsigned segments should pass: %+v", res.Violations)
	}

	gap := m
	gap.Segments = []domain.CarrierSegment{
		{Position: 1, Company: domain.CompanyRef{OrgID: orgCarrier}},
		{Position: 3, Company: domain.CompanyRef{OrgID: orgSecond}},
	}
	if res := evaluateRule(t, rule, fakeView{}, updateChange(m, gap)); !res.HasBlocking() {
		t.Fatal("non-contiguous positions should block")
	}

	outOfOrder := m
	outOfOrder.Segments = []domain.CarrierSegment{
		{Position: 1, Company: domain.CompanyRef{OrgID: orgCarrier}},
		{Position: 2, Company: domain.CompanyRef{OrgID: orgSecond}, Signature: testSig("driver")},
	}
	if res := evaluateRule(t, rule, fakeView{}, updateChange(m, outOfOrder)); !res.HasBlocking() {
		t.Fatal("segment 2 signed before segment 1 should block")
	}

	prefix := m
	prefix.Segments = []domain.CarrierSegment{
		{Position: 1, Company: domain.CompanyRef{OrgID: orgCarrier}, Signature: testSig("driver")},
		{Position: 2, Company: domain.CompanyRef{OrgID: orgSecond}},
	}
	if res := evaluateRule(t, rule, fakeView{}, updateChange(m, prefix)); res.HasBlocking() {
		t.Fatalf("signed prefix should pass: %+v", res.Violations)
	}
}

func TestPackagingConsistencyRule(t *testing.T) {
	rule := PackagingConsistencyRule()

	ok := packagedManifest(1)
	ok.Packagings[0] = operatedPackaging("p-1", "R 1", false)
	if res := evaluateRule(t, rule, fakeView{}, updateChange(ok, ok)); res.HasBlocking() {
		t.Fatalf("consistent packaging should pass: %+v", res.Violations)
	}

	cases := []struct {
		name   string
		mutate func(*domain.Packaging)
	}{
		{"refused-with-weight", func(p *domain.Packaging) {
			p.Acceptation = &domain.Acceptation{Status: domain.AcceptationRefused, Weight: 2, RefusalReason: "x", Signature: testSig("dest")}
			p.Operation = nil
		}},
		{"refused-without-reason", func(p *domain.Packaging) {
			p.Acceptation = &domain.Acceptation{Status: domain.AcceptationRefused, Signature: testSig("dest")}
			p.Operation = nil
		}},
		{"accepted-without-weight", func(p *domain.Packaging) {
			p.Acceptation = &domain.Acceptation{Status: domain.AcceptationAccepted, Signature: testSig("dest")}
			p.Operation = nil
		}},
		{"operated-without-acceptation", func(p *domain.Packaging) {
			p.Acceptation = nil
		}},
		{"operated-despite-refusal", func(p *domain.Packaging) {
			p.Acceptation = &domain.Acceptation{Status: domain.AcceptationRefused, RefusalReason: "x", Signature: testSig("dest")}
		}},
		{"unknown-operation-code", func(p *domain.Packaging) {
			p.Operation.Code = "Z 9"
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m := packagedManifest(1)
			m.Packagings[0] = operatedPackaging("p-1", "R 1", false)
			tc.mutate(&m.Packagings[0])
			if res := evaluateRule(t, rule, fakeView{}, updateChange(m, m)); !res.HasBlocking() {
				t.Fatal("expected a blocking violation")
			}
		})
	}
}

func TestGroupingIntegrityRule(t *testing.T) {
	rule := GroupingIntegrityRule()
	parentID := "parent-1"

	parent := simpleManifest()
	parent.ID = parentID
	parent.GroupedIDs = []string{"child-1"}

	child := simpleManifest()
	child.ID = "child-1"
	child.Status = domain.StatusGrouped
	child.ParentID = &parentID

	view := fakeView{manifests: map[string]domain.Manifest{parentID: parent, "child-1": child}}
	if res := evaluateRule(t, rule, view, updateChange(child, child)); res.HasBlocking() {
		t.Fatalf("well-linked child should pass: %+v", res.Violations)
	}

	orphan := child
	orphan.ParentID = nil
	if res := evaluateRule(t, rule, view, updateChange(child, orphan)); !res.HasBlocking() {
		t.Fatal("GROUPED without parent should block")
	}

	missing := child
	missingID := "ghost"
	missing.ParentID = &missingID
	if res := evaluateRule(t, rule, view, updateChange(child, missing)); !res.HasBlocking() {
		t.Fatal("GROUPED under a missing parent should block")
	}

	unlisted := child
	unlisted.ID = "child-2"
	if res := evaluateRule(t, rule, view, updateChange(child, unlisted)); !res.HasBlocking() {
		t.Fatal("child absent from the parent appendix should block")
	}

	broken := child
	broken.Status = domain.StatusNoTraceability
	if res := evaluateRule(t, rule, view, updateChange(child, broken)); !res.HasBlocking() {
		t.Fatal("traceability break attached to a parent should block")
	}
}

func TestDefaultRulesEngineBlocksIllegalCommit(t *testing.T) {
	engine := NewDefaultRulesEngine()
	draft := simpleManifest()
	processed := draft
	processed.Status = domain.StatusProcessed

	res, err := engine.Evaluate(context.Background(), fakeView{}, []domain.Change{updateChange(draft, processed)})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if !res.HasBlocking() {
		t.Fatal("default engine should block an illegal status jump")
	}
}
