package core

import "manifestcore/pkg/domain"

// NewDefaultRulesEngine builds a rules engine with the built-in policy set.
func NewDefaultRulesEngine() *domain.RulesEngine {
	engine := domain.NewRulesEngine()
	engine.Register(StatusTransitionRule())
	engine.Register(SegmentOrderRule())
	engine.Register(PackagingConsistencyRule())
	engine.Register(GroupingIntegrityRule())
	return engine
}

func manifestChange(v any) (domain.Manifest, bool) {
	m, ok := v.(domain.Manifest)
	return m, ok
}
