package rank

import (
	"github.com/velvetmonkey/notelink/internal/config"
	"github.com/velvetmonkey/notelink/pkg/types"
)

// policy gates which match kinds are eligible and the minimum composite
// score a suggestion must reach under one strictness level.
type policy struct {
	minScore float64
	kinds    map[types.MatchKind]bool
}

func (p policy) admitsKind(k types.MatchKind) bool {
	return p.kinds[k]
}

// policyFor maps a strictness level onto its gating policy.
//
//	conservative: exact-name + alias with a high floor, precision first.
//	balanced:     adds fuzzy with a medium floor, the default trade-off.
//	aggressive:   all kinds incl. contextual with a low floor, recall first.
func policyFor(s types.Strictness, cfg config.RankingConfig) policy {
	switch s {
	case types.StrictnessConservative:
		return policy{
			minScore: cfg.ConservativeMinScore,
			kinds: map[types.MatchKind]bool{
				types.MatchExactName: true,
				types.MatchAlias:     true,
			},
		}
	case types.StrictnessAggressive:
		return policy{
			minScore: cfg.AggressiveMinScore,
			kinds: map[types.MatchKind]bool{
				types.MatchExactName:  true,
				types.MatchAlias:      true,
				types.MatchFuzzy:      true,
				types.MatchPartial:    true,
				types.MatchContextual: true,
			},
		}
	default:
		return policy{
			minScore: cfg.BalancedMinScore,
			kinds: map[types.MatchKind]bool{
				types.MatchExactName: true,
				types.MatchAlias:     true,
				types.MatchFuzzy:     true,
			},
		}
	}
}
