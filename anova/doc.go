// Package anova fits the fixed-effects analysis-of-variance models
// underlying the met analyses.
//
// Two entry points:
//
//   - Joint — the two-way MET model
//     trait ~ ENV + REP(ENV) [+ BLOCK(ENV×REP)] + GEN + GEN:ENV,
//     with the incomplete-block term included automatically when the
//     table carries block labels (resolvable alpha-lattice design).
//     ENV is tested against REP(ENV); every other source against the
//     residual. The residual mean square and degrees of freedom feed
//     the AMMI axis tests.
//
//   - Individual — the within-environment model trait ~ GEN + REP,
//     fitted per environment per trait, with coefficient of variation,
//     broad-sense heritability and variance components.
//
// Both require a balanced design (same replicate count in every
// genotype × environment cell): the sums of squares are computed from
// the closed-form balanced decomposition, not from a general linear
// solver. Unbalanced data must go through trial.ImputeEM (AMMI does
// this when asked) or be analyzed per environment.
//
// P-values come from the F distribution and are clamped to [0, 1].
package anova
