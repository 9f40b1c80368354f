// Package met is a toolbox for multi-environment-trial (MET) statistics
// in plant breeding: within-environment and joint ANOVA, AMMI
// decomposition, stability indices, factor-analytic environment
// stratification, canonical correlation and multi-trait selection.
//
// 🌾 What is met?
//
//	A batch, single-threaded statistics library that brings together:
//		• Trial tables: long-format Environment × Genotype × Replicate records
//		• ANOVA: within-environment and joint two-way fixed-effects models
//		• AMMI: SVD of the GE interaction residual, axis tests, prediction
//		• Stability: Fox TOP-third counts, Shukla stability variance
//		• Stratification: factor analysis over environment correlations
//		• Canonical correlation: Bartlett and Rao significance tests
//		• Selection: FAI-BLUP multi-trait ideotype-distance index
//
// ✨ Why choose met?
//
//   - Explicit inputs – columns are selected by name and validated up front
//   - Fail-fast guarantees – sentinel errors, no panics on user data
//   - Pure batch – no goroutines, no hidden I/O, deterministic results
//   - Composable – feed GE means or upstream BLUPs into the selection index
//
// Everything is organized under focused subpackages:
//
//	trial/     — trial table, GE matrix aggregation, EM-SVD imputation
//	anova/     — joint (RCBD / alpha-lattice) and per-environment ANOVA
//	ammi/      — AMMI fit and truncated-rank prediction
//	stability/ — Fox and Shukla indices with combined ranks
//	factanal/  — eigen + varimax environment stratification
//	cancorr/   — canonical correlation between two variable groups
//	faiblup/   — FAI-BLUP ideotype selection index
//	report/    — plain-text reports with selectable precision
//	cmd/met    — CSV-driven command line front end
//
// Numerical primitives (SVD, symmetric eigen, inverse, distributions)
// are delegated to gonum; met adds the trial-data plumbing, the MET
// models and their result objects.
package met
