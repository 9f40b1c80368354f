// Package faiblup ranks genotypes with the FAI-BLUP multi-trait
// selection index.
//
// Input is a genotype × trait matrix of predicted genetic values
// (BLUPs, or any mean surface standing in for them). Per trait the
// values are rescaled to 0–100 so that 100 is always the desirable
// end (Options.Desirable flips Min-is-better traits). The rescaled
// matrix goes through factor analysis (factanal.Decompose), then every
// one of the 2^k desirable/undesirable combinations of the k retained
// factors becomes an ideotype: traits clustering to a desirable factor
// sit at 100, the rest at 0, projected into the same factor-score
// space.
//
// A genotype's proximity probability toward an ideotype is its inverse
// Euclidean score distance, normalized so each ideotype's column sums
// to 1 over genotypes. The all-desirable ideotype drives selection:
// the top ⌈g·intensity/100⌉ genotypes are picked and per-trait
// selection differentials reported on the original value scale.
package faiblup
