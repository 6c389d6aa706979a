// Package reconstruct inverts binned shear maps into E- and B-mode
// convergence with Kaiser-Squires operators.
//
// Responsibilities:
//   - FlatKS: the flat-sky Fourier-space inversion on gnomonic grids, with
//     optional Gaussian smoothing and zero padding.
//   - SphericalKS: the spin-2 harmonic inversion on HEALPix or MW samplings,
//     with optional smoothing and resampling onto another sampling.
//   - New: the single construction point. Algorithm tags are resolved here
//     and unknown tags or incompatible grids are rejected before any array
//     is touched.
//
// Both reconstructors treat Unseen pixels as zero shear.
//
// Dependency rule: reconstruct depends on grid and sht; nothing in massmap
// depends on reconstruct except pipeline.
package reconstruct
