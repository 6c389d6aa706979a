// Package sht implements spin-0 and spin-2 spherical-harmonic transforms on
// iso-latitude ring samplings of the sphere.
//
// Two samplings are provided: HEALPix (analysis by equal-area quadrature)
// and the band-limited equiangular MW grid (analysis exact for band-limited
// signals). Both synthesise by direct Wigner-d evaluation per ring followed
// by a ring FFT.
//
// Conventions: sYlm(theta, phi) = (-1)^s sqrt((2l+1)/4pi) d^l_{m,-s}(theta) e^{i m phi};
// the spin-2 field gamma = g1 + i g2 expands as sum a2_lm 2Ylm with
// a(+-2)_lm = -(E_lm +- i B_lm).
//
// Dependency rule: sht may depend on massmap and healpix, never on grid or
// reconstruct.
package sht
