// Package massmap holds the value types shared by the convergence-map
// reconstruction chain.
//
// Responsibilities: shear and convergence map containers, output planes
// handed to writers, and the error taxonomy used by every stage.
// Key types: ShearMap, ConvergenceMap, Plane, Shape.
//
// Dependency rule: massmap imports nothing from its subpackages. The stage
// packages (coords, healpix, sht, grid, calibrate, binning, reconstruct)
// depend on it, and pipeline is the only package that imports them all.
package massmap
