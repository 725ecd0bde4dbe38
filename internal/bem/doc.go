// Package bem provides the boundary-element solver capability used to
// compute electrostatic potentials of a surface-electrode trap layout.
//
// The package defines the fundamental interfaces for a solved world:
//
//   - [ElectrodeSet]: named electrodes imported from a trap layout file
//   - [World]: a boundary-value problem that can be refined, solved and
//     evaluated at a point
//   - [Solver]: builds worlds from layouts
//
// A reference implementation, [PanelSolver], discretizes electrodes into
// triangular panels and solves the collocation system with a dense LU
// factorization. Because the system is solved once per unit-voltage basis,
// changing electrode voltages after a solve requires no re-solve; the solved
// basis is what gets persisted to the world cache.
//
// # Thread Safety
//
// A solved [World] is safe for concurrent Potential evaluation only if
// electrode voltages are not mutated concurrently. Building and solving
// mutate freely and must be confined to one goroutine.
package bem
