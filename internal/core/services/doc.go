// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// ResultFactory turns the data element of a block into a chain of
// results; BuildService runs the factory for every requested block and
// builds the artifacts the view reads.
package services
