// Package metarule implements a meta-language reasoning core: a term
// algebra for bracket-delimited sentences, matching and unification over
// that algebra, rule generalization via anti-unification, an indexed rule
// set with a generality DAG, proof graphs, and weighted backward and
// forward (naive and Rete) provers.
//
// Version: 0.1.0
package metarule

// Version identifies this module's release for checkpoint/config
// diagnostics and CLI --version output.
const Version = "0.1.0"
