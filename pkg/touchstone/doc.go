// Package touchstone reads and writes two-port Touchstone (.s2p) files.
//
// Parse turns the text of one file into an immutable Network: a strictly
// increasing frequency grid in Hz and one 2x2 complex S-matrix per
// frequency. RI, MA and DB data formats are decoded into real/imaginary
// pairs once, when the option line is read. Parse does no I/O; callers
// supply the text and a name used in error messages.
package touchstone
