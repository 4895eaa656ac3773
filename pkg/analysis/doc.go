// Package analysis answers matching questions about parsed networks:
// single-parameter traces, the sample nearest a target frequency, and a
// Good/Moderate/Poor grade from |S11| in dB.
package analysis
