// Package logs reads the tubeq log file for the `tubeq logs` command.
//
// Last returns the trailing lines with bounded memory, and Follow polls from
// an offset for appended lines until the context ends. A file that shrinks
// below the offset is treated as rotated and re-read from the start.
package logs
