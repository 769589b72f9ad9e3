// Package deps checks for the external binaries downloads depend on.
package deps
