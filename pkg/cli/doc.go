// Package cli implements the mockserver command line. serve runs a server
// until a signal or an admin stop request; the other commands stop servers,
// inspect configuration and generate certificates.
package cli
