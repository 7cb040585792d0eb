// Package config loads mock server settings from a YAML or JSON file.
//
// The format is chosen by extension (.yaml and .yml are YAML, anything else
// is JSON). Values may reference environment variables as ${NAME} or
// ${NAME:-default}. Keys missing from the file keep their defaults:
//
//	port: 8443
//	ssl: true
//	autoCert: true
//	cors: true
//	root: ./public
//	shutdownTimeout: 10s
//	log:
//	  level: debug
//	  format: json
//
// ToBuilder turns a loaded ServerConfig into a server.Builder.
package config
