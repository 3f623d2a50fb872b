package backend

import (
	"crypto/tls"
)

// Options are options for connecting to a backend.
type Options struct {
	// URL encodes how we'll connect (eg. "redis://localhost:6379/0" for
	// the queue backend, "http://localhost:8100" for the http backend).
	URL string

	// TLSConfig needed to connect (optional).
	TLSConfig *tls.Config
}
