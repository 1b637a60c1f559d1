// Package streamds exposes the database's stream directory as callable
// operations. The catalog of stream descriptors is fetched once at
// construction; each listed stream becomes an Operation whose selectors
// are forwarded as query parameters. The set of operations is discovered
// at runtime from server metadata — asking for a stream the server never
// listed is a hard error.
package streamds
