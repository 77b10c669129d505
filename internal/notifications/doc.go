// Package notifications delivers run lifecycle messages through ntfy.
// With no topic configured every notification is a silent no-op, so
// callers never need to guard their calls.
package notifications
