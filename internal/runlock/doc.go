// Package runlock serializes conversion runs with a file lock so two
// invocations never write into the same output tree at once.
package runlock
