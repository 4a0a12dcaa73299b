// Package fsutil holds the file system helpers of the generator: atomic
// writes of generated output, content hashing and go.mod discovery.
package fsutil
