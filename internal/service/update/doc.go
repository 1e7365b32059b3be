// Package update runs the recipe maintenance pipeline: bump the version
// fields, fetch and verify the new source archive, checksum it, patch the
// recipe and regenerate the derived metadata file.
//
// The pipeline is strictly sequential. The only repeated operation is the
// fetch-verify loop, which re-downloads a corrupted archive up to a
// configurable bound with no backoff.
package update
