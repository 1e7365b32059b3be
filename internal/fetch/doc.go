// Package fetch retrieves source archives over HTTP with streaming progress
// reporting. Progress is an explicit parameter so the fetch-verify-retry loop
// stays independently testable.
package fetch
