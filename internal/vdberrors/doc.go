// Package vdberrors defines the error kinds surfaced by vecdb's core
// coordination layer: the hash ring, the router, the rebalancer, and the
// wire codec. Each kind is a distinct sentinel-comparable type so callers
// can use errors.As/errors.Is instead of matching on error strings.
package vdberrors
