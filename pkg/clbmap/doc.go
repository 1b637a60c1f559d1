// Package clbmap builds indexed lookup structures over the clbmap stream
// of a single detector. A Map fetches the detector's full CLB record set
// once and derives indices by UPI, DOM ID, OMKey and base module lazily,
// each memoized for the lifetime of the Map. CompassResolver joins CLB
// UPIs against the integration stream to resolve the mounted compass
// module, memoizing results process-wide.
package clbmap
