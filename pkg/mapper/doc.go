// Package mapper converts backend component descriptors into canvas nodes and
// back.
//
// ComponentsToNodes lays nodes out on a deterministic two-row grid: config and
// secret bundles on the first row, everything else on the second. Conf and
// secret maps keep their key order, so ids derived from positions are stable
// across a round trip.
package mapper
