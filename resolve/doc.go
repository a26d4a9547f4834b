// Package resolve turns loose, human-friendly corpus references into
// canonical registry resource names. It combines four pieces:
//
//   - Canonicalizer: a pure mapping from identifiers to canonical resource
//     names under a configured project/location
//   - a ranked fuzzy matcher scoring candidates from a live corpus listing
//   - Cache: session-backed bookkeeping of the current corpus and
//     per-identifier confirmed-existence flags
//   - Resolver: the orchestrator tying target selection, listing, matching
//     and cache updates together
//
// Resolution always consults a live listing; cached positives only
// short-circuit the boolean existence check, never full resolution. Failed
// resolutions never mutate cached state, so the cache can only hold
// registry-confirmed facts.
package resolve
