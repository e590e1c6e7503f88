// Package serial converts values to and from the tagged payload of a
// serialized string.
//
// Each top-level call owns an Encoder or Decoder context holding the output
// or input cursor and the reference table. Composites get an id the first
// time they are met, before their children are visited, so later
// occurrences, including cycles through an ancestor, become back-references.
// The decoder registers ids in the same order.
package serial
