// Package record defines the policy and park data model and the YAML decode
// primitive shared by the loader and the validator.
//
// # Records
//
// A [Policy] is one government incentive offering tied to a city. A [Park] is
// a venue offering registration or workspace support. Both are authored by
// hand as one YAML file per record and are never mutated at runtime.
//
// # Open mappings
//
// Benefit categories ([Benefits]) and park support flags ([Support]) are open
// mappings: contributors may add new keys without a code change. A small set
// of known keys carries display labels; unknown keys round-trip and display
// under their raw key.
//
// # Dates
//
// [Date] keeps the text the author wrote so the validator can warn on
// non-ISO formats, and parses on demand with [Date.Time].
//
// # Decoding
//
// [Decode] parses one document and requires it to be a mapping:
//
//	var p record.Policy
//	if err := record.Decode(data, &p); err != nil {
//	    // skip the file
//	}
package record
