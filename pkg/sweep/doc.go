// Package sweep defines parameter spaces for simulation sweeps.
//
// A Space enumerates parameter sets in a fixed, reproducible order and knows
// how to relate assigned simulation IDs back to those sets once a sweep has
// run. Four variants are provided:
//
//   - Cartesian: the full cross product of per-parameter candidate values,
//     enumerated lazily in lexicographic order over the declared axis order
//     (last axis varies fastest).
//   - Filtered: a Cartesian product reduced by a predicate, materialized
//     eagerly because its size is only known after filtering.
//   - Explicit: a caller-supplied list of parameter sets with no implied
//     structure.
//   - Random: a declared number of draws from independent random variables,
//     co-indexed across parameters and reproducible from a seed.
//
// # Mappings
//
// After a sweep, Space.Mapping pairs the simulation IDs (in assignment order)
// with the enumerated sets. Cartesian spaces produce a dense Grid addressed by
// axis coordinates and persisted as a netCDF file; all other variants produce
// a sparse Table persisted as JSON. Mapping files are named
// "sim_ids_<sweepID>.nc" or "sim_ids_<sweepID>.json".
package sweep
