// Package config loads sweep files: declarative descriptions of a
// parameter sweep that the parasol command turns into engine requests.
//
// # Overview
//
// A sweep file names the simulation command, the configuration
// templates and their destination paths, the parameter space, and
// optionally the naming scheme and dispatch backend. Files are written
// in YAML or CUE; the extension picks the format. CUE files are unified
// with FileSchema, so typos and out-of-range values are rejected with
// file positions.
//
// # Usage Example
//
//	f, err := config.Load("sweep.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	req, closer, err := f.Request(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer closer()
//	ids, err := engine.Run(ctx, req)
//
// # Sweep File Structure
//
// A minimal YAML sweep over two parameters:
//
//	command: "./simulate {sim_id}"
//	configs: ["out/{sim_id}.conf"]
//	templates:
//	  texts: ["x = {x}\ny = {y}\n"]
//	sweep:
//	  parameters:
//	    x: [1, 2, 3]
//	    y: [0.5, 1.5]
//
// The same file in CUE:
//
//	command: "./simulate {sim_id}"
//	configs: ["out/{sim_id}.conf"]
//	templates: texts: ["x = {x}\ny = {y}\n"]
//	sweep: parameters: {
//	    x: [1, 2, 3]
//	    y: [0.5, 1.5]
//	}
//
// The sweep section holds exactly one of parameters (Cartesian
// product), sets (explicit parameter sets), or distributions (random
// draws, with length and an optional seed). Parameter order follows
// file order in both formats.
//
// # Filters
//
// A filter is a Starlark expression over the parameter names; sets it
// evaluates to false for are dropped from a Cartesian sweep:
//
//	sweep:
//	  parameters:
//	    x: [1, 2, 3]
//	    y: [1, 2, 3]
//	  filter: "x > y"
//
// Filter evaluation is sandboxed with no filesystem or network access
// and a timeout, 30 seconds unless filter_timeout says otherwise.
//
// # Error Handling
//
// YAML errors carry the line in the message. CUE errors are collected
// into a LoadError whose ValidationError issues include file, line, and
// column. Cross-field rules (template counts, backend settings, naming
// settings) are checked after parsing in either format.
package config
