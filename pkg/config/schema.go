package config

// FileSchema is the CUE schema every .cue sweep file is unified with.
// The definition is closed, so unknown fields are rejected with a
// position-carrying error.
const FileSchema = `
#File: {
	// command is the simulation command. Every {sim_id} expands to the
	// generated simulation ID.
	command: string & !=""

	// configs lists the destination paths for rendered configuration
	// files, one per template. {sim_id} expands in each path.
	configs: [string & !="", ...string & !=""]

	// templates supplies the configuration templates, either as paths
	// or as inline texts.
	templates: {
		paths?: [...string & !=""]
		texts?: [...string]
		engine?: "format" | "gotemplate"
	}

	// sweep describes the parameter space.
	sweep: {
		type?: "cartesian" | "filtered" | "explicit" | "random"

		// parameters maps each parameter name to its values. The
		// Cartesian product of the values forms the space.
		parameters?: {[string]: [...]}

		// filter is a Starlark expression over the parameter names.
		// Sets it evaluates to false for are dropped.
		filter?:         string & !=""
		filter_timeout?: string & !=""

		// sets lists explicit parameter sets, used verbatim.
		sets?: [...{[string]: _}]

		// length and seed drive random sweeps over distributions.
		length?: int & >0
		seed?:   int & >=0

		// distributions maps each parameter name to the distribution
		// its values are drawn from.
		distributions?: {[string]: {
			kind:   "uniform" | "normal" | "lognormal"
			min?:   number
			max?:   number
			mu?:    number
			sigma?: number
		}}
	}

	// naming picks how simulation IDs are generated.
	naming?: {
		kind?:      "sequential" | "hash" | "list"
		zero_fill?: int & >=0
		start_at?:  int & >=0
		digits?:    int & >=0 & <=40
		ids?: [...string & !=""]
	}

	// dispatch picks where simulations run.
	dispatch?: {
		backend?: "local" | "slurm" | "ssh"
		procs?:   int & >=0
		slurm?: {
			job_name?:   string
			partition?:  string
			account?:    string
			time_limit?: string
			output?:     string
			extra_args?: [...string]
		}
		ssh?: {
			host?:         string
			port?:         int & >=0 & <=65535
			user?:         string
			auth_method?:  "password" | "key"
			password?:     string
			key_path?:     string
			known_hosts?:  string
			insecure?:     bool
			upload?:       bool
			max_sessions?: int & >=0
		}
	}

	sweep_id?:        string
	serial?:          bool
	wait?:            bool
	cleanup?:         bool
	error_if_exists?: bool
	save_mapping?:    bool
	verbose?:         bool
	delay?:           string & !=""
}
`
