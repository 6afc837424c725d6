// Package flagx lets the global config layer pick its own flags out of
// os.Args without colliding with the dozen verb-specific flags vaultctl's
// subcommands register (-t, -o, --include, --on-conflict, ...): the config
// layer scans the full argv, verb flags included, so it must ignore
// anything it doesn't recognize rather than erroring on it.
package flagx

import (
	"flag"
	"os"
	"strings"
)

// FilterArgs returns the subsequence of args that belongs to the allowed
// flags, split into value-taking flags (whose following argument, if any,
// is kept alongside them) and boolean flags (whose following argument is
// never consumed, since global boolean flags like "-v" sit in front of a
// verb name, not a value: "vaultctl -v ls /docs" must not swallow "ls").
//
// Supported formats:
//  1. Flag and value as separate arguments:  -s /tmp/state
//  2. Flag and value combined with '=':      -cache-ttl=300
//  3. A bare boolean flag:                   -v
//
// Parameters:
//
//	args        — the command-line arguments (usually os.Args[1:])
//	valueFlags  — allowed flags that take a following value (e.g. "-s")
//	boolFlags   — allowed flags that never take a following value (e.g. "-v")
func FilterArgs(args []string, valueFlags, boolFlags []string) []string {
	values := make(map[string]struct{}, len(valueFlags))
	for _, f := range valueFlags {
		values[f] = struct{}{}
	}
	bools := make(map[string]struct{}, len(boolFlags))
	for _, f := range boolFlags {
		bools[f] = struct{}{}
	}

	// Initialize the result slice as empty (not nil) so it's always safe to use
	filtered := make([]string, 0, len(args))

	for i := 0; i < len(args); i++ {
		arg := args[i]

		// Case 1: flag in the form "--flag=value" or "-f=value"
		if strings.HasPrefix(arg, "-") && strings.Contains(arg, "=") {
			name := strings.SplitN(arg, "=", 2)[0]
			if _, ok := values[name]; ok {
				filtered = append(filtered, arg)
			}
			continue
		}

		if _, ok := bools[arg]; ok {
			filtered = append(filtered, arg)
			continue
		}

		// Flag as a separate argument; the next argument, if not itself a
		// flag, is this flag's value.
		if _, ok := values[arg]; ok {
			filtered = append(filtered, arg)
			if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
				filtered = append(filtered, args[i+1])
				i++ // skip the value in the next loop iteration
			}
		}
	}

	return filtered
}

// JsonConfigFlags inspects command-line arguments and extracts the config
// file path provided via the -c or -config flags.
//
// Only these flags are parsed; other arguments are ignored. This allows the
// application to safely parse its own flags without interfering with flags
// defined by other packages.
//
// If neither -c nor -config is present, an empty string is returned.
func JsonConfigFlags() string {
	var config string

	args := FilterArgs(os.Args[1:], []string{"-c", "-config"}, nil)

	fs := flag.NewFlagSet("json", flag.ContinueOnError)
	fs.StringVar(&config, "config", "", "Path to config file")
	fs.StringVar(&config, "c", "", "Path to config file (short)")
	_ = fs.Parse(args)

	return config
}
