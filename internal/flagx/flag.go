// Package flagx holds small helpers for components that each parse only their
// own subset of the process command line.
package flagx

import (
	"flag"
	"io"
	"strings"
)

// FilterArgs returns the arguments from args that belong to allowedFlags,
// together with their values.
//
// Both "-f value" and "-f=value" forms are recognized. A token that starts
// with "-" is never taken as a value, so "-c -x" keeps only "-c".
func FilterArgs(args []string, allowedFlags []string) []string {
	allowed := make(map[string]struct{}, len(allowedFlags))
	for _, f := range allowedFlags {
		allowed[f] = struct{}{}
	}

	filtered := make([]string, 0, len(args))

	for i := 0; i < len(args); i++ {
		arg := args[i]

		if strings.HasPrefix(arg, "-") && strings.Contains(arg, "=") {
			name, _, _ := strings.Cut(arg, "=")
			if _, ok := allowed[name]; ok {
				filtered = append(filtered, arg)
			}
			continue
		}

		if _, ok := allowed[arg]; !ok {
			continue
		}
		filtered = append(filtered, arg)
		if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
			filtered = append(filtered, args[i+1])
			i++
		}
	}

	return filtered
}

// stringFlag parses a single string flag known under several names from args.
// The last occurrence wins; parse errors are ignored and yield "".
func stringFlag(args []string, names ...string) string {
	var value string

	fs := flag.NewFlagSet(names[0], flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	for _, n := range names {
		fs.StringVar(&value, n, "", "")
	}

	allowed := make([]string, 0, len(names)*2)
	for _, n := range names {
		allowed = append(allowed, "-"+n, "--"+n)
	}
	_ = fs.Parse(FilterArgs(args, allowed))

	return value
}

// ConfigFileFlag extracts the JSON config path given with -c or -config.
// An empty string means no file was requested.
func ConfigFileFlag(args []string) string {
	return stringFlag(args, "config", "c")
}

// EnvFileFlag extracts the dotenv path given with -env. An empty string means
// the default ".env" lookup applies.
func EnvFileFlag(args []string) string {
	return stringFlag(args, "env")
}
