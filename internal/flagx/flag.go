// Package flagx lets several independent flag sets share one command line.
// Each consumer filters the arguments down to the flags it owns before
// parsing, so unknown flags from other consumers never cause parse errors.
package flagx

import (
	"flag"
	"io"
	"strings"
)

// FilterArgs keeps only the arguments that belong to allowed flags.
//
// "-name=value" arguments are kept whole. A bare "-name" keeps the following
// argument as its value unless that argument itself starts with '-'.
// Order and repetitions are preserved; the result is never nil.
func FilterArgs(args []string, allowed []string) []string {
	owned := make(map[string]bool, len(allowed))
	for _, f := range allowed {
		owned[f] = true
	}

	out := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if name, _, hasValue := strings.Cut(arg, "="); hasValue && strings.HasPrefix(arg, "-") {
			if owned[name] {
				out = append(out, arg)
			}
			continue
		}
		if !owned[arg] {
			continue
		}
		out = append(out, arg)
		if next := i + 1; next < len(args) && !strings.HasPrefix(args[next], "-") {
			out = append(out, args[next])
			i = next
		}
	}
	return out
}

// ConfigPath returns the value of -c or -config in args, or "" when neither
// is present. The last occurrence wins.
func ConfigPath(args []string) string {
	var path string

	fs := flag.NewFlagSet("config", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&path, "config", "", "path to JSON config file")
	fs.StringVar(&path, "c", "", "path to JSON config file (short)")
	_ = fs.Parse(FilterArgs(args, []string{"-c", "-config", "--c", "--config"}))

	return path
}
