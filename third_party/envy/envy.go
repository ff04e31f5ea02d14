// Package envy exposes environment variables for the flags of a FlagSet.
//
// Each flag NAME may be set from the variable PREFIX_NAME, upper cased and
// with dashes replaced by underscores. Flags given on the command line win.
package envy

import (
	"flag"
	"fmt"
	"os"
	"strings"
)

// Parse applies environment variables with prefix p to flag.CommandLine and
// then parses the command line. It exits on error like flag.Parse.
func Parse(p string) {
	if err := ParseFlagSet(p, flag.CommandLine, os.Args[1:]); err != nil {
		fmt.Fprintln(flag.CommandLine.Output(), err)
		os.Exit(2)
	}
}

// ParseFlagSet parses args into fs, then fills every flag that was not
// given in args from its PREFIX_NAME environment variable. Usage strings
// are annotated with the variable name.
func ParseFlagSet(p string, fs *flag.FlagSet, args []string) error {
	annotate(p, fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	return update(p, fs)
}

// VarName returns the environment variable consulted for flag name.
func VarName(p, name string) string {
	return strings.ReplaceAll(p+"_"+strings.ToUpper(name), "-", "_")
}

func annotate(p string, fs *flag.FlagSet) {
	fs.VisitAll(func(f *flag.Flag) {
		f.Usage = fmt.Sprintf("%s [%s]", f.Usage, VarName(p, f.Name))
	})
}

func update(p string, fs *flag.FlagSet) error {
	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })

	var err error
	fs.VisitAll(func(f *flag.Flag) {
		if err != nil || set[f.Name] {
			return
		}
		name := VarName(p, f.Name)
		if val, ok := os.LookupEnv(name); ok && val != "" {
			if e := fs.Set(f.Name, val); e != nil {
				err = fmt.Errorf("envy: %s=%q: %w", name, val, e)
			}
		}
	})
	return err
}
