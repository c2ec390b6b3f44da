package base

import (
	"bytes"
	"flag"
	"fmt"
	"strings"
)

// FlagSet wraps flag.FlagSet to render flags in command help.
type FlagSet struct {
	*flag.FlagSet
}

func NewFlagSet(f *flag.FlagSet) *FlagSet {
	return &FlagSet{FlagSet: f}
}

// Help returns the flag section of a command's help text.
func (f *FlagSet) Help() string {
	var buf bytes.Buffer
	f.VisitAll(func(fl *flag.Flag) {
		if buf.Len() == 0 {
			buf.WriteString("\n\nOptions:\n")
		}
		def := ""
		if fl.DefValue != "" && fl.DefValue != "false" && fl.DefValue != "0" {
			def = fmt.Sprintf(" (default: %s)", fl.DefValue)
		}
		fmt.Fprintf(&buf, "\n  -%s\n      %s%s\n", fl.Name, strings.TrimSpace(fl.Usage), def)
	})
	return strings.TrimRight(buf.String(), "\n")
}
