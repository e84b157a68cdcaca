package main

import (
	"fmt"

	"github.com/mna/mainer"

	"github.com/mna/glox/internal/config"
	"github.com/mna/glox/internal/driver"
)

const binName = "glox"

var shortUsage = fmt.Sprintf(`usage: %s [<option>...] [script]
Run '%[1]s --help' for details.
`, binName)

var longUsage = fmt.Sprintf(`usage: %s [<option>...] [script]
       %[1]s -h|--help
       %[1]s -v|--version

Bytecode interpreter for the Lox scripting language.

With no script, runs an interactive REPL on standard input; an empty
line exits. With exactly one script argument, reads and interprets
that file.

Valid flag options are:
       -h --help                 Show this help and exit.
       -v --version              Print version and exit.
       --config <path>           Load resource-limit and REPL overrides
                                 from the given YAML file.
`, binName)

// Cmd holds the command-line flags and build metadata for the glox binary,
// parsed by a mainer.Parser before Main dispatches to the driver.
type Cmd struct {
	BuildVersion string
	BuildDate    string

	Help    bool   `flag:"h,help"`
	Version bool   `flag:"v,version"`
	Config  string `flag:"config"`

	args []string
}

func (c *Cmd) SetArgs(args []string)          { c.args = args }
func (c *Cmd) SetFlags(flags map[string]bool) {}

func (c *Cmd) Validate() error {
	if c.Help || c.Version {
		return nil
	}
	if len(c.args) > 1 {
		return fmt.Errorf("at most one script argument is allowed")
	}
	return nil
}

// Main parses args and runs the corresponding command, returning the
// process exit code.
func (c *Cmd) Main(args []string, stdio mainer.Stdio) mainer.ExitCode {
	p := mainer.Parser{
		EnvVars:   false,
		EnvPrefix: "GLOX_",
	}
	if err := p.Parse(args, c); err != nil {
		fmt.Fprintf(stdio.Stderr, "invalid arguments: %s\n%s", err, shortUsage)
		return mainer.ExitCode(driver.ExitUsage)
	}

	switch {
	case c.Help:
		fmt.Fprint(stdio.Stdout, longUsage)
		return mainer.Success
	case c.Version:
		fmt.Fprintf(stdio.Stdout, "%s %s %s\n", binName, c.BuildVersion, c.BuildDate)
		return mainer.Success
	}

	cfg, err := config.Load(c.Config)
	if err != nil {
		fmt.Fprintln(stdio.Stderr, err)
		return mainer.ExitCode(driver.ExitUsage)
	}

	code := driver.Run(stdio.Stdout, stdio.Stderr, stdio.Stdin, cfg, c.args)
	return mainer.ExitCode(code)
}
