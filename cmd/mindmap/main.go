package main

import (
	"os"
	"strings"

	"mindmap-cli/internal/address"
	"mindmap-cli/internal/cli"
)

// rewriteDirectAddressArgs makes `mindmap <address>` work like
// `mindmap nodes show <address>`.
//
// Cobra treats the first non-flag token as a subcommand, so argv is rewritten
// before parsing. Persistent flags may come first (`mindmap --dir x root-0`),
// so this looks for the first positional token, not argv[1].
func rewriteDirectAddressArgs(argv []string) []string {
	if len(argv) < 2 {
		return argv
	}

	valueFlags := map[string]bool{
		"--dir":       true,
		"--workspace": true,
		"--doc":       true,
		"--format":    true,
		"--log-level": true,
	}

	for i := 1; i < len(argv); i++ {
		a := strings.TrimSpace(argv[i])
		switch {
		case a == "":
			continue
		case a == "--":
			return argv
		case strings.HasPrefix(a, "-"):
			// Unknown and bool flags take no value; --flag=value is one token.
			if valueFlags[a] {
				i++
			}
			continue
		}

		if !address.Valid(a) {
			return argv
		}
		out := make([]string, 0, len(argv)+2)
		out = append(out, argv[:i]...)
		out = append(out, "nodes", "show")
		out = append(out, argv[i:]...)
		return out
	}
	return argv
}

func main() {
	os.Args = rewriteDirectAddressArgs(os.Args)

	cmd := cli.NewRootCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
