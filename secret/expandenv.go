package secret

import (
	"fmt"
	"os"
	"regexp"
	"slices"
	"strings"
)

var bracedVar = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// ExpandEnvStrict substitutes $VAR and ${VAR} from the process environment.
// A braced reference to an unset variable is an error listing every such
// name. A bare $VAR that is unset expands to "". "$$" yields a literal "$".
func ExpandEnvStrict(s string) (string, error) {
	if !strings.Contains(s, "$") {
		return s, nil
	}

	var missing []string
	for _, m := range bracedVar.FindAllStringSubmatchIndex(s, -1) {
		// ${VAR} preceded by an odd run of "$" is escaped.
		if dollarsBefore(s, m[0])%2 == 1 {
			continue
		}
		name := s[m[2]:m[3]]
		if _, ok := os.LookupEnv(name); !ok && !slices.Contains(missing, name) {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		slices.Sort(missing)
		return "", fmt.Errorf("%w: %s", ErrMissingEnv, strings.Join(missing, ", "))
	}

	return os.Expand(s, func(name string) string {
		if name == "$" {
			return "$"
		}
		return os.Getenv(name)
	}), nil
}

func dollarsBefore(s string, i int) int {
	n := 0
	for i > 0 && s[i-1] == '$' {
		n++
		i--
	}
	return n
}
