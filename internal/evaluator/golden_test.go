package evaluator_test

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/rogpeppe/go-internal/txtar"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// goldenCase is one query/want pair recorded inside a fixture archive. A
// fixture may carry more than one case (e.g. a matching shape and a
// mismatched one) sharing the same rule declarations.
type goldenCase struct {
	query string
	want  string
}

// TestGoldenFixtures drives the pattern-binder and type-shape-expansion
// round trips named in spec.md §8 from recorded txtar archives: declare
// the fixture's rules once, then check every query/want pair it records
// against a fresh evaluation. One archive exercises one property end to
// end, the way cue-lang-cue's own CLI tests replay a txtar script against
// a fixed tool setup.
func TestGoldenFixtures(t *testing.T) {
	paths, err := filepath.Glob("testdata/*.txtar")
	require.NoError(t, err)
	require.NotEmpty(t, paths, "no golden fixtures under testdata/")

	for _, path := range paths {
		path := path
		t.Run(filepath.Base(path), func(t *testing.T) {
			archive, err := txtar.ParseFile(path)
			require.NoError(t, err)

			ev, scope := newEvaluator(t)
			cases := map[string]*goldenCase{}

			for _, f := range archive.Files {
				name := strings.TrimSpace(f.Name)
				data := strings.TrimSpace(string(f.Data))

				switch {
				case name == "rules":
					for _, line := range strings.Split(data, "\n") {
						line = strings.TrimSpace(line)
						if line == "" {
							continue
						}
						declare(t, scope, line)
					}
				case name == "query":
					caseFor(cases, "").query = data
				case name == "want":
					caseFor(cases, "").want = data
				case strings.HasSuffix(name, "-query"):
					caseFor(cases, strings.TrimSuffix(name, "-query")).query = data
				case strings.HasSuffix(name, "-want"):
					caseFor(cases, strings.TrimSuffix(name, "-want")).want = data
				default:
					t.Fatalf("unrecognized txtar section %q", f.Name)
				}
			}

			require.NotEmpty(t, cases, "%s: no query/want section found", path)
			for label, c := range cases {
				require.NotEmpty(t, c.query, "%s: %s missing its query", path, label)
				got := evalString(t, ev, scope, c.query)
				assert.Equal(t, c.want, got, "%s: case %q", path, label)
			}
		})
	}
}

func caseFor(cases map[string]*goldenCase, label string) *goldenCase {
	c, ok := cases[label]
	if !ok {
		c = &goldenCase{}
		cases[label] = c
	}
	return c
}
