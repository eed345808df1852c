// Package config holds the CLI-tunable knobs that drive an analysis run,
// mirroring main.py's docopt option schema (spec §6).
package config

// OutputFormat selects how pkg/report renders the findings for a run.
type OutputFormat string

const (
	FormatText  OutputFormat = "text"
	FormatJSON  OutputFormat = "json"
	FormatSARIF OutputFormat = "sarif"
)

// Config collects every run-wide option taintalyzer accepts, populated
// from cobra flags in cmd/taintalyzer.
type Config struct {
	// Path is the file or directory to analyze.
	Path string

	// Indirection caps how many sanitizer levels of indirection still
	// count as a full mitigation before severity degrades to "as if
	// unsanitized" (main.py's --indirection, default 5).
	Indirection int

	// Complexity is the cyclomatic-complexity threshold at or above which
	// a method is reported even without a taint (main.py's --complexity,
	// default 10).
	Complexity int

	// Fallback names the module to assume when filetype detection is
	// inconclusive; empty disables the fallback.
	Fallback string

	// Lazy, when true, treats each method as a single path, skipping
	// mutually-exclusive path enumeration (main.py's --lazy).
	Lazy bool

	// Output is the destination file path for the report; empty means
	// stdout.
	Output string

	// Format selects the report's rendering (main.py only offered
	// extension-sniffed plaintext/markdown/html; this repo's
	// --output-format flag instead takes an explicit Format value).
	Format OutputFormat

	// Exclude holds regular expressions; a discovered file matching any
	// of them is skipped (main.py's --exclude, repeatable).
	Exclude []string

	// ModulesRoot is the directory containing per-language rule/grammar
	// assets (modules/<name>/{sources,sinks}, modules/detection.txt).
	ModulesRoot string

	// Silent suppresses everything below error level.
	Silent bool

	// Verbose enables debug-level logging.
	Verbose bool

	// CacheDir, when non-empty, enables pkg/analysiscache persistence
	// under this directory (supplemented feature, see DESIGN.md).
	CacheDir string
}

// DefaultIndirection and DefaultComplexity mirror main.py's docopt
// [default: N] annotations.
const (
	DefaultIndirection = 5
	DefaultComplexity  = 10
)

// New returns a Config with the same defaults main.py's docopt usage
// string declares.
func New() Config {
	return Config{
		Indirection: DefaultIndirection,
		Complexity:  DefaultComplexity,
		ModulesRoot: "modules",
		Format:      FormatText,
	}
}
