// Command ricochet detects second-order (stored, delayed) web
// vulnerabilities by injecting out-of-band callback payloads and
// correlating later HTTP/DNS callbacks back to the point of injection.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/invaen/ricochet/internal/logging"
)

// usageError marks an error that should exit 2 (bad flag/argument) per
// §7, rather than the default 1 (runtime error).
type usageError struct{ err error }

func (u *usageError) Error() string { return u.err.Error() }
func (u *usageError) Unwrap() error { return u.err }

func usageErrorf(format string, args ...any) error {
	return &usageError{err: fmt.Errorf(format, args...)}
}

var (
	logger  *zap.Logger
	verbose bool
	dbPath  string
)

var rootCmd = &cobra.Command{
	Use:   "ricochet",
	Short: "Second-order (stored XSS/SQLi/SSTI) out-of-band detection tool",
	Long: `ricochet injects out-of-band callback payloads into HTTP requests and
correlates later HTTP/DNS callbacks back to the point of injection, to
detect second-order (stored, delayed-execution) vulnerabilities that
a synchronous scanner would miss.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := "info"
		if verbose {
			level = "debug"
		}
		var err error
		logger, err = logging.New(logging.Config{Level: level, Format: "console"})
		if err != nil {
			return fmt.Errorf("initializing logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			logging.Sync(logger)
		}
	},
}

func init() {
	home, _ := os.UserHomeDir()
	defaultDB := filepath.Join(home, ".ricochet", "ricochet.db")

	rootCmd.PersistentFlags().StringVar(&dbPath, "db", defaultDB, "path to the ricochet store")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// openStorePath ensures dbPath's parent directory exists, per §6
// "parent directory is created if missing".
func openStorePath() error {
	dir := filepath.Dir(dbPath)
	if dir == "" || dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create store directory: %w", err)
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		var ue *usageError
		if asUsageError(err, &ue) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func asUsageError(err error, target **usageError) bool {
	for err != nil {
		if ue, ok := err.(*usageError); ok {
			*target = ue
			return true
		}
		unwrapper, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = unwrapper.Unwrap()
	}
	return false
}
