package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"library-admin/internal/logging"
	"library-admin/library"

	"github.com/spf13/cobra"
)

const defaultTimeout = 15 * time.Second

// config is resolved from env first and then overridden by flags.
type config struct {
	apiURL    string
	sandbox   string
	logLevel  string
	logFormat string
	timeout   time.Duration
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return d
}

// app carries what every command needs once flags are parsed.
type app struct {
	cfg    config
	in     io.Reader
	out    io.Writer
	sc     *bufio.Scanner
	logger logging.Logger
	mgr    *library.LibraryManager
}

// notify prints controller notices the way the dashboard showed toasts.
func (a *app) notify(n library.Notice) {
	if n.Level == library.NoticeError {
		fmt.Fprintf(a.out, "Error: %s\n", n.Message)
		return
	}
	fmt.Fprintln(a.out, n.Message)
}

func (a *app) open() error {
	if err := logging.ParseLevel(a.cfg.logLevel); err != nil {
		return err
	}
	provider, err := logging.NewProvider(logging.Config{Level: a.cfg.logLevel, Format: a.cfg.logFormat})
	if err != nil {
		return err
	}
	a.logger = provider.GetLogger("library-admin")

	opts := library.Options{Notifier: library.NotifierFunc(a.notify), Logger: a.logger}
	if a.cfg.sandbox != "" {
		a.logger.Debug("using sandbox backend", "path", a.cfg.sandbox)
		a.mgr, err = library.NewSandboxManager(a.cfg.sandbox, opts)
	} else {
		a.logger.Debug("using REST backend", "url", a.cfg.apiURL, "timeout", a.cfg.timeout.String())
		a.mgr, err = library.NewRESTManager(a.cfg.apiURL, a.cfg.timeout, opts)
	}
	if err != nil {
		return fmt.Errorf("open backend: %w", err)
	}
	return nil
}

func (a *app) close() error {
	if a.mgr == nil {
		return nil
	}
	return a.mgr.Close()
}

func newRootCmd(in io.Reader, out io.Writer) (*cobra.Command, *app) {
	a := &app{in: in, out: out, logger: logging.NoOp()}

	root := &cobra.Command{
		Use:           "library-admin",
		Short:         "Manage the authors, books and users of a library",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.open()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShell(cmd.Context(), a)
		},
	}
	root.SetIn(in)
	root.SetOut(out)

	flags := root.PersistentFlags()
	flags.StringVar(&a.cfg.apiURL, "api", getEnv("LIBRARY_API_URL", library.DefaultBaseURL), "base URL of the library REST API")
	flags.StringVar(&a.cfg.sandbox, "sandbox", getEnv("LIBRARY_SANDBOX", ""), "use a local SQLite sandbox at this path instead of the API")
	flags.StringVar(&a.cfg.logLevel, "log-level", getEnv("LIBRARY_LOG_LEVEL", "warn"), "log level (trace, debug, info, warn, error, fatal)")
	flags.StringVar(&a.cfg.logFormat, "log-format", getEnv("LIBRARY_LOG_FORMAT", "console"), "log format (console, json, pretty)")
	flags.DurationVar(&a.cfg.timeout, "timeout", getEnvDuration("LIBRARY_TIMEOUT", defaultTimeout), "request timeout for API calls")

	root.AddCommand(
		&cobra.Command{
			Use:   "shell",
			Short: "Start the interactive console",
			RunE: func(cmd *cobra.Command, args []string) error {
				return runShell(cmd.Context(), a)
			},
		},
		newResourceCmd(a, authorsResource),
		newResourceCmd(a, booksResource),
		newResourceCmd(a, usersResource),
		newGenresCmd(a),
	)
	return root, a
}

// execute runs the command line in args and closes the backend afterwards,
// whether or not the command failed.
func execute(ctx context.Context, in io.Reader, out io.Writer, args []string) error {
	root, a := newRootCmd(in, out)
	root.SetArgs(args)
	defer a.close()
	return root.ExecuteContext(ctx)
}

func main() {
	if err := execute(context.Background(), os.Stdin, os.Stdout, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", strings.TrimSpace(err.Error()))
		os.Exit(1)
	}
}
