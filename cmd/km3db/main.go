package main

import (
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/km3net/km3db-go/internal/config"
	"github.com/km3net/km3db-go/pkg/clbmap"
	"github.com/km3net/km3db-go/pkg/km3db"
	"github.com/km3net/km3db-go/pkg/streamds"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type rootFlags struct {
	cfgPath string
	baseURL string
	verbose bool
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	root := &cobra.Command{
		Use:           "km3db",
		Short:         "KM3NeT database client",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&flags.cfgPath, "config", "", "config file path")
	root.PersistentFlags().StringVar(&flags.baseURL, "url", "", "database base URL")
	root.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "enable debug output")

	root.AddCommand(newStreamsCmd(flags))
	root.AddCommand(newGetCmd(flags))
	root.AddCommand(newCookieCmd(flags))
	root.AddCommand(newCLBMapCmd(flags))

	return root
}

// newClient wires config file, env and flags into a database client and
// installs the logger for the process.
func newClient(flags *rootFlags) (*km3db.Client, *slog.Logger, error) {
	cfg, err := config.Load(flags.cfgPath)
	if err != nil {
		return nil, nil, err
	}

	level := cfg.LogLevel()
	if flags.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	opts := []km3db.Option{km3db.WithLogger(logger)}
	if flags.baseURL != "" {
		opts = append(opts, km3db.WithURL(flags.baseURL))
	}

	db, err := km3db.NewFromEnv(opts...)
	if err != nil {
		return nil, nil, err
	}
	return db, logger, nil
}

func newCatalog(cmd *cobra.Command, flags *rootFlags) (*streamds.Client, *slog.Logger, error) {
	db, logger, err := newClient(flags)
	if err != nil {
		return nil, nil, err
	}
	sds, err := streamds.New(cmd.Context(), db, streamds.WithLogger(logger))
	if err != nil {
		return nil, nil, err
	}
	return sds, logger, nil
}

func newStreamsCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "streams",
		Short: "List the available streams and their selectors",
		RunE: func(cmd *cobra.Command, args []string) error {
			sds, _, err := newCatalog(cmd, flags)
			if err != nil {
				return err
			}
			sds.Describe(cmd.OutOrStdout())
			return nil
		},
	}
}

func newGetCmd(flags *rootFlags) *cobra.Command {
	var selectors []string
	var format string

	cmd := &cobra.Command{
		Use:   "get <stream>",
		Short: "Retrieve a stream as raw text",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sds, _, err := newCatalog(cmd, flags)
			if err != nil {
				return err
			}

			op, err := sds.Stream(args[0])
			if err != nil {
				return err
			}

			sel := make([]streamds.Selector, 0, len(selectors))
			for _, s := range selectors {
				name, value, ok := strings.Cut(s, "=")
				if !ok {
					return fmt.Errorf("invalid selector %q, expected key=value", s)
				}
				sel = append(sel, streamds.Sel(name, value))
			}

			data := sds.GetFormat(cmd.Context(), op.Descriptor().Name, format, sel...)
			if data == "" {
				return fmt.Errorf("no data for stream %q", args[0])
			}
			fmt.Fprint(cmd.OutOrStdout(), data)
			return nil
		},
	}

	cmd.Flags().StringArrayVarP(&selectors, "selector", "s", nil, "selector key=value (repeatable)")
	cmd.Flags().StringVar(&format, "format", "txt", "retrieval format")
	return cmd
}

func newCookieCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "cookie",
		Short: "Resolve and print the session cookie",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, _, err := newClient(flags)
			if err != nil {
				return err
			}
			cookie, err := db.SessionCookie(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), cookie)
			return nil
		},
	}
}

func newCLBMapCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "clbmap <detoid>",
		Short: "Dump the CLB map of a detector",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sds, logger, err := newCatalog(cmd, flags)
			if err != nil {
				return err
			}

			m, err := clbmap.NewMap(cmd.Context(), sds, args[0], clbmap.WithLogger(logger))
			if err != nil {
				return err
			}

			clbs := append([]clbmap.CLB(nil), m.All()...)
			sort.Slice(clbs, func(i, j int) bool {
				if clbs[i].DU != clbs[j].DU {
					return clbs[i].DU < clbs[j].DU
				}
				return clbs[i].Floor < clbs[j].Floor
			})

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "DU\tFLOOR\tUPI\tDOMID\tSERIAL")
			for _, clb := range clbs {
				fmt.Fprintf(w, "%d\t%d\t%s\t%d\t%d\n",
					clb.DU, clb.Floor, clb.UPI, clb.DOMID, clb.SerialNumber)
			}
			return w.Flush()
		},
	}
}
