package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"

	"github.com/kndndrj/statpipe/core"
	"github.com/kndndrj/statpipe/core/format"
)

type runOptions struct {
	format   string
	domainID string
	metrics  bool
}

func newRunCmd(configPath *string) *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run definition.json...",
		Short: "Run pipeline definitions and print their results",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDefinitions(cmd, *configPath, opts, args)
		},
	}
	cmd.Flags().StringVarP(&opts.format, "format", "f", "table", "output format (table|json|csv)")
	cmd.Flags().StringVar(&opts.domainID, "domain-id", "", "domain id overriding the one in the definitions")
	cmd.Flags().BoolVar(&opts.metrics, "metrics", false, "print collected metrics to stderr when done")

	return cmd
}

func newFormatter(name string) (core.Formatter, error) {
	switch name {
	case "table":
		return format.NewTable(), nil
	case "json":
		return format.NewIndentedJSON(), nil
	case "csv":
		return format.NewCSV(), nil
	default:
		return nil, fmt.Errorf("unknown output format: %q", name)
	}
}

func runDefinitions(cmd *cobra.Command, configPath string, opts *runOptions, paths []string) error {
	formatter, err := newFormatter(opts.format)
	if err != nil {
		return err
	}

	cfg, logger, err := loadConfig(configPath, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	var reg *prometheus.Registry
	if opts.metrics {
		reg = prometheus.NewRegistry()
	}

	// a nil *Registry must not end up in a non-nil interface
	var registerer prometheus.Registerer
	if reg != nil {
		registerer = reg
	}
	h, err := newHandler(cfg, logger, registerer)
	if err != nil {
		return err
	}
	defer h.Close()

	reqs := make([]*core.AggregateRequest, 0, len(paths))
	for _, path := range paths {
		def, err := readDefinition(path)
		if err != nil {
			return err
		}
		req := core.RequestFromDefinition(def)
		if opts.domainID != "" {
			req.DomainID = opts.domainID
		}
		reqs = append(reqs, req)
	}

	var errs []error
	out := cmd.OutOrStdout()
	for i, res := range h.AggregateBatch(cmd.Context(), reqs) {
		if len(paths) > 1 {
			fmt.Fprintf(out, "# %s\n", paths[i])
		}
		if res.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", paths[i], res.Err))
			fmt.Fprintf(cmd.ErrOrStderr(), "%s: %s\n", paths[i], res.Err)
			continue
		}

		b, err := res.Result.Format(formatter)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, string(b))
	}

	if reg != nil {
		if err := writeMetrics(cmd.ErrOrStderr(), reg); err != nil {
			return err
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%d of %d pipelines failed: %w", len(errs), len(paths), errors.Join(errs...))
	}
	return nil
}

func writeMetrics(w io.Writer, reg *prometheus.Registry) error {
	families, err := reg.Gather()
	if err != nil {
		return fmt.Errorf("reg.Gather: %w", err)
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("expfmt.MetricFamilyToText: %w", err)
		}
	}
	return nil
}
