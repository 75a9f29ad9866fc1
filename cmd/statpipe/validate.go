package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

func newValidateCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "validate definition.json...",
		Short: "Check pipeline definitions without calling any service",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig(*configPath, cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			h, err := newHandler(cfg, logger, nil)
			if err != nil {
				return err
			}
			defer h.Close()

			var errs []error
			for _, path := range args {
				def, err := readDefinition(path)
				if err == nil {
					err = h.Validate(def)
				}
				if err != nil {
					errs = append(errs, fmt.Errorf("%s: %w", path, err))
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: ok\n", path)
			}

			return errors.Join(errs...)
		},
	}
}
