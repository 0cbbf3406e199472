package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dgallion1/grimoire/internal/batch"
	"github.com/dgallion1/grimoire/internal/config"
	"github.com/dgallion1/grimoire/internal/doctree"
	"github.com/dgallion1/grimoire/internal/parser"
	"github.com/dgallion1/grimoire/internal/spell"
)

func newParseCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "parse FILE",
		Short: "Extract the spell record from a single document",
		Long: `Parse reads one document, builds its document tree and extracts a spell
record from it. The record is written to stdout. A document that does not
follow the spell layout is an error.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load(v)
			dump, _ := cmd.Flags().GetBool("dump")
			format, _ := cmd.Flags().GetString("format")
			if tables, _ := cmd.Flags().GetBool("tables"); tables {
				cfg.EmitTables = true
			}
			log := newLogger(cmd.ErrOrStderr(), cfg.LogLevel)

			path := args[0]
			ps, err := parser.ForFile(path)
			if err != nil {
				return err
			}
			f, err := os.Open(path)
			if err != nil {
				return err
			}
			defer f.Close()

			doc, err := ps.Parse(f, path)
			if err != nil {
				return err
			}
			if dump {
				if err := doctree.Format(cmd.ErrOrStderr(), doc); err != nil {
					return err
				}
			}

			opts := []spell.Option{spell.WithLogger(log)}
			if cfg.EmitTables {
				opts = append(opts, spell.WithTables())
			}
			sp, err := spell.Parse(doc, opts...)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			return batch.WriteSpell(cmd.OutOrStdout(), sp, format)
		},
	}

	cmd.Flags().Bool("dump", false, "write the document tree to stderr before extracting")
	cmd.Flags().String("format", "json", "output format: json or yaml")
	cmd.Flags().Bool("tables", false, "include body tables in the content")

	return cmd
}
