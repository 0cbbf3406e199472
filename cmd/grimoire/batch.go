package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dgallion1/grimoire/internal/batch"
	"github.com/dgallion1/grimoire/internal/config"
	"github.com/dgallion1/grimoire/internal/pipeline"
	"github.com/dgallion1/grimoire/internal/spell"
	"github.com/dgallion1/grimoire/internal/store"
)

func newBatchCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch ROOT",
		Short: "Extract every spell document under a directory tree",
		Long: `Batch walks ROOT in lexical order and extracts every supported document
under the spell directory, skipping directory index files. Documents that
do not follow the spell layout are left out of the output and counted in
the summary written to stderr.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load(v)
			out, _ := cmd.Flags().GetString("out")
			format, _ := cmd.Flags().GetString("format")
			dbPath, _ := cmd.Flags().GetString("db")
			if tables, _ := cmd.Flags().GetBool("tables"); tables {
				cfg.EmitTables = true
			}
			log := newLogger(cmd.ErrOrStderr(), cfg.LogLevel)

			opts := batch.Options{
				Dir:       cfg.SpellDir,
				IndexName: cfg.IndexName,
				Log:       log,
			}
			if cfg.EmitTables {
				opts.Spell = append(opts.Spell, spell.WithTables())
			}

			res, err := batch.Collect(cmd.Context(), args[0], opts)
			if err != nil {
				return err
			}

			var w io.Writer = cmd.OutOrStdout()
			if out != "" {
				f, err := os.Create(out)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}
			if err := batch.Write(w, res.Spells, format); err != nil {
				return err
			}

			if dbPath != "" {
				if err := storeAll(cmd.Context(), dbPath, res); err != nil {
					return err
				}
			}

			fmt.Fprintf(cmd.ErrOrStderr(), "extracted %d of %d candidates (%d skipped, %d files scanned)\n",
				len(res.Spells), res.Candidates, len(res.Skipped), res.Scanned)
			return nil
		},
	}

	cmd.Flags().String("out", "", "write the records to this file instead of stdout")
	cmd.Flags().String("format", "json", "output format: json or yaml")
	cmd.Flags().String("dir", "", "spell directory relative to ROOT (default from config)")
	cmd.Flags().String("index", "", "base name of directory index files to skip (default from config)")
	cmd.Flags().Bool("tables", false, "include body tables in the content")
	cmd.Flags().String("db", "", "also store every record in this SQLite database")
	_ = v.BindPFlag(config.KeySpellDir, cmd.Flags().Lookup("dir"))
	_ = v.BindPFlag(config.KeyIndexName, cmd.Flags().Lookup("index"))

	return cmd
}

// storeAll writes the extracted spells to the database at path, keyed by
// the hash of the file each one was read from.
func storeAll(ctx context.Context, path string, res batch.Result) error {
	st, err := store.Open(path)
	if err != nil {
		return err
	}
	defer st.Close()

	for i, sp := range res.Spells {
		data, err := os.ReadFile(res.Paths[i])
		if err != nil {
			return err
		}
		if err := st.Put(ctx, sp, pipeline.ContentHashHex(data)); err != nil {
			return fmt.Errorf("%s: %w", sp.ID, err)
		}
	}
	return nil
}
