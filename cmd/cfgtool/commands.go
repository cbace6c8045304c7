package main

import (
	"fmt"

	"github.com/kjk/configfile/configfile"
	"github.com/kjk/configfile/encfile"
	"github.com/kjk/configfile/log"
	"github.com/kjk/configfile/variant"
	"github.com/pmezard/go-difflib/difflib"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newRootCmd(app *App) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "cfgtool",
		Short: "Inspect and edit config files",
		Long: `cfgtool reads and writes config files made of [sections] with
key=value lines. Values are literals: null, true, false, numbers,
"strings", [arrays] and {dictionaries}.

Files ending in .gz, .zst or .br are compressed. With --password or
--key-file files are encrypted. The password is read from
` + passwordEnv + ` or prompted for.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			log.Verbose = app.Verbose
			if app.LogDir != "" {
				log.Init(&log.Config{Dir: app.LogDir})
			}
		},
	}
	rootCmd.PersistentFlags().BoolVar(&app.UsePassword, "password", false, "Files are encrypted with a password")
	rootCmd.PersistentFlags().StringVar(&app.KeyFile, "key-file", "", "Files are encrypted with a 32 byte key read from this file")
	rootCmd.PersistentFlags().BoolVarP(&app.Verbose, "verbose", "v", false, "Log file operations")
	rootCmd.PersistentFlags().StringVar(&app.LogDir, "log-dir", "", "Also write logs to daily files in log/ and errors/ under this directory")

	rootCmd.AddCommand(newSectionsCmd(app))
	rootCmd.AddCommand(newKeysCmd(app))
	rootCmd.AddCommand(newGetCmd(app))
	rootCmd.AddCommand(newSetCmd(app))
	rootCmd.AddCommand(newEraseCmd(app))
	rootCmd.AddCommand(newDumpCmd(app))
	rootCmd.AddCommand(newDiffCmd(app))
	rootCmd.AddCommand(newEncryptCmd(app))
	rootCmd.AddCommand(newDecryptCmd(app))
	rootCmd.AddCommand(newGenKeyCmd(app))
	return rootCmd
}

func newSectionsCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "sections <file>",
		Short: "List sections",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := app.load(args[0])
			if err != nil {
				return err
			}
			for _, s := range c.Sections() {
				fmt.Fprintln(app.Out, s)
			}
			return nil
		},
	}
}

func newKeysCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "keys <file> <section>",
		Short: "List keys of a section",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := app.load(args[0])
			if err != nil {
				return err
			}
			keys, err := c.SectionKeys(args[1])
			if err != nil {
				return err
			}
			for _, k := range keys {
				fmt.Fprintln(app.Out, k)
			}
			return nil
		},
	}
}

func newGetCmd(app *App) *cobra.Command {
	var def string
	cmd := &cobra.Command{
		Use:   "get <file> <section> <key>",
		Short: "Print a value as a literal",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			var defVal variant.Value
			if def != "" {
				v, err := variant.ParseValue(def)
				if err != nil {
					return fmt.Errorf("invalid --default: %w", err)
				}
				defVal = v
			}
			c, err := app.load(args[0])
			if err != nil {
				return err
			}
			v, err := c.GetValue(args[1], args[2], defVal)
			if err != nil {
				return err
			}
			fmt.Fprintln(app.Out, variant.Write(v))
			return nil
		},
	}
	cmd.Flags().StringVar(&def, "default", "", "Literal printed when the key doesn't exist")
	return cmd
}

// parseJSONValue converts a JSON value. Numbers without fraction or
// exponent become integers. Object keys are sorted.
func parseJSONValue(s string) (variant.Value, error) {
	var v any
	// yaml.v3 keeps integers as int where encoding/json gives float64
	if err := yaml.Unmarshal([]byte(s), &v); err != nil {
		return variant.Value{}, err
	}
	return variant.FromGo(v)
}

func newSetCmd(app *App) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "set <file> <section> <key> <literal>",
		Short: "Set a value, null deletes the key",
		Long: `Set a value. The file is created if it doesn't exist.

Examples:
  cfgtool set settings.cfg display width 1920
  cfgtool set settings.cfg player name '"Ann"'
  cfgtool set settings.cfg display width null   # delete
  cfgtool set --json settings.cfg player stats '{"hp": 10, "tags": ["a"]}'`,
		Args: cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			parse := variant.ParseValue
			if asJSON {
				parse = parseJSONValue
			}
			v, err := parse(args[3])
			if err != nil {
				return fmt.Errorf("invalid value: %w", err)
			}
			c, err := app.loadOrNew(args[0])
			if err != nil {
				return err
			}
			c.SetValue(args[1], args[2], v)
			return app.save(c, args[0])
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Value is JSON instead of a literal")
	return cmd
}

func newEraseCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "erase <file> <section> [key]",
		Short: "Erase a section or a single key",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := app.load(args[0])
			if err != nil {
				return err
			}
			if len(args) == 2 {
				c.EraseSection(args[1])
			} else if err := c.EraseSectionKey(args[1], args[2]); err != nil {
				return err
			}
			return app.save(c, args[0])
		},
	}
}

func marshalAs(c *configfile.ConfigFile, format string) ([]byte, error) {
	switch format {
	case "text":
		return c.Marshal(), nil
	case "json":
		return c.ToJSON(true)
	case "yaml":
		return c.ToYAML()
	case "toon":
		return c.ToTOON()
	}
	return nil, fmt.Errorf("unknown format '%s', must be text, json, yaml or toon", format)
}

func newDumpCmd(app *App) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "dump <file>",
		Short: "Print the whole file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := app.load(args[0])
			if err != nil {
				return err
			}
			d, err := marshalAs(c, format)
			if err != nil {
				return err
			}
			_, err = app.Out.Write(d)
			return err
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "text", "Output format: text, json, yaml or toon")
	return cmd
}

func newDiffCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "diff <file1> <file2>",
		Short: "Show differences between two files",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c1, err := app.load(args[0])
			if err != nil {
				return err
			}
			c2, err := app.load(args[1])
			if err != nil {
				return err
			}
			if c1.Equal(c2) {
				return nil
			}
			diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
				A:        difflib.SplitLines(string(c1.Marshal())),
				B:        difflib.SplitLines(string(c2.Marshal())),
				FromFile: args[0],
				ToFile:   args[1],
				Context:  2,
			})
			if err != nil {
				return err
			}
			fmt.Fprint(app.Out, diff)
			return nil
		},
	}
}

func newEncryptCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "encrypt <in> <out>",
		Short: "Encrypt a plain file with --password or --key-file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.requireEncryption(); err != nil {
				return err
			}
			c, err := app.loadPlain(args[0])
			if err != nil {
				return err
			}
			return app.saveEncrypted(c, args[1])
		},
	}
}

func newDecryptCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "decrypt <in> <out>",
		Short: "Decrypt a file encrypted with --password or --key-file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.requireEncryption(); err != nil {
				return err
			}
			c, err := app.loadEncrypted(args[0])
			if err != nil {
				return err
			}
			return app.savePlain(c, args[1])
		},
	}
}

func newGenKeyCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "genkey <keyfile>",
		Short: "Write a new random key, hex encoded, for use with --key-file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := encfile.GenerateKey()
			if err != nil {
				return err
			}
			return writeKeyFile(args[0], key)
		},
	}
}
