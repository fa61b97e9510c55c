package main

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dshills/eslintrc"
)

var printConfigCmd = &cobra.Command{
	Use:   "print-config <file>",
	Short: "Print the effective configuration for a file",
	Long: `Print the configuration that applies to one file.

The directory cascade is walked upward from the file, loading the
conventional config source at each level, until a config marks the project
root or the filesystem root is reached. Nearer configs take precedence.
With --config, the named config file is resolved instead of walking.`,
	Args: cobra.ExactArgs(1),
	RunE: runPrintConfig,
}

func init() {
	rootCmd.AddCommand(printConfigCmd)
}

func runPrintConfig(cmd *cobra.Command, args []string) error {
	target, err := filepath.Abs(args[0])
	if err != nil {
		return err
	}

	factory, err := eslintrc.New(eslintrc.WithLogger(zap.S()))
	if err != nil {
		return err
	}

	seq, err := resolveTarget(factory, target)
	if err != nil {
		return err
	}
	return printResult(cmd, seq, target)
}

// resolveTarget resolves the sequence governing target, either from the
// explicit --config file or from the directory cascade.
func resolveTarget(factory *eslintrc.Factory, target string) (*eslintrc.Sequence, error) {
	if cfgPath != "" {
		return factory.LoadFile(cfgPath, nil)
	}
	return resolveCascade(factory, target)
}

// resolveCascade loads the conventional config at each directory level from
// the target upward, stopping below a root config, and concatenates the
// levels so nearer configs win.
func resolveCascade(factory *eslintrc.Factory, target string) (*eslintrc.Sequence, error) {
	var levels []*eslintrc.Sequence

	dir := filepath.Dir(target)
	for {
		seq, err := factory.LoadInDirectory(dir, nil)
		if err != nil {
			return nil, err
		}
		if seq.Len() > 0 {
			levels = append(levels, seq)
			if seq.IsRoot() {
				break
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	var result *eslintrc.Sequence
	for i := len(levels) - 1; i >= 0; i-- {
		var err error
		result, err = eslintrc.Concat(result, levels[i])
		if err != nil {
			return nil, err
		}
	}
	if result == nil {
		result = eslintrc.NewSequence()
	}
	return result, nil
}

// printResult writes the resolution outcome as indented JSON: the fragment
// sequence with --fragments, the extracted config otherwise.
func printResult(cmd *cobra.Command, seq *eslintrc.Sequence, target string) error {
	var payload any
	if fragmentsOnly {
		payload = seq.Fragments()
	} else {
		cfg, err := seq.Extract(target)
		if err != nil {
			return err
		}
		payload = cfg
	}

	out, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}
