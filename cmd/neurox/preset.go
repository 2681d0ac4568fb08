package main

import (
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/rebryk/neurox/settings"
)

// presetCmd groups the preset management subcommands.
var presetCmd = &cobra.Command{
	Use:   "preset",
	Short: "Manage job-submission presets",
	Long: `Manage named job-submission presets.

A preset stores a raw parameter string under a name, so a frequent
submission becomes:

  neurox submit --preset 'gpu dev box' -d 'experiment 42'`,
}

var presetListCmd = &cobra.Command{
	Use:   "list",
	Short: "List presets",
	RunE:  runPresetList,
}

var presetCreateCmd = &cobra.Command{
	Use:   "create <name> -- <raw params>",
	Short: "Create a preset",
	Long: `Create a preset from a raw parameter string.

Example:
  neurox preset create 'gpu dev box' -- pytorch:latest -c 4 -g 1 -m 16G --ssh`,
	Args: cobra.MinimumNArgs(2),
	RunE: runPresetCreate,
}

var presetRenameCmd = &cobra.Command{
	Use:   "rename <name> <new-name>",
	Short: "Rename a preset",
	Args:  cobra.ExactArgs(2),
	RunE:  runPresetRename,
}

var presetChangeCmd = &cobra.Command{
	Use:   "change <name> -- <raw params>",
	Short: "Replace a preset's parameters",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runPresetChange,
}

var presetRemoveCmd = &cobra.Command{
	Use:   "remove <name>",
	Short: "Remove a preset",
	Args:  cobra.ExactArgs(1),
	RunE:  runPresetRemove,
}

func init() {
	rootCmd.AddCommand(presetCmd)
	presetCmd.AddCommand(presetListCmd)
	presetCmd.AddCommand(presetCreateCmd)
	presetCmd.AddCommand(presetRenameCmd)
	presetCmd.AddCommand(presetChangeCmd)
	presetCmd.AddCommand(presetRemoveCmd)
}

// openPresetStore opens the settings store without requiring platform
// credentials; preset management is local.
func openPresetStore(cmd *cobra.Command) (*settings.Store, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	path, _ := cmd.Flags().GetString("settings")
	if path == "" && cfg != nil {
		path = cfg.SettingsPath
	}
	if path == "" {
		dir, err := configDir()
		if err != nil {
			return nil, err
		}
		path = filepath.Join(dir, "settings.json")
	}
	return settings.Open(path)
}

func runPresetList(cmd *cobra.Command, args []string) error {
	store, err := openPresetStore(cmd)
	if err != nil {
		return err
	}

	presets := store.Get().Presets
	if len(presets) == 0 {
		fmt.Println("No presets")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tPARAMS")
	for _, p := range presets {
		fmt.Fprintf(w, "%s\t%s\n", p.Name, p.JobParams)
	}
	return w.Flush()
}

func runPresetCreate(cmd *cobra.Command, args []string) error {
	store, err := openPresetStore(cmd)
	if err != nil {
		return err
	}

	name := args[0]
	if _, err := store.FindPreset(name); err == nil {
		return fmt.Errorf("preset %q already exists", name)
	}

	preset, err := store.CreatePreset(name, joinParams(args[1:]))
	if err != nil {
		return err
	}
	fmt.Printf("Created preset %q\n", preset.Name)
	return nil
}

func runPresetRename(cmd *cobra.Command, args []string) error {
	store, err := openPresetStore(cmd)
	if err != nil {
		return err
	}

	preset, err := store.FindPreset(args[0])
	if err != nil {
		return err
	}
	preset.Name = args[1]
	if err := store.UpsertPreset(preset); err != nil {
		return err
	}
	fmt.Printf("Renamed preset to %q\n", preset.Name)
	return nil
}

func runPresetChange(cmd *cobra.Command, args []string) error {
	store, err := openPresetStore(cmd)
	if err != nil {
		return err
	}

	preset, err := store.FindPreset(args[0])
	if err != nil {
		return err
	}
	preset.JobParams = joinParams(args[1:])
	if err := store.UpsertPreset(preset); err != nil {
		return err
	}
	fmt.Printf("Updated preset %q\n", preset.Name)
	return nil
}

func runPresetRemove(cmd *cobra.Command, args []string) error {
	store, err := openPresetStore(cmd)
	if err != nil {
		return err
	}

	preset, err := store.FindPreset(args[0])
	if err != nil {
		return err
	}
	if err := store.RemovePreset(preset.ID); err != nil {
		return err
	}
	fmt.Printf("Removed preset %q\n", preset.Name)
	return nil
}
