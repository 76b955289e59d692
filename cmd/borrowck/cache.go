package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"borrowck/internal/driver"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or clear the result cache",
}

var cacheDirCmd = &cobra.Command{
	Use:   "dir",
	Short: "Print the cache directory",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cache, err := openConfiguredCache()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), cache.Dir())
		return nil
	},
}

var cacheCleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove every cached result",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cache, err := openConfiguredCache()
		if err != nil {
			return err
		}
		if err := cache.DropAll(); err != nil {
			return err
		}
		if !quiet(cmd) {
			fmt.Fprintf(cmd.OutOrStdout(), "cleared %s\n", cache.Dir())
		}
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cacheDirCmd, cacheCleanCmd)
}

// openConfiguredCache opens the cache named by borrowck.toml, enabled or not.
func openConfiguredCache() (*driver.DiskCache, error) {
	m, err := manifest()
	if err != nil {
		return nil, err
	}
	dir := m.Config.Cache.Dir
	if dir != "" && m.Root != "" {
		dir = resolveFrom(m.Root, dir)
	}
	return driver.OpenDiskCache("borrowck", dir)
}
