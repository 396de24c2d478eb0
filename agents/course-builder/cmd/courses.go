package main

import (
	"fmt"

	"learning-path/shared/storage"

	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored courses",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

var getCmd = &cobra.Command{
	Use:   "get <name>",
	Short: "Print a stored course document",
	Args:  cobra.ExactArgs(1),
	RunE:  runGet,
}

func init() {
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(getCmd)
}

func runList(cmd *cobra.Command, _ []string) error {
	a, err := loadApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	keys, err := a.store.List(cmd.Context(), a.cfg.Storage.Folder)
	if err != nil {
		return err
	}
	for _, key := range keys {
		fmt.Fprintln(cmd.OutOrStdout(), storage.CourseName(key))
	}
	return nil
}

func runGet(cmd *cobra.Command, args []string) error {
	a, err := loadApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	key, err := storage.KeyForName(a.cfg.Storage.Folder, args[0])
	if err != nil {
		return err
	}
	doc, err := a.store.Get(cmd.Context(), key)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", args[0], err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(doc))
	return nil
}
