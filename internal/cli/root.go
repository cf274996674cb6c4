// Package cli 实现 colliderctl 命令行工具。
package cli

import (
	"fmt"
	"os"

	"github.com/collidersite/internal/config"
	"github.com/collidersite/internal/db"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

type rootFlags struct {
	databasePath string
	jsonMode     bool
}

// NewRootCmd creates the colliderctl command with all subcommands registered.
func NewRootCmd() *cobra.Command {
	flags := &rootFlags{}

	root := &cobra.Command{
		Use:          "colliderctl",
		Short:        "Manage a collidersite page tree",
		Long:         "colliderctl seeds page trees from YAML, manages admin users and inspects index tag archives.",
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&flags.databasePath, "db", config.Load().DatabasePath, "sqlite database path (env DATABASE_PATH)")
	root.PersistentFlags().BoolVar(&flags.jsonMode, "json", false, "output in JSON format")

	root.AddCommand(newSeedCmd(flags))
	root.AddCommand(newCreateUserCmd(flags))
	root.AddCommand(newTagsCmd(flags))
	return root
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func (f *rootFlags) open() (*gorm.DB, func(), error) {
	gdb, err := db.Open(f.databasePath)
	if err != nil {
		return nil, nil, fmt.Errorf("open database %s: %w", f.databasePath, err)
	}
	closeFn := func() {
		if sqlDB, err := gdb.DB(); err == nil {
			sqlDB.Close()
		}
	}
	return gdb, closeFn, nil
}
