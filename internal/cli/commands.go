package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/collidersite/internal/db"
	"github.com/collidersite/internal/seed"
	"github.com/collidersite/internal/service"
	"github.com/spf13/cobra"
)

func newSeedCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "seed <fixture.yaml>",
		Short: "Build a page tree from a YAML fixture",
		Long: `Seed creates the site root and every page described by the fixture in one
transaction. Profile relations refer to other pages by URL, for example
/locations/london/. The database must not already have a site root.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open fixture: %w", err)
			}
			defer file.Close()

			fixture, err := seed.Parse(file)
			if err != nil {
				return err
			}

			gdb, closeDB, err := flags.open()
			if err != nil {
				return err
			}
			defer closeDB()

			result, err := seed.Apply(gdb, fixture)
			if err != nil {
				return err
			}

			if flags.jsonMode {
				return writeJSON(cmd, map[string]interface{}{
					"pages":    result.Pages,
					"profiles": result.Profiles,
					"urls":     result.URLs,
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d pages and %d profiles\n", result.Pages, result.Profiles)
			return nil
		},
	}
}

func newCreateUserCmd(flags *rootFlags) *cobra.Command {
	var password string
	cmd := &cobra.Command{
		Use:   "create-user <username>",
		Short: "Create an admin user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			gdb, closeDB, err := flags.open()
			if err != nil {
				return err
			}
			defer closeDB()

			user, err := db.CreateUser(gdb, args[0], password)
			if err != nil {
				return fmt.Errorf("create user: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created user %s (id %d)\n", user.Username, user.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&password, "password", "", "password for the new user (required)")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newTagsCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "tags <index-url>",
		Short: "Print the tags used by an index's live pages",
		Long: `Tags resolves a live index page by URL, for example /industries/, and prints
the union of tags on its live pages with their archive URLs.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			gdb, closeDB, err := flags.open()
			if err != nil {
				return err
			}
			defer closeDB()

			pages := service.NewPageService(gdb)
			page, rest, err := pages.Route(strings.FieldsFunc(args[0], func(r rune) bool { return r == '/' }))
			if err != nil {
				return fmt.Errorf("resolve %s: %w", args[0], err)
			}
			if len(rest) > 0 {
				return fmt.Errorf("resolve %s: %w", args[0], service.ErrPageNotFound)
			}

			union, err := service.NewIndexService(service.NewStore(gdb)).ChildTagUnion(page)
			if err != nil {
				return err
			}
			indexURL, err := pages.URL(page)
			if err != nil {
				return err
			}
			links := service.TagLinks(indexURL, union)

			if flags.jsonMode {
				return writeJSON(cmd, links)
			}
			out := cmd.OutOrStdout()
			if len(links) == 0 {
				fmt.Fprintln(out, "no tags")
				return nil
			}
			for _, link := range links {
				fmt.Fprintf(out, "%s\t%s\n", link.Name, link.URL)
			}
			return nil
		},
	}
}

func writeJSON(cmd *cobra.Command, value interface{}) error {
	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	return encoder.Encode(value)
}
