package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tonimelisma/bkmsync/internal/config"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
	}

	cmd.AddCommand(newConfigShowCmd())
	cmd.AddCommand(newConfigInitCmd())
	cmd.AddCommand(newConfigSetCmd())
	cmd.AddCommand(newConfigUnsetCmd())
	cmd.AddCommand(newConfigDeleteProfileCmd())

	return cmd
}

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Display effective configuration after all overrides",
		RunE:  runConfigShow,
	}
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	cc := mustCLIContext(cmd.Context())

	if cc.JSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")

		return enc.Encode(cc.Profile)
	}

	return config.RenderEffective(cc.Profile, os.Stdout)
}

func newConfigInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init NAME LOCAL_PATH SERVER_URL",
		Short: "Create a new config file with a first profile",
		Annotations: map[string]string{
			skipConfigAnnotation: "true",
		},
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := flagConfigPath
			if path == "" {
				path = config.DefaultConfigPath()
			}

			if err := config.CreateConfigWithProfile(path, args[0], args[1], args[2]); err != nil {
				return fmt.Errorf("creating config: %w", err)
			}

			fmt.Printf("Created %s with profile %q.\n", path, args[0])

			return nil
		},
	}

	return cmd
}

func newConfigSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set PROFILE KEY VALUE",
		Short: "Set a key in a profile section, adding the profile if it doesn't exist",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc := mustCLIContext(cmd.Context())

			profile, key, value := args[0], args[1], args[2]
			if err := config.SetProfileKey(cc.ConfigPath, profile, key, value); err != nil {
				if err := config.AppendProfileSection(cc.ConfigPath, profile, "", ""); err != nil {
					return fmt.Errorf("adding profile %q: %w", profile, err)
				}

				if err := config.SetProfileKey(cc.ConfigPath, profile, key, value); err != nil {
					return fmt.Errorf("setting %s: %w", key, err)
				}
			}

			fmt.Printf("Set %s.%s = %s\n", profile, key, value)

			return nil
		},
	}
}

func newConfigUnsetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "unset PROFILE KEY",
		Short: "Remove a key from a profile section",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc := mustCLIContext(cmd.Context())

			profile, key := args[0], args[1]
			if err := config.DeleteProfileKey(cc.ConfigPath, profile, key); err != nil {
				return fmt.Errorf("unsetting %s: %w", key, err)
			}

			fmt.Printf("Unset %s.%s\n", profile, key)

			return nil
		},
	}
}

func newConfigDeleteProfileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete-profile PROFILE",
		Short: "Remove an entire profile section",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc := mustCLIContext(cmd.Context())

			if err := config.DeleteProfileSection(cc.ConfigPath, args[0]); err != nil {
				return fmt.Errorf("deleting profile %q: %w", args[0], err)
			}

			fmt.Printf("Deleted profile %q.\n", args[0])

			return nil
		},
	}
}
