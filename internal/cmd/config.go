package cmd

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/kavach/internal/config"
	"github.com/felixgeelhaar/kavach/internal/ux"
)

func newConfigCmd(cc *CommandContext) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "View or edit kavach configuration",
		Long: `Manage kavach configuration stored at ~/.kavach/config.yaml

Every key can be overridden by an environment variable named KAVACH_ plus
the key in upper case with dots as underscores (api.base_url is
KAVACH_API_BASE_URL). A .env file in the working directory is read first.

Examples:
  # View effective configuration
  kavach config view

  # Point at a staging backend
  kavach config set api.base_url https://staging.kavach.example

  # Share the session through Redis
  kavach config set session.backend redis

  # Show configuration file path
  kavach config path
`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	viewCmd := &cobra.Command{
		Use:   "view",
		Short: "Display effective configuration",
		Long:  `Display every key with its effective value, environment overrides included.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			values := make(map[string]string, len(config.Keys()))
			rows := make([][]string, 0, len(config.Keys()))
			for _, key := range config.Keys() {
				v, err := cc.Config.Get(key)
				if err != nil {
					return err
				}
				values[key] = v
				rows = append(rows, []string{key, v, config.EnvName(key)})
			}
			return cc.Output(view{data: values, text: func(w io.Writer) error {
				return ux.Table(w, []string{"KEY", "VALUE", "ENV"}, rows)
			}})
		},
	}

	getCmd := &cobra.Command{
		Use:   "get <key>",
		Short: "Get a specific configuration value",
		Long:  `Retrieve the effective value of a key in dot notation (e.g., api.base_url).`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := cc.Config.Get(args[0])
			if err != nil {
				return err
			}
			return cc.Output(message(map[string]string{args[0]: v}, "%s", v))
		},
	}

	setCmd := &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a specific configuration value",
		Long: `Set a key in the configuration file. Environment overrides are not
written back.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, value := args[0], args[1]

			file, err := config.LoadFile(cc.ConfigPath)
			if err != nil {
				return err
			}
			if err := file.Set(key, value); err != nil {
				return err
			}
			if err := file.Validate(); err != nil {
				return err
			}
			if err := file.Save(cc.ConfigPath); err != nil {
				return err
			}

			shown, _ := file.Get(key)
			return cc.Output(message(map[string]string{key: shown}, "Set %s = %s", key, shown))
		},
	}

	pathCmd := &cobra.Command{
		Use:   "path",
		Short: "Show configuration file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cc.Output(message(map[string]string{"path": cc.ConfigPath}, "%s", cc.ConfigPath))
		},
	}

	configCmd.AddCommand(viewCmd, getCmd, setCmd, pathCmd)
	return configCmd
}

