// Package popctl wires the command layer to a Cobra CLI.
package popctl

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/arthur-debert/popctl/internal/version"
	"github.com/arthur-debert/popctl/pkg/cobrax/topics"
	"github.com/arthur-debert/popctl/pkg/config"
	"github.com/arthur-debert/popctl/pkg/display"
	"github.com/arthur-debert/popctl/pkg/logging"
	"github.com/arthur-debert/popctl/pkg/paths"
	"github.com/arthur-debert/popctl/pkg/types"
)

// rootFlags holds the persistent flag values shared by every command.
type rootFlags struct {
	verbosity int
	dryRun    bool
	yes       bool
	format    string
}

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	initTemplateFormatting()

	flags := &rootFlags{}

	rootCmd := &cobra.Command{
		Use:     "popctl",
		Short:   MsgRootShort,
		Long:    MsgRootLong,
		Version: version.Version,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.SetupLogger(flags.verbosity)
			log.Debug().Str("command", cmd.Name()).Msg("Command started")
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			_ = cmd.Help()
			return fmt.Errorf("no command specified")
		},
		SilenceUsage:      true,
		SilenceErrors:     true,
		DisableAutoGenTag: true,
	}

	rootCmd.PersistentFlags().CountVarP(&flags.verbosity, "verbose", "v", MsgFlagVerbose)
	rootCmd.Flags().BoolP("version", "V", false, "Print the version and exit")
	rootCmd.PersistentFlags().BoolVar(&flags.dryRun, "dry-run", false, MsgFlagDryRun)
	rootCmd.PersistentFlags().BoolVarP(&flags.yes, "yes", "y", false, MsgFlagYes)
	rootCmd.PersistentFlags().StringVar(&flags.format, "format", "auto", MsgFlagFormat)

	// Disable the automatic help command; topics installs its own
	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})

	rootCmd.AddGroup(&cobra.Group{ID: "core", Title: "COMMANDS:"})
	rootCmd.AddGroup(&cobra.Group{ID: "misc", Title: "MISC:"})

	rootCmd.SetUsageTemplate(MsgUsageTemplate)

	rootCmd.AddCommand(newScanCmd(flags))
	rootCmd.AddCommand(newInitCmd(flags))
	rootCmd.AddCommand(newDiffCmd(flags))
	rootCmd.AddCommand(newApplyCmd(flags))
	rootCmd.AddCommand(newSyncCmd(flags))
	rootCmd.AddCommand(newUndoCmd(flags))
	rootCmd.AddCommand(newHistoryCmd(flags))
	rootCmd.AddCommand(newFsCmd(flags))
	rootCmd.AddCommand(newConfigCmd(flags))
	rootCmd.AddCommand(newAdvisorCmd(flags))
	rootCmd.AddCommand(newCompletionCmd())

	installTopics(rootCmd)

	return rootCmd
}

// installTopics looks for help topic files near the binary and in the
// source tree, and wires them into the help system when found.
func installTopics(rootCmd *cobra.Command) {
	exe, err := os.Executable()
	if err != nil {
		return
	}

	possiblePaths := []string{
		filepath.Join(filepath.Dir(exe), "topics"),
		filepath.Join(filepath.Dir(exe), "..", "..", "cmd", "popctl", "topics"),
		"cmd/popctl/topics",
	}

	for _, topicsPath := range possiblePaths {
		if _, err := os.Stat(topicsPath); err != nil {
			continue
		}
		opts := topics.Options{
			Extensions: []string{".txt", ".md"},
			Renderer:   topics.NewGlamourRenderer(),
		}
		manager, err := topics.Install(rootCmd, topicsPath, opts)
		if err == nil {
			rootCmd.AddCommand(newTopicsCmd(rootCmd, manager))
			break
		}
	}
}

// newTopicsCmd lists the available help topics or renders one.
func newTopicsCmd(rootCmd *cobra.Command, manager *topics.Manager) *cobra.Command {
	return &cobra.Command{
		Use:     "topics [name]",
		Short:   MsgTopicsShort,
		GroupID: "misc",
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				fmt.Print(manager.RenderTopicList(rootCmd.Name()))
				return nil
			}
			topic, ok := manager.Get(args[0])
			if !ok {
				return fmt.Errorf("unknown topic %q", args[0])
			}
			fmt.Print(manager.Render(topic))
			return nil
		},
	}
}

// appPaths resolves the XDG-based file locations.
func appPaths() paths.Paths {
	return paths.New()
}

// loadConfig reads the user config, falling back to built-in defaults
// when it cannot be loaded.
func loadConfig(p paths.Paths) *config.Config {
	cfg, err := config.Load(p)
	if err != nil {
		log.Warn().Err(err).Msg("Config load failed, using defaults")
		return config.Default()
	}
	return cfg
}

// newRenderer builds a display renderer from the --format flag.
func newRenderer(flags *rootFlags) (*display.Renderer, error) {
	format, err := display.ParseFormat(flags.format)
	if err != nil {
		return nil, err
	}
	return display.NewRenderer(format), nil
}

// sourceFilter parses an optional --source flag value.
func sourceFilter(value string) (*types.Source, error) {
	if value == "" {
		return nil, nil
	}
	source, err := types.ParseSource(value)
	if err != nil {
		return nil, err
	}
	return &source, nil
}

// promptYesNo asks for confirmation on the terminal. Anything but an
// explicit yes declines.
func promptYesNo(question string) bool {
	fmt.Printf("%s [y/N]: ", question)
	reader := bufio.NewReader(os.Stdin)
	answer, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}

// confirmActions builds the confirmation callback for package
// execution, honoring --yes and the config's confirm default.
func confirmActions(flags *rootFlags, cfg *config.Config, renderer *display.Renderer) func([]types.Action) bool {
	if flags.yes || !cfg.Defaults.Confirm {
		return nil
	}
	return func(planned []types.Action) bool {
		fmt.Println(renderer.RenderActions(planned))
		return promptYesNo("Proceed?")
	}
}

// confirmDeletions builds the confirmation callback for filesystem
// cleanup.
func confirmDeletions(flags *rootFlags, cfg *config.Config) func([]string) bool {
	if flags.yes || !cfg.Defaults.Confirm {
		return nil
	}
	return func(planned []string) bool {
		fmt.Printf("About to delete %d path(s):\n", len(planned))
		for _, path := range planned {
			fmt.Println("  " + path)
		}
		return promptYesNo("Proceed?")
	}
}

func newCompletionCmd() *cobra.Command {
	return &cobra.Command{
		Use:                   "completion [bash|zsh|fish|powershell]",
		Short:                 MsgCompletionShort,
		GroupID:               "misc",
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(os.Stdout)
			case "zsh":
				return cmd.Root().GenZshCompletion(os.Stdout)
			case "fish":
				return cmd.Root().GenFishCompletion(os.Stdout, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(os.Stdout)
			}
			return nil
		},
	}
}
