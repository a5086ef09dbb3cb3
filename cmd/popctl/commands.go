package popctl

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	advisorcmd "github.com/arthur-debert/popctl/pkg/commands/advisor"
	"github.com/arthur-debert/popctl/pkg/commands/apply"
	"github.com/arthur-debert/popctl/pkg/commands/cfgclean"
	"github.com/arthur-debert/popctl/pkg/commands/cfgscan"
	diffcmd "github.com/arthur-debert/popctl/pkg/commands/diff"
	"github.com/arthur-debert/popctl/pkg/commands/fsclean"
	"github.com/arthur-debert/popctl/pkg/commands/fsscan"
	historycmd "github.com/arthur-debert/popctl/pkg/commands/history"
	"github.com/arthur-debert/popctl/pkg/commands/initialize"
	scancmd "github.com/arthur-debert/popctl/pkg/commands/scan"
	synccmd "github.com/arthur-debert/popctl/pkg/commands/sync"
	undocmd "github.com/arthur-debert/popctl/pkg/commands/undo"
	"github.com/arthur-debert/popctl/pkg/display"
	"github.com/arthur-debert/popctl/pkg/types"
)

// systemInfo annotates advisor exports with basic host facts.
func systemInfo() map[string]string {
	info := map[string]string{"os": "Pop!_OS"}
	if hostname, err := os.Hostname(); err == nil {
		info["hostname"] = hostname
	}
	return info
}

func newScanCmd(flags *rootFlags) *cobra.Command {
	var (
		sourceFlag string
		manualOnly bool
		countOnly  bool
		limit      int
		exportPath string
	)

	cmd := &cobra.Command{
		Use:     "scan",
		Short:   MsgScanShort,
		Long:    MsgScanLong,
		GroupID: "core",
		RunE: func(cmd *cobra.Command, args []string) error {
			renderer, err := newRenderer(flags)
			if err != nil {
				return err
			}
			source, err := sourceFilter(sourceFlag)
			if err != nil {
				return err
			}

			result, err := scancmd.Scan(cmd.Context(), scancmd.ScanOptions{
				Source:     source,
				ManualOnly: manualOnly,
				Limit:      limit,
				ExportPath: exportPath,
				SystemInfo: systemInfo(),
			})
			if err != nil {
				return fmt.Errorf(MsgErrScan, err)
			}

			if renderer.Format() == display.FormatJSON {
				if countOnly {
					fmt.Println(renderer.RenderJSON(result.Counts))
					return nil
				}
				fmt.Println(renderer.RenderJSON(result))
				return nil
			}
			if countOnly {
				for _, src := range types.AllSources() {
					if n, ok := result.Counts[src]; ok {
						fmt.Printf("%-10s %d\n", src, n)
					}
				}
				fmt.Printf("%-10s %d\n", "total", result.Total)
				return nil
			}
			fmt.Println(renderer.RenderPackages(result.Packages))
			if result.Total > len(result.Packages) {
				fmt.Printf("Showing %d of %d packages.\n", len(result.Packages), result.Total)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&sourceFlag, "source", "s", "", MsgFlagSource)
	cmd.Flags().BoolVar(&manualOnly, "manual-only", false, MsgFlagManualOnly)
	cmd.Flags().BoolVar(&countOnly, "count", false, "Only print per-source package counts")
	cmd.Flags().IntVar(&limit, "limit", 0, MsgFlagLimit)
	cmd.Flags().StringVar(&exportPath, "export", "", MsgFlagExport)
	return cmd
}

func newInitCmd(flags *rootFlags) *cobra.Command {
	var (
		force      bool
		systemName string
		outputPath string
	)

	cmd := &cobra.Command{
		Use:     "init",
		Short:   MsgInitShort,
		Long:    MsgInitLong,
		GroupID: "core",
		RunE: func(cmd *cobra.Command, args []string) error {
			manifestPath := outputPath
			if manifestPath == "" {
				manifestPath = appPaths().ManifestFile()
			}

			result, err := initialize.Init(cmd.Context(), initialize.InitOptions{
				ManifestPath: manifestPath,
				SystemName:   systemName,
				Force:        force,
				DryRun:       flags.dryRun,
			})
			if err != nil {
				return fmt.Errorf(MsgErrInit, err)
			}

			if result.DryRun {
				fmt.Printf(MsgManifestDryRun, result.ManifestPath, result.Added)
			} else {
				fmt.Printf(MsgManifestSaved, result.ManifestPath, result.Added)
			}
			if len(result.SkippedProtected) > 0 {
				log.Info().Strs("packages", result.SkippedProtected).Msg("Protected packages left out of the manifest")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, MsgFlagForce)
	cmd.Flags().StringVar(&systemName, "system-name", "", MsgFlagSystemName)
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Write the manifest to this path instead of the default")
	return cmd
}

func newDiffCmd(flags *rootFlags) *cobra.Command {
	var (
		sourceFlag string
		brief      bool
	)

	cmd := &cobra.Command{
		Use:     "diff",
		Short:   MsgDiffShort,
		Long:    MsgDiffLong,
		GroupID: "core",
		RunE: func(cmd *cobra.Command, args []string) error {
			renderer, err := newRenderer(flags)
			if err != nil {
				return err
			}
			source, err := sourceFilter(sourceFlag)
			if err != nil {
				return err
			}

			p := appPaths()
			result, err := diffcmd.Diff(cmd.Context(), diffcmd.DiffOptions{
				ManifestPath: p.ManifestFile(),
				Source:       source,
			})
			if err != nil {
				return fmt.Errorf(MsgErrDiff, err)
			}

			if renderer.Format() == display.FormatJSON {
				fmt.Println(renderer.RenderJSON(result.Result))
				return nil
			}
			if brief {
				if result.Result.InSync() {
					fmt.Println("in sync")
					return nil
				}
				fmt.Printf("%d missing, %d extra, %d untracked\n",
					len(result.Result.Missing), len(result.Result.Extra), len(result.Result.New))
				return nil
			}
			fmt.Println(renderer.RenderDiff(result.Result))
			return nil
		},
	}

	cmd.Flags().StringVarP(&sourceFlag, "source", "s", "", MsgFlagSource)
	cmd.Flags().BoolVar(&brief, "brief", false, "Only print category counts")
	return cmd
}

func newApplyCmd(flags *rootFlags) *cobra.Command {
	var (
		sourceFlag string
		purge      bool
	)

	cmd := &cobra.Command{
		Use:     "apply",
		Short:   MsgApplyShort,
		Long:    MsgApplyLong,
		GroupID: "core",
		RunE: func(cmd *cobra.Command, args []string) error {
			renderer, err := newRenderer(flags)
			if err != nil {
				return err
			}
			source, err := sourceFilter(sourceFlag)
			if err != nil {
				return err
			}

			p := appPaths()
			cfg := loadConfig(p)
			if !cmd.Flags().Changed("purge") {
				purge = cfg.Defaults.Purge
			}

			result, err := apply.Apply(cmd.Context(), apply.ApplyOptions{
				ManifestPath: p.ManifestFile(),
				HistoryPath:  p.HistoryFile(),
				Source:       source,
				Purge:        purge,
				DryRun:       flags.dryRun,
				Confirm:      confirmActions(flags, cfg, renderer),
			})
			if err != nil {
				return fmt.Errorf(MsgErrApply, err)
			}

			if renderer.Format() == display.FormatJSON {
				fmt.Println(renderer.RenderJSON(result))
				return nil
			}
			switch {
			case result.Aborted:
				fmt.Println(MsgAborted)
			case result.InSync():
				fmt.Println(renderer.RenderDiff(result.Diff))
			default:
				if result.DryRun {
					fmt.Println(renderer.RenderActions(result.Actions))
					fmt.Println(MsgDryRunNotice)
				} else {
					fmt.Println(renderer.RenderResults(result.Results))
				}
			}

			if failed := result.FailedCount(); failed > 0 {
				return fmt.Errorf(MsgErrActions, failed)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&sourceFlag, "source", "s", "", MsgFlagSource)
	cmd.Flags().BoolVar(&purge, "purge", false, MsgFlagPurge)
	return cmd
}

func newSyncCmd(flags *rootFlags) *cobra.Command {
	var (
		noAdvisor    bool
		noFilesystem bool
		systemName   string
	)

	cmd := &cobra.Command{
		Use:     "sync",
		Short:   MsgSyncShort,
		Long:    MsgSyncLong,
		GroupID: "core",
		RunE: func(cmd *cobra.Command, args []string) error {
			renderer, err := newRenderer(flags)
			if err != nil {
				return err
			}

			p := appPaths()
			cfg := loadConfig(p)

			result, err := synccmd.Sync(cmd.Context(), synccmd.SyncOptions{
				ManifestPath:     p.ManifestFile(),
				HistoryPath:      p.HistoryFile(),
				SessionsDir:      p.AdvisorSessionsDir(),
				Config:           cfg,
				NoAdvisor:        noAdvisor,
				NoFilesystem:     noFilesystem,
				DryRun:           flags.dryRun,
				SystemName:       systemName,
				SystemInfo:       systemInfo(),
				ConfirmActions:   confirmActions(flags, cfg, renderer),
				ConfirmDeletions: confirmDeletions(flags, cfg),
			})
			if err != nil {
				return fmt.Errorf(MsgErrSync, err)
			}

			if renderer.Format() == display.FormatJSON {
				fmt.Println(renderer.RenderJSON(result))
				return nil
			}

			if result.Initialized {
				fmt.Printf(MsgManifestSaved, p.ManifestFile(), result.Init.Added)
			}
			if result.AdvisorApplied != nil {
				summary := result.AdvisorApplied.Summary
				fmt.Printf("Advisor: %d kept, %d removed, %d to review\n",
					len(summary.Kept), len(summary.Removed), len(summary.Asked))
			}
			if result.Apply != nil {
				switch {
				case result.Apply.Aborted:
					fmt.Println(MsgAborted)
				case result.Apply.InSync():
					fmt.Println(renderer.RenderDiff(result.Apply.Diff))
				case result.Apply.DryRun:
					fmt.Println(renderer.RenderActions(result.Apply.Actions))
				default:
					fmt.Println(renderer.RenderResults(result.Apply.Results))
				}
			}
			if result.Filesystem != nil && len(result.Filesystem.Results) > 0 {
				fmt.Println(renderer.RenderDeleteResults(result.Filesystem.Results))
			}
			if len(result.Warnings) > 0 {
				fmt.Println(renderer.RenderWarnings(result.Warnings))
			}
			if result.DryRun {
				fmt.Println(MsgDryRunNotice)
			}

			if result.Failed() {
				failed := 0
				if result.Apply != nil {
					failed += result.Apply.FailedCount()
				}
				if result.Filesystem != nil {
					failed += result.Filesystem.FailedCount()
				}
				return fmt.Errorf(MsgErrActions, failed)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&noAdvisor, "no-advisor", false, MsgFlagNoAdvisor)
	cmd.Flags().BoolVar(&noFilesystem, "no-filesystem", false, MsgFlagNoFs)
	cmd.Flags().StringVar(&systemName, "system-name", "", MsgFlagSystemName)
	return cmd
}

func newUndoCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:     "undo",
		Short:   MsgUndoShort,
		Long:    MsgUndoLong,
		GroupID: "core",
		RunE: func(cmd *cobra.Command, args []string) error {
			renderer, err := newRenderer(flags)
			if err != nil {
				return err
			}

			p := appPaths()
			cfg := loadConfig(p)

			var confirm func(types.HistoryEntry) bool
			if !flags.yes && cfg.Defaults.Confirm {
				confirm = func(entry types.HistoryEntry) bool {
					fmt.Printf("Reversing %s (%s, %d package(s)).\n",
						entry.ID, entry.Kind, len(entry.Items))
					return promptYesNo("Proceed?")
				}
			}

			result, err := undocmd.Undo(cmd.Context(), undocmd.UndoOptions{
				HistoryPath: p.HistoryFile(),
				DryRun:      flags.dryRun,
				Confirm:     confirm,
			})
			if err != nil {
				return fmt.Errorf(MsgErrUndo, err)
			}

			if renderer.Format() == display.FormatJSON {
				fmt.Println(renderer.RenderJSON(result))
				return nil
			}
			switch {
			case result.NothingToUndo:
				fmt.Println(MsgNothingToUndo)
			case result.Aborted:
				fmt.Println(MsgAborted)
			case result.DryRun:
				fmt.Println(renderer.RenderActions(result.Actions))
				fmt.Println(MsgDryRunNotice)
			default:
				fmt.Println(renderer.RenderResults(result.Results))
			}

			if failed := result.FailedCount(); failed > 0 {
				return fmt.Errorf(MsgErrActions, failed)
			}
			return nil
		},
	}
}

func newHistoryCmd(flags *rootFlags) *cobra.Command {
	var (
		limit    int
		all      bool
		sinceRaw string
	)

	cmd := &cobra.Command{
		Use:     "history",
		Short:   MsgHistoryShort,
		GroupID: "core",
		RunE: func(cmd *cobra.Command, args []string) error {
			renderer, err := newRenderer(flags)
			if err != nil {
				return err
			}

			var since time.Time
			if sinceRaw != "" {
				since, err = parseSince(sinceRaw)
				if err != nil {
					return err
				}
			}
			if all {
				limit = -1
			}

			p := appPaths()
			result, err := historycmd.History(historycmd.HistoryOptions{
				HistoryPath: p.HistoryFile(),
				Limit:       limit,
				Since:       since,
			})
			if err != nil {
				return fmt.Errorf(MsgErrHistory, err)
			}

			if renderer.Format() == display.FormatJSON {
				fmt.Println(renderer.RenderJSON(result.Entries))
				return nil
			}
			fmt.Println(renderer.RenderHistory(result.Entries))
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, MsgFlagLimit)
	cmd.Flags().BoolVar(&all, "all", false, "Show all entries")
	cmd.Flags().StringVar(&sinceRaw, "since", "", MsgFlagSince)
	return cmd
}

func parseSince(raw string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse --since value %q", raw)
}

func newFsCmd(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "fs",
		Short:   MsgFsShort,
		GroupID: "core",
	}
	cmd.AddCommand(newFsScanCmd(flags))
	cmd.AddCommand(newFsCleanCmd(flags))
	return cmd
}

func newFsScanCmd(flags *rootFlags) *cobra.Command {
	var (
		includeFiles bool
		includeEtc   bool
		limit        int
		exportPath   string
	)

	cmd := &cobra.Command{
		Use:   "scan",
		Short: MsgFsScanShort,
		Long:  MsgFsScanLong,
		RunE: func(cmd *cobra.Command, args []string) error {
			renderer, err := newRenderer(flags)
			if err != nil {
				return err
			}

			p := appPaths()
			cfg := loadConfig(p)
			if !cmd.Flags().Changed("files") {
				includeFiles = cfg.Filesystem.Files
			}
			if !cmd.Flags().Changed("include-etc") {
				includeEtc = cfg.Filesystem.IncludeEtc
			}

			result, err := fsscan.FsScan(cmd.Context(), fsscan.FsScanOptions{
				IncludeFiles: includeFiles,
				IncludeEtc:   includeEtc,
				Limit:        limit,
				ExportPath:   exportPath,
			})
			if err != nil {
				return fmt.Errorf(MsgErrFsScan, err)
			}

			if renderer.Format() == display.FormatJSON {
				fmt.Println(renderer.RenderJSON(result))
				return nil
			}
			fmt.Println(renderer.RenderOrphans(result.Orphans, result.TotalSize))
			if result.Total > len(result.Orphans) {
				fmt.Printf("Showing %d of %d orphans.\n", len(result.Orphans), result.Total)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&includeFiles, "files", false, MsgFlagFiles)
	cmd.Flags().BoolVar(&includeEtc, "include-etc", false, MsgFlagIncludeEtc)
	cmd.Flags().IntVar(&limit, "limit", 0, MsgFlagLimit)
	cmd.Flags().StringVar(&exportPath, "export", "", MsgFlagExport)
	return cmd
}

func newFsCleanCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "clean",
		Short: MsgFsCleanShort,
		RunE: func(cmd *cobra.Command, args []string) error {
			renderer, err := newRenderer(flags)
			if err != nil {
				return err
			}

			p := appPaths()
			cfg := loadConfig(p)

			result, err := fsclean.FsClean(cmd.Context(), fsclean.FsCleanOptions{
				ManifestPath: p.ManifestFile(),
				HistoryPath:  p.HistoryFile(),
				DryRun:       flags.dryRun,
				Confirm:      confirmDeletions(flags, cfg),
			})
			if err != nil {
				return fmt.Errorf(MsgErrFsClean, err)
			}

			if renderer.Format() == display.FormatJSON {
				fmt.Println(renderer.RenderJSON(result))
				return nil
			}
			if result.Aborted {
				fmt.Println(MsgAborted)
				return nil
			}
			fmt.Println(renderer.RenderDeleteResults(result.Results))
			if len(result.SkippedProtected) > 0 {
				log.Info().Strs("paths", result.SkippedProtected).Msg("Protected paths skipped")
			}
			if result.DryRun {
				fmt.Println(MsgDryRunNotice)
			}

			if failed := result.FailedCount(); failed > 0 {
				return fmt.Errorf(MsgErrDeletions, failed)
			}
			return nil
		},
	}
}

func newConfigCmd(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "config",
		Short:   MsgConfigShort,
		GroupID: "core",
	}
	cmd.AddCommand(newConfigScanCmd(flags))
	cmd.AddCommand(newConfigCleanCmd(flags))
	return cmd
}

func newConfigScanCmd(flags *rootFlags) *cobra.Command {
	var (
		limit      int
		exportPath string
	)

	cmd := &cobra.Command{
		Use:   "scan",
		Short: MsgConfigScanShort,
		Long:  MsgConfigScanLong,
		RunE: func(cmd *cobra.Command, args []string) error {
			renderer, err := newRenderer(flags)
			if err != nil {
				return err
			}

			result, err := cfgscan.CfgScan(cmd.Context(), cfgscan.CfgScanOptions{
				Limit:      limit,
				ExportPath: exportPath,
			})
			if err != nil {
				return fmt.Errorf(MsgErrCfgScan, err)
			}

			if renderer.Format() == display.FormatJSON {
				fmt.Println(renderer.RenderJSON(result))
				return nil
			}
			fmt.Println(renderer.RenderConfigOrphans(result.Orphans, result.TotalSize))
			if result.Total > len(result.Orphans) {
				fmt.Printf("Showing %d of %d orphans.\n", len(result.Orphans), result.Total)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, MsgFlagLimit)
	cmd.Flags().StringVar(&exportPath, "export", "", MsgFlagExport)
	return cmd
}

func newConfigCleanCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "clean",
		Short: MsgConfigCleanShort,
		RunE: func(cmd *cobra.Command, args []string) error {
			renderer, err := newRenderer(flags)
			if err != nil {
				return err
			}

			p := appPaths()
			cfg := loadConfig(p)

			result, err := cfgclean.CfgClean(cmd.Context(), cfgclean.CfgCleanOptions{
				ManifestPath: p.ManifestFile(),
				HistoryPath:  p.HistoryFile(),
				BackupDir:    p.ConfigBackupsDir(),
				DryRun:       flags.dryRun,
				Confirm:      confirmDeletions(flags, cfg),
			})
			if err != nil {
				return fmt.Errorf(MsgErrCfgClean, err)
			}

			if renderer.Format() == display.FormatJSON {
				fmt.Println(renderer.RenderJSON(result))
				return nil
			}
			if result.Aborted {
				fmt.Println(MsgAborted)
				return nil
			}
			fmt.Println(renderer.RenderConfigDeleteResults(result.Results))
			if len(result.SkippedProtected) > 0 {
				log.Info().Strs("paths", result.SkippedProtected).Msg("Protected configs skipped")
			}
			if result.DryRun {
				fmt.Println(MsgDryRunNotice)
			}

			if failed := result.FailedCount(); failed > 0 {
				return fmt.Errorf(MsgErrDeletions, failed)
			}
			return nil
		},
	}
}

func newAdvisorCmd(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "advisor",
		Short:   MsgAdvisorShort,
		Long:    MsgAdvisorLong,
		GroupID: "core",
	}
	cmd.AddCommand(newAdvisorClassifyCmd(flags))
	cmd.AddCommand(newAdvisorApplyCmd(flags))
	return cmd
}

func newAdvisorClassifyCmd(flags *rootFlags) *cobra.Command {
	var (
		auto     bool
		provider string
		model    string
	)

	cmd := &cobra.Command{
		Use:   "classify",
		Short: MsgAdvisorClassifyShort,
		RunE: func(cmd *cobra.Command, args []string) error {
			p := appPaths()
			cfg := loadConfig(p)
			if provider != "" {
				cfg.Advisor.Provider = provider
			}
			if model != "" {
				cfg.Advisor.Model = model
			}

			result, err := advisorcmd.Classify(cmd.Context(), advisorcmd.ClassifyOptions{
				SessionsDir:  p.AdvisorSessionsDir(),
				ManifestPath: p.ManifestFile(),
				Config:       cfg.Advisor,
				Auto:         auto,
				SystemInfo:   systemInfo(),
			})
			if err != nil {
				return fmt.Errorf(MsgErrAdvisor, err)
			}

			if result.Instructions != "" {
				fmt.Println(result.Instructions)
				return nil
			}
			fmt.Printf("Session: %s\n", result.SessionDir)
			fmt.Printf("Decisions written to %s\n", result.DecisionsPath)
			fmt.Println("Run 'popctl advisor apply' to merge them into the manifest.")
			return nil
		},
	}

	cmd.Flags().BoolVar(&auto, "auto", false, MsgFlagAuto)
	cmd.Flags().StringVar(&provider, "provider", "", MsgFlagProvider)
	cmd.Flags().StringVar(&model, "model", "", MsgFlagModel)
	return cmd
}

func newAdvisorApplyCmd(flags *rootFlags) *cobra.Command {
	var decisionsPath string

	cmd := &cobra.Command{
		Use:   "apply",
		Short: MsgAdvisorApplyShort,
		RunE: func(cmd *cobra.Command, args []string) error {
			p := appPaths()

			result, err := advisorcmd.Apply(advisorcmd.ApplyOptions{
				SessionsDir:   p.AdvisorSessionsDir(),
				DecisionsPath: decisionsPath,
				ManifestPath:  p.ManifestFile(),
				HistoryPath:   p.HistoryFile(),
				DryRun:        flags.dryRun,
			})
			if err != nil {
				return fmt.Errorf(MsgErrAdvisor, err)
			}

			summary := result.Summary
			fmt.Printf("Applied %s: %d kept, %d removed, %d to review\n",
				result.DecisionsPath, len(summary.Kept), len(summary.Removed), len(summary.Asked))
			if result.DryRun {
				fmt.Println(MsgDryRunNotice)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&decisionsPath, "decisions", "", MsgFlagDecisions)
	return cmd
}
