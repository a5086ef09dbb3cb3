package popctl

// Short messages (one-liners)
const (
	// Command descriptions
	MsgRootShort = "Declarative package management for Pop!_OS"
	MsgRootLong = `popctl keeps an installed system matching a declarative manifest:
packages you want stay, packages you don't are removed, and every
change is recorded so it can be undone.`

	MsgScanShort    = "List installed packages across all sources"
	MsgScanLong     = "Scan inventories apt, flatpak, and snap packages currently installed on the system."
	MsgInitShort    = "Create a manifest from the current system state"
	MsgInitLong     = "Init scans installed packages and writes a manifest whose keep set matches what is manually installed today."
	MsgDiffShort    = "Show the difference between the manifest and the system"
	MsgDiffLong     = "Diff compares the manifest against installed packages and reports missing, extra, and untracked entries."
	MsgApplyShort   = "Reconcile the system with the manifest"
	MsgApplyLong    = "Apply installs missing keep-set packages and removes remove-set packages that are still installed. Untracked packages are never touched."
	MsgSyncShort    = "Run the full pipeline: classify, reconcile, clean"
	MsgSyncLong     = "Sync bootstraps the manifest if needed, optionally runs the advisor, reconciles packages, and cleans up orphaned files."
	MsgUndoShort    = "Reverse the most recent reversible change"
	MsgUndoLong     = "Undo finds the newest history entry that has not been reversed and executes its inverse operations."
	MsgHistoryShort = "Show recorded changes, newest first"
	MsgFsScanShort  = "Find orphaned files and directories in the home directory"
	MsgFsScanLong   = "Fsscan walks dotfile and cache locations looking for paths no installed package accounts for."
	MsgFsCleanShort = "Delete the paths listed in the manifest's filesystem remove set"
	MsgAdvisorShort = "Classify packages with an AI agent"
	MsgAdvisorLong = `Advisor prepares a session directory with the current package
inventory and a prompt, runs (or lets you run) an agent CLI over it,
and merges the resulting keep/remove decisions into the manifest.`
	MsgAdvisorClassifyShort = "Prepare a session and ask the agent to classify packages"
	MsgAdvisorApplyShort    = "Merge agent decisions into the manifest"
	MsgFsShort              = "Find and clean up orphaned files"
	MsgConfigShort          = "Find and clean up orphaned configuration"
	MsgConfigScanShort      = "Find configs whose application is no longer installed"
	MsgConfigScanLong       = "Config scan checks top-level ~/.config entries and shell dotfiles against installed packages and apps."
	MsgConfigCleanShort     = "Back up and delete the paths in the manifest's config remove set"
	MsgTopicsShort          = "Display available documentation topics"
	MsgCompletionShort      = "Generate shell completion script"

	// Status messages
	MsgDryRunNotice   = "DRY RUN MODE - no changes were made"
	MsgAborted        = "Aborted."
	MsgNothingToUndo  = "Nothing to undo."
	MsgManifestSaved  = "Manifest written to %s (%d packages in keep set)\n"
	MsgManifestDryRun = "Would write manifest to %s (%d packages in keep set)\n"

	// Error messages
	MsgErrScan      = "scan failed: %w"
	MsgErrInit      = "init failed: %w"
	MsgErrDiff      = "diff failed: %w"
	MsgErrApply     = "apply failed: %w"
	MsgErrSync      = "sync failed: %w"
	MsgErrUndo      = "undo failed: %w"
	MsgErrHistory   = "history failed: %w"
	MsgErrFsScan    = "filesystem scan failed: %w"
	MsgErrFsClean   = "filesystem cleanup failed: %w"
	MsgErrCfgScan   = "config scan failed: %w"
	MsgErrCfgClean  = "config cleanup failed: %w"
	MsgErrAdvisor   = "advisor failed: %w"
	MsgErrActions   = "%d action(s) failed"
	MsgErrDeletions = "%d deletion(s) failed"

	// Flag descriptions
	MsgFlagVerbose    = "Increase verbosity (-v info, -vv debug, -vvv trace)"
	MsgFlagDryRun     = "Show what would happen without changing anything"
	MsgFlagYes        = "Skip confirmation prompts"
	MsgFlagFormat     = "Output format: auto, term, text, or json"
	MsgFlagSource     = "Restrict to one source: apt, flatpak, or snap"
	MsgFlagManualOnly = "Only show manually installed packages"
	MsgFlagLimit      = "Limit the number of results (0 = all)"
	MsgFlagExport     = "Write the full result set as JSON to this file"
	MsgFlagForce      = "Overwrite an existing manifest"
	MsgFlagSystemName = "System name recorded in the manifest (default: hostname)"
	MsgFlagPurge      = "Purge configuration files when removing apt packages"
	MsgFlagSince      = "Only show entries recorded on or after this date (RFC3339 or YYYY-MM-DD)"
	MsgFlagFiles      = "Include loose files, not just directories"
	MsgFlagIncludeEtc = "Also scan /etc (requires appropriate permissions)"
	MsgFlagAuto       = "Run the agent headlessly instead of printing instructions"
	MsgFlagProvider   = "Agent provider: claude or gemini"
	MsgFlagModel      = "Agent model override"
	MsgFlagDecisions  = "Path to a specific decisions file"
	MsgFlagNoAdvisor  = "Skip the advisor classification phase"
	MsgFlagNoFs       = "Skip the filesystem cleanup phase"
)

// MsgUsageTemplate is the custom usage template with bold section headers.
const MsgUsageTemplate = `{{bold "USAGE:"}}{{if .Runnable}}
  {{.UseLine}}{{end}}{{if .HasAvailableSubCommands}}
  {{.CommandPath}} [command]{{end}}{{if gt (len .Aliases) 0}}

{{bold "ALIASES:"}}
  {{.NameAndAliases}}{{end}}{{if .HasExample}}

{{bold "EXAMPLES:"}}
{{.Example}}{{end}}{{if .HasAvailableSubCommands}}{{$cmds := .Commands}}{{if eq (len .Groups) 0}}

{{bold "AVAILABLE COMMANDS:"}}{{range $cmds}}{{if (or .IsAvailableCommand (eq .Name "help"))}}
  {{rpad .Name .NamePadding }} {{.Short}}{{end}}{{end}}{{else}}{{range $group := .Groups}}

{{bold $group.Title}}{{range $cmds}}{{if (and (eq .GroupID $group.ID) (or .IsAvailableCommand (eq .Name "help")))}}
  {{rpad .Name .NamePadding }} {{.Short}}{{end}}{{end}}{{end}}{{if not .AllChildCommandsHaveGroup}}

{{bold "ADDITIONAL COMMANDS:"}}{{range $cmds}}{{if (and (eq .GroupID "") (or .IsAvailableCommand (eq .Name "help")))}}
  {{rpad .Name .NamePadding }} {{.Short}}{{end}}{{end}}{{end}}{{end}}{{end}}{{if .HasAvailableLocalFlags}}

{{bold "FLAGS:"}}
{{.LocalFlags.FlagUsages | trimTrailingWhitespaces}}{{end}}{{if .HasAvailableInheritedFlags}}

{{bold "GLOBAL FLAGS:"}}
{{.InheritedFlags.FlagUsages | trimTrailingWhitespaces}}{{end}}{{if .HasHelpSubCommands}}

{{bold "ADDITIONAL HELP TOPICS:"}}{{range .Commands}}{{if .IsAdditionalHelpTopicCommand}}
  {{rpad .CommandPath .CommandPathPadding}} {{.Short}}{{end}}{{end}}{{end}}{{if .HasAvailableSubCommands}}

Use "{{.CommandPath}} [command] --help" for more information about a command.{{end}}
`
