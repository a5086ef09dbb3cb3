// Package topics adds a topic-based help system to a Cobra CLI:
// arbitrary documentation files become `popctl help <topic>` pages
// alongside the regular command help.
package topics

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"
)

// Topic is one loaded help page.
type Topic struct {
	Name     string
	FilePath string
	Content  string
}

// Options configures topic discovery and rendering.
type Options struct {
	// Extensions lists the file extensions treated as topics.
	// Defaults to .txt and .md.
	Extensions []string

	// Renderer formats topic content for the terminal.
	// Defaults to PlainRenderer.
	Renderer Renderer
}

// Manager holds the discovered topics and the original help function
// it wraps.
type Manager struct {
	topicsDir    string
	topics       map[string]*Topic
	extensions   []string
	renderer     Renderer
	originalHelp func(*cobra.Command, []string)
}

// NewManager creates a manager for one topics directory.
func NewManager(topicsDir string, opts Options) *Manager {
	m := &Manager{
		topicsDir:  topicsDir,
		topics:     make(map[string]*Topic),
		extensions: opts.Extensions,
		renderer:   opts.Renderer,
	}
	if len(m.extensions) == 0 {
		m.extensions = []string{".txt", ".md"}
	}
	if m.renderer == nil {
		m.renderer = &PlainRenderer{}
	}
	return m
}

// load scans the topics directory. A missing directory just means no
// topics are available.
func (m *Manager) load() error {
	entries, err := os.ReadDir(m.topicsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := filepath.Ext(entry.Name())
		if !m.supported(ext) {
			continue
		}

		path := filepath.Join(m.topicsDir, entry.Name())
		content, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		name := strings.TrimSuffix(entry.Name(), ext)
		m.topics[name] = &Topic{Name: name, FilePath: path, Content: string(content)}
	}
	return nil
}

func (m *Manager) supported(ext string) bool {
	for _, valid := range m.extensions {
		if ext == valid {
			return true
		}
	}
	return false
}

// Get retrieves a topic by name. Flag spellings (--foo) resolve to the
// plain topic name or to an option-foo page.
func (m *Manager) Get(name string) (*Topic, bool) {
	name = strings.TrimPrefix(name, "--")
	name = strings.TrimPrefix(name, "-")

	if topic, ok := m.topics[name]; ok {
		return topic, true
	}
	topic, ok := m.topics["option-"+name]
	return topic, ok
}

// List returns all topic names, sorted.
func (m *Manager) List() []string {
	names := make([]string, 0, len(m.topics))
	for name := range m.topics {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Render formats one topic for display.
func (m *Manager) Render(topic *Topic) string {
	return m.renderer.Render(topic.Content, filepath.Ext(topic.FilePath))
}

// Install wires the topic system into a root command: a custom help
// command that understands topics, and a help function that consults
// them before falling back to Cobra's own. The returned manager lets
// callers build further topic-aware commands.
func Install(rootCmd *cobra.Command, topicsDir string, opts Options) (*Manager, error) {
	m := NewManager(topicsDir, opts)
	if err := m.load(); err != nil {
		return nil, fmt.Errorf("failed to load help topics: %w", err)
	}

	m.originalHelp = rootCmd.HelpFunc()

	helpCmd := &cobra.Command{
		Use:   "help [command or topic]",
		Short: "Help about any command or topic",
		Long: "Help provides help for any command or topic.\n" +
			"Type " + rootCmd.Name() + " help [command or topic] for full details.\n\n" +
			"To see all available help topics:\n  " + rootCmd.Name() + " help topics",
		ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
			completions := []string{"topics"}
			for _, c := range rootCmd.Commands() {
				if !c.Hidden {
					completions = append(completions, c.Name())
				}
			}
			completions = append(completions, m.List()...)
			return completions, cobra.ShellCompDirectiveNoFileComp
		},
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) == 0 {
				m.originalHelp(rootCmd, nil)
				return
			}
			if args[0] == "topics" {
				fmt.Print(m.renderTopicList(rootCmd.Name()))
				return
			}
			if topic, ok := m.Get(args[0]); ok {
				fmt.Print(m.Render(topic))
				return
			}
			m.originalHelp(rootCmd, args)
		},
	}

	for _, cmd := range rootCmd.Commands() {
		if cmd.Name() == "help" {
			rootCmd.RemoveCommand(cmd)
			break
		}
	}
	rootCmd.AddCommand(helpCmd)

	// --help also consults topics, so `popctl --help sources` works
	rootCmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		if len(args) > 0 {
			if topic, ok := m.Get(args[0]); ok {
				fmt.Print(m.Render(topic))
				return
			}
		}
		m.originalHelp(cmd, args)
	})

	return m, nil
}

// RenderTopicList formats the list of available topics.
func (m *Manager) RenderTopicList(appName string) string {
	return m.renderTopicList(appName)
}

func (m *Manager) renderTopicList(appName string) string {
	names := m.List()
	if len(names) == 0 {
		return "No help topics available.\n"
	}

	var b strings.Builder
	b.WriteString("Available help topics:\n")
	for _, name := range names {
		b.WriteString("  " + name + "\n")
	}
	b.WriteString("\nUse '" + appName + " help <topic>' to read about a specific topic.\n")
	return b.String()
}
