package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/cockroachdb/errors"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	dsscaffold "github.com/AidanDelaney/dsscaffold/pkg"
	"github.com/AidanDelaney/dsscaffold/pkg/layout"
)

const (
	pathFlag      = "path"
	templateFlag  = "template"
	reportFlag    = "report"
	forceFlag     = "force"
	gitFlag       = "git"
	configDirFlag = "config-dir"
	authorFlag    = "author"
	emailFlag     = "email"
	verboseFlag   = "verbose"

	commitMessageKey = "commit_message"
	configFile       = "config.toml"
	envPrefix        = "DSSCAFFOLD"
)

// NewRootCommand builds the dsscaffold command tree. Every call returns an
// independent command with its own configuration.
func NewRootCommand() *cobra.Command {
	v := viper.New()
	var bindErr error

	cmd := &cobra.Command{
		Use:   "dsscaffold project-name",
		Short: "A data science project generation tool",
		Long: `dsscaffold creates a new project folder from a folder template.

Templates are read from templates.toml, templates.yaml or the templates/
directory of the configuration directory; the built-in template is called
"default".`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if bindErr != nil {
				return bindErr
			}
			return loadConfig(v)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return create(cmd, v, args[0])
		},
	}

	cmd.Flags().StringP(pathFlag, "p", "", "create the project in the provided folder (default: working directory)")
	cmd.Flags().StringP(templateFlag, "t", layout.DefaultName, "name of the template to use")
	cmd.Flags().StringP(reportFlag, "r", dsscaffold.ReportMarkdown.Extension(), "report file to add to the reports folder: tex, md, pptx or qmd")
	cmd.Flags().BoolP(forceFlag, "f", false, "write into an existing, non-empty project folder")
	cmd.Flags().Bool(gitFlag, true, "initialize a git repository and commit the generated files")
	cmd.Flags().String(authorFlag, "", "author name for templates and the initial commit")
	cmd.Flags().String(emailFlag, "", "author email for templates and the initial commit")
	cmd.PersistentFlags().String(configDirFlag, dsscaffold.DefaultConfigDirectory(), "configuration directory holding config.toml and templates")
	cmd.PersistentFlags().BoolP(verboseFlag, "v", false, "log every created file")

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	v.SetDefault(commitMessageKey, dsscaffold.DefaultCommitMessage)
	bindErr = errors.CombineErrors(
		errors.Wrap(v.BindPFlags(cmd.Flags()), "cannot bind flags"),
		errors.Wrap(v.BindPFlags(cmd.PersistentFlags()), "cannot bind persistent flags"),
	)

	cmd.AddCommand(newTemplatesCommand(v))
	return cmd
}

// loadConfig merges config.toml from the configuration directory, when it
// exists, below flags and environment variables.
func loadConfig(v *viper.Viper) error {
	file := filepath.Join(v.GetString(configDirFlag), configFile)
	_, err := os.Stat(file)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return errors.Wrapf(err, "cannot read %s", file)
	}
	v.SetConfigFile(file)
	return errors.Wrapf(v.ReadInConfig(), "cannot read %s", file)
}

func newLogger(cmd *cobra.Command, v *viper.Viper) *log.Logger {
	level := log.InfoLevel
	if v.GetBool(verboseFlag) {
		level = log.DebugLevel
	}
	return log.NewWithOptions(cmd.ErrOrStderr(), log.Options{
		Level:  level,
		Prefix: dsscaffold.AppName,
	})
}

// ensureConfigDir creates the configuration directory when it is missing.
func ensureConfigDir(dir string, logger *log.Logger) error {
	if _, err := osfs.Default.Stat(dir); err == nil {
		return nil
	}
	if err := osfs.Default.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrapf(err, "cannot create config folder %s", dir)
	}
	logger.Info("created config folder", "path", dir)
	return nil
}

func create(cmd *cobra.Command, v *viper.Viper, name string) error {
	logger := newLogger(cmd, v)

	configDir := v.GetString(configDirFlag)
	if err := ensureConfigDir(configDir, logger); err != nil {
		return err
	}

	tree, err := dsscaffold.ResolveTemplate(osfs.New(configDir), v.GetString(templateFlag), logger)
	if err != nil {
		return err
	}

	kind, err := dsscaffold.ParseReportKind(v.GetString(reportFlag))
	if err != nil {
		return err
	}

	dest := v.GetString(pathFlag)
	if dest == "" {
		if dest, err = os.Getwd(); err != nil {
			return errors.Wrap(err, "cannot determine working directory")
		}
	}

	settings := dsscaffold.NewSettings(name,
		dsscaffold.WithDestination(dest),
		dsscaffold.WithTemplate(tree),
		dsscaffold.WithReportKind(kind),
		dsscaffold.WithForce(v.GetBool(forceFlag)),
		dsscaffold.WithVersionControl(v.GetBool(gitFlag)),
		dsscaffold.WithConfigDirectory(configDir),
		dsscaffold.WithAuthor(v.GetString(authorFlag), v.GetString(emailFlag)),
		dsscaffold.WithCommitMessage(v.GetString(commitMessageKey)),
	)

	generator := dsscaffold.NewGenerator(dsscaffold.WithLogger(logger))
	_, err = generator.Generate(cmd.Context(), settings)
	return err
}

func newTemplatesCommand(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "templates",
		Short: "List the available templates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			names, err := dsscaffold.ListTemplates(osfs.New(v.GetString(configDirFlag)))
			if err != nil {
				return err
			}
			for _, name := range names {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
}

// Execute executes the root command and reports errors, with their hints,
// on stderr.
func Execute() error {
	root := NewRootCommand()
	err := root.Execute()
	if err != nil {
		fmt.Fprintf(root.ErrOrStderr(), "Error: %v\n", err)
		for _, hint := range errors.GetAllHints(err) {
			fmt.Fprintf(root.ErrOrStderr(), "Hint: %s\n", hint)
		}
	}
	return err
}
