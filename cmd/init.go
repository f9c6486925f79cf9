package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/gnolang/astrule/internal/config"
)

var initForce bool

// starterRules is the rule document written by init.
const starterRules = `# Rules are matched against every syntax node of a Go file.
# Names starting with an upper-case letter are reported by default.
rules:
  PanicCall:
    is(CallExpr):
      Fun:
        is(Ident):
          Name: '="panic"'
      Args: $args
  AddZero:
    is(BinaryExpr):
      Op: '="+"'
      Y:
        is(BasicLit):
          Value: =0
`

// configFile mirrors config.Config with the timeout spelled as a duration.
type configFile struct {
	Spec     string             `yaml:"spec"`
	Include  []string           `yaml:"include"`
	Exclude  []string           `yaml:"exclude"`
	Select   string             `yaml:"select"`
	Unselect string             `yaml:"unselect,omitempty"`
	Timeout  string             `yaml:"timeout"`
	Severity map[string]string  `yaml:"severity"`
	Cache    config.CacheConfig `yaml:"cache"`
}

// initCmd: astrule init
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a starter configuration file and rule document",
	Args:  cobra.NoArgs,
	// the configuration may not exist yet
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setupLogger()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		path := cfgFile
		if path == "" {
			path = config.FileName
		}
		created, err := initConfigurationFile(path, initForce)
		if err != nil {
			logger.Error("Error initializing config file", zap.Error(err))
			return err
		}
		for _, file := range created {
			fmt.Fprintf(cmd.OutOrStdout(), "Created: %s\n", file)
		}
		return nil
	},
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite existing files")
}

// initConfigurationFile writes the default configuration to configurationPath
// and a starter rule document next to it. Existing files are kept unless
// force is set. It returns the files written.
func initConfigurationFile(configurationPath string, force bool) ([]string, error) {
	defaults := config.Default()
	d, err := yaml.Marshal(configFile{
		Spec:     defaults.Spec,
		Include:  defaults.Include,
		Exclude:  defaults.Exclude,
		Select:   defaults.Select,
		Unselect: defaults.Unselect,
		Timeout:  defaults.Timeout.String(),
		Severity: map[string]string{"AddZero": "warning"},
		Cache:    defaults.Cache,
	})
	if err != nil {
		return nil, errors.Wrap(err, "marshaling configuration")
	}

	var created []string
	for _, f := range []struct {
		path string
		data []byte
	}{
		{configurationPath, d},
		{filepath.Join(filepath.Dir(configurationPath), defaults.Spec), []byte(starterRules)},
	} {
		if !force {
			if _, err := os.Stat(f.path); err == nil {
				continue
			}
		}
		if err := os.WriteFile(f.path, f.data, 0o644); err != nil {
			return nil, errors.Wrapf(err, "writing %s", f.path)
		}
		created = append(created, f.path)
	}
	return created, nil
}
