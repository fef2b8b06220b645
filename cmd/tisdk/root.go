package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cast"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ZebulonRouseFrantzich/tisdk/internal/config"
	"github.com/ZebulonRouseFrantzich/tisdk/internal/install"
	"github.com/ZebulonRouseFrantzich/tisdk/internal/logging"
	"github.com/ZebulonRouseFrantzich/tisdk/internal/platform"
)

const envPrefix = "TISDK"

// cli holds what every subcommand shares: the layered settings and the
// output streams.
type cli struct {
	v      *viper.Viper
	stdout io.Writer
	stderr io.Writer

	// detector is replaced in tests.
	detector platform.Detector
}

// app is the loaded state a subcommand works with.
type app struct {
	cfg      *config.Config
	info     *platform.Info
	manager  *install.Manager
	logger   logging.Logger
	out      io.Writer
	format   outputFormat
	verbose  bool
	cfgPath  string
	cfgFound bool
}

// run executes the command line and returns the process exit code.
func run(args []string, stdout, stderr io.Writer) int {
	return newCLI(stdout, stderr).run(args)
}

func (c *cli) run(args []string) int {
	root := c.newRootCmd()
	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(c.stderr, formatError(err, c.v.GetBool("verbose")))
		return 1
	}
	return 0
}

func newCLI(stdout, stderr io.Writer) *cli {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	return &cli{v: v, stdout: stdout, stderr: stderr, detector: platform.NewDetector()}
}

func (c *cli) newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "tisdk",
		Short: "Install and manage Titanium SDKs",
		Long: `tisdk resolves a Titanium SDK release, CI build, URL or local archive,
downloads it and installs it together with any modules it bundles.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(c.stdout)
	root.SetErr(c.stderr)

	flags := root.PersistentFlags()
	flags.String("config", "", "config file (default $TISDK_CONFIG_DIR/config.lua or ~/.tisdk/config.lua)")
	flags.BoolP("verbose", "v", false, "enable debug logging")
	flags.StringP("output", "o", string(formatText), "output format: text, json or yaml")
	flags.String("install-dir", "", "install SDKs into this directory")

	for key, flag := range map[string]string{
		"config":               "config",
		"verbose":              "verbose",
		"output":               "output",
		"sdk.install_location": "install-dir",
	} {
		// Only fails for a nil flag.
		_ = c.v.BindPFlag(key, flags.Lookup(flag))
	}

	root.AddCommand(
		c.newInstallCmd(),
		c.newUninstallCmd(),
		c.newListCmd(),
		c.newModulesCmd(),
		c.newLocationsCmd(),
		c.newReleasesCmd(),
		c.newBranchesCmd(),
		c.newBuildsCmd(),
		c.newWatchCmd(),
		c.newVersionCmd(),
		c.newConfigCmd(),
	)
	return root
}

// configPath returns the --config value, or the default location.
func (c *cli) configPath() (string, error) {
	if p := c.v.GetString("config"); p != "" {
		return config.ExpandPath(p)
	}
	return config.DefaultPath()
}

// load parses the Lua config, layers flags and TISDK_* variables over it
// and builds the Manager.
func (c *cli) load(ctx context.Context) (*app, error) {
	format, err := parseFormat(c.v.GetString("output"))
	if err != nil {
		return nil, err
	}
	verbose := c.v.GetBool("verbose")
	logger := logging.New(c.stderr, verbose)

	info, err := c.detector.Detect(ctx)
	if err != nil {
		return nil, fmt.Errorf("detect platform: %w", err)
	}
	logger.Debug("detected platform", "os", info.Name, "arch", info.KernelArch, "bits", info.Bits)

	path, err := c.configPath()
	if err != nil {
		return nil, err
	}
	cfg, err := config.NewParser(platform.NewStatic(*info)).ParseFile(ctx, path)
	if err != nil {
		return nil, err
	}
	found := fileExists(path)
	logger.Debug("loaded config", "path", path, "found", found)

	if err := c.layer(cfg); err != nil {
		return nil, err
	}
	cfg, err = cfg.Expanded()
	if err != nil {
		return nil, err
	}

	return &app{
		cfg:  cfg,
		info: info,
		manager: install.NewManager(install.Options{
			Config:   cfg,
			Platform: info,
			Logger:   logger,
		}),
		logger:   logger,
		out:      c.stdout,
		format:   format,
		verbose:  verbose,
		cfgPath:  path,
		cfgFound: found,
	}, nil
}

// layer applies flag and environment overrides to cfg. Values from the Lua
// file become viper defaults, so an unset flag or variable keeps them.
func (c *cli) layer(cfg *config.Config) error {
	v := c.v
	v.SetDefault("sdk.install_location", cfg.SDK.InstallLocation)
	v.SetDefault("sdk.search_paths", cfg.SDK.SearchPaths)
	v.SetDefault("modules.install_location", cfg.Modules.InstallLocation)
	v.SetDefault("network.releases_url", cfg.Network.ReleasesURL)
	v.SetDefault("network.branches_url", cfg.Network.BranchesURL)
	v.SetDefault("network.builds_url", cfg.Network.BuildsURL)
	v.SetDefault("network.timeout", cfg.Network.Timeout)
	v.SetDefault("network.user_agent", cfg.Network.UserAgent)
	v.SetDefault("downloads.dir", cfg.Downloads.Dir)
	v.SetDefault("locks.dir", cfg.Locks.Dir)

	cfg.SDK.InstallLocation = v.GetString("sdk.install_location")
	cfg.SDK.SearchPaths = v.GetStringSlice("sdk.search_paths")
	cfg.Modules.InstallLocation = v.GetString("modules.install_location")
	cfg.Network.ReleasesURL = v.GetString("network.releases_url")
	cfg.Network.BranchesURL = v.GetString("network.branches_url")
	cfg.Network.BuildsURL = v.GetString("network.builds_url")
	timeout, err := durationSeconds(v, "network.timeout")
	if err != nil {
		return err
	}
	cfg.Network.Timeout = timeout
	cfg.Network.UserAgent = v.GetString("network.user_agent")
	cfg.Downloads.Dir = v.GetString("downloads.dir")
	cfg.Locks.Dir = v.GetString("locks.dir")

	if err := cfg.Validate(); err != nil {
		var verr *config.ValidationError
		if errors.As(err, &verr) {
			return &config.ParseError{Message: "invalid setting " + verr.Field, Detail: verr.Message}
		}
		return err
	}
	return nil
}

// durationSeconds reads key as a duration. A bare number counts seconds, as
// it does in the Lua file; anything else needs a unit ("90s", "2m").
func durationSeconds(v *viper.Viper, key string) (time.Duration, error) {
	raw := v.Get(key)
	if d, ok := raw.(time.Duration); ok {
		return d, nil
	}
	if secs, err := cast.ToFloat64E(raw); err == nil {
		return time.Duration(secs * float64(time.Second)), nil
	}
	d, err := cast.ToDurationE(raw)
	if err != nil {
		return 0, &config.ParseError{Message: "invalid setting " + key, Detail: err.Error()}
	}
	return d, nil
}
