package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	logger "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/rios0rios0/upgradecheck/application"
	"github.com/rios0rios0/upgradecheck/config"
	"github.com/rios0rios0/upgradecheck/domain"
)

//nolint:gochecknoglobals // required by cobra CLI pattern
var (
	manifestPath string
	targetFlag   string
	preFlag      bool
	peerFlag     bool
	minimalFlag  bool
	registryFlag string
)

//nolint:gochecknoglobals // required by cobra CLI pattern
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Resolve available upgrades for a manifest",
	Long: `Read a package.json manifest, fetch registry metadata for every
declared dependency, and print the rewritten version ranges that
newer versions would produce, as JSON.`,
	RunE: runCheck,
}

//nolint:gochecknoinits // required by cobra CLI pattern
func init() {
	checkCmd.Flags().StringVarP(
		&manifestPath, "file", "f", "package.json",
		"Path to the manifest to check",
	)
	checkCmd.Flags().StringVarP(
		&targetFlag, "target", "t", "",
		"Target policy (latest, greatest, newest, minor, patch, range)",
	)
	checkCmd.Flags().BoolVar(&preFlag, "pre", false, "Include prerelease versions")
	checkCmd.Flags().BoolVar(&peerFlag, "peer", false, "Honor peer-dependency constraints")
	checkCmd.Flags().BoolVar(&minimalFlag, "minimal", false, "Report only unsatisfied upgrades")
	checkCmd.Flags().StringVar(&registryFlag, "registry", "", "Registry variant (npm, yarn)")
	rootCmd.AddCommand(checkCmd)
}

// checkOutput is the JSON shape handed to whatever consumes the run.
type checkOutput struct {
	Upgraded         map[string]string            `json:"upgraded"`
	Latest           map[string]string            `json:"latest"`
	PeerDependencies map[string]map[string]string `json:"peerDependencies,omitempty"`
	Errors           map[string]string            `json:"errors,omitempty"`
}

func runCheck(_ *cobra.Command, _ []string) error {
	if verbose {
		logger.SetLevel(logger.DebugLevel)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyFlags(cfg)

	content, err := os.ReadFile(manifestPath)
	if err != nil {
		return fmt.Errorf("failed to read manifest %q: %w", manifestPath, err)
	}

	deps, err := application.ParseManifest(string(content))
	if err != nil {
		return err
	}
	logger.Infof("Checking %d dependencies from %s", len(deps), manifestPath)

	service, err := injectUpgradeService(cfg)
	if err != nil {
		return err
	}

	result, err := service.Resolve(context.Background(), deps, cfg, nil)
	if err != nil {
		return err
	}

	logCandidates(result)

	return printResult(result)
}

// loadConfig uses the explicit --config path when given, falls back to
// auto-discovery, and defaults when no file exists.
func loadConfig() (*config.Config, error) {
	path := configPath
	if path == "" {
		found, findErr := config.FindConfigFile()
		if findErr != nil {
			return config.Default(), nil
		}
		path = found
	}

	logger.Debugf("Using config file: %s", path)
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

func applyFlags(cfg *config.Config) {
	if targetFlag != "" {
		cfg.Target = targetFlag
	}
	if preFlag {
		cfg.Pre = true
	}
	if peerFlag {
		cfg.Peer = true
	}
	if minimalFlag {
		cfg.Minimal = true
	}
	if registryFlag != "" {
		cfg.Registry = registryFlag
	}
}

// logCandidates reports each upgrade with its change direction, since a
// lagging dist-tag can propose a version below the declared base.
func logCandidates(result *domain.Result) {
	for _, cand := range result.Candidates {
		newRange, upgraded := result.Upgraded[cand.Name]
		if !upgraded {
			continue
		}
		direction := "downgrade"
		if cand.CurrentRange == "" || domain.IsNewerVersion(trimOperator(cand.CurrentRange), cand.Version) {
			direction = "upgrade"
		}
		logger.Infof("  %s: %s -> %s (%s)", cand.Name, cand.CurrentRange, newRange, direction)
	}
}

func trimOperator(rangeStr string) string {
	r, err := domain.ParseRange(rangeStr)
	if err != nil || r.Version == nil {
		return rangeStr
	}
	return r.Version.Original()
}

func printResult(result *domain.Result) error {
	out := checkOutput{
		Upgraded:         result.Upgraded,
		Latest:           result.Latest,
		PeerDependencies: result.PeerDependencies,
	}
	if len(result.Errors) > 0 {
		out.Errors = make(map[string]string, len(result.Errors))
		for name, resolveErr := range result.Errors {
			out.Errors[name] = resolveErr.Error()
		}
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return errors.New("failed to encode result")
	}
	fmt.Println(string(data))
	return nil
}
