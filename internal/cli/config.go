package cli

import (
	"os"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	rxrerrors "github.com/matzehuels/rxrprep/pkg/errors"
)

// Config is the optional --config file. Explicit flags take precedence over
// it, and it takes precedence over built-in defaults.
//
//	[landmarks]
//	inputs = ["rxr_landmarks_val_seen_guide.jsonl.gz"]
//	outdir = "landmarks"
//	max_dim = 300
//	format = "png"
//	skybox_dir = "data/v1/scans"
//
//	[vizargs]
//	data_dir = "rxr_data"
//	split = "rxr_val_seen"
type Config struct {
	Landmarks LandmarksConfig `toml:"landmarks"`
	Vizargs   VizargsConfig   `toml:"vizargs"`
}

// LandmarksConfig holds defaults for the landmarks command.
type LandmarksConfig struct {
	Inputs    []string `toml:"inputs"`
	OutDir    string   `toml:"outdir"`
	MaxDim    int      `toml:"max_dim"`
	Format    string   `toml:"format"`
	SkyboxDir string   `toml:"skybox_dir"`
}

// VizargsConfig holds defaults for the vizargs command.
type VizargsConfig struct {
	DataDir         string `toml:"data_dir"`
	MeshDir         string `toml:"mesh_dir"`
	ConnectivityDir string `toml:"connectivity_dir"`
	Split           string `toml:"split"`
	ArgsFile        string `toml:"args_file"`
	ScanToMeshFile  string `toml:"scan_to_mesh_file"`
}

// LoadConfig reads a TOML config file. Unknown keys are rejected so typos do
// not silently fall back to defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, rxrerrors.WrapFile(rxrerrors.ErrCodeInvalidConfig, err, path)
	}
	var cfg Config
	md, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return nil, rxrerrors.Wrap(rxrerrors.ErrCodeInvalidConfig, err, "parse %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		sort.Strings(keys)
		return nil, rxrerrors.New(rxrerrors.ErrCodeInvalidConfig, "%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	return &cfg, nil
}

// overrideString sets *dst to value when the flag was not given explicitly.
func overrideString(cmd *cobra.Command, flag string, dst *string, value string) {
	if value != "" && !cmd.Flags().Changed(flag) {
		*dst = value
	}
}

func overrideInt(cmd *cobra.Command, flag string, dst *int, value int) {
	if value != 0 && !cmd.Flags().Changed(flag) {
		*dst = value
	}
}
