package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/rxrprep/pkg/rxr"
	"github.com/matzehuels/rxrprep/pkg/vizargs"
)

// vizargsOpts holds the command-line flags for the vizargs command.
type vizargsOpts struct {
	dataDir         string
	meshDir         string
	connectivityDir string
	split           string
	instructionID   int64
	argsFile        string
	scanToMeshFile  string
}

// vizargsCommand creates the vizargs command for building viewer args.
func (c *CLI) vizargsCommand() *cobra.Command {
	opts := vizargsOpts{
		dataDir:         vizargs.DefaultDataDir,
		meshDir:         vizargs.DefaultMeshDir,
		connectivityDir: vizargs.DefaultConnectivityDir,
		split:           vizargs.DefaultSplit,
		argsFile:        vizargs.DefaultArgsFile,
		scanToMeshFile:  vizargs.DefaultScanToMeshFile,
	}

	cmd := &cobra.Command{
		Use:   "vizargs",
		Short: "Build the args bundle for the pose-trace viewer",
		Long: `Build the args bundle for the pose-trace viewer.

Looks up one guide annotation in {data-dir}/{split}_guide.jsonl.gz (the
first one unless --instruction-id is given) and writes it to --args-file
with its pose trace, the scan's connectivity graph and the mesh URL
appended. Nothing is written if any input is missing.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c.applyVizargsConfig(cmd, &opts)
			split, err := rxr.ParseSplit(opts.split)
			if err != nil {
				return err
			}
			var id *int64
			if cmd.Flags().Changed("instruction-id") {
				id = &opts.instructionID
			}
			return c.runVizargs(cmd.Context(), vizargs.Options{
				DataDir:         opts.dataDir,
				MeshDir:         opts.meshDir,
				ConnectivityDir: opts.connectivityDir,
				Split:           split,
				InstructionID:   id,
				ArgsFile:        opts.argsFile,
				ScanToMeshFile:  opts.scanToMeshFile,
				Logger:          c.Logger,
			})
		},
	}

	cmd.Flags().StringVar(&opts.dataDir, "data-dir", opts.dataDir, "RxR data directory")
	cmd.Flags().StringVar(&opts.meshDir, "mesh-dir", opts.meshDir, "Matterport3D mesh root, local path or bucket URL")
	cmd.Flags().StringVar(&opts.connectivityDir, "connectivity-dir", opts.connectivityDir, "directory of {scan}_connectivity.json files")
	cmd.Flags().StringVar(&opts.split, "split", opts.split, "dataset split: "+joinSplits())
	cmd.Flags().Int64Var(&opts.instructionID, "instruction-id", 0, "instruction to export (default: first in split)")
	cmd.Flags().StringVar(&opts.argsFile, "args-file", opts.argsFile, "output args file")
	cmd.Flags().StringVar(&opts.scanToMeshFile, "scan-to-mesh-file", opts.scanToMeshFile, "JSON map from scan id to mesh id")

	_ = cmd.RegisterFlagCompletionFunc("split", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return rxr.SplitFileNames(), cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

func (c *CLI) applyVizargsConfig(cmd *cobra.Command, opts *vizargsOpts) {
	cfg := c.settings().Vizargs
	overrideString(cmd, "data-dir", &opts.dataDir, cfg.DataDir)
	overrideString(cmd, "mesh-dir", &opts.meshDir, cfg.MeshDir)
	overrideString(cmd, "connectivity-dir", &opts.connectivityDir, cfg.ConnectivityDir)
	overrideString(cmd, "split", &opts.split, cfg.Split)
	overrideString(cmd, "args-file", &opts.argsFile, cfg.ArgsFile)
	overrideString(cmd, "scan-to-mesh-file", &opts.scanToMeshFile, cfg.ScanToMeshFile)
}

// runVizargs builds and writes the bundle.
func (c *CLI) runVizargs(ctx context.Context, opts vizargs.Options) error {
	prog := newProgress(c.Logger)
	b, err := vizargs.Run(ctx, opts)
	if err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Built args for instruction %d", b.InstructionID))

	printSuccess("Wrote args for instruction %d", b.InstructionID)
	printKeyValue("scan", b.Scan)
	printKeyValue("pose frames", fmt.Sprint(b.Frames))
	printFile(opts.ArgsFile)
	return nil
}

func joinSplits() string {
	names := rxr.SplitFileNames()
	s := names[0] + " (default)"
	for _, n := range names[1:] {
		s += ", " + n
	}
	return s
}
