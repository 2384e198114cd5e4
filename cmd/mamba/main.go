// Package main provides the mamba CLI for the type registry, CSR matrices
// and the routine library.
package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mamba-ml/mamba/internal/config"
	"github.com/mamba-ml/mamba/internal/ctype"
	"github.com/mamba-ml/mamba/internal/driver"
	"github.com/mamba-ml/mamba/internal/sparse"
)

const version = "v0.1.0-dev"

var (
	// Global flags
	configPath string
	verbose    bool
	libDir     string

	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "mamba",
	Short: "Marshal numeric data for foreign sparse linear algebra routines",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		if libDir != "" {
			cfg.Library.Dir = libDir
		}
		logger, err = cfg.Logging.Logger(verbose)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "mamba %s\n", version)
	},
}

var typesCmd = &cobra.Command{
	Use:   "types",
	Short: "List registered numeric kinds and their fixed-width types",
	RunE: func(cmd *cobra.Command, args []string) error {
		reg := ctype.Default()
		for _, k := range reg.Kinds() {
			d, err := reg.Resolve(k)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%-10s %-8s %d bytes %s\n", k, d, d.Size(), d.Class())
		}
		return nil
	},
}

var scratchCmd = &cobra.Command{
	Use:   "scratch <n>",
	Short: "Print the GMRES scratch buffer length for a problem of order n",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("order %q: %w", args[0], err)
		}
		length, err := driver.ScratchLength(n)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), length)
		return nil
	},
}

var locateCmd = &cobra.Command{
	Use:   "locate",
	Short: "Resolve the routine library path",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := driver.FindLibrary(cfg.Library.Name, cfg.Library.Dir)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), path)
		return nil
	},
}

var probeCmd = &cobra.Command{
	Use:   "probe [symbol...]",
	Short: "Load the routine library and resolve symbols",
	RunE: func(cmd *cobra.Command, args []string) error {
		lib, err := driver.Open(cfg.Library.Name, cfg.Library.Dir, logger)
		if err != nil {
			return err
		}
		defer lib.Close()

		symbols := args
		if len(symbols) == 0 {
			symbols = []string{"dgmres_init", "dcsrilu0"}
		}

		var missing []string
		for _, s := range symbols {
			if _, err := lib.Symbol(s); err != nil {
				logger.Warn("symbol not resolved", zap.String("symbol", s), zap.Error(err))
				missing = append(missing, s)
				continue
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: ok\n", s)
		}
		if len(missing) > 0 {
			return fmt.Errorf("%d of %d symbols missing from %s: %w",
				len(missing), len(symbols), lib.Path(), driver.ErrForeignCall)
		}
		return nil
	},
}

var configForce bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the configuration file",
}

var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write the default configuration",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := configPath
		if len(args) == 1 {
			path = args[0]
		}
		if _, err := os.Stat(path); err == nil && !configForce {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
		if err := config.DefaultConfig().Save(path); err != nil {
			return err
		}
		logger.Debug("wrote config", zap.String("path", path))
		fmt.Fprintln(cmd.OutOrStdout(), path)
		return nil
	},
}

var (
	matValues  []float64
	matIndices []int
	matIndPtr  []int
	matOffset  int
)

func addMatrixFlags(cmd *cobra.Command) {
	cmd.Flags().Float64SliceVar(&matValues, "values", nil, "stored values")
	cmd.Flags().IntSliceVar(&matIndices, "indices", nil, "column indices in the external origin")
	cmd.Flags().IntSliceVar(&matIndPtr, "indptr", nil, "row pointers in the external origin")
	cmd.Flags().IntVar(&matOffset, "offset", 1, "external index origin (overrides matrix.offset)")
}

func matrixFromFlags(cmd *cobra.Command) (*sparse.Adapter, error) {
	offset := cfg.Matrix.Offset
	if cmd.Flags().Changed("offset") {
		offset = matOffset
	}
	return sparse.FromRaw(matValues, matIndices, matIndPtr, sparse.WithOffset(offset))
}

var inspectCmd = &cobra.Command{
	Use:     "inspect",
	Short:   "Show a CSR matrix in both index origins",
	Example: `  mamba inspect --values 4,1,3 --indices 1,2,2 --indptr 1,3,4`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := matrixFromFlags(cmd)
		if err != nil {
			return err
		}
		rowPtr, err := a.ExternalRowPointers()
		if err != nil {
			return err
		}
		colIdx, err := a.ExternalColumnIndices()
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "order   %d\n", a.N())
		fmt.Fprintf(out, "nnz     %d\n", a.NNZ())
		fmt.Fprintf(out, "offset  %d\n", a.Offset())
		fmt.Fprintf(out, "values  %v\n", a.Values())
		fmt.Fprintf(out, "indptr  %s %v native %v\n", rowPtr.Descriptor(), rowPtr.Int64s(), a.NativeRowPointers())
		fmt.Fprintf(out, "indices %s %v native %v\n", colIdx.Descriptor(), colIdx.Int64s(), a.NativeColumnIndices())
		return nil
	},
}

var iluCmd = &cobra.Command{
	Use:     "ilu",
	Short:   "Compute the ILU(0) factor of a CSR matrix with the routine library",
	Example: `  mamba ilu --values 4,1,3 --indices 1,2,2 --indptr 1,3,4 --lib-dir /opt/intel/mkl/lib`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := matrixFromFlags(cmd)
		if err != nil {
			return err
		}

		lib, err := driver.Open(cfg.Library.Name, cfg.Library.Dir, logger)
		if err != nil {
			return err
		}
		mkl := driver.NewMKL(lib, logger)
		defer mkl.Close()

		lu, err := mkl.ILU(a, nil)
		if err != nil {
			return err
		}
		logger.Debug("ilu0 done", zap.Int("n", lu.N()), zap.Int("nnz", lu.NNZ()))
		fmt.Fprintln(cmd.OutOrStdout(), lu.Values())
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "mamba.yaml", "configuration file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&libDir, "lib-dir", "", "directory holding the routine library")

	configInitCmd.Flags().BoolVarP(&configForce, "force", "f", false, "overwrite an existing file")
	configCmd.AddCommand(configInitCmd)

	addMatrixFlags(inspectCmd)
	addMatrixFlags(iluCmd)

	rootCmd.AddCommand(versionCmd, typesCmd, scratchCmd, locateCmd, probeCmd, inspectCmd, iluCmd, configCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
