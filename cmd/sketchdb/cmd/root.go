package cmd

import (
	"fmt"
	"os"
	"runtime"

	"github.com/klauspost/cpuid"
	"github.com/spf13/cobra"
)

// RootCmd represents the base command when called without any subcommands.
var RootCmd = &cobra.Command{
	Use:   "sketchdb",
	Short: "Genomic sketch, compare, search and gather toolkit",
	Long: `sketchdb - genomic similarity sketching and gather toolkit

A command-line toolkit for building MinHash/FracMinHash sketches of DNA
or protein sequences, comparing and searching collections of them, and
decomposing a query against a reference database via greedy min-set-cover
gather.

Author: Wei Shen <shenwei356@gmail.com>
`,
	// PersistentPreRun logs detected CPU features once per invocation
	// in verbose mode, the same hardware-diagnostics line the teacher's
	// main.go prints before any subcommand work starts.
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if getFlagBool(cmd, "verbose") {
			log.Infof("detected CPU: %s, %d physical core(s), %d logical core(s), AVX2: %v",
				cpuid.CPU.BrandName, cpuid.CPU.PhysicalCores, cpuid.CPU.LogicalCores, cpuid.CPU.AVX2())
		}
	},
}

// Execute adds all child commands to the root command and sets flags
// appropriately. Called once by main.main.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	defaultThreads := runtime.NumCPU()
	if defaultThreads > 2 {
		defaultThreads = 2
	}

	RootCmd.PersistentFlags().IntP("threads", "j", defaultThreads, "number of CPUs to use")
	RootCmd.PersistentFlags().BoolP("verbose", "", false, "print verbose information")
	RootCmd.PersistentFlags().BoolP("no-compress", "C", false, "do not gzip-compress output files")
	RootCmd.PersistentFlags().IntP("compression-level", "", 6, "gzip compression level")
	RootCmd.PersistentFlags().StringP("infile-list", "i", "", "file of input files list (one per line); overrides CLI arguments")
}
