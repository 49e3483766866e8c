package cmd

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/shenwei356/sketchdb/collection"
	"github.com/shenwei356/sketchdb/signature"
)

// indexCmd builds a persisted Collection from a set of signature
// files, mirroring the teacher's db-index.go command that turns a
// batch of .unik files into one searchable index file.
var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "build a searchable collection from signature files",
}

var indexBuildCmd = &cobra.Command{
	Use:   "build",
	Short: "build a linear, SBT or inverted-index collection",
	Run: func(cmd *cobra.Command, args []string) {
		opt := getOptions(cmd)
		files := getFileListFromArgsAndFile(cmd, args, true, "infile-list")

		kind := getFlagString(cmd, "kind")
		outFile := getFlagString(cmd, "out-file")

		sigs := make([]*signature.Signature, 0, len(files))
		locations := make([]string, 0, len(files))
		for _, file := range files {
			sig, err := signature.Load(file)
			checkError(err)
			sigs = append(sigs, sig)
			locations = append(locations, file)
		}
		if opt.Verbose {
			log.Infof("loaded %d signature(s)", len(sigs))
		}

		var col collection.Collection
		var err error
		switch kind {
		case "linear":
			col = collection.NewLinear(sigs, locations)
		case "sbt":
			targetFP := getFlagFloat64(cmd, "target-fp")
			col, err = collection.BuildSBT(sigs, locations, targetFP)
			checkError(err)
		case "inverted":
			scaled := getFlagUint64(cmd, "scaled")
			col, err = collection.NewInvertedIndex(scaled, sigs, locations)
			checkError(err)
		default:
			checkError(fmt.Errorf("unknown --kind %q: want linear, sbt or inverted", kind))
		}

		checkError(col.Save(outFile))
		if opt.Verbose {
			log.Infof("%s signature(s) indexed to %s, file size: %s",
				humanize.Comma(int64(col.Len())), outFile, fileSizeString(outFile))
		}
	},
}

func init() {
	RootCmd.AddCommand(indexCmd)
	indexCmd.AddCommand(indexBuildCmd)

	indexBuildCmd.Flags().StringP("kind", "k", "linear", "linear, sbt or inverted")
	indexBuildCmd.Flags().StringP("out-file", "o", "db.zip", "output collection file")
	indexBuildCmd.Flags().Float64P("target-fp", "", 0.01, "SBT internal-node Bloom filter target false-positive rate")
	indexBuildCmd.Flags().Uint64P("scaled", "s", 1000, "inverted-index scaled value (all signatures must carry a sketch at this scaled)")
}
