package cmd

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/shenwei356/sketchdb/collection"
	"github.com/shenwei356/sketchdb/gather"
	"github.com/shenwei356/sketchdb/hasher"
	searchpkg "github.com/shenwei356/sketchdb/search"
)

// gatherCmd implements spec §4.7: prefetch to assemble candidates,
// then run the greedy min-set-cover decomposition, writing the
// spec §6.5 CSV schema.
var gatherCmd = &cobra.Command{
	Use:   "gather",
	Short: "decompose a query into a minimal covering set of references",
	Run: func(cmd *cobra.Command, args []string) {
		opt := getOptions(cmd)
		if len(args) < 2 {
			checkError(fmt.Errorf("usage: sketchdb gather [flags] <query.sig> <db1> [db2 ...]"))
		}
		queryFile := args[0]
		dbFiles := args[1:]

		ksize := getFlagPositiveInt(cmd, "ksize")
		moltype, err := hasher.ParseMolType(getFlagString(cmd, "moltype"))
		checkError(err)
		thresholdBP := getFlagUint64(cmd, "threshold-bp")

		querySig, query := loadQuerySketch(queryFile, ksize, moltype)

		cols := make([]collection.Collection, 0, len(dbFiles))
		for _, f := range dbFiles {
			col, err := openCollection(f)
			checkError(err)
			cols = append(cols, col)
		}

		matches, err := searchpkg.Prefetch(query, cols, thresholdBP, opt.NumCPUs)
		checkError(err)

		candidates := gather.FromMatches(matches, query)
		results, err := gather.Run(query, candidates, thresholdBP)
		checkError(err)

		outFile := getFlagString(cmd, "out-file")
		outfh, gw, w, err := outStream(outFile, opt.Compress, opt.CompressionLevel)
		checkError(err)
		defer func() {
			outfh.Flush()
			if gw != nil {
				gw.Close()
			}
			w.Close()
		}()

		qinfo := gather.QueryInfo{
			Filename: querySig.Filename,
			Name:     querySig.Name,
			MD5:      querySig.MD5(0),
			BP:       uint64(query.Len()) * query.Scaled,
		}
		checkError(gather.WriteGatherCSV(outfh, results, qinfo))

		if opt.Verbose {
			log.Infof("%s result(s) in gather decomposition", humanize.Comma(int64(len(results))))
		}
	},
}

func init() {
	RootCmd.AddCommand(gatherCmd)

	gatherCmd.Flags().IntP("ksize", "k", 21, "query k-mer size")
	gatherCmd.Flags().StringP("moltype", "m", "DNA", "query molecule type")
	gatherCmd.Flags().Uint64P("threshold-bp", "t", gather.DefaultThresholdBP, "stop gathering once remaining overlap with every candidate falls below this")
	gatherCmd.Flags().StringP("out-file", "o", "-", `out file ("-" for stdout)`)
}
