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

// prefetchCmd implements spec §4.6 prefetch(query, collection,
// threshold_bp), writing the spec §6.6 CSV schema.
var prefetchCmd = &cobra.Command{
	Use:   "prefetch",
	Short: "list every reference with estimated overlap at or above threshold_bp",
	Run: func(cmd *cobra.Command, args []string) {
		opt := getOptions(cmd)
		if len(args) < 2 {
			checkError(fmt.Errorf("usage: sketchdb prefetch [flags] <query.sig> <db1> [db2 ...]"))
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
		rows, err := gather.BuildPrefetchRows(query, candidates)
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
		checkError(gather.WritePrefetchCSV(outfh, rows, qinfo))

		if opt.Verbose {
			log.Infof("%s candidate(s) prefetched", humanize.Comma(int64(len(rows))))
		}
	},
}

func init() {
	RootCmd.AddCommand(prefetchCmd)

	prefetchCmd.Flags().IntP("ksize", "k", 21, "query k-mer size")
	prefetchCmd.Flags().StringP("moltype", "m", "DNA", "query molecule type")
	prefetchCmd.Flags().Uint64P("threshold-bp", "t", gather.DefaultThresholdBP, "minimum estimated overlap in bp")
	prefetchCmd.Flags().StringP("out-file", "o", "-", `out file ("-" for stdout)`)
}
