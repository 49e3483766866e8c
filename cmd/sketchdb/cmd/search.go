package cmd

import (
	"encoding/csv"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/shenwei356/sketchdb/collection"
	"github.com/shenwei356/sketchdb/hasher"
	searchpkg "github.com/shenwei356/sketchdb/search"
)

// searchCmd implements spec §4.6 search(query, collection, threshold,
// kind) over one or more prebuilt collection files, fanned out via the
// search package's bounded worker pool, mirroring the teacher's
// db-search.go multi-index query loop.
var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "search one or more collections for matches to a query signature",
	Run: func(cmd *cobra.Command, args []string) {
		opt := getOptions(cmd)
		if len(args) < 2 {
			checkError(fmt.Errorf("usage: sketchdb search [flags] <query.sig> <db1> [db2 ...]"))
		}
		queryFile := args[0]
		dbFiles := args[1:]

		ksize := getFlagPositiveInt(cmd, "ksize")
		moltype, err := hasher.ParseMolType(getFlagString(cmd, "moltype"))
		checkError(err)
		threshold := getFlagFloat64(cmd, "threshold")

		var kind collection.Kind
		switch getFlagString(cmd, "measure") {
		case "jaccard":
			kind = collection.Jaccard
		case "containment":
			kind = collection.Containment
		case "max_containment":
			kind = collection.MaxContainment
		default:
			checkError(fmt.Errorf("unknown --measure"))
		}

		_, query := loadQuerySketch(queryFile, ksize, moltype)

		cols := make([]collection.Collection, 0, len(dbFiles))
		for _, f := range dbFiles {
			col, err := openCollection(f)
			checkError(err)
			cols = append(cols, col)
		}

		results, err := searchpkg.Search(query, cols, threshold, kind, opt.NumCPUs)
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

		cw := csv.NewWriter(outfh)
		checkError(cw.Write([]string{"similarity", "name", "filename", "md5"}))
		for _, m := range results {
			checkError(cw.Write([]string{
				strconv.FormatFloat(m.Measure, 'g', -1, 64),
				m.Signature.Name,
				m.Signature.Filename,
				m.Signature.MD5(0),
			}))
		}
		cw.Flush()
		checkError(cw.Error())

		if opt.Verbose {
			log.Infof("%d match(es) found", len(results))
		}
	},
}

func init() {
	RootCmd.AddCommand(searchCmd)

	searchCmd.Flags().IntP("ksize", "k", 21, "query k-mer size")
	searchCmd.Flags().StringP("moltype", "m", "DNA", "query molecule type")
	searchCmd.Flags().Float64P("threshold", "t", 0.08, "minimum measure to report")
	searchCmd.Flags().StringP("measure", "", "jaccard", "jaccard, containment, max_containment")
	searchCmd.Flags().StringP("out-file", "o", "-", `out file ("-" for stdout)`)
}
