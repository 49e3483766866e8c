package cmd

import (
	"encoding/csv"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/shenwei356/sketchdb/sketch"
	"github.com/shenwei356/sketchdb/signature"
)

// compareCmd loads every input signature and emits an all-vs-all
// similarity matrix, generalizing the teacher's common.go pairwise
// reduction loop from one-shot k-mer intersection to the comparison
// algebra of sketch.Jaccard/ContainedBy/MaxContainment.
var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "compute an all-vs-all similarity matrix over signatures",
	Run: func(cmd *cobra.Command, args []string) {
		opt := getOptions(cmd)
		files := getFileListFromArgsAndFile(cmd, args, true, "infile-list")

		ksize := getFlagPositiveInt(cmd, "ksize")
		measureName := getFlagString(cmd, "measure")

		sigs := make([]*signature.Signature, 0, len(files))
		sketches := make([]*sketch.Sketch, 0, len(files))
		for _, file := range files {
			sig, err := signature.Load(file)
			checkError(err)
			var found *sketch.Sketch
			for _, sk := range sig.Sketches {
				if sk.Ksize == ksize {
					found = sk
					break
				}
			}
			if found == nil {
				checkError(fmt.Errorf("%s: no sketch at ksize=%d", file, ksize))
			}
			sigs = append(sigs, sig)
			sketches = append(sketches, found)
		}

		measure := func(a, b *sketch.Sketch) (float64, error) {
			switch measureName {
			case "jaccard":
				return sketch.Jaccard(a, b)
			case "containment":
				return sketch.ContainedBy(a, b)
			case "max_containment":
				return sketch.MaxContainment(a, b)
			case "angular":
				return sketch.AngularSimilarity(a, b)
			default:
				return 0, fmt.Errorf("unknown --measure %q", measureName)
			}
		}

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
		header := make([]string, 0, len(sigs)+1)
		header = append(header, "")
		for _, s := range sigs {
			header = append(header, s.Name)
		}
		checkError(cw.Write(header))

		for i := range sketches {
			row := make([]string, 0, len(sketches)+1)
			row = append(row, sigs[i].Name)
			for j := range sketches {
				val, err := measure(sketches[i], sketches[j])
				if err != nil {
					if opt.Verbose {
						log.Warningf("%s vs %s: %s", sigs[i].Name, sigs[j].Name, err)
					}
					row = append(row, "")
					continue
				}
				row = append(row, strconv.FormatFloat(val, 'g', -1, 64))
			}
			checkError(cw.Write(row))
		}
		cw.Flush()
		checkError(cw.Error())
	},
}

func init() {
	RootCmd.AddCommand(compareCmd)

	compareCmd.Flags().IntP("ksize", "k", 21, "k-mer size to compare at")
	compareCmd.Flags().StringP("measure", "", "jaccard", "jaccard, containment, max_containment, angular")
	compareCmd.Flags().StringP("out-file", "o", "-", `out file ("-" for stdout)`)
}
