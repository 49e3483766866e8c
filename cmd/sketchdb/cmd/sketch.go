package cmd

import (
	"fmt"
	"io"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/shenwei356/bio/seq"
	"github.com/shenwei356/bio/seqio/fastx"
	"github.com/spf13/cobra"

	"github.com/shenwei356/sketchdb/hasher"
	"github.com/shenwei356/sketchdb/signature"
	"github.com/shenwei356/sketchdb/sketch"
)

// sketchCmd builds one signature per input FASTA/Q file, following the
// teacher's count.go per-file fastx.Reader loop, generalized to emit
// sketch.Sketch values instead of raw unikmer codes.
var sketchCmd = &cobra.Command{
	Use:   "sketch",
	Short: "build sketches from FASTA/FASTQ sequence files",
	Long: `build sketches from FASTA/FASTQ sequence files

Each input file produces one signature, carrying one sketch per
requested k-mer size. In num mode the sketch retains the num smallest
hashes; in scaled mode it retains every hash below 2^64/scaled.
`,
	Run: func(cmd *cobra.Command, args []string) {
		opt := getOptions(cmd)
		runtime.GOMAXPROCS(opt.NumCPUs)
		seq.ValidateSeq = false

		files := getFileListFromArgsAndFile(cmd, args, true, "infile-list")

		ksizes := parseIntList(getFlagString(cmd, "ksizes"))
		if len(ksizes) == 0 {
			checkError(fmt.Errorf("at least one -k/--ksizes value required"))
		}

		moltype, err := hasher.ParseMolType(getFlagString(cmd, "moltype"))
		checkError(err)

		num := getFlagUint64(cmd, "num")
		scaled := getFlagUint64(cmd, "scaled")
		if num > 0 {
			scaled = 0 // --num takes precedence over the default --scaled
		}
		if num == 0 && scaled == 0 {
			checkError(fmt.Errorf("one of --num/--scaled must be nonzero"))
		}
		trackAbundance := getFlagBool(cmd, "track-abundance")
		translate := getFlagBool(cmd, "translate")

		outPrefix := getFlagString(cmd, "out-prefix")
		name := getFlagString(cmd, "name")

		for _, file := range files {
			if opt.Verbose {
				log.Infof("building sketch for %s", file)
			}

			sketches := make([]*sketch.Sketch, 0, len(ksizes))
			for _, k := range ksizes {
				var sk *sketch.Sketch
				if num > 0 {
					sk = sketch.NewNum(k, moltype, hasher.DefaultSeed, num, trackAbundance)
				} else {
					sk = sketch.NewScaled(k, moltype, hasher.DefaultSeed, scaled, trackAbundance)
				}
				sketches = append(sketches, sk)
			}

			fastxReader, err := fastx.NewDefaultReader(file)
			checkError(err)
			for {
				record, err := fastxReader.Read()
				if err != nil {
					if err == io.EOF {
						break
					}
					checkError(err)
					break
				}
				for _, sk := range sketches {
					var addErr error
					switch {
					case moltype == hasher.DNA:
						addErr = sk.AddSequence(record.Seq.Seq, true)
					case translate:
						addErr = sk.AddTranslatedDNA(record.Seq.Seq)
					default:
						addErr = sk.AddProtein(record.Seq.Seq)
					}
					if addErr != nil && opt.Verbose {
						log.Warningf("%s: %s", file, addErr)
					}
				}
			}

			sigName := name
			if sigName == "" {
				sigName = strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))
			}
			sig := signature.New(sigName, file, sketches...)

			outFile := outPrefix
			if len(files) > 1 || outFile == "" || outFile == "-" {
				if outFile == "" || outFile == "-" {
					outFile = filepath.Base(file)
				}
				outFile = strings.TrimSuffix(outFile, filepath.Ext(outFile)) + ".sig"
			}
			checkError(signature.Save(sig, outFile, opt.Compress, opt.CompressionLevel))
			if opt.Verbose {
				log.Infof("saved %s, file size: %s", outFile, fileSizeString(outFile))
			}
		}
	},
}

func init() {
	RootCmd.AddCommand(sketchCmd)

	sketchCmd.Flags().StringP("ksizes", "k", "21", "comma-separated k-mer sizes")
	sketchCmd.Flags().StringP("moltype", "m", "DNA", "molecule type: DNA, protein, dayhoff, hp")
	sketchCmd.Flags().Uint64P("num", "n", 0, "num-mode capacity (mutually exclusive with --scaled)")
	sketchCmd.Flags().Uint64P("scaled", "s", 1000, "scaled-mode denominator (mutually exclusive with --num)")
	sketchCmd.Flags().BoolP("track-abundance", "a", false, "track hash abundance")
	sketchCmd.Flags().BoolP("translate", "t", false, "six-frame translate DNA input before hashing (requires --moltype protein/dayhoff/hp semantics on the translated residues)")
	sketchCmd.Flags().StringP("out-prefix", "o", "", `output file ("-"/empty picks <basename>.sig per input file)`)
	sketchCmd.Flags().StringP("name", "", "", "signature name (default: input file basename)")
}

func parseIntList(s string) []int {
	var out []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		v, err := strconv.Atoi(part)
		checkError(err)
		out = append(out, v)
	}
	return out
}
