package cmd

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/shenwei356/sketchdb/hasher"
	"github.com/shenwei356/sketchdb/manifest"
	"github.com/shenwei356/sketchdb/picklist"
)

// manifestCmd implements spec §4.4 manifest filter(predicate),
// composing the --ksize/--moltype/--scaled/--num/--with-abundance
// equality predicates and an optional --picklist file.
var manifestCmd = &cobra.Command{
	Use:   "manifest",
	Short: "filter a manifest catalog by sketch attributes or a picklist",
	Run: func(cmd *cobra.Command, args []string) {
		opt := getOptions(cmd)
		if len(args) != 1 {
			checkError(fmt.Errorf("usage: sketchdb manifest [flags] <manifest.csv>"))
		}

		m, err := manifest.Load(args[0])
		checkError(err)
		before := m.Len()

		if cmd.Flags().Changed("ksize") {
			m = m.Filter(manifest.KsizeEquals(getFlagInt(cmd, "ksize")))
		}
		if cmd.Flags().Changed("moltype") {
			mt, err := hasher.ParseMolType(getFlagString(cmd, "moltype"))
			checkError(err)
			m = m.Filter(manifest.MoltypeEquals(mt))
		}
		if cmd.Flags().Changed("scaled") {
			m = m.Filter(manifest.ScaledEquals(getFlagUint64(cmd, "scaled")))
		}
		if cmd.Flags().Changed("num") {
			m = m.Filter(manifest.NumEquals(getFlagUint64(cmd, "num")))
		}
		if cmd.Flags().Changed("with-abundance") {
			m = m.Filter(manifest.WithAbundance(getFlagBool(cmd, "with-abundance")))
		}

		plFile := getFlagString(cmd, "picklist")
		if plFile != "" {
			col, err := picklist.ParseColumn(getFlagString(cmd, "picklist-column"))
			checkError(err)
			pl, err := picklist.Load(col, plFile)
			checkError(err)
			m = m.Filter(manifest.ByPicklist(pl))
		}

		outFile := getFlagString(cmd, "out-file")
		checkError(manifest.Save(m, outFile))

		if opt.Verbose {
			log.Infof("%s of %s row(s) kept", humanize.Comma(int64(m.Len())), humanize.Comma(int64(before)))
		}
	},
}

func init() {
	RootCmd.AddCommand(manifestCmd)

	manifestCmd.Flags().IntP("ksize", "k", 0, "keep only rows at this k-mer size")
	manifestCmd.Flags().StringP("moltype", "m", "", "keep only rows at this molecule type")
	manifestCmd.Flags().Uint64P("scaled", "s", 0, "keep only rows at this scaled value")
	manifestCmd.Flags().Uint64P("num", "n", 0, "keep only rows at this num value")
	manifestCmd.Flags().Bool("with-abundance", false, "keep only rows that do (or do not) track abundance")
	manifestCmd.Flags().StringP("picklist", "", "", "picklist file of keys to keep")
	manifestCmd.Flags().StringP("picklist-column", "", "name", "picklist column: name, ident, identprefix, md5, md5prefix8, md5short")
	manifestCmd.Flags().StringP("out-file", "o", "-", `out file ("-" for stdout)`)
}
