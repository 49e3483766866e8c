package cmd

import (
	"bufio"
	"compress/flate"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/shenwei356/go-logging"
	"github.com/shenwei356/util/bytesize"
	"github.com/shenwei356/util/pathutil"
	"github.com/spf13/cobra"

	"github.com/shenwei356/sketchdb/iostreams"
)

var log = logging.MustGetLogger("sketchdb")

// Options holds the persistent, global flags shared by every
// subcommand, following the teacher's Options/getOptions(cmd) split
// between flag parsing and command bodies.
type Options struct {
	NumCPUs          int
	Verbose          bool
	Compress         bool
	CompressionLevel int
}

func getOptions(cmd *cobra.Command) *Options {
	level := getFlagInt(cmd, "compression-level")
	if level < flate.HuffmanOnly || level > flate.BestCompression {
		checkError(fmt.Errorf("gzip: invalid compression level: %d", level))
	}
	return &Options{
		NumCPUs:          getFlagPositiveInt(cmd, "threads"),
		Verbose:          getFlagBool(cmd, "verbose"),
		Compress:         !getFlagBool(cmd, "no-compress"),
		CompressionLevel: level,
	}
}

// checkError prints a fatal error and exits, the teacher's one
// check-and-die idiom used at every command's I/O boundary instead of
// propagating errors back up through cobra.
func checkError(err error) {
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

func getFlagString(cmd *cobra.Command, flag string) string {
	s, err := cmd.Flags().GetString(flag)
	checkError(err)
	return s
}

func getFlagStringSlice(cmd *cobra.Command, flag string) []string {
	s, err := cmd.Flags().GetStringSlice(flag)
	checkError(err)
	return s
}

func getFlagBool(cmd *cobra.Command, flag string) bool {
	b, err := cmd.Flags().GetBool(flag)
	checkError(err)
	return b
}

func getFlagInt(cmd *cobra.Command, flag string) int {
	i, err := cmd.Flags().GetInt(flag)
	checkError(err)
	return i
}

func getFlagPositiveInt(cmd *cobra.Command, flag string) int {
	i := getFlagInt(cmd, flag)
	if i <= 0 {
		checkError(fmt.Errorf("value of flag --%s should be > 0", flag))
	}
	return i
}

func getFlagNonNegativeInt(cmd *cobra.Command, flag string) int {
	i := getFlagInt(cmd, flag)
	if i < 0 {
		checkError(fmt.Errorf("value of flag --%s should be >= 0", flag))
	}
	return i
}

func getFlagUint64(cmd *cobra.Command, flag string) uint64 {
	v, err := cmd.Flags().GetUint64(flag)
	checkError(err)
	return v
}

func getFlagFloat64(cmd *cobra.Command, flag string) float64 {
	f, err := cmd.Flags().GetFloat64(flag)
	checkError(err)
	return f
}

// isStdin/isStdout/inStream/outStream wrap the iostreams package's
// gzip-transparent helpers, renamed to match the teacher's
// util-io.go call sites used throughout every command body.
func isStdin(file string) bool  { return iostreams.IsStdin(file) }
func isStdout(file string) bool { return iostreams.IsStdout(file) }

func inStream(file string) (*bufio.Reader, *os.File, error) {
	return iostreams.InStream(file)
}

func outStream(file string, gzipped bool, level int) (*bufio.Writer, io.WriteCloser, *os.File, error) {
	return iostreams.OutStream(file, gzipped, level)
}

// getFileListFromArgsAndFile mirrors the teacher's file-list resolution:
// args from the command line, or one-per-line from the --infile-list
// file if given; "-" alone means stdin.
func getFileListFromArgsAndFile(cmd *cobra.Command, args []string, checkNonEmpty bool, listFlag string) []string {
	var files []string
	listFile := getFlagString(cmd, listFlag)
	if listFile != "" {
		br, f, err := inStream(listFile)
		checkError(err)
		defer f.Close()
		scanner := bufio.NewScanner(br)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}
			files = append(files, line)
		}
		checkError(scanner.Err())
	} else {
		files = args
	}

	if len(files) == 0 {
		if checkNonEmpty {
			files = []string{"-"}
		}
	}

	for _, file := range files {
		if isStdin(file) {
			continue
		}
		ok, err := pathutil.Exists(file)
		checkError(err)
		if !ok {
			checkError(fmt.Errorf("file not found: %s", file))
		}
	}
	return files
}

// fileSizeString reports the on-disk size of an output file for
// verbose logging, the way the teacher's db-index.go logs
// "file size: %s" via bytesize.ByteSize after writing an index.
func fileSizeString(file string) string {
	if isStdout(file) {
		return "-"
	}
	fi, err := os.Stat(file)
	if err != nil {
		return "?"
	}
	return bytesize.ByteSize(fi.Size()).String()
}
