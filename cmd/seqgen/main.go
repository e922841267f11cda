// Command seqgen builds the sequence list the server draws from. The count
// pass writes a sequence,frequency CSV for a word list; the filter pass keeps
// the sequences common enough to play.
package main

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"github.com/DoyleJ11/wordbomb-backend/internal/dictionary"
)

func newCountCmd() *cobra.Command {
	var words, out string
	var lengths []int

	cmd := &cobra.Command{
		Use:   "count",
		Short: "Count every sequence of the given lengths in a word list",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			list, err := dictionary.ReadLines(words)
			if err != nil {
				return err
			}
			counts := dictionary.CountSequences(list, lengths)

			err = withOutput(cmd, out, func(w io.Writer) error {
				return dictionary.WriteFrequencies(w, counts)
			})
			if err == nil {
				cmd.PrintErrf("%d words, %d distinct sequences\n", len(list), len(counts))
			}
			return err
		},
	}

	fs := cmd.Flags()
	fs.StringVar(&words, "words", "resources/valid_words.txt", "newline-delimited word list")
	fs.StringVarP(&out, "out", "o", "-", "CSV destination, - for stdout")
	fs.IntSliceVar(&lengths, "lengths", dictionary.DefaultLengths, "sequence lengths to count")
	return cmd
}

func newFilterCmd() *cobra.Command {
	var in, out string
	var threshold int

	cmd := &cobra.Command{
		Use:   "filter",
		Short: "Keep sequences whose frequency meets the threshold",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := os.Open(in)
			if err != nil {
				return err
			}
			counts, err := dictionary.ReadFrequencies(f)
			f.Close()
			if err != nil {
				return fmt.Errorf("read %s: %w", in, err)
			}

			kept := dictionary.FilterSequences(counts, threshold)
			err = withOutput(cmd, out, func(w io.Writer) error {
				bw := bufio.NewWriter(w)
				for _, s := range kept {
					fmt.Fprintln(bw, s)
				}
				return bw.Flush()
			})
			if err == nil {
				cmd.PrintErrf("kept %d of %d sequences (threshold %d)\n", len(kept), len(counts), threshold)
			}
			return err
		},
	}

	fs := cmd.Flags()
	fs.StringVar(&in, "in", "valid_words_analysis.csv", "CSV written by the count pass")
	fs.StringVarP(&out, "out", "o", "resources/sequences_300.txt", "sequence list destination, - for stdout")
	fs.IntVar(&threshold, "threshold", dictionary.DefaultThreshold, "minimum frequency kept")
	return cmd
}

// withOutput runs write against path, or the command's stdout for "-".
func withOutput(cmd *cobra.Command, path string, write func(io.Writer) error) (err error) {
	if path == "-" {
		return write(cmd.OutOrStdout())
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, f.Close()) }()
	return write(f)
}

func main() {
	root := &cobra.Command{
		Use:           "seqgen",
		Short:         "Generate playable letter sequences from a word list",
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	root.CompletionOptions.HiddenDefaultCmd = true
	root.AddCommand(newCountCmd(), newFilterCmd())

	if err := root.Execute(); err != nil {
		root.PrintErrln("Error:", err)
		os.Exit(1)
	}
}
