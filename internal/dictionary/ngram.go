package dictionary

import (
	"encoding/csv"
	"fmt"
	"io"
	"slices"
	"strconv"
)

// DefaultLengths are the n-gram sizes counted by the sequence generator.
var DefaultLengths = []int{2, 3, 4}

// DefaultThreshold is the minimum frequency for a sequence to be kept.
const DefaultThreshold = 300

// CountSequences counts every run of the given number of letters across
// words. Words are normalized first so counts are case-insensitive.
func CountSequences(words []string, lengths []int) map[string]int {
	counts := make(map[string]int)
	for _, w := range words {
		letters := []rune(Normalize(w))
		for i := range letters {
			for _, n := range lengths {
				if i+n <= len(letters) {
					counts[string(letters[i:i+n])]++
				}
			}
		}
	}
	return counts
}

// WriteFrequencies writes "sequence,frequency" rows sorted by sequence.
func WriteFrequencies(w io.Writer, counts map[string]int) error {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	cw := csv.NewWriter(w)
	for _, k := range keys {
		if err := cw.Write([]string{k, strconv.Itoa(counts[k])}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func ReadFrequencies(r io.Reader) (map[string]int, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = 2
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int, len(rows))
	for i, row := range rows {
		n, err := strconv.Atoi(row[1])
		if err != nil {
			return nil, fmt.Errorf("row %d: bad frequency %q: %w", i+1, row[1], err)
		}
		counts[row[0]] = n
	}
	return counts, nil
}

// FilterSequences returns the sorted sequences whose frequency is at least threshold.
func FilterSequences(counts map[string]int, threshold int) []string {
	var out []string
	for seq, n := range counts {
		if n >= threshold {
			out = append(out, seq)
		}
	}
	slices.Sort(out)
	return out
}
