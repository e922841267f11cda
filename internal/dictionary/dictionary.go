package dictionary

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var ErrEmptyWordList = errors.New("word list is empty")
var ErrEmptySequencePool = errors.New("sequence pool is empty")

// Normalize folds a word or sequence to the canonical form used for every
// comparison: surrounding whitespace removed, upper case.
func Normalize(s string) string {
	// Casers are stateful; one per call.
	return cases.Upper(language.Und).String(strings.TrimSpace(s))
}

// Dictionary is the read-only word set and sequence pool. It is built once
// at startup and shared without locking.
type Dictionary struct {
	words     map[string]struct{}
	sequences []string
	pick      func(n int) int
}

type Options struct {
	MinSequence int
	MaxSequence int
	// Pick returns a value in [0, n). Defaults to math/rand/v2.IntN.
	Pick func(n int) int
}

func New(words, sequences []string, opts Options) (*Dictionary, error) {
	d := &Dictionary{
		words: make(map[string]struct{}, len(words)),
		pick:  opts.Pick,
	}
	if d.pick == nil {
		d.pick = rand.IntN
	}

	for _, w := range words {
		w = Normalize(w)
		if w == "" {
			continue
		}
		d.words[w] = struct{}{}
	}
	if len(d.words) == 0 {
		return nil, ErrEmptyWordList
	}

	seen := make(map[string]bool, len(sequences))
	for _, s := range sequences {
		s = Normalize(s)
		if s == "" || seen[s] || !inRange(utf8.RuneCountInString(s), opts.MinSequence, opts.MaxSequence) {
			continue
		}
		seen[s] = true
		d.sequences = append(d.sequences, s)
	}
	if len(d.sequences) == 0 {
		return nil, ErrEmptySequencePool
	}

	return d, nil
}

func inRange(n, lo, hi int) bool {
	if lo > 0 && n < lo {
		return false
	}
	if hi > 0 && n > hi {
		return false
	}
	return true
}

// Load builds a Dictionary from the newline-delimited word and sequence files.
func Load(wordsPath, sequencesPath string, opts Options) (*Dictionary, error) {
	words, err := ReadLines(wordsPath)
	if err != nil {
		return nil, fmt.Errorf("load words: %w", err)
	}
	seqs, err := ReadLines(sequencesPath)
	if err != nil {
		return nil, fmt.Errorf("load sequences: %w", err)
	}
	return New(words, seqs, opts)
}

func ReadLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Lines(f)
}

// Lines returns the non-blank, trimmed lines of r.
func Lines(r io.Reader) ([]string, error) {
	var out []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		out = append(out, line)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Contains reports whether word (in any case) is a valid dictionary word.
func (d *Dictionary) Contains(word string) bool {
	_, ok := d.words[Normalize(word)]
	return ok
}

func (d *Dictionary) RandomSequence() string {
	return d.sequences[d.pick(len(d.sequences))]
}

func (d *Dictionary) Len() int { return len(d.words) }

func (d *Dictionary) Sequences() []string {
	out := make([]string, len(d.sequences))
	copy(out, d.sequences)
	return out
}
