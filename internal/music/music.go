// Package music transposes chords and ChordPro-style charts between keys.
package music

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrUnknownKey is returned for a key or chord root that is not a note name.
var ErrUnknownKey = errors.New("unknown key")

var (
	sharpNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}
	flatNames  = [12]string{"C", "Db", "D", "Eb", "E", "F", "Gb", "G", "Ab", "A", "Bb", "B"}

	semitones = map[string]int{
		"C": 0, "B#": 0,
		"C#": 1, "Db": 1,
		"D":  2,
		"D#": 3, "Eb": 3,
		"E": 4, "Fb": 4,
		"F": 5, "E#": 5,
		"F#": 6, "Gb": 6,
		"G":  7,
		"G#": 8, "Ab": 8,
		"A":  9,
		"A#": 10, "Bb": 10,
		"B": 11, "Cb": 11,
	}

	// Major keys conventionally written with flats, plus the relative minors
	// of those keys (matched on the tonic after stripping "m").
	flatMajors = map[string]bool{"F": true, "Bb": true, "Eb": true, "Ab": true, "Db": true, "Gb": true, "Cb": true}
	flatMinors = map[string]bool{"D": true, "G": true, "C": true, "F": true, "Bb": true, "Eb": true, "Ab": true}

	keyPattern   = regexp.MustCompile(`^([A-G][#b]?)(m|min|minor)?$`)
	chordPattern = regexp.MustCompile(`^([A-G][#b]?)([^/]*)(?:/([A-G][#b]?))?$`)
	bracketChord = regexp.MustCompile(`\[([^\]]+)\]`)
)

// Key is a parsed musical key.
type Key struct {
	Tonic string
	Minor bool
}

func (k Key) String() string {
	if k.Minor {
		return k.Tonic + "m"
	}
	return k.Tonic
}

// PrefersFlats reports whether chords in this key are spelled with flats.
func (k Key) PrefersFlats() bool {
	if k.Minor {
		return flatMinors[k.Tonic]
	}
	return flatMajors[k.Tonic]
}

// ParseKey reads "G", "Bb", "F#m", "C minor".
func ParseKey(s string) (Key, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), " ", "")
	m := keyPattern.FindStringSubmatch(s)
	if m == nil {
		return Key{}, fmt.Errorf("%w: %q", ErrUnknownKey, s)
	}
	return Key{Tonic: m[1], Minor: m[2] != ""}, nil
}

// IsKey reports whether s parses as a key.
func IsKey(s string) bool {
	_, err := ParseKey(s)
	return err == nil
}

// SemitonesBetween returns the upward shift in [0, 11] from one key to another.
// Enharmonic spellings are equal and the minor flag is ignored, so Am to Cm is 3.
func SemitonesBetween(from, to string) (int, error) {
	f, err := ParseKey(from)
	if err != nil {
		return 0, err
	}
	t, err := ParseKey(to)
	if err != nil {
		return 0, err
	}
	return mod12(semitones[t.Tonic] - semitones[f.Tonic]), nil
}

// TransposeNote shifts a single note name.
func TransposeNote(note string, steps int, flats bool) (string, error) {
	n, ok := semitones[note]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownKey, note)
	}
	idx := mod12(n + steps)
	if flats {
		return flatNames[idx], nil
	}
	return sharpNames[idx], nil
}

// TransposeChord shifts a chord's root and slash bass, keeping its quality.
// "G7sus4/B" up 2 with sharps is "A7sus4/C#".
func TransposeChord(chord string, steps int, flats bool) (string, error) {
	m := chordPattern.FindStringSubmatch(chord)
	if m == nil {
		return "", fmt.Errorf("%w: chord %q", ErrUnknownKey, chord)
	}
	root, err := TransposeNote(m[1], steps, flats)
	if err != nil {
		return "", err
	}
	out := root + m[2]
	if m[3] != "" {
		bass, err := TransposeNote(m[3], steps, flats)
		if err != nil {
			return "", err
		}
		out += "/" + bass
	}
	return out, nil
}

// TransposeChart rewrites a chart from one key to another. Bracketed chords
// ([G], [D/F#]) are rewritten anywhere; lines made up only of chord tokens are
// rewritten token by token. Lyric lines are left alone, as is anything that
// does not parse as a chord.
func TransposeChart(chart, from, to string) (string, error) {
	steps, err := SemitonesBetween(from, to)
	if err != nil {
		return "", err
	}
	target, _ := ParseKey(to)
	flats := target.PrefersFlats()

	lines := strings.Split(chart, "\n")
	for i, line := range lines {
		if isChordLine(line) {
			lines[i] = transposeChordLine(line, steps, flats)
			continue
		}
		lines[i] = bracketChord.ReplaceAllStringFunc(line, func(tok string) string {
			inner := tok[1 : len(tok)-1]
			moved, err := TransposeChord(inner, steps, flats)
			if err != nil {
				return tok
			}
			return "[" + moved + "]"
		})
	}
	return strings.Join(lines, "\n"), nil
}

// isChordLine reports whether every whitespace separated token is a chord.
// ChordPro directives ({title: ...}) never count.
func isChordLine(line string) bool {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || strings.HasPrefix(trimmed, "{") || strings.Contains(trimmed, "[") {
		return false
	}
	for _, tok := range strings.Fields(trimmed) {
		if tok == "|" || tok == "-" {
			continue
		}
		if !chordPattern.MatchString(tok) || !plausibleQuality(tok) {
			return false
		}
	}
	return true
}

// plausibleQuality rejects lyric words that happen to start with A-G, such as
// "Amazing" or "Born".
func plausibleQuality(tok string) bool {
	m := chordPattern.FindStringSubmatch(tok)
	quality := strings.ToLower(m[2])
	for _, word := range []string{"maj", "min", "sus", "dim", "aug", "add", "m", "7", "9", "11", "13", "6", "5", "2", "4", "+", "°", "ø", "(", ")", "b", "#"} {
		quality = strings.ReplaceAll(quality, word, "")
	}
	for _, r := range quality {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// transposeChordLine rewrites chord tokens in place, padding or trimming the
// following whitespace so later chords stay over the same lyric syllable.
func transposeChordLine(line string, steps int, flats bool) string {
	var b strings.Builder
	debt := 0
	i := 0
	for i < len(line) {
		if line[i] == ' ' || line[i] == '\t' {
			// Swallow a space owed by a longer chord, never the last one before the next token.
			if debt > 0 && line[i] == ' ' && i+1 < len(line) && line[i+1] == ' ' {
				debt--
			} else {
				b.WriteByte(line[i])
			}
			i++
			continue
		}
		j := i
		for j < len(line) && line[j] != ' ' && line[j] != '\t' {
			j++
		}
		tok := line[i:j]
		moved, err := TransposeChord(tok, steps, flats)
		if err != nil {
			moved = tok
		}
		b.WriteString(moved)
		if d := len(moved) - len(tok); d > 0 {
			debt += d
		} else if d < 0 {
			b.WriteString(strings.Repeat(" ", -d))
		}
		i = j
	}
	return b.String()
}

func mod12(n int) int {
	return ((n % 12) + 12) % 12
}
