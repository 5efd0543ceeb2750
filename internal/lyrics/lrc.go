// Package lyrics parses LRC lyrics and tracks the line under the playhead.
package lyrics

import (
	"bufio"
	"cmp"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"
)

// Line is one timed lyric line with its translation, if any.
type Line struct {
	Time        time.Duration
	Text        string
	Translation string
}

// Lyrics holds parsed lines sorted by time.
type Lyrics struct {
	Lines  []Line
	Title  string
	Artist string
	Album  string
}

var (
	// [mm:ss], [mm:ss.xx], [mm:ss.xxx] and the [mm:ss:xx] variant.
	timestampRe = regexp.MustCompile(`\[(\d+):(\d+)(?:[.:](\d{1,3}))?\]`)

	metadataRe = regexp.MustCompile(`^\[([a-zA-Z]+):(.*)\]$`)
)

// Parse reads LRC text. Lines without a timestamp are dropped, a line
// with several timestamps is repeated at each of them, and an [offset:]
// tag shifts every line. An empty result means the text carried no timed
// lines.
func Parse(text string) *Lyrics {
	l := &Lyrics{}
	var offset time.Duration

	sc := bufio.NewScanner(strings.NewReader(text))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}

		if meta := metadataRe.FindStringSubmatch(line); meta != nil {
			value := strings.TrimSpace(meta[2])
			switch strings.ToLower(meta[1]) {
			case "ar":
				l.Artist = value
			case "ti":
				l.Title = value
			case "al":
				l.Album = value
			case "offset":
				if ms, err := strconv.Atoi(value); err == nil {
					offset = time.Duration(ms) * time.Millisecond
				}
			}
			continue
		}

		// Tags must lead the line; a bracket inside the text is text.
		var stamps []time.Duration
		rest := line
		for {
			m := timestampRe.FindStringSubmatchIndex(rest)
			if m == nil || m[0] != 0 {
				break
			}
			stamps = append(stamps, stamp(rest, m))
			rest = rest[m[1]:]
		}
		if len(stamps) == 0 {
			continue
		}
		text := strings.TrimSpace(rest)
		for _, ts := range stamps {
			l.Lines = append(l.Lines, Line{Time: ts, Text: text})
		}
	}

	// A positive offset makes lyrics appear sooner.
	if offset != 0 {
		for i := range l.Lines {
			l.Lines[i].Time = max(l.Lines[i].Time-offset, 0)
		}
	}
	slices.SortStableFunc(l.Lines, func(a, b Line) int {
		return cmp.Compare(a.Time, b.Time)
	})
	return l
}

// stamp converts the match m of timestampRe in s. The regexp only admits
// digits, so the conversions cannot fail.
func stamp(s string, m []int) time.Duration {
	minutes, _ := strconv.Atoi(s[m[2]:m[3]])
	seconds, _ := strconv.Atoi(s[m[4]:m[5]])
	var millis int
	if m[6] >= 0 {
		frac := s[m[6]:m[7]]
		millis, _ = strconv.Atoi(frac)
		switch len(frac) {
		case 1:
			millis *= 100
		case 2:
			millis *= 10
		}
	}
	return time.Duration(minutes)*time.Minute +
		time.Duration(seconds)*time.Second +
		time.Duration(millis)*time.Millisecond
}

// Merge attaches translation lines to the lines they share a timestamp
// with. Translation lines without a match are dropped, as are empty ones.
func (l *Lyrics) Merge(translation *Lyrics) {
	if translation == nil {
		return
	}
	byTime := make(map[time.Duration]string, len(translation.Lines))
	for _, t := range translation.Lines {
		if t.Text != "" {
			byTime[t.Time] = t.Text
		}
	}
	for i := range l.Lines {
		l.Lines[i].Translation = byTime[l.Lines[i].Time]
	}
}

// Empty reports whether there is nothing to show.
func (l *Lyrics) Empty() bool {
	return l == nil || len(l.Lines) == 0
}

// LineAt returns the index of the last line starting at or before pos,
// or -1 before the first line.
func (l *Lyrics) LineAt(pos time.Duration) int {
	if l.Empty() {
		return -1
	}
	i, found := slices.BinarySearchFunc(l.Lines, pos, func(line Line, p time.Duration) int {
		return cmp.Compare(line.Time, p)
	})
	if found {
		// Equal timestamps: the last of the run wins.
		for i+1 < len(l.Lines) && l.Lines[i+1].Time == pos {
			i++
		}
		return i
	}
	return i - 1
}
