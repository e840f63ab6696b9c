package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"

	"tunesport/internal/document"
	"tunesport/internal/library"
	"tunesport/pkg/models"
)

// WriteSummary prints counts, sizes and the diagnostic tally of a parse.
func WriteSummary(w io.Writer, res *library.Result) error {
	lib := res.Library
	tracks := lib.Tracks()

	var size int64
	var duration time.Duration
	for _, t := range tracks {
		if t.Size != nil {
			size += *t.Size
		}
		duration += t.Duration()
	}

	var folders int
	for _, p := range lib.Playlists() {
		if p.Folder {
			folders++
		}
	}

	lines := []string{
		fmt.Sprintf("Tracks:      %s", humanize.Comma(int64(len(tracks)))),
		fmt.Sprintf("Total size:  %s", humanize.Bytes(uint64(size))),
		fmt.Sprintf("Total time:  %s", duration.Round(time.Second)),
		fmt.Sprintf("Playlists:   %s (%d folders, %d top level)",
			humanize.Comma(int64(len(lib.Playlists()))), folders, len(lib.TopLevelPlaylists())),
	}
	if lib.ApplicationVersion != nil {
		lines = append(lines, fmt.Sprintf("Application: %s", *lib.ApplicationVersion))
	}
	if lib.Date != nil {
		lines = append(lines, fmt.Sprintf("Exported:    %s (%s)", lib.Date.Format(time.RFC3339), humanize.Time(*lib.Date)))
	}
	if lib.MusicFolder != nil {
		lines = append(lines, fmt.Sprintf("Music folder: %s", lib.MusicFolder.Path))
	}
	lines = append(lines, fmt.Sprintf("Diagnostics: %s", tallyDiagnostics(res.Diagnostics)))
	if len(res.Unresolved) > 0 {
		lines = append(lines, fmt.Sprintf("Unresolved:  %d playlists in parent cycles", len(res.Unresolved)))
	}

	_, err := io.WriteString(w, strings.Join(lines, "\n")+"\n")
	return err
}

func tallyDiagnostics(diags []library.Diagnostic) string {
	if len(diags) == 0 {
		return "none"
	}
	counts := map[logrus.Level]int{}
	for _, d := range diags {
		counts[d.Level]++
	}
	levels := make([]logrus.Level, 0, len(counts))
	for level := range counts {
		levels = append(levels, level)
	}
	sort.Slice(levels, func(i, j int) bool { return levels[i] < levels[j] })

	parts := make([]string, 0, len(levels))
	for _, level := range levels {
		parts = append(parts, fmt.Sprintf("%d %s", counts[level], level))
	}
	return strings.Join(parts, ", ")
}

// WriteTree prints the playlist hierarchy, indented by depth.
func WriteTree(w io.Writer, lib *library.Library) error {
	for _, p := range lib.Playlists() {
		indent := strings.Repeat("  ", p.Depth())
		var line string
		if p.Folder {
			line = fmt.Sprintf("%s%s/\n", indent, p.Name)
		} else {
			line = fmt.Sprintf("%s%s (%d tracks)\n", indent, p.Name, p.TrackCount())
		}
		if _, err := io.WriteString(w, line); err != nil {
			return err
		}
	}
	return nil
}

// WriteDiagnostics prints one line per diagnostic at or above minLevel
// severity (logrus levels count down, so ErrorLevel < WarnLevel).
func WriteDiagnostics(w io.Writer, diags []library.Diagnostic, minLevel logrus.Level) error {
	for _, d := range diags {
		if d.Level > minLevel {
			continue
		}
		line := fmt.Sprintf("%-5s %s %s", strings.ToUpper(d.Level.String()), d.Entity, d.ID)
		if d.Field != "" {
			line += fmt.Sprintf(" [%s]", d.Field)
		}
		line += ": " + d.Message
		if d.Expected != document.KindInvalid {
			line += fmt.Sprintf(" (expected %s, got %s)", d.Expected, d.Actual)
		}
		if _, err := io.WriteString(w, line+"\n"); err != nil {
			return err
		}
	}
	return nil
}

// WriteTracksCSV writes the flat records of tracks, one row each.
func WriteTracksCSV(w io.Writer, tracks []*library.Track) error {
	records := make([]models.TrackRecord, 0, len(tracks))
	for _, t := range tracks {
		records = append(records, t.Record())
	}
	return writeCSV(w, records)
}

// WritePlaylistsCSV writes the flat records of the library's playlists.
func WritePlaylistsCSV(w io.Writer, lib *library.Library) error {
	playlists := lib.Playlists()
	records := make([]models.PlaylistRecord, 0, len(playlists))
	for i, p := range playlists {
		records = append(records, p.Record(i))
	}
	return writeCSV(w, records)
}

// csvHeader reads the csv tags of a struct type, falling back to the
// field name.
func csvHeader(t reflect.Type) []string {
	headers := make([]string, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		name := field.Tag.Get("csv")
		if name == "" {
			name = field.Name
		}
		headers = append(headers, name)
	}
	return headers
}

func writeCSV[T any](w io.Writer, rows []T) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(csvHeader(reflect.TypeOf((*T)(nil)).Elem())); err != nil {
		return err
	}

	for _, item := range rows {
		v := reflect.ValueOf(item)
		row := make([]string, v.NumField())
		for i := range row {
			row[i] = csvValue(v.Field(i))
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

func csvValue(v reflect.Value) string {
	if t, ok := v.Interface().(time.Time); ok {
		if t.IsZero() {
			return ""
		}
		return t.UTC().Format(time.RFC3339)
	}
	return fmt.Sprintf("%v", v.Interface())
}
