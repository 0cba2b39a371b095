package organizer

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/google/renameio/v2"
)

// WriteFile atomically rewrites the output playlist. The file is a pure
// function of the accumulator contents, regenerated from scratch every time.
func WriteFile(path string, organized map[string][]*Entry) error {
	pending, err := renameio.NewPendingFile(path)
	if err != nil {
		return fmt.Errorf("create pending output file: %w", err)
	}
	defer func() {
		_ = pending.Cleanup()
	}()

	if err := Write(pending, organized); err != nil {
		return fmt.Errorf("write output playlist: %w", err)
	}

	if err := pending.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("replace output playlist: %w", err)
	}
	return nil
}

// Write serializes the organized streams as extended M3U, one banner per
// country bucket in alphabetical order.
func Write(w io.Writer, organized map[string][]*Entry) error {
	var b strings.Builder
	b.WriteString("#EXTM3U\n")
	b.WriteString(fmt.Sprintf("# Generated: %s\n", time.Now().Format("2006-01-02 15:04:05")))
	b.WriteString("# Organized by country, alphabetically, and by bitrate\n")
	b.WriteString("\n")

	countries := make([]string, 0, len(organized))
	for country := range organized {
		countries = append(countries, country)
	}
	sort.Strings(countries)

	for _, country := range countries {
		entries := organized[country]
		b.WriteString(fmt.Sprintf("\n# ===== %s (%d streams) =====\n", country, len(entries)))
		for _, e := range entries {
			b.WriteString(formatEntry(country, e))
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func formatEntry(country string, e *Entry) string {
	r := e.Result

	extinf := "#EXTINF:-1"
	if r.Info != nil {
		if r.Info.TvgID != "" {
			extinf += fmt.Sprintf(" tvg-id=%q", r.Info.TvgID)
		}
		if r.Info.TvgName != "" {
			extinf += fmt.Sprintf(" tvg-name=%q", r.Info.TvgName)
		}
		if r.Info.TvgLogo != "" {
			extinf += fmt.Sprintf(" tvg-logo=%q", r.Info.TvgLogo)
		}
	}
	extinf += fmt.Sprintf(" group-title=%q", country)

	resolution := r.Resolution
	if resolution == "" {
		resolution = "Unknown"
	}
	bitrate := r.VideoBitrate
	if bitrate == "" {
		bitrate = "Unknown"
	}

	return fmt.Sprintf("%s,%s [%s %s]\n%s\n", extinf, e.FinalName, resolution, bitrate, r.URL)
}
