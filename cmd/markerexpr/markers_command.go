package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"markerexpr/internal/logging"
	"markerexpr/internal/markers"
	"markerexpr/internal/mediactx"
	"markerexpr/internal/plexdb"
)

type markerRow struct {
	markers.Marker `yaml:",inline"`
	// Refs are the expression references that select this marker.
	Refs []string `json:"refs" yaml:"refs"`
}

type markersReport struct {
	Item    plexdb.Item `json:"item" yaml:"item"`
	Markers []markerRow `json:"markers" yaml:"markers"`
}

type chaptersReport struct {
	Item     plexdb.Item       `json:"item" yaml:"item"`
	File     string            `json:"file" yaml:"file"`
	Chapters []markers.Chapter `json:"chapters" yaml:"chapters"`
	Warning  string            `json:"warning,omitempty" yaml:"warning,omitempty"`
}

func newMarkersCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "markers <metadata-id>",
		Short: "List the markers of an episode or movie",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			media, err := loadMedia(cmd, ctx, args[0])
			if err != nil {
				return err
			}
			report := markersReport{Item: media.Item, Markers: markerRows(media.Data.Markers)}
			return writeOutput(cmd, ctx, report, report.render)
		},
	}
}

func newChaptersCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "chapters <metadata-id>",
		Short: "List the chapters of an episode or movie's media file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if !cfg.Chapters.Enabled {
				return errors.New("chapter lookup is disabled (set chapters.enabled = true)")
			}
			media, err := loadMedia(cmd, ctx, args[0])
			if err != nil {
				return err
			}
			report := chaptersReport{
				Item:     media.Item,
				File:     media.File,
				Chapters: media.Data.Chapters,
				Warning:  media.ChapterWarning,
			}
			if report.Chapters == nil {
				report.Chapters = []markers.Chapter{}
			}
			return writeOutput(cmd, ctx, report, report.render)
		},
	}
}

func loadMedia(cmd *cobra.Command, ctx *commandContext, rawID string) (mediactx.Media, error) {
	runCtx, logger, err := ctx.begin(cmd)
	if err != nil {
		return mediactx.Media{}, err
	}
	id, err := parseMetadataID(rawID)
	if err != nil {
		return mediactx.Media{}, err
	}
	runCtx = logging.WithMetadataID(runCtx, id)
	var media mediactx.Media
	err = ctx.withLoader(runCtx, logging.WithContext(runCtx, logger), func(_ *plexdb.DB, loader *mediactx.Loader) error {
		var err error
		media, err = loader.Load(runCtx, id)
		return err
	})
	return media, err
}

// markerRows pairs each marker with the references that resolve to it.
func markerRows(list []markers.Marker) []markerRow {
	rows := make([]markerRow, 0, len(list))
	perType := map[markers.Type]int{}
	for i, m := range list {
		perType[m.Type]++
		rows = append(rows, markerRow{
			Marker: m,
			Refs: []string{
				"M" + strconv.Itoa(i+1),
				m.Type.Letter() + strconv.Itoa(perType[m.Type]),
			},
		})
	}
	return rows
}

func (r markersReport) render(w io.Writer, colorize bool) error {
	title := fmt.Sprintf("%s %d: %s", r.Item.Type.String(), r.Item.ID, r.Item.Title)
	if len(r.Markers) == 0 {
		return writeLines(w, []string{title, "No markers"})
	}
	rows := make([][]string, 0, len(r.Markers))
	for _, m := range r.Markers {
		rows = append(rows, []string{
			m.Refs[0],
			m.Refs[1],
			m.Type.DisplayName(),
			markers.FormatMs(m.Start),
			markers.FormatMs(m.End),
			markers.FormatMs(m.Duration()),
		})
	}
	table := renderTable(
		[]string{"Ref", "Typed", "Type", "Start", "End", "Length"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight},
		colorize,
	)
	return writeLines(w, []string{title, table})
}

func (r chaptersReport) render(w io.Writer, colorize bool) error {
	lines := []string{fmt.Sprintf("%s %d: %s", r.Item.Type.String(), r.Item.ID, r.Item.Title)}
	if r.File != "" {
		lines = append(lines, renderField("File", r.File))
	}
	if r.Warning != "" {
		lines = append(lines, renderStatusLine("Chapters", statusWarn, r.Warning, colorize))
	}
	if len(r.Chapters) == 0 {
		return writeLines(w, append(lines, "No chapters"))
	}
	rows := make([][]string, 0, len(r.Chapters))
	for i, ch := range r.Chapters {
		rows = append(rows, []string{
			"Ch" + strconv.Itoa(i+1),
			ch.Name,
			markers.FormatMs(ch.Start),
			markers.FormatMs(ch.End),
		})
	}
	lines = append(lines, renderTable(
		[]string{"Ref", "Name", "Start", "End"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight},
		colorize,
	))
	return writeLines(w, lines)
}

