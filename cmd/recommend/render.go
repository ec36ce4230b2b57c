package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"food-recommender/internal/core/recommend"
	"food-recommender/internal/pkg/common"

	"github.com/fatih/color"
)

var (
	bold = color.New(color.Bold)
	info = color.New(color.FgCyan)
)

// renderText 以對齊的表格輸出推薦結果
func renderText(w io.Writer, result *recommend.Result) error {
	if len(result.Rows) == 0 {
		_, err := info.Fprintln(w, "No food matches the given preferences.")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	header := "#"
	for _, col := range result.Columns {
		header += "\t" + col
	}
	if _, err := bold.Fprintln(tw, header); err != nil {
		return err
	}

	for i, row := range result.Rows {
		line := fmt.Sprintf("%d", i+1)
		for _, col := range result.Columns {
			line += "\t" + row.Cell(col)
		}
		if _, err := fmt.Fprintln(tw, line); err != nil {
			return err
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	_, err := info.Fprintf(w, "%d of %d matching rows\n", len(result.Rows), result.Matched)
	return err
}

// renderJSON 以 JSON 輸出推薦結果
func renderJSON(w io.Writer, result *recommend.Result) error {
	out, err := common.ToJSONIndent(map[string]interface{}{
		"columns": result.Columns,
		"rows":    result.Records(),
		"count":   len(result.Rows),
		"matched": result.Matched,
	})
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, out)
	return err
}
