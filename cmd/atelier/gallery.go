package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/artmixer/atelier/internal/gallery"
	"github.com/artmixer/atelier/internal/util"
)

type galleryListOptions struct {
	Filter string
	Sort   string
}

func parseGalleryListFlags(args []string) (galleryListOptions, error) {
	fs := flag.NewFlagSet("gallery-list", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var opts galleryListOptions
	fs.StringVar(&opts.Filter, "filter", gallery.FilterAll, "Preset label filter (all, subtle, balanced, intense, custom)")
	fs.StringVar(&opts.Sort, "sort", string(gallery.SortNewest), "Sort order (newest, oldest, lossAsc, lossDesc, processingTime, steps)")

	if err := fs.Parse(args); err != nil {
		return galleryListOptions{}, err
	}
	return opts, nil
}

func runGalleryList(cmdCtx *commandContext, args []string) error {
	opts, err := parseGalleryListFlags(args)
	if err != nil {
		return err
	}

	svc := cmdCtx.App.Gallery
	if refreshErr := svc.Refresh(cmdCtx.Ctx); refreshErr != nil {
		return refreshErr
	}
	svc.View().SetFilter(opts.Filter)
	svc.View().SetSort(gallery.SortKey(opts.Sort))

	items := svc.View().Items()
	if len(items) == 0 {
		return writeln(os.Stdout, "No results.")
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	if headerErr := writeln(tw, "ID\tCREATED\tTOTAL LOSS\tBEST LOSS\tTIME\tSTEPS"); headerErr != nil {
		return headerErr
	}
	for _, item := range items {
		created := item.Timestamp
		if ts := item.ParsedTime(); !ts.IsZero() {
			created = ts.Format("2006-01-02 15:04")
		}
		if rowErr := writef(tw, "%s\t%s\t%s\t%s\t%s\t%d\n",
			item.ID,
			created,
			util.FormatTotalLoss(item.StyleLoss.Float64(), item.ContentLoss.Float64()),
			util.FormatFloat(item.BestLoss.Float64()),
			util.FormatProcessingTime(item.ProcessingTime.Float64()),
			int(item.Parameters.NumSteps.Float64()),
		); rowErr != nil {
			return rowErr
		}
	}
	return tw.Flush()
}

type galleryIDOptions struct {
	ID string
}

func parseGalleryIDFlags(name string, args []string) (galleryIDOptions, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var opts galleryIDOptions
	fs.StringVar(&opts.ID, "id", "", "Gallery item id (required)")

	if err := fs.Parse(args); err != nil {
		return galleryIDOptions{}, err
	}
	return opts, nil
}

func runGalleryShow(cmdCtx *commandContext, args []string) error {
	opts, err := parseGalleryIDFlags("gallery-show", args)
	if err != nil {
		return err
	}

	item, err := cmdCtx.App.Gallery.Get(cmdCtx.Ctx, opts.ID)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	rows := [][2]string{
		{"id", item.ID},
		{"created", item.Timestamp},
		{"content image", item.ContentImageURL},
		{"style image", item.StyleImageURL},
		{"result image", item.ResultImageURL},
		{"style loss", util.FormatFloat(item.StyleLoss.Float64())},
		{"content loss", util.FormatFloat(item.ContentLoss.Float64())},
		{"best loss", util.FormatFloat(item.BestLoss.Float64())},
		{"processing time", util.FormatProcessingTime(item.ProcessingTime.Float64())},
		{"style weight", util.FormatFloat(item.Parameters.StyleWeight.Float64())},
		{"content weight", util.FormatFloat(item.Parameters.ContentWeight.Float64())},
		{"steps", fmt.Sprintf("%d", int(item.Parameters.NumSteps.Float64()))},
	}
	for _, row := range rows {
		if rowErr := writef(tw, "%s\t%s\n", row[0], row[1]); rowErr != nil {
			return rowErr
		}
	}
	return tw.Flush()
}

func runGalleryDelete(cmdCtx *commandContext, args []string) error {
	opts, err := parseGalleryIDFlags("gallery-delete", args)
	if err != nil {
		return err
	}

	if err := cmdCtx.App.Gallery.Delete(cmdCtx.Ctx, opts.ID); err != nil {
		return err
	}
	return writef(os.Stdout, "deleted %s\n", opts.ID)
}

type galleryQueryOptions struct {
	Expr string
}

func parseGalleryQueryFlags(args []string) (galleryQueryOptions, error) {
	fs := flag.NewFlagSet("gallery-query", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var opts galleryQueryOptions
	fs.StringVar(&opts.Expr, "expr", "", "JMESPath expression, e.g. \"[?styleLoss > `2`].id\"")

	if err := fs.Parse(args); err != nil {
		return galleryQueryOptions{}, err
	}
	if opts.Expr == "" {
		return galleryQueryOptions{}, fmt.Errorf("--expr is required")
	}
	return opts, nil
}

func runGalleryQuery(cmdCtx *commandContext, args []string) error {
	opts, err := parseGalleryQueryFlags(args)
	if err != nil {
		return err
	}

	result, err := cmdCtx.App.Gallery.Query(cmdCtx.Ctx, opts.Expr)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}
