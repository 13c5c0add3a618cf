package cmd

import (
	"context"

	"github.com/lepinkainen/bookscout/internal/aggregate"
	"github.com/lepinkainen/bookscout/internal/config"
	"github.com/lepinkainen/bookscout/internal/errors"
	"github.com/lepinkainen/bookscout/internal/history"
	"github.com/lepinkainen/bookscout/internal/ocr"
	"github.com/lepinkainen/bookscout/internal/render"
)

// OCRCmd groups the OCR backend subcommands
type OCRCmd struct {
	Health OCRHealthCmd `cmd:"" help:"Check the OCR backend"`
	Upload OCRUploadCmd `cmd:"" help:"Read the title from a cover photo"`
}

// OCRHealthCmd probes the backend
type OCRHealthCmd struct{}

// OCRUploadCmd sends a cover photo, by file or by URL, and optionally
// searches for the title
type OCRUploadCmd struct {
	File   string `arg:"" optional:"" type:"existingfile" help:"Image file (.jpg .jpeg .png .bmp .tiff, max 10 MiB)"`
	URL    string `name:"url" help:"Analyze an image the backend downloads from this URL instead of a file"`
	Mode   string `help:"Backend processing mode" default:"prod"`
	Prompt string `help:"Prompt used to extract the title" default:"책 제목 추출"`
	Search bool   `help:"Search the library API for the extracted title"`
}

func (c *OCRHealthCmd) Run(ctx context.Context) error {
	status := newOCRClient(config.Load()).Health(ctx)
	if jsonOutput {
		return printJSON(status)
	}
	render.Health(out, status)
	return nil
}

func (c *OCRUploadCmd) Run(ctx context.Context) error {
	switch {
	case c.File != "" && c.URL != "":
		return errors.NewValidationError("url", "give either an image file or --url, not both")
	case c.File == "" && c.URL == "":
		return errors.NewValidationError("file", "an image file or --url is required")
	case c.URL != "":
		if err := ocr.ValidateImageURL(c.URL); err != nil {
			return err
		}
	default:
		if err := ocr.ValidateImageFile(c.File); err != nil {
			return err
		}
	}

	s := openSession(ctx)
	defer s.Close()

	client := newOCRClient(s.cfg)
	opts := ocr.UploadOptions{Mode: c.Mode, Prompt: c.Prompt}
	var result *ocr.AnalysisResult
	var err error
	if c.URL != "" {
		result, err = client.AnalyzeURL(ctx, c.URL, opts)
	} else {
		result, err = client.Upload(ctx, c.File, opts)
	}
	if err != nil {
		return err
	}
	title := result.Title()
	s.record(title, history.KindOCR, result.OCR.TotalTextCount)

	if !c.Search {
		if err := export(result); err != nil {
			return err
		}
	}
	if jsonOutput && !c.Search {
		return printJSON(result)
	}
	if !jsonOutput {
		render.Analysis(out, result)
	}
	if !c.Search || title == "" {
		return nil
	}

	if !s.haveKey() {
		page, err := s.client.FetchByTitle(ctx, title, 1, aggregate.DefaultSearchPageSize)
		if err != nil {
			return err
		}
		return printBooks(page.Items)
	}
	res, err := aggregate.SearchTitleParallel(ctx, s.client, title,
		aggregate.DefaultSearchPages, aggregate.DefaultSearchPageSize, aggregate.DefaultSearchConcurrency, s.aggregateOptions())
	if err != nil {
		return err
	}
	s.record(title, history.KindTitle, res.TotalCount)
	return printBooks(res.Items)
}
