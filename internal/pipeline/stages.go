package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"aws-tariffs/internal/pricelist"
	"aws-tariffs/internal/tabular"
)

// Truncate projects every raw CSV through the column allow-list and
// writes the result into the truncated directory with "raw" replaced
// by "trunc" in the file name. Returns the number of files processed.
func (r *Runner) Truncate() (int, error) {
	if err := os.MkdirAll(r.cfg.Dirs.Truncated, 0o755); err != nil {
		return 0, fmt.Errorf("failed to create truncated directory: %w", err)
	}
	entries, err := os.ReadDir(r.cfg.Dirs.Raw)
	if err != nil {
		return 0, fmt.Errorf("failed to read raw directory: %w", err)
	}

	allow := r.cfg.AllowList()
	count := 0
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".csv") {
			continue
		}
		src := filepath.Join(r.cfg.Dirs.Raw, e.Name())
		dst := filepath.Join(r.cfg.Dirs.Truncated, strings.Replace(e.Name(), "raw", "trunc", 1))
		if err := truncateFile(src, dst, allow); err != nil {
			return count, err
		}
		count++
	}
	if count == 0 {
		log.Warn().Msg("no price list found to truncate")
	} else {
		log.Info().Int("files", count).Msg("truncated price lists")
	}
	return count, nil
}

func truncateFile(src, dst string, allow tabular.AllowList) error {
	f, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", src, err)
	}
	defer f.Close()

	doc, err := tabular.ReadCSV(f, filepath.Base(src), pricelist.MetadataLines)
	if err != nil {
		return err
	}

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dst, err)
	}
	if err := tabular.WriteCSV(out, tabular.Project(doc, allow)); err != nil {
		out.Close()
		return fmt.Errorf("failed to write %s: %w", dst, err)
	}
	return out.Close()
}

// Consolidate merges every truncated CSV, in sorted file-name order,
// into consolidated_csv/aws-tariffs-<yy-mm-dd>.csv. Returns the output
// path and the number of documents merged. No documents is not an
// error: the output is a well-formed empty file.
func (r *Runner) Consolidate(date time.Time) (string, int, error) {
	if err := os.MkdirAll(r.cfg.Dirs.Consolidated, 0o755); err != nil {
		return "", 0, fmt.Errorf("failed to create consolidated directory: %w", err)
	}
	entries, err := os.ReadDir(r.cfg.Dirs.Truncated)
	if err != nil {
		return "", 0, fmt.Errorf("failed to read truncated directory: %w", err)
	}

	merger := tabular.NewMerger()
	count := 0
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".csv") {
			continue
		}
		path := filepath.Join(r.cfg.Dirs.Truncated, e.Name())
		f, err := os.Open(path)
		if err != nil {
			return "", count, fmt.Errorf("failed to open %s: %w", path, err)
		}
		doc, err := tabular.ReadCSV(f, e.Name(), 0)
		f.Close()
		if err != nil {
			return "", count, err
		}
		merger.Add(doc)
		count++
	}
	if count == 0 {
		log.Warn().Msg("no price list found to consolidate")
	}

	merged := merger.Document()
	out := filepath.Join(r.cfg.Dirs.Consolidated, fmt.Sprintf("aws-tariffs-%s.csv", date.Format("06-01-02")))
	f, err := os.Create(out)
	if err != nil {
		return "", count, fmt.Errorf("failed to create %s: %w", out, err)
	}
	if err := tabular.WriteCSV(f, merged); err != nil {
		f.Close()
		return "", count, fmt.Errorf("failed to write %s: %w", out, err)
	}
	if err := f.Close(); err != nil {
		return "", count, err
	}

	sum := Summarize(merged)
	evt := log.Info().Str("output", out).
		Int("documents", count).Int("rows", sum.Rows).Int("priced_rows", sum.PricedRows)
	if sum.PricedRows > 0 {
		evt = evt.Str("min_price", sum.MinPrice.String()).Str("max_price", sum.MaxPrice.String())
	}
	evt.Msg("consolidated price lists")
	return out, count, nil
}
