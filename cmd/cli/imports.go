package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/motorefacciones/import-service/internal/adapters/config"
	"github.com/motorefacciones/import-service/internal/normalize"
	"github.com/motorefacciones/import-service/internal/pipeline"
	"github.com/motorefacciones/import-service/internal/types"
)

var (
	stageProvider string
	stageImages   []string
	stageCommit   bool
	outputJSON    bool
)

var stageCmd = &cobra.Command{
	Use:   "stage <file-or-url>",
	Short: "Stage a supplier file into a new import batch",
	Long: `Download or read a supplier file, map each row through the provider adapter
and store the validated rows in a new batch for review.

Local paths are accepted as well as http(s):// and s3:// URLs.`,
	Example: `  import-service stage --provider mrm ./lista-mrm.xlsx
  import-service stage --provider motos_y_equipos https://files.example.com/motos.csv --image https://files.example.com/img/A100.jpg
  import-service stage --provider mrm ./lista-mrm.xlsx --commit`,
	Args:        cobra.ExactArgs(1),
	Annotations: map[string]string{"db": "true"},
	RunE:        runStage,
}

var commitCmd = &cobra.Command{
	Use:         "commit <batch-id>",
	Short:       "Commit a staged batch to the catalog",
	Args:        cobra.ExactArgs(1),
	Annotations: map[string]string{"db": "true"},
	RunE:        runCommit,
}

var previewCmd = &cobra.Command{
	Use:         "preview <batch-id>",
	Short:       "Show the totals and sample rows of a batch",
	Args:        cobra.ExactArgs(1),
	Annotations: map[string]string{"db": "true"},
	RunE:        runPreview,
}

func init() {
	rootCmd.AddCommand(stageCmd, commitCmd, previewCmd)

	stageCmd.Flags().StringVarP(&stageProvider, "provider", "p", "", "Provider code ("+strings.Join(validProviders(), ", ")+")")
	stageCmd.Flags().StringSliceVar(&stageImages, "image", nil, "Uploaded image URL to offer for mapping (repeatable)")
	stageCmd.Flags().BoolVar(&stageCommit, "commit", false, "Commit the batch right after staging")
	_ = stageCmd.MarkFlagRequired("provider")

	for _, c := range []*cobra.Command{stageCmd, commitCmd, previewCmd} {
		c.Flags().BoolVar(&outputJSON, "json", false, "Print the result as JSON")
	}
}

func runStage(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if !config.IsValidProviderCode(stageProvider) {
		return fmt.Errorf("invalid provider code: %s\nValid providers: %s", stageProvider, strings.Join(validProviders(), ", "))
	}

	importer, err := newImporter(ctx)
	if err != nil {
		return err
	}

	req := pipeline.StageRequest{
		ProviderCode: types.ProviderCode(stageProvider),
		FileURL:      sourceURL(args[0]),
	}
	for _, img := range stageImages {
		req.ImageFiles = append(req.ImageFiles, types.ImageFile{FileName: filepath.Base(img), URL: img})
	}

	result, err := importer.Stage(ctx, req)
	if err != nil {
		return err
	}
	if err := printResult(result, func() { displayStageResult(result) }); err != nil {
		return err
	}
	if result.Status == types.BatchStatusFailed {
		return fmt.Errorf("staging failed: %s", result.Reason)
	}

	if !stageCommit {
		return nil
	}
	return commitBatch(ctx, importer, result.BatchID)
}

func runCommit(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	importer, err := newImporter(ctx)
	if err != nil {
		return err
	}
	return commitBatch(ctx, importer, args[0])
}

func commitBatch(ctx context.Context, importer *pipeline.Importer, batchID string) error {
	result, err := importer.Commit(ctx, batchID)
	if err != nil {
		return err
	}
	return printResult(result, func() { displayCommitResult(result) })
}

func runPreview(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	importer, err := newImporter(ctx)
	if err != nil {
		return err
	}

	result, err := importer.Preview(ctx, args[0])
	if err != nil {
		return err
	}
	return printResult(result, func() { writePreview(os.Stdout, result) })
}

// sourceURL turns relative local paths into absolute ones so the fetcher accepts them
func sourceURL(arg string) string {
	if strings.Contains(arg, "://") {
		return arg
	}
	if abs, err := filepath.Abs(arg); err == nil {
		return abs
	}
	return arg
}

func printResult(v any, table func()) error {
	if !outputJSON {
		table()
		return nil
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func displayStageResult(r *pipeline.StageResult) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "BATCH ID\tSTATUS\tTOTAL\tVALID\tFAILED")
	fmt.Fprintln(w, "--------\t------\t-----\t-----\t------")
	fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\n", r.BatchID, r.Status, r.TotalRows, r.ValidRows, r.FailedRows)
	w.Flush()

	if r.Reason != "" {
		fmt.Printf("\nReason: %s\n", r.Reason)
	}
}

func displayCommitResult(r *pipeline.CommitResult) {
	s := r.Summary
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "BATCH ID\tINSERTED\tUPDATED\tSKIPPED\tFAILED\tTOTAL\tWARNINGS")
	fmt.Fprintln(w, "--------\t--------\t-------\t-------\t------\t-----\t--------")
	fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d\t%d\t%d\n", r.BatchID, s.Inserted, s.Updated, s.Skipped, s.Failed, s.Total, s.Warnings)
	w.Flush()
}

func writePreview(out io.Writer, r *pipeline.PreviewResult) {
	fmt.Fprintf(out, "Batch %s (%s) %s, created %s\n", r.Batch.ID, r.Batch.ProviderCode, r.Batch.Status, r.Batch.CreatedAt.Format("2006-01-02 15:04"))
	fmt.Fprintf(out, "Rows: %d total, %d valid, %d failed\n\n", r.Summary.TotalRows, r.Summary.ValidRows, r.Summary.FailedRows)

	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "SKU\tNAME\tPRICE\tSTOCK")
	for _, v := range r.Samples.Valid {
		stock := "-"
		if v.Stock != nil {
			stock = fmt.Sprintf("%d", *v.Stock)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", v.ProviderSku, v.Name, normalize.FormatPrice(v.Price), stock)
	}
	w.Flush()

	if len(r.Samples.Failed) == 0 {
		return
	}
	fmt.Fprintln(out)
	w = tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "SKU\tNAME\tERRORS")
	for _, f := range r.Samples.Failed {
		fmt.Fprintf(w, "%s\t%s\t%s\n", f.ProviderSku, f.Name, strings.Join(f.Errors, "; "))
	}
	w.Flush()
}

func validProviders() []string {
	codes := make([]string, len(config.ProviderCodes))
	for i, c := range config.ProviderCodes {
		codes[i] = string(c)
	}
	return codes
}
