package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"alfredoptarigan/resume-ats/internal/models"
	"alfredoptarigan/resume-ats/internal/services"
)

const defaultBatchConcurrency = 4

func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
}

func newAnalyzeCmd(v *viper.Viper) *cobra.Command {
	var job string

	cmd := &cobra.Command{
		Use:   "analyze <resume>",
		Short: "Score a resume (PDF, DOCX or TXT) for ATS compatibility",
		Long: `Scores a resume across six categories: format compatibility, keyword
optimization, contact information, section organization, length and
readability. With --job the resume is also matched against a job description.

Examples:
  atscheck analyze resume.pdf
  atscheck analyze resume.docx --job posting.txt --json
  atscheck analyze resume.pdf --job https://example.com/jobs/42 --ai`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := commandContext(cmd)
			defer cancel()

			r, err := newRunner(ctx, v)
			if err != nil {
				return err
			}

			jobDescription, err := r.jobDescription(ctx, job)
			if err != nil {
				return err
			}

			outcome, err := r.analyzeFile(ctx, args[0], jobDescription)
			if err != nil {
				return err
			}

			if r.cfg.JSON {
				return printJSON(cmd.OutOrStdout(), outcome.Report)
			}
			printReport(cmd.OutOrStdout(), outcome.Report)
			return nil
		},
	}

	cmd.Flags().StringVar(&job, "job", "", "job description file or posting URL")
	return cmd
}

func newMatchCmd(v *viper.Viper) *cobra.Command {
	var job string

	cmd := &cobra.Command{
		Use:   "match <resume> --job <file|url>",
		Short: "Match a resume against a job description",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := commandContext(cmd)
			defer cancel()

			r, err := newRunner(ctx, v)
			if err != nil {
				return err
			}

			jobDescription, err := r.jobDescription(ctx, job)
			if err != nil {
				return err
			}

			data, err := os.ReadFile(args[0])
			if err != nil {
				return errors.Wrap(err, "failed to read resume")
			}
			doc, err := r.extractor.Extract(data, args[0])
			if err != nil {
				return errors.Wrapf(err, "failed to extract %s", args[0])
			}

			result, err := r.analyzer.Match(ctx, services.MatchInput{
				ResumeText:     doc.NormalizedText,
				JobDescription: jobDescription,
				UseAI:          r.cfg.AI,
			})
			if err != nil {
				return errors.Wrap(err, "failed to match resume")
			}

			if r.cfg.JSON {
				return printJSON(cmd.OutOrStdout(), result)
			}
			printMatch(cmd.OutOrStdout(), result)
			return nil
		},
	}

	cmd.Flags().StringVar(&job, "job", "", "job description file or posting URL")
	_ = cmd.MarkFlagRequired("job")
	return cmd
}

type batchResult struct {
	File   string                 `json:"file"`
	Report *models.AnalysisReport `json:"report,omitempty"`
	Error  string                 `json:"error,omitempty"`
}

func newBatchCmd(v *viper.Viper) *cobra.Command {
	var (
		job         string
		concurrency int
	)

	cmd := &cobra.Command{
		Use:   "batch <resume>...",
		Short: "Score several resumes concurrently",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := commandContext(cmd)
			defer cancel()

			r, err := newRunner(ctx, v)
			if err != nil {
				return err
			}

			jobDescription, err := r.jobDescription(ctx, job)
			if err != nil {
				return err
			}

			results := make([]batchResult, len(args))

			g, gCtx := errgroup.WithContext(ctx)
			g.SetLimit(max(concurrency, 1))
			for i, path := range args {
				g.Go(func() error {
					results[i].File = path
					outcome, err := r.analyzeFile(gCtx, path, jobDescription)
					if err != nil {
						results[i].Error = err.Error()
						return nil
					}
					results[i].Report = outcome.Report
					return nil
				})
			}
			if err := g.Wait(); err != nil {
				return err
			}

			if r.cfg.JSON {
				if err := printJSON(cmd.OutOrStdout(), results); err != nil {
					return err
				}
			} else {
				printBatch(cmd.OutOrStdout(), results)
			}

			failed := 0
			for _, res := range results {
				if res.Error != "" {
					failed++
				}
			}
			if failed > 0 {
				return errors.Errorf("%d of %d resumes could not be analyzed", failed, len(results))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&job, "job", "", "job description file or posting URL")
	cmd.Flags().IntVarP(&concurrency, "concurrency", "c", defaultBatchConcurrency, "resumes analyzed at once")
	return cmd
}
