// Package cmd is for command line interactions with the get-sra application
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/FredHutch/docker-sra/config"
	"github.com/FredHutch/docker-sra/ctxlog"
	"github.com/FredHutch/docker-sra/pool"
	"github.com/FredHutch/docker-sra/sra"
)

// rootCmd is the one and only command: fetch, pair and compress each of the
// accessions given as arguments.
var rootCmd = &cobra.Command{
	Use:   "get-sra <accession>...",
	Short: "Download SRA accessions as compressed, mate-paired FASTQ files",
	Long: `Download read data for one or more SRA run accessions (SRR/ERR/DRR),
keep only properly mated pairs, and write <accession>_1.fastq.gz /
<accession>_2.fastq.gz into the output directory. With --dest the files are
also pushed to a remote destination.

Each accession is processed independently in its own temporary directory;
one failure never aborts the others.`,
	Version: "1.0.0",
	Args:    cobra.MinimumNArgs(1),
	RunE:    run,

	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().StringP("outdir", "o", "", "directory for the final .fastq.gz files")
	rootCmd.Flags().StringP("dest", "d", "", "optional remote destination (http(s) URL or directory)")
	rootCmd.Flags().IntP("workers", "w", 4, "maximum accessions processed concurrently")
	rootCmd.Flags().Uint64("retries", sra.DefaultRetries, "retry attempts for transient network failures")
	rootCmd.Flags().String("temp", "", "root for temporary working directories (default: outdir)")
	rootCmd.Flags().Bool("interleave", false, "write one interleaved file per accession instead of a _1/_2 pair")
	rootCmd.Flags().Duration("retry-interval", 500*time.Millisecond, "initial backoff between retry attempts")
	rootCmd.Flags().BoolP("verbose", "v", false, "log at debug level")

	rootCmd.MarkFlagRequired("outdir")

	viper.BindPFlags(rootCmd.Flags())
	viper.SetEnvPrefix("GET_SRA")
	viper.AutomaticEnv()
}

// accessionJob adapts one accession to the pool's Job interface.
type accessionJob struct {
	acc       sra.Accession
	retriever *sra.Retriever
	results   chan<- *sra.RunResult
}

func (j accessionJob) ID() string { return string(j.acc) }

func (j accessionJob) Run(ctx context.Context) error {
	res := j.retriever.Run(ctx, j.acc)
	j.results <- res
	if res.Err != nil {
		return res.Err
	}
	return nil
}

func run(cmd *cobra.Command, args []string) error {
	conf, err := config.New()
	if err != nil {
		return err
	}

	level := slog.LevelInfo
	if conf.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = ctxlog.WithLogger(ctx, logger)

	retriever := sra.NewRetriever(sra.Options{
		OutDir:        conf.OutDir,
		TempRoot:      conf.TempRoot,
		Retries:       conf.Retries,
		RetryInterval: conf.RetryInterval,
		Interleave:    conf.Interleave,
	}, sra.NewToolkit(), sra.NewFastqPair(), sra.NewUploader(conf.Dest))

	results := make(chan *sra.RunResult, len(args))
	jobs := make([]pool.Job, 0, len(args))
	for _, arg := range args {
		jobs = append(jobs, accessionJob{
			acc:       sra.Accession(arg),
			retriever: retriever,
			results:   results,
		})
	}

	failures := pool.NewEngine(jobs).Run(ctx, conf.Workers)
	close(results)

	for res := range results {
		if res.OK() {
			logger.Info("accession complete", "accession", res.Accession,
				"state", res.State.String(), "outputs", len(res.Outputs))
		}
	}
	for id, jerr := range failures {
		fmt.Fprintf(os.Stderr, "%s: %v\n", id, jerr)
	}

	if len(failures) > 0 {
		return fmt.Errorf("%d of %d accessions failed", len(failures), len(args))
	}
	return nil
}
