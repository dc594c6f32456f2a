// Command dfio converts tabular datasets between formats and destinations.
//
// convert reads a dataset from one path and writes it to one or more others,
// with the compression of every destination inferred from its suffix:
//
//	dfio convert events.csv s3://bucket/events.json.zst --in-format csv --out-format json
//	dfio convert events.csv parts/events.csv.gz --chunk-size 100000
//
// stat reads a dataset and prints its shape:
//
//	dfio stat s3://bucket/events.parquet --format parquet
//
// Any s3:// path enables the S3 transport, configured from the standard AWS
// environment (region, credentials, profile). Set --s3-endpoint for MinIO or
// LocalStack.
package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/justapithecus/dfio/dfio"
	dfios3 "github.com/justapithecus/dfio/dfio/s3"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type rootFlags struct {
	verbose    bool
	s3Endpoint string
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}
	cmd := &cobra.Command{
		Use:           "dfio",
		Short:         "Read and write tabular datasets across formats and destinations",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "enable debug logging")
	cmd.PersistentFlags().StringVar(&flags.s3Endpoint, "s3-endpoint", "", "custom S3 endpoint (MinIO, LocalStack)")

	cmd.AddCommand(newConvertCmd(flags))
	cmd.AddCommand(newStatCmd(flags))
	return cmd
}

func (f *rootFlags) logger() (*zap.Logger, error) {
	if !f.verbose {
		return zap.NewNop(), nil
	}
	cfg := zap.NewDevelopmentConfig()
	return cfg.Build()
}

// mux builds the transport mux for the given paths, mounting the S3 transport
// only when some path needs it.
func (f *rootFlags) mux(cmd *cobra.Command, paths ...string) (*dfio.TransportMux, error) {
	mux := dfio.NewTransportMux()

	needsS3 := false
	for _, p := range paths {
		if strings.HasPrefix(p, "s3://") {
			needsS3 = true
		}
	}
	if !needsS3 {
		return mux, nil
	}

	awsCfg, err := config.LoadDefaultConfig(cmd.Context())
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}
	client := awss3.NewFromConfig(awsCfg, func(o *awss3.Options) {
		if f.s3Endpoint != "" {
			o.BaseEndpoint = aws.String(f.s3Endpoint)
			o.UsePathStyle = true
		}
	})
	transport, err := dfios3.New(client)
	if err != nil {
		return nil, err
	}
	mux.Register("s3", transport)
	return mux, nil
}

func parseFormat(name string) (dfio.Format, error) {
	f, err := dfio.ParseFormat(name)
	if err != nil {
		return 0, fmt.Errorf("%w (choose csv, json, or parquet)", err)
	}
	return f, nil
}

// -----------------------------------------------------------------------------
// convert
// -----------------------------------------------------------------------------

type convertFlags struct {
	inFormat  string
	outFormat string
	copies    []string
	level     int
	chunkSize int
	timeout   time.Duration
	delimiter string
	noHeader  bool
}

func newConvertCmd(root *rootFlags) *cobra.Command {
	flags := &convertFlags{}
	cmd := &cobra.Command{
		Use:   "convert <src> <dst>",
		Short: "Read a dataset and write it to one or more destinations",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConvert(cmd, root, flags, args[0], args[1])
		},
	}
	cmd.Flags().StringVar(&flags.inFormat, "in-format", "csv", "source format: csv, json, parquet")
	cmd.Flags().StringVar(&flags.outFormat, "out-format", "", "destination format (default: source format)")
	cmd.Flags().StringArrayVar(&flags.copies, "copy", nil, "additional destination path (repeatable)")
	cmd.Flags().IntVar(&flags.level, "level", dfio.DefaultCompressLevel, "compression level for compressed destinations")
	cmd.Flags().IntVar(&flags.chunkSize, "chunk-size", 0, "rows per output chunk (0 disables chunking)")
	cmd.Flags().DurationVar(&flags.timeout, "timeout", 0, "per-destination write timeout (0 disables)")
	cmd.Flags().StringVar(&flags.delimiter, "csv-delimiter", ",", "CSV field delimiter")
	cmd.Flags().BoolVar(&flags.noHeader, "csv-no-header", false, "read and write CSV without a header row")
	return cmd
}

func runConvert(cmd *cobra.Command, root *rootFlags, flags *convertFlags, src, dst string) error {
	logger, err := root.logger()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	inFormat, err := parseFormat(flags.inFormat)
	if err != nil {
		return err
	}
	outFormat := inFormat
	if flags.outFormat != "" {
		if outFormat, err = parseFormat(flags.outFormat); err != nil {
			return err
		}
	}

	csvOpts := dfio.CSVOptions{NoHeader: flags.noHeader}
	if r := []rune(flags.delimiter); len(r) == 1 {
		csvOpts.Delimiter = r[0]
	} else {
		return fmt.Errorf("csv delimiter must be a single character, got %q", flags.delimiter)
	}

	allPaths := append([]string{src, dst}, flags.copies...)
	mux, err := root.mux(cmd, allPaths...)
	if err != nil {
		return err
	}

	ds, err := dfio.Read(cmd.Context(), src,
		dfio.WithFormat(inFormat),
		dfio.WithCSVOptions(csvOpts),
		dfio.WithTransport(mux),
		dfio.WithLogger(logger))
	if err != nil {
		return err
	}

	report, err := dfio.Write(cmd.Context(), ds, dst,
		dfio.WithFormat(outFormat),
		dfio.WithCSVOptions(csvOpts),
		dfio.WithTransport(mux),
		dfio.WithLogger(logger),
		dfio.WithCopies(flags.copies...),
		dfio.WithCompressLevel(flags.level),
		dfio.WithChunkSize(flags.chunkSize),
		dfio.WithTimeout(flags.timeout))
	if err != nil {
		for _, failed := range report.Failed() {
			fmt.Fprintf(cmd.ErrOrStderr(), "failed: chunk %d -> %s: %v\n", failed.Chunk, failed.Destination, failed.Err)
		}
		return err
	}

	var total int64
	for _, r := range report.Results {
		total += r.Bytes
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %d rows in %d chunk(s) to %d destination(s), %d bytes total\n",
		ds.NumRows(), report.Chunks, len(report.Destinations), total)
	return nil
}

// -----------------------------------------------------------------------------
// stat
// -----------------------------------------------------------------------------

func newStatCmd(root *rootFlags) *cobra.Command {
	var formatName string
	cmd := &cobra.Command{
		Use:   "stat <path>",
		Short: "Print the shape of a dataset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := root.logger()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			format, err := parseFormat(formatName)
			if err != nil {
				return err
			}
			mux, err := root.mux(cmd, args[0])
			if err != nil {
				return err
			}

			ds, err := dfio.Read(cmd.Context(), args[0],
				dfio.WithFormat(format),
				dfio.WithTransport(mux),
				dfio.WithLogger(logger))
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d rows, %d columns\n", args[0], ds.NumRows(), ds.NumColumns())
			for _, col := range ds.Columns() {
				fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", col)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&formatName, "format", "csv", "dataset format: csv, json, parquet")
	return cmd
}
