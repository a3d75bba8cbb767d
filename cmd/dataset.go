package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/propval/internal/fetcher"
	"github.com/sells-group/propval/internal/refdata"
	"github.com/sells-group/propval/internal/store"
)

var datasetCmd = &cobra.Command{
	Use:   "dataset",
	Short: "Manage PIN code reference data",
	Long:  "Commands for importing, validating and inspecting PIN code locality records.",
}

// -- dataset import --

var datasetImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Import PIN records from a JSON, YAML or XLSX source",
	Long: `Reads PIN records from a sectioned JSON or YAML file (--file) or a guidance
workbook (--xlsx), optionally attaches centroids from a shapefile, validates
them and writes them to the store, or to a PIN file when --out is given.
Every source may be a local path or an http(s) or ftp URL; zip archives are
extracted.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := cfg.Validate("dataset"); err != nil {
			return err
		}

		f := cmd.Flags()
		var opts importOptions
		opts.File, _ = f.GetString("file")
		opts.Workbook, _ = f.GetString("xlsx")
		opts.Sheet, _ = f.GetString("sheet")
		opts.Centroids, _ = f.GetString("centroids")
		opts.PINField, _ = f.GetString("pin-field")
		opts.Out, _ = f.GetString("out")
		opts.Force, _ = f.GetBool("force")

		return importDataset(cmd.Context(), opts, os.Stderr)
	},
}

type importOptions struct {
	File      string
	Workbook  string
	Sheet     string
	Centroids string
	PINField  string
	Out       string
	Force     bool
}

// importDataset resolves the sources (downloading and unpacking URLs),
// validates the records and writes them to opts.Out or the store.
func importDataset(ctx context.Context, opts importOptions, w io.Writer) error {
	tmp, err := os.MkdirTemp("", "propval-dataset-")
	if err != nil {
		return eris.Wrap(err, "dataset import: temp dir")
	}
	defer os.RemoveAll(tmp) //nolint:errcheck

	src := fetcher.NewSource(tmp)
	if opts.File, err = src.Local(ctx, opts.File, ".json", ".yaml", ".yml"); err != nil {
		return err
	}
	if opts.Workbook, err = src.Local(ctx, opts.Workbook, ".xlsx"); err != nil {
		return err
	}
	if opts.Centroids, err = src.Local(ctx, opts.Centroids, ".shp"); err != nil {
		return err
	}

	recs, err := readPINSource(opts.File, opts.Workbook, opts.Sheet)
	if err != nil {
		return err
	}
	if opts.Centroids != "" {
		pts, err := refdata.ReadCentroids(opts.Centroids, opts.PINField)
		if err != nil {
			return err
		}
		n := refdata.AttachCentroids(recs, pts)
		zap.L().Info("attached PIN centroids", zap.Int("attached", n), zap.Int("records", len(recs)))
	}

	issues := refdata.Validate(refdata.Default().WithPINs(recs))
	printIssues(w, issues)
	if refdata.HasErrors(issues) && !opts.Force {
		return eris.Errorf("dataset import: validation reported %d issues (use --force to import anyway)", len(issues))
	}

	if opts.Out != "" {
		if err := refdata.WritePINFile(opts.Out, recs); err != nil {
			return err
		}
		fmt.Fprintf(w, "Wrote %d PIN records to %s\n", len(recs), opts.Out)
		return nil
	}

	st, err := initStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close() //nolint:errcheck

	n, err := st.UpsertPINRecords(ctx, recs)
	if err != nil {
		return eris.Wrap(err, "dataset import")
	}
	fmt.Fprintf(w, "Imported %d PIN records\n", n)
	return nil
}

// readPINSource reads records from exactly one of a PIN file or a workbook.
func readPINSource(file, workbook, sheet string) ([]refdata.PINRecord, error) {
	switch {
	case file != "" && workbook != "":
		return nil, eris.New("dataset import: --file and --xlsx are mutually exclusive")
	case file != "":
		return refdata.LoadPINFile(file)
	case workbook != "":
		return refdata.ReadPINWorkbook(workbook, refdata.WorkbookOptions{SheetName: sheet})
	default:
		return nil, eris.New("dataset import: one of --file or --xlsx is required")
	}
}

// -- dataset validate --

var datasetValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the configured dataset for missing or inconsistent prices",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		if err := cfg.Validate("dataset"); err != nil {
			return err
		}

		var st store.Store
		if cfg.Dataset.PINFile == "" {
			s, err := initStore(ctx)
			if err != nil {
				return err
			}
			defer s.Close() //nolint:errcheck
			st = s
		}

		ds, err := loadDataset(ctx, cfg.Dataset, st)
		if err != nil {
			return err
		}

		issues := refdata.Validate(ds)
		if len(issues) == 0 {
			fmt.Fprintf(os.Stderr, "Dataset OK: %d cities, %d PIN records\n", len(ds.Cities()), len(ds.PINs()))
			return nil
		}
		printIssues(os.Stdout, issues)
		if refdata.HasErrors(issues) {
			return eris.Errorf("dataset validate: %d issues", len(issues))
		}
		return nil
	},
}

// -- dataset show --

var datasetShowCmd = &cobra.Command{
	Use:   "show <pin-code>",
	Short: "Show one PIN record",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if !refdata.ValidPIN(args[0]) {
			return eris.Errorf("dataset show: %q is not a 6-digit PIN code", args[0])
		}

		if cfg.Dataset.PINFile != "" {
			ds, err := loadDataset(ctx, cfg.Dataset, nil)
			if err != nil {
				return err
			}
			rec, ok := ds.PIN(args[0])
			if !ok {
				return eris.Errorf("dataset show: PIN code %s not found", args[0])
			}
			return printJSON(os.Stdout, rec)
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		rec, err := st.GetPINRecord(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "dataset show")
		}
		if rec == nil {
			return eris.Errorf("dataset show: PIN code %s not found", args[0])
		}
		return printJSON(os.Stdout, rec)
	},
}

func printIssues(w io.Writer, issues []refdata.Issue) {
	if len(issues) == 0 {
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SEVERITY\tSUBJECT\tMESSAGE")
	for _, is := range issues {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", is.Severity, is.Subject, is.Message)
	}
	tw.Flush() //nolint:errcheck
}

func init() {
	datasetImportCmd.Flags().String("file", "", "sectioned PIN database (.json, .yaml)")
	datasetImportCmd.Flags().String("xlsx", "", "guidance value workbook")
	datasetImportCmd.Flags().String("sheet", "", "workbook sheet name (default first sheet)")
	datasetImportCmd.Flags().String("centroids", "", "shapefile of PIN code boundaries or points")
	datasetImportCmd.Flags().String("pin-field", refdata.DefaultPINField, "shapefile attribute holding the PIN code")
	datasetImportCmd.Flags().String("out", "", "write a PIN file instead of importing into the store")
	datasetImportCmd.Flags().Bool("force", false, "import even when validation reports errors")

	datasetCmd.AddCommand(datasetImportCmd)
	datasetCmd.AddCommand(datasetValidateCmd)
	datasetCmd.AddCommand(datasetShowCmd)
	rootCmd.AddCommand(datasetCmd)
}
