package cmd

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/A-Akhil/BluePrint/config"
	"github.com/A-Akhil/BluePrint/internal/util"
	"github.com/A-Akhil/BluePrint/logger"
	"github.com/A-Akhil/BluePrint/pkg/blast"
	"github.com/A-Akhil/BluePrint/pkg/classify"
	"github.com/A-Akhil/BluePrint/pkg/db"
	"github.com/A-Akhil/BluePrint/pkg/diversity"
	"github.com/A-Akhil/BluePrint/pkg/model"
	"github.com/A-Akhil/BluePrint/pkg/taxonomy"
)

var classifyFlags struct {
	in          string
	sampleID    string
	sampleType  string
	region      string
	collected   string
	dbPath      string
	blastBin    string
	blastDBDir  string
	taxonomyMap string
	noProgress  bool
}

// classifyCmd runs the full cascade over one sample's FASTA file.
var classifyCmd = &cobra.Command{
	Use:   "classify",
	Short: "Classify a sample's sequences through the reference database cascade",
	Long: `Read a FASTA file of eDNA sequences, search each distinct sequence through
the ordered reference databases, and persist one taxonomic assignment per
sequence plus the sample's biodiversity metrics.`,
	RunE: runClassify,
}

func init() {
	classifyCmd.Flags().StringVarP(&classifyFlags.in, "in", "i", "", "input FASTA, optionally gzipped")
	classifyCmd.Flags().StringVarP(&classifyFlags.sampleID, "sample", "s", "", "sample identifier")
	classifyCmd.Flags().StringVar(&classifyFlags.sampleType, "sample-type", "", "collection medium, e.g. sediment or water")
	classifyCmd.Flags().StringVar(&classifyFlags.region, "region", "", "amplicon region, e.g. 18S or COI")
	classifyCmd.Flags().StringVar(&classifyFlags.collected, "collected", "", "collection date (2006-01-02 or RFC 3339)")
	classifyCmd.Flags().StringVarP(&classifyFlags.dbPath, "db", "d", "blueprint.db", "sqlite database file")
	classifyCmd.Flags().StringVar(&classifyFlags.blastBin, "blast-bin", "blastn", "blastn binary")
	classifyCmd.Flags().StringVar(&classifyFlags.blastDBDir, "blast-db-dir", "", "directory holding the reference databases (BLASTDB)")
	classifyCmd.Flags().StringVarP(&classifyFlags.taxonomyMap, "taxonomy", "t", "", "accession-to-lineage table, optionally gzipped")
	classifyCmd.Flags().BoolVar(&classifyFlags.noProgress, "no-progress", false, "disable the progress bar")

	_ = classifyCmd.MarkFlagRequired("in")
	_ = classifyCmd.MarkFlagRequired("sample")

	rootCmd.AddCommand(classifyCmd)
}

func runClassify(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	collected, err := parseCollected(classifyFlags.collected)
	if err != nil {
		return err
	}

	if !util.FileExists(classifyFlags.in) {
		return fmt.Errorf("input %s does not exist", classifyFlags.in)
	}
	if classifyFlags.blastDBDir != "" && !util.DirExists(classifyFlags.blastDBDir) {
		return fmt.Errorf("reference database directory %s does not exist", classifyFlags.blastDBDir)
	}

	seqs, err := readSequences(classifyFlags.in)
	if err != nil {
		return err
	}
	logger.Info("sequences loaded",
		zap.String("path", classifyFlags.in),
		zap.Int("distinct", len(seqs)))

	var resolver taxonomy.Resolver
	if classifyFlags.taxonomyMap != "" {
		table, err := taxonomy.LoadTable(classifyFlags.taxonomyMap)
		if err != nil {
			return err
		}
		logger.Info("taxonomy table loaded",
			zap.String("path", classifyFlags.taxonomyMap),
			zap.Int("accessions", table.Len()))
		resolver = table
	} else {
		logger.Warn("no taxonomy table, assignments will carry match statistics only")
	}

	store, err := db.OpenSQLite(classifyFlags.dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := cmd.Context()
	sample := model.Sample{
		ID:             uuid.NewString(),
		SampleID:       classifyFlags.sampleID,
		SampleType:     classifyFlags.sampleType,
		AmpliconRegion: classifyFlags.region,
		CollectedAt:    collected,
	}
	if err := store.UpsertSample(ctx, sample); err != nil {
		return err
	}

	cascade := &classify.Cascade{
		Databases: cfg.Cascade.Databases,
		Searcher: &blast.CommandSearcher{
			Binary: classifyFlags.blastBin,
			DBDir:  classifyFlags.blastDBDir,
		},
		Resolver: resolver,
		Scorer: classify.Scorer{
			HighThreshold:   cfg.Scoring.HighThreshold,
			MediumThreshold: cfg.Scoring.MediumThreshold,
			LowThreshold:    cfg.Scoring.LowThreshold,
			CoverageFloor:   cfg.Scoring.CoveragePenaltyFloor,
		},
		Acceptance:    cfg.Cascade.AcceptanceThreshold,
		EValueCutoff:  cfg.Cascade.EValueCutoff,
		SearchTimeout: cfg.Pipeline.SearchTimeout,
		RetryBackoff:  cfg.Pipeline.RetryBackoff,
	}

	bar := newProgress(len(seqs), !classifyFlags.noProgress)
	pipeline := &classify.Pipeline{
		Cascade:    cascade,
		Detector:   classify.NoveltyDetector{IdentityThreshold: cfg.Cascade.NovelIdentityThreshold},
		Calculator: diversity.NewCalculator(cfg.Groups),
		Store:      store,
		Workers:    cfg.Pipeline.Workers,
		OnProgress: func(done, total int) { bar.set(done) },
	}

	result, err := pipeline.Run(ctx, sample.SampleID, seqs)
	bar.finish()
	if err != nil {
		return err
	}

	logger.Info("sample classified",
		zap.String("sample_id", sample.SampleID),
		zap.Int("assignments", result.AssignmentsCreated),
		zap.Int("novel_taxa", result.NovelTaxaCount),
		zap.Duration("elapsed", result.Elapsed))
	return nil
}

func parseCollected(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized collection date %q", value)
}
