package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"chatmetrics/internal/config"
	"chatmetrics/internal/identity"
	"chatmetrics/internal/report"
	"chatmetrics/internal/store"
)

// generateFlags collects the per-invocation overrides; empty or
// negative values defer to the config file.
type generateFlags struct {
	db        string
	out       string
	contacts  string
	since     string
	until     string
	threshold float64
	top       int
}

func (f *generateFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.db, "db", "",
		"path to the messages database (chat.db copy)")
	cmd.Flags().StringVar(&f.out, "out", "",
		"output path for the JSON report (\"-\" for stdout)")
	cmd.Flags().StringVar(&f.contacts, "contacts", "",
		"contacts JSON file for name resolution")
	cmd.Flags().StringVar(&f.since, "since", "",
		"start date YYYY-MM-DD (inclusive)")
	cmd.Flags().StringVar(&f.until, "until", "",
		"end date YYYY-MM-DD (inclusive)")
	cmd.Flags().Float64Var(&f.threshold, "threshold-hours", -1,
		"hours before an unanswered read counts as left on read")
	cmd.Flags().IntVar(&f.top, "top", -1,
		"maximum chats to include in the report")
}

// merge folds flag overrides into the loaded config.
func (f *generateFlags) merge(cfg *config.Config) {
	if f.db != "" {
		cfg.DBPath = f.db
	}
	if f.out != "" {
		cfg.OutputPath = f.out
	}
	if f.contacts != "" {
		cfg.ContactsPath = f.contacts
	}
	if f.since != "" {
		cfg.Since = f.since
	}
	if f.until != "" {
		cfg.Until = f.until
	}
	if f.threshold >= 0 {
		cfg.ThresholdHours = f.threshold
	}
	if f.top >= 0 {
		cfg.Top = f.top
	}
}

func newGenerateCmd(a *app) *cobra.Command {
	var flags generateFlags

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate the analytics report once",
		RunE: func(cmd *cobra.Command, args []string) error {
			flags.merge(&a.cfg)
			return generate(cmd.Context(), a)
		},
	}
	flags.register(cmd)
	return cmd
}

// generate runs the full pipeline: open store, extract, build,
// serialize.
func generate(ctx context.Context, a *app) error {
	if a.cfg.DBPath == "" {
		return fmt.Errorf("no database path (--db or config)")
	}

	settings, err := buildSettings(a.cfg)
	if err != nil {
		return err
	}

	st, err := store.Open(a.cfg.DBPath)
	if err != nil {
		return err
	}
	defer st.Close()

	a.log.Debug().
		Str("db", a.cfg.DBPath).
		Str("scale", st.Scale().Label).
		Msg("store opened")

	filter := store.TimeFilter{}
	if settings.Since != nil {
		filter.SinceRaw = st.Scale().FromTime(*settings.Since)
		filter.HasSince = true
	}
	if settings.Until != nil {
		// Extend by one day so the boundary day is inclusive.
		filter.UntilRaw = st.Scale().FromTime(
			settings.Until.AddDate(0, 0, 1))
		filter.HasUntil = true
	}

	msgs, err := st.LoadMessages(ctx, filter)
	if err != nil {
		return err
	}

	photos, err := st.GroupPhotos(ctx)
	if err != nil {
		return err
	}

	counts := make(map[int64]int)
	for _, m := range msgs {
		if _, ok := counts[m.ChatID]; ok {
			continue
		}
		n, err := st.ParticipantCount(ctx, m.ChatID)
		if err != nil {
			return err
		}
		counts[m.ChatID] = n
	}

	dir, err := identity.LoadJSONDirectory(a.cfg.ContactsPath)
	if err != nil {
		return fmt.Errorf("loading contacts: %w", err)
	}

	rep := report.Build(report.Input{
		Messages:          msgs,
		Scale:             st.Scale(),
		GroupPhotos:       photos,
		ParticipantCounts: counts,
		Now:               time.Now(),
	}, settings, dir)

	if err := writeReport(a.cfg.OutputPath, rep); err != nil {
		return err
	}

	a.log.Info().
		Int("chats", len(rep.Chats)).
		Int("messages", rep.Summary.Totals.Total).
		Str("out", a.cfg.OutputPath).
		Msg("report generated")
	return nil
}

func buildSettings(cfg config.Config) (report.Settings, error) {
	since, err := config.ParseDay(cfg.Since)
	if err != nil {
		return report.Settings{}, err
	}
	until, err := config.ParseDay(cfg.Until)
	if err != nil {
		return report.Settings{}, err
	}
	return report.Settings{
		Since:          since,
		Until:          until,
		ThresholdHours: cfg.ThresholdHours,
		Top:            cfg.Top,
	}, nil
}

func writeReport(path string, rep report.Report) error {
	data, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	data = append(data, '\n')

	if path == "" || path == "-" {
		_, err = os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	return nil
}
