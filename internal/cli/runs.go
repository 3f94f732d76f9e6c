package cli

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/aretw0/plangraph/internal/presentation/report"
	"github.com/aretw0/plangraph/pkg/ports"
)

// ListRuns prints one line per stored run, oldest first.
func ListRuns(ctx context.Context, store ports.SnapshotStore, w io.Writer) error {
	runs, err := store.List(ctx)
	if err != nil {
		return fmt.Errorf("error listing runs: %w", err)
	}
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs found.")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tPLAN\tSTATUS\tSNAPSHOTS\tSTARTED")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n", r.ID, r.Plan, r.Status, r.Snapshots, r.StartedAt.Local().Format(time.DateTime))
	}
	return tw.Flush()
}

// InspectRun prints a stored run in the requested format.
func InspectRun(ctx context.Context, store ports.SnapshotStore, id, format string, w io.Writer) error {
	f, err := report.ParseFormat(format)
	if err != nil {
		return err
	}
	run, err := store.Load(ctx, id)
	if err != nil {
		return fmt.Errorf("error loading run '%s': %w", id, err)
	}
	return writeReport(w, run, f)
}

// RemoveRuns deletes every id, reporting each one. It keeps going after a
// failure and returns an error if any removal failed.
func RemoveRuns(ctx context.Context, store ports.SnapshotStore, ids []string, w io.Writer) error {
	failed := 0
	for _, id := range ids {
		if err := store.Delete(ctx, id); err != nil {
			fmt.Fprintf(w, "Error removing '%s': %v\n", id, err)
			failed++
			continue
		}
		fmt.Fprintf(w, "Removed run '%s'\n", id)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d runs could not be removed", failed, len(ids))
	}
	return nil
}
