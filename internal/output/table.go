package output

import (
	"bytes"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/jbweber/testbed/api/v1alpha1"
)

// TableFormatter formats results as human-readable tables.
type TableFormatter struct {
	// NoHeaders omits the header row.
	NoHeaders bool
}

// FormatSet formats the observed status of a FixtureSet. Declared resources
// without a status entry are shown as Pending.
func (f *TableFormatter) FormatSet(fs *v1alpha1.FixtureSet) (string, error) {
	if len(fs.Status.Resources) > 0 {
		return f.FormatResources(fs.Status.Resources)
	}

	pending := make([]v1alpha1.ResourceStatus, 0, len(fs.Spec.Resources))
	for _, r := range fs.Spec.Resources {
		st := v1alpha1.ResourceStatus{
			Kind:    r.Kind,
			Name:    r.Name,
			Mode:    r.EffectiveMode(),
			Message: "Pending",
		}
		if r.StorageVol != nil {
			st.Pool = r.StorageVol.Pool
		}
		pending = append(pending, st)
	}
	return f.FormatResources(pending)
}

// FormatResources formats resource statuses as a table.
func (f *TableFormatter) FormatResources(resources []v1alpha1.ResourceStatus) (string, error) {
	if len(resources) == 0 {
		return "No resources found\n", nil
	}

	var buf bytes.Buffer
	w := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)

	if !f.NoHeaders {
		_, _ = fmt.Fprintln(w, "KIND\tNAME\tMODE\tPHASE\tPOOL\tAGE\tMESSAGE")
	}

	for _, r := range resources {
		age := "-"
		if !r.LastTransitionTime.IsZero() {
			age = formatAge(time.Since(r.LastTransitionTime.Time))
		}

		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			r.Kind, r.Name, dash(string(r.Mode)), dash(string(r.Phase)), dash(r.Pool), age, dash(r.Message))
	}

	_ = w.Flush()
	return buf.String(), nil
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// formatAge formats a duration as a human-readable age string.
// Examples: "5s", "2m", "3h", "4d", "2w", "1y"
func formatAge(d time.Duration) string {
	if d < 0 {
		return "unknown"
	}

	seconds := int(d.Seconds())
	if seconds < 60 {
		return fmt.Sprintf("%ds", seconds)
	}

	minutes := seconds / 60
	if minutes < 60 {
		return fmt.Sprintf("%dm", minutes)
	}

	hours := minutes / 60
	if hours < 24 {
		return fmt.Sprintf("%dh", hours)
	}

	days := hours / 24
	if days < 7 {
		return fmt.Sprintf("%dd", days)
	}

	weeks := days / 7
	if weeks < 8 {
		return fmt.Sprintf("%dw", weeks)
	}

	if years := days / 365; years > 0 {
		return fmt.Sprintf("%dy", years)
	}
	return fmt.Sprintf("%dd", days)
}
