package expiry

import (
	"bytes"
	"fmt"
	"io"
	"time"
)

// Render writes the report as a Markdown document.
func (r *Report) Render(w io.Writer) error {
	var b bytes.Buffer

	fmt.Fprintf(&b, "# Policy expiry check\n\n")
	fmt.Fprintf(&b, "> Checked on: %s  \n", r.Today.Format(time.DateOnly))
	fmt.Fprintf(&b, "> Warning window: %d days | Stale after: %d days\n\n", r.WarningDays, r.StaleDays)

	if r.Empty() {
		fmt.Fprintf(&b, "✅ **All policies are within their validity period. Nothing to do.**\n")
	} else {
		if len(r.Expired) > 0 {
			fmt.Fprintf(&b, "## ❌ Expired policies (%d)\n\n", len(r.Expired))
			fmt.Fprintf(&b, "Set `status` to `expired` for these policies:\n\n")
			for _, it := range r.Expired {
				writeItem(&b, it, fmt.Sprintf("Expired on: %s (%d days ago)", it.Date, it.Days))
			}
		}
		if len(r.ExpiringSoon) > 0 {
			fmt.Fprintf(&b, "## ⚠️ Expiring soon (%d)\n\n", len(r.ExpiringSoon))
			fmt.Fprintf(&b, "Check whether these policies will be renewed:\n\n")
			for _, it := range r.ExpiringSoon {
				writeItem(&b, it, fmt.Sprintf("Expires on: %s (%d days left)", it.Date, it.Days))
			}
		}
		if len(r.Stale) > 0 {
			fmt.Fprintf(&b, "## 🕰️ Not verified recently (%d)\n\n", len(r.Stale))
			fmt.Fprintf(&b, "These policies were last verified more than %d days ago. Re-check them against the source:\n\n", r.StaleDays)
			for _, it := range r.Stale {
				writeItem(&b, it, fmt.Sprintf("Last verified: %s (%d days ago)", it.Date, it.Days))
			}
		}
		if len(r.MissingExpiry) > 0 {
			fmt.Fprintf(&b, "## 📌 No expiry date (%d, for reference)\n\n", len(r.MissingExpiry))
			fmt.Fprintf(&b, "These active policies have no `expiry_date`. Add one once confirmed:\n\n")
			for _, it := range r.MissingExpiry {
				writeItem(&b, it, "")
			}
		}
	}

	fmt.Fprintf(&b, "---\n\n*Generated by `policymap expiry`. Close this once the records are updated.*\n")

	_, err := w.Write(b.Bytes())
	return err
}

func writeItem(b *bytes.Buffer, it Item, detail string) {
	fmt.Fprintf(b, "- **%s**  \n  `%s`", it.Label, it.File)
	if detail != "" {
		fmt.Fprintf(b, "  \n  %s", detail)
	}
	b.WriteString("\n\n")
}
