package templates

import (
	"context"
	"io"

	"github.com/a-h/templ"

	"github.com/PhilHem/go-secure-headers-proxy/backend/models"
)

// Logs renders the most recent log entries as a server-side table
func Logs(entries []models.LogEntry) templ.Component {
	body := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		s := "<form method=\"post\" action=\"/admin/logout\"><button type=\"submit\">Log out</button></form>"
		if len(entries) == 0 {
			s += "<p>No log entries yet.</p>"
		} else {
			s += "<table><tr><th>Time</th><th>Level</th><th>Source</th><th>Message</th></tr>"
			for _, e := range entries {
				s += "<tr><td>" + templ.EscapeString(e.CreatedAt.Format("2006-01-02 15:04:05")) + "</td>" +
					"<td>" + templ.EscapeString(e.Level) + "</td>" +
					"<td>" + templ.EscapeString(e.Source) + "</td>" +
					"<td>" + templ.EscapeString(e.Message) + "</td></tr>"
			}
			s += "</table>"
		}
		_, err := io.WriteString(w, s)
		return err
	})
	return page("Proxy logs", body)
}
