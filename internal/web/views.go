package web

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/JonMunkholm/datamorpher/internal/core"
	"github.com/a-h/templ"
)

// errorAlert renders a user message as an alert fragment.
func errorAlert(msg core.UserMessage) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		var b strings.Builder
		b.WriteString(`<div class="alert alert-error" role="alert">`)
		fmt.Fprintf(&b, `<p class="alert-message">%s</p>`, templ.EscapeString(msg.Message))
		if msg.Action != "" {
			fmt.Fprintf(&b, `<p class="alert-action">%s</p>`, templ.EscapeString(msg.Action))
		}
		fmt.Fprintf(&b, `<p class="alert-code">Code: %s</p>`, templ.EscapeString(msg.Code))
		b.WriteString(`</div>`)
		_, err := io.WriteString(w, b.String())
		return err
	})
}

// taskPanel renders a job's status. Until the job is terminal the panel
// re-polls itself every second.
func taskPanel(id string, st core.JobStatus) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		var b strings.Builder
		statusURL := "/api/task-status/" + id + "/"

		if st.Status.IsTerminal() {
			b.WriteString(`<div class="task" id="task-` + templ.EscapeString(id) + `">`)
		} else {
			fmt.Fprintf(&b, `<div class="task" id="task-%s" hx-get="%s" hx-trigger="every 1s" hx-swap="outerHTML">`,
				templ.EscapeString(id), templ.EscapeString(statusURL))
		}
		fmt.Fprintf(&b, `<p class="task-status">%s</p>`, templ.EscapeString(string(st.Status)))

		switch st.Status {
		case core.StateSuccess:
			names := make([]string, 0, len(st.InferredTypes))
			for name := range st.InferredTypes {
				names = append(names, name)
			}
			sort.Strings(names)

			b.WriteString(`<table class="task-types"><thead><tr><th>Column</th><th>Type</th></tr></thead><tbody>`)
			for _, name := range names {
				fmt.Fprintf(&b, `<tr><td>%s</td><td>%s</td></tr>`,
					templ.EscapeString(name), templ.EscapeString(st.InferredTypes[name]))
			}
			b.WriteString(`</tbody></table>`)
		case core.StateFailure:
			fmt.Fprintf(&b, `<p class="task-error">%s</p>`, templ.EscapeString(st.Error))
		}

		b.WriteString(`</div>`)
		_, err := io.WriteString(w, b.String())
		return err
	})
}
