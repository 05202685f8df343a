// Package templates holds the HTML fragments returned to HTMX requests.
package templates

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"
)

// ErrorAlert renders a dismissible error with its support code.
func ErrorAlert(message, action, code string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := fmt.Fprintf(w,
			`<div class="alert alert-error" role="alert">`+
				`<p class="alert-message">%s</p>`+
				`<p class="alert-action">%s</p>`+
				`<p class="alert-code">Code: %s</p>`+
				`</div>`,
			templ.EscapeString(message),
			templ.EscapeString(action),
			templ.EscapeString(code),
		)
		return err
	})
}

// ImportResult is the banner shown after an import finishes.
type ImportResult struct {
	Success     bool
	Message     string
	Detail      string
	RowsRead    int
	RowsSkipped int
}

// ImportBanner renders an ImportResult.
func ImportBanner(res ImportResult) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		class := "alert alert-error"
		if res.Success {
			class = "alert alert-success"
		}
		if _, err := fmt.Fprintf(w, `<div class="%s" role="status"><p class="alert-message">%s</p>`,
			class, templ.EscapeString(res.Message)); err != nil {
			return err
		}
		if res.Detail != "" {
			if _, err := fmt.Fprintf(w, `<p class="alert-action">%s</p>`, templ.EscapeString(res.Detail)); err != nil {
				return err
			}
		}
		if res.RowsRead > 0 {
			if _, err := fmt.Fprintf(w, `<p class="alert-rows">%d rows read, %d skipped</p>`,
				res.RowsRead, res.RowsSkipped); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, `</div>`)
		return err
	})
}
