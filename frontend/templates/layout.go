package templates

import (
	"context"
	"io"

	"github.com/a-h/templ"
)

const style = `body{font-family:sans-serif;max-width:960px;margin:2rem auto;padding:0 1rem;color:#222}
form{display:flex;flex-direction:column;gap:.5rem;max-width:320px}
input{padding:.4rem}button{padding:.4rem;cursor:pointer}
.error{color:#b00020}
table{border-collapse:collapse;width:100%}
th,td{border:1px solid #ccc;padding:.3rem .5rem;text-align:left;font-size:.9rem}`

// page wraps body in the shared HTML shell. Everything is rendered
// server-side; the pages carry no script, so they work under the strict
// default CSP the proxy injects.
func page(title string, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, "<!DOCTYPE html><html lang=\"en\"><head><meta charset=\"utf-8\"><meta name=\"viewport\" content=\"width=device-width, initial-scale=1\"><title>"+templ.EscapeString(title)+"</title><style>"+style+"</style></head><body><h1>"+templ.EscapeString(title)+"</h1>"); err != nil {
			return err
		}
		if err := body.Render(ctx, w); err != nil {
			return err
		}
		_, err := io.WriteString(w, "</body></html>")
		return err
	})
}

func raw(s string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, s)
		return err
	})
}
