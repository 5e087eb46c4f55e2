package mail

import (
	"fmt"
	htmltemplate "html/template"
	"io/fs"
	"path"
	"strings"
	texttemplate "text/template"
)

// templates pairs the HTML body of each email with its plain text alternative.
type templates struct {
	html map[string]*htmltemplate.Template
	text map[string]*texttemplate.Template
}

func parseTemplates(fsys fs.FS) (*templates, error) {
	t := &templates{
		html: make(map[string]*htmltemplate.Template),
		text: make(map[string]*texttemplate.Template),
	}

	entries, err := fs.ReadDir(fsys, "templates")
	if err != nil {
		return nil, err
	}

	for _, e := range entries {
		file := path.Join("templates", e.Name())
		name := strings.TrimSuffix(e.Name(), path.Ext(e.Name()))

		switch path.Ext(e.Name()) {
		case ".html":
			tpl, err := htmltemplate.ParseFS(fsys, file)
			if err != nil {
				return nil, err
			}

			t.html[name] = tpl
		case ".txt":
			tpl, err := texttemplate.ParseFS(fsys, file)
			if err != nil {
				return nil, err
			}

			t.text[name] = tpl
		}
	}

	return t, nil
}

func (t *templates) lookup(name string) (*htmltemplate.Template, *texttemplate.Template, error) {
	html, okHTML := t.html[name]
	text, okText := t.text[name]

	if !okHTML || !okText {
		return nil, nil, fmt.Errorf("email template %q not found", name)
	}

	return html, text, nil
}
