// Package manifest renders resolved plugin records into a Nix expression:
// a fixed header, one stanza per record, and a fixed footer.
package manifest

import (
	"fmt"
	"os"
	"strings"
	"text/template"

	"github.com/felixgeelhaar/plugmirror/internal/domain/mirror"
)

// Defaults reproduce the Jenkins plugin set layout.
const (
	DefaultBuilder = "mkJenkinsPlugin"
	DefaultFetcher = "fetchurl"
)

// DefaultHeader opens the generated expression and defines the builder.
const DefaultHeader = `{ stdenv, fetchurl }:
let mkJenkinsPlugin = { name, src }: stdenv.mkDerivation {
  name = name;
  src = src;
  phases = "installPhase";
  installPhase = ''
    mkdir $out
    cp $src $out
  '';
};
in rec {
`

// DefaultFooter closes the attribute set opened by DefaultHeader.
const DefaultFooter = "}\n"

// Fields are substituted verbatim. Nothing is escaped: a quote inside any
// field produces an invalid manifest.
var stanzaTemplate = template.Must(template.New("stanza").Parse(
	`  "{{.Record.Name}}-{{.Record.Version}}" = {{.Builder}} {
    name = "{{.Record.Name}}-{{.Record.Version}}";
    src = {{.Fetcher}} {
      url = "{{.Record.URL}}";
      sha256 = "{{.Record.Hash}}";
    };
  };
`))

// Template describes the fixed parts of a manifest.
type Template struct {
	Header  string
	Footer  string
	Builder string
	Fetcher string
}

// DefaultTemplate returns the Jenkins plugin set template.
func DefaultTemplate() Template {
	return Template{
		Header:  DefaultHeader,
		Footer:  DefaultFooter,
		Builder: DefaultBuilder,
		Fetcher: DefaultFetcher,
	}
}

// Stanza renders the build recipe for one record.
func (t Template) Stanza(r mirror.Record) (string, error) {
	var b strings.Builder
	err := stanzaTemplate.Execute(&b, struct {
		Record  mirror.Record
		Builder string
		Fetcher string
	}{r, t.builder(), t.fetcher()})
	if err != nil {
		return "", fmt.Errorf("failed to render stanza %s: %w", r.ID(), err)
	}
	return b.String(), nil
}

func (t Template) builder() string {
	if t.Builder == "" {
		return DefaultBuilder
	}
	return t.Builder
}

func (t Template) fetcher() string {
	if t.Fetcher == "" {
		return DefaultFetcher
	}
	return t.Fetcher
}

// Render returns header, one stanza per record in input order, and footer.
func Render(t Template, records []mirror.Record) (string, error) {
	var b strings.Builder
	b.WriteString(t.Header)
	for _, r := range records {
		stanza, err := t.Stanza(r)
		if err != nil {
			return "", err
		}
		b.WriteString(stanza)
	}
	b.WriteString(t.Footer)
	return b.String(), nil
}

// WithFiles replaces the header and/or footer with the contents of the given
// files. Empty paths keep the current value.
func (t Template) WithFiles(headerPath, footerPath string) (Template, error) {
	if headerPath != "" {
		data, err := os.ReadFile(headerPath)
		if err != nil {
			return t, fmt.Errorf("failed to read manifest header: %w", err)
		}
		t.Header = string(data)
	}
	if footerPath != "" {
		data, err := os.ReadFile(footerPath)
		if err != nil {
			return t, fmt.Errorf("failed to read manifest footer: %w", err)
		}
		t.Footer = string(data)
	}
	return t, nil
}
