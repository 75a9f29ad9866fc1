package core

import (
	"bytes"
	"os"
	"text/template"
)

// expand renders template expressions in configuration values. Only
// environment lookups are available: {{ env "NAME" }} and
// {{ envOr "NAME" "fallback" }}.
func expand(value string) (string, error) {
	tmpl, err := template.New("expand_variables").
		Funcs(template.FuncMap{
			"env": func(envvar string) string {
				return os.Getenv(envvar)
			},
			"envOr": func(envvar, fallback string) string {
				if v, ok := os.LookupEnv(envvar); ok {
					return v
				}
				return fallback
			},
		}).
		Parse(value)
	if err != nil {
		return "", err
	}

	var out bytes.Buffer
	err = tmpl.Execute(&out, nil)
	if err != nil {
		return "", err
	}

	return out.String(), nil
}

// expandOrDefault silently suppresses errors.
func expandOrDefault(value string) string {
	ex, err := expand(value)
	if err != nil {
		return value
	}
	return ex
}
