package main

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"

	"github.com/BrandonKowalski/deeplink/pkg/deeplink"
)

//go:embed locales/*.toml
var localeFS embed.FS

var (
	msgOpen       = &i18n.Message{ID: "Open", Other: "open {{.Link}}"}
	msgOpened     = &i18n.Message{ID: "Opened", Other: "opened"}
	msgNotReady   = &i18n.Message{ID: "NotReady", Other: "not ready"}
	msgBlocked    = &i18n.Message{ID: "Blocked", Other: "blocked"}
	msgRejected   = &i18n.Message{ID: "Rejected", Other: "rejected (invalid path)"}
	msgFailed     = &i18n.Message{ID: "Failed", Other: "failed: {{.Error}}"}
	msgDeferred   = &i18n.Message{ID: "Deferred", Other: ", deferred"}
	msgAbandoned  = &i18n.Message{ID: "Abandoned", Other: ", abandoned"}
	msgStack      = &i18n.Message{ID: "Stack", Other: "stack: {{.Path}}"}
	msgPendingFor = &i18n.Message{ID: "Pending", Other: "pending: {{.Path}} (attempts {{.Attempts}})"}
)

// messages renders CLI output in the user's language. English is built in,
// other languages come from the embedded locale files.
type messages struct {
	localizer *i18n.Localizer
}

func newMessages(lang string) (*messages, error) {
	bundle := i18n.NewBundle(language.English)
	bundle.RegisterUnmarshalFunc("toml", toml.Unmarshal)

	files, err := fs.Glob(localeFS, "locales/*.toml")
	if err != nil {
		return nil, err
	}
	for _, f := range files {
		if _, err := bundle.LoadMessageFileFS(localeFS, f); err != nil {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}

	return &messages{localizer: i18n.NewLocalizer(bundle, matchLanguage(lang).String())}, nil
}

// matchLanguage turns a POSIX locale such as de_DE.UTF-8 into a language
// tag. Unparseable values fall back to English.
func matchLanguage(lang string) language.Tag {
	lang, _, _ = strings.Cut(lang, ".")
	lang, _, _ = strings.Cut(lang, "@")
	tag, err := language.Parse(strings.ReplaceAll(lang, "_", "-"))
	if err != nil || tag == language.Und {
		return language.English
	}
	return tag
}

func (m *messages) text(msg *i18n.Message, data map[string]any) string {
	s, err := m.localizer.Localize(&i18n.LocalizeConfig{DefaultMessage: msg, TemplateData: data})
	if err != nil && s == "" {
		return msg.Other
	}
	return s
}

// describe renders the outcome of a navigation. pending reports whether the
// navigator kept the route for a later retry.
func (m *messages) describe(err error, pending bool) string {
	var msg string
	switch {
	case err == nil:
		return m.text(msgOpened, nil)
	case deeplink.IsNotReady(err):
		msg = m.text(msgNotReady, nil)
	case deeplink.IsBlocked(err):
		msg = m.text(msgBlocked, nil)
	case errors.Is(err, deeplink.ErrInvalidPath):
		return m.text(msgRejected, nil)
	default:
		return m.text(msgFailed, map[string]any{"Error": err.Error()})
	}

	switch {
	case errors.Is(err, deeplink.ErrGaveUp):
		msg += m.text(msgAbandoned, nil)
	case pending:
		msg += m.text(msgDeferred, nil)
	}
	return msg
}
