package mailer

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/colivhub/portal-server-go/internal/model"
)

var linkEmailHTML = template.Must(template.New("link").Parse(`<!doctype html>
<html><body style="font-family:sans-serif">
<p>{{.Intro}}</p>
<p><a href="{{.URL}}">{{.Action}}</a></p>
<p style="color:#888">{{.Expiry}}</p>
</body></html>`))

type linkCopy struct {
	Subject string
	Intro   string
	Action  string
	Expiry  string
}

var linkCopies = map[model.LinkPurpose]map[model.Language]linkCopy{
	model.LinkPurposeMagic: {
		model.LanguageFR: {
			Subject: "Votre lien de connexion",
			Intro:   "Cliquez sur le lien ci-dessous pour accéder à votre espace résident.",
			Action:  "Se connecter",
			Expiry:  "Ce lien expire dans %d minutes et ne peut être utilisé qu'une fois.",
		},
		model.LanguageEN: {
			Subject: "Your sign-in link",
			Intro:   "Click the link below to open your resident portal.",
			Action:  "Sign in",
			Expiry:  "This link expires in %d minutes and can only be used once.",
		},
	},
	model.LinkPurposeRecovery: {
		model.LanguageFR: {
			Subject: "Réinitialisation du mot de passe",
			Intro:   "Vous avez demandé à réinitialiser votre mot de passe.",
			Action:  "Choisir un nouveau mot de passe",
			Expiry:  "Ce lien expire dans %d minutes et ne peut être utilisé qu'une fois.",
		},
		model.LanguageEN: {
			Subject: "Reset your password",
			Intro:   "You asked to reset your password.",
			Action:  "Choose a new password",
			Expiry:  "This link expires in %d minutes and can only be used once.",
		},
	},
}

// LinkMessage renders the email carrying a sign-in or recovery link.
func LinkMessage(purpose model.LinkPurpose, lang model.Language, to, url string, ttlMinutes int) (Message, error) {
	byLang, ok := linkCopies[purpose]
	if !ok {
		return Message{}, fmt.Errorf("unknown link purpose %q", purpose)
	}
	c, ok := byLang[lang]
	if !ok {
		c = byLang[model.LanguagePrimary]
	}
	c.Expiry = fmt.Sprintf(c.Expiry, ttlMinutes)

	var html bytes.Buffer
	err := linkEmailHTML.Execute(&html, struct {
		linkCopy
		URL string
	}{c, url})
	if err != nil {
		return Message{}, fmt.Errorf("render link email: %w", err)
	}

	return Message{
		To:      to,
		Subject: c.Subject,
		Text:    fmt.Sprintf("%s\n\n%s\n\n%s", c.Intro, url, c.Expiry),
		HTML:    html.String(),
	}, nil
}
