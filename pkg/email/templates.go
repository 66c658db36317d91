package email

import (
	"bytes"
	"html/template"
	"log"
)

// TemplateManager holds the parsed email templates.
type TemplateManager struct {
	ActivationTmpl     *template.Template
	ResetPassTmpl      *template.Template
	MissionClaimedTmpl *template.Template
}

// NewTemplateManager parses all email templates at startup.
func NewTemplateManager() (*TemplateManager, error) {
	activationTmpl, err := template.New("activation").Parse(accountActivTemplate)
	if err != nil {
		return nil, err
	}

	resetPassTmpl, err := template.New("resetPassword").Parse(passwordResetTemplate)
	if err != nil {
		return nil, err
	}

	missionClaimedTmpl, err := template.New("missionClaimed").Parse(missionClaimedTemplate)
	if err != nil {
		return nil, err
	}

	log.Println("Email templates parsed successfully.")
	return &TemplateManager{
		ActivationTmpl:     activationTmpl,
		ResetPassTmpl:      resetPassTmpl,
		MissionClaimedTmpl: missionClaimedTmpl,
	}, nil
}

// TemplateData holds the dynamic data for an email template.
type TemplateData struct {
	Name            string
	Link            string
	Immatriculation string
	Modele          string
	LieuDepart      string
	LieuArrivee     string
}

// GenerateActivateAccountEmailHTML executes the activation template.
func (tm *TemplateManager) GenerateActivateAccountEmailHTML(data TemplateData) (string, error) {
	var body bytes.Buffer
	if err := tm.ActivationTmpl.Execute(&body, data); err != nil {
		return "", err
	}
	return body.String(), nil
}

// GenerateResetPasswordEmailHTML executes the password reset template.
func (tm *TemplateManager) GenerateResetPasswordEmailHTML(data TemplateData) (string, error) {
	var body bytes.Buffer
	if err := tm.ResetPassTmpl.Execute(&body, data); err != nil {
		return "", err
	}
	return body.String(), nil
}

// GenerateMissionClaimedEmailHTML executes the mission claimed notification
// template.
func (tm *TemplateManager) GenerateMissionClaimedEmailHTML(data TemplateData) (string, error) {
	var body bytes.Buffer
	if err := tm.MissionClaimedTmpl.Execute(&body, data); err != nil {
		return "", err
	}
	return body.String(), nil
}

const accountActivTemplate = `
<html>
  <body style="font-family: Arial, sans-serif; color: #333;">
    <h2>Bienvenue sur Automédon</h2>
    <p>Merci pour votre inscription. Cliquez sur le bouton ci-dessous pour activer votre compte. Le lien est valable 30 minutes.</p>
    <p><a href="{{.Link}}" style="background: #1a73e8; color: #fff; padding: 10px 18px; text-decoration: none; border-radius: 4px;">Activer mon compte</a></p>
    <p>Si vous n'êtes pas à l'origine de cette inscription, ignorez simplement ce message.</p>
  </body>
</html>`

const passwordResetTemplate = `
<html>
  <body style="font-family: Arial, sans-serif; color: #333;">
    <h2>Réinitialisation de votre mot de passe</h2>
    <p>Une réinitialisation a été demandée pour votre compte. Cliquez sur le bouton ci-dessous pour choisir un nouveau mot de passe. Le lien est valable une heure.</p>
    <p><a href="{{.Link}}" style="background: #1a73e8; color: #fff; padding: 10px 18px; text-decoration: none; border-radius: 4px;">Choisir un nouveau mot de passe</a></p>
    <p>Si vous n'avez rien demandé, ignorez simplement ce message.</p>
  </body>
</html>`

const missionClaimedTemplate = `
<html>
  <body style="font-family: Arial, sans-serif; color: #333;">
    <h2>Votre mission a été acceptée</h2>
    <p>Un convoyeur a accepté la mission suivante :</p>
    <ul>
      <li>Véhicule : {{.Modele}} ({{.Immatriculation}})</li>
      <li>Départ : {{.LieuDepart}}</li>
      <li>Arrivée : {{.LieuArrivee}}</li>
    </ul>
    <p>Vous pouvez suivre son avancement depuis votre espace client.</p>
  </body>
</html>`
