package mail

import (
	"bytes"
	"fmt"
	"html/template"
)

// Template names an email layout and subject.
type Template string

const (
	TemplateOTPRegistration  Template = "OTP_REGISTRATION"
	TemplateOTPResetPassword Template = "OTP_RESET_PASSWORD"
	TemplateWelcome          Template = "WELCOME"
)

type templateDef struct {
	subject string
	body    string
}

var definitions = map[Template]templateDef{
	TemplateOTPRegistration: {
		subject: "Your PixelShop verification code",
		body: `<h2>Verify your email</h2>
<p>Use the code below to finish creating your PixelShop account.</p>
<p class="code">{{ .code }}</p>
<p>The code expires in {{ .ttlMinutes }} minutes. If you did not request it, you can ignore this email.</p>`,
	},
	TemplateOTPResetPassword: {
		subject: "Reset your PixelShop password",
		body: `<h2>Password reset</h2>
<p>Use the code below to set a new password.</p>
<p class="code">{{ .code }}</p>
<p>The code expires in {{ .ttlMinutes }} minutes. If you did not request a reset, your password stays unchanged.</p>`,
	},
	TemplateWelcome: {
		subject: "Welcome to PixelShop",
		body: `<h2>Welcome, {{ if .fullName }}{{ .fullName }}{{ else }}{{ .username }}{{ end }}!</h2>
<p>Your account <strong>{{ .username }}</strong> is ready. Start browsing sprites and asset packs or upload your own pixel art.</p>`,
	},
}

const layout = `<!DOCTYPE html>
<html>
<head>
<meta charset="UTF-8">
<style>
body { font-family: monospace; background: #1d1d2b; color: #f2f2f2; }
.box { max-width: 520px; margin: 24px auto; padding: 24px; background: #2b2b40; border: 4px solid #6c5ce7; }
.code { font-size: 28px; letter-spacing: 6px; font-weight: bold; }
</style>
</head>
<body><div class="box">{{ .Body }}</div></body>
</html>`

var layoutTmpl = template.Must(template.New("layout").Parse(layout))

var bodyTmpls = func() map[Template]*template.Template {
	out := make(map[Template]*template.Template, len(definitions))
	for name, def := range definitions {
		out[name] = template.Must(template.New(string(name)).Parse(def.body))
	}
	return out
}()

// Render produces the subject and full HTML body of a templated email.
func Render(name Template, data map[string]string) (string, string, error) {
	def, ok := definitions[name]
	if !ok {
		return "", "", fmt.Errorf("unknown email template %q", name)
	}

	var body bytes.Buffer
	if err := bodyTmpls[name].Execute(&body, data); err != nil {
		return "", "", fmt.Errorf("render %s: %w", name, err)
	}

	var page bytes.Buffer
	if err := layoutTmpl.Execute(&page, map[string]interface{}{"Body": template.HTML(body.String())}); err != nil {
		return "", "", fmt.Errorf("render layout: %w", err)
	}
	return def.subject, page.String(), nil
}
