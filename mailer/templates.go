package mailer

const passwordResetTemplate = `
<html>
<body style="font-family: sans-serif;">
  <h2>Password reset</h2>
  <p>Somebody requested a password reset for your account.</p>
  <p><a href="{{.URL}}">Choose a new password</a></p>
  <p>The link is valid for 1 hour. If you did not request the reset, ignore this mail.</p>
</body>
</html>`

const invitationTemplate = `
<html>
<body style="font-family: sans-serif;">
  <h2>You have been invited</h2>
  <p>An administrator invited you to join the workspace.</p>
  <p><a href="{{.URL}}">Accept the invitation</a></p>
  <p>The invitation expires in 7 days.</p>
</body>
</html>`

const messageAlertTemplate = `
<html>
<body style="font-family: sans-serif;">
  <h2>New message</h2>
  <p><b>{{.Sender}}</b> sent you a message with {{.Priority}} priority:</p>
  <p>{{.Subject}}</p>
  <p><a href="{{.URL}}">Open your inbox</a></p>
</body>
</html>`

const securityAlertTemplate = `
<html>
<body style="font-family: sans-serif;">
  <h2>Security alert</h2>
  <p>We detected <b>{{.Kind}}</b> activity on your account (severity: {{.Severity}}).</p>
  <p>{{.Details}}</p>
  <p>If this was not you, change your password immediately.</p>
</body>
</html>`
