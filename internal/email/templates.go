package email

// Templates HTML por defecto. Mantener inline simplifica el despliegue:
// un binario, sin assets externos.

const defaultVerifyHTML = `<!DOCTYPE html>
<html>
<body style="font-family: -apple-system, Segoe UI, Roboto, sans-serif; background:#f6f6f6; padding:24px;">
  <div style="max-width:520px; margin:0 auto; background:#ffffff; border-radius:8px; padding:32px;">
    <h1 style="font-size:20px; margin-top:0;">Welcome to {{.AppName}}!</h1>
    <p>Confirm the email address <strong>{{.Email}}</strong> to activate your account.</p>
    <p style="text-align:center; margin:32px 0;">
      <a href="{{.Link}}" style="background:#2563eb; color:#ffffff; padding:12px 24px; border-radius:6px; text-decoration:none;">Verify email</a>
    </p>
    <p style="color:#666; font-size:13px;">The link expires in {{.TTL}}. If you did not create an account, ignore this message.</p>
  </div>
</body>
</html>`

const defaultResetHTML = `<!DOCTYPE html>
<html>
<body style="font-family: -apple-system, Segoe UI, Roboto, sans-serif; background:#f6f6f6; padding:24px;">
  <div style="max-width:520px; margin:0 auto; background:#ffffff; border-radius:8px; padding:32px;">
    <h1 style="font-size:20px; margin-top:0;">Password reset</h1>
    <p>A password reset was requested for <strong>{{.Email}}</strong> on {{.AppName}}.</p>
    <p style="text-align:center; margin:32px 0;">
      <a href="{{.Link}}" style="background:#2563eb; color:#ffffff; padding:12px 24px; border-radius:6px; text-decoration:none;">Choose a new password</a>
    </p>
    <p style="color:#666; font-size:13px;">The link expires in {{.TTL}}. If you did not request this, ignore this message; your password is unchanged.</p>
  </div>
</body>
</html>`
