package mail

import (
	"fmt"
	"strings"
	"time"
)

func providerLabel(provider string) string {
	switch provider {
	case "google":
		return "Google"
	case "facebook":
		return "Facebook"
	default:
		return "email"
	}
}

// Welcome greets a newly registered local account.
func Welcome(name, email string) Message {
	return Message{
		To:      email,
		Subject: "Welcome to Primiya's Art! 🎨",
		HTML: fmt.Sprintf(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h1 style="color: #9333ea;">Welcome to Primiya's Art!</h1>
  <p>Hello %s,</p>
  <p>Your account has been successfully created. Welcome to our community of artists and creators!</p>
  <div style="background-color: white; border-left: 4px solid #9333ea; padding: 15px;">
    <p style="margin: 5px 0;"><strong>Name:</strong> %s</p>
    <p style="margin: 5px 0;"><strong>Email:</strong> %s</p>
    <p style="margin: 5px 0;"><strong>Joined:</strong> %s</p>
  </div>
</div>`, name, name, email, time.Now().Format("January 2, 2006")),
	}
}

// SocialWelcome greets an account created through a social provider.
func SocialWelcome(name, email, provider string) Message {
	label := providerLabel(provider)
	return Message{
		To:      email,
		Subject: fmt.Sprintf("Welcome to Primiya's Art via %s! 🎨", label),
		HTML: fmt.Sprintf(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h2 style="color: #9333ea;">Welcome to Primiya's Art!</h2>
  <p>Hello %s,</p>
  <p>Welcome to our creative community! Your account has been created successfully using %s.</p>
</div>`, name, label),
	}
}

// LoginNotification confirms a successful login and names the method used.
func LoginNotification(name, email, method string) Message {
	return Message{
		To:      email,
		Subject: "Login Confirmation - Primiya's Art",
		HTML: fmt.Sprintf(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h2 style="color: #9333ea;">Login Confirmed</h2>
  <p>Hello %s,</p>
  <p>You have successfully logged into your Primiya's Art account using %s.</p>
</div>`, name, providerLabel(method)),
	}
}

// PasswordResetOTP carries the one-time code for a password reset.
func PasswordResetOTP(name, email, code string, validFor time.Duration) Message {
	minutes := int(validFor.Minutes())
	return Message{
		To:      email,
		Subject: "Password Reset OTP - Primiya's Art",
		HTML: fmt.Sprintf(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h2 style="color: #9333ea;">Password Reset OTP</h2>
  <p>Hello %s,</p>
  <p>Use the following OTP to reset your password:</p>
  <div style="text-align: center; margin: 30px 0;">
    <span style="font-size: 32px; font-weight: bold; color: #9333ea; letter-spacing: 8px;">%s</span>
  </div>
  <p>This OTP will expire in %d minutes.</p>
</div>`, name, code, minutes),
	}
}

// PasswordResetSuccess confirms a completed password reset.
func PasswordResetSuccess(name, email string) Message {
	return Message{
		To:      email,
		Subject: "Password Reset Successful - Primiya's Art",
		HTML: fmt.Sprintf(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h2 style="color: #10b981;">Password Reset Successful</h2>
  <p>Hello %s,</p>
  <p>Your password has been successfully reset.</p>
</div>`, strings.TrimSpace(name)),
	}
}
