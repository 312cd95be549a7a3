package smtp

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/securescan-api/internal/domain"
)

const otpSubject = "Your OTP for SecureScan Verification"

var otpHTML = template.Must(template.New("otp").Parse(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px; background-color: #f4f4f4;">
  <div style="background: linear-gradient(135deg, #6366F1 0%, #4F46E5 100%); padding: 30px; border-radius: 10px 10px 0 0;">
    <h1 style="color: white; margin: 0; text-align: center;">SecureScan</h1>
  </div>
  <div style="background-color: white; padding: 30px; border-radius: 0 0 10px 10px;">
    <h2 style="color: #333; margin-top: 0;">Your Verification Code</h2>
    <p style="color: #666; font-size: 16px;">Hello,</p>
    <p style="color: #666; font-size: 16px;">Your OTP for SecureScan verification is:</p>
    <div style="background-color: #f8f9fa; border: 2px dashed #6366F1; border-radius: 8px; padding: 20px; text-align: center; margin: 25px 0;">
      <h1 style="color: #6366F1; margin: 0; font-size: 42px; letter-spacing: 8px;">{{.Code}}</h1>
    </div>
    <p style="color: #666; font-size: 14px;">This OTP is valid for <strong>{{.TTLMinutes}} minutes</strong>.</p>
    <p style="color: #666; font-size: 14px;">If you didn't request this code, please ignore this email.</p>
    <hr style="border: none; border-top: 1px solid #eee; margin: 30px 0;">
    <p style="color: #999; font-size: 12px; text-align: center;">This is an automated message from SecureScan. Please do not reply to this email.</p>
  </div>
</div>`))

type otpBody struct {
	Text string
	HTML string
}

func renderOTPEmail(d domain.Delivery) (otpBody, error) {
	var buf bytes.Buffer
	if err := otpHTML.Execute(&buf, d); err != nil {
		return otpBody{}, fmt.Errorf("render otp email: %w", err)
	}
	return otpBody{
		Text: fmt.Sprintf("Your OTP for SecureScan verification is %06d. It is valid for %d minutes.", d.Code, d.TTLMinutes),
		HTML: buf.String(),
	}, nil
}
