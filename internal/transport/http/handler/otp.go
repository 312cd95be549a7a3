package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/securescan-api/internal/application/otp"
	"github.com/securescan-api/internal/domain"
	"github.com/securescan-api/internal/pkg/logger"
	"github.com/securescan-api/internal/pkg/validate"
	"go.uber.org/zap"
)

const maxBodyBytes = 16 << 10

// TicketSigner issues a proof-of-verification token for an email.
type TicketSigner interface {
	Sign(email string) (string, error)
}

// OTPHandler serves the send, resend and verify endpoints.
type OTPHandler struct {
	svc     otp.Service
	tickets TicketSigner
	log     *zap.Logger
}

// NewOTPHandler builds the handler. tickets may be nil, in which case verify
// responses carry no verification_token.
func NewOTPHandler(svc otp.Service, tickets TicketSigner, log *zap.Logger) *OTPHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &OTPHandler{svc: svc, tickets: tickets, log: log}
}

type sendRequest struct {
	Email         string `json:"email" validate:"email,max=254"`
	SkipUserCheck bool   `json:"skipUserCheck"`
}

type resendRequest struct {
	Email string `json:"email" validate:"email,max=254"`
}

type verifyRequest struct {
	Email string    `json:"email"`
	OTP   codeValue `json:"otp"`
}

// codeValue accepts the submitted code as either a JSON string or a JSON number.
type codeValue string

func (c *codeValue) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*c = codeValue(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return errors.New("otp must be a string or a number")
	}
	*c = codeValue(integralNumber(n))
	return nil
}

// integralNumber renders whole JSON numbers such as 123456.0 or 1.23456e5 as
// plain integers. Other numbers are returned as written and will not match.
func integralNumber(n json.Number) string {
	f, err := strconv.ParseFloat(n.String(), 64)
	if err != nil || f != math.Trunc(f) || math.Abs(f) > 1e15 {
		return n.String()
	}
	return strconv.FormatInt(int64(f), 10)
}

func (h *OTPHandler) Send(w http.ResponseWriter, r *http.Request) {
	var req sendRequest
	if !decode(w, r, &req) {
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" {
		writeError(w, http.StatusBadRequest, "Email is required")
		return
	}
	if err := validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	err := h.svc.Issue(r.Context(), req.Email, otp.IssueOptions{AllowUnknownIdentity: req.SkipUserCheck})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "OTP sent to your email"})
}

func (h *OTPHandler) Resend(w http.ResponseWriter, r *http.Request) {
	var req resendRequest
	if !decode(w, r, &req) {
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" {
		writeError(w, http.StatusBadRequest, "Email is required")
		return
	}
	if err := validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.svc.Reissue(r.Context(), req.Email); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "OTP sent to your email"})
}

func (h *OTPHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if !decode(w, r, &req) {
		return
	}
	email := strings.TrimSpace(req.Email)
	code := strings.TrimSpace(string(req.OTP))
	if email == "" || code == "" {
		writeError(w, http.StatusBadRequest, "Email and OTP are required")
		return
	}
	if err := h.svc.Verify(r.Context(), email, code); err != nil {
		h.fail(w, r, err)
		return
	}

	resp := VerifyEnvelope{Message: "OTP verified successfully"}
	if h.tickets != nil {
		tok, err := h.tickets.Sign(email)
		if err != nil {
			h.log.Warn("sign verification ticket",
				zap.String("identity", logger.MaskEmail(email)), zap.Error(err))
		} else {
			resp.VerificationToken = tok
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *OTPHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := httpError(err)
	if status >= http.StatusInternalServerError {
		h.log.Error("otp request failed",
			zap.String("path", r.URL.Path), zap.Int("status", status), zap.Error(err))
	}
	writeError(w, status, msg)
}

// httpError maps service errors to a status and a client-facing message.
func httpError(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest, "Email is required"
	case errors.Is(err, domain.ErrIdentityNotFound):
		return http.StatusNotFound, "Email is not registered"
	case errors.Is(err, domain.ErrNoCodePending):
		return http.StatusBadRequest, "No OTP sent to this email"
	case errors.Is(err, domain.ErrCodeExpired):
		return http.StatusBadRequest, "OTP has expired"
	case errors.Is(err, domain.ErrCodeMismatch):
		return http.StatusBadRequest, "Invalid OTP"
	case errors.Is(err, domain.ErrDeliveryFailed):
		return http.StatusBadGateway, "Failed to send OTP"
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

func decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return false
	}
	return true
}
