package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"restaurant_pos_backend/internal/models"
	"restaurant_pos_backend/pkg/utils"

	"github.com/google/uuid"
)

const chromeOnWindows = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

func TestRegisterAndLogin(t *testing.T) {
	users := newFakeAuthRepo()
	sessions := newFakeSessionRepo()
	jwt := utils.NewJWTManager("test-secret", time.Hour)
	svc := NewAuthService(users, sessions, jwt)

	user, err := svc.RegisterUser(RegisterUserRequest{
		Email: "waiter@example.com", Password: "longenough", FullName: " Asha ", Role: models.RoleWaiter,
	})
	if err != nil {
		t.Fatalf("RegisterUser() error = %v", err)
	}
	if user.ID == 0 || user.FullName == nil || *user.FullName != "Asha" {
		t.Errorf("registered user = %+v", user)
	}

	_, err = svc.RegisterUser(RegisterUserRequest{Email: "waiter@example.com", Password: "longenough", Role: models.RoleWaiter})
	if !errors.Is(err, ErrEmailExists) {
		t.Errorf("duplicate email: error = %v, want ErrEmailExists", err)
	}
	_, err = svc.RegisterUser(RegisterUserRequest{Email: "chef@example.com", Password: "longenough", Role: "chef"})
	if !errors.Is(err, ErrInvalidRole) {
		t.Errorf("unknown role: error = %v, want ErrInvalidRole", err)
	}

	resp, err := svc.LoginUser(
		LoginRequest{Email: "waiter@example.com", Password: "longenough"},
		ClientInfo{IP: "10.0.0.7", UserAgent: chromeOnWindows},
	)
	if err != nil {
		t.Fatalf("LoginUser() error = %v", err)
	}
	if resp.User.PasswordHash != "" {
		t.Errorf("password hash leaked in login response")
	}

	claims, err := jwt.ValidateToken(resp.AccessToken)
	if err != nil {
		t.Fatalf("ValidateToken() error = %v", err)
	}
	if claims.UserID != user.ID || claims.Role != models.RoleWaiter || claims.SessionID != resp.SessionID {
		t.Errorf("claims = %+v, want user %d waiter session %s", claims, user.ID, resp.SessionID)
	}

	id := uuid.MustParse(resp.SessionID)
	session := sessions.sessions[id]
	if session == nil || session.OS != "Windows" || session.Browser != "Chrome" || session.IP != "10.0.0.7" {
		t.Errorf("stored session = %+v", session)
	}

	_, err = svc.LoginUser(LoginRequest{Email: "waiter@example.com", Password: "wrong-password"}, ClientInfo{})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("wrong password: error = %v, want ErrInvalidCredentials", err)
	}
	_, err = svc.LoginUser(LoginRequest{Email: "nobody@example.com", Password: "longenough"}, ClientInfo{})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("unknown email: error = %v, want ErrInvalidCredentials", err)
	}
}

func TestCheckSession(t *testing.T) {
	repo := newFakeSessionRepo()
	svc := NewSessionService(repo).(*sessionService)

	live := &models.LoginSession{UserID: 1}
	_ = repo.CreateSession(live)
	gone := &models.LoginSession{UserID: 1}
	_ = repo.CreateSession(gone)
	_ = repo.TerminateSession(gone.ID)

	now := live.LastSeenAt.Add(10 * time.Second)
	svc.now = func() time.Time { return now }

	if err := svc.CheckSession(live.ID.String()); err != nil {
		t.Errorf("live session: error = %v", err)
	}
	if repo.touched != 0 {
		t.Errorf("touched a session seen 10s ago")
	}
	now = now.Add(2 * time.Minute)
	if err := svc.CheckSession(live.ID.String()); err != nil {
		t.Errorf("live session: error = %v", err)
	}
	if repo.touched != 1 {
		t.Errorf("touched = %d, want 1", repo.touched)
	}

	if err := svc.CheckSession(gone.ID.String()); !errors.Is(err, ErrSessionTerminated) {
		t.Errorf("terminated session: error = %v, want ErrSessionTerminated", err)
	}
	if err := svc.CheckSession(uuid.NewString()); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("unknown session: error = %v, want ErrSessionNotFound", err)
	}
	if err := svc.CheckSession("not-a-uuid"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("malformed id: error = %v, want ErrSessionNotFound", err)
	}

	if err := svc.TerminateSession(live.ID.String()); err != nil {
		t.Fatalf("TerminateSession() error = %v", err)
	}
	if err := svc.CheckSession(live.ID.String()); !errors.Is(err, ErrSessionTerminated) {
		t.Errorf("after logout: error = %v, want ErrSessionTerminated", err)
	}
	if err := svc.TerminateSession("nope"); !errors.Is(err, ErrValidation) {
		t.Errorf("malformed id: error = %v, want ErrValidation", err)
	}
}

func TestParseUserAgent(t *testing.T) {
	tests := []struct {
		ua          string
		os, browser string
	}{
		{chromeOnWindows, "Windows", "Chrome"},
		{"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36 Edg/124.0.2478.51", "Windows", "Edge"},
		{"Mozilla/5.0 (iPhone; CPU iPhone OS 17_4 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Mobile/15E148 Safari/604.1", "iOS", "Safari"},
		{"Mozilla/5.0 (Linux; Android 14; Pixel 8) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Mobile Safari/537.36", "Android", "Chrome"},
		{"Mozilla/5.0 (Macintosh; Intel Mac OS X 14.4; rv:125.0) Gecko/20100101 Firefox/125.0", "macOS", "Firefox"},
		{"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36 OPR/109.0.0.0", "Linux", "Opera"},
		{"curl/8.5.0", "Unknown", "Unknown"},
		{"", "Unknown", "Unknown"},
	}
	for _, tt := range tests {
		osName, browser := ParseUserAgent(tt.ua)
		if osName != tt.os || browser != tt.browser {
			t.Errorf("ParseUserAgent(%q) = %s/%s, want %s/%s", tt.ua, osName, browser, tt.os, tt.browser)
		}
	}
}

type resetFixture struct {
	svc      *passwordResetService
	users    *fakeAuthRepo
	sessions *fakeSessionRepo
	pub      *recordingPublisher
	user     *models.User
}

func newResetFixture(t *testing.T) *resetFixture {
	t.Helper()
	f := &resetFixture{users: newFakeAuthRepo(), sessions: newFakeSessionRepo(), pub: &recordingPublisher{}}
	f.user = &models.User{Email: "admin@example.com", Role: models.RoleAdmin}
	if _, err := f.users.CreateUser(nil, f.user, "old-hash"); err != nil {
		t.Fatal(err)
	}
	f.svc = NewPasswordResetService(f.users, f.sessions, &fakeTx{}, f.pub, 10*time.Minute).(*passwordResetService)
	f.svc.now = func() time.Time { return fixedNow }
	f.svc.newCode = func() (string, error) { return "482913", nil }
	return f
}

func TestPasswordResetFlow(t *testing.T) {
	f := newResetFixture(t)
	ctx := context.Background()

	s1 := &models.LoginSession{UserID: f.user.ID}
	_ = f.sessions.CreateSession(s1)

	if err := f.svc.SendOTP(ctx, SendOTPRequest{Email: f.user.Email}); err != nil {
		t.Fatalf("SendOTP() error = %v", err)
	}
	if len(f.pub.otps) != 1 || f.pub.otps[0].Code != "482913" || f.pub.otps[0].Email != f.user.Email {
		t.Fatalf("notifier got %+v", f.pub.otps)
	}
	if !f.pub.otps[0].ExpiresAt.Equal(fixedNow.Add(10 * time.Minute)) {
		t.Errorf("ExpiresAt = %v", f.pub.otps[0].ExpiresAt)
	}
	if f.users.otps[0].CodeHash == "482913" {
		t.Errorf("code stored in clear")
	}

	err := f.svc.ResetPassword(ctx, ResetPasswordRequest{Email: f.user.Email, OTP: "000000", NewPassword: "new-password"})
	if !errors.Is(err, ErrInvalidOTP) {
		t.Errorf("wrong code: error = %v, want ErrInvalidOTP", err)
	}
	if f.users.otps[0].Attempts != 1 {
		t.Errorf("attempts = %d, want 1", f.users.otps[0].Attempts)
	}

	if err := f.svc.ResetPassword(ctx, ResetPasswordRequest{Email: f.user.Email, OTP: "482913", NewPassword: "new-password"}); err != nil {
		t.Fatalf("ResetPassword() error = %v", err)
	}
	if f.users.users[f.user.ID].PasswordHash == "old-hash" {
		t.Errorf("password not updated")
	}
	if f.users.otps[0].ConsumedAt == nil {
		t.Errorf("code not consumed")
	}
	if f.sessions.sessions[s1.ID].Active() {
		t.Errorf("sessions survived a password reset")
	}

	err = f.svc.ResetPassword(ctx, ResetPasswordRequest{Email: f.user.Email, OTP: "482913", NewPassword: "other-password"})
	if !errors.Is(err, ErrInvalidOTP) {
		t.Errorf("reused code: error = %v, want ErrInvalidOTP", err)
	}
}

func TestPasswordResetLimits(t *testing.T) {
	f := newResetFixture(t)
	ctx := context.Background()

	if err := f.svc.SendOTP(ctx, SendOTPRequest{Email: "stranger@example.com"}); err != nil {
		t.Errorf("unknown email: error = %v, want nil", err)
	}
	if len(f.pub.otps) != 0 {
		t.Errorf("code sent to an unknown email")
	}

	if err := f.svc.SendOTP(ctx, SendOTPRequest{Email: f.user.Email}); err != nil {
		t.Fatal(err)
	}
	f.users.otps[0].Attempts = maxOTPAttempts
	err := f.svc.ResetPassword(ctx, ResetPasswordRequest{Email: f.user.Email, OTP: "482913", NewPassword: "new-password"})
	if !errors.Is(err, ErrTooManyAttempts) {
		t.Errorf("locked code: error = %v, want ErrTooManyAttempts", err)
	}

	if err := f.svc.SendOTP(ctx, SendOTPRequest{Email: f.user.Email}); err != nil {
		t.Fatal(err)
	}
	f.svc.now = func() time.Time { return fixedNow.Add(11 * time.Minute) }
	err = f.svc.ResetPassword(ctx, ResetPasswordRequest{Email: f.user.Email, OTP: "482913", NewPassword: "new-password"})
	if !errors.Is(err, ErrInvalidOTP) {
		t.Errorf("expired code: error = %v, want ErrInvalidOTP", err)
	}

	err = f.svc.ResetPassword(ctx, ResetPasswordRequest{Email: f.user.Email, OTP: "482913", NewPassword: "short"})
	if !errors.Is(err, ErrValidation) {
		t.Errorf("short password: error = %v, want ErrValidation", err)
	}
}

func TestGenerateOTP(t *testing.T) {
	for i := 0; i < 20; i++ {
		code, err := generateOTP()
		if err != nil {
			t.Fatal(err)
		}
		if len(code) != 6 || !utils.IsDigits(code) {
			t.Errorf("generateOTP() = %q, want 6 digits", code)
		}
	}
}
