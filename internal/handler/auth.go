package handler

import (
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/noveleno/portal/internal/api"
	"github.com/noveleno/portal/internal/auth"
	"github.com/noveleno/portal/internal/gate"
	"github.com/noveleno/portal/internal/middleware"
	"github.com/noveleno/portal/internal/session"
)

const (
	otpSentAtKey   = "otpsentat"
	otpResendAfter = 30 * time.Second
)

type AuthHandler struct {
	api      *api.Client
	browsers *middleware.Browsers
	render   *Renderer
	logger   *slog.Logger
	now      func() time.Time
}

func NewAuthHandler(client *api.Client, browsers *middleware.Browsers, render *Renderer, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		api:      client,
		browsers: browsers,
		render:   render,
		logger:   logger,
		now:      time.Now,
	}
}

type loginForm struct {
	Email     string `form:"email" validate:"required,email"`
	Password  string `form:"password" validate:"required"`
	ReturnURL string `form:"returnUrl"`
}

func (h *AuthHandler) LoginPage(w http.ResponseWriter, r *http.Request) {
	h.render.Page(w, r, "login", Page{
		Title: "Login",
		Form:  loginForm{ReturnURL: gate.SafeReturnURL(r.URL.Query().Get("returnUrl"))},
	})
}

// Login signs in against the API and stores the profile and token in the
// browser's bucket. The OTP marker is cleared so the passcode step runs
// again for every sign-in.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	form := loginForm{
		Email:     formValue(r, "email"),
		Password:  r.FormValue("password"),
		ReturnURL: gate.SafeReturnURL(r.FormValue("returnUrl")),
	}
	if err := validate.Struct(form); err != nil {
		h.render.PageStatus(w, r, http.StatusUnprocessableEntity, "login", Page{
			Title: "Login", Form: form, Errors: fieldErrors(err),
		})
		return
	}

	res, err := h.api.Login(r.Context(), form.Email, form.Password)
	if err != nil {
		h.logger.Warn("login failed", "email", form.Email, "error", err)
		h.render.PageStatus(w, r, http.StatusUnauthorized, "login", Page{
			Title: "Login", Form: loginForm{Email: form.Email, ReturnURL: form.ReturnURL},
			Error: api.ErrorMessage(err, "Invalid email or password."),
		})
		return
	}

	id, _ := auth.FromContext(r.Context())
	if id.Store == nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	sess := &session.Session{
		Email:         res.User.Email,
		Fullname:      res.User.Fullname,
		Role:          session.ParseRole(res.User.Role),
		Birthday:      res.User.Birthday,
		StreetNumber:  res.User.StreetNumber,
		StreetName:    res.User.StreetName,
		Barangay:      res.User.Barangay,
		ContactNumber: res.User.ContactNumber,
	}
	if sess.Email == "" {
		sess.Email = form.Email
	}
	if err := h.store(id, sess, res.Token); err != nil {
		h.logger.Error("store session", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	h.logger.Info("signed in", "email", sess.Email, "role", sess.Role)

	next := "/otp"
	if form.ReturnURL != "" {
		next += "?returnUrl=" + url.QueryEscape(form.ReturnURL)
	}
	middleware.Redirect(w, r, next)
}

func (h *AuthHandler) store(id auth.Identity, sess *session.Session, token string) error {
	if err := id.Store.Clear(); err != nil {
		return err
	}
	if err := id.Store.Set(sess); err != nil {
		return err
	}
	if err := id.Store.SetToken(token); err != nil {
		return err
	}
	return h.browsers.BindToken(id.BrowserID, token)
}

type registerForm struct {
	Email           string `form:"email" validate:"required,email"`
	Password        string `form:"password" validate:"required,strongpw"`
	ConfirmPassword string `form:"confirmPassword" validate:"required,eqfield=Password"`
	Fullname        string `form:"fullname" validate:"required,max=120"`
	Birthday        string `form:"birthday" validate:"required,adult16"`
	StreetNumber    string `form:"streetNumber" validate:"required,oneof=1 2 3 4 5 6 7 8 9 10"`
	StreetName      string `form:"streetName" validate:"required,streetname"`
	Barangay        string `form:"barangay" validate:"required,barangay"`
	ContactNumber   string `form:"contactNumber" validate:"required,phmobile"`
	Agreed          bool   `form:"agreement" validate:"required"`
}

type registerPage struct {
	StreetNumbers []int
	StreetNames   []string
}

func registerOptions() registerPage {
	nums := make([]int, 10)
	for i := range nums {
		nums[i] = i + 1
	}
	return registerPage{StreetNumbers: nums, StreetNames: streetNames}
}

func (h *AuthHandler) RegisterPage(w http.ResponseWriter, r *http.Request) {
	h.render.Page(w, r, "register", Page{Title: "Register", Form: registerForm{}, Data: registerOptions()})
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	form := registerForm{
		Email:           formValue(r, "email"),
		Password:        r.FormValue("password"),
		ConfirmPassword: r.FormValue("confirmPassword"),
		Fullname:        formValue(r, "fullname"),
		Birthday:        formValue(r, "birthday"),
		StreetNumber:    formValue(r, "streetNumber"),
		StreetName:      formValue(r, "streetName"),
		Barangay:        formValue(r, "barangay"),
		ContactNumber:   formValue(r, "contactNumber"),
		Agreed:          r.FormValue("agreement") != "",
	}
	if err := validate.Struct(form); err != nil {
		errs := fieldErrors(err)
		if _, ok := errs["agreement"]; ok {
			errs["agreement"] = "Please agree to the privacy policy & terms."
		}
		form.Password, form.ConfirmPassword = "", ""
		h.render.PageStatus(w, r, http.StatusUnprocessableEntity, "register", Page{
			Title: "Register", Form: form, Data: registerOptions(), Errors: errs,
			Error: firstError(errs, "agreement", "password", "contactNumber", "confirmPassword", "birthday"),
		})
		return
	}

	err := h.api.Register(r.Context(), api.Registration{
		Email:         form.Email,
		Password:      form.Password,
		Fullname:      form.Fullname,
		Birthday:      form.Birthday,
		StreetNumber:  form.StreetNumber,
		StreetName:    form.StreetName,
		Barangay:      form.Barangay,
		ContactNumber: form.ContactNumber,
	})
	if err != nil {
		h.logger.Warn("register failed", "email", form.Email, "error", err)
		form.Password, form.ConfirmPassword = "", ""
		h.render.PageStatus(w, r, http.StatusBadGateway, "register", Page{
			Title: "Register", Form: form, Data: registerOptions(),
			Error: api.ErrorMessage(err, "Failed to register. Please try again."),
		})
		return
	}

	h.render.Flash(r, "You have successfully registered! Your account will be usable once approved.")
	middleware.Redirect(w, r, gate.LoginPath)
}

type otpForm struct {
	Code      string `form:"otp" validate:"required,len=6,numeric"`
	ReturnURL string `form:"returnUrl"`
}

type otpPage struct {
	Email       string
	ResendAfter int
}

// OTPPage asks for the passcode. A new one is requested from the API on
// each visit unless one was sent within the resend window.
func (h *AuthHandler) OTPPage(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())
	if !id.SignedIn() {
		middleware.Redirect(w, r, gate.LoginPath)
		return
	}
	if id.OTPMarker == session.OTPVerifiedSentinel {
		middleware.Redirect(w, r, landing(id.Role(), r.URL.Query().Get("returnUrl")))
		return
	}

	wait := h.resendWait(id)
	if wait == 0 {
		if err := h.sendOTP(r, id); err != nil {
			h.render.PageStatus(w, r, http.StatusBadGateway, "otp", Page{
				Title: "Verify", Form: otpForm{ReturnURL: gate.SafeReturnURL(r.URL.Query().Get("returnUrl"))},
				Data:  otpPage{Email: id.Email()},
				Error: api.ErrorMessage(err, "Could not send a passcode. Please try again."),
			})
			return
		}
		wait = otpResendAfter
	}

	h.render.Page(w, r, "otp", Page{
		Title: "Verify",
		Form:  otpForm{ReturnURL: gate.SafeReturnURL(r.URL.Query().Get("returnUrl"))},
		Data:  otpPage{Email: id.Email(), ResendAfter: int(wait.Seconds())},
	})
}

// ResendOTP requests another passcode once the resend window has passed.
func (h *AuthHandler) ResendOTP(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())
	if !id.SignedIn() {
		middleware.Redirect(w, r, gate.LoginPath)
		return
	}
	if wait := h.resendWait(id); wait > 0 {
		w.Header().Set("Retry-After", strconv.Itoa(int(wait.Seconds())))
		h.render.Partial(w, "otp-status", otpStatus{Error: "Please wait before requesting another code."})
		return
	}
	if err := h.sendOTP(r, id); err != nil {
		h.render.Partial(w, "otp-status", otpStatus{Error: api.ErrorMessage(err, "Could not send a passcode.")})
		return
	}
	h.render.Partial(w, "otp-status", otpStatus{Message: "A new code was sent to " + id.Email() + "."})
}

type otpStatus struct {
	Message string
	Error   string
}

func (h *AuthHandler) sendOTP(r *http.Request, id auth.Identity) error {
	if err := h.api.GenerateOTP(r.Context(), id.Email()); err != nil {
		h.logger.Warn("generate otp", "email", id.Email(), "error", err)
		return err
	}
	return id.Store.SetValue(otpSentAtKey, strconv.FormatInt(h.now().Unix(), 10))
}

// resendWait is how long until another passcode may be requested.
func (h *AuthHandler) resendWait(id auth.Identity) time.Duration {
	raw, err := id.Store.Value(otpSentAtKey)
	if err != nil || raw == "" {
		return 0
	}
	sec, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0
	}
	left := time.Unix(sec, 0).Add(otpResendAfter).Sub(h.now())
	if left <= 0 {
		return 0
	}
	return left.Round(time.Second)
}

// VerifyOTP checks the passcode. The API's success body is stored as the
// marker exactly as returned; the OTP gate compares it to the known sentinel.
func (h *AuthHandler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())
	if !id.SignedIn() {
		middleware.Redirect(w, r, gate.LoginPath)
		return
	}
	form := otpForm{Code: formValue(r, "otp"), ReturnURL: gate.SafeReturnURL(r.FormValue("returnUrl"))}
	page := Page{Title: "Verify", Form: form, Data: otpPage{Email: id.Email(), ResendAfter: int(h.resendWait(id).Seconds())}}

	if err := validate.Struct(form); err != nil {
		page.Errors = fieldErrors(err)
		page.Error = firstError(page.Errors, "otp")
		h.render.PageStatus(w, r, http.StatusUnprocessableEntity, "otp", page)
		return
	}

	body, err := h.api.VerifyOTP(r.Context(), id.Email(), form.Code)
	if err != nil {
		h.logger.Warn("verify otp", "email", id.Email(), "error", err)
		page.Error = api.ErrorMessage(err, "Invalid OTP. Please try again.")
		h.render.PageStatus(w, r, http.StatusUnauthorized, "otp", page)
		return
	}
	if err := id.Store.SetOTPMarker(body); err != nil {
		h.logger.Error("store otp marker", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if err := id.Store.SetValue(otpSentAtKey, ""); err != nil {
		h.logger.Warn("reset otp cooldown", "email", id.Email(), "error", err)
	}
	h.logger.Info("otp verified", "email", id.Email())

	middleware.Redirect(w, r, landing(id.Role(), form.ReturnURL))
}

// landing is where a verified browser goes: the requested page if it is
// local, otherwise the role's menu.
func landing(role session.Role, returnURL string) string {
	if ret := gate.SafeReturnURL(returnURL); ret != "" {
		return ret
	}
	switch role {
	case session.RoleUser:
		return "/user-menu"
	case session.RoleAdmin:
		return "/menu"
	default:
		return "/home"
	}
}

// Logout drops the bucket and its cookie. A new, empty bucket is issued on
// the next request.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())
	if id.Store != nil {
		if err := id.Store.Clear(); err != nil {
			h.logger.Error("clear session", "error", err)
		}
	}
	if err := h.browsers.Forget(w, id.BrowserID); err != nil {
		h.logger.Error("forget browser", "error", err)
	}
	h.logger.Info("signed out", "email", id.Email())
	middleware.Redirect(w, r, gate.LoginPath)
}

// Root sends a verified browser to its landing page.
func (h *AuthHandler) Root(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())
	middleware.Redirect(w, r, landing(id.Role(), ""))
}
