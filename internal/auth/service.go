package auth

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// FlowObserver records the outcome of each flow run.
type FlowObserver interface {
	ObserveFlow(flow, outcome string, elapsed time.Duration)
}

// AdminCredentials is the input of the admin flows.
type AdminCredentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegularLoginRequest is the input of RegularLogin.
type RegularLoginRequest struct {
	CPF string `json:"cpf"`
}

// RegularRegistration is the input of RegularRegister.
type RegularRegistration struct {
	CPF  string `json:"cpf"`
	Name string `json:"name"`
}

// Response is a flow result ready to be written as JSON.
type Response struct {
	Status int
	Body   any
}

type ErrorBody struct {
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

type LoginBody struct {
	Message       string `json:"message"`
	Token         string `json:"token"`
	AccessToken   string `json:"accessToken,omitempty"`
	IDToken       string `json:"idToken,omitempty"`
	RefreshToken  string `json:"refreshToken,omitempty"`
	ExpiresIn     int32  `json:"expiresIn,omitempty"`
	ChallengeName string `json:"challengeName,omitempty"`
}

type AdminRegisterBody struct {
	Message    string `json:"message"`
	Email      string `json:"email"`
	UserStatus string `json:"userStatus"`
	Token      string `json:"token"`
}

type RegisterBody struct {
	Message    string `json:"message"`
	Username   string `json:"username"`
	UserStatus string `json:"userStatus"`
	Token      string `json:"token"`
}

type AnonymousBody struct {
	Message  string `json:"message"`
	Token    string `json:"token"`
	UserID   string `json:"userID"`
	UserType string `json:"userType"`
}

// ServiceConfig holds the collaborators of a Service. Provider and Keys are
// required; the rest default.
type ServiceConfig struct {
	Provider       IdentityProvider
	Keys           SigningKeys
	Logger         *slog.Logger
	Observer       FlowObserver
	Now            func() time.Time
	NewAnonymousID func(time.Time) (string, error)
}

// Service runs the token-issuing flows.
type Service struct {
	provider    IdentityProvider
	gate        *MembershipGate
	tokens      *TokenService
	keys        SigningKeys
	logger      *slog.Logger
	observer    FlowObserver
	now         func() time.Time
	anonymousID func(time.Time) (string, error)
}

func NewService(cfg ServiceConfig) *Service {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	anonymousID := cfg.NewAnonymousID
	if anonymousID == nil {
		anonymousID = NewAnonymousID
	}
	return &Service{
		provider:    cfg.Provider,
		gate:        NewMembershipGate(cfg.Provider, logger),
		tokens:      NewTokenService(cfg.Keys),
		keys:        cfg.Keys,
		logger:      logger,
		observer:    cfg.Observer,
		now:         now,
		anonymousID: anonymousID,
	}
}

// Tokens returns the TokenService used to sign flow tokens.
func (s *Service) Tokens() *TokenService {
	return s.tokens
}

// AdminLogin authenticates an administrator and issues an admin token.
func (s *Service) AdminLogin(ctx context.Context, req AdminCredentials) Response {
	run := s.begin(ctx, FlowAdminLogin, req.Password)

	fields := Fields{"email": req.Email, "password": req.Password}
	if err := Validate(fields, adminLoginRules); err != nil {
		return run.fail(err)
	}

	tokens, err := s.provider.Authenticate(ctx, req.Email, req.Password)
	if err != nil {
		return run.fail(err)
	}

	if !s.gate.IsAdmin(ctx, req.Email) {
		return run.fail(ErrNotAdmin)
	}

	claims := BuildClaims(run.started, req.Email, ActorAdmin, map[string]any{"email": req.Email})
	token, err := s.tokens.Issue(claims)
	if err != nil {
		return run.fail(err)
	}

	return run.succeed(http.StatusOK, claims, loginBody("Admin login successful", token, tokens))
}

// AdminRegister creates an administrator, adds it to AdminGroup and issues
// an admin token. A user created before a failed group assignment is kept.
func (s *Service) AdminRegister(ctx context.Context, req AdminCredentials) Response {
	run := s.begin(ctx, FlowAdminRegister, req.Password)

	fields := Fields{"email": req.Email, "password": req.Password}
	if err := Validate(fields, adminRegisterRules); err != nil {
		return run.fail(err)
	}

	attrs := []Attribute{
		{Name: "email", Value: req.Email},
		{Name: "email_verified", Value: "true"},
	}
	user, err := s.provider.CreateUser(ctx, req.Email, attrs, req.Password)
	if err != nil {
		return run.fail(err)
	}

	if err := s.provider.AddToGroup(ctx, req.Email, AdminGroup); err != nil {
		s.logger.WarnContext(ctx, "admin user created without group membership",
			"email", req.Email,
			"group", AdminGroup,
		)
		return run.fail(err)
	}

	claims := BuildClaims(run.started, req.Email, ActorAdmin, map[string]any{"email": req.Email})
	token, err := s.tokens.Issue(claims)
	if err != nil {
		return run.fail(err)
	}

	return run.succeed(http.StatusCreated, claims, AdminRegisterBody{
		Message:    "Admin registered successfully",
		Email:      user.Username,
		UserStatus: user.Status,
		Token:      token,
	})
}

// RegularLogin authenticates a CPF holder and issues a regular token.
func (s *Service) RegularLogin(ctx context.Context, req RegularLoginRequest) Response {
	password := regularPassword(req.CPF)
	run := s.begin(ctx, FlowRegularLogin, password)

	if err := Validate(Fields{"cpf": req.CPF}, regularLoginRules); err != nil {
		return run.fail(err)
	}

	tokens, err := s.provider.Authenticate(ctx, req.CPF, password)
	if err != nil {
		return run.fail(err)
	}

	claims := BuildClaims(run.started, req.CPF, ActorRegular, map[string]any{"cpf": req.CPF})
	token, err := s.tokens.Issue(claims)
	if err != nil {
		return run.fail(err)
	}

	return run.succeed(http.StatusOK, claims, loginBody("Login successful", token, tokens))
}

// RegularRegister creates a CPF account and issues a regular token.
func (s *Service) RegularRegister(ctx context.Context, req RegularRegistration) Response {
	password := regularPassword(req.CPF)
	run := s.begin(ctx, FlowRegularRegister, password)

	if err := Validate(Fields{"cpf": req.CPF, "name": req.Name}, regularRegisterRules); err != nil {
		return run.fail(err)
	}

	attrs := []Attribute{
		{Name: "name", Value: req.Name},
		{Name: "email", Value: req.CPF + "@temp.local"},
	}
	user, err := s.provider.CreateUser(ctx, req.CPF, attrs, password)
	if err != nil {
		return run.fail(err)
	}

	claims := BuildClaims(run.started, req.CPF, ActorRegular, map[string]any{"name": req.Name})
	token, err := s.tokens.Issue(claims)
	if err != nil {
		return run.fail(err)
	}

	return run.succeed(http.StatusCreated, claims, RegisterBody{
		Message:    "User registered successfully",
		Username:   user.Username,
		UserStatus: user.Status,
		Token:      token,
	})
}

// AnonymousLogin issues a token for a fresh anonymous identifier. It never
// contacts the identity provider.
func (s *Service) AnonymousLogin(ctx context.Context) Response {
	run := s.begin(ctx, FlowAnonymousLogin)

	id, err := s.anonymousID(run.started)
	if err != nil {
		return run.fail(err)
	}

	claims := BuildClaims(run.started, id, ActorAnonymous, map[string]any{"is_anonymous": true})
	token, err := s.tokens.Issue(claims)
	if err != nil {
		return run.fail(err)
	}

	return run.succeed(http.StatusOK, claims, AnonymousBody{
		Message:  "Anonymous login successful",
		Token:    token,
		UserID:   id,
		UserType: string(ActorAnonymous),
	})
}

// Reject classifies a failure that happened before flow could start, such
// as an unreadable request body.
func (s *Service) Reject(ctx context.Context, flow Flow, err error) Response {
	return s.begin(ctx, flow).fail(err)
}

// regularPassword derives the provider password of a CPF account. Anyone who
// knows a CPF can compute it; existing accounts depend on this derivation.
func regularPassword(cpf string) string {
	return cpf + "Temp!"
}

func loginBody(message, token string, tokens *ProviderTokens) LoginBody {
	body := LoginBody{Message: message, Token: token}
	if tokens != nil {
		body.AccessToken = tokens.AccessToken
		body.IDToken = tokens.IDToken
		body.RefreshToken = tokens.RefreshToken
		body.ExpiresIn = tokens.ExpiresIn
		body.ChallengeName = tokens.ChallengeName
	}
	return body
}

type flowRun struct {
	s         *Service
	ctx       context.Context
	flow      Flow
	started   time.Time
	sensitive []string
}

func (s *Service) begin(ctx context.Context, flow Flow, sensitive ...string) *flowRun {
	return &flowRun{s: s, ctx: ctx, flow: flow, started: s.now(), sensitive: sensitive}
}

func (r *flowRun) succeed(status int, claims ClaimSet, body any) Response {
	r.s.logger.InfoContext(r.ctx, "token issued",
		"flow", string(r.flow),
		"subject", claims.SubjectID,
		"actor_class", string(claims.ActorClass),
	)
	r.observe("success")
	return Response{Status: status, Body: body}
}

func (r *flowRun) fail(err error) Response {
	c := Classify(r.flow, err)
	detail := r.redact(c.Detail)

	attrs := []any{
		"flow", string(r.flow),
		"kind", string(c.Kind),
		"status", c.Status,
	}
	switch {
	case c.Status >= http.StatusInternalServerError:
		attrs = append(attrs, "error", r.redact(err.Error()))
		r.s.logger.ErrorContext(r.ctx, "flow failed", attrs...)
	case c.Status == http.StatusBadRequest:
		r.s.logger.DebugContext(r.ctx, "flow rejected", attrs...)
	default:
		r.s.logger.WarnContext(r.ctx, "flow denied", attrs...)
	}

	r.observe(string(c.Kind))
	return Response{Status: c.Status, Body: ErrorBody{Message: c.Message, Error: detail}}
}

func (r *flowRun) observe(outcome string) {
	if r.s.observer == nil {
		return
	}
	r.s.observer.ObserveFlow(string(r.flow), outcome, r.s.now().Sub(r.started))
}

const redacted = "[REDACTED]"

func (r *flowRun) redact(text string) string {
	if text == "" {
		return text
	}
	for _, secret := range []string{r.s.keys.Admin, r.s.keys.Regular} {
		if secret != "" {
			text = strings.ReplaceAll(text, secret, redacted)
		}
	}
	for _, value := range r.sensitive {
		if value != "" {
			text = strings.ReplaceAll(text, value, redacted)
		}
	}
	return text
}
