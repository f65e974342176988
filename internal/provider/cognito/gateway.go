// Package cognito adapts an AWS Cognito user pool to auth.IdentityProvider.
package cognito

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	cip "github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"
	"github.com/aws/smithy-go"
	"github.com/samber/oops"

	"github.com/authgate/authgate/internal/auth"
)

// API is the subset of the Cognito client used by Gateway.
type API interface {
	AdminInitiateAuth(ctx context.Context, params *cip.AdminInitiateAuthInput, optFns ...func(*cip.Options)) (*cip.AdminInitiateAuthOutput, error)
	AdminCreateUser(ctx context.Context, params *cip.AdminCreateUserInput, optFns ...func(*cip.Options)) (*cip.AdminCreateUserOutput, error)
	AdminAddUserToGroup(ctx context.Context, params *cip.AdminAddUserToGroupInput, optFns ...func(*cip.Options)) (*cip.AdminAddUserToGroupOutput, error)
	AdminListGroupsForUser(ctx context.Context, params *cip.AdminListGroupsForUserInput, optFns ...func(*cip.Options)) (*cip.AdminListGroupsForUserOutput, error)
}

// CallObserver records the result of each provider call.
type CallObserver interface {
	ObserveProviderCall(operation, result string)
}

// Config identifies the user pool and app client.
type Config struct {
	Region     string
	UserPoolID string
	ClientID   string
	// Endpoint overrides the service endpoint, for local emulators.
	Endpoint string
}

// Gateway implements auth.IdentityProvider on top of Cognito.
type Gateway struct {
	api        API
	userPoolID string
	clientID   string
	observer   CallObserver
}

var _ auth.IdentityProvider = (*Gateway)(nil)

func New(api API, cfg Config, observer CallObserver) *Gateway {
	return &Gateway{
		api:        api,
		userPoolID: cfg.UserPoolID,
		clientID:   cfg.ClientID,
		observer:   observer,
	}
}

// NewClient builds a Cognito client from the default AWS credential chain.
func NewClient(ctx context.Context, cfg Config) (*cip.Client, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, oops.In("cognito").Code("AWS_CONFIG_FAILED").With("region", cfg.Region).Wrap(err)
	}
	return cip.NewFromConfig(awsCfg, func(o *cip.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	}), nil
}

const (
	opAuthenticate = "authenticate"
	opCreateUser   = "create_user"
	opAddToGroup   = "add_to_group"
	opListGroups   = "list_groups"
)

func (g *Gateway) Authenticate(ctx context.Context, username, password string) (*auth.ProviderTokens, error) {
	if err := g.requirePool(opAuthenticate); err != nil {
		return nil, err
	}
	if g.clientID == "" {
		return nil, fmt.Errorf("cognito %s: client id: %w", opAuthenticate, auth.ErrNotConfigured)
	}

	out, err := g.api.AdminInitiateAuth(ctx, &cip.AdminInitiateAuthInput{
		UserPoolId: aws.String(g.userPoolID),
		ClientId:   aws.String(g.clientID),
		AuthFlow:   types.AuthFlowTypeAdminNoSrpAuth,
		AuthParameters: map[string]string{
			"USERNAME": username,
			"PASSWORD": password,
		},
	})
	if err != nil {
		return nil, g.fail(opAuthenticate, username, err)
	}
	g.observe(opAuthenticate, "success")

	tokens := &auth.ProviderTokens{ChallengeName: string(out.ChallengeName)}
	if r := out.AuthenticationResult; r != nil {
		tokens.AccessToken = aws.ToString(r.AccessToken)
		tokens.IDToken = aws.ToString(r.IdToken)
		tokens.RefreshToken = aws.ToString(r.RefreshToken)
		tokens.ExpiresIn = r.ExpiresIn
	}
	return tokens, nil
}

func (g *Gateway) CreateUser(ctx context.Context, username string, attributes []auth.Attribute, temporaryPassword string) (*auth.ProviderUser, error) {
	if err := g.requirePool(opCreateUser); err != nil {
		return nil, err
	}

	attrs := make([]types.AttributeType, 0, len(attributes))
	for _, a := range attributes {
		attrs = append(attrs, types.AttributeType{Name: aws.String(a.Name), Value: aws.String(a.Value)})
	}

	out, err := g.api.AdminCreateUser(ctx, &cip.AdminCreateUserInput{
		UserPoolId:        aws.String(g.userPoolID),
		Username:          aws.String(username),
		TemporaryPassword: aws.String(temporaryPassword),
		MessageAction:     types.MessageActionTypeSuppress,
		UserAttributes:    attrs,
	})
	if err != nil {
		return nil, g.fail(opCreateUser, username, err)
	}
	g.observe(opCreateUser, "success")

	user := &auth.ProviderUser{Username: username}
	if out.User != nil {
		if name := aws.ToString(out.User.Username); name != "" {
			user.Username = name
		}
		user.Status = string(out.User.UserStatus)
	}
	return user, nil
}

func (g *Gateway) AddToGroup(ctx context.Context, username, group string) error {
	if err := g.requirePool(opAddToGroup); err != nil {
		return err
	}

	_, err := g.api.AdminAddUserToGroup(ctx, &cip.AdminAddUserToGroupInput{
		UserPoolId: aws.String(g.userPoolID),
		Username:   aws.String(username),
		GroupName:  aws.String(group),
	})
	if err != nil {
		return g.fail(opAddToGroup, username, err)
	}
	g.observe(opAddToGroup, "success")
	return nil
}

// ListGroups follows NextToken until every page has been read.
func (g *Gateway) ListGroups(ctx context.Context, username string) ([]string, error) {
	if err := g.requirePool(opListGroups); err != nil {
		return nil, err
	}

	var (
		groups []string
		next   *string
	)
	for {
		out, err := g.api.AdminListGroupsForUser(ctx, &cip.AdminListGroupsForUserInput{
			UserPoolId: aws.String(g.userPoolID),
			Username:   aws.String(username),
			Limit:      aws.Int32(60),
			NextToken:  next,
		})
		if err != nil {
			return nil, g.fail(opListGroups, username, err)
		}
		for _, grp := range out.Groups {
			groups = append(groups, aws.ToString(grp.GroupName))
		}
		next = out.NextToken
		if aws.ToString(next) == "" {
			break
		}
	}
	g.observe(opListGroups, "success")
	return groups, nil
}

func (g *Gateway) requirePool(op string) error {
	if g.userPoolID == "" {
		return fmt.Errorf("cognito %s: user pool id: %w", op, auth.ErrNotConfigured)
	}
	return nil
}

func (g *Gateway) fail(op, username string, err error) error {
	code := failureCode(err)
	g.observe(op, code.String())
	return &auth.ProviderFailure{
		Code:   code,
		Detail: errorMessage(err),
		Err: oops.In("cognito").
			Code(code.String()).
			With("operation", op).
			With("username", username).
			Wrap(err),
	}
}

func (g *Gateway) observe(op, result string) {
	if g.observer != nil {
		g.observer.ObserveProviderCall(op, result)
	}
}

func failureCode(err error) auth.FailureCode {
	var (
		userNotFound   *types.UserNotFoundException
		notAuthorized  *types.NotAuthorizedException
		resetRequired  *types.PasswordResetRequiredException
		notConfirmed   *types.UserNotConfirmedException
		usernameExists *types.UsernameExistsException
		badPassword    *types.InvalidPasswordException
		notFound       *types.ResourceNotFoundException
	)
	switch {
	case errors.As(err, &userNotFound):
		return auth.FailureUserNotFound
	case errors.As(err, &notAuthorized):
		return auth.FailureNotAuthorized
	case errors.As(err, &resetRequired):
		return auth.FailurePasswordResetRequired
	case errors.As(err, &notConfirmed):
		return auth.FailureUserNotConfirmed
	case errors.As(err, &usernameExists):
		return auth.FailureUsernameExists
	case errors.As(err, &badPassword):
		return auth.FailureInvalidPassword
	case errors.As(err, &notFound):
		return auth.FailureResourceNotFound
	}
	return auth.FailureOther
}

func errorMessage(err error) string {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		if msg := apiErr.ErrorMessage(); msg != "" {
			return msg
		}
		return apiErr.ErrorCode()
	}
	return err.Error()
}
