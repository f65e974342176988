package cognito_test

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	cip "github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"
	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/authgate/authgate/internal/auth"
	"github.com/authgate/authgate/internal/provider/cognito"
)

type mockAPI struct {
	mock.Mock
}

func (m *mockAPI) AdminInitiateAuth(ctx context.Context, in *cip.AdminInitiateAuthInput, _ ...func(*cip.Options)) (*cip.AdminInitiateAuthOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*cip.AdminInitiateAuthOutput)
	return out, args.Error(1)
}

func (m *mockAPI) AdminCreateUser(ctx context.Context, in *cip.AdminCreateUserInput, _ ...func(*cip.Options)) (*cip.AdminCreateUserOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*cip.AdminCreateUserOutput)
	return out, args.Error(1)
}

func (m *mockAPI) AdminAddUserToGroup(ctx context.Context, in *cip.AdminAddUserToGroupInput, _ ...func(*cip.Options)) (*cip.AdminAddUserToGroupOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*cip.AdminAddUserToGroupOutput)
	return out, args.Error(1)
}

func (m *mockAPI) AdminListGroupsForUser(ctx context.Context, in *cip.AdminListGroupsForUserInput, _ ...func(*cip.Options)) (*cip.AdminListGroupsForUserOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*cip.AdminListGroupsForUserOutput)
	return out, args.Error(1)
}

type recordingObserver struct {
	calls []string
}

func (o *recordingObserver) ObserveProviderCall(operation, result string) {
	o.calls = append(o.calls, operation+":"+result)
}

var testConfig = cognito.Config{Region: "us-east-1", UserPoolID: "us-east-1_pool", ClientID: "client-123"}

func TestGateway_Authenticate(t *testing.T) {
	api := &mockAPI{}
	obs := &recordingObserver{}
	gw := cognito.New(api, testConfig, obs)

	api.On("AdminInitiateAuth", mock.Anything, mock.MatchedBy(func(in *cip.AdminInitiateAuthInput) bool {
		return aws.ToString(in.UserPoolId) == "us-east-1_pool" &&
			aws.ToString(in.ClientId) == "client-123" &&
			in.AuthFlow == types.AuthFlowTypeAdminNoSrpAuth &&
			in.AuthParameters["USERNAME"] == "a@b.com" &&
			in.AuthParameters["PASSWORD"] == "pw"
	})).Return(&cip.AdminInitiateAuthOutput{
		AuthenticationResult: &types.AuthenticationResultType{
			AccessToken:  aws.String("access"),
			IdToken:      aws.String("id"),
			RefreshToken: aws.String("refresh"),
			ExpiresIn:    3600,
		},
	}, nil)

	tokens, err := gw.Authenticate(context.Background(), "a@b.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, &auth.ProviderTokens{
		AccessToken:  "access",
		IDToken:      "id",
		RefreshToken: "refresh",
		ExpiresIn:    3600,
	}, tokens)
	assert.Equal(t, []string{"authenticate:success"}, obs.calls)
	api.AssertExpectations(t)
}

func TestGateway_AuthenticateChallenge(t *testing.T) {
	api := &mockAPI{}
	gw := cognito.New(api, testConfig, nil)

	api.On("AdminInitiateAuth", mock.Anything, mock.Anything).Return(&cip.AdminInitiateAuthOutput{
		ChallengeName: types.ChallengeNameTypeNewPasswordRequired,
	}, nil)

	tokens, err := gw.Authenticate(context.Background(), "a@b.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, "NEW_PASSWORD_REQUIRED", tokens.ChallengeName)
	assert.Empty(t, tokens.AccessToken)
}

func TestGateway_FailureCodes(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code auth.FailureCode
	}{
		{"user not found", &types.UserNotFoundException{Message: aws.String("User does not exist.")}, auth.FailureUserNotFound},
		{"not authorized", &types.NotAuthorizedException{Message: aws.String("Incorrect username or password.")}, auth.FailureNotAuthorized},
		{"reset required", &types.PasswordResetRequiredException{Message: aws.String("Password reset required")}, auth.FailurePasswordResetRequired},
		{"not confirmed", &types.UserNotConfirmedException{Message: aws.String("User is not confirmed.")}, auth.FailureUserNotConfirmed},
		{"other", errors.New("dial tcp: i/o timeout"), auth.FailureOther},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &mockAPI{}
			obs := &recordingObserver{}
			gw := cognito.New(api, testConfig, obs)
			api.On("AdminInitiateAuth", mock.Anything, mock.Anything).Return(nil, tt.err)

			_, err := gw.Authenticate(context.Background(), "a@b.com", "pw")

			var pf *auth.ProviderFailure
			require.ErrorAs(t, err, &pf)
			assert.Equal(t, tt.code, pf.Code)
			assert.NotEmpty(t, pf.Detail)
			assert.ErrorIs(t, err, tt.err)
			assert.Equal(t, []string{"authenticate:" + tt.code.String()}, obs.calls)

			oopsErr, ok := oops.AsOops(pf.Err)
			require.True(t, ok)
			assert.Equal(t, "authenticate", oopsErr.Context()["operation"])
			assert.Equal(t, "a@b.com", oopsErr.Context()["username"])
		})
	}
}

func TestGateway_CreateUser(t *testing.T) {
	api := &mockAPI{}
	gw := cognito.New(api, testConfig, nil)

	api.On("AdminCreateUser", mock.Anything, mock.MatchedBy(func(in *cip.AdminCreateUserInput) bool {
		return aws.ToString(in.Username) == "12345678900" &&
			aws.ToString(in.TemporaryPassword) == "12345678900Temp!" &&
			in.MessageAction == types.MessageActionTypeSuppress &&
			len(in.UserAttributes) == 2 &&
			aws.ToString(in.UserAttributes[0].Name) == "name" &&
			aws.ToString(in.UserAttributes[0].Value) == "Ana"
	})).Return(&cip.AdminCreateUserOutput{
		User: &types.UserType{
			Username:   aws.String("12345678900"),
			UserStatus: types.UserStatusTypeForceChangePassword,
		},
	}, nil)

	user, err := gw.CreateUser(context.Background(), "12345678900", []auth.Attribute{
		{Name: "name", Value: "Ana"},
		{Name: "email", Value: "12345678900@temp.local"},
	}, "12345678900Temp!")
	require.NoError(t, err)
	assert.Equal(t, &auth.ProviderUser{Username: "12345678900", Status: "FORCE_CHANGE_PASSWORD"}, user)
	api.AssertExpectations(t)
}

func TestGateway_CreateUserFailures(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code auth.FailureCode
	}{
		{"exists", &types.UsernameExistsException{Message: aws.String("User account already exists")}, auth.FailureUsernameExists},
		{"weak password", &types.InvalidPasswordException{Message: aws.String("Password did not conform with policy")}, auth.FailureInvalidPassword},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &mockAPI{}
			gw := cognito.New(api, testConfig, nil)
			api.On("AdminCreateUser", mock.Anything, mock.Anything).Return(nil, tt.err)

			_, err := gw.CreateUser(context.Background(), "a@b.com", nil, "longenough")

			var pf *auth.ProviderFailure
			require.ErrorAs(t, err, &pf)
			assert.Equal(t, tt.code, pf.Code)
		})
	}
}

func TestGateway_AddToGroupMissingGroup(t *testing.T) {
	api := &mockAPI{}
	gw := cognito.New(api, testConfig, nil)
	api.On("AdminAddUserToGroup", mock.Anything, mock.MatchedBy(func(in *cip.AdminAddUserToGroupInput) bool {
		return aws.ToString(in.GroupName) == auth.AdminGroup
	})).Return(nil, &types.ResourceNotFoundException{Message: aws.String("Group not found.")})

	err := gw.AddToGroup(context.Background(), "a@b.com", auth.AdminGroup)

	var pf *auth.ProviderFailure
	require.ErrorAs(t, err, &pf)
	assert.Equal(t, auth.FailureResourceNotFound, pf.Code)
	assert.Equal(t, "Group not found.", pf.Detail)
}

func TestGateway_ListGroupsPaginates(t *testing.T) {
	api := &mockAPI{}
	obs := &recordingObserver{}
	gw := cognito.New(api, testConfig, obs)

	api.On("AdminListGroupsForUser", mock.Anything, mock.MatchedBy(func(in *cip.AdminListGroupsForUserInput) bool {
		return in.NextToken == nil
	})).Return(&cip.AdminListGroupsForUserOutput{
		Groups:    []types.GroupType{{GroupName: aws.String("staff")}},
		NextToken: aws.String("page-2"),
	}, nil).Once()
	api.On("AdminListGroupsForUser", mock.Anything, mock.MatchedBy(func(in *cip.AdminListGroupsForUserInput) bool {
		return aws.ToString(in.NextToken) == "page-2"
	})).Return(&cip.AdminListGroupsForUserOutput{
		Groups: []types.GroupType{{GroupName: aws.String(auth.AdminGroup)}},
	}, nil).Once()

	groups, err := gw.ListGroups(context.Background(), "a@b.com")
	require.NoError(t, err)
	assert.Equal(t, []string{"staff", auth.AdminGroup}, groups)
	assert.Equal(t, []string{"list_groups:success"}, obs.calls)
	api.AssertExpectations(t)
}

func TestGateway_NotConfigured(t *testing.T) {
	api := &mockAPI{}
	ctx := context.Background()

	noPool := cognito.New(api, cognito.Config{ClientID: "client-123"}, nil)
	_, err := noPool.Authenticate(ctx, "a@b.com", "pw")
	assert.ErrorIs(t, err, auth.ErrNotConfigured)
	_, err = noPool.CreateUser(ctx, "a@b.com", nil, "pw")
	assert.ErrorIs(t, err, auth.ErrNotConfigured)
	assert.ErrorIs(t, noPool.AddToGroup(ctx, "a@b.com", auth.AdminGroup), auth.ErrNotConfigured)
	_, err = noPool.ListGroups(ctx, "a@b.com")
	assert.ErrorIs(t, err, auth.ErrNotConfigured)

	noClient := cognito.New(api, cognito.Config{UserPoolID: "pool"}, nil)
	_, err = noClient.Authenticate(ctx, "a@b.com", "pw")
	assert.ErrorIs(t, err, auth.ErrNotConfigured)

	api.AssertNotCalled(t, "AdminInitiateAuth", mock.Anything, mock.Anything)
}
