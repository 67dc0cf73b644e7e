package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"minitasks/internal/auth"
	apperrors "minitasks/internal/errors"
	"minitasks/internal/logger"
	"minitasks/internal/model"
	"minitasks/internal/repository"
)

// MockUserRepository is a mock implementation of UserRepository.
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	if args.Error(0) == nil && user.ID == uuid.Nil {
		user.ID = uuid.New()
		user.CreatedAt = time.Now()
	}
	return args.Error(0)
}

func (m *MockUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

var testTokenConfig = auth.TokenConfig{
	Secret:   "test-secret",
	Issuer:   "mini-tasks-app",
	Audience: "mini-tasks-users",
}

func newTestAuthService(repo repository.UserRepository) (AuthService, *auth.JWTService) {
	jwtService := auth.NewJWTService(testTokenConfig)
	return NewAuthService(repo, jwtService, auth.NewBcryptHasher(bcrypt.MinCost), logger.Discard()), jwtService
}

func hashed(t *testing.T, password string) string {
	t.Helper()
	hash, err := auth.NewBcryptHasher(bcrypt.MinCost).Hash(password)
	require.NoError(t, err)
	return hash
}

func TestAuthService_Register(t *testing.T) {
	tests := []struct {
		name         string
		email        string
		password     string
		setupMock    func(*MockUserRepository)
		expectedKind apperrors.Kind
		expectedErr  error
	}{
		{
			name:     "successful registration",
			email:    "a@x.com",
			password: "secret1",
			setupMock: func(m *MockUserRepository) {
				m.On("FindByEmail", mock.Anything, "a@x.com").Return(nil, repository.ErrNotFound)
				m.On("Create", mock.Anything, mock.AnythingOfType("*model.User")).Return(nil)
			},
		},
		{
			name:     "user already exists",
			email:    "a@x.com",
			password: "secret1",
			setupMock: func(m *MockUserRepository) {
				m.On("FindByEmail", mock.Anything, "a@x.com").Return(&model.User{ID: uuid.New(), Email: "a@x.com"}, nil)
			},
			expectedKind: apperrors.KindAlreadyExists,
			expectedErr:  apperrors.ErrUserAlreadyExists,
		},
		{
			name:     "concurrent duplicate insert",
			email:    "a@x.com",
			password: "secret1",
			setupMock: func(m *MockUserRepository) {
				m.On("FindByEmail", mock.Anything, "a@x.com").Return(nil, repository.ErrNotFound)
				m.On("Create", mock.Anything, mock.AnythingOfType("*model.User")).Return(repository.ErrDuplicate)
			},
			expectedKind: apperrors.KindAlreadyExists,
			expectedErr:  apperrors.ErrUserAlreadyExists,
		},
		{
			name:         "empty email",
			email:        "",
			password:     "secret1",
			setupMock:    func(m *MockUserRepository) {},
			expectedKind: apperrors.KindInvalidArgument,
		},
		{
			name:         "empty password",
			email:        "a@x.com",
			password:     "",
			setupMock:    func(m *MockUserRepository) {},
			expectedKind: apperrors.KindInvalidArgument,
		},
		{
			name:         "short password",
			email:        "a@x.com",
			password:     "12345",
			setupMock:    func(m *MockUserRepository) {},
			expectedKind: apperrors.KindInvalidArgument,
		},
		{
			name:         "email longer than the column",
			email:        strings.Repeat("a", 250) + "@x.com",
			password:     "secret1",
			setupMock:    func(m *MockUserRepository) {},
			expectedKind: apperrors.KindInvalidArgument,
		},
		{
			name:         "multibyte email within the column",
			email:        strings.Repeat("é", 200) + "@x.com",
			password:     "secret1",
			setupMock: func(m *MockUserRepository) {
				m.On("FindByEmail", mock.Anything, mock.Anything).Return(nil, repository.ErrNotFound)
				m.On("Create", mock.Anything, mock.Anything).Return(nil)
			},
		},
		{
			name:         "password longer than bcrypt accepts",
			email:        "a@x.com",
			password:     strings.Repeat("p", 73),
			setupMock:    func(m *MockUserRepository) {},
			expectedKind: apperrors.KindInvalidArgument,
		},
		{
			name:     "storage failure on lookup",
			email:    "a@x.com",
			password: "secret1",
			setupMock: func(m *MockUserRepository) {
				m.On("FindByEmail", mock.Anything, "a@x.com").Return(nil, errors.New("connection refused"))
			},
			expectedKind: apperrors.KindInternal,
		},
		{
			name:     "storage failure on insert",
			email:    "a@x.com",
			password: "secret1",
			setupMock: func(m *MockUserRepository) {
				m.On("FindByEmail", mock.Anything, "a@x.com").Return(nil, repository.ErrNotFound)
				m.On("Create", mock.Anything, mock.AnythingOfType("*model.User")).Return(errors.New("disk full"))
			},
			expectedKind: apperrors.KindInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockUserRepository)
			tt.setupMock(mockRepo)

			svc, jwtService := newTestAuthService(mockRepo)
			session, err := svc.Register(context.Background(), tt.email, tt.password)

			if tt.expectedKind != "" {
				assert.Error(t, err)
				assert.Equal(t, tt.expectedKind, apperrors.KindOf(err))
				if tt.expectedErr != nil {
					assert.Equal(t, tt.expectedErr, err)
				}
				assert.Nil(t, session)
			} else {
				require.NoError(t, err)
				require.NotNil(t, session)
				assert.NotEmpty(t, session.Token)
				assert.Equal(t, tt.email, session.User.Email)
				assert.NotEqual(t, tt.password, session.User.PasswordHash)
				assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(session.User.PasswordHash), []byte(tt.password)))

				identity, err := jwtService.Verify(session.Token)
				require.NoError(t, err)
				assert.Equal(t, session.User.ID, identity.UserID)
				assert.Equal(t, tt.email, identity.Email)
			}

			mockRepo.AssertExpectations(t)
		})
	}
}

func TestAuthService_Login(t *testing.T) {
	userID := uuid.New()
	stored := &model.User{ID: userID, Email: "a@x.com", PasswordHash: hashed(t, "secret1")}

	tests := []struct {
		name         string
		email        string
		password     string
		setupMock    func(*MockUserRepository)
		expectedKind apperrors.Kind
		expectedErr  error
	}{
		{
			name:     "successful login",
			email:    "a@x.com",
			password: "secret1",
			setupMock: func(m *MockUserRepository) {
				m.On("FindByEmail", mock.Anything, "a@x.com").Return(stored, nil)
			},
		},
		{
			name:     "unknown email",
			email:    "ghost@x.com",
			password: "secret1",
			setupMock: func(m *MockUserRepository) {
				m.On("FindByEmail", mock.Anything, "ghost@x.com").Return(nil, repository.ErrNotFound)
			},
			expectedKind: apperrors.KindUnauthenticated,
			expectedErr:  apperrors.ErrInvalidCredentials,
		},
		{
			name:     "wrong password",
			email:    "a@x.com",
			password: "wrong",
			setupMock: func(m *MockUserRepository) {
				m.On("FindByEmail", mock.Anything, "a@x.com").Return(stored, nil)
			},
			expectedKind: apperrors.KindUnauthenticated,
			expectedErr:  apperrors.ErrInvalidCredentials,
		},
		{
			name:         "missing password",
			email:        "a@x.com",
			password:     "",
			setupMock:    func(m *MockUserRepository) {},
			expectedKind: apperrors.KindInvalidArgument,
		},
		{
			name:     "storage failure",
			email:    "a@x.com",
			password: "secret1",
			setupMock: func(m *MockUserRepository) {
				m.On("FindByEmail", mock.Anything, "a@x.com").Return(nil, errors.New("timeout"))
			},
			expectedKind: apperrors.KindInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockUserRepository)
			tt.setupMock(mockRepo)

			svc, jwtService := newTestAuthService(mockRepo)
			session, err := svc.Login(context.Background(), tt.email, tt.password)

			if tt.expectedKind != "" {
				assert.Error(t, err)
				assert.Equal(t, tt.expectedKind, apperrors.KindOf(err))
				if tt.expectedErr != nil {
					assert.Equal(t, tt.expectedErr, err)
				}
				assert.Nil(t, session)
			} else {
				require.NoError(t, err)
				assert.NotEmpty(t, session.Token)
				assert.Equal(t, tt.email, session.User.Email)

				identity, err := jwtService.Verify(session.Token)
				require.NoError(t, err)
				assert.Equal(t, userID, identity.UserID)
			}

			mockRepo.AssertExpectations(t)
		})
	}
}

func TestAuthService_LoginFailuresAreIndistinguishable(t *testing.T) {
	mockRepo := new(MockUserRepository)
	mockRepo.On("FindByEmail", mock.Anything, "ghost@x.com").Return(nil, repository.ErrNotFound)
	mockRepo.On("FindByEmail", mock.Anything, "a@x.com").Return(&model.User{ID: uuid.New(), Email: "a@x.com", PasswordHash: hashed(t, "secret1")}, nil)

	svc, _ := newTestAuthService(mockRepo)

	_, unknown := svc.Login(context.Background(), "ghost@x.com", "secret1")
	_, wrong := svc.Login(context.Background(), "a@x.com", "wrong-password")

	require.Error(t, unknown)
	require.Error(t, wrong)
	assert.Equal(t, apperrors.KindOf(unknown), apperrors.KindOf(wrong))
	assert.Equal(t, unknown.Error(), wrong.Error())
	assert.Equal(t, apperrors.MapErrorToHTTP(unknown), apperrors.MapErrorToHTTP(wrong))
}

func TestAuthService_Authenticate(t *testing.T) {
	svc, jwtService := newTestAuthService(new(MockUserRepository))
	userID := uuid.New()
	token, err := jwtService.Issue(userID, "a@x.com")
	require.NoError(t, err)

	foreign := auth.NewJWTService(auth.TokenConfig{Secret: "other-secret", Issuer: testTokenConfig.Issuer, Audience: testTokenConfig.Audience})
	foreignToken, err := foreign.Issue(userID, "a@x.com")
	require.NoError(t, err)

	tests := []struct {
		name        string
		header      string
		expectedErr error
	}{
		{name: "valid bearer token", header: "Bearer " + token},
		{name: "missing header", header: "", expectedErr: apperrors.ErrTokenRequired},
		{name: "lowercase scheme", header: "bearer " + token, expectedErr: apperrors.ErrTokenRequired},
		{name: "no space", header: "Bearer" + token, expectedErr: apperrors.ErrTokenRequired},
		{name: "basic scheme", header: "Basic dXNlcjpwYXNz", expectedErr: apperrors.ErrTokenRequired},
		{name: "double space", header: "Bearer  " + token, expectedErr: apperrors.ErrInvalidToken},
		{name: "empty token", header: "Bearer ", expectedErr: apperrors.ErrInvalidToken},
		{name: "garbage token", header: "Bearer abc.def.ghi", expectedErr: apperrors.ErrInvalidToken},
		{name: "foreign signature", header: "Bearer " + foreignToken, expectedErr: apperrors.ErrInvalidToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			identity, err := svc.Authenticate(context.Background(), tt.header)
			if tt.expectedErr != nil {
				assert.Equal(t, tt.expectedErr, err)
				assert.Equal(t, apperrors.KindUnauthenticated, apperrors.KindOf(err))
				assert.Nil(t, identity)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, userID, identity.UserID)
			assert.Equal(t, "a@x.com", identity.Email)
		})
	}
}

func TestAuthService_AuthenticateDoesNotTouchStore(t *testing.T) {
	mockRepo := new(MockUserRepository)
	svc, jwtService := newTestAuthService(mockRepo)
	token, err := jwtService.Issue(uuid.New(), "a@x.com")
	require.NoError(t, err)

	_, err = svc.Authenticate(context.Background(), "Bearer "+token)
	require.NoError(t, err)

	mockRepo.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
	mockRepo.AssertNotCalled(t, "FindByEmail", mock.Anything, mock.Anything)
}

func TestAuthService_WhoAmI(t *testing.T) {
	userID := uuid.New()
	identity := &auth.Identity{UserID: userID, Email: "a@x.com"}

	t.Run("existing user", func(t *testing.T) {
		mockRepo := new(MockUserRepository)
		mockRepo.On("FindByID", mock.Anything, userID).Return(&model.User{ID: userID, Email: "a@x.com"}, nil)
		svc, _ := newTestAuthService(mockRepo)

		user, err := svc.WhoAmI(context.Background(), identity)
		require.NoError(t, err)
		assert.Equal(t, userID, user.ID)
		mockRepo.AssertExpectations(t)
	})

	t.Run("deleted after issuance", func(t *testing.T) {
		mockRepo := new(MockUserRepository)
		mockRepo.On("FindByID", mock.Anything, userID).Return(nil, repository.ErrNotFound)
		svc, _ := newTestAuthService(mockRepo)

		user, err := svc.WhoAmI(context.Background(), identity)
		assert.Nil(t, user)
		assert.Equal(t, apperrors.ErrUserNotFound, err)
	})

	t.Run("storage failure", func(t *testing.T) {
		mockRepo := new(MockUserRepository)
		mockRepo.On("FindByID", mock.Anything, userID).Return(nil, errors.New("db down"))
		svc, _ := newTestAuthService(mockRepo)

		_, err := svc.WhoAmI(context.Background(), identity)
		assert.Equal(t, apperrors.KindInternal, apperrors.KindOf(err))
	})
}
