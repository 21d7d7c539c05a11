package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/civic-issue-service/internal/auth"
	"github.com/spec-kit/civic-issue-service/internal/blobstore"
	"github.com/spec-kit/civic-issue-service/internal/classifier"
	"github.com/spec-kit/civic-issue-service/internal/config"
	"github.com/spec-kit/civic-issue-service/internal/domain"
	"github.com/spec-kit/civic-issue-service/internal/events"
	"github.com/spec-kit/civic-issue-service/internal/repository"
	apperrors "github.com/spec-kit/civic-issue-service/pkg/util"
)

const placeholder = "https://placehold.co/600x400/cccccc/ffffff/png?text=No+Image"

var (
	citizenA = domain.Actor{Email: "a@example.com", Name: "Alice Reporter", Role: domain.RoleCitizen}
	citizenB = domain.Actor{Email: "b@example.com", Name: "Bob Neighbor", Role: domain.RoleCitizen}
	adminX   = domain.Actor{Email: "admin@example.com", Name: "Alice Admin", Role: domain.RoleAdmin}
	serviceS = domain.Actor{Email: "service@example.com", Name: "Sam Service", Role: domain.RoleService}
	workerW  = domain.Actor{Email: "w@example.com", Name: "Walt Near", Role: domain.RoleWorker}
	workerF  = domain.Actor{Email: "far@example.com", Name: "Fay Far", Role: domain.RoleWorker}
)

type stubClassifier struct {
	result classifier.Result
	err    error
}

func (s stubClassifier) Classify(context.Context, string, []classifier.Image) (classifier.Result, error) {
	return s.result, s.err
}

type failingStore struct{}

func (failingStore) Put(context.Context, blobstore.Blob) (string, error) {
	return "", errors.New("disk full")
}

func (failingStore) Get(context.Context, string) (blobstore.Blob, error) {
	return blobstore.Blob{}, blobstore.ErrNotFound
}

type recordingDispatcher struct {
	events.Dispatcher
	mu        sync.Mutex
	published []events.Event
}

func (r *recordingDispatcher) Publish(ctx context.Context, event events.Event) error {
	r.mu.Lock()
	r.published = append(r.published, event)
	r.mu.Unlock()
	return r.Dispatcher.Publish(ctx, event)
}

func (r *recordingDispatcher) types() []events.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]events.EventType, 0, len(r.published))
	for _, e := range r.published {
		out = append(out, e.Type)
	}
	return out
}

type testEnv struct {
	issues     repository.IssueRepository
	users      repository.UserRepository
	photos     blobstore.Store
	dispatcher *recordingDispatcher
	assignment *AssignmentService
	issuesSvc  *IssueService
	authSvc    *AuthService
	usersSvc   *UserService
}

func newTestEnv(t *testing.T, cls classifier.Classifier, photos blobstore.Store) *testEnv {
	t.Helper()
	env := &testEnv{
		issues:     repository.NewMemoryIssueRepository(),
		users:      repository.NewMemoryUserRepository(),
		photos:     photos,
		dispatcher: &recordingDispatcher{Dispatcher: events.NewInMemoryDispatcher(zap.NewNop())},
	}
	if env.photos == nil {
		env.photos = blobstore.NewMemoryStore()
	}
	env.assignment = NewAssignmentService(AssignmentDependencies{
		IssueRepo:  env.issues,
		UserRepo:   env.users,
		Dispatcher: env.dispatcher,
	})
	env.issuesSvc = NewIssueService(IssueDependencies{
		IssueRepo:      env.issues,
		UserRepo:       env.users,
		Assignment:     env.assignment,
		Classifier:     cls,
		Photos:         env.photos,
		Dispatcher:     env.dispatcher,
		PlaceholderURL: placeholder,
		PhotoBaseURL:   "/photos",
		MaxPhotoBytes:  1 << 20,
	})
	env.authSvc = NewAuthService(config.AuthConfig{BcryptCost: bcrypt.MinCost}, AuthDependencies{
		UserRepo: env.users,
		Tokens:   auth.NewTokenManager("test-secret", 5),
	})
	env.usersSvc = NewUserService(UserDependencies{UserRepo: env.users, Auth: env.authSvc})
	return env
}

// addUser inserts a directory entry directly, bypassing password hashing.
func (e *testEnv) addUser(t *testing.T, actor domain.Actor, mobile string, loc *domain.Location) {
	t.Helper()
	first, last := splitName(actor.Name)
	require.NoError(t, e.users.Create(context.Background(), &domain.User{
		Email:        actor.Email,
		FirstName:    first,
		LastName:     last,
		MobileNumber: mobile,
		Role:         actor.Role,
		Location:     loc,
	}))
}

func splitName(name string) (string, string) {
	for i := range name {
		if name[i] == ' ' {
			return name[:i], name[i+1:]
		}
	}
	return name, ""
}

func (e *testEnv) report(t *testing.T, actor domain.Actor, loc domain.Location) *domain.Issue {
	t.Helper()
	issue, err := e.issuesSvc.CreateIssue(context.Background(), actor, CreateIssueInput{
		Description: "Large pothole in the right lane",
		Location:    &loc,
	})
	require.NoError(t, err)
	return issue
}

func requireCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	require.Truef(t, apperrors.HasCode(err, code), "want %s, got %v", code, err)
}

func statusPtr(s domain.IssueStatus) *domain.IssueStatus { return &s }

func intPtr(v int) *int { return &v }
