package service

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/videotube/internal/events"
	"github.com/Skotchmaster/videotube/internal/media"
	"github.com/Skotchmaster/videotube/internal/models"
	"github.com/Skotchmaster/videotube/internal/repo"
	"github.com/Skotchmaster/videotube/internal/search"
)

var (
	testAccessSecret  = []byte("test-access-secret")
	testRefreshSecret = []byte("test-refresh-secret")
)

type fakeMedia struct {
	mu       sync.Mutex
	n        int
	fail     map[string]error
	emptyURL bool
	uploaded []string
	deleted  []string
}

func (f *fakeMedia) Upload(_ context.Context, folder string, file media.File) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail[folder]; err != nil {
		return "", err
	}
	if f.emptyURL {
		return "", nil
	}
	f.n++
	url := fmt.Sprintf("https://media.test/%s/%d%s", folder, f.n, filepath.Ext(file.Name))
	f.uploaded = append(f.uploaded, url)
	return url, nil
}

func (f *fakeMedia) Delete(_ context.Context, url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, url)
	return nil
}

type fakePublisher struct {
	mu     sync.Mutex
	events []events.UserEvent
	err    error
}

func (f *fakePublisher) PublishEvent(_ context.Context, topic, key string, event any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	ev := event.(events.UserEvent)
	if topic != events.TopicUserEvents || key != ev.UserID {
		return errors.New("unexpected topic or key")
	}
	f.events = append(f.events, ev)
	return nil
}

func (f *fakePublisher) types() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.events))
	for _, ev := range f.events {
		out = append(out, ev.Type)
	}
	return out
}

type fakeIndex struct {
	mu       sync.Mutex
	docs     map[string]search.Channel
	err      error
	lastFrom int
	lastSize int
}

func (f *fakeIndex) IndexChannel(_ context.Context, ch search.Channel) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if f.docs == nil {
		f.docs = map[string]search.Channel{}
	}
	f.docs[ch.ID] = ch
	return nil
}

func (f *fakeIndex) SearchChannels(_ context.Context, query string, from, size int) (int64, []search.Channel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, nil, f.err
	}
	f.lastFrom, f.lastSize = from, size
	var out []search.Channel
	for _, ch := range f.docs {
		if strings.Contains(ch.Username, query) || strings.Contains(strings.ToLower(ch.FullName), query) {
			out = append(out, ch)
		}
	}
	return int64(len(out)), out, nil
}

type testEnv struct {
	Repo     *repo.GormRepo
	Tokens   *TokenService
	Sessions *SessionService
	Profiles *ProfileService
	Media    *fakeMedia
	Events   *fakePublisher
	Index    *fakeIndex
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	r := repo.New(newTestDB(t))
	require.NoError(t, r.AutoMigrate())

	env := &testEnv{
		Repo:   r,
		Media:  &fakeMedia{},
		Events: &fakePublisher{},
		Index:  &fakeIndex{},
	}
	env.Tokens = &TokenService{
		Repo:          r,
		AccessSecret:  testAccessSecret,
		RefreshSecret: testRefreshSecret,
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    24 * time.Hour,
	}
	env.Sessions = &SessionService{
		Repo:          r,
		Tokens:        env.Tokens,
		Media:         env.Media,
		Events:        env.Events,
		Index:         env.Index,
		UploadTimeout: time.Second,
	}
	env.Profiles = &ProfileService{
		Repo:          r,
		Media:         env.Media,
		Events:        env.Events,
		Index:         env.Index,
		UploadTimeout: time.Second,
	}
	return env
}

func image(name string) *media.File {
	return &media.File{Name: name, ContentType: "image/png", Size: 3, Reader: strings.NewReader("img")}
}

func registerInput(username string) RegisterInput {
	return RegisterInput{
		FullName: "Full " + username,
		Username: username,
		Email:    username + "@example.com",
		Password: "p@ss",
		Avatar:   image("a.png"),
	}
}

func (env *testEnv) register(t *testing.T, username string) *models.User {
	t.Helper()
	u, err := env.Sessions.Register(context.Background(), registerInput(username))
	require.NoError(t, err)
	return u
}
