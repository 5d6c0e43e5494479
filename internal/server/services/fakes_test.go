package services

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/dmitrijs2005/travelbuddy/internal/common"
	"github.com/dmitrijs2005/travelbuddy/internal/dbx"
	"github.com/dmitrijs2005/travelbuddy/internal/server/models"
	"github.com/dmitrijs2005/travelbuddy/internal/server/repositories/images"
	"github.com/dmitrijs2005/travelbuddy/internal/server/repositories/profiles"
	"github.com/dmitrijs2005/travelbuddy/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/travelbuddy/internal/server/repositories/users"
	"github.com/dmitrijs2005/travelbuddy/internal/server/session"
)

type errBoom struct{}

func (errBoom) Error() string { return "boom" }

// --- users ---

type fakeUsersRepo struct {
	mu     sync.Mutex
	byMail map[string]*models.User

	createErr error
	getErr    error
}

func newFakeUsersRepo() *fakeUsersRepo {
	return &fakeUsersRepo{byMail: map[string]*models.User{}}
}

func (f *fakeUsersRepo) Create(_ context.Context, u *models.User) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	if _, ok := f.byMail[u.Email]; ok {
		return nil, common.ErrAlreadyExists
	}
	u.ID = "u-" + u.Email
	u.CreatedAt = time.Now()
	cp := *u
	f.byMail[u.Email] = &cp
	return u, nil
}

func (f *fakeUsersRepo) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	u, ok := f.byMail[email]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUsersRepo) GetUserByID(_ context.Context, id string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byMail {
		if u.ID == id {
			cp := *u
			return &cp, nil
		}
	}
	return nil, common.ErrorNotFound
}

// --- refresh tokens ---

type fakeRefreshRepo struct {
	mu     sync.Mutex
	tokens map[string]models.RefreshToken

	findErr   error
	delErr    error
	createErr error
}

func newFakeRefreshRepo() *fakeRefreshRepo {
	return &fakeRefreshRepo{tokens: map[string]models.RefreshToken{}}
}

func (f *fakeRefreshRepo) Create(_ context.Context, userID, sessionID, token string, expiresAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	f.tokens[token] = models.RefreshToken{UserID: userID, SessionID: sessionID, Token: token, Expires: expiresAt}
	return nil
}

func (f *fakeRefreshRepo) Find(_ context.Context, token string) (*models.RefreshToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.findErr != nil {
		return nil, f.findErr
	}
	t, ok := f.tokens[token]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &t, nil
}

func (f *fakeRefreshRepo) Delete(_ context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.delErr != nil {
		return f.delErr
	}
	delete(f.tokens, token)
	return nil
}

func (f *fakeRefreshRepo) DeleteBySession(_ context.Context, sessionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.delErr != nil {
		return f.delErr
	}
	for k, t := range f.tokens {
		if t.SessionID == sessionID {
			delete(f.tokens, k)
		}
	}
	return nil
}

// --- profiles ---

type fakeProfilesRepo struct {
	mu       sync.Mutex
	profiles map[string]models.Profile

	saveErr   error
	verifyErr error
	getErr    error
	saves     int
}

func newFakeProfilesRepo() *fakeProfilesRepo {
	return &fakeProfilesRepo{profiles: map[string]models.Profile{}}
}

func (f *fakeProfilesRepo) Get(_ context.Context, userID string) (*models.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	p, ok := f.profiles[userID]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &p, nil
}

func (f *fakeProfilesRepo) Save(_ context.Context, userID string, form *models.ProfileForm) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saves++
	p := f.profiles[userID]
	p.UserID = userID
	p.ProfileCreated = true
	p.FullName = form.FullName
	p.DateOfBirth = form.DateOfBirth
	p.Gender = form.Gender
	p.Address = form.Address
	p.AboutMe = form.AboutMe
	p.TravelInterests = form.TravelInterests
	p.ProfileImageRef = form.ProfileImageRef
	f.profiles[userID] = p
	return nil
}

func (f *fakeProfilesRepo) MarkVerified(_ context.Context, userID string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.verifyErr != nil {
		return f.verifyErr
	}
	p := f.profiles[userID]
	p.UserID = userID
	p.IsVerified = true
	p.VerifiedAt = &at
	f.profiles[userID] = p
	return nil
}

// --- images ---

type fakeImagesRepo struct {
	mu     sync.Mutex
	images map[string]models.Image

	createErr error
}

func newFakeImagesRepo() *fakeImagesRepo {
	return &fakeImagesRepo{images: map[string]models.Image{}}
}

func (f *fakeImagesRepo) Create(_ context.Context, img *models.Image) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	img.CreatedAt = time.Now()
	f.images[img.Handle] = *img
	return nil
}

func (f *fakeImagesRepo) Get(_ context.Context, handle string) (*models.Image, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	img, ok := f.images[handle]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &img, nil
}

func (f *fakeImagesRepo) MarkUploaded(_ context.Context, handle string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	img, ok := f.images[handle]
	if !ok {
		return common.ErrorNotFound
	}
	img.Status = models.UploadStatusUploaded
	f.images[handle] = img
	return nil
}

func (f *fakeImagesRepo) Delete(_ context.Context, handle string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.images, handle)
	return nil
}

// --- manager ---

type fakeRepoManager struct {
	u *fakeUsersRepo
	r *fakeRefreshRepo
	p *fakeProfilesRepo
	i *fakeImagesRepo
}

func newFakeRepoManager() *fakeRepoManager {
	return &fakeRepoManager{
		u: newFakeUsersRepo(),
		r: newFakeRefreshRepo(),
		p: newFakeProfilesRepo(),
		i: newFakeImagesRepo(),
	}
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error       { return nil }
func (m *fakeRepoManager) Users(db dbx.DBTX) users.Repository                 { return m.u }
func (m *fakeRepoManager) RefreshTokens(db dbx.DBTX) refreshtokens.Repository { return m.r }
func (m *fakeRepoManager) Profiles(db dbx.DBTX) profiles.Repository           { return m.p }
func (m *fakeRepoManager) Images(db dbx.DBTX) images.Repository               { return m.i }

// --- sessions ---

type fakeSessions struct {
	mu       sync.Mutex
	sessions map[string]session.Session
	next     int

	signInErr error
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{sessions: map[string]session.Session{}}
}

func (f *fakeSessions) SignIn(_ context.Context, userID string) (*session.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.signInErr != nil {
		return nil, f.signInErr
	}
	f.next++
	s := session.Session{ID: "s" + string(rune('0'+f.next)), UserID: userID, ExpiresAt: time.Now().Add(time.Hour)}
	f.sessions[s.ID] = s
	return &s, nil
}

func (f *fakeSessions) SignOut(_ context.Context, sessionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.sessions, sessionID)
	return nil
}

func (f *fakeSessions) Current(_ context.Context, sessionID string) (*session.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[sessionID]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

// --- object store ---

type fakeStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	deleted []string

	presignErr error
	deleteErr  error
}

func newFakeStore() *fakeStore {
	return &fakeStore{objects: map[string][]byte{}}
}

func (f *fakeStore) PresignPut(_ context.Context, key string, _ time.Duration) (string, error) {
	if f.presignErr != nil {
		return "", f.presignErr
	}
	return "http://s3.local/bucket/" + key + "?X-Amz-Signature=x", nil
}

func (f *fakeStore) Exists(_ context.Context, key string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.objects[key]
	return ok, nil
}

func (f *fakeStore) Get(_ context.Context, key string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.objects[key]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return b, nil
}

func (f *fakeStore) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, key)
	delete(f.objects, key)
	return nil
}

func (f *fakeStore) put(key string, b []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[key] = b
}
