package service

import (
	"context"
	"strconv"
	"time"

	"github.com/ecosrev/ecosrev-api/internal/core/domain"
	"github.com/ecosrev/ecosrev-api/internal/core/ports"
)

// ---------------------------------------------------------------------------
// In-memory user repository
// ---------------------------------------------------------------------------

type stubUserRepo struct {
	byID       map[int64]*domain.User
	nextID     int64
	createErr  error
	setTempErr error
	linked     map[int64]int64 // userID -> imageID
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{byID: make(map[int64]*domain.User), nextID: 1, linked: make(map[int64]int64)}
}

func (r *stubUserRepo) Create(_ context.Context, u *domain.User) (int64, error) {
	if r.createErr != nil {
		return 0, r.createErr
	}
	for _, existing := range r.byID {
		if existing.Email == u.Email {
			return 0, domain.ErrEmailTaken
		}
	}
	clone := *u
	clone.ID = r.nextID
	r.byID[clone.ID] = &clone
	r.nextID++
	return clone.ID, nil
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, u := range r.byID {
		if u.Email == email {
			clone := *u
			return &clone, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) FindByID(_ context.Context, id int64) (*domain.User, error) {
	u, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	clone := *u
	return &clone, nil
}

func (r *stubUserRepo) List(context.Context) ([]domain.User, error) {
	out := make([]domain.User, 0, len(r.byID))
	for _, u := range r.byID {
		out = append(out, *u)
	}
	return out, nil
}

func (r *stubUserRepo) SetPoints(_ context.Context, id int64, points int) error {
	u, ok := r.byID[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.Points = points
	return nil
}

func (r *stubUserRepo) UpdatePassword(_ context.Context, id int64, hash string) error {
	u, ok := r.byID[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.PasswordHash = hash
	return nil
}

func (r *stubUserRepo) SetTemporaryPassword(_ context.Context, email, hash string, expires time.Time) error {
	if r.setTempErr != nil {
		return r.setTempErr
	}
	for _, u := range r.byID {
		if u.Email == email {
			u.PasswordHash = hash
			u.ResetPasswordToken = true
			u.ResetPasswordExpires = &expires
			return nil
		}
	}
	return domain.ErrUserNotFound
}

func (r *stubUserRepo) ClearPasswordReset(_ context.Context, id int64, hash string) error {
	u, ok := r.byID[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.PasswordHash = hash
	u.ResetPasswordToken = false
	u.ResetPasswordExpires = nil
	return nil
}

func (r *stubUserRepo) SetProfileImage(_ context.Context, userID, imageID int64) error {
	r.linked[userID] = imageID
	return nil
}

func (r *stubUserRepo) Delete(_ context.Context, id int64) error {
	if _, ok := r.byID[id]; !ok {
		return domain.ErrUserNotFound
	}
	delete(r.byID, id)
	return nil
}

// ---------------------------------------------------------------------------
// Image repository with programmable failures
// ---------------------------------------------------------------------------

type stubImageRepo struct {
	byID        map[int64]*domain.Image
	nextID      int64
	updateErrs  []error // consumed one per Update call
	updateCalls int
	deleteErr   error
}

func newStubImageRepo() *stubImageRepo {
	return &stubImageRepo{byID: make(map[int64]*domain.Image), nextID: 1}
}

func (r *stubImageRepo) Create(_ context.Context, img *domain.Image) (int64, error) {
	clone := *img
	clone.ID = r.nextID
	r.byID[clone.ID] = &clone
	r.nextID++
	return clone.ID, nil
}

func (r *stubImageRepo) FindByID(_ context.Context, id int64) (*domain.Image, error) {
	img, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrImageNotFound
	}
	clone := *img
	return &clone, nil
}

func (r *stubImageRepo) FindByUser(_ context.Context, userID int64) (*domain.Image, error) {
	for _, img := range r.byID {
		if img.UserID == userID {
			clone := *img
			return &clone, nil
		}
	}
	return nil, domain.ErrImageNotFound
}

func (r *stubImageRepo) Update(_ context.Context, img *domain.Image) error {
	r.updateCalls++
	if len(r.updateErrs) > 0 {
		err := r.updateErrs[0]
		r.updateErrs = r.updateErrs[1:]
		if err != nil {
			return err
		}
	}
	clone := *img
	r.byID[img.ID] = &clone
	return nil
}

func (r *stubImageRepo) Delete(_ context.Context, id int64) error {
	if r.deleteErr != nil {
		return r.deleteErr
	}
	if _, ok := r.byID[id]; !ok {
		return domain.ErrImageNotFound
	}
	delete(r.byID, id)
	return nil
}

// ---------------------------------------------------------------------------
// External collaborators
// ---------------------------------------------------------------------------

type stubStorage struct {
	uploadErr   error
	destroyErrs map[string]error
	uploads     int
	destroyed   []string
	presignFn   func(bucket, key string, ttl time.Duration) (string, error)
}

func (s *stubStorage) Upload(_ context.Context, in ports.UploadInput) (*ports.StoredObject, error) {
	if s.uploadErr != nil {
		return nil, s.uploadErr
	}
	s.uploads++
	id := in.Folder + "/obj" + strconv.Itoa(s.uploads)
	return &ports.StoredObject{URL: "https://cdn.test/" + id, PublicID: id}, nil
}

func (s *stubStorage) Destroy(_ context.Context, publicID string) error {
	if err := s.destroyErrs[publicID]; err != nil {
		return err
	}
	s.destroyed = append(s.destroyed, publicID)
	return nil
}

func (s *stubStorage) PresignDownload(_ context.Context, bucket, key string, ttl time.Duration) (string, error) {
	return s.presignFn(bucket, key, ttl)
}

type stubMailer struct {
	err  error
	sent map[string]string // to -> temporary password
}

func (m *stubMailer) SendPasswordReset(_ context.Context, to, temp string) error {
	if m.sent == nil {
		m.sent = make(map[string]string)
	}
	m.sent[to] = temp
	return m.err
}

type stubVerifier struct {
	issueErr error
}

func (v *stubVerifier) Issue(id domain.Identity) (string, error) {
	if v.issueErr != nil {
		return "", v.issueErr
	}
	return "token-" + id.Role, nil
}

func (v *stubVerifier) Verify(string) (domain.Identity, error) {
	return domain.Identity{}, domain.ErrInvalidCredential
}

type stubGuard struct {
	claimed  map[string]bool
	claimErr error
	released []string
}

func (g *stubGuard) Claim(_ context.Context, id string) (bool, error) {
	if g.claimErr != nil {
		return false, g.claimErr
	}
	if g.claimed == nil {
		g.claimed = make(map[string]bool)
	}
	if g.claimed[id] {
		return false, nil
	}
	g.claimed[id] = true
	return true, nil
}

func (g *stubGuard) Release(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	delete(g.claimed, id)
	g.released = append(g.released, id)
	return nil
}
