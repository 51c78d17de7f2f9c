package usecase_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shandysiswandi/mfacore/internal/identity/entity"
	"github.com/shandysiswandi/mfacore/internal/identity/usecase"
	"github.com/shandysiswandi/mfacore/internal/pkg/clock"
	"github.com/shandysiswandi/mfacore/internal/pkg/config"
	"github.com/shandysiswandi/mfacore/internal/pkg/goerror"
	"github.com/shandysiswandi/mfacore/internal/pkg/goroutine"
	"github.com/shandysiswandi/mfacore/internal/pkg/hash"
	"github.com/shandysiswandi/mfacore/internal/pkg/instrument"
	"github.com/shandysiswandi/mfacore/internal/pkg/mfacrypto"
	"github.com/shandysiswandi/mfacore/internal/pkg/uid"
	"github.com/shandysiswandi/mfacore/internal/pkg/validator"
	"github.com/stretchr/testify/require"
)

const testConfig = `
mfa:
  methods: authenticator,sms,email
  totp:
    issuer: MFACore
    period_seconds: 30
    skew: 1
  code:
    length: 6
    expiration_minutes: 10
`

type fakeRepo struct {
	mu          sync.Mutex
	enrollments map[int64]entity.Enrollment
	codes       []entity.ChallengeCode
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{enrollments: map[int64]entity.Enrollment{}}
}

func (r *fakeRepo) GetEnrollment(_ context.Context, userID int64) (*entity.Enrollment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.enrollments[userID]
	if !ok {
		return nil, goerror.ErrNotFound
	}
	return &e, nil
}

func (r *fakeRepo) SaveEnrollment(_ context.Context, e entity.Enrollment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.enrollments[e.UserID]
	if ok && cur.IsEnabled {
		return goerror.ErrConflict
	}
	e.Version = cur.Version + 1
	e.IsVerified, e.IsEnabled, e.LastUsedAt = false, false, nil
	r.enrollments[e.UserID] = e
	return nil
}

func (r *fakeRepo) CreateChallengeCode(_ context.Context, c entity.ChallengeCode) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.codes = append(r.codes, c)
	return nil
}

func (r *fakeRepo) consumeLocked(in entity.ConsumeCode) error {
	for i := len(r.codes) - 1; i >= 0; i-- {
		c := &r.codes[i]
		if c.UserID == in.UserID && c.Method == in.Method && c.CodeHash == in.CodeHash && c.Acceptable(in.Now, in.Purpose, in.EnrollmentVersion) {
			c.IsUsed = true
			return nil
		}
	}
	return entity.ErrInvalidCode
}

func (r *fakeRepo) ConsumeChallengeCode(_ context.Context, in entity.ConsumeCode) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.consumeLocked(in); err != nil {
		return err
	}
	e := r.enrollments[in.UserID]
	e.LastUsedAt = &in.Now
	r.enrollments[in.UserID] = e
	return nil
}

func (r *fakeRepo) UpdateLastUsedAt(_ context.Context, userID int64, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.enrollments[userID]
	if !ok {
		return goerror.ErrNotFound
	}
	e.LastUsedAt = &at
	r.enrollments[userID] = e
	return nil
}

func (r *fakeRepo) EnableEnrollment(_ context.Context, userID, version int64, consume *entity.ConsumeCode, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.enrollments[userID]
	if ok && e.Version != version {
		return entity.ErrInvalidCode
	}
	if !ok || e.IsEnabled {
		return goerror.ErrConflict
	}
	if consume != nil {
		if err := r.consumeLocked(*consume); err != nil {
			return err
		}
	}
	e.IsVerified, e.IsEnabled, e.LastUsedAt = true, true, &at
	r.enrollments[userID] = e
	return nil
}

func (r *fakeRepo) DisableEnrollment(_ context.Context, userID, version int64, consume *entity.ConsumeCode, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.enrollments[userID]
	if ok && e.Version != version {
		return entity.ErrInvalidCode
	}
	if !ok || !e.IsEnabled {
		return goerror.ErrConflict
	}
	if consume != nil {
		if err := r.consumeLocked(*consume); err != nil {
			return err
		}
	}
	e.IsEnabled, e.LastUsedAt = false, &at
	r.enrollments[userID] = e
	return nil
}

func (r *fakeRepo) put(e entity.Enrollment) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.enrollments[e.UserID] = e
}

func (r *fakeRepo) get(userID int64) entity.Enrollment {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.enrollments[userID]
}

func (r *fakeRepo) codeCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.codes)
}

type fakeMessaging struct {
	mu      sync.Mutex
	changes []entity.StatusChange
	err     error
}

func (m *fakeMessaging) PublishMFAStatusChanged(_ context.Context, change entity.StatusChange) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.changes = append(m.changes, change)
	return m.err
}

func (m *fakeMessaging) published() []entity.StatusChange {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]entity.StatusChange(nil), m.changes...)
}

type sent struct {
	Destination string
	Message     entity.CodeMessage
}

type fakeSender struct {
	mu   sync.Mutex
	sent []sent
	err  error
}

func (s *fakeSender) SendCode(_ context.Context, destination string, msg entity.CodeMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, sent{Destination: destination, Message: msg})
	return nil
}

func (s *fakeSender) last(t *testing.T) sent {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	require.NotEmpty(t, s.sent, "nothing was sent")
	return s.sent[len(s.sent)-1]
}

type fakeLimiter struct {
	mu     sync.Mutex
	max    int
	counts map[string]int
	err    error
}

func newFakeLimiter(max int) *fakeLimiter {
	return &fakeLimiter{max: max, counts: map[string]int{}}
}

func (l *fakeLimiter) Allow(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return false, l.err
	}
	l.counts[key]++
	return l.counts[key] <= l.max, nil
}

func (l *fakeLimiter) Reset(_ context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.counts, key)
	return nil
}

var errSendFailed = errors.New("provider unavailable")

type fixture struct {
	uc      *usecase.Usecase
	repo    *fakeRepo
	mq      *fakeMessaging
	sms     *fakeSender
	email   *fakeSender
	limiter *fakeLimiter
	clock   *clock.Fixed
	enc     *mfacrypto.AESGCM
	gm      *goroutine.Manager
}

func newDependency(t *testing.T, yaml string) (usecase.Dependency, *fixture) {
	t.Helper()

	cfg, err := config.NewViperFromBytes("yaml", []byte(yaml))
	require.NoError(t, err)

	v, err := validator.NewV10Validator()
	require.NoError(t, err)

	master := make([]byte, mfacrypto.MasterKeySize)
	for i := range master {
		master[i] = byte(i)
	}
	keys, err := mfacrypto.NewHKDFKeyProvider(master)
	require.NoError(t, err)

	sf, err := uid.NewSnowflake(1)
	require.NoError(t, err)

	f := &fixture{
		repo:    newFakeRepo(),
		mq:      &fakeMessaging{},
		sms:     &fakeSender{},
		email:   &fakeSender{},
		limiter: newFakeLimiter(100),
		clock:   clock.NewFixed(time.Unix(1_700_000_000, 0).UTC()),
		enc:     mfacrypto.NewAESGCM(keys, nil),
		gm:      goroutine.NewManager(10),
	}

	return usecase.Dependency{
		RepoDB:        f.repo,
		RepoMessaging: f.mq,
		SMSSender:     f.sms,
		EmailSender:   f.email,
		Throttle:      f.limiter,
		Validator:     v,
		Config:        cfg,
		Encryptor:     f.enc,
		CodeHash:      hash.NewHMACSHA256([]byte("code-digest-key")),
		UID:           sf,
		Clock:         f.clock,
		Instrument:    instrument.NewNoop(),
		Goroutine:     f.gm,
	}, f
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	dep, f := newDependency(t, testConfig)
	uc, err := usecase.New(dep)
	require.NoError(t, err)
	f.uc = uc
	return f
}

// seedAuthenticator stores a sealed Base32 secret for userID.
func (f *fixture) seedAuthenticator(t *testing.T, userID int64, secret string, enabled bool) {
	t.Helper()

	sealed, err := f.enc.Encrypt([]byte(secret), mfacrypto.Scope{UserID: userID, Purpose: mfacrypto.PurposeTOTPSecret})
	require.NoError(t, err)

	f.repo.put(entity.Enrollment{
		ID:         userID * 10,
		UserID:     userID,
		Method:     entity.MFAMethodAuthenticator,
		Secret:     sealed,
		IsVerified: enabled,
		IsEnabled:  enabled,
	})
}

func (f *fixture) seedOutOfBand(t *testing.T, userID int64, method entity.MFAMethod, destination string, enabled bool) {
	t.Helper()

	e := entity.Enrollment{ID: userID * 10, UserID: userID, Method: method, IsVerified: enabled, IsEnabled: enabled}
	if method == entity.MFAMethodSMS {
		e.PhoneNumber = destination
	} else {
		e.Email = destination
	}
	require.NoError(t, e.Validate())
	f.repo.put(e)
}

// issue issues a code and returns the value the sender received.
func (f *fixture) issue(t *testing.T, userID int64, purpose entity.CodePurpose, sender *fakeSender) string {
	t.Helper()

	_, err := f.uc.IssueCode(context.Background(), usecase.IssueCodeInput{UserID: userID, Purpose: purpose})
	require.NoError(t, err)
	return sender.last(t).Message.Code
}

func requireCode(t *testing.T, err error, code goerror.Code) *goerror.Error {
	t.Helper()

	ge, ok := goerror.As(err)
	require.True(t, ok, "expected *goerror.Error, got %v", err)
	require.Equal(t, code, ge.Code(), ge.Error())
	return ge
}
