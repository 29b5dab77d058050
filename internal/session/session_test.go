package session

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/shortener/internal/common"
	"github.com/dmitrijs2005/shortener/internal/metrics"
	"github.com/dmitrijs2005/shortener/internal/passwd"
	"github.com/dmitrijs2005/shortener/internal/server/models"
	"github.com/dmitrijs2005/shortener/internal/token"
)

// --- fakes ---

type fakeStore struct {
	mu     sync.Mutex
	byName map[string]*models.User
	err    error
}

func newFakeStore(users ...*models.User) *fakeStore {
	s := &fakeStore{byName: map[string]*models.User{}}
	for _, u := range users {
		s.byName[u.UserName] = u
	}
	return s
}

func (s *fakeStore) GetUserByName(_ context.Context, name string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	u, ok := s.byName[name]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return u, nil
}

func (s *fakeStore) GetUserByID(_ context.Context, id int64) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	for _, u := range s.byName {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (s *fakeStore) delete(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.byName, name)
}

type countingHasher struct {
	passwd.Hasher
	verifies atomic.Int64
}

func (h *countingHasher) Verify(plaintext []byte, stored string) (bool, error) {
	h.verifies.Add(1)
	return h.Hasher.Verify(plaintext, stored)
}

// --- helpers ---

var testNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	m      *Manager
	store  *fakeStore
	codec  *token.Codec
	hasher *countingHasher
	john   *models.User
	clock  *atomic.Pointer[time.Time]
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	h, err := passwd.NewSHA512Hasher()
	require.NoError(t, err)
	hasher := &countingHasher{Hasher: h}

	stored, err := h.Derive([]byte("correct horse"))
	require.NoError(t, err)
	john := &models.User{ID: 143, UserName: "John", Email: "test@example.com", HashedPassword: stored}

	key, err := token.NewKey([]byte("Happy Test"))
	require.NoError(t, err)
	codec, err := token.NewCodec(key)
	require.NoError(t, err)

	clock := &atomic.Pointer[time.Time]{}
	now := testNow
	clock.Store(&now)

	store := newFakeStore(john, &models.User{ID: 7, UserName: "broken", HashedPassword: "no-delimiter"})
	m, err := NewManager(store, codec, hasher, DefaultConfig(), WithClock(func() time.Time { return *clock.Load() }))
	require.NoError(t, err)

	return &fixture{m: m, store: store, codec: codec, hasher: hasher, john: john, clock: clock}
}

func (f *fixture) advance(d time.Duration) {
	next := f.clock.Load().Add(d)
	f.clock.Store(&next)
}

func (f *fixture) login(t *testing.T) *Issued {
	t.Helper()
	issued, err := f.m.Login(context.Background(), "John", []byte("correct horse"))
	require.NoError(t, err)
	return issued
}

// --- Login ---

func TestLogin_Success(t *testing.T) {
	f := newFixture(t)
	pw := []byte("correct horse")

	issued, err := f.m.Login(context.Background(), "John", pw)
	require.NoError(t, err)

	assert.Equal(t, make([]byte, len(pw)), pw, "password must be wiped")
	assert.Equal(t, testNow.Add(time.Hour), issued.ExpiresAt)

	_, p, err := f.codec.ParseAndVerify(issued.Token)
	require.NoError(t, err)
	assert.Equal(t, token.Payload{
		Subject:   143,
		Name:      "John",
		Email:     "test@example.com",
		IssuedAt:  uint64(testNow.Unix()),
		ExpiresAt: uint64(testNow.Add(time.Hour).Unix()),
	}, p)

	c := issued.Cookie
	assert.Equal(t, "Bearer", c.Name)
	assert.Equal(t, issued.Token, c.Value)
	assert.True(t, c.Secure)
	assert.True(t, c.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, c.SameSite)
	assert.Equal(t, "/", c.Path)
	assert.Equal(t, 3600, c.MaxAge)
}

func TestLogin_UniformFailure(t *testing.T) {
	f := newFixture(t)
	failures := metrics.SessionLoginsTotal.WithLabelValues("failure")
	before := testutil.ToFloat64(failures)

	wrongPw := []byte("battery staple")
	_, errWrong := f.m.Login(context.Background(), "John", wrongPw)

	unknownPw := []byte("correct horse")
	verifiesBefore := f.hasher.verifies.Load()
	_, errUnknown := f.m.Login(context.Background(), "Nobody", unknownPw)

	require.ErrorIs(t, errWrong, ErrAuthenticationFailed)
	require.ErrorIs(t, errUnknown, ErrAuthenticationFailed)
	assert.Equal(t, errWrong.Error(), errUnknown.Error())

	assert.Equal(t, verifiesBefore+1, f.hasher.verifies.Load(), "unknown users still run a verification")
	assert.Equal(t, make([]byte, len(wrongPw)), wrongPw)
	assert.Equal(t, make([]byte, len(unknownPw)), unknownPw)
	assert.Equal(t, before+2, testutil.ToFloat64(failures))
}

func TestLogin_MalformedCredentialRecord(t *testing.T) {
	f := newFixture(t)

	_, err := f.m.Login(context.Background(), "broken", []byte("whatever"))
	require.ErrorIs(t, err, passwd.ErrMalformedCredentialRecord)
	assert.NotErrorIs(t, err, ErrAuthenticationFailed)
}

func TestLogin_StoreFailure(t *testing.T) {
	f := newFixture(t)
	f.store.err = errors.New("connection refused")
	pw := []byte("correct horse")

	_, err := f.m.Login(context.Background(), "John", pw)
	require.ErrorIs(t, err, common.ErrorInternal)
	assert.NotErrorIs(t, err, ErrAuthenticationFailed)
	assert.Equal(t, make([]byte, len(pw)), pw)
}

// --- Authenticate ---

func TestAuthenticate_Statuses(t *testing.T) {
	f := newFixture(t)
	issued := f.login(t)

	key, err := token.NewKey([]byte("another secret"))
	require.NoError(t, err)
	foreign, err := token.NewCodec(key)
	require.NoError(t, err)
	forged, err := foreign.Finalize(token.New(token.Payload{Subject: 143, ExpiresAt: uint64(testNow.Add(time.Hour).Unix())}))
	require.NoError(t, err)

	parts := strings.Split(issued.Token, ".")
	noneHeader := "eyJhbGciOiJub25lIiwidHlwIjoiSldUIn0" // {"alg":"none","typ":"JWT"}
	algNone := noneHeader + "." + parts[1] + "." + parts[2]

	tests := []struct {
		name    string
		header  string
		want    Status
		wantErr error
	}{
		{name: "no header", header: "", want: StatusNoCookie},
		{name: "other cookies only", header: "theme=dark; lang=en", want: StatusNoCookie},
		{name: "name without value separator", header: "Bearer", want: StatusNoCookie},
		{name: "empty value", header: "Bearer=", want: StatusMalformedCookie, wantErr: token.ErrMalformed},
		{name: "garbage segments", header: "Bearer=abc.def.ghi; other=1", want: StatusMalformedCookie, wantErr: token.ErrMalformed},
		{name: "two segments", header: "Bearer=" + parts[0] + "." + parts[1], want: StatusMalformedCookie, wantErr: token.ErrMalformed},
		{name: "foreign secret", header: "Bearer=" + forged, want: StatusInvalidToken, wantErr: token.ErrSignatureMismatch},
		{name: "algorithm none", header: "Bearer=" + algNone, want: StatusInvalidToken, wantErr: token.ErrUnsupportedAlgorithm},
		{name: "valid", header: "Bearer=" + issued.Token, want: StatusAuthenticated},
		{name: "valid among others", header: "a=1;  Bearer=" + issued.Token + " ; b=2", want: StatusAuthenticated},
		{name: "first occurrence wins", header: "Bearer=" + issued.Token + "; Bearer=junk", want: StatusAuthenticated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := f.m.Authenticate(context.Background(), tt.header)
			assert.Equal(t, tt.want, res.Status, res.Status.String())
			if tt.wantErr != nil {
				assert.ErrorIs(t, res.Err, tt.wantErr)
			}
			if tt.want == StatusAuthenticated {
				require.NoError(t, res.Err)
				require.True(t, res.Authenticated())
				assert.Equal(t, f.john, res.User)
				assert.Equal(t, int64(143), res.Payload.Subject)
			} else {
				assert.Nil(t, res.User)
			}
		})
	}
}

func TestAuthenticate_Expiry(t *testing.T) {
	f := newFixture(t)
	issued := f.login(t)
	header := "Bearer=" + issued.Token

	f.advance(time.Hour - time.Second)
	assert.Equal(t, StatusAuthenticated, f.m.Authenticate(context.Background(), header).Status)

	f.advance(time.Second)
	res := f.m.Authenticate(context.Background(), header)
	assert.Equal(t, StatusExpiredToken, res.Status)
	assert.ErrorIs(t, res.Err, token.ErrExpired)
	assert.Nil(t, res.User)
}

func TestAuthenticate_RejectedAfterDeletion(t *testing.T) {
	f := newFixture(t)
	issued := f.login(t)

	f.store.delete("John")

	res := f.m.Authenticate(context.Background(), "Bearer="+issued.Token)
	assert.Equal(t, StatusRejected, res.Status)
	assert.ErrorIs(t, res.Err, ErrIdentityNotFound)
	assert.False(t, res.Authenticated())
}

func TestAuthenticateRequest(t *testing.T) {
	f := newFixture(t)
	issued := f.login(t)

	r := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	r.Header.Add("Cookie", "theme=dark")
	r.AddCookie(issued.Cookie)

	res := f.m.AuthenticateRequest(r)
	assert.Equal(t, StatusAuthenticated, res.Status)
}

func TestAuthenticate_Metrics(t *testing.T) {
	f := newFixture(t)
	c := metrics.SessionAuthenticationsTotal.WithLabelValues(StatusNoCookie.String())
	before := testutil.ToFloat64(c)

	f.m.Authenticate(context.Background(), "")
	assert.Equal(t, before+1, testutil.ToFloat64(c))
}

// --- cookies ---

func TestCookieValue_Scenario(t *testing.T) {
	v, ok := CookieValue("Bearer=abc.def.ghi; other=1", "Bearer")
	require.True(t, ok)
	assert.Equal(t, "abc.def.ghi", v)
}

func TestParseCookieHeader(t *testing.T) {
	got := ParseCookieHeader(" a=1;b=x=y ; flag ;a=2;  c= ;=anon")
	assert.Equal(t, map[string]string{
		"a": "1",
		"b": "x=y",
		"c": "",
		"":  "anon",
	}, got)
}

func TestSetCookieHeader(t *testing.T) {
	f := newFixture(t)
	issued := f.login(t)

	h := SetCookieHeader(issued)
	assert.True(t, strings.HasPrefix(h, "Bearer="+issued.Token+";"))
	for _, attr := range []string{"Path=/", "HttpOnly", "Secure", "SameSite=Lax", "Max-Age=3600"} {
		assert.Contains(t, h, attr)
	}
	assert.Empty(t, SetCookieHeader(nil))
}

func TestClearCookie(t *testing.T) {
	f := newFixture(t)

	c := f.m.ClearCookie()
	assert.Equal(t, "Bearer", c.Name)
	assert.Empty(t, c.Value)
	assert.Equal(t, -1, c.MaxAge)
	assert.True(t, c.HttpOnly)
}

// --- construction ---

func TestNewManager_InvalidConfig(t *testing.T) {
	h, err := passwd.NewSHA512Hasher()
	require.NoError(t, err)
	key, err := token.NewKey([]byte("k"))
	require.NoError(t, err)
	codec, err := token.NewCodec(key)
	require.NoError(t, err)

	bad := []Config{
		{CookieName: "Bearer", Lifetime: 0},
		{CookieName: "", Lifetime: time.Hour},
		{CookieName: "bad name", Lifetime: time.Hour},
	}
	for _, cfg := range bad {
		_, err := NewManager(newFakeStore(), codec, h, cfg)
		assert.ErrorIs(t, err, ErrInvalidConfig)
	}

	m, err := NewManager(newFakeStore(), codec, h, Config{CookieName: "sid", Lifetime: time.Minute})
	require.NoError(t, err)
	assert.Equal(t, "/", m.Config().Path)
	assert.Equal(t, http.SameSiteLaxMode, m.Config().SameSite)
}

func TestContextHelpers(t *testing.T) {
	u := &models.User{ID: 1}
	ctx := NewContext(context.Background(), Result{Status: StatusAuthenticated, User: u})

	got, ok := UserFromContext(ctx)
	require.True(t, ok)
	assert.Same(t, u, got)

	_, ok = UserFromContext(NewContext(context.Background(), Result{Status: StatusExpiredToken}))
	assert.False(t, ok)
	_, ok = UserFromContext(context.Background())
	assert.False(t, ok)
}

// --- concurrency ---

func TestManager_ConcurrentLoginAndAuthenticate(t *testing.T) {
	f := newFixture(t)
	issued := f.login(t)

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, err := f.m.Login(context.Background(), "John", []byte("correct horse"))
			assert.NoError(t, err)
		}()
		go func() {
			defer wg.Done()
			res := f.m.Authenticate(context.Background(), "Bearer="+issued.Token)
			assert.Equal(t, StatusAuthenticated, res.Status)
		}()
	}
	wg.Wait()
}
