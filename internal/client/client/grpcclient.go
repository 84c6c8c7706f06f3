package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/dmitrijs2005/projectdesk/internal/client/models"
	"github.com/dmitrijs2005/projectdesk/internal/common"
	"github.com/dmitrijs2005/projectdesk/internal/logging"
	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/types/known/structpb"
)

const defaultCallTimeout = 5 * time.Second

var (
	_ AuthClient    = (*GRPCClient)(nil)
	_ ProfileClient = (*GRPCClient)(nil)
)

// Option configures a GRPCClient.
type Option func(*GRPCClient)

// WithCallTimeout bounds every unary call. Non-positive values are ignored.
func WithCallTimeout(d time.Duration) Option {
	return func(c *GRPCClient) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithSessionCache persists the session across restarts.
func WithSessionCache(cache SessionCache) Option {
	return func(c *GRPCClient) { c.cache = cache }
}

func WithLogger(l logging.Logger) Option {
	return func(c *GRPCClient) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithDialOptions adds options for the connection made by NewGRPCClient.
func WithDialOptions(opts ...grpc.DialOption) Option {
	return func(c *GRPCClient) { c.dialOpts = append(c.dialOpts, opts...) }
}

// WithClock injects the time source used for expiry checks.
func WithClock(now func() time.Time) Option {
	return func(c *GRPCClient) {
		if now != nil {
			c.now = now
		}
	}
}

// GRPCClient talks to the provider's auth and profile services and owns the
// client's copy of the current session.
type GRPCClient struct {
	endpointURL string
	dialOpts    []grpc.DialOption
	conn        *grpc.ClientConn
	cc          grpc.ClientConnInterface

	cache   SessionCache
	timeout time.Duration
	logger  logging.Logger
	now     func() time.Time

	hub     *eventHub
	refresh singleflight.Group

	mu      sync.Mutex
	session *models.Session
	loaded  bool
}

// NewGRPCClient dials endpointURL lazily; no connection is made until the
// first call.
func NewGRPCClient(endpointURL string, opts ...Option) (*GRPCClient, error) {
	c := newClient(nil, opts...)
	dialOpts := append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, c.dialOpts...)
	conn, err := grpc.NewClient(endpointURL, dialOpts...)
	if err != nil {
		c.hub.close()
		return nil, err
	}
	c.endpointURL = endpointURL
	c.conn = conn
	c.cc = conn
	return c, nil
}

func newClient(cc grpc.ClientConnInterface, opts ...Option) *GRPCClient {
	c := &GRPCClient{
		cc:      cc,
		timeout: defaultCallTimeout,
		logger:  logging.Nop(),
		now:     time.Now,
		hub:     newEventHub(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func withAccessToken(ctx context.Context, token string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	md.Set(common.RequestIDHeaderName, uuid.NewString())
	md.Delete(common.AccessTokenHeaderName)
	if token != "" {
		md.Set(common.AccessTokenHeaderName, "Bearer "+token)
	}
	return metadata.NewOutgoingContext(ctx, md)
}

func (c *GRPCClient) invoke(ctx context.Context, method, token string, req *structpb.Struct) (*structpb.Struct, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp := &structpb.Struct{}
	if err := c.cc.Invoke(withAccessToken(ctx, token), method, req, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// currentSession returns the in-memory session, loading it from the cache on
// first use. A cached session is announced as INITIAL_SESSION. The caller must not modify the result.
func (c *GRPCClient) currentSession(ctx context.Context) *models.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loadLocked(ctx)
	return c.session
}

func (c *GRPCClient) loadLocked(ctx context.Context) {
	if c.loaded {
		return
	}
	c.loaded = true
	if c.cache == nil {
		return
	}
	s, err := c.cache.Load(ctx)
	if err != nil {
		c.logger.Warn(ctx, "session cache unreadable, starting signed out", "error", err)
		return
	}
	c.session = s
	if s != nil {
		c.hub.publish(AuthEvent{Kind: EventInitialSession, Session: copySession(s)})
	}
}

// replaceSession swaps the current session, persists it and publishes kind.
// The event is queued under the lock so subscribers see changes in the order
// they were made.
func (c *GRPCClient) replaceSession(ctx context.Context, s *models.Session, kind EventKind) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.replaceLocked(ctx, s, kind)
}

func (c *GRPCClient) replaceLocked(ctx context.Context, s *models.Session, kind EventKind) {
	c.loaded = true
	c.session = s

	if c.cache != nil {
		var err error
		if s == nil {
			err = c.cache.Clear(ctx)
		} else {
			err = c.cache.Save(ctx, s)
		}
		if err != nil {
			c.logger.Warn(ctx, "session cache write failed", "event", kind, "error", err)
		}
	}

	c.hub.publish(AuthEvent{Kind: kind, Session: copySession(s)})
}

func copySession(s *models.Session) *models.Session {
	if s == nil {
		return nil
	}
	cp := *s
	if s.User.Metadata != nil {
		cp.User.Metadata = make(map[string]string, len(s.User.Metadata))
		for k, v := range s.User.Metadata {
			cp.User.Metadata[k] = v
		}
	}
	return &cp
}

// GetSession returns the current session. An expired session is refreshed
// first; concurrent readers share a single refresh call. A refresh the
// provider rejects signs the client out and yields nil.
func (c *GRPCClient) GetSession(ctx context.Context) (*models.Session, error) {
	s := c.currentSession(ctx)
	if s == nil {
		return nil, nil
	}
	if !s.Expired(c.now()) {
		return copySession(s), nil
	}
	if s.RefreshToken == "" {
		c.replaceSession(ctx, nil, EventSignedOut)
		return nil, nil
	}

	v, err, _ := c.refresh.Do(s.RefreshToken, func() (any, error) {
		// An earlier flight may have finished since s was read.
		if cur := c.currentSession(ctx); cur == nil || cur.RefreshToken != s.RefreshToken || !cur.Expired(c.now()) {
			return cur, nil
		}
		return c.refreshSession(ctx, s.RefreshToken)
	})
	if err != nil {
		if errors.Is(err, ErrAuthRejected) {
			c.logger.Info(ctx, "session refresh rejected, signing out locally", "error", err)
			c.replaceSession(ctx, nil, EventSignedOut)
			return nil, nil
		}
		return nil, err
	}
	return copySession(v.(*models.Session)), nil
}

func (c *GRPCClient) refreshSession(ctx context.Context, refreshToken string) (*models.Session, error) {
	req, err := structpb.NewStruct(map[string]any{"refresh_token": refreshToken})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOther, err)
	}
	resp, err := c.invoke(ctx, methodRefresh, "", req)
	if err != nil {
		return nil, mapAuthError(err)
	}
	next, err := sessionFromResponse(resp)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOther, err)
	}
	if next == nil {
		return nil, fmt.Errorf("%w: refresh returned no session", ErrAuthRejected)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	// Someone signed in, out or refreshed while the call was in flight;
	// their session is newer than ours.
	if c.session == nil || c.session.RefreshToken != refreshToken {
		return c.session, nil
	}
	c.replaceLocked(ctx, next, EventTokenRefreshed)
	return next, nil
}

// SignInWithPassword authenticates and makes the returned session current.
func (c *GRPCClient) SignInWithPassword(ctx context.Context, email, password string) (*models.Session, error) {
	return c.authenticate(ctx, methodSignIn, email, password, true)
}

// SignUp registers a new account. The session is nil when the provider
// requires confirmation before the first sign-in.
func (c *GRPCClient) SignUp(ctx context.Context, email, password string) (*models.Session, error) {
	return c.authenticate(ctx, methodSignUp, email, password, false)
}

func (c *GRPCClient) authenticate(ctx context.Context, method, email, password string, requireSession bool) (*models.Session, error) {
	req, err := credentialsRequest(email, password)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOther, err)
	}
	resp, err := c.invoke(ctx, method, "", req)
	if err != nil {
		return nil, mapAuthError(err)
	}
	s, err := sessionFromResponse(resp)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOther, err)
	}
	if s == nil {
		if requireSession {
			return nil, fmt.Errorf("%w: no session issued", ErrAuthRejected)
		}
		return nil, nil
	}
	c.replaceSession(ctx, s, EventSignedIn)
	return copySession(s), nil
}

// SignOut revokes the session at the provider, then forgets it locally.
// When the provider refuses, the local session is kept and the error
// returned.
func (c *GRPCClient) SignOut(ctx context.Context) error {
	if s := c.currentSession(ctx); s != nil {
		if _, err := c.invoke(ctx, methodSignOut, s.AccessToken, &structpb.Struct{}); err != nil {
			return mapAuthError(err)
		}
	}
	c.replaceSession(ctx, nil, EventSignedOut)
	return nil
}

// OnAuthStateChange registers handler for every session change.
func (c *GRPCClient) OnAuthStateChange(handler func(AuthEvent)) func() {
	return c.hub.subscribe(handler)
}

// Watch follows the provider's session stream until ctx is done or the
// stream ends, applying every event to the local session. The stream is
// long-lived and is not bound by the call timeout.
func (c *GRPCClient) Watch(ctx context.Context) error {
	token := ""
	if s := c.currentSession(ctx); s != nil {
		token = s.AccessToken
	}

	desc := &grpc.StreamDesc{StreamName: "WatchSession", ServerStreams: true}
	stream, err := c.cc.NewStream(withAccessToken(ctx, token), desc, methodWatchSession)
	if err != nil {
		return mapError(err)
	}
	if err := stream.SendMsg(&structpb.Struct{}); err != nil {
		return mapError(err)
	}
	if err := stream.CloseSend(); err != nil {
		return mapError(err)
	}

	for {
		msg := &structpb.Struct{}
		if err := stream.RecvMsg(msg); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return mapError(err)
		}
		ev, err := eventFromStruct(msg)
		if err != nil {
			c.logger.Warn(ctx, "dropping malformed session event", "error", err)
			continue
		}
		c.applyRemoteEvent(ctx, ev)
	}
}

func (c *GRPCClient) applyRemoteEvent(ctx context.Context, ev AuthEvent) {
	switch {
	case ev.Kind == EventSignedOut:
		c.replaceSession(ctx, nil, EventSignedOut)
	case ev.Session != nil:
		c.replaceSession(ctx, ev.Session, ev.Kind)
	default:
		c.logger.Debug(ctx, "ignoring session event without session", "event", ev.Kind)
	}
}

func (c *GRPCClient) accessToken(ctx context.Context) string {
	if s := c.currentSession(ctx); s != nil {
		return s.AccessToken
	}
	return ""
}

// GetProfile fetches the profile keyed by id. A missing record is ErrNotFound.
func (c *GRPCClient) GetProfile(ctx context.Context, id string) (*models.Profile, error) {
	req, err := structpb.NewStruct(map[string]any{"id": id})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOther, err)
	}
	resp, err := c.invoke(ctx, methodGetProfile, c.accessToken(ctx), req)
	if err != nil {
		return nil, mapError(err)
	}
	return profileFromResponse(resp)
}

// InsertProfile creates a profile record and returns the stored version.
func (c *GRPCClient) InsertProfile(ctx context.Context, profile *models.Profile) (*models.Profile, error) {
	body, err := profileToStruct(profile)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOther, err)
	}
	req := &structpb.Struct{Fields: map[string]*structpb.Value{
		"profile": structpb.NewStructValue(body),
	}}
	resp, err := c.invoke(ctx, methodInsertProfile, c.accessToken(ctx), req)
	if err != nil {
		return nil, mapError(err)
	}
	return profileFromResponse(resp)
}

func profileFromResponse(resp *structpb.Struct) (*models.Profile, error) {
	st := resp.GetFields()["profile"].GetStructValue()
	if st == nil {
		return nil, fmt.Errorf("%w: no profile in response", ErrNotFound)
	}
	p, err := profileFromStruct(st)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOther, err)
	}
	return p, nil
}

// Close stops event delivery and closes the connection.
func (c *GRPCClient) Close() error {
	c.hub.close()
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
