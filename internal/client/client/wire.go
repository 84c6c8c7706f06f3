package client

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/projectdesk/internal/client/models"
	"github.com/golang-jwt/jwt/v5"
	"google.golang.org/protobuf/types/known/structpb"
)

// Full method names of the provider's services. Payloads on both sides are
// google.protobuf.Struct messages.
const (
	authService    = "/projectdesk.auth.v1.AuthService/"
	profileService = "/projectdesk.profiles.v1.ProfileService/"

	methodSignIn       = authService + "SignInWithPassword"
	methodSignUp       = authService + "SignUp"
	methodSignOut      = authService + "SignOut"
	methodRefresh      = authService + "RefreshSession"
	methodWatchSession = authService + "WatchSession"

	methodGetProfile    = profileService + "GetProfile"
	methodInsertProfile = profileService + "InsertProfile"
)

var errMalformedPayload = errors.New("malformed payload")

func credentialsRequest(email, password string) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{
		"email":    email,
		"password": password,
	})
}

// sessionFromResponse reads the "session" field of an auth response.
// A missing or null session yields nil without error.
func sessionFromResponse(resp *structpb.Struct) (*models.Session, error) {
	v, ok := resp.GetFields()["session"]
	if !ok {
		return nil, nil
	}
	if _, isNull := v.GetKind().(*structpb.Value_NullValue); isNull {
		return nil, nil
	}
	st := v.GetStructValue()
	if st == nil {
		return nil, fmt.Errorf("%w: session is not an object", errMalformedPayload)
	}
	return sessionFromStruct(st)
}

// sessionFromStruct decodes a session. Expiry and user identity missing from
// the payload are filled from the access token's claims.
func sessionFromStruct(st *structpb.Struct) (*models.Session, error) {
	f := st.GetFields()
	s := &models.Session{
		AccessToken:  f["access_token"].GetStringValue(),
		RefreshToken: f["refresh_token"].GetStringValue(),
	}
	if s.AccessToken == "" {
		return nil, fmt.Errorf("%w: session without access token", errMalformedPayload)
	}

	if raw := f["expires_at"].GetStringValue(); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return nil, fmt.Errorf("%w: expires_at: %v", errMalformedPayload, err)
		}
		s.ExpiresAt = t
	}

	if u := f["user"].GetStructValue(); u != nil {
		uf := u.GetFields()
		s.User.ID = uf["id"].GetStringValue()
		s.User.Email = uf["email"].GetStringValue()
		if meta := uf["metadata"].GetStructValue(); meta != nil && len(meta.GetFields()) > 0 {
			s.User.Metadata = make(map[string]string, len(meta.GetFields()))
			for k, v := range meta.GetFields() {
				s.User.Metadata[k] = v.GetStringValue()
			}
		}
	}

	if s.ExpiresAt.IsZero() || s.User.ID == "" {
		fillFromClaims(s)
	}
	if s.User.ID == "" {
		return nil, fmt.Errorf("%w: session without user id", errMalformedPayload)
	}
	return s, nil
}

// fillFromClaims reads exp, sub and email from the access token without
// verifying it; the provider already vouched for the token.
func fillFromClaims(s *models.Session) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(s.AccessToken, claims); err != nil {
		return
	}
	if s.ExpiresAt.IsZero() {
		if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
			s.ExpiresAt = exp.Time
		}
	}
	if s.User.ID == "" {
		if sub, err := claims.GetSubject(); err == nil {
			s.User.ID = sub
		}
	}
	if s.User.Email == "" {
		if email, ok := claims["email"].(string); ok {
			s.User.Email = email
		}
	}
}

func profileToStruct(p *models.Profile) (*structpb.Struct, error) {
	m := map[string]any{
		"id":       p.ID,
		"username": p.Username,
	}
	if p.FullName != "" {
		m["full_name"] = p.FullName
	}
	if p.AvatarURL != "" {
		m["avatar_url"] = p.AvatarURL
	}
	if !p.CreatedAt.IsZero() {
		m["created_at"] = p.CreatedAt.UTC().Format(time.RFC3339Nano)
	}
	return structpb.NewStruct(m)
}

func profileFromStruct(st *structpb.Struct) (*models.Profile, error) {
	f := st.GetFields()
	p := &models.Profile{
		ID:         f["id"].GetStringValue(),
		Username:   f["username"].GetStringValue(),
		FullName:   f["full_name"].GetStringValue(),
		AvatarURL:  f["avatar_url"].GetStringValue(),
		Provenance: models.ProvenancePersisted,
	}
	if p.ID == "" {
		return nil, fmt.Errorf("%w: profile without id", errMalformedPayload)
	}
	if raw := f["created_at"].GetStringValue(); raw != "" {
		t, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return nil, fmt.Errorf("%w: created_at: %v", errMalformedPayload, err)
		}
		p.CreatedAt = t
	}
	return p, nil
}

func eventFromStruct(st *structpb.Struct) (AuthEvent, error) {
	ev := AuthEvent{Kind: EventKind(st.GetFields()["event"].GetStringValue())}
	if ev.Kind == "" {
		return AuthEvent{}, fmt.Errorf("%w: event without kind", errMalformedPayload)
	}
	s, err := sessionFromResponse(st)
	if err != nil {
		return AuthEvent{}, err
	}
	ev.Session = s
	return ev, nil
}
