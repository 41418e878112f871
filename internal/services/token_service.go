package services

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/huntboard/team-lock-service/internal/config"
	"github.com/huntboard/team-lock-service/internal/utils"
)

// TokenIssuer identifies this service in every lock token it mints.
const TokenIssuer = "Huntboard"

// TokenSubjectTag marks the token class. Tokens minted by unrelated
// subsystems never carry it, so they cannot be replayed here even if
// they happen to share the signing secret.
const TokenSubjectTag = "team_lock"

// LockClaims is the verified content of a capability token.
type LockClaims struct {
	TeamID    string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// ---------------------------------------------------------------------
// TokenService interface
// ---------------------------------------------------------------------

// TokenService mints and verifies the signed capability tokens that
// bind a device to one team. Tokens are self-contained: the server
// never stores them, only checks signature and expiry.
type TokenService interface {
	Mint(teamID string) (token string, expiresAt time.Time, err error)

	// Verify returns the claims of a valid token. A structurally valid
	// token past its expiry fails with utils.ErrTokenExpired; every
	// other failure (malformed, bad signature, wrong subject tag) fails
	// uniformly with utils.ErrTokenInvalid.
	Verify(token string) (*LockClaims, error)
}

// ---------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------

type tokenService struct {
	secret []byte
	ttl    time.Duration
}

func NewTokenService(cfg *config.Config) TokenService {
	return &tokenService{
		secret: cfg.LockTokenSecret,
		ttl:    cfg.LockTokenTTL,
	}
}

func (s *tokenService) Mint(teamID string) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(s.ttl)

	claims := jwt.MapClaims{
		"iss": TokenIssuer,
		"sub": teamID,
		"iat": now.Unix(),
		"exp": expiresAt.Unix(),
		"typ": TokenSubjectTag,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// Verify checks signature and structure first, then expiry last, so the
// caller can tell "couldn't parse/verify" apart from "parsed fine but
// expired" and answer with an accurate client message.
func (s *tokenService) Verify(tokenString string) (*LockClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.secret, nil
	}, jwt.WithoutClaimsValidation())
	if err != nil || !token.Valid {
		return nil, utils.ErrTokenInvalid
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, utils.ErrTokenInvalid
	}

	iss, _ := claims["iss"].(string)
	if iss != TokenIssuer {
		return nil, utils.ErrTokenInvalid
	}
	typ, _ := claims["typ"].(string)
	if typ != TokenSubjectTag {
		return nil, utils.ErrTokenInvalid
	}
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return nil, utils.ErrTokenInvalid
	}
	expFloat, ok := claims["exp"].(float64)
	if !ok {
		return nil, utils.ErrTokenInvalid
	}
	iatFloat, _ := claims["iat"].(float64)

	lc := &LockClaims{
		TeamID:    sub,
		IssuedAt:  time.Unix(int64(iatFloat), 0),
		ExpiresAt: time.Unix(int64(expFloat), 0),
	}

	// A token is dead at exactly expiresAt, not one tick later.
	if !time.Now().Before(lc.ExpiresAt) {
		return nil, utils.ErrTokenExpired
	}
	return lc, nil
}
