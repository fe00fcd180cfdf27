package echoapi

import (
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/trezcool/gmao/core"
	"github.com/trezcool/gmao/core/user"
)

const (
	contextTokenKey   = "userToken"
	contextSessionKey = "session"
	streamTokenParam  = "token"
)

// Claims represents the authorization claims transmitted via a JWT.
type Claims struct {
	jwt.StandardClaims
	OrigIssuedAt int64  `json:"oriat,omitempty"`
	Name         string `json:"name,omitempty"`
	Email        string `json:"email,omitempty"`
	Role         string `json:"role,omitempty"` // -> MANAGER | TECHNICIAN PORTAL
}

// Session is the authenticated user of a request. It lives on the echo.Context from the
// moment its token is validated, and ends when the token is revoked.
type Session struct {
	User      user.User
	Role      string
	TokenID   string
	ExpiresAt time.Time
	claims    Claims
}

func (s Session) IsManager() bool { return s.Role == user.RoleManager }

func GetUserClaims(conf *core.Config, usr user.User, origIat ...int64) *Claims {
	now := time.Now()
	nownix := now.Unix()

	oriat := nownix
	if len(origIat) > 0 {
		oriat = origIat[0]
	}

	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Id:        uuid.New().String(),
			Issuer:    conf.AppName,
			Subject:   usr.ID,
			Audience:  "GMAO",
			ExpiresAt: now.Add(conf.Server.JWTExpirationDelta).Unix(),
			IssuedAt:  nownix,
		},
		OrigIssuedAt: oriat,
		Name:         usr.Name,
		Email:        usr.Email,
		Role:         user.NormalizeRole(usr.Role),
	}
}

// GenerateToken generates a signed JWT token string representing the user Claims.
func GenerateToken(conf *core.Config, claims *Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.GetSigningMethod(middleware.AlgorithmHS256), claims)
	ss, err := token.SignedString([]byte(conf.SecretKey))
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

type authenticator struct {
	conf *core.Config
	svc  user.Service
}

func newAuthenticator(conf *core.Config, svc user.Service) *authenticator {
	return &authenticator{conf: conf, svc: svc}
}

func (a *authenticator) jwtConfig() middleware.JWTConfig {
	return middleware.JWTConfig{
		SigningKey:    []byte(a.conf.SecretKey),
		SigningMethod: middleware.AlgorithmHS256,
		ContextKey:    contextTokenKey,
		Claims:        new(Claims),
	}
}

func (a *authenticator) jwt() echo.MiddlewareFunc {
	return middleware.JWTWithConfig(a.jwtConfig())
}

// streamJWT reads the token from the query string: browsers cannot set headers on websockets.
func (a *authenticator) streamJWT() echo.MiddlewareFunc {
	cfg := a.jwtConfig()
	cfg.TokenLookup = "query:" + streamTokenParam
	return middleware.JWTWithConfig(cfg)
}

// session loads the Session of a validated token, rejecting revoked tokens and deactivated accounts.
func (a *authenticator) session() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return err
			}

			rctx := ctx.Request().Context()
			revoked, err := a.svc.IsTokenRevoked(rctx, claims.Id)
			if err != nil {
				return errors.Wrap(err, "checking token revocation")
			}
			if revoked {
				return errTokenRevoked
			}

			usr, err := a.svc.GetByID(rctx, claims.Subject)
			if err != nil {
				if errors.Cause(err) == user.ErrNotFound {
					return errUnauthorized
				}
				return errors.Wrap(err, "finding user by ID")
			}
			if !usr.IsActive {
				return errAccountDeactivated
			}

			ctx.Set(contextSessionKey, Session{
				User:      usr,
				Role:      user.NormalizeRole(usr.Role),
				TokenID:   claims.Id,
				ExpiresAt: time.Unix(claims.ExpiresAt, 0).UTC(),
				claims:    claims,
			})
			return next(ctx)
		}
	}
}

func (a *authenticator) authenticate(ctx echo.Context, email, pwd string) (*Claims, user.User, error) {
	rctx := ctx.Request().Context()
	usr, err := a.svc.GetByEmail(rctx, email)
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return nil, user.User{}, errAuthenticationFailed
		}
		return nil, user.User{}, errors.Wrap(err, "finding user by email")
	}
	if err = usr.CheckPassword(pwd); err != nil {
		return nil, user.User{}, errAuthenticationFailed
	}
	if !usr.IsActive {
		return nil, user.User{}, errAccountDeactivated
	}
	usr, err = a.svc.SetLastLogin(rctx, usr)
	if err != nil {
		return nil, user.User{}, errors.Wrap(err, "setting lastLogin")
	}
	return GetUserClaims(a.conf, usr), usr, nil
}

func (a *authenticator) refreshToken(ctx echo.Context) (string, error) {
	sess, err := getSession(ctx)
	if err != nil {
		return "", err
	}

	// check if refresh has not expired
	expTime := time.Unix(sess.claims.OrigIssuedAt, 0).Add(a.conf.Server.JWTRefreshExpirationDelta)
	if time.Now().After(expTime) {
		return "", errRefreshExpired
	}

	token, err := GenerateToken(a.conf, GetUserClaims(a.conf, sess.User, sess.claims.OrigIssuedAt))
	return token, errors.Wrap(err, "generating token")
}

func (a *authenticator) logout(ctx echo.Context) error {
	sess, err := getSession(ctx)
	if err != nil {
		return err
	}
	err = a.svc.RevokeToken(ctx.Request().Context(), sess.TokenID, sess.User.ID, sess.ExpiresAt)
	return errors.Wrap(err, "revoking token")
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	if token, ok := ctx.Get(contextTokenKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok {
			return *claims, nil
		}
	}
	return Claims{}, errUnauthorized
}

func getSession(ctx echo.Context) (Session, error) {
	if sess, ok := ctx.Get(contextSessionKey).(Session); ok {
		return sess, nil
	}
	return Session{}, errUnauthorized
}
