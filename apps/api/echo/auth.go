package echoapi

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/swaaagray/saoms/core"
	"github.com/swaaagray/saoms/core/user"
)

var jwtContextKey = "userToken"

func newJWTConfig(conf *core.Config) middleware.JWTConfig {
	return middleware.JWTConfig{
		SigningKey:    conf.SecretKey,
		SigningMethod: middleware.AlgorithmHS256,
		ContextKey:    jwtContextKey,
		Claims:        new(Claims),
	}
}

// Claims represents the authorization claims transmitted via a JWT. The
// ownership ids are baked in at login; services never trust ids from
// request bodies.
type Claims struct {
	jwt.StandardClaims
	OrigIssuedAt   int64  `json:"oriat,omitempty"`
	Username       string `json:"username,omitempty"`
	Email          string `json:"email,omitempty"`
	Role           string `json:"role,omitempty"`
	OrganizationID string `json:"organization_id,omitempty"`
	CouncilID      string `json:"council_id,omitempty"`
	CollegeID      string `json:"college_id,omitempty"`
	MustUpdateInfo bool   `json:"must_update_info,omitempty"`
}

// Principal builds the request-scoped principal passed into core services.
func (c Claims) Principal() core.Principal {
	return core.Principal{
		UserID:         c.Subject,
		Role:           c.Role,
		OrganizationID: c.OrganizationID,
		CouncilID:      c.CouncilID,
		CollegeID:      c.CollegeID,
	}
}

func GetUserClaims(conf *core.Config, usr user.User, mustUpdateInfo bool, origIat ...int64) *Claims {
	now := time.Now()
	nownix := now.Unix()

	var oriat int64
	if len(origIat) > 0 {
		oriat = origIat[0]
	} else {
		oriat = nownix
	}

	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    conf.AppName,
			Subject:   usr.ID,
			ExpiresAt: now.Add(conf.Server.JWTExpirationDelta).Unix(),
			IssuedAt:  nownix,
		},
		OrigIssuedAt:   oriat,
		Username:       usr.Username,
		Email:          usr.Email,
		Role:           usr.Role,
		OrganizationID: usr.OrganizationID,
		CouncilID:      usr.CouncilID,
		CollegeID:      usr.CollegeID,
		MustUpdateInfo: mustUpdateInfo,
	}
}

// authenticate checks credentials and assembles the Claims. Login doubles as
// the rollover tripwire: expired terms are archived first, then owner info
// freshness is checked against the post-archival state.
func (s *Server) authenticate(ctx context.Context, uname, pwd string) (*Claims, error) {
	usr, err := s.deps.UserSvc.GetByUsernameOrEmail(ctx, uname)
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return nil, errAuthenticationFailed
		}
		return nil, errors.Wrap(err, "finding user by username or email")
	}
	if err = usr.CheckPassword(pwd); err != nil {
		return nil, errAuthenticationFailed
	}
	if !usr.IsActive {
		return nil, errAccountDeactivated
	}

	if _, err = s.deps.AcademicSvc.ArchiveExpired(ctx); err != nil {
		return nil, errors.Wrap(err, "archiving expired terms")
	}

	var mustUpdate bool
	p := usr.Principal()
	if p.IsOrgScoped() || p.IsCouncilScoped() {
		mustUpdate, err = s.deps.OrgSvc.NeedsInfoRefresh(ctx, p)
		if err != nil {
			return nil, errors.Wrap(err, "checking owner info freshness")
		}
	}

	usr, err = s.deps.UserSvc.SetLastLogin(ctx, usr)
	if err != nil {
		return nil, errors.Wrap(err, "setting lastLogin")
	}
	return GetUserClaims(s.deps.Conf, usr, mustUpdate), nil
}

// GenerateToken generates a signed JWT token string representing the user Claims.
func GenerateToken(conf *core.Config, claims *Claims) (string, error) {
	method := jwt.GetSigningMethod(middleware.AlgorithmHS256)
	token := jwt.NewWithClaims(method, claims)

	ss, err := token.SignedString(conf.SecretKey)
	if err != nil {
		return "", errors.New("signing token")
	}
	return ss, nil
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	if token, ok := ctx.Get(jwtContextKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok {
			return *claims, nil
		}
	}
	return Claims{}, errUnauthorized
}

// getContextPrincipal resolves the authenticated caller once per request.
func getContextPrincipal(ctx echo.Context) (core.Principal, error) {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return core.Principal{}, err
	}
	return claims.Principal(), nil
}

func (s *Server) refreshToken(ctx echo.Context) (string, error) {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return "", errors.Wrap(err, "getting context claims")
	}

	usr, err := s.deps.UserSvc.GetByID(ctx.Request().Context(), claims.Subject)
	if err != nil {
		return "", errors.Wrap(err, "finding user by ID")
	}

	// check if user is still active
	if !usr.IsActive {
		return "", errAccountDeactivated
	}

	// check if refresh has not expired
	expTime := time.Unix(claims.OrigIssuedAt, 0).Add(s.deps.Conf.Server.JWTRefreshExpirationDelta)
	if time.Now().After(expTime) {
		return "", errRefreshExpired
	}

	// re-check owner info freshness so a completed update clears the gate
	// without a re-login
	var mustUpdate bool
	p := usr.Principal()
	if p.IsOrgScoped() || p.IsCouncilScoped() {
		if mustUpdate, err = s.deps.OrgSvc.NeedsInfoRefresh(ctx.Request().Context(), p); err != nil {
			return "", errors.Wrap(err, "checking owner info freshness")
		}
	}

	newClaims := GetUserClaims(s.deps.Conf, usr, mustUpdate, claims.OrigIssuedAt)
	token, err := GenerateToken(s.deps.Conf, newClaims)
	return token, errors.Wrap(err, "generating token")
}
