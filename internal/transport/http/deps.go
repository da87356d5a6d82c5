package http

import (
	"github.com/review-auth-api/internal/infrastructure/dynamo"
	jwtinfra "github.com/review-auth-api/internal/infrastructure/jwt"
	redisstore "github.com/review-auth-api/internal/infrastructure/redis"
	s3infra "github.com/review-auth-api/internal/infrastructure/s3"
	"github.com/review-auth-api/internal/infrastructure/smtp"
	"github.com/review-auth-api/internal/infrastructure/sns"
)

// Deps holds all infrastructure dependencies for the router.
type Deps struct {
	UserRepo    *dynamo.UserRepo
	InviteRepo  *dynamo.InviteRepo
	ArticleRepo *dynamo.ArticleRepo
	KV          redisstore.Store
	S3Store     *s3infra.Store
	Mailer      smtp.Mailer
	Publisher   sns.EventPublisher
	JWTProvider *jwtinfra.Provider
}
