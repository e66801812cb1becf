package security

import (
	"errors"
	"fmt"
	"identity-token-service/internal/common"
	"identity-token-service/internal/model"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims : подписанный payload. sub, type, iat и exp защищены подписью целиком.
type Claims struct {
	Type model.TokenType `json:"type"`
	jwt.RegisteredClaims
}

// TokenCodec выпускает и разбирает HS512 токены. Ключ задается один раз при создании.
type TokenCodec struct {
	secret []byte
	issuer string
	clock  Clock
	parser *jwt.Parser
}

func NewTokenCodec(secret []byte, issuer string, clock Clock) *TokenCodec {
	if clock == nil {
		clock = SystemClock{}
	}

	key := make([]byte, len(secret))
	copy(key, secret)

	// jwt/v5 считает токен валидным, пока now < exp + leeway. Leeway в 1ns дает
	// now <= exp: токен истекает строго после exp.
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS512.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(time.Nanosecond),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(clock.Now),
		jwt.WithStrictDecoding(),
	}
	if issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}

	return &TokenCodec{
		secret: key,
		issuer: issuer,
		clock:  clock,
		parser: jwt.NewParser(opts...),
	}
}

// Mint подписывает токен для subject. iat и exp в JWT хранятся с точностью до секунды,
// поэтому время выпуска округляется заранее и возвращаемый Token совпадает с payload.
func (c *TokenCodec) Mint(subject string, tokenType model.TokenType, ttl time.Duration) (string, *model.Token, error) {
	if subject == "" {
		return "", nil, errors.New("пустой subject токена")
	}
	if !tokenType.Valid() {
		return "", nil, fmt.Errorf("неизвестный тип токена %q", tokenType)
	}
	if ttl < time.Second {
		return "", nil, fmt.Errorf("слишком короткий ttl токена: %s", ttl)
	}

	issuedAt := c.clock.Now().UTC().Truncate(time.Second)
	expiresAt := issuedAt.Add(ttl).Truncate(time.Second)
	tokenUUID := uuid.New().String()

	claims := Claims{
		Type: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        tokenUUID,
			Subject:   subject,
			Issuer:    c.issuer,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString(c.secret)
	if err != nil {
		return "", nil, fmt.Errorf("ошибка подписи токена: %w", err)
	}

	return raw, &model.Token{
		UUID:      tokenUUID,
		UserUUID:  subject,
		Type:      tokenType,
		IssuedAt:  issuedAt,
		ExpiresAt: expiresAt,
	}, nil
}

// Decode проверяет подпись, затем срок действия. Токен с верной подписью и now > exp
// дает common.ErrTokenExpired, все остальное - common.ErrInvalidSignature.
func (c *TokenCodec) Decode(raw string) (*model.Token, error) {
	claims := &Claims{}

	_, err := c.parser.ParseWithClaims(raw, claims, func(token *jwt.Token) (interface{}, error) {
		return c.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: %v", common.ErrTokenExpired, err)
		}
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidSignature, err)
	}

	if !claims.Type.Valid() || claims.Subject == "" || claims.ID == "" || claims.IssuedAt == nil {
		return nil, fmt.Errorf("%w: неполный payload", common.ErrInvalidSignature)
	}

	return &model.Token{
		UUID:      claims.ID,
		UserUUID:  claims.Subject,
		Type:      claims.Type,
		IssuedAt:  claims.IssuedAt.Time.UTC(),
		ExpiresAt: claims.ExpiresAt.Time.UTC(),
	}, nil
}
