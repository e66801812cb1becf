package repository

import (
	"context"
	"errors"
	"fmt"
	"identity-token-service/config"
	"identity-token-service/internal/common"
	"identity-token-service/internal/model"
	"identity-token-service/internal/util"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	tokenKeyPrefix = "token:"
	scopeKeyPrefix = "tokens:"
)

// KEYS[1] - hash токена, KEYS[2] - множество id токенов пользователя этого типа.
// Множество живет не меньше самого долгоживущего токена в нем.
var saveTokenScript = redis.NewScript(`
redis.call('HSET', KEYS[1],
	'user_uuid', ARGV[1],
	'type', ARGV[2],
	'issued_at', ARGV[3],
	'expires_at', ARGV[4],
	'blacklisted', ARGV[5],
	'created_at', ARGV[6])
redis.call('PEXPIRE', KEYS[1], ARGV[7])
redis.call('SADD', KEYS[2], ARGV[8])
local ttl = redis.call('PTTL', KEYS[2])
if ttl < tonumber(ARGV[7]) then
	redis.call('PEXPIRE', KEYS[2], ARGV[7])
end
return 1
`)

// KEYS[1] - hash токена, KEYS[2] - его множество. Все ключи передаются через KEYS,
// скрипт их не собирает.
var deleteTokenScript = redis.NewScript(`
local fields = redis.call('HMGET', KEYS[1], 'user_uuid', 'type', 'blacklisted')
if not fields[1] or fields[3] ~= '0' then
	return 0
end
if fields[1] ~= ARGV[2] or fields[2] ~= ARGV[3] then
	return -1
end
redis.call('DEL', KEYS[1])
redis.call('SREM', KEYS[2], ARGV[1])
return 1
`)

// KEYS[1] - множество, KEYS[2..n] - hash токенов, ARGV[i] - id токена из KEYS[i+1].
// Id, добавленные после чтения множества, остаются в нем.
var deleteScopeScript = redis.NewScript(`
local deleted = 0
for i, id in ipairs(ARGV) do
	deleted = deleted + redis.call('DEL', KEYS[i + 1])
	redis.call('SREM', KEYS[1], id)
end
if redis.call('SCARD', KEYS[1]) == 0 then
	redis.call('DEL', KEYS[1])
end
return deleted
`)

var blacklistTokenScript = redis.NewScript(`
local blacklisted = redis.call('HGET', KEYS[1], 'blacklisted')
if not blacklisted or blacklisted ~= '0' then
	return 0
end
redis.call('HSET', KEYS[1], 'blacklisted', '1')
return 1
`)

// RedisTokenRepository : хранилище токенов в Redis. Каждая операция - один Lua-скрипт,
// поэтому удаление атомарно так же, как условный DELETE в Postgres.
type RedisTokenRepository struct {
	client    *config.RedisClient
	retention time.Duration
}

func NewRedisTokenRepository(rdb *config.RedisClient, retention time.Duration) *RedisTokenRepository {
	return &RedisTokenRepository{client: rdb, retention: retention}
}

func (r *RedisTokenRepository) Save(ctx context.Context, token *model.Token) (string, error) {
	if token.UUID == "" {
		token.UUID = uuid.New().String()
	}
	if token.CreatedAt.IsZero() {
		token.CreatedAt = time.Now().UTC()
	}

	ttl := time.Until(token.ExpiresAt) + r.retention
	if ttl < time.Second {
		ttl = time.Second
	}

	blacklisted := "0"
	if token.Blacklisted {
		blacklisted = "1"
	}

	err := saveTokenScript.Run(ctx, r.client.Client,
		[]string{r.key(token.UUID), r.scopeKey(token.UserUUID, token.Type)},
		token.UserUUID,
		string(token.Type),
		token.IssuedAt.UTC().Format(time.RFC3339Nano),
		token.ExpiresAt.UTC().Format(time.RFC3339Nano),
		blacklisted,
		token.CreatedAt.UTC().Format(time.RFC3339Nano),
		ttl.Milliseconds(),
		token.UUID,
	).Err()
	if err != nil {
		return "", util.LogError("[RedisTokenRepo] ошибка сохранения токена в Redis", err)
	}

	return token.UUID, nil
}

func (r *RedisTokenRepository) FindActive(ctx context.Context, tokenUUID string, tokenType model.TokenType) (*model.Token, error) {
	fields, err := r.client.Client.HGetAll(ctx, r.key(tokenUUID)).Result()
	if err != nil {
		return nil, util.LogError("[RedisTokenRepo] ошибка получения токена из Redis", err)
	}
	if len(fields) == 0 || fields["type"] != string(tokenType) || fields["blacklisted"] != "0" {
		return nil, fmt.Errorf("[RedisTokenRepo] токен %s: %w", tokenUUID, common.ErrNotFound)
	}

	token, err := decodeTokenHash(tokenUUID, fields)
	if err != nil {
		return nil, util.LogError("[RedisTokenRepo] поврежденная запись токена", err)
	}
	return token, nil
}

func (r *RedisTokenRepository) DeleteByID(ctx context.Context, tokenUUID string) error {
	// владелец и тип нужны, чтобы передать ключ множества через KEYS
	owner, err := r.client.Client.HMGet(ctx, r.key(tokenUUID), "user_uuid", "type").Result()
	if err != nil {
		return util.LogError("[RedisTokenRepo] ошибка получения токена из Redis", err)
	}
	userUUID, _ := owner[0].(string)
	tokenType, _ := owner[1].(string)
	if userUUID == "" {
		return fmt.Errorf("[RedisTokenRepo] токен %s уже удален: %w", tokenUUID, common.ErrNotFound)
	}

	deleted, err := deleteTokenScript.Run(ctx, r.client.Client,
		[]string{r.key(tokenUUID), r.scopeKey(userUUID, model.TokenType(tokenType))},
		tokenUUID,
		userUUID,
		tokenType,
	).Int64()
	if err != nil {
		return util.LogError("[RedisTokenRepo] не удалось удалить токен", err)
	}
	switch deleted {
	case 1:
		return nil
	case 0:
		return fmt.Errorf("[RedisTokenRepo] токен %s уже удален: %w", tokenUUID, common.ErrNotFound)
	default:
		return util.LogError("[RedisTokenRepo] не удалось удалить токен",
			fmt.Errorf("владелец токена %s изменился", tokenUUID))
	}
}

func (r *RedisTokenRepository) DeleteAllByScope(ctx context.Context, userUUID string, tokenType model.TokenType) (int64, error) {
	scope := r.scopeKey(userUUID, tokenType)
	ids, err := r.client.Client.SMembers(ctx, scope).Result()
	if err != nil {
		return 0, util.LogError("[RedisTokenRepo] не удалось получить токены пользователя", err)
	}
	if len(ids) == 0 {
		return 0, nil
	}

	keys := make([]string, 0, len(ids)+1)
	args := make([]interface{}, 0, len(ids))
	keys = append(keys, scope)
	for _, id := range ids {
		keys = append(keys, r.key(id))
		args = append(args, id)
	}

	deleted, err := deleteScopeScript.Run(ctx, r.client.Client, keys, args...).Int64()
	if err != nil {
		return 0, util.LogError("[RedisTokenRepo] не удалось удалить токены пользователя", err)
	}
	return deleted, nil
}

func (r *RedisTokenRepository) Blacklist(ctx context.Context, tokenUUID string) error {
	updated, err := blacklistTokenScript.Run(ctx, r.client.Client, []string{r.key(tokenUUID)}).Int64()
	if err != nil {
		return util.LogError("[RedisTokenRepo] не удалось заблокировать токен", err)
	}
	if updated == 0 {
		return fmt.Errorf("[RedisTokenRepo] токен %s: %w", tokenUUID, common.ErrNotFound)
	}
	return nil
}

func (r *RedisTokenRepository) key(tokenUUID string) string {
	return tokenKeyPrefix + tokenUUID
}

func (r *RedisTokenRepository) scopeKey(userUUID string, tokenType model.TokenType) string {
	return fmt.Sprintf("%s%s:%s", scopeKeyPrefix, userUUID, tokenType)
}

func decodeTokenHash(tokenUUID string, fields map[string]string) (*model.Token, error) {
	token := &model.Token{
		UUID:        tokenUUID,
		UserUUID:    fields["user_uuid"],
		Type:        model.TokenType(fields["type"]),
		Blacklisted: fields["blacklisted"] == "1",
	}

	var err error
	if token.IssuedAt, err = time.Parse(time.RFC3339Nano, fields["issued_at"]); err != nil {
		return nil, fmt.Errorf("issued_at: %w", err)
	}
	if token.ExpiresAt, err = time.Parse(time.RFC3339Nano, fields["expires_at"]); err != nil {
		return nil, fmt.Errorf("expires_at: %w", err)
	}
	if token.CreatedAt, err = time.Parse(time.RFC3339Nano, fields["created_at"]); err != nil {
		return nil, fmt.Errorf("created_at: %w", err)
	}
	if token.UserUUID == "" {
		return nil, errors.New("пустой user_uuid")
	}

	return token, nil
}
