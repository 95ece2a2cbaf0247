package stores

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisRoleAssignmentStore stores subject->roles in Redis sets (key: rolemem:{subjectID})
type RedisRoleAssignmentStore struct {
	client *redis.Client
	keyFmt string // format string, e.g. "rolemem:%s"
}

func NewRedisRoleAssignmentStore(client *redis.Client) *RedisRoleAssignmentStore {
	return &RedisRoleAssignmentStore{client: client, keyFmt: "rolemem:%s"}
}

func (r *RedisRoleAssignmentStore) key(subjectID string) string {
	return fmt.Sprintf(r.keyFmt, subjectID)
}

func (r *RedisRoleAssignmentStore) AssignRole(ctx context.Context, subjectID, roleID string) error {
	return r.client.SAdd(ctx, r.key(subjectID), roleID).Err()
}

func (r *RedisRoleAssignmentStore) RevokeRole(ctx context.Context, subjectID, roleID string) error {
	return r.client.SRem(ctx, r.key(subjectID), roleID).Err()
}

func (r *RedisRoleAssignmentStore) ListRoleIDs(ctx context.Context, subjectID string) ([]string, error) {
	res, err := r.client.SMembers(ctx, r.key(subjectID)).Result()
	if err != nil {
		return nil, err
	}
	return res, nil
}
