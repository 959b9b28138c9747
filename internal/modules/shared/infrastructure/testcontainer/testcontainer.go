package testcontainer

import (
	"context"
	"fmt"
	"strconv"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/mysql"
	rediscontainer "github.com/testcontainers/testcontainers-go/modules/redis"
	"github.com/testcontainers/testcontainers-go/wait"

	"prescription-api-app/internal/config"
)

// RedisContainer Redisコンテナのラッパー
type RedisContainer struct {
	Container *rediscontainer.RedisContainer
	Host      string
	Port      int
}

// MySQLContainer MySQLコンテナのラッパー
type MySQLContainer struct {
	Container *mysql.MySQLContainer
	Host      string
	Port      int
	Database  string
	User      string
	Password  string
}

// skipIfShort -short 指定時はコンテナを使うテストをスキップ
func skipIfShort(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
}

// StartRedis Redisコンテナを起動（テスト終了時に停止する）
func StartRedis(ctx context.Context, t *testing.T) (*RedisContainer, error) {
	t.Helper()
	skipIfShort(t)

	container, err := rediscontainer.Run(ctx,
		"redis:7-alpine",
		testcontainers.WithWaitStrategy(
			wait.ForLog("Ready to accept connections").WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to start redis container: %w", err)
	}

	rc := &RedisContainer{Container: container}
	t.Cleanup(func() {
		_ = rc.Close(context.Background())
	})

	rc.Host, rc.Port, err = hostPort(ctx, container, "6379")
	if err != nil {
		return nil, fmt.Errorf("failed to get redis endpoint: %w", err)
	}
	return rc, nil
}

// StartMySQL MySQLコンテナを起動（テスト終了時に停止する）
func StartMySQL(ctx context.Context, t *testing.T) (*MySQLContainer, error) {
	t.Helper()
	skipIfShort(t)

	const (
		database = "prescriptions_test"
		user     = "testuser"
		password = "testpass"
	)

	container, err := mysql.Run(ctx,
		"mysql:8.0",
		mysql.WithDatabase(database),
		mysql.WithUsername(user),
		mysql.WithPassword(password),
		testcontainers.WithWaitStrategy(
			wait.ForLog("port: 3306  MySQL Community Server").WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to start mysql container: %w", err)
	}

	mc := &MySQLContainer{
		Container: container,
		Database:  database,
		User:      user,
		Password:  password,
	}
	t.Cleanup(func() {
		_ = mc.Close(context.Background())
	})

	mc.Host, mc.Port, err = hostPort(ctx, container, "3306")
	if err != nil {
		return nil, fmt.Errorf("failed to get mysql endpoint: %w", err)
	}
	return mc, nil
}

func hostPort(ctx context.Context, container testcontainers.Container, port string) (string, int, error) {
	host, err := container.Host(ctx)
	if err != nil {
		return "", 0, err
	}

	mapped, err := container.MappedPort(ctx, port)
	if err != nil {
		return "", 0, err
	}

	p, err := strconv.Atoi(mapped.Port())
	if err != nil {
		return "", 0, fmt.Errorf("invalid mapped port %q: %w", mapped.Port(), err)
	}
	return host, p, nil
}

// Close Redisコンテナを停止
func (r *RedisContainer) Close(ctx context.Context) error {
	if r.Container != nil {
		return r.Container.Terminate(ctx)
	}
	return nil
}

// Close MySQLコンテナを停止
func (m *MySQLContainer) Close(ctx context.Context) error {
	if m.Container != nil {
		return m.Container.Terminate(ctx)
	}
	return nil
}

// Config コンテナに接続するためのRedis設定
func (r *RedisContainer) Config() *config.RedisConfig {
	return &config.RedisConfig{
		Enabled:  true,
		Host:     r.Host,
		Port:     r.Port,
		TTLHours: 1,
	}
}

// Config コンテナに接続するためのMySQL設定
func (m *MySQLContainer) Config() *config.MySQLConfig {
	return &config.MySQLConfig{
		Enabled:  true,
		Host:     m.Host,
		Port:     m.Port,
		User:     m.User,
		Password: m.Password,
		Database: m.Database,
	}
}
